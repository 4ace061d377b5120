package plankton

import (
	"math/rand"
	"testing"
)

// scriptRand is a scripted random stream: Float64 pops from a fixed
// list (then repeats 0.5), Intn returns 0 and Perm is the identity, so
// scenario tests control every stochastic decision.
type scriptRand struct {
	floats []float64
	next   int
}

func (r *scriptRand) Float64() float64 {
	if r.next < len(r.floats) {
		v := r.floats[r.next]
		r.next++
		return v
	}
	return 0.5
}

func (r *scriptRand) Intn(n int) int { return 0 }

func (r *scriptRand) Perm(n int) []int {
	p := make([]int, n)
	for i := range p {
		p[i] = i
	}
	return p
}

func TestRuleEngine_StepUnknownIDIsNoop(t *testing.T) {
	st := newTestStore()
	re := NewRuleEngine(st, &scriptRand{}, DefaultRuleParams())

	re.Step(999) // the agent died earlier in the step; nothing to do
}

func TestRuleEngine_PhytoMoves(t *testing.T) {
	st := newTestStore()
	p := st.AddPhyto(Vec{X: 10, Y: 10}, 0)

	// Turn draw 0.5 keeps the heading at 0, birth roll 0.5 suppresses
	// reproduction.
	re := NewRuleEngine(st, &scriptRand{floats: []float64{0.5, 0.5}}, DefaultRuleParams())
	re.Step(p.ID())

	want := Vec{X: 10.5, Y: 10}
	if p.Pos() != want {
		t.Errorf("Expected position %v after one step, got %v", want, p.Pos())
	}
	if st.Count() != 1 {
		t.Errorf("Expected no reproduction, population is %d", st.Count())
	}
}

func TestRuleEngine_PhytoReproduces(t *testing.T) {
	st := newTestStore()
	p := st.AddPhyto(Vec{X: 10, Y: 10}, 0)

	// Birth roll 0.01 < 0.05 fires reproduction; the third draw is the
	// daughter's heading.
	re := NewRuleEngine(st, &scriptRand{floats: []float64{0.5, 0.01, 0.25}}, DefaultRuleParams())
	re.Step(p.ID())

	if st.Count() != 2 {
		t.Fatalf("Expected 2 agents after reproduction, got %d", st.Count())
	}

	daughter, ok := st.Get(p.ID() + 1)
	if !ok {
		t.Fatal("Expected the daughter under the next id")
	}
	if daughter.Species() != SpeciesPhyto {
		t.Errorf("Expected a phyto daughter, got %q", daughter.Species())
	}
	if daughter.Pos() != p.Pos() {
		t.Errorf("Expected daughter at the parent's position %v, got %v", p.Pos(), daughter.Pos())
	}
}

func TestRuleEngine_PhytoOvercrowdingDeath(t *testing.T) {
	st := newTestStore()
	first := st.AddPhyto(Vec{X: 10, Y: 10}, 0)
	for i := 0; i < 4; i++ {
		st.AddPhyto(Vec{X: 10, Y: 10}, 0)
	}

	// No reproduction; the agent drifts 0.5 away but the other four stay
	// within the crowd radius.
	re := NewRuleEngine(st, &scriptRand{floats: []float64{0.5, 0.5}}, DefaultRuleParams())
	re.Step(first.ID())

	if _, ok := st.Get(first.ID()); ok {
		t.Error("Expected the crowded agent to be removed")
	}
	if st.Count() != 4 {
		t.Errorf("Expected 4 survivors, got %d", st.Count())
	}
}

func TestRuleEngine_PhytoSurvivesSparseNeighborhood(t *testing.T) {
	st := newTestStore()
	p := st.AddPhyto(Vec{X: 10, Y: 10}, 0)
	for i := 0; i < 3; i++ {
		st.AddPhyto(Vec{X: 10, Y: 10}, 0)
	}

	// Three same-species neighbors is below the crowd limit of four.
	re := NewRuleEngine(st, &scriptRand{floats: []float64{0.5, 0.5}}, DefaultRuleParams())
	re.Step(p.ID())

	if _, ok := st.Get(p.ID()); !ok {
		t.Error("Agent below the crowd limit must survive")
	}
}

func TestRuleEngine_ZooCrowdDoesNotKillPhyto(t *testing.T) {
	st := newTestStore()
	p := st.AddPhyto(Vec{X: 10, Y: 10}, 0)
	for i := 0; i < 5; i++ {
		st.AddZoo(Vec{X: 10, Y: 10}, 0, 5)
	}

	// Only same-species neighbors count toward overcrowding.
	re := NewRuleEngine(st, &scriptRand{floats: []float64{0.5, 0.5}}, DefaultRuleParams())
	re.Step(p.ID())

	if _, ok := st.Get(p.ID()); !ok {
		t.Error("Zooplankton neighbors must not trigger overcrowding death")
	}
}

func TestRuleEngine_ZooPredation(t *testing.T) {
	st := newTestStore()
	zoo := st.AddZoo(Vec{X: 0, Y: 0}, 0, 5)
	prey := st.AddPhyto(Vec{X: 1, Y: 0}, 0)

	// Turn draw 0.5 keeps heading 0: the zoo swims to (2,0), pays 1
	// energy, survives the 0.5 death roll (4*0.5 > 0.2) and finds the
	// phyto at distance 1.
	re := NewRuleEngine(st, &scriptRand{floats: []float64{0.5, 0.5}}, DefaultRuleParams())
	re.Step(zoo.ID())

	if _, ok := st.Get(prey.ID()); ok {
		t.Error("Expected the phyto to be eaten")
	}
	if zoo.Energy != 7 {
		t.Errorf("Expected energy 5 - 1 + 3 = 7, got %d", zoo.Energy)
	}

	// The eaten agent's turn is a no-op, not an error.
	re.Step(prey.ID())
}

func TestRuleEngine_ZooEatsAtMostOnePerStep(t *testing.T) {
	st := newTestStore()
	zoo := st.AddZoo(Vec{X: 0, Y: 0}, 0, 5)
	st.AddPhyto(Vec{X: 1, Y: 0}, 0)
	st.AddPhyto(Vec{X: 3, Y: 0}, 0)

	re := NewRuleEngine(st, &scriptRand{floats: []float64{0.5, 0.5}}, DefaultRuleParams())
	re.Step(zoo.ID())

	// Exactly one of the two phyto in range of (2,0) dies; which one is
	// implementation-defined.
	if counts := st.CountBySpecies(); counts[SpeciesPhyto] != 1 {
		t.Errorf("Expected exactly 1 surviving phyto, got %d", counts[SpeciesPhyto])
	}
	if zoo.Energy != 7 {
		t.Errorf("Expected energy 7 after a single kill, got %d", zoo.Energy)
	}
}

func TestRuleEngine_ZooStarvationIsCertainAtZeroEnergy(t *testing.T) {
	st := newTestStore()
	// Energy 1 becomes 0 after metabolism; the death roll then fires for
	// any draw, even one close to 1.
	zoo := st.AddZoo(Vec{X: 10, Y: 10}, 0, 1)

	re := NewRuleEngine(st, &scriptRand{floats: []float64{0.5, 0.999}}, DefaultRuleParams())
	re.Step(zoo.ID())

	if _, ok := st.Get(zoo.ID()); ok {
		t.Error("Zoo at zero energy must die regardless of the roll")
	}
}

func TestRuleEngine_ZooStarvationIsCertainAtNegativeEnergy(t *testing.T) {
	st := newTestStore()
	zoo := st.AddZoo(Vec{X: 10, Y: 10}, 0, -3)

	re := NewRuleEngine(st, &scriptRand{floats: []float64{0.5, 0.999}}, DefaultRuleParams())
	re.Step(zoo.ID())

	if _, ok := st.Get(zoo.ID()); ok {
		t.Error("Zoo at negative energy must die regardless of the roll")
	}
}

func TestRuleEngine_ZooSurvivesLowRoll(t *testing.T) {
	st := newTestStore()
	zoo := st.AddZoo(Vec{X: 10, Y: 10}, 0, 5)

	// 4 * 0.1 = 0.4 > 0.2: survives.
	re := NewRuleEngine(st, &scriptRand{floats: []float64{0.5, 0.1}}, DefaultRuleParams())
	re.Step(zoo.ID())

	if _, ok := st.Get(zoo.ID()); !ok {
		t.Error("Expected the zoo to survive the death roll")
	}
}

func TestRuleEngine_ZooDiesOnUnluckyRoll(t *testing.T) {
	st := newTestStore()
	zoo := st.AddZoo(Vec{X: 10, Y: 10}, 0, 5)

	// 4 * 0.04 = 0.16 <= 0.2: dies even with positive energy.
	re := NewRuleEngine(st, &scriptRand{floats: []float64{0.5, 0.04}}, DefaultRuleParams())
	re.Step(zoo.ID())

	if _, ok := st.Get(zoo.ID()); ok {
		t.Error("Expected the zoo to die on an unlucky roll")
	}
}

func TestRuleEngine_ZooReproduction(t *testing.T) {
	st := newTestStore()
	// 11 energy: 10 after metabolism, which meets the threshold.
	zoo := st.AddZoo(Vec{X: 10, Y: 10}, 0, 11)

	re := NewRuleEngine(st, &scriptRand{floats: []float64{0.5, 0.9}}, DefaultRuleParams())
	re.Step(zoo.ID())

	if zoo.Energy != 6 {
		t.Errorf("Expected parent energy 11 - 1 - 4 = 6, got %d", zoo.Energy)
	}
	if st.Count() != 2 {
		t.Fatalf("Expected 2 agents after reproduction, got %d", st.Count())
	}

	daughter, ok := st.Get(zoo.ID() + 1)
	if !ok {
		t.Fatal("Expected the daughter under the next id")
	}
	dz, isZoo := daughter.(*Zoo)
	if !isZoo {
		t.Fatal("Expected a zoo daughter")
	}
	if dz.Energy != 4 {
		t.Errorf("Expected daughter energy 4, got %d", dz.Energy)
	}
}

func TestRuleEngine_ZooBelowThresholdDoesNotReproduce(t *testing.T) {
	st := newTestStore()
	// 10 energy drops to 9 after metabolism, below the threshold.
	zoo := st.AddZoo(Vec{X: 10, Y: 10}, 0, 10)

	re := NewRuleEngine(st, &scriptRand{floats: []float64{0.5, 0.9}}, DefaultRuleParams())
	re.Step(zoo.ID())

	if st.Count() != 1 {
		t.Errorf("Expected no reproduction at energy 9, population is %d", st.Count())
	}
	if zoo.Energy != 9 {
		t.Errorf("Expected energy 9, got %d", zoo.Energy)
	}
}

func TestRuleEngine_BirthsAreDeferredToNextStep(t *testing.T) {
	st := newTestStore()
	zoo := st.AddZoo(Vec{X: 10, Y: 10}, 0, 12)

	sc := NewScheduler(rand.New(rand.NewSource(7)))
	re := NewRuleEngine(st, &scriptRand{floats: []float64{0.5, 0.9}}, DefaultRuleParams())

	order := sc.Order(st)
	for _, id := range order {
		re.Step(id)
	}

	daughterID := zoo.ID() + 1
	if _, ok := st.Get(daughterID); !ok {
		t.Fatal("Expected the daughter to exist after the step")
	}
	if containsID(order, daughterID) {
		t.Error("Daughter must not be visited in the step it was born")
	}
	if next := sc.Order(st); !containsID(next, daughterID) {
		t.Error("Daughter must be visited from the next step on")
	}
}
