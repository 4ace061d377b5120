package plankton

import (
	"math"
)

// RuleParams carries the per-species behavior constants. The defaults
// reproduce the classic parameterization; a config file can override any
// of them.
type RuleParams struct {
	// Phytoplankton.
	PhytoTurn      float64 `json:"phyto_turn"`       // max turn per step, radians
	PhytoSpeed     float64 `json:"phyto_speed"`      // distance moved per step
	PhytoBirthRate float64 `json:"phyto_birth_rate"` // per-step reproduction probability
	CrowdRadius    float64 `json:"crowd_radius"`     // overcrowding query radius
	CrowdLimit     int     `json:"crowd_limit"`      // same-species neighbors that kill

	// Zooplankton.
	ZooTurn            float64 `json:"zoo_turn"`
	ZooSpeed           float64 `json:"zoo_speed"`
	MetabolicCost      int     `json:"metabolic_cost"`      // energy paid per step
	StarvationBound    float64 `json:"starvation_bound"`    // die when energy*roll <= bound
	HuntRadius         float64 `json:"hunt_radius"`         // predation query radius
	EatGain            int     `json:"eat_gain"`            // energy gained per kill
	ReproduceThreshold int     `json:"reproduce_threshold"` // minimum energy to reproduce
	BirthCost          int     `json:"birth_cost"`          // energy deducted from the parent
	BirthEnergy        int     `json:"birth_energy"`        // energy given to the daughter
	InitialEnergyMin   int     `json:"initial_energy_min"`  // seeding range, inclusive
	InitialEnergyMax   int     `json:"initial_energy_max"`
}

// DefaultRuleParams returns the standard rule constants.
func DefaultRuleParams() RuleParams {
	return RuleParams{
		PhytoTurn:      math.Pi / 3,
		PhytoSpeed:     0.5,
		PhytoBirthRate: 0.05,
		CrowdRadius:    1.0,
		CrowdLimit:     4,

		ZooTurn:            math.Pi / 6,
		ZooSpeed:           2.0,
		MetabolicCost:      1,
		StarvationBound:    0.2,
		HuntRadius:         2.0,
		EatGain:            3,
		ReproduceThreshold: 10,
		BirthCost:          4,
		BirthEnergy:        4,
		InitialEnergyMin:   4,
		InitialEnergyMax:   9,
	}
}

// maxQueryRadius is the grid cell sizing hint: the largest radius the
// rules will ever ask the space for.
func (p RuleParams) maxQueryRadius() float64 {
	return math.Max(p.CrowdRadius, p.HuntRadius)
}

// RuleEngine applies the per-species step logic to one agent at a time,
// in the order fixed by the Scheduler. All mutation of shared state goes
// through the Store and Space handles; there is no other writer.
type RuleEngine struct {
	store  *Store
	space  *Space
	rng    Rand
	params RuleParams
}

// NewRuleEngine builds a rule engine over the given store and random
// stream.
func NewRuleEngine(store *Store, rng Rand, params RuleParams) *RuleEngine {
	return &RuleEngine{
		store:  store,
		space:  store.Space(),
		rng:    rng,
		params: params,
	}
}

// Step runs one agent's turn. If the agent was removed earlier in the
// step (eaten, starved, crowded out) there is nothing to do.
func (re *RuleEngine) Step(id AgentID) {
	a, ok := re.store.Get(id)
	if !ok {
		return
	}
	switch ag := a.(type) {
	case *Phyto:
		re.stepPhyto(ag)
	case *Zoo:
		re.stepZoo(ag)
	}
}

// stepPhyto: turn, drift, maybe reproduce, die if the neighborhood is
// overcrowded.
func (re *RuleEngine) stepPhyto(p *Phyto) {
	st := p.state()
	st.dir += uniformAngle(re.rng, re.params.PhytoTurn)
	re.space.Move(st.id, re.params.PhytoSpeed*math.Cos(st.dir), re.params.PhytoSpeed*math.Sin(st.dir))

	if re.rng.Float64() < re.params.PhytoBirthRate {
		// The daughter joins the population now but is only visited
		// from the next step on.
		re.store.AddPhyto(st.pos, randomHeading(re.rng))
	}

	crowd := 0
	for _, nid := range re.space.NeighborsWithin(st.pos, re.params.CrowdRadius) {
		if nid == st.id {
			// The agent always trivially matches its own query.
			continue
		}
		if n, ok := re.store.Get(nid); ok && n.Species() == SpeciesPhyto {
			crowd++
		}
	}
	if crowd >= re.params.CrowdLimit {
		re.store.Remove(st.id)
	}
}

// stepZoo: turn, swim, pay metabolism, roll for starvation, hunt, and
// reproduce above the energy threshold.
func (re *RuleEngine) stepZoo(z *Zoo) {
	st := z.state()
	st.dir += uniformAngle(re.rng, re.params.ZooTurn)
	re.space.Move(st.id, re.params.ZooSpeed*math.Cos(st.dir), re.params.ZooSpeed*math.Sin(st.dir))

	z.Energy -= re.params.MetabolicCost

	// Death roll. At zero or negative energy the left side cannot exceed
	// the bound, so death is certain; that edge is intentional and must
	// not be smoothed over.
	if float64(z.Energy)*re.rng.Float64() <= re.params.StarvationBound {
		re.store.Remove(st.id)
		return
	}

	// One kill per step at most: the first phytoplankton the neighbor
	// scan yields. Which one that is when several are in range is not
	// specified; see the Space query-order note.
	for _, nid := range re.space.NeighborsWithin(st.pos, re.params.HuntRadius) {
		n, ok := re.store.Get(nid)
		if !ok || n.Species() != SpeciesPhyto {
			continue
		}
		re.store.Remove(nid)
		z.Energy += re.params.EatGain
		break
	}

	if z.Energy >= re.params.ReproduceThreshold {
		re.store.AddZoo(st.pos, randomHeading(re.rng), re.params.BirthEnergy)
		z.Energy -= re.params.BirthCost
	}
}
