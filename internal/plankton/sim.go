package plankton

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Simulation owns one ecosystem: the agent store, the periodic space,
// the scheduler and the rule engine, all driven by a single random
// stream. Agents are processed strictly sequentially within a step;
// there is never a concurrent writer to the shared state.
type Simulation struct {
	mu sync.Mutex

	id     SimulationID
	cfg    SimConfig
	space  *Space
	store  *Store
	sched  *Scheduler
	rules  *RuleEngine
	rng    Rand
	step   int
	logger Logger

	listeners []func(Snapshot)

	snapshotDir        string
	snapshotEverySteps int

	stopCh    chan struct{}
	isRunning bool
}

// NewSimulation validates the config, builds the simulation state and
// seeds the initial populations: positions uniform over the domain,
// headings uniform over [0, 2π), zooplankton energy uniform over the
// configured integer range. A ConfigurationError is returned before any
// state is created.
func NewSimulation(cfg SimConfig) (*Simulation, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid simulation config: %w", err)
	}

	rng := NewRand(cfg.Seed)
	space := NewSpace(cfg.Width, cfg.Height, cfg.Rules.maxQueryRadius())
	store := NewStore(space)

	s := &Simulation{
		cfg:    cfg,
		space:  space,
		store:  store,
		sched:  NewScheduler(rng),
		rules:  NewRuleEngine(store, rng, cfg.Rules),
		rng:    rng,
		logger: NewNoOpLogger(),
		stopCh: make(chan struct{}),
	}

	for i := 0; i < cfg.PopulationPhyto; i++ {
		store.AddPhyto(s.randomPosition(), randomHeading(rng))
	}
	energySpan := cfg.Rules.InitialEnergyMax - cfg.Rules.InitialEnergyMin + 1
	for i := 0; i < cfg.PopulationZoo; i++ {
		energy := cfg.Rules.InitialEnergyMin + rng.Intn(energySpan)
		store.AddZoo(s.randomPosition(), randomHeading(rng), energy)
	}

	return s, nil
}

func (s *Simulation) randomPosition() Vec {
	return Vec{
		X: s.rng.Float64() * s.cfg.Width,
		Y: s.rng.Float64() * s.cfg.Height,
	}
}

// SetID tags the simulation; the id shows up in snapshots and filenames.
func (s *Simulation) SetID(id SimulationID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.id = id
}

// SetLogger replaces the no-op default.
func (s *Simulation) SetLogger(l Logger) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l == nil {
		l = NewNoOpLogger()
	}
	s.logger = l
}

// Config returns the configuration the simulation was built from.
func (s *Simulation) Config() SimConfig { return s.cfg }

// SetSnapshotDir enables periodic snapshot persistence into dir.
func (s *Simulation) SetSnapshotDir(dir string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshotDir = dir
}

// SetSnapshotEveryNSteps controls how often a snapshot file is written;
// 0 disables periodic persistence.
func (s *Simulation) SetSnapshotEveryNSteps(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshotEverySteps = n
}

// AddStepListener registers a callback invoked with the snapshot after
// every step. Listeners run on the stepping goroutine and must not call
// back into the simulation.
func (s *Simulation) AddStepListener(fn func(Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Step advances the ecosystem by one tick: fix the visitation order over
// the agents alive now, then give each its turn. Births during the step
// wait for the next permutation; deaths take effect immediately and are
// visible to every later-visited agent.
func (s *Simulation) Step() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stepLocked()
}

func (s *Simulation) stepLocked() {
	for _, id := range s.sched.Order(s.store) {
		s.rules.Step(id)
	}
	s.step++

	if len(s.listeners) > 0 || s.periodicSnapshotDue() {
		snap := s.snapshotLocked()
		for _, fn := range s.listeners {
			fn(snap)
		}
		if s.periodicSnapshotDue() {
			if _, err := WriteSnapshotFile(s.snapshotDir, snap); err != nil {
				s.logger.Errorf("periodic snapshot failed: step=%d error=%v", s.step, err)
			}
		}
	}
}

func (s *Simulation) periodicSnapshotDue() bool {
	return s.snapshotDir != "" && s.snapshotEverySteps > 0 && s.step%s.snapshotEverySteps == 0
}

// StepIndex returns the number of completed steps.
func (s *Simulation) StepIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.step
}

// Count returns the live population size.
func (s *Simulation) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Count()
}

// CountBySpecies returns the live population per species.
func (s *Simulation) CountBySpecies() map[Species]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.CountBySpecies()
}

// Snapshot captures the current population, ordered by ascending id.
func (s *Simulation) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Simulation) snapshotLocked() Snapshot {
	ids := s.store.LiveIDs()
	records := make([]AgentRecord, 0, len(ids))
	for _, id := range ids {
		a, ok := s.store.Get(id)
		if !ok {
			continue
		}
		rec := AgentRecord{
			ID:      a.ID(),
			Species: a.Species(),
			X:       a.Pos().X,
			Y:       a.Pos().Y,
		}
		if z, isZoo := a.(*Zoo); isZoo {
			energy := z.Energy
			rec.Energy = &energy
		}
		records = append(records, rec)
	}
	return Snapshot{SimulationID: s.id, Step: s.step, Agents: records}
}

// RunSteps executes the given number of steps, delivering a snapshot to
// every recorder after each one. Extinction is not a stop condition; the
// run keeps producing (empty) snapshots until the step budget is spent.
// Recorder failures are logged and do not abort the run.
func (s *Simulation) RunSteps(ctx context.Context, steps int, recorders ...Recorder) error {
	for i := 0; i < steps; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.Step()
		snap := s.Snapshot()
		for _, rec := range recorders {
			if err := rec.Record(ctx, snap); err != nil {
				s.logger.Warnf("recorder failed: recorder=%s step=%d error=%v", rec.ID(), snap.Step, err)
			}
		}
	}
	return nil
}

// Run starts stepping the simulation in the background on a fixed
// interval, until Stop is called. Calling Run on a running simulation is
// a no-op; after Stop it can be called again.
func (s *Simulation) Run(interval time.Duration) {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return
	}
	s.stopCh = make(chan struct{})
	s.isRunning = true
	stop := s.stopCh
	s.mu.Unlock()

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.Step()
			case <-stop:
				return
			}
		}
	}()
}

// Stop halts a background run started with Run.
func (s *Simulation) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.isRunning {
		return
	}
	s.isRunning = false
	close(s.stopCh)
}
