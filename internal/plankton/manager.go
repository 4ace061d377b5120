package plankton

import (
	"fmt"
	"sync"
)

// SimulationID is a unique identifier for a simulation.
type SimulationID string

// SimulationManager manages multiple named simulations, each isolated
// from the others. It is the registry the server surface works against.
type SimulationManager struct {
	mu          sync.RWMutex
	simulations map[SimulationID]*Simulation
	logger      Logger
}

// NewSimulationManager creates an empty manager.
func NewSimulationManager() *SimulationManager {
	return NewSimulationManagerWithLogger(NewNoOpLogger())
}

// NewSimulationManagerWithLogger creates an empty manager whose
// simulations inherit the given logger.
func NewSimulationManagerWithLogger(logger Logger) *SimulationManager {
	if logger == nil {
		logger = NewNoOpLogger()
	}
	return &SimulationManager{
		simulations: make(map[SimulationID]*Simulation),
		logger:      logger,
	}
}

// Create builds a simulation from cfg and registers it under id.
// Returns an error if the id is taken or the config is invalid.
func (m *SimulationManager) Create(id SimulationID, cfg SimConfig) (*Simulation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.simulations[id]; exists {
		return nil, fmt.Errorf("simulation with id %s already exists", id)
	}

	sim, err := NewSimulation(cfg)
	if err != nil {
		return nil, err
	}
	sim.SetID(id)
	sim.SetLogger(m.logger)
	m.simulations[id] = sim
	return sim, nil
}

// Get retrieves a simulation by id.
func (m *SimulationManager) Get(id SimulationID) (*Simulation, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sim, exists := m.simulations[id]
	return sim, exists
}

// Delete stops and removes a simulation by id.
func (m *SimulationManager) Delete(id SimulationID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	sim, exists := m.simulations[id]
	if !exists {
		return fmt.Errorf("simulation with id %s does not exist", id)
	}

	sim.Stop()
	delete(m.simulations, id)
	return nil
}

// List returns the ids of all registered simulations.
func (m *SimulationManager) List() []SimulationID {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]SimulationID, 0, len(m.simulations))
	for id := range m.simulations {
		ids = append(ids, id)
	}
	return ids
}
