package plankton

import (
	"slices"
)

// Store owns every agent record and keeps the spatial index consistent
// with it: an agent is in the Store iff it is in the Space. Ids increase
// monotonically and are never reused.
//
// Removal is deliberately idempotent and lookups of dead agents report
// absence instead of failing: agents disappearing mid-step is an expected
// condition, not an error.
type Store struct {
	space  *Space
	agents map[AgentID]Agent
	nextID AgentID
}

// NewStore builds an empty store backed by the given space.
func NewStore(space *Space) *Store {
	return &Store{
		space:  space,
		agents: make(map[AgentID]Agent),
		nextID: 1,
	}
}

// Space returns the spatial index the store keeps in sync.
func (st *Store) Space() *Space { return st.space }

// AddPhyto creates a phytoplankton agent at pos with the given heading
// and registers it in both store and space. The position is wrapped into
// the domain.
func (st *Store) AddPhyto(pos Vec, dir float64) *Phyto {
	p := &Phyto{agentState: agentState{id: st.allocID(), pos: pos, dir: dir}}
	st.insert(p)
	return p
}

// AddZoo creates a zooplankton agent with an initial energy budget and
// registers it in both store and space.
func (st *Store) AddZoo(pos Vec, dir float64, energy int) *Zoo {
	z := &Zoo{agentState: agentState{id: st.allocID(), pos: pos, dir: dir}, Energy: energy}
	st.insert(z)
	return z
}

func (st *Store) allocID() AgentID {
	id := st.nextID
	st.nextID++
	return id
}

func (st *Store) insert(a Agent) {
	st.space.add(a.state())
	st.agents[a.ID()] = a
}

// Remove deletes an agent from store and space. Removing an id that is
// already gone is a no-op.
func (st *Store) Remove(id AgentID) {
	if _, ok := st.agents[id]; !ok {
		return
	}
	delete(st.agents, id)
	st.space.remove(id)
}

// Get returns the agent with the given id, or false if it has been
// removed (or never existed).
func (st *Store) Get(id AgentID) (Agent, bool) {
	a, ok := st.agents[id]
	return a, ok
}

// LiveIDs returns the ids of all live agents in ascending order. The
// stable base order keeps seeded runs reproducible; map iteration order
// must never leak into scheduling.
func (st *Store) LiveIDs() []AgentID {
	ids := make([]AgentID, 0, len(st.agents))
	for id := range st.agents {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Count returns the number of live agents.
func (st *Store) Count() int { return len(st.agents) }

// CountBySpecies returns the live population of each species.
func (st *Store) CountBySpecies() map[Species]int {
	counts := make(map[Species]int)
	for _, a := range st.agents {
		counts[a.Species()]++
	}
	return counts
}
