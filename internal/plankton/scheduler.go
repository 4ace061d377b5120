package plankton

// Scheduler fixes the visitation order for a step: a fresh uniform random
// permutation of the ids alive when the step starts. The permutation is
// the concurrency contract of the engine — agents born during the step
// are not visited until the next one, and agents removed during the step
// are simply skipped when their turn comes (Store.Get reports absence).
type Scheduler struct {
	rng Rand
}

// NewScheduler builds a scheduler drawing from the given random stream.
func NewScheduler(rng Rand) *Scheduler {
	return &Scheduler{rng: rng}
}

// Order captures the live ids and returns them in a uniformly random
// permutation. The returned slice is a snapshot; later births and deaths
// do not affect it.
func (sc *Scheduler) Order(store *Store) []AgentID {
	ids := store.LiveIDs()
	perm := sc.rng.Perm(len(ids))
	out := make([]AgentID, len(ids))
	for i, j := range perm {
		out[i] = ids[j]
	}
	return out
}
