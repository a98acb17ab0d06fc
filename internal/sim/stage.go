package sim

import "sort"

// Stage maps actor ids to their exclusively owned state. Stages are created
// empty or by deep-cloning another stage and are mutated only through event
// application. A stage is not safe for concurrent use.
type Stage struct {
	actors map[ActorID]ActorState
}

// NewStage returns an empty stage.
func NewStage() *Stage {
	return &Stage{actors: make(map[ActorID]ActorState)}
}

// Add inserts or replaces the state stored for id, taking exclusive
// ownership of state. Any previous state for id is released.
func (s *Stage) Add(id ActorID, state ActorState) {
	s.actors[id] = state
}

// Remove drops the actor if present and is a no-op otherwise.
func (s *Stage) Remove(id ActorID) {
	delete(s.actors, id)
}

// Find returns the stored state for id. The returned state is borrowed:
// callers must not retain it across stage mutations.
func (s *Stage) Find(id ActorID) (ActorState, bool) {
	state, ok := s.actors[id]
	return state, ok
}

// Size reports the number of actors on the stage.
func (s *Stage) Size() int {
	return len(s.actors)
}

// IDs returns the actor ids in ascending order so callers can walk the
// stage deterministically.
func (s *Stage) IDs() []ActorID {
	ids := make([]ActorID, 0, len(s.actors))
	for id := range s.actors {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Clone deep-copies the stage. Every contained state is copied through its
// own Clone, so the result shares no mutable state with the receiver.
func (s *Stage) Clone() *Stage {
	cloned := &Stage{actors: make(map[ActorID]ActorState, len(s.actors))}
	for id, state := range s.actors {
		cloned.actors[id] = state.Clone()
	}
	return cloned
}
