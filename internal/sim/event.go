package sim

// Event is a timestamped mutation targeting one actor on a stage. Events
// order by When alone; equal timestamps keep their insertion order. Apply
// reports whether the mutation was meaningful and must be deterministic: its
// effects and result may depend only on the event's own data and the stage
// contents. A failing Apply must leave the stage unchanged.
type Event interface {
	When() Timestamp
	Target() ActorID
	Apply(stage *Stage) bool
}

// EventInfo carries the stamp shared by every event. Concrete events embed
// it to satisfy the When/Target half of the contract.
type EventInfo struct {
	At    Timestamp
	Actor ActorID
}

// When returns the event's timestamp.
func (e EventInfo) When() Timestamp { return e.At }

// Target returns the actor the event addresses.
func (e EventInfo) Target() ActorID { return e.Actor }

// TypedApply resolves id on the stage and runs fn against its state. It
// reports false without touching the stage when the actor is absent or its
// state is not of type S.
func TypedApply[S ActorState](stage *Stage, id ActorID, fn func(S) bool) bool {
	state, ok := stage.Find(id)
	if !ok {
		return false
	}
	typed, ok := state.(S)
	if !ok {
		return false
	}
	return fn(typed)
}

// StateEvent adapts a typed mutator into an Event. Apply performs the
// TypedApply probe before delegating, so missing or mismatched targets fail
// cleanly.
type StateEvent[S ActorState] struct {
	EventInfo
	mutate func(*Stage, S) bool
}

// NewStateEvent builds a state-typed event for target at the given stamp.
func NewStateEvent[S ActorState](at Timestamp, target ActorID, mutate func(*Stage, S) bool) *StateEvent[S] {
	return &StateEvent[S]{
		EventInfo: EventInfo{At: at, Actor: target},
		mutate:    mutate,
	}
}

// Apply implements Event.
func (e *StateEvent[S]) Apply(stage *Stage) bool {
	if e.mutate == nil {
		return false
	}
	return TypedApply(stage, e.Target(), func(state S) bool {
		return e.mutate(stage, state)
	})
}
