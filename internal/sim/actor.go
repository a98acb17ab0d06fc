package sim

// Timestamp orders events and snapshots along a timeline. Interpretation of
// the raw value (tick counter, wall-clock micros, logical clock) is the
// embedder's concern; the library only compares.
type Timestamp uint64

// TimestampZero is carried by the sentinel snapshot and precedes every valid
// timestamp.
const TimestampZero Timestamp = 0

// ActorID names an actor uniquely within a stage. IDs must not be reused
// while a timeline retaining events for them is live.
type ActorID uint64

// ActorState carries the mutable data for a single actor. Clone must return
// a fresh copy of the same dynamic type sharing no mutable state with the
// receiver.
type ActorState interface {
	Clone() ActorState
}
