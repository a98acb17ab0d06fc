package timeline

import (
	"sort"

	"driftline/server/internal/sim"
)

// Snapshot is one link of the timeline chain: the stage as it stood at
// Begin, before any of the snapshot's events ran, plus the stamp-sorted
// events whose timestamps fall inside the snapshot's window.
type Snapshot struct {
	begin  sim.Timestamp
	base   *sim.Stage
	events []sim.Event
}

// NewSnapshot builds a snapshot starting at begin, taking ownership of base.
// A nil base becomes an empty stage.
func NewSnapshot(begin sim.Timestamp, base *sim.Stage) *Snapshot {
	if base == nil {
		base = sim.NewStage()
	}
	return &Snapshot{begin: begin, base: base}
}

// Begin returns the earliest timestamp the snapshot represents.
func (s *Snapshot) Begin() sim.Timestamp { return s.begin }

// Base returns the stage at Begin. The stage is borrowed; callers must not
// mutate it.
func (s *Snapshot) Base() *sim.Stage { return s.base }

// SetBase replaces the base stage, taking ownership of stage.
func (s *Snapshot) SetBase(stage *sim.Stage) { s.base = stage }

// Events returns the stamp-sorted event list. The slice is borrowed; any
// Add invalidates it.
func (s *Snapshot) Events() []sim.Event { return s.events }

// Add inserts event keeping the list sorted by timestamp. Insertion is
// stable: a newcomer with a stamp equal to existing events lands after
// them. The return reports whether the event is now last in the list, which
// lets the timeline skip resimulation for strict appends.
func (s *Snapshot) Add(event sim.Event) bool {
	// First entry with a strictly later stamp.
	i := sort.Search(len(s.events), func(i int) bool {
		return event.When() < s.events[i].When()
	})
	s.events = append(s.events, nil)
	copy(s.events[i+1:], s.events[i:])
	s.events[i] = event
	return i == len(s.events)-1
}
