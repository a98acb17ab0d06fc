package timeline

import (
	"driftline/server/internal/sim"
	"driftline/server/internal/telemetry"
)

// Metric keys reported through the telemetry seam.
const (
	MetricEventsTotal          = "timeline_events_total"
	MetricFastPathTotal        = "timeline_fast_path_total"
	MetricResimulationsTotal   = "timeline_resimulations_total"
	MetricOutOfHorizonTotal    = "timeline_out_of_horizon_total"
	MetricSnapshotsPrunedTotal = "timeline_snapshots_pruned_total"
	MetricSnapshotCount        = "timeline_snapshot_count"
)

// Timeline owns an ordered chain of snapshots plus the live stage
// reflecting every retained event. The chain always starts with the
// sentinel snapshot at sim.TimestampZero, so it is never empty. A timeline
// is not safe for concurrent use; embedders serialize access.
type Timeline struct {
	snapshots []*Snapshot
	current   *sim.Stage
	metrics   telemetry.Metrics
}

// New returns a timeline holding only the sentinel snapshot and an empty
// live stage.
func New() *Timeline {
	return &Timeline{
		snapshots: []*Snapshot{NewSnapshot(sim.TimestampZero, nil)},
		current:   sim.NewStage(),
	}
}

// SetMetrics installs the counter sink. The timeline works unwired.
func (t *Timeline) SetMetrics(metrics telemetry.Metrics) {
	t.metrics = metrics
}

func (t *Timeline) addMetric(key string, delta uint64) {
	if t.metrics != nil {
		t.metrics.Add(key, delta)
	}
}

// Stage returns the live stage: the last snapshot's base with that
// snapshot's events applied. The stage is borrowed and any timeline
// mutation invalidates it, since resimulation may rebuild actor states
// from scratch.
func (t *Timeline) Stage() *sim.Stage {
	return t.current
}

// Window reports the number of retained snapshots and the begin timestamps
// of the oldest and newest.
func (t *Timeline) Window() (int, sim.Timestamp, sim.Timestamp) {
	return len(t.snapshots), t.snapshots[0].Begin(), t.snapshots[len(t.snapshots)-1].Begin()
}

// Add inserts event into the snapshot whose window covers its timestamp and
// rebuilds the affected suffix of the chain. It reports false, retaining
// nothing, when the timestamp precedes the oldest snapshot. A false result
// from the event's own Apply is non-fatal: the event stays in its snapshot
// so a later insertion ahead of it can make it succeed on replay.
//
// The returned rebuilt count is zero for the append fast path and for a
// refused insertion, otherwise the number of snapshots resimulated.
func (t *Timeline) Add(event sim.Event) (bool, int) {
	i := t.indexOf(event.When())
	if i < 0 {
		t.addMetric(MetricOutOfHorizonTotal, 1)
		return false, 0
	}

	atEnd := t.snapshots[i].Add(event)
	t.addMetric(MetricEventsTotal, 1)

	if i == len(t.snapshots)-1 && atEnd {
		// Strict append: the event follows everything already applied, so
		// it runs against the live stage without resimulation.
		event.Apply(t.current)
		t.addMetric(MetricFastPathTotal, 1)
		return true, 0
	}

	rebuilt := t.resimulate(i)
	t.addMetric(MetricResimulationsTotal, 1)
	return true, rebuilt
}

// resimulate rebuilds snapshot bases from index from through the end of the
// chain and reinstalls the live stage. Events keep their stamp-sorted order
// with insertion-order ties, so replay is deterministic.
func (t *Timeline) resimulate(from int) int {
	for j := from; j < len(t.snapshots); j++ {
		working := t.snapshots[j].Base().Clone()
		for _, event := range t.snapshots[j].Events() {
			event.Apply(working)
		}
		if j+1 < len(t.snapshots) {
			t.snapshots[j+1].SetBase(working)
		} else {
			t.current = working
		}
	}
	return len(t.snapshots) - from
}

// SnapshotAt appends a snapshot beginning at now whose base is a deep clone
// of the live stage. Embedders supply non-decreasing timestamps; the live
// stage is unaffected.
func (t *Timeline) SnapshotAt(now sim.Timestamp) {
	t.snapshots = append(t.snapshots, NewSnapshot(now, t.current.Clone()))
	if t.metrics != nil {
		t.metrics.Store(MetricSnapshotCount, uint64(len(t.snapshots)))
	}
}

// LimitSnapshots retains the most recent count snapshots, never fewer than
// one. Dropped snapshots release the events they own; the live stage is
// unchanged. It returns the number of snapshots dropped.
func (t *Timeline) LimitSnapshots(count int) int {
	if count < 1 {
		count = 1
	}
	if len(t.snapshots) <= count {
		return 0
	}
	dropped := len(t.snapshots) - count
	kept := make([]*Snapshot, count)
	copy(kept, t.snapshots[dropped:])
	t.snapshots = kept
	t.addMetric(MetricSnapshotsPrunedTotal, uint64(dropped))
	if t.metrics != nil {
		t.metrics.Store(MetricSnapshotCount, uint64(len(t.snapshots)))
	}
	return dropped
}

// indexOf returns the greatest index whose snapshot window contains when:
// the last snapshot with Begin <= when. An event stamped exactly on a
// snapshot boundary belongs to the later snapshot. Returns -1 when the
// timestamp precedes every retained snapshot. Chains stay short (tens of
// snapshots), so a linear scan from the newest end is enough.
func (t *Timeline) indexOf(when sim.Timestamp) int {
	for i := len(t.snapshots) - 1; i >= 0; i-- {
		if t.snapshots[i].Begin() <= when {
			return i
		}
	}
	return -1
}
