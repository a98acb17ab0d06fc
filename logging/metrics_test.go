package logging

import "testing"

func TestMetricsCountersAndGauges(t *testing.T) {
	m := NewMetrics()

	m.Count("events", 2)
	m.Count("events", 3)
	m.Set("window", 7)
	m.Set("window", 4)

	if got := m.Counter("events"); got != 5 {
		t.Fatalf("expected counter at 5, got %d", got)
	}
	if got := m.Counter("missing"); got != 0 {
		t.Fatalf("expected missing counter at 0, got %d", got)
	}

	snapshot := m.Snapshot()
	if snapshot["events"] != 5 || snapshot["window"] != 4 {
		t.Fatalf("expected snapshot with events=5 window=4, got %v", snapshot)
	}

	// Mutating the snapshot must not touch the registry.
	snapshot["events"] = 99
	if got := m.Counter("events"); got != 5 {
		t.Fatalf("expected registry untouched after snapshot mutation, got %d", got)
	}
}

func TestMetricsNilReceiverIsSafe(t *testing.T) {
	var m *Metrics
	m.Count("events", 1)
	m.Set("window", 1)
	if m.Counter("events") != 0 {
		t.Fatalf("expected zero from a nil registry")
	}
	if m.Snapshot() != nil {
		t.Fatalf("expected nil snapshot from a nil registry")
	}
}
