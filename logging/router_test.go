package logging_test

import (
	"context"
	"testing"
	"time"

	"driftline/server/logging"
	"driftline/server/logging/sinks"
)

func newTestRouter(t *testing.T, cfg logging.Config) (*logging.Router, *sinks.MemorySink) {
	t.Helper()
	sink := sinks.NewMemorySink()
	clock := logging.ClockFunc(func() time.Time {
		return time.Unix(1700000000, 0)
	})
	router := logging.NewRouter(clock, cfg, []logging.NamedSink{{Name: "memory", Sink: sink}}, nil)
	return router, sink
}

func drainRouter(t *testing.T, router *logging.Router) {
	t.Helper()
	if err := router.Close(context.Background()); err != nil {
		t.Fatalf("expected clean close, got %v", err)
	}
}

func TestRouterDeliversEvents(t *testing.T) {
	router, sink := newTestRouter(t, logging.DefaultConfig())

	router.Publish(context.Background(), logging.Event{
		Type:     "rollback.resimulated",
		Tick:     42,
		Severity: logging.SeverityInfo,
	})
	drainRouter(t, router)

	events := sink.Events()
	if len(events) != 1 {
		t.Fatalf("expected 1 delivered event, got %d", len(events))
	}
	if events[0].Type != "rollback.resimulated" || events[0].Tick != 42 {
		t.Fatalf("expected the published event, got %+v", events[0])
	}
	if events[0].Time.IsZero() {
		t.Fatalf("expected the router to stamp the event time")
	}

	stats := router.Stats()
	if stats.EventsTotal != 1 || stats.DroppedTotal != 0 {
		t.Fatalf("expected stats (1, 0), got %+v", stats)
	}
}

func TestRouterFiltersBySeverity(t *testing.T) {
	cfg := logging.DefaultConfig()
	cfg.MinimumSeverity = logging.SeverityWarn
	router, sink := newTestRouter(t, cfg)

	router.Publish(context.Background(), logging.Event{Type: "quiet", Severity: logging.SeverityInfo})
	router.Publish(context.Background(), logging.Event{Type: "loud", Severity: logging.SeverityError})
	drainRouter(t, router)

	events := sink.Events()
	if len(events) != 1 {
		t.Fatalf("expected only the error event, got %d events", len(events))
	}
	if events[0].Type != "loud" {
		t.Fatalf("expected the error event, got %+v", events[0])
	}
}

func TestRouterMergesConfiguredFields(t *testing.T) {
	cfg := logging.DefaultConfig()
	cfg.Fields = map[string]any{"service": "driftline"}
	router, sink := newTestRouter(t, cfg)

	router.Publish(context.Background(), logging.Event{Type: "plain", Severity: logging.SeverityInfo})
	router.Publish(context.Background(), logging.Event{
		Type:     "override",
		Severity: logging.SeverityInfo,
		Extra:    map[string]any{"service": "custom"},
	})
	drainRouter(t, router)

	events := sink.Events()
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Extra["service"] != "driftline" {
		t.Fatalf("expected configured field on plain event, got %+v", events[0].Extra)
	}
	if events[1].Extra["service"] != "custom" {
		t.Fatalf("expected event-level field to win, got %+v", events[1].Extra)
	}
}

func TestRouterDropsAfterClose(t *testing.T) {
	router, sink := newTestRouter(t, logging.DefaultConfig())
	drainRouter(t, router)

	router.Publish(context.Background(), logging.Event{Type: "late", Severity: logging.SeverityInfo})
	if len(sink.Events()) != 0 {
		t.Fatalf("expected no delivery after close, got %d events", len(sink.Events()))
	}
}

func TestWithFieldsDecoratesPublisher(t *testing.T) {
	var captured []logging.Event
	base := logging.PublisherFunc(func(_ context.Context, event logging.Event) {
		captured = append(captured, event)
	})

	pub := logging.WithFields(base, map[string]any{"arena": "demo"})
	pub.Publish(context.Background(), logging.Event{Type: "one"})

	if len(captured) != 1 {
		t.Fatalf("expected 1 event, got %d", len(captured))
	}
	if captured[0].Extra["arena"] != "demo" {
		t.Fatalf("expected decorated field, got %+v", captured[0].Extra)
	}

	if logging.WithFields(nil, map[string]any{"a": 1}) == nil {
		t.Fatalf("expected a usable publisher even for a nil base")
	}
}

func TestNopPublisherIsSilent(t *testing.T) {
	// Must not panic.
	logging.NopPublisher().Publish(context.Background(), logging.Event{Type: "ignored"})

	var f logging.PublisherFunc
	f.Publish(context.Background(), logging.Event{Type: "ignored"})
}
