package logging

import (
	"context"
	"log"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

type Clock interface {
	Now() time.Time
}

type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time {
	return f()
}

// Sink receives routed events. Write is called from the router's dispatch
// goroutine only.
type Sink interface {
	Write(Event) error
	Close(context.Context) error
}

type NamedSink struct {
	Name string
	Sink Sink
}

// Router buffers published events and forwards them to sinks on a dedicated
// goroutine. Publishing never blocks: when the buffer is full the event is
// dropped and counted.
type Router struct {
	queue       chan Event
	sinks       []NamedSink
	clock       Clock
	fallback    *log.Logger
	minSeverity Severity
	fields      map[string]any
	metrics     *Metrics

	done   chan struct{}
	closed atomic.Bool
	wg     sync.WaitGroup

	eventsTotal  atomic.Uint64
	droppedTotal atomic.Uint64
}

type RouterStats struct {
	EventsTotal  uint64
	DroppedTotal uint64
}

// NewRouter starts a router over the provided sinks. A nil clock falls back
// to the wall clock; a nil metrics disables counter mirroring.
func NewRouter(clock Clock, cfg Config, sinks []NamedSink, metrics *Metrics) *Router {
	if clock == nil {
		clock = ClockFunc(time.Now)
	}
	bufferSize := cfg.BufferSize
	if bufferSize <= 0 {
		bufferSize = 256
	}

	active := make([]NamedSink, 0, len(sinks))
	for _, named := range sinks {
		if named.Sink != nil {
			active = append(active, named)
		}
	}

	r := &Router{
		queue:       make(chan Event, bufferSize),
		sinks:       active,
		clock:       clock,
		fallback:    log.New(os.Stderr, "[logging] ", log.LstdFlags),
		minSeverity: cfg.MinimumSeverity,
		fields:      cfg.CloneFields(),
		metrics:     metrics,
		done:        make(chan struct{}),
	}

	r.wg.Add(1)
	go r.dispatch()
	return r
}

// Publish implements Publisher.
func (r *Router) Publish(_ context.Context, event Event) {
	if r == nil || r.closed.Load() {
		return
	}
	if event.Severity < r.minSeverity {
		return
	}
	if event.Time.IsZero() {
		event.Time = r.clock.Now()
	}
	for k, v := range r.fields {
		if _, exists := event.Extra[k]; !exists {
			event = event.WithExtra(k, v)
		}
	}

	select {
	case r.queue <- event:
		r.eventsTotal.Add(1)
		r.metrics.Count("logging_events_total", 1)
	default:
		r.droppedTotal.Add(1)
		r.metrics.Count("logging_events_dropped_total", 1)
	}
}

func (r *Router) dispatch() {
	defer r.wg.Done()
	for {
		select {
		case <-r.done:
			for {
				select {
				case event := <-r.queue:
					r.forward(event)
				default:
					return
				}
			}
		case event := <-r.queue:
			r.forward(event)
		}
	}
}

func (r *Router) forward(event Event) {
	for _, named := range r.sinks {
		if err := named.Sink.Write(event); err != nil {
			r.fallback.Printf("sink %s write failed: %v", named.Name, err)
		}
	}
}

// Close drains the buffer, stops the dispatch goroutine, and closes every
// sink. Publishes after Close are dropped.
func (r *Router) Close(ctx context.Context) error {
	if r == nil || !r.closed.CompareAndSwap(false, true) {
		return nil
	}
	close(r.done)
	r.wg.Wait()

	var firstErr error
	for _, named := range r.sinks {
		if err := named.Sink.Close(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (r *Router) Stats() RouterStats {
	if r == nil {
		return RouterStats{}
	}
	return RouterStats{
		EventsTotal:  r.eventsTotal.Load(),
		DroppedTotal: r.droppedTotal.Load(),
	}
}
