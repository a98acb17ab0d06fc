package sim

// Callback observes the result of a wrapped event's application.
type Callback func(ActorID, bool)

// CallbackEvent wraps another event and invokes its callback on the first
// application and again whenever the wrapped result changes across
// resimulations. Embedders use it to watch a predicate flip without being
// woken for no-change replays. Its own Apply always succeeds, so wrapping
// never alters replay semantics.
type CallbackEvent struct {
	wrapped  Event
	callback Callback
	last     bool
	seen     bool
}

// NewCallbackEvent wraps event with an edge-reporting callback.
func NewCallbackEvent(event Event, callback Callback) *CallbackEvent {
	return &CallbackEvent{wrapped: event, callback: callback}
}

// When returns the wrapped event's timestamp.
func (e *CallbackEvent) When() Timestamp { return e.wrapped.When() }

// Target returns the wrapped event's actor.
func (e *CallbackEvent) Target() ActorID { return e.wrapped.Target() }

// Apply runs the wrapped event, reports result edges to the callback, and
// records the observed value for the next application.
func (e *CallbackEvent) Apply(stage *Stage) bool {
	value := e.wrapped.Apply(stage)
	if (!e.seen || value != e.last) && e.callback != nil {
		e.callback(e.wrapped.Target(), value)
	}
	e.seen = true
	e.last = value
	return true
}
