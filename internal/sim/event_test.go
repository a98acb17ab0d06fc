package sim

import "testing"

type otherState struct{}

func (s *otherState) Clone() ActorState { return &otherState{} }

func TestEventInfoAccessors(t *testing.T) {
	info := EventInfo{At: 1005, Actor: 100}
	if info.When() != 1005 {
		t.Fatalf("expected timestamp 1005, got %d", info.When())
	}
	if info.Target() != 100 {
		t.Fatalf("expected target 100, got %d", info.Target())
	}
}

func TestTypedApplyMissingTarget(t *testing.T) {
	stage := NewStage()

	called := false
	ok := TypedApply(stage, 5, func(*intState) bool {
		called = true
		return true
	})

	if ok {
		t.Fatalf("expected TypedApply to fail for a missing actor")
	}
	if called {
		t.Fatalf("expected mutator to be skipped for a missing actor")
	}
}

func TestTypedApplyWrongStateType(t *testing.T) {
	stage := NewStage()
	stage.Add(5, &otherState{})

	ok := TypedApply(stage, 5, func(state *intState) bool {
		state.value++
		return true
	})

	if ok {
		t.Fatalf("expected TypedApply to reject a mismatched state type")
	}
}

func TestTypedApplyDelegates(t *testing.T) {
	stage := NewStage()
	stage.Add(5, &intState{value: 3})

	ok := TypedApply(stage, 5, func(state *intState) bool {
		state.value *= 2
		return true
	})

	if !ok {
		t.Fatalf("expected TypedApply to succeed")
	}
	state, _ := stage.Find(5)
	if got := state.(*intState).value; got != 6 {
		t.Fatalf("expected mutated value 6, got %d", got)
	}
}

func TestStateEventAppliesMutator(t *testing.T) {
	stage := NewStage()
	stage.Add(9, &intState{value: 1})

	event := NewStateEvent(1200, 9, func(_ *Stage, state *intState) bool {
		state.value++
		return true
	})

	if event.When() != 1200 || event.Target() != 9 {
		t.Fatalf("expected stamp (1200, 9), got (%d, %d)", event.When(), event.Target())
	}
	if !event.Apply(stage) {
		t.Fatalf("expected apply to succeed")
	}
	state, _ := stage.Find(9)
	if got := state.(*intState).value; got != 2 {
		t.Fatalf("expected value 2 after apply, got %d", got)
	}

	if event.Apply(NewStage()) {
		t.Fatalf("expected apply against an empty stage to fail")
	}
}

func TestCallbackEventReportsEdgesOnly(t *testing.T) {
	stage := NewStage()
	stage.Add(4, &intState{})

	type observation struct {
		target ActorID
		value  bool
	}
	var observed []observation

	inner := NewStateEvent(10, 4, func(_ *Stage, state *intState) bool {
		state.value++
		return true
	})
	wrapped := NewCallbackEvent(inner, func(id ActorID, value bool) {
		observed = append(observed, observation{target: id, value: value})
	})

	if wrapped.When() != 10 || wrapped.Target() != 4 {
		t.Fatalf("expected wrapper stamp (10, 4), got (%d, %d)", wrapped.When(), wrapped.Target())
	}

	// First application fires the callback.
	if !wrapped.Apply(stage) {
		t.Fatalf("expected wrapper apply to succeed")
	}
	if len(observed) != 1 || !observed[0].value || observed[0].target != 4 {
		t.Fatalf("expected first application to report (4, true), got %+v", observed)
	}

	// Replay with an unchanged result stays silent.
	if !wrapped.Apply(stage) {
		t.Fatalf("expected wrapper apply to succeed on replay")
	}
	if len(observed) != 1 {
		t.Fatalf("expected no callback on an unchanged result, got %d calls", len(observed))
	}

	// Removing the target flips the wrapped result; the edge is reported and
	// the wrapper still succeeds.
	if !wrapped.Apply(NewStage()) {
		t.Fatalf("expected wrapper to succeed even when the wrapped event fails")
	}
	if len(observed) != 2 || observed[1].value != false {
		t.Fatalf("expected flip to (4, false), got %+v", observed)
	}

	// And silent again while the result stays false.
	wrapped.Apply(NewStage())
	if len(observed) != 2 {
		t.Fatalf("expected no callback on a repeated failure, got %d calls", len(observed))
	}
}
