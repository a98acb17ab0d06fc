package sim

import "testing"

type intState struct {
	value int
}

func (s *intState) Clone() ActorState {
	cloned := *s
	return &cloned
}

type wideState struct {
	tags []string
}

func (s *wideState) Clone() ActorState {
	cloned := &wideState{tags: make([]string, len(s.tags))}
	copy(cloned.tags, s.tags)
	return cloned
}

func TestStageAddReplacesExistingState(t *testing.T) {
	stage := NewStage()
	stage.Add(7, &intState{value: 1})
	stage.Add(7, &intState{value: 2})

	if stage.Size() != 1 {
		t.Fatalf("expected 1 actor after replacement, got %d", stage.Size())
	}
	state, ok := stage.Find(7)
	if !ok {
		t.Fatalf("expected actor 7 to exist")
	}
	if got := state.(*intState).value; got != 2 {
		t.Fatalf("expected replacement state value 2, got %d", got)
	}
}

func TestStageRemoveAbsentIsNoOp(t *testing.T) {
	stage := NewStage()
	stage.Add(1, &intState{value: 5})

	stage.Remove(99)

	if stage.Size() != 1 {
		t.Fatalf("expected removal of absent id to leave 1 actor, got %d", stage.Size())
	}
	stage.Remove(1)
	if stage.Size() != 0 {
		t.Fatalf("expected stage to be empty after removal, got %d actors", stage.Size())
	}
	if _, ok := stage.Find(1); ok {
		t.Fatalf("expected actor 1 to be gone")
	}
}

func TestStageCloneIsDeep(t *testing.T) {
	stage := NewStage()
	stage.Add(1, &intState{value: 10})
	stage.Add(2, &wideState{tags: []string{"alpha", "beta"}})

	cloned := stage.Clone()

	if cloned.Size() != stage.Size() {
		t.Fatalf("expected clone size %d, got %d", stage.Size(), cloned.Size())
	}

	state, ok := cloned.Find(1)
	if !ok {
		t.Fatalf("expected clone to contain actor 1")
	}
	state.(*intState).value = 99

	original, _ := stage.Find(1)
	if got := original.(*intState).value; got != 10 {
		t.Fatalf("expected original value 10 after mutating clone, got %d", got)
	}

	wide, _ := cloned.Find(2)
	wide.(*wideState).tags[0] = "mutated"
	originalWide, _ := stage.Find(2)
	if got := originalWide.(*wideState).tags[0]; got != "alpha" {
		t.Fatalf("expected original tag %q after mutating clone, got %q", "alpha", got)
	}

	cloned.Remove(2)
	if _, ok := stage.Find(2); !ok {
		t.Fatalf("expected removal on clone to leave original intact")
	}
}

func TestStageIDsSorted(t *testing.T) {
	stage := NewStage()
	for _, id := range []ActorID{42, 7, 19, 3} {
		stage.Add(id, &intState{})
	}

	ids := stage.IDs()
	want := []ActorID{3, 7, 19, 42}
	if len(ids) != len(want) {
		t.Fatalf("expected %d ids, got %d", len(want), len(ids))
	}
	for i, id := range want {
		if ids[i] != id {
			t.Fatalf("expected id %d at position %d, got %d", id, i, ids[i])
		}
	}
}
