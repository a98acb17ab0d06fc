package world

import (
	"math"

	"driftline/server/internal/sim"
)

// SpawnPawn places a new pawn on the stage. It fails when the actor already
// exists so a duplicate join cannot reset a live pawn.
type SpawnPawn struct {
	sim.EventInfo
	X float64
	Y float64
}

func NewSpawnPawn(at sim.Timestamp, target sim.ActorID, x, y float64) *SpawnPawn {
	return &SpawnPawn{EventInfo: sim.EventInfo{At: at, Actor: target}, X: x, Y: y}
}

func (e *SpawnPawn) Apply(stage *sim.Stage) bool {
	if _, ok := stage.Find(e.Target()); ok {
		return false
	}
	stage.Add(e.Target(), &PawnState{X: clampX(e.X), Y: clampY(e.Y), Health: MaxHealth})
	return true
}

// MovePawn displaces a pawn by a bounded step, clamped to the arena. A zero
// displacement is not a meaningful mutation.
type MovePawn struct {
	sim.EventInfo
	DX float64
	DY float64
}

func NewMovePawn(at sim.Timestamp, target sim.ActorID, dx, dy float64) *MovePawn {
	return &MovePawn{EventInfo: sim.EventInfo{At: at, Actor: target}, DX: dx, DY: dy}
}

func (e *MovePawn) Apply(stage *sim.Stage) bool {
	if e.DX == 0 && e.DY == 0 {
		return false
	}
	return sim.TypedApply(stage, e.Target(), func(pawn *PawnState) bool {
		pawn.X = clampX(pawn.X + clampStep(e.DX))
		pawn.Y = clampY(pawn.Y + clampStep(e.DY))
		return true
	})
}

// StrikePawn reduces a pawn's health and removes it from the stage once the
// pool is exhausted.
type StrikePawn struct {
	sim.EventInfo
	Damage float64
}

func NewStrikePawn(at sim.Timestamp, target sim.ActorID, damage float64) *StrikePawn {
	return &StrikePawn{EventInfo: sim.EventInfo{At: at, Actor: target}, Damage: damage}
}

func (e *StrikePawn) Apply(stage *sim.Stage) bool {
	if e.Damage <= 0 {
		return false
	}
	return sim.TypedApply(stage, e.Target(), func(pawn *PawnState) bool {
		pawn.Health -= e.Damage
		if pawn.Health <= 0 {
			stage.Remove(e.Target())
		}
		return true
	})
}

// NewHealPawn restores health up to the cap, built on the generic
// state-typed event. Healing a full pawn is not a meaningful mutation.
func NewHealPawn(at sim.Timestamp, target sim.ActorID, amount float64) sim.Event {
	return sim.NewStateEvent(at, target, func(_ *sim.Stage, pawn *PawnState) bool {
		if amount <= 0 || pawn.Health >= MaxHealth {
			return false
		}
		pawn.Health = math.Min(MaxHealth, pawn.Health+amount)
		return true
	})
}

// DespawnPawn removes a pawn; it fails when the pawn is already gone.
type DespawnPawn struct {
	sim.EventInfo
}

func NewDespawnPawn(at sim.Timestamp, target sim.ActorID) *DespawnPawn {
	return &DespawnPawn{EventInfo: sim.EventInfo{At: at, Actor: target}}
}

func (e *DespawnPawn) Apply(stage *sim.Stage) bool {
	if _, ok := stage.Find(e.Target()); !ok {
		return false
	}
	stage.Remove(e.Target())
	return true
}
