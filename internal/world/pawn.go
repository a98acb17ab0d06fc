package world

import (
	"math"

	"driftline/server/internal/sim"
)

// Arena bounds and tuning for the demo world.
const (
	Width     = 800.0
	Height    = 600.0
	PawnHalf  = 14.0
	MaxHealth = 100.0
	// MaxStep bounds how far a single move event may displace a pawn.
	MaxStep = 48.0
)

// PawnState is the per-pawn actor state: a position inside the arena plus a
// health pool.
type PawnState struct {
	X      float64
	Y      float64
	Health float64
}

// Clone implements sim.ActorState.
func (p *PawnState) Clone() sim.ActorState {
	cloned := *p
	return &cloned
}

func clampX(x float64) float64 {
	return math.Max(PawnHalf, math.Min(Width-PawnHalf, x))
}

func clampY(y float64) float64 {
	return math.Max(PawnHalf, math.Min(Height-PawnHalf, y))
}

func clampStep(v float64) float64 {
	return math.Max(-MaxStep, math.Min(MaxStep, v))
}
