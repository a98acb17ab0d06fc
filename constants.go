package main

import "time"

const (
	writeWait = 10 * time.Second

	// Spawn positions stagger along a grid so pawns do not stack.
	spawnMarginX = 80.0
	spawnMarginY = 80.0
	spawnStride  = 60.0
	spawnPerRow  = 10
)
