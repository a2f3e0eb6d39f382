package parameter

import "time"

// Simulation Loop Timing
const (
	// TrafficUpdateInterval is the fast tick that moves every car once (~60 FPS)
	TrafficUpdateInterval = 16 * time.Millisecond

	// EnvironmentUpdateInterval is the slow tick that advances traffic lights and spawns
	EnvironmentUpdateInterval = 1 * time.Second

	// MaxTrafficTickDelta caps the delta fed into one traffic tick after a stall
	MaxTrafficTickDelta = 100 * time.Millisecond
)

// Board Defaults
const (
	// DefaultBoardSize is the board width and height in tiles
	DefaultBoardSize = 10

	// MaxBoardSize bounds board size accepted from config and savegames
	MaxBoardSize = 64
)
