package parameter

import (
	"math"
	"time"
)

// Car Dimensions (meters)
const (
	CarLength = 4.6
	CarWidth  = 2.3
)

// Car Kinematics (SI units)
const (
	// MaxVelocity is the speed limit for all cars (40 km/h)
	MaxVelocity = 11.1

	// AccelerationSpeedUp is the normal acceleration when nothing blocks the car
	AccelerationSpeedUp = 5.0

	// MaxDeceleration is the hardest braking a car can apply (negative)
	MaxDeceleration = -20.0

	// ComfortDeceleration is used to decide whether a yellow light can be stopped for
	ComfortDeceleration = -8.0

	// StopSafetyMargin is the gap kept to an obstacle or stop line
	StopSafetyMargin = 1.5

	// StoppedVelocity is the speed under which a car counts as stopped
	StoppedVelocity = 0.1

	// PathSnapEpsilon snaps a car onto a path point when this close
	PathSnapEpsilon = 0.05
)

// Rule Evaluation Distances (meters)
const (
	// DangerousCarCollisionTestDistance is the least reach of the forward sweep (about one tile)
	DangerousCarCollisionTestDistance = TileSize

	// PathCollisionFieldOfView is how far ahead predicted paths are compared
	PathCollisionFieldOfView = TileSize * 1.5

	// PathConflictDistance is the center distance under which two path samples conflict
	// Two outlines never touch beyond twice the half diagonal (about 5.14)
	PathConflictDistance = 6.0

	// PathCollisionMinVelocity stands in for the speed of a standing car when arrival times are compared
	PathCollisionMinVelocity = 2.0

	// TrafficLightReactionDistance is the range at which red lights are obeyed
	TrafficLightReactionDistance = TileSize * 3

	// YieldReactionDistance is the range at which yield and stop signs are evaluated
	YieldReactionDistance = TileSize * 1.5

	// PriorityCheckDistance is how close a priority car must be to force a yield
	PriorityCheckDistance = TileSize * 1.5

	// StopLineZone is the distance from a stop node to the car center within which a halt counts
	StopLineZone = CarLength/2 + StopSafetyMargin + 1.0

	// ApproachSlack is the stopping distance under which a car brakes instead of rolling on
	ApproachSlack = 0.5

	// PathCollisionTimeTolerance treats arrival times this close (seconds) as simultaneous
	PathCollisionTimeTolerance = 0.05
)

// Sweeps: the car outline sampled along its path (meters)
const (
	// SweepStep is the sample spacing of rule sweeps
	SweepStep = 0.5

	// SweepExtension is how far a sweep continues straight past the end of the local path
	SweepExtension = TileSize / 2

	// CollisionFrontMargin stretches the swept outline ahead of the bumper
	CollisionFrontMargin = 1.0

	// CollisionSideMargin widens the swept outline on each flank
	CollisionSideMargin = 0.25

	// ContactStep is the sample spacing of the per-tick contact check
	ContactStep = 0.1

	// ContactFrontMargin is the least gap a car ever closes to the car ahead
	ContactFrontMargin = 0.3

	// ContactSideMargin is the least lateral gap kept while passing
	ContactSideMargin = 0.1
)

// GridlockTimeout is how long a car may stand still before it gives up and is removed
const GridlockTimeout = 40 * time.Second

// SameHeadingTolerance is the angle (radians) under which two cars travel the same way (10°)
var SameHeadingTolerance = 10 * math.Pi / 180
