package parameter

import "time"

// Traffic Lights
const (
	// TrafficLightGreenDuration is the green dwell time
	TrafficLightGreenDuration = 8 * time.Second

	// TrafficLightYellowDuration is the yellow dwell time
	TrafficLightYellowDuration = 2 * time.Second
)

// Car Lifecycle
const (
	// ParkDuration is how long a car stays parked at its home lot
	ParkDuration = 10 * time.Second

	// TripDistanceBeforeHome is the distance (meters) driven before a car heads home
	TripDistanceBeforeHome = 600.0
)

// Spawning
const (
	// MaxCars caps the number of live cars
	MaxCars = 24

	// LotSpawnChance is the per environment tick probability to place a new lot
	LotSpawnChance = 0.3

	// CarSpawnChance is the per environment tick probability to enqueue a roaming car
	CarSpawnChance = 0.5

	// SpawnClearance is the free radius (meters) required around a spawn position
	SpawnClearance = CarLength * 1.5

	// MaxPendingSpawns bounds the car spawn queue
	MaxPendingSpawns = 8
)
