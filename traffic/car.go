// Package traffic decides, once per tick and per car, how each car moves:
// rule evaluation, kinematics, local path splines, lifecycle and traffic lights
package traffic

import (
	"fmt"
	"math"
	"time"

	"github.com/lixenwraith/vi-traffic/board"
	"github.com/lixenwraith/vi-traffic/navigation"
	"github.com/lixenwraith/vi-traffic/parameter"
	"github.com/lixenwraith/vi-traffic/vmath"
)

// CarID identifies a car; the world updates cars in ascending id order
type CarID int

// NoNode marks an unset node reference
const NoNode navigation.NodeID = -1

// Status is what the car is doing this tick
type Status uint8

const (
	Moving Status = iota
	WaitingForTrafficLights
	StoppedAtIntersection
	Yielding
	AvoidingCollision
	ParkedAtLot
	Confused
)

func (s Status) String() string {
	switch s {
	case Moving:
		return "moving"
	case WaitingForTrafficLights:
		return "waiting-for-lights"
	case StoppedAtIntersection:
		return "stopped-at-intersection"
	case Yielding:
		return "yielding"
	case AvoidingCollision:
		return "avoiding-collision"
	case ParkedAtLot:
		return "parked"
	case Confused:
		return "confused"
	}
	return fmt.Sprintf("Status(%d)", s)
}

// Car is a value; Play returns an updated copy
type Car struct {
	ID           CarID
	Position     vmath.Vec2
	Orientation  vmath.Angle
	Velocity     float64
	Acceleration float64
	Kind         int // visual variant

	Status  Status
	HomeLot board.LotID
	HasHome bool

	// Route[0] is the node the local path leads to
	Route     []navigation.NodeID
	LocalPath []vmath.Vec2
	Parking   bool // following the turn-in path into the home lot

	Lifecycle    Lifecycle
	TripDistance float64
	StoppedAt    navigation.NodeID // stop node already honored with a full stop

	Hold  float64       // travel left to the point a control rule holds the car at
	Stuck time.Duration // time spent standing still
}

// NewRoamingCar places a car without a home on a network node; it leaves the node on the first round
func NewRoamingCar(id CarID, n navigation.Node, kind int) Car {
	return Car{
		ID:          id,
		Position:    n.Position,
		Orientation: n.Facing.Angle(),
		Kind:        kind,
		Status:      Moving,
		Route:       []navigation.NodeID{n.ID},
		StoppedAt:   NoNode,
	}
}

// NewParkedCar places a resident car in its home lot
func NewParkedCar(id CarID, lot board.Lot, lg *LifecycleGraph, kind int) Car {
	return Car{
		ID:          id,
		Position:    lot.ParkingSpot(),
		Orientation: ParkedOrientation(lot),
		Kind:        kind,
		Status:      ParkedAtLot,
		HomeLot:     lot.ID,
		HasHome:     true,
		Lifecycle:   lg.Start(StageParked),
		StoppedAt:   NoNode,
	}
}

// Shape returns the car outline
func (c Car) Shape() vmath.Polygon {
	return vmath.OrientedRect(c.Position, c.Orientation, parameter.CarLength, parameter.CarWidth)
}

// Stopped reports whether the car is at rest
func (c Car) Stopped() bool {
	return c.Velocity <= parameter.StoppedVelocity
}

// Active reports whether the car takes part in traffic
func (c Car) Active() bool {
	return c.Status != ParkedAtLot && c.Status != Confused
}

// RemainingDistance is the length of the local path still ahead
func (c Car) RemainingDistance() float64 {
	return vmath.PolylineLength(c.Position, c.LocalPath)
}

// AccelerateToZero returns the constant acceleration that stops a car moving at v within d
// The result is never harsher than MaxDeceleration
func AccelerateToZero(v, d float64) float64 {
	if v <= 0 {
		return 0
	}
	if d <= 0 {
		return parameter.MaxDeceleration
	}
	return math.Max(-v*v/(2*d), parameter.MaxDeceleration)
}

// StartMoving resumes normal acceleration
func StartMoving(c Car) Car {
	c.Status = Moving
	c.Acceleration = parameter.AccelerationSpeedUp
	return c
}

// Confuse makes the car inert; the world removes confused cars on its next environment tick
func Confuse(c Car) Car {
	c.Status = Confused
	c.Velocity = 0
	c.Acceleration = 0
	c.Route = nil
	c.LocalPath = nil
	c.Parking = false
	return c
}

// integrate applies acceleration then advances along the local path (semi-implicit Euler)
// Travel stops short of touching any other car; a car cut short loses the speed it could not use
func integrate(c Car, dt float64, others []Car) Car {
	c.Velocity = math.Min(math.Max(c.Velocity+c.Acceleration*dt, 0), parameter.MaxVelocity)

	travel := c.Velocity * dt
	if limit := contactLimit(c, others, travel); limit < travel {
		travel = limit
		c.Velocity = limit / dt
	}

	moved := 0.0
	for travel > 0 && len(c.LocalPath) > 0 {
		next := c.LocalPath[0]
		delta := next.Sub(c.Position)
		dist := delta.Length()

		if dist > 0 {
			c.Orientation = vmath.AngleOf(delta)
		}
		if dist <= travel+parameter.PathSnapEpsilon {
			step := math.Min(dist, travel)
			c.Position = next
			c.LocalPath = c.LocalPath[1:]
			travel -= step
			moved += dist
			continue
		}
		c.Position = c.Position.Add(delta.Scale(travel / dist))
		moved += travel
		travel = 0
	}
	c.TripDistance += moved
	if len(c.LocalPath) == 0 {
		c.LocalPath = nil
	}
	return c
}

// watchGridlock gives up on a car that has stood still for GridlockTimeout
// A red light always turns, so waiting at one does not count
func watchGridlock(c Car, dt time.Duration) Car {
	if !c.Stopped() || c.Status == WaitingForTrafficLights {
		c.Stuck = 0
		return c
	}
	c.Stuck += dt
	if c.Stuck >= parameter.GridlockTimeout {
		return Confuse(c)
	}
	return c
}
