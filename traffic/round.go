package traffic

import (
	"github.com/lixenwraith/vi-traffic/board"
	"github.com/lixenwraith/vi-traffic/navigation"
	"github.com/lixenwraith/vi-traffic/parameter"
	"github.com/lixenwraith/vi-traffic/vmath"
)

// Play runs one round for a car: lifecycle, leg selection, rules, integration
// others is read as-is; cars earlier in the tick have already moved
func Play(env Environment, c Car, others []Car, seed vmath.Seed) (Car, vmath.Seed) {
	if c.Status == Confused {
		return c, seed
	}
	dt := env.Delta()

	c, seed = advanceLifecycle(env, c, seed)
	if c.Status == Confused {
		return c, seed
	}
	if stageOf(c) == StageParked {
		return park(c), seed
	}

	c, seed = ensurePath(env, c, seed)
	if !c.Active() {
		return c, seed
	}

	c = markStop(env, c)
	c = Apply(c, Evaluate(env, c, others))
	c = integrate(c, dt.Seconds(), others)
	return watchGridlock(c, dt), seed
}

func park(c Car) Car {
	c.Status = ParkedAtLot
	c.Velocity = 0
	c.Acceleration = 0
	c.Route = nil
	c.LocalPath = nil
	c.Parking = false
	c.Stuck = 0
	return c
}

func advanceLifecycle(env Environment, c Car, seed vmath.Seed) (Car, vmath.Seed) {
	if !c.Lifecycle.Initialized() {
		return c, seed
	}
	m, actions := c.Lifecycle.Update(env.Delta(), LifecycleContext{
		TripDistance: c.TripDistance,
		HasHome:      c.HasHome,
	})
	c.Lifecycle = m

	for _, a := range actions {
		switch a {
		case ActionDepart:
			c, seed = depart(env, c, seed)
		case ActionHeadHome:
			// finish the current leg, the route home is planned at its end
			if len(c.Route) > 1 {
				c.Route = c.Route[:1]
			}
		}
	}
	return c, seed
}

// depart backs out of the home lot and picks the first leg from its entry node
func depart(env Environment, c Car, seed vmath.Seed) (Car, vmath.Seed) {
	net := env.Network()
	lot, ok := env.Lot(c.HomeLot)
	if !ok {
		return Confuse(c), seed
	}
	entry, ok := net.LotEntry(lot.ID)
	if !ok {
		return Confuse(c), seed
	}
	next, seed, ok := navigation.RandomNextNode(net, entry, seed)
	if !ok {
		return Confuse(c), seed
	}
	target, _ := net.Node(next)

	path := DeparturePath(lot)
	path = append(path, BuildLocalPath(lot.MergePoint(), lot.EntryFacing().Angle(), TargetOf(target))...)

	c.Position = lot.ParkingSpot()
	c.Orientation = ParkedOrientation(lot)
	c.Route = []navigation.NodeID{next}
	c.LocalPath = path
	c.Parking = false
	c.TripDistance = 0
	c.StoppedAt = NoNode
	return StartMoving(c), seed
}

// ensurePath gives a car at the end of its leg a new one
func ensurePath(env Environment, c Car, seed vmath.Seed) (Car, vmath.Seed) {
	if len(c.LocalPath) > 0 {
		return c, seed
	}
	if c.Parking {
		return finishParking(env, c), seed
	}
	if len(c.Route) == 0 {
		return Confuse(c), seed
	}

	net := env.Network()
	reached := c.Route[0]
	c.Route = c.Route[1:]
	if c.StoppedAt == reached {
		c.StoppedAt = NoNode
	}

	if stageOf(c) == StageHomebound {
		entry, hasEntry := net.LotEntry(c.HomeLot)
		if lot, ok := env.Lot(c.HomeLot); ok && hasEntry && reached == entry {
			c.Route = nil
			c.Parking = true
			c.LocalPath = ParkingPath(lot)
			return c, seed
		}
		if len(c.Route) == 0 && hasEntry {
			if _, path, ok := navigation.FindPath(net, reached, entry); ok {
				c.Route = path
			}
		}
		if len(c.Route) == 0 {
			// no way home, roam another trip
			if m, _, err := c.Lifecycle.TransitionTo(env.Lifecycle().Driving); err == nil {
				c.Lifecycle = m
			}
			c.TripDistance = 0
		}
	}

	if len(c.Route) == 0 {
		next, nextSeed, ok := navigation.RandomNextNode(net, reached, seed)
		seed = nextSeed
		if !ok {
			return Confuse(c), seed
		}
		c.Route = []navigation.NodeID{next}
	}

	target, ok := net.Node(c.Route[0])
	if !ok {
		return Confuse(c), seed
	}
	c.LocalPath = BuildLocalPath(c.Position, c.Orientation, TargetOf(target))
	return c, seed
}

func finishParking(env Environment, c Car) Car {
	m, _, err := c.Lifecycle.TransitionTo(env.Lifecycle().Parked)
	if err != nil {
		return Confuse(c)
	}
	c.Lifecycle = m
	if lot, ok := env.Lot(c.HomeLot); ok {
		c.Position = lot.ParkingSpot()
		c.Orientation = ParkedOrientation(lot)
	}
	c.TripDistance = 0
	c.StoppedAt = NoNode
	return park(c)
}

// markStop records a full stop at a stop sign node
func markStop(env Environment, c Car) Car {
	if len(c.Route) == 0 || !c.Stopped() {
		return c
	}
	node, ok := env.Network().Node(c.Route[0])
	if !ok || node.Control.Kind != board.Stop {
		return c
	}
	if c.RemainingDistance() <= parameter.StopLineZone {
		c.StoppedAt = c.Route[0]
	}
	return c
}
