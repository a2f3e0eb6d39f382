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

// Environment is the read-only world view a car needs for one round
type Environment interface {
	Network() *navigation.RoadNetwork
	LightColor(id navigation.LightID) (LightColor, bool)
	Lot(id board.LotID) (board.Lot, bool)
	Lifecycle() *LifecycleGraph
	Delta() time.Duration
}

// RuleKind is the dominant action found for a car this tick
type RuleKind uint8

const (
	RuleNone RuleKind = iota
	RuleAvoidCollision
	RuleWaitForTrafficLights
	RuleStopAtIntersection
	RuleYieldAtIntersection
)

func (k RuleKind) String() string {
	switch k {
	case RuleNone:
		return "none"
	case RuleAvoidCollision:
		return "avoid-collision"
	case RuleWaitForTrafficLights:
		return "wait-for-traffic-lights"
	case RuleStopAtIntersection:
		return "stop-at-intersection"
	case RuleYieldAtIntersection:
		return "yield-at-intersection"
	}
	return fmt.Sprintf("RuleKind(%d)", k)
}

// Rule carries how far the car center may still travel before it has to be at rest
type Rule struct {
	Kind     RuleKind
	Distance float64
}

// Evaluate returns the first rule that triggers, in precedence order
func Evaluate(env Environment, c Car, others []Car) Rule {
	reach := math.Max(parameter.DangerousCarCollisionTestDistance, brakingDistance(c.Velocity)+parameter.CarLength)
	ahead := sweep(c, math.Max(reach, parameter.PathCollisionFieldOfView), parameter.SweepStep)

	if r, ok := forwardCollision(c, others, within(ahead, reach)); ok {
		return r
	}
	if r, ok := pathCollision(c, others, within(ahead, parameter.PathCollisionFieldOfView)); ok {
		return r
	}
	if r, ok := trafficControl(env, c, others); ok {
		return r
	}
	return Rule{Kind: RuleNone}
}

// Apply turns a rule into status and acceleration
// A car approaching a hold point rolls on as Moving until comfort braking is needed.
// From then on it keeps the hold status and never speeds up while the rule lasts
func Apply(c Car, r Rule) Car {
	var status Status
	switch r.Kind {
	case RuleAvoidCollision:
		status = AvoidingCollision
	case RuleWaitForTrafficLights:
		status = WaitingForTrafficLights
	case RuleStopAtIntersection:
		status = StoppedAtIntersection
	case RuleYieldAtIntersection:
		status = Yielding
	default:
		return StartMoving(c)
	}

	room := math.Max(r.Distance, 0)
	held := c.Status == status && (status != AvoidingCollision || c.Acceleration < 0)
	if !held && room > parameter.ApproachSlack && brakingDistance(c.Velocity) < room {
		c = StartMoving(c)
		c.Hold = room
		return c
	}
	c.Status = status
	c.Acceleration = AccelerateToZero(c.Velocity, room)
	c.Hold = room
	return c
}

// stopDistance keeps the front bumper a safety margin short of the stop point
func stopDistance(centerDistance float64) float64 {
	return centerDistance - parameter.CarLength/2 - parameter.StopSafetyMargin
}

// obstacle filters cars that take up road space
func obstacle(c, o Car) bool {
	return o.ID != c.ID && o.Active()
}

func sameHeading(a, b vmath.Angle) bool {
	return a.AbsDiff(b) < parameter.SameHeadingTolerance
}

func within(poses []pose, reach float64) []pose {
	n := len(poses)
	for n > 1 && poses[n-1].s > reach {
		n--
	}
	return poses[:n]
}

// forwardCollision sweeps the car outline along its path and stops short of the first car in the way
func forwardCollision(c Car, others []Car, ahead []pose) (Rule, bool) {
	reach := ahead[len(ahead)-1].s
	nearest, found := math.Inf(1), false
	for _, o := range others {
		if !obstacle(c, o) || c.Position.Distance(o.Position) > reach+2*parameter.CarLength {
			continue
		}
		// a car pulling away in our direction is no threat
		if sameHeading(c.Orientation, o.Orientation) && !o.Stopped() && o.Velocity >= c.Velocity {
			continue
		}
		if d, ok := room(c, o, ahead, parameter.CollisionFrontMargin, parameter.CollisionSideMargin); ok && d < nearest {
			nearest, found = d, true
		}
	}
	if !found {
		return Rule{}, false
	}
	return Rule{Kind: RuleAvoidCollision, Distance: nearest}, true
}

// holding reports whether o is braking for a control and will not pass its hold point
func holding(o Car) bool {
	switch o.Status {
	case WaitingForTrafficLights, StoppedAtIntersection, Yielding:
		return true
	}
	return false
}

// pathCollision compares predicted paths and yields when the other car gets to the conflict first
func pathCollision(c Car, others []Car, ours []pose) (Rule, bool) {
	if len(c.LocalPath) == 0 {
		return Rule{}, false
	}
	nearest, found := math.Inf(1), false
	for _, o := range others {
		if !obstacle(c, o) || len(o.LocalPath) == 0 || sameHeading(c.Orientation, o.Orientation) {
			continue
		}
		if c.Position.Distance(o.Position) > 2*parameter.PathCollisionFieldOfView {
			continue
		}
		reach := parameter.PathCollisionFieldOfView
		if holding(o) {
			reach = math.Min(reach, o.Hold)
		}
		theirs := sweep(o, reach, parameter.SweepStep)

		entry, at := firstConflict(ours, theirs)
		if at <= 0 {
			continue
		}
		// already in our way: the forward sweep handles it
		if _, theirEntry := firstConflict(theirs, ours); theirEntry == 0 {
			continue
		}

		// the lower id scans first, so both cars agree on the spot
		var sc, so float64
		if o.ID < c.ID {
			so, sc = canonicalConflict(theirs, ours)
		} else {
			sc, so = canonicalConflict(ours, theirs)
		}
		tc := sc / math.Max(c.Velocity, parameter.PathCollisionMinVelocity)
		to := so / math.Max(o.Velocity, parameter.PathCollisionMinVelocity)
		later := tc > to+parameter.PathCollisionTimeTolerance ||
			(math.Abs(tc-to) <= parameter.PathCollisionTimeTolerance && c.ID > o.ID)
		if later && entry < nearest {
			nearest, found = entry, true
		}
	}
	if !found {
		return Rule{}, false
	}
	return Rule{Kind: RuleAvoidCollision, Distance: nearest}, true
}

// firstConflict returns the first index of a that comes within PathConflictDistance of b,
// with the path distance of the sample before it; index -1 when the paths stay apart
func firstConflict(a, b []pose) (float64, int) {
	for i, p := range a {
		for _, q := range b {
			if near(p, q) {
				if i == 0 {
					return 0, 0
				}
				return a[i-1].s, i
			}
		}
	}
	return 0, -1
}

func near(p, q pose) bool {
	return p.at.Sub(q.at).LengthSq() < parameter.PathConflictDistance*parameter.PathConflictDistance
}

// canonicalConflict returns the path distances of the first sample pair within PathConflictDistance,
// scanning first before second
func canonicalConflict(first, second []pose) (float64, float64) {
	for _, p := range first {
		for _, q := range second {
			if near(p, q) {
				return p.s, q.s
			}
		}
	}
	return 0, 0
}

func trafficControl(env Environment, c Car, others []Car) (Rule, bool) {
	if len(c.Route) == 0 {
		return Rule{}, false
	}
	node, ok := env.Network().Node(c.Route[0])
	if !ok || !node.Control.Governed() {
		return Rule{}, false
	}
	ctl := node.Control
	dist := c.RemainingDistance()

	switch ctl.Kind {
	case board.Signal:
		if dist > parameter.TrafficLightReactionDistance {
			return Rule{}, false
		}
		color, ok := env.LightColor(ctl.LightID)
		if !ok {
			return Rule{}, false
		}
		if color == Red || (color == Yellow && canStop(c.Velocity, stopDistance(dist))) {
			return Rule{Kind: RuleWaitForTrafficLights, Distance: stopDistance(dist)}, true
		}

	case board.Stop:
		if dist > parameter.YieldReactionDistance {
			return Rule{}, false
		}
		if c.StoppedAt != c.Route[0] {
			return Rule{Kind: RuleStopAtIntersection, Distance: stopDistance(dist)}, true
		}
		if mustYield(env, c, ctl, others) {
			return Rule{Kind: RuleYieldAtIntersection, Distance: stopDistance(dist)}, true
		}

	case board.Yield:
		if dist <= parameter.YieldReactionDistance && mustYield(env, c, ctl, others) {
			return Rule{Kind: RuleYieldAtIntersection, Distance: stopDistance(dist)}, true
		}
	}
	return Rule{}, false
}

// canStop reports whether a yellow light can still be honored
func canStop(v, s float64) bool {
	if s <= 0 {
		return false
	}
	return v*v/(2*s) <= math.Abs(parameter.MaxDeceleration)
}

// mustYield: the intersection is occupied, or a priority car is about to enter it
func mustYield(env Environment, c Car, ctl navigation.Control, others []Car) bool {
	box := ctl.Cell.Box()
	net := env.Network()
	for _, o := range others {
		if o.ID == c.ID || !o.Active() || o.Parking {
			continue
		}
		if box.Contains(o.Position) {
			return true
		}
		if len(o.Route) == 0 {
			continue
		}
		n, ok := net.Node(o.Route[0])
		if !ok || n.Control.Cell != ctl.Cell || n.Control.Governed() {
			continue
		}
		if o.RemainingDistance() <= parameter.PriorityCheckDistance {
			return true
		}
	}
	return false
}
