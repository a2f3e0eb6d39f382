package traffic

import (
	"math"

	"github.com/lixenwraith/vi-traffic/parameter"
	"github.com/lixenwraith/vi-traffic/vmath"
)

// pose is the car placed at path distance s along its local path
type pose struct {
	at      vmath.Vec2
	heading vmath.Angle
	s       float64
}

// sweep samples the path ahead every step up to reach
// Past the end of the local path it continues straight for at most SweepExtension
func sweep(c Car, reach, step float64) []pose {
	poses := []pose{{at: c.Position, heading: c.Orientation}}
	from, heading := c.Position, c.Orientation
	travelled, next := 0.0, step

	for _, to := range c.LocalPath {
		seg := to.Sub(from)
		length := seg.Length()
		if length == 0 {
			continue
		}
		heading = vmath.AngleOf(seg)
		for next <= travelled+length && next <= reach {
			poses = append(poses, pose{at: from.Add(seg.Scale((next - travelled) / length)), heading: heading, s: next})
			next += step
		}
		travelled += length
		from = to
		if next > reach {
			return poses
		}
	}

	end := math.Min(reach, travelled+parameter.SweepExtension)
	dir := heading.Direction()
	for ; next <= end; next += step {
		poses = append(poses, pose{at: from.Add(dir.Scale(next - travelled)), heading: heading, s: next})
	}
	return poses
}

// body is the outline at p stretched ahead by front and widened by side on both flanks
func body(p pose, front, side float64) vmath.Polygon {
	center := p.at.Add(p.heading.Direction().Scale(front / 2))
	return vmath.OrientedRect(center, p.heading, parameter.CarLength+front, parameter.CarWidth+2*side)
}

// room returns how far c may travel along poses before its outline runs into o
// An overlap present from the start is ignored while it lasts when o is behind:
// driving on can only pull the two apart
func room(c, o Car, poses []pose, front, side float64) (float64, bool) {
	shape := o.Shape()
	leaving := false
	for i, p := range poses {
		if !body(p, front, side).Intersects(shape) {
			leaving = false
			continue
		}
		switch {
		case i == 0:
			if !behind(c, o) {
				return 0, true
			}
			leaving = true
		case leaving:
		default:
			return poses[i-1].s, true
		}
	}
	return 0, false
}

func behind(c, o Car) bool {
	return o.Position.Sub(c.Position).Dot(c.Orientation.Direction()) <= 0
}

// brakingDistance is the distance a car at v needs to stop at comfort deceleration
func brakingDistance(v float64) float64 {
	return v * v / (2 * math.Abs(parameter.ComfortDeceleration))
}

// contactLimit is the furthest c may move this tick without touching another car
func contactLimit(c Car, others []Car, travel float64) float64 {
	if travel <= 0 {
		return 0
	}
	poses := sweep(c, travel+parameter.ContactStep, parameter.ContactStep)
	limit := travel
	for _, o := range others {
		if !obstacle(c, o) || c.Position.Distance(o.Position) > travel+2*parameter.CarLength {
			continue
		}
		if d, ok := room(c, o, poses, parameter.ContactFrontMargin, parameter.ContactSideMargin); ok && d < limit {
			limit = d
		}
	}
	return limit
}

// Endangers reports whether a car placed with outline spot would sit where c
// cannot comfortably stop short of it
func (c Car) Endangers(spot vmath.Polygon) bool {
	if !c.Active() {
		return false
	}
	reach := brakingDistance(c.Velocity) + parameter.CollisionFrontMargin
	for _, p := range sweep(c, reach, parameter.SweepStep) {
		if body(p, parameter.CollisionFrontMargin, parameter.CollisionSideMargin).Intersects(spot) {
			return true
		}
	}
	return false
}
