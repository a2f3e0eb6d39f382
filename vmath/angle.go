package vmath

import "math"

// Angle is a heading in radians, 0 = +X, positive turns clockwise on screen
type Angle float64

// AngleOf returns the heading of a vector
func AngleOf(v Vec2) Angle {
	return Angle(math.Atan2(v.Y, v.X))
}

// Direction returns the unit vector for the heading
func (a Angle) Direction() Vec2 {
	s, c := math.Sincos(float64(a))
	return Vec2{c, s}
}

// Normalize wraps the angle into (-π, π]
func (a Angle) Normalize() Angle {
	r := math.Mod(float64(a), 2*math.Pi)
	if r <= -math.Pi {
		r += 2 * math.Pi
	} else if r > math.Pi {
		r -= 2 * math.Pi
	}
	return Angle(r)
}

// Diff returns the signed smallest rotation from a to b
func (a Angle) Diff(b Angle) Angle {
	return (b - a).Normalize()
}

// AbsDiff returns the unsigned smallest rotation between a and b
func (a Angle) AbsDiff(b Angle) float64 {
	return math.Abs(float64(a.Diff(b)))
}

// Degrees converts to degrees
func (a Angle) Degrees() float64 {
	return float64(a) * 180 / math.Pi
}
