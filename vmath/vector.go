// Package vmath provides float64 plane geometry for the simulation:
// points and vectors in meters, angles in radians, boxes, car polygons,
// cubic Bézier sampling and a seed-threading random source.
package vmath

import "math"

// Vec2 is a point or a vector in continuous board space (meters, y grows down)
type Vec2 struct {
	X, Y float64
}

// V is shorthand for Vec2{x, y}
func V(x, y float64) Vec2 { return Vec2{X: x, Y: y} }

func (a Vec2) Add(b Vec2) Vec2        { return Vec2{a.X + b.X, a.Y + b.Y} }
func (a Vec2) Sub(b Vec2) Vec2        { return Vec2{a.X - b.X, a.Y - b.Y} }
func (a Vec2) Scale(f float64) Vec2   { return Vec2{a.X * f, a.Y * f} }
func (a Vec2) Dot(b Vec2) float64     { return a.X*b.X + a.Y*b.Y }
func (a Vec2) Cross(b Vec2) float64   { return a.X*b.Y - a.Y*b.X }
func (a Vec2) Length() float64        { return math.Hypot(a.X, a.Y) }
func (a Vec2) LengthSq() float64      { return a.X*a.X + a.Y*a.Y }
func (a Vec2) Distance(b Vec2) float64 { return b.Sub(a).Length() }

// Normalize returns the unit vector, zero-safe
func (a Vec2) Normalize() Vec2 {
	l := a.Length()
	if l == 0 {
		return Vec2{}
	}
	return Vec2{a.X / l, a.Y / l}
}

// Perpendicular returns the vector rotated a quarter turn clockwise on screen (y down)
// For a heading this is the driver's right-hand side
func (a Vec2) Perpendicular() Vec2 {
	return Vec2{-a.Y, a.X}
}

// Rotate rotates the vector by angle radians (positive is clockwise on screen)
func (a Vec2) Rotate(angle Angle) Vec2 {
	s, c := math.Sincos(float64(angle))
	return Vec2{a.X*c - a.Y*s, a.X*s + a.Y*c}
}

// Lerp interpolates between a (t=0) and b (t=1)
func Lerp(a, b Vec2, t float64) Vec2 {
	return Vec2{a.X + (b.X-a.X)*t, a.Y + (b.Y-a.Y)*t}
}

// AlmostEqual compares two points within eps on both axes
func AlmostEqual(a, b Vec2, eps float64) bool {
	return math.Abs(a.X-b.X) <= eps && math.Abs(a.Y-b.Y) <= eps
}

// PolylineLength sums segment lengths from origin through all points
func PolylineLength(origin Vec2, points []Vec2) float64 {
	total := 0.0
	prev := origin
	for _, p := range points {
		total += prev.Distance(p)
		prev = p
	}
	return total
}

// QuantizedKey is an integer grid key for exact-position deduplication
type QuantizedKey struct {
	X, Y int64
}

// Quantize rounds a point to the given resolution
func Quantize(p Vec2, quantum float64) QuantizedKey {
	return QuantizedKey{
		X: int64(math.Round(p.X / quantum)),
		Y: int64(math.Round(p.Y / quantum)),
	}
}
