package vmath

// CubicBezier is a cubic curve from P0 to P3 with control points P1 and P2
type CubicBezier struct {
	P0, P1, P2, P3 Vec2
}

// At evaluates the curve at t in [0, 1]
func (c CubicBezier) At(t float64) Vec2 {
	u := 1 - t
	a := u * u * u
	b := 3 * u * u * t
	d := 3 * u * t * t
	e := t * t * t
	return Vec2{
		X: a*c.P0.X + b*c.P1.X + d*c.P2.X + e*c.P3.X,
		Y: a*c.P0.Y + b*c.P1.Y + d*c.P2.Y + e*c.P3.Y,
	}
}

// Sample discretizes the curve into segments, excluding P0 and ending exactly at P3
func (c CubicBezier) Sample(segments int) []Vec2 {
	if segments < 1 {
		segments = 1
	}
	points := make([]Vec2, 0, segments)
	for i := 1; i < segments; i++ {
		points = append(points, c.At(float64(i)/float64(segments)))
	}
	return append(points, c.P3)
}

// SampleLine returns n evenly spaced points from a (excluded) to b (included)
func SampleLine(a, b Vec2, n int) []Vec2 {
	if n < 1 {
		n = 1
	}
	points := make([]Vec2, 0, n)
	for i := 1; i < n; i++ {
		points = append(points, Lerp(a, b, float64(i)/float64(n)))
	}
	return append(points, b)
}
