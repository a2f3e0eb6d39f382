package vmath

import "math"

// BoundingBox is an axis-aligned box, Min <= Max on both axes
type BoundingBox struct {
	Min, Max Vec2
}

// NewBox builds a box from two arbitrary corners
func NewBox(a, b Vec2) BoundingBox {
	return BoundingBox{
		Min: Vec2{math.Min(a.X, b.X), math.Min(a.Y, b.Y)},
		Max: Vec2{math.Max(a.X, b.X), math.Max(a.Y, b.Y)},
	}
}

// Contains is inclusive of the box edges
func (b BoundingBox) Contains(p Vec2) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X && p.Y >= b.Min.Y && p.Y <= b.Max.Y
}

// Intersects reports whether the interiors overlap; touching edges do not count
func (b BoundingBox) Intersects(o BoundingBox) bool {
	return b.Min.X < o.Max.X && o.Min.X < b.Max.X && b.Min.Y < o.Max.Y && o.Min.Y < b.Max.Y
}

// Center returns the box midpoint
func (b BoundingBox) Center() Vec2 {
	return Lerp(b.Min, b.Max, 0.5)
}

// Expand grows the box by d on every side
func (b BoundingBox) Expand(d float64) BoundingBox {
	return BoundingBox{
		Min: Vec2{b.Min.X - d, b.Min.Y - d},
		Max: Vec2{b.Max.X + d, b.Max.Y + d},
	}
}

// Union returns the smallest box holding both
func (b BoundingBox) Union(o BoundingBox) BoundingBox {
	return BoundingBox{
		Min: Vec2{math.Min(b.Min.X, o.Min.X), math.Min(b.Min.Y, o.Min.Y)},
		Max: Vec2{math.Max(b.Max.X, o.Max.X), math.Max(b.Max.Y, o.Max.Y)},
	}
}
