package vmath

import "math"

// Polygon is a convex polygon given by its corners in order
type Polygon []Vec2

// OrientedRect returns the corners of a rectangle centered at center,
// length along heading and width across it
func OrientedRect(center Vec2, heading Angle, length, width float64) Polygon {
	f := heading.Direction().Scale(length / 2)
	r := heading.Direction().Perpendicular().Scale(width / 2)
	return Polygon{
		center.Add(f).Add(r),
		center.Add(f).Sub(r),
		center.Sub(f).Sub(r),
		center.Sub(f).Add(r),
	}
}

// Intersects reports whether two convex polygons overlap (separating axis test)
// Polygons that only touch do not intersect
func (p Polygon) Intersects(q Polygon) bool {
	if len(p) < 3 || len(q) < 3 {
		return false
	}
	return !separated(p, q) && !separated(q, p)
}

// separated looks for a separating axis among the edge normals of p
func separated(p, q Polygon) bool {
	for i := range p {
		edge := p[(i+1)%len(p)].Sub(p[i])
		axis := Vec2{X: -edge.Y, Y: edge.X}
		pLo, pHi := project(p, axis)
		qLo, qHi := project(q, axis)
		if pHi <= qLo || qHi <= pLo {
			return true
		}
	}
	return false
}

func project(p Polygon, axis Vec2) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, v := range p {
		d := v.Dot(axis)
		lo = min(lo, d)
		hi = max(hi, d)
	}
	return lo, hi
}

// LineIntersection intersects two infinite lines given by point and direction
// Returns false for parallel lines
func LineIntersection(p Vec2, dp Vec2, q Vec2, dq Vec2) (Vec2, bool) {
	denom := dp.Cross(dq)
	if math.Abs(denom) < 1e-9 {
		return Vec2{}, false
	}
	t := q.Sub(p).Cross(dq) / denom
	return p.Add(dp.Scale(t)), true
}
