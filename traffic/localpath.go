package traffic

import (
	"github.com/lixenwraith/vi-traffic/board"
	"github.com/lixenwraith/vi-traffic/navigation"
	"github.com/lixenwraith/vi-traffic/parameter"
	"github.com/lixenwraith/vi-traffic/vmath"
)

// LocalTarget is where a leg ends and how the car must face there
type LocalTarget struct {
	Position vmath.Vec2
	Facing   board.Direction
	Kind     navigation.ConnectionKind
}

// TargetOf converts a network node into a leg target
func TargetOf(n navigation.Node) LocalTarget {
	return LocalTarget{Position: n.Position, Facing: n.Facing, Kind: n.Kind}
}

// BuildLocalPath returns the points from origin (excluded) to the target (included)
func BuildLocalPath(origin vmath.Vec2, heading vmath.Angle, target LocalTarget) []vmath.Vec2 {
	delta := target.Position.Sub(origin)
	if delta.Length() <= parameter.PathSnapEpsilon {
		return []vmath.Vec2{target.Position}
	}

	if target.Kind == navigation.DeadendExit {
		return uTurn(origin, heading.Direction(), target.Position)
	}

	if heading.AbsDiff(vmath.AngleOf(delta)) < parameter.StraightAngleThreshold {
		return vmath.SampleLine(origin, target.Position, parameter.StraightPathPoints)
	}

	return turn(origin, heading.Direction(), target.Position, target.Facing.Vector())
}

// uTurn pushes both control points forward so the curve swings around the road end
func uTurn(origin, heading, target vmath.Vec2) []vmath.Vec2 {
	push := heading.Scale(parameter.UTurnControlDistance)
	curve := vmath.CubicBezier{
		P0: origin,
		P1: origin.Add(push),
		P2: target.Add(push),
		P3: target,
	}
	return curve.Sample(parameter.SplineSegments)
}

// turn bends through the corner where the origin heading line meets the target facing line
// Parallel lines or a corner behind either end fall back to an S curve
func turn(origin, heading, target, facing vmath.Vec2) []vmath.Vec2 {
	corner, ok := vmath.LineIntersection(origin, heading, target, facing)
	if ok && corner.Sub(origin).Dot(heading) > 0 && target.Sub(corner).Dot(facing) > 0 {
		curve := vmath.CubicBezier{
			P0: origin,
			P1: vmath.Lerp(origin, corner, parameter.TurnControlRatio),
			P2: vmath.Lerp(target, corner, parameter.TurnControlRatio),
			P3: target,
		}
		return curve.Sample(parameter.SplineSegments)
	}

	reach := origin.Distance(target) / 2
	curve := vmath.CubicBezier{
		P0: origin,
		P1: origin.Add(heading.Scale(reach)),
		P2: target.Sub(facing.Scale(reach)),
		P3: target,
	}
	return curve.Sample(parameter.SplineSegments)
}

// ParkingPath turns from the lot entry node into the parking spot
func ParkingPath(lot board.Lot) []vmath.Vec2 {
	return turn(
		lot.EntryPosition(),
		lot.EntryFacing().Vector(),
		lot.ParkingSpot(),
		lot.Anchor.Direction.Vector(),
	)
}

// DeparturePath backs out of the parking spot onto the entry lane, ending at the merge point
func DeparturePath(lot board.Lot) []vmath.Vec2 {
	return turn(
		lot.ParkingSpot(),
		lot.Anchor.Direction.Opposite().Vector(),
		lot.MergePoint(),
		lot.EntryFacing().Vector(),
	)
}

// ParkedOrientation is the heading of a car resting in its lot
func ParkedOrientation(lot board.Lot) vmath.Angle {
	return lot.Anchor.Direction.Opposite().Angle()
}
