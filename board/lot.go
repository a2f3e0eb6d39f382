package board

import (
	"github.com/lixenwraith/vi-traffic/parameter"
	"github.com/lixenwraith/vi-traffic/vmath"
)

// LotID identifies a placed lot
type LotID int

// LotKind is a building type; Width runs along the road, Depth away from it, both in tiles
type LotKind struct {
	Name  string
	Width int
	Depth int
}

// LotKinds is the registry of buildable lot kinds
var LotKinds = []LotKind{
	{Name: "house", Width: 1, Depth: 1},
	{Name: "cottage", Width: 1, Depth: 2},
	{Name: "shop", Width: 2, Depth: 1},
	{Name: "office", Width: 2, Depth: 2},
}

// LotKindByName looks up a registered kind
func LotKindByName(name string) (LotKind, bool) {
	for _, k := range LotKinds {
		if k.Name == name {
			return k, true
		}
	}
	return LotKind{}, false
}

// Anchor ties a lot to the road cell it faces
// Direction points from the road to the lot
type Anchor struct {
	Cell      Cell
	Direction Direction
}

// Lot is a building placed beside a straight road
type Lot struct {
	ID     LotID
	Kind   LotKind
	Anchor Anchor
}

// Footprint returns the covered cells, front row first
// Extra width extends clockwise from the anchor direction
func (l Lot) Footprint() []Cell {
	front := l.Anchor.Cell.Next(l.Anchor.Direction)
	along := l.Anchor.Direction.Clockwise()
	cells := make([]Cell, 0, l.Kind.Width*l.Kind.Depth)
	for depth := 0; depth < l.Kind.Depth; depth++ {
		row := front
		for i := 0; i < depth; i++ {
			row = row.Next(l.Anchor.Direction)
		}
		for w := 0; w < l.Kind.Width; w++ {
			cells = append(cells, row)
			row = row.Next(along)
		}
	}
	return cells
}

// Box returns the continuous-space bounds of the footprint
func (l Lot) Box() vmath.BoundingBox {
	cells := l.Footprint()
	box := cells[0].Box()
	for _, c := range cells[1:] {
		box = box.Union(c.Box())
	}
	return box
}

// EntryFacing is the travel direction of the lane the lot opens onto
func (l Lot) EntryFacing() Direction {
	return l.Anchor.Direction.CounterClockwise()
}

// EntryPosition is the lane-center point on the road cell where cars turn in
func (l Lot) EntryPosition() vmath.Vec2 {
	return l.Anchor.Cell.Center().Add(l.Anchor.Direction.Vector().Scale(parameter.LaneOffset))
}

// ParkingSpot is where a resident car rests, inside the front row of the footprint
// It sits one lane offset downstream of the entry so the turn-in is a right angle
func (l Lot) ParkingSpot() vmath.Vec2 {
	edge := l.Anchor.Cell.EdgeMidpoint(l.Anchor.Direction)
	return edge.
		Add(l.Anchor.Direction.Vector().Scale(parameter.LotDriveDepth)).
		Add(l.EntryFacing().Vector().Scale(parameter.LaneOffset))
}

// MergePoint is where a departing car joins the lane, at the downstream edge of the anchor cell
func (l Lot) MergePoint() vmath.Vec2 {
	return l.EntryPosition().Add(l.EntryFacing().Vector().Scale(parameter.TileSize / 2))
}

// Valid checks placement against the board and the other lots
// The footprint must be on-board terrain not covered by another lot, and the anchor
// a regular road running across the anchor direction whose traffic may flow past the entry
func (l Lot) Valid(b *Board, lots []Lot) bool {
	if l.Kind.Width < 1 || l.Kind.Depth < 1 {
		return false
	}
	t, ok := b.Tile(l.Anchor.Cell)
	if !ok || t.Kind() != KindRegular {
		return false
	}
	if t.Shape.Orientation() == l.Anchor.Direction.Orientation() {
		return false
	}
	// An isolated road has no lanes to enter from
	if t.Shape == 0 {
		return false
	}
	if !t.AllowsTravel(l.EntryFacing()) {
		return false
	}

	for _, c := range l.Footprint() {
		if !c.InBounds(b.Size()) || b.Has(c) {
			return false
		}
	}
	box := l.Box()
	for _, other := range lots {
		if other.ID == l.ID {
			continue
		}
		if other.Box().Intersects(box) {
			return false
		}
	}
	return true
}
