package board

import (
	"maps"
	"slices"
)

// Board maps cells to road shapes; empty cells are terrain
// Shapes are derived data recomputed by ApplyMask, modifiers are user data that survive it
type Board struct {
	size      int
	shapes    map[Cell]Shape
	modifiers map[Cell]Modifier
}

// New creates an empty size x size board
func New(size int) *Board {
	return &Board{
		size:      size,
		shapes:    make(map[Cell]Shape),
		modifiers: make(map[Cell]Modifier),
	}
}

// Size returns the board edge length in cells
func (b *Board) Size() int {
	return b.size
}

// Len returns the number of road cells
func (b *Board) Len() int {
	return len(b.shapes)
}

// Has reports whether c holds a road
func (b *Board) Has(c Cell) bool {
	_, ok := b.shapes[c]
	return ok
}

// Shape returns the raw mask of a road cell
func (b *Board) Shape(c Cell) (Shape, bool) {
	s, ok := b.shapes[c]
	return s, ok
}

// Tile returns the effective tile of a road cell
func (b *Board) Tile(c Cell) (Tile, bool) {
	s, ok := b.shapes[c]
	if !ok {
		return Tile{}, false
	}
	m, stored := b.modifiers[c]
	return resolve(s, m, stored), true
}

// Modifier returns the stored modifier of a cell, compatible or not
func (b *Board) Modifier(c Cell) (Modifier, bool) {
	m, ok := b.modifiers[c]
	return m, ok
}

// Cells returns all road cells ordered by row then column
func (b *Board) Cells() []Cell {
	cells := slices.Collect(maps.Keys(b.shapes))
	SortCells(cells)
	return cells
}

// SortCells orders cells by row then column
func SortCells(cells []Cell) {
	slices.SortFunc(cells, func(a, c Cell) int {
		if a.Y != c.Y {
			return a.Y - c.Y
		}
		return a.X - c.X
	})
}

// CanBuildRoadAt reports whether a road may be placed at c
// Besides bounds and occupancy, no 2x2 block around c may become fully paved
func (b *Board) CanBuildRoadAt(c Cell) bool {
	if !c.InBounds(b.size) || b.Has(c) {
		return false
	}
	for _, dx := range [2]int{-1, 1} {
		for _, dy := range [2]int{-1, 1} {
			if b.Has(Cell{c.X + dx, c.Y}) && b.Has(Cell{c.X, c.Y + dy}) && b.Has(Cell{c.X + dx, c.Y + dy}) {
				return false
			}
		}
	}
	return true
}

// PlaceRoad adds a road at c and recomputes shapes; false when rejected
func (b *Board) PlaceRoad(c Cell) bool {
	if !b.CanBuildRoadAt(c) {
		return false
	}
	b.shapes[c] = 0
	b.ApplyMask()
	return true
}

// RemoveRoad deletes the road at c with its modifier; false when there is none
func (b *Board) RemoveRoad(c Cell) bool {
	if !b.Has(c) {
		return false
	}
	delete(b.shapes, c)
	delete(b.modifiers, c)
	b.ApplyMask()
	return true
}

// SetRoad inserts a road without the complexity check, for restoring saved boards
// The shape is recomputed on the next ApplyMask
func (b *Board) SetRoad(c Cell) bool {
	if !c.InBounds(b.size) {
		return false
	}
	if _, ok := b.shapes[c]; !ok {
		b.shapes[c] = 0
	}
	return true
}

// SetModifier stores a modifier for a road cell
func (b *Board) SetModifier(c Cell, m Modifier) bool {
	if !b.Has(c) {
		return false
	}
	b.modifiers[c] = m
	return true
}

// ToggleIntersectionControl cycles the control of an intersection
func (b *Board) ToggleIntersectionControl(c Cell) bool {
	t, ok := b.Tile(c)
	if !ok || !t.Kind().IsIntersection() {
		return false
	}
	m := b.modifiers[c]
	m.Control = nextControl(t.Shape, t.Control)
	m.HasControl = true
	b.modifiers[c] = m
	return true
}

// ToggleTrafficDirection cycles a regular road between two-way and both one-way directions
func (b *Board) ToggleTrafficDirection(c Cell) bool {
	t, ok := b.Tile(c)
	if !ok || t.Kind() != KindRegular {
		return false
	}
	m := b.modifiers[c]
	m.Traffic = nextTraffic(t.Shape, t.Traffic)
	b.modifiers[c] = m
	return true
}

// ApplyMask recomputes every shape from its orthogonal neighbors
// Shapes depend only on road presence, so applying it twice changes nothing
func (b *Board) ApplyMask() {
	for c := range b.shapes {
		var s Shape
		for _, d := range Directions {
			if b.Has(c.Next(d)) {
				s |= MaskOf(d)
			}
		}
		b.shapes[c] = s
	}
}

// Clone returns an independent copy
func (b *Board) Clone() *Board {
	return &Board{
		size:      b.size,
		shapes:    maps.Clone(b.shapes),
		modifiers: maps.Clone(b.modifiers),
	}
}

// Equal compares shapes and stored modifiers
func (b *Board) Equal(o *Board) bool {
	return b.size == o.size && maps.Equal(b.shapes, o.shapes) && maps.Equal(b.modifiers, o.modifiers)
}
