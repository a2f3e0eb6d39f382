// Package board holds the tile grid: road shapes derived from neighbor masks,
// user-set control modifiers and the lots placed beside roads
package board

import (
	"fmt"
	"math"

	"github.com/lixenwraith/vi-traffic/parameter"
	"github.com/lixenwraith/vi-traffic/vmath"
)

// Cell is a 1-based grid coordinate, y grows downward
type Cell struct {
	X, Y int
}

// Direction is a cardinal direction in clockwise order
type Direction uint8

const (
	Up Direction = iota
	Right
	Down
	Left
)

// Directions lists all four directions in clockwise order
var Directions = [4]Direction{Up, Right, Down, Left}

func (d Direction) String() string {
	switch d {
	case Up:
		return "up"
	case Right:
		return "right"
	case Down:
		return "down"
	case Left:
		return "left"
	}
	return fmt.Sprintf("Direction(%d)", d)
}

// ParseDirection is the inverse of String
func ParseDirection(s string) (Direction, bool) {
	for _, d := range Directions {
		if d.String() == s {
			return d, true
		}
	}
	return 0, false
}

func (d Direction) Opposite() Direction         { return (d + 2) % 4 }
func (d Direction) Clockwise() Direction        { return (d + 1) % 4 }
func (d Direction) CounterClockwise() Direction { return (d + 3) % 4 }

// Vector returns the unit step in continuous space
func (d Direction) Vector() vmath.Vec2 {
	switch d {
	case Up:
		return vmath.V(0, -1)
	case Right:
		return vmath.V(1, 0)
	case Down:
		return vmath.V(0, 1)
	default:
		return vmath.V(-1, 0)
	}
}

// Angle returns the heading of the direction
func (d Direction) Angle() vmath.Angle {
	return vmath.AngleOf(d.Vector())
}

// Orientation returns the axis the direction lies on
func (d Direction) Orientation() Orientation {
	if d == Up || d == Down {
		return Vertical
	}
	return Horizontal
}

// DirectionOf snaps a heading to the nearest cardinal direction
func DirectionOf(a vmath.Angle) Direction {
	quarter := math.Round(float64(a.Normalize()) / (math.Pi / 2))
	switch int(quarter) {
	case 0:
		return Right
	case 1:
		return Down
	case -1:
		return Up
	default:
		return Left
	}
}

// Orientation is a road axis
type Orientation uint8

const (
	Horizontal Orientation = iota
	Vertical
)

func (o Orientation) String() string {
	if o == Vertical {
		return "vertical"
	}
	return "horizontal"
}

// ParseOrientation is the inverse of String
func ParseOrientation(s string) (Orientation, bool) {
	switch s {
	case "horizontal":
		return Horizontal, true
	case "vertical":
		return Vertical, true
	}
	return 0, false
}

// Other returns the perpendicular orientation
func (o Orientation) Other() Orientation {
	return 1 - o
}

func (c Cell) String() string {
	return fmt.Sprintf("(%d,%d)", c.X, c.Y)
}

// Next returns the neighbor in direction d
func (c Cell) Next(d Direction) Cell {
	switch d {
	case Up:
		return Cell{c.X, c.Y - 1}
	case Right:
		return Cell{c.X + 1, c.Y}
	case Down:
		return Cell{c.X, c.Y + 1}
	default:
		return Cell{c.X - 1, c.Y}
	}
}

// InBounds reports whether the cell lies on a size x size board
func (c Cell) InBounds(size int) bool {
	return c.X >= 1 && c.Y >= 1 && c.X <= size && c.Y <= size
}

// Box returns the continuous-space square covered by the cell
func (c Cell) Box() vmath.BoundingBox {
	t := parameter.TileSize
	return vmath.BoundingBox{
		Min: vmath.V(float64(c.X-1)*t, float64(c.Y-1)*t),
		Max: vmath.V(float64(c.X)*t, float64(c.Y)*t),
	}
}

// Center returns the midpoint of the cell
func (c Cell) Center() vmath.Vec2 {
	return c.Box().Center()
}

// EdgeMidpoint returns the midpoint of the cell side facing d
func (c Cell) EdgeMidpoint(d Direction) vmath.Vec2 {
	return c.Center().Add(d.Vector().Scale(parameter.TileSize / 2))
}

// CellAt returns the cell containing p; points on a shared edge belong to the lower-right cell
func CellAt(p vmath.Vec2) Cell {
	t := parameter.TileSize
	return Cell{
		X: int(math.Floor(p.X/t)) + 1,
		Y: int(math.Floor(p.Y/t)) + 1,
	}
}

// RightOf returns the right-hand side unit vector for a driver heading d
func RightOf(d Direction) vmath.Vec2 {
	return d.Vector().Perpendicular()
}
