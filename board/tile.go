package board

import "fmt"

// Shape is the 4-bit neighbor mask of a road cell and doubles as its persistent tile id
type Shape uint8

const (
	MaskUp    Shape = 1
	MaskLeft  Shape = 2
	MaskRight Shape = 4
	MaskDown  Shape = 8

	MaxShape Shape = 15
)

// MaskOf returns the mask bit for a direction
func MaskOf(d Direction) Shape {
	switch d {
	case Up:
		return MaskUp
	case Left:
		return MaskLeft
	case Right:
		return MaskRight
	default:
		return MaskDown
	}
}

// Has reports whether the neighbor in d is a road
func (s Shape) Has(d Direction) bool {
	return s&MaskOf(d) != 0
}

// ShapeKind is the road geometry derived from a mask
type ShapeKind uint8

const (
	KindRegular ShapeKind = iota
	KindCurve
	KindDeadend
	KindT
	KindCrossroads
)

func (k ShapeKind) String() string {
	switch k {
	case KindRegular:
		return "regular"
	case KindCurve:
		return "curve"
	case KindDeadend:
		return "deadend"
	case KindT:
		return "t"
	case KindCrossroads:
		return "crossroads"
	}
	return fmt.Sprintf("ShapeKind(%d)", k)
}

// IsIntersection reports T and crossroads kinds
func (k ShapeKind) IsIntersection() bool {
	return k == KindT || k == KindCrossroads
}

// Corner names the two sides a curve joins
type Corner uint8

const (
	TopLeft Corner = iota
	TopRight
	BottomLeft
	BottomRight
)

func (c Corner) String() string {
	switch c {
	case TopLeft:
		return "top-left"
	case TopRight:
		return "top-right"
	case BottomLeft:
		return "bottom-left"
	default:
		return "bottom-right"
	}
}

// Kind classifies the mask
func (s Shape) Kind() ShapeKind {
	switch s & MaxShape {
	case 0, MaskLeft | MaskRight, MaskUp | MaskDown:
		return KindRegular
	case MaskUp | MaskLeft, MaskUp | MaskRight, MaskDown | MaskLeft, MaskDown | MaskRight:
		return KindCurve
	case MaskUp, MaskLeft, MaskRight, MaskDown:
		return KindDeadend
	case MaxShape:
		return KindCrossroads
	default:
		return KindT
	}
}

// Orientation of a regular road; an isolated road counts as horizontal
func (s Shape) Orientation() Orientation {
	if s == MaskUp|MaskDown {
		return Vertical
	}
	return Horizontal
}

// Corner of a curve
func (s Shape) Corner() Corner {
	switch s {
	case MaskUp | MaskLeft:
		return TopLeft
	case MaskUp | MaskRight:
		return TopRight
	case MaskDown | MaskLeft:
		return BottomLeft
	default:
		return BottomRight
	}
}

// DeadendDirection is the closed side of a deadend, opposite its only neighbor
func (s Shape) DeadendDirection() Direction {
	for _, d := range Directions {
		if s.Has(d) {
			return d.Opposite()
		}
	}
	return Up
}

// StemDirection is the single arm of a T perpendicular to its through road
func (s Shape) StemDirection() Direction {
	for _, d := range Directions {
		if !s.Has(d) {
			return d.Opposite()
		}
	}
	return Up
}

// PotentialConnections lists the drivable exits in clockwise order
func (s Shape) PotentialConnections() []Direction {
	var out []Direction
	for _, d := range Directions {
		if s.Has(d) {
			out = append(out, d)
		}
	}
	return out
}

func (s Shape) String() string {
	switch s.Kind() {
	case KindRegular:
		return "regular-" + s.Orientation().String()
	case KindCurve:
		return "curve-" + s.Corner().String()
	case KindDeadend:
		return "deadend-" + s.DeadendDirection().String()
	case KindT:
		return "t-" + s.StemDirection().String()
	}
	return "crossroads"
}

// ControlKind selects how an intersection is regulated
type ControlKind uint8

const (
	Uncontrolled ControlKind = iota
	Signal
	Yield
	Stop
)

func (k ControlKind) String() string {
	switch k {
	case Uncontrolled:
		return "uncontrolled"
	case Signal:
		return "signal"
	case Yield:
		return "yield"
	case Stop:
		return "stop"
	}
	return fmt.Sprintf("ControlKind(%d)", k)
}

// ParseControlKind is the inverse of String
func ParseControlKind(s string) (ControlKind, bool) {
	for k := Uncontrolled; k <= Stop; k++ {
		if k.String() == s {
			return k, true
		}
	}
	return 0, false
}

// Control is the intersection regulation
// For Yield and Stop, Orientation names the approaches that must give way
type Control struct {
	Kind        ControlKind
	Orientation Orientation
}

// TrafficDirection restricts a regular road to one direction of travel
type TrafficDirection struct {
	OneWay    bool
	Direction Direction
}

// Both is the default two-way traffic direction
var Both = TrafficDirection{}

// Modifier holds the user-set properties of a cell, kept apart from the derived shape
type Modifier struct {
	Control    Control
	HasControl bool
	Traffic    TrafficDirection
}

// Tile is the effective content of a road cell: shape plus compatible modifiers
type Tile struct {
	Shape   Shape
	Control Control
	Traffic TrafficDirection
}

// Kind is a shorthand for Shape.Kind
func (t Tile) Kind() ShapeKind {
	return t.Shape.Kind()
}

// AllowsTravel reports whether a regular road admits driving in direction d
func (t Tile) AllowsTravel(d Direction) bool {
	return !t.Traffic.OneWay || t.Traffic.Direction == d
}

// DefaultControl is the control of an intersection nobody configured
func DefaultControl(s Shape) Control {
	switch s.Kind() {
	case KindCrossroads:
		return Control{Kind: Signal}
	case KindT:
		return Control{Kind: Yield, Orientation: s.StemDirection().Orientation()}
	}
	return Control{}
}

// compatibleControl reports whether c can live on shape s
func compatibleControl(s Shape, c Control) bool {
	switch s.Kind() {
	case KindCrossroads:
		return true
	case KindT:
		if c.Kind == Signal {
			return false
		}
		return c.Kind == Uncontrolled || c.Orientation == s.StemDirection().Orientation()
	}
	return false
}

// compatibleTraffic reports whether t can live on shape s
func compatibleTraffic(s Shape, t TrafficDirection) bool {
	if !t.OneWay {
		return true
	}
	return s.Kind() == KindRegular && t.Direction.Orientation() == s.Orientation()
}

// resolve combines a shape and a stored modifier into the effective tile
func resolve(s Shape, m Modifier, stored bool) Tile {
	t := Tile{Shape: s}
	if s.Kind().IsIntersection() {
		t.Control = DefaultControl(s)
		if stored && m.HasControl && compatibleControl(s, m.Control) {
			t.Control = m.Control
		}
	}
	if stored && compatibleTraffic(s, m.Traffic) {
		t.Traffic = m.Traffic
	}
	return t
}

// nextControl advances the intersection control toggle cycle
// Crossroads: signal, yield V, yield H, stop V, stop H, uncontrolled
// T: yield, stop, uncontrolled on the stem orientation
func nextControl(s Shape, c Control) Control {
	if s.Kind() == KindT {
		o := s.StemDirection().Orientation()
		switch c.Kind {
		case Yield:
			return Control{Kind: Stop, Orientation: o}
		case Stop:
			return Control{Kind: Uncontrolled}
		default:
			return Control{Kind: Yield, Orientation: o}
		}
	}

	cycle := []Control{
		{Kind: Signal},
		{Kind: Yield, Orientation: Vertical},
		{Kind: Yield, Orientation: Horizontal},
		{Kind: Stop, Orientation: Vertical},
		{Kind: Stop, Orientation: Horizontal},
		{Kind: Uncontrolled},
	}
	for i, step := range cycle {
		if step == normalizeControl(c) {
			return cycle[(i+1)%len(cycle)]
		}
	}
	return cycle[0]
}

// normalizeControl clears the orientation where it carries no meaning
func normalizeControl(c Control) Control {
	if c.Kind == Signal || c.Kind == Uncontrolled {
		return Control{Kind: c.Kind}
	}
	return c
}

// nextTraffic advances the one-way toggle: both, natural, opposite, both
// The natural direction is right for horizontal roads and down for vertical ones
func nextTraffic(s Shape, t TrafficDirection) TrafficDirection {
	natural := Right
	if s.Orientation() == Vertical {
		natural = Down
	}
	switch {
	case !t.OneWay:
		return TrafficDirection{OneWay: true, Direction: natural}
	case t.Direction == natural:
		return TrafficDirection{OneWay: true, Direction: natural.Opposite()}
	default:
		return Both
	}
}
