package navigation

import (
	"math"
	"slices"

	"github.com/lixenwraith/vi-traffic/board"
	"github.com/lixenwraith/vi-traffic/parameter"
	"github.com/lixenwraith/vi-traffic/vmath"
)

func keyOf(p vmath.Vec2) vmath.QuantizedKey {
	return vmath.Quantize(p, parameter.PositionQuantum)
}

// builder carries the read-only inputs of one Build call
type builder struct {
	board  *board.Board
	lots   []board.Lot
	assign LightAssigner

	net   *RoadNetwork
	pairs map[NodeID]NodeID // deadend entry -> exit
}

// Build converts the board and lots into a road network
// Identical inputs give identical node ids and edges. Build never fails: an
// unreachable lane simply has no outgoing edge
func Build(b *board.Board, lots []board.Lot, assign LightAssigner) *RoadNetwork {
	bl := &builder{
		board:  b,
		lots:   sortedLots(lots),
		assign: assign,
		net: &RoadNetwork{
			index:      make(map[vmath.QuantizedKey]NodeID),
			lotEntries: make(map[board.LotID]NodeID),
		},
		pairs: make(map[NodeID]NodeID),
	}

	for _, c := range bl.orderedCells() {
		bl.emitCell(c)
	}

	bl.net.out = make([][]NodeID, len(bl.net.nodes))
	bl.crossCellEdges()
	bl.deadendEdges()
	bl.inCellEdges()
	bl.assignLights()

	for i := range bl.net.out {
		slices.Sort(bl.net.out[i])
		bl.net.out[i] = slices.Compact(bl.net.out[i])
		bl.net.edgeCount += len(bl.net.out[i])
	}
	return bl.net
}

func sortedLots(lots []board.Lot) []board.Lot {
	out := slices.Clone(lots)
	slices.SortFunc(out, func(a, b board.Lot) int { return int(a.ID) - int(b.ID) })
	return out
}

// tilePriority orders deadends, then intersections, then curves, then regular roads
func tilePriority(k board.ShapeKind) int {
	switch k {
	case board.KindDeadend:
		return 0
	case board.KindT, board.KindCrossroads:
		return 1
	case board.KindCurve:
		return 2
	}
	return 3
}

func (bl *builder) orderedCells() []board.Cell {
	cells := bl.board.Cells() // already row-major
	slices.SortStableFunc(cells, func(a, c board.Cell) int {
		sa, _ := bl.board.Shape(a)
		sc, _ := bl.board.Shape(c)
		return tilePriority(sa.Kind()) - tilePriority(sc.Kind())
	})
	return cells
}

// add deduplicates by position; a duplicate only donates its control
func (bl *builder) add(conn Connection) NodeID {
	key := keyOf(conn.Position)
	if id, ok := bl.net.index[key]; ok {
		existing := &bl.net.nodes[id]
		if !existing.Control.Governed() && conn.Control.Governed() {
			existing.Control = conn.Control
		}
		return id
	}
	id := NodeID(len(bl.net.nodes))
	bl.net.nodes = append(bl.net.nodes, Node{ID: id, Connection: conn})
	bl.net.index[key] = id
	if conn.Kind == LotEntry {
		bl.net.lotEntries[conn.LotID] = id
	}
	return id
}

func (bl *builder) emitCell(c board.Cell) {
	tile, _ := bl.board.Tile(c)
	off := parameter.LaneOffset

	switch tile.Kind() {
	case board.KindRegular:
		for _, lot := range bl.lots {
			if lot.Anchor.Cell != c {
				continue
			}
			bl.add(Connection{
				Position: lot.EntryPosition(),
				Facing:   lot.EntryFacing(),
				Cell:     c,
				Kind:     LotEntry,
				LotID:    lot.ID,
				Control:  NoControl,
			})
		}

	case board.KindDeadend:
		dir := tile.Shape.DeadendDirection()
		right := board.RightOf(dir).Scale(off)
		entry := bl.add(Connection{
			Position: c.Center().Add(right),
			Facing:   dir,
			Cell:     c,
			Kind:     DeadendEntry,
			Control:  NoControl,
		})
		exit := bl.add(Connection{
			Position: c.Center().Sub(right),
			Facing:   dir.Opposite(),
			Cell:     c,
			Kind:     DeadendExit,
			Control:  NoControl,
		})
		bl.pairs[entry] = exit

	default: // curves and intersections
		for _, d := range tile.Shape.PotentialConnections() {
			right := board.RightOf(d).Scale(off)
			edge := c.EdgeMidpoint(d)

			outKind, inKind := LaneStart, LaneEnd
			if bl.joinsComplexTile(c.Next(d)) {
				outKind, inKind = Stopgap, Stopgap
			}

			control := NoControl
			if tile.Kind().IsIntersection() {
				control = approachControl(c, tile, d)
			}

			bl.add(Connection{
				Position: edge.Sub(right),
				Facing:   d.Opposite(),
				Cell:     c,
				Kind:     inKind,
				Control:  control,
			})
			bl.add(Connection{
				Position: edge.Add(right),
				Facing:   d,
				Cell:     c,
				Kind:     outKind,
				Control:  NoControl,
			})
		}
	}
}

// joinsComplexTile reports whether a neighbor is a curve or intersection
func (bl *builder) joinsComplexTile(c board.Cell) bool {
	s, ok := bl.board.Shape(c)
	if !ok {
		return false
	}
	k := s.Kind()
	return k == board.KindCurve || k.IsIntersection()
}

// approachControl is the regulation for cars entering cell c from side d
func approachControl(c board.Cell, tile board.Tile, d board.Direction) Control {
	ctl := Control{Kind: board.Uncontrolled, LightID: NoLight, Cell: c, Approach: d}
	switch tile.Control.Kind {
	case board.Signal:
		ctl.Kind = board.Signal
	case board.Yield, board.Stop:
		if d.Orientation() == tile.Control.Orientation {
			ctl.Kind = tile.Control.Kind
		}
	}
	return ctl
}

// crossCellEdges links lane starts, deadend exits and lot entries to the next node down their lane
func (bl *builder) crossCellEdges() {
	nodes := bl.net.nodes
	for _, from := range nodes {
		switch from.Kind {
		case LaneStart, DeadendExit, LotEntry:
		default:
			continue
		}

		best := NodeID(-1)
		bestDist := math.Inf(1)
		heading := from.Facing.Vector()
		lateral := heading.Perpendicular()

		for _, to := range nodes {
			if to.ID == from.ID || to.Facing != from.Facing {
				continue
			}
			switch to.Kind {
			case LaneEnd, DeadendEntry, LotEntry:
			default:
				continue
			}
			delta := to.Position.Sub(from.Position)
			if math.Abs(delta.Dot(lateral)) > parameter.LaneAlignmentTolerance {
				continue
			}
			ahead := delta.Dot(heading)
			if ahead <= parameter.LookupForwardEpsilon {
				continue
			}
			if ahead < bestDist {
				best, bestDist = to.ID, ahead
			}
		}

		if best >= 0 && bl.laneClear(from.Position, nodes[best].Position, from.Facing) {
			bl.net.out[from.ID] = append(bl.net.out[from.ID], best)
		}
	}
}

// laneClear walks the lane between two aligned points; every cell must be road
// and regular roads must allow travel in the lane's direction
func (bl *builder) laneClear(a, b vmath.Vec2, facing board.Direction) bool {
	length := a.Distance(b)
	step := parameter.TileSize / 4
	dir := facing.Vector()
	for d := step; d < length; d += step {
		c := board.CellAt(a.Add(dir.Scale(d)))
		tile, ok := bl.board.Tile(c)
		if !ok {
			return false
		}
		if tile.Kind() == board.KindRegular && !tile.AllowsTravel(facing) {
			return false
		}
	}
	return true
}

func (bl *builder) deadendEdges() {
	for entry, exit := range bl.pairs {
		bl.net.out[entry] = append(bl.net.out[entry], exit)
	}
}

// inCellEdges links nodes entering a cell to every exit of that cell ahead of them
// Lane starts with no onward lane are skipped so cars are never routed into them
func (bl *builder) inCellEdges() {
	nodes := bl.net.nodes
	for _, from := range nodes {
		if from.Kind != LaneEnd && from.Kind != Stopgap {
			continue
		}
		heading := from.Facing.Vector()
		cell := board.CellAt(from.Position.Add(heading.Scale(parameter.TileSize / 2)))
		if !bl.board.Has(cell) {
			continue
		}
		box := cell.Box()

		for _, to := range nodes {
			if to.ID == from.ID || !box.Contains(to.Position) {
				continue
			}
			switch to.Kind {
			case LaneStart, Stopgap:
				// Must sit on the cell side it faces, i.e. leave the cell
				if !box.Contains(to.Position.Add(to.Facing.Vector().Scale(-parameter.LaneOffset))) ||
					box.Contains(to.Position.Add(to.Facing.Vector().Scale(parameter.LaneOffset))) {
					continue
				}
				if to.Kind == LaneStart && len(bl.net.out[to.ID]) == 0 {
					continue
				}
			case DeadendExit:
			default:
				continue
			}
			if to.Position.Sub(from.Position).Dot(heading) <= parameter.LookupForwardEpsilon {
				continue
			}
			bl.net.out[from.ID] = append(bl.net.out[from.ID], to.ID)
		}
	}
}

// assignLights creates one light per approach of every signal crossroads
func (bl *builder) assignLights() {
	next := LightID(0)
	for i := range bl.net.nodes {
		node := &bl.net.nodes[i]
		if node.Control.Kind != board.Signal {
			continue
		}
		id := next
		if bl.assign != nil {
			id = bl.assign(node.Control.Cell, node.Control.Approach)
		} else {
			next++
		}
		node.Control.LightID = id
		bl.net.lights = append(bl.net.lights, LightRef{
			ID:       id,
			Cell:     node.Control.Cell,
			Approach: node.Control.Approach,
			Node:     node.ID,
			Position: node.Position,
			Facing:   node.Facing,
		})
	}
}
