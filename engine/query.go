package engine

import (
	"slices"

	"github.com/lixenwraith/vi-traffic/board"
	"github.com/lixenwraith/vi-traffic/navigation"
	"github.com/lixenwraith/vi-traffic/status"
	"github.com/lixenwraith/vi-traffic/traffic"
)

// Render feed. Every query returns copies; callers may keep them across ticks

// TileView is one road cell as drawn
type TileView struct {
	Cell board.Cell
	Tile board.Tile
}

// Cars returns all cars in update order
func (w *World) Cars() []traffic.Car {
	out := make([]traffic.Car, len(w.cars))
	for i, c := range w.cars {
		c.Route = slices.Clone(c.Route)
		c.LocalPath = slices.Clone(c.LocalPath)
		out[i] = c
	}
	return out
}

// Car finds one car by id
func (w *World) Car(id traffic.CarID) (traffic.Car, bool) {
	i, ok := slices.BinarySearchFunc(w.cars, id, func(c traffic.Car, id traffic.CarID) int { return int(c.ID) - int(id) })
	if !ok {
		return traffic.Car{}, false
	}
	return w.cars[i], true
}

// Lots returns lots by ascending id
func (w *World) Lots() []board.Lot {
	return slices.Clone(w.lots)
}

// TrafficLights returns lights by ascending id
func (w *World) TrafficLights() []traffic.TrafficLight {
	out := make([]traffic.TrafficLight, 0, len(w.lights))
	for _, l := range w.lights {
		out = append(out, l)
	}
	slices.SortFunc(out, func(a, b traffic.TrafficLight) int { return int(a.ID) - int(b.ID) })
	return out
}

// Tiles returns the effective tile of every road cell by row then column
func (w *World) Tiles() []TileView {
	cells := w.board.Cells()
	out := make([]TileView, 0, len(cells))
	for _, c := range cells {
		t, _ := w.board.Tile(c)
		out = append(out, TileView{Cell: c, Tile: t})
	}
	return out
}

func (w *World) NetworkNodes() []navigation.Node {
	return slices.Clone(w.network.Nodes())
}

func (w *World) NetworkEdges() []navigation.Edge {
	return w.network.Edges()
}

// Metrics returns a sorted snapshot of the status registry
func (w *World) Metrics() []status.Metric {
	return w.stats.reg.Snapshot()
}

// Board returns a copy of the board for persistence or inspection
func (w *World) Board() *board.Board {
	return w.board.Clone()
}

// Pending returns the number of queued car spawns
func (w *World) Pending() int {
	return len(w.pending)
}
