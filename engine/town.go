package engine

import (
	"log"

	"github.com/lixenwraith/vi-traffic/board"
	"github.com/lixenwraith/vi-traffic/roadgen"
	"github.com/lixenwraith/vi-traffic/vmath"
)

// townBraiding loops a third of the dead ends
const townBraiding = 0.35

// GenerateTown paves a generated street layout and lines it with lots
// The layout only depends on seed and the board size; returns the number of roads placed
func GenerateTown(w *World, seed uint64) int {
	size := w.board.Size()
	cells, s := roadgen.Generate(roadgen.Config{Size: size, Braiding: townBraiding}, vmath.NewSeed(seed))
	placed := w.PlaceRoads(cells)

	// one lot per two board rows is a sparse town with room to grow
	want := size / 2
	lots := 0
	for attempt := 0; attempt < want*lotAttempts && lots < want; attempt++ {
		var (
			cell board.Cell
			kind board.LotKind
			d    int
			ok   bool
		)
		if cell, s, ok = vmath.Choose(s, cells); !ok {
			break
		}
		kind, s, _ = vmath.Choose(s, board.LotKinds)
		d, s = s.Intn(4)
		if _, ok = w.AddLot(kind, board.Anchor{Cell: cell, Direction: board.Direction(d)}); ok {
			lots++
		}
	}

	log.Printf("town generated: %d roads, %d lots, %d lights", placed, lots, len(w.lights))
	return placed
}
