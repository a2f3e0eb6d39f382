// Package roadgen lays out town streets on a board
// Streets are carved as a spanning tree on odd cells, then dead ends are braided into loops
// No 2x2 block is ever fully paved, so every layout passes the board's low complexity check
package roadgen

import (
	"github.com/lixenwraith/vi-traffic/board"
	"github.com/lixenwraith/vi-traffic/vmath"
)

// Config shapes one layout
type Config struct {
	Size int // board edge in cells

	// Braiding: 0.0 keeps a tree of streets, 1.0 loops every dead end that can be looped
	Braiding float64
}

type point struct {
	x, y int
}

var (
	steps = []point{{0, -2}, {2, 0}, {0, 2}, {-2, 0}}
	ortho = []point{{0, -1}, {1, 0}, {0, 1}, {-1, 0}}
)

// grid holds paved flags indexed [y][x], zero based
type grid struct {
	cells [][]bool
	size  int
}

func newGrid(size int) *grid {
	g := &grid{cells: make([][]bool, size), size: size}
	for i := range g.cells {
		g.cells[i] = make([]bool, size)
	}
	return g
}

func (g *grid) in(x, y int) bool {
	return x >= 0 && x < g.size && y >= 0 && y < g.size
}

func (g *grid) paved(x, y int) bool {
	return g.in(x, y) && g.cells[y][x]
}

// Generate returns the street cells in row-major order and the advanced seed
// Boards smaller than 3 cells get no streets
func Generate(cfg Config, seed vmath.Seed) ([]board.Cell, vmath.Seed) {
	if cfg.Size < 3 {
		return nil, seed
	}
	g := newGrid(cfg.Size)

	// odd indices inside the one cell margin are junction candidates
	span := (cfg.Size - 1) / 2
	var sx, sy int
	sx, seed = seed.Intn(span)
	sy, seed = seed.Intn(span)
	start := point{2*sx + 1, 2*sy + 1}

	seed = g.carve(start, seed)
	if cfg.Braiding > 0 {
		seed = g.braid(cfg.Braiding, seed)
	}

	var out []board.Cell
	for y := 0; y < g.size; y++ {
		for x := 0; x < g.size; x++ {
			if g.cells[y][x] {
				out = append(out, board.Cell{X: x + 1, Y: y + 1})
			}
		}
	}
	return out, seed
}

// carve runs the recursive backtracker with an explicit stack
func (g *grid) carve(start point, seed vmath.Seed) vmath.Seed {
	g.cells[start.y][start.x] = true
	stack := []point{start}

	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		candidates := make([]point, 0, 4)
		for _, d := range steps {
			nx, ny := cur.x+d.x, cur.y+d.y
			if nx > 0 && nx < g.size-1 && ny > 0 && ny < g.size-1 && !g.cells[ny][nx] {
				candidates = append(candidates, d)
			}
		}

		if len(candidates) == 0 {
			stack = stack[:len(stack)-1]
			continue
		}
		var d point
		d, seed, _ = vmath.Choose(seed, candidates)
		g.cells[cur.y+d.y/2][cur.x+d.x/2] = true
		next := point{cur.x + d.x, cur.y + d.y}
		g.cells[next.y][next.x] = true
		stack = append(stack, next)
	}
	return seed
}

// braid links dead ends to a neighboring street with the given probability
func (g *grid) braid(probability float64, seed vmath.Seed) vmath.Seed {
	for y := 1; y < g.size-1; y += 2 {
		for x := 1; x < g.size-1; x += 2 {
			if !g.cells[y][x] || g.exits(x, y) != 1 {
				continue
			}
			var hit bool
			hit, seed = seed.Chance(probability)
			if !hit {
				continue
			}

			candidates := make([]point, 0, 4)
			for _, d := range steps {
				nx, ny := x+d.x, y+d.y
				wx, wy := x+d.x/2, y+d.y/2
				if g.paved(nx, ny) && !g.paved(wx, wy) && g.canPave(wx, wy) {
					candidates = append(candidates, point{wx, wy})
				}
			}
			if c, next, ok := vmath.Choose(seed, candidates); ok {
				seed = next
				g.cells[c.y][c.x] = true
			}
		}
	}
	return seed
}

func (g *grid) exits(x, y int) int {
	n := 0
	for _, d := range ortho {
		if g.paved(x+d.x, y+d.y) {
			n++
		}
	}
	return n
}

// canPave rejects plazas (a fully paved 2x2 block) and isolated terrain pillars
func (g *grid) canPave(x, y int) bool {
	for _, q := range [][3]point{
		{{-1, -1}, {0, -1}, {-1, 0}},
		{{0, -1}, {1, -1}, {1, 0}},
		{{-1, 0}, {-1, 1}, {0, 1}},
		{{1, 0}, {0, 1}, {1, 1}},
	} {
		if g.paved(x+q[0].x, y+q[0].y) && g.paved(x+q[1].x, y+q[1].y) && g.paved(x+q[2].x, y+q[2].y) {
			return false
		}
	}

	for _, d := range ortho {
		nx, ny := x+d.x, y+d.y
		if !g.in(nx, ny) || g.cells[ny][nx] {
			continue
		}
		terrain := 0
		for _, d2 := range ortho {
			tx, ty := nx+d2.x, ny+d2.y
			if tx == x && ty == y {
				continue
			}
			if g.in(tx, ty) && !g.cells[ty][tx] {
				terrain++
			}
		}
		if terrain == 0 {
			return false
		}
	}
	return true
}
