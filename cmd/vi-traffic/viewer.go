package main

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/lixenwraith/vi-traffic/board"
	"github.com/lixenwraith/vi-traffic/engine"
	"github.com/lixenwraith/vi-traffic/navigation"
	"github.com/lixenwraith/vi-traffic/parameter"
	"github.com/lixenwraith/vi-traffic/status"
	"github.com/lixenwraith/vi-traffic/traffic"
	"github.com/lixenwraith/vi-traffic/vmath"
)

// Each board cell is drawn as a cellW x cellH block of terminal characters
const (
	cellW = 4
	cellH = 2
)

// roadGlyphs is indexed by the shape mask (up=1, left=2, right=4, down=8)
var roadGlyphs = [16]rune{
	'·', '╵', '╴', '┘', '╶', '└', '─', '┴',
	'╷', '│', '┐', '┤', '┌', '├', '┬', '┼',
}

var carGlyphs = map[board.Direction]rune{
	board.Up: '▲', board.Right: '▶', board.Down: '▼', board.Left: '◀',
}

var carColors = []tcell.Color{tcell.ColorAqua, tcell.ColorFuchsia, tcell.ColorOrange, tcell.ColorLime}

var (
	styleTerrain = tcell.StyleDefault.Foreground(tcell.ColorDarkOliveGreen)
	styleRoad    = tcell.StyleDefault.Foreground(tcell.ColorWhite).Background(tcell.ColorDimGray)
	styleLot     = tcell.StyleDefault.Foreground(tcell.ColorWhite).Background(tcell.ColorNavy)
	styleCursor  = tcell.StyleDefault.Reverse(true)
	styleStatus  = tcell.StyleDefault.Foreground(tcell.ColorSilver)
	styleNode    = tcell.StyleDefault.Foreground(tcell.ColorYellow).Background(tcell.ColorDimGray)
)

// frame is a copy of the render feed taken on the scheduler goroutine
type frame struct {
	size    int
	tiles   []engine.TileView
	lots    []board.Lot
	lights  []traffic.TrafficLight
	cars    []traffic.Car
	nodes   []navigation.Node
	running bool
}

func snapshot(w *engine.World, overlay bool) frame {
	f := frame{
		size:    w.Config().Board.Size,
		tiles:   w.Tiles(),
		lots:    w.Lots(),
		lights:  w.TrafficLights(),
		cars:    w.Cars(),
		running: w.Running(),
	}
	if overlay {
		f.nodes = w.NetworkNodes()
	}
	return f
}

// viewer draws frames; all its state lives on the UI goroutine
type viewer struct {
	screen  tcell.Screen
	metrics *status.Registry

	cursor  board.Cell
	lotKind int
	lotDir  board.Direction
	overlay bool
	message string
}

func newViewer(screen tcell.Screen, metrics *status.Registry) *viewer {
	return &viewer{
		screen:  screen,
		metrics: metrics,
		cursor:  board.Cell{X: 1, Y: 1},
		lotDir:  board.Up,
	}
}

// toScreen maps a world position to a terminal cell
func toScreen(p vmath.Vec2) (int, int) {
	return int(p.X / parameter.TileSize * cellW), int(p.Y / parameter.TileSize * cellH)
}

func (v *viewer) draw(f frame) {
	s := v.screen
	s.Clear()

	for y := 0; y < f.size*cellH; y++ {
		for x := 0; x < f.size*cellW; x++ {
			s.SetContent(x, y, ' ', nil, styleTerrain)
		}
	}

	for _, t := range f.tiles {
		x0, y0 := (t.Cell.X-1)*cellW, (t.Cell.Y-1)*cellH
		glyph := roadGlyphs[t.Tile.Shape&board.MaxShape]
		for dy := 0; dy < cellH; dy++ {
			for dx := 0; dx < cellW; dx++ {
				s.SetContent(x0+dx, y0+dy, ' ', nil, styleRoad)
			}
		}
		s.SetContent(x0+cellW/2-1, y0, glyph, nil, styleRoad)
		if mark := controlMark(t.Tile); mark != 0 {
			s.SetContent(x0+cellW/2, y0, mark, nil, styleRoad.Bold(true))
		}
	}

	for _, l := range f.lots {
		initial := []rune(strings.ToUpper(l.Kind.Name))[0]
		for _, c := range l.Footprint() {
			x0, y0 := (c.X-1)*cellW, (c.Y-1)*cellH
			for dy := 0; dy < cellH; dy++ {
				for dx := 0; dx < cellW; dx++ {
					s.SetContent(x0+dx, y0+dy, ' ', nil, styleLot)
				}
			}
			s.SetContent(x0+1, y0, initial, nil, styleLot)
		}
	}

	for _, n := range f.nodes {
		x, y := toScreen(n.Position)
		s.SetContent(x, y, '∙', nil, styleNode)
	}

	for _, l := range f.lights {
		x, y := toScreen(l.Position)
		s.SetContent(x, y, '●', nil, styleRoad.Foreground(lightColor(l.Color())))
	}

	for _, c := range f.cars {
		x, y := toScreen(c.Position)
		style := styleRoad.Foreground(carColors[c.Kind%len(carColors)])
		glyph := carGlyphs[board.DirectionOf(c.Orientation)]
		switch c.Status {
		case traffic.ParkedAtLot:
			style = styleLot.Foreground(carColors[c.Kind%len(carColors)])
		case traffic.Confused:
			glyph, style = '?', styleRoad.Foreground(tcell.ColorRed)
		}
		s.SetContent(x, y, glyph, nil, style)
	}

	cx, cy := (v.cursor.X-1)*cellW, (v.cursor.Y-1)*cellH
	mainc, _, style, _ := s.GetContent(cx, cy)
	s.SetContent(cx, cy, mainc, nil, style.Reverse(true))
	s.SetContent(cx+cellW-1, cy+cellH-1, ']', nil, styleCursor)

	v.drawStatus(f, f.size*cellH+1)
	s.Show()
}

func (v *viewer) drawStatus(f frame, row int) {
	state := "running"
	if !f.running {
		state = "paused"
	}
	kind := board.LotKinds[v.lotKind]
	v.text(0, row, fmt.Sprintf("%s  cursor %v  lot %s facing %v  %s", state, v.cursor, kind.Name, v.lotDir, v.message))

	var parts []string
	for _, m := range v.metrics.Snapshot() {
		parts = append(parts, m.Key+"="+m.Value)
	}
	v.text(0, row+1, strings.Join(parts, " "))
	v.text(0, row+2, "arrows move  r road  x remove  c control  o one-way  l lot  k kind  d dir  space pause  . step  n nodes  w save  q quit")
}

func (v *viewer) text(x, y int, s string) {
	for i, r := range []rune(s) {
		v.screen.SetContent(x+i, y, r, nil, styleStatus)
	}
}

func controlMark(t board.Tile) rune {
	if !t.Kind().IsIntersection() {
		if t.Traffic.OneWay {
			return carGlyphs[t.Traffic.Direction]
		}
		return 0
	}
	switch t.Control.Kind {
	case board.Yield:
		return 'Y'
	case board.Stop:
		return 'S'
	}
	return 0
}

func lightColor(c traffic.LightColor) tcell.Color {
	switch c {
	case traffic.Green:
		return tcell.ColorGreen
	case traffic.Yellow:
		return tcell.ColorYellow
	}
	return tcell.ColorRed
}

// move steps the cursor and clamps it to the board
func (v *viewer) move(d board.Direction, size int) {
	next := v.cursor.Next(d)
	if next.InBounds(size) {
		v.cursor = next
	}
}
