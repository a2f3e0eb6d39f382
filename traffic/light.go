package traffic

import (
	_ "embed"
	"fmt"
	"time"

	"github.com/lixenwraith/vi-traffic/board"
	"github.com/lixenwraith/vi-traffic/engine/fsm"
	"github.com/lixenwraith/vi-traffic/navigation"
	"github.com/lixenwraith/vi-traffic/vmath"
)

//go:embed light.toml
var lightCycleConfig []byte

// LightColor is the state of a traffic light
type LightColor uint8

const (
	Green LightColor = iota
	Yellow
	Red
)

func (c LightColor) String() string {
	switch c {
	case Green:
		return "green"
	case Yellow:
		return "yellow"
	case Red:
		return "red"
	}
	return fmt.Sprintf("LightColor(%d)", c)
}

type lightMachine = fsm.Machine[LightColor, struct{}, LightColor]

// LightCycle is the shared Green -> Yellow -> Red graph
// Red lasts green+yellow so the cross approaches get a full green and yellow
type LightCycle struct {
	graph *fsm.Graph[LightColor, struct{}, LightColor]
	green fsm.StateID
	red   fsm.StateID
}

// NewLightCycle loads the embedded cycle with the given dwell times
func NewLightCycle(green, yellow time.Duration) (*LightCycle, error) {
	colors := map[string]LightColor{"green": Green, "yellow": Yellow, "red": Red}
	g, initial, err := fsm.LoadGraph(lightCycleConfig, fsm.Registry[LightColor, struct{}, LightColor]{
		Kinds:   colors,
		Actions: colors,
		Durations: map[string]time.Duration{
			"green":  green,
			"yellow": yellow,
			"red":    green + yellow,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("traffic light cycle: %w", err)
	}
	red, ok := g.Lookup("red")
	if !ok {
		return nil, fmt.Errorf("traffic light cycle: no red state")
	}
	return &LightCycle{graph: g, green: initial, red: red}, nil
}

// TrafficLight governs one approach of a signal crossroads
type TrafficLight struct {
	ID       navigation.LightID
	Cell     board.Cell
	Approach board.Direction
	Position vmath.Vec2
	Facing   board.Direction

	machine lightMachine
}

// NewLight starts vertical approaches in green and horizontal ones in red
func (lc *LightCycle) NewLight(ref navigation.LightRef) TrafficLight {
	initial := lc.green
	if ref.Approach.Orientation() == board.Horizontal {
		initial = lc.red
	}
	m, _, err := fsm.Initialize(lc.graph, initial)
	if err != nil {
		panic(err)
	}
	return TrafficLight{
		ID:       ref.ID,
		Cell:     ref.Cell,
		Approach: ref.Approach,
		Position: ref.Position,
		Facing:   ref.Facing,
		machine:  m,
	}
}

// Update advances the light by dt and reports whether it changed color
func (l TrafficLight) Update(dt time.Duration) (TrafficLight, bool) {
	m, changed := l.machine.Update(dt, struct{}{})
	l.machine = m
	return l, len(changed) > 0
}

// Color returns the current color
func (l TrafficLight) Color() LightColor {
	return l.machine.Kind()
}

// TimeRemaining returns the time left in the current color
func (l TrafficLight) TimeRemaining() time.Duration {
	d, _ := l.machine.TimerRemaining()
	return d
}

// Relocate updates the placement after a network rebuild, keeping the cycle position
func (l TrafficLight) Relocate(ref navigation.LightRef) TrafficLight {
	l.Position = ref.Position
	l.Facing = ref.Facing
	return l
}
