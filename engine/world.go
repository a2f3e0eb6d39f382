// Package engine owns the simulation: board, lots, road network, lights and cars
// A World is driven by one goroutine; the Scheduler serializes edits with ticks
package engine

import (
	"fmt"
	"log"
	"slices"
	"time"

	"github.com/lixenwraith/vi-traffic/board"
	"github.com/lixenwraith/vi-traffic/config"
	"github.com/lixenwraith/vi-traffic/navigation"
	"github.com/lixenwraith/vi-traffic/status"
	"github.com/lixenwraith/vi-traffic/traffic"
	"github.com/lixenwraith/vi-traffic/vmath"
)

type lightKey struct {
	cell     board.Cell
	approach board.Direction
}

// World is the aggregate root of one simulation
type World struct {
	cfg config.Config

	board   *board.Board
	lots    []board.Lot // ascending id
	nextLot board.LotID

	network   *navigation.RoadNetwork
	cycle     *traffic.LightCycle
	lights    map[navigation.LightID]traffic.TrafficLight
	lightKeys map[lightKey]navigation.LightID
	nextLight navigation.LightID

	lifecycle *traffic.LifecycleGraph
	cars      []traffic.Car // ascending id, the traffic tick order
	nextCar   traffic.CarID
	pending   []spawn

	seed    vmath.Seed
	delta   time.Duration
	elapsed time.Duration
	paused  bool

	stats *metrics
}

// NewWorld creates an empty board of the configured size
func NewWorld(cfg config.Config) (*World, error) {
	return Restore(cfg, board.New(cfg.Board.Size), nil, cfg.Board.Seed)
}

// Restore builds a world around an existing board and lots
// Lots that are invalid on the board are an error, not silently dropped
func Restore(cfg config.Config, b *board.Board, lots []board.Lot, seed uint64) (*World, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if b.Size() != cfg.Board.Size {
		return nil, fmt.Errorf("engine: board size %d does not match configured size %d", b.Size(), cfg.Board.Size)
	}
	cycle, err := traffic.NewLightCycle(cfg.Lights.Green, cfg.Lights.Yellow)
	if err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}

	w := &World{
		cfg:       cfg,
		board:     b,
		cycle:     cycle,
		lights:    make(map[navigation.LightID]traffic.TrafficLight),
		lightKeys: make(map[lightKey]navigation.LightID),
		lifecycle: traffic.NewLifecycleGraph(cfg.Lifecycle.Park, cfg.Lifecycle.TripDistance),
		seed:      vmath.NewSeed(seed),
		delta:     cfg.Tick.Traffic,
		stats:     newMetrics(status.NewRegistry()),
	}

	b.ApplyMask()
	sorted := slices.Clone(lots)
	slices.SortFunc(sorted, func(a, b board.Lot) int { return int(a.ID) - int(b.ID) })
	for i, l := range sorted {
		if i > 0 && sorted[i-1].ID == l.ID {
			return nil, fmt.Errorf("engine: duplicate lot id %d", l.ID)
		}
		if !l.Valid(b, sorted) {
			return nil, fmt.Errorf("engine: lot %d (%s at %v facing %v) does not fit the board", l.ID, l.Kind.Name, l.Anchor.Cell, l.Anchor.Direction)
		}
		w.nextLot = max(w.nextLot, l.ID+1)
	}
	w.lots = sorted

	w.refresh()
	return w, nil
}

// Config returns the configuration the world runs with
func (w *World) Config() config.Config {
	return w.cfg
}

// Seed returns the current random state
func (w *World) Seed() uint64 {
	return uint64(w.seed)
}

// Status exposes the metric registry, safe for concurrent readers
func (w *World) Status() *status.Registry {
	return w.stats.reg
}

// traffic.Environment

func (w *World) Network() *navigation.RoadNetwork {
	return w.network
}

func (w *World) LightColor(id navigation.LightID) (traffic.LightColor, bool) {
	l, ok := w.lights[id]
	if !ok {
		return traffic.Red, false
	}
	return l.Color(), true
}

func (w *World) Lot(id board.LotID) (board.Lot, bool) {
	i, ok := slices.BinarySearchFunc(w.lots, id, func(l board.Lot, id board.LotID) int { return int(l.ID) - int(id) })
	if !ok {
		return board.Lot{}, false
	}
	return w.lots[i], true
}

func (w *World) Lifecycle() *traffic.LifecycleGraph {
	return w.lifecycle
}

func (w *World) Delta() time.Duration {
	return w.delta
}

// Pause freezes both ticks; edits still apply
func (w *World) Pause() {
	if !w.paused {
		w.paused = true
		log.Printf("simulation paused at %v", w.elapsed)
	}
	w.stats.publishState(w)
}

func (w *World) Resume() {
	if w.paused {
		w.paused = false
		log.Printf("simulation resumed at %v", w.elapsed)
	}
	w.stats.publishState(w)
}

func (w *World) Running() bool {
	return !w.paused
}

// Elapsed is the simulated time
func (w *World) Elapsed() time.Duration {
	return w.elapsed
}
