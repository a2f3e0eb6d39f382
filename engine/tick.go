package engine

import (
	"log"
	"time"

	"github.com/lixenwraith/vi-traffic/board"
	"github.com/lixenwraith/vi-traffic/navigation"
	"github.com/lixenwraith/vi-traffic/parameter"
	"github.com/lixenwraith/vi-traffic/traffic"
	"github.com/lixenwraith/vi-traffic/vmath"
)

// carVariants is the number of visual car kinds the viewer knows
const carVariants = 4

// lotAttempts bounds random lot placement per environment tick
const lotAttempts = 16

// spawn is a queued car; it either moves into a lot or appears on a lane node
type spawn struct {
	atLot    bool
	lot      board.LotID
	position vmath.Vec2
}

// TrafficTick advances every car by dt, clamped to the configured maximum
func (w *World) TrafficTick(dt time.Duration) {
	if w.paused {
		return
	}
	w.delta = min(dt, w.cfg.Tick.MaxTrafficDelta)
	w.elapsed += w.delta

	w.dequeueSpawn()

	// Each car sees the already updated state of the cars before it
	for i := range w.cars {
		w.cars[i], w.seed = traffic.Play(w, w.cars[i], w.cars, w.seed)
	}

	w.stats.trafficTicks.Add(1)
	w.stats.publishCars(w.cars, len(w.pending))
	w.stats.simTime.Store(w.elapsed.Seconds())
}

// EnvironmentTick advances lights and the population of lots and cars
func (w *World) EnvironmentTick(dt time.Duration) {
	if w.paused {
		return
	}
	for id, l := range w.lights {
		next, changed := l.Update(dt)
		w.lights[id] = next
		if changed {
			log.Printf("light %d at %v is now %v", id, next.Cell, next.Color())
		}
	}

	w.removeConfused()

	var roll bool
	if roll, w.seed = w.seed.Chance(w.cfg.Spawn.LotChance); roll {
		w.spawnLot()
	}
	if roll, w.seed = w.seed.Chance(w.cfg.Spawn.CarChance); roll {
		w.enqueueCar()
	}

	w.stats.envTicks.Add(1)
	w.stats.publishCars(w.cars, len(w.pending))
}

func (w *World) removeConfused() {
	kept := w.cars[:0]
	for _, c := range w.cars {
		if c.Status == traffic.Confused {
			if c.Stuck >= parameter.GridlockTimeout {
				log.Printf("car %d stuck for %v at %v, removed", c.ID, c.Stuck, c.Position)
			} else {
				log.Printf("car %d confused at %v, removed", c.ID, c.Position)
			}
			w.stats.carsRemoved.Add(1)
			continue
		}
		kept = append(kept, c)
	}
	w.cars = kept
}

// spawnLot tries a few random anchors for a random lot kind
func (w *World) spawnLot() {
	cells := w.board.Cells()
	if len(cells) == 0 {
		return
	}
	for range lotAttempts {
		var (
			cell board.Cell
			kind board.LotKind
			d    int
		)
		cell, w.seed, _ = vmath.Choose(w.seed, cells)
		kind, w.seed, _ = vmath.Choose(w.seed, board.LotKinds)
		d, w.seed = w.seed.Intn(4)

		lot := board.Lot{ID: w.nextLot, Kind: kind, Anchor: board.Anchor{Cell: cell, Direction: board.Direction(d)}}
		if !lot.Valid(w.board, w.lots) {
			continue
		}
		w.AddLot(kind, lot.Anchor)
		return
	}
}

// enqueueCar prefers an empty lot, then a random lane node
func (w *World) enqueueCar() {
	if len(w.cars)+len(w.pending) >= w.cfg.Spawn.MaxCars || len(w.pending) >= w.cfg.Spawn.MaxPending {
		return
	}

	homes := make(map[board.LotID]bool, len(w.cars))
	for _, c := range w.cars {
		if c.HasHome {
			homes[c.HomeLot] = true
		}
	}
	for _, p := range w.pending {
		if p.atLot {
			homes[p.lot] = true
		}
	}
	for _, l := range w.lots {
		if !homes[l.ID] {
			w.pending = append(w.pending, spawn{atLot: true, lot: l.ID})
			return
		}
	}

	var candidates []vmath.Vec2
	for _, n := range w.network.Nodes() {
		if len(w.network.Outgoing(n.ID)) > 0 {
			candidates = append(candidates, n.Position)
		}
	}
	var (
		p  vmath.Vec2
		ok bool
	)
	if p, w.seed, ok = vmath.Choose(w.seed, candidates); ok {
		w.pending = append(w.pending, spawn{position: p})
	}
}

// dequeueSpawn places the first queued car whose position is clear
func (w *World) dequeueSpawn() {
	for i, s := range w.pending {
		var variant int
		if s.atLot {
			lot, ok := w.Lot(s.lot)
			if !ok {
				continue
			}
			variant, w.seed = w.seed.Intn(carVariants)
			w.addCar(traffic.NewParkedCar(w.nextCar, lot, w.lifecycle, variant))
		} else {
			id, ok := w.network.NodeAt(s.position)
			if !ok {
				continue
			}
			n, _ := w.network.Node(id)
			if !w.clear(n) {
				continue
			}
			variant, w.seed = w.seed.Intn(carVariants)
			w.addCar(traffic.NewRoamingCar(w.nextCar, n, variant))
		}
		w.pending = append(w.pending[:i], w.pending[i+1:]...)
		return
	}
}

func (w *World) addCar(c traffic.Car) {
	w.nextCar++
	w.cars = append(w.cars, c)
	log.Printf("car %d spawned at %v", c.ID, c.Position)
}

// clear reports whether a car can appear on n: no active car within the spawn clearance,
// and none that could not stop comfortably before reaching it
func (w *World) clear(n navigation.Node) bool {
	spot := vmath.OrientedRect(n.Position, n.Facing.Angle(), parameter.CarLength, parameter.CarWidth)
	for _, c := range w.cars {
		if !c.Active() {
			continue
		}
		if c.Position.Distance(n.Position) < parameter.SpawnClearance || c.Endangers(spot) {
			return false
		}
	}
	return true
}

// pruneSpawns drops queued spawns whose lot or node no longer exists
func (w *World) pruneSpawns() {
	kept := w.pending[:0]
	for _, s := range w.pending {
		if s.atLot {
			if _, ok := w.Lot(s.lot); !ok {
				continue
			}
		} else if _, ok := w.network.NodeAt(s.position); !ok {
			continue
		}
		kept = append(kept, s)
	}
	w.pending = kept
}

// Step runs a single traffic tick of the configured interval, even while paused
func (w *World) Step() {
	paused := w.paused
	w.paused = false
	w.TrafficTick(w.cfg.Tick.Traffic)
	w.paused = paused
}
