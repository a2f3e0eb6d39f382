package engine

import (
	"log"
	"slices"

	"github.com/lixenwraith/vi-traffic/board"
	"github.com/lixenwraith/vi-traffic/navigation"
	"github.com/lixenwraith/vi-traffic/traffic"
)

// PlaceRoad paves c; rejected edits leave the world untouched
func (w *World) PlaceRoad(c board.Cell) bool {
	if !w.board.PlaceRoad(c) {
		log.Printf("road at %v rejected", c)
		return false
	}
	w.refresh()
	return true
}

// RemoveRoad returns c to terrain
func (w *World) RemoveRoad(c board.Cell) bool {
	if !w.board.RemoveRoad(c) {
		return false
	}
	w.refresh()
	return true
}

// ToggleIntersectionControl steps the control cycle of an intersection
func (w *World) ToggleIntersectionControl(c board.Cell) bool {
	if !w.board.ToggleIntersectionControl(c) {
		return false
	}
	w.refresh()
	return true
}

// ToggleTrafficDirection steps the one-way cycle of a regular road
func (w *World) ToggleTrafficDirection(c board.Cell) bool {
	if !w.board.ToggleTrafficDirection(c) {
		return false
	}
	w.refresh()
	return true
}

// PlaceRoads paves every cell it can and refreshes once; returns the number placed
func (w *World) PlaceRoads(cells []board.Cell) int {
	placed := 0
	for _, c := range cells {
		if w.board.PlaceRoad(c) {
			placed++
		}
	}
	if placed > 0 {
		w.refresh()
	}
	return placed
}

// AddLot places a lot of the given kind; the id is assigned by the world
func (w *World) AddLot(kind board.LotKind, anchor board.Anchor) (board.LotID, bool) {
	lot := board.Lot{ID: w.nextLot, Kind: kind, Anchor: anchor}
	if !lot.Valid(w.board, w.lots) {
		return 0, false
	}
	w.nextLot++
	w.lots = append(w.lots, lot)
	log.Printf("lot %d: %s at %v facing %v", lot.ID, kind.Name, anchor.Cell, anchor.Direction)
	w.refresh()
	return lot.ID, true
}

// RemoveLot deletes a lot; its parked residents leave with it
func (w *World) RemoveLot(id board.LotID) bool {
	i := slices.IndexFunc(w.lots, func(l board.Lot) bool { return l.ID == id })
	if i < 0 {
		return false
	}
	w.lots = slices.Delete(w.lots, i, i+1)
	w.refresh()
	return true
}

// refresh is the consistency pass after any edit:
// mask, lot pruning, network rebuild, light reuse, car re-targeting
func (w *World) refresh() {
	w.board.ApplyMask()

	kept := w.lots[:0:0]
	for _, l := range w.lots {
		if l.Valid(w.board, w.lots) {
			kept = append(kept, l)
		} else {
			log.Printf("lot %d no longer fits and was removed", l.ID)
		}
	}
	w.lots = kept

	old := w.network
	w.network = navigation.Build(w.board, w.lots, w.assignLight)
	w.syncLights()
	w.retarget(old)
	w.pruneSpawns()

	w.stats.publishLayout(w)
	w.stats.publishCars(w.cars, len(w.pending))
	w.stats.publishState(w)
}

// assignLight reuses the id of a light already governing the approach
func (w *World) assignLight(cell board.Cell, approach board.Direction) navigation.LightID {
	key := lightKey{cell: cell, approach: approach}
	if id, ok := w.lightKeys[key]; ok {
		return id
	}
	id := w.nextLight
	w.nextLight++
	w.lightKeys[key] = id
	return id
}

// syncLights keeps cycle state of surviving lights and drops the rest
func (w *World) syncLights() {
	next := make(map[navigation.LightID]traffic.TrafficLight, len(w.lights))
	keys := make(map[lightKey]navigation.LightID, len(w.lightKeys))
	for _, ref := range w.network.Lights() {
		if l, ok := w.lights[ref.ID]; ok {
			next[ref.ID] = l.Relocate(ref)
		} else {
			next[ref.ID] = w.cycle.NewLight(ref)
		}
		keys[lightKey{cell: ref.Cell, approach: ref.Approach}] = ref.ID
	}
	w.lights = next
	w.lightKeys = keys
}

// remap finds the node at the same position in the rebuilt network
func remap(old, cur *navigation.RoadNetwork, id navigation.NodeID) (navigation.NodeID, bool) {
	if old == nil {
		return 0, false
	}
	n, ok := old.Node(id)
	if !ok {
		return 0, false
	}
	return cur.NodeAt(n.Position)
}

// retarget moves every car's route onto the new node ids
// Cars whose route lost a node are confused; residents of removed lots go away
func (w *World) retarget(old *navigation.RoadNetwork) {
	kept := w.cars[:0]
	for _, c := range w.cars {
		if c.HasHome {
			if _, ok := w.Lot(c.HomeLot); !ok {
				if c.Status == traffic.ParkedAtLot || c.Parking {
					log.Printf("car %d removed with its lot %d", c.ID, c.HomeLot)
					w.stats.carsRemoved.Add(1)
					continue
				}
				c = w.evict(c)
			}
		}

		if c.Status == traffic.Confused {
			kept = append(kept, c)
			continue
		}

		route := make([]navigation.NodeID, 0, len(c.Route))
		lost := false
		for _, id := range c.Route {
			n, ok := remap(old, w.network, id)
			if !ok {
				lost = true
				break
			}
			route = append(route, n)
		}
		if lost {
			log.Printf("car %d lost its route", c.ID)
			c = traffic.Confuse(c)
		} else {
			c.Route = route
			if c.StoppedAt != traffic.NoNode {
				if n, ok := remap(old, w.network, c.StoppedAt); ok {
					c.StoppedAt = n
				} else {
					c.StoppedAt = traffic.NoNode
				}
			}
		}
		kept = append(kept, c)
	}
	w.cars = kept
}

// evict turns a car whose home vanished into a roaming car
func (w *World) evict(c traffic.Car) traffic.Car {
	c.HasHome = false
	if c.Lifecycle.Initialized() && c.Lifecycle.Kind() == traffic.StageHomebound {
		if m, _, err := c.Lifecycle.TransitionTo(w.lifecycle.Driving); err == nil {
			c.Lifecycle = m
		}
	}
	return c
}
