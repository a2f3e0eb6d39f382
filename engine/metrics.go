package engine

import (
	"sync/atomic"

	"github.com/lixenwraith/vi-traffic/status"
	"github.com/lixenwraith/vi-traffic/traffic"
)

// metrics caches registry pointers so ticks write without map lookups
type metrics struct {
	reg *status.Registry

	carsTotal    *atomic.Int64
	carsMoving   *atomic.Int64
	carsParked   *atomic.Int64
	carsConfused *atomic.Int64
	carsRemoved  *atomic.Int64
	lotsTotal    *atomic.Int64
	nodes        *atomic.Int64
	edges        *atomic.Int64
	lights       *atomic.Int64
	trafficTicks *atomic.Int64
	envTicks     *atomic.Int64
	pending      *atomic.Int64

	simTime  *status.AtomicFloat
	simState *status.AtomicString
}

func newMetrics(reg *status.Registry) *metrics {
	return &metrics{
		reg:          reg,
		carsTotal:    reg.Ints.Get("cars.total"),
		carsMoving:   reg.Ints.Get("cars.moving"),
		carsParked:   reg.Ints.Get("cars.parked"),
		carsConfused: reg.Ints.Get("cars.confused"),
		carsRemoved:  reg.Ints.Get("cars.removed"),
		lotsTotal:    reg.Ints.Get("lots.total"),
		nodes:        reg.Ints.Get("network.nodes"),
		edges:        reg.Ints.Get("network.edges"),
		lights:       reg.Ints.Get("lights.total"),
		trafficTicks: reg.Ints.Get("ticks.traffic"),
		envTicks:     reg.Ints.Get("ticks.environment"),
		pending:      reg.Ints.Get("spawn.pending"),
		simTime:      reg.Floats.Get("sim.time"),
		simState:     reg.Strings.Get("sim.state"),
	}
}

// publishCars counts cars by what they are doing
func (m *metrics) publishCars(cars []traffic.Car, pending int) {
	var moving, parked, confused int64
	for _, c := range cars {
		switch {
		case c.Status == traffic.ParkedAtLot:
			parked++
		case c.Status == traffic.Confused:
			confused++
		case c.Status == traffic.Moving && !c.Stopped():
			moving++
		}
	}
	m.carsTotal.Store(int64(len(cars)))
	m.carsMoving.Store(moving)
	m.carsParked.Store(parked)
	m.carsConfused.Store(confused)
	m.pending.Store(int64(pending))
}

func (m *metrics) publishLayout(w *World) {
	m.lotsTotal.Store(int64(len(w.lots)))
	m.nodes.Store(int64(w.network.Len()))
	m.edges.Store(int64(w.network.EdgeCount()))
	m.lights.Store(int64(len(w.lights)))
}

func (m *metrics) publishState(w *World) {
	if w.paused {
		m.simState.Store("paused")
	} else {
		m.simState.Store("running")
	}
	m.simTime.Store(w.elapsed.Seconds())
}
