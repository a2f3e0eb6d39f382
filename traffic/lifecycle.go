package traffic

import (
	"fmt"
	"time"

	"github.com/lixenwraith/vi-traffic/engine/fsm"
)

// Stage is the lifecycle position of a car with a home lot
type Stage uint8

const (
	StageParked Stage = iota
	StageDriving
	StageHomebound
)

func (s Stage) String() string {
	switch s {
	case StageParked:
		return "parked"
	case StageDriving:
		return "driving"
	case StageHomebound:
		return "homebound"
	}
	return fmt.Sprintf("Stage(%d)", s)
}

// LifecycleContext feeds the condition triggers
type LifecycleContext struct {
	TripDistance float64
	HasHome      bool
}

// LifecycleAction is emitted on lifecycle transitions
type LifecycleAction uint8

const (
	ActionDepart LifecycleAction = iota
	ActionHeadHome
)

// Lifecycle is the per-car state machine value
type Lifecycle = fsm.Machine[Stage, LifecycleContext, LifecycleAction]

// LifecycleGraph is shared by every car
// Parked -timer-> Driving -trip done-> Homebound; Homebound -direct-> Parked | Driving
type LifecycleGraph struct {
	graph     *fsm.Graph[Stage, LifecycleContext, LifecycleAction]
	Parked    fsm.StateID
	Driving   fsm.StateID
	Homebound fsm.StateID
}

// NewLifecycleGraph builds the lifecycle for a park duration and a trip length before heading home
func NewLifecycleGraph(park time.Duration, tripLimit float64) *LifecycleGraph {
	g := fsm.NewGraph[Stage, LifecycleContext, LifecycleAction]()
	lg := &LifecycleGraph{
		graph:     g,
		Parked:    g.AddState("parked", StageParked),
		Driving:   g.AddState("driving", StageDriving),
		Homebound: g.AddState("homebound", StageHomebound),
	}

	g.OnExit(lg.Parked, ActionDepart)
	g.OnEnter(lg.Homebound, ActionHeadHome)

	g.AddTransition(lg.Parked, lg.Driving, fsm.Timer[LifecycleContext](park))
	g.AddTransition(lg.Driving, lg.Homebound, fsm.Condition(func(ctx LifecycleContext) bool {
		return ctx.HasHome && ctx.TripDistance >= tripLimit
	}))
	g.AddTransition(lg.Homebound, lg.Parked, fsm.Direct[LifecycleContext]())
	g.AddTransition(lg.Homebound, lg.Driving, fsm.Direct[LifecycleContext]())
	return lg
}

// Start returns a machine positioned at stage; entry actions are dropped
func (lg *LifecycleGraph) Start(stage Stage) Lifecycle {
	id := lg.Driving
	switch stage {
	case StageParked:
		id = lg.Parked
	case StageHomebound:
		id = lg.Homebound
	}
	m, _, err := fsm.Initialize(lg.graph, id)
	if err != nil {
		// ids come from this graph
		panic(err)
	}
	return m
}

// stageOf treats cars without a lifecycle as roaming drivers
func stageOf(c Car) Stage {
	if !c.Lifecycle.Initialized() {
		return StageDriving
	}
	return c.Lifecycle.Kind()
}
