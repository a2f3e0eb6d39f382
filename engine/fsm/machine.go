package fsm

import (
	"fmt"
	"time"
)

// Machine is the runtime position inside a Graph
// Machines are values: Update and TransitionTo return a new machine and leave the receiver untouched
type Machine[K, C, A any] struct {
	graph       *Graph[K, C, A]
	current     StateID
	timers      []time.Duration // remaining countdown per transition of the current state, timer triggers only
	timeInState time.Duration
}

// Initialize enters the initial state and returns its entry actions
func Initialize[K, C, A any](g *Graph[K, C, A], initial StateID) (Machine[K, C, A], []A, error) {
	s, ok := g.State(initial)
	if !ok {
		return Machine[K, C, A]{current: StateNone}, nil, fmt.Errorf("fsm: initial state %d not found", initial)
	}
	m := Machine[K, C, A]{
		graph:   g,
		current: initial,
		timers:  freshTimers(s),
	}
	return m, append([]A(nil), s.OnEnter...), nil
}

// Update advances every timer trigger by dt and evaluates every condition trigger of the current state
// The first triggered transition in insertion order fires. Time a timer overshot carries into the
// next state, so a long dt may chain through several timer states
// Emitted actions are ordered exit(old) ++ transition ++ entry(new), per hop
func (m Machine[K, C, A]) Update(dt time.Duration, ctx C) (Machine[K, C, A], []A) {
	next, actions, fired := m.step(dt, ctx)
	for hops := 1; fired && hops < len(m.graph.states); hops++ {
		if rem, ok := next.TimerRemaining(); !ok || rem > 0 {
			break
		}
		var more []A
		next, more, fired = next.step(0, ctx)
		actions = append(actions, more...)
	}
	return next, actions
}

func (m Machine[K, C, A]) step(dt time.Duration, ctx C) (Machine[K, C, A], []A, bool) {
	s, ok := m.graph.State(m.current)
	if !ok {
		return m, nil, false
	}

	timers := make([]time.Duration, len(m.timers))
	copy(timers, m.timers)

	fired := -1
	for i, tr := range s.Transitions {
		triggered := false
		switch tr.Trigger.Kind {
		case TriggerTimer:
			timers[i] -= dt
			triggered = timers[i] <= 0
		case TriggerCondition:
			triggered = tr.Trigger.Condition != nil && tr.Trigger.Condition(ctx)
		}
		if triggered && fired < 0 {
			fired = i
		}
	}

	if fired < 0 {
		m.timers = timers
		m.timeInState += dt
		return m, nil, false
	}
	var overshoot time.Duration
	if s.Transitions[fired].Trigger.Kind == TriggerTimer {
		overshoot = -timers[fired]
	}
	next, actions := m.enter(s, s.Transitions[fired], overshoot)
	return next, actions, true
}

// TransitionTo performs a Direct transition to target
// Asking for a transition the graph does not define is a programming error reported as *TransitionError
func (m Machine[K, C, A]) TransitionTo(target StateID) (Machine[K, C, A], []A, error) {
	if s, ok := m.graph.State(m.current); ok {
		for _, tr := range s.Transitions {
			if tr.Trigger.Kind == TriggerDirect && tr.Target == target {
				next, actions := m.enter(s, tr, 0)
				return next, actions, nil
			}
		}
	}
	err := &TransitionError{From: m.current, To: target}
	if m.graph != nil {
		err.FromName = m.graph.name(m.current)
		err.ToName = m.graph.name(target)
	}
	return m, nil, err
}

func (m Machine[K, C, A]) enter(from State[K, C, A], tr Transition[C, A], overshoot time.Duration) (Machine[K, C, A], []A) {
	to := m.graph.states[tr.Target]

	actions := make([]A, 0, len(from.OnExit)+len(tr.Actions)+len(to.OnEnter))
	actions = append(actions, from.OnExit...)
	actions = append(actions, tr.Actions...)
	actions = append(actions, to.OnEnter...)

	timers := freshTimers(to)
	for i, out := range to.Transitions {
		if out.Trigger.Kind == TriggerTimer {
			timers[i] -= overshoot
		}
	}
	return Machine[K, C, A]{
		graph:       m.graph,
		current:     tr.Target,
		timers:      timers,
		timeInState: overshoot,
	}, actions
}

// Current returns the active state id
func (m Machine[K, C, A]) Current() StateID {
	return m.current
}

// State returns the active state
func (m Machine[K, C, A]) State() State[K, C, A] {
	s, _ := m.graph.State(m.current)
	return s
}

// Kind returns the payload of the active state
func (m Machine[K, C, A]) Kind() K {
	return m.State().Kind
}

// Name returns the active state name
func (m Machine[K, C, A]) Name() string {
	return m.State().Name
}

// TimeInState returns time accumulated since the last state change
func (m Machine[K, C, A]) TimeInState() time.Duration {
	return m.timeInState
}

// TimerRemaining returns the smallest countdown among the active state's timer triggers
func (m Machine[K, C, A]) TimerRemaining() (time.Duration, bool) {
	s, ok := m.graph.State(m.current)
	if !ok {
		return 0, false
	}
	found := false
	var least time.Duration
	for i, tr := range s.Transitions {
		if tr.Trigger.Kind != TriggerTimer {
			continue
		}
		if !found || m.timers[i] < least {
			least = m.timers[i]
			found = true
		}
	}
	return least, found
}

// Initialized reports whether the machine points into a graph
func (m Machine[K, C, A]) Initialized() bool {
	return m.graph != nil && m.current != StateNone
}

func freshTimers[K, C, A any](s State[K, C, A]) []time.Duration {
	timers := make([]time.Duration, len(s.Transitions))
	for i, tr := range s.Transitions {
		if tr.Trigger.Kind == TriggerTimer {
			timers[i] = tr.Trigger.Duration
		}
	}
	return timers
}
