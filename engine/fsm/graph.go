package fsm

import "fmt"

// Graph is the immutable-after-build arena of states shared by all machines using it
type Graph[K, C, A any] struct {
	states []State[K, C, A]
	byName map[string]StateID
}

// NewGraph creates an empty graph
func NewGraph[K, C, A any]() *Graph[K, C, A] {
	return &Graph[K, C, A]{
		byName: make(map[string]StateID),
	}
}

// AddState appends a state and returns its id
// Duplicate names are a construction bug and panic
func (g *Graph[K, C, A]) AddState(name string, kind K) StateID {
	if _, exists := g.byName[name]; exists {
		panic(fmt.Sprintf("fsm: duplicate state %q", name))
	}
	id := StateID(len(g.states))
	g.states = append(g.states, State[K, C, A]{
		ID:   id,
		Name: name,
		Kind: kind,
	})
	g.byName[name] = id
	return id
}

// OnEnter appends entry actions to a state
func (g *Graph[K, C, A]) OnEnter(id StateID, actions ...A) {
	s := g.mustState(id)
	s.OnEnter = append(s.OnEnter, actions...)
}

// OnExit appends exit actions to a state
func (g *Graph[K, C, A]) OnExit(id StateID, actions ...A) {
	s := g.mustState(id)
	s.OnExit = append(s.OnExit, actions...)
}

// AddTransition appends a transition; evaluation order is insertion order
func (g *Graph[K, C, A]) AddTransition(from, to StateID, trigger Trigger[C], actions ...A) {
	s := g.mustState(from)
	g.mustState(to)
	s.Transitions = append(s.Transitions, Transition[C, A]{
		Target:  to,
		Trigger: trigger,
		Actions: actions,
	})
}

// State returns the state for id
func (g *Graph[K, C, A]) State(id StateID) (State[K, C, A], bool) {
	if g == nil || id < 0 || int(id) >= len(g.states) {
		return State[K, C, A]{}, false
	}
	return g.states[id], true
}

// Lookup resolves a state name
func (g *Graph[K, C, A]) Lookup(name string) (StateID, bool) {
	id, ok := g.byName[name]
	return id, ok
}

// MustLookup resolves a state name known at build time
func (g *Graph[K, C, A]) MustLookup(name string) StateID {
	id, ok := g.byName[name]
	if !ok {
		panic(fmt.Sprintf("fsm: unknown state %q", name))
	}
	return id
}

// Len returns the number of states
func (g *Graph[K, C, A]) Len() int {
	return len(g.states)
}

func (g *Graph[K, C, A]) name(id StateID) string {
	if s, ok := g.State(id); ok {
		return s.Name
	}
	return "<none>"
}

func (g *Graph[K, C, A]) mustState(id StateID) *State[K, C, A] {
	if id < 0 || int(id) >= len(g.states) {
		panic(fmt.Sprintf("fsm: unknown state id %d", id))
	}
	return &g.states[id]
}
