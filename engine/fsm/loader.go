package fsm

import (
	"fmt"
	"time"

	"github.com/lixenwraith/vi-traffic/toml"
)

// GraphConfig is the TOML shape of a graph
// States are an array of tables so declaration order becomes id order
type GraphConfig struct {
	Initial string        `toml:"initial"`
	States  []StateConfig `toml:"states"`
}

// StateConfig declares one state
type StateConfig struct {
	Name        string             `toml:"name"`
	Kind        string             `toml:"kind"`
	OnEnter     []string           `toml:"on_enter"`
	OnExit      []string           `toml:"on_exit"`
	Transitions []TransitionConfig `toml:"transitions"`
}

// TransitionConfig declares one outgoing transition
// Timer triggers take either a literal Duration or a named Timer resolved through the registry
type TransitionConfig struct {
	To        string        `toml:"to"`
	Trigger   string        `toml:"trigger"`
	Duration  time.Duration `toml:"duration"`
	Timer     string        `toml:"timer"`
	Condition string        `toml:"condition"`
	Actions   []string      `toml:"actions"`
}

// Registry resolves the names used in a GraphConfig
type Registry[K, C, A any] struct {
	Kinds      map[string]K
	Conditions map[string]func(ctx C) bool
	Actions    map[string]A
	Durations  map[string]time.Duration
}

// LoadGraph parses data and builds a graph, validating every reference
// Returns the graph and its initial state
func LoadGraph[K, C, A any](data []byte, reg Registry[K, C, A]) (*Graph[K, C, A], StateID, error) {
	var cfg GraphConfig
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, StateNone, fmt.Errorf("fsm: failed to unmarshal graph config: %w", err)
	}
	return BuildGraph(cfg, reg)
}

// BuildGraph builds a graph from an already decoded config
func BuildGraph[K, C, A any](cfg GraphConfig, reg Registry[K, C, A]) (*Graph[K, C, A], StateID, error) {
	if len(cfg.States) == 0 {
		return nil, StateNone, fmt.Errorf("fsm: graph has no states")
	}

	g := NewGraph[K, C, A]()

	// First pass: ids, so transitions may point forward
	for _, sc := range cfg.States {
		if sc.Name == "" {
			return nil, StateNone, fmt.Errorf("fsm: state without name")
		}
		if _, dup := g.Lookup(sc.Name); dup {
			return nil, StateNone, fmt.Errorf("fsm: duplicate state %q", sc.Name)
		}
		kindName := sc.Kind
		if kindName == "" {
			kindName = sc.Name
		}
		kind, ok := reg.Kinds[kindName]
		if !ok {
			return nil, StateNone, fmt.Errorf("fsm: state %q has unknown kind %q", sc.Name, kindName)
		}
		g.AddState(sc.Name, kind)
	}

	// Second pass: actions and transitions
	for _, sc := range cfg.States {
		id := g.MustLookup(sc.Name)

		enter, err := resolveActions(reg, sc.OnEnter)
		if err != nil {
			return nil, StateNone, fmt.Errorf("fsm: state %q on_enter: %w", sc.Name, err)
		}
		exit, err := resolveActions(reg, sc.OnExit)
		if err != nil {
			return nil, StateNone, fmt.Errorf("fsm: state %q on_exit: %w", sc.Name, err)
		}
		g.OnEnter(id, enter...)
		g.OnExit(id, exit...)

		for i, tc := range sc.Transitions {
			target, ok := g.Lookup(tc.To)
			if !ok {
				return nil, StateNone, fmt.Errorf("fsm: state %q transition %d targets unknown state %q", sc.Name, i, tc.To)
			}
			trigger, err := resolveTrigger(reg, tc)
			if err != nil {
				return nil, StateNone, fmt.Errorf("fsm: state %q transition %d: %w", sc.Name, i, err)
			}
			actions, err := resolveActions(reg, tc.Actions)
			if err != nil {
				return nil, StateNone, fmt.Errorf("fsm: state %q transition %d: %w", sc.Name, i, err)
			}
			g.AddTransition(id, target, trigger, actions...)
		}
	}

	initial := StateID(0)
	if cfg.Initial != "" {
		id, ok := g.Lookup(cfg.Initial)
		if !ok {
			return nil, StateNone, fmt.Errorf("fsm: initial state %q not found", cfg.Initial)
		}
		initial = id
	}
	return g, initial, nil
}

func resolveTrigger[K, C, A any](reg Registry[K, C, A], tc TransitionConfig) (Trigger[C], error) {
	switch tc.Trigger {
	case "timer":
		d := tc.Duration
		if tc.Timer != "" {
			named, ok := reg.Durations[tc.Timer]
			if !ok {
				return Trigger[C]{}, fmt.Errorf("unknown timer %q", tc.Timer)
			}
			d = named
		}
		if d <= 0 {
			return Trigger[C]{}, fmt.Errorf("timer duration must be positive, got %v", d)
		}
		return Timer[C](d), nil
	case "condition":
		pred, ok := reg.Conditions[tc.Condition]
		if !ok {
			return Trigger[C]{}, fmt.Errorf("unknown condition %q", tc.Condition)
		}
		return Condition(pred), nil
	case "direct", "":
		return Direct[C](), nil
	}
	return Trigger[C]{}, fmt.Errorf("unknown trigger %q", tc.Trigger)
}

func resolveActions[K, C, A any](reg Registry[K, C, A], names []string) ([]A, error) {
	out := make([]A, 0, len(names))
	for _, name := range names {
		a, ok := reg.Actions[name]
		if !ok {
			return nil, fmt.Errorf("unknown action %q", name)
		}
		out = append(out, a)
	}
	return out, nil
}
