package fsm

import (
	"fmt"
	"time"
)

// StateID indexes a state in its graph arena
type StateID int

// StateNone marks an uninitialized machine
const StateNone StateID = -1

// TriggerKind selects how a transition fires
type TriggerKind uint8

const (
	// TriggerTimer fires once its countdown reaches zero
	TriggerTimer TriggerKind = iota
	// TriggerCondition fires when its predicate holds for the update context
	TriggerCondition
	// TriggerDirect fires only through Machine.TransitionTo
	TriggerDirect
)

func (k TriggerKind) String() string {
	switch k {
	case TriggerTimer:
		return "timer"
	case TriggerCondition:
		return "condition"
	case TriggerDirect:
		return "direct"
	}
	return fmt.Sprintf("TriggerKind(%d)", k)
}

// Trigger describes when a transition fires
// C is the update context handed to condition predicates
type Trigger[C any] struct {
	Kind      TriggerKind
	Duration  time.Duration
	Condition func(ctx C) bool
}

// Timer fires after d of accumulated update time in the source state
func Timer[C any](d time.Duration) Trigger[C] {
	return Trigger[C]{Kind: TriggerTimer, Duration: d}
}

// Condition fires on the first update where pred returns true
func Condition[C any](pred func(ctx C) bool) Trigger[C] {
	return Trigger[C]{Kind: TriggerCondition, Condition: pred}
}

// Direct fires only on explicit request
func Direct[C any]() Trigger[C] {
	return Trigger[C]{Kind: TriggerDirect}
}

// Transition links a source state to Target
// Targets are ids into the arena, so cyclic graphs need no forward references
type Transition[C, A any] struct {
	Target  StateID
	Trigger Trigger[C]
	Actions []A
}

// State is one node of the graph
// K is the payload describing what the state means to its owner (light color, car status)
// A is the action type emitted on entry, exit and transition
type State[K, C, A any] struct {
	ID          StateID
	Name        string
	Kind        K
	Transitions []Transition[C, A]
	OnEnter     []A
	OnExit      []A
}

// TransitionError reports a direct transition that does not exist from the current state
type TransitionError struct {
	From, To         StateID
	FromName, ToName string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("fsm: no direct transition from %q (%d) to %q (%d)", e.FromName, e.From, e.ToName, e.To)
}
