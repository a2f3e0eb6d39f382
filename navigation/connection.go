// Package navigation derives the road network graph from the board and routes over it
package navigation

import (
	"fmt"

	"github.com/lixenwraith/vi-traffic/board"
	"github.com/lixenwraith/vi-traffic/vmath"
)

// NodeID indexes a node in its network; ids follow construction order
type NodeID int

// LightID identifies a traffic light owned by the world
type LightID int

// NoLight marks a control without a signal
const NoLight LightID = -1

// ConnectionKind is the role a node plays in the lane graph
type ConnectionKind uint8

const (
	LaneStart ConnectionKind = iota
	LaneEnd
	DeadendEntry
	DeadendExit
	LotEntry
	Stopgap
)

func (k ConnectionKind) String() string {
	switch k {
	case LaneStart:
		return "lane-start"
	case LaneEnd:
		return "lane-end"
	case DeadendEntry:
		return "deadend-entry"
	case DeadendExit:
		return "deadend-exit"
	case LotEntry:
		return "lot-entry"
	case Stopgap:
		return "stopgap"
	}
	return fmt.Sprintf("ConnectionKind(%d)", k)
}

// Control is the regulation a car meets when it reaches a node
// Approach is the side of Cell the car enters from
type Control struct {
	Kind     board.ControlKind
	LightID  LightID
	Cell     board.Cell
	Approach board.Direction
}

// NoControl is the zero regulation
var NoControl = Control{Kind: board.Uncontrolled, LightID: NoLight}

// Governed reports whether the node regulates entry
func (c Control) Governed() bool {
	return c.Kind != board.Uncontrolled
}

// Connection is the payload of a node
type Connection struct {
	Position vmath.Vec2
	Facing   board.Direction
	Cell     board.Cell
	Kind     ConnectionKind
	LotID    board.LotID // valid for LotEntry
	Control  Control
}

// Node is a deduplicated connection with its id
type Node struct {
	ID NodeID
	Connection
}

// Edge is a directed lane between two nodes
type Edge struct {
	From, To NodeID
}

// LightRef places one traffic light: a Signal crossroads approach and its stop node
type LightRef struct {
	ID       LightID
	Cell     board.Cell
	Approach board.Direction
	Node     NodeID
	Position vmath.Vec2
	Facing   board.Direction
}

// LightAssigner returns the light id for a signal approach, reusing ids of lights that already exist
type LightAssigner func(cell board.Cell, approach board.Direction) LightID

// RoadNetwork is an immutable directed graph; it is rebuilt, never patched
type RoadNetwork struct {
	nodes      []Node
	out        [][]NodeID
	index      map[vmath.QuantizedKey]NodeID
	lights     []LightRef
	lotEntries map[board.LotID]NodeID
	edgeCount  int
}

// Len returns the node count
func (n *RoadNetwork) Len() int {
	if n == nil {
		return 0
	}
	return len(n.nodes)
}

// EdgeCount returns the number of lanes
func (n *RoadNetwork) EdgeCount() int {
	if n == nil {
		return 0
	}
	return n.edgeCount
}

// Node returns a node by id
func (n *RoadNetwork) Node(id NodeID) (Node, bool) {
	if n == nil || id < 0 || int(id) >= len(n.nodes) {
		return Node{}, false
	}
	return n.nodes[id], true
}

// Nodes returns all nodes in id order; callers must not modify the slice
func (n *RoadNetwork) Nodes() []Node {
	if n == nil {
		return nil
	}
	return n.nodes
}

// Outgoing returns the targets of id's lanes in ascending id order
func (n *RoadNetwork) Outgoing(id NodeID) []NodeID {
	if n == nil || id < 0 || int(id) >= len(n.out) {
		return nil
	}
	return n.out[id]
}

// Edges returns every lane ordered by source then target
func (n *RoadNetwork) Edges() []Edge {
	if n == nil {
		return nil
	}
	edges := make([]Edge, 0, n.edgeCount)
	for from, targets := range n.out {
		for _, to := range targets {
			edges = append(edges, Edge{From: NodeID(from), To: to})
		}
	}
	return edges
}

// NodeAt finds the node at an exact position
func (n *RoadNetwork) NodeAt(p vmath.Vec2) (NodeID, bool) {
	if n == nil {
		return 0, false
	}
	id, ok := n.index[keyOf(p)]
	return id, ok
}

// Lights returns the signal approaches in creation order
func (n *RoadNetwork) Lights() []LightRef {
	if n == nil {
		return nil
	}
	return n.lights
}

// LotEntry returns the entry node of a lot
func (n *RoadNetwork) LotEntry(id board.LotID) (NodeID, bool) {
	if n == nil {
		return 0, false
	}
	node, ok := n.lotEntries[id]
	return node, ok
}
