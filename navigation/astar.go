package navigation

import (
	"math"

	"github.com/lixenwraith/vi-traffic/vmath"
)

// CostFunc prices one lane
type CostFunc func(from, to Node) int64

// DistanceCost is the lane length in whole centimeters, rounded up
// Paired with the truncated centimeter heuristic it keeps A* optimal
func DistanceCost(from, to Node) int64 {
	return int64(math.Ceil(centimeters(from.Position, to.Position)))
}

// UniformCost charges one per lane
func UniformCost(from, to Node) int64 {
	return 1
}

// InverseDistanceCost favors long lanes: floor(10000 / meters)
func InverseDistanceCost(from, to Node) int64 {
	d := from.Position.Distance(to.Position)
	if d <= 0 {
		return 0
	}
	return int64(math.Floor(10000 / d))
}

func centimeters(a, b vmath.Vec2) float64 {
	return a.Distance(b) * 100
}

// Heuristic estimates the remaining cost to goal
// It must never exceed the true cost under the CostFunc it is paired with
type Heuristic func(from, goal Node) int64

// DistanceHeuristic is the straight-line distance in truncated centimeters, admissible for DistanceCost only
func DistanceHeuristic(from, goal Node) int64 {
	return int64(math.Floor(centimeters(from.Position, goal.Position)))
}

// NoHeuristic turns A* into Dijkstra, safe for any non-negative cost
func NoHeuristic(from, goal Node) int64 {
	return 0
}

// FindPath runs A* with DistanceCost
// Returns start and the path excluding start, including goal; ok is false when
// either id is unknown or goal cannot be reached
func FindPath(n *RoadNetwork, start, goal NodeID) (NodeID, []NodeID, bool) {
	return FindPathWith(n, start, goal, DistanceCost, DistanceHeuristic)
}

// FindPathWith runs A* with the given lane cost and heuristic; a nil heuristic means NoHeuristic
// Only a strictly cheaper path replaces a recorded one; equal priorities pop in push order
func FindPathWith(n *RoadNetwork, start, goal NodeID, cost CostFunc, heuristic Heuristic) (NodeID, []NodeID, bool) {
	if heuristic == nil {
		heuristic = NoHeuristic
	}
	startNode, ok := n.Node(start)
	if !ok {
		return start, nil, false
	}
	goalNode, ok := n.Node(goal)
	if !ok {
		return start, nil, false
	}
	if start == goal {
		return start, []NodeID{}, true
	}

	cameFrom := map[NodeID]NodeID{start: start}
	costSoFar := map[NodeID]int64{start: 0}

	var frontier minHeap
	seq := 0
	frontier.push(heapEntry{node: start, priority: heuristic(startNode, goalNode), seq: seq})

	for len(frontier) > 0 {
		e := frontier.pop()
		if e.cost > costSoFar[e.node] {
			continue
		}
		if e.node == goal {
			return start, reconstruct(cameFrom, start, goal), true
		}

		current := n.nodes[e.node]
		for _, next := range n.Outgoing(e.node) {
			nextNode := n.nodes[next]
			newCost := costSoFar[e.node] + cost(current, nextNode)
			if old, seen := costSoFar[next]; seen && newCost >= old {
				continue
			}
			costSoFar[next] = newCost
			cameFrom[next] = e.node
			seq++
			frontier.push(heapEntry{
				node:     next,
				priority: newCost + heuristic(nextNode, goalNode),
				cost:     newCost,
				seq:      seq,
			})
		}
	}
	return start, nil, false
}

func reconstruct(cameFrom map[NodeID]NodeID, start, goal NodeID) []NodeID {
	var path []NodeID
	for at := goal; at != start; at = cameFrom[at] {
		path = append(path, at)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// PathCost sums the lane costs along a path starting at start
func PathCost(n *RoadNetwork, start NodeID, path []NodeID, cost CostFunc) int64 {
	total := int64(0)
	prev := start
	for _, id := range path {
		total += cost(n.nodes[prev], n.nodes[id])
		prev = id
	}
	return total
}
