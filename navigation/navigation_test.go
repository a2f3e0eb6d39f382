package navigation

import (
	"math"
	"reflect"
	"testing"

	"github.com/lixenwraith/vi-traffic/board"
	"github.com/lixenwraith/vi-traffic/vmath"
)

func roads(t *testing.T, size int, cells ...board.Cell) *board.Board {
	t.Helper()
	b := board.New(size)
	for _, c := range cells {
		if !b.PlaceRoad(c) {
			t.Fatalf("PlaceRoad(%v) rejected", c)
		}
	}
	return b
}

// straightBoard is a deadend-to-deadend road along row 2
func straightBoard(t *testing.T) *board.Board {
	return roads(t, 5,
		board.Cell{X: 1, Y: 2}, board.Cell{X: 2, Y: 2}, board.Cell{X: 3, Y: 2},
		board.Cell{X: 4, Y: 2}, board.Cell{X: 5, Y: 2},
	)
}

// plusBoard is a crossroads at (3,3) with four deadend arms
func plusBoard(t *testing.T) *board.Board {
	return roads(t, 5,
		board.Cell{X: 3, Y: 3}, board.Cell{X: 2, Y: 3}, board.Cell{X: 4, Y: 3},
		board.Cell{X: 3, Y: 2}, board.Cell{X: 3, Y: 4},
	)
}

func TestBuild_StraightRoad(t *testing.T) {
	n := Build(straightBoard(t), nil, nil)

	want := []Connection{
		{Position: vmath.V(8, 20), Facing: board.Left, Kind: DeadendEntry},
		{Position: vmath.V(8, 28), Facing: board.Right, Kind: DeadendExit},
		{Position: vmath.V(72, 28), Facing: board.Right, Kind: DeadendEntry},
		{Position: vmath.V(72, 20), Facing: board.Left, Kind: DeadendExit},
	}
	if n.Len() != len(want) {
		t.Fatalf("nodes: got %d, want %d", n.Len(), len(want))
	}
	for i, w := range want {
		got, _ := n.Node(NodeID(i))
		if !vmath.AlmostEqual(got.Position, w.Position, 1e-9) || got.Facing != w.Facing || got.Kind != w.Kind {
			t.Errorf("node %d: got %v %v %v, want %v %v %v", i, got.Position, got.Facing, got.Kind, w.Position, w.Facing, w.Kind)
		}
	}

	wantEdges := []Edge{{0, 1}, {1, 2}, {2, 3}, {3, 0}}
	if got := n.Edges(); !reflect.DeepEqual(got, wantEdges) {
		t.Errorf("edges: got %v, want %v", got, wantEdges)
	}
}

func TestBuild_DeadendPairing(t *testing.T) {
	for name, b := range map[string]*board.Board{"straight": straightBoard(t), "plus": plusBoard(t)} {
		n := Build(b, nil, nil)
		for _, node := range n.Nodes() {
			if node.Kind != DeadendEntry {
				continue
			}
			out := n.Outgoing(node.ID)
			if len(out) != 1 || out[0] != node.ID+1 {
				t.Errorf("%s: entry %d links to %v, want [%d]", name, node.ID, out, node.ID+1)
				continue
			}
			if exit, _ := n.Node(out[0]); exit.Kind != DeadendExit || exit.Cell != node.Cell {
				t.Errorf("%s: entry %d paired with %v in %v", name, node.ID, exit.Kind, exit.Cell)
			}
		}
	}
}

func TestBuild_Deterministic(t *testing.T) {
	b := plusBoard(t)
	lots := []board.Lot{}
	first := Build(b, lots, nil)
	second := Build(b.Clone(), lots, nil)

	if !reflect.DeepEqual(first.Nodes(), second.Nodes()) {
		t.Error("node sets differ between builds")
	}
	if !reflect.DeepEqual(first.Edges(), second.Edges()) {
		t.Error("edge sets differ between builds")
	}
}

func TestBuild_Crossroads(t *testing.T) {
	n := Build(plusBoard(t), nil, nil)

	if n.Len() != 16 {
		t.Fatalf("nodes: got %d, want 16", n.Len())
	}
	if n.EdgeCount() != 24 {
		t.Errorf("edges: got %d, want 24", n.EdgeCount())
	}

	// Southbound lane end at the top of the crossroads
	id, ok := n.NodeAt(vmath.V(36, 32))
	if !ok {
		t.Fatal("no node at the northern approach")
	}
	end, _ := n.Node(id)
	if end.Kind != LaneEnd || end.Facing != board.Down {
		t.Fatalf("northern approach: got %v facing %v", end.Kind, end.Facing)
	}
	if end.Control.Kind != board.Signal || end.Control.Approach != board.Up || end.Control.Cell != (board.Cell{X: 3, Y: 3}) {
		t.Errorf("northern approach control: %+v", end.Control)
	}

	var exits []vmath.Vec2
	for _, to := range n.Outgoing(id) {
		node, _ := n.Node(to)
		if node.Kind != LaneStart {
			t.Errorf("in-cell target %d is %v", to, node.Kind)
		}
		exits = append(exits, node.Position)
	}
	want := []vmath.Vec2{vmath.V(48, 44), vmath.V(36, 48), vmath.V(32, 36)}
	if len(exits) != len(want) {
		t.Fatalf("exits: got %v, want %v (no U-turn)", exits, want)
	}
	for _, w := range want {
		found := false
		for _, e := range exits {
			found = found || vmath.AlmostEqual(e, w, 1e-9)
		}
		if !found {
			t.Errorf("missing exit at %v in %v", w, exits)
		}
	}

	if len(n.Lights()) != 4 {
		t.Errorf("lights: got %d, want 4", len(n.Lights()))
	}
}

func TestBuild_LightAssignerReuse(t *testing.T) {
	calls := map[board.Direction]int{}
	assign := func(cell board.Cell, approach board.Direction) LightID {
		calls[approach]++
		return LightID(100 + int(approach))
	}
	n := Build(plusBoard(t), nil, assign)

	for _, ref := range n.Lights() {
		if ref.ID != LightID(100+int(ref.Approach)) {
			t.Errorf("light for %v: got id %d", ref.Approach, ref.ID)
		}
		node, _ := n.Node(ref.Node)
		if node.Control.LightID != ref.ID {
			t.Errorf("node %d carries light %d, want %d", node.ID, node.Control.LightID, ref.ID)
		}
	}
	for _, d := range board.Directions {
		if calls[d] != 1 {
			t.Errorf("approach %v assigned %d times", d, calls[d])
		}
	}
}

func TestBuild_YieldOnTStem(t *testing.T) {
	b := roads(t, 5,
		board.Cell{X: 1, Y: 3}, board.Cell{X: 2, Y: 3}, board.Cell{X: 3, Y: 3},
		board.Cell{X: 2, Y: 4}, board.Cell{X: 2, Y: 5},
	)
	n := Build(b, nil, nil)

	var governed []Node
	for _, node := range n.Nodes() {
		if node.Control.Governed() {
			governed = append(governed, node)
		}
	}
	if len(governed) != 1 {
		t.Fatalf("governed nodes: got %d, want 1", len(governed))
	}
	g := governed[0]
	if g.Control.Kind != board.Yield || g.Control.Approach != board.Down || g.Facing != board.Up {
		t.Errorf("yield node: %+v", g)
	}
	if len(n.Lights()) != 0 {
		t.Errorf("T junction created %d lights", len(n.Lights()))
	}
}

func TestBuild_LotEntry(t *testing.T) {
	house, _ := board.LotKindByName("house")
	lot := board.Lot{ID: 7, Kind: house, Anchor: board.Anchor{Cell: board.Cell{X: 3, Y: 2}, Direction: board.Up}}
	n := Build(straightBoard(t), []board.Lot{lot}, nil)

	id, ok := n.LotEntry(7)
	if !ok || id != 4 {
		t.Fatalf("lot entry: got %d, %v", id, ok)
	}
	node, _ := n.Node(id)
	if !vmath.AlmostEqual(node.Position, vmath.V(40, 20), 1e-9) || node.Facing != board.Left || node.LotID != 7 {
		t.Errorf("lot entry node: %+v", node)
	}

	want := []Edge{{0, 1}, {1, 2}, {2, 3}, {3, 4}, {4, 0}}
	if got := n.Edges(); !reflect.DeepEqual(got, want) {
		t.Errorf("edges: got %v, want %v", got, want)
	}
}

func TestBuild_OneWayBlocksLane(t *testing.T) {
	b := straightBoard(t)
	b.ToggleTrafficDirection(board.Cell{X: 3, Y: 2}) // one-way right
	n := Build(b, nil, nil)

	if out := n.Outgoing(3); len(out) != 0 {
		t.Errorf("westbound lane against one-way flow linked to %v", out)
	}
	if out := n.Outgoing(1); len(out) != 1 || out[0] != 2 {
		t.Errorf("eastbound lane: got %v", out)
	}
}

func TestBuild_SkipsDanglingLaneStarts(t *testing.T) {
	dangling := 0
	for toggles := 1; toggles <= 2; toggles++ {
		b := roads(t, 5,
			board.Cell{X: 3, Y: 3}, board.Cell{X: 2, Y: 3}, board.Cell{X: 4, Y: 3},
			board.Cell{X: 5, Y: 3}, board.Cell{X: 3, Y: 2}, board.Cell{X: 3, Y: 4},
		)
		for range toggles {
			if !b.ToggleTrafficDirection(board.Cell{X: 4, Y: 3}) {
				t.Fatal("toggle rejected")
			}
		}
		n := Build(b, nil, nil)

		dead := map[NodeID]bool{}
		for _, node := range n.Nodes() {
			if node.Kind == LaneStart && len(n.Outgoing(node.ID)) == 0 {
				dead[node.ID] = true
			}
		}
		dangling += len(dead)
		for _, e := range n.Edges() {
			if dead[e.To] {
				t.Errorf("toggles %d: edge %v leads into a lane with no way on", toggles, e)
			}
		}
	}
	if dangling == 0 {
		t.Error("one-way arm left no dangling lane start")
	}
}

func TestBuild_TerrainGap(t *testing.T) {
	b := roads(t, 6,
		board.Cell{X: 1, Y: 1}, board.Cell{X: 2, Y: 1},
		board.Cell{X: 4, Y: 1}, board.Cell{X: 5, Y: 1},
	)
	n := Build(b, nil, nil)
	for _, e := range n.Edges() {
		from, _ := n.Node(e.From)
		to, _ := n.Node(e.To)
		if (from.Position.X < 48) != (to.Position.X < 48) {
			t.Errorf("edge %v crosses the terrain gap", e)
		}
	}
}

// bellmanFord returns the cheapest path cost or false
func bellmanFord(n *RoadNetwork, start, goal NodeID, cost CostFunc) (int64, bool) {
	dist := make([]int64, n.Len())
	for i := range dist {
		dist[i] = math.MaxInt64
	}
	dist[start] = 0
	for i := 0; i < n.Len(); i++ {
		for _, e := range n.Edges() {
			if dist[e.From] == math.MaxInt64 {
				continue
			}
			c := dist[e.From] + cost(n.nodes[e.From], n.nodes[e.To])
			if c < dist[e.To] {
				dist[e.To] = c
			}
		}
	}
	return dist[goal], dist[goal] != math.MaxInt64
}

func TestFindPath_MinimalAndContiguous(t *testing.T) {
	n := Build(plusBoard(t), nil, nil)

	for start := 0; start < n.Len(); start++ {
		for goal := 0; goal < n.Len(); goal++ {
			s, g := NodeID(start), NodeID(goal)
			head, path, ok := FindPath(n, s, g)
			best, reachable := bellmanFord(n, s, g, DistanceCost)
			if ok != reachable {
				t.Fatalf("%d->%d: ok=%v, reachable=%v", s, g, ok, reachable)
			}
			if !ok {
				continue
			}
			if head != s {
				t.Errorf("%d->%d: head %d", s, g, head)
			}
			if s != g && path[len(path)-1] != g {
				t.Errorf("%d->%d: path does not end at goal: %v", s, g, path)
			}

			prev := s
			for _, id := range path {
				found := false
				for _, o := range n.Outgoing(prev) {
					found = found || o == id
				}
				if !found {
					t.Fatalf("%d->%d: %d->%d is not an edge", s, g, prev, id)
				}
				prev = id
			}
			if got := PathCost(n, s, path, DistanceCost); got != best {
				t.Errorf("%d->%d: cost %d, optimum %d", s, g, got, best)
			}
		}
	}
}

func TestFindPathWith_OtherCosts(t *testing.T) {
	n := Build(plusBoard(t), nil, nil)
	tests := []struct {
		name string
		cost CostFunc
	}{
		{"uniform", UniformCost},
		{"inverse distance", InverseDistanceCost},
	}
	for _, tt := range tests {
		for start := 0; start < n.Len(); start++ {
			for goal := 0; goal < n.Len(); goal++ {
				s, g := NodeID(start), NodeID(goal)
				_, path, ok := FindPathWith(n, s, g, tt.cost, nil)
				best, reachable := bellmanFord(n, s, g, tt.cost)
				if ok != reachable {
					t.Fatalf("%s %d->%d: ok=%v, reachable=%v", tt.name, s, g, ok, reachable)
				}
				if ok && PathCost(n, s, path, tt.cost) != best {
					t.Errorf("%s %d->%d: cost %d, optimum %d", tt.name, s, g, PathCost(n, s, path, tt.cost), best)
				}
			}
		}
	}
}

func TestFindPath_Unreachable(t *testing.T) {
	b := roads(t, 6,
		board.Cell{X: 1, Y: 1}, board.Cell{X: 2, Y: 1}, board.Cell{X: 3, Y: 1},
		board.Cell{X: 1, Y: 4}, board.Cell{X: 2, Y: 4}, board.Cell{X: 3, Y: 4},
	)
	n := Build(b, nil, nil)

	// Node 0 is on row 1, the last node on row 4; both rows are cycles
	last := NodeID(n.Len() - 1)
	for _, cost := range []CostFunc{DistanceCost, UniformCost, InverseDistanceCost} {
		if _, path, ok := FindPathWith(n, 0, last, cost, nil); ok {
			t.Errorf("found path across disconnected roads: %v", path)
		}
	}
	if _, _, ok := FindPath(n, 0, 99); ok {
		t.Error("unknown goal accepted")
	}
	if _, path, ok := FindPath(n, 0, 0); !ok || len(path) != 0 {
		t.Errorf("start == goal: got %v, %v", path, ok)
	}
}

func TestRandomNextNode(t *testing.T) {
	n := Build(plusBoard(t), nil, nil)
	id, _ := n.NodeAt(vmath.V(36, 32))

	seen := map[NodeID]bool{}
	seed := vmath.NewSeed(42)
	for i := 0; i < 64; i++ {
		var next NodeID
		var ok bool
		prev := seed
		next, seed, ok = RandomNextNode(n, id, seed)
		if !ok {
			t.Fatal("no next node from a lane end")
		}
		again, _, _ := RandomNextNode(n, id, prev)
		if again != next {
			t.Fatal("same seed gave different choices")
		}
		seen[next] = true
	}
	if len(seen) != 3 {
		t.Errorf("expected all 3 exits to be chosen, got %v", seen)
	}

	empty := Build(board.New(3), nil, nil)
	if _, _, ok := RandomNextNode(empty, 0, seed); ok {
		t.Error("empty network produced a next node")
	}
}
