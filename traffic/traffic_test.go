package traffic

import (
	"math"
	"testing"
	"time"

	"github.com/lixenwraith/vi-traffic/board"
	"github.com/lixenwraith/vi-traffic/navigation"
	"github.com/lixenwraith/vi-traffic/parameter"
	"github.com/lixenwraith/vi-traffic/vmath"
)

const testDelta = 16 * time.Millisecond

type testEnv struct {
	net    *navigation.RoadNetwork
	lights map[navigation.LightID]LightColor
	lots   map[board.LotID]board.Lot
	lg     *LifecycleGraph
}

func (e *testEnv) Network() *navigation.RoadNetwork { return e.net }
func (e *testEnv) Lifecycle() *LifecycleGraph       { return e.lg }
func (e *testEnv) Delta() time.Duration             { return testDelta }

func (e *testEnv) LightColor(id navigation.LightID) (LightColor, bool) {
	c, ok := e.lights[id]
	return c, ok
}

func (e *testEnv) Lot(id board.LotID) (board.Lot, bool) {
	l, ok := e.lots[id]
	return l, ok
}

func newEnv(t *testing.T, b *board.Board, lots ...board.Lot) *testEnv {
	t.Helper()
	env := &testEnv{
		net:    navigation.Build(b, lots, nil),
		lights: map[navigation.LightID]LightColor{},
		lots:   map[board.LotID]board.Lot{},
	}
	for _, l := range lots {
		env.lots[l.ID] = l
	}
	return env
}

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

func straightBoard(t *testing.T) *board.Board {
	return roads(t, 5,
		board.Cell{X: 1, Y: 2}, board.Cell{X: 2, Y: 2}, board.Cell{X: 3, Y: 2},
		board.Cell{X: 4, Y: 2}, board.Cell{X: 5, Y: 2},
	)
}

func nodeAt(t *testing.T, env *testEnv, x, y float64) navigation.Node {
	t.Helper()
	id, ok := env.net.NodeAt(vmath.V(x, y))
	if !ok {
		t.Fatalf("no node at (%v, %v)", x, y)
	}
	n, _ := env.net.Node(id)
	return n
}

// heading builds a car already on a leg toward target
func heading(id CarID, pos vmath.Vec2, dir board.Direction, v float64, target navigation.Node) Car {
	return Car{
		ID:          id,
		Position:    pos,
		Orientation: dir.Angle(),
		Velocity:    v,
		Status:      Moving,
		Route:       []navigation.NodeID{target.ID},
		LocalPath:   BuildLocalPath(pos, dir.Angle(), TargetOf(target)),
		StoppedAt:   NoNode,
	}
}

func TestAccelerateToZero(t *testing.T) {
	for _, v := range []float64{0.5, 3, 8, 11.1} {
		for _, d := range []float64{0.1, 1, 5, 20, 60} {
			a := AccelerateToZero(v, d)
			if a < parameter.MaxDeceleration {
				t.Errorf("v=%v d=%v: %v exceeds max deceleration", v, d, a)
			}
			if a == parameter.MaxDeceleration {
				continue
			}
			// constant deceleration from v covers v²/2|a| before standing still
			if got := v * v / (2 * -a); math.Abs(got-d) > 1e-9 {
				t.Errorf("v=%v d=%v: stops after %v", v, d, got)
			}
		}
	}
	if a := AccelerateToZero(0, 5); a != 0 {
		t.Errorf("standing car: %v", a)
	}
	if a := AccelerateToZero(4, 0); a != parameter.MaxDeceleration {
		t.Errorf("no room: %v", a)
	}
}

func TestPlay_StraightRoad(t *testing.T) {
	house, _ := board.LotKindByName("house")
	lots := []board.Lot{
		{ID: 1, Kind: house, Anchor: board.Anchor{Cell: board.Cell{X: 2, Y: 2}, Direction: board.Down}},
		{ID: 2, Kind: house, Anchor: board.Anchor{Cell: board.Cell{X: 4, Y: 2}, Direction: board.Down}},
	}
	env := newEnv(t, straightBoard(t), lots...)

	start := nodeAt(t, env, 8, 28)
	route := []navigation.NodeID{
		start.ID,
		nodeAt(t, env, 24, 28).ID,
		nodeAt(t, env, 56, 28).ID,
		nodeAt(t, env, 72, 28).ID,
	}
	final := nodeAt(t, env, 72, 28)

	car := NewRoamingCar(1, start, 0)
	car.Route = route
	car.Velocity = parameter.MaxVelocity

	seed := vmath.NewSeed(1)
	step := parameter.MaxVelocity * testDelta.Seconds()
	expected := int(64 / step)

	ticks := 0
	for ; ticks < 2*expected; ticks++ {
		car, seed = Play(env, car, nil, seed)
		if len(car.Route) == 1 && len(car.LocalPath) == 0 {
			ticks++
			break
		}
	}
	t.Logf("arrived after %d ticks, expected about %d", ticks, expected)

	if car.Status != Moving {
		t.Errorf("status: got %v, want moving", car.Status)
	}
	if !vmath.AlmostEqual(car.Position, final.Position, 1e-9) {
		t.Errorf("position: got %v, want %v", car.Position, final.Position)
	}
	if car.RemainingDistance() != 0 {
		t.Errorf("remaining distance %v", car.RemainingDistance())
	}
	if ticks < expected-3 || ticks > expected+4 {
		t.Errorf("ticks: got %d, want about %d", ticks, expected)
	}
	if math.Abs(car.TripDistance-64) > 1e-6 {
		t.Errorf("trip distance: got %v, want 64", car.TripDistance)
	}
}

func TestPlay_RedLight(t *testing.T) {
	b := roads(t, 5,
		board.Cell{X: 3, Y: 3}, board.Cell{X: 2, Y: 3}, board.Cell{X: 4, Y: 3},
		board.Cell{X: 3, Y: 2}, board.Cell{X: 3, Y: 4},
	)
	env := newEnv(t, b)
	for _, ref := range env.net.Lights() {
		env.lights[ref.ID] = Red
	}
	stopNode := nodeAt(t, env, 36, 32)

	tests := []struct {
		name string
		y, v float64
	}{
		{"braking at once", 24, 10},
		{"rolling up slowly", 17, 4},
		{"approaching from the cell edge", 8, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			car := heading(1, vmath.V(36, tt.y), board.Down, tt.v, stopNode)
			seed := vmath.NewSeed(7)
			waiting := false
			for i := 0; i < 600; i++ {
				prev := car
				car, seed = Play(env, car, nil, seed)
				switch {
				case car.Status == WaitingForTrafficLights:
					waiting = true
				case waiting:
					t.Fatalf("tick %d: left waiting for %v", i, car.Status)
				case car.Status != Moving:
					t.Fatalf("tick %d: status %v", i, car.Status)
				}
				if waiting && (car.Acceleration > 0 || car.Velocity > prev.Velocity+1e-12) {
					t.Fatalf("tick %d: sped up from %v to %v (a=%v) while waiting", i, prev.Velocity, car.Velocity, car.Acceleration)
				}
				if front := car.Position.Y + parameter.CarLength/2; front > stopNode.Position.Y {
					t.Fatalf("tick %d: front bumper at %v passed the stop line", i, front)
				}
			}
			t.Logf("stopped %.3fm before the node", stopNode.Position.Y-car.Position.Y)

			if !waiting {
				t.Fatal("never waited for the light")
			}
			if !car.Stopped() {
				t.Errorf("still moving at %v", car.Velocity)
			}
			if len(car.Route) != 1 || car.Route[0] != stopNode.ID {
				t.Errorf("car left its leg: route %v", car.Route)
			}
		})
	}
}

func TestPlay_YieldOnT(t *testing.T) {
	b := roads(t, 5,
		board.Cell{X: 1, Y: 3}, board.Cell{X: 2, Y: 3}, board.Cell{X: 3, Y: 3},
		board.Cell{X: 2, Y: 4}, board.Cell{X: 2, Y: 5},
	)
	env := newEnv(t, b)

	yieldNode := nodeAt(t, env, 28, 48)
	priorityNode := nodeAt(t, env, 16, 44)
	if yieldNode.Control.Kind != board.Yield || priorityNode.Control.Governed() {
		t.Fatalf("controls: yield %+v, priority %+v", yieldNode.Control, priorityNode.Control)
	}

	minor := heading(1, vmath.V(28, 54), board.Up, 8, yieldNode)
	major := heading(2, vmath.V(6, 44), board.Right, 8, priorityNode)
	cars := []Car{minor, major}

	seed := vmath.NewSeed(3)
	gotMinor, seed := Play(env, minor, cars, seed)
	gotMajor, _ := Play(env, major, cars, seed)

	if gotMinor.Status != Yielding {
		t.Errorf("stem car: got %v, want yielding", gotMinor.Status)
	}
	if gotMajor.Status != Moving {
		t.Errorf("priority car: got %v, want moving", gotMajor.Status)
	}

	// without cross traffic the stem car proceeds
	alone, _ := Play(env, minor, []Car{minor}, seed)
	if alone.Status != Moving {
		t.Errorf("stem car alone: got %v", alone.Status)
	}
}

func TestPlay_StopSign(t *testing.T) {
	b := roads(t, 5,
		board.Cell{X: 1, Y: 3}, board.Cell{X: 2, Y: 3}, board.Cell{X: 3, Y: 3},
		board.Cell{X: 2, Y: 4}, board.Cell{X: 2, Y: 5},
	)
	if !b.ToggleIntersectionControl(board.Cell{X: 2, Y: 3}) {
		t.Fatal("toggle rejected")
	}
	env := newEnv(t, b)
	stopNode := nodeAt(t, env, 28, 48)
	if stopNode.Control.Kind != board.Stop {
		t.Fatalf("control after toggle: %v", stopNode.Control.Kind)
	}

	car := heading(1, vmath.V(28, 60), board.Up, 6, stopNode)
	seed := vmath.NewSeed(5)
	halted, braking := false, false
	for i := 0; i < 600 && len(car.Route) > 0 && car.Route[0] == stopNode.ID; i++ {
		prev := car.Velocity
		car, seed = Play(env, car, nil, seed)
		if car.StoppedAt == stopNode.ID {
			halted = true
		}
		if halted {
			continue
		}
		switch car.Status {
		case StoppedAtIntersection:
			braking = true
		case Moving:
			if braking {
				t.Fatalf("tick %d: rolled on before the full stop", i)
			}
		default:
			t.Fatalf("tick %d: status %v before the full stop", i, car.Status)
		}
		if braking && car.Velocity > prev+1e-12 {
			t.Fatalf("tick %d: sped up from %v to %v before the full stop", i, prev, car.Velocity)
		}
	}
	if !braking || !halted {
		t.Fatalf("braking %v, halted %v", braking, halted)
	}
	if len(car.Route) > 0 && car.Route[0] == stopNode.ID {
		t.Error("car never proceeded past the stop line")
	}
}

func TestPlay_ForwardCollision(t *testing.T) {
	env := newEnv(t, straightBoard(t))
	end := nodeAt(t, env, 72, 28)

	front := heading(2, vmath.V(44, 28), board.Right, 0, end)
	rear := heading(1, vmath.V(30, 28), board.Right, 8, end)

	seed := vmath.NewSeed(9)
	avoided := false
	for i := 0; i < 400; i++ {
		rear, seed = Play(env, rear, []Car{rear, front}, seed)
		if rear.Status == AvoidingCollision {
			avoided = true
		}
		if rear.Shape().Intersects(front.Shape()) {
			t.Fatalf("tick %d: cars overlap at %v and %v", i, rear.Position, front.Position)
		}
	}
	gap := (front.Position.X - parameter.CarLength/2) - (rear.Position.X + parameter.CarLength/2)
	t.Logf("rear car rests with a %.3fm gap", gap)
	if !avoided {
		t.Error("rear car never avoided the standing car")
	}
	if !rear.Stopped() {
		t.Errorf("rear car still moving at %v", rear.Velocity)
	}
}

func TestPlay_ContactClamp(t *testing.T) {
	env := &testEnv{}
	gap := 0.45
	front := Car{ID: 2, Position: vmath.V(20+parameter.CarLength+gap, 0), Status: Moving,
		LocalPath: []vmath.Vec2{vmath.V(200, 0)}, StoppedAt: NoNode}
	rear := Car{ID: 1, Position: vmath.V(20, 0), Velocity: parameter.MaxVelocity, Status: Moving,
		LocalPath: []vmath.Vec2{vmath.V(200, 0)}, StoppedAt: NoNode}

	seed := vmath.NewSeed(2)
	for i := 0; i < 60; i++ {
		rear, seed = Play(env, rear, []Car{rear, front}, seed)
		if rear.Shape().Intersects(front.Shape()) {
			t.Fatalf("tick %d: rear car at %v ran into the front car", i, rear.Position)
		}
	}
	left := (front.Position.X - parameter.CarLength/2) - (rear.Position.X + parameter.CarLength/2)
	t.Logf("gap %.3fm", left)
	if !rear.Stopped() {
		t.Errorf("rear car still moving at %v", rear.Velocity)
	}
	if left <= 0 || left > gap {
		t.Errorf("gap: %v", left)
	}
}

func TestEvaluate_FollowsCurvedPath(t *testing.T) {
	// turning right: a straight look along the heading misses the standing car
	turning := Car{
		ID:          1,
		Position:    vmath.V(0, 0),
		Orientation: board.Right.Angle(),
		Velocity:    6,
		Status:      Moving,
		LocalPath:   []vmath.Vec2{vmath.V(5, 0), vmath.V(8, 3), vmath.V(8, 20)},
	}
	standing := Car{ID: 2, Position: vmath.V(8, 9), Orientation: board.Down.Angle(), Status: Moving}
	env := &testEnv{}

	r := Evaluate(env, turning, []Car{turning, standing})
	t.Logf("room %.2fm", r.Distance)
	if r.Kind != RuleAvoidCollision {
		t.Fatalf("got %v", r.Kind)
	}
	if r.Distance <= 0 || r.Distance >= 12 {
		t.Errorf("room %v", r.Distance)
	}

	standing.Position = vmath.V(20, 0)
	standing.Orientation = board.Right.Angle()
	if r := Evaluate(env, turning, []Car{turning, standing}); r.Kind != RuleNone {
		t.Errorf("car off the path blocked the turn: %v at %v", r.Kind, r.Distance)
	}
}

func TestEvaluate_LeavesOverlapBehind(t *testing.T) {
	path := []vmath.Vec2{vmath.V(60, 0)}
	back := Car{ID: 1, Position: vmath.V(10, 0), Status: Moving, LocalPath: path, StoppedAt: NoNode}
	ahead := Car{ID: 2, Position: vmath.V(13, 0), Status: Moving, LocalPath: path, StoppedAt: NoNode}
	if !back.Shape().Intersects(ahead.Shape()) {
		t.Fatal("setup: cars do not overlap")
	}
	env := &testEnv{}
	cars := []Car{back, ahead}

	if r := Evaluate(env, back, cars); r.Kind != RuleAvoidCollision || r.Distance != 0 {
		t.Errorf("back car: got %v at %v", r.Kind, r.Distance)
	}
	if r := Evaluate(env, ahead, cars); r.Kind != RuleNone {
		t.Errorf("front car held by the car behind: %v", r.Kind)
	}

	seed := vmath.NewSeed(4)
	for i := 0; i < 120; i++ {
		ahead, seed = Play(env, ahead, []Car{back, ahead}, seed)
	}
	if ahead.Shape().Intersects(back.Shape()) {
		t.Errorf("front car stuck at %v", ahead.Position)
	}
}

func TestPlay_GridlockTimeout(t *testing.T) {
	env := &testEnv{}
	path := []vmath.Vec2{vmath.V(60, 0)}
	blocker := Car{ID: 2, Position: vmath.V(16, 0), Status: Moving, LocalPath: path, StoppedAt: NoNode}
	car := Car{ID: 1, Position: vmath.V(10, 0), Status: Moving, LocalPath: path, StoppedAt: NoNode}

	seed := vmath.NewSeed(6)
	limit := int(parameter.GridlockTimeout/testDelta) + 2
	ticks := 0
	for ; ticks < 2*limit && car.Status != Confused; ticks++ {
		car, seed = Play(env, car, []Car{car, blocker}, seed)
	}
	t.Logf("confused after %d ticks", ticks)
	if car.Status != Confused {
		t.Fatalf("still %v after %v", car.Status, car.Stuck)
	}
	if ticks < limit-2 || ticks > limit {
		t.Errorf("ticks: got %d, want about %d", ticks, limit)
	}
}

func TestEvaluate_PathCollision(t *testing.T) {
	late := Car{
		ID:          1,
		Position:    vmath.V(0, 14),
		Orientation: board.Up.Angle(),
		Velocity:    5,
		Status:      Moving,
		LocalPath:   []vmath.Vec2{vmath.V(0, 0), vmath.V(0, -10)},
	}
	early := Car{
		ID:          2,
		Position:    vmath.V(-9, 0),
		Orientation: board.Right.Angle(),
		Velocity:    8,
		Status:      Moving,
		LocalPath:   []vmath.Vec2{vmath.V(10, 0)},
	}
	env := &testEnv{}

	r := Evaluate(env, late, []Car{late, early})
	// stops a sample short of coming within the conflict distance of the crossing path
	if r.Kind != RuleAvoidCollision || math.Abs(r.Distance-8) > 1e-9 {
		t.Errorf("later car: got %v at %v", r.Kind, r.Distance)
	}
	if r := Evaluate(env, early, []Car{late, early}); r.Kind != RuleNone {
		t.Errorf("earlier car: got %v", r.Kind)
	}

	parked := early
	parked.Status = ParkedAtLot
	if r := Evaluate(env, late, []Car{late, parked}); r.Kind != RuleNone {
		t.Errorf("parked car blocked the path: %v", r.Kind)
	}

	// a car holding at its line short of the crossing is no conflict
	held := early
	held.Status = Yielding
	held.Hold = 2
	if r := Evaluate(env, late, []Car{late, held}); r.Kind != RuleNone {
		t.Errorf("holding car blocked the path: %v at %v", r.Kind, r.Distance)
	}
}

func TestEvaluate_PathCollisionTie(t *testing.T) {
	// mirrored approaches reach the crossing together: exactly one yields
	a := Car{
		ID:          3,
		Position:    vmath.V(0, 12),
		Orientation: board.Up.Angle(),
		Velocity:    6,
		Status:      Moving,
		LocalPath:   []vmath.Vec2{vmath.V(0, -12)},
	}
	b := Car{
		ID:          4,
		Position:    vmath.V(-12, 0),
		Orientation: board.Right.Angle(),
		Velocity:    6,
		Status:      Moving,
		LocalPath:   []vmath.Vec2{vmath.V(12, 0)},
	}
	env := &testEnv{}
	cars := []Car{a, b}

	ra, rb := Evaluate(env, a, cars), Evaluate(env, b, cars)
	t.Logf("lower id %v, higher id %v at %v", ra.Kind, rb.Kind, rb.Distance)
	if ra.Kind != RuleNone {
		t.Errorf("lower id yielded: %v", ra.Kind)
	}
	if rb.Kind != RuleAvoidCollision {
		t.Errorf("higher id went: %v", rb.Kind)
	}
}

func TestApply_RollsOnUntilComfortBraking(t *testing.T) {
	tests := []struct {
		name    string
		car     Car
		rule    Rule
		status  Status
		braking bool
	}{
		{"far", Car{Velocity: 5}, Rule{RuleWaitForTrafficLights, 40}, Moving, false},
		{"close", Car{Velocity: 10}, Rule{RuleWaitForTrafficLights, 5}, WaitingForTrafficLights, true},
		{"keeps braking", Car{Velocity: 2, Status: Yielding, Acceleration: -1}, Rule{RuleYieldAtIntersection, 40}, Yielding, true},
		{"at the line", Car{Velocity: 1}, Rule{RuleStopAtIntersection, 0}, StoppedAtIntersection, true},
		{"waiting at rest", Car{Status: WaitingForTrafficLights}, Rule{RuleWaitForTrafficLights, 30}, WaitingForTrafficLights, false},
		{"standing behind a car that left", Car{Status: AvoidingCollision}, Rule{RuleAvoidCollision, 10}, Moving, false},
		{"clear", Car{Velocity: 3, Status: Yielding, Acceleration: -2}, Rule{Kind: RuleNone}, Moving, false},
	}
	for _, tt := range tests {
		got := Apply(tt.car, tt.rule)
		if got.Status != tt.status {
			t.Errorf("%s: status %v, want %v", tt.name, got.Status, tt.status)
		}
		if (got.Acceleration < 0) != tt.braking {
			t.Errorf("%s: acceleration %v, braking want %v", tt.name, got.Acceleration, tt.braking)
		}
		if got.Status != Moving && got.Acceleration > 0 {
			t.Errorf("%s: speeds up while %v", tt.name, got.Status)
		}
	}
}
