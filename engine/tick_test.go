package engine

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/lixenwraith/vi-traffic/board"
	"github.com/lixenwraith/vi-traffic/parameter"
	"github.com/lixenwraith/vi-traffic/traffic"
)

func TestTrafficTick_PauseAndClamp(t *testing.T) {
	w := newTestWorld(t, quietConfig(5), row(2, 1, 2, 3, 4, 5)...)

	w.Pause()
	w.TrafficTick(16 * time.Millisecond)
	if w.Elapsed() != 0 {
		t.Fatalf("paused tick advanced time to %v", w.Elapsed())
	}
	if got := metric(w, "sim.state"); got != "paused" {
		t.Errorf("sim.state = %q, want paused", got)
	}

	w.Step()
	if w.Elapsed() != w.Config().Tick.Traffic {
		t.Errorf("step advanced %v, want %v", w.Elapsed(), w.Config().Tick.Traffic)
	}
	if w.Running() {
		t.Error("step resumed the simulation")
	}

	w.Resume()
	start := w.Elapsed()
	w.TrafficTick(time.Second)
	if got := w.Elapsed() - start; got != w.Config().Tick.MaxTrafficDelta {
		t.Errorf("1s tick advanced %v, want clamp to %v", got, w.Config().Tick.MaxTrafficDelta)
	}
	if got := metric(w, "ticks.traffic"); got != "2" {
		t.Errorf("ticks.traffic = %q, want 2", got)
	}
}

func TestSpawn_QueueAndClearance(t *testing.T) {
	cfg := quietConfig(5)
	cfg.Spawn.CarChance = 1
	w := newTestWorld(t, cfg, row(2, 1, 2, 3, 4, 5)...)

	w.EnvironmentTick(time.Second)
	if w.Pending() != 1 {
		t.Fatalf("pending = %d after a certain car roll, want 1", w.Pending())
	}
	at := w.pending[0].position
	w.TrafficTick(16 * time.Millisecond)
	if w.Pending() != 0 || len(w.Cars()) != 1 {
		t.Fatalf("spawn not placed: %d pending, %d cars", w.Pending(), len(w.Cars()))
	}

	// a second car on the same node waits for clearance
	w.pending = append(w.pending, spawn{position: at})
	w.TrafficTick(16 * time.Millisecond)
	if w.Pending() != 1 || len(w.Cars()) != 1 {
		t.Errorf("blocked spawn placed: %d pending, %d cars", w.Pending(), len(w.Cars()))
	}
}

func TestSpawn_PrefersEmptyLots(t *testing.T) {
	cfg := quietConfig(5)
	cfg.Spawn.CarChance = 1
	cfg.Spawn.MaxCars = 2
	w := newTestWorld(t, cfg, row(2, 1, 2, 3, 4, 5)...)
	house, _ := board.LotKindByName("house")
	id, ok := w.AddLot(house, board.Anchor{Cell: board.Cell{X: 3, Y: 2}, Direction: board.Up})
	if !ok {
		t.Fatal("lot rejected")
	}

	w.EnvironmentTick(time.Second)
	w.TrafficTick(16 * time.Millisecond)
	cars := w.Cars()
	if len(cars) != 1 || !cars[0].HasHome || cars[0].HomeLot != id || cars[0].Status != traffic.ParkedAtLot {
		t.Fatalf("first spawn should be the lot resident: %+v", cars)
	}

	w.EnvironmentTick(time.Second)
	w.TrafficTick(16 * time.Millisecond)
	cars = w.Cars()
	if len(cars) != 2 || cars[1].HasHome {
		t.Fatalf("second spawn should roam: %d cars", len(cars))
	}

	w.EnvironmentTick(time.Second)
	if w.Pending() != 0 {
		t.Errorf("spawn queued beyond max cars")
	}
}

func TestSpawn_RandomLots(t *testing.T) {
	cfg := quietConfig(10)
	cfg.Spawn.LotChance = 1
	w := newTestWorld(t, cfg, row(5, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10)...)
	start := len(w.Lots())

	for range 20 {
		w.EnvironmentTick(time.Second)
	}
	lots := w.Lots()
	if len(lots) <= start {
		t.Fatalf("no lots spawned in 20 certain rolls (%d before, %d after)", start, len(lots))
	}
	for _, l := range lots {
		if !l.Valid(w.board, lots) {
			t.Errorf("spawned lot %d is invalid", l.ID)
		}
	}
	t.Logf("%d lots after 20 environment ticks", len(lots))
}

func TestGenerateTown_Deterministic(t *testing.T) {
	a := newTestWorld(t, quietConfig(12))
	b := newTestWorld(t, quietConfig(12))

	if GenerateTown(a, 42) == 0 {
		t.Fatal("town has no roads")
	}
	GenerateTown(b, 42)

	if !a.Board().Equal(b.Board()) {
		t.Error("same seed produced different boards")
	}
	if len(a.Lots()) != len(b.Lots()) {
		t.Errorf("same seed produced %d and %d lots", len(a.Lots()), len(b.Lots()))
	}
	if a.Network().Len() == 0 {
		t.Error("town network is empty")
	}
}

func TestSpawn_ApproachingCarBlocks(t *testing.T) {
	w := newTestWorld(t, quietConfig(5), row(2, 1, 2, 3, 4, 5)...)
	n := firstLaneNode(t, w)
	dir := n.Facing.Angle().Direction()

	tests := []struct {
		name    string
		gap     float64
		v       float64
		blocked bool
	}{
		{"fast car closing in", parameter.SpawnClearance + 0.6, parameter.MaxVelocity, true},
		{"standing car", parameter.SpawnClearance + 0.6, 0, false},
		{"fast car far back", 20, parameter.MaxVelocity, false},
		{"inside the clearance", parameter.SpawnClearance - 1, 0, true},
	}
	for _, tt := range tests {
		w.cars = []traffic.Car{{
			ID:          1,
			Position:    n.Position.Sub(dir.Scale(tt.gap)),
			Orientation: n.Facing.Angle(),
			Velocity:    tt.v,
			Status:      traffic.Moving,
		}}
		if got := !w.clear(n); got != tt.blocked {
			t.Errorf("%s: blocked %v, want %v", tt.name, got, tt.blocked)
		}
	}
}

func TestTown_Soak(t *testing.T) {
	ticks := 6000
	if testing.Short() {
		ticks = 1500
	}
	for _, seed := range []uint64{5, 11, 17} {
		t.Run(fmt.Sprintf("seed %d", seed), func(t *testing.T) {
			cfg := quietConfig(12)
			cfg.Spawn.CarChance = 1
			cfg.Spawn.MaxCars = 16
			w := newTestWorld(t, cfg)
			GenerateTown(w, seed)

			step := cfg.Tick.Traffic
			standing := map[traffic.CarID]time.Duration{}
			travelled := 0.0
			for i := range ticks {
				w.TrafficTick(step)
				if i%60 == 0 {
					w.EnvironmentTick(time.Second)
				}

				cars := w.Cars()
				for a := range cars {
					if !cars[a].Active() {
						delete(standing, cars[a].ID)
						continue
					}
					travelled += cars[a].Velocity * step.Seconds()
					if cars[a].Stopped() && cars[a].Status != traffic.WaitingForTrafficLights {
						standing[cars[a].ID] += step
					} else {
						standing[cars[a].ID] = 0
					}
					if standing[cars[a].ID] > parameter.GridlockTimeout+step {
						t.Fatalf("tick %d: car %d standing for %v", i, cars[a].ID, standing[cars[a].ID])
					}
					for b := a + 1; b < len(cars); b++ {
						if cars[b].Active() && cars[a].Shape().Intersects(cars[b].Shape()) {
							t.Fatalf("tick %d: cars %d (%v at %v) and %d (%v at %v) overlap", i,
								cars[a].ID, cars[a].Status, cars[a].Position,
								cars[b].ID, cars[b].Status, cars[b].Position)
						}
					}
				}
			}
			t.Logf("%d cars, %d lots, %.0fm driven, %s removed",
				len(w.Cars()), len(w.Lots()), travelled, metric(w, "cars.removed"))
			if len(w.Cars()) == 0 {
				t.Fatal("no cars after the run")
			}
			if travelled < float64(ticks)*step.Seconds()*4 {
				t.Errorf("traffic barely moved: %.0fm", travelled)
			}
		})
	}
}

func TestAdvance(t *testing.T) {
	base := time.Unix(0, 0)
	iv := 10 * time.Millisecond
	tests := []struct {
		name string
		now  time.Duration
		want time.Duration
	}{
		{"on time", 10 * time.Millisecond, 20 * time.Millisecond},
		{"slightly late", 25 * time.Millisecond, 20 * time.Millisecond},
		{"stalled", 100 * time.Millisecond, 110 * time.Millisecond},
	}
	for _, tt := range tests {
		got := advance(base.Add(10*time.Millisecond), iv, base.Add(tt.now))
		if got.Sub(base) != tt.want {
			t.Errorf("%s: next deadline %v, want %v", tt.name, got.Sub(base), tt.want)
		}
	}
}

func TestScheduler_Run(t *testing.T) {
	w := newTestWorld(t, quietConfig(5))
	s := NewScheduler(nil, 2*time.Millisecond, 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()

	frames := 0
	done := make(chan error, 1)
	go func() {
		done <- s.Run(ctx, w, func(*World) { frames++ })
	}()

	placed := make(chan bool, 1)
	if !s.Do(ctx, func(w *World) { placed <- w.PlaceRoad(board.Cell{X: 2, Y: 2}) }) {
		t.Fatal("command not accepted")
	}
	if !<-placed {
		t.Error("road placed through the scheduler was rejected")
	}

	err := <-done
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Run returned %v, want deadline exceeded", err)
	}
	if s.Ticks() == 0 || frames == 0 {
		t.Fatalf("no ticks ran: %d ticks, %d frames", s.Ticks(), frames)
	}
	if s.Running() {
		t.Error("scheduler still reports running")
	}
	if w.Elapsed() <= 0 {
		t.Error("world time did not advance")
	}
	t.Logf("%d ticks, simulated %v", s.Ticks(), w.Elapsed())
}
