package engine

import (
	"context"
	"sync/atomic"
	"time"
)

// Clock provides monotonic time readings to the scheduler
type Clock interface {
	Now() time.Time
}

// SystemClock reads the real time
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now()
}

// commandBuffer bounds queued edits; Do blocks once it is full
const commandBuffer = 64

// Scheduler drives the traffic and environment ticks of one world and serializes
// edits with them. All World access happens on the goroutine running Run
type Scheduler struct {
	clock       Clock
	traffic     time.Duration
	environment time.Duration
	commands    chan func(*World)

	trafficTicks atomic.Int64
	running      atomic.Bool
}

// NewScheduler creates a scheduler; a nil clock reads the system time
func NewScheduler(clock Clock, traffic, environment time.Duration) *Scheduler {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Scheduler{
		clock:       clock,
		traffic:     traffic,
		environment: environment,
		commands:    make(chan func(*World), commandBuffer),
	}
}

// Do queues fn to run on the scheduler goroutine between ticks
// Returns false if ctx ends first
func (s *Scheduler) Do(ctx context.Context, fn func(*World)) bool {
	select {
	case s.commands <- fn:
		return true
	case <-ctx.Done():
		return false
	}
}

// Ticks returns the number of traffic ticks run so far
func (s *Scheduler) Ticks() int64 {
	return s.trafficTicks.Load()
}

// Running reports whether Run is active
func (s *Scheduler) Running() bool {
	return s.running.Load()
}

// Run ticks w until ctx ends; onFrame, when set, runs after every traffic tick
// on the scheduler goroutine and must not retain w
func (s *Scheduler) Run(ctx context.Context, w *World, onFrame func(*World)) error {
	s.running.Store(true)
	defer s.running.Store(false)

	now := s.clock.Now()
	lastTraffic, lastEnv := now, now
	nextTraffic := now.Add(s.traffic)
	nextEnv := now.Add(s.environment)

	timer := time.NewTimer(0)
	if !timer.Stop() {
		select {
		case <-timer.C:
		default:
		}
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case fn := <-s.commands:
			fn(w)
			continue
		default:
		}

		now = s.clock.Now()
		if !now.Before(nextTraffic) {
			w.TrafficTick(now.Sub(lastTraffic))
			lastTraffic = now
			nextTraffic = advance(nextTraffic, s.traffic, now)
			s.trafficTicks.Add(1)
			if onFrame != nil {
				onFrame(w)
			}
		}
		if !now.Before(nextEnv) {
			w.EnvironmentTick(now.Sub(lastEnv))
			lastEnv = now
			nextEnv = advance(nextEnv, s.environment, now)
		}

		deadline := nextTraffic
		if nextEnv.Before(deadline) {
			deadline = nextEnv
		}
		sleep := deadline.Sub(s.clock.Now())
		if sleep <= 0 {
			continue
		}

		timer.Reset(sleep)
		select {
		case <-timer.C:
		case fn := <-s.commands:
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			fn(w)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// advance moves a deadline one interval forward, resyncing when more than
// two intervals behind so a stall does not trigger a burst of catch-up ticks
func advance(deadline time.Time, interval time.Duration, now time.Time) time.Time {
	deadline = deadline.Add(interval)
	if now.Sub(deadline) > 2*interval {
		deadline = now.Add(interval)
	}
	return deadline
}
