package sim

import (
	"context"
	"sync/atomic"
	"time"

	"zombie-siege/logging"
)

const defaultTickRate = 10

// LoopConfig tunes the fixed-rate runner.
type LoopConfig struct {
	TickRate        int
	CatchupMaxTicks int
	Clock           logging.Clock
}

// TickContext is handed to the step hook.
type TickContext struct {
	Tick  uint64
	Now   time.Time
	Delta float64
}

// StepResult summarises one executed tick.
type StepResult struct {
	Tick         uint64
	Now          time.Time
	Delta        float64
	Duration     time.Duration
	Budget       time.Duration
	ClampedDelta bool
	MaxDelta     float64
}

// LoopHooks are the callbacks a Loop drives. Step is required.
type LoopHooks struct {
	Step      func(TickContext)
	AfterStep func(StepResult)
	// OnSkip fires for each tick dropped because the previous one was still
	// running or the runner fell behind.
	OnSkip func(tick uint64)
}

// Loop runs Step at a fixed rate and never lets two steps overlap.
type Loop struct {
	config LoopConfig
	hooks  LoopHooks
	clock  logging.Clock

	running atomic.Bool
	tick    atomic.Uint64
	skipped atomic.Uint64
}

func NewLoop(cfg LoopConfig, hooks LoopHooks) *Loop {
	if cfg.TickRate <= 0 {
		cfg.TickRate = defaultTickRate
	}
	clock := cfg.Clock
	if clock == nil {
		clock = logging.SystemClock{}
	}
	return &Loop{config: cfg, hooks: hooks, clock: clock}
}

// Budget is the wall time allotted to one tick.
func (l *Loop) Budget() time.Duration {
	return time.Second / time.Duration(l.config.TickRate)
}

func (l *Loop) maxDelta() float64 {
	budget := l.Budget().Seconds()
	if l.config.CatchupMaxTicks > 1 {
		return budget * float64(l.config.CatchupMaxTicks)
	}
	return budget
}

// Tick reports the last tick number handed out.
func (l *Loop) Tick() uint64 {
	return l.tick.Load()
}

// Skipped reports how many ticks were dropped.
func (l *Loop) Skipped() uint64 {
	return l.skipped.Load()
}

// Advance executes one step with delta dt seconds. It returns false without
// running anything when a step is already in flight.
func (l *Loop) Advance(now time.Time, dt float64) (StepResult, bool) {
	tick := l.tick.Add(1)
	if !l.running.CompareAndSwap(false, true) {
		l.skip(tick)
		return StepResult{Tick: tick}, false
	}
	defer l.running.Store(false)

	clamped := false
	maxDt := l.maxDelta()
	if dt <= 0 {
		dt = l.Budget().Seconds()
	} else if dt > maxDt {
		dt = maxDt
		clamped = true
	}

	start := l.clock.Now()
	if l.hooks.Step != nil {
		l.hooks.Step(TickContext{Tick: tick, Now: now, Delta: dt})
	}
	result := StepResult{
		Tick:         tick,
		Now:          now,
		Delta:        dt,
		Duration:     l.clock.Now().Sub(start),
		Budget:       l.Budget(),
		ClampedDelta: clamped,
		MaxDelta:     maxDt,
	}
	if l.hooks.AfterStep != nil {
		l.hooks.AfterStep(result)
	}
	return result, true
}

func (l *Loop) skip(tick uint64) {
	l.skipped.Add(1)
	if l.hooks.OnSkip != nil {
		l.hooks.OnSkip(tick)
	}
}

// Run drives the loop until ctx is cancelled. Ticks that fall more than a
// full budget behind are skipped rather than replayed.
func (l *Loop) Run(ctx context.Context) {
	budget := l.Budget()
	ticker := time.NewTicker(budget)
	defer ticker.Stop()

	last := l.clock.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			now := l.clock.Now()
			elapsed := now.Sub(last)
			last = now
			for missed := elapsed/budget - 1; missed > 0; missed-- {
				l.skip(l.tick.Add(1))
			}
			l.Advance(now, elapsed.Seconds())
		}
	}
}
