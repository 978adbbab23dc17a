package engine

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lixenwraith/vi-cloth/parameter"
	"github.com/lixenwraith/vi-cloth/physics"
	"github.com/lixenwraith/vi-cloth/status"
)

// ErrNonFinite is returned when the simulation state contains NaN or Inf
var ErrNonFinite = errors.New("simulation diverged: non-finite node state")

// Simulation is the stepping surface the runner drives
type Simulation interface {
	Step(dt float32)
	Tick() uint64
	Residual() float64
	MaxStretch() float32
	Capped() bool
	Finite() bool
	Config() physics.Config
	Grid() *physics.Grid
}

// Options configures a Runner
type Options struct {
	// Interval is the wall-clock cadence; zero derives it from the simulation time step
	Interval time.Duration
	// MaxSteps stops Run after this many steps; 0 = unbounded
	MaxSteps int
	Registry *status.Registry
	Logger   *slog.Logger
}

// Runner owns a Simulation and steps it on a fixed cadence
// All mutation of the simulation happens on the goroutine calling Run or StepOnce
type Runner struct {
	sim  Simulation
	opts Options

	mu        sync.RWMutex
	observers []Observer

	commands chan func(Simulation)
	paused   atomic.Bool

	// stopMu orders Do against the drain that runs when Run exits
	stopMu  sync.RWMutex
	stopped bool
}

// NewRunner creates a runner for sim
func NewRunner(sim Simulation, opts Options) *Runner {
	if opts.Interval <= 0 {
		opts.Interval = sim.Config().StepDuration()
	}
	if opts.Registry == nil {
		opts.Registry = status.NewRegistry()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Runner{
		sim:      sim,
		opts:     opts,
		commands: make(chan func(Simulation), 16),
	}
}

// Registry returns the metrics registry written by the runner
func (r *Runner) Registry() *status.Registry {
	return r.opts.Registry
}

// Observe registers an observer for published frames
func (r *Runner) Observe(o Observer) {
	r.mu.Lock()
	r.observers = append(r.observers, o)
	r.mu.Unlock()
}

// Do queues fn to run against the simulation between steps, followed by a frame publish
// Returns false when the command queue is full or Run has returned
func (r *Runner) Do(fn func(Simulation)) bool {
	r.stopMu.RLock()
	defer r.stopMu.RUnlock()
	if r.stopped {
		return false
	}
	select {
	case r.commands <- fn:
		return true
	default:
		return false
	}
}

// Stopped reports whether Run has returned and no goroutine is stepping the simulation
func (r *Runner) Stopped() bool {
	r.stopMu.RLock()
	defer r.stopMu.RUnlock()
	return r.stopped
}

// Rearm lets Do queue commands again after Run returned
// Call it before starting Run a second time
func (r *Runner) Rearm() {
	r.stopMu.Lock()
	r.stopped = false
	r.stopMu.Unlock()
}

// stop rejects further commands, then runs the ones already queued
func (r *Runner) stop() {
	r.stopMu.Lock()
	r.stopped = true
	r.stopMu.Unlock()

	ran := false
	for {
		select {
		case fn := <-r.commands:
			fn(r.sim)
			ran = true
		default:
			if ran {
				r.Publish()
			}
			return
		}
	}
}

// SetPaused suspends or resumes stepping; queued commands still run while paused
func (r *Runner) SetPaused(paused bool) {
	r.paused.Store(paused)
	r.opts.Registry.Paused.Store(paused)
}

// Paused reports whether stepping is suspended
func (r *Runner) Paused() bool {
	return r.paused.Load()
}

// Run steps the simulation until ctx is cancelled, MaxSteps is reached or the state diverges
// Deadlines advance by Interval; when more than RunnerMaxBehind intervals late the schedule re-bases to now
// Commands queued before Run returns are still applied; Do fails afterwards until Rearm
func (r *Runner) Run(ctx context.Context) error {
	r.Rearm()
	defer r.stop()

	interval := r.opts.Interval
	log := r.opts.Logger
	log.Info("runner started", "interval", interval, "max_steps", r.opts.MaxSteps)

	r.Publish()

	steps := 0
	next := time.Now().Add(interval)
	timer := time.NewTimer(interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("runner stopped", "tick", r.sim.Tick(), "steps", steps)
			return nil
		case fn := <-r.commands:
			fn(r.sim)
			r.Publish()
			continue
		case <-timer.C:
		}

		if !r.paused.Load() {
			if _, err := r.StepOnce(); err != nil {
				return err
			}
			steps++
			if r.opts.MaxSteps > 0 && steps >= r.opts.MaxSteps {
				log.Info("runner reached step limit", "tick", r.sim.Tick(), "steps", steps)
				return nil
			}
		}

		now := time.Now()
		next = next.Add(interval)
		if now.Sub(next) > parameter.RunnerMaxBehind*interval {
			log.Debug("runner behind schedule, re-basing", "lag", now.Sub(next))
			next = now.Add(interval)
		}
		timer.Reset(max(next.Sub(now), 0))
	}
}

// StepOnce advances one step, records metrics and notifies observers
// A diverged state halts publishing and returns ErrNonFinite
func (r *Runner) StepOnce() (Frame, error) {
	start := time.Now()
	r.sim.Step(r.sim.Config().TimeStep)
	took := time.Since(start)

	reg := r.opts.Registry
	if !r.sim.Finite() {
		reg.Halted.Store(true)
		r.opts.Logger.Error("simulation halted", "tick", r.sim.Tick(), "err", ErrNonFinite)
		return Frame{}, ErrNonFinite
	}

	frame := r.snapshot()
	reg.RecordStep(frame.Tick, frame.Residual, frame.MaxStretch, took)
	r.notify(frame)
	return frame, nil
}

// Publish notifies observers of the current state without stepping
func (r *Runner) Publish() Frame {
	frame := r.snapshot()
	if r.sim.Tick() == 0 {
		r.opts.Registry.Reset()
	}
	r.notify(frame)
	return frame
}

func (r *Runner) snapshot() Frame {
	g := r.sim.Grid()
	return Frame{
		Tick:       r.sim.Tick(),
		Width:      g.Width,
		Height:     g.Height,
		Positions:  g.Positions(nil),
		Residual:   r.sim.Residual(),
		MaxStretch: r.sim.MaxStretch(),
		Capped:     r.sim.Capped(),
	}
}

func (r *Runner) notify(frame Frame) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, o := range r.observers {
		o(frame)
	}
}
