package engine

import (
	"context"
	"io"
	"log/slog"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lixenwraith/vi-cloth/physics"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestSim(t *testing.T) *physics.Simulator {
	t.Helper()
	cfg := physics.DefaultConfig()
	cfg.Width, cfg.Height = 4, 4
	cfg.Spacing = 0.5
	sim, err := physics.NewSimulator(cfg)
	require.NoError(t, err)
	return sim
}

// frameLog collects frames from the runner goroutine
type frameLog struct {
	mu     sync.Mutex
	frames []Frame
}

func (l *frameLog) observe(f Frame) {
	l.mu.Lock()
	l.frames = append(l.frames, f)
	l.mu.Unlock()
}

func (l *frameLog) all() []Frame {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Frame(nil), l.frames...)
}

func TestRunner_StepOncePublishesFrame(t *testing.T) {
	sim := newTestSim(t)
	r := NewRunner(sim, Options{Logger: quietLogger()})
	var log frameLog
	r.Observe(log.observe)

	frame, err := r.StepOnce()
	require.NoError(t, err)

	assert.Equal(t, uint64(1), frame.Tick)
	assert.Equal(t, 4, frame.Width)
	assert.Equal(t, 4, frame.Height)
	require.Len(t, frame.Positions, 16)
	assert.Equal(t, sim.Grid().Node(3, 2).Position, frame.At(3, 2))

	frames := log.all()
	require.Len(t, frames, 1)
	assert.Equal(t, frame.Tick, frames[0].Tick)

	snap := r.Registry().Snapshot()
	assert.Equal(t, uint64(1), snap.Ticks)
	assert.Equal(t, frame.Residual, snap.Residual)
}

func TestRunner_FrameDoesNotAliasGrid(t *testing.T) {
	sim := newTestSim(t)
	r := NewRunner(sim, Options{Logger: quietLogger()})

	frame, err := r.StepOnce()
	require.NoError(t, err)
	before := sim.Grid().Node(2, 2).Position

	frame.Positions[r.sim.Grid().Index(2, 2)][0] = 99

	assert.Equal(t, before, sim.Grid().Node(2, 2).Position)
}

func TestRunner_DefaultInterval(t *testing.T) {
	r := NewRunner(newTestSim(t), Options{Logger: quietLogger()})
	assert.Equal(t, 20*time.Millisecond, r.opts.Interval)
}

func TestRunner_RunStopsAtMaxSteps(t *testing.T) {
	sim := newTestSim(t)
	r := NewRunner(sim, Options{Interval: time.Millisecond, MaxSteps: 5, Logger: quietLogger()})
	var log frameLog
	r.Observe(log.observe)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, r.Run(ctx))

	assert.Equal(t, uint64(5), sim.Tick())
	frames := log.all()
	// Initial publish plus one frame per step
	require.Len(t, frames, 6)
	for i, f := range frames {
		assert.Equal(t, uint64(i), f.Tick)
	}
}

func TestRunner_RunCancels(t *testing.T) {
	r := NewRunner(newTestSim(t), Options{Interval: time.Millisecond, Logger: quietLogger()})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("runner did not stop after cancel")
	}
}

func TestRunner_CommandsRunBetweenStepsWhilePaused(t *testing.T) {
	sim := newTestSim(t)
	r := NewRunner(sim, Options{Interval: time.Millisecond, Logger: quietLogger()})
	r.SetPaused(true)
	assert.True(t, r.Paused())
	assert.True(t, r.Registry().Snapshot().Paused)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	applied := make(chan float32, 1)
	require.True(t, r.Do(func(s Simulation) {
		s.(*physics.Simulator).SetPullForce(0)
		applied <- s.Config().PullForce
	}))

	select {
	case pull := <-applied:
		assert.Zero(t, pull)
	case <-time.After(2 * time.Second):
		t.Fatal("command not executed")
	}

	time.Sleep(10 * time.Millisecond)
	cancel()
	require.NoError(t, <-done)
	assert.Zero(t, sim.Tick(), "paused runner must not step")
}

// divergingSim turns non-finite after a number of steps
type divergingSim struct {
	*physics.Simulator
	after uint64
}

func (d *divergingSim) Finite() bool {
	return d.Tick() < d.after
}

func TestRunner_HaltsOnNonFinite(t *testing.T) {
	sim := &divergingSim{Simulator: newTestSim(t), after: 3}
	r := NewRunner(sim, Options{Interval: time.Millisecond, Logger: quietLogger()})
	var log frameLog
	r.Observe(log.observe)

	err := r.Run(context.Background())

	assert.ErrorIs(t, err, ErrNonFinite)
	assert.True(t, r.Registry().Snapshot().Halted)
	// Initial publish and two good steps; the diverged step is not published
	assert.Len(t, log.all(), 3)
}

func TestRunner_HaltsOnRealNaN(t *testing.T) {
	sim := newTestSim(t)
	sim.Grid().Node(3, 1).Position[1] = float32(math.NaN())
	r := NewRunner(sim, Options{Logger: quietLogger()})

	_, err := r.StepOnce()
	assert.ErrorIs(t, err, ErrNonFinite)
}

func TestRunner_DoQueueFull(t *testing.T) {
	r := NewRunner(newTestSim(t), Options{Logger: quietLogger()})
	noop := func(Simulation) {}
	for i := 0; i < cap(r.commands); i++ {
		require.True(t, r.Do(noop))
	}
	assert.False(t, r.Do(noop))
}

func TestRunner_DoRejectedAfterHalt(t *testing.T) {
	sim := &divergingSim{Simulator: newTestSim(t), after: 2}
	r := NewRunner(sim, Options{Interval: time.Millisecond, Logger: quietLogger()})

	require.ErrorIs(t, r.Run(context.Background()), ErrNonFinite)
	assert.True(t, r.Stopped())

	ran := false
	assert.False(t, r.Do(func(Simulation) { ran = true }), "halted runner must refuse commands")
	assert.False(t, ran)

	r.Rearm()
	assert.False(t, r.Stopped())
	assert.True(t, r.Do(func(Simulation) { ran = true }))
}

func TestRunner_DoRejectedAfterMaxSteps(t *testing.T) {
	r := NewRunner(newTestSim(t), Options{Interval: time.Millisecond, MaxSteps: 2, Logger: quietLogger()})

	require.NoError(t, r.Run(context.Background()))
	assert.True(t, r.Stopped())
	assert.False(t, r.Do(func(Simulation) {}))
}

func TestRunner_StopAppliesQueuedCommands(t *testing.T) {
	sim := newTestSim(t)
	r := NewRunner(sim, Options{Logger: quietLogger()})
	var log frameLog
	r.Observe(log.observe)

	ran := 0
	require.True(t, r.Do(func(Simulation) { ran++ }))
	require.True(t, r.Do(func(Simulation) { ran++ }))

	r.stop()

	assert.Equal(t, 2, ran)
	assert.Len(t, log.all(), 1, "one publish after the drained commands")
	assert.False(t, r.Do(func(Simulation) { ran++ }))
	assert.Equal(t, 2, ran)
}

func TestRunner_RunAgainAfterHalt(t *testing.T) {
	sim := newTestSim(t)
	r := NewRunner(sim, Options{Interval: time.Millisecond, MaxSteps: 1, Logger: quietLogger()})

	require.NoError(t, r.Run(context.Background()))
	require.Equal(t, uint64(1), sim.Tick())

	require.NoError(t, r.Run(context.Background()))
	assert.Equal(t, uint64(2), sim.Tick())
	assert.True(t, r.Stopped())
}
