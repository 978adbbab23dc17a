package status

import (
	"sync/atomic"
	"time"
)

// Registry holds the live simulation metrics
// The runner writes after each step; presentation reads at any time without locking
type Registry struct {
	Ticks       atomic.Uint64
	Residual    AtomicFloat
	MaxStretch  AtomicFloat
	PeakStretch AtomicFloat // highest MaxStretch since the last Reset
	StepNanos   atomic.Int64
	Clients     atomic.Int64
	Paused      atomic.Bool
	Halted      atomic.Bool
}

// NewRegistry creates an empty Registry
func NewRegistry() *Registry {
	return &Registry{}
}

// RecordStep publishes the result of one simulation step
func (r *Registry) RecordStep(tick uint64, residual float64, maxStretch float32, took time.Duration) {
	r.Ticks.Store(tick)
	r.Residual.Set(residual)
	r.MaxStretch.Set(float64(maxStretch))
	r.PeakStretch.Max(float64(maxStretch))
	r.StepNanos.Store(took.Nanoseconds())
}

// Reset clears step metrics; client count is preserved
func (r *Registry) Reset() {
	r.Ticks.Store(0)
	r.Residual.Set(0)
	r.MaxStretch.Set(0)
	r.PeakStretch.Set(0)
	r.StepNanos.Store(0)
	r.Halted.Store(false)
}

// Snapshot is a point-in-time copy of the registry
type Snapshot struct {
	Ticks       uint64  `json:"ticks"`
	Residual    float64 `json:"residual"`
	MaxStretch  float64 `json:"max_stretch"`
	PeakStretch float64 `json:"peak_stretch"`
	StepMicros  float64 `json:"step_us"`
	Clients     int64   `json:"clients"`
	Paused      bool    `json:"paused"`
	Halted      bool    `json:"halted"`
}

// Snapshot reads every metric
func (r *Registry) Snapshot() Snapshot {
	return Snapshot{
		Ticks:       r.Ticks.Load(),
		Residual:    r.Residual.Get(),
		MaxStretch:  r.MaxStretch.Get(),
		PeakStretch: r.PeakStretch.Get(),
		StepMicros:  float64(r.StepNanos.Load()) / 1e3,
		Clients:     r.Clients.Load(),
		Paused:      r.Paused.Load(),
		Halted:      r.Halted.Load(),
	}
}
