package status

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAtomicFloat_Max(t *testing.T) {
	var f AtomicFloat
	assert.Equal(t, 0.0, f.Get())

	assert.Equal(t, 2.5, f.Max(2.5))
	assert.Equal(t, 2.5, f.Max(1.0))
	f.Set(-1)
	assert.Equal(t, -1.0, f.Get())
}

func TestAtomicFloat_ConcurrentMax(t *testing.T) {
	var f AtomicFloat
	var wg sync.WaitGroup
	for i := 1; i <= 64; i++ {
		wg.Add(1)
		go func(v float64) {
			defer wg.Done()
			f.Max(v)
		}(float64(i))
	}
	wg.Wait()
	assert.Equal(t, 64.0, f.Get())
}

func TestRegistry_RecordAndSnapshot(t *testing.T) {
	r := NewRegistry()
	r.RecordStep(3, 0.125, 0.5, 1500*time.Nanosecond)
	r.RecordStep(4, 0.0625, 0.25, 2*time.Microsecond)
	r.Clients.Add(2)

	s := r.Snapshot()
	assert.Equal(t, uint64(4), s.Ticks)
	assert.Equal(t, 0.0625, s.Residual)
	assert.Equal(t, 0.25, s.MaxStretch)
	assert.Equal(t, 0.5, s.PeakStretch)
	assert.Equal(t, 2.0, s.StepMicros)
	assert.Equal(t, int64(2), s.Clients)

	r.Halted.Store(true)
	r.Reset()
	s = r.Snapshot()
	assert.Zero(t, s.Ticks)
	assert.Zero(t, s.PeakStretch)
	assert.False(t, s.Halted)
	assert.Equal(t, int64(2), s.Clients)
}
