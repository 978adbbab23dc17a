// Package audio plays a short tone when the pulled edge of the cloth reaches its cap
package audio

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"

	"github.com/lixenwraith/vi-cloth/config"
	"github.com/lixenwraith/vi-cloth/engine"
	"github.com/lixenwraith/vi-cloth/parameter"
)

// Player hands a finished streamer to the output device
type Player func(beep.Streamer)

// Cue watches published frames and plays the cap tone on each rising edge of Frame.Capped
type Cue struct {
	cfg config.AudioConfig
	log *slog.Logger

	mu     sync.Mutex
	play   Player
	device bool
	silent atomic.Bool

	capped atomic.Bool
	played atomic.Uint64
}

// NewCue creates a cue; it is silent until Start succeeds
func NewCue(cfg config.AudioConfig, log *slog.Logger) *Cue {
	if log == nil {
		log = slog.Default()
	}
	c := &Cue{cfg: cfg, log: log}
	c.silent.Store(true)
	return c
}

// Start opens the speaker when audio is enabled
// A device failure leaves the cue silent and is not an error for the caller
func (c *Cue) Start() {
	if !c.cfg.Enabled {
		c.log.Debug("audio disabled")
		return
	}
	rate := c.sampleRate()
	if err := speaker.Init(rate, rate.N(100*time.Millisecond)); err != nil {
		c.log.Warn("audio unavailable, running silent", "err", err)
		return
	}
	c.setPlayer(speaker.Play)
	c.mu.Lock()
	c.device = true
	c.mu.Unlock()
	c.log.Info("audio started", "sample_rate", int(rate), "frequency", c.cfg.Frequency)
}

// Stop silences the cue and clears anything still playing
func (c *Cue) Stop() {
	c.setPlayer(nil)
	c.mu.Lock()
	device := c.device
	c.device = false
	c.mu.Unlock()
	if device {
		speaker.Clear()
	}
}

// Observe is an engine.Observer
func (c *Cue) Observe(frame engine.Frame) {
	was := c.capped.Swap(frame.Capped)
	if !frame.Capped || was || c.silent.Load() {
		return
	}

	c.mu.Lock()
	play := c.play
	c.mu.Unlock()
	if play == nil {
		return
	}
	play(NewCapTone(c.cfg.Frequency, c.cfg.Volume, c.sampleRate()))
	c.played.Add(1)
}

// Played returns how many tones have been started
func (c *Cue) Played() uint64 {
	return c.played.Load()
}

func (c *Cue) setPlayer(p Player) {
	c.mu.Lock()
	c.play = p
	c.mu.Unlock()
	c.silent.Store(p == nil)
}

func (c *Cue) sampleRate() beep.SampleRate {
	if c.cfg.SampleRate <= 0 {
		return beep.SampleRate(parameter.CueSampleRate)
	}
	return beep.SampleRate(c.cfg.SampleRate)
}
