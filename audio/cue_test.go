package audio

import (
	"math"
	"testing"
	"time"

	"github.com/gopxl/beep"

	"github.com/lixenwraith/vi-cloth/config"
	"github.com/lixenwraith/vi-cloth/engine"
	"github.com/lixenwraith/vi-cloth/parameter"
)

func drain(s beep.Streamer) (samples int, peak float64) {
	buf := make([][2]float64, 512)
	for {
		n, ok := s.Stream(buf)
		for i := 0; i < n; i++ {
			peak = math.Max(peak, math.Abs(buf[i][0]))
		}
		samples += n
		if !ok || n == 0 {
			return samples, peak
		}
	}
}

// TestOscillator_Length verifies the oscillator stops after its duration
func TestOscillator_Length(t *testing.T) {
	rate := beep.SampleRate(44100)
	for _, wave := range []WaveType{WaveSine, WaveTriangle} {
		n, peak := drain(NewOscillator(440, 50*time.Millisecond, wave, rate))
		if n != rate.N(50*time.Millisecond) {
			t.Errorf("Wave %d: expected %d samples, got %d", wave, rate.N(50*time.Millisecond), n)
		}
		if peak > 1.0 || peak < 0.9 {
			t.Errorf("Wave %d: expected peak near 1, got %f", wave, peak)
		}
	}
}

// TestEnvelope_Edges verifies the tone starts and ends near silence
func TestEnvelope_Edges(t *testing.T) {
	rate := beep.SampleRate(44100)
	d := 100 * time.Millisecond
	env := NewEnvelope(NewOscillator(440, d, WaveTriangle, rate), d, 10*time.Millisecond, 20*time.Millisecond, rate)

	buf := make([][2]float64, rate.N(d))
	n, _ := env.Stream(buf)
	if n != len(buf) {
		t.Fatalf("Expected %d samples, got %d", len(buf), n)
	}
	if math.Abs(buf[0][0]) > 1e-9 {
		t.Errorf("Expected silent first sample, got %f", buf[0][0])
	}
	if math.Abs(buf[n-1][0]) > 0.01 {
		t.Errorf("Expected faded last sample, got %f", buf[n-1][0])
	}
}

// TestCapTone_Bounded verifies the cap tone length and amplitude
func TestCapTone_Bounded(t *testing.T) {
	rate := beep.SampleRate(parameter.CueSampleRate)
	n, peak := drain(NewCapTone(parameter.CueFrequency, 0.5, rate))
	if n != rate.N(parameter.CueDuration) {
		t.Errorf("Expected %d samples, got %d", rate.N(parameter.CueDuration), n)
	}
	if peak <= 0 || peak > 0.5+1e-9 {
		t.Errorf("Expected peak within (0, 0.5], got %f", peak)
	}

	_, silent := drain(NewCapTone(parameter.CueFrequency, 0, rate))
	if silent != 0 {
		t.Errorf("Expected zero volume tone to be silent, got peak %f", silent)
	}
}

// TestCue_RisingEdge verifies one tone per transition into the capped state
func TestCue_RisingEdge(t *testing.T) {
	cfg := config.Default().Audio
	cfg.Enabled = true
	cue := NewCue(cfg, nil)

	var played int
	cue.setPlayer(func(beep.Streamer) { played++ })

	seq := []bool{false, true, true, true, false, false, true, true}
	for i, capped := range seq {
		cue.Observe(engine.Frame{Tick: uint64(i), Capped: capped})
	}

	if played != 2 {
		t.Errorf("Expected 2 tones for 2 rising edges, got %d", played)
	}
	if cue.Played() != 2 {
		t.Errorf("Expected Played() 2, got %d", cue.Played())
	}
}

// TestCue_SilentWithoutDevice verifies the cue never plays before a device is attached
func TestCue_SilentWithoutDevice(t *testing.T) {
	cfg := config.Default().Audio
	cue := NewCue(cfg, nil)

	// Disabled config: Start must not touch the speaker
	cue.Start()

	cue.Observe(engine.Frame{Capped: false})
	cue.Observe(engine.Frame{Capped: true})
	if cue.Played() != 0 {
		t.Errorf("Expected no tones when disabled, got %d", cue.Played())
	}

	cue.Stop()
}

// TestCue_StopDetachesPlayer verifies frames after Stop stay silent
func TestCue_StopDetachesPlayer(t *testing.T) {
	cue := NewCue(config.Default().Audio, nil)
	var played int
	cue.setPlayer(func(beep.Streamer) { played++ })

	cue.Stop()
	cue.Observe(engine.Frame{Capped: true})

	if played != 0 {
		t.Errorf("Expected no tone after Stop, got %d", played)
	}
}
