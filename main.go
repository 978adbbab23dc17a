package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/lixenwraith/vi-cloth/audio"
	"github.com/lixenwraith/vi-cloth/config"
	"github.com/lixenwraith/vi-cloth/core"
	"github.com/lixenwraith/vi-cloth/engine"
	"github.com/lixenwraith/vi-cloth/physics"
	"github.com/lixenwraith/vi-cloth/render"
)

const (
	drawInterval   = 33 * time.Millisecond
	defaultLogFile = "vi-cloth.log"
)

// Viewer couples the terminal to a running simulation
type Viewer struct {
	screen tcell.Screen
	view   *render.View
	runner *engine.Runner
	sim    *physics.Simulator
	cfg    config.Config
	log    *slog.Logger

	latest atomic.Pointer[engine.Frame]
	pullOn bool

	// Owned by the loop goroutine; runErr is nil while no Run goroutine is outstanding
	ctx    context.Context
	runErr chan error
	halted error
}

func main() {
	configPath := flag.String("config", "cloth.yaml", "path to YAML config")
	jitter := flag.Float64("jitter", -1, "noise amplitude applied to the initial pose (negative keeps config)")
	sound := flag.Bool("sound", false, "play a tone when the top edge reaches the pull cap")
	logPath := flag.String("log", "", "log file (default from config, else "+defaultLogFile+")")
	flag.Parse()

	if err := run(*configPath, *jitter, *sound, *logPath); err != nil {
		fmt.Fprintf(os.Stderr, "vi-cloth: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string, jitter float64, sound bool, logPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if jitter >= 0 {
		cfg.Runner.Jitter = float32(jitter)
	}
	if sound {
		cfg.Audio.Enabled = true
	}

	// Stdout belongs to the screen
	if logPath == "" {
		logPath = cfg.Log.File
	}
	if logPath == "" {
		logPath = defaultLogFile
	}
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	defer logFile.Close()
	logger := slog.New(slog.NewTextHandler(logFile, &slog.HandlerOptions{
		Level: config.ParseLogLevel(cfg.Log.Level),
	}))

	sim, err := physics.NewSimulator(cfg.Cloth)
	if err != nil {
		return fmt.Errorf("creating simulator: %w", err)
	}
	physics.Perturb(sim.Grid(), cfg.Runner.Seed, cfg.Runner.Jitter)

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("creating screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("initializing screen: %w", err)
	}
	defer screen.Fini()
	core.SetCrashRestore(screen.Fini)
	defer func() { core.HandleCrash(recover()) }()
	screen.HideCursor()

	runner := engine.NewRunner(sim, engine.Options{
		Interval: cfg.Interval(),
		MaxSteps: cfg.Runner.MaxSteps,
		Logger:   logger,
	})

	cue := audio.NewCue(cfg.Audio, logger)
	cue.Start()
	defer cue.Stop()

	v := &Viewer{
		screen: screen,
		view:   render.NewView(screen, cfg.Cloth),
		runner: runner,
		sim:    sim,
		cfg:    cfg,
		log:    logger,
		pullOn: cfg.Cloth.PullForce > 0,
	}
	runner.Observe(v.store)
	runner.Observe(cue.Observe)

	logger.Info("viewer starting",
		"width", cfg.Cloth.Width,
		"height", cfg.Cloth.Height,
		"jitter", cfg.Runner.Jitter,
		"audio", cfg.Audio.Enabled)

	return v.loop()
}

func (v *Viewer) store(f engine.Frame) {
	v.latest.Store(&f)
}

// loop runs the simulation in the background and owns the screen until quit
func (v *Viewer) loop() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	v.ctx = ctx
	v.start()

	eventChan := make(chan tcell.Event, 100)
	core.Go(func() {
		for {
			ev := v.screen.PollEvent()
			if ev == nil {
				return
			}
			eventChan <- ev
		}
	})

	ticker := time.NewTicker(drawInterval)
	defer ticker.Stop()

	for {
		select {
		case ev := <-eventChan:
			if !v.handleEvent(ev) {
				cancel()
				v.collect()
				return v.halted
			}

		case err := <-v.runErr:
			// Keep showing the last good frame; a nil error means the step limit was reached
			v.halted = err
			v.runErr = nil

		case <-ticker.C:
			v.draw()
		}
	}
}

// start launches Run; Rearm happens here so commands issued right after are queued, not applied twice
func (v *Viewer) start() {
	v.runner.Rearm()
	v.halted = nil
	ch := make(chan error, 1)
	v.runErr = ch
	core.Go(func() {
		ch <- v.runner.Run(v.ctx)
	})
}

// collect waits for an outstanding Run goroutine to return
func (v *Viewer) collect() {
	if v.runErr != nil {
		v.halted = <-v.runErr
		v.runErr = nil
	}
}

// apply runs fn against the simulation between steps
// When the runner has stopped, fn runs here instead and restart relaunches stepping
func (v *Viewer) apply(name string, fn func(), restart bool) {
	if v.runErr != nil {
		if v.runner.Do(func(engine.Simulation) { fn() }) {
			return
		}
		if !v.runner.Stopped() {
			v.log.Warn("command queue full, dropped", "command", name)
			return
		}
		v.collect()
	}

	fn()
	if restart {
		v.log.Info("restarting runner", "command", name, "halted", v.halted)
		v.runner.Publish()
		v.start()
	}
}

func (v *Viewer) draw() {
	f := v.latest.Load()
	if f == nil {
		return
	}
	v.view.Draw(*f, v.runner.Registry().Snapshot())
}

// handleEvent returns false when the viewer should exit
func (v *Viewer) handleEvent(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		switch ev.Key() {
		case tcell.KeyEscape, tcell.KeyCtrlC:
			return false
		case tcell.KeyRune:
			switch ev.Rune() {
			case 'q':
				return false
			case 'r':
				v.reset()
			case ' ':
				v.runner.SetPaused(!v.runner.Paused())
			case 'p':
				v.togglePull()
			}
		}
	case *tcell.EventResize:
		v.screen.Sync()
		v.draw()
	}
	return true
}

func (v *Viewer) reset() {
	seed, jitter := v.cfg.Runner.Seed, v.cfg.Runner.Jitter
	v.apply("reset", func() {
		v.sim.Reset()
		physics.Perturb(v.sim.Grid(), seed, jitter)
	}, true)
}

func (v *Viewer) togglePull() {
	v.pullOn = !v.pullOn
	force := float32(0)
	if v.pullOn {
		force = v.cfg.Cloth.PullForce
	}
	v.apply("pull", func() { v.sim.SetPullForce(force) }, false)
	v.log.Info("pull toggled", "force", force)
}
