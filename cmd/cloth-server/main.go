package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/lixenwraith/vi-cloth/config"
	"github.com/lixenwraith/vi-cloth/engine"
	"github.com/lixenwraith/vi-cloth/network"
	"github.com/lixenwraith/vi-cloth/physics"
)

const shutdownTimeout = 5 * time.Second

func main() {
	configPath := flag.String("config", "cloth.yaml", "path to YAML config")
	addr := flag.String("addr", "", "listen address (overrides config)")
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("shutting down", "signal", sig)
		cancel()
	}()

	if err := run(ctx, *configPath, *addr); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath, addr string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}

	logOut := os.Stdout
	if cfg.Log.File != "" {
		f, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("opening log file: %w", err)
		}
		defer f.Close()
		logOut = f
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(logOut, &slog.HandlerOptions{
		Level: config.ParseLogLevel(cfg.Log.Level),
	})))
	slog.Info("cloth server starting",
		"addr", cfg.Server.Addr,
		"width", cfg.Cloth.Width,
		"height", cfg.Cloth.Height,
		"iterations", cfg.Cloth.SolverIterations)

	sim, err := physics.NewSimulator(cfg.Cloth)
	if err != nil {
		return fmt.Errorf("creating simulator: %w", err)
	}
	physics.Perturb(sim.Grid(), cfg.Runner.Seed, cfg.Runner.Jitter)

	runner := engine.NewRunner(sim, engine.Options{
		Interval: cfg.Interval(),
		MaxSteps: cfg.Runner.MaxSteps,
	})

	hub, err := network.NewHub(cfg.Cloth, runner.Registry(), slog.Default())
	if err != nil {
		return fmt.Errorf("creating hub: %w", err)
	}
	runner.Observe(hub.Observe)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           hub.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		// Runner returning (halt or step limit) stops the server too
		err := runner.Run(gctx)
		if err != nil {
			return fmt.Errorf("runner: %w", err)
		}
		return context.Canceled
	})

	g.Go(func() error {
		slog.Info("http listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		hub.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	sent, dropped := hub.Stats()
	slog.Info("cloth server stopped", "tick", sim.Tick(), "frames_sent", sent, "frames_dropped", dropped)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
