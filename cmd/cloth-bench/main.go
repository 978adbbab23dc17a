package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/guptarohit/asciigraph"
	"golang.org/x/sync/errgroup"

	"github.com/lixenwraith/vi-cloth/config"
	"github.com/lixenwraith/vi-cloth/engine"
	"github.com/lixenwraith/vi-cloth/physics"
)

// result is the residual trace of one solver-iteration setting
type result struct {
	iterations int
	residuals  []float64
	peak       float32
	capped     int // steps with the top row at the pull cap
	elapsed    time.Duration
}

func main() {
	configPath := flag.String("config", "cloth.yaml", "path to YAML config")
	steps := flag.Int("steps", 200, "steps per run")
	iterList := flag.String("iterations", "1,2,5,10,20", "comma separated solver iteration counts")
	flag.Parse()

	if err := run(context.Background(), *configPath, *steps, *iterList, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "cloth-bench: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string, steps int, iterList string, out io.Writer) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if steps < 1 {
		return fmt.Errorf("steps must be positive, got %d", steps)
	}
	counts, err := parseCounts(iterList)
	if err != nil {
		return err
	}

	results := make([]result, len(counts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i, n := range counts {
		i, n := i, n
		g.Go(func() error {
			r, err := sweep(gctx, cfg, n, steps)
			if err != nil {
				return fmt.Errorf("iterations=%d: %w", n, err)
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	report(out, cfg, steps, results)
	return nil
}

// sweep runs one simulation with its own grid and records the residual after every step
func sweep(ctx context.Context, base config.Config, iterations, steps int) (result, error) {
	cloth := base.Cloth
	cloth.SolverIterations = iterations

	sim, err := physics.NewSimulator(cloth)
	if err != nil {
		return result{}, err
	}
	physics.Perturb(sim.Grid(), base.Runner.Seed, base.Runner.Jitter)

	runner := engine.NewRunner(sim, engine.Options{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})

	r := result{iterations: iterations, residuals: make([]float64, 0, steps)}
	start := time.Now()
	for i := 0; i < steps; i++ {
		if err := ctx.Err(); err != nil {
			return result{}, err
		}
		frame, err := runner.StepOnce()
		if err != nil {
			return result{}, fmt.Errorf("step %d: %w", i+1, err)
		}
		r.residuals = append(r.residuals, frame.Residual)
		r.peak = max(r.peak, frame.MaxStretch)
		if frame.Capped {
			r.capped++
		}
	}
	r.elapsed = time.Since(start)
	return r, nil
}

func report(out io.Writer, cfg config.Config, steps int, results []result) {
	series := make([][]float64, len(results))
	labels := make([]string, len(results))
	for i, r := range results {
		series[i] = make([]float64, len(r.residuals))
		for j, v := range r.residuals {
			series[i][j] = math.Log10(v + 1e-12)
		}
		labels[i] = strconv.Itoa(r.iterations)
	}

	fmt.Fprintf(out, "cloth %dx%d spacing %.3g dt %.3g pull %.3g, %d steps\n\n",
		cfg.Cloth.Width, cfg.Cloth.Height, cfg.Cloth.Spacing, cfg.Cloth.TimeStep, cfg.Cloth.PullForce, steps)

	chart := asciigraph.PlotMany(series,
		asciigraph.Height(12),
		asciigraph.Width(72),
		asciigraph.Precision(1),
		asciigraph.Caption("log10 residual per step, iterations "+strings.Join(labels, ",")))
	fmt.Fprintln(out, chart)
	fmt.Fprintln(out)

	fmt.Fprintf(out, "%10s %14s %14s %12s %8s %12s\n", "iterations", "final", "mean", "peak", "capped", "step")
	for _, r := range results {
		var sum float64
		for _, v := range r.residuals {
			sum += v
		}
		n := len(r.residuals)
		fmt.Fprintf(out, "%10d %14.4e %14.4e %12.5f %8d %12s\n",
			r.iterations,
			r.residuals[n-1],
			sum/float64(n),
			r.peak,
			r.capped,
			(r.elapsed / time.Duration(n)).Round(time.Microsecond))
	}
}

// parseCounts reads a comma separated list of positive solver iteration counts
func parseCounts(list string) ([]int, error) {
	var counts []int
	for _, f := range strings.Split(list, ",") {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		n, err := strconv.Atoi(f)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("invalid iteration count %q", f)
		}
		counts = append(counts, n)
	}
	if len(counts) == 0 {
		return nil, fmt.Errorf("no iteration counts in %q", list)
	}
	return counts, nil
}
