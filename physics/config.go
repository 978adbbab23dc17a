package physics

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/lixenwraith/vi-cloth/parameter"
)

// Configuration errors
var (
	ErrInvalidDimensions = errors.New("cloth width and height must be at least 2")
	ErrInvalidSpacing    = errors.New("node spacing must be positive")
	ErrInvalidTimeStep   = errors.New("time step must be positive")
	ErrInvalidIterations = errors.New("solver iterations must be at least 1")
	ErrInvalidDamping    = errors.New("damping must be in [0, 1)")
	ErrInvalidPull       = errors.New("pull force and max pull distance must not be negative")
)

// Config holds the construction inputs of a cloth simulation
type Config struct {
	Width            int     `yaml:"width"`
	Height           int     `yaml:"height"`
	Spacing          float32 `yaml:"spacing"`
	Damping          float32 `yaml:"damping"`
	TimeStep         float32 `yaml:"time_step"` // seconds
	SolverIterations int     `yaml:"solver_iterations"`
	PullForce        float32 `yaml:"pull_force"`
	MaxPullDistance  float32 `yaml:"max_pull_distance"`

	// Gravity is stored for completeness; the step pipeline does not apply it
	Gravity float32 `yaml:"gravity"`
}

// DefaultConfig returns the stock cloth tuning
func DefaultConfig() Config {
	return Config{
		Width:            parameter.ClothWidth,
		Height:           parameter.ClothHeight,
		Spacing:          parameter.ClothSpacing,
		Damping:          parameter.ClothDamping,
		TimeStep:         parameter.ClothTimeStep,
		SolverIterations: parameter.ClothSolverIterations,
		PullForce:        parameter.ClothPullForce,
		MaxPullDistance:  parameter.ClothMaxPullDistance,
		Gravity:          parameter.ClothGravity,
	}
}

// Validate rejects configurations that produce a degenerate grid or solver
// All violations are reported, joined
func (c Config) Validate() error {
	var errs []error
	if c.Width < 2 || c.Height < 2 {
		errs = append(errs, fmt.Errorf("%w: got %dx%d", ErrInvalidDimensions, c.Width, c.Height))
	}
	if !(c.Spacing > 0) {
		errs = append(errs, fmt.Errorf("%w: got %v", ErrInvalidSpacing, c.Spacing))
	}
	if !(c.TimeStep > 0) {
		errs = append(errs, fmt.Errorf("%w: got %v", ErrInvalidTimeStep, c.TimeStep))
	}
	if c.SolverIterations < 1 {
		errs = append(errs, fmt.Errorf("%w: got %d", ErrInvalidIterations, c.SolverIterations))
	}
	if !(c.Damping >= 0 && c.Damping < 1) {
		errs = append(errs, fmt.Errorf("%w: got %v", ErrInvalidDamping, c.Damping))
	}
	if !(c.PullForce >= 0) || !(c.MaxPullDistance >= 0) {
		errs = append(errs, fmt.Errorf("%w: got force %v, distance %v", ErrInvalidPull, c.PullForce, c.MaxPullDistance))
	}
	return errors.Join(errs...)
}

// StepDuration converts TimeStep to a wall-clock duration rounded to whole microseconds
func (c Config) StepDuration() time.Duration {
	return time.Duration(math.Round(float64(c.TimeStep)*1e6)) * time.Microsecond
}
