package physics

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/lixenwraith/vi-cloth/core"
	"github.com/lixenwraith/vi-cloth/vmath"
)

// Simulator advances a Grid with a position-based Verlet pipeline
// Not safe for concurrent use: Step mutates the arena in place, readers must wait for it to return
type Simulator struct {
	cfg  Config
	grid *Grid
	tick uint64
}

// NewSimulator validates cfg and builds its grid
func NewSimulator(cfg Config) (*Simulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid cloth config: %w", err)
	}
	grid, err := NewGrid(cfg.Width, cfg.Height, cfg.Spacing)
	if err != nil {
		return nil, err
	}
	return &Simulator{cfg: cfg, grid: grid}, nil
}

// Config returns the active configuration
func (s *Simulator) Config() Config {
	return s.cfg
}

// Grid exposes the simulated grid for read access between steps
func (s *Simulator) Grid() *Grid {
	return s.grid
}

// Tick returns the number of completed steps
func (s *Simulator) Tick() uint64 {
	return s.tick
}

// SetPullForce changes the top edge pull rate; negative values are clamped to 0
func (s *Simulator) SetPullForce(force float32) {
	s.cfg.PullForce = max(force, 0)
}

// Reset restores the rest state and the tick counter
func (s *Simulator) Reset() {
	s.grid.Reset()
	s.tick = 0
}

// Step advances the cloth by dt seconds
// Stage order: external pull, damping, integration, relaxation, velocity reconciliation
// Non-positive or non-finite dt leaves the state untouched
func (s *Simulator) Step(dt float32) {
	if !(dt > 0) || !vmath.FiniteF(dt) {
		return
	}

	s.applyPull(dt)
	s.dampVelocity()
	s.integrate(dt)
	for i := 0; i < s.cfg.SolverIterations; i++ {
		s.Relax()
	}
	s.reconcileVelocity(dt)

	s.tick++
}

// applyPull raises the velocity of free top-row nodes at a constant rate while below the cap
// Gravity is intentionally not applied here
func (s *Simulator) applyPull(dt float32) {
	top := s.topRow()
	up := mgl32.Vec3{0, s.cfg.PullForce * dt, 0}
	for i := range top {
		n := &top[i]
		if n.IsFixed() {
			continue
		}
		if s.cfg.MaxPullDistance-n.Stretch() > 0 {
			n.Velocity = n.Velocity.Add(up)
		}
	}
}

func (s *Simulator) dampVelocity() {
	keep := 1 - s.cfg.Damping
	for i := range s.grid.Nodes {
		n := &s.grid.Nodes[i]
		if n.IsFixed() {
			continue
		}
		n.Velocity = n.Velocity.Mul(keep)
	}
}

func (s *Simulator) integrate(dt float32) {
	topStart := s.grid.Index(s.grid.Height-1, 0)
	for i := range s.grid.Nodes {
		n := &s.grid.Nodes[i]
		if n.IsFixed() {
			continue
		}
		n.PreviousPosition = n.Position
		n.Position = n.Position.Add(n.Velocity.Mul(dt))

		if i >= topStart {
			n.Position[1] = vmath.ClampF(n.Position[1], -math.MaxFloat32, n.InitialPosition[1]+s.cfg.MaxPullDistance)
		}
	}
}

// Relax runs one solver iteration: a full constraint pass in construction order,
// then fixed nodes are re-anchored
func (s *Simulator) Relax() {
	nodes := s.grid.Nodes
	for i := range s.grid.Constraints {
		s.grid.Constraints[i].Solve(nodes)
	}
	for i := range nodes {
		if nodes[i].IsFixed() {
			nodes[i].Position = nodes[i].InitialPosition
		}
	}
}

// reconcileVelocity derives velocity from the position delta, discarding the explicit pre-pass
func (s *Simulator) reconcileVelocity(dt float32) {
	inv := 1 / dt
	for i := range s.grid.Nodes {
		n := &s.grid.Nodes[i]
		if n.IsFixed() {
			continue
		}
		n.Velocity = n.Position.Sub(n.PreviousPosition).Mul(inv)
	}
}

func (s *Simulator) topRow() []core.Node {
	return s.grid.Nodes[s.grid.Index(s.grid.Height-1, 0):]
}
