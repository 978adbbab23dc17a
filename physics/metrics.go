package physics

import (
	"math"

	"github.com/lixenwraith/vi-cloth/vmath"
)

// Residual returns the sum of squared constraint-length errors
func (g *Grid) Residual() float64 {
	var sum float64
	for i := range g.Constraints {
		c := &g.Constraints[i]
		d := math.Sqrt(vmath.V3FDistSq(g.Nodes[c.A].Position, g.Nodes[c.B].Position)) - float64(c.RestLength)
		sum += d * d
	}
	return sum
}

// Finite reports whether every position and velocity is a finite number
func (g *Grid) Finite() bool {
	for i := range g.Nodes {
		if !vmath.V3FFinite(g.Nodes[i].Position) || !vmath.V3FFinite(g.Nodes[i].Velocity) {
			return false
		}
	}
	return true
}

// Residual is the grid residual of the simulated cloth
func (s *Simulator) Residual() float64 {
	return s.grid.Residual()
}

// Finite reports whether the simulation state is free of NaN/Inf
func (s *Simulator) Finite() bool {
	return s.grid.Finite()
}

// MaxStretch returns the largest top-row displacement above rest
func (s *Simulator) MaxStretch() float32 {
	top := s.topRow()
	var m float32
	for i := range top {
		m = max(m, top[i].Stretch())
	}
	return m
}

// capEpsilon absorbs float32 rounding between the clamp and the stretch readback
const capEpsilon = 1e-4

// Capped reports whether the pull is active and a free top-row node sits at its cap
func (s *Simulator) Capped() bool {
	if s.cfg.PullForce == 0 {
		return false
	}
	top := s.topRow()
	for i := range top {
		if !top[i].IsFixed() && top[i].Stretch() >= s.cfg.MaxPullDistance-capEpsilon {
			return true
		}
	}
	return false
}
