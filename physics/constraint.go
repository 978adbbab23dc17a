package physics

import (
	"github.com/lixenwraith/vi-cloth/core"
	"github.com/lixenwraith/vi-cloth/vmath"
)

// ConstraintKind identifies the geometric relation a constraint encodes
type ConstraintKind uint8

const (
	KindStructuralHorizontal ConstraintKind = iota
	KindStructuralVertical
	KindShear
	KindBendingHorizontal
	KindBendingVertical
	kindCount
)

func (k ConstraintKind) String() string {
	switch k {
	case KindStructuralHorizontal:
		return "structural-horizontal"
	case KindStructuralVertical:
		return "structural-vertical"
	case KindShear:
		return "shear"
	case KindBendingHorizontal:
		return "bending-horizontal"
	case KindBendingVertical:
		return "bending-vertical"
	default:
		return "unknown"
	}
}

// DistanceConstraint keeps two arena nodes near a rest length
// A and B are indices into the node arena, never pointers
type DistanceConstraint struct {
	A, B       int
	RestLength float32
	Kind       ConstraintKind
}

// Solve applies one Gauss-Seidel correction toward RestLength
// Coincident nodes are pushed apart along vmath.FallbackAxis
func (c *DistanceConstraint) Solve(nodes []core.Node) {
	a, b := &nodes[c.A], &nodes[c.B]

	wSum := a.InverseMass + b.InverseMass
	if wSum == 0 {
		return
	}

	dir, dist, _ := vmath.V3FNormalize(b.Position.Sub(a.Position))
	correction := (dist - c.RestLength) / wSum

	if !a.IsFixed() {
		a.Position = a.Position.Add(dir.Mul(correction * a.InverseMass))
	}
	if !b.IsFixed() {
		b.Position = b.Position.Sub(dir.Mul(correction * b.InverseMass))
	}
}

// Error returns the signed deviation from rest length
func (c *DistanceConstraint) Error(nodes []core.Node) float32 {
	return nodes[c.B].Position.Sub(nodes[c.A].Position).Len() - c.RestLength
}
