package physics

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/lixenwraith/vi-cloth/core"
	"github.com/lixenwraith/vi-cloth/parameter"
)

// Grid owns the node arena and the constraint list of a rectangular cloth
// Row 0 is the anchored bottom edge, row Height-1 the pulled top edge
type Grid struct {
	Width, Height int
	Spacing       float32

	// Nodes is row-major: index = row*Width + col
	Nodes []core.Node
	// Constraints are in relaxation order: structural, shear, bending
	Constraints []DistanceConstraint
}

// NewGrid allocates nodes on the z=0 plane and wires all constraint classes
func NewGrid(width, height int, spacing float32) (*Grid, error) {
	if width < 2 || height < 2 {
		return nil, fmt.Errorf("%w: got %dx%d", ErrInvalidDimensions, width, height)
	}
	if !(spacing > 0) {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidSpacing, spacing)
	}

	g := &Grid{
		Width:       width,
		Height:      height,
		Spacing:     spacing,
		Nodes:       make([]core.Node, 0, width*height),
		Constraints: make([]DistanceConstraint, 0, ConstraintCount(width, height)),
	}

	for row := 0; row < height; row++ {
		mobility := core.MobilityFree
		if row == 0 {
			mobility = core.MobilityFixed
		}
		for col := 0; col < width; col++ {
			pos := mgl32.Vec3{float32(col) * spacing, float32(row) * spacing, 0}
			g.Nodes = append(g.Nodes, core.NewNode(pos, parameter.ClothMass, mobility))
		}
	}

	g.connect()
	return g, nil
}

func (g *Grid) connect() {
	s := g.Spacing
	diag := s * float32(math.Sqrt2)

	// Structural
	for row := 0; row < g.Height; row++ {
		for col := 0; col < g.Width-1; col++ {
			g.link(row, col, row, col+1, s, KindStructuralHorizontal)
		}
	}
	for row := 0; row < g.Height-1; row++ {
		for col := 0; col < g.Width; col++ {
			g.link(row, col, row+1, col, s, KindStructuralVertical)
		}
	}

	// Shear: both diagonals of every cell
	for row := 0; row < g.Height-1; row++ {
		for col := 0; col < g.Width-1; col++ {
			g.link(row, col, row+1, col+1, diag, KindShear)
			g.link(row+1, col, row, col+1, diag, KindShear)
		}
	}

	// Bending
	for row := 0; row < g.Height; row++ {
		for col := 0; col < g.Width-2; col++ {
			g.link(row, col, row, col+2, 2*s, KindBendingHorizontal)
		}
	}
	for row := 0; row < g.Height-2; row++ {
		for col := 0; col < g.Width; col++ {
			g.link(row, col, row+2, col, 2*s, KindBendingVertical)
		}
	}
}

func (g *Grid) link(r1, c1, r2, c2 int, rest float32, kind ConstraintKind) {
	if !g.InBounds(r1, c1) || !g.InBounds(r2, c2) {
		return
	}
	g.Constraints = append(g.Constraints, DistanceConstraint{
		A:          g.Index(r1, c1),
		B:          g.Index(r2, c2),
		RestLength: rest,
		Kind:       kind,
	})
}

// ConstraintCount returns the number of constraints NewGrid wires for width x height
func ConstraintCount(width, height int) int {
	if width < 2 || height < 2 {
		return 0
	}
	structural := height*(width-1) + (height-1)*width
	shear := 2 * (width - 1) * (height - 1)
	bending := height*max(width-2, 0) + max(height-2, 0)*width
	return structural + shear + bending
}

// Index maps (row, col) to the arena index
func (g *Grid) Index(row, col int) int {
	return row*g.Width + col
}

// InBounds reports whether (row, col) addresses a node
func (g *Grid) InBounds(row, col int) bool {
	return row >= 0 && row < g.Height && col >= 0 && col < g.Width
}

// Node returns the node at (row, col)
func (g *Grid) Node(row, col int) *core.Node {
	return &g.Nodes[g.Index(row, col)]
}

// Row returns the row of an arena index
func (g *Grid) Row(index int) int {
	return index / g.Width
}

// CountByKind tallies constraints per relation class
func (g *Grid) CountByKind() map[ConstraintKind]int {
	counts := make(map[ConstraintKind]int, kindCount)
	for i := range g.Constraints {
		counts[g.Constraints[i].Kind]++
	}
	return counts
}

// Positions copies node positions into dst, reusing its capacity
func (g *Grid) Positions(dst []mgl32.Vec3) []mgl32.Vec3 {
	dst = dst[:0]
	for i := range g.Nodes {
		dst = append(dst, g.Nodes[i].Position)
	}
	return dst
}

// Reset returns every node to its construction state
func (g *Grid) Reset() {
	for i := range g.Nodes {
		g.Nodes[i].Anchor()
	}
}
