package physics

import (
	"github.com/go-gl/mathgl/mgl32"
	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/lixenwraith/vi-cloth/parameter"
)

// Perturb displaces free nodes in the x/y plane by a simplex noise field
// Displacement per axis is within [-amplitude, amplitude]; fixed nodes are untouched
// The same seed always produces the same displacement
func Perturb(g *Grid, seed int64, amplitude float32) {
	if amplitude == 0 {
		return
	}
	noise := opensimplex.NewNormalized(seed)
	freq := float64(parameter.JitterFrequency)

	for row := 0; row < g.Height; row++ {
		for col := 0; col < g.Width; col++ {
			n := g.Node(row, col)
			if n.IsFixed() {
				continue
			}
			x, y := float64(col)*freq, float64(row)*freq
			// Normalized noise is in [0, 1); offset the y sample so axes decorrelate
			dx := float32(noise.Eval2(x, y)*2-1) * amplitude
			dy := float32(noise.Eval2(x+97.3, y+31.7)*2-1) * amplitude

			n.Position = n.Position.Add(mgl32.Vec3{dx, dy, 0})
			n.PreviousPosition = n.Position
		}
	}
}
