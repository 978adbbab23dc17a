package mesh

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lixenwraith/vi-cloth/physics"
)

func restPositions(t *testing.T, w, h int) []mgl32.Vec3 {
	t.Helper()
	g, err := physics.NewGrid(w, h, 1)
	require.NoError(t, err)
	return g.Positions(nil)
}

func TestBuild_Triangulation(t *testing.T) {
	m, err := Build(3, 2, restPositions(t, 3, 2))
	require.NoError(t, err)

	assert.Equal(t, 4, m.TriangleCount())
	// First cell: (i,j)-(i+1,j)-(i,j+1) and (i,j+1)-(i+1,j)-(i+1,j+1)
	assert.Equal(t, []uint32{0, 3, 1, 1, 3, 4}, m.Triangles[:6])
	assert.Equal(t, []uint32{1, 4, 2, 2, 4, 5}, m.Triangles[6:])
}

func TestBuild_UVs(t *testing.T) {
	m, err := Build(3, 3, restPositions(t, 3, 3))
	require.NoError(t, err)

	assert.Equal(t, mgl32.Vec2{0, 0}, m.UVs[0])
	assert.Equal(t, mgl32.Vec2{0.5, 0}, m.UVs[1])
	assert.Equal(t, mgl32.Vec2{1, 1}, m.UVs[8])
}

func TestBuild_FlatNormals(t *testing.T) {
	m, err := Build(4, 4, restPositions(t, 4, 4))
	require.NoError(t, err)

	// The grid lies in z=0 with counter-clockwise winding seen from -Z
	want := mgl32.Vec3{0, 0, -1}
	for i, n := range m.Normals {
		assert.True(t, n.ApproxEqualThreshold(want, 1e-6), "normal %d: %v", i, n)
	}
}

func TestBuild_DegenerateFallsBackToRestNormal(t *testing.T) {
	positions := make([]mgl32.Vec3, 4)
	m, err := Build(2, 2, positions)
	require.NoError(t, err)
	for _, n := range m.Normals {
		assert.Equal(t, mgl32.Vec3{0, 0, -1}, n)
	}

	// A collapsed cloth must agree with the flat one
	flat, err := Build(2, 2, restPositions(t, 2, 2))
	require.NoError(t, err)
	assert.True(t, flat.Normals[0].ApproxEqualThreshold(m.Normals[0], 1e-6))
}

func TestUpdate_ShapeMismatch(t *testing.T) {
	m, err := Build(2, 2, restPositions(t, 2, 2))
	require.NoError(t, err)
	assert.ErrorIs(t, m.Update(make([]mgl32.Vec3, 3)), ErrShape)

	_, err = Build(1, 2, nil)
	assert.ErrorIs(t, err, ErrShape)
}

func TestUpdate_CopiesVertices(t *testing.T) {
	pos := restPositions(t, 2, 2)
	m, err := Build(2, 2, pos)
	require.NoError(t, err)

	pos[3] = mgl32.Vec3{5, 5, 5}
	assert.NotEqual(t, pos[3], m.Vertices[3])

	require.NoError(t, m.Update(pos))
	assert.Equal(t, pos[3], m.Vertices[3])
}
