// Package mesh turns cloth node positions into a renderable triangle mesh
package mesh

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/lixenwraith/vi-cloth/vmath"
)

// ErrShape is returned when positions do not match the grid dimensions
var ErrShape = errors.New("positions do not match grid dimensions")

// Mesh is a vertex buffer with one vertex per node and a regular grid triangulation
type Mesh struct {
	Width, Height int

	Vertices  []mgl32.Vec3
	UVs       []mgl32.Vec2
	Normals   []mgl32.Vec3
	Triangles []uint32 // three indices per triangle
}

// Build creates a mesh for a width x height grid of positions in row-major order
func Build(width, height int, positions []mgl32.Vec3) (*Mesh, error) {
	if width < 2 || height < 2 {
		return nil, fmt.Errorf("%w: grid %dx%d", ErrShape, width, height)
	}
	m := &Mesh{
		Width:     width,
		Height:    height,
		Vertices:  make([]mgl32.Vec3, width*height),
		UVs:       make([]mgl32.Vec2, width*height),
		Normals:   make([]mgl32.Vec3, width*height),
		Triangles: make([]uint32, 0, (width-1)*(height-1)*6),
	}

	for row := 0; row < height; row++ {
		for col := 0; col < width; col++ {
			m.UVs[row*width+col] = mgl32.Vec2{
				float32(col) / float32(width-1),
				float32(row) / float32(height-1),
			}
		}
	}

	for row := 0; row < height-1; row++ {
		for col := 0; col < width-1; col++ {
			i := uint32(row*width + col)
			w := uint32(width)
			m.Triangles = append(m.Triangles,
				i, i+w, i+1,
				i+1, i+w, i+w+1,
			)
		}
	}

	if err := m.Update(positions); err != nil {
		return nil, err
	}
	return m, nil
}

// Update refreshes vertices and recomputes normals in place
func (m *Mesh) Update(positions []mgl32.Vec3) error {
	if len(positions) != len(m.Vertices) {
		return fmt.Errorf("%w: got %d positions, want %d", ErrShape, len(positions), len(m.Vertices))
	}
	copy(m.Vertices, positions)
	m.recalculateNormals()
	return nil
}

// TriangleCount returns the number of triangles
func (m *Mesh) TriangleCount() int {
	return len(m.Triangles) / 3
}

// restNormal is the face normal of the rest pose: the (i, i+w, i+1) winding faces -Z
var restNormal = mgl32.Vec3{0, 0, -1}

// recalculateNormals accumulates area-weighted face normals per vertex
// Vertices touching only degenerate faces fall back to restNormal
func (m *Mesh) recalculateNormals() {
	for i := range m.Normals {
		m.Normals[i] = mgl32.Vec3{}
	}
	for t := 0; t+2 < len(m.Triangles); t += 3 {
		a, b, c := m.Triangles[t], m.Triangles[t+1], m.Triangles[t+2]
		face := m.Vertices[b].Sub(m.Vertices[a]).Cross(m.Vertices[c].Sub(m.Vertices[a]))
		m.Normals[a] = m.Normals[a].Add(face)
		m.Normals[b] = m.Normals[b].Add(face)
		m.Normals[c] = m.Normals[c].Add(face)
	}
	for i, n := range m.Normals {
		dir, _, ok := vmath.V3FNormalize(n)
		if !ok {
			dir = restNormal
		}
		m.Normals[i] = dir
	}
}
