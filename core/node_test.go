package core

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestNewNode_RestState(t *testing.T) {
	pos := mgl32.Vec3{1, 2, 0}
	n := NewNode(pos, 2, MobilityFree)

	assert.Equal(t, pos, n.Position)
	assert.Equal(t, pos, n.PreviousPosition)
	assert.Equal(t, pos, n.InitialPosition)
	assert.Equal(t, mgl32.Vec3{}, n.Velocity)
	assert.Equal(t, float32(0.5), n.InverseMass)
	assert.False(t, n.IsFixed())
}

func TestNewNode_InfiniteMass(t *testing.T) {
	for _, mass := range []float32{0, -1} {
		n := NewNode(mgl32.Vec3{}, mass, MobilityFree)
		assert.Zero(t, n.InverseMass, "mass %v", mass)
	}
}

func TestNode_AnchorRestoresInitial(t *testing.T) {
	n := NewNode(mgl32.Vec3{0, 1, 0}, 1, MobilityFixed)
	n.Position = mgl32.Vec3{3, 3, 3}
	n.PreviousPosition = mgl32.Vec3{2, 2, 2}
	n.Velocity = mgl32.Vec3{1, 1, 1}

	n.Anchor()

	assert.True(t, n.IsFixed())
	assert.Equal(t, n.InitialPosition, n.Position)
	assert.Equal(t, n.InitialPosition, n.PreviousPosition)
	assert.Equal(t, mgl32.Vec3{}, n.Velocity)
}

func TestNode_Stretch(t *testing.T) {
	n := NewNode(mgl32.Vec3{0, 1, 0}, 1, MobilityFree)
	n.Position[1] = 1.25
	assert.InDelta(t, 0.25, n.Stretch(), 1e-6)
}

func TestMobility_String(t *testing.T) {
	assert.Equal(t, "free", MobilityFree.String())
	assert.Equal(t, "fixed", MobilityFixed.String())
	assert.Equal(t, "unknown", Mobility(9).String())
}
