package core

import "github.com/go-gl/mathgl/mgl32"

// Mobility tags whether a node takes part in integration and constraint correction
type Mobility uint8

const (
	// MobilityFree nodes are integrated and displaced by constraints
	MobilityFree Mobility = iota
	// MobilityFixed nodes stay pinned to their initial position
	MobilityFixed
)

func (m Mobility) String() string {
	switch m {
	case MobilityFree:
		return "free"
	case MobilityFixed:
		return "fixed"
	default:
		return "unknown"
	}
}

// Node is a point mass in the cloth arena
type Node struct {
	// Position is the current world position, mutated every step
	Position mgl32.Vec3
	// PreviousPosition is the position before the last integration (Verlet velocity source)
	PreviousPosition mgl32.Vec3
	// Velocity is the explicit velocity used by the force and damping stages
	Velocity mgl32.Vec3
	// InitialPosition is the construction position; anchor target and stretch reference
	InitialPosition mgl32.Vec3
	// InverseMass is 1/mass, 0 denotes infinite mass
	InverseMass float32
	Mobility    Mobility
}

// NewNode creates a node at rest. Non-positive mass yields infinite mass (InverseMass = 0)
func NewNode(position mgl32.Vec3, mass float32, mobility Mobility) Node {
	var inv float32
	if mass > 0 {
		inv = 1 / mass
	}
	return Node{
		Position:         position,
		PreviousPosition: position,
		InitialPosition:  position,
		InverseMass:      inv,
		Mobility:         mobility,
	}
}

// IsFixed reports whether the node is pinned
func (n *Node) IsFixed() bool {
	return n.Mobility == MobilityFixed
}

// Anchor snaps the node back to its initial position and clears motion
func (n *Node) Anchor() {
	n.Position = n.InitialPosition
	n.PreviousPosition = n.InitialPosition
	n.Velocity = mgl32.Vec3{}
}

// Stretch returns the vertical displacement from the initial position
func (n *Node) Stretch() float32 {
	return n.Position.Y() - n.InitialPosition.Y()
}
