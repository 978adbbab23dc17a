package engine

import "github.com/go-gl/mathgl/mgl32"

// Frame is a snapshot of the cloth taken between steps
// Positions is a private copy; observers may retain it
type Frame struct {
	Tick       uint64       `json:"tick"`
	Width      int          `json:"width"`
	Height     int          `json:"height"`
	Positions  []mgl32.Vec3 `json:"positions"`
	Residual   float64      `json:"residual"`
	MaxStretch float32      `json:"max_stretch"`
	Capped     bool         `json:"capped"`
}

// At returns the position of node (row, col)
func (f *Frame) At(row, col int) mgl32.Vec3 {
	return f.Positions[row*f.Width+col]
}

// Observer receives frames on the runner goroutine and must not block
type Observer func(Frame)
