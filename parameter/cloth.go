package parameter

import "time"

// Cloth grid defaults
const (
	ClothWidth   = 20
	ClothHeight  = 20
	ClothSpacing = 0.1
	ClothMass    = 1.0
)

// Solver defaults
const (
	ClothDamping          = 0.1
	ClothTimeStep         = 0.02 // seconds per step
	ClothSolverIterations = 5
	// ClothGravity is carried in config but not applied by the step pipeline
	ClothGravity = -9.81
)

// Top edge pull
const (
	ClothPullForce       = 1.0 // velocity gained per second while below the cap
	ClothMaxPullDistance = 1.0 // cap on top row displacement above rest
)

// Runner defaults
const (
	// RunnerMaxBehind is how many intervals the runner may lag before re-basing its deadline
	RunnerMaxBehind = 2
	// FrameQueueSize bounds buffered frames per streaming client
	FrameQueueSize   = 4
	StreamWriteWait  = 2 * time.Second
	StreamPingEvery  = 20 * time.Second
	StreamPongWait   = 2 * StreamPingEvery
	StreamMaxClients = 32
)

// Noise jitter defaults
const (
	JitterAmplitude = 0.02
	JitterFrequency = 0.35
)

// Audio cue defaults
const (
	CueFrequency  = 660.0
	CueDuration   = 120 * time.Millisecond
	CueAttack     = 5 * time.Millisecond
	CueRelease    = 60 * time.Millisecond
	CueSampleRate = 44100
	CueVolume     = 0.4
)
