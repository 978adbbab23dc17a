package vmath

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// DegenerateEpsilon is the length below which a vector has no usable direction
const DegenerateEpsilon float32 = 1e-6

// FallbackAxis is the direction used when a vector is degenerate
var FallbackAxis = mgl32.Vec3{1, 0, 0}

// V3FNormalize returns the unit vector of v and its length
// Degenerate vectors return FallbackAxis and ok=false instead of dividing by zero
func V3FNormalize(v mgl32.Vec3) (dir mgl32.Vec3, length float32, ok bool) {
	length = v.Len()
	if length <= DegenerateEpsilon {
		return FallbackAxis, length, false
	}
	inv := 1 / length
	return mgl32.Vec3{v[0] * inv, v[1] * inv, v[2] * inv}, length, true
}

// V3FFinite reports whether every component is a finite number
func V3FFinite(v mgl32.Vec3) bool {
	for _, c := range v {
		f := float64(c)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return true
}

// V3FDistSq returns squared distance in float64 to keep residual sums precise
func V3FDistSq(a, b mgl32.Vec3) float64 {
	dx := float64(b[0] - a[0])
	dy := float64(b[1] - a[1])
	dz := float64(b[2] - a[2])
	return dx*dx + dy*dy + dz*dz
}

// ClampF limits v to [lo, hi]
func ClampF(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// FiniteF reports whether f is neither NaN nor Inf
func FiniteF(f float32) bool {
	d := float64(f)
	return !math.IsNaN(d) && !math.IsInf(d, 0)
}
