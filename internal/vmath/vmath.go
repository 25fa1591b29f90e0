// Package vmath collects the small numeric helpers shared by the drivetrain
// and the path-tracking strategies: clamping, interpolation, angle math and
// the critically damped smoothing filter.
package vmath

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/samber/lo"
)

// Epsilon is the additive guard used wherever a speed or distance could
// reach zero in a denominator.
const Epsilon = 1e-3

// Up is the world up axis. Yaw angles are measured about it.
var Up = mgl64.Vec3{0, 1, 0}

// Clamp limits v to [lo, hi].
func Clamp(v, min, max float64) float64 {
	return lo.Clamp(v, min, max)
}

// Clamp01 limits v to [0, 1].
func Clamp01(v float64) float64 {
	return lo.Clamp(v, 0, 1)
}

// ClampUnit limits v to [-1, 1], the range of every control input.
func ClampUnit(v float64) float64 {
	return lo.Clamp(v, -1, 1)
}

// Lerp interpolates between a and b with t clamped to [0, 1].
func Lerp(a, b, t float64) float64 {
	return a + (b-a)*Clamp01(t)
}

// InverseLerp returns where v lies between a and b, clamped to [0, 1].
// A degenerate range yields 0.
func InverseLerp(a, b, v float64) float64 {
	if a == b {
		return 0
	}
	return Clamp01((v - a) / (b - a))
}

// SafeNormalize returns the unit vector along v, or the zero vector when v is
// shorter than Epsilon.
func SafeNormalize(v mgl64.Vec3) mgl64.Vec3 {
	if v.Len() < Epsilon {
		return mgl64.Vec3{}
	}
	return v.Normalize()
}

// SignedAngleDeg returns the angle in degrees between from and to, signed by
// the direction of rotation about axis. A positive result means to lies
// clockwise of from when viewed from above (towards +X from +Z).
func SignedAngleDeg(from, to, axis mgl64.Vec3) float64 {
	a := SafeNormalize(from)
	b := SafeNormalize(to)
	if a.Len() == 0 || b.Len() == 0 {
		return 0
	}
	unsigned := mgl64.RadToDeg(math.Acos(Clamp(a.Dot(b), -1, 1)))
	if a.Cross(b).Dot(axis) < 0 {
		return -unsigned
	}
	return unsigned
}

// DeltaAngleDeg returns the shortest signed difference target-current in
// degrees, in (-180, 180].
func DeltaAngleDeg(current, target float64) float64 {
	d := math.Mod(target-current, 360)
	if d < 0 {
		d += 360
	}
	if d > 180 {
		d -= 360
	}
	return d
}

// SmoothDamp moves current towards target with a critically damped spring
// whose response time is roughly smoothTime. velocity carries the filter's
// state between calls and is updated in place. A non-positive dt leaves
// both current and velocity untouched.
func SmoothDamp(current, target float64, velocity *float64, smoothTime, dt float64) float64 {
	if dt <= 0 {
		return current
	}
	smoothTime = math.Max(1e-4, smoothTime)
	omega := 2 / smoothTime
	x := omega * dt
	decay := 1 / (1 + x + 0.48*x*x + 0.235*x*x*x)

	change := current - target
	temp := (*velocity + omega*change) * dt
	*velocity = (*velocity - omega*temp) * decay
	out := target + (change+temp)*decay

	// No overshoot past the target.
	if (target-current > 0) == (out > target) {
		out = target
		*velocity = 0
	}
	return out
}
