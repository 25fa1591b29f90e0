package kinematics

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
)

func TestPoseAxes(t *testing.T) {
	t.Parallel()

	p := Pose{Yaw: math.Pi / 2}
	assertVec(t, mgl64.Vec3{1, 0, 0}, p.Forward())
	assertVec(t, mgl64.Vec3{0, 0, -1}, p.Right())
}

func assertVec(t *testing.T, want, got mgl64.Vec3) {
	t.Helper()
	for i := range want {
		assert.InDelta(t, want[i], got[i], 1e-12, "component %d", i)
	}
}

func TestPoseLocal(t *testing.T) {
	t.Parallel()

	t.Run("identity pose", func(t *testing.T) {
		p := Pose{}
		assert.Equal(t, mgl64.Vec3{2, 0, 5}, p.Local(mgl64.Vec3{2, 0, 5}))
	})

	t.Run("rotated and translated", func(t *testing.T) {
		p := Pose{Position: mgl64.Vec3{10, 0, 0}, Yaw: math.Pi / 2}
		local := p.Local(mgl64.Vec3{15, 0, 0})
		assert.InDelta(t, 0, local.X(), 1e-12)
		assert.InDelta(t, 5, local.Z(), 1e-12)
	})
}

func TestForwardSpeed(t *testing.T) {
	t.Parallel()

	p := Pose{Velocity: mgl64.Vec3{0, 0, -3}}
	assert.InDelta(t, -3, p.ForwardSpeed(), 1e-12)
	assert.InDelta(t, 3, p.Speed(), 1e-12)
}

func TestHeadingTo(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 0, HeadingTo(mgl64.Vec3{}, mgl64.Vec3{0, 0, 4}), 1e-12)
	assert.InDelta(t, math.Pi/2, HeadingTo(mgl64.Vec3{}, mgl64.Vec3{4, 0, 0}), 1e-12)
}

func TestBicycleStep(t *testing.T) {
	t.Parallel()

	model := Bicycle{WheelBase: 2.5, MaxSpeed: 20}

	t.Run("straight line", func(t *testing.T) {
		s := model.Step(BicycleState{Speed: 10}, 0, 0, 0.5)
		assert.InDelta(t, 5, s.Position.Z(), 1e-12)
		assert.InDelta(t, 0, s.Position.X(), 1e-12)
		assert.Equal(t, 0.0, s.Yaw)
	})

	t.Run("positive steer turns right", func(t *testing.T) {
		s := model.Step(BicycleState{Speed: 10}, 0, 0.2, 0.1)
		assert.Greater(t, s.Yaw, 0.0)
	})

	t.Run("speed is clamped", func(t *testing.T) {
		s := model.Step(BicycleState{Speed: 19}, 100, 0, 0.1)
		assert.Equal(t, 20.0, s.Speed)
		s = model.Step(BicycleState{Speed: 1}, -100, 0, 0.1)
		assert.Equal(t, 0.0, s.Speed)
	})
}
