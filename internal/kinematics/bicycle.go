package kinematics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// BicycleState is the reduced planar state propagated by Bicycle.
type BicycleState struct {
	Position mgl64.Vec3
	Yaw      float64 // radians
	Speed    float64 // m/s along the heading
}

// Bicycle is a kinematic single-track vehicle model.
type Bicycle struct {
	WheelBase float64 // metres, front to rear axle
	MaxSpeed  float64 // speed is clamped to [0, MaxSpeed] after each step; 0 disables the cap
}

// Step advances s by dt seconds under longitudinal acceleration accel (m/s²)
// and front-wheel steering angle steer (radians). Position is integrated
// with the speed at the start of the step, then heading, then speed.
func (b Bicycle) Step(s BicycleState, accel, steer, dt float64) BicycleState {
	s.Position = mgl64.Vec3{
		s.Position.X() + s.Speed*math.Sin(s.Yaw)*dt,
		s.Position.Y(),
		s.Position.Z() + s.Speed*math.Cos(s.Yaw)*dt,
	}
	if b.WheelBase > 0 {
		s.Yaw += s.Speed / b.WheelBase * math.Tan(steer) * dt
	}
	s.Speed += accel * dt
	if b.MaxSpeed > 0 {
		s.Speed = math.Min(math.Max(s.Speed, 0), b.MaxSpeed)
	}
	return s
}
