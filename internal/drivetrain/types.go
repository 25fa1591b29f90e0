package drivetrain

import "github.com/go-gl/mathgl/mgl64"

// WheelContact is the per-wheel ground state supplied by the physics layer.
type WheelContact struct {
	Grounded    bool
	ForwardSlip float64
	LateralSlip float64
	AngularRate float64 // wheel speed in revolutions per minute, signed
	// Compression is the suspension travel used, 0 at full droop and 1 at
	// the bump stop. Consumers treat an airborne wheel as 1.
	Compression float64
}

// WheelCommand is the per-wheel actuation emitted each tick.
type WheelCommand struct {
	MotorTorque float64 // N·m, signed
	BrakeTorque float64 // N·m, non-negative
	SteerAngle  float64 // degrees, positive turns right
	// VerticalForce is applied to the body at the wheel along body up, N.
	// Anti-roll bars write it; positive lifts that corner.
	VerticalForce float64
}

// BodyCommand holds forces applied to the vehicle body.
type BodyCommand struct {
	Force mgl64.Vec3 // N, world frame (drag + down-force)
	// YawRateChange is an instantaneous yaw-rate correction in rad/s
	// produced by the steering assist.
	YawRateChange float64
}

// Output is everything a tick hands to the physics layer.
type Output struct {
	Wheels []WheelCommand
	Body   BodyCommand
}

// Telemetry is a read-only snapshot of the drivetrain state.
type Telemetry struct {
	Speed            float64 `json:"speed"`     // m/s
	SpeedKMH         float64 `json:"speed_kmh"` // km/h
	ForwardSpeed     float64 `json:"forward_speed"`
	Gear             int     `json:"gear"`
	EngineRPM        float64 `json:"engine_rpm"`
	FilteredThrottle float64 `json:"filtered_throttle"`
	Braking          bool    `json:"braking"`
	Accel            float64 `json:"accel"`
	Steer            float64 `json:"steer"`
}
