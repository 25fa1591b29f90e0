// Package kinematics defines the vehicle pose shared by the navigator, the
// tracking strategies and the drivetrain, plus the kinematic bicycle model
// used for short-horizon prediction.
//
// Frame convention: Y is up, the vehicle's forward axis is local +Z and its
// right axis is local +X. Yaw is in radians, measured about +Y from +Z
// towards +X, so a vehicle with yaw 0 faces +Z and positive steering turns it
// towards +X.
package kinematics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Pose is the rigid-body state the core reads each tick.
type Pose struct {
	Position mgl64.Vec3 `json:"position"`
	Yaw      float64    `json:"yaw"`      // radians
	Velocity mgl64.Vec3 `json:"velocity"` // world frame, m/s
	YawRate  float64    `json:"yaw_rate"` // rad/s
}

// Forward returns the unit forward vector for yaw.
func Forward(yaw float64) mgl64.Vec3 {
	return mgl64.Vec3{math.Sin(yaw), 0, math.Cos(yaw)}
}

// Right returns the unit right vector for yaw.
func Right(yaw float64) mgl64.Vec3 {
	return mgl64.Vec3{math.Cos(yaw), 0, -math.Sin(yaw)}
}

// Forward returns the pose's forward axis in world space.
func (p Pose) Forward() mgl64.Vec3 { return Forward(p.Yaw) }

// Right returns the pose's right axis in world space.
func (p Pose) Right() mgl64.Vec3 { return Right(p.Yaw) }

// Down returns the vehicle-down axis. Poses are planar, so this is world down.
func (p Pose) Down() mgl64.Vec3 { return mgl64.Vec3{0, -1, 0} }

// Speed returns the magnitude of the velocity.
func (p Pose) Speed() float64 { return p.Velocity.Len() }

// ForwardSpeed returns the velocity component along the forward axis.
// Positive means the vehicle is rolling forwards.
func (p Pose) ForwardSpeed() float64 { return p.Forward().Dot(p.Velocity) }

// Local transforms a world-space point into the vehicle frame: X is the
// lateral offset (right positive), Z the longitudinal offset, Y the height.
func (p Pose) Local(world mgl64.Vec3) mgl64.Vec3 {
	d := world.Sub(p.Position)
	return mgl64.Vec3{d.Dot(p.Right()), d.Y(), d.Dot(p.Forward())}
}

// HeadingTo returns the world yaw of the direction from a to b in radians.
func HeadingTo(a, b mgl64.Vec3) float64 {
	return math.Atan2(b.X()-a.X(), b.Z()-a.Z())
}

// Distance is the Euclidean distance between two points.
func Distance(a, b mgl64.Vec3) float64 {
	return b.Sub(a).Len()
}
