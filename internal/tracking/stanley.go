package tracking

import (
	"math"

	"github.com/banshee-data/drivesim/internal/kinematics"
	"github.com/banshee-data/drivesim/internal/navigator"
	"github.com/banshee-data/drivesim/internal/vmath"
	"github.com/go-gl/mathgl/mgl64"
)

// Stanley tracks the segment from the current waypoint to the next one.
//
// Cross-track error is the signed perpendicular offset from the segment,
// positive when the vehicle sits left of it, so a positive error steers
// right. Further than two waypoint radii from the current waypoint the
// controller is in approach mode: it aims straight at the waypoint and
// ignores cross-track error.
type Stanley struct {
	Params Params
}

// Name implements Strategy.
func (*Stanley) Name() Kind { return KindStanley }

// Compute implements Strategy.
func (c *Stanley) Compute(pose kinematics.Pose, nav *navigator.Navigator) Command {
	cur, ok := target(nav)
	if !ok {
		return Command{}
	}
	p := c.Params

	next, _ := nav.At(1)
	toCurrent := cur.Sub(pose.Position)
	dist := toCurrent.Len()

	pathDir := vmath.SafeNormalize(next.Sub(cur))
	if pathDir.Len() == 0 {
		pathDir = vmath.SafeNormalize(toCurrent)
	}

	approach := dist > 2*nav.Radius()
	goal := pathDir
	var cross float64
	if approach {
		goal = vmath.SafeNormalize(toCurrent)
	} else {
		cross = CrossTrackError(pose.Position, cur, pathDir)
	}

	headingErr := vmath.SignedAngleDeg(pose.Forward(), goal, vmath.Up)
	correction := mgl64.RadToDeg(math.Atan2(p.StanleyGain*cross, pose.Speed()+p.StanleySoftening))
	steerDeg := headingErr + correction

	return Command{
		Accel: p.speedCommand(steerDeg, dist, pose.Speed()),
		Steer: vmath.ClampUnit(steerDeg / 45),
	}
}

// CrossTrackError is the signed distance of pos from the line through
// onPath along dir (unit length). Left of the line is positive.
func CrossTrackError(pos, onPath, dir mgl64.Vec3) float64 {
	return pos.Sub(onPath).Cross(dir).Y()
}
