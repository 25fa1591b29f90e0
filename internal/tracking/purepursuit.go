package tracking

import (
	"math"

	"github.com/banshee-data/drivesim/internal/kinematics"
	"github.com/banshee-data/drivesim/internal/navigator"
	"github.com/banshee-data/drivesim/internal/vmath"
	"github.com/go-gl/mathgl/mgl64"
)

// PurePursuit steers along the arc that passes through a point LookAhead
// metres further along the path.
type PurePursuit struct {
	Params Params
}

// Name implements Strategy.
func (*PurePursuit) Name() Kind { return KindPurePursuit }

// Compute implements Strategy.
func (c *PurePursuit) Compute(pose kinematics.Pose, nav *navigator.Navigator) Command {
	tgt, ok := target(nav)
	if !ok {
		return Command{}
	}
	p := c.Params
	local := pose.Local(LookAheadPoint(pose.Position, nav, p.LookAhead))

	ld := local.Len() + vmath.Epsilon
	curvature := 2 * local.X() / (ld * ld)
	steerDeg := mgl64.RadToDeg(math.Atan(curvature * p.WheelBase))

	ang := mgl64.RadToDeg(math.Atan2(local.X(), local.Z()))
	return Command{
		Accel: p.speedCommand(ang, kinematics.Distance(pose.Position, tgt), pose.Speed()),
		Steer: vmath.ClampUnit(steerDeg / math.Max(1, p.SteeringAngle)),
	}
}

// LookAheadPoint walks distance metres along the path from pos, first to
// the current waypoint and then along successive segments, wrapping at the
// end. If the whole loop is shorter than distance, the last waypoint walked
// is returned. An empty path yields pos.
func LookAheadPoint(pos mgl64.Vec3, nav *navigator.Navigator, distance float64) mgl64.Vec3 {
	if nav == nil || nav.Count() == 0 {
		return pos
	}
	from := pos
	remaining := distance
	for i := 0; i < nav.Count(); i++ {
		next, _ := nav.At(i)
		seg := kinematics.Distance(from, next)
		if seg >= remaining {
			if seg < vmath.Epsilon {
				return next
			}
			return from.Add(next.Sub(from).Mul(vmath.Clamp01(remaining / seg)))
		}
		remaining -= seg
		from = next
	}
	return from
}
