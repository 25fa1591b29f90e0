package tracking

import (
	"github.com/banshee-data/drivesim/internal/kinematics"
	"github.com/banshee-data/drivesim/internal/navigator"
	"github.com/banshee-data/drivesim/internal/vmath"
)

// Proportional steers straight at the current waypoint; ±45° of heading
// error is full lock.
type Proportional struct {
	Params Params
}

// Name implements Strategy.
func (*Proportional) Name() Kind { return KindProportional }

// Compute implements Strategy.
func (c *Proportional) Compute(pose kinematics.Pose, nav *navigator.Navigator) Command {
	tgt, ok := target(nav)
	if !ok {
		return Command{}
	}
	to := tgt.Sub(pose.Position)
	ang := vmath.SignedAngleDeg(pose.Forward(), to, vmath.Up)
	return Command{
		Accel: c.Params.speedCommand(ang, to.Len(), pose.Speed()),
		Steer: vmath.ClampUnit(ang / 45),
	}
}
