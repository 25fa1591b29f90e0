package tracking

import (
	"math"

	"github.com/banshee-data/drivesim/internal/kinematics"
	"github.com/banshee-data/drivesim/internal/navigator"
	"github.com/banshee-data/drivesim/internal/vmath"
	"github.com/go-gl/mathgl/mgl64"
	"gonum.org/v1/gonum/floats"
)

// MPC is a brute-force receding-horizon controller. Every (accel, steer)
// pair from Params.Grid is held constant over the horizon and rolled out
// on a kinematic bicycle; the cheapest rollout wins, with ties going to
// the first candidate in grid order (accel outer, steer inner). The chosen
// accel is then nudged by the same speed law Proportional uses.
type MPC struct {
	Params Params
}

// Candidate is one evaluated grid point.
type Candidate struct {
	Accel float64
	Steer float64
	Cost  float64
	Final kinematics.BicycleState
}

// Plan is the full result of one grid search.
type Plan struct {
	Candidates []Candidate
	Best       int
}

// Name implements Strategy.
func (*MPC) Name() Kind { return KindMPC }

// Compute implements Strategy.
func (c *MPC) Compute(pose kinematics.Pose, nav *navigator.Navigator) Command {
	plan, ok := c.Plan(pose, nav)
	if !ok {
		return Command{}
	}
	best := plan.Candidates[plan.Best]
	tgt, _ := target(nav)

	to := tgt.Sub(pose.Position)
	ang := vmath.SignedAngleDeg(pose.Forward(), to, vmath.Up)
	correction := (c.Params.desiredSpeed(ang, to.Len()) - pose.Speed()) * c.Params.SpeedGain

	return Command{
		Accel: vmath.ClampUnit(best.Accel + correction),
		Steer: vmath.ClampUnit(best.Steer),
	}
}

// Plan evaluates the whole grid. It reports false when there is no target.
func (c *MPC) Plan(pose kinematics.Pose, nav *navigator.Navigator) (Plan, bool) {
	if _, ok := target(nav); !ok {
		return Plan{}, false
	}
	p := c.Params
	model := kinematics.Bicycle{WheelBase: p.WheelBase, MaxSpeed: p.MaxSpeed}
	start := kinematics.BicycleState{Position: pose.Position, Yaw: pose.Yaw, Speed: pose.Speed()}

	plan := Plan{Candidates: make([]Candidate, 0, len(p.Grid)*len(p.Grid))}
	costs := make([]float64, 0, cap(plan.Candidates))
	for _, a := range p.Grid {
		for _, s := range p.Grid {
			final, tgt := c.rollout(model, start, nav, a, s)
			cost := c.cost(final, tgt)
			plan.Candidates = append(plan.Candidates, Candidate{Accel: a, Steer: s, Cost: cost, Final: final})
			costs = append(costs, cost)
		}
	}
	plan.Best = floats.MinIdx(costs)
	return plan, true
}

// rollout holds (a, s) for the horizon. The simulated target moves on
// whenever the rollout enters the waypoint radius, without touching nav.
func (c *MPC) rollout(model kinematics.Bicycle, s kinematics.BicycleState, nav *navigator.Navigator, accel, steer float64) (kinematics.BicycleState, mgl64.Vec3) {
	p := c.Params
	delta := mgl64.DegToRad(steer * p.SteeringAngle)
	longAccel := accel * p.MaxSpeed * p.SpeedGain

	ahead := 0
	tgt, _ := nav.At(ahead)
	for i := 0; i < p.HorizonSteps; i++ {
		s = model.Step(s, longAccel, delta, p.HorizonDt)
		if kinematics.Distance(s.Position, tgt) < nav.Radius() {
			ahead++
			tgt, _ = nav.At(ahead)
		}
	}
	return s, tgt
}

// cost is the distance to the simulated target plus the weighted heading
// error towards it, in degrees.
func (c *MPC) cost(s kinematics.BicycleState, tgt mgl64.Vec3) float64 {
	headingErr := vmath.DeltaAngleDeg(mgl64.RadToDeg(s.Yaw), mgl64.RadToDeg(kinematics.HeadingTo(s.Position, tgt)))
	return kinematics.Distance(s.Position, tgt) + c.Params.HeadingWeight*math.Abs(headingErr)
}
