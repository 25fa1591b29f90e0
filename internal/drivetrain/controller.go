// Package drivetrain implements the per-tick drivetrain state machine: gear
// selection with hysteresis, engine RPM estimation, torque-curve evaluation,
// traction control, ABS, the speed governor, aerodynamic loads and the
// steering assist.
//
// A Controller is owned by exactly one vehicle and is not safe for
// concurrent use. Inputs are latched by SetInputs and consumed by Step.
package drivetrain

import (
	"fmt"
	"math"

	"github.com/banshee-data/drivesim/internal/kinematics"
	"github.com/banshee-data/drivesim/internal/monitoring"
	"github.com/banshee-data/drivesim/internal/units"
	"github.com/banshee-data/drivesim/internal/vmath"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/samber/lo"
)

// ReverseGear is the gear-table index of reverse.
const ReverseGear = 0

// airDensity at sea level, kg/m³.
const airDensity = 1.225

// State is the mutable drivetrain state carried between ticks.
type State struct {
	Gear             int
	EngineRPM        float64
	FilteredThrottle float64
	ThrottleVelocity float64 // smoothing filter state
}

// Controller is the drivetrain state machine.
type Controller struct {
	cfg   Config
	curve *TorqueCurve
	drive []int
	steer []int

	state State

	accel, steerIn float64

	// last tick, for telemetry
	speed        float64
	forwardSpeed float64
	braking      bool
}

// New validates cfg and returns a controller in Forward-gear-1 at idle.
func New(cfg Config) (*Controller, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	curve := FlatTorqueCurve()
	if len(cfg.Engine.Curve) > 0 {
		var err error
		if curve, err = NewTorqueCurve(cfg.Engine.Curve); err != nil {
			return nil, err
		}
	}
	c := &Controller{cfg: cfg, curve: curve}
	for i, w := range cfg.Wheels {
		if w.Drive {
			c.drive = append(c.drive, i)
		}
		if w.Steer {
			c.steer = append(c.steer, i)
		}
	}
	c.Reset()
	return c, nil
}

// Config returns the controller's configuration.
func (c *Controller) Config() Config { return c.cfg }

// TorqueCurve returns the fitted torque curve.
func (c *Controller) TorqueCurve() *TorqueCurve { return c.curve }

// Reset restores the initial state: Forward-gear-1, idle RPM, an empty
// throttle filter and zero inputs.
func (c *Controller) Reset() {
	c.state = State{Gear: 1, EngineRPM: c.cfg.Engine.IdleRPM}
	c.accel, c.steerIn = 0, 0
	c.speed, c.forwardSpeed, c.braking = 0, 0, false
}

// SetInputs latches the accel and steer commands for the next Step, clamping
// both to [-1, 1].
func (c *Controller) SetInputs(accel, steer float64) {
	c.accel = vmath.ClampUnit(accel)
	c.steerIn = vmath.ClampUnit(steer)
}

// Inputs returns the latched accel and steer commands.
func (c *Controller) Inputs() (accel, steer float64) { return c.accel, c.steerIn }

// Speed returns the body speed seen on the last Step, m/s.
func (c *Controller) Speed() float64 { return c.speed }

// SpeedKMH returns Speed in km/h.
func (c *Controller) SpeedKMH() float64 { return units.MPSToKMH(c.speed) }

// CurrentGear returns the gear-table index in use.
func (c *Controller) CurrentGear() int { return c.state.Gear }

// EngineRPM returns the last engine RPM estimate.
func (c *Controller) EngineRPM() float64 { return c.state.EngineRPM }

// State returns a copy of the internal state.
func (c *Controller) State() State { return c.state }

// Telemetry returns a snapshot for readouts and logging.
func (c *Controller) Telemetry() Telemetry {
	return Telemetry{
		Speed:            c.speed,
		SpeedKMH:         c.SpeedKMH(),
		ForwardSpeed:     c.forwardSpeed,
		Gear:             c.state.Gear,
		EngineRPM:        c.state.EngineRPM,
		FilteredThrottle: c.state.FilteredThrottle,
		Braking:          c.braking,
		Accel:            c.accel,
		Steer:            c.steerIn,
	}
}

// Step advances the drivetrain by one physics tick of dt seconds. pose is the
// body state from the physics layer and contacts holds one entry per
// configured wheel; missing entries count as airborne wheels with no slip.
func (c *Controller) Step(dt float64, pose kinematics.Pose, contacts []WheelContact) Output {
	out := Output{Wheels: make([]WheelCommand, len(c.cfg.Wheels))}

	velocity := pose.Velocity
	c.speed = velocity.Len()
	c.forwardSpeed = pose.ForwardSpeed()

	c.applySteering(out.Wheels)
	out.Body.Force = c.aeroForce(pose)
	c.selectGear()
	c.estimateRPM(contacts)

	throttle, braking := c.throttleAndBrake()
	c.braking = braking
	c.state.FilteredThrottle = vmath.SmoothDamp(c.state.FilteredThrottle, throttle, &c.state.ThrottleVelocity, c.cfg.ThrottleSmoothTime, dt)

	c.applyTorque(out.Wheels, contacts, braking)
	out.Body.YawRateChange = c.steeringAssist(pose)

	if c.speed > c.cfg.MaxSpeed {
		for _, i := range c.drive {
			out.Wheels[i].MotorTorque = 0
		}
	}
	return out
}

// applySteering blends the low- and high-speed lock by speed fraction.
func (c *Controller) applySteering(wheels []WheelCommand) {
	f := vmath.InverseLerp(0, c.cfg.MaxSpeed, c.speed)
	lock := vmath.Lerp(c.cfg.SteeringAngle, c.cfg.SteeringAngleAtMax, f)
	for _, i := range c.steer {
		wheels[i].SteerAngle = c.steerIn * lock
	}
}

func (c *Controller) aeroForce(pose kinematics.Pose) mgl64.Vec3 {
	a := c.cfg.Aero
	v := pose.Velocity
	v2 := v.LenSqr()
	var f mgl64.Vec3
	if a.DragCoefficient > 0 {
		f = f.Add(v.Mul(-c.speed * a.DragCoefficient))
	}
	if a.DownForceCoefficient > 0 {
		f = f.Add(pose.Down().Mul(v2 * a.DownForceCoefficient))
	}
	if a.KitArea > 0 && v2 >= 1 {
		q := 0.5 * airDensity * v2
		f = f.Add(vmath.SafeNormalize(v).Mul(-q * a.KitDrag * a.KitArea))
		f = f.Add(pose.Down().Mul(q * a.KitDownForce * a.KitArea))
	}
	return f
}

// selectGear runs the direction and auto-shift logic. It uses the engine RPM
// from the previous tick.
func (c *Controller) selectGear() {
	prev := c.state.Gear
	db := c.cfg.InputDeadband
	eps := c.cfg.ReverseHysteresis

	if c.speed < c.cfg.StationaryThreshold {
		switch {
		case c.accel > db:
			c.state.Gear = 1
		case c.accel < -db:
			c.state.Gear = ReverseGear
		}
	} else if c.state.Gear == ReverseGear {
		if c.forwardSpeed > eps {
			c.state.Gear = 1
		}
	} else if c.forwardSpeed < -eps {
		c.state.Gear = ReverseGear
	}

	if c.state.Gear >= 1 {
		e := c.cfg.Engine
		switch {
		case c.state.EngineRPM > e.ShiftUpRPM && c.accel > 0 && c.state.Gear < c.cfg.Gears.Top():
			c.state.Gear++
		case c.state.EngineRPM < e.ShiftDownRPM && c.state.Gear > 1:
			c.state.Gear--
		}
	}

	if c.state.Gear != prev {
		monitoring.Debugf("drivetrain: gear %s -> %s at %.1f m/s, %.0f rpm", gearName(prev), gearName(c.state.Gear), c.speed, c.state.EngineRPM)
	}
}

// estimateRPM is a kinematic proxy: mean drive-wheel |rpm| times the gear
// ratio magnitude, offset by idle and clamped to the engine range.
func (c *Controller) estimateRPM(contacts []WheelContact) {
	e := c.cfg.Engine
	var wheelRPM float64
	if len(c.drive) > 0 {
		wheelRPM = lo.SumBy(c.drive, func(i int) float64 {
			return math.Abs(contactAt(contacts, i).AngularRate)
		}) / float64(len(c.drive))
	}
	rpm := wheelRPM*math.Abs(c.cfg.Gears[c.state.Gear]) + e.IdleRPM
	c.state.EngineRPM = vmath.Clamp(rpm, e.IdleRPM, e.MaxRPM)
}

// throttleAndBrake interprets accel for the current direction of travel.
func (c *Controller) throttleAndBrake() (throttle float64, braking bool) {
	db := c.cfg.InputDeadband
	if c.state.Gear == ReverseGear {
		if rev := -c.accel; rev > db {
			throttle = vmath.Clamp01(rev)
		}
		return throttle, c.accel > db
	}
	return vmath.Clamp01(c.accel), c.accel < -db
}

func (c *Controller) applyTorque(wheels []WheelCommand, contacts []WheelContact, braking bool) {
	ratio := c.cfg.Gears[c.state.Gear]
	available := c.cfg.MotorTorque * ratio * c.curve.Evaluate(c.state.EngineRPM/c.cfg.Engine.MaxRPM)

	for _, i := range c.drive {
		slip := math.Abs(contactAt(contacts, i).ForwardSlip)
		if braking {
			wheels[i].MotorTorque = 0
			wheels[i].BrakeTorque = c.cfg.BrakeTorque * SlipFactor(slip, c.cfg.SlipLimit, c.cfg.ABSGain)
			continue
		}
		wheels[i].BrakeTorque = 0
		wheels[i].MotorTorque = c.state.FilteredThrottle * available * SlipFactor(slip, c.cfg.SlipLimit, c.cfg.TractionControlGain)
	}
}

// steeringAssist returns a yaw-rate correction that turns the heading
// towards the direction of travel.
func (c *Controller) steeringAssist(pose kinematics.Pose) float64 {
	if c.cfg.SteerAssist <= 0 || c.speed <= c.cfg.AssistMinSpeed {
		return 0
	}
	angle := vmath.SignedAngleDeg(pose.Forward(), pose.Velocity, vmath.Up)
	return mgl64.DegToRad(angle) * c.cfg.SteerAssist
}

// SlipFactor is the traction-control / ABS scale: 1 up to limit, then falling
// linearly to 0 at limit + 1/gain. A zero gain disables the reduction.
func SlipFactor(slip, limit, gain float64) float64 {
	if slip <= limit || gain <= 0 {
		return 1
	}
	return vmath.Lerp(1, 0, (slip-limit)*gain)
}

func contactAt(contacts []WheelContact, i int) WheelContact {
	if i < 0 || i >= len(contacts) || !contacts[i].Grounded {
		return WheelContact{AngularRate: rateAt(contacts, i)}
	}
	return contacts[i]
}

// rateAt returns the wheel rate even when airborne: a spinning wheel still
// drives the engine.
func rateAt(contacts []WheelContact, i int) float64 {
	if i < 0 || i >= len(contacts) {
		return 0
	}
	return contacts[i].AngularRate
}

func gearName(g int) string {
	if g == ReverseGear {
		return "R"
	}
	return fmt.Sprintf("%d", g)
}
