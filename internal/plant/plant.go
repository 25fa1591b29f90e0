// Package plant is a small planar rigid-body stand-in for the wheel-contact
// physics engine. It integrates drivetrain.Output into a kinematics.Pose and
// reports per-wheel contact state, so the drivetrain and the tracking
// strategies can run headless.
//
// The model is deliberately coarse: a single friction budget per wheel,
// longitudinal tyre force only, lateral velocity that bleeds off at a
// fixed rate, and kinematic bicycle steering. Body roll is quasi-static:
// cornering moves load from the inside wheels to the outside ones, each
// corner's spring deflects by its load change less any vertical force
// commanded at that corner, and compression follows with a first-order
// lag. With a stiff anti-roll bar, ticks much longer than RollLag can
// oscillate.
package plant

import (
	"fmt"
	"math"

	"github.com/banshee-data/drivesim/internal/drivetrain"
	"github.com/banshee-data/drivesim/internal/kinematics"
	"github.com/banshee-data/drivesim/internal/units"
	"github.com/banshee-data/drivesim/internal/vmath"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/samber/lo"
)

const gravity = 9.81

// maxSlip caps reported slip ratios. Slip is (ωr - v) / max(|v|, 1): a
// wheel spinning up reads positive going forwards, a locking wheel reads
// negative.
const maxSlip = 1.0

// restCompression is the suspension compression under static load.
const restCompression = 0.5

// Config holds the body and tyre parameters.
type Config struct {
	Mass           float64 `json:"mass" yaml:"mass"`                       // kg
	WheelRadius    float64 `json:"wheel_radius" yaml:"wheel_radius"`       // m
	WheelBase      float64 `json:"wheel_base" yaml:"wheel_base"`           // m
	Grip           float64 `json:"grip" yaml:"grip"`                       // tyre friction coefficient
	RollingDrag    float64 `json:"rolling_drag" yaml:"rolling_drag"`       // N per m/s
	LateralDamping float64 `json:"lateral_damping" yaml:"lateral_damping"` // 1/s
	SlipLag        float64 `json:"slip_lag" yaml:"slip_lag"`               // s, wheel spin-up time constant; 0 is instant

	TrackWidth       float64 `json:"track_width" yaml:"track_width"`             // m
	CGHeight         float64 `json:"cg_height" yaml:"cg_height"`                 // m
	SpringRate       float64 `json:"spring_rate" yaml:"spring_rate"`             // N/m per wheel
	SuspensionTravel float64 `json:"suspension_travel" yaml:"suspension_travel"` // m, droop to bump
	RollLag          float64 `json:"roll_lag" yaml:"roll_lag"`                   // s; 0 is instant
}

// DefaultConfig is a 1.5 t road car on dry tarmac.
func DefaultConfig() Config {
	return Config{
		Mass:           1500,
		WheelRadius:    0.34,
		WheelBase:      2.5,
		Grip:           1.0,
		RollingDrag:    30,
		LateralDamping: 4,
		SlipLag:        0.05,

		TrackWidth:       1.6,
		CGHeight:         0.55,
		SpringRate:       60000,
		SuspensionTravel: 0.3,
		RollLag:          0.2,
	}
}

// Validate rejects non-physical parameters.
func (c Config) Validate() error {
	if c.Mass <= 0 || c.WheelRadius <= 0 || c.WheelBase <= 0 || c.Grip <= 0 {
		return fmt.Errorf("plant mass, wheel radius, wheel base and grip must be positive: %+v", c)
	}
	if c.RollingDrag < 0 || c.LateralDamping < 0 || c.SlipLag < 0 {
		return fmt.Errorf("plant drag terms must be non-negative: %+v", c)
	}
	if c.TrackWidth <= 0 || c.SpringRate <= 0 || c.SuspensionTravel <= 0 {
		return fmt.Errorf("plant track width, spring rate and suspension travel must be positive: %+v", c)
	}
	if c.CGHeight < 0 || c.RollLag < 0 {
		return fmt.Errorf("plant cg height and roll lag must be non-negative: %+v", c)
	}
	return nil
}

// Plant integrates one vehicle body.
type Plant struct {
	cfg    Config
	wheels []drivetrain.WheelSpec
	steer  []int
	// side is +1 for left wheels and -1 for right ones, divided by the
	// number of wheels on that side.
	side []float64

	pose     kinematics.Pose
	contacts []drivetrain.WheelContact
}

// New returns a plant at start with every wheel grounded and at rest.
func New(cfg Config, wheels []drivetrain.WheelSpec, start kinematics.Pose) (*Plant, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	p := &Plant{cfg: cfg, wheels: append([]drivetrain.WheelSpec(nil), wheels...)}
	left := lo.CountBy(wheels, func(w drivetrain.WheelSpec) bool { return w.Side == drivetrain.SideLeft })
	right := lo.CountBy(wheels, func(w drivetrain.WheelSpec) bool { return w.Side == drivetrain.SideRight })
	p.side = make([]float64, len(wheels))
	for i, w := range wheels {
		if w.Steer {
			p.steer = append(p.steer, i)
		}
		switch w.Side {
		case drivetrain.SideLeft:
			p.side[i] = 1 / float64(left)
		case drivetrain.SideRight:
			p.side[i] = -1 / float64(right)
		}
	}
	p.Reset(start)
	return p, nil
}

// Reset places the body at pose and re-grounds every wheel.
func (p *Plant) Reset(pose kinematics.Pose) {
	p.pose = pose
	p.contacts = make([]drivetrain.WheelContact, len(p.wheels))
	for i := range p.contacts {
		p.contacts[i] = drivetrain.WheelContact{
			Grounded:    true,
			AngularRate: units.WheelRPM(pose.ForwardSpeed(), p.cfg.WheelRadius),
			Compression: restCompression,
		}
	}
}

// Pose returns the current body state.
func (p *Plant) Pose() kinematics.Pose { return p.pose }

// Contacts returns the per-wheel contact state from the last Step. The
// slice is owned by the plant and rewritten by the next Step.
func (p *Plant) Contacts() []drivetrain.WheelContact { return p.contacts }

// Step applies out for dt seconds.
func (p *Plant) Step(out drivetrain.Output, dt float64) {
	if dt <= 0 {
		return
	}
	fwd, right := p.pose.Forward(), p.pose.Right()
	vf := p.pose.Velocity.Dot(fwd)
	vl := p.pose.Velocity.Dot(right)

	n := math.Max(float64(len(p.wheels)), 1)
	load := math.Max(p.cfg.Mass*gravity-out.Body.Force.Y(), 0) / n
	// Turning right (positive yaw rate) loads the left side.
	transfer := p.cfg.Mass * vf * p.pose.YawRate * p.cfg.CGHeight / p.cfg.TrackWidth

	alpha := lag(dt, p.cfg.SlipLag)
	rollAlpha := lag(dt, p.cfg.RollLag)

	var traction, braking float64
	for i := range p.wheels {
		var cmd drivetrain.WheelCommand
		if i < len(out.Wheels) {
			cmd = out.Wheels[i]
		}
		drive := cmd.MotorTorque / p.cfg.WheelRadius
		brake := math.Abs(cmd.BrakeTorque) / p.cfg.WheelRadius

		shift := transfer * p.side[i]
		tyreLoad := load + shift
		budget := p.cfg.Grip * math.Max(tyreLoad, 0)

		var target float64
		switch {
		case brake > 0:
			braking += math.Min(brake, budget)
			if brake > budget && math.Abs(vf) > vmath.Epsilon {
				target = -math.Copysign(excess(brake, budget), vf)
			}
		case drive != 0:
			traction += math.Copysign(math.Min(math.Abs(drive), budget), drive)
			if math.Abs(drive) > budget {
				target = math.Copysign(excess(math.Abs(drive), budget), drive)
			}
		}

		c := drivetrain.WheelContact{Grounded: tyreLoad > 0}
		comp := vmath.Clamp01(restCompression + (shift-cmd.VerticalForce)/p.cfg.SpringRate/p.cfg.SuspensionTravel)
		if !c.Grounded {
			comp = 0
		}
		c.Compression = p.contacts[i].Compression + (comp-p.contacts[i].Compression)*rollAlpha
		c.ForwardSlip = p.contacts[i].ForwardSlip + (target-p.contacts[i].ForwardSlip)*alpha
		surface := vf + c.ForwardSlip*math.Max(math.Abs(vf), 1)
		if brake > 0 && surface*vf < 0 {
			surface = 0 // a locked wheel does not spin backwards
		}
		c.LateralSlip = vl / math.Max(math.Abs(vf), 1)
		c.AngularRate = units.WheelRPM(surface, p.cfg.WheelRadius)
		p.contacts[i] = c
	}

	force := traction + out.Body.Force.Dot(fwd) - p.cfg.RollingDrag*vf
	next := vf + force/p.cfg.Mass*dt
	// Brakes stop the car; they never push it backwards.
	if stop := braking / p.cfg.Mass * dt; math.Abs(next) <= stop {
		next = 0
	} else {
		next -= math.Copysign(stop, next)
	}

	vl *= math.Exp(-p.cfg.LateralDamping * dt)

	delta := mgl64.DegToRad(p.meanSteer(out.Wheels))
	p.pose.YawRate = next/p.cfg.WheelBase*math.Tan(delta) + out.Body.YawRateChange
	p.pose.Position = p.pose.Position.Add(fwd.Mul(next * dt)).Add(right.Mul(vl * dt))
	p.pose.Yaw = wrapAngle(p.pose.Yaw + p.pose.YawRate*dt)
	p.pose.Velocity = fwd.Mul(next).Add(right.Mul(vl))
}

func (p *Plant) meanSteer(cmds []drivetrain.WheelCommand) float64 {
	valid := lo.Filter(p.steer, func(i int, _ int) bool { return i < len(cmds) })
	if len(valid) == 0 {
		return 0
	}
	return lo.SumBy(valid, func(i int) float64 { return cmds[i].SteerAngle }) / float64(len(valid))
}

// lag is the first-order filter weight for one tick of a time constant tau.
func lag(dt, tau float64) float64 {
	if tau <= 0 {
		return 1
	}
	return vmath.Clamp01(dt / tau)
}

// excess is the slip ratio produced by demanding force beyond budget.
func excess(demand, budget float64) float64 {
	if budget <= 0 {
		return maxSlip
	}
	return vmath.Clamp((demand-budget)/budget, 0, maxSlip)
}

func wrapAngle(a float64) float64 {
	return math.Remainder(a, 2*math.Pi)
}
