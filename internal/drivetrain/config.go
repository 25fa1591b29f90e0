package drivetrain

import (
	"errors"
	"fmt"
)

// Configuration errors. They are returned by New and never surface from Step.
var (
	ErrEmptyGearTable = errors.New("gear table is empty")
	ErrNoForwardGear  = errors.New("gear table has no forward gear")
	ErrEngineRPMOrder = errors.New("engine rpm must satisfy idle <= shiftDown < shiftUp <= max")
	ErrUnnamedWheel   = errors.New("wheel has no name")
	ErrDuplicateWheel = errors.New("duplicate wheel name")
	ErrWheelSide      = errors.New("wheel side must be left, right or empty")
)

// Wheel sides. A wheel with no side sits on the centre line.
const (
	SideLeft  = "left"
	SideRight = "right"
)

// GearTable holds gear ratios. Index 0 is reverse, 1..N are forward gears and
// the last index is top gear.
type GearTable []float64

// Top returns the index of the highest forward gear.
func (g GearTable) Top() int { return len(g) - 1 }

// Engine describes the RPM envelope, shift points and torque shape.
type Engine struct {
	IdleRPM      float64      `json:"idle_rpm" yaml:"idle_rpm"`
	MaxRPM       float64      `json:"max_rpm" yaml:"max_rpm"`
	ShiftUpRPM   float64      `json:"shift_up_rpm" yaml:"shift_up_rpm"`
	ShiftDownRPM float64      `json:"shift_down_rpm" yaml:"shift_down_rpm"`
	Curve        []CurvePoint `json:"curve,omitempty" yaml:"curve,omitempty"` // empty means flat
}

// WheelSpec declares one wheel of the vehicle. Its position in Config.Wheels
// is the index used for WheelContact and WheelCommand slices.
type WheelSpec struct {
	Name  string `json:"name" yaml:"name"`
	Drive bool   `json:"drive" yaml:"drive"`
	Steer bool   `json:"steer" yaml:"steer"`
	Side  string `json:"side,omitempty" yaml:"side,omitempty"`
}

// Aero holds the aerodynamic loads. The simple coefficients scale speed²
// directly; the kit coefficients use dynamic pressure and frontal area.
// Every term is zero unless configured.
type Aero struct {
	DragCoefficient      float64 `json:"drag_coefficient" yaml:"drag_coefficient"`
	DownForceCoefficient float64 `json:"down_force_coefficient" yaml:"down_force_coefficient"`

	KitDrag      float64 `json:"kit_cd" yaml:"kit_cd"`
	KitDownForce float64 `json:"kit_cl" yaml:"kit_cl"`
	KitArea      float64 `json:"kit_area" yaml:"kit_area"` // m²
}

// Config is the full drivetrain setup.
type Config struct {
	Gears  GearTable   `json:"gears" yaml:"gears"`
	Engine Engine      `json:"engine" yaml:"engine"`
	Wheels []WheelSpec `json:"wheels" yaml:"wheels"`

	MotorTorque float64 `json:"motor_torque" yaml:"motor_torque"` // N·m before gearing
	BrakeTorque float64 `json:"brake_torque" yaml:"brake_torque"` // N·m per wheel
	MaxSpeed    float64 `json:"max_speed" yaml:"max_speed"`       // m/s

	SteeringAngle      float64 `json:"steering_angle" yaml:"steering_angle"`               // degrees at rest
	SteeringAngleAtMax float64 `json:"steering_angle_at_max" yaml:"steering_angle_at_max"` // degrees at MaxSpeed

	SlipLimit           float64 `json:"slip_limit" yaml:"slip_limit"`
	TractionControlGain float64 `json:"traction_control_gain" yaml:"traction_control_gain"`
	ABSGain             float64 `json:"abs_gain" yaml:"abs_gain"`

	SteerAssist    float64 `json:"steer_assist" yaml:"steer_assist"`         // rad/s of yaw correction per radian of slide
	AssistMinSpeed float64 `json:"assist_min_speed" yaml:"assist_min_speed"` // m/s

	Aero Aero `json:"aero" yaml:"aero"`

	StationaryThreshold float64 `json:"stationary_threshold" yaml:"stationary_threshold"` // m/s
	InputDeadband       float64 `json:"input_deadband" yaml:"input_deadband"`
	ReverseHysteresis   float64 `json:"reverse_hysteresis" yaml:"reverse_hysteresis"`     // m/s
	ThrottleSmoothTime  float64 `json:"throttle_smooth_time" yaml:"throttle_smooth_time"` // s
}

// DefaultWheels is a rear-wheel-drive, front-steer layout.
func DefaultWheels() []WheelSpec {
	return []WheelSpec{
		{Name: "front_left", Steer: true, Side: SideLeft},
		{Name: "front_right", Steer: true, Side: SideRight},
		{Name: "rear_left", Drive: true, Side: SideLeft},
		{Name: "rear_right", Drive: true, Side: SideRight},
	}
}

// DefaultConfig returns a mid-size road car.
func DefaultConfig() Config {
	return Config{
		Gears: GearTable{-3.0, 3.2, 2.1, 1.5, 1.2, 1.0},
		Engine: Engine{
			IdleRPM:      900,
			MaxRPM:       6500,
			ShiftUpRPM:   6000,
			ShiftDownRPM: 2500,
		},
		Wheels:              DefaultWheels(),
		MotorTorque:         3500,
		BrakeTorque:         10000,
		MaxSpeed:            80,
		SteeringAngle:       30,
		SteeringAngleAtMax:  10,
		SlipLimit:           0.4,
		TractionControlGain: 50,
		ABSGain:             1000,
		AssistMinSpeed:      1,
		StationaryThreshold: 0.1,
		InputDeadband:       0.1,
		ReverseHysteresis:   0.01,
		ThrottleSmoothTime:  0.1,
	}
}

// Validate checks the structural invariants. Wheel lists may be empty; the
// corresponding subsystems then do nothing.
func (c Config) Validate() error {
	if len(c.Gears) == 0 {
		return ErrEmptyGearTable
	}
	if len(c.Gears) < 2 {
		return ErrNoForwardGear
	}
	e := c.Engine
	if !(e.IdleRPM <= e.ShiftDownRPM && e.ShiftDownRPM < e.ShiftUpRPM && e.ShiftUpRPM <= e.MaxRPM) || e.MaxRPM <= 0 {
		return fmt.Errorf("%w: idle=%g down=%g up=%g max=%g", ErrEngineRPMOrder, e.IdleRPM, e.ShiftDownRPM, e.ShiftUpRPM, e.MaxRPM)
	}
	seen := make(map[string]bool, len(c.Wheels))
	for i, w := range c.Wheels {
		if w.Name == "" {
			return fmt.Errorf("%w: index %d", ErrUnnamedWheel, i)
		}
		if seen[w.Name] {
			return fmt.Errorf("%w: %q", ErrDuplicateWheel, w.Name)
		}
		if w.Side != "" && w.Side != SideLeft && w.Side != SideRight {
			return fmt.Errorf("%w: %q has side %q", ErrWheelSide, w.Name, w.Side)
		}
		seen[w.Name] = true
	}
	if c.SlipLimit < 0 || c.TractionControlGain < 0 || c.ABSGain < 0 {
		return fmt.Errorf("slip limit and traction/abs gains must be non-negative")
	}
	if c.MaxSpeed <= 0 {
		return fmt.Errorf("max speed must be positive, got %g", c.MaxSpeed)
	}
	return nil
}

// WheelIndex returns the index of the named wheel, or -1.
func (c Config) WheelIndex(name string) int {
	for i, w := range c.Wheels {
		if w.Name == name {
			return i
		}
	}
	return -1
}
