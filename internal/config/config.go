package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/banshee-data/drivesim/internal/antiroll"
	"github.com/banshee-data/drivesim/internal/differential"
	"github.com/banshee-data/drivesim/internal/drivetrain"
	"github.com/banshee-data/drivesim/internal/navigator"
	"github.com/banshee-data/drivesim/internal/plant"
	"github.com/banshee-data/drivesim/internal/tracking"
	"gopkg.in/yaml.v3"
)

// DefaultConfigPath is the path to the canonical defaults file.
const DefaultConfigPath = "config/drivesim.defaults.json"

const maxFileSize = 1 * 1024 * 1024 // 1MB

// Config is the root run configuration. Every scalar is a pointer so a
// partial file only overrides what it names; the Get* methods and the
// builders fill in the rest from the package defaults.
type Config struct {
	// Engine and gearbox
	EnginePreset *string                 `json:"engine_preset,omitempty" yaml:"engine_preset,omitempty"`
	IdleRPM      *float64                `json:"idle_rpm,omitempty" yaml:"idle_rpm,omitempty"`
	MaxRPM       *float64                `json:"max_rpm,omitempty" yaml:"max_rpm,omitempty"`
	ShiftUpRPM   *float64                `json:"shift_up_rpm,omitempty" yaml:"shift_up_rpm,omitempty"`
	ShiftDownRPM *float64                `json:"shift_down_rpm,omitempty" yaml:"shift_down_rpm,omitempty"`
	TorqueCurve  []drivetrain.CurvePoint `json:"torque_curve,omitempty" yaml:"torque_curve,omitempty"`
	Gears        []float64               `json:"gears,omitempty" yaml:"gears,omitempty"`

	// Drivetrain
	Wheels              []drivetrain.WheelSpec `json:"wheels,omitempty" yaml:"wheels,omitempty"`
	Differentials       []DifferentialSpec     `json:"differentials,omitempty" yaml:"differentials,omitempty"`
	AntiRollBars        []AntiRollBarSpec      `json:"anti_roll_bars,omitempty" yaml:"anti_roll_bars,omitempty"`
	MotorTorque         *float64               `json:"motor_torque,omitempty" yaml:"motor_torque,omitempty"`
	BrakeTorque         *float64               `json:"brake_torque,omitempty" yaml:"brake_torque,omitempty"`
	MaxSpeed            *float64               `json:"max_speed,omitempty" yaml:"max_speed,omitempty"`
	SteeringAngle       *float64               `json:"steering_angle,omitempty" yaml:"steering_angle,omitempty"`
	SteeringAngleAtMax  *float64               `json:"steering_angle_at_max,omitempty" yaml:"steering_angle_at_max,omitempty"`
	SlipLimit           *float64               `json:"slip_limit,omitempty" yaml:"slip_limit,omitempty"`
	TractionControlGain *float64               `json:"traction_control_gain,omitempty" yaml:"traction_control_gain,omitempty"`
	ABSGain             *float64               `json:"abs_gain,omitempty" yaml:"abs_gain,omitempty"`
	SteerAssist         *float64               `json:"steer_assist,omitempty" yaml:"steer_assist,omitempty"`
	ThrottleSmoothTime  *float64               `json:"throttle_smooth_time,omitempty" yaml:"throttle_smooth_time,omitempty"`

	// Aero
	DragCoefficient      *float64 `json:"drag_coefficient,omitempty" yaml:"drag_coefficient,omitempty"`
	DownForceCoefficient *float64 `json:"down_force_coefficient,omitempty" yaml:"down_force_coefficient,omitempty"`
	KitDrag              *float64 `json:"kit_cd,omitempty" yaml:"kit_cd,omitempty"`
	KitDownForce         *float64 `json:"kit_cl,omitempty" yaml:"kit_cl,omitempty"`
	KitArea              *float64 `json:"kit_area,omitempty" yaml:"kit_area,omitempty"`

	// Path tracking
	Strategy         *string  `json:"strategy,omitempty" yaml:"strategy,omitempty"`
	MinSpeed         *float64 `json:"min_speed,omitempty" yaml:"min_speed,omitempty"`
	LookAhead        *float64 `json:"look_ahead,omitempty" yaml:"look_ahead,omitempty"`
	SpeedGain        *float64 `json:"speed_gain,omitempty" yaml:"speed_gain,omitempty"`
	StanleyGain      *float64 `json:"stanley_gain,omitempty" yaml:"stanley_gain,omitempty"`
	StanleySoftening *float64 `json:"stanley_softening,omitempty" yaml:"stanley_softening,omitempty"`
	HorizonSteps     *int     `json:"horizon_steps,omitempty" yaml:"horizon_steps,omitempty"`
	HorizonDt        *float64 `json:"horizon_dt,omitempty" yaml:"horizon_dt,omitempty"`
	HeadingWeight    *float64 `json:"heading_weight,omitempty" yaml:"heading_weight,omitempty"`

	// Reference plant
	Mass           *float64 `json:"mass,omitempty" yaml:"mass,omitempty"`
	WheelRadius    *float64 `json:"wheel_radius,omitempty" yaml:"wheel_radius,omitempty"`
	WheelBase      *float64 `json:"wheel_base,omitempty" yaml:"wheel_base,omitempty"`
	Grip           *float64 `json:"grip,omitempty" yaml:"grip,omitempty"`
	RollingDrag    *float64 `json:"rolling_drag,omitempty" yaml:"rolling_drag,omitempty"`
	LateralDamping *float64 `json:"lateral_damping,omitempty" yaml:"lateral_damping,omitempty"`
	SlipLag        *float64 `json:"slip_lag,omitempty" yaml:"slip_lag,omitempty"`

	TrackWidth       *float64 `json:"track_width,omitempty" yaml:"track_width,omitempty"`
	CGHeight         *float64 `json:"cg_height,omitempty" yaml:"cg_height,omitempty"`
	SpringRate       *float64 `json:"spring_rate,omitempty" yaml:"spring_rate,omitempty"`
	SuspensionTravel *float64 `json:"suspension_travel,omitempty" yaml:"suspension_travel,omitempty"`
	RollLag          *float64 `json:"roll_lag,omitempty" yaml:"roll_lag,omitempty"`

	// Run
	Dt             *float64 `json:"dt,omitempty" yaml:"dt,omitempty"`             // seconds per tick
	Duration       *string  `json:"duration,omitempty" yaml:"duration,omitempty"` // duration string like "90s"
	SampleInterval *float64 `json:"sample_interval,omitempty" yaml:"sample_interval,omitempty"`
	Realtime       *bool    `json:"realtime,omitempty" yaml:"realtime,omitempty"`
}

// DifferentialSpec couples two wheels by name.
type DifferentialSpec struct {
	Left       string   `json:"left" yaml:"left"`
	Right      string   `json:"right" yaml:"right"`
	TorqueBias *float64 `json:"torque_bias,omitempty" yaml:"torque_bias,omitempty"`
	Transfer   *float64 `json:"transfer,omitempty" yaml:"transfer,omitempty"`
}

// AntiRollBarSpec links the suspension of two wheels by name.
type AntiRollBarSpec struct {
	Left      string   `json:"left" yaml:"left"`
	Right     string   `json:"right" yaml:"right"`
	Stiffness *float64 `json:"stiffness,omitempty" yaml:"stiffness,omitempty"`
}

// EmptyConfig returns a Config with all fields unset.
func EmptyConfig() *Config {
	return &Config{}
}

// Load reads a Config from a .json, .yaml or .yml file. Fields omitted from
// the file keep their defaults, so partial configs are safe.
func Load(path string) (*Config, error) {
	data, format, err := readFile(path)
	if err != nil {
		return nil, err
	}
	cfg := EmptyConfig()
	if err := decode(data, format, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// MustLoadDefaultConfig loads DefaultConfigPath, searching the current
// directory and its parents. Panics if the file cannot be loaded; intended
// for test setup.
func MustLoadDefaultConfig() *Config {
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath,    // from internal/<pkg>/
		"../../../" + DefaultConfigPath, // from cmd/<bin>/ nested deeper
	}
	for _, path := range candidates {
		if cfg, err := Load(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// LoadPath reads a waypoint loop (`waypoints` and `radius`) from a JSON or
// YAML file.
func LoadPath(path string) (navigator.Path, error) {
	data, format, err := readFile(path)
	if err != nil {
		return navigator.Path{}, err
	}
	var p navigator.Path
	if err := decode(data, format, &p); err != nil {
		return navigator.Path{}, fmt.Errorf("failed to parse path: %w", err)
	}
	if len(p.Waypoints) == 0 {
		return navigator.Path{}, fmt.Errorf("path %s has no waypoints", path)
	}
	if p.Radius < 0 {
		return navigator.Path{}, fmt.Errorf("%w: got %g", navigator.ErrNegativeRadius, p.Radius)
	}
	return p, nil
}

func readFile(path string) ([]byte, string, error) {
	cleanPath := filepath.Clean(path)
	format := strings.ToLower(filepath.Ext(cleanPath))
	switch format {
	case ".json", ".yaml", ".yml":
	default:
		return nil, "", fmt.Errorf("config file must have .json, .yaml or .yml extension, got %q", format)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, "", fmt.Errorf("failed to stat config file: %w", err)
	}
	if fileInfo.Size() > maxFileSize {
		return nil, "", fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read config file: %w", err)
	}
	return data, format, nil
}

func decode(data []byte, format string, v any) error {
	if format == ".json" {
		return json.Unmarshal(data, v)
	}
	return yaml.Unmarshal(data, v)
}

// Validate checks the values that can be judged without building anything.
// The builders run the component validators on the merged result.
func (c *Config) Validate() error {
	if c.EnginePreset != nil && *c.EnginePreset != "" {
		if _, err := drivetrain.LookupEnginePreset(*c.EnginePreset); err != nil {
			return err
		}
	}
	if c.Strategy != nil && *c.Strategy != "" {
		kind := tracking.Kind(strings.ToLower(strings.TrimSpace(*c.Strategy)))
		if !slices.Contains(tracking.Kinds(), kind) {
			return fmt.Errorf("%w: %q", tracking.ErrUnknownStrategy, *c.Strategy)
		}
	}
	if c.Dt != nil && *c.Dt <= 0 {
		return fmt.Errorf("dt must be positive, got %g", *c.Dt)
	}
	if c.Duration != nil && *c.Duration != "" {
		d, err := time.ParseDuration(*c.Duration)
		if err != nil {
			return fmt.Errorf("invalid duration '%s': %w", *c.Duration, err)
		}
		if d <= 0 {
			return fmt.Errorf("duration must be positive, got %s", d)
		}
	}
	if c.SampleInterval != nil && *c.SampleInterval < 0 {
		return fmt.Errorf("sample_interval must be non-negative, got %g", *c.SampleInterval)
	}
	for i, d := range c.Differentials {
		if d.Left == "" || d.Right == "" {
			return fmt.Errorf("differential %d must name both wheels", i)
		}
	}
	for i, b := range c.AntiRollBars {
		if b.Left == "" || b.Right == "" {
			return fmt.Errorf("anti-roll bar %d must name both wheels", i)
		}
	}
	return nil
}

// GetStrategy returns the strategy name or the default.
func (c *Config) GetStrategy() string {
	if c.Strategy == nil || *c.Strategy == "" {
		return string(tracking.KindPurePursuit)
	}
	return *c.Strategy
}

// GetDt returns the fixed tick length in seconds or the default.
func (c *Config) GetDt() float64 {
	if c.Dt == nil {
		return 0.02 // 50 Hz
	}
	return *c.Dt
}

// GetDuration parses and returns the run length.
func (c *Config) GetDuration() time.Duration {
	if c.Duration == nil || *c.Duration == "" {
		return 60 * time.Second
	}
	d, err := time.ParseDuration(*c.Duration)
	if err != nil {
		return 60 * time.Second // default on parse error
	}
	return d
}

// GetSampleInterval returns the pose sample interval in simulated seconds.
func (c *Config) GetSampleInterval() float64 {
	if c.SampleInterval == nil {
		return 0.5
	}
	return *c.SampleInterval
}

// GetRealtime reports whether ticks are paced to the wall clock.
func (c *Config) GetRealtime() bool {
	if c.Realtime == nil {
		return false
	}
	return *c.Realtime
}

// DrivetrainConfig merges the file over drivetrain.DefaultConfig. An engine
// preset is applied first so explicit rpm and curve fields override it.
func (c *Config) DrivetrainConfig() (drivetrain.Config, error) {
	d := drivetrain.DefaultConfig()
	if c.EnginePreset != nil && *c.EnginePreset != "" {
		p, err := drivetrain.LookupEnginePreset(*c.EnginePreset)
		if err != nil {
			return d, err
		}
		p.Apply(&d.Engine)
	}
	set(&d.Engine.IdleRPM, c.IdleRPM)
	set(&d.Engine.MaxRPM, c.MaxRPM)
	set(&d.Engine.ShiftUpRPM, c.ShiftUpRPM)
	set(&d.Engine.ShiftDownRPM, c.ShiftDownRPM)
	if len(c.TorqueCurve) > 0 {
		d.Engine.Curve = slices.Clone(c.TorqueCurve)
	}
	if len(c.Gears) > 0 {
		d.Gears = slices.Clone(c.Gears)
	}
	if len(c.Wheels) > 0 {
		d.Wheels = slices.Clone(c.Wheels)
	}

	set(&d.MotorTorque, c.MotorTorque)
	set(&d.BrakeTorque, c.BrakeTorque)
	set(&d.MaxSpeed, c.MaxSpeed)
	set(&d.SteeringAngle, c.SteeringAngle)
	set(&d.SteeringAngleAtMax, c.SteeringAngleAtMax)
	set(&d.SlipLimit, c.SlipLimit)
	set(&d.TractionControlGain, c.TractionControlGain)
	set(&d.ABSGain, c.ABSGain)
	set(&d.SteerAssist, c.SteerAssist)
	set(&d.ThrottleSmoothTime, c.ThrottleSmoothTime)

	set(&d.Aero.DragCoefficient, c.DragCoefficient)
	set(&d.Aero.DownForceCoefficient, c.DownForceCoefficient)
	set(&d.Aero.KitDrag, c.KitDrag)
	set(&d.Aero.KitDownForce, c.KitDownForce)
	set(&d.Aero.KitArea, c.KitArea)

	if err := d.Validate(); err != nil {
		return d, fmt.Errorf("drivetrain: %w", err)
	}
	return d, nil
}

// TrackingParams merges the file over tracking.DefaultParams. Max speed,
// full-lock angle and wheel base follow the drivetrain and plant settings
// so the strategies plan for the car they drive.
func (c *Config) TrackingParams() (tracking.Params, error) {
	p := tracking.DefaultParams()
	set(&p.MaxSpeed, c.MaxSpeed)
	set(&p.SteeringAngle, c.SteeringAngle)
	set(&p.WheelBase, c.WheelBase)
	set(&p.MinSpeed, c.MinSpeed)
	set(&p.LookAhead, c.LookAhead)
	set(&p.SpeedGain, c.SpeedGain)
	set(&p.StanleyGain, c.StanleyGain)
	set(&p.StanleySoftening, c.StanleySoftening)
	set(&p.HorizonSteps, c.HorizonSteps)
	set(&p.HorizonDt, c.HorizonDt)
	set(&p.HeadingWeight, c.HeadingWeight)
	if err := p.Validate(); err != nil {
		return p, err
	}
	return p, nil
}

// PlantConfig merges the file over plant.DefaultConfig.
func (c *Config) PlantConfig() (plant.Config, error) {
	p := plant.DefaultConfig()
	set(&p.Mass, c.Mass)
	set(&p.WheelRadius, c.WheelRadius)
	set(&p.WheelBase, c.WheelBase)
	set(&p.Grip, c.Grip)
	set(&p.RollingDrag, c.RollingDrag)
	set(&p.LateralDamping, c.LateralDamping)
	set(&p.SlipLag, c.SlipLag)
	set(&p.TrackWidth, c.TrackWidth)
	set(&p.CGHeight, c.CGHeight)
	set(&p.SpringRate, c.SpringRate)
	set(&p.SuspensionTravel, c.SuspensionTravel)
	set(&p.RollLag, c.RollLag)
	if err := p.Validate(); err != nil {
		return p, err
	}
	return p, nil
}

// DifferentialUnits resolves the named wheel pairs against the drivetrain's
// wheel list.
func (c *Config) DifferentialUnits(d drivetrain.Config) ([]differential.Unit, error) {
	units := make([]differential.Unit, 0, len(c.Differentials))
	for _, spec := range c.Differentials {
		l, r := d.WheelIndex(spec.Left), d.WheelIndex(spec.Right)
		if l < 0 || r < 0 {
			return nil, fmt.Errorf("differential %s/%s: unknown wheel", spec.Left, spec.Right)
		}
		u := differential.New(l, r)
		set(&u.TorqueBias, spec.TorqueBias)
		set(&u.Transfer, spec.Transfer)
		if err := u.Validate(len(d.Wheels)); err != nil {
			return nil, err
		}
		units = append(units, u)
	}
	return units, nil
}

// AntiRollBarUnits resolves the named wheel pairs against the
// drivetrain's wheel list.
func (c *Config) AntiRollBarUnits(d drivetrain.Config) ([]antiroll.Bar, error) {
	bars := make([]antiroll.Bar, 0, len(c.AntiRollBars))
	for _, spec := range c.AntiRollBars {
		l, r := d.WheelIndex(spec.Left), d.WheelIndex(spec.Right)
		if l < 0 || r < 0 {
			return nil, fmt.Errorf("anti-roll bar %s/%s: unknown wheel", spec.Left, spec.Right)
		}
		b := antiroll.New(l, r)
		set(&b.Stiffness, spec.Stiffness)
		if err := b.Validate(len(d.Wheels)); err != nil {
			return nil, err
		}
		bars = append(bars, b)
	}
	return bars, nil
}

func set[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}
