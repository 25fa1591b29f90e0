// Package tracking holds the path-tracking control laws. Every strategy
// turns the vehicle pose and the navigator's current target into the same
// (accel, steer) command consumed by the drivetrain.
package tracking

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/banshee-data/drivesim/internal/kinematics"
	"github.com/banshee-data/drivesim/internal/navigator"
	"github.com/banshee-data/drivesim/internal/vmath"
)

// ErrUnknownStrategy is returned by New for an unrecognised strategy name.
var ErrUnknownStrategy = errors.New("unknown tracking strategy")

// Command is a strategy's output. Both values lie in [-1, 1].
type Command struct {
	Accel float64 `json:"accel"`
	Steer float64 `json:"steer"`
}

// Strategy is a path-tracking control law.
type Strategy interface {
	// Name returns the strategy name used in configuration and logs.
	Name() Kind

	// Compute returns the command for this tick. A nil navigator or one
	// without a current target yields the zero Command.
	Compute(pose kinematics.Pose, nav *navigator.Navigator) Command
}

// Kind names a strategy variant.
type Kind string

const (
	// KindProportional steers at the current waypoint in proportion to the heading error.
	KindProportional Kind = "proportional"
	// KindPurePursuit follows the curvature to a lookahead point on the path.
	KindPurePursuit Kind = "pure_pursuit"
	// KindStanley combines heading error with a cross-track correction.
	KindStanley Kind = "stanley"
	// KindMPC searches a grid of commands over a short kinematic horizon.
	KindMPC Kind = "mpc"
)

// Kinds lists every strategy in a stable order.
func Kinds() []Kind {
	return []Kind{KindProportional, KindPurePursuit, KindStanley, KindMPC}
}

// Params is shared tuning for all strategies. Fields that a strategy does
// not use are ignored by it.
type Params struct {
	MaxSpeed      float64 `json:"max_speed" yaml:"max_speed"`           // m/s, the drivetrain's governor speed
	MinSpeed      float64 `json:"min_speed" yaml:"min_speed"`           // m/s, desired speed when facing away
	SteeringAngle float64 `json:"steering_angle" yaml:"steering_angle"` // degrees, full-lock steer angle
	LookAhead     float64 `json:"look_ahead" yaml:"look_ahead"`         // m
	SpeedGain     float64 `json:"speed_gain" yaml:"speed_gain"`
	WheelBase     float64 `json:"wheel_base" yaml:"wheel_base"` // m

	StanleyGain      float64 `json:"stanley_gain" yaml:"stanley_gain"`
	StanleySoftening float64 `json:"stanley_softening" yaml:"stanley_softening"` // m/s added to speed

	HorizonSteps  int       `json:"horizon_steps" yaml:"horizon_steps"`
	HorizonDt     float64   `json:"horizon_dt" yaml:"horizon_dt"` // s
	HeadingWeight float64   `json:"heading_weight" yaml:"heading_weight"`
	Grid          []float64 `json:"grid" yaml:"grid"` // candidate values for both accel and steer
}

// DefaultParams returns the stock tuning.
func DefaultParams() Params {
	return Params{
		MaxSpeed:         80,
		MinSpeed:         5,
		SteeringAngle:    30,
		LookAhead:        12,
		SpeedGain:        0.2,
		WheelBase:        2.5,
		StanleyGain:      1,
		StanleySoftening: 0.1,
		HorizonSteps:     10,
		HorizonDt:        0.2,
		HeadingWeight:    0.1,
		Grid:             []float64{-1, -0.5, 0, 0.5, 1},
	}
}

// Validate rejects tuning that no strategy can run with.
func (p Params) Validate() error {
	switch {
	case p.MaxSpeed <= 0:
		return fmt.Errorf("tracking max speed must be positive, got %g", p.MaxSpeed)
	case p.LookAhead <= 0:
		return fmt.Errorf("tracking look-ahead must be positive, got %g", p.LookAhead)
	case p.WheelBase <= 0:
		return fmt.Errorf("tracking wheel base must be positive, got %g", p.WheelBase)
	case p.StanleySoftening <= 0:
		return fmt.Errorf("stanley softening must be positive, got %g", p.StanleySoftening)
	case p.HorizonSteps <= 0 || p.HorizonDt <= 0:
		return fmt.Errorf("mpc horizon must be positive, got %d steps of %gs", p.HorizonSteps, p.HorizonDt)
	case len(p.Grid) == 0:
		return errors.New("mpc grid is empty")
	}
	return nil
}

// New builds the named strategy.
func New(name string, p Params) (Strategy, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	switch Kind(strings.ToLower(strings.TrimSpace(name))) {
	case KindProportional:
		return &Proportional{Params: p}, nil
	case KindPurePursuit:
		return &PurePursuit{Params: p}, nil
	case KindStanley:
		return &Stanley{Params: p}, nil
	case KindMPC:
		return &MPC{Params: p}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
}

// target returns the current waypoint, or false when there is nothing to
// track.
func target(nav *navigator.Navigator) (navigator.Waypoint, bool) {
	if nav == nil {
		return navigator.Waypoint{}, false
	}
	return nav.Current()
}

// speedCommand maps a heading error and remaining distance to an accel
// command. Facing away or arriving both lower the desired speed.
func (p Params) speedCommand(angleDeg, dist, speed float64) float64 {
	return vmath.ClampUnit((p.desiredSpeed(angleDeg, dist) - speed) * p.SpeedGain)
}

func (p Params) desiredSpeed(angleDeg, dist float64) float64 {
	facing := vmath.Clamp01((90 - math.Abs(angleDeg)) / 90)
	return vmath.Lerp(p.MinSpeed, p.MaxSpeed, facing) * vmath.Clamp01(dist/(p.LookAhead+vmath.Epsilon))
}
