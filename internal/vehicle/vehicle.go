// Package vehicle composes one drivetrain with its navigator, input source,
// differentials and telemetry, and runs them in the fixed per-tick order.
package vehicle

import (
	"fmt"

	"github.com/banshee-data/drivesim/internal/antiroll"
	"github.com/banshee-data/drivesim/internal/differential"
	"github.com/banshee-data/drivesim/internal/drivetrain"
	"github.com/banshee-data/drivesim/internal/kinematics"
	"github.com/banshee-data/drivesim/internal/navigator"
	"github.com/banshee-data/drivesim/internal/telemetry"
	"github.com/banshee-data/drivesim/internal/tracking"
)

// Vehicle owns the per-tick pipeline:
//
//	navigator advance -> strategy -> drivetrain step -> differentials -> anti-roll bars
//
// Inputs come from at most one source per tick: the attached strategy,
// or SetInputs / an ActionBridge when no strategy is attached. If both
// write, the strategy wins because it runs inside Tick.
type Vehicle struct {
	drive    *drivetrain.Controller
	nav      *navigator.Navigator
	strategy tracking.Strategy
	diffs    []differential.Unit
	bars     []antiroll.Bar
	sink     telemetry.Sink

	laps    telemetry.LapTimer
	sampler telemetry.PoseSampler

	elapsed float64
	ticks   int64
}

// Option configures a Vehicle.
type Option func(*Vehicle) error

// WithNavigator attaches a path navigator.
func WithNavigator(nav *navigator.Navigator) Option {
	return func(v *Vehicle) error {
		v.nav = nav
		return nil
	}
}

// WithStrategy attaches a tracking strategy as the input source.
func WithStrategy(s tracking.Strategy) Option {
	return func(v *Vehicle) error {
		v.strategy = s
		return nil
	}
}

// WithDifferentials adds limited-slip units. They are checked against the
// drivetrain's wheel list.
func WithDifferentials(units ...differential.Unit) Option {
	return func(v *Vehicle) error {
		n := len(v.drive.Config().Wheels)
		for _, u := range units {
			if err := u.Validate(n); err != nil {
				return err
			}
		}
		v.diffs = append(v.diffs, units...)
		return nil
	}
}

// WithAntiRollBars adds anti-roll bars. They are checked against the
// drivetrain's wheel list.
func WithAntiRollBars(bars ...antiroll.Bar) Option {
	return func(v *Vehicle) error {
		n := len(v.drive.Config().Wheels)
		for _, b := range bars {
			if err := b.Validate(n); err != nil {
				return err
			}
		}
		v.bars = append(v.bars, bars...)
		return nil
	}
}

// WithSink routes checkpoint, lap and pose events to s.
func WithSink(s telemetry.Sink) Option {
	return func(v *Vehicle) error {
		v.sink = s
		return nil
	}
}

// WithSampleInterval sets the pose sampling period in seconds.
func WithSampleInterval(seconds float64) Option {
	return func(v *Vehicle) error {
		if seconds < 0 {
			return fmt.Errorf("sample interval must be non-negative, got %g", seconds)
		}
		v.sampler.Interval = seconds
		return nil
	}
}

// New builds a vehicle around a drivetrain with cfg. Configuration errors
// from the drivetrain or any option prevent the vehicle from starting.
func New(cfg drivetrain.Config, opts ...Option) (*Vehicle, error) {
	drive, err := drivetrain.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("drivetrain: %w", err)
	}
	v := &Vehicle{
		drive:   drive,
		sink:    telemetry.Discard{},
		sampler: telemetry.PoseSampler{Interval: telemetry.DefaultSampleInterval},
	}
	for _, opt := range opts {
		if err := opt(v); err != nil {
			return nil, err
		}
	}
	if v.sink == nil {
		v.sink = telemetry.Discard{}
	}
	return v, nil
}

// Drivetrain exposes the controller for telemetry readouts.
func (v *Vehicle) Drivetrain() *drivetrain.Controller { return v.drive }

// Navigator returns the attached navigator, or nil.
func (v *Vehicle) Navigator() *navigator.Navigator { return v.nav }

// Strategy returns the attached strategy, or nil.
func (v *Vehicle) Strategy() tracking.Strategy { return v.strategy }

// Laps returns the laps completed since the last Reset.
func (v *Vehicle) Laps() []telemetry.Lap { return v.laps.Laps() }

// BestLap returns the fastest lap since the last Reset.
func (v *Vehicle) BestLap() (telemetry.Lap, bool) { return v.laps.Best() }

// Elapsed returns the simulated time since the last Reset.
func (v *Vehicle) Elapsed() float64 { return v.elapsed }

// Ticks returns the number of ticks since the last Reset.
func (v *Vehicle) Ticks() int64 { return v.ticks }

// SetInputs latches external accel/steer commands for the next tick.
func (v *Vehicle) SetInputs(accel, steer float64) {
	v.drive.SetInputs(accel, steer)
}

// Tick runs one fixed step of dt seconds and returns the commands for the
// physics layer.
func (v *Vehicle) Tick(dt float64, pose kinematics.Pose, contacts []drivetrain.WheelContact) drivetrain.Output {
	v.elapsed += dt
	v.ticks++

	if v.nav != nil && v.nav.Advance(pose.Position) {
		cp := telemetry.Checkpoint{Time: v.elapsed, Index: v.nav.CurrentIndex()}
		v.sink.CheckpointReached(cp)
		if lap, ok := v.laps.Record(cp); ok {
			v.sink.LapCompleted(lap)
		}
	}

	if v.strategy != nil {
		cmd := v.strategy.Compute(pose, v.nav)
		v.drive.SetInputs(cmd.Accel, cmd.Steer)
	}

	out := v.drive.Step(dt, pose, contacts)
	for _, d := range v.diffs {
		d.Apply(out.Wheels, contacts)
	}
	for _, b := range v.bars {
		b.Apply(out.Wheels, contacts)
	}

	if v.sampler.Due(v.elapsed) {
		s := telemetry.PoseSample{
			Time:      v.elapsed,
			Pose:      pose,
			Drive:     v.drive.Telemetry(),
			Target:    -1,
			Commanded: v.strategy != nil,
		}
		if v.nav != nil {
			s.Target = v.nav.CurrentIndex()
		}
		v.sink.PoseSampled(s)
	}
	return out
}

// Reset returns the vehicle to its initial state for a new episode: the
// drivetrain to gear 1 at idle, the navigator to waypoint 0, and the lap
// timer and clock to zero.
func (v *Vehicle) Reset() {
	v.drive.Reset()
	if v.nav != nil {
		v.nav.Reset()
	}
	v.laps.Reset()
	v.sampler.Reset()
	v.elapsed = 0
	v.ticks = 0
}
