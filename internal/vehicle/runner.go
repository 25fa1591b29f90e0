package vehicle

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/banshee-data/drivesim/internal/drivetrain"
	"github.com/banshee-data/drivesim/internal/kinematics"
	"github.com/banshee-data/drivesim/internal/monitoring"
	"github.com/banshee-data/drivesim/internal/timeutil"
	"gonum.org/v1/gonum/stat"
)

// Plant is the physics layer a Runner drives.
type Plant interface {
	Pose() kinematics.Pose
	Contacts() []drivetrain.WheelContact
	Step(out drivetrain.Output, dt float64)
}

// Frame is what a Runner reports after every tick.
type Frame struct {
	Tick   int64
	Time   float64
	Pose   kinematics.Pose // after integration
	Output drivetrain.Output
	Drive  drivetrain.Telemetry
}

// Summary describes a finished run.
type Summary struct {
	Ticks      int64
	SimSeconds float64
	Laps       int
	BestLap    float64 // seconds, 0 without a completed lap
	MeanSpeed  float64 // m/s
	MaxSpeed   float64 // m/s
	Distance   float64 // m travelled
	Late       time.Duration
}

// Runner is the fixed-timestep scheduler: it ticks a Vehicle against a
// Plant for a simulated duration.
type Runner struct {
	Vehicle *Vehicle
	Plant   Plant
	Dt      float64 // seconds per tick

	// Clock paces ticks in real time when non-nil.
	Clock timeutil.Clock

	// OnFrame, when set, is called after every tick.
	OnFrame func(Frame)
}

// Run ticks until duration seconds of simulated time have passed or ctx is
// done. Cancellation returns the summary so far together with ctx.Err().
func (r *Runner) Run(ctx context.Context, duration float64) (Summary, error) {
	if r.Vehicle == nil || r.Plant == nil {
		return Summary{}, fmt.Errorf("runner needs a vehicle and a plant")
	}
	if r.Dt <= 0 {
		return Summary{}, fmt.Errorf("tick length must be positive, got %g", r.Dt)
	}

	steps := int64(math.Ceil(duration/r.Dt - 1e-9))
	speeds := make([]float64, 0, max(steps, 0))

	var pacer *timeutil.Pacer
	if r.Clock != nil {
		pacer = timeutil.NewPacer(r.Clock, time.Duration(r.Dt*float64(time.Second)))
		pacer.Start()
	}

	var sum Summary
	var err error
	for i := int64(0); i < steps; i++ {
		if err = ctx.Err(); err != nil {
			break
		}
		before := r.Plant.Pose()
		out := r.Vehicle.Tick(r.Dt, before, r.Plant.Contacts())
		r.Plant.Step(out, r.Dt)
		after := r.Plant.Pose()

		speed := after.Speed()
		speeds = append(speeds, speed)
		sum.MaxSpeed = math.Max(sum.MaxSpeed, speed)
		sum.Distance += kinematics.Distance(before.Position, after.Position)

		if r.OnFrame != nil {
			r.OnFrame(Frame{
				Tick:   r.Vehicle.Ticks(),
				Time:   r.Vehicle.Elapsed(),
				Pose:   after,
				Output: out,
				Drive:  r.Vehicle.Drivetrain().Telemetry(),
			})
		}
		if pacer != nil {
			sum.Late += pacer.Wait()
		}
	}

	sum.Ticks = int64(len(speeds))
	sum.SimSeconds = r.Vehicle.Elapsed()
	if len(speeds) > 0 {
		sum.MeanSpeed = stat.Mean(speeds, nil)
	}
	sum.Laps = len(r.Vehicle.Laps())
	if best, ok := r.Vehicle.BestLap(); ok {
		sum.BestLap = best.Duration()
	}
	if sum.Late > 0 {
		monitoring.Logf("runner: fell %v behind real time over %d ticks", sum.Late, sum.Ticks)
	}
	return sum, err
}
