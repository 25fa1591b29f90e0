// Package drivelink connects a vehicle to an external controller over a
// serialmux line stream. The host sends ACT and RESET lines; the link
// ticks the vehicle against a plant and answers with TEL lines.
package drivelink

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/banshee-data/drivesim/internal/kinematics"
	"github.com/banshee-data/drivesim/internal/monitoring"
	"github.com/banshee-data/drivesim/internal/serialmux"
	"github.com/banshee-data/drivesim/internal/timeutil"
	"github.com/banshee-data/drivesim/internal/vehicle"
)

// DefaultReportEvery is the free-running telemetry period in ticks.
const DefaultReportEvery = 5

var logf = monitoring.Component("drivelink")

// Plant is a vehicle.Plant that can be put back at a start pose.
type Plant interface {
	vehicle.Plant
	Reset(kinematics.Pose)
}

// Link runs one vehicle for one host.
type Link struct {
	Mux     serialmux.Mux
	Vehicle *vehicle.Vehicle
	Plant   Plant
	Start   kinematics.Pose // pose restored on RESET
	Dt      float64         // seconds per tick

	// Lockstep advances exactly one tick per ACT line and answers each with
	// a TEL line. Otherwise the link free-runs, applying the latest action
	// and reporting every ReportEvery ticks.
	Lockstep    bool
	ReportEvery int

	// WaitFirst holds a free-running link until the first line arrives.
	WaitFirst bool

	// Duration bounds a free-running link in simulated seconds; 0 runs
	// until ctx is done.
	Duration float64

	// Clock paces free-running ticks when non-nil.
	Clock timeutil.Clock

	bridge *vehicle.ActionBridge
}

// Run serves the host until ctx is done, the line stream ends, or Duration
// elapses. The mux's Monitor is started and stopped by Run.
func (l *Link) Run(ctx context.Context) error {
	if l.Mux == nil || l.Vehicle == nil || l.Plant == nil {
		return errors.New("drivelink needs a mux, a vehicle and a plant")
	}
	if l.Dt <= 0 {
		return fmt.Errorf("tick length must be positive, got %g", l.Dt)
	}
	l.bridge = vehicle.NewActionBridge(l.Vehicle)

	id, lines := l.Mux.Subscribe()
	defer l.Mux.Unsubscribe(id)

	ctx, cancel := context.WithCancel(ctx)
	monitorDone := make(chan error, 1)
	go func() { monitorDone <- l.Mux.Monitor(ctx) }()
	defer func() {
		cancel()
		<-monitorDone
	}()

	if l.Lockstep {
		return l.lockstep(ctx, lines, monitorDone)
	}
	return l.freeRun(ctx, lines, monitorDone)
}

func (l *Link) lockstep(ctx context.Context, lines <-chan string, monitorDone chan error) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if err := l.lockstepLine(line); err != nil {
				return err
			}
		case err := <-monitorDone:
			monitorDone <- err // for the deferred shutdown
			// lines already fanned out are still buffered
			for {
				select {
				case line, ok := <-lines:
					if !ok {
						return streamEnd(err)
					}
					if lerr := l.lockstepLine(line); lerr != nil {
						return lerr
					}
				default:
					return streamEnd(err)
				}
			}
		}
	}
}

func (l *Link) lockstepLine(line string) error {
	if l.Handle(line) != serialmux.LineAction {
		return nil
	}
	l.tick()
	return l.report()
}

func (l *Link) freeRun(ctx context.Context, lines <-chan string, monitorDone chan error) error {
	if l.WaitFirst {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-monitorDone:
			monitorDone <- err
			return streamEnd(err)
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			l.Handle(line)
		}
	}

	every := l.ReportEvery
	if every <= 0 {
		every = DefaultReportEvery
	}
	steps := int64(math.MaxInt64)
	if l.Duration > 0 {
		steps = int64(math.Ceil(l.Duration/l.Dt - 1e-9))
	}

	var pacer *timeutil.Pacer
	if l.Clock != nil {
		pacer = timeutil.NewPacer(l.Clock, time.Duration(l.Dt*float64(time.Second)))
		pacer.Start()
	}

	for i := int64(0); i < steps; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if done, err := l.drain(lines, monitorDone); done {
			return err
		}
		l.tick()
		if i%int64(every) == 0 {
			if err := l.report(); err != nil {
				return err
			}
		}
		if pacer != nil {
			pacer.Wait()
		}
	}
	return nil
}

// drain handles every line that is already waiting without blocking.
func (l *Link) drain(lines <-chan string, monitorDone chan error) (bool, error) {
	for {
		select {
		case line, ok := <-lines:
			if !ok {
				return true, nil
			}
			l.Handle(line)
		case err := <-monitorDone:
			monitorDone <- err
			return true, streamEnd(err)
		default:
			return false, nil
		}
	}
}

// Handle applies one inbound line and returns its kind. Malformed and
// unknown lines are logged and otherwise ignored.
func (l *Link) Handle(line string) serialmux.LineKind {
	if l.bridge == nil {
		l.bridge = vehicle.NewActionBridge(l.Vehicle)
	}
	msg, err := serialmux.ParseLine(line)
	if err != nil {
		logf("%v", err)
		return serialmux.LineUnknown
	}
	switch msg.Kind {
	case serialmux.LineAction:
		a := msg.Action
		l.bridge.Apply(a.Gas, a.Brake, a.Steer)
	case serialmux.LineReset:
		l.Vehicle.Reset()
		l.Plant.Reset(l.Start)
		logf("reset")
	case serialmux.LineTelemetry:
		// our own echo on a loopback port
	default:
		monitoring.Debugf("drivelink: ignoring %q", line)
	}
	return msg.Kind
}

func (l *Link) tick() {
	out := l.Vehicle.Tick(l.Dt, l.Plant.Pose(), l.Plant.Contacts())
	l.Plant.Step(out, l.Dt)
}

// Telemetry is the current vehicle state in wire form.
func (l *Link) Telemetry() serialmux.Telemetry {
	d := l.Vehicle.Drivetrain().Telemetry()
	index := -1
	if nav := l.Vehicle.Navigator(); nav != nil {
		index = nav.CurrentIndex()
	}
	return serialmux.Telemetry{
		Time:     l.Vehicle.Elapsed(),
		SpeedKMH: d.SpeedKMH,
		Gear:     d.Gear,
		RPM:      d.EngineRPM,
		Index:    index,
	}
}

func (l *Link) report() error {
	if err := l.Mux.SendCommand(l.Telemetry().String()); err != nil {
		return fmt.Errorf("send telemetry: %w", err)
	}
	return nil
}

// streamEnd maps the monitor's exit to Run's result: a cancelled monitor
// or a clean EOF is a normal end.
func streamEnd(err error) error {
	if err == nil || errors.Is(err, context.Canceled) {
		return nil
	}
	return fmt.Errorf("serial monitor: %w", err)
}
