package vehicle

import (
	"errors"
	"testing"

	"github.com/banshee-data/drivesim/internal/antiroll"
	"github.com/banshee-data/drivesim/internal/differential"
	"github.com/banshee-data/drivesim/internal/drivetrain"
	"github.com/banshee-data/drivesim/internal/kinematics"
	"github.com/banshee-data/drivesim/internal/monitoring"
	"github.com/banshee-data/drivesim/internal/navigator"
	"github.com/banshee-data/drivesim/internal/telemetry"
	"github.com/banshee-data/drivesim/internal/tracking"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	monitoring.SetLogger(nil)
}

func grounded(rpm ...float64) []drivetrain.WheelContact {
	out := make([]drivetrain.WheelContact, len(rpm))
	for i, r := range rpm {
		out[i] = drivetrain.WheelContact{Grounded: true, AngularRate: r}
	}
	return out
}

func newNav(t *testing.T, radius float64, wps ...mgl64.Vec3) *navigator.Navigator {
	t.Helper()
	nav, err := navigator.New(navigator.Path{Waypoints: wps, Radius: radius})
	require.NoError(t, err)
	return nav
}

func TestNewRejectsConfiguration(t *testing.T) {
	t.Parallel()

	cfg := drivetrain.DefaultConfig()
	cfg.Gears = nil
	_, err := New(cfg)
	assert.True(t, errors.Is(err, drivetrain.ErrEmptyGearTable))

	_, err = New(drivetrain.DefaultConfig(), WithDifferentials(differential.New(2, 7)))
	assert.Error(t, err)

	_, err = New(drivetrain.DefaultConfig(), WithAntiRollBars(antiroll.New(0, 0)))
	assert.Error(t, err)

	_, err = New(drivetrain.DefaultConfig(), WithSampleInterval(-1))
	assert.Error(t, err)
}

func TestStrategyDrivesInputs(t *testing.T) {
	t.Parallel()

	nav := newNav(t, 1, mgl64.Vec3{10, 0, 2})
	strat, err := tracking.New("proportional", tracking.DefaultParams())
	require.NoError(t, err)
	v, err := New(drivetrain.DefaultConfig(), WithNavigator(nav), WithStrategy(strat))
	require.NoError(t, err)

	v.SetInputs(-1, -1) // overwritten by the strategy inside Tick
	v.Tick(0.02, kinematics.Pose{}, grounded(0, 0, 0, 0))

	want := strat.Compute(kinematics.Pose{}, nav)
	accel, steer := v.Drivetrain().Inputs()
	assert.Equal(t, want.Accel, accel)
	assert.Equal(t, want.Steer, steer)
	assert.Equal(t, 1.0, steer)
}

func TestExternalInputsWithoutStrategy(t *testing.T) {
	t.Parallel()

	v, err := New(drivetrain.DefaultConfig())
	require.NoError(t, err)
	v.SetInputs(0.7, -0.3)
	out := v.Tick(0.02, kinematics.Pose{}, grounded(0, 0, 0, 0))

	accel, steer := v.Drivetrain().Inputs()
	assert.Equal(t, 0.7, accel)
	assert.Equal(t, -0.3, steer)
	assert.Greater(t, out.Wheels[2].MotorTorque, 0.0)
	assert.InDelta(t, -9, out.Wheels[0].SteerAngle, 1e-9)
}

func TestNoTargetMeansNoCommand(t *testing.T) {
	t.Parallel()

	strat, err := tracking.New("stanley", tracking.DefaultParams())
	require.NoError(t, err)
	v, err := New(drivetrain.DefaultConfig(), WithNavigator(newNav(t, 1)), WithStrategy(strat))
	require.NoError(t, err)

	out := v.Tick(0.02, kinematics.Pose{}, grounded(0, 0, 0, 0))
	accel, steer := v.Drivetrain().Inputs()
	assert.Equal(t, 0.0, accel)
	assert.Equal(t, 0.0, steer)
	for _, w := range out.Wheels {
		assert.Equal(t, drivetrain.WheelCommand{}, w)
	}
}

func TestCheckpointsAndLaps(t *testing.T) {
	t.Parallel()

	rec := telemetry.NewRecorder()
	wp0, wp1 := mgl64.Vec3{0, 0, 0}, mgl64.Vec3{0, 0, 20}
	v, err := New(drivetrain.DefaultConfig(), WithNavigator(newNav(t, 2, wp0, wp1)), WithSink(rec))
	require.NoError(t, err)

	contacts := grounded(0, 0, 0, 0)
	v.Tick(0.5, kinematics.Pose{Position: wp0}, contacts)                  // reach 0, now targeting 1
	v.Tick(0.5, kinematics.Pose{Position: mgl64.Vec3{0, 0, 10}}, contacts) // nothing
	v.Tick(0.5, kinematics.Pose{Position: wp1}, contacts)                  // reach 1, wrap to 0

	assert.Equal(t, []telemetry.Checkpoint{{Time: 0.5, Index: 1}, {Time: 1.5, Index: 0}}, rec.Checkpoints())
	require.Len(t, rec.Laps(), 1)
	lap := rec.Laps()[0]
	assert.Equal(t, 1, lap.Number)
	assert.Equal(t, 1.5, lap.End)
	assert.Equal(t, []float64{0.5, 1.5}, lap.Splits)
	assert.Equal(t, rec.Laps(), v.Laps())
}

func TestPoseSampling(t *testing.T) {
	t.Parallel()

	rec := telemetry.NewRecorder()
	v, err := New(drivetrain.DefaultConfig(), WithSink(rec))
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		v.Tick(0.1, kinematics.Pose{}, nil)
	}
	samples := rec.Samples()
	require.Len(t, samples, 2)
	assert.InDelta(t, 0.1, samples[0].Time, 1e-9)
	assert.InDelta(t, 0.6, samples[1].Time, 1e-9)
	assert.Equal(t, -1, samples[0].Target, "no navigator")
	assert.False(t, samples[0].Commanded)
	assert.Equal(t, 1, samples[0].Drive.Gear)
}

func TestDifferentialRunsAfterDrivetrain(t *testing.T) {
	t.Parallel()

	contacts := grounded(0, 0, 300, 100)

	plain, err := New(drivetrain.DefaultConfig())
	require.NoError(t, err)
	plain.SetInputs(1, 0)
	base := plain.Tick(0.02, kinematics.Pose{}, contacts)
	require.Equal(t, base.Wheels[2].MotorTorque, base.Wheels[3].MotorTorque)

	lsd, err := New(drivetrain.DefaultConfig(), WithDifferentials(differential.New(2, 3)))
	require.NoError(t, err)
	lsd.SetInputs(1, 0)
	out := lsd.Tick(0.02, kinematics.Pose{}, contacts)

	moved := base.Wheels[2].MotorTorque * differential.DefaultTransfer
	assert.InDelta(t, base.Wheels[2].MotorTorque-moved, out.Wheels[2].MotorTorque, 1e-9)
	assert.InDelta(t, base.Wheels[3].MotorTorque+moved, out.Wheels[3].MotorTorque, 1e-9)
}

func TestAntiRollBarsActOnGroundedWheels(t *testing.T) {
	t.Parallel()

	v, err := New(drivetrain.DefaultConfig(), WithAntiRollBars(antiroll.New(0, 1), antiroll.New(2, 3)))
	require.NoError(t, err)

	contacts := []drivetrain.WheelContact{
		{Grounded: true, Compression: 0.7},
		{Grounded: true, Compression: 0.3},
		{Compression: 0.2}, // airborne, read as fully compressed
		{Grounded: true, Compression: 0.5},
	}
	out := v.Tick(0.02, kinematics.Pose{}, contacts)

	assert.InDelta(t, 8000, out.Wheels[0].VerticalForce, 1e-9)
	assert.InDelta(t, -8000, out.Wheels[1].VerticalForce, 1e-9)
	assert.Equal(t, 0.0, out.Wheels[2].VerticalForce)
	assert.InDelta(t, -10000, out.Wheels[3].VerticalForce, 1e-9)
}

func TestReset(t *testing.T) {
	t.Parallel()

	nav := newNav(t, 5, mgl64.Vec3{0, 0, 0}, mgl64.Vec3{0, 0, 50})
	v, err := New(drivetrain.DefaultConfig(), WithNavigator(nav))
	require.NoError(t, err)

	v.SetInputs(-1, 0)
	v.Tick(0.02, kinematics.Pose{}, grounded(0, 0, 0, 0))
	require.Equal(t, drivetrain.ReverseGear, v.Drivetrain().CurrentGear())
	require.Equal(t, 1, nav.CurrentIndex())

	v.Reset()
	assert.Equal(t, 1, v.Drivetrain().CurrentGear())
	assert.Equal(t, 900.0, v.Drivetrain().EngineRPM())
	assert.Equal(t, 0, nav.CurrentIndex())
	assert.Equal(t, 0.0, v.Elapsed())
	assert.Equal(t, int64(0), v.Ticks())
	assert.Empty(t, v.Laps())
}

func TestActionBridge(t *testing.T) {
	t.Parallel()

	v, err := New(drivetrain.DefaultConfig())
	require.NoError(t, err)
	b := NewActionBridge(v)

	b.Apply(0.8, 0.3, 2)
	accel, steer := v.Drivetrain().Inputs()
	assert.InDelta(t, 0.5, accel, 1e-12)
	assert.Equal(t, 1.0, steer)

	assert.Equal(t, 1.0, Accel(2, -1))
	assert.Equal(t, -1.0, Accel(0, 3))
	assert.Equal(t, 0.0, Accel(0.4, 0.4))
}
