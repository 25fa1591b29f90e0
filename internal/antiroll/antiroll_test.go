package antiroll

import (
	"testing"

	"github.com/banshee-data/drivesim/internal/drivetrain"
	"github.com/stretchr/testify/assert"
)

func axle(l, r drivetrain.WheelContact) []drivetrain.WheelContact {
	return []drivetrain.WheelContact{l, r}
}

func grounded(comp float64) drivetrain.WheelContact {
	return drivetrain.WheelContact{Grounded: true, Compression: comp}
}

func TestApply(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		left      drivetrain.WheelContact
		right     drivetrain.WheelContact
		wantForce float64
		wantL     float64
		wantR     float64
	}{
		{"level", grounded(0.5), grounded(0.5), 0, 0, 0},
		{"left compressed", grounded(0.7), grounded(0.3), 8000, 8000, -8000},
		{"right compressed", grounded(0.2), grounded(0.6), -8000, -8000, 8000},
		{"left airborne", drivetrain.WheelContact{Compression: 0.1}, grounded(0.4), 12000, 0, -12000},
		{"right airborne", grounded(0.25), drivetrain.WheelContact{}, -15000, -15000, 0},
		{"both airborne", drivetrain.WheelContact{}, drivetrain.WheelContact{}, 0, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmds := make([]drivetrain.WheelCommand, 2)
			f := New(0, 1).Apply(cmds, axle(tt.left, tt.right))
			assert.InDelta(t, tt.wantForce, f, 1e-9)
			assert.InDelta(t, tt.wantL, cmds[0].VerticalForce, 1e-9)
			assert.InDelta(t, tt.wantR, cmds[1].VerticalForce, 1e-9)
		})
	}
}

func TestAirborneCountsAsFullCompression(t *testing.T) {
	t.Parallel()

	// The reported compression of an airborne wheel is ignored.
	assert.Equal(t, 1.0, Compression(drivetrain.WheelContact{Compression: 0.2}))
	assert.Equal(t, 0.2, Compression(grounded(0.2)))
}

func TestApplyAddsToExistingForce(t *testing.T) {
	t.Parallel()

	cmds := []drivetrain.WheelCommand{{VerticalForce: 100, MotorTorque: 50}, {VerticalForce: 100}}
	Bar{Left: 0, Right: 1, Stiffness: 1000}.Apply(cmds, axle(grounded(0.6), grounded(0.5)))
	assert.InDelta(t, 200, cmds[0].VerticalForce, 1e-9)
	assert.InDelta(t, 0, cmds[1].VerticalForce, 1e-9)
	assert.Equal(t, 50.0, cmds[0].MotorTorque, "torque is untouched")
}

func TestApplyOutOfRange(t *testing.T) {
	t.Parallel()

	cmds := make([]drivetrain.WheelCommand, 2)
	assert.Zero(t, New(0, 3).Apply(cmds, axle(grounded(1), grounded(0))))
	assert.Zero(t, New(0, 1).Apply(cmds, nil))
	assert.Equal(t, make([]drivetrain.WheelCommand, 2), cmds)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	assert.NoError(t, New(0, 1).Validate(4))
	assert.Error(t, New(0, 4).Validate(4))
	assert.Error(t, New(-1, 1).Validate(4))
	assert.Error(t, New(2, 2).Validate(4))
	assert.Error(t, Bar{Left: 0, Right: 1, Stiffness: -1}.Validate(4))
}
