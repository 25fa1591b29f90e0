package units

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValid(t *testing.T) {
	for _, u := range ValidUnits {
		assert.True(t, IsValid(u), u)
	}
	assert.False(t, IsValid("furlongs"))
	assert.Equal(t, "mps, mph, kmph, kph", GetValidUnitsString())
}

func TestConvertSpeed(t *testing.T) {
	tests := []struct {
		unit string
		want float64
	}{
		{MPS, 10},
		{KMPH, 36},
		{KPH, 36},
		{MPH, 22.369362920544},
		{"unknown", 10},
	}
	for _, tt := range tests {
		t.Run(tt.unit, func(t *testing.T) {
			assert.InDelta(t, tt.want, ConvertSpeed(10, tt.unit), 1e-9)
		})
	}
}

func TestWheelRPM(t *testing.T) {
	// One revolution per second of a wheel with circumference 2 m.
	r := 1 / 3.141592653589793
	assert.InDelta(t, 60, WheelRPM(2, r), 1e-9)
	assert.Equal(t, 0.0, WheelRPM(10, 0))
	assert.InDelta(t, 72, MPSToKMH(20), 1e-12)
}
