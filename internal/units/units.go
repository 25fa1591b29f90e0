// Package units provides the unit constants and conversions used for
// telemetry readouts. The simulation itself runs in SI units throughout.
package units

import (
	"math"
	"strings"
)

// Speed unit constants
const (
	MPS  = "mps"
	MPH  = "mph"
	KMPH = "kmph"
	KPH  = "kph"
)

// ValidUnits contains all valid speed unit values
var ValidUnits = []string{MPS, MPH, KMPH, KPH}

// IsValid checks if the given unit is in the list of valid units
func IsValid(unit string) bool {
	for _, validUnit := range ValidUnits {
		if unit == validUnit {
			return true
		}
	}
	return false
}

// GetValidUnitsString returns a comma-separated string of valid units for error messages
func GetValidUnitsString() string {
	return strings.Join(ValidUnits, ", ")
}

// ConvertSpeed converts a speed from meters per second to the target units.
// Unknown units return the input unchanged.
func ConvertSpeed(speedMPS float64, targetUnits string) float64 {
	switch targetUnits {
	case MPH:
		return speedMPS * 2.2369362920544
	case KMPH, KPH:
		return speedMPS * 3.6
	default:
		return speedMPS
	}
}

// MPSToKMH converts m/s to km/h.
func MPSToKMH(v float64) float64 { return v * 3.6 }

// WheelRPM returns the rotation rate of a wheel of the given radius rolling
// at surface speed v (m/s). A non-positive radius yields 0.
func WheelRPM(v, radius float64) float64 {
	if radius <= 0 {
		return 0
	}
	return v / (2 * math.Pi * radius) * 60
}
