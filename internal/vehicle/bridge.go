package vehicle

import "github.com/banshee-data/drivesim/internal/vmath"

// ActionBridge adapts a (gas, brake, steer) action, as produced by a
// learning agent or a pedal set, to the vehicle's signed accel input.
type ActionBridge struct {
	v *Vehicle
}

// NewActionBridge returns a bridge writing to v.
func NewActionBridge(v *Vehicle) *ActionBridge {
	return &ActionBridge{v: v}
}

// Apply clamps gas and brake to [0, 1] and steer to [-1, 1], then writes
// accel = gas - brake.
func (b *ActionBridge) Apply(gas, brake, steer float64) {
	b.v.SetInputs(Accel(gas, brake), vmath.ClampUnit(steer))
}

// Accel combines pedal values into a signed accel command.
func Accel(gas, brake float64) float64 {
	return vmath.Clamp01(gas) - vmath.Clamp01(brake)
}
