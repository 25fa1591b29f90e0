// Package differential implements a limited-slip torque-bias unit for a pair
// of driven wheels.
package differential

import (
	"fmt"
	"math"

	"github.com/banshee-data/drivesim/internal/drivetrain"
)

// Defaults for a road-car limited-slip differential.
const (
	DefaultTorqueBias = 2.5
	DefaultTransfer   = 0.1

	// stationaryRPM below which both wheels are considered at rest.
	stationaryRPM = 1.0
)

// Unit couples two wheels by index into the drivetrain's wheel list.
type Unit struct {
	Left       int     `json:"left" yaml:"left"`
	Right      int     `json:"right" yaml:"right"`
	TorqueBias float64 `json:"torque_bias" yaml:"torque_bias"` // faster/slower rate ratio that triggers a transfer
	Transfer   float64 `json:"transfer" yaml:"transfer"`       // fraction of the faster wheel's motor torque moved
}

// New returns a unit with the default bias and transfer fraction.
func New(left, right int) Unit {
	return Unit{Left: left, Right: right, TorqueBias: DefaultTorqueBias, Transfer: DefaultTransfer}
}

// Validate checks the unit against a wheel count.
func (u Unit) Validate(wheels int) error {
	if u.Left < 0 || u.Left >= wheels || u.Right < 0 || u.Right >= wheels {
		return fmt.Errorf("differential wheels %d/%d out of range [0,%d)", u.Left, u.Right, wheels)
	}
	if u.Left == u.Right {
		return fmt.Errorf("differential pairs wheel %d with itself", u.Left)
	}
	if u.TorqueBias < 1 {
		return fmt.Errorf("differential torque bias must be >= 1, got %g", u.TorqueBias)
	}
	if u.Transfer < 0 || u.Transfer > 1 {
		return fmt.Errorf("differential transfer must be in [0,1], got %g", u.Transfer)
	}
	return nil
}

// Apply moves Transfer of the faster wheel's motor torque to the slower one
// when their rate ratio exceeds TorqueBias. It reports whether torque moved.
// Out-of-range indices and near-stationary pairs are left untouched.
func (u Unit) Apply(cmds []drivetrain.WheelCommand, contacts []drivetrain.WheelContact) bool {
	if !u.inRange(len(cmds)) || !u.inRange(len(contacts)) {
		return false
	}
	l := math.Abs(contacts[u.Left].AngularRate)
	r := math.Abs(contacts[u.Right].AngularRate)
	if l < stationaryRPM && r < stationaryRPM {
		return false
	}

	fast, slow := u.Left, u.Right
	if r > l {
		fast, slow = u.Right, u.Left
		l, r = r, l
	}
	if l/math.Max(r, stationaryRPM) <= u.TorqueBias {
		return false
	}
	moved := cmds[fast].MotorTorque * u.Transfer
	cmds[fast].MotorTorque -= moved
	cmds[slow].MotorTorque += moved
	return true
}

func (u Unit) inRange(n int) bool {
	return u.Left >= 0 && u.Left < n && u.Right >= 0 && u.Right < n
}
