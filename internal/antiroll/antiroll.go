// Package antiroll implements an anti-roll bar linking the suspension of
// two wheels on one axle.
package antiroll

import (
	"fmt"

	"github.com/banshee-data/drivesim/internal/drivetrain"
)

// DefaultStiffness is the bar rate in N per unit of compression difference.
const DefaultStiffness = 20000

// airborneCompression is the compression assumed for a wheel with no ground
// contact.
const airborneCompression = 1.0

// Bar couples two wheels by index into the drivetrain's wheel list.
type Bar struct {
	Left      int     `json:"left" yaml:"left"`
	Right     int     `json:"right" yaml:"right"`
	Stiffness float64 `json:"stiffness" yaml:"stiffness"`
}

// New returns a bar with the default stiffness.
func New(left, right int) Bar {
	return Bar{Left: left, Right: right, Stiffness: DefaultStiffness}
}

// Validate checks the bar against a wheel count.
func (b Bar) Validate(wheels int) error {
	if b.Left < 0 || b.Left >= wheels || b.Right < 0 || b.Right >= wheels {
		return fmt.Errorf("anti-roll bar wheels %d/%d out of range [0,%d)", b.Left, b.Right, wheels)
	}
	if b.Left == b.Right {
		return fmt.Errorf("anti-roll bar pairs wheel %d with itself", b.Left)
	}
	if b.Stiffness < 0 {
		return fmt.Errorf("anti-roll bar stiffness must be non-negative, got %g", b.Stiffness)
	}
	return nil
}

// Force returns (compL - compR) × Stiffness for the pair.
func (b Bar) Force(contacts []drivetrain.WheelContact) float64 {
	if !inRange(b, len(contacts)) {
		return 0
	}
	return (Compression(contacts[b.Left]) - Compression(contacts[b.Right])) * b.Stiffness
}

// Apply lifts the more compressed corner and pulls down the other by the
// bar force. Only grounded wheels receive force. It returns the force.
func (b Bar) Apply(cmds []drivetrain.WheelCommand, contacts []drivetrain.WheelContact) float64 {
	if !inRange(b, len(cmds)) || !inRange(b, len(contacts)) {
		return 0
	}
	f := b.Force(contacts)
	if contacts[b.Left].Grounded {
		cmds[b.Left].VerticalForce += f
	}
	if contacts[b.Right].Grounded {
		cmds[b.Right].VerticalForce -= f
	}
	return f
}

// Compression returns the wheel's compression, or 1 when it is airborne.
func Compression(c drivetrain.WheelContact) float64 {
	if !c.Grounded {
		return airborneCompression
	}
	return c.Compression
}

func inRange(b Bar, n int) bool {
	return b.Left >= 0 && b.Left < n && b.Right >= 0 && b.Right < n
}
