// Package navigator tracks progress along a closed loop of waypoints.
//
// The waypoint slice is shared read-only by every strategy attached to the
// same vehicle; only the current index mutates, and only through Advance,
// Skip and Reset.
package navigator

import (
	"errors"
	"fmt"

	"github.com/banshee-data/drivesim/internal/kinematics"
	"github.com/banshee-data/drivesim/internal/monitoring"
	"github.com/go-gl/mathgl/mgl64"
)

// ErrNegativeRadius is returned when a path is configured with a negative
// arrival radius.
var ErrNegativeRadius = errors.New("waypoint radius must be non-negative")

// Waypoint is a target position on the path.
type Waypoint = mgl64.Vec3

// Path is an ordered loop of waypoints and the radius within which a
// waypoint counts as reached.
type Path struct {
	Waypoints []Waypoint `json:"waypoints" yaml:"waypoints"`
	Radius    float64    `json:"radius" yaml:"radius"`
}

// StartPose places a car on the last waypoint facing the first, so a loop
// starts where it closes. Paths shorter than two waypoints start at the
// origin facing +Z.
func (p Path) StartPose() kinematics.Pose {
	wps := p.Waypoints
	if len(wps) < 2 {
		return kinematics.Pose{}
	}
	from := wps[len(wps)-1]
	return kinematics.Pose{Position: from, Yaw: kinematics.HeadingTo(from, wps[0])}
}

// Navigator holds a Path and the index of the waypoint currently targeted.
type Navigator struct {
	path  Path
	index int
}

// New returns a navigator positioned at the first waypoint. An empty path is
// valid: Current reports no target and Advance never moves.
func New(path Path) (*Navigator, error) {
	if path.Radius < 0 {
		return nil, fmt.Errorf("%w: %g", ErrNegativeRadius, path.Radius)
	}
	wps := make([]Waypoint, len(path.Waypoints))
	copy(wps, path.Waypoints)
	return &Navigator{path: Path{Waypoints: wps, Radius: path.Radius}}, nil
}

// Advance moves to the next waypoint (wrapping to 0) when position is strictly
// closer than the radius to the current one. It reports whether the index
// changed. A zero radius never advances.
func (n *Navigator) Advance(position mgl64.Vec3) bool {
	cur, ok := n.Current()
	if !ok {
		return false
	}
	if kinematics.Distance(position, cur) >= n.path.Radius {
		return false
	}
	n.Skip()
	monitoring.Debugf("navigator: reached waypoint, now targeting %d/%d", n.index, len(n.path.Waypoints))
	return true
}

// Skip moves to the next waypoint unconditionally. It is a no-op on an empty path.
func (n *Navigator) Skip() {
	if len(n.path.Waypoints) == 0 {
		return
	}
	n.index = (n.index + 1) % len(n.path.Waypoints)
}

// Current returns the targeted waypoint, or false when the path is empty.
func (n *Navigator) Current() (Waypoint, bool) {
	if len(n.path.Waypoints) == 0 {
		return Waypoint{}, false
	}
	return n.path.Waypoints[n.index], true
}

// At returns the waypoint i steps ahead of the current one, wrapping.
func (n *Navigator) At(i int) (Waypoint, bool) {
	c := len(n.path.Waypoints)
	if c == 0 {
		return Waypoint{}, false
	}
	return n.path.Waypoints[((n.index+i)%c+c)%c], true
}

// Count returns the number of waypoints.
func (n *Navigator) Count() int { return len(n.path.Waypoints) }

// CurrentIndex returns the index of the targeted waypoint.
func (n *Navigator) CurrentIndex() int { return n.index }

// Radius returns the arrival radius.
func (n *Navigator) Radius() float64 { return n.path.Radius }

// Waypoints returns the path's waypoints. Callers must not modify the slice.
func (n *Navigator) Waypoints() []Waypoint { return n.path.Waypoints }

// Reset targets the first waypoint again.
func (n *Navigator) Reset() { n.index = 0 }
