package tracking

import (
	"math"
	"testing"

	"github.com/banshee-data/drivesim/internal/vmath"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
)

func TestLookAheadPoint(t *testing.T) {
	t.Parallel()

	t.Run("walks segments", func(t *testing.T) {
		nav := newNav(t, 1, mgl64.Vec3{0, 0, 5}, mgl64.Vec3{0, 0, 10}, mgl64.Vec3{0, 0, 20})
		got := LookAheadPoint(mgl64.Vec3{}, nav, 12)
		assert.InDelta(t, 0, got.Sub(mgl64.Vec3{0, 0, 12}).Len(), 1e-9)
	})

	t.Run("wraps past the last waypoint", func(t *testing.T) {
		nav := newNav(t, 1, mgl64.Vec3{0, 0, 5}, mgl64.Vec3{0, 0, 10}, mgl64.Vec3{0, 0, 20})
		nav.Skip()
		nav.Skip()
		got := LookAheadPoint(mgl64.Vec3{0, 0, 15}, nav, 7)
		assert.InDelta(t, 0, got.Sub(mgl64.Vec3{0, 0, 18}).Len(), 1e-9)
	})

	t.Run("short loop returns last walked waypoint", func(t *testing.T) {
		nav := newNav(t, 1, mgl64.Vec3{0, 0, 1}, mgl64.Vec3{1, 0, 1})
		got := LookAheadPoint(mgl64.Vec3{}, nav, 100)
		assert.Equal(t, mgl64.Vec3{1, 0, 1}, got)
	})

	t.Run("empty path", func(t *testing.T) {
		pos := mgl64.Vec3{3, 0, 4}
		assert.Equal(t, pos, LookAheadPoint(pos, newNav(t, 1), 10))
		assert.Equal(t, pos, LookAheadPoint(pos, nil, 10))
	})

	t.Run("zero length segments", func(t *testing.T) {
		nav := newNav(t, 1, mgl64.Vec3{0, 0, 5}, mgl64.Vec3{0, 0, 5}, mgl64.Vec3{0, 0, 9})
		assert.Equal(t, mgl64.Vec3{0, 0, 5}, LookAheadPoint(mgl64.Vec3{0, 0, 5}, nav, 0))
		got := LookAheadPoint(mgl64.Vec3{0, 0, 5}, nav, 2)
		assert.InDelta(t, 7, got.Z(), 1e-12)
	})
}

func TestPurePursuitStraightAheadHasZeroSteer(t *testing.T) {
	t.Parallel()

	c := &PurePursuit{Params: DefaultParams()}
	nav := newNav(t, 2, mgl64.Vec3{0, 0, 10}, mgl64.Vec3{0, 0, 20}, mgl64.Vec3{0, 0, 30})
	cmd := c.Compute(withSpeed(at(0, 0), 10), nav)
	assert.Equal(t, 0.0, cmd.Steer)
	assert.Greater(t, cmd.Accel, 0.0)
}

func TestPurePursuitSteersTowardsLookAhead(t *testing.T) {
	t.Parallel()

	c := &PurePursuit{Params: DefaultParams()}

	right := c.Compute(at(0, 0), newNav(t, 1, mgl64.Vec3{3, 0, 20}))
	left := c.Compute(at(0, 0), newNav(t, 1, mgl64.Vec3{-3, 0, 20}))
	assert.Greater(t, right.Steer, 0.0)
	assert.InDelta(t, -right.Steer, left.Steer, 1e-12)

	// Lookahead point 12 m along the ray to (3, 20).
	dir := mgl64.Vec3{3, 0, 20}.Normalize()
	p := dir.Mul(12)
	ld := 12 + vmath.Epsilon
	curvature := 2 * p.X() / (ld * ld)
	want := mgl64.RadToDeg(math.Atan(curvature*2.5)) / 30
	assert.InDelta(t, want, right.Steer, 1e-9)

	behind := c.Compute(at(0, 0), newNav(t, 1, mgl64.Vec3{2, 0, -1}))
	assert.Equal(t, 1.0, behind.Steer)
}

func TestPurePursuitLookAheadOnVehicle(t *testing.T) {
	t.Parallel()

	// A zero lookahead lands on the vehicle itself; the guard keeps the
	// curvature finite and the vehicle straight.
	p := DefaultParams()
	p.LookAhead = 0
	c := &PurePursuit{Params: p}
	cmd := c.Compute(at(0, 0), newNav(t, 1, mgl64.Vec3{0, 0, 0}, mgl64.Vec3{5, 0, 5}))
	assert.False(t, math.IsNaN(cmd.Steer))
	assert.Equal(t, 0.0, cmd.Steer)
	assert.False(t, math.IsNaN(cmd.Accel))
}
