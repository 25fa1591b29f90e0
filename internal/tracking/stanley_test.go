package tracking

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
)

func straightPath(t *testing.T) []mgl64.Vec3 {
	t.Helper()
	return []mgl64.Vec3{{0, 0, 0}, {0, 0, 10}, {0, 0, 20}}
}

func TestCrossTrackError(t *testing.T) {
	t.Parallel()

	dir := mgl64.Vec3{0, 0, 1}
	assert.InDelta(t, 1, CrossTrackError(mgl64.Vec3{-1, 0, 3}, mgl64.Vec3{}, dir), 1e-12, "left is positive")
	assert.InDelta(t, -2, CrossTrackError(mgl64.Vec3{2, 0, -3}, mgl64.Vec3{}, dir), 1e-12)
	assert.InDelta(t, 0, CrossTrackError(mgl64.Vec3{0, 0, 7}, mgl64.Vec3{}, dir), 1e-12)
}

func TestStanleyOnPathHasZeroSteer(t *testing.T) {
	t.Parallel()

	c := &Stanley{Params: DefaultParams()}
	nav := newNav(t, 2, straightPath(t)...)
	cmd := c.Compute(withSpeed(at(0, -1), 8), nav)
	assert.Equal(t, 0.0, cmd.Steer)
}

func TestStanleyCorrectsCrossTrack(t *testing.T) {
	t.Parallel()

	c := &Stanley{Params: DefaultParams()}
	nav := newNav(t, 2, straightPath(t)...)

	left := c.Compute(withSpeed(at(-1, -1), 10), nav)
	want := mgl64.RadToDeg(math.Atan2(1, 10.1)) / 45
	assert.InDelta(t, want, left.Steer, 1e-9, "left of path steers right")

	right := c.Compute(withSpeed(at(1, -1), 10), nav)
	assert.InDelta(t, -want, right.Steer, 1e-9)

	// Slow vehicles get a much stronger correction.
	slow := c.Compute(at(-1, -1), nav)
	assert.Greater(t, slow.Steer, left.Steer)
}

func TestStanleyApproachMode(t *testing.T) {
	t.Parallel()

	c := &Stanley{Params: DefaultParams()}
	nav := newNav(t, 1, mgl64.Vec3{10, 0, 10}, mgl64.Vec3{10, 0, 20})
	cmd := c.Compute(at(0, 0), nav)
	assert.InDelta(t, 1, cmd.Steer, 1e-9, "aims straight at the far waypoint")
}

func TestStanleySingleWaypointAimsAtIt(t *testing.T) {
	t.Parallel()

	c := &Stanley{Params: DefaultParams()}
	nav := newNav(t, 10, mgl64.Vec3{-3, 0, 3})
	cmd := c.Compute(at(0, 0), nav)
	assert.InDelta(t, -1, cmd.Steer, 1e-9)
}
