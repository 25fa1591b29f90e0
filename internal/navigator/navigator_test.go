package navigator

import (
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func square() Path {
	return Path{
		Waypoints: []Waypoint{{0, 0, 10}, {10, 0, 10}, {10, 0, 0}, {0, 0, 0}},
		Radius:    3,
	}
}

func TestNewRejectsNegativeRadius(t *testing.T) {
	t.Parallel()

	_, err := New(Path{Radius: -1})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNegativeRadius))
}

func TestEmptyPath(t *testing.T) {
	t.Parallel()

	n, err := New(Path{Radius: 5})
	require.NoError(t, err)

	_, ok := n.Current()
	assert.False(t, ok)
	assert.False(t, n.Advance(mgl64.Vec3{}))
	assert.Equal(t, 0, n.Count())
	assert.Equal(t, 0, n.CurrentIndex())
	n.Skip()
	assert.Equal(t, 0, n.CurrentIndex())
}

func TestAdvance(t *testing.T) {
	t.Parallel()

	t.Run("inside radius advances", func(t *testing.T) {
		n, err := New(square())
		require.NoError(t, err)
		assert.True(t, n.Advance(mgl64.Vec3{0, 0, 8}))
		assert.Equal(t, 1, n.CurrentIndex())
	})

	t.Run("outside radius holds", func(t *testing.T) {
		n, err := New(square())
		require.NoError(t, err)
		assert.False(t, n.Advance(mgl64.Vec3{0, 0, 0}))
		assert.Equal(t, 0, n.CurrentIndex())
	})

	t.Run("boundary is exclusive", func(t *testing.T) {
		n, err := New(square())
		require.NoError(t, err)
		assert.False(t, n.Advance(mgl64.Vec3{0, 0, 7}))
	})

	t.Run("wraps to zero", func(t *testing.T) {
		n, err := New(square())
		require.NoError(t, err)
		for i, wp := range square().Waypoints {
			require.True(t, n.Advance(wp), "waypoint %d", i)
		}
		assert.Equal(t, 0, n.CurrentIndex())
	})

	t.Run("zero radius never advances", func(t *testing.T) {
		p := square()
		p.Radius = 0
		n, err := New(p)
		require.NoError(t, err)
		assert.False(t, n.Advance(p.Waypoints[0]))
		assert.Equal(t, 0, n.CurrentIndex())
	})
}

func TestAtAndReset(t *testing.T) {
	t.Parallel()

	n, err := New(square())
	require.NoError(t, err)
	n.Skip()
	n.Skip()

	wp, ok := n.At(1)
	require.True(t, ok)
	assert.Equal(t, Waypoint{0, 0, 0}, wp)
	wp, _ = n.At(2)
	assert.Equal(t, Waypoint{0, 0, 10}, wp)
	wp, _ = n.At(-1)
	assert.Equal(t, Waypoint{10, 0, 10}, wp)

	n.Reset()
	assert.Equal(t, 0, n.CurrentIndex())
}

func TestNewCopiesWaypoints(t *testing.T) {
	t.Parallel()

	p := square()
	n, err := New(p)
	require.NoError(t, err)
	p.Waypoints[0] = Waypoint{99, 0, 99}
	cur, _ := n.Current()
	assert.Equal(t, Waypoint{0, 0, 10}, cur)
}

func TestStartPose(t *testing.T) {
	t.Parallel()

	p := Path{Waypoints: []Waypoint{{0, 0, 10}, {10, 0, 10}, {0, 0, 0}}}.StartPose()
	assert.Equal(t, Waypoint{0, 0, 0}, p.Position)
	assert.InDelta(t, 0, p.Yaw, 1e-12)

	p = square().StartPose()
	assert.Equal(t, Waypoint{0, 0, 0}, p.Position)
	assert.InDelta(t, 0, p.Yaw, 1e-12, "last corner faces the first")

	p = Path{Waypoints: []Waypoint{{10, 0, 0}, {0, 0, 0}}}.StartPose()
	assert.InDelta(t, math.Pi/2, p.Yaw, 1e-12)

	p = Path{Waypoints: []Waypoint{{5, 0, 5}}}.StartPose()
	assert.Equal(t, Waypoint{}, p.Position)
	assert.Zero(t, Path{}.StartPose().Yaw)
}
