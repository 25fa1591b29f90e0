package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func TestRealClock(t *testing.T) {
	c := RealClock{}
	before := time.Now()
	now := c.Now()
	assert.False(t, now.Before(before))
	assert.GreaterOrEqual(t, c.Since(before), time.Duration(0))
	assert.Greater(t, c.Until(now.Add(time.Hour)), 59*time.Minute)
}

func TestMockClockAdvance(t *testing.T) {
	c := NewMockClock(epoch)
	assert.Equal(t, epoch, c.Now())

	c.Advance(90 * time.Second)
	assert.Equal(t, epoch.Add(90*time.Second), c.Now())
	assert.Equal(t, 90*time.Second, c.Since(epoch))
	assert.Equal(t, 10*time.Second, c.Until(epoch.Add(100*time.Second)))
}

func TestMockClockSleepAdvances(t *testing.T) {
	c := NewMockClock(epoch)
	c.Sleep(20 * time.Millisecond)
	c.Sleep(0)
	c.Sleep(5 * time.Millisecond)

	assert.Equal(t, []time.Duration{20 * time.Millisecond, 0, 5 * time.Millisecond}, c.Sleeps())
	assert.Equal(t, epoch.Add(25*time.Millisecond), c.Now())
}

func TestPacer(t *testing.T) {
	c := NewMockClock(epoch)
	p := NewPacer(c, 20*time.Millisecond)
	p.Start()

	for i := 0; i < 3; i++ {
		assert.Zero(t, p.Wait())
	}
	assert.Equal(t, 60*time.Millisecond, p.Elapsed())
	require.Len(t, c.Sleeps(), 3)

	// Work that overruns a tick is reported, not skipped.
	c.Advance(50 * time.Millisecond)
	assert.Equal(t, 30*time.Millisecond, p.Wait())
	assert.Len(t, c.Sleeps(), 3)

	// The schedule stays anchored at Start: the next tick is still late,
	// the one after is on time again.
	assert.Equal(t, 10*time.Millisecond, p.Wait())
	assert.Zero(t, p.Wait())
	assert.Equal(t, 120*time.Millisecond, p.Elapsed())
}
