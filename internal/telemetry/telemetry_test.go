package telemetry

import (
	"testing"

	"github.com/banshee-data/drivesim/internal/monitoring"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	monitoring.SetLogger(nil)
}

func TestLapTimer(t *testing.T) {
	t.Parallel()

	var lt LapTimer
	events := []Checkpoint{
		{Time: 1.5, Index: 1},
		{Time: 3.0, Index: 2},
		{Time: 4.25, Index: 0},
		{Time: 5.0, Index: 1},
		{Time: 6.0, Index: 2},
		{Time: 8.0, Index: 0},
		{Time: 9.0, Index: 1},
	}
	var laps []Lap
	for _, e := range events {
		if lap, ok := lt.Record(e); ok {
			laps = append(laps, lap)
		}
	}

	want := []Lap{
		{Number: 1, Start: 0, End: 4.25, Splits: []float64{1.5, 3.0, 4.25}},
		{Number: 2, Start: 4.25, End: 8.0, Splits: []float64{5.0, 6.0, 8.0}},
	}
	if diff := cmp.Diff(want, laps); diff != "" {
		t.Errorf("laps mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, laps, lt.Laps())

	best, ok := lt.Best()
	require.True(t, ok)
	assert.Equal(t, 2, best.Number)
	assert.InDelta(t, 3.75, best.Duration(), 1e-12)

	lt.Reset()
	assert.Empty(t, lt.Laps())
	_, ok = lt.Best()
	assert.False(t, ok)
}

func TestPoseSampler(t *testing.T) {
	t.Parallel()

	s := PoseSampler{Interval: DefaultSampleInterval}
	var due []float64
	for i := 0; i <= 100; i++ {
		now := float64(i) * 0.02
		if s.Due(now) {
			due = append(due, now)
		}
	}
	require.Len(t, due, 5)
	for i, d := range due {
		assert.InDelta(t, float64(i)*0.5, d, 1e-9)
	}

	s.Reset()
	assert.True(t, s.Due(7))
	assert.False(t, s.Due(7.1))
}

func TestMultiFansOut(t *testing.T) {
	t.Parallel()

	a, b := NewRecorder(), NewRecorder()
	m := Multi{a, Discard{}, b}
	m.CheckpointReached(Checkpoint{Time: 1, Index: 1})
	m.LapCompleted(Lap{Number: 1})
	m.PoseSampled(PoseSample{Time: 0.5})

	for _, r := range []*Recorder{a, b} {
		assert.Len(t, r.Checkpoints(), 1)
		assert.Len(t, r.Laps(), 1)
		assert.Len(t, r.Samples(), 1)
	}
}

func TestRecorderSpeeds(t *testing.T) {
	t.Parallel()

	r := NewRecorder()
	for _, v := range []float64{0, 4, 9} {
		p := PoseSample{}
		p.Drive.Speed = v
		r.PoseSampled(p)
	}
	assert.Equal(t, []float64{0, 4, 9}, r.Speeds())

	// Snapshots are copies.
	s := r.Samples()
	s[0].Time = 99
	assert.Equal(t, 0.0, r.Samples()[0].Time)
}
