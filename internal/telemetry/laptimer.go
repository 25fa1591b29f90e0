package telemetry

import "github.com/banshee-data/drivesim/internal/monitoring"

// LapTimer turns checkpoint events into laps. A lap ends at the checkpoint
// that wraps the navigator to index 0; the first lap starts at time 0.
type LapTimer struct {
	start  float64
	splits []float64
	laps   []Lap
}

// Record notes c and returns the completed lap, if c closed one.
func (t *LapTimer) Record(c Checkpoint) (Lap, bool) {
	t.splits = append(t.splits, c.Time)
	if c.Index != 0 {
		return Lap{}, false
	}
	lap := Lap{
		Number: len(t.laps) + 1,
		Start:  t.start,
		End:    c.Time,
		Splits: t.splits,
	}
	t.laps = append(t.laps, lap)
	t.start = c.Time
	t.splits = nil
	monitoring.Logf("lap %d: %.2fs over %d checkpoints", lap.Number, lap.Duration(), len(lap.Splits))
	return lap, true
}

// Laps returns the completed laps.
func (t *LapTimer) Laps() []Lap { return t.laps }

// Best returns the fastest completed lap.
func (t *LapTimer) Best() (Lap, bool) {
	if len(t.laps) == 0 {
		return Lap{}, false
	}
	best := t.laps[0]
	for _, l := range t.laps[1:] {
		if l.Duration() < best.Duration() {
			best = l
		}
	}
	return best, true
}

// Reset forgets all laps and partial splits.
func (t *LapTimer) Reset() {
	*t = LapTimer{}
}

// PoseSampler decides when a pose sample is due.
type PoseSampler struct {
	Interval float64 // seconds; 0 samples every call
	next     float64
	started  bool
}

// DefaultSampleInterval is the pose logging period.
const DefaultSampleInterval = 0.5

// Due reports whether a sample should be taken at time now, and if so
// schedules the next one.
func (s *PoseSampler) Due(now float64) bool {
	if s.started && now+1e-9 < s.next {
		return false
	}
	s.started = true
	s.next = now + s.Interval
	return true
}

// Reset makes the next call to Due return true.
func (s *PoseSampler) Reset() {
	s.started = false
	s.next = 0
}
