package telemetry

import (
	"sync"

	"github.com/samber/lo"
)

// Recorder keeps every event in memory for reports and tests. It is safe
// for concurrent use, so a reader may snapshot it while a run is going.
type Recorder struct {
	mu          sync.Mutex
	checkpoints []Checkpoint
	laps        []Lap
	samples     []PoseSample
}

// NewRecorder returns an empty recorder.
func NewRecorder() *Recorder { return &Recorder{} }

func (r *Recorder) CheckpointReached(c Checkpoint) {
	r.mu.Lock()
	r.checkpoints = append(r.checkpoints, c)
	r.mu.Unlock()
}

func (r *Recorder) LapCompleted(l Lap) {
	r.mu.Lock()
	r.laps = append(r.laps, l)
	r.mu.Unlock()
}

func (r *Recorder) PoseSampled(p PoseSample) {
	r.mu.Lock()
	r.samples = append(r.samples, p)
	r.mu.Unlock()
}

// Checkpoints returns a copy of the recorded checkpoints.
func (r *Recorder) Checkpoints() []Checkpoint {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Checkpoint(nil), r.checkpoints...)
}

// Laps returns a copy of the recorded laps.
func (r *Recorder) Laps() []Lap {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Lap(nil), r.laps...)
}

// Samples returns a copy of the recorded pose samples.
func (r *Recorder) Samples() []PoseSample {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]PoseSample(nil), r.samples...)
}

// Speeds returns the sampled speeds in m/s.
func (r *Recorder) Speeds() []float64 {
	return lo.Map(r.Samples(), func(p PoseSample, _ int) float64 { return p.Drive.Speed })
}
