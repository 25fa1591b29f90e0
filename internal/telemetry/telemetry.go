// Package telemetry is the optional instrumentation around a vehicle:
// checkpoint and lap events, periodic pose samples, an in-memory recorder
// and a sqlite-backed store. Nothing in the control core depends on it.
package telemetry

import (
	"github.com/banshee-data/drivesim/internal/drivetrain"
	"github.com/banshee-data/drivesim/internal/kinematics"
)

// Checkpoint is emitted every time the navigator advances.
type Checkpoint struct {
	Time  float64 `json:"time"`  // simulated seconds since the run started
	Index int     `json:"index"` // waypoint index now targeted
}

// Lap is emitted when the navigator wraps back to waypoint 0.
type Lap struct {
	Number int       `json:"number"` // 1-based
	Start  float64   `json:"start"`
	End    float64   `json:"end"`
	Splits []float64 `json:"splits"` // checkpoint times within the lap, End last
}

// Duration returns the lap time in seconds.
func (l Lap) Duration() float64 { return l.End - l.Start }

// PoseSample is a periodic snapshot of the vehicle.
type PoseSample struct {
	Time      float64              `json:"time"`
	Pose      kinematics.Pose      `json:"pose"`
	Drive     drivetrain.Telemetry `json:"drive"`
	Target    int                  `json:"target"`
	Commanded bool                 `json:"commanded"` // a strategy produced the inputs
}

// Sink receives telemetry events. Implementations must not block the tick.
type Sink interface {
	CheckpointReached(Checkpoint)
	LapCompleted(Lap)
	PoseSampled(PoseSample)
}

// Multi fans events out to several sinks in order.
type Multi []Sink

func (m Multi) CheckpointReached(c Checkpoint) {
	for _, s := range m {
		s.CheckpointReached(c)
	}
}

func (m Multi) LapCompleted(l Lap) {
	for _, s := range m {
		s.LapCompleted(l)
	}
}

func (m Multi) PoseSampled(p PoseSample) {
	for _, s := range m {
		s.PoseSampled(p)
	}
}

// Discard is a Sink that drops everything.
type Discard struct{}

func (Discard) CheckpointReached(Checkpoint) {}
func (Discard) LapCompleted(Lap)             {}
func (Discard) PoseSampled(PoseSample)       {}
