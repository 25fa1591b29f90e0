package serialmux

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Line kinds of the drive-link protocol. Every message is one line of
// space-separated fields, keyword first:
//
//	ACT <gas> <brake> <steer>                      host -> vehicle
//	RESET                                          host -> vehicle
//	TEL <t> <speed_kmh> <gear> <rpm> <index>       vehicle -> host
type LineKind string

const (
	LineAction    LineKind = "ACT"
	LineReset     LineKind = "RESET"
	LineTelemetry LineKind = "TEL"
	LineUnknown   LineKind = "unknown"
)

// ErrMalformedLine is wrapped by ParseLine when a known keyword carries the
// wrong number of fields or a field that does not parse.
var ErrMalformedLine = errors.New("malformed drive-link line")

// Action is an externally supplied control: gas and brake in [0,1], steer in
// [-1,1]. Values are passed through unclamped; the vehicle clamps.
type Action struct {
	Gas   float64
	Brake float64
	Steer float64
}

func (a Action) String() string {
	return fmt.Sprintf("%s %.4f %.4f %.4f", LineAction, a.Gas, a.Brake, a.Steer)
}

// Telemetry is the per-report vehicle state sent back to the host.
type Telemetry struct {
	Time     float64 // simulated seconds
	SpeedKMH float64
	Gear     int // 0 is reverse
	RPM      float64
	Index    int // current waypoint, -1 without a path
}

func (t Telemetry) String() string {
	return fmt.Sprintf("%s %.3f %.2f %d %.0f %d", LineTelemetry, t.Time, t.SpeedKMH, t.Gear, t.RPM, t.Index)
}

// Message is a decoded line. Only the field matching Kind is meaningful.
type Message struct {
	Kind      LineKind
	Action    Action
	Telemetry Telemetry
}

// ClassifyLine returns the kind of line from its keyword alone.
func ClassifyLine(line string) LineKind {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return LineUnknown
	}
	switch kind := LineKind(strings.ToUpper(fields[0])); kind {
	case LineAction, LineReset, LineTelemetry:
		return kind
	}
	return LineUnknown
}

// ParseLine classifies and decodes one line. Unknown keywords and blank lines
// return a LineUnknown message and no error so callers can skip noise.
func ParseLine(line string) (Message, error) {
	fields := strings.Fields(line)
	kind := ClassifyLine(line)
	msg := Message{Kind: kind}

	switch kind {
	case LineReset:
		if len(fields) != 1 {
			return msg, fmt.Errorf("%w: %q", ErrMalformedLine, line)
		}
	case LineAction:
		v, err := parseFloats(line, fields[1:], 3)
		if err != nil {
			return msg, err
		}
		msg.Action = Action{Gas: v[0], Brake: v[1], Steer: v[2]}
	case LineTelemetry:
		v, err := parseFloats(line, fields[1:], 5)
		if err != nil {
			return msg, err
		}
		gear, err1 := strconv.Atoi(fields[3])
		index, err2 := strconv.Atoi(fields[5])
		if err := errors.Join(err1, err2); err != nil {
			return msg, fmt.Errorf("%w: %q: %v", ErrMalformedLine, line, err)
		}
		msg.Telemetry = Telemetry{Time: v[0], SpeedKMH: v[1], Gear: gear, RPM: v[3], Index: index}
	}
	return msg, nil
}

func parseFloats(line string, fields []string, n int) ([]float64, error) {
	if len(fields) != n {
		return nil, fmt.Errorf("%w: %q: want %d values, got %d", ErrMalformedLine, line, n, len(fields))
	}
	out := make([]float64, n)
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrMalformedLine, line, err)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: %q: non-finite value", ErrMalformedLine, line)
		}
		out[i] = v
	}
	return out, nil
}
