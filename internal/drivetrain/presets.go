package drivetrain

import (
	"fmt"
	"sort"
	"strings"
)

// EnginePreset is a named engine character: RPM range and torque shape.
type EnginePreset struct {
	Name    string
	IdleRPM float64
	MaxRPM  float64
	Curve   []CurvePoint
}

var enginePresets = []EnginePreset{
	{
		Name: "i4-economy", IdleRPM: 900, MaxRPM: 6500,
		Curve: []CurvePoint{{0, 0.2}, {0.2, 0.6}, {0.4, 1}, {0.8, 0.8}, {1, 0.2}},
	},
	{
		Name: "v6-sport", IdleRPM: 1000, MaxRPM: 7500,
		Curve: []CurvePoint{{0, 0.3}, {0.25, 0.7}, {0.5, 1}, {0.85, 0.95}, {1, 0.4}},
	},
	{
		Name: "v8-muscle", IdleRPM: 800, MaxRPM: 6200,
		Curve: []CurvePoint{{0, 0.35}, {0.25, 0.9}, {0.45, 1}, {0.7, 1}, {0.95, 0.45}, {1, 0.3}},
	},
	{
		Name: "i4-turbo", IdleRPM: 900, MaxRPM: 7000,
		Curve: []CurvePoint{{0, 0.2}, {0.2, 0.3}, {0.35, 0.7}, {0.5, 1}, {0.8, 1}, {0.92, 0.5}, {1, 0.2}},
	},
	{
		Name: "electric", IdleRPM: 0, MaxRPM: 16000,
		Curve: []CurvePoint{{0, 1}, {0.5, 1}, {0.8, 0.8}, {1, 0.2}},
	},
	{
		Name: "diesel-truck", IdleRPM: 600, MaxRPM: 4000,
		Curve: []CurvePoint{{0, 0.3}, {0.2, 0.9}, {0.45, 1}, {0.7, 0.8}, {1, 0.3}},
	},
}

// LookupEnginePreset finds a preset by name, case-insensitively.
func LookupEnginePreset(name string) (EnginePreset, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	for _, p := range enginePresets {
		if p.Name == key {
			return p, nil
		}
	}
	return EnginePreset{}, fmt.Errorf("unknown engine preset %q (valid: %s)", name, strings.Join(EnginePresetNames(), ", "))
}

// EnginePresetNames lists the available preset names in sorted order.
func EnginePresetNames() []string {
	names := make([]string, len(enginePresets))
	for i, p := range enginePresets {
		names[i] = p.Name
	}
	sort.Strings(names)
	return names
}

// Apply copies the preset's RPM range and curve onto e. Shift points are
// rescaled to keep their position relative to the new RPM range, so the
// engine invariant still holds after the swap.
func (p EnginePreset) Apply(e *Engine) {
	span := e.MaxRPM - e.IdleRPM
	upFrac, downFrac := 0.92, 0.3
	if span > 0 {
		upFrac = (e.ShiftUpRPM - e.IdleRPM) / span
		downFrac = (e.ShiftDownRPM - e.IdleRPM) / span
	}
	newSpan := p.MaxRPM - p.IdleRPM
	e.IdleRPM = p.IdleRPM
	e.MaxRPM = p.MaxRPM
	e.ShiftUpRPM = p.IdleRPM + upFrac*newSpan
	e.ShiftDownRPM = p.IdleRPM + downFrac*newSpan
	e.Curve = append([]CurvePoint(nil), p.Curve...)
}
