// Package report renders run telemetry for humans: an HTML page of echarts
// line charts and a PNG trajectory plot.
package report

import (
	"fmt"
	"io"

	"github.com/banshee-data/drivesim/internal/telemetry"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/samber/lo"
)

// AssetsHost overrides where the rendered page loads echarts from. Empty
// keeps the go-echarts default CDN.
var AssetsHost string

// series is one line chart on the page.
type series struct {
	title, name, unit string
	value             func(telemetry.PoseSample) float64
}

var chartSeries = []series{
	{"Speed", "speed", "km/h", func(s telemetry.PoseSample) float64 { return s.Drive.SpeedKMH }},
	{"Engine RPM", "rpm", "rpm", func(s telemetry.PoseSample) float64 { return s.Drive.EngineRPM }},
	{"Gear", "gear", "index", func(s telemetry.PoseSample) float64 { return float64(s.Drive.Gear) }},
}

// WriteCharts renders speed, engine RPM and gear against simulated time.
func WriteCharts(w io.Writer, samples []telemetry.PoseSample) error {
	xs := lo.Map(samples, func(s telemetry.PoseSample, _ int) string {
		return fmt.Sprintf("%.1f", s.Time)
	})

	page := components.NewPage()
	page.PageTitle = "drivesim run"
	if AssetsHost != "" {
		page.SetAssetsHost(AssetsHost)
	}
	for _, sr := range chartSeries {
		page.AddCharts(lineChart(sr, xs, samples))
	}
	if err := page.Render(w); err != nil {
		return fmt.Errorf("render charts: %w", err)
	}
	return nil
}

func lineChart(sr series, xs []string, samples []telemetry.PoseSample) *charts.Line {
	data := lo.Map(samples, func(s telemetry.PoseSample, _ int) opts.LineData {
		return opts.LineData{Value: sr.value(s)}
	})

	line := charts.NewLine()
	initOpts := opts.Initialization{Width: "100%", Height: "360px"}
	if AssetsHost != "" {
		initOpts.AssetsHost = AssetsHost
	}
	line.SetGlobalOptions(
		charts.WithInitializationOpts(initOpts),
		charts.WithTitleOpts(opts.Title{Title: sr.title, Subtitle: fmt.Sprintf("samples=%d", len(samples))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "t (s)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: sr.unit, NameLocation: "middle", NameGap: 40}),
	)
	line.SetXAxis(xs).AddSeries(sr.name, data)
	return line
}
