package report

import (
	"errors"
	"fmt"
	"image/color"

	"github.com/banshee-data/drivesim/internal/telemetry"
	"github.com/go-gl/mathgl/mgl64"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// ErrNothingToPlot is returned when there are neither waypoints nor samples.
var ErrNothingToPlot = errors.New("report: nothing to plot")

var (
	waypointColor = color.RGBA{R: 214, G: 39, B: 40, A: 255}
	pathColor     = color.RGBA{R: 31, G: 119, B: 180, A: 255}
)

// PlotTrajectory writes a top-down plot of the waypoint loop and the driven
// path to path. The image format follows the file extension (.png, .svg, .pdf).
// World X is plotted across and world Z up the page.
func PlotTrajectory(path string, waypoints []mgl64.Vec3, samples []telemetry.PoseSample) error {
	p, err := trajectoryPlot(waypoints, samples)
	if err != nil {
		return err
	}
	if err := p.Save(8*vg.Inch, 8*vg.Inch, path); err != nil {
		return fmt.Errorf("save trajectory plot: %w", err)
	}
	return nil
}

func trajectoryPlot(waypoints []mgl64.Vec3, samples []telemetry.PoseSample) (*plot.Plot, error) {
	if len(waypoints) == 0 && len(samples) == 0 {
		return nil, ErrNothingToPlot
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Trajectory (%d waypoints, %d samples)", len(waypoints), len(samples))
	p.X.Label.Text = "X (m)"
	p.Y.Label.Text = "Z (m)"
	p.Add(plotter.NewGrid())

	if len(waypoints) > 0 {
		// close the loop so the last leg is drawn
		pts := make(plotter.XYs, 0, len(waypoints)+1)
		for _, w := range waypoints {
			pts = append(pts, plotter.XY{X: w.X(), Y: w.Z()})
		}
		pts = append(pts, pts[0])

		loop, err := plotter.NewLine(pts)
		if err != nil {
			return nil, err
		}
		loop.Color = waypointColor
		loop.Width = vg.Points(0.5)
		loop.Dashes = []vg.Length{vg.Points(4), vg.Points(3)}

		marks, err := plotter.NewScatter(pts[:len(waypoints)])
		if err != nil {
			return nil, err
		}
		marks.Color = waypointColor
		p.Add(loop, marks)
		p.Legend.Add("waypoints", marks)
	}

	if len(samples) > 0 {
		pts := make(plotter.XYs, len(samples))
		for i, s := range samples {
			pts[i] = plotter.XY{X: s.Pose.Position.X(), Y: s.Pose.Position.Z()}
		}
		driven, err := plotter.NewLine(pts)
		if err != nil {
			return nil, err
		}
		driven.Color = pathColor
		driven.Width = vg.Points(1)
		p.Add(driven)
		p.Legend.Add("driven", driven)
	}

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10
	return p, nil
}
