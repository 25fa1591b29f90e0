package drivetrain

import (
	"errors"
	"fmt"
	"sort"

	"github.com/banshee-data/drivesim/internal/vmath"
	"gonum.org/v1/gonum/interp"
)

// ErrInvalidTorqueCurve is returned for control points that cannot describe a
// normalised torque curve.
var ErrInvalidTorqueCurve = errors.New("invalid torque curve")

// CurvePoint is a control point of a normalised torque curve: RPM as a
// fraction of maxRPM, torque as a fraction of peak torque. Both lie in [0, 1].
type CurvePoint struct {
	RPM    float64 `json:"rpm" yaml:"rpm"`
	Torque float64 `json:"torque" yaml:"torque"`
}

// TorqueCurve maps an RPM fraction to a torque fraction.
//
// Interpolation rule: with three or more control points the curve is a
// Fritsch-Butland monotone piecewise cubic Hermite spline, which is C1, passes
// through every point and never overshoots the neighbouring control values.
// With exactly two points it is the straight line between them; with one
// point it is constant. Inputs are clamped to the first/last control RPM so
// the ends extrapolate flat, and outputs are clamped to [0, 1].
type TorqueCurve struct {
	points    []CurvePoint
	predictor interp.Predictor
}

// FlatTorqueCurve returns a curve delivering full torque at every RPM.
func FlatTorqueCurve() *TorqueCurve {
	c, _ := NewTorqueCurve([]CurvePoint{{0, 1}, {1, 1}})
	return c
}

// NewTorqueCurve fits a curve through points. Points are sorted by RPM;
// duplicate RPM values or values outside [0, 1] are rejected.
func NewTorqueCurve(points []CurvePoint) (*TorqueCurve, error) {
	if len(points) == 0 {
		return nil, fmt.Errorf("%w: no control points", ErrInvalidTorqueCurve)
	}
	pts := make([]CurvePoint, len(points))
	copy(pts, points)
	sort.Slice(pts, func(i, j int) bool { return pts[i].RPM < pts[j].RPM })

	xs := make([]float64, len(pts))
	ys := make([]float64, len(pts))
	for i, p := range pts {
		if p.RPM < 0 || p.RPM > 1 || p.Torque < 0 || p.Torque > 1 {
			return nil, fmt.Errorf("%w: point %d (%g, %g) outside [0,1]", ErrInvalidTorqueCurve, i, p.RPM, p.Torque)
		}
		if i > 0 && p.RPM == pts[i-1].RPM {
			return nil, fmt.Errorf("%w: duplicate rpm fraction %g", ErrInvalidTorqueCurve, p.RPM)
		}
		xs[i], ys[i] = p.RPM, p.Torque
	}

	c := &TorqueCurve{points: pts}
	switch len(pts) {
	case 1:
		c.predictor = constant(ys[0])
	case 2:
		var pl interp.PiecewiseLinear
		if err := pl.Fit(xs, ys); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidTorqueCurve, err)
		}
		c.predictor = &pl
	default:
		var fb interp.FritschButland
		if err := fb.Fit(xs, ys); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidTorqueCurve, err)
		}
		c.predictor = &fb
	}
	return c, nil
}

// Evaluate returns the torque fraction at rpmFraction.
func (c *TorqueCurve) Evaluate(rpmFraction float64) float64 {
	first, last := c.points[0].RPM, c.points[len(c.points)-1].RPM
	x := vmath.Clamp(rpmFraction, first, last)
	return vmath.Clamp01(c.predictor.Predict(x))
}

// Points returns a copy of the sorted control points.
func (c *TorqueCurve) Points() []CurvePoint {
	out := make([]CurvePoint, len(c.points))
	copy(out, c.points)
	return out
}

type constant float64

func (k constant) Predict(float64) float64 { return float64(k) }
