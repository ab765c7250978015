package trackmap

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"

	"github.com/banshee-data/paddock/internal/monitoring"
	"github.com/banshee-data/paddock/internal/telemetry"
)

// FusionParams configures Fuse.
type FusionParams struct {
	GridStep float64 // spacing of every lap's resampled path
	Window   float64 // distance pooled on each side of a grid point
	Degree   int     // polynomial degree of the local fit
	Workers  int     // concurrent solver goroutines, <= 0 means 1
}

// DefaultFusionParams returns the production fusion settings.
func DefaultFusionParams() FusionParams {
	return FusionParams{
		GridStep: DefaultGridStep,
		Window:   DefaultFusionWindow,
		Degree:   DefaultFusionDegree,
		Workers:  1,
	}
}

// Fuse merges the resampled paths of all laps into one consensus path.
// For every grid index i the valid points of every lap with index in
// [i-hw, i+hw] (clipped) are pooled, x(d) and y(d) are fitted by least
// squares polynomials of params.Degree, and both are evaluated at the
// reference (first) lap's distance for i. Grid points where the pooled
// window cannot support the fit are returned invalid.
//
// All laps must share the grid produced by ResamplePoints for the same
// trackLength and step.
func Fuse(laps []LapPath, trackLength float64, params FusionParams) (ConsensusPath, error) {
	if len(laps) == 0 {
		return ConsensusPath{}, fmt.Errorf("fuse: no laps: %w", telemetry.ErrDegenerateInput)
	}
	if !(trackLength > 0) {
		return ConsensusPath{}, fmt.Errorf("fuse: track length %v: %w", trackLength, telemetry.ErrDegenerateInput)
	}
	if params.Degree < 0 {
		return ConsensusPath{}, fmt.Errorf("fuse: degree %d: %w", params.Degree, telemetry.ErrConfiguration)
	}
	hw, err := halfWidth(params.Window, params.GridStep)
	if err != nil {
		return ConsensusPath{}, fmt.Errorf("fuse: %w", err)
	}
	for _, lap := range laps {
		if len(lap.Distances) != len(lap.Points) {
			return ConsensusPath{}, fmt.Errorf("fuse: lap %s has %d distances for %d points: %w",
				lap.LapID, len(lap.Distances), len(lap.Points), telemetry.ErrConfiguration)
		}
	}

	ref := laps[0].Distances
	n := min(int(trackLength/params.GridStep), len(ref))
	if n == 0 {
		return ConsensusPath{}, fmt.Errorf("fuse: empty grid for %.1f m at %v m: %w",
			trackLength, params.GridStep, telemetry.ErrDegenerateInput)
	}

	out := ConsensusPath{
		Step:      params.GridStep,
		Distances: append([]float64(nil), ref[:n]...),
		Points:    make([]PathPoint, n),
	}

	workers := max(params.Workers, 1)
	chunk := (n + workers - 1) / workers
	var g errgroup.Group
	for lo := 0; lo < n; lo += chunk {
		hi := min(lo+chunk, n)
		g.Go(func() error {
			f := fitter{degree: params.Degree, scale: float64(hw) * params.GridStep}
			for i := lo; i < hi; i++ {
				start, end := max(0, i-hw), min(n-1, i+hw)
				out.Points[i] = f.fit(laps, start, end, ref[i])
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return ConsensusPath{}, err
	}

	if missing := n - CountValid(out.Points); missing > 0 {
		monitoring.Logf("fuse: %d of %d grid points had no usable samples and are left invalid", missing, n)
	}
	return out, nil
}

// fitter holds the scratch buffers of one solver goroutine.
type fitter struct {
	degree int
	scale  float64
	d      []float64
	xy     []float64
}

// fit pools the valid samples of every lap in [start, end] and evaluates
// the local polynomial fit at distance at.
func (f *fitter) fit(laps []LapPath, start, end int, at float64) PathPoint {
	f.d = f.d[:0]
	f.xy = f.xy[:0]
	for _, lap := range laps {
		last := min(end, len(lap.Points)-1)
		for j := start; j <= last; j++ {
			p := lap.Points[j]
			if !p.Valid {
				continue
			}
			f.d = append(f.d, lap.Distances[j])
			f.xy = append(f.xy, p.Point[0], p.Point[1])
		}
	}
	cols := f.degree + 1
	rows := len(f.d)
	if rows < cols {
		return InvalidPoint
	}

	// Distances are centred on the evaluation point and scaled by the
	// window so the design matrix stays well conditioned far from the
	// start line; the fitted value at the evaluation point is then the
	// constant coefficient.
	design := mat.NewDense(rows, cols, nil)
	for r, d := range f.d {
		u := (d - at) / f.scale
		v := 1.0
		for c := 0; c < cols; c++ {
			design.Set(r, c, v)
			v *= u
		}
	}
	targets := mat.NewDense(rows, 2, f.xy)

	var coef mat.Dense
	if err := coef.Solve(design, targets); err != nil {
		return InvalidPoint
	}
	x, y := coef.At(0, 0), coef.At(0, 1)
	if math.IsNaN(x) || math.IsNaN(y) {
		return InvalidPoint
	}
	return ValidPoint(orb.Point{x, y})
}
