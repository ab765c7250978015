package trackmap

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/interp"

	"github.com/banshee-data/paddock/internal/telemetry"
)

// TrackLength returns the furthest distance reached by any lap.
func TrackLength(perLapDistances [][]float64) (float64, error) {
	length := 0.0
	for _, d := range perLapDistances {
		if len(d) == 0 {
			continue
		}
		length = math.Max(length, floats.Max(d))
	}
	if !(length > 0) {
		return 0, fmt.Errorf("track length %v from %d laps: %w", length, len(perLapDistances), telemetry.ErrDegenerateInput)
	}
	return length, nil
}

// Grid returns 0, step, 2*step, ... below length.
func Grid(length, step float64) ([]float64, error) {
	if step <= 0 || math.IsNaN(step) {
		return nil, fmt.Errorf("grid step %v: %w", step, telemetry.ErrConfiguration)
	}
	if !(length > 0) {
		return nil, fmt.Errorf("grid length %v: %w", length, telemetry.ErrDegenerateInput)
	}
	n := int(math.Ceil(length / step))
	grid := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		d := float64(i) * step
		if d >= length {
			break
		}
		grid = append(grid, d)
	}
	return grid, nil
}

// ResamplePoints interpolates x and y independently onto the fixed grid
// returned by Grid(trackLength, step). distances must be strictly
// increasing (see telemetry.MakeMonotonic). Grid positions outside the
// recorded range are invalid; there is no extrapolation. A grid position
// whose bracketing samples include an invalid point is invalid too.
func ResamplePoints(distances []float64, points []PathPoint, trackLength, step float64) ([]float64, []PathPoint, error) {
	if len(distances) != len(points) {
		return nil, nil, fmt.Errorf("%d distances for %d points: %w", len(distances), len(points), telemetry.ErrConfiguration)
	}
	grid, err := Grid(trackLength, step)
	if err != nil {
		return nil, nil, err
	}
	if len(distances) < 2 {
		return nil, nil, fmt.Errorf("%d path samples: %w", len(distances), telemetry.ErrDegenerateInput)
	}
	for i, d := range distances {
		if math.IsNaN(d) {
			return nil, nil, fmt.Errorf("distance %d is NaN: %w", i, telemetry.ErrConfiguration)
		}
		if i > 0 && d <= distances[i-1] {
			return nil, nil, fmt.Errorf("distance %d (%v) does not exceed %v: %w",
				i, d, distances[i-1], telemetry.ErrConfiguration)
		}
	}

	// Invalid points enter the interpolators as NaN, which poisons exactly
	// the segments touching them.
	xs := make([]float64, len(points))
	ys := make([]float64, len(points))
	for i, p := range points {
		if !p.Valid {
			xs[i], ys[i] = math.NaN(), math.NaN()
			continue
		}
		xs[i], ys[i] = p.Point[0], p.Point[1]
	}
	var fx, fy interp.PiecewiseLinear
	if err := fx.Fit(distances, xs); err != nil {
		return nil, nil, fmt.Errorf("fit x: %w", err)
	}
	if err := fy.Fit(distances, ys); err != nil {
		return nil, nil, fmt.Errorf("fit y: %w", err)
	}

	lo, hi := distances[0], distances[len(distances)-1]
	out := make([]PathPoint, len(grid))
	for i, d := range grid {
		if d < lo || d > hi {
			continue
		}
		x, y := fx.Predict(d), fy.Predict(d)
		if math.IsNaN(x) || math.IsNaN(y) {
			continue
		}
		out[i] = ValidPoint(orb.Point{x, y})
	}
	return grid, out, nil
}
