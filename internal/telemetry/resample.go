package telemetry

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/interp"
)

// DefaultResampleStep is the distance grid spacing used for signal
// analysis, in meters.
const DefaultResampleStep = 1.0

// Resample re-indexes the named columns of a lap onto a uniform distance
// grid of floor((max-min)/step) points spanning [min, max]. Duplicate
// distances are dropped keeping the first occurrence and the remaining
// samples act as linear interpolation control points. The returned lap
// carries the same ID and only the requested columns.
func Resample(lap Lap, columns []string, step float64) (Lap, error) {
	if step <= 0 || math.IsNaN(step) {
		return Lap{}, fmt.Errorf("resample step %v: %w", step, ErrConfiguration)
	}

	sources := make([][]float64, len(columns))
	for i, name := range columns {
		values, err := lap.Signal(name)
		if err != nil {
			return Lap{}, err
		}
		sources[i] = values
	}

	order := uniqueDistanceOrder(lap.Distance)
	if len(order) < 2 {
		return Lap{}, fmt.Errorf("lap %s: %d usable samples after deduplication: %w",
			lap.ID, len(order), ErrDegenerateInput)
	}

	xs := make([]float64, len(order))
	for i, j := range order {
		xs[i] = lap.Distance[j]
	}
	lo, hi := xs[0], xs[len(xs)-1]
	count := int(math.Floor((hi - lo) / step))
	if count < 2 {
		return Lap{}, fmt.Errorf("lap %s: step %v leaves %d grid points over %.1f m: %w",
			lap.ID, step, count, hi-lo, ErrConfiguration)
	}

	grid := make([]float64, count)
	floats.Span(grid, lo, hi)
	grid[count-1] = hi

	out := Lap{
		ID:       lap.ID,
		Distance: grid,
		Signals:  make(map[string][]float64, len(columns)),
	}
	ys := make([]float64, len(order))
	for c, name := range columns {
		if name == ColumnDistance {
			continue
		}
		for i, j := range order {
			ys[i] = sources[c][j]
		}
		var pl interp.PiecewiseLinear
		if err := pl.Fit(xs, ys); err != nil {
			return Lap{}, fmt.Errorf("lap %s: fit %s: %w", lap.ID, name, err)
		}
		col := make([]float64, count)
		for i, d := range grid {
			col[i] = pl.Predict(d)
		}
		out.Signals[name] = col
	}
	return out, nil
}

// uniqueDistanceOrder returns row indices with duplicate (and NaN)
// distances removed, first occurrence kept, ordered by distance.
func uniqueDistanceOrder(distance []float64) []int {
	seen := make(map[float64]struct{}, len(distance))
	order := make([]int, 0, len(distance))
	for i, d := range distance {
		if math.IsNaN(d) {
			continue
		}
		if _, dup := seen[d]; dup {
			continue
		}
		seen[d] = struct{}{}
		order = append(order, i)
	}
	sort.SliceStable(order, func(a, b int) bool {
		return distance[order[a]] < distance[order[b]]
	})
	return order
}
