package telemetry

import "math"

// MakeMonotonic deletes samples whose distance does not strictly exceed
// the running maximum. The first non-NaN distance seeds the maximum and is
// not emitted itself, so the output distances are strictly increasing and a
// second pass drops only its leading sample. values is filtered in step with
// distances.
func MakeMonotonic[T any](distances []float64, values []T) ([]float64, []T) {
	n := min(len(distances), len(values))
	outD := make([]float64, 0, n)
	outV := make([]T, 0, n)
	maxDistance := math.NaN()
	for i := 0; i < n; i++ {
		d := distances[i]
		if math.IsNaN(d) {
			continue
		}
		if math.IsNaN(maxDistance) {
			maxDistance = d
			continue
		}
		if d <= maxDistance {
			continue
		}
		maxDistance = d
		outD = append(outD, d)
		outV = append(outV, values[i])
	}
	return outD, outV
}

// DropDecreasing keeps the rows at which the cumulative maximum of the
// distance column increased over the previous row. The first row is always
// kept.
func DropDecreasing(lap Lap) Lap {
	keep := make([]int, 0, lap.Len())
	cumMax := math.Inf(-1)
	for i, d := range lap.Distance {
		if i == 0 {
			keep = append(keep, i)
			cumMax = d
			continue
		}
		if d > cumMax {
			keep = append(keep, i)
			cumMax = d
		}
	}
	return lap.Rows(keep)
}
