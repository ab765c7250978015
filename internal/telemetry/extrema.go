package telemetry

import "fmt"

// ExtremaMode selects local minima or maxima.
type ExtremaMode int

const (
	Minima ExtremaMode = iota
	Maxima
)

func (m ExtremaMode) String() string {
	if m == Maxima {
		return "max"
	}
	return "min"
}

// Comparison selects the candidate comparator of the coarse window pass.
type Comparison int

const (
	// Strict requires a candidate to be strictly below (above) every
	// neighbour. Use it for continuous signals.
	Strict Comparison = iota
	// OrEqual accepts ties so plateaus of stepped signals register.
	OrEqual
)

// DefaultExtremaNeighborhood is the number of samples checked on each side
// of a candidate extremum.
const DefaultExtremaNeighborhood = 50

// ComparisonFor returns the comparator suited to a column: stepped signals
// such as the gear number hold constant values across many samples and
// need OrEqual.
func ComparisonFor(column string) Comparison {
	if column == SignalGear {
		return OrEqual
	}
	return Strict
}

// LocalMinima returns the rows of lap at local minima of column.
func LocalMinima(lap Lap, column string, neighborhood int) (Lap, error) {
	return LocalExtrema(lap, column, Minima, neighborhood)
}

// LocalMaxima returns the rows of lap at local maxima of column.
func LocalMaxima(lap Lap, column string, neighborhood int) (Lap, error) {
	return LocalExtrema(lap, column, Maxima, neighborhood)
}

// LocalExtrema finds local extrema of column, choosing the comparator
// with ComparisonFor.
func LocalExtrema(lap Lap, column string, mode ExtremaMode, neighborhood int) (Lap, error) {
	return LocalExtremaWith(lap, column, mode, neighborhood, ComparisonFor(column))
}

// LocalExtremaWith finds local extrema in two passes. Candidates are
// samples that compare below (minima) or above (maxima) every sample
// within neighborhood positions on both sides, indices clipped at the
// ends. The candidate minima and maxima plus the first and last row are
// then re-tested against their immediate neighbours in that reduced
// sequence, which discards candidates the coarse window let through.
// The result keeps the original row order.
func LocalExtremaWith(lap Lap, column string, mode ExtremaMode, neighborhood int, cmp Comparison) (Lap, error) {
	if neighborhood < 1 {
		return Lap{}, fmt.Errorf("extrema neighborhood %d: %w", neighborhood, ErrConfiguration)
	}
	values, err := lap.Signal(column)
	if err != nil {
		return Lap{}, err
	}
	n := len(values)
	if n == 0 {
		return lap.Rows(nil), nil
	}

	var below, above func(a, b float64) bool
	if cmp == OrEqual {
		below = func(a, b float64) bool { return a <= b }
		above = func(a, b float64) bool { return a >= b }
	} else {
		below = func(a, b float64) bool { return a < b }
		above = func(a, b float64) bool { return a > b }
	}

	mins := relativeExtrema(values, neighborhood, below)
	maxs := relativeExtrema(values, neighborhood, above)

	selected := make([]bool, n)
	for _, i := range mins {
		selected[i] = true
	}
	for _, i := range maxs {
		selected[i] = true
	}
	selected[0] = true
	selected[n-1] = true

	candidates := make([]int, 0, len(mins)+len(maxs)+2)
	for i, ok := range selected {
		if ok {
			candidates = append(candidates, i)
		}
	}

	refined := make([]int, 0, len(candidates))
	for k := 1; k < len(candidates)-1; k++ {
		prev := values[candidates[k-1]]
		cur := values[candidates[k]]
		next := values[candidates[k+1]]
		switch mode {
		case Minima:
			if prev >= cur && next > cur {
				refined = append(refined, candidates[k])
			}
		case Maxima:
			if prev <= cur && next < cur {
				refined = append(refined, candidates[k])
			}
		}
	}
	return lap.Rows(refined), nil
}

// relativeExtrema returns the indices i for which cmp(values[i], values[j])
// holds for every j within order positions, with j clipped to the array.
func relativeExtrema(values []float64, order int, cmp func(a, b float64) bool) []int {
	n := len(values)
	var out []int
	for i := 0; i < n; i++ {
		ok := true
		for shift := 1; shift <= order && ok; shift++ {
			plus := min(i+shift, n-1)
			minus := max(i-shift, 0)
			ok = cmp(values[i], values[plus]) && cmp(values[i], values[minus])
		}
		if ok {
			out = append(out, i)
		}
	}
	return out
}
