package telemetry

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/paddock/internal/monitoring"
)

// LapFilterParams configures RemoveUncorrelatedLaps.
type LapFilterParams struct {
	Column    string  // signal compared between laps
	Threshold float64 // pairs correlating below this offend both laps
	Fraction  float64 // laps offending in at least Fraction*len(laps) pairs are removed
}

// DefaultLapFilterParams returns the production lap filter settings.
func DefaultLapFilterParams() LapFilterParams {
	return LapFilterParams{
		Column:    SignalSpeed,
		Threshold: 0.6,
		Fraction:  0.8,
	}
}

// LapFilterReport records the outcome of a lap filter run.
type LapFilterReport struct {
	Offenses []int    // offense count per input lap
	Kept     []int    // indices of kept input laps
	Removed  []string // IDs of removed laps, input order
}

// RemoveUncorrelatedLaps drops laps whose column correlates poorly with
// most other laps. Values are compared positionally over the common
// prefix, so laps should share a resampling grid. Scoring every pair
// happens before any removal decision because the cut-off depends on the
// total lap count.
func RemoveUncorrelatedLaps(laps []Lap, column string, threshold float64) ([]Lap, error) {
	params := DefaultLapFilterParams()
	params.Column = column
	params.Threshold = threshold
	kept, _, err := FilterLaps(laps, params)
	return kept, err
}

// FilterLaps is RemoveUncorrelatedLaps with explicit parameters and a report.
func FilterLaps(laps []Lap, params LapFilterParams) ([]Lap, LapFilterReport, error) {
	if len(laps) == 0 {
		return nil, LapFilterReport{}, fmt.Errorf("lap filter: no laps: %w", ErrDegenerateInput)
	}
	if params.Fraction <= 0 || params.Fraction > 1 {
		return nil, LapFilterReport{}, fmt.Errorf("lap filter fraction %v: %w", params.Fraction, ErrConfiguration)
	}

	series := make([][]float64, len(laps))
	for i, lap := range laps {
		values, err := lap.Signal(params.Column)
		if err != nil {
			return nil, LapFilterReport{}, err
		}
		series[i] = values
	}

	offenses := make([]int, len(laps))
	for i := 0; i < len(laps); i++ {
		for j := i + 1; j < len(laps); j++ {
			corr := pairCorrelation(series[i], series[j])
			// NaN (constant or too short signal) never offends.
			if corr < params.Threshold {
				offenses[i]++
				offenses[j]++
			}
		}
	}

	limit := params.Fraction * float64(len(laps))
	report := LapFilterReport{Offenses: offenses}
	kept := make([]Lap, 0, len(laps))
	for i, lap := range laps {
		if float64(offenses[i]) >= limit {
			monitoring.Logf("lap filter: removing lap %s (%d/%d low-correlation pairs on %s)",
				lap.ID, offenses[i], len(laps)-1, params.Column)
			report.Removed = append(report.Removed, lap.ID)
			continue
		}
		kept = append(kept, lap)
		report.Kept = append(report.Kept, i)
	}
	return kept, report, nil
}

func pairCorrelation(a, b []float64) float64 {
	n := min(len(a), len(b))
	if n < 2 {
		return math.NaN()
	}
	return stat.Correlation(a[:n], b[:n], nil)
}
