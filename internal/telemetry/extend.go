package telemetry

import "fmt"

// ExtendLap appends copies duplicates of the lap, the i-th shifted by
// i times the lap's maximum distance. Window-based detectors then see
// valid neighbours across the start/finish line.
func ExtendLap(lap Lap, copies int) (Lap, error) {
	if copies < 0 {
		return Lap{}, fmt.Errorf("extend lap %s by %d copies: %w", lap.ID, copies, ErrConfiguration)
	}
	n := lap.Len()
	total := n * (copies + 1)
	maxDistance := lap.MaxDistance()

	out := Lap{
		ID:       lap.ID,
		Distance: make([]float64, 0, total),
		Signals:  make(map[string][]float64, len(lap.Signals)),
	}
	for i := 0; i <= copies; i++ {
		shift := float64(i) * maxDistance
		for _, d := range lap.Distance {
			out.Distance = append(out.Distance, d+shift)
		}
	}
	for name, values := range lap.Signals {
		col := make([]float64, 0, total)
		for i := 0; i <= copies; i++ {
			col = append(col, values...)
		}
		out.Signals[name] = col
	}
	return out, nil
}
