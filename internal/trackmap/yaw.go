package trackmap

import "math"

// Headings returns the heading of every step between consecutive points,
// atan2(Δx, Δy), so 0 points along +y and angles grow clockwise. ok[i] is
// false when either end of step i is invalid.
func Headings(points []PathPoint) (headings []float64, ok []bool) {
	if len(points) < 2 {
		return nil, nil
	}
	headings = make([]float64, len(points)-1)
	ok = make([]bool, len(points)-1)
	for i := 1; i < len(points); i++ {
		a, b := points[i-1], points[i]
		if !a.Valid || !b.Valid {
			continue
		}
		headings[i-1] = math.Atan2(b.Point[0]-a.Point[0], b.Point[1]-a.Point[1])
		ok[i-1] = true
	}
	return headings, ok
}

// Unwrap removes artificial jumps larger than pi from a phase sequence by
// adding multiples of 2*pi. A jump of exactly pi is kept as is.
func Unwrap(phases []float64) []float64 {
	out := make([]float64, len(phases))
	if len(phases) == 0 {
		return out
	}
	out[0] = phases[0]
	correction := 0.0
	for i := 1; i < len(phases); i++ {
		dd := phases[i] - phases[i-1]
		ddmod := floorMod(dd+math.Pi, 2*math.Pi) - math.Pi
		if ddmod == -math.Pi && dd > 0 {
			ddmod = math.Pi
		}
		if math.Abs(dd) >= math.Pi {
			correction += ddmod - dd
		}
		out[i] = phases[i] + correction
	}
	return out
}

func floorMod(a, b float64) float64 {
	return a - b*math.Floor(a/b)
}

// StepYawChanges returns the first difference of the unwrapped headings,
// one value per interior point (len(points)-2 values). Headings next to
// invalid points are skipped when unwrapping, and a yaw change is valid
// only when both of its headings are.
func StepYawChanges(points []PathPoint) (changes []float64, ok []bool) {
	headings, hok := Headings(points)
	if len(headings) < 2 {
		return nil, nil
	}

	validIdx := make([]int, 0, len(headings))
	compact := make([]float64, 0, len(headings))
	for i, h := range headings {
		if hok[i] {
			validIdx = append(validIdx, i)
			compact = append(compact, h)
		}
	}
	unwrapped := make([]float64, len(headings))
	for k, v := range Unwrap(compact) {
		unwrapped[validIdx[k]] = v
	}

	changes = make([]float64, len(headings)-1)
	ok = make([]bool, len(headings)-1)
	for i := range changes {
		if hok[i] && hok[i+1] {
			changes[i] = unwrapped[i+1] - unwrapped[i]
			ok[i] = true
		}
	}
	return changes, ok
}
