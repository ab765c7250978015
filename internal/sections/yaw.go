package sections

import (
	"fmt"

	"github.com/banshee-data/paddock/internal/trackmap"
)

// Smoothing applied to the yaw change signal before segmentation.
const (
	DefaultSmoothingWindow = 20
	DefaultSmoothingDegree = 1
)

// YawChanges returns the smoothed per-point yaw change of a consensus
// path, one value per point. The step yaw changes are padded with two
// trailing zeros; changes touching an invalid point count as zero.
func YawChanges(points []trackmap.PathPoint) ([]float64, error) {
	changes, ok := trackmap.StepYawChanges(points)
	raw := make([]float64, len(points))
	for i, c := range changes {
		if ok[i] {
			raw[i] = c
		}
	}
	smoothed, err := SavitzkyGolay(raw, DefaultSmoothingWindow, DefaultSmoothingDegree)
	if err != nil {
		return nil, fmt.Errorf("yaw changes over %d points: %w", len(points), err)
	}
	return smoothed, nil
}
