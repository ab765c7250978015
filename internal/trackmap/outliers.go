package trackmap

import (
	"fmt"
	"math"

	"github.com/banshee-data/paddock/internal/monitoring"
	"github.com/banshee-data/paddock/internal/telemetry"
)

// Grid and window defaults, meters unless noted.
const (
	DefaultGridStep        = 2.0
	DefaultOutlierWindow   = 60.0
	DefaultOutlierYawLimit = 0.4 // radians per grid step
	DefaultFusionWindow    = 60.0
	DefaultFusionDegree    = 2
)

// OutlierParams configures RemoveOutliers.
type OutlierParams struct {
	GridStep float64 // spacing of the input points
	Window   float64 // distance invalidated on each side of a spike
	YawLimit float64 // |yaw change| above this is a spike
}

// DefaultOutlierParams returns the production outlier settings.
func DefaultOutlierParams() OutlierParams {
	return OutlierParams{
		GridStep: DefaultGridStep,
		Window:   DefaultOutlierWindow,
		YawLimit: DefaultOutlierYawLimit,
	}
}

// HalfWidth returns the window half-width in samples.
func (p OutlierParams) HalfWidth() (int, error) {
	return halfWidth(p.Window, p.GridStep)
}

func halfWidth(window, step float64) (int, error) {
	if step <= 0 || window <= 0 || math.IsNaN(step) || math.IsNaN(window) {
		return 0, fmt.Errorf("window %v m over step %v m: %w", window, step, telemetry.ErrConfiguration)
	}
	hw := int(window / step)
	if hw < 1 {
		return 0, fmt.Errorf("window %v m is narrower than one step of %v m: %w", window, step, telemetry.ErrConfiguration)
	}
	return hw, nil
}

// RemoveOutliers invalidates the neighbourhood of abrupt heading changes.
// A yaw change above params.YawLimit marks corrupted samples (e.g. a GPS
// glitch); every point within the half-open window [i-hw, i+hw) around it
// is invalidated, clipped to the path. The input is not modified.
func RemoveOutliers(points []PathPoint, params OutlierParams) ([]PathPoint, error) {
	hw, err := params.HalfWidth()
	if err != nil {
		return nil, err
	}
	out := append([]PathPoint(nil), points...)
	changes, ok := StepYawChanges(points)
	spikes := 0
	for i, change := range changes {
		if !ok[i] || math.Abs(change) <= params.YawLimit {
			continue
		}
		spikes++
		start := max(0, i-hw)
		end := min(len(out), i+hw)
		for j := start; j < end; j++ {
			out[j] = InvalidPoint
		}
	}
	if spikes > 0 {
		monitoring.Debugf("outliers: %d yaw spikes, %d of %d points left valid",
			spikes, CountValid(out), len(out))
	}
	return out, nil
}
