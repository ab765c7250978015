package sections

import (
	"fmt"
	"math"

	"github.com/banshee-data/paddock/internal/telemetry"
)

// SectionType labels a section of the track.
type SectionType string

const (
	CornerCW  SectionType = "corner_cw"
	CornerCCW SectionType = "corner_ccw"
	Straight  SectionType = "straight"
)

// DefaultMinThreshold is the smallest yaw change per 2 m grid step that
// counts as turning.
const DefaultMinThreshold = 0.0051

// warmup is the number of leading samples skipped while the smoothing
// filter settles.
const warmup = 20

// Section is a distance range of the track classified by TrackSections.
// MaxYawChange is the largest absolute yaw change of a corner; for a
// straight it is the largest signed yaw change.
type Section struct {
	Type         SectionType `json:"type"`
	Start        float64     `json:"start"`
	End          float64     `json:"end"`
	MaxYawChange float64     `json:"max_yaw_change"`
}

// state is one of the three section trackers. An inactive state ignores
// start and peak.
type state struct {
	active bool
	start  int
	peak   float64
}

func (s *state) open(i int) {
	s.active = true
	s.start = i
	s.peak = 0
}

// close deactivates s and returns its section ending at index i.
func (s *state) close(typ SectionType, distances []float64, i int) Section {
	s.active = false
	return Section{Type: typ, Start: distances[s.start], End: distances[i], MaxYawChange: s.peak}
}

// TrackSections scans the smoothed yaw changes from index 20 and returns
// every closed section in the order it closed. Clockwise, counterclockwise
// and straight trackers advance together and are evaluated in that order
// at every index; a corner raises the shared threshold to half its peak
// and any near-zero sample resets it to minThreshold. Sections still open
// at the last sample are closed there.
func TrackSections(distances, yawChanges []float64, minThreshold float64) ([]Section, error) {
	if len(distances) != len(yawChanges) {
		return nil, fmt.Errorf("track sections: %d distances for %d yaw changes: %w",
			len(distances), len(yawChanges), telemetry.ErrConfiguration)
	}
	if !(minThreshold > 0) {
		return nil, fmt.Errorf("track sections: min threshold %v: %w", minThreshold, telemetry.ErrConfiguration)
	}

	var (
		cw, ccw, straight state
		out               []Section
	)
	threshold := minThreshold
	last := len(distances) - 1
	for i := warmup; i <= last; i++ {
		yaw := yawChanges[i]
		end := i == last
		if math.Abs(yaw) < minThreshold {
			threshold = minThreshold
		}

		if !cw.active {
			if yaw > threshold {
				cw.open(i)
			}
		} else {
			cw.peak = math.Max(cw.peak, math.Abs(yaw))
			threshold = math.Max(minThreshold, cw.peak/2)
			if end || yaw <= threshold {
				out = append(out, cw.close(CornerCW, distances, i))
			}
		}

		if !ccw.active {
			if yaw < -threshold {
				ccw.open(i)
			}
		} else {
			ccw.peak = math.Max(ccw.peak, math.Abs(yaw))
			threshold = math.Max(minThreshold, ccw.peak/2)
			if end || yaw >= -threshold {
				out = append(out, ccw.close(CornerCCW, distances, i))
			}
		}

		if !straight.active {
			if math.Abs(yaw) < threshold {
				straight.open(i)
			}
		} else {
			straight.peak = math.Max(straight.peak, yaw)
			if end || math.Abs(yaw) >= threshold {
				out = append(out, straight.close(Straight, distances, i))
			}
		}
	}
	return out, nil
}
