// Package trackmap derives the consensus track geometry from the spatial
// paths of many laps.
//
// A lap path is made monotonic, resampled onto a fixed distance grid,
// cleaned of yaw spikes and finally fused with every other lap by local
// quadratic regression. Missing samples are carried as invalid PathPoints
// and never enter a fit.
package trackmap

import (
	"math"

	"github.com/paulmach/orb"
)

// PathPoint is a spatial sample that may be missing. Invalid points come
// from masking or from grid positions outside a lap's recorded range.
type PathPoint struct {
	Point orb.Point
	Valid bool
}

// ValidPoint wraps p as a valid PathPoint.
func ValidPoint(p orb.Point) PathPoint { return PathPoint{Point: p, Valid: true} }

// InvalidPoint is the missing sample.
var InvalidPoint = PathPoint{}

// PathPoints wraps raw points, marking any with a NaN coordinate invalid.
func PathPoints(points []orb.Point) []PathPoint {
	out := make([]PathPoint, len(points))
	for i, p := range points {
		if math.IsNaN(p[0]) || math.IsNaN(p[1]) {
			continue
		}
		out[i] = ValidPoint(p)
	}
	return out
}

// CountValid returns the number of valid points.
func CountValid(points []PathPoint) int {
	n := 0
	for _, p := range points {
		if p.Valid {
			n++
		}
	}
	return n
}

// LapPath is one lap's spatial path, distance-indexed.
type LapPath struct {
	LapID     string
	Distances []float64
	Points    []PathPoint
}

// ConsensusPath is the fused track geometry on a fixed distance grid.
type ConsensusPath struct {
	Step      float64
	Distances []float64
	Points    []PathPoint
}

// Len returns the number of grid points.
func (c ConsensusPath) Len() int { return len(c.Distances) }

// Segments splits the path into runs of consecutive valid points. Runs
// with a single point are dropped.
func (c ConsensusPath) Segments() []orb.LineString {
	var out []orb.LineString
	var cur orb.LineString
	flush := func() {
		if len(cur) > 1 {
			out = append(out, cur)
		}
		cur = nil
	}
	for _, p := range c.Points {
		if !p.Valid {
			flush()
			continue
		}
		cur = append(cur, p.Point)
	}
	flush()
	return out
}
