package events

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sort"

	"github.com/banshee-data/paddock/internal/monitoring"
	"github.com/banshee-data/paddock/internal/telemetry"
)

// Params configures Cluster.
type Params struct {
	Seed    uint64  // seed of the k-means++ initialisation
	Inits   int     // independent initialisations, best inertia wins; <= 0 means 1
	MaxIter int     // Lloyd iterations per initialisation
	Tol     float64 // convergence tolerance relative to the mean feature variance
}

// DefaultParams returns the production clustering settings.
func DefaultParams() Params {
	return Params{
		Seed:    1,
		Inits:   1,
		MaxIter: 300,
		Tol:     1e-4,
	}
}

// Centroid is the centre of one event cluster.
type Centroid struct {
	Value    float64 `json:"value"`
	Distance float64 `json:"distance"`
}

// Clusters is the result of Cluster. Centroids are sorted by distance and
// Labels index into Centroids, one per pooled point in lap then row order.
type Clusters struct {
	Column    string     `json:"column"`
	K         int        `json:"k"`
	Centroids []Centroid `json:"centroids"`
	Labels    []int      `json:"labels"`
	Inertia   float64    `json:"inertia"`
}

// DefaultK returns the median number of rows per lap rounded half to
// even, the cluster count used when the caller does not choose one.
func DefaultK(extrema []telemetry.Lap) int {
	if len(extrema) == 0 {
		return 0
	}
	counts := make([]int, len(extrema))
	for i, lap := range extrema {
		counts[i] = lap.Len()
	}
	sort.Ints(counts)
	mid := len(counts) / 2
	median := float64(counts[mid])
	if len(counts)%2 == 0 {
		median = float64(counts[mid-1]+counts[mid]) / 2
	}
	return int(math.RoundToEven(median))
}

// Event is one pooled extremum row. Pool order is the order of Clusters.Labels.
type Event struct {
	LapID    string  `json:"lap_id"`
	Value    float64 `json:"value"`
	Distance float64 `json:"distance"`
}

// Pool flattens the column of every lap into events, lap then row.
func Pool(extrema []telemetry.Lap, column string) ([]Event, error) {
	var out []Event
	for _, lap := range extrema {
		values, err := lap.Signal(column)
		if err != nil {
			return nil, err
		}
		for i, v := range values {
			out = append(out, Event{LapID: lap.ID, Value: v, Distance: lap.Distance[i]})
		}
	}
	return out, nil
}

// Cluster pools the (column value, distance) rows of every lap and groups
// them into k clusters. k <= 0 selects DefaultK.
func Cluster(extrema []telemetry.Lap, column string, k int, params Params) (Clusters, error) {
	if len(extrema) == 0 {
		return Clusters{}, fmt.Errorf("cluster %s: no laps: %w", column, telemetry.ErrDegenerateInput)
	}
	if params.MaxIter < 1 || params.Tol < 0 {
		return Clusters{}, fmt.Errorf("cluster %s: max iter %d tol %v: %w",
			column, params.MaxIter, params.Tol, telemetry.ErrConfiguration)
	}
	if k <= 0 {
		k = DefaultK(extrema)
	}

	pooled, err := Pool(extrema, column)
	if err != nil {
		return Clusters{}, fmt.Errorf("cluster: %w", err)
	}
	points := make([]point, len(pooled))
	for i, e := range pooled {
		points[i] = point{e.Value, e.Distance}
	}
	if k == 0 || len(points) < k {
		return Clusters{}, fmt.Errorf("cluster %s: %d points for k=%d: %w",
			column, len(points), k, telemetry.ErrDegenerateInput)
	}

	tol := params.Tol * meanVariance(points)
	rng := rand.New(rand.NewPCG(params.Seed, params.Seed^0x5851f42d4c957f2d))
	var best *run
	for i := 0; i < max(params.Inits, 1); i++ {
		r := lloyd(points, seedCentres(points, k, rng), params.MaxIter, tol)
		if best == nil || r.inertia < best.inertia {
			best = r
		}
	}
	monitoring.Debugf("cluster %s: k=%d over %d points, inertia %.3f after %d iterations",
		column, k, len(points), best.inertia, best.iterations)

	return best.sorted(column), nil
}

type point [2]float64

func sqDist(a, b point) float64 {
	dx, dy := a[0]-b[0], a[1]-b[1]
	return dx*dx + dy*dy
}

func meanVariance(points []point) float64 {
	var mean point
	for _, p := range points {
		mean[0] += p[0]
		mean[1] += p[1]
	}
	n := float64(len(points))
	mean[0] /= n
	mean[1] /= n
	v := 0.0
	for _, p := range points {
		v += sqDist(p, mean)
	}
	return v / n / 2
}

// seedCentres picks k initial centres by k-means++: the first uniformly,
// each later one with probability proportional to its squared distance
// from the nearest centre already chosen.
func seedCentres(points []point, k int, rng *rand.Rand) []point {
	centres := make([]point, 0, k)
	centres = append(centres, points[rng.IntN(len(points))])
	nearest := make([]float64, len(points))
	for i, p := range points {
		nearest[i] = sqDist(p, centres[0])
	}
	for len(centres) < k {
		total := 0.0
		for _, d := range nearest {
			total += d
		}
		next := 0
		if total > 0 {
			target := rng.Float64() * total
			for i, d := range nearest {
				target -= d
				if target < 0 {
					next = i
					break
				}
				next = i
			}
		} else {
			next = rng.IntN(len(points))
		}
		c := points[next]
		centres = append(centres, c)
		for i, p := range points {
			nearest[i] = math.Min(nearest[i], sqDist(p, c))
		}
	}
	return centres
}

type run struct {
	centres    []point
	labels     []int
	inertia    float64
	iterations int
}

// lloyd alternates assignment and update steps until the total squared
// centre shift drops to tol or maxIter is reached. A cluster left empty
// is re-seeded with the point farthest from its assigned centre; points
// already used for a re-seed in the same pass are skipped.
func lloyd(points []point, centres []point, maxIter int, tol float64) *run {
	k := len(centres)
	labels := make([]int, len(points))
	r := &run{centres: centres, labels: labels}
	for r.iterations = 1; r.iterations <= maxIter; r.iterations++ {
		assign(points, centres, labels)

		sums := make([]point, k)
		counts := make([]int, k)
		for i, p := range points {
			c := labels[i]
			sums[c][0] += p[0]
			sums[c][1] += p[1]
			counts[c]++
		}
		assigned := append([]point(nil), centres...)
		taken := make(map[int]bool)
		shift := 0.0
		for c := range centres {
			var next point
			if counts[c] == 0 {
				i := farthest(points, assigned, labels, taken)
				if i < 0 {
					continue
				}
				taken[i] = true
				next = points[i]
			} else {
				next = point{sums[c][0] / float64(counts[c]), sums[c][1] / float64(counts[c])}
			}
			shift += sqDist(next, centres[c])
			centres[c] = next
		}
		if shift <= tol {
			break
		}
	}
	r.inertia = assign(points, centres, labels)
	return r
}

// assign labels every point with its nearest centre and returns the
// inertia, the summed squared distance to the assigned centres.
func assign(points []point, centres []point, labels []int) float64 {
	inertia := 0.0
	for i, p := range points {
		best, bestD := 0, math.Inf(1)
		for c, centre := range centres {
			if d := sqDist(p, centre); d < bestD {
				best, bestD = c, d
			}
		}
		labels[i] = best
		inertia += bestD
	}
	return inertia
}

// farthest returns the index of the point farthest from its assigned
// centre, ignoring taken indices, or -1 when every point is taken.
func farthest(points []point, centres []point, labels []int, taken map[int]bool) int {
	idx, far := -1, -1.0
	for i, p := range points {
		if taken[i] {
			continue
		}
		if d := sqDist(p, centres[labels[i]]); d > far {
			idx, far = i, d
		}
	}
	return idx
}

// sorted orders the centroids by distance, then value, and relabels.
func (r *run) sorted(column string) Clusters {
	k := len(r.centres)
	order := make([]int, k)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		ca, cb := r.centres[order[a]], r.centres[order[b]]
		if ca[1] != cb[1] {
			return ca[1] < cb[1]
		}
		return ca[0] < cb[0]
	})
	rank := make([]int, k)
	out := Clusters{Column: column, K: k, Centroids: make([]Centroid, k), Labels: make([]int, len(r.labels)), Inertia: r.inertia}
	for newIdx, old := range order {
		rank[old] = newIdx
		out.Centroids[newIdx] = Centroid{Value: r.centres[old][0], Distance: r.centres[old][1]}
	}
	for i, l := range r.labels {
		out.Labels[i] = rank[l]
	}
	return out
}
