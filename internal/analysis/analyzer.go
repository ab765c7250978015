package analysis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"golang.org/x/sync/errgroup"

	"github.com/banshee-data/paddock/internal/events"
	"github.com/banshee-data/paddock/internal/monitoring"
	"github.com/banshee-data/paddock/internal/sections"
	"github.com/banshee-data/paddock/internal/telemetry"
	"github.com/banshee-data/paddock/internal/timeutil"
	"github.com/banshee-data/paddock/internal/trackmap"
)

// EventsResult is the output of the event pipeline.
type EventsResult struct {
	Signal   string
	Mode     telemetry.ExtremaMode
	Extrema  []telemetry.Lap // per kept lap, input order
	Filter   telemetry.LapFilterReport
	Clusters events.Clusters
}

// TrackResult is the output of the track pipeline.
type TrackResult struct {
	Length     float64
	Path       trackmap.ConsensusPath
	YawChanges []float64 // smoothed, one per path point
	Sections   []sections.Section
}

// Result is one complete analysis run.
type Result struct {
	RunID     string
	CreatedAt time.Time
	LapIDs    []string
	Events    EventsResult
	Track     TrackResult
}

// Analyzer runs both pipelines with fixed options. It holds no state
// between runs and is safe for concurrent use.
type Analyzer struct {
	opts  Options
	clock timeutil.Clock
}

// New returns an Analyzer using opts.
func New(opts Options) *Analyzer {
	return &Analyzer{opts: opts, clock: timeutil.RealClock{}}
}

// WithClock sets the clock that stamps Result.CreatedAt.
func (a *Analyzer) WithClock(c timeutil.Clock) *Analyzer {
	a.clock = c
	return a
}

// Options returns the analyzer's options.
func (a *Analyzer) Options() Options { return a.opts }

// Run executes the event and track pipelines concurrently. Any error
// cancels the other pipeline and no partial result is returned.
func (a *Analyzer) Run(ctx context.Context, laps []telemetry.Lap) (*Result, error) {
	if len(laps) == 0 {
		return nil, fmt.Errorf("analysis: no laps: %w", telemetry.ErrDegenerateInput)
	}
	defer monitoring.Stage("analysis")()

	res := &Result{
		RunID:     uuid.NewString(),
		CreatedAt: a.clock.Now().UTC(),
		LapIDs:    make([]string, len(laps)),
	}
	for i, lap := range laps {
		res.LapIDs[i] = lap.ID
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ev, err := a.Events(gctx, laps)
		if err != nil {
			return fmt.Errorf("events: %w", err)
		}
		res.Events = ev
		return nil
	})
	g.Go(func() error {
		tr, err := a.Track(gctx, laps)
		if err != nil {
			return fmt.Errorf("track: %w", err)
		}
		res.Track = tr
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	monitoring.Logf("analysis %s: %d laps, %d event clusters, %d sections over %.0f m",
		res.RunID, len(laps), res.Events.Clusters.K, len(res.Track.Sections), res.Track.Length)
	return res, nil
}

// Events runs the event pipeline: per lap DropDecreasing, Resample and
// extrema detection, then the lap filter over the resampled laps and
// clustering of the surviving laps' extrema.
func (a *Analyzer) Events(ctx context.Context, laps []telemetry.Lap) (EventsResult, error) {
	if len(laps) == 0 {
		return EventsResult{}, fmt.Errorf("no laps: %w", telemetry.ErrDegenerateInput)
	}
	defer monitoring.Stage("events")()

	columns := []string{a.opts.EventSignal}
	if a.opts.LapFilter.Column != a.opts.EventSignal {
		columns = append(columns, a.opts.LapFilter.Column)
	}

	resampled := make([]telemetry.Lap, len(laps))
	extrema := make([]telemetry.Lap, len(laps))
	err := a.perLap(ctx, len(laps), func(i int) error {
		lap, err := telemetry.Resample(telemetry.DropDecreasing(laps[i]), columns, a.opts.ResampleStep)
		if err != nil {
			return err
		}
		ext, err := telemetry.LocalExtrema(lap, a.opts.EventSignal, a.opts.EventMode, a.opts.ExtremaNeighborhood)
		if err != nil {
			return fmt.Errorf("lap %s: %w", lap.ID, err)
		}
		monitoring.Debugf("lap %s: %d %s %s points", lap.ID, ext.Len(), a.opts.EventSignal, a.opts.EventMode)
		resampled[i] = lap
		extrema[i] = ext
		return nil
	})
	if err != nil {
		return EventsResult{}, err
	}

	kept, report, err := telemetry.FilterLaps(resampled, a.opts.LapFilter)
	if err != nil {
		return EventsResult{}, err
	}
	keptExtrema := make([]telemetry.Lap, 0, len(kept))
	for _, i := range report.Kept {
		keptExtrema = append(keptExtrema, extrema[i])
	}
	if err := ctx.Err(); err != nil {
		return EventsResult{}, err
	}

	clusters, err := events.Cluster(keptExtrema, a.opts.EventSignal, a.opts.ClusterK, a.opts.Cluster)
	if err != nil {
		return EventsResult{}, err
	}
	return EventsResult{
		Signal:   a.opts.EventSignal,
		Mode:     a.opts.EventMode,
		Extrema:  keptExtrema,
		Filter:   report,
		Clusters: clusters,
	}, nil
}

// Track runs the track pipeline: per lap MakeMonotonic, ResamplePoints
// and RemoveOutliers, then Fuse, YawChanges and TrackSections.
func (a *Analyzer) Track(ctx context.Context, laps []telemetry.Lap) (TrackResult, error) {
	if len(laps) == 0 {
		return TrackResult{}, fmt.Errorf("no laps: %w", telemetry.ErrDegenerateInput)
	}
	defer monitoring.Stage("track")()

	distances := make([][]float64, len(laps))
	for i, lap := range laps {
		distances[i] = lap.Distance
	}
	length, err := trackmap.TrackLength(distances)
	if err != nil {
		return TrackResult{}, err
	}

	paths := make([]trackmap.LapPath, len(laps))
	err = a.perLap(ctx, len(laps), func(i int) error {
		lap := laps[i]
		xs, err := lap.Signal(telemetry.SignalX)
		if err != nil {
			return err
		}
		ys, err := lap.Signal(telemetry.SignalY)
		if err != nil {
			return err
		}
		raw := make([]orb.Point, len(xs))
		for j := range xs {
			raw[j] = orb.Point{xs[j], ys[j]}
		}

		d, pts := telemetry.MakeMonotonic(lap.Distance, raw)
		grid, points, err := trackmap.ResamplePoints(d, trackmap.PathPoints(pts), length, a.opts.Fusion.GridStep)
		if err != nil {
			return fmt.Errorf("lap %s: %w", lap.ID, err)
		}
		points, err = trackmap.RemoveOutliers(points, a.opts.Outliers)
		if err != nil {
			return fmt.Errorf("lap %s: %w", lap.ID, err)
		}
		paths[i] = trackmap.LapPath{LapID: lap.ID, Distances: grid, Points: points}
		return nil
	})
	if err != nil {
		return TrackResult{}, err
	}

	fusion := a.opts.Fusion
	fusion.Workers = a.opts.workers()
	path, err := trackmap.Fuse(paths, length, fusion)
	if err != nil {
		return TrackResult{}, err
	}
	if err := ctx.Err(); err != nil {
		return TrackResult{}, err
	}

	yaw, err := sections.YawChanges(path.Points)
	if err != nil {
		return TrackResult{}, err
	}
	secs, err := sections.TrackSections(path.Distances, yaw, a.opts.SectionMinThreshold)
	if err != nil {
		return TrackResult{}, err
	}
	return TrackResult{Length: length, Path: path, YawChanges: yaw, Sections: secs}, nil
}

// perLap calls fn for every lap index on a bounded errgroup. Each call
// writes only its own slot of the caller's result slices.
func (a *Analyzer) perLap(ctx context.Context, n int, fn func(i int) error) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.opts.workers())
	for i := 0; i < n; i++ {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return fn(i)
		})
	}
	return g.Wait()
}
