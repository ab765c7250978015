package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/paulmach/orb"

	"github.com/banshee-data/paddock/internal/analysis"
	"github.com/banshee-data/paddock/internal/events"
	"github.com/banshee-data/paddock/internal/sections"
	"github.com/banshee-data/paddock/internal/trackmap"
)

// ErrRunNotFound is returned when no run has the requested id.
var ErrRunNotFound = errors.New("analysis run not found")

// RunSummary is one row of ListRuns.
type RunSummary struct {
	RunID        string    `json:"run_id"`
	CreatedAt    time.Time `json:"created_at"`
	LapCount     int       `json:"lap_count"`
	RemovedLaps  int       `json:"removed_laps"`
	TrackLength  float64   `json:"track_length"`
	EventSignal  string    `json:"event_signal"`
	ClusterK     int       `json:"cluster_k"`
	SectionCount int       `json:"section_count"`
}

// SaveRun stores a complete analysis result in one transaction.
func (db *DB) SaveRun(ctx context.Context, res *analysis.Result) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	ev, tr := res.Events, res.Track
	_, err = tx.ExecContext(ctx, `INSERT INTO runs (
			run_id, created_at, lap_count, track_length, grid_step,
			event_signal, event_mode, cluster_k, cluster_inertia, cluster_column
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		res.RunID, res.CreatedAt.UTC().Format(time.RFC3339Nano), len(res.LapIDs), tr.Length, tr.Path.Step,
		ev.Signal, ev.Mode.String(), ev.Clusters.K, ev.Clusters.Inertia, ev.Clusters.Column,
	)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", res.RunID, err)
	}

	// Lap ids need not be unique, so removal is decided by lap index.
	filtered := ev.Filter.Offenses != nil || len(ev.Filter.Kept) > 0 || len(ev.Filter.Removed) > 0
	kept := make(map[int]bool, len(ev.Filter.Kept))
	for _, i := range ev.Filter.Kept {
		kept[i] = true
	}
	for i, id := range res.LapIDs {
		offenses, dropped := 0, 0
		if i < len(ev.Filter.Offenses) {
			offenses = ev.Filter.Offenses[i]
		}
		if filtered && !kept[i] {
			dropped = 1
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO run_laps (run_id, lap_index, lap_id, offenses, removed) VALUES (?, ?, ?, ?, ?)`,
			res.RunID, i, id, offenses, dropped); err != nil {
			return fmt.Errorf("insert lap %s: %w", id, err)
		}
	}

	pointStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO consensus_points (run_id, idx, distance, x, y, yaw_change) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer pointStmt.Close()
	for i, p := range tr.Path.Points {
		var x, y sql.NullFloat64
		if p.Valid {
			x = sql.NullFloat64{Float64: p.Point[0], Valid: true}
			y = sql.NullFloat64{Float64: p.Point[1], Valid: true}
		}
		yaw := 0.0
		if i < len(tr.YawChanges) {
			yaw = tr.YawChanges[i]
		}
		if _, err := pointStmt.ExecContext(ctx, res.RunID, i, tr.Path.Distances[i], x, y, yaw); err != nil {
			return fmt.Errorf("insert consensus point %d: %w", i, err)
		}
	}

	for i, s := range tr.Sections {
		if _, err := tx.ExecContext(ctx, `INSERT INTO track_sections (
				run_id, idx, section_type, start_distance, end_distance, max_yaw_change
			) VALUES (?, ?, ?, ?, ?, ?)`,
			res.RunID, i, string(s.Type), s.Start, s.End, s.MaxYawChange); err != nil {
			return fmt.Errorf("insert section %d: %w", i, err)
		}
	}

	for i, c := range ev.Clusters.Centroids {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO event_centroids (run_id, idx, value, distance) VALUES (?, ?, ?, ?)`,
			res.RunID, i, c.Value, c.Distance); err != nil {
			return fmt.Errorf("insert centroid %d: %w", i, err)
		}
	}

	if len(ev.Clusters.Labels) > 0 {
		pooled, err := events.Pool(ev.Extrema, ev.Clusters.Column)
		if err != nil {
			return fmt.Errorf("pool events: %w", err)
		}
		if len(pooled) != len(ev.Clusters.Labels) {
			return fmt.Errorf("%d pooled events for %d labels", len(pooled), len(ev.Clusters.Labels))
		}
		for i, e := range pooled {
			if _, err := tx.ExecContext(ctx, `INSERT INTO event_points (
					run_id, idx, lap_id, value, distance, label
				) VALUES (?, ?, ?, ?, ?, ?)`,
				res.RunID, i, e.LapID, e.Value, e.Distance, ev.Clusters.Labels[i]); err != nil {
				return fmt.Errorf("insert event point %d: %w", i, err)
			}
		}
	}

	return tx.Commit()
}

// ListRuns returns every stored run, newest first.
func (db *DB) ListRuns(ctx context.Context) ([]RunSummary, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT r.run_id, r.created_at, r.lap_count, r.track_length, r.event_signal, r.cluster_k,
			(SELECT COUNT(*) FROM run_laps l WHERE l.run_id = r.run_id AND l.removed = 1),
			(SELECT COUNT(*) FROM track_sections s WHERE s.run_id = r.run_id)
		FROM runs r
		ORDER BY r.created_at DESC, r.run_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var (
			s       RunSummary
			created string
		)
		if err := rows.Scan(&s.RunID, &created, &s.LapCount, &s.TrackLength, &s.EventSignal,
			&s.ClusterK, &s.RemovedLaps, &s.SectionCount); err != nil {
			return nil, err
		}
		if s.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
			return nil, fmt.Errorf("run %s: bad created_at %q: %w", s.RunID, created, err)
		}
		runs = append(runs, s)
	}
	return runs, rows.Err()
}

// LoadConsensusPath returns the stored consensus path of a run and its
// smoothed yaw changes.
func (db *DB) LoadConsensusPath(ctx context.Context, runID string) (trackmap.ConsensusPath, []float64, error) {
	var path trackmap.ConsensusPath
	err := db.QueryRowContext(ctx, `SELECT grid_step FROM runs WHERE run_id = ?`, runID).Scan(&path.Step)
	if errors.Is(err, sql.ErrNoRows) {
		return trackmap.ConsensusPath{}, nil, fmt.Errorf("%s: %w", runID, ErrRunNotFound)
	}
	if err != nil {
		return trackmap.ConsensusPath{}, nil, err
	}

	rows, err := db.QueryContext(ctx,
		`SELECT distance, x, y, yaw_change FROM consensus_points WHERE run_id = ? ORDER BY idx`, runID)
	if err != nil {
		return trackmap.ConsensusPath{}, nil, err
	}
	defer rows.Close()

	var yaw []float64
	for rows.Next() {
		var (
			d, yc float64
			x, y  sql.NullFloat64
		)
		if err := rows.Scan(&d, &x, &y, &yc); err != nil {
			return trackmap.ConsensusPath{}, nil, err
		}
		p := trackmap.InvalidPoint
		if x.Valid && y.Valid {
			p = trackmap.ValidPoint(orb.Point{x.Float64, y.Float64})
		}
		path.Distances = append(path.Distances, d)
		path.Points = append(path.Points, p)
		yaw = append(yaw, yc)
	}
	return path, yaw, rows.Err()
}

// LoadSections returns the sections of a run in emission order.
func (db *DB) LoadSections(ctx context.Context, runID string) ([]sections.Section, error) {
	if err := db.runExists(ctx, runID); err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, `SELECT section_type, start_distance, end_distance, max_yaw_change
		FROM track_sections WHERE run_id = ? ORDER BY idx`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []sections.Section
	for rows.Next() {
		var (
			s   sections.Section
			typ string
		)
		if err := rows.Scan(&typ, &s.Start, &s.End, &s.MaxYawChange); err != nil {
			return nil, err
		}
		s.Type = sections.SectionType(typ)
		out = append(out, s)
	}
	return out, rows.Err()
}

// LoadClusters returns the event clusters of a run with the labels of
// every pooled point in clustering input order.
func (db *DB) LoadClusters(ctx context.Context, runID string) (events.Clusters, error) {
	var c events.Clusters
	err := db.QueryRowContext(ctx, `SELECT cluster_column, cluster_k, cluster_inertia FROM runs WHERE run_id = ?`,
		runID).Scan(&c.Column, &c.K, &c.Inertia)
	if errors.Is(err, sql.ErrNoRows) {
		return events.Clusters{}, fmt.Errorf("%s: %w", runID, ErrRunNotFound)
	}
	if err != nil {
		return events.Clusters{}, err
	}

	rows, err := db.QueryContext(ctx, `SELECT value, distance FROM event_centroids WHERE run_id = ? ORDER BY idx`, runID)
	if err != nil {
		return events.Clusters{}, err
	}
	for rows.Next() {
		var centroid events.Centroid
		if err := rows.Scan(&centroid.Value, &centroid.Distance); err != nil {
			rows.Close()
			return events.Clusters{}, err
		}
		c.Centroids = append(c.Centroids, centroid)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return events.Clusters{}, err
	}

	rows, err = db.QueryContext(ctx, `SELECT label FROM event_points WHERE run_id = ? ORDER BY idx`, runID)
	if err != nil {
		return events.Clusters{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var label int
		if err := rows.Scan(&label); err != nil {
			return events.Clusters{}, err
		}
		c.Labels = append(c.Labels, label)
	}
	return c, rows.Err()
}

// DeleteRun removes a run and everything stored with it.
func (db *DB) DeleteRun(ctx context.Context, runID string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{"event_points", "event_centroids", "track_sections", "consensus_points", "run_laps"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE run_id = ?", runID); err != nil {
			return fmt.Errorf("delete from %s: %w", table, err)
		}
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM runs WHERE run_id = ?`, runID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%s: %w", runID, ErrRunNotFound)
	}
	return tx.Commit()
}

func (db *DB) runExists(ctx context.Context, runID string) error {
	var n int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs WHERE run_id = ?`, runID).Scan(&n); err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", runID, ErrRunNotFound)
	}
	return nil
}
