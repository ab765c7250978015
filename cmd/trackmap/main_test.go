package main

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/paddock/internal/db"
	"github.com/banshee-data/paddock/internal/monitoring"
	"github.com/banshee-data/paddock/internal/testutil"
)

// writeStadiumCSV writes n laps around the default stadium, one sample per
// meter, gear 4 on the straights and 2 in the corners.
func writeStadiumCSV(t *testing.T, n int) string {
	t.Helper()
	s := testutil.DefaultStadium
	arc := math.Pi * s.Radius
	d := testutil.Distances(int(s.Length()), 0, 1)

	var buf strings.Builder
	buf.WriteString("id,DistanceRoundTrack,PositionX,PositionY,Gear,SpeedMs\n")
	for lap := 0; lap < n; lap++ {
		points := testutil.Jitter(s.Path(d), 0.1, uint64(10+lap))
		speed := testutil.Sine(d, s.Length()/4, 10, 40)
		noise := testutil.Noise(len(d), 0.5, uint64(20+lap))
		for j, p := range points {
			gear := 2
			if d[j] < s.Straight || (d[j] >= s.Straight+arc && d[j] < 2*s.Straight+arc) {
				gear = 4
			}
			fmt.Fprintf(&buf, "lap-%d,%g,%g,%g,%d,%g\n", lap, d[j], p[0], p[1], gear, speed[j]+noise[j])
		}
	}

	path := filepath.Join(t.TempDir(), "laps.csv")
	require.NoError(t, os.WriteFile(path, []byte(buf.String()), 0o644))
	return path
}

func TestRun_AnalyzeStoreExport(t *testing.T) {
	monitoring.SetLogger(t.Logf)
	t.Cleanup(func() { monitoring.SetLogger(nil) })

	dir := t.TempDir()
	lapsPath := writeStadiumCSV(t, 4)
	dbPath := filepath.Join(dir, "runs.db")
	pngPath := filepath.Join(dir, "track.png")
	htmlPath := filepath.Join(dir, "report.html")
	geoPath := filepath.Join(dir, "track.geojson")

	var out bytes.Buffer
	err := run("analyze", []string{
		"-laps", lapsPath, "-db", dbPath, "-workers", "2",
		"-png", pngPath, "-html", htmlPath, "-geojson", geoPath,
	}, &out)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out.String(), "run "))
	assert.Contains(t, out.String(), "corner_ccw")
	for _, f := range []string{pngPath, htmlPath, geoPath} {
		assert.FileExists(t, f)
	}

	database, err := db.NewDB(dbPath)
	require.NoError(t, err)
	runs, err := database.ListRuns(context.Background())
	database.Close()
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, 4, runs[0].LapCount)
	runID := runs[0].RunID

	out.Reset()
	require.NoError(t, run("runs", []string{"-db", dbPath}, &out))
	assert.Contains(t, out.String(), runID)

	out.Reset()
	exported := filepath.Join(dir, "again.geojson")
	require.NoError(t, run("export", []string{"-db", dbPath, "-run", runID, "-geojson", exported}, &out))
	assert.FileExists(t, exported)

	out.Reset()
	require.NoError(t, run("delete", []string{"-db", dbPath, "-run", runID}, &out))
	assert.ErrorIs(t, run("delete", []string{"-db", dbPath, "-run", runID}, &out), db.ErrRunNotFound)
}

func TestRun_Errors(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "runs.db")
	var out bytes.Buffer

	assert.Error(t, run("fly", nil, &out))
	assert.Error(t, run("analyze", nil, &out), "missing -laps")
	assert.Error(t, run("analyze", []string{"-laps", filepath.Join(dir, "missing.csv")}, &out))
	assert.Error(t, run("export", []string{"-db", dbPath}, &out), "missing -run")
	assert.Error(t, run("export", []string{"-db", dbPath, "-run", "x"}, &out), "nothing to export")
	assert.ErrorIs(t, run("export", []string{"-db", dbPath, "-run", "x", "-png", filepath.Join(dir, "x.png")}, &out),
		db.ErrRunNotFound)
}

func TestRun_InfoCommands(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run("version", nil, &out))
	assert.True(t, strings.HasPrefix(out.String(), "trackmap dev"))

	out.Reset()
	require.NoError(t, run("help", nil, &out))
	assert.Contains(t, out.String(), "Usage: trackmap <command>")

	out.Reset()
	require.NoError(t, run("migrate", []string{"-db", filepath.Join(t.TempDir(), "m.db"), "status"}, &out))
	assert.Contains(t, out.String(), "Current version: 0")
}

func TestRun_MigrateDevMode(t *testing.T) {
	origDevMode, origDir := db.DevMode, db.MigrationsDir
	t.Cleanup(func() {
		db.DevMode, db.MigrationsDir = origDevMode, origDir
	})

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "000001_scratch.up.sql"),
		[]byte("CREATE TABLE scratch (id INTEGER PRIMARY KEY);"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "000001_scratch.down.sql"),
		[]byte("DROP TABLE scratch;"), 0o644))

	var out bytes.Buffer
	dbPath := filepath.Join(t.TempDir(), "dev.db")
	require.NoError(t, run("migrate", []string{"-db", dbPath, "-dev", "-migrations", dir, "up"}, &out))
	assert.True(t, db.DevMode)
	assert.Equal(t, dir, db.MigrationsDir)
	assert.Contains(t, out.String(), "Current version: 1")
	assert.Contains(t, out.String(), "Latest available: 1")

	database, err := db.OpenDB(dbPath)
	require.NoError(t, err)
	defer database.Close()
	var n int
	require.NoError(t, database.QueryRow(`SELECT COUNT(*) FROM scratch`).Scan(&n))
	assert.Zero(t, n)
}
