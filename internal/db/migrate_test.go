package db

import (
	"bytes"
	"io/fs"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedMigrationsFS(t *testing.T) {
	migrations, err := getMigrationsFS()
	require.NoError(t, err)

	ups, err := fs.Glob(migrations, "*.up.sql")
	require.NoError(t, err)
	downs, err := fs.Glob(migrations, "*.down.sql")
	require.NoError(t, err)
	assert.Len(t, ups, 2)
	assert.Len(t, downs, len(ups), "every up migration needs a down")

	latest, err := GetLatestMigrationVersion(migrations)
	require.NoError(t, err)
	assert.Equal(t, uint(2), latest)
}

func TestGetMigrationsFS_DevMode(t *testing.T) {
	origDevMode, origDir := DevMode, MigrationsDir
	defer func() { DevMode, MigrationsDir = origDevMode, origDir }()

	// Tests run from the package directory.
	DevMode = true
	MigrationsDir = "migrations"
	migrations, err := getMigrationsFS()
	require.NoError(t, err)
	latest, err := GetLatestMigrationVersion(migrations)
	require.NoError(t, err)
	assert.Equal(t, uint(2), latest)

	MigrationsDir = filepath.Join(t.TempDir(), "empty")
	migrations, err = getMigrationsFS()
	require.NoError(t, err)
	_, err = GetLatestMigrationVersion(migrations)
	assert.Error(t, err)
}

func TestMigrateUpDown(t *testing.T) {
	db, err := OpenDB(filepath.Join(t.TempDir(), "migrate.db"))
	require.NoError(t, err)
	defer db.Close()
	migrations, err := getMigrationsFS()
	require.NoError(t, err)

	version, dirty, err := db.MigrateVersion(migrations)
	require.NoError(t, err)
	assert.Equal(t, uint(0), version)
	assert.False(t, dirty)

	require.NoError(t, db.MigrateUp(migrations))
	require.NoError(t, db.MigrateUp(migrations), "second up is a no-op")
	version, _, err = db.MigrateVersion(migrations)
	require.NoError(t, err)
	assert.Equal(t, uint(2), version)
	assert.True(t, tableExists(t, db, "event_points"))

	require.NoError(t, db.MigrateDown(migrations))
	version, _, err = db.MigrateVersion(migrations)
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
	assert.False(t, tableExists(t, db, "event_points"))
	assert.True(t, tableExists(t, db, "runs"))

	require.NoError(t, db.MigrateTo(migrations, 2))
	status, err := db.GetMigrationStatus(migrations)
	require.NoError(t, err)
	assert.Equal(t, MigrationStatus{CurrentVersion: 2, LatestVersion: 2, SchemaMigrationsExists: true}, status)
}

func TestRunMigrateCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cli.db")
	var out bytes.Buffer

	require.NoError(t, RunMigrateCommand([]string{"up"}, path, &out))
	assert.Contains(t, out.String(), "Current version: 2")

	out.Reset()
	require.NoError(t, RunMigrateCommand([]string{"version", "1"}, path, &out))
	assert.Contains(t, out.String(), "Current version: 1")

	out.Reset()
	require.NoError(t, RunMigrateCommand([]string{"help"}, path, &out))
	assert.True(t, strings.HasPrefix(out.String(), "Usage: trackmap migrate"))

	assert.Error(t, RunMigrateCommand(nil, path, &out))
	assert.Error(t, RunMigrateCommand([]string{"sideways"}, path, &out))
	assert.Error(t, RunMigrateCommand([]string{"force"}, path, &out))
	assert.Error(t, RunMigrateCommand([]string{"version", "x"}, path, &out))
}

func tableExists(t *testing.T, db *DB, name string) bool {
	t.Helper()
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?`, name).Scan(&n)
	require.NoError(t, err)
	return n > 0
}
