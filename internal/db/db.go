// Package db stores analysis runs in sqlite. The schema is managed by
// golang-migrate from the migrations embedded in the binary.
package db

import (
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"os"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// DevMode reads migrations from MigrationsDir on disk instead of the
// embedded copy, so schema changes can be tried without a rebuild.
var DevMode = false

// MigrationsDir is the on-disk migrations directory used in DevMode.
var MigrationsDir = "internal/db/migrations"

// pragmas are applied to every connection through the DSN.
var pragmas = []string{
	"busy_timeout(5000)",
	"journal_mode(WAL)",
	"synchronous(NORMAL)",
	"temp_store(MEMORY)",
}

type DB struct {
	*sql.DB
}

// getMigrationsFS returns the migrations directory as an fs.FS rooted at
// the .sql files.
func getMigrationsFS() (fs.FS, error) {
	if DevMode {
		return os.DirFS(MigrationsDir), nil
	}
	sub, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded migrations: %w", err)
	}
	return sub, nil
}

func dsn(path string) string {
	q := "file:" + path
	for i, p := range pragmas {
		if i == 0 {
			q += "?"
		} else {
			q += "&"
		}
		q += "_pragma=" + p
	}
	return q
}

// OpenDB opens the database without touching the schema.
func OpenDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	return &DB{db}, nil
}

// NewDB opens the database and applies every pending migration.
func NewDB(path string) (*DB, error) {
	db, err := OpenDB(path)
	if err != nil {
		return nil, err
	}
	migrations, err := getMigrationsFS()
	if err != nil {
		db.Close()
		return nil, err
	}
	if err := db.MigrateUp(migrations); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
