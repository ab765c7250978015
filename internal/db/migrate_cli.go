package db

import (
	"fmt"
	"io"
	"io/fs"
	"strconv"
)

// RunMigrateCommand handles the 'migrate' subcommand: up, down, status,
// version <n> and force <n>.
func RunMigrateCommand(args []string, dbPath string, out io.Writer) error {
	if len(args) < 1 {
		PrintMigrateHelp(out)
		return fmt.Errorf("migrate: missing action")
	}
	action := args[0]
	if action == "help" {
		PrintMigrateHelp(out)
		return nil
	}

	migrations, err := getMigrationsFS()
	if err != nil {
		return err
	}
	// Open without migrating; the command manages the schema itself.
	database, err := OpenDB(dbPath)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()

	switch action {
	case "up":
		if err := database.MigrateUp(migrations); err != nil {
			return err
		}
		return printStatus(database, migrations, out)

	case "down":
		if err := database.MigrateDown(migrations); err != nil {
			return err
		}
		return printStatus(database, migrations, out)

	case "status":
		return printStatus(database, migrations, out)

	case "version", "force":
		if len(args) < 2 {
			return fmt.Errorf("usage: migrate %s <version_number>", action)
		}
		v, err := strconv.Atoi(args[1])
		if err != nil || v < 0 {
			return fmt.Errorf("invalid version number: %s", args[1])
		}
		if action == "version" {
			err = database.MigrateTo(migrations, uint(v))
		} else {
			err = database.MigrateForce(migrations, v)
		}
		if err != nil {
			return err
		}
		return printStatus(database, migrations, out)

	default:
		PrintMigrateHelp(out)
		return fmt.Errorf("unknown migrate action: %s", action)
	}
}

func printStatus(database *DB, migrations fs.FS, out io.Writer) error {
	status, err := database.GetMigrationStatus(migrations)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, "=== Migration Status ===")
	fmt.Fprintf(out, "Current version: %d\n", status.CurrentVersion)
	fmt.Fprintf(out, "Latest available: %d\n", status.LatestVersion)
	fmt.Fprintf(out, "Dirty: %v\n", status.Dirty)
	if status.Dirty {
		fmt.Fprintln(out, "\nWARNING: a migration failed mid-execution.")
		fmt.Fprintln(out, "Inspect the database, then run: trackmap migrate force <version>")
	}
	return nil
}

// PrintMigrateHelp writes the migrate subcommand usage.
func PrintMigrateHelp(out io.Writer) {
	fmt.Fprint(out, `Usage: trackmap migrate <action> [args]

Actions:
  up                 Apply all pending migrations
  down               Roll back the most recent migration
  status             Show current and latest schema version
  version <n>        Migrate up or down to version n
  force <n>          Set the version without running migrations (recovery only)
  help               Show this help
`)
}
