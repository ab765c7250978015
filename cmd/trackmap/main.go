// Command trackmap runs the lap analysis over a telemetry CSV and manages
// the stored analysis runs.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/banshee-data/paddock/internal/db"
	"github.com/banshee-data/paddock/internal/version"
)

const defaultDBPath = "paddock.db"

func main() {
	flag.Usage = func() { printUsage(os.Stderr) }
	flag.Parse()

	if flag.NArg() < 1 {
		printUsage(os.Stderr)
		os.Exit(2)
	}
	if err := run(flag.Arg(0), flag.Args()[1:], os.Stdout); err != nil {
		log.Fatalf("trackmap %s: %v", flag.Arg(0), err)
	}
}

// run dispatches one subcommand, writing its report to out.
func run(command string, args []string, out io.Writer) error {
	switch command {
	case "analyze":
		return handleAnalyze(args, out)
	case "runs":
		return handleRuns(args, out)
	case "export":
		return handleExport(args, out)
	case "delete":
		return handleDelete(args, out)
	case "migrate":
		fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
		dbPath := fs.String("db", defaultDBPath, "Path to the sqlite database")
		dev := fs.Bool("dev", false, "Read migrations from -migrations on disk instead of the embedded copy")
		dir := fs.String("migrations", db.MigrationsDir, "On-disk migrations directory used with -dev")
		if err := fs.Parse(args); err != nil {
			return err
		}
		if *dev {
			db.DevMode = true
			db.MigrationsDir = *dir
		}
		return db.RunMigrateCommand(fs.Args(), *dbPath, out)
	case "version":
		fmt.Fprintln(out, version.String("trackmap"))
		return nil
	case "help":
		printUsage(out)
		return nil
	default:
		printUsage(out)
		return fmt.Errorf("unknown command %q", command)
	}
}

func printUsage(out io.Writer) {
	fmt.Fprint(out, `trackmap - consensus track geometry, sections and event clusters from lap telemetry

Usage: trackmap <command> [options]

Commands:
  analyze    Analyze a long-format lap CSV and optionally store and render the run
  runs       List stored analysis runs
  export     Render a stored run as PNG or GeoJSON
  delete     Delete a stored run
  migrate    Manage the database schema (see 'trackmap migrate help')
  version    Show version information
  help       Show this help message

Run 'trackmap <command> -h' for the options of a command.
`)
}
