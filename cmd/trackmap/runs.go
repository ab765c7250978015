package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/banshee-data/paddock/internal/db"
	"github.com/banshee-data/paddock/internal/lapio"
	"github.com/banshee-data/paddock/internal/render"
)

func handleRuns(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("runs", flag.ContinueOnError)
	dbPath := fs.String("db", defaultDBPath, "Path to the sqlite database")
	if err := fs.Parse(args); err != nil {
		return err
	}

	database, err := db.NewDB(*dbPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer database.Close()

	runs, err := database.ListRuns(context.Background())
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tCREATED\tLAPS\tREMOVED\tLENGTH\tSIGNAL\tK\tSECTIONS")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%.1f\t%s\t%d\t%d\n",
			r.RunID, r.CreatedAt.Format(time.RFC3339), r.LapCount, r.RemovedLaps,
			r.TrackLength, r.EventSignal, r.ClusterK, r.SectionCount)
	}
	return tw.Flush()
}

func handleExport(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	dbPath := fs.String("db", defaultDBPath, "Path to the sqlite database")
	runID := fs.String("run", "", "Run id (required)")
	pngPath := fs.String("png", "", "Write the track map PNG here")
	geoPath := fs.String("geojson", "", "Write the consensus path GeoJSON here")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *runID == "" {
		return errors.New("-run is required")
	}
	if *pngPath == "" && *geoPath == "" {
		return errors.New("nothing to export: set -png or -geojson")
	}

	database, err := db.NewDB(*dbPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer database.Close()

	ctx := context.Background()
	path, _, err := database.LoadConsensusPath(ctx, *runID)
	if err != nil {
		return err
	}
	secs, err := database.LoadSections(ctx, *runID)
	if err != nil {
		return err
	}

	if *pngPath != "" {
		if err := render.SaveTrackPNG(*pngPath, path, secs); err != nil {
			return err
		}
		fmt.Fprintf(out, "wrote %s\n", *pngPath)
	}
	if *geoPath != "" {
		if err := writeFile(*geoPath, func(w io.Writer) error { return lapio.WriteGeoJSON(w, path, secs) }); err != nil {
			return err
		}
		fmt.Fprintf(out, "wrote %s\n", *geoPath)
	}
	return nil
}

func handleDelete(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("delete", flag.ContinueOnError)
	dbPath := fs.String("db", defaultDBPath, "Path to the sqlite database")
	runID := fs.String("run", "", "Run id (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *runID == "" {
		return errors.New("-run is required")
	}

	database, err := db.NewDB(*dbPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer database.Close()

	if err := database.DeleteRun(context.Background(), *runID); err != nil {
		return err
	}
	fmt.Fprintf(out, "deleted run %s\n", *runID)
	return nil
}
