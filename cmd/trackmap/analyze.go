package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/banshee-data/paddock/internal/analysis"
	"github.com/banshee-data/paddock/internal/config"
	"github.com/banshee-data/paddock/internal/db"
	"github.com/banshee-data/paddock/internal/lapio"
	"github.com/banshee-data/paddock/internal/monitoring"
	"github.com/banshee-data/paddock/internal/render"
	"github.com/banshee-data/paddock/internal/sections"
)

func handleAnalyze(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("analyze", flag.ContinueOnError)
	lapsPath := fs.String("laps", "", "Long-format lap CSV (required)")
	cfgPath := fs.String("config", "", "Analysis config JSON (built-in defaults when empty)")
	dbPath := fs.String("db", "", "Store the run in this sqlite database")
	pngPath := fs.String("png", "", "Write the track map PNG here")
	htmlPath := fs.String("html", "", "Write the HTML report here")
	geoPath := fs.String("geojson", "", "Write the consensus path GeoJSON here")
	jsonOut := fs.Bool("json", false, "Print the full result as JSON instead of a summary")
	eventSignal := fs.String("signal", "", "Override the event signal column")
	k := fs.Int("k", -1, "Override the cluster count (0 selects the median extrema count)")
	workers := fs.Int("workers", -1, "Override the per-lap worker count (0 uses one per CPU)")
	debug := fs.Bool("debug", false, "Enable debug logging")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *lapsPath == "" {
		return errors.New("-laps is required")
	}
	monitoring.SetDebug(*debug)

	cfg := config.DefaultAnalysisConfig()
	if *cfgPath != "" {
		var err error
		if cfg, err = config.LoadAnalysisConfig(*cfgPath); err != nil {
			return err
		}
	}
	opts := analysis.OptionsFromConfig(cfg)
	if *eventSignal != "" {
		opts.EventSignal = *eventSignal
	}
	if *k >= 0 {
		opts.ClusterK = *k
	}
	if *workers >= 0 {
		opts.Workers = *workers
	}

	f, err := os.Open(*lapsPath)
	if err != nil {
		return err
	}
	laps, err := lapio.ReadLaps(f)
	f.Close()
	if err != nil {
		return err
	}
	log.Printf("read %d laps from %s", len(laps), *lapsPath)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if timeout := cfg.GetTimeout(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	res, err := analysis.New(opts).Run(ctx, laps)
	if err != nil {
		return err
	}

	if *dbPath != "" {
		database, err := db.NewDB(*dbPath)
		if err != nil {
			return fmt.Errorf("open db: %w", err)
		}
		defer database.Close()
		if err := database.SaveRun(ctx, res); err != nil {
			return err
		}
		log.Printf("stored run %s in %s", res.RunID, *dbPath)
	}
	if *pngPath != "" {
		if err := render.SaveTrackPNG(*pngPath, res.Track.Path, res.Track.Sections); err != nil {
			return err
		}
	}
	if *htmlPath != "" {
		if err := writeFile(*htmlPath, func(w io.Writer) error { return render.AnalysisHTML(w, res) }); err != nil {
			return err
		}
	}
	if *geoPath != "" {
		if err := writeFile(*geoPath, func(w io.Writer) error {
			return lapio.WriteGeoJSON(w, res.Track.Path, res.Track.Sections)
		}); err != nil {
			return err
		}
	}

	if *jsonOut {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	printSummary(out, res)
	return nil
}

func printSummary(out io.Writer, res *analysis.Result) {
	fmt.Fprintf(out, "run %s: %d laps\n", res.RunID, len(res.LapIDs))

	ev := res.Events
	fmt.Fprintf(out, "events: %s %s, %d laps removed %v\n", ev.Signal, ev.Mode, len(ev.Filter.Removed), ev.Filter.Removed)
	for i, c := range ev.Clusters.Centroids {
		fmt.Fprintf(out, "  cluster %d: %s=%.2f at %.1f m\n", i, ev.Clusters.Column, c.Value, c.Distance)
	}

	tr := res.Track
	fmt.Fprintf(out, "track: %.1f m, %d grid points\n", tr.Length, tr.Path.Len())
	for _, s := range tr.Sections {
		if s.Type == sections.Straight {
			continue
		}
		fmt.Fprintf(out, "  %-10s %7.1f - %7.1f m  max yaw %.4f\n", s.Type, s.Start, s.End, s.MaxYawChange)
	}
}

// writeFile creates path and closes it after write, reporting the first error.
func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
