package analysis

import (
	"runtime"

	"github.com/banshee-data/paddock/internal/config"
	"github.com/banshee-data/paddock/internal/events"
	"github.com/banshee-data/paddock/internal/sections"
	"github.com/banshee-data/paddock/internal/telemetry"
	"github.com/banshee-data/paddock/internal/trackmap"
)

// Options configures an Analyzer.
type Options struct {
	ResampleStep        float64
	EventSignal         string
	EventMode           telemetry.ExtremaMode
	ExtremaNeighborhood int
	LapFilter           telemetry.LapFilterParams
	ClusterK            int // <= 0 selects events.DefaultK
	Cluster             events.Params
	Outliers            trackmap.OutlierParams
	Fusion              trackmap.FusionParams
	SectionMinThreshold float64
	Workers             int // <= 0 uses one worker per CPU
}

// DefaultOptions returns the production analysis settings.
func DefaultOptions() Options {
	return Options{
		ResampleStep:        telemetry.DefaultResampleStep,
		EventSignal:         telemetry.SignalGear,
		EventMode:           telemetry.Maxima,
		ExtremaNeighborhood: telemetry.DefaultExtremaNeighborhood,
		LapFilter:           telemetry.DefaultLapFilterParams(),
		Cluster:             events.DefaultParams(),
		Outliers:            trackmap.DefaultOutlierParams(),
		Fusion:              trackmap.DefaultFusionParams(),
		SectionMinThreshold: sections.DefaultMinThreshold,
	}
}

// OptionsFromConfig maps an AnalysisConfig onto Options. Unset config
// fields take the config package defaults.
func OptionsFromConfig(cfg *config.AnalysisConfig) Options {
	if cfg == nil {
		cfg = config.EmptyAnalysisConfig()
	}
	opts := DefaultOptions()
	opts.ResampleStep = cfg.GetResampleStep()
	opts.EventSignal = cfg.GetEventSignal()
	opts.EventMode = telemetry.Maxima
	if cfg.GetEventMode() == "min" {
		opts.EventMode = telemetry.Minima
	}
	opts.ExtremaNeighborhood = cfg.GetExtremaNeighborhood()
	opts.LapFilter = telemetry.LapFilterParams{
		Column:    cfg.GetLapFilterSignal(),
		Threshold: cfg.GetLapFilterThreshold(),
		Fraction:  cfg.GetLapFilterFraction(),
	}
	opts.ClusterK = cfg.GetClusterK()
	opts.Cluster.Seed = cfg.GetClusterSeed()
	opts.Cluster.Inits = cfg.GetClusterInits()
	opts.Outliers = trackmap.OutlierParams{
		GridStep: cfg.GetGridStep(),
		Window:   cfg.GetOutlierWindow(),
		YawLimit: cfg.GetOutlierYawLimit(),
	}
	opts.Fusion.GridStep = cfg.GetGridStep()
	opts.Fusion.Window = cfg.GetFusionWindow()
	opts.Fusion.Degree = cfg.GetFusionDegree()
	opts.SectionMinThreshold = cfg.GetSectionMinThreshold()
	opts.Workers = cfg.GetWorkers()
	return opts
}

func (o Options) workers() int {
	if o.Workers > 0 {
		return o.Workers
	}
	return runtime.NumCPU()
}
