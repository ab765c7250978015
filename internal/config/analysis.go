package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// DefaultConfigPath is the path to the canonical analysis defaults file.
const DefaultConfigPath = "config/analysis.defaults.json"

// AnalysisConfig holds the tuning of one analysis run. Every field is
// optional; the Get* methods supply the default for an unset field, so a
// partial file only overrides what it names.
type AnalysisConfig struct {
	// Event pipeline
	ResampleStep        *float64 `json:"resample_step,omitempty"`
	EventSignal         *string  `json:"event_signal,omitempty"`
	EventMode           *string  `json:"event_mode,omitempty"` // "min" or "max"
	ExtremaNeighborhood *int     `json:"extrema_neighborhood,omitempty"`

	// Lap filter
	LapFilterSignal    *string  `json:"lap_filter_signal,omitempty"`
	LapFilterThreshold *float64 `json:"lap_filter_threshold,omitempty"`
	LapFilterFraction  *float64 `json:"lap_filter_fraction,omitempty"`

	// Clustering
	ClusterK     *int    `json:"cluster_k,omitempty"` // 0 selects the median per-lap event count
	ClusterSeed  *uint64 `json:"cluster_seed,omitempty"`
	ClusterInits *int    `json:"cluster_inits,omitempty"`

	// Track geometry
	GridStep        *float64 `json:"grid_step,omitempty"`
	OutlierWindow   *float64 `json:"outlier_window,omitempty"`
	OutlierYawLimit *float64 `json:"outlier_yaw_limit,omitempty"`
	FusionWindow    *float64 `json:"fusion_window,omitempty"`
	FusionDegree    *int     `json:"fusion_degree,omitempty"`

	// Sections
	SectionMinThreshold *float64 `json:"section_min_threshold,omitempty"`

	// Execution
	Workers *int    `json:"workers,omitempty"` // 0 uses one worker per CPU
	Timeout *string `json:"timeout,omitempty"` // duration string like "30s", empty for none
}

func ptrFloat64(v float64) *float64 { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }
func ptrUint64(v uint64) *uint64    { return &v }

// EmptyAnalysisConfig returns an AnalysisConfig with all fields unset.
func EmptyAnalysisConfig() *AnalysisConfig {
	return &AnalysisConfig{}
}

// DefaultAnalysisConfig returns a config with every field set to its default.
func DefaultAnalysisConfig() *AnalysisConfig {
	c := EmptyAnalysisConfig()
	return &AnalysisConfig{
		ResampleStep:        ptrFloat64(c.GetResampleStep()),
		EventSignal:         ptrString(c.GetEventSignal()),
		EventMode:           ptrString(c.GetEventMode()),
		ExtremaNeighborhood: ptrInt(c.GetExtremaNeighborhood()),
		LapFilterSignal:     ptrString(c.GetLapFilterSignal()),
		LapFilterThreshold:  ptrFloat64(c.GetLapFilterThreshold()),
		LapFilterFraction:   ptrFloat64(c.GetLapFilterFraction()),
		ClusterK:            ptrInt(c.GetClusterK()),
		ClusterSeed:         ptrUint64(c.GetClusterSeed()),
		ClusterInits:        ptrInt(c.GetClusterInits()),
		GridStep:            ptrFloat64(c.GetGridStep()),
		OutlierWindow:       ptrFloat64(c.GetOutlierWindow()),
		OutlierYawLimit:     ptrFloat64(c.GetOutlierYawLimit()),
		FusionWindow:        ptrFloat64(c.GetFusionWindow()),
		FusionDegree:        ptrInt(c.GetFusionDegree()),
		SectionMinThreshold: ptrFloat64(c.GetSectionMinThreshold()),
		Workers:             ptrInt(c.GetWorkers()),
		Timeout:             ptrString(""),
	}
}

// LoadAnalysisConfig loads an AnalysisConfig from a JSON file.
// The file must have a .json extension and be under 1MB.
func LoadAnalysisConfig(path string) (*AnalysisConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyAnalysisConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// MustLoadDefaultConfig loads DefaultConfigPath from the current directory
// or one of its parents. Panics if the file cannot be loaded, intended for
// test setup.
func MustLoadDefaultConfig() *AnalysisConfig {
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,
		"../../" + DefaultConfigPath, // from internal/config/
		"../../../" + DefaultConfigPath,
	}
	for _, path := range candidates {
		if cfg, err := LoadAnalysisConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are valid.
func (c *AnalysisConfig) Validate() error {
	positive := []struct {
		name string
		v    *float64
	}{
		{"resample_step", c.ResampleStep},
		{"lap_filter_fraction", c.LapFilterFraction},
		{"grid_step", c.GridStep},
		{"outlier_window", c.OutlierWindow},
		{"outlier_yaw_limit", c.OutlierYawLimit},
		{"fusion_window", c.FusionWindow},
		{"section_min_threshold", c.SectionMinThreshold},
	}
	for _, p := range positive {
		if p.v != nil && !(*p.v > 0) {
			return fmt.Errorf("%s must be positive, got %v", p.name, *p.v)
		}
	}

	if c.LapFilterFraction != nil && *c.LapFilterFraction > 1 {
		return fmt.Errorf("lap_filter_fraction must be at most 1, got %v", *c.LapFilterFraction)
	}
	if c.LapFilterThreshold != nil && (*c.LapFilterThreshold < -1 || *c.LapFilterThreshold > 1) {
		return fmt.Errorf("lap_filter_threshold must be between -1 and 1, got %v", *c.LapFilterThreshold)
	}
	if c.EventMode != nil && *c.EventMode != "min" && *c.EventMode != "max" {
		return fmt.Errorf("event_mode must be \"min\" or \"max\", got %q", *c.EventMode)
	}
	if c.EventSignal != nil && *c.EventSignal == "" {
		return fmt.Errorf("event_signal must not be empty")
	}
	if c.LapFilterSignal != nil && *c.LapFilterSignal == "" {
		return fmt.Errorf("lap_filter_signal must not be empty")
	}
	if c.ExtremaNeighborhood != nil && *c.ExtremaNeighborhood < 1 {
		return fmt.Errorf("extrema_neighborhood must be at least 1, got %d", *c.ExtremaNeighborhood)
	}
	if c.ClusterK != nil && *c.ClusterK < 0 {
		return fmt.Errorf("cluster_k must be non-negative, got %d", *c.ClusterK)
	}
	if c.ClusterInits != nil && *c.ClusterInits < 1 {
		return fmt.Errorf("cluster_inits must be at least 1, got %d", *c.ClusterInits)
	}
	if c.FusionDegree != nil && (*c.FusionDegree < 0 || *c.FusionDegree > 5) {
		return fmt.Errorf("fusion_degree must be between 0 and 5, got %d", *c.FusionDegree)
	}
	if c.Workers != nil && *c.Workers < 0 {
		return fmt.Errorf("workers must be non-negative, got %d", *c.Workers)
	}
	if c.GridStep != nil && c.OutlierWindow != nil && *c.OutlierWindow < *c.GridStep {
		return fmt.Errorf("outlier_window %v is shorter than grid_step %v", *c.OutlierWindow, *c.GridStep)
	}
	if c.Timeout != nil && *c.Timeout != "" {
		if _, err := time.ParseDuration(*c.Timeout); err != nil {
			return fmt.Errorf("invalid timeout '%s': %w", *c.Timeout, err)
		}
	}
	return nil
}

// GetResampleStep returns the resample_step value or the default.
func (c *AnalysisConfig) GetResampleStep() float64 {
	if c.ResampleStep == nil {
		return 1.0
	}
	return *c.ResampleStep
}

// GetEventSignal returns the event_signal value or the default.
func (c *AnalysisConfig) GetEventSignal() string {
	if c.EventSignal == nil {
		return "Gear"
	}
	return *c.EventSignal
}

// GetEventMode returns the event_mode value or the default.
func (c *AnalysisConfig) GetEventMode() string {
	if c.EventMode == nil {
		return "max"
	}
	return *c.EventMode
}

// GetExtremaNeighborhood returns the extrema_neighborhood value or the default.
func (c *AnalysisConfig) GetExtremaNeighborhood() int {
	if c.ExtremaNeighborhood == nil {
		return 50
	}
	return *c.ExtremaNeighborhood
}

// GetLapFilterSignal returns the lap_filter_signal value or the default.
func (c *AnalysisConfig) GetLapFilterSignal() string {
	if c.LapFilterSignal == nil {
		return "SpeedMs"
	}
	return *c.LapFilterSignal
}

// GetLapFilterThreshold returns the lap_filter_threshold value or the default.
func (c *AnalysisConfig) GetLapFilterThreshold() float64 {
	if c.LapFilterThreshold == nil {
		return 0.6
	}
	return *c.LapFilterThreshold
}

// GetLapFilterFraction returns the lap_filter_fraction value or the default.
func (c *AnalysisConfig) GetLapFilterFraction() float64 {
	if c.LapFilterFraction == nil {
		return 0.8
	}
	return *c.LapFilterFraction
}

// GetClusterK returns the cluster_k value or the default.
func (c *AnalysisConfig) GetClusterK() int {
	if c.ClusterK == nil {
		return 0
	}
	return *c.ClusterK
}

// GetClusterSeed returns the cluster_seed value or the default.
func (c *AnalysisConfig) GetClusterSeed() uint64 {
	if c.ClusterSeed == nil {
		return 1
	}
	return *c.ClusterSeed
}

// GetClusterInits returns the cluster_inits value or the default.
func (c *AnalysisConfig) GetClusterInits() int {
	if c.ClusterInits == nil {
		return 1
	}
	return *c.ClusterInits
}

// GetGridStep returns the grid_step value or the default.
func (c *AnalysisConfig) GetGridStep() float64 {
	if c.GridStep == nil {
		return 2.0
	}
	return *c.GridStep
}

// GetOutlierWindow returns the outlier_window value or the default.
func (c *AnalysisConfig) GetOutlierWindow() float64 {
	if c.OutlierWindow == nil {
		return 60
	}
	return *c.OutlierWindow
}

// GetOutlierYawLimit returns the outlier_yaw_limit value or the default.
func (c *AnalysisConfig) GetOutlierYawLimit() float64 {
	if c.OutlierYawLimit == nil {
		return 0.4
	}
	return *c.OutlierYawLimit
}

// GetFusionWindow returns the fusion_window value or the default.
func (c *AnalysisConfig) GetFusionWindow() float64 {
	if c.FusionWindow == nil {
		return 60
	}
	return *c.FusionWindow
}

// GetFusionDegree returns the fusion_degree value or the default.
func (c *AnalysisConfig) GetFusionDegree() int {
	if c.FusionDegree == nil {
		return 2
	}
	return *c.FusionDegree
}

// GetSectionMinThreshold returns the section_min_threshold value or the default.
func (c *AnalysisConfig) GetSectionMinThreshold() float64 {
	if c.SectionMinThreshold == nil {
		return 0.0051
	}
	return *c.SectionMinThreshold
}

// GetWorkers returns the workers value or the default.
func (c *AnalysisConfig) GetWorkers() int {
	if c.Workers == nil {
		return 0
	}
	return *c.Workers
}

// GetTimeout parses and returns the Timeout; 0 means no timeout.
func (c *AnalysisConfig) GetTimeout() time.Duration {
	if c.Timeout == nil || *c.Timeout == "" {
		return 0
	}
	d, err := time.ParseDuration(*c.Timeout)
	if err != nil {
		return 0
	}
	return d
}
