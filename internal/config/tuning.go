package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultConfigPath is the path to the canonical tuning defaults file.
// This is the single source of truth for all default tuning values.
const DefaultConfigPath = "config/tuning.defaults.json"

// TuningConfig holds the measurement tuning parameters. All fields are
// pointers so a partial JSON file only overrides what it names; the Get*
// accessors supply defaults for anything left nil.
type TuningConfig struct {
	// Profile sampling params
	HalfWidth       *float64 `json:"half_width,omitempty"`       // metres each side of the centreline
	Step            *float64 `json:"step,omitempty"`             // sample spacing in metres
	StationInterval *float64 `json:"station_interval,omitempty"` // chainage spacing between stations

	// Detection params
	SnapRadius            *float64 `json:"snap_radius,omitempty"`            // pivot search radius in metres
	IntersectionTolerance *float64 `json:"intersection_tolerance,omitempty"` // min elevation delta for interpolation
	CrownSearchHalfWidth  *float64 `json:"crown_search_half_width,omitempty"`
	ProjectedOffset       *float64 `json:"projected_offset,omitempty"` // metres above LAMA in projected-width mode

	// Export params
	ExportPrecision *int `json:"export_precision,omitempty"` // decimal places in CSV output
}

// EmptyTuningConfig returns a TuningConfig with all fields nil.
// Use LoadTuningConfig to load actual values from the defaults file.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// LoadTuningConfig loads a TuningConfig from a JSON file. The path must have
// a .json extension and the file must stay under a 1MB cap. Fields omitted
// from the JSON keep their defaults, so partial configs are safe.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical tuning defaults from
// DefaultConfigPath, searching upward from the current directory.
// Panics if the file cannot be loaded; intended for test setup.
func MustLoadDefaultConfig() *TuningConfig {
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath,    // from internal/<pkg>/
		"../../../" + DefaultConfigPath, // deeper packages
	}
	for _, path := range candidates {
		if cfg, err := LoadTuningConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are usable.
func (c *TuningConfig) Validate() error {
	if c.HalfWidth != nil && *c.HalfWidth < 0 {
		return fmt.Errorf("half_width must be non-negative, got %f", *c.HalfWidth)
	}
	if c.Step != nil && *c.Step <= 0 {
		return fmt.Errorf("step must be positive, got %f", *c.Step)
	}
	if c.StationInterval != nil && *c.StationInterval <= 0 {
		return fmt.Errorf("station_interval must be positive, got %f", *c.StationInterval)
	}
	if c.SnapRadius != nil && *c.SnapRadius <= 0 {
		return fmt.Errorf("snap_radius must be positive, got %f", *c.SnapRadius)
	}
	if c.IntersectionTolerance != nil && *c.IntersectionTolerance < 0 {
		return fmt.Errorf("intersection_tolerance must be non-negative, got %f", *c.IntersectionTolerance)
	}
	if c.ExportPrecision != nil && (*c.ExportPrecision < 0 || *c.ExportPrecision > 10) {
		return fmt.Errorf("export_precision must be between 0 and 10, got %d", *c.ExportPrecision)
	}
	return nil
}

// GetHalfWidth returns the half_width value or the default.
func (c *TuningConfig) GetHalfWidth() float64 {
	if c.HalfWidth == nil {
		return 40.0
	}
	return *c.HalfWidth
}

// GetStep returns the step value or the default.
func (c *TuningConfig) GetStep() float64 {
	if c.Step == nil {
		return 1.0
	}
	return *c.Step
}

// GetStationInterval returns the station_interval value or the default.
func (c *TuningConfig) GetStationInterval() float64 {
	if c.StationInterval == nil {
		return 20.0
	}
	return *c.StationInterval
}

// GetSnapRadius returns the snap_radius value or the default.
func (c *TuningConfig) GetSnapRadius() float64 {
	if c.SnapRadius == nil {
		return 5.0
	}
	return *c.SnapRadius
}

// GetIntersectionTolerance returns the intersection_tolerance value or the default.
func (c *TuningConfig) GetIntersectionTolerance() float64 {
	if c.IntersectionTolerance == nil {
		return 0.001
	}
	return *c.IntersectionTolerance
}

// GetCrownSearchHalfWidth returns the crown_search_half_width value or the default.
func (c *TuningConfig) GetCrownSearchHalfWidth() float64 {
	if c.CrownSearchHalfWidth == nil {
		return 10.0
	}
	return *c.CrownSearchHalfWidth
}

// GetProjectedOffset returns the projected_offset value or the default.
func (c *TuningConfig) GetProjectedOffset() float64 {
	if c.ProjectedOffset == nil {
		return 3.0
	}
	return *c.ProjectedOffset
}

// GetExportPrecision returns the export_precision value or the default.
func (c *TuningConfig) GetExportPrecision() int {
	if c.ExportPrecision == nil {
		return 3
	}
	return *c.ExportPrecision
}
