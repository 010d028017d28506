// Package config loads tracker tuning parameters from JSON. Fields are
// pointer-typed so a partial config file only overrides what it names; the
// accessors fall back to the built-in defaults.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/marker-data/trajectory.report/internal/trajectory"
)

// DefaultConfigPath is the path to the canonical tuning defaults file.
const DefaultConfigPath = "config/tracker.defaults.json"

// Built-in defaults.
const (
	DefaultMarkerSizeMeters = 0.05
	DefaultDictionaryName   = "DICT_4X4_50"
	DefaultFrameSkip        = 1
)

// TrackerConfig is the root tuning configuration. The schema matches the
// /api/config endpoint so the same JSON works for startup configuration and
// runtime inspection.
type TrackerConfig struct {
	// Marker / detector params
	MarkerSizeMeters *float64 `json:"marker_size_meters,omitempty"`
	DictionaryName   *string  `json:"dictionary_name,omitempty"`
	CalibrationPath  *string  `json:"calibration_path,omitempty"`

	// Video processing params
	FrameSkip *int `json:"frame_skip,omitempty"`

	// Smoothing params
	SmoothingEnabled   *bool `json:"smoothing_enabled,omitempty"`
	SmoothingWindow    *int  `json:"smoothing_window,omitempty"`
	SmoothingPolyOrder *int  `json:"smoothing_poly_order,omitempty"`
}

// EmptyTrackerConfig returns a TrackerConfig with all fields unset, so every
// accessor reports its default.
func EmptyTrackerConfig() *TrackerConfig {
	return &TrackerConfig{}
}

// LoadTrackerConfig loads a TrackerConfig from a JSON file. Fields omitted
// from the file keep their defaults, so partial configs are safe.
func LoadTrackerConfig(path string) (*TrackerConfig, error) {
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

	var cfg TrackerConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", cleanPath, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config in %s: %w", cleanPath, err)
	}
	return &cfg, nil
}

// Validate rejects parameter combinations that would produce undefined
// behaviour downstream, in particular smoothing window/order violations.
func (c *TrackerConfig) Validate() error {
	if c.MarkerSizeMeters != nil && *c.MarkerSizeMeters <= 0 {
		return fmt.Errorf("marker_size_meters must be positive, got %v", *c.MarkerSizeMeters)
	}
	if c.FrameSkip != nil && *c.FrameSkip < 1 {
		return fmt.Errorf("frame_skip must be >= 1, got %d", *c.FrameSkip)
	}
	return c.Smoothing().Validate()
}

// Smoothing assembles the smoothing configuration, applying defaults for
// unset fields.
func (c *TrackerConfig) Smoothing() trajectory.SmoothingConfig {
	cfg := trajectory.DefaultSmoothingConfig()
	if c.SmoothingEnabled != nil {
		cfg.Enabled = *c.SmoothingEnabled
	}
	if c.SmoothingWindow != nil {
		cfg.Window = *c.SmoothingWindow
	}
	if c.SmoothingPolyOrder != nil {
		cfg.PolyOrder = *c.SmoothingPolyOrder
	}
	return cfg
}

// MarkerSize returns the configured marker edge length in meters.
func (c *TrackerConfig) MarkerSize() float64 {
	if c.MarkerSizeMeters != nil {
		return *c.MarkerSizeMeters
	}
	return DefaultMarkerSizeMeters
}

// CalibrationFile returns the configured camera calibration path, or ""
// when none is set.
func (c *TrackerConfig) CalibrationFile() string {
	if c.CalibrationPath != nil {
		return *c.CalibrationPath
	}
	return ""
}

// Dictionary returns the fiducial dictionary name the detector should use.
func (c *TrackerConfig) Dictionary() string {
	if c.DictionaryName != nil {
		return *c.DictionaryName
	}
	return DefaultDictionaryName
}

// VideoFrameSkip returns the offline ingestion stride.
func (c *TrackerConfig) VideoFrameSkip() int {
	if c.FrameSkip != nil {
		return *c.FrameSkip
	}
	return DefaultFrameSkip
}
