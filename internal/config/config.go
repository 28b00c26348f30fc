package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const DefaultPath = "chronomap.yaml"

type ProjectConfig struct {
	Project  string         `yaml:"project"`
	Version  int            `yaml:"version"`
	Sources  SourcesConfig  `yaml:"sources"`
	Timeline TimelineConfig `yaml:"timeline"`
	Map      MapConfig      `yaml:"map"`
	Archive  ArchiveConfig  `yaml:"archive"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type SourcesConfig struct {
	Paths   []string `yaml:"paths"`
	Exclude []string `yaml:"exclude"`
}

type TimelineConfig struct {
	Width            int     `yaml:"width"`
	DefaultSpanYears int     `yaml:"default_span_years"`
	FallbackMinYear  int     `yaml:"fallback_min_year"`
	ZoomInFactor     float64 `yaml:"zoom_in_factor"`
	ZoomOutFactor    float64 `yaml:"zoom_out_factor"`
	PanStep          float64 `yaml:"pan_step"`
	MinScale         float64 `yaml:"min_scale"`
	MaxScale         float64 `yaml:"max_scale"`
	ReferenceDate    string  `yaml:"reference_date,omitempty"`
}

type MapConfig struct {
	StyleURL        string  `yaml:"style_url"`
	TimeWindowYears int     `yaml:"time_window_years"`
	FanOutRadius    float64 `yaml:"fan_out_radius"`
}

type ArchiveConfig struct {
	DSN string `yaml:"dsn"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

func DefaultTimeline() TimelineConfig {
	return TimelineConfig{
		Width:            120,
		DefaultSpanYears: 50,
		FallbackMinYear:  1400,
		ZoomInFactor:     1.2,
		ZoomOutFactor:    0.8,
		PanStep:          50,
		MinScale:         0.05,
		MaxScale:         50,
	}
}

func DefaultMap() MapConfig {
	return MapConfig{
		StyleURL:        "mapbox://styles/mapbox/dark-v11",
		TimeWindowYears: 10,
		FanOutRadius:    0.05,
	}
}

// Default is the configuration written by `chronomap init`.
func Default(project string) *ProjectConfig {
	return &ProjectConfig{
		Project:  project,
		Version:  1,
		Sources:  SourcesConfig{Paths: []string{"./data"}},
		Timeline: DefaultTimeline(),
		Map:      DefaultMap(),
		Archive:  ArchiveConfig{DSN: "sqlite://./chronomap.db"},
		Logging:  LoggingConfig{Level: "info"},
	}
}

func LoadProjectConfig(path string) (*ProjectConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}

	var cfg ProjectConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}

	applyDefaults(&cfg)
	if err := validateProjectConfig(&cfg); err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}

	return &cfg, nil
}

func Marshal(cfg *ProjectConfig) ([]byte, error) {
	return yaml.Marshal(cfg)
}

func applyDefaults(cfg *ProjectConfig) {
	tl := DefaultTimeline()
	if cfg.Timeline.Width == 0 {
		cfg.Timeline.Width = tl.Width
	}
	if cfg.Timeline.DefaultSpanYears == 0 {
		cfg.Timeline.DefaultSpanYears = tl.DefaultSpanYears
	}
	if cfg.Timeline.FallbackMinYear == 0 {
		cfg.Timeline.FallbackMinYear = tl.FallbackMinYear
	}
	if cfg.Timeline.ZoomInFactor == 0 {
		cfg.Timeline.ZoomInFactor = tl.ZoomInFactor
	}
	if cfg.Timeline.ZoomOutFactor == 0 {
		cfg.Timeline.ZoomOutFactor = tl.ZoomOutFactor
	}
	if cfg.Timeline.PanStep == 0 {
		cfg.Timeline.PanStep = tl.PanStep
	}
	if cfg.Timeline.MinScale == 0 {
		cfg.Timeline.MinScale = tl.MinScale
	}
	if cfg.Timeline.MaxScale == 0 {
		cfg.Timeline.MaxScale = tl.MaxScale
	}

	m := DefaultMap()
	if cfg.Map.StyleURL == "" {
		cfg.Map.StyleURL = m.StyleURL
	}
	if cfg.Map.TimeWindowYears == 0 {
		cfg.Map.TimeWindowYears = m.TimeWindowYears
	}
	if cfg.Map.FanOutRadius == 0 {
		cfg.Map.FanOutRadius = m.FanOutRadius
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
}

func validateProjectConfig(cfg *ProjectConfig) error {
	if strings.TrimSpace(cfg.Project) == "" {
		return fmt.Errorf("project name is required")
	}
	if cfg.Version != 1 {
		return fmt.Errorf("unsupported version: %d", cfg.Version)
	}
	if len(cfg.Sources.Paths) == 0 {
		return fmt.Errorf("at least one source path is required")
	}
	for i, path := range cfg.Sources.Paths {
		if strings.TrimSpace(path) == "" {
			return fmt.Errorf("source path %d is empty", i)
		}
	}

	tl := cfg.Timeline
	if tl.Width < 0 {
		return fmt.Errorf("timeline width must not be negative")
	}
	if tl.DefaultSpanYears < 1 {
		return fmt.Errorf("timeline default_span_years must be positive")
	}
	if tl.ZoomInFactor <= 1 {
		return fmt.Errorf("timeline zoom_in_factor must be greater than 1")
	}
	if tl.ZoomOutFactor <= 0 || tl.ZoomOutFactor >= 1 {
		return fmt.Errorf("timeline zoom_out_factor must be between 0 and 1")
	}
	if tl.PanStep <= 0 {
		return fmt.Errorf("timeline pan_step must be positive")
	}
	if tl.MinScale <= 0 || tl.MinScale >= tl.MaxScale {
		return fmt.Errorf("timeline min_scale must be positive and below max_scale")
	}
	if cfg.Map.TimeWindowYears < 0 {
		return fmt.Errorf("map time_window_years must not be negative")
	}
	if cfg.Map.FanOutRadius < 0 {
		return fmt.Errorf("map fan_out_radius must not be negative")
	}

	return nil
}
