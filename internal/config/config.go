package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/miradorstack/burst-detector/internal/spiketrain"
)

// Config captures the settings required to boot the burst detection service.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Logging   LoggingConfig   `yaml:"logging"`
	Detection DetectionConfig `yaml:"detection"`
	Histogram HistogramConfig `yaml:"histogram"`
	Render    RenderConfig    `yaml:"render"`
}

// ServerConfig controls the gRPC and HTTP listeners.
type ServerConfig struct {
	Address         string        `yaml:"address"`
	MetricsAddress  string        `yaml:"metricsAddress"`
	GracefulTimeout time.Duration `yaml:"gracefulTimeout"`
}

// LoggingConfig controls structured logging.
type LoggingConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// DetectionConfig supplies defaults for fields a request leaves out.
type DetectionConfig struct {
	DefaultUnit        string  `yaml:"defaultUnit"`
	DefaultOrder       int     `yaml:"defaultOrder"`
	DefaultThresholdMs float64 `yaml:"defaultThresholdMs"`
	MaxEvents          int     `yaml:"maxEvents"`
}

// HistogramConfig controls ISI_N binning and smoothing.
type HistogramConfig struct {
	MinExponent float64         `yaml:"minExponent"`
	MaxExponent float64         `yaml:"maxExponent"`
	Edges       int             `yaml:"edges"`
	Smoothing   SmoothingConfig `yaml:"smoothing"`
}

// SmoothingConfig parameterises the LOWESS smoother.
type SmoothingConfig struct {
	Enabled    bool    `yaml:"enabled"`
	Frac       float64 `yaml:"frac"`
	Iterations int     `yaml:"iterations"`
}

// RenderConfig controls plot images served over HTTP.
type RenderConfig struct {
	Format       string  `yaml:"format"`
	WidthInches  float64 `yaml:"widthInches"`
	HeightInches float64 `yaml:"heightInches"`
	YMinExponent float64 `yaml:"yMinExponent"`
	YMaxExponent float64 `yaml:"yMaxExponent"`

	// CacheEntries bounds the rendered-plot cache; 0 disables it.
	CacheEntries int           `yaml:"cacheEntries"`
	CacheTTL     time.Duration `yaml:"cacheTTL"`
}

// Load initialises Config from a YAML file and optional environment overrides.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("BURST_DETECTOR_CONFIG")
	}

	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("config file %s not found: %w", path, err)
			}
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Address:         ":50051",
			MetricsAddress:  ":2112",
			GracefulTimeout: 10 * time.Second,
		},
		Logging: LoggingConfig{Level: "info", JSON: false},
		Detection: DetectionConfig{
			DefaultUnit:        "s",
			DefaultOrder:       10,
			DefaultThresholdMs: 50,
			MaxEvents:          5_000_000,
		},
		Histogram: HistogramConfig{
			MinExponent: -1,
			MaxExponent: 4,
			Edges:       100,
			Smoothing:   SmoothingConfig{Enabled: true, Frac: 0.1},
		},
		Render: RenderConfig{
			Format:       "png",
			WidthInches:  6,
			HeightInches: 4,
			YMinExponent: -7,
			YMaxExponent: 0,
			CacheEntries: 64,
			CacheTTL:     5 * time.Minute,
		},
	}
}

// Validate rejects settings the service cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Address == "" {
		errs = append(errs, errors.New("server.address is required"))
	}
	if c.Detection.DefaultOrder < 2 {
		errs = append(errs, fmt.Errorf("detection.defaultOrder %d must be >= 2", c.Detection.DefaultOrder))
	}
	if c.Detection.DefaultThresholdMs < 0 {
		errs = append(errs, fmt.Errorf("detection.defaultThresholdMs %v must be >= 0", c.Detection.DefaultThresholdMs))
	}
	if _, err := spiketrain.ParseUnit(c.Detection.DefaultUnit); err != nil {
		errs = append(errs, fmt.Errorf("detection.defaultUnit: %w", err))
	}
	if c.Histogram.Edges < 2 {
		errs = append(errs, fmt.Errorf("histogram.edges %d must be >= 2", c.Histogram.Edges))
	}
	if c.Histogram.MinExponent >= c.Histogram.MaxExponent {
		errs = append(errs, errors.New("histogram.minExponent must be below histogram.maxExponent"))
	}
	if c.Histogram.Smoothing.Frac <= 0 || c.Histogram.Smoothing.Frac > 1 {
		errs = append(errs, fmt.Errorf("histogram.smoothing.frac %v must be in (0, 1]", c.Histogram.Smoothing.Frac))
	}
	if c.Histogram.Smoothing.Iterations < 0 {
		errs = append(errs, errors.New("histogram.smoothing.iterations must be >= 0"))
	}
	if c.Render.YMinExponent >= c.Render.YMaxExponent {
		errs = append(errs, errors.New("render.yMinExponent must be below render.yMaxExponent"))
	}
	if c.Render.WidthInches <= 0 || c.Render.HeightInches <= 0 {
		errs = append(errs, errors.New("render size must be positive"))
	}
	if c.Render.CacheEntries < 0 || c.Render.CacheTTL < 0 {
		errs = append(errs, errors.New("render cache settings must be >= 0"))
	}
	return errors.Join(errs...)
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("BURST_DETECTOR_SERVER_ADDRESS"); v != "" {
		cfg.Server.Address = v
	}
	if v := os.Getenv("BURST_DETECTOR_METRICS_ADDRESS"); v != "" {
		cfg.Server.MetricsAddress = v
	}
	if v := os.Getenv("BURST_DETECTOR_GRACEFUL_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.GracefulTimeout = d
		}
	}
	if v := os.Getenv("BURST_DETECTOR_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("BURST_DETECTOR_LOG_FORMAT"); v == "json" {
		cfg.Logging.JSON = true
	}
	if v := os.Getenv("BURST_DETECTOR_DEFAULT_UNIT"); v != "" {
		cfg.Detection.DefaultUnit = v
	}
	if v := os.Getenv("BURST_DETECTOR_DEFAULT_ORDER"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Detection.DefaultOrder = n
		}
	}
	if v := os.Getenv("BURST_DETECTOR_DEFAULT_THRESHOLD_MS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Detection.DefaultThresholdMs = f
		}
	}
	if v := os.Getenv("BURST_DETECTOR_MAX_EVENTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Detection.MaxEvents = n
		}
	}
	if v := os.Getenv("BURST_DETECTOR_SMOOTHING_ENABLED"); v != "" {
		cfg.Histogram.Smoothing.Enabled = strings.EqualFold(v, "true") || v == "1"
	}
	if v := os.Getenv("BURST_DETECTOR_RENDER_FORMAT"); v != "" {
		cfg.Render.Format = v
	}
	if v := os.Getenv("BURST_DETECTOR_PLOT_CACHE_ENTRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Render.CacheEntries = n
		}
	}
}
