package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("BURST_DETECTOR_CONFIG", "")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Address != ":50051" || cfg.Detection.DefaultOrder != 10 || cfg.Histogram.Edges != 100 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if !cfg.Histogram.Smoothing.Enabled || cfg.Histogram.Smoothing.Frac != 0.1 {
		t.Fatalf("unexpected smoothing defaults: %+v", cfg.Histogram.Smoothing)
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
server:
  address: ":6000"
  gracefulTimeout: 3s
detection:
  defaultUnit: ms
  defaultOrder: 4
histogram:
  edges: 50
render:
  cacheTTL: 1m
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("BURST_DETECTOR_DEFAULT_THRESHOLD_MS", "12.5")
	t.Setenv("BURST_DETECTOR_LOG_FORMAT", "json")
	t.Setenv("BURST_DETECTOR_PLOT_CACHE_ENTRIES", "0")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Address != ":6000" || cfg.Server.GracefulTimeout != 3*time.Second {
		t.Fatalf("unexpected server config: %+v", cfg.Server)
	}
	if cfg.Detection.DefaultUnit != "ms" || cfg.Detection.DefaultOrder != 4 || cfg.Detection.DefaultThresholdMs != 12.5 {
		t.Fatalf("unexpected detection config: %+v", cfg.Detection)
	}
	if cfg.Histogram.Edges != 50 || cfg.Histogram.MaxExponent != 4 {
		t.Fatalf("expected file values merged over defaults: %+v", cfg.Histogram)
	}
	if !cfg.Logging.JSON {
		t.Fatalf("expected json logging from env")
	}
	if cfg.Render.CacheTTL != time.Minute || cfg.Render.CacheEntries != 0 {
		t.Fatalf("unexpected render cache config: %+v", cfg.Render)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Detection.DefaultOrder = 1
	cfg.Detection.DefaultUnit = "min"
	cfg.Histogram.Smoothing.Frac = 0

	err := cfg.Validate()
	if err == nil {
		t.Fatalf("expected validation error")
	}
	for _, want := range []string{"defaultOrder", "defaultUnit", "frac"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("expected %q in %v", want, err)
		}
	}
}
