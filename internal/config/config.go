// Package config provides configuration types and defaults for vscroll.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/zjrosen/vscroll/internal/flags"
	"github.com/zjrosen/vscroll/internal/log"
	"github.com/zjrosen/vscroll/internal/tracing"
	"github.com/zjrosen/vscroll/internal/virtualizer"
)

// Config holds all configuration options for vscroll.
type Config struct {
	Engine  EngineConfig    `mapstructure:"engine"`
	Demo    DemoConfig      `mapstructure:"demo"`
	Tracing tracing.Config  `mapstructure:"tracing"`
	Metrics MetricsConfig   `mapstructure:"metrics"`
	Flags   map[string]bool `mapstructure:"flags"`
}

// EngineConfig holds the virtual list layout and timing parameters.
type EngineConfig struct {
	EstimatedItemHeight float64       `mapstructure:"estimated_item_height"`
	ContainerHeight     float64       `mapstructure:"container_height"`
	Overscan            int           `mapstructure:"overscan"`
	ItemGap             float64       `mapstructure:"item_gap"`
	ScrollIdleDelay     time.Duration `mapstructure:"scroll_idle_delay"`
	MeasureDebounce     time.Duration `mapstructure:"measure_debounce"`
	BatchChunkSize      int           `mapstructure:"batch_chunk_size"`
}

// Virtualizer converts the engine section into an engine Config.
func (e EngineConfig) Virtualizer() virtualizer.Config {
	return virtualizer.Config{
		EstimatedItemHeight: e.EstimatedItemHeight,
		ContainerHeight:     e.ContainerHeight,
		Overscan:            e.Overscan,
		ItemGap:             e.ItemGap,
		ScrollIdleDelay:     e.ScrollIdleDelay,
		MeasureDebounce:     e.MeasureDebounce,
	}
}

// DemoConfig configures the terminal demo and the bench command.
type DemoConfig struct {
	ItemCount      int           `mapstructure:"item_count"`
	Seed           int64         `mapstructure:"seed"` // 0 seeds from the clock
	AutoReload     bool          `mapstructure:"auto_reload"`
	ReloadDebounce time.Duration `mapstructure:"reload_debounce"`
	// RowHeight is how many engine units one terminal row stands for.
	RowHeight float64 `mapstructure:"row_height"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	// ListenAddr is the host:port to serve /metrics on. Empty disables it.
	ListenAddr string `mapstructure:"listen_addr"`
}

// DefaultTracesFilePath returns ~/.config/vscroll/traces/traces.jsonl, or an
// empty string if the home directory is unavailable.
func DefaultTracesFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "vscroll", "traces", "traces.jsonl")
}

// DefaultEngine returns the stock engine settings.
func DefaultEngine() EngineConfig {
	return EngineConfig{
		EstimatedItemHeight: 300,
		ContainerHeight:     600,
		Overscan:            2,
		ItemGap:             16,
		ScrollIdleDelay:     150 * time.Millisecond,
		MeasureDebounce:     16 * time.Millisecond,
		BatchChunkSize:      1000,
	}
}

// Defaults returns a Config with sensible default values.
func Defaults() Config {
	tc := tracing.DefaultConfig()
	tc.FilePath = DefaultTracesFilePath()

	return Config{
		Engine: DefaultEngine(),
		Demo: DemoConfig{
			ItemCount:      1000,
			AutoReload:     true,
			ReloadDebounce: 250 * time.Millisecond,
			RowHeight:      20,
		},
		Tracing: tc,
		Flags:   flags.Defaults(),
	}
}

// ValidateEngine checks engine settings. The engine tolerates degenerate
// values by rendering nothing, so this is where they get reported.
func ValidateEngine(e EngineConfig) error {
	var errs []error
	if e.EstimatedItemHeight <= 0 {
		errs = append(errs, fmt.Errorf("engine.estimated_item_height must be positive, got %v", e.EstimatedItemHeight))
	}
	if e.ContainerHeight <= 0 {
		errs = append(errs, fmt.Errorf("engine.container_height must be positive, got %v", e.ContainerHeight))
	}
	if e.Overscan < 0 {
		errs = append(errs, fmt.Errorf("engine.overscan must not be negative, got %d", e.Overscan))
	}
	if e.ItemGap < 0 {
		errs = append(errs, fmt.Errorf("engine.item_gap must not be negative, got %v", e.ItemGap))
	}
	if e.ScrollIdleDelay <= 0 {
		errs = append(errs, fmt.Errorf("engine.scroll_idle_delay must be positive, got %s", e.ScrollIdleDelay))
	}
	if e.MeasureDebounce <= 0 {
		errs = append(errs, fmt.Errorf("engine.measure_debounce must be positive, got %s", e.MeasureDebounce))
	}
	if e.BatchChunkSize <= 0 {
		errs = append(errs, fmt.Errorf("engine.batch_chunk_size must be positive, got %d", e.BatchChunkSize))
	}
	return errors.Join(errs...)
}

// ValidateDemo checks demo settings.
func ValidateDemo(d DemoConfig) error {
	if d.ItemCount < 0 {
		return fmt.Errorf("demo.item_count must not be negative, got %d", d.ItemCount)
	}
	if d.ReloadDebounce < 0 {
		return fmt.Errorf("demo.reload_debounce must not be negative, got %s", d.ReloadDebounce)
	}
	if d.RowHeight < 0 {
		return fmt.Errorf("demo.row_height must not be negative, got %v", d.RowHeight)
	}
	return nil
}

// ValidateTracing checks tracing configuration for errors.
// Returns nil if the configuration is valid (empty values use defaults).
func ValidateTracing(tc tracing.Config) error {
	if tc.SampleRate < 0.0 || tc.SampleRate > 1.0 {
		return fmt.Errorf("tracing.sample_rate must be between 0.0 and 1.0, got %v", tc.SampleRate)
	}

	switch tc.Exporter {
	case "", tracing.ExporterNone, tracing.ExporterFile, tracing.ExporterStdout, tracing.ExporterOTLP:
	default:
		return fmt.Errorf("tracing.exporter must be \"none\", \"file\", \"stdout\", or \"otlp\", got %q", tc.Exporter)
	}

	if tc.Enabled {
		if tc.Exporter == tracing.ExporterFile && tc.FilePath == "" {
			return fmt.Errorf("tracing.file_path is required when exporter is \"file\"")
		}
		if tc.Exporter == tracing.ExporterOTLP && tc.OTLPEndpoint == "" {
			return fmt.Errorf("tracing.otlp_endpoint is required when exporter is \"otlp\"")
		}
	}
	return nil
}

// ValidateMetrics checks that the listen address, if set, is host:port.
func ValidateMetrics(m MetricsConfig) error {
	if m.ListenAddr == "" {
		return nil
	}
	if _, _, err := net.SplitHostPort(m.ListenAddr); err != nil {
		return fmt.Errorf("metrics.listen_addr %q: %w", m.ListenAddr, err)
	}
	return nil
}

// Validate runs every section validator.
func Validate(c Config) error {
	return errors.Join(
		ValidateEngine(c.Engine),
		ValidateDemo(c.Demo),
		ValidateTracing(c.Tracing),
		ValidateMetrics(c.Metrics),
	)
}

// DefaultConfigTemplate returns the default config as a YAML string with comments.
func DefaultConfigTemplate() string {
	return `# vscroll configuration

# Virtual list engine
engine:
  estimated_item_height: 300   # Height used for items that have not been measured
  container_height: 600        # Viewport height
  overscan: 2                  # Extra items rendered above and below the viewport
  item_gap: 16                 # Space between consecutive items
  scroll_idle_delay: 150ms     # Quiet time after the last scroll before the list is idle
  measure_debounce: 16ms       # Per-item delay before a reported measurement is committed
  batch_chunk_size: 1000       # Items generated between scheduler yields

# Terminal demo and bench
demo:
  item_count: 1000             # Items generated on startup
  seed: 0                      # Random seed for generated content, 0 uses the clock
  auto_reload: true            # Reapply the engine section when this file changes
  reload_debounce: 250ms
  row_height: 20               # Engine units per terminal row

# Tracing
# tracing:
#   enabled: false             # Enable/disable tracing (default: false)
#   exporter: file             # Export backend: none, file, stdout, otlp (default: file)
#   file_path: ~/.config/vscroll/traces/traces.jsonl
#   otlp_endpoint: localhost:4317
#   sample_rate: 1.0           # Trace sampling rate 0.0-1.0 (default: 1.0)

# Prometheus endpoint, disabled when empty
metrics:
  listen_addr: ""
  # listen_addr: 127.0.0.1:9464

# Feature flags
flags:
  initial-window: true         # Lay out only the first screenful until something is measured
  scroll-anchor: false         # Keep visible content still when items above it resize
`
}

// WriteDefaultConfig creates a config file at the given path with default settings and comments.
// Creates the parent directory if it doesn't exist.
func WriteDefaultConfig(configPath string) error {
	log.Debug(log.CatConfig, "Writing default config", "path", configPath)

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to create config directory", err, "dir", dir)
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(DefaultConfigTemplate()), 0o600); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to write config file", err, "path", configPath)
		return fmt.Errorf("writing config file: %w", err)
	}

	log.Info(log.CatConfig, "Created default config", "path", configPath)
	return nil
}
