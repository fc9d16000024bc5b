package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zjrosen/vscroll/internal/config"
	"github.com/zjrosen/vscroll/internal/log"
)

func init() {
	// Force lipgloss/termenv to query terminal background color BEFORE
	// any Bubble Tea program starts. This prevents the terminal's OSC 11
	// response from racing with Bubble Tea's input loop and appearing as
	// garbage text.
	//
	// See: https://github.com/charmbracelet/bubbletea/issues/1036
	_ = lipgloss.HasDarkBackground()
}

// localConfigPath is where a config is created when none exists.
const localConfigPath = ".vscroll/config.yaml"

var (
	version   = "dev"
	cfgFile   string
	debugFlag bool
	cfg       config.Config
)

var rootCmd = &cobra.Command{
	Use:     "vscroll",
	Short:   "A virtual scrolling engine for lists of dynamic-height items",
	Long:    `vscroll keeps a position index of variable-height items consistent with measured heights and renders only the visible window. Running it without a subcommand starts the terminal demo.`,
	Version: version,
	RunE:    runDemo,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: .vscroll/config.yaml or ~/.config/vscroll/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&debugFlag, "debug", "d", false,
		"write debug logs (also enabled by "+log.EnvDebug+")")
}

func initConfig() {
	setDefaults(viper.GetViper(), config.Defaults())

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		// Config lookup order:
		// 1. .vscroll/config.yaml (current directory)
		// 2. ~/.config/vscroll/config.yaml (user config)
		if _, err := os.Stat(localConfigPath); err == nil {
			viper.SetConfigFile(localConfigPath)
		} else {
			home, _ := os.UserHomeDir()
			viper.AddConfigPath(filepath.Join(home, ".config", "vscroll"))
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
	}

	if err := viper.ReadInConfig(); err != nil {
		// A missing file means defaults; the demo creates one on start.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "vscroll: reading config: %v\n", err)
		}
	}

	_ = viper.Unmarshal(&cfg)
}

// setDefaults registers every config key so env and file values unmarshal
// over complete defaults.
func setDefaults(v *viper.Viper, d config.Config) {
	v.SetDefault("engine.estimated_item_height", d.Engine.EstimatedItemHeight)
	v.SetDefault("engine.container_height", d.Engine.ContainerHeight)
	v.SetDefault("engine.overscan", d.Engine.Overscan)
	v.SetDefault("engine.item_gap", d.Engine.ItemGap)
	v.SetDefault("engine.scroll_idle_delay", d.Engine.ScrollIdleDelay)
	v.SetDefault("engine.measure_debounce", d.Engine.MeasureDebounce)
	v.SetDefault("engine.batch_chunk_size", d.Engine.BatchChunkSize)

	v.SetDefault("demo.item_count", d.Demo.ItemCount)
	v.SetDefault("demo.seed", d.Demo.Seed)
	v.SetDefault("demo.auto_reload", d.Demo.AutoReload)
	v.SetDefault("demo.reload_debounce", d.Demo.ReloadDebounce)
	v.SetDefault("demo.row_height", d.Demo.RowHeight)

	v.SetDefault("tracing.enabled", d.Tracing.Enabled)
	v.SetDefault("tracing.exporter", d.Tracing.Exporter)
	v.SetDefault("tracing.file_path", d.Tracing.FilePath)
	v.SetDefault("tracing.otlp_endpoint", d.Tracing.OTLPEndpoint)
	v.SetDefault("tracing.sample_rate", d.Tracing.SampleRate)
	v.SetDefault("tracing.service_name", d.Tracing.ServiceName)

	v.SetDefault("metrics.listen_addr", d.Metrics.ListenAddr)

	for name, on := range d.Flags {
		v.SetDefault("flags."+name, on)
	}
}

// loadEngine rereads the engine section of path with a fresh viper so a
// reload never disturbs the global configuration.
func loadEngine(path string) (config.EngineConfig, error) {
	v := viper.New()
	setDefaults(v, config.Defaults())
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return config.EngineConfig{}, fmt.Errorf("reading %s: %w", path, err)
	}
	var ec config.EngineConfig
	if err := v.UnmarshalKey("engine", &ec); err != nil {
		return config.EngineConfig{}, fmt.Errorf("decoding engine section: %w", err)
	}
	return ec, nil
}

// configFilePath returns the config file in use, or the local default.
func configFilePath() string {
	if p := viper.ConfigFileUsed(); p != "" {
		return p
	}
	return localConfigPath
}

// ensureConfigFile creates the default config when none exists yet, so
// the demo has a file to save to and watch.
func ensureConfigFile() string {
	path := configFilePath()
	if _, err := os.Stat(path); err == nil {
		return path
	}
	if err := config.WriteDefaultConfig(path); err != nil {
		log.ErrorErr(log.CatConfig, "could not create default config", err, "path", path)
	}
	return path
}

// setupLogging initializes the debug log when requested.
// The returned cleanup is always safe to call.
func setupLogging(prefix string) (func(), error) {
	if !debugFlag && !log.DebugRequested() {
		return func() {}, nil
	}
	logPath := os.Getenv("VSCROLL_LOG")
	if logPath == "" {
		logPath = "debug.log"
	}
	cleanup, err := log.InitWithTeaLog(logPath, prefix)
	if err != nil {
		return nil, fmt.Errorf("initializing logging: %w", err)
	}
	log.Info(log.CatConfig, "vscroll starting", "debug", true, "logPath", logPath, "config", viper.ConfigFileUsed())
	return cleanup, nil
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string (called from main with ldflags)
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}
