package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/zjrosen/vscroll/internal/config"
	"github.com/zjrosen/vscroll/internal/demo"
	"github.com/zjrosen/vscroll/internal/log"
	"github.com/zjrosen/vscroll/internal/watcher"
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Scroll a generated list of dynamic-height cards",
	Long: `Launch the terminal demo: a generated list of cards with varying content,
virtualized by the engine. Every rendered card reports its height back, so the
layout converges from estimated to measured heights as you scroll.

Edits to the engine section of the config file are applied live unless
--no-auto-reload is given.`,
	RunE: runDemo,
}

func init() {
	for _, c := range []*cobra.Command{rootCmd, demoCmd} {
		c.Flags().Int("items", 0, "number of items to generate (overrides demo.item_count)")
		c.Flags().Int64("seed", 0, "random seed for generated content (overrides demo.seed)")
		c.Flags().Bool("no-auto-reload", false, "do not apply config file changes while running")
	}
	rootCmd.AddCommand(demoCmd)
}

func runDemo(cmd *cobra.Command, _ []string) error {
	cleanup, err := setupLogging("vscroll-demo")
	if err != nil {
		return err
	}
	defer cleanup()

	if items, _ := cmd.Flags().GetInt("items"); cmd.Flags().Changed("items") {
		cfg.Demo.ItemCount = items
	}
	if seed, _ := cmd.Flags().GetInt64("seed"); cmd.Flags().Changed("seed") {
		cfg.Demo.Seed = seed
	}
	// Handle --no-auto-reload flag (negated logic)
	if noReload, _ := cmd.Flags().GetBool("no-auto-reload"); noReload {
		cfg.Demo.AutoReload = false
	}

	rt, err := newRuntime(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	if _, err := rt.serveMetrics(ctx, cfg.Metrics.ListenAddr); err != nil {
		return err
	}

	path := ensureConfigFile()
	opts := demo.Options{
		Engine:     cfg.Engine,
		Demo:       cfg.Demo,
		ConfigPath: path,
		Renders:    rt.collector,
	}

	if cfg.Demo.AutoReload {
		if _, statErr := os.Stat(path); statErr == nil {
			w, err := watcher.New(watcher.Config{Path: path, DebounceDur: cfg.Demo.ReloadDebounce})
			if err != nil {
				return err
			}
			defer func() { _ = w.Stop() }()

			reload, err := w.Start()
			if err != nil {
				log.ErrorErr(log.CatWatcher, "config watcher unavailable", err, "path", path)
			} else {
				opts.Reload = reload
				opts.LoadEngine = func() (config.EngineConfig, error) { return loadEngine(path) }
			}
		}
	}

	model := demo.New(ctx, rt.engine, opts)
	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	)

	_, err = p.Run()
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if closeErr := rt.Close(shutdownCtx); closeErr != nil && err == nil {
		err = closeErr
	}

	if err != nil {
		return fmt.Errorf("running demo: %w", err)
	}
	return nil
}
