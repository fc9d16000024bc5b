package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/zjrosen/vscroll/internal/bench"
	"github.com/zjrosen/vscroll/internal/presentation"
)

var (
	benchItems int
	benchWidth int
	benchStep  float64
	benchJSON  bool
	benchServe bool
)

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Run the engine headlessly and report timings",
	Long: `Generate a batch of items, sweep the scroll offset from top to bottom while
feeding simulated card measurements back to the engine, then run the same sweep
through the fixed-height resolver.

Examples:
  # Default run with demo.item_count items
  vscroll bench

  # 100k items as JSON
  vscroll bench --items 100000 --json

  # Keep serving /metrics after the run (needs metrics.listen_addr)
  vscroll bench --serve`,
	RunE: runBench,
}

func init() {
	benchCmd.Flags().IntVarP(&benchItems, "items", "n", 0, "number of items (default: demo.item_count)")
	benchCmd.Flags().IntVar(&benchWidth, "width", 80, "card width in columns used for measurements")
	benchCmd.Flags().Float64Var(&benchStep, "step", 0, "scroll distance between frames (default: half the container)")
	benchCmd.Flags().BoolVar(&benchJSON, "json", false, "print the report as JSON")
	benchCmd.Flags().BoolVar(&benchServe, "serve", false, "keep serving metrics until interrupted")
	rootCmd.AddCommand(benchCmd)
}

func runBench(cmd *cobra.Command, _ []string) error {
	cleanup, err := setupLogging("vscroll-bench")
	if err != nil {
		return err
	}
	defer cleanup()

	items := cfg.Demo.ItemCount
	if cmd.Flags().Changed("items") {
		items = benchItems
	}

	rt, err := newRuntime(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr, err := rt.serveMetrics(ctx, cfg.Metrics.ListenAddr)
	if err != nil {
		return err
	}

	report, runErr := bench.Run(ctx, rt.engine, bench.Options{
		Items:     items,
		Seed:      cfg.Demo.Seed,
		Width:     benchWidth,
		RowHeight: cfg.Demo.RowHeight,
		Step:      benchStep,
		Tracer:    rt.provider.Tracer(),
	})
	if runErr == nil {
		formatter := presentation.NewFormatter(cmd.OutOrStdout())
		dto := presentation.FromBenchReport(report)
		if benchJSON {
			runErr = formatter.FormatReportJSON(dto)
		} else {
			runErr = formatter.FormatReport(dto)
		}
	}

	if runErr == nil && benchServe && addr != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "serving metrics on http://%s/metrics, press Ctrl+C to stop\n", addr)
		<-ctx.Done()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if closeErr := rt.Close(shutdownCtx); closeErr != nil && runErr == nil {
		runErr = closeErr
	}

	if runErr != nil {
		return fmt.Errorf("running bench: %w", runErr)
	}
	return nil
}
