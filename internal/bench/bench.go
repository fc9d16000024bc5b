// Package bench drives the engine headlessly: it generates a batch, sweeps
// the scroll offset from top to bottom feeding simulated card measurements
// back, and times the fixed-height resolver over the same sweep.
package bench

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/zjrosen/vscroll/internal/demo"
	"github.com/zjrosen/vscroll/internal/log"
	"github.com/zjrosen/vscroll/internal/metrics"
	"github.com/zjrosen/vscroll/internal/tracing"
	"github.com/zjrosen/vscroll/internal/virtualizer"
)

// ErrNoContainer is returned when the engine has no viewport to sweep.
var ErrNoContainer = errors.New("container height must be positive")

// Options configures a run.
type Options struct {
	Items int
	Seed  int64
	// Width is the card width in columns used to simulate measurements.
	Width int
	// RowHeight converts rendered rows into engine units.
	RowHeight float64
	// Step is the scroll distance between frames. Zero uses half the container.
	Step   float64
	Tracer trace.Tracer
}

// Report summarizes a run.
type Report struct {
	Items            int
	Batch            time.Duration
	Frames           int
	AvgRendered      float64
	MaxRendered      int
	TotalHeight      float64
	Engine           virtualizer.Stats
	Dynamic          metrics.RenderStats
	FixedFrames      int
	FixedAvgRendered float64
	Fixed            metrics.RenderStats
	Elapsed          time.Duration
}

// Run executes the benchmark against engine, replacing its collection.
func Run(ctx context.Context, engine *virtualizer.Engine[demo.Item], opts Options) (Report, error) {
	tracer := opts.Tracer
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer(tracing.DefaultServiceName)
	}
	if opts.RowHeight <= 0 {
		opts.RowHeight = demo.DefaultRowHeight
	}

	var report Report
	start := time.Now()
	err := tracing.Run(ctx, tracer, tracing.SpanBench, func(ctx context.Context, span trace.Span) error {
		if err := generate(ctx, engine, opts, &report); err != nil {
			return err
		}
		if err := sweep(ctx, engine, opts, &report); err != nil {
			return err
		}
		sweepFixed(engine, opts, &report)
		span.SetAttributes(attribute.Int(tracing.AttrExtents, engine.Index().Len()))
		return nil
	}, attribute.Int(tracing.AttrItems, opts.Items))

	report.Elapsed = time.Since(start)
	report.Engine = engine.Stats()
	report.TotalHeight = engine.TotalHeight()
	if err != nil {
		return report, err
	}
	log.Info(log.CatIndex, "bench finished",
		"items", report.Items,
		"frames", report.Frames,
		"elapsed", report.Elapsed)
	return report, nil
}

func generate(ctx context.Context, engine *virtualizer.Engine[demo.Item], opts Options, report *Report) error {
	gen := demo.NewGenerator(opts.Seed)
	start := time.Now()
	if err := engine.GenerateBatch(ctx, opts.Items, gen.Item); err != nil {
		return fmt.Errorf("generating %d items: %w", opts.Items, err)
	}
	report.Batch = time.Since(start)
	report.Items = engine.Store().Len()
	return nil
}

// sweep scrolls from the top to the bottom, measuring every card it draws.
func sweep(ctx context.Context, engine *virtualizer.Engine[demo.Item], opts Options, report *Report) error {
	cfg := engine.Config()
	if cfg.ContainerHeight <= 0 {
		return ErrNoContainer
	}
	step := opts.Step
	if step <= 0 {
		step = cfg.ContainerHeight / 2
	}

	store := engine.Store()
	rendered := 0
	for top := 0.0; ; top += step {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("sweeping at offset %.0f: %w", top, err)
		}
		engine.HandleScroll(top)

		frameStart := time.Now()
		frame := engine.Frame()
		for _, ext := range frame.VirtualItems {
			item, ok := store.At(ext.Index)
			if !ok {
				continue
			}
			rows := demo.Rows(demo.RenderCard(item, opts.Width, false))
			engine.SetItemHeight(ext.Index, item, float64(rows)*opts.RowHeight)
		}
		report.Dynamic = report.Dynamic.Record(time.Since(frameStart))

		report.Frames++
		rendered += len(frame.VirtualItems)
		report.MaxRendered = max(report.MaxRendered, len(frame.VirtualItems))

		if top >= engine.MaxScrollTop() {
			break
		}
	}
	report.AvgRendered = float64(rendered) / float64(report.Frames)
	return nil
}

// sweepFixed resolves the same kind of sweep with every item at the
// estimated height.
func sweepFixed(engine *virtualizer.Engine[demo.Item], opts Options, report *Report) {
	cfg := engine.Config()
	count := engine.Store().Len()
	itemHeight := cfg.EstimatedItemHeight + cfg.ItemGap
	step := opts.Step
	if step <= 0 {
		step = cfg.ContainerHeight / 2
	}
	maxTop := max(0, float64(count)*itemHeight-cfg.ContainerHeight)

	rendered := 0
	for top := 0.0; ; top += step {
		start := time.Now()
		r := virtualizer.ResolveFixed(count, itemHeight, top, cfg.ContainerHeight, cfg.Overscan)
		report.Fixed = report.Fixed.Record(time.Since(start))
		report.FixedFrames++
		rendered += r.Len()
		if top >= maxTop {
			break
		}
	}
	report.FixedAvgRendered = float64(rendered) / float64(report.FixedFrames)
}
