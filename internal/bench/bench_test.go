package bench

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/zjrosen/vscroll/internal/datastore"
	"github.com/zjrosen/vscroll/internal/demo"
	"github.com/zjrosen/vscroll/internal/tracing"
	"github.com/zjrosen/vscroll/internal/virtualizer"
)

func newEngine(t *testing.T, cfg virtualizer.Config) *virtualizer.Engine[demo.Item] {
	t.Helper()
	store := datastore.New[demo.Item](demo.ItemKey, datastore.WithChunkSize[demo.Item](64))
	engine := virtualizer.New(store, cfg, virtualizer.WithClock[demo.Item](virtualizer.NewManualClock()))
	t.Cleanup(engine.Close)
	return engine
}

func TestRun_MeasuresEveryItem(t *testing.T) {
	engine := newEngine(t, virtualizer.DefaultConfig())

	report, err := Run(context.Background(), engine, Options{Items: 200, Seed: 3, Width: 80})
	require.NoError(t, err)

	require.Equal(t, 200, report.Items)
	require.Greater(t, report.Frames, 1)
	require.Positive(t, report.MaxRendered)
	require.Positive(t, report.AvgRendered)
	require.Equal(t, report.Frames, report.Dynamic.TotalRenders)

	idx := engine.Index()
	require.False(t, idx.Bounded())
	require.Equal(t, 200, idx.Len())
	for _, ext := range idx.Extents() {
		require.True(t, ext.Measured, "item %d was never measured", ext.Index)
	}
	require.Equal(t, idx.TotalHeight(), report.TotalHeight)
	require.Equal(t, engine.Stats(), report.Engine)
}

func TestRun_FixedSweep(t *testing.T) {
	cfg := virtualizer.DefaultConfig()
	engine := newEngine(t, cfg)

	report, err := Run(context.Background(), engine, Options{Items: 100, Seed: 1, Width: 60})
	require.NoError(t, err)

	// 100 items of 316 minus one 600 viewport, in steps of 300
	require.Equal(t, 105, report.FixedFrames)
	require.Greater(t, report.FixedAvgRendered, 0.0)
	require.Equal(t, report.FixedFrames, report.Fixed.TotalRenders)
}

func TestRun_EmptyBatch(t *testing.T) {
	engine := newEngine(t, virtualizer.DefaultConfig())

	report, err := Run(context.Background(), engine, Options{Items: 0, Width: 80})
	require.NoError(t, err)
	require.Equal(t, 1, report.Frames)
	require.Zero(t, report.MaxRendered)
	require.Zero(t, report.TotalHeight)
}

func TestRun_NoContainer(t *testing.T) {
	cfg := virtualizer.DefaultConfig()
	cfg.ContainerHeight = 0
	engine := newEngine(t, cfg)

	_, err := Run(context.Background(), engine, Options{Items: 10, Width: 80})
	require.ErrorIs(t, err, ErrNoContainer)
}

func TestRun_Canceled(t *testing.T) {
	engine := newEngine(t, virtualizer.DefaultConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, engine, Options{Items: 500, Width: 80})
	require.ErrorIs(t, err, context.Canceled)
	require.Zero(t, engine.Store().Len(), "a canceled batch commits nothing")
}

func TestRun_Traced(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	engine := newEngine(t, virtualizer.DefaultConfig())
	_, err := Run(context.Background(), engine, Options{Items: 20, Width: 80, Tracer: tp.Tracer("test")})
	require.NoError(t, err)

	var names []string
	for _, s := range recorder.Ended() {
		names = append(names, s.Name())
	}
	require.Contains(t, names, tracing.SpanBench)
}
