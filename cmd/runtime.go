package cmd

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/zjrosen/vscroll/internal/config"
	"github.com/zjrosen/vscroll/internal/datastore"
	"github.com/zjrosen/vscroll/internal/demo"
	"github.com/zjrosen/vscroll/internal/flags"
	"github.com/zjrosen/vscroll/internal/log"
	"github.com/zjrosen/vscroll/internal/metrics"
	"github.com/zjrosen/vscroll/internal/tracing"
	"github.com/zjrosen/vscroll/internal/virtualizer"
)

// runtime bundles the engine with its tracing and metrics plumbing.
type runtime struct {
	engine    *virtualizer.Engine[demo.Item]
	provider  *tracing.Provider
	registry  *prometheus.Registry
	collector *metrics.Collector
}

func newRuntime(c config.Config) (*runtime, error) {
	if err := config.Validate(c); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	provider, err := tracing.NewProvider(c.Tracing)
	if err != nil {
		return nil, fmt.Errorf("creating tracer: %w", err)
	}

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	store := datastore.New[demo.Item](demo.ItemKey, datastore.WithChunkSize[demo.Item](c.Engine.BatchChunkSize))
	engine := virtualizer.New(store, c.Engine.Virtualizer(),
		virtualizer.WithFlags[demo.Item](flags.WithDefaults(c.Flags)),
		virtualizer.WithTracer[demo.Item](provider.Tracer()),
		virtualizer.WithRecorder[demo.Item](collector),
	)

	return &runtime{
		engine:    engine,
		provider:  provider,
		registry:  registry,
		collector: collector,
	}, nil
}

// serveMetrics starts the Prometheus endpoint when addr is set. The server
// stops when ctx is done.
func (r *runtime) serveMetrics(ctx context.Context, addr string) (string, error) {
	if addr == "" {
		return "", nil
	}
	srv, err := metrics.Listen(addr, r.registry)
	if err != nil {
		return "", err
	}
	go func() {
		if err := srv.Serve(ctx); err != nil {
			log.ErrorErr(log.CatTrace, "metrics server stopped", err)
		}
	}()
	return srv.Addr(), nil
}

// Close stops the engine and flushes pending spans.
func (r *runtime) Close(ctx context.Context) error {
	r.engine.Close()
	r.engine.Store().Close()
	if err := r.provider.Shutdown(ctx); err != nil {
		return fmt.Errorf("flushing traces: %w", err)
	}
	return nil
}
