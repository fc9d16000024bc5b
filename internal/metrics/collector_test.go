package metrics

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestCollector_ObserveRebuild(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.ObserveRebuild(time.Millisecond, 7, true)
	c.ObserveRebuild(2*time.Millisecond, 1000, false)

	require.Equal(t, 1000.0, testutil.ToFloat64(c.extents))
	require.Equal(t, 1.0, testutil.ToFloat64(c.bounded))
	require.Equal(t, 1, testutil.CollectAndCount(c.rebuildDuration))
}

func TestCollector_ObserveBatch(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.ObserveBatch("ok", time.Second, 5000)
	c.ObserveBatch("failed", time.Second, 5000)
	c.ObserveBatch("ok", time.Second, 1000)

	require.Equal(t, 6000.0, testutil.ToFloat64(c.batchItems.WithLabelValues("ok")))
	require.Equal(t, 5000.0, testutil.ToFloat64(c.batchItems.WithLabelValues("failed")))
	require.Equal(t, 2, testutil.CollectAndCount(c.batchDuration))
}

func TestCollector_DuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewCollector(reg)
	require.Panics(t, func() { NewCollector(reg) })
}

func TestServer_ServesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.ObserveRender(3 * time.Millisecond)

	srv, err := Listen("127.0.0.1:0", reg)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx) }()

	resp, err := http.Get("http://" + srv.Addr() + "/metrics")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	require.Contains(t, string(body), "vscroll_render_duration_seconds")

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestListen_BadAddress(t *testing.T) {
	_, err := Listen("not-an-address", prometheus.NewRegistry())
	require.Error(t, err)
}
