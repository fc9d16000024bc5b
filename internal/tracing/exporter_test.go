package tracing

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

func readRecords(t *testing.T, path string) []SpanRecord {
	t.Helper()

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var out []SpanRecord
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var rec SpanRecord
		require.NoError(t, json.Unmarshal(sc.Bytes(), &rec))
		out = append(out, rec)
	}
	require.NoError(t, sc.Err())
	return out
}

func TestFileExporter_WritesOneLinePerSpan(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "traces.jsonl")
	exp, err := NewFileExporter(path)
	require.NoError(t, err)

	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exp))
	tracer := tp.Tracer("test")

	ctx, parent := tracer.Start(context.Background(), SpanBatchGenerate)
	parent.SetAttributes(attribute.Int(AttrBatchCount, 5000))
	_, child := tracer.Start(ctx, SpanIndexRebuild)
	child.SetStatus(codes.Error, "boom")
	child.End()
	parent.End()

	require.NoError(t, tp.Shutdown(context.Background()))

	recs := readRecords(t, path)
	require.Len(t, recs, 2)

	byName := map[string]SpanRecord{}
	for _, r := range recs {
		byName[r.Name] = r
	}
	rebuild := byName[SpanIndexRebuild]
	batch := byName[SpanBatchGenerate]

	require.Equal(t, "ERROR", rebuild.Status)
	require.Equal(t, "boom", rebuild.Message)
	require.Equal(t, batch.SpanID, rebuild.ParentID)
	require.Equal(t, batch.TraceID, rebuild.TraceID)
	require.Empty(t, batch.ParentID)
	require.EqualValues(t, 5000, batch.Attributes[AttrBatchCount])
}

func TestFileExporter_Appends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "traces.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(`{"name":"earlier"}`+"\n"), 0600))

	exp, err := NewFileExporter(path)
	require.NoError(t, err)
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exp))
	_, span := tp.Tracer("test").Start(context.Background(), SpanBench)
	span.End()
	require.NoError(t, tp.Shutdown(context.Background()))

	recs := readRecords(t, path)
	require.Len(t, recs, 2)
	require.Equal(t, "earlier", recs[0].Name)
	require.Equal(t, SpanBench, recs[1].Name)
}

func TestFileExporter_ShutdownIsIdempotent(t *testing.T) {
	exp, err := NewFileExporter(filepath.Join(t.TempDir(), "t.jsonl"))
	require.NoError(t, err)

	require.NoError(t, exp.Shutdown(context.Background()))
	require.NoError(t, exp.Shutdown(context.Background()))
	require.Error(t, exp.ExportSpans(context.Background(), nil))
}

func TestRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "traces.jsonl")
	exp, err := NewFileExporter(path)
	require.NoError(t, err)
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exp))
	tracer := tp.Tracer("test")

	boom := errors.New("boom")
	err = Run(context.Background(), tracer, SpanBatchGenerate, func(ctx context.Context, _ trace.Span) error {
		return boom
	}, attribute.Int(AttrBatchCount, 3))
	require.ErrorIs(t, err, boom)

	require.NoError(t, Run(context.Background(), tracer, SpanIndexRebuild, func(context.Context, trace.Span) error {
		return nil
	}))
	require.NoError(t, tp.Shutdown(context.Background()))

	recs := readRecords(t, path)
	require.Len(t, recs, 2)
	require.Equal(t, "ERROR", recs[0].Status)
	require.EqualValues(t, 3, recs[0].Attributes[AttrBatchCount])
	require.Equal(t, "OK", recs[1].Status)
}

func TestRun_NilTracer(t *testing.T) {
	called := false
	err := Run(context.Background(), nil, SpanBench, func(context.Context, trace.Span) error {
		called = true
		return nil
	})
	require.NoError(t, err)
	require.True(t, called)
}
