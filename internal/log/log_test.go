package log

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/vscroll/internal/pubsub"
)

func TestFormat_Fields(t *testing.T) {
	ts := time.Date(2025, 12, 6, 10, 45, 0, 0, time.UTC)

	tests := []struct {
		name   string
		fields []any
		want   string
	}{
		{name: "no fields", want: "2025-12-06T10:45:00 [INFO] [index] rebuilt\n"},
		{name: "pairs", fields: []any{"extents", 7, "bounded", true}, want: "2025-12-06T10:45:00 [INFO] [index] rebuilt extents=7 bounded=true\n"},
		{name: "orphan key", fields: []any{"extents"}, want: "2025-12-06T10:45:00 [INFO] [index] rebuilt extents=<missing>\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, format(ts, LevelInfo, CatIndex, "rebuilt", tt.fields...))
		})
	}
}

func TestLevel_String(t *testing.T) {
	require.Equal(t, "DEBUG", LevelDebug.String())
	require.Equal(t, "ERROR", LevelError.String())
	require.Equal(t, "UNKNOWN", Level(42).String())
}

func TestLog_WriterAndMinLevel(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf)
	t.Cleanup(Reset)

	SetMinLevel(LevelWarn)
	Debug(CatStore, "hidden")
	Warn(CatStore, "shown", "count", 3)
	ErrorErr(CatStore, "failed", errors.New("boom"))

	out := buf.String()
	require.NotContains(t, out, "hidden")
	require.Contains(t, out, "[WARN] [store] shown count=3")
	require.Contains(t, out, "[ERROR] [store] failed error=boom")
}

func TestLog_Disabled(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf)
	t.Cleanup(Reset)

	SetEnabled(false)
	Info(CatUI, "nothing")
	require.Empty(t, buf.String())
}

func TestLog_NoLoggerIsSafe(t *testing.T) {
	Reset()
	require.NotPanics(t, func() { Info(CatConfig, "dropped") })
	require.Nil(t, NewListener(context.Background()))
}

func TestNewListener_ReceivesLines(t *testing.T) {
	var buf bytes.Buffer
	InitWriter(&buf)
	t.Cleanup(Reset)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	listener := NewListener(ctx)
	require.NotNil(t, listener)

	Info(CatScroll, "idle")

	event, ok := listener.Listen()().(pubsub.Event[string])
	require.True(t, ok)
	require.Equal(t, pubsub.LogEvent, event.Type)
	require.Contains(t, event.Payload, "[scroll] idle")
}
