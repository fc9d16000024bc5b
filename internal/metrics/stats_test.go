package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRenderStats_Record(t *testing.T) {
	var s RenderStats
	s = s.Record(2 * time.Millisecond)
	s = s.Record(4 * time.Millisecond)
	s = s.Record(6 * time.Millisecond)

	require.Equal(t, 3, s.TotalRenders)
	require.Equal(t, 4*time.Millisecond, s.AverageRenderTime)
	require.Equal(t, 6*time.Millisecond, s.LastRenderTime)
}

func TestRenderStats_RecordDoesNotMutate(t *testing.T) {
	s := RenderStats{}.Record(time.Millisecond)
	_ = s.Record(time.Second)
	require.Equal(t, 1, s.TotalRenders)
}

func TestRenderStats_FormatDisplay(t *testing.T) {
	tests := []struct {
		name  string
		stats RenderStats
		want  string
	}{
		{
			name:  "empty",
			stats: RenderStats{},
			want:  "no renders",
		},
		{
			name: "populated",
			stats: RenderStats{
				TotalRenders:      42,
				AverageRenderTime: 1200 * time.Microsecond,
				LastRenderTime:    950 * time.Microsecond,
			},
			want: "42 renders, avg 1.20ms, last 0.95ms",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, tt.stats.FormatDisplay())
		})
	}
}
