// Package metrics tracks render statistics and exposes engine metrics to
// Prometheus.
package metrics

import (
	"fmt"
	"time"
)

// RenderStats is a running summary of host render times.
type RenderStats struct {
	TotalRenders      int           `json:"total_renders"`
	AverageRenderTime time.Duration `json:"average_render_time"`
	LastRenderTime    time.Duration `json:"last_render_time"`
}

// Record returns the stats with one more render of duration d folded into
// the running average.
func (s RenderStats) Record(d time.Duration) RenderStats {
	n := s.TotalRenders + 1
	avg := (float64(s.AverageRenderTime)*float64(s.TotalRenders) + float64(d)) / float64(n)
	return RenderStats{
		TotalRenders:      n,
		AverageRenderTime: time.Duration(avg),
		LastRenderTime:    d,
	}
}

// FormatDisplay returns a compact summary (e.g., "42 renders, avg 1.20ms, last 0.95ms").
func (s RenderStats) FormatDisplay() string {
	if s.TotalRenders == 0 {
		return "no renders"
	}
	return fmt.Sprintf("%d renders, avg %s, last %s",
		s.TotalRenders, formatMillis(s.AverageRenderTime), formatMillis(s.LastRenderTime))
}

func formatMillis(d time.Duration) string {
	return fmt.Sprintf("%.2fms", float64(d.Microseconds())/1000)
}
