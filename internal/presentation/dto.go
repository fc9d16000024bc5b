// Package presentation converts bench results into output shapes.
package presentation

import (
	"github.com/zjrosen/vscroll/internal/bench"
)

// ReportDTO represents a bench report for presentation
type ReportDTO struct {
	Items       int       `json:"items"`
	BatchMs     float64   `json:"batch_ms"`
	ElapsedMs   float64   `json:"elapsed_ms"`
	TotalHeight float64   `json:"total_height"`
	Dynamic     SweepDTO  `json:"dynamic"`
	Fixed       SweepDTO  `json:"fixed"`
	Engine      EngineDTO `json:"engine"`
}

// SweepDTO describes one scroll sweep.
type SweepDTO struct {
	Frames      int     `json:"frames"`
	AvgRendered float64 `json:"avg_rendered"`
	MaxRendered int     `json:"max_rendered,omitempty"`
	AvgFrameMs  float64 `json:"avg_frame_ms"`
	LastFrameMs float64 `json:"last_frame_ms"`
	Summary     string  `json:"summary"`
}

// EngineDTO carries the engine work counters.
type EngineDTO struct {
	Rebuilds              uint64 `json:"rebuilds"`
	Measurements          uint64 `json:"measurements"`
	DiscardedMeasurements uint64 `json:"discarded_measurements"`
	PrunedHeights         uint64 `json:"pruned_heights"`
}

// FromBenchReport converts a bench report to a DTO.
func FromBenchReport(r bench.Report) ReportDTO {
	return ReportDTO{
		Items:       r.Items,
		BatchMs:     millis(r.Batch.Microseconds()),
		ElapsedMs:   millis(r.Elapsed.Microseconds()),
		TotalHeight: r.TotalHeight,
		Dynamic: SweepDTO{
			Frames:      r.Frames,
			AvgRendered: r.AvgRendered,
			MaxRendered: r.MaxRendered,
			AvgFrameMs:  millis(r.Dynamic.AverageRenderTime.Microseconds()),
			LastFrameMs: millis(r.Dynamic.LastRenderTime.Microseconds()),
			Summary:     r.Dynamic.FormatDisplay(),
		},
		Fixed: SweepDTO{
			Frames:      r.FixedFrames,
			AvgRendered: r.FixedAvgRendered,
			AvgFrameMs:  millis(r.Fixed.AverageRenderTime.Microseconds()),
			LastFrameMs: millis(r.Fixed.LastRenderTime.Microseconds()),
			Summary:     r.Fixed.FormatDisplay(),
		},
		Engine: EngineDTO{
			Rebuilds:              r.Engine.Rebuilds,
			Measurements:          r.Engine.Measurements,
			DiscardedMeasurements: r.Engine.DiscardedMeasurements,
			PrunedHeights:         r.Engine.PrunedHeights,
		},
	}
}

func millis(us int64) float64 {
	return float64(us) / 1000
}
