package presentation

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/zjrosen/vscroll/internal/ui/styles"
)

// Formatter handles output formatting
type Formatter struct {
	writer io.Writer
}

// NewFormatter creates a new formatter
func NewFormatter(writer io.Writer) *Formatter {
	return &Formatter{
		writer: writer,
	}
}

// FormatReportJSON formats a bench report as JSON
func (f *Formatter) FormatReportJSON(report ReportDTO) error {
	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(report)
}

// FormatReport formats a bench report as aligned text
func (f *Formatter) FormatReport(report ReportDTO) error {
	label := lipgloss.NewStyle().Foreground(styles.TextSecondaryColor).Width(14)
	title := styles.CardTitleStyle

	rows := []struct {
		title bool
		k, v  string
	}{
		{true, "vscroll bench", ""},
		{false, "items", fmt.Sprintf("%d", report.Items)},
		{false, "batch", fmt.Sprintf("%.2fms", report.BatchMs)},
		{false, "total height", fmt.Sprintf("%.0f", report.TotalHeight)},
		{false, "elapsed", fmt.Sprintf("%.2fms", report.ElapsedMs)},
		{true, "dynamic sweep", ""},
		{false, "frames", fmt.Sprintf("%d", report.Dynamic.Frames)},
		{false, "rendered", fmt.Sprintf("avg %.1f, max %d", report.Dynamic.AvgRendered, report.Dynamic.MaxRendered)},
		{false, "timing", report.Dynamic.Summary},
		{false, "rebuilds", fmt.Sprintf("%d", report.Engine.Rebuilds)},
		{false, "measurements", fmt.Sprintf("%d", report.Engine.Measurements)},
		{true, "fixed sweep", ""},
		{false, "frames", fmt.Sprintf("%d", report.Fixed.Frames)},
		{false, "rendered", fmt.Sprintf("avg %.1f", report.Fixed.AvgRendered)},
		{false, "timing", report.Fixed.Summary},
	}

	for _, r := range rows {
		var line string
		if r.title {
			line = title.Render(r.k)
		} else {
			line = label.Render(r.k) + r.v
		}
		if _, err := fmt.Fprintln(f.writer, line); err != nil {
			return err
		}
	}
	return nil
}
