package styles

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// TruncateString truncates a string to fit within maxWidth, adding ellipsis if needed.
func TruncateString(s string, maxWidth int) string {
	if maxWidth < 1 {
		return ""
	}

	if lipgloss.Width(s) <= maxWidth {
		return s
	}

	if maxWidth <= 3 {
		return strings.Repeat(".", maxWidth)
	}

	// ANSI aware so styled titles keep their escape sequences intact.
	return ansi.Truncate(s, maxWidth, "...")
}

// FormatTaskCount returns "done/total" for a task list.
// Returns empty string when there are no tasks.
func FormatTaskCount(done, total int) string {
	if total <= 0 {
		return ""
	}
	return fmt.Sprintf("%d/%d ✓", done, total)
}
