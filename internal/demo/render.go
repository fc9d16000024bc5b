package demo

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/zjrosen/vscroll/internal/ui/styles"
)

// minCardWidth keeps cards legible in very narrow terminals.
const minCardWidth = 24

// RenderCard draws item as a bordered card width columns wide.
func RenderCard(item Item, width int, selected bool) string {
	width = max(width, minCardWidth)
	// border (2) + padding (2)
	inner := width - 4

	var sb strings.Builder
	sb.WriteString(renderHeader(item, inner))
	sb.WriteString("\n")
	sb.WriteString(styles.CardBodyStyle.Render(wordwrap.String(item.Body, inner)))

	if item.Expanded {
		for _, t := range item.Tasks {
			sb.WriteString("\n")
			sb.WriteString(renderTask(t, inner))
		}
	} else if len(item.Tasks) > 0 {
		sb.WriteString("\n")
		sb.WriteString(styles.CardMetaStyle.Render(fmt.Sprintf("▸ %d tasks", len(item.Tasks))))
	}

	style := styles.CardStyle
	if selected {
		style = styles.SelectedCardStyle
	}
	return style.Width(width - 2).Render(sb.String())
}

// Rows returns the number of terminal rows a rendered card occupies.
func Rows(card string) int {
	return lipgloss.Height(card)
}

func renderHeader(item Item, width int) string {
	badge := lipgloss.NewStyle().Foreground(kindColor(item.Kind)).Render(string(item.Kind))
	count := styles.CardMetaStyle.Render(styles.FormatTaskCount(item.Completed(), len(item.Tasks)))

	used := lipgloss.Width(badge) + lipgloss.Width(count) + 2
	title := styles.CardTitleStyle.Render(styles.TruncateString(item.Title, max(width-used, 1)))

	gap := max(width-lipgloss.Width(badge)-lipgloss.Width(title)-lipgloss.Width(count), 1)
	return badge + " " + title + strings.Repeat(" ", gap-1) + count
}

func renderTask(t Task, width int) string {
	dot := lipgloss.NewStyle().Foreground(statusColor(t.Status)).Render("●")
	meta := fmt.Sprintf("%3d%% @%s", t.Progress, t.Assignee)
	title := styles.TruncateString(t.Title, max(width-lipgloss.Width(meta)-5, 1))
	return fmt.Sprintf("  %s %s %s", dot, title, styles.CardMetaStyle.Render(meta))
}

func kindColor(k Kind) lipgloss.AdaptiveColor {
	switch k {
	case KindComplex:
		return styles.KindComplexColor
	case KindMega:
		return styles.KindMegaColor
	default:
		return styles.KindSimpleColor
	}
}

func statusColor(s TaskStatus) lipgloss.AdaptiveColor {
	switch s {
	case TaskCompleted:
		return styles.StatusSuccessColor
	case TaskActive:
		return styles.StatusActiveColor
	case TaskError:
		return styles.StatusErrorColor
	default:
		return styles.StatusWarningColor
	}
}
