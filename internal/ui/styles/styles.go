// Package styles contains Lip Gloss style definitions.
package styles

import "github.com/charmbracelet/lipgloss"

var (
	// Semantic color names - Text hierarchy
	TextPrimaryColor     = lipgloss.AdaptiveColor{Light: "#2D3436", Dark: "#CCCCCC"} // Titles
	TextSecondaryColor   = lipgloss.AdaptiveColor{Light: "#636E72", Dark: "#BBBBBB"} // Ids, counters
	TextMutedColor       = lipgloss.AdaptiveColor{Light: "#999999", Dark: "#696969"} // Hints, help text, footers
	TextDescriptionColor = lipgloss.AdaptiveColor{Light: "#666666", Dark: "#999999"} // Card body text

	// Semantic color names - Border
	BorderDefaultColor  = lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#696969"} // Unselected cards
	BorderSelectedColor = lipgloss.AdaptiveColor{Light: "#54A0FF", Dark: "#54A0FF"} // Selected card

	// Semantic color names - Status
	StatusSuccessColor = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}
	StatusActiveColor  = lipgloss.AdaptiveColor{Light: "#54A0FF", Dark: "#54A0FF"}
	StatusWarningColor = lipgloss.AdaptiveColor{Light: "#FECA57", Dark: "#FECA57"}
	StatusErrorColor   = lipgloss.AdaptiveColor{Light: "#FF6B6B", Dark: "#FF8787"}

	// Item kind colors
	KindSimpleColor  = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}
	KindComplexColor = lipgloss.AdaptiveColor{Light: "#FF9F43", Dark: "#FF9F43"}
	KindMegaColor    = lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"}

	// Cards
	CardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(BorderDefaultColor).
			Padding(0, 1)

	SelectedCardStyle = CardStyle.
				BorderForeground(BorderSelectedColor)

	CardTitleStyle = lipgloss.NewStyle().Foreground(TextPrimaryColor).Bold(true)
	CardBodyStyle  = lipgloss.NewStyle().Foreground(TextDescriptionColor)
	CardMetaStyle  = lipgloss.NewStyle().Foreground(TextSecondaryColor)

	// Header and footer
	HeaderStyle = lipgloss.NewStyle().
			Foreground(TextPrimaryColor).
			Bold(true).
			Padding(0, 1)

	StatusBarStyle = lipgloss.NewStyle().
			Foreground(TextSecondaryColor).
			Padding(0, 1)

	LogTailStyle = lipgloss.NewStyle().Foreground(TextMutedColor)

	// Error display
	ErrorStyle = lipgloss.NewStyle().
			Foreground(StatusErrorColor).
			Bold(true)

	// Loading spinner color
	SpinnerColor = lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#FFF"}
)
