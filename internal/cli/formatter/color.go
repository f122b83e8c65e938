package formatter

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/merosman91/Agricultural-Tractor/internal/domain"
)

// Gruvbox-inspired color palette.
var (
	ColorGreen  = lipgloss.Color("#8ec07c")
	ColorYellow = lipgloss.Color("#fabd2f")
	ColorRed    = lipgloss.Color("#fb4934")
	ColorBlue   = lipgloss.Color("#83a598")
	ColorPurple = lipgloss.Color("#d3869b")
	ColorDim    = lipgloss.Color("#928374")
	ColorFg     = lipgloss.Color("#ebdbb2")
	ColorHeader = lipgloss.Color("#fe8019")
)

// Predefined lipgloss styles.
var (
	StyleGreen  = lipgloss.NewStyle().Foreground(ColorGreen)
	StyleYellow = lipgloss.NewStyle().Foreground(ColorYellow)
	StyleRed    = lipgloss.NewStyle().Foreground(ColorRed)
	StyleBlue   = lipgloss.NewStyle().Foreground(ColorBlue)
	StylePurple = lipgloss.NewStyle().Foreground(ColorPurple)
	StyleDim    = lipgloss.NewStyle().Foreground(ColorDim)
	StyleFg     = lipgloss.NewStyle().Foreground(ColorFg)
	StyleHeader = lipgloss.NewStyle().Foreground(ColorHeader).Bold(true)
	StyleBold   = lipgloss.NewStyle().Foreground(ColorFg).Bold(true)
)

// PaymentColor returns the style for a payment status: settled is green,
// partial yellow and deferred red.
func PaymentColor(status domain.PaymentStatus) lipgloss.Style {
	switch status {
	case domain.PaymentPaid:
		return StyleGreen
	case domain.PaymentPartial:
		return StyleYellow
	case domain.PaymentDeferred:
		return StyleRed
	default:
		return StyleDim
	}
}

// PaymentPill returns a colored indicator such as "● Paid".
func PaymentPill(status domain.PaymentStatus) string {
	switch status {
	case domain.PaymentPaid:
		return StyleGreen.Render("● Paid")
	case domain.PaymentPartial:
		return StyleYellow.Render("◐ Partial")
	case domain.PaymentDeferred:
		return StyleRed.Render("○ Deferred")
	default:
		return StyleDim.Render(string(status))
	}
}

// WorkTypeBadge returns a capitalized, purple-styled work type label.
func WorkTypeBadge(workType string) string {
	if workType == "" {
		return StyleDim.Render("--")
	}
	label := strings.ToUpper(workType[:1]) + workType[1:]
	return StylePurple.Render(label)
}

// Header renders a section header with the orange header style and an underline.
func Header(text string) string {
	upper := strings.ToUpper(text)
	line := strings.Repeat("─", lipgloss.Width(upper))
	return fmt.Sprintf("%s\n%s", StyleHeader.Render(upper), StyleDim.Render(line))
}

// Dim renders text in the muted/dim color.
func Dim(text string) string {
	return StyleDim.Render(text)
}

// Bold renders text in bold with the foreground color.
func Bold(text string) string {
	return StyleBold.Render(text)
}
