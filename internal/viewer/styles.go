package viewer

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// Style definitions.
var (
	// TitleStyle for headers.
	TitleStyle = lipgloss.NewStyle().Bold(true)

	// HelpStyle for help text.
	HelpStyle = lipgloss.NewStyle().Faint(true)

	// ErrorStyle for error messages.
	ErrorStyle = lipgloss.NewStyle().Bold(true)

	// LabelStyle for summary labels.
	LabelStyle = lipgloss.NewStyle().Width(18)
)

// FormatProfit formats a profit with an indicator of its sign.
func FormatProfit(profit float64) string {
	s := fmt.Sprintf("%+.2f", profit)

	switch {
	case profit > 0:
		return s + " ▲"
	case profit < 0:
		return s + " ▼"
	}

	return s
}

// FormatReturn formats an optional return percentage.
func FormatReturn(pct *float64) string {
	if pct == nil {
		return "-"
	}

	return fmt.Sprintf("%.2f%%", *pct)
}
