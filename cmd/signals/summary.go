package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/rxtech-lab/argo-signals/internal/engine"
	"github.com/rxtech-lab/argo-signals/internal/types"
)

// Style definitions.
var (
	// TitleStyle for headers.
	TitleStyle = lipgloss.NewStyle().Bold(true)

	// HelpStyle for secondary text.
	HelpStyle = lipgloss.NewStyle().Faint(true)

	// ErrorStyle for error messages.
	ErrorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))

	buyStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	sellStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

// RenderRunSummary renders the decisions, skips and valuation of a run.
func RenderRunSummary(result engine.RunResult) string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render(fmt.Sprintf("Run %s - %s", result.RunID, result.Date.Format(types.TradeDateLayout))))
	b.WriteString("\n\n")

	if len(result.Records) > 0 {
		t := table.New().
			Border(lipgloss.NormalBorder()).
			Headers("Asset", "Class", "Decision", "Confidence", "Price").
			StyleFunc(func(row, col int) lipgloss.Style {
				style := lipgloss.NewStyle().Padding(0, 1)
				if row < 0 || row >= len(result.Records) || col != 2 {
					return style
				}

				switch result.Records[row].Decision {
				case types.DecisionBuy:
					return buyStyle.Padding(0, 1)
				case types.DecisionSell:
					return sellStyle.Padding(0, 1)
				}

				return style
			})

		for _, r := range result.Records {
			t.Row(r.Asset, r.AssetClass, string(r.Decision), fmt.Sprintf("%d%%", r.Confidence), fmt.Sprintf("%.2f", r.Price))
		}

		b.WriteString(t.Render())
		b.WriteString("\n")
	}

	if skipped := result.Skipped(); len(skipped) > 0 {
		b.WriteString(HelpStyle.Render(fmt.Sprintf("Skipped %d assets:", len(skipped))))
		b.WriteString("\n")

		for _, s := range skipped {
			b.WriteString(HelpStyle.Render(fmt.Sprintf("  %s: %v", s.Symbol, s.Err)))
			b.WriteString("\n")
		}
	}

	summary := result.Valuation.Summary
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("Available cash:  %.2f\n", summary.AvailableCash))
	b.WriteString(fmt.Sprintf("Total invested:  %.2f\n", summary.TotalInvested))
	b.WriteString(fmt.Sprintf("Portfolio value: %.2f\n", summary.PortfolioValue))
	b.WriteString(fmt.Sprintf("Total profit:    %+.2f\n", summary.TotalProfit))

	if len(result.Valuation.Unpriced) > 0 {
		b.WriteString(HelpStyle.Render(fmt.Sprintf("Valued at cost (no price): %s", strings.Join(result.Valuation.Unpriced, ", "))))
		b.WriteString("\n")
	}

	return b.String()
}
