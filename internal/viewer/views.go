package viewer

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-signals/internal/report"
	"github.com/rxtech-lab/argo-signals/internal/types"
	"github.com/rxtech-lab/argo-signals/pkg/errors"
)

// Page identifies one screen of the viewer.
type Page string

const (
	PageSummary  Page = "summary"
	PageSignals  Page = "signals"
	PageHoldings Page = "holdings"
	PageAsset    Page = "asset"
)

// Artifacts is everything the viewer shows, read in one pass.
type Artifacts struct {
	Signals []types.TradeRecord
	History []types.TradeRecord
	Details []types.PortfolioDetail
	Summary optional.Option[types.PortfolioSummary]
}

// LoadArtifacts reads the artifacts of the latest run. A missing summary is not an error.
func LoadArtifacts(reader *report.Reader) (Artifacts, error) {
	var (
		a   Artifacts
		err error
	)

	if a.Signals, err = reader.DailySignals(); err != nil {
		return Artifacts{}, err
	}

	if a.History, err = reader.TradeHistory(); err != nil {
		return Artifacts{}, err
	}

	if a.Details, err = reader.PortfolioDetails(); err != nil {
		return Artifacts{}, err
	}

	summary, err := reader.PortfolioSummary()

	switch {
	case err == nil:
		a.Summary = optional.Some(summary)
	case errors.HasCode(err, errors.ErrCodeDataNotFound):
		a.Summary = optional.None[types.PortfolioSummary]()
	default:
		return Artifacts{}, err
	}

	return a, nil
}

// listItem implements list.Item for the page menu.
type listItem struct {
	page        Page
	name        string
	description string
}

func (i listItem) Title() string       { return i.name }
func (i listItem) Description() string { return i.description }
func (i listItem) FilterValue() string { return i.name }

// NewPageList creates the page menu.
func NewPageList() list.Model {
	items := []list.Item{
		listItem{page: PageSummary, name: "Portfolio Summary", description: "Cash, invested capital and total profit"},
		listItem{page: PageSignals, name: "Daily Signals", description: "Decisions of the latest run"},
		listItem{page: PageHoldings, name: "Holdings", description: "Open positions at the latest valuation"},
		listItem{page: PageAsset, name: "Asset History", description: "Daily decisions of one asset"},
	}

	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = true

	l := list.New(items, delegate, 0, 0)
	l.Title = "Select View"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)

	return l
}

// NewAssetInput creates the text input for the asset symbol.
func NewAssetInput() textinput.Model {
	ti := textinput.New()
	ti.Placeholder = "AAPL"
	ti.CharLimit = 20
	ti.Width = 30
	ti.Prompt = "> "

	return ti
}

// ParseSymbol normalizes the first comma-separated symbol of input.
func ParseSymbol(input string) string {
	for _, p := range strings.Split(input, ",") {
		if s := strings.TrimSpace(strings.ToUpper(p)); s != "" {
			return s
		}
	}

	return ""
}

// NewDataTable creates an empty table.
func NewDataTable() table.Model {
	t := table.New(
		table.WithFocused(true),
		table.WithHeight(10),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)

	t.SetStyles(s)

	return t
}

// FillTable replaces the columns and rows of t with the page's content.
func FillTable(t table.Model, page Page, a Artifacts, asset string) table.Model {
	var (
		columns []table.Column
		rows    []table.Row
	)

	switch page {
	case PageSignals:
		columns = []table.Column{
			{Title: "Asset", Width: 10},
			{Title: "Class", Width: 8},
			{Title: "Decision", Width: 10},
			{Title: "Confidence", Width: 12},
			{Title: "Price", Width: 12},
		}
		for _, r := range a.Signals {
			rows = append(rows, table.Row{
				r.Asset,
				r.AssetClass,
				string(r.Decision),
				fmt.Sprintf("%d%%", r.Confidence),
				fmt.Sprintf("%.2f", r.Price),
			})
		}

	case PageHoldings:
		columns = []table.Column{
			{Title: "Asset", Width: 10},
			{Title: "Type", Width: 8},
			{Title: "Quantity", Width: 10},
			{Title: "Avg Price", Width: 11},
			{Title: "Price", Width: 11},
			{Title: "Value", Width: 12},
			{Title: "Profit", Width: 14},
			{Title: "Return", Width: 10},
		}
		for _, d := range a.Details {
			rows = append(rows, table.Row{
				d.Asset,
				d.Type,
				fmt.Sprintf("%.4f", d.Quantity),
				fmt.Sprintf("%.2f", d.AveragePrice),
				fmt.Sprintf("%.2f", d.CurrentPrice),
				fmt.Sprintf("%.2f", d.CurrentValue),
				FormatProfit(d.Profit),
				FormatReturn(d.ReturnPct),
			})
		}

	case PageAsset:
		columns = []table.Column{
			{Title: "Date", Width: 12},
			{Title: "Decision", Width: 10},
			{Title: "Confidence", Width: 12},
			{Title: "Price", Width: 12},
		}
		for _, d := range report.AssetHistory(a.History, asset) {
			rows = append(rows, table.Row{
				d.Date,
				string(d.Decision),
				fmt.Sprintf("%d%%", d.Confidence),
				fmt.Sprintf("%.2f", d.Price),
			})
		}
	}

	// Rows must never be wider than the columns, so clear them first.
	t.SetRows(nil)
	t.SetColumns(columns)
	t.SetRows(rows)
	t.GotoTop()

	return t
}

// RenderSummary renders the portfolio summary block.
func RenderSummary(summary optional.Option[types.PortfolioSummary]) string {
	s, err := summary.Take()
	if err != nil {
		return "No portfolio summary yet. Run the signal engine first.\n"
	}

	var b strings.Builder
	line := func(label, value string) {
		b.WriteString(LabelStyle.Render(label))
		b.WriteString(value)
		b.WriteString("\n")
	}

	line("Available cash", fmt.Sprintf("%.2f", s.AvailableCash))
	line("Total invested", fmt.Sprintf("%.2f", s.TotalInvested))
	line("Portfolio value", fmt.Sprintf("%.2f", s.PortfolioValue))
	line("Total profit", FormatProfit(s.TotalProfit))

	return b.String()
}

// RenderPerformance renders the realized profit line of an asset.
func RenderPerformance(history []types.TradeRecord, asset string) string {
	points := report.AssetPerformance(history, asset)
	if len(points) == 0 {
		return "No closed or open position."
	}

	last := points[len(points)-1]

	return fmt.Sprintf("Realized profit per unit: %s", FormatProfit(last.CumulativeProfit))
}
