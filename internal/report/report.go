package report

import (
	"github.com/rxtech-lab/argo-signals/internal/types"
)

// Sink receives the artifacts of a finished run.
type Sink interface {
	// Write persists the report of one run.
	Write(report types.RunReport) error
	// Close releases any resources held by the sink.
	Close() error
}

// Paths are the CSV artifact locations.
type Paths struct {
	TradeHistory     string `yaml:"trade_history" json:"trade_history" default:"trade_history.csv" validate:"required"`
	DailySignals     string `yaml:"daily_signals" json:"daily_signals" default:"daily_signals.csv" validate:"required"`
	PortfolioDetails string `yaml:"portfolio_details" json:"portfolio_details" default:"portfolio_details.csv" validate:"required"`
	PortfolioSummary string `yaml:"portfolio_summary" json:"portfolio_summary" default:"portfolio_summary.csv" validate:"required"`
}

// DefaultPaths returns the artifact file names in the working directory.
func DefaultPaths() Paths {
	return Paths{
		TradeHistory:     "trade_history.csv",
		DailySignals:     "daily_signals.csv",
		PortfolioDetails: "portfolio_details.csv",
		PortfolioSummary: "portfolio_summary.csv",
	}
}
