package types

import "time"

// PortfolioDetail is the valuation of one open position.
type PortfolioDetail struct {
	Asset         string  `csv:"asset" json:"asset"`
	Type          string  `csv:"type" json:"type"`
	Quantity      float64 `csv:"quantity" json:"quantity"`
	AveragePrice  float64 `csv:"average_price" json:"average_price"`
	CurrentPrice  float64 `csv:"current_price" json:"current_price"`
	InvestedValue float64 `csv:"invested_value" json:"invested_value"`
	CurrentValue  float64 `csv:"current_value" json:"current_value"`
	Profit        float64 `csv:"profit" json:"profit"`
	// ReturnPct is nil when InvestedValue is 0.
	ReturnPct *float64 `csv:"return_pct,omitempty" json:"return_pct"`
}

// PortfolioSummary is the single-row aggregate of a run.
type PortfolioSummary struct {
	AvailableCash  float64 `csv:"available_cash" json:"available_cash"`
	TotalInvested  float64 `csv:"total_invested" json:"total_invested"`
	PortfolioValue float64 `csv:"portfolio_value" json:"portfolio_value"`
	TotalProfit    float64 `csv:"total_profit" json:"total_profit"`
}

// RunReport is everything a run hands to the reporting side.
type RunReport struct {
	RunID   string
	Date    time.Time
	Records []TradeRecord
	Details []PortfolioDetail
	Summary PortfolioSummary
}
