package report

import (
	"sort"
	"time"

	"github.com/rxtech-lab/argo-signals/internal/types"
	"github.com/rxtech-lab/argo-signals/internal/utils"
)

const (
	// PerformanceWindow is the number of rows kept by AssetPerformance.
	PerformanceWindow = 50
	// HistoryWindow is the number of days kept by AssetHistory.
	HistoryWindow = 30
	// TradeHistoryWindow is the number of trade log rows served to the dashboard.
	TradeHistoryWindow = 100
)

// PerformancePoint is one row of an asset's realized performance.
type PerformancePoint struct {
	Date             string         `json:"date"`
	Decision         types.Decision `json:"decision"`
	Price            float64        `json:"price"`
	CumulativeProfit float64        `json:"cumulative_profit"`
	PositionValue    float64        `json:"position_value"`
}

// DailyDecision is the last decision of an asset on one calendar day.
type DailyDecision struct {
	Date       string         `json:"date"`
	Decision   types.Decision `json:"decision"`
	Confidence int            `json:"confidence"`
	Price      float64        `json:"price"`
}

// Allocation is the current value held in one asset.
type Allocation struct {
	Asset        string  `json:"asset"`
	CurrentValue float64 `json:"current_value"`
}

// Assets returns the sorted unique assets of records.
func Assets(records []types.TradeRecord) []string {
	seen := make(map[string]struct{}, len(records))
	assets := make([]string, 0)

	for _, r := range records {
		if _, ok := seen[r.Asset]; ok {
			continue
		}

		seen[r.Asset] = struct{}{}
		assets = append(assets, r.Asset)
	}

	sort.Strings(assets)

	return assets
}

// Tail returns the last n elements of rows.
func Tail[T any](rows []T, n int) []T {
	if len(rows) <= n {
		return rows
	}

	return rows[len(rows)-n:]
}

// forAsset returns the rows of asset ordered by time. Rows with the same time keep log order.
func forAsset(records []types.TradeRecord, asset string) []types.TradeRecord {
	type row struct {
		record types.TradeRecord
		at     time.Time
	}

	rows := make([]row, 0)

	for _, r := range records {
		if r.Asset != asset {
			continue
		}

		at, err := r.Time()
		if err != nil {
			continue
		}

		rows = append(rows, row{record: r, at: at})
	}

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].at.Before(rows[j].at) })

	out := make([]types.TradeRecord, len(rows))
	for i, r := range rows {
		out[i] = r.record
	}

	return out
}

// AssetPerformance replays the trade log of asset as a single-unit position.
// A BUY while flat opens the position, a SELL while holding closes it and realizes
// price minus entry. Rows while holding report the position at the row's price.
// Rows while flat that do not open a position are left out.
func AssetPerformance(records []types.TradeRecord, asset string) []PerformancePoint {
	points := make([]PerformancePoint, 0)
	holding := false
	entry := 0.0
	cumulative := 0.0

	for _, r := range forAsset(records, asset) {
		switch {
		case r.Decision == types.DecisionBuy && !holding:
			holding = true
			entry = r.Price
			points = append(points, point(r, cumulative, r.Price))
		case r.Decision == types.DecisionSell && holding:
			cumulative += r.Price - entry
			holding = false
			entry = 0
			points = append(points, point(r, cumulative, 0))
		case holding:
			points = append(points, point(r, cumulative, r.Price))
		}
	}

	return Tail(points, PerformanceWindow)
}

func point(r types.TradeRecord, cumulative float64, positionValue float64) PerformancePoint {
	return PerformancePoint{
		Date:             r.Day(),
		Decision:         r.Decision,
		Price:            r.Price,
		CumulativeProfit: utils.RoundHalfAway(cumulative, 2),
		PositionValue:    utils.RoundHalfAway(positionValue, 2),
	}
}

// AssetHistory returns the latest decision per calendar day of asset, for the last HistoryWindow days.
func AssetHistory(records []types.TradeRecord, asset string) []DailyDecision {
	days := make([]DailyDecision, 0)
	index := make(map[string]int)

	for _, r := range forAsset(records, asset) {
		day := DailyDecision{
			Date:       r.Day(),
			Decision:   r.Decision,
			Confidence: r.Confidence,
			Price:      r.Price,
		}

		if i, ok := index[day.Date]; ok {
			days[i] = day

			continue
		}

		index[day.Date] = len(days)
		days = append(days, day)
	}

	return Tail(days, HistoryWindow)
}

// AssetAllocation returns the current value per held asset.
func AssetAllocation(details []types.PortfolioDetail) []Allocation {
	out := make([]Allocation, 0, len(details))
	for _, d := range details {
		out = append(out, Allocation{Asset: d.Asset, CurrentValue: d.CurrentValue})
	}

	return out
}
