package engine

import (
	"context"

	"github.com/rxtech-lab/argo-signals/internal/types"
	"github.com/rxtech-lab/argo-signals/internal/utils"
	"github.com/shopspring/decimal"
)

// PriceLookup returns the latest price of a symbol.
type PriceLookup func(ctx context.Context, symbol string) (float64, error)

// Valuation is the end-of-run valuation of the portfolio.
type Valuation struct {
	Details []types.PortfolioDetail
	Summary types.PortfolioSummary
	// Unpriced lists open positions that could not be priced. They count at cost.
	Unpriced []string
}

// Valuate prices every open position of state. A position whose price cannot be obtained
// from lookup falls back to fallback[symbol], and then to its average price.
func Valuate(ctx context.Context, state types.PortfolioState, universe types.Universe, initialCapital float64,
	lookup PriceLookup, fallback map[string]float64,
) Valuation {
	valuation := Valuation{Details: make([]types.PortfolioDetail, 0)}
	totalInvested := decimal.Zero
	totalCurrent := decimal.Zero

	for _, symbol := range state.OpenSymbols(universe.Symbols()) {
		position := state.Position(symbol)

		price, err := lookup(ctx, symbol)
		if err != nil || !(price > 0) {
			if last, ok := fallback[symbol]; ok && last > 0 {
				price = last
			} else {
				price = position.AveragePrice
				valuation.Unpriced = append(valuation.Unpriced, symbol)
			}
		}

		quantity := decimal.NewFromFloat(position.Quantity)
		invested := quantity.Mul(decimal.NewFromFloat(position.AveragePrice))
		current := quantity.Mul(decimal.NewFromFloat(price))
		profit := current.Sub(invested)

		var returnPct *float64
		if !invested.IsZero() {
			pct := profit.Div(invested).Mul(decimal.NewFromInt(100)).Round(2).InexactFloat64()
			returnPct = &pct
		}

		class := ""
		if asset, ok := universe.Lookup(symbol); ok {
			class = string(asset.Class)
		}

		valuation.Details = append(valuation.Details, types.PortfolioDetail{
			Asset:         symbol,
			Type:          class,
			Quantity:      utils.RoundHalfAway(position.Quantity, 4),
			AveragePrice:  utils.RoundHalfAway(position.AveragePrice, 2),
			CurrentPrice:  utils.RoundHalfAway(price, 2),
			InvestedValue: invested.Round(2).InexactFloat64(),
			CurrentValue:  current.Round(2).InexactFloat64(),
			Profit:        profit.Round(2).InexactFloat64(),
			ReturnPct:     returnPct,
		})

		totalInvested = totalInvested.Add(invested)
		totalCurrent = totalCurrent.Add(current)
	}

	portfolioValue := decimal.NewFromFloat(state.AvailableCash).Add(totalCurrent)

	valuation.Summary = types.PortfolioSummary{
		AvailableCash:  utils.RoundHalfAway(state.AvailableCash, 2),
		TotalInvested:  totalInvested.Round(2).InexactFloat64(),
		PortfolioValue: portfolioValue.Round(2).InexactFloat64(),
		TotalProfit:    portfolioValue.Sub(decimal.NewFromFloat(initialCapital)).Round(2).InexactFloat64(),
	}

	return valuation
}
