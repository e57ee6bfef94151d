package backtest

import (
	"github.com/rxtech-lab/argo-signals/internal/scoring"
	"github.com/rxtech-lab/argo-signals/internal/types"
	"github.com/rxtech-lab/argo-signals/pkg/errors"
)

// DefaultLookahead is the number of bars after a call used to judge it.
const DefaultLookahead = 5

// Backtester replays the unweighted scoring rules over history to estimate their directional accuracy.
type Backtester struct {
	scorer    *scoring.Scorer
	lookahead int
}

// NewBacktester creates a backtester judging calls lookahead bars later.
func NewBacktester(scorer *scoring.Scorer, lookahead int) (*Backtester, error) {
	if scorer == nil {
		return nil, errors.New(errors.ErrCodeMissingParameter, "backtester requires a scorer")
	}

	if lookahead <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidParameter, "lookahead must be positive, got %d", lookahead)
	}

	return &Backtester{
		scorer:    scorer,
		lookahead: lookahead,
	}, nil
}

// Lookahead returns the lookahead horizon in bars.
func (b *Backtester) Lookahead() int {
	return b.lookahead
}

// Run scores every row of frame that has complete indicators and a row lookahead bars later.
// A buy call wins when the future close is strictly higher, a sell call when it is strictly lower.
// Ties between buy and sell scores are not calls. A side with no calls reports NeutralAccuracy.
func (b *Backtester) Run(frame types.IndicatorFrame) types.BacktestResult {
	var result types.BacktestResult

	for i := 0; i+b.lookahead < frame.Len(); i++ {
		scores, err := b.scorer.RawScores(frame.Snapshot(i))
		if err != nil {
			continue
		}

		current := frame.Closes[i]
		future := frame.Closes[i+b.lookahead]

		switch {
		case scores.Buy > scores.Sell:
			result.BuyCalls++
			if future > current {
				result.BuyWins++
			}
		case scores.Sell > scores.Buy:
			result.SellCalls++
			if future < current {
				result.SellWins++
			}
		}
	}

	result.BuyAccuracy = accuracy(result.BuyWins, result.BuyCalls)
	result.SellAccuracy = accuracy(result.SellWins, result.SellCalls)

	return result
}

func accuracy(wins, calls int) float64 {
	if calls == 0 {
		return types.NeutralAccuracy
	}

	return float64(wins) / float64(calls)
}
