package types

// NeutralAccuracy is reported for a side that made no calls.
const NeutralAccuracy = 0.5

// BacktestResult is the historical directional accuracy of the scoring rules for one asset.
type BacktestResult struct {
	BuyAccuracy  float64 `json:"buy_accuracy"`
	SellAccuracy float64 `json:"sell_accuracy"`
	BuyCalls     int     `json:"buy_calls"`
	BuyWins      int     `json:"buy_wins"`
	SellCalls    int     `json:"sell_calls"`
	SellWins     int     `json:"sell_wins"`
}

// NeutralBacktestResult is the result used when there is no evidence either way.
func NeutralBacktestResult() BacktestResult {
	return BacktestResult{
		BuyAccuracy:  NeutralAccuracy,
		SellAccuracy: NeutralAccuracy,
	}
}
