package types

import "time"

// Decision is the action recommended for an asset.
type Decision string

const (
	DecisionBuy  Decision = "BUY"
	DecisionSell Decision = "SELL"
	DecisionHold Decision = "HOLD"
)

// Valid reports whether d is one of the known decisions.
func (d Decision) Valid() bool {
	switch d {
	case DecisionBuy, DecisionSell, DecisionHold:
		return true
	default:
		return false
	}
}

// Signal is the scored decision for one asset on one date.
type Signal struct {
	Date       time.Time `json:"date"`
	Symbol     string    `json:"symbol"`
	Decision   Decision  `json:"decision"`
	Confidence int       `json:"confidence"`
	BuyScore   float64   `json:"buy_score"`
	SellScore  float64   `json:"sell_score"`
	// Reasons lists the rules that fired, for logging.
	Reasons []string `json:"reasons,omitempty"`
}
