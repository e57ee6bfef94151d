package commission_fee

import "github.com/shopspring/decimal"

// ProportionalCommissionFee charges rate times the traded notional.
type ProportionalCommissionFee struct {
	rate decimal.Decimal
}

// NewProportionalCommissionFee creates a fee of rate (0.001 is 0.1%) per trade.
func NewProportionalCommissionFee(rate float64) CommissionFee {
	return &ProportionalCommissionFee{rate: decimal.NewFromFloat(rate)}
}

// Calculate returns quantity * price * rate. Non-positive notionals cost nothing.
func (c *ProportionalCommissionFee) Calculate(quantity float64, price float64) float64 {
	notional := decimal.NewFromFloat(quantity).Mul(decimal.NewFromFloat(price))
	if !notional.IsPositive() {
		return 0
	}

	return notional.Mul(c.rate).InexactFloat64()
}
