package sizing

import (
	"github.com/rxtech-lab/argo-signals/internal/types"
	"github.com/rxtech-lab/argo-signals/internal/utils"
	"github.com/shopspring/decimal"
)

// Strategy turns a cash budget into an order quantity.
type Strategy interface {
	// Quantity returns how many units budget buys at price. Zero means no trade.
	Quantity(budget float64, price float64) float64
	Name() string
}

// Integer buys whole units only.
type Integer struct{}

// NewInteger creates a whole-unit sizing strategy.
func NewInteger() Strategy {
	return &Integer{}
}

func (s *Integer) Name() string {
	return "integer"
}

// Quantity returns floor(budget / price).
func (s *Integer) Quantity(budget float64, price float64) float64 {
	if !(price > 0) || !(budget > 0) {
		return 0
	}

	return utils.RoundToDecimalPrecision(budget/price, 0)
}

// Fractional buys fractional units rounded to a fixed precision, with a minimum tradable fraction.
type Fractional struct {
	precision   int32
	minFraction float64
}

// NewFractional creates a fractional sizing strategy.
func NewFractional(precision int32, minFraction float64) Strategy {
	return &Fractional{
		precision:   precision,
		minFraction: minFraction,
	}
}

func (s *Fractional) Name() string {
	return "fractional"
}

// Quantity returns budget / price rounded to the configured precision, or 0 below the minimum fraction.
func (s *Fractional) Quantity(budget float64, price float64) float64 {
	if !(price > 0) || !(budget > 0) {
		return 0
	}

	quantity := decimal.NewFromFloat(budget).
		Div(decimal.NewFromFloat(price)).
		Round(s.precision).
		InexactFloat64()

	if quantity < s.minFraction {
		return 0
	}

	return quantity
}

// Policy picks a sizing strategy per asset.
type Policy struct {
	FractionalStocks  bool    `yaml:"fractional_stocks" json:"fractional_stocks" default:"true"`
	FractionalETFs    bool    `yaml:"fractional_etfs" json:"fractional_etfs" default:"false"`
	FractionPrecision int32   `yaml:"fraction_precision" json:"fraction_precision" default:"2" validate:"gte=0,lte=8"`
	MinFraction       float64 `yaml:"min_fraction" json:"min_fraction" default:"0.01" validate:"gte=0"`
}

// DefaultPolicy allows fractional stocks at 2 decimals with a 0.01 minimum and whole ETFs.
func DefaultPolicy() Policy {
	return Policy{
		FractionalStocks:  true,
		FractionalETFs:    false,
		FractionPrecision: 2,
		MinFraction:       0.01,
	}
}

// Fractions returns the per-class fractional trading policy.
func (p Policy) Fractions() types.FractionalPolicy {
	return types.FractionalPolicy{
		Stocks: p.FractionalStocks,
		ETFs:   p.FractionalETFs,
	}
}

// For returns the strategy used for asset.
func (p Policy) For(asset types.Asset) Strategy {
	if asset.Fractional {
		return NewFractional(p.FractionPrecision, p.MinFraction)
	}

	return NewInteger()
}
