package portfolio

import (
	"github.com/rxtech-lab/argo-signals/internal/portfolio/commission_fee"
	"github.com/rxtech-lab/argo-signals/internal/portfolio/sizing"
	"github.com/rxtech-lab/argo-signals/internal/types"
	"github.com/rxtech-lab/argo-signals/pkg/errors"
	"github.com/shopspring/decimal"
)

// Policy is the trading policy of the simulator.
type Policy struct {
	// RiskFraction is the share of available cash budgeted for one BUY.
	RiskFraction float64
	// MinTradeConfidence is the lowest confidence at which a BUY is executed.
	MinTradeConfidence int
	Sizing             sizing.Policy
}

// Outcome describes what an applied decision did.
type Outcome struct {
	Symbol   string
	Decision types.Decision
	Executed bool
	Quantity float64
	Price    float64
	// Amount is the total cost of a BUY or the net proceeds of a SELL, fee included.
	Amount float64
	Fee    float64
	Reason string
}

// Simulator owns cash and positions and applies decisions to them one asset at a time.
// It is not safe for concurrent use.
type Simulator struct {
	state  types.PortfolioState
	policy Policy
	fee    commission_fee.CommissionFee
}

// NewSimulator creates a simulator over a copy of state.
func NewSimulator(state types.PortfolioState, policy Policy, fee commission_fee.CommissionFee) (*Simulator, error) {
	if state.AvailableCash < 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidParameter, "available cash must not be negative, got %f", state.AvailableCash)
	}

	if policy.RiskFraction <= 0 || policy.RiskFraction > 1 {
		return nil, errors.Newf(errors.ErrCodeInvalidParameter, "risk fraction must be in (0, 1], got %f", policy.RiskFraction)
	}

	if fee == nil {
		fee = commission_fee.NewZeroCommissionFee()
	}

	state = state.Clone()
	if state.Positions == nil {
		state.Positions = make(map[string]types.Position)
	}

	return &Simulator{
		state:  state,
		policy: policy,
		fee:    fee,
	}, nil
}

// State returns a copy of the current state.
func (s *Simulator) State() types.PortfolioState {
	return s.state.Clone()
}

// ApplyDecision applies one decision for asset at price.
// A BUY that fails sizing or cash checks returns an ErrCodeSizingRejected error and leaves the state unchanged.
func (s *Simulator) ApplyDecision(asset types.Asset, decision types.Decision, confidence int, price float64) (Outcome, error) {
	outcome := Outcome{
		Symbol:   asset.Symbol,
		Decision: decision,
		Price:    price,
	}

	if !decision.Valid() {
		return outcome, errors.Newf(errors.ErrCodeInvalidDecision, "unknown decision %q", decision)
	}

	if decision != types.DecisionHold && !(price > 0) {
		return outcome, errors.Newf(errors.ErrCodeInvalidPrice, "price for %s must be positive, got %f", asset.Symbol, price)
	}

	switch decision {
	case types.DecisionBuy:
		if confidence < s.policy.MinTradeConfidence {
			outcome.Reason = "confidence below trade threshold"

			return outcome, nil
		}

		budget := decimal.NewFromFloat(s.state.AvailableCash).
			Mul(decimal.NewFromFloat(s.policy.RiskFraction)).
			InexactFloat64()
		quantity := s.policy.Sizing.For(asset).Quantity(budget, price)

		return s.Buy(asset.Symbol, quantity, price)
	case types.DecisionSell:
		if !s.state.Positions[asset.Symbol].IsOpen() {
			outcome.Reason = "no position to sell"

			return outcome, nil
		}

		return s.Sell(asset.Symbol, price)
	default:
		outcome.Reason = "hold"

		return outcome, nil
	}
}

// Buy adds quantity units of symbol at price. The fee is added to the cost and the
// cost-weighted average price includes it.
func (s *Simulator) Buy(symbol string, quantity float64, price float64) (Outcome, error) {
	outcome := Outcome{
		Symbol:   symbol,
		Decision: types.DecisionBuy,
		Quantity: quantity,
		Price:    price,
	}

	if !(quantity > 0) {
		outcome.Reason = "quantity rounds to zero"

		return outcome, errors.Newf(errors.ErrCodeSizingRejected, "%s: computed quantity %f is not tradable", symbol, quantity)
	}

	if !(price > 0) {
		return outcome, errors.Newf(errors.ErrCodeInvalidPrice, "price for %s must be positive, got %f", symbol, price)
	}

	qty := decimal.NewFromFloat(quantity)
	fee := decimal.NewFromFloat(s.fee.Calculate(quantity, price))
	totalCost := qty.Mul(decimal.NewFromFloat(price)).Add(fee)
	cash := decimal.NewFromFloat(s.state.AvailableCash)

	outcome.Fee = fee.InexactFloat64()
	outcome.Amount = totalCost.InexactFloat64()

	if totalCost.GreaterThan(cash) {
		outcome.Reason = "insufficient cash"

		return outcome, errors.Newf(errors.ErrCodeSizingRejected, "%s: cost %s exceeds available cash %s", symbol, totalCost.StringFixed(2), cash.StringFixed(2))
	}

	position := s.state.Positions[symbol]
	oldQty := decimal.NewFromFloat(position.Quantity)
	oldAvg := decimal.NewFromFloat(position.AveragePrice)
	newQty := oldQty.Add(qty)
	newAvg := oldQty.Mul(oldAvg).Add(totalCost).Div(newQty)

	s.state.AvailableCash = cash.Sub(totalCost).InexactFloat64()
	s.state.Positions[symbol] = types.Position{
		Quantity:     newQty.InexactFloat64(),
		AveragePrice: newAvg.InexactFloat64(),
	}

	outcome.Executed = true

	return outcome, nil
}

// Sell liquidates the whole position of symbol at price. Proceeds are net of the fee.
func (s *Simulator) Sell(symbol string, price float64) (Outcome, error) {
	outcome := Outcome{
		Symbol:   symbol,
		Decision: types.DecisionSell,
		Price:    price,
	}

	position := s.state.Positions[symbol]
	if !position.IsOpen() {
		return outcome, errors.Newf(errors.ErrCodeNothingToLiquidate, "%s has no open position", symbol)
	}

	if !(price > 0) {
		return outcome, errors.Newf(errors.ErrCodeInvalidPrice, "price for %s must be positive, got %f", symbol, price)
	}

	fee := decimal.NewFromFloat(s.fee.Calculate(position.Quantity, price))
	proceeds := decimal.NewFromFloat(position.Quantity).Mul(decimal.NewFromFloat(price)).Sub(fee)

	if proceeds.IsNegative() {
		proceeds = decimal.Zero
	}

	s.state.AvailableCash = decimal.NewFromFloat(s.state.AvailableCash).Add(proceeds).InexactFloat64()
	s.state.Positions[symbol] = types.Position{}

	outcome.Executed = true
	outcome.Quantity = position.Quantity
	outcome.Fee = fee.InexactFloat64()
	outcome.Amount = proceeds.InexactFloat64()

	return outcome, nil
}
