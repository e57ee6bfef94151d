package portfolio

import (
	"math/rand"
	"testing"

	"github.com/rxtech-lab/argo-signals/internal/portfolio/commission_fee"
	"github.com/rxtech-lab/argo-signals/internal/portfolio/sizing"
	"github.com/rxtech-lab/argo-signals/internal/types"
	"github.com/rxtech-lab/argo-signals/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type SimulatorTestSuite struct {
	suite.Suite
	stock types.Asset
	etf   types.Asset
}

func TestSimulatorSuite(t *testing.T) {
	suite.Run(t, new(SimulatorTestSuite))
}

func (suite *SimulatorTestSuite) SetupTest() {
	suite.stock = types.Asset{Symbol: "AAPL", Class: types.AssetClassStock, Fractional: true}
	suite.etf = types.Asset{Symbol: "SPY", Class: types.AssetClassETF, Fractional: false}
}

func defaultPolicy() Policy {
	return Policy{
		RiskFraction:       0.02,
		MinTradeConfidence: 30,
		Sizing:             sizing.DefaultPolicy(),
	}
}

func (suite *SimulatorTestSuite) newSimulator(state types.PortfolioState, fee commission_fee.CommissionFee) *Simulator {
	sim, err := NewSimulator(state, defaultPolicy(), fee)
	suite.Require().NoError(err)

	return sim
}

func (suite *SimulatorTestSuite) TestNewSimulatorValidation() {
	_, err := NewSimulator(types.PortfolioState{AvailableCash: -1}, defaultPolicy(), nil)
	suite.Error(err)

	policy := defaultPolicy()
	policy.RiskFraction = 0
	_, err = NewSimulator(types.NewPortfolioState(100, nil), policy, nil)
	suite.Error(err)
}

func (suite *SimulatorTestSuite) TestBuyWithoutFeeFromFreshState() {
	sim := suite.newSimulator(types.NewPortfolioState(10000, []string{"AAPL"}), commission_fee.NewZeroCommissionFee())

	outcome, err := sim.Buy("AAPL", 5, 50)
	suite.Require().NoError(err)
	suite.True(outcome.Executed)

	state := sim.State()
	suite.Equal(9750.0, state.AvailableCash)
	suite.Equal(types.Position{Quantity: 5, AveragePrice: 50}, state.Position("AAPL"))
}

func (suite *SimulatorTestSuite) TestSellWithFee() {
	state := types.NewPortfolioState(1000, []string{"AAPL"})
	state.Positions["AAPL"] = types.Position{Quantity: 10, AveragePrice: 100}

	sim := suite.newSimulator(state, commission_fee.NewProportionalCommissionFee(0.001))

	outcome, err := sim.ApplyDecision(suite.stock, types.DecisionSell, 10, 120)
	suite.Require().NoError(err)
	suite.True(outcome.Executed)
	suite.InDelta(1198.8, outcome.Amount, 1e-9)
	suite.InDelta(1.2, outcome.Fee, 1e-9)

	after := sim.State()
	suite.InDelta(2198.8, after.AvailableCash, 1e-9)
	suite.Equal(types.Position{}, after.Position("AAPL"))
}

func (suite *SimulatorTestSuite) TestBuyFractionalWithFee() {
	sim := suite.newSimulator(types.NewPortfolioState(10000, []string{"AAPL"}), commission_fee.NewProportionalCommissionFee(0.001))

	// budget 200, 200 / 180 = 1.11
	outcome, err := sim.ApplyDecision(suite.stock, types.DecisionBuy, 75, 180)
	suite.Require().NoError(err)
	suite.True(outcome.Executed)
	suite.Equal(1.11, outcome.Quantity)

	cost := 1.11 * 180 * 1.001
	state := sim.State()
	suite.InDelta(10000-cost, state.AvailableCash, 1e-9)
	suite.InDelta(1.11, state.Position("AAPL").Quantity, 1e-12)
	suite.InDelta(cost/1.11, state.Position("AAPL").AveragePrice, 1e-9)
}

func (suite *SimulatorTestSuite) TestBuyIntegerForETF() {
	sim := suite.newSimulator(types.NewPortfolioState(10000, []string{"SPY"}), commission_fee.NewZeroCommissionFee())

	outcome, err := sim.ApplyDecision(suite.etf, types.DecisionBuy, 50, 45)
	suite.Require().NoError(err)
	suite.Equal(4.0, outcome.Quantity)
	suite.Equal(9820.0, sim.State().AvailableCash)
}

func (suite *SimulatorTestSuite) TestBuyRejectedWhenETFTooExpensive() {
	sim := suite.newSimulator(types.NewPortfolioState(10000, []string{"SPY"}), commission_fee.NewZeroCommissionFee())

	outcome, err := sim.ApplyDecision(suite.etf, types.DecisionBuy, 50, 450)
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeSizingRejected))
	suite.False(outcome.Executed)
	suite.Equal(10000.0, sim.State().AvailableCash)
}

func (suite *SimulatorTestSuite) TestBuyRejectedWhenCostExceedsCash() {
	sim := suite.newSimulator(types.NewPortfolioState(100, []string{"AAPL"}), commission_fee.NewInteractiveBrokerCommissionFee())

	_, err := sim.Buy("AAPL", 1, 99.5)
	suite.True(errors.HasCode(err, errors.ErrCodeSizingRejected))
	suite.Equal(100.0, sim.State().AvailableCash)
	suite.Equal(types.Position{}, sim.State().Position("AAPL"))
}

func (suite *SimulatorTestSuite) TestBuyBelowThresholdIsNoop() {
	sim := suite.newSimulator(types.NewPortfolioState(10000, []string{"AAPL"}), nil)

	outcome, err := sim.ApplyDecision(suite.stock, types.DecisionBuy, 29, 100)
	suite.NoError(err)
	suite.False(outcome.Executed)
	suite.Equal(10000.0, sim.State().AvailableCash)
}

func (suite *SimulatorTestSuite) TestSellWithoutPositionIsNoop() {
	sim := suite.newSimulator(types.NewPortfolioState(10000, []string{"AAPL"}), nil)

	outcome, err := sim.ApplyDecision(suite.stock, types.DecisionSell, 100, 100)
	suite.NoError(err)
	suite.False(outcome.Executed)

	_, err = sim.Sell("AAPL", 100)
	suite.True(errors.HasCode(err, errors.ErrCodeNothingToLiquidate))
}

func (suite *SimulatorTestSuite) TestHoldIsNoop() {
	state := types.NewPortfolioState(10000, []string{"AAPL"})
	state.Positions["AAPL"] = types.Position{Quantity: 2, AveragePrice: 10}

	sim := suite.newSimulator(state, nil)
	outcome, err := sim.ApplyDecision(suite.stock, types.DecisionHold, 0, 0)
	suite.NoError(err)
	suite.False(outcome.Executed)
	suite.Equal(state, sim.State())
}

func (suite *SimulatorTestSuite) TestInvalidInputs() {
	sim := suite.newSimulator(types.NewPortfolioState(10000, []string{"AAPL"}), nil)

	_, err := sim.ApplyDecision(suite.stock, types.Decision("MAYBE"), 50, 10)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidDecision))

	_, err = sim.ApplyDecision(suite.stock, types.DecisionBuy, 50, -1)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidPrice))
}

func (suite *SimulatorTestSuite) TestWeightedAverageCost() {
	sim := suite.newSimulator(types.NewPortfolioState(100000, []string{"AAPL"}), nil)

	_, err := sim.Buy("AAPL", 3, 40)
	suite.Require().NoError(err)
	_, err = sim.Buy("AAPL", 7, 55.5)
	suite.Require().NoError(err)

	position := sim.State().Position("AAPL")
	suite.InDelta(10.0, position.Quantity, 1e-12)
	suite.InDelta((3*40+7*55.5)/10, position.AveragePrice, 1e-9)
}

func (suite *SimulatorTestSuite) TestStateIsCopied() {
	state := types.NewPortfolioState(10000, []string{"AAPL"})
	sim := suite.newSimulator(state, nil)

	_, err := sim.Buy("AAPL", 1, 10)
	suite.Require().NoError(err)
	suite.Equal(10000.0, state.AvailableCash)
	suite.Equal(types.Position{}, state.Position("AAPL"))
}

func (suite *SimulatorTestSuite) TestNeverNegative() {
	rng := rand.New(rand.NewSource(42))
	assets := []types.Asset{suite.stock, suite.etf}
	decisions := []types.Decision{types.DecisionBuy, types.DecisionSell, types.DecisionHold}
	fees := []commission_fee.CommissionFee{
		commission_fee.NewZeroCommissionFee(),
		commission_fee.NewProportionalCommissionFee(0.001),
		commission_fee.NewInteractiveBrokerCommissionFee(),
	}

	for _, fee := range fees {
		sim := suite.newSimulator(types.NewPortfolioState(500, []string{"AAPL", "SPY"}), fee)

		for i := 0; i < 2000; i++ {
			asset := assets[rng.Intn(len(assets))]
			decision := decisions[rng.Intn(len(decisions))]
			price := 0.01 + rng.Float64()*600
			confidence := rng.Intn(101)

			_, _ = sim.ApplyDecision(asset, decision, confidence, price)

			state := sim.State()
			suite.Require().GreaterOrEqual(state.AvailableCash, 0.0)

			for _, position := range state.Positions {
				suite.Require().GreaterOrEqual(position.Quantity, 0.0)
				if position.Quantity == 0 {
					suite.Require().Equal(0.0, position.AveragePrice)
				}
			}
		}
	}
}
