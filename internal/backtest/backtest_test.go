package backtest

import (
	"math"
	"testing"
	"time"

	"github.com/rxtech-lab/argo-signals/internal/indicator"
	"github.com/rxtech-lab/argo-signals/internal/scoring"
	"github.com/rxtech-lab/argo-signals/internal/types"
	"github.com/stretchr/testify/suite"
)

type BacktestTestSuite struct {
	suite.Suite
	scorer *scoring.Scorer
}

func TestBacktestSuite(t *testing.T) {
	suite.Run(t, new(BacktestTestSuite))
}

func (suite *BacktestTestSuite) SetupTest() {
	suite.scorer = scoring.NewScorer(scoring.DefaultRules(), scoring.WeightingRaw)
}

// frameOf builds a frame whose every row has the given indicator values and the given closes.
func frameOf(closes []float64, snap types.IndicatorSnapshot) types.IndicatorFrame {
	n := len(closes)
	column := func(v float64) []float64 {
		out := make([]float64, n)
		for i := range out {
			out[i] = v
		}

		return out
	}

	return types.IndicatorFrame{
		Dates:  make([]time.Time, n),
		Closes: closes,
		Columns: map[types.IndicatorType][]float64{
			types.IndicatorEMAFast:        column(snap.EMAFast),
			types.IndicatorEMASlow:        column(snap.EMASlow),
			types.IndicatorTypeRSI:        column(snap.RSI),
			types.IndicatorMACDLine:       column(snap.MACDLine),
			types.IndicatorMACDSignal:     column(snap.MACDSignal),
			types.IndicatorBollingerUpper: column(snap.BollingerUpper),
			types.IndicatorBollingerLower: column(snap.BollingerLower),
		},
	}
}

var buyish = types.IndicatorSnapshot{EMAFast: 2, EMASlow: 1, RSI: 50, MACDLine: 1, MACDSignal: 0, BollingerUpper: 1000, BollingerLower: 1}

var sellish = types.IndicatorSnapshot{EMAFast: 1, EMASlow: 2, RSI: 50, MACDLine: 0, MACDSignal: 1, BollingerUpper: 1000, BollingerLower: 1}

func rising(n int) []float64 {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = float64(10 + i)
	}

	return closes
}

func (suite *BacktestTestSuite) TestNewBacktesterValidation() {
	_, err := NewBacktester(nil, 5)
	suite.Error(err)

	_, err = NewBacktester(suite.scorer, 0)
	suite.Error(err)

	b, err := NewBacktester(suite.scorer, DefaultLookahead)
	suite.NoError(err)
	suite.Equal(5, b.Lookahead())
}

func (suite *BacktestTestSuite) TestBuyCallsOnRisingSeries() {
	b, err := NewBacktester(suite.scorer, 5)
	suite.Require().NoError(err)

	result := b.Run(frameOf(rising(20), buyish))
	suite.Equal(15, result.BuyCalls)
	suite.Equal(15, result.BuyWins)
	suite.Equal(1.0, result.BuyAccuracy)
	suite.Equal(0, result.SellCalls)
	suite.Equal(types.NeutralAccuracy, result.SellAccuracy)
}

func (suite *BacktestTestSuite) TestSellCallsOnRisingSeriesLose() {
	b, err := NewBacktester(suite.scorer, 5)
	suite.Require().NoError(err)

	result := b.Run(frameOf(rising(20), sellish))
	suite.Equal(15, result.SellCalls)
	suite.Equal(0, result.SellWins)
	suite.Equal(0.0, result.SellAccuracy)
	suite.Equal(types.NeutralAccuracy, result.BuyAccuracy)
}

func (suite *BacktestTestSuite) TestFlatFutureIsNotAWin() {
	closes := []float64{10, 10, 10, 10}

	b, err := NewBacktester(suite.scorer, 1)
	suite.Require().NoError(err)

	buys := b.Run(frameOf(closes, buyish))
	suite.Equal(3, buys.BuyCalls)
	suite.Equal(0.0, buys.BuyAccuracy)

	sells := b.Run(frameOf(closes, sellish))
	suite.Equal(0.0, sells.SellAccuracy)
}

func (suite *BacktestTestSuite) TestUndefinedRowsSkipped() {
	frame := frameOf(rising(12), buyish)
	for i := 0; i < 6; i++ {
		frame.Columns[types.IndicatorTypeRSI][i] = math.NaN()
	}

	b, err := NewBacktester(suite.scorer, 5)
	suite.Require().NoError(err)

	result := b.Run(frame)
	suite.Equal(1, result.BuyCalls)
}

func (suite *BacktestTestSuite) TestShortSeriesIsNeutral() {
	b, err := NewBacktester(suite.scorer, 5)
	suite.Require().NoError(err)

	result := b.Run(frameOf(rising(5), buyish))
	suite.Equal(types.NeutralBacktestResult(), result)
}

func (suite *BacktestTestSuite) TestAccuracyBoundsOnComputedFrame() {
	closes := make([]float64, 150)
	for i := range closes {
		closes[i] = 100 + 15*math.Sin(float64(i)/4) + 5*math.Cos(float64(i)/1.7)
	}

	series := make(types.PriceSeries, len(closes))
	for i, c := range closes {
		series[i] = types.PriceBar{Date: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i), Close: c}
	}

	registry, err := indicator.NewRegistryFromSettings(indicator.DefaultSettings())
	suite.Require().NoError(err)

	frame, err := indicator.NewEngine(registry).Compute(series)
	suite.Require().NoError(err)

	b, err := NewBacktester(suite.scorer, DefaultLookahead)
	suite.Require().NoError(err)

	result := b.Run(frame)
	suite.Positive(result.BuyCalls + result.SellCalls)
	suite.GreaterOrEqual(result.BuyAccuracy, 0.0)
	suite.LessOrEqual(result.BuyAccuracy, 1.0)
	suite.GreaterOrEqual(result.SellAccuracy, 0.0)
	suite.LessOrEqual(result.SellAccuracy, 1.0)
}
