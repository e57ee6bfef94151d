package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-signals/internal/logger"
	"github.com/rxtech-lab/argo-signals/internal/report"
	"github.com/rxtech-lab/argo-signals/internal/scoring"
	"github.com/rxtech-lab/argo-signals/internal/state"
	"github.com/rxtech-lab/argo-signals/internal/types"
	"github.com/rxtech-lab/argo-signals/mocks"
	"github.com/rxtech-lab/argo-signals/pkg/errors"
	"github.com/rxtech-lab/argo-signals/pkg/marketdata/provider"
	"github.com/rxtech-lab/argo-signals/pkg/marketdata/writer"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type EngineTestSuite struct {
	suite.Suite
	ctrl     *gomock.Controller
	provider *mocks.MockProvider
	dir      string
	now      time.Time
}

func TestEngineSuite(t *testing.T) {
	suite.Run(t, new(EngineTestSuite))
}

func (suite *EngineTestSuite) SetupTest() {
	suite.ctrl = gomock.NewController(suite.T())
	suite.provider = mocks.NewMockProvider(suite.ctrl)
	suite.provider.EXPECT().Name().Return(provider.ProviderYahoo).AnyTimes()
	suite.dir = suite.T().TempDir()
	suite.now = time.Date(2024, 6, 3, 22, 0, 0, 0, time.UTC)
}

func (suite *EngineTestSuite) TearDownTest() {
	suite.ctrl.Finish()
}

func (suite *EngineTestSuite) config(stocks []string, etfs []string) Config {
	config := DefaultConfig()
	config.Universe = UniverseConfig{Stocks: stocks, ETFs: etfs}
	config.ConfidenceWeighting = scoring.WeightingRaw
	config.Paths.State = filepath.Join(suite.dir, "state", "state.json")
	config.Paths.TradeHistory = filepath.Join(suite.dir, "trade_history.csv")
	config.Paths.DailySignals = filepath.Join(suite.dir, "daily_signals.csv")
	config.Paths.PortfolioDetails = filepath.Join(suite.dir, "portfolio_details.csv")
	config.Paths.PortfolioSummary = filepath.Join(suite.dir, "portfolio_summary.csv")

	return config
}

func (suite *EngineTestSuite) engine(config Config) *Engine {
	e, err := NewEngine(config, suite.provider, WithClock(func() time.Time { return suite.now }), WithSinks(NewSinks(config)...))
	suite.Require().NoError(err)

	return e
}

// seriesFrom puts closes on consecutive days ending the day before now.
func (suite *EngineTestSuite) seriesFrom(closes []float64) types.PriceSeries {
	start := suite.now.AddDate(0, 0, -len(closes))
	series := mocks.LinearSeries(start, len(closes), 1, 0)

	for i, c := range closes {
		series[i].Open, series[i].High, series[i].Low, series[i].Close = c, c, c, c
	}

	return series
}

// risingCloses grows 1% a day with a 0.5% dip every fifth day. The last of 126 bars is a dip.
// RSI is overbought while both crossovers are bullish: BUY with confidence 50.
func risingCloses() []float64 {
	closes := []float64{100}
	for i := 1; i < 126; i++ {
		factor := 1.01
		if i%5 == 0 {
			factor = 0.995
		}

		closes = append(closes, closes[i-1]*factor)
	}

	return closes
}

// decliningCloses falls at an accelerating pace around an alternating ±2 swing.
// Both crossovers are bearish with RSI and the bands neutral: SELL with confidence 50.
func decliningCloses() []float64 {
	closes := make([]float64, 126)
	for i := range closes {
		swing := -2.0
		if i%2 == 1 {
			swing = 2.0
		}

		closes[i] = 100 - 0.003*float64(i*i) + swing
	}

	return closes
}

// growthCloses never falls, so RSI stays undefined.
func growthCloses() []float64 {
	closes := []float64{100}
	for i := 1; i < 100; i++ {
		closes = append(closes, closes[i-1]*1.01)
	}

	return closes
}

func (suite *EngineTestSuite) TestRunBuyAndSkips() {
	config := suite.config([]string{"AAPL", "MSFT"}, []string{"SPY"})
	rising := suite.seriesFrom(risingCloses())
	last, _ := rising.Last()

	suite.provider.EXPECT().GetHistory(gomock.Any(), "AAPL", suite.now.AddDate(0, 0, -183), suite.now).Return(rising, nil)
	suite.provider.EXPECT().GetHistory(gomock.Any(), "MSFT", gomock.Any(), gomock.Any()).Return(nil, fmt.Errorf("rate limited"))
	suite.provider.EXPECT().GetHistory(gomock.Any(), "SPY", gomock.Any(), gomock.Any()).Return(suite.seriesFrom(risingCloses()[:30]), nil)
	suite.provider.EXPECT().LatestPrice(gomock.Any(), "AAPL").Return(250.0, nil)

	started, ended, fetched := 0, 0, 0

	var runEndErr error

	onRunStart := OnRunStartCallback(func(runID string, total int) error {
		suite.NotEmpty(runID)
		suite.Equal(3, total)

		return nil
	})
	onRunEnd := OnRunEndCallback(func(_ string, err error) { runEndErr = err })
	onFetch := OnFetchProgressCallback(func(_ int, _ int, _ string) { fetched++ })
	onAssetStart := OnAssetStartCallback(func(_ int, _ string, _ int) error {
		started++

		return nil
	})
	onAssetEnd := OnAssetEndCallback(func(_ int, _ AssetResult) { ended++ })

	result, err := suite.engine(config).Run(context.Background(), LifecycleCallbacks{
		OnRunStart:      &onRunStart,
		OnRunEnd:        &onRunEnd,
		OnFetchProgress: &onFetch,
		OnAssetStart:    &onAssetStart,
		OnAssetEnd:      &onAssetEnd,
	})
	suite.Require().NoError(err)
	suite.NoError(runEndErr)
	suite.Equal(3, started)
	suite.Equal(3, ended)
	suite.Equal(3, fetched)

	// AAPL is traded, MSFT fails to fetch, SPY has too little history
	suite.Require().Len(result.Records, 1)
	suite.Equal(types.TradeRecord{
		Date:       "2024-06-03 22:00",
		Asset:      "AAPL",
		AssetClass: "Stock",
		Decision:   types.DecisionBuy,
		Confidence: 50,
		Price:      238.62,
	}, result.Records[0])

	skipped := result.Skipped()
	suite.Require().Len(skipped, 2)
	suite.Equal("MSFT", skipped[0].Symbol)
	suite.Equal(errors.ErrCodeMarketDataFetchFailed, errors.GetCode(skipped[0].Err))
	suite.Equal("SPY", skipped[1].Symbol)
	suite.True(errors.IsInsufficientDataError(skipped[1].Err))

	// 2% of 10000 at the last close, fractional to 2 places, fee added to cost
	aapl := result.State.Positions["AAPL"]
	suite.Equal(0.84, aapl.Quantity)
	cost := 0.84 * last.Close * 1.001
	suite.InDelta(10000-cost, result.State.AvailableCash, 0.005)
	suite.InDelta(cost/0.84, aapl.AveragePrice, 0.005)

	suite.Require().Len(result.Valuation.Details, 1)
	detail := result.Valuation.Details[0]
	suite.Equal("Stock", detail.Type)
	suite.Equal(250.0, detail.CurrentPrice)
	suite.Equal(210.0, detail.CurrentValue)
	suite.Require().NotNil(detail.ReturnPct)
	suite.InDelta(result.Valuation.Summary.AvailableCash+210, result.Valuation.Summary.PortfolioValue, 0.001)
	suite.InDelta(result.Valuation.Summary.PortfolioValue-10000, result.Valuation.Summary.TotalProfit, 0.001)

	// the persisted snapshot reloads to the returned state
	reloaded, err := state.NewStore(config.Paths.State, suite.engine(config).Universe(), config.InitialCapital, nil).Load()
	suite.Require().NoError(err)
	suite.Equal(result.State, reloaded)

	reader := report.NewReader(config.Paths.Paths)
	history, err := reader.TradeHistory()
	suite.Require().NoError(err)
	suite.Len(history, 1)

	summary, err := reader.PortfolioSummary()
	suite.Require().NoError(err)
	suite.Equal(result.Valuation.Summary, summary)
}

func (suite *EngineTestSuite) TestRunSellLiquidates() {
	config := suite.config([]string{"AAPL"}, nil)
	e := suite.engine(config)

	_, err := state.NewStore(config.Paths.State, e.Universe(), config.InitialCapital, nil).Save(types.PortfolioState{
		AvailableCash: 5000,
		Positions:     map[string]types.Position{"AAPL": {Quantity: 10, AveragePrice: 100}},
	})
	suite.Require().NoError(err)

	suite.provider.EXPECT().GetHistory(gomock.Any(), "AAPL", gomock.Any(), gomock.Any()).Return(suite.seriesFrom(decliningCloses()), nil)

	result, err := e.Run(context.Background(), LifecycleCallbacks{})
	suite.Require().NoError(err)

	suite.Require().Len(result.Assets, 1)
	asset := result.Assets[0]
	suite.Equal(types.DecisionSell, asset.Signal.Decision)
	suite.Equal(50, asset.Signal.Confidence)
	suite.True(asset.Outcome.Executed)

	// 10 * 55.125 less 0.1%
	suite.Equal(types.Position{}, result.State.Positions["AAPL"])
	suite.Equal(5550.7, result.State.AvailableCash)
	suite.Empty(result.Valuation.Details)
	suite.Equal(5550.7, result.Valuation.Summary.PortfolioValue)
	suite.Equal(-4449.3, result.Valuation.Summary.TotalProfit)
}

func (suite *EngineTestSuite) TestRunSellWithoutPositionIsRecorded() {
	config := suite.config([]string{"AAPL"}, nil)

	suite.provider.EXPECT().GetHistory(gomock.Any(), "AAPL", gomock.Any(), gomock.Any()).Return(suite.seriesFrom(decliningCloses()), nil)

	result, err := suite.engine(config).Run(context.Background(), LifecycleCallbacks{})
	suite.Require().NoError(err)

	suite.Require().Len(result.Records, 1)
	suite.Equal(types.DecisionSell, result.Records[0].Decision)
	suite.False(result.Assets[0].Outcome.Executed)
	suite.Equal(10000.0, result.State.AvailableCash)
}

func (suite *EngineTestSuite) TestRunSkipsUndefinedIndicators() {
	config := suite.config([]string{"AAPL"}, nil)

	suite.provider.EXPECT().GetHistory(gomock.Any(), "AAPL", gomock.Any(), gomock.Any()).Return(suite.seriesFrom(growthCloses()), nil)

	result, err := suite.engine(config).Run(context.Background(), LifecycleCallbacks{})
	suite.Require().NoError(err)

	suite.Empty(result.Records)
	suite.Require().Len(result.Skipped(), 1)
	suite.Equal(errors.ErrCodeIndicatorUndefined, errors.GetCode(result.Skipped()[0].Err))
	suite.Equal(10000.0, result.State.AvailableCash)
	suite.FileExists(config.Paths.State)
}

func (suite *EngineTestSuite) TestRunWeightedConfidenceNeverExceedsRaw() {
	config := suite.config([]string{"AAPL"}, nil)
	config.ConfidenceWeighting = scoring.WeightingBacktestWeighted

	suite.provider.EXPECT().GetHistory(gomock.Any(), "AAPL", gomock.Any(), gomock.Any()).Return(suite.seriesFrom(risingCloses()), nil)
	suite.provider.EXPECT().LatestPrice(gomock.Any(), "AAPL").Return(240.0, nil).AnyTimes()

	result, err := suite.engine(config).Run(context.Background(), LifecycleCallbacks{})
	suite.Require().NoError(err)

	asset := result.Assets[0]
	suite.LessOrEqual(asset.Signal.Confidence, 50)
	suite.GreaterOrEqual(asset.Backtest.BuyAccuracy, 0.0)
	suite.LessOrEqual(asset.Backtest.BuyAccuracy, 1.0)
	suite.GreaterOrEqual(result.State.AvailableCash, 0.0)
}

func (suite *EngineTestSuite) TestRunStateWriteFailureIsFatal() {
	config := suite.config([]string{"AAPL"}, nil)

	suite.provider.EXPECT().GetHistory(gomock.Any(), "AAPL", gomock.Any(), gomock.Any()).Return(suite.seriesFrom(decliningCloses()), nil)

	// a regular file where the state directory should be makes the save fail
	onAssetEnd := OnAssetEndCallback(func(_ int, _ AssetResult) {
		suite.Require().NoError(os.WriteFile(filepath.Dir(config.Paths.State), []byte("x"), 0o644))
	})

	_, err := suite.engine(config).Run(context.Background(), LifecycleCallbacks{OnAssetEnd: &onAssetEnd})

	suite.Require().Error(err)
	suite.Equal(errors.ErrCodeStateWriteFailed, errors.GetCode(err))
	suite.NoFileExists(config.Paths.TradeHistory)
}

func (suite *EngineTestSuite) TestRunAbortedByCallback() {
	config := suite.config([]string{"AAPL"}, nil)

	onRunStart := OnRunStartCallback(func(_ string, _ int) error { return fmt.Errorf("market closed") })

	_, err := suite.engine(config).Run(context.Background(), LifecycleCallbacks{OnRunStart: &onRunStart})

	suite.Error(err)
	suite.NoFileExists(config.Paths.State)
}

func (suite *EngineTestSuite) TestRunCancelled() {
	config := suite.config([]string{"AAPL"}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := suite.engine(config).Run(ctx, LifecycleCallbacks{})

	suite.Error(err)
	suite.NoFileExists(config.Paths.State)
}

func (suite *EngineTestSuite) TestRunWritesParquetOutputs() {
	config := suite.config([]string{"AAPL"}, nil)
	config.Paths.HistoryParquet = filepath.Join(suite.dir, "trade_history.parquet")
	config.Paths.MarketDataParquet = filepath.Join(suite.dir, "market_data.parquet")

	suite.provider.EXPECT().GetHistory(gomock.Any(), "AAPL", gomock.Any(), gomock.Any()).Return(suite.seriesFrom(decliningCloses()), nil)

	_, err := suite.engine(config).Run(context.Background(), LifecycleCallbacks{})
	suite.Require().NoError(err)

	suite.FileExists(config.Paths.HistoryParquet)
	suite.FileExists(config.Paths.MarketDataParquet)

	records, err := report.NewHistoryStore(config.Paths.HistoryParquet).Records(optional.Some("AAPL"))
	suite.Require().NoError(err)
	suite.Len(records, 1)
}

// rejectingWriter fails every bar, like an export target whose disk is full.
type rejectingWriter struct {
	writes    int
	finalized bool
	closed    bool
}

func (w *rejectingWriter) Initialize() error { return nil }

func (w *rejectingWriter) Write(_ string, _ types.PriceBar) error {
	w.writes++

	return fmt.Errorf("disk full")
}

func (w *rejectingWriter) Finalize() (string, error) {
	w.finalized = true

	return "", nil
}

func (w *rejectingWriter) Close() error {
	w.closed = true

	return nil
}

func (w *rejectingWriter) GetOutputPath() string { return "" }

func (suite *EngineTestSuite) TestRunMarketDataExportFailureStillTrades() {
	config := suite.config([]string{"AAPL", "MSFT"}, nil)
	config.Paths.MarketDataParquet = filepath.Join(suite.dir, "market_data.parquet")

	suite.provider.EXPECT().GetHistory(gomock.Any(), "AAPL", gomock.Any(), gomock.Any()).Return(suite.seriesFrom(decliningCloses()), nil)
	suite.provider.EXPECT().GetHistory(gomock.Any(), "MSFT", gomock.Any(), gomock.Any()).Return(suite.seriesFrom(decliningCloses()), nil)

	core, logs := observer.New(zap.WarnLevel)
	w := &rejectingWriter{}

	e, err := NewEngine(config, suite.provider,
		WithClock(func() time.Time { return suite.now }),
		WithLogger(&logger.Logger{Logger: zap.New(core)}),
	)
	suite.Require().NoError(err)
	e.newDataWriter = func(string) writer.MarketDataWriter { return w }

	result, err := e.Run(context.Background(), LifecycleCallbacks{})
	suite.Require().NoError(err)

	suite.Len(result.Records, 2)
	suite.Empty(result.Skipped())
	suite.Equal(1, w.writes)
	suite.False(w.finalized)
	suite.True(w.closed)
	suite.NoFileExists(config.Paths.MarketDataParquet)
	suite.Equal(1, logs.FilterMessage("Failed to export market data").Len())
}

func (suite *EngineTestSuite) TestRunMarketDataExportUnwritablePath() {
	config := suite.config([]string{"AAPL"}, nil)
	blocker := filepath.Join(suite.dir, "blocker")
	suite.Require().NoError(os.WriteFile(blocker, []byte("x"), 0o644))
	config.Paths.MarketDataParquet = filepath.Join(blocker, "market_data.parquet")

	suite.provider.EXPECT().GetHistory(gomock.Any(), "AAPL", gomock.Any(), gomock.Any()).Return(suite.seriesFrom(decliningCloses()), nil)

	result, err := suite.engine(config).Run(context.Background(), LifecycleCallbacks{})
	suite.Require().NoError(err)

	suite.Len(result.Records, 1)
	suite.NoFileExists(config.Paths.MarketDataParquet)
}

func (suite *EngineTestSuite) TestRunLogsSkipsAndFailures() {
	config := suite.config([]string{"AAPL", "MSFT"}, nil)

	suite.provider.EXPECT().GetHistory(gomock.Any(), "AAPL", gomock.Any(), gomock.Any()).Return(suite.seriesFrom(decliningCloses()), nil)
	suite.provider.EXPECT().GetHistory(gomock.Any(), "MSFT", gomock.Any(), gomock.Any()).Return(nil, fmt.Errorf("rate limited"))

	core, logs := observer.New(zap.WarnLevel)
	e, err := NewEngine(config, suite.provider,
		WithClock(func() time.Time { return suite.now }),
		WithLogger(&logger.Logger{Logger: zap.New(core)}),
	)
	suite.Require().NoError(err)

	_, err = e.Run(context.Background(), LifecycleCallbacks{})
	suite.Require().NoError(err)

	skipped := logs.FilterMessage("Asset skipped").All()
	suite.Require().Len(skipped, 1)
	suite.Equal("MSFT", skipped[0].ContextMap()["symbol"])
	suite.Equal(0, logs.FilterMessage("Asset failed").Len())

	e.logAsset(e.log, AssetResult{Symbol: "AAPL", Status: AssetSkipped, Err: errors.New(errors.ErrCodeInvalidPrice, "price is not positive")})
	suite.Equal(1, logs.FilterMessage("Asset failed").Len())
}

// closingProvider is a provider holding resources until closed.
type closingProvider struct {
	*mocks.MockProvider
	closed int
}

func (p *closingProvider) Close() error {
	p.closed++

	return nil
}

func (suite *EngineTestSuite) TestCloseReleasesProvider() {
	p := &closingProvider{MockProvider: suite.provider}

	e, err := NewEngine(suite.config([]string{"AAPL"}, nil), p)
	suite.Require().NoError(err)

	suite.NoError(e.Close())
	suite.Equal(1, p.closed)

	// providers without resources are left alone
	e = suite.engine(suite.config([]string{"AAPL"}, nil))
	suite.NoError(e.Close())
}

func (suite *EngineTestSuite) TestNewEngineRequiresProvider() {
	_, err := NewEngine(suite.config([]string{"AAPL"}, nil), nil)

	suite.Equal(errors.ErrCodeMissingParameter, errors.GetCode(err))
}
