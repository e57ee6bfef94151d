package engine

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-signals/internal/backtest"
	"github.com/rxtech-lab/argo-signals/internal/indicator"
	"github.com/rxtech-lab/argo-signals/internal/logger"
	"github.com/rxtech-lab/argo-signals/internal/portfolio"
	"github.com/rxtech-lab/argo-signals/internal/report"
	"github.com/rxtech-lab/argo-signals/internal/scoring"
	"github.com/rxtech-lab/argo-signals/internal/state"
	"github.com/rxtech-lab/argo-signals/internal/types"
	"github.com/rxtech-lab/argo-signals/internal/utils"
	"github.com/rxtech-lab/argo-signals/pkg/errors"
	"github.com/rxtech-lab/argo-signals/pkg/marketdata"
	"github.com/rxtech-lab/argo-signals/pkg/marketdata/provider"
	"github.com/rxtech-lab/argo-signals/pkg/marketdata/writer"
	"go.uber.org/zap"
)

// RunResult is everything a run produced.
type RunResult struct {
	RunID     string
	Date      time.Time
	Assets    []AssetResult
	Records   []types.TradeRecord
	State     types.PortfolioState
	Valuation Valuation
}

// Processed returns the number of assets that produced a trade record.
func (r RunResult) Processed() int {
	return len(r.Records)
}

// Skipped returns the assets left out of the run.
func (r RunResult) Skipped() []AssetResult {
	skipped := make([]AssetResult, 0)

	for _, a := range r.Assets {
		if a.Status == AssetSkipped {
			skipped = append(skipped, a)
		}
	}

	return skipped
}

// Engine runs one pass of the signal pipeline over the universe:
// load state, fetch history, then per asset compute indicators, backtest, score and
// apply the decision; finally save state, value the portfolio and write the artifacts.
type Engine struct {
	config     Config
	universe   types.Universe
	fetcher    *marketdata.Fetcher
	store      *state.Store
	indicators *indicator.Engine
	scorer     *scoring.Scorer
	backtester *backtest.Backtester
	sinks      []report.Sink
	log        *logger.Logger
	now        func() time.Time
	// newDataWriter builds the exporter of fetched bars when paths.market_data_parquet is set.
	newDataWriter func(path string) writer.MarketDataWriter
}

// Option configures an Engine.
type Option func(e *Engine)

// WithLogger sets the engine logger.
func WithLogger(log *logger.Logger) Option {
	return func(e *Engine) {
		e.log = log
	}
}

// WithSinks adds report sinks receiving the artifacts of each run.
func WithSinks(sinks ...report.Sink) Option {
	return func(e *Engine) {
		e.sinks = append(e.sinks, sinks...)
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// NewEngine creates an engine reading market data from p.
func NewEngine(config Config, p provider.Provider, opts ...Option) (*Engine, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	if p == nil {
		return nil, errors.New(errors.ErrCodeMissingParameter, "market data provider is required")
	}

	universe, err := config.BuildUniverse()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid universe", err)
	}

	registry, err := indicator.NewRegistryFromSettings(config.Indicators)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid indicator settings", err)
	}

	scorer := scoring.NewScorer(config.Rules, config.ConfidenceWeighting)

	backtester, err := backtest.NewBacktester(scorer, config.LookaheadDays)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		config:     config,
		universe:   universe,
		fetcher:    marketdata.NewFetcher(p, config.FetchConcurrency),
		indicators: indicator.NewEngine(registry),
		scorer:     scorer,
		backtester: backtester,
		log:        logger.NewNopLogger(),
		now:        time.Now,

		newDataWriter: writer.NewDuckDBWriter,
	}

	for _, opt := range opts {
		opt(e)
	}

	e.store = state.NewStore(config.Paths.State, universe, config.InitialCapital, e.log.Named("state"))

	return e, nil
}

// Universe returns the assets processed by Run.
func (e *Engine) Universe() types.Universe {
	return e.universe
}

// Config returns the engine configuration.
func (e *Engine) Config() Config {
	return e.config
}

// Close releases the report sinks and the market data provider when it holds resources.
func (e *Engine) Close() error {
	var first error

	for _, sink := range e.sinks {
		if err := sink.Close(); err != nil && first == nil {
			first = err
		}
	}

	if closer, ok := e.fetcher.Provider().(io.Closer); ok {
		if err := closer.Close(); err != nil && first == nil {
			first = err
		}
	}

	return first
}

// Run executes one pass over the universe. Per-asset failures are logged and skipped.
// Only a failure to load or save the state snapshot, a cancelled context or an aborting
// callback fails the run; none of these leave a partially saved run behind.
func (e *Engine) Run(ctx context.Context, callbacks LifecycleCallbacks) (result RunResult, err error) {
	now := e.now()
	result = RunResult{
		RunID: uuid.New().String(),
		Date:  now,
	}

	defer func() {
		if callbacks.OnRunEnd != nil {
			(*callbacks.OnRunEnd)(result.RunID, err)
		}
	}()

	log := e.log.With(zap.String("run_id", result.RunID))

	current, err := e.store.Load()
	if err != nil {
		return result, err
	}

	simulator, err := portfolio.NewSimulator(current, e.config.SimulatorPolicy(), e.config.CommissionFee())
	if err != nil {
		return result, err
	}

	assets := e.universe.Assets()

	if callbacks.OnRunStart != nil {
		if err := (*callbacks.OnRunStart)(result.RunID, len(assets)); err != nil {
			return result, fmt.Errorf("run aborted: %w", err)
		}
	}

	log.Info("Run started",
		zap.Int("assets", len(assets)),
		zap.Float64("available_cash", current.AvailableCash),
		zap.String("weighting", string(e.scorer.Weighting())),
	)

	histories, err := e.prefetch(ctx, now, callbacks)
	if err != nil {
		return result, err
	}

	lastCloses := make(map[string]float64, len(assets))

	for index, asset := range assets {
		if err := ctx.Err(); err != nil {
			return result, fmt.Errorf("run cancelled: %w", err)
		}

		if callbacks.OnAssetStart != nil {
			if err := (*callbacks.OnAssetStart)(index, asset.Symbol, len(assets)); err != nil {
				return result, fmt.Errorf("run aborted: %w", err)
			}
		}

		history := histories[asset.Symbol]
		if last, ok := history.Series.Last(); ok {
			lastCloses[asset.Symbol] = last.Close
		}

		assetResult, record := e.processAsset(simulator, asset, history, now)
		result.Assets = append(result.Assets, assetResult)

		if record.IsSome() {
			result.Records = append(result.Records, record.Unwrap())
		}

		e.logAsset(log, assetResult)

		if callbacks.OnAssetEnd != nil {
			(*callbacks.OnAssetEnd)(index, assetResult)
		}
	}

	saved, err := e.store.Save(simulator.State())
	if err != nil {
		log.Error("Failed to save state snapshot", zap.String("path", e.store.Path()), zap.Error(err))

		return result, err
	}

	result.State = saved
	result.Valuation = Valuate(ctx, saved, e.universe, e.config.InitialCapital, e.fetcher.LatestPrice, lastCloses)

	for _, symbol := range result.Valuation.Unpriced {
		log.Warn("No price for open position, valued at cost", zap.String("symbol", symbol))
	}

	log.Info("Run finished",
		zap.Int("processed", result.Processed()),
		zap.Int("skipped", len(result.Skipped())),
		zap.Float64("available_cash", result.Valuation.Summary.AvailableCash),
		zap.Float64("portfolio_value", result.Valuation.Summary.PortfolioValue),
		zap.Float64("total_profit", result.Valuation.Summary.TotalProfit),
	)

	if err := e.writeReports(result); err != nil {
		log.Error("Failed to write run artifacts", zap.Error(err))

		return result, err
	}

	return result, nil
}

// prefetch downloads the history of the whole universe, optionally copying it to Parquet.
func (e *Engine) prefetch(ctx context.Context, now time.Time, callbacks LifecycleCallbacks) (map[string]marketdata.Result, error) {
	end := now
	start := now.AddDate(0, 0, -e.config.HistoryPeriodDays)

	var dataWriter writer.MarketDataWriter

	// The export is optional: its failures are logged and never keep an asset from trading.
	if path, err := e.config.Paths.MarketDataParquetPath().Take(); err == nil {
		w := e.newDataWriter(path)
		if err := w.Initialize(); err != nil {
			e.log.Warn("Failed to export market data", zap.String("path", path), zap.Error(err))
		} else {
			dataWriter = w
			defer dataWriter.Close()

			e.fetcher.ConfigWriter(dataWriter)
			defer e.fetcher.ConfigWriter(nil)
		}
	}

	var onProgress marketdata.OnFetchProgress
	if callbacks.OnFetchProgress != nil {
		onProgress = *callbacks.OnFetchProgress
	}

	histories, err := e.fetcher.Prefetch(ctx, e.universe.Symbols(), start, end, onProgress)
	if err != nil {
		return nil, err
	}

	if dataWriter != nil {
		if err := e.fetcher.WriteErr(); err != nil {
			e.log.Warn("Failed to export market data", zap.Error(err))

			return histories, nil
		}

		path, err := dataWriter.Finalize()
		if err != nil {
			e.log.Warn("Failed to export market data", zap.Error(err))
		} else {
			e.log.Info("Market data exported", zap.String("path", path))
		}
	}

	return histories, nil
}

// processAsset runs the per-asset pipeline. Either the decision is applied and a record is
// returned, or the asset is skipped and the simulator is left untouched.
func (e *Engine) processAsset(simulator *portfolio.Simulator, asset types.Asset, history marketdata.Result, now time.Time) (AssetResult, optional.Option[types.TradeRecord]) {
	result := AssetResult{Symbol: asset.Symbol, Status: AssetSkipped}

	if history.Err != nil {
		result.Err = history.Err

		return result, optional.None[types.TradeRecord]()
	}

	if len(history.Series) < e.config.MinHistoryBars {
		result.Err = errors.NewInsufficientDataErrorf(e.config.MinHistoryBars, len(history.Series), asset.Symbol,
			"%s has %d bars, %d required", asset.Symbol, len(history.Series), e.config.MinHistoryBars)

		return result, optional.None[types.TradeRecord]()
	}

	frame, err := e.indicators.Compute(history.Series)
	if err != nil {
		result.Err = err

		return result, optional.None[types.TradeRecord]()
	}

	result.Backtest = e.backtester.Run(frame)

	signal, err := e.scorer.Score(asset.Symbol, frame.Latest(), optional.Some(result.Backtest))
	if err != nil {
		result.Err = err

		return result, optional.None[types.TradeRecord]()
	}

	result.Signal = signal
	price := frame.Latest().Close

	outcome, err := simulator.ApplyDecision(asset, signal.Decision, signal.Confidence, price)
	result.Outcome = outcome

	if err != nil && !errors.HasCode(err, errors.ErrCodeSizingRejected) {
		result.Err = err

		return result, optional.None[types.TradeRecord]()
	}

	// A rejected BUY is still a decision of the run.
	result.Err = err
	result.Status = AssetProcessed

	return result, optional.Some(types.TradeRecord{
		Date:       now.Format(types.TradeDateLayout),
		Asset:      asset.Symbol,
		AssetClass: string(asset.Class),
		Decision:   signal.Decision,
		Confidence: signal.Confidence,
		Price:      utils.RoundHalfAway(price, 2),
	})
}

func (e *Engine) logAsset(log *logger.Logger, r AssetResult) {
	fields := []zap.Field{zap.String("symbol", r.Symbol)}

	switch {
	case r.Status == AssetSkipped && errors.IsAssetSkip(r.Err):
		log.Warn("Asset skipped", append(fields, zap.Error(r.Err))...)
	case r.Status == AssetSkipped:
		// not a data condition of the asset: worth a look even though the run goes on
		log.Error("Asset failed", append(fields, zap.Error(r.Err))...)
	case r.Outcome.Executed:
		log.Info("Trade executed", append(fields,
			zap.String("decision", string(r.Signal.Decision)),
			zap.Int("confidence", r.Signal.Confidence),
			zap.Float64("quantity", r.Outcome.Quantity),
			zap.Float64("price", r.Outcome.Price),
			zap.Float64("amount", r.Outcome.Amount),
			zap.Float64("fee", r.Outcome.Fee),
		)...)
	case r.Err != nil:
		log.Warn("Trade rejected", append(fields,
			zap.String("decision", string(r.Signal.Decision)),
			zap.Int("confidence", r.Signal.Confidence),
			zap.Error(r.Err),
		)...)
	default:
		log.Debug("No trade", append(fields,
			zap.String("decision", string(r.Signal.Decision)),
			zap.Int("confidence", r.Signal.Confidence),
			zap.Float64("buy_accuracy", r.Backtest.BuyAccuracy),
			zap.Float64("sell_accuracy", r.Backtest.SellAccuracy),
			zap.String("reason", r.Outcome.Reason),
		)...)
	}
}

// writeReports hands the run to every sink. All sinks are attempted; the first error is returned.
func (e *Engine) writeReports(result RunResult) error {
	runReport := types.RunReport{
		RunID:   result.RunID,
		Date:    result.Date,
		Records: result.Records,
		Details: result.Valuation.Details,
		Summary: result.Valuation.Summary,
	}

	var first error

	for _, sink := range e.sinks {
		if err := sink.Write(runReport); err != nil && first == nil {
			first = err
		}
	}

	return first
}
