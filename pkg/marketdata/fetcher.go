package marketdata

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rxtech-lab/argo-signals/internal/types"
	"github.com/rxtech-lab/argo-signals/pkg/errors"
	"github.com/rxtech-lab/argo-signals/pkg/marketdata/provider"
	"github.com/rxtech-lab/argo-signals/pkg/marketdata/writer"
	"golang.org/x/sync/errgroup"
)

// Result is the outcome of fetching one symbol. Exactly one of Series and Err is meaningful.
type Result struct {
	Symbol string
	Series types.PriceSeries
	Err    error
}

// OnFetchProgress is called after each symbol completes. Calls are serialized and done is increasing.
type OnFetchProgress = func(done int, total int, symbol string)

// Fetcher downloads price history for many symbols in parallel.
// Fetching is read-only and keyed by symbol; failures are kept per symbol.
type Fetcher struct {
	provider    provider.Provider
	concurrency int
	writer      writer.MarketDataWriter
	writeMu     sync.Mutex
	writeErr    error
}

// NewFetcher creates a fetcher running at most concurrency requests at once.
func NewFetcher(p provider.Provider, concurrency int) *Fetcher {
	if concurrency < 1 {
		concurrency = 1
	}

	return &Fetcher{
		provider:    p,
		concurrency: concurrency,
	}
}

// ConfigWriter makes the fetcher copy every fetched bar to w. w must already be initialized.
// The first write error stops the copy; see WriteErr.
func (f *Fetcher) ConfigWriter(w writer.MarketDataWriter) {
	f.writeMu.Lock()
	defer f.writeMu.Unlock()

	f.writer = w
	f.writeErr = nil
}

// WriteErr returns the error that stopped copying bars to the configured writer, if any.
func (f *Fetcher) WriteErr() error {
	f.writeMu.Lock()
	defer f.writeMu.Unlock()

	return f.writeErr
}

// Provider returns the underlying provider.
func (f *Fetcher) Provider() provider.Provider {
	return f.provider
}

// Fetch returns the validated history of symbol. A provider error or an invalid series is reported
// as ErrCodeMarketDataFetchFailed or ErrCodeDataUnavailable so callers can skip the symbol.
// Failing to copy the series to the writer never fails the fetch.
func (f *Fetcher) Fetch(ctx context.Context, symbol string, start time.Time, end time.Time) (types.PriceSeries, error) {
	series, err := f.provider.GetHistory(ctx, symbol, start, end)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeMarketDataFetchFailed, err, "failed to fetch %s from %s", symbol, f.provider.Name())
	}

	if len(series) == 0 {
		return nil, errors.Newf(errors.ErrCodeDataUnavailable, "no history for %s", symbol)
	}

	if err := series.Validate(); err != nil {
		return nil, errors.Wrapf(errors.ErrCodeDataUnavailable, err, "invalid history for %s", symbol)
	}

	f.write(symbol, series)

	return series, nil
}

func (f *Fetcher) write(symbol string, series types.PriceSeries) {
	f.writeMu.Lock()
	defer f.writeMu.Unlock()

	if f.writer == nil || f.writeErr != nil {
		return
	}

	for _, bar := range series {
		if err := f.writer.Write(symbol, bar); err != nil {
			f.writeErr = errors.Wrapf(errors.ErrCodeMarketDataWriteFailed, err, "failed to store %s bars", symbol)

			return
		}
	}
}

// Prefetch fetches every symbol concurrently and returns one Result per symbol.
// Only cancellation of ctx is returned as an error.
func (f *Fetcher) Prefetch(ctx context.Context, symbols []string, start time.Time, end time.Time, onProgress OnFetchProgress) (map[string]Result, error) {
	results := make(map[string]Result, len(symbols))

	var mu sync.Mutex

	done := 0

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.concurrency)

	for _, symbol := range symbols {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			series, err := f.Fetch(gctx, symbol, start, end)

			mu.Lock()
			defer mu.Unlock()

			results[symbol] = Result{Symbol: symbol, Series: series, Err: err}
			done++

			if onProgress != nil {
				onProgress(done, len(symbols), symbol)
			}

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, fmt.Errorf("prefetch cancelled: %w", err)
	}

	return results, nil
}

// LatestPrice returns the most recent close of symbol.
func (f *Fetcher) LatestPrice(ctx context.Context, symbol string) (float64, error) {
	price, err := f.provider.LatestPrice(ctx, symbol)
	if err != nil {
		return 0, errors.Wrapf(errors.ErrCodeMarketDataFetchFailed, err, "failed to get latest price of %s", symbol)
	}

	if !(price > 0) {
		return 0, errors.Newf(errors.ErrCodeInvalidPrice, "latest price of %s is not positive: %f", symbol, price)
	}

	return price, nil
}
