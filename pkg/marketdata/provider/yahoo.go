package provider

import (
	"context"
	"fmt"
	"time"

	finance "github.com/piquette/finance-go"
	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"
	"github.com/piquette/finance-go/quote"
	"github.com/rxtech-lab/argo-signals/internal/types"
)

// YahooChartIterator is the subset of the finance-go chart iterator used here.
type YahooChartIterator interface {
	Next() bool
	Bar() *finance.ChartBar
	Err() error
}

// YahooAPIClient is the subset of the Yahoo Finance API used here.
type YahooAPIClient interface {
	Chart(params *chart.Params) YahooChartIterator
	Quote(symbol string) (*finance.Quote, error)
}

type yahooAPI struct{}

func (yahooAPI) Chart(params *chart.Params) YahooChartIterator {
	return chart.Get(params)
}

func (yahooAPI) Quote(symbol string) (*finance.Quote, error) {
	return quote.Get(symbol)
}

// YahooClient reads daily bars from the Yahoo Finance chart API.
type YahooClient struct {
	api YahooAPIClient
}

// NewYahooClient creates a Yahoo Finance provider. It needs no credentials.
func NewYahooClient() Provider {
	return NewYahooClientWithAPI(yahooAPI{})
}

// NewYahooClientWithAPI creates a Yahoo Finance provider over api.
func NewYahooClientWithAPI(api YahooAPIClient) *YahooClient {
	return &YahooClient{api: api}
}

func (c *YahooClient) Name() ProviderType {
	return ProviderYahoo
}

// GetHistory returns daily bars from the chart API. The context is checked between bars.
func (c *YahooClient) GetHistory(ctx context.Context, symbol string, start time.Time, end time.Time) (types.PriceSeries, error) {
	//nolint:exhaustruct // third-party struct with many optional fields
	params := &chart.Params{
		Symbol:   symbol,
		Start:    datetime.New(&start),
		End:      datetime.New(&end),
		Interval: datetime.OneDay,
	}

	iter := c.api.Chart(params)
	series := make(types.PriceSeries, 0)

	for iter.Next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		bar := iter.Bar()
		if bar == nil {
			continue
		}

		series = append(series, types.PriceBar{
			Date:   time.Unix(int64(bar.Timestamp), 0).UTC(),
			Open:   bar.Open.InexactFloat64(),
			High:   bar.High.InexactFloat64(),
			Low:    bar.Low.InexactFloat64(),
			Close:  bar.Close.InexactFloat64(),
			Volume: float64(bar.Volume),
		})
	}

	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to get historical data for %s: %w", symbol, err)
	}

	return normalize(series), nil
}

// LatestPrice returns the regular market price, falling back to the last daily close.
func (c *YahooClient) LatestPrice(ctx context.Context, symbol string) (float64, error) {
	q, err := c.api.Quote(symbol)
	if err == nil && q != nil && q.RegularMarketPrice > 0 {
		return q.RegularMarketPrice, nil
	}

	end := time.Now()

	series, histErr := c.GetHistory(ctx, symbol, end.Add(-latestPriceWindow), end)
	if histErr != nil {
		if err != nil {
			return 0, fmt.Errorf("failed to get quote for %s: %w; history fallback: %v", symbol, err, histErr)
		}

		return 0, histErr
	}

	return lastClose(symbol, series)
}
