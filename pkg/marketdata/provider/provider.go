package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rxtech-lab/argo-signals/internal/types"
)

// ProviderType defines the type of market data provider.
type ProviderType string

const (
	ProviderYahoo   ProviderType = "yahoo"
	ProviderPolygon ProviderType = "polygon"
	ProviderBinance ProviderType = "binance"
	// ProviderParquet replays a market data export of a previous run.
	ProviderParquet ProviderType = "parquet"
)

// latestPriceWindow is how far back LatestPrice looks for a daily bar.
const latestPriceWindow = 10 * 24 * time.Hour

// Provider returns daily price history for a symbol.
type Provider interface {
	// Name returns the provider type.
	Name() ProviderType
	// GetHistory returns the daily bars of symbol between start and end, oldest first.
	// example:
	// GetHistory(ctx, "AAPL", time.Now().AddDate(0, -6, 0), time.Now())
	GetHistory(ctx context.Context, symbol string, start time.Time, end time.Time) (types.PriceSeries, error)
	// LatestPrice returns the most recent close of symbol.
	LatestPrice(ctx context.Context, symbol string) (float64, error)
}

// Config selects and configures a provider.
type Config struct {
	Type          ProviderType `validate:"required,oneof=yahoo polygon binance parquet"`
	PolygonApiKey string       `validate:"required_if=Type polygon"`
	ParquetPath   string       `validate:"required_if=Type parquet"`
}

// NewMarketDataProvider creates a new market data provider based on the provider type.
func NewMarketDataProvider(config Config) (Provider, error) {
	if err := validator.New().Struct(config); err != nil {
		return nil, fmt.Errorf("invalid provider configuration: %w", err)
	}

	switch config.Type {
	case ProviderYahoo:
		return NewYahooClient(), nil
	case ProviderBinance:
		return NewBinanceClient()
	case ProviderPolygon:
		return NewPolygonClient(config.PolygonApiKey)
	case ProviderParquet:
		return NewParquetClient(config.ParquetPath)
	default:
		return nil, fmt.Errorf("unsupported market data provider: %s", config.Type)
	}
}

// lastClose returns the close of the last bar of series.
func lastClose(symbol string, series types.PriceSeries) (float64, error) {
	bar, ok := series.Last()
	if !ok {
		return 0, fmt.Errorf("no recent price for %s", symbol)
	}

	return bar.Close, nil
}

// normalize truncates bar dates to the day, keeps the last bar of each day, and drops
// out-of-order bars and non-positive closes.
func normalize(series types.PriceSeries) types.PriceSeries {
	out := make(types.PriceSeries, 0, len(series))

	for _, bar := range series {
		if !(bar.Close > 0) {
			continue
		}

		bar.Date = types.TruncateDay(bar.Date)

		if n := len(out); n > 0 {
			prev := out[n-1].Date
			if bar.Date.Equal(prev) {
				out[n-1] = bar

				continue
			}

			if bar.Date.Before(prev) {
				continue
			}
		}

		out = append(out, bar)
	}

	return out
}
