package provider

import (
	"context"
	"fmt"
	"time"

	polygon "github.com/polygon-io/client-go/rest"
	"github.com/polygon-io/client-go/rest/models"
	"github.com/rxtech-lab/argo-signals/internal/types"
)

// PolygonAggsIterator is the subset of the polygon aggregates iterator used here.
type PolygonAggsIterator interface {
	Next() bool
	Item() models.Agg
	Err() error
}

// PolygonAPIClient is the subset of the polygon REST client used here.
type PolygonAPIClient interface {
	ListAggs(ctx context.Context, params *models.ListAggsParams, options ...models.RequestOption) PolygonAggsIterator
}

type polygonAPI struct {
	client *polygon.Client
}

func (p *polygonAPI) ListAggs(ctx context.Context, params *models.ListAggsParams, options ...models.RequestOption) PolygonAggsIterator {
	return p.client.ListAggs(ctx, params, options...)
}

type PolygonClient struct {
	api PolygonAPIClient
}

func NewPolygonClient(apiKey string) (Provider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("apiKey is required")
	}

	return NewPolygonClientWithAPI(&polygonAPI{client: polygon.New(apiKey)}), nil
}

// NewPolygonClientWithAPI creates a polygon provider over api.
func NewPolygonClientWithAPI(api PolygonAPIClient) *PolygonClient {
	return &PolygonClient{api: api}
}

func (c *PolygonClient) Name() ProviderType {
	return ProviderPolygon
}

// GetHistory lists daily aggregates for symbol.
func (c *PolygonClient) GetHistory(ctx context.Context, symbol string, start time.Time, end time.Time) (types.PriceSeries, error) {
	//nolint:exhaustruct // third-party struct with many optional fields
	params := models.ListAggsParams{
		Ticker:     symbol,
		Multiplier: 1,
		Timespan:   models.Day,
		From:       models.Millis(start),
		To:         models.Millis(end),
	}.WithOrder(models.Asc).WithLimit(50000)

	iter := c.api.ListAggs(ctx, params)
	series := make(types.PriceSeries, 0)

	for iter.Next() {
		agg := iter.Item()
		series = append(series, types.PriceBar{
			Date:   time.Time(agg.Timestamp).UTC(),
			Open:   agg.Open,
			High:   agg.High,
			Low:    agg.Low,
			Close:  agg.Close,
			Volume: agg.Volume,
		})
	}

	if iter.Err() != nil {
		return nil, fmt.Errorf("error iterating polygon aggregates for %s: %w", symbol, iter.Err())
	}

	return normalize(series), nil
}

// LatestPrice returns the close of the most recent daily aggregate.
func (c *PolygonClient) LatestPrice(ctx context.Context, symbol string) (float64, error) {
	end := time.Now()

	series, err := c.GetHistory(ctx, symbol, end.Add(-latestPriceWindow), end)
	if err != nil {
		return 0, err
	}

	return lastClose(symbol, series)
}
