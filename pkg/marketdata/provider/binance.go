package provider

import (
	"context"
	"fmt"
	"strconv"
	"time"

	binance "github.com/adshao/go-binance/v2"
	"github.com/rxtech-lab/argo-signals/internal/types"
)

// binancePageSize is the number of klines Binance returns per request by default.
const binancePageSize = 500

// BinanceKlinesService is the subset of the binance klines service used here.
type BinanceKlinesService interface {
	Symbol(symbol string) BinanceKlinesService
	Interval(interval string) BinanceKlinesService
	StartTime(startTime int64) BinanceKlinesService
	EndTime(endTime int64) BinanceKlinesService
	Do(ctx context.Context) ([]*binance.Kline, error)
}

// BinanceAPIClient is the subset of the binance client used here.
type BinanceAPIClient interface {
	NewKlinesService() BinanceKlinesService
}

type binanceAPI struct {
	client *binance.Client
}

func (b *binanceAPI) NewKlinesService() BinanceKlinesService {
	return &binanceKlinesService{service: b.client.NewKlinesService()}
}

type binanceKlinesService struct {
	service *binance.KlinesService
}

func (s *binanceKlinesService) Symbol(symbol string) BinanceKlinesService {
	s.service.Symbol(symbol)

	return s
}

func (s *binanceKlinesService) Interval(interval string) BinanceKlinesService {
	s.service.Interval(interval)

	return s
}

func (s *binanceKlinesService) StartTime(startTime int64) BinanceKlinesService {
	s.service.StartTime(startTime)

	return s
}

func (s *binanceKlinesService) EndTime(endTime int64) BinanceKlinesService {
	s.service.EndTime(endTime)

	return s
}

func (s *binanceKlinesService) Do(ctx context.Context) ([]*binance.Kline, error) {
	return s.service.Do(ctx)
}

type BinanceClient struct {
	api BinanceAPIClient
}

func NewBinanceClient() (Provider, error) {
	return NewBinanceClientWithAPI(&binanceAPI{client: binance.NewClient("", "")}), nil
}

// NewBinanceClientWithAPI creates a binance provider over api.
func NewBinanceClientWithAPI(api BinanceAPIClient) *BinanceClient {
	return &BinanceClient{api: api}
}

func (c *BinanceClient) Name() ProviderType {
	return ProviderBinance
}

// GetHistory pages through daily klines of symbol (e.g. BTCUSDT).
func (c *BinanceClient) GetHistory(ctx context.Context, symbol string, start time.Time, end time.Time) (types.PriceSeries, error) {
	endMillis := end.UnixMilli()
	currentStart := start.UnixMilli()
	series := make(types.PriceSeries, 0)

	for {
		klines, err := c.api.NewKlinesService().
			Symbol(symbol).
			Interval("1d").
			StartTime(currentStart).
			EndTime(endMillis).
			Do(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch klines from Binance for %s: %w", symbol, err)
		}

		bars, err := convertKlines(klines)
		if err != nil {
			return nil, fmt.Errorf("failed to convert klines for %s: %w", symbol, err)
		}

		series = append(series, bars...)

		if len(klines) < binancePageSize {
			break
		}

		// Continue after the close of the last kline to avoid duplicates
		currentStart = klines[len(klines)-1].CloseTime + 1
		if currentStart >= endMillis {
			break
		}
	}

	return normalize(series), nil
}

// LatestPrice returns the close of the most recent daily kline.
func (c *BinanceClient) LatestPrice(ctx context.Context, symbol string) (float64, error) {
	end := time.Now()

	series, err := c.GetHistory(ctx, symbol, end.Add(-latestPriceWindow), end)
	if err != nil {
		return 0, err
	}

	return lastClose(symbol, series)
}

// convertKlines converts Binance kline data to price bars.
func convertKlines(klines []*binance.Kline) (types.PriceSeries, error) {
	bars := make(types.PriceSeries, 0, len(klines))

	for _, k := range klines {
		closePrice, err := strconv.ParseFloat(k.Close, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid close %q: %w", k.Close, err)
		}

		open, _ := strconv.ParseFloat(k.Open, 64)
		high, _ := strconv.ParseFloat(k.High, 64)
		low, _ := strconv.ParseFloat(k.Low, 64)
		volume, _ := strconv.ParseFloat(k.Volume, 64)

		bars = append(bars, types.PriceBar{
			Date:   time.UnixMilli(k.OpenTime).UTC(),
			Open:   open,
			High:   high,
			Low:    low,
			Close:  closePrice,
			Volume: volume,
		})
	}

	return bars, nil
}
