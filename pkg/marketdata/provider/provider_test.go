package provider

import (
	"context"
	"errors"
	"testing"
	"time"

	binance "github.com/adshao/go-binance/v2"
	finance "github.com/piquette/finance-go"
	"github.com/piquette/finance-go/chart"
	"github.com/polygon-io/client-go/rest/models"
	"github.com/rxtech-lab/argo-signals/internal/types"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

// mockYahooIterator implements YahooChartIterator for testing.
type mockYahooIterator struct {
	bars  []*finance.ChartBar
	index int
	err   error
}

func (m *mockYahooIterator) Next() bool {
	if m.index < len(m.bars) {
		m.index++

		return true
	}

	return false
}

func (m *mockYahooIterator) Bar() *finance.ChartBar {
	return m.bars[m.index-1]
}

func (m *mockYahooIterator) Err() error {
	return m.err
}

// mockYahooAPIClient implements YahooAPIClient for testing.
type mockYahooAPIClient struct {
	bars     []*finance.ChartBar
	chartErr error
	quote    *finance.Quote
	quoteErr error
	params   *chart.Params
}

func (m *mockYahooAPIClient) Chart(params *chart.Params) YahooChartIterator {
	m.params = params

	return &mockYahooIterator{bars: m.bars, err: m.chartErr}
}

func (m *mockYahooAPIClient) Quote(_ string) (*finance.Quote, error) {
	return m.quote, m.quoteErr
}

// mockPolygonIterator implements PolygonAggsIterator for testing.
type mockPolygonIterator struct {
	aggs  []models.Agg
	index int
	err   error
}

func (m *mockPolygonIterator) Next() bool {
	if m.index < len(m.aggs) {
		m.index++

		return true
	}

	return false
}

func (m *mockPolygonIterator) Item() models.Agg {
	return m.aggs[m.index-1]
}

func (m *mockPolygonIterator) Err() error {
	return m.err
}

// mockPolygonAPIClient implements PolygonAPIClient for testing.
type mockPolygonAPIClient struct {
	iterator PolygonAggsIterator
	params   *models.ListAggsParams
}

func (m *mockPolygonAPIClient) ListAggs(_ context.Context, params *models.ListAggsParams, _ ...models.RequestOption) PolygonAggsIterator {
	m.params = params

	return m.iterator
}

// mockBinanceAPIClient implements BinanceAPIClient for testing.
type mockBinanceAPIClient struct {
	klinesPerCall [][]*binance.Kline
	errorsPerCall []error
	callCount     int
	starts        []int64
}

func (m *mockBinanceAPIClient) NewKlinesService() BinanceKlinesService {
	return &mockBinanceKlinesService{client: m}
}

type mockBinanceKlinesService struct {
	client   *mockBinanceAPIClient
	interval string
}

func (m *mockBinanceKlinesService) Symbol(_ string) BinanceKlinesService {
	return m
}

func (m *mockBinanceKlinesService) Interval(interval string) BinanceKlinesService {
	m.interval = interval

	return m
}

func (m *mockBinanceKlinesService) StartTime(startTime int64) BinanceKlinesService {
	m.client.starts = append(m.client.starts, startTime)

	return m
}

func (m *mockBinanceKlinesService) EndTime(_ int64) BinanceKlinesService {
	return m
}

func (m *mockBinanceKlinesService) Do(_ context.Context) ([]*binance.Kline, error) {
	idx := m.client.callCount
	m.client.callCount++

	var err error
	if idx < len(m.client.errorsPerCall) {
		err = m.client.errorsPerCall[idx]
	}

	if idx < len(m.client.klinesPerCall) {
		return m.client.klinesPerCall[idx], err
	}

	return nil, err
}

type ProviderTestSuite struct {
	suite.Suite
	start time.Time
}

func TestProviderSuite(t *testing.T) {
	suite.Run(t, new(ProviderTestSuite))
}

func (suite *ProviderTestSuite) SetupTest() {
	suite.start = time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)
}

func (suite *ProviderTestSuite) TestNewMarketDataProvider() {
	tests := []struct {
		name        string
		config      Config
		expected    ProviderType
		expectError bool
	}{
		{name: "yahoo", config: Config{Type: ProviderYahoo}, expected: ProviderYahoo},
		{name: "binance", config: Config{Type: ProviderBinance}, expected: ProviderBinance},
		{name: "polygon with key", config: Config{Type: ProviderPolygon, PolygonApiKey: "key"}, expected: ProviderPolygon},
		{name: "polygon without key", config: Config{Type: ProviderPolygon}, expectError: true},
		{name: "unknown", config: Config{Type: "stooq"}, expectError: true},
		{name: "empty", config: Config{}, expectError: true},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			p, err := NewMarketDataProvider(tc.config)
			if tc.expectError {
				suite.Error(err)

				return
			}

			suite.Require().NoError(err)
			suite.Equal(tc.expected, p.Name())
		})
	}
}

func (suite *ProviderTestSuite) TestYahooGetHistory() {
	api := &mockYahooAPIClient{
		bars: []*finance.ChartBar{
			{Close: decimal.NewFromFloat(10.5), Open: decimal.NewFromFloat(10), Volume: 100, Timestamp: int(suite.start.Add(14*time.Hour + 30*time.Minute).Unix())},
			{Close: decimal.NewFromFloat(11), Volume: 200, Timestamp: int(suite.start.AddDate(0, 0, 1).Unix())},
			{Close: decimal.Zero, Timestamp: int(suite.start.AddDate(0, 0, 2).Unix())},
		},
	}

	series, err := NewYahooClientWithAPI(api).GetHistory(context.Background(), "AAPL", suite.start, suite.start.AddDate(0, 0, 5))
	suite.Require().NoError(err)
	suite.Len(series, 2)
	suite.Equal(suite.start, series[0].Date)
	suite.Equal(10.5, series[0].Close)
	suite.Equal(100.0, series[0].Volume)
	suite.Equal("AAPL", api.params.Symbol)
	suite.NoError(series.Validate())
}

func (suite *ProviderTestSuite) TestYahooGetHistoryError() {
	api := &mockYahooAPIClient{chartErr: errors.New("boom")}

	_, err := NewYahooClientWithAPI(api).GetHistory(context.Background(), "AAPL", suite.start, suite.start.AddDate(0, 0, 5))
	suite.Error(err)
	suite.Contains(err.Error(), "boom")
}

func (suite *ProviderTestSuite) TestYahooLatestPrice() {
	api := &mockYahooAPIClient{quote: &finance.Quote{RegularMarketPrice: 187.25}}

	price, err := NewYahooClientWithAPI(api).LatestPrice(context.Background(), "AAPL")
	suite.NoError(err)
	suite.Equal(187.25, price)
}

func (suite *ProviderTestSuite) TestYahooLatestPriceFallsBackToChart() {
	api := &mockYahooAPIClient{
		quoteErr: errors.New("quote unavailable"),
		bars: []*finance.ChartBar{
			{Close: decimal.NewFromFloat(50), Timestamp: int(time.Now().AddDate(0, 0, -2).Unix())},
			{Close: decimal.NewFromFloat(51), Timestamp: int(time.Now().AddDate(0, 0, -1).Unix())},
		},
	}

	price, err := NewYahooClientWithAPI(api).LatestPrice(context.Background(), "AAPL")
	suite.NoError(err)
	suite.Equal(51.0, price)
}

func (suite *ProviderTestSuite) TestYahooLatestPriceNoData() {
	api := &mockYahooAPIClient{}

	_, err := NewYahooClientWithAPI(api).LatestPrice(context.Background(), "AAPL")
	suite.Error(err)
}

func (suite *ProviderTestSuite) TestPolygonGetHistory() {
	api := &mockPolygonAPIClient{
		iterator: &mockPolygonIterator{
			aggs: []models.Agg{
				{Close: 100, Open: 99, Timestamp: models.Millis(suite.start)},
				{Close: 101, Timestamp: models.Millis(suite.start.AddDate(0, 0, 1))},
			},
		},
	}

	series, err := NewPolygonClientWithAPI(api).GetHistory(context.Background(), "MSFT", suite.start, suite.start.AddDate(0, 0, 3))
	suite.Require().NoError(err)
	suite.Len(series, 2)
	suite.Equal(101.0, series[1].Close)
	suite.Equal("MSFT", api.params.Ticker)
	suite.Equal(models.Day, api.params.Timespan)
}

func (suite *ProviderTestSuite) TestPolygonIteratorError() {
	api := &mockPolygonAPIClient{iterator: &mockPolygonIterator{err: errors.New("rate limited")}}

	_, err := NewPolygonClientWithAPI(api).GetHistory(context.Background(), "MSFT", suite.start, suite.start.AddDate(0, 0, 3))
	suite.Error(err)

	_, err = NewPolygonClientWithAPI(api).LatestPrice(context.Background(), "MSFT")
	suite.Error(err)
}

func (suite *ProviderTestSuite) TestNewPolygonClientRequiresKey() {
	_, err := NewPolygonClient("")
	suite.Error(err)
}

func kline(day time.Time, closePrice string) *binance.Kline {
	return &binance.Kline{
		OpenTime:  day.UnixMilli(),
		CloseTime: day.Add(24*time.Hour - time.Millisecond).UnixMilli(),
		Open:      closePrice,
		High:      closePrice,
		Low:       closePrice,
		Close:     closePrice,
		Volume:    "1",
	}
}

func (suite *ProviderTestSuite) TestBinanceGetHistory() {
	api := &mockBinanceAPIClient{
		klinesPerCall: [][]*binance.Kline{{kline(suite.start, "42000.5"), kline(suite.start.AddDate(0, 0, 1), "42100")}},
	}

	series, err := NewBinanceClientWithAPI(api).GetHistory(context.Background(), "BTCUSDT", suite.start, suite.start.AddDate(0, 0, 2))
	suite.Require().NoError(err)
	suite.Len(series, 2)
	suite.Equal(42000.5, series[0].Close)
	suite.Equal(1, api.callCount)
}

func (suite *ProviderTestSuite) TestBinancePagination() {
	firstPage := make([]*binance.Kline, binancePageSize)
	for i := range firstPage {
		firstPage[i] = kline(suite.start.AddDate(0, 0, i), "10")
	}

	api := &mockBinanceAPIClient{
		klinesPerCall: [][]*binance.Kline{firstPage, {kline(suite.start.AddDate(0, 0, binancePageSize), "11")}},
	}

	end := suite.start.AddDate(0, 0, binancePageSize+5)
	series, err := NewBinanceClientWithAPI(api).GetHistory(context.Background(), "BTCUSDT", suite.start, end)
	suite.Require().NoError(err)
	suite.Len(series, binancePageSize+1)
	suite.Equal(2, api.callCount)
	suite.Equal(firstPage[len(firstPage)-1].CloseTime+1, api.starts[1])
}

func (suite *ProviderTestSuite) TestBinanceErrors() {
	api := &mockBinanceAPIClient{errorsPerCall: []error{errors.New("banned")}}

	_, err := NewBinanceClientWithAPI(api).GetHistory(context.Background(), "BTCUSDT", suite.start, suite.start.AddDate(0, 0, 2))
	suite.Error(err)

	bad := &mockBinanceAPIClient{klinesPerCall: [][]*binance.Kline{{kline(suite.start, "abc")}}}
	_, err = NewBinanceClientWithAPI(bad).GetHistory(context.Background(), "BTCUSDT", suite.start, suite.start.AddDate(0, 0, 2))
	suite.Error(err)
}

func (suite *ProviderTestSuite) TestNormalize() {
	series := types.PriceSeries{
		{Date: suite.start.Add(9 * time.Hour), Close: 1},
		{Date: suite.start.Add(16 * time.Hour), Close: 2},
		{Date: suite.start.AddDate(0, 0, -1), Close: 3},
		{Date: suite.start.AddDate(0, 0, 1), Close: -1},
		{Date: suite.start.AddDate(0, 0, 2), Close: 4},
	}

	out := normalize(series)
	suite.Len(out, 2)
	suite.Equal(2.0, out[0].Close)
	suite.Equal(4.0, out[1].Close)
	suite.NoError(out.Validate())
}
