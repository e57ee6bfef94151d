package mocks

import (
	"math"
	"math/rand"
	"time"

	"github.com/rxtech-lab/argo-signals/internal/types"
)

// DataGenerator generates synthetic daily price history for tests.
type DataGenerator struct {
	rng *rand.Rand
}

// NewDataGenerator creates a new DataGenerator with the given seed.
// Use a fixed seed for reproducible results in tests.
func NewDataGenerator(seed int64) *DataGenerator {
	return &DataGenerator{
		rng: rand.New(rand.NewSource(seed)),
	}
}

// GeneratorConfig configures how a series is generated.
type GeneratorConfig struct {
	// StartDate is the day of the first bar
	StartDate time.Time
	// Days is the number of daily bars to generate
	Days int
	// InitialPrice is the first open
	InitialPrice float64
	// Volatility is the typical daily move (0.01 = 1%)
	Volatility float64
	// Trend is the total drift spread over the series (-0.5 to 0.5 for bearish to bullish)
	Trend float64
	// VolumeBase is the average volume per bar
	VolumeBase float64
	// SkipWeekends leaves Saturdays and Sundays out of the series
	SkipWeekends bool
}

// DefaultConfig returns roughly six months of trading days.
func DefaultConfig() GeneratorConfig {
	return GeneratorConfig{
		StartDate:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Days:         126,
		InitialPrice: 100.0,
		Volatility:   0.015,
		Trend:        0.0,
		VolumeBase:   1_000_000,
		SkipWeekends: true,
	}
}

// GenerateSeries creates a daily series following a geometric Brownian motion.
func (g *DataGenerator) GenerateSeries(config GeneratorConfig) types.PriceSeries {
	series := make(types.PriceSeries, 0, config.Days)
	price := config.InitialPrice
	day := types.TruncateDay(config.StartDate)

	for len(series) < config.Days {
		if config.SkipWeekends && (day.Weekday() == time.Saturday || day.Weekday() == time.Sunday) {
			day = day.AddDate(0, 0, 1)
			continue
		}

		open := price
		// Box-Muller
		u1 := math.Max(g.rng.Float64(), 1e-12)
		u2 := g.rng.Float64()
		z := math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)

		closePrice := open * (1 + config.Volatility*z + config.Trend/float64(config.Days))
		if closePrice <= 0 {
			closePrice = open * 0.99
		}

		high := math.Max(open, closePrice) * (1 + g.rng.Float64()*config.Volatility*0.5)
		low := math.Min(open, closePrice) * (1 - g.rng.Float64()*config.Volatility*0.5)

		series = append(series, types.PriceBar{
			Date:   day,
			Open:   roundToDecimals(open, 4),
			High:   roundToDecimals(high, 4),
			Low:    roundToDecimals(low, 4),
			Close:  roundToDecimals(closePrice, 4),
			Volume: roundToDecimals(config.VolumeBase*(0.7+g.rng.Float64()*0.6), 0),
		})

		price = closePrice
		day = day.AddDate(0, 0, 1)
	}

	return series
}

// GenerateUniverse generates one series per symbol, varying the start price and volatility.
func (g *DataGenerator) GenerateUniverse(symbols []string, baseConfig GeneratorConfig) map[string]types.PriceSeries {
	out := make(map[string]types.PriceSeries, len(symbols))

	for _, symbol := range symbols {
		config := baseConfig
		config.InitialPrice = baseConfig.InitialPrice * (0.8 + g.rng.Float64()*0.4)
		config.Volatility = baseConfig.Volatility * (0.8 + g.rng.Float64()*0.4)
		out[symbol] = g.GenerateSeries(config)
	}

	return out
}

// LinearSeries returns a series whose closes move by step each day. Useful for
// deterministic indicator scenarios.
func LinearSeries(start time.Time, days int, first, step float64) types.PriceSeries {
	series := make(types.PriceSeries, days)
	day := types.TruncateDay(start)

	for i := range days {
		c := first + step*float64(i)
		series[i] = types.PriceBar{Date: day.AddDate(0, 0, i), Open: c, High: c, Low: c, Close: c, Volume: 1000}
	}

	return series
}

func roundToDecimals(val float64, decimals int) float64 {
	pow := math.Pow(10, float64(decimals))
	return math.Round(val*pow) / pow
}
