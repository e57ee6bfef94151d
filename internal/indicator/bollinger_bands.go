package indicator

import (
	"fmt"

	"github.com/rxtech-lab/argo-signals/internal/types"
	"github.com/rxtech-lab/argo-signals/pkg/errors"
	"gonum.org/v1/gonum/stat"
)

// BollingerBands represents the Bollinger Bands indicator.
// The band width uses the sample standard deviation of the rolling window.
type BollingerBands struct {
	period int     // Rolling window
	stdDev float64 // Number of standard deviations
}

// NewBollingerBands creates a new Bollinger Bands indicator with the 20/2 configuration.
func NewBollingerBands() Indicator {
	return &BollingerBands{
		period: 20,
		stdDev: 2.0,
	}
}

// Name returns the name of the indicator.
func (bb *BollingerBands) Name() types.IndicatorType {
	return types.IndicatorTypeBollingerBands
}

// Config configures the Bollinger Bands indicator. Expected parameters: period (int), stdDev (float64).
func (bb *BollingerBands) Config(params ...any) error {
	if len(params) != 2 {
		return errors.New(errors.ErrCodeMissingParameter, "Config expects 2 parameters: period (int), stdDev (float64)")
	}

	period, ok := params[0].(int)
	if !ok {
		return errors.New(errors.ErrCodeInvalidType, "invalid type for period parameter, expected int")
	}

	if period < 2 {
		return errors.Newf(errors.ErrCodeInvalidPeriod, "period must be at least 2, got %d", period)
	}

	stdDev, ok := params[1].(float64)
	if !ok {
		return errors.New(errors.ErrCodeInvalidType, "invalid type for stdDev parameter, expected float64")
	}

	if stdDev <= 0 {
		return errors.Newf(errors.ErrCodeInvalidMultiplier, "stdDev must be a positive number, got %f", stdDev)
	}

	bb.period = period
	bb.stdDev = stdDev

	return nil
}

// Lookback returns period-1.
func (bb *BollingerBands) Lookback() int {
	return bb.period - 1
}

// Calculate returns the upper, middle and lower bands.
func (bb *BollingerBands) Calculate(closes []float64) (Output, error) {
	if bb.period < 2 {
		return nil, fmt.Errorf("BollingerBands: period must be at least 2, got %d", bb.period)
	}

	n := len(closes)
	upper := newNaNSeries(n)
	middle := newNaNSeries(n)
	lower := newNaNSeries(n)

	for i := bb.Lookback(); i < n; i++ {
		window := closes[i-bb.Lookback() : i+1]
		mean, std := stat.MeanStdDev(window, nil)

		middle[i] = mean
		upper[i] = mean + bb.stdDev*std
		lower[i] = mean - bb.stdDev*std
	}

	return Output{
		types.IndicatorBollingerUpper: upper,
		types.IndicatorBollingerMid:   middle,
		types.IndicatorBollingerLower: lower,
	}, nil
}
