package indicator

import (
	"fmt"
	"math"

	"github.com/rxtech-lab/argo-signals/internal/types"
	"github.com/rxtech-lab/argo-signals/pkg/errors"
)

// RSI represents the Relative Strength Index indicator.
// Gains and losses are smoothed with Wilder's factor 1/period, seeded with the first price change.
type RSI struct {
	period int
}

// NewRSI creates a new RSI indicator with default configuration.
func NewRSI() Indicator {
	return &RSI{
		period: 14,
	}
}

// Name returns the name of the indicator.
func (r *RSI) Name() types.IndicatorType {
	return types.IndicatorTypeRSI
}

// Config configures the RSI indicator. Expected parameters: period (int).
func (r *RSI) Config(params ...any) error {
	if len(params) != 1 {
		return errors.New(errors.ErrCodeMissingParameter, "Config expects 1 parameter: period (int)")
	}

	period, ok := params[0].(int)
	if !ok {
		return errors.New(errors.ErrCodeInvalidType, "invalid type for period parameter, expected int")
	}

	if period <= 0 {
		return errors.Newf(errors.ErrCodeInvalidPeriod, "period must be a positive integer, got %d", period)
	}

	r.period = period

	return nil
}

// Lookback returns period: RSI needs period price changes.
func (r *RSI) Lookback() int {
	return r.period
}

// Calculate returns the RSI series. RSI is NaN while avg_loss is 0.
func (r *RSI) Calculate(closes []float64) (Output, error) {
	if r.period <= 0 {
		return nil, fmt.Errorf("RSI: period must be a positive integer, got %d", r.period)
	}

	n := len(closes)
	rsi := newNaNSeries(n)

	if n < 2 {
		return Output{types.IndicatorTypeRSI: rsi}, nil
	}

	// gains[i] and losses[i] hold the change from closes[i] to closes[i+1]
	gains := make([]float64, n-1)
	losses := make([]float64, n-1)

	for i := 1; i < n; i++ {
		delta := closes[i] - closes[i-1]
		if delta > 0 {
			gains[i-1] = delta
		} else {
			losses[i-1] = -delta
		}
	}

	alpha := 1.0 / float64(r.period)
	avgGain := exponentialSmoothing(gains, alpha)
	avgLoss := exponentialSmoothing(losses, alpha)

	for i := r.Lookback(); i < n; i++ {
		if avgLoss[i-1] == 0 {
			continue
		}

		rs := avgGain[i-1] / avgLoss[i-1]
		rsi[i] = math.Max(0, math.Min(100, 100-100/(1+rs)))
	}

	return Output{types.IndicatorTypeRSI: rsi}, nil
}
