package indicator

import (
	"fmt"

	"github.com/rxtech-lab/argo-signals/internal/types"
	"github.com/rxtech-lab/argo-signals/pkg/errors"
)

// EMA indicator implements Exponential Moving Average calculation.
// The average is seeded with the first close and uses alpha = 2/(period+1),
// i.e. ema = close*alpha + prev*(1-alpha).
type EMA struct {
	period int
	column types.IndicatorType
}

// NewEMA creates a new EMA indicator writing to column.
func NewEMA(column types.IndicatorType, period int) Indicator {
	return &EMA{
		period: period,
		column: column,
	}
}

// Name returns the output column, so a fast and a slow EMA can be registered side by side.
func (e *EMA) Name() types.IndicatorType {
	return e.column
}

// Config configures the EMA indicator. Expected parameters: period (int).
func (e *EMA) Config(params ...any) error {
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

	e.period = period

	return nil
}

// Lookback returns period-1.
func (e *EMA) Lookback() int {
	return e.period - 1
}

// Calculate returns the EMA series under the configured column.
func (e *EMA) Calculate(closes []float64) (Output, error) {
	if e.period <= 0 {
		return nil, fmt.Errorf("EMA %s: period must be a positive integer, got %d", e.column, e.period)
	}

	series := maskLeading(calculateEMA(closes, e.period), e.Lookback())

	return Output{e.column: series}, nil
}

// calculateEMA returns the unmasked EMA of values.
func calculateEMA(values []float64, period int) []float64 {
	alpha := 2.0 / float64(period+1)

	return exponentialSmoothing(values, alpha)
}
