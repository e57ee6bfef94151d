package indicator

import (
	"math"

	"github.com/rxtech-lab/argo-signals/internal/types"
)

// Output maps a frame column to its series. Every series has the same length as the input.
type Output map[types.IndicatorType][]float64

// Indicator computes one or more derived series from an ordered close-price series.
// Values before the lookback window fills are NaN.
type Indicator interface {
	// Name returns the name the indicator is registered under.
	Name() types.IndicatorType
	// Config configures the indicator from positional parameters.
	Config(params ...any) error
	// Lookback is the number of leading rows that stay undefined.
	Lookback() int
	// Calculate returns the derived series for closes.
	Calculate(closes []float64) (Output, error)
}

func newNaNSeries(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}

	return out
}

// maskLeading sets the first n values of series to NaN.
func maskLeading(series []float64, n int) []float64 {
	for i := 0; i < n && i < len(series); i++ {
		series[i] = math.NaN()
	}

	return series
}

// exponentialSmoothing applies y[0] = x[0], y[t] = alpha*x[t] + (1-alpha)*y[t-1].
func exponentialSmoothing(values []float64, alpha float64) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}

	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = alpha*values[i] + (1-alpha)*out[i-1]
	}

	return out
}

func isDefined(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
