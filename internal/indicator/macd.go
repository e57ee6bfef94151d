package indicator

import (
	"fmt"

	"github.com/rxtech-lab/argo-signals/internal/types"
	"github.com/rxtech-lab/argo-signals/pkg/errors"
)

// MACD represents the Moving Average Convergence Divergence indicator.
type MACD struct {
	fastPeriod   int
	slowPeriod   int
	signalPeriod int
}

// NewMACD creates a new MACD indicator with the 12/26/9 configuration.
func NewMACD() Indicator {
	return &MACD{
		fastPeriod:   12,
		slowPeriod:   26,
		signalPeriod: 9,
	}
}

// Name returns the name of the indicator.
func (m *MACD) Name() types.IndicatorType {
	return types.IndicatorTypeMACD
}

// Config configures the MACD indicator.
// Expected parameters: fastPeriod (int), slowPeriod (int), signalPeriod (int).
func (m *MACD) Config(params ...any) error {
	if len(params) != 3 {
		return errors.New(errors.ErrCodeMissingParameter, "Config expects 3 parameters: fastPeriod (int), slowPeriod (int), signalPeriod (int)")
	}

	periods := make([]int, 3)

	for i, name := range []string{"fastPeriod", "slowPeriod", "signalPeriod"} {
		period, ok := params[i].(int)
		if !ok {
			return errors.Newf(errors.ErrCodeInvalidType, "invalid type for %s parameter, expected int", name)
		}

		if period <= 0 {
			return errors.Newf(errors.ErrCodeInvalidPeriod, "%s must be a positive integer, got %d", name, period)
		}

		periods[i] = period
	}

	if periods[0] >= periods[1] {
		return errors.Newf(errors.ErrCodeInvalidPeriod, "fastPeriod (%d) must be less than slowPeriod (%d)", periods[0], periods[1])
	}

	m.fastPeriod = periods[0]
	m.slowPeriod = periods[1]
	m.signalPeriod = periods[2]

	return nil
}

// Lookback returns the lookback of the signal line.
func (m *MACD) Lookback() int {
	return m.slowPeriod - 1 + m.signalPeriod - 1
}

// Calculate returns the MACD line and its signal line.
func (m *MACD) Calculate(closes []float64) (Output, error) {
	if m.fastPeriod <= 0 || m.slowPeriod <= m.fastPeriod || m.signalPeriod <= 0 {
		return nil, fmt.Errorf("MACD: invalid periods %d/%d/%d", m.fastPeriod, m.slowPeriod, m.signalPeriod)
	}

	fast := calculateEMA(closes, m.fastPeriod)
	slow := calculateEMA(closes, m.slowPeriod)

	line := make([]float64, len(closes))
	for i := range closes {
		line[i] = fast[i] - slow[i]
	}

	signal := calculateEMA(line, m.signalPeriod)

	return Output{
		types.IndicatorMACDLine:   maskLeading(line, m.slowPeriod-1),
		types.IndicatorMACDSignal: maskLeading(signal, m.Lookback()),
	}, nil
}
