package indicator

import (
	"fmt"

	"github.com/rxtech-lab/argo-signals/internal/types"
	"github.com/rxtech-lab/argo-signals/pkg/errors"
)

// Settings are the indicator periods used to build an IndicatorFrame.
type Settings struct {
	EMAFastPeriod    int     `yaml:"ema_fast_period" json:"ema_fast_period" default:"20" validate:"gt=0" jsonschema:"title=Fast EMA period,default=20"`
	EMASlowPeriod    int     `yaml:"ema_slow_period" json:"ema_slow_period" default:"50" validate:"gtfield=EMAFastPeriod" jsonschema:"title=Slow EMA period,default=50"`
	RSIPeriod        int     `yaml:"rsi_period" json:"rsi_period" default:"14" validate:"gt=0" jsonschema:"title=RSI period,default=14"`
	MACDFastPeriod   int     `yaml:"macd_fast_period" json:"macd_fast_period" default:"12" validate:"gt=0" jsonschema:"default=12"`
	MACDSlowPeriod   int     `yaml:"macd_slow_period" json:"macd_slow_period" default:"26" validate:"gtfield=MACDFastPeriod" jsonschema:"default=26"`
	MACDSignalPeriod int     `yaml:"macd_signal_period" json:"macd_signal_period" default:"9" validate:"gt=0" jsonschema:"default=9"`
	BollingerPeriod  int     `yaml:"bollinger_period" json:"bollinger_period" default:"20" validate:"gte=2" jsonschema:"default=20"`
	BollingerStdDev  float64 `yaml:"bollinger_std_dev" json:"bollinger_std_dev" default:"2" validate:"gt=0" jsonschema:"default=2"`
}

// DefaultSettings returns the 20/50 EMA, 14 RSI, 12/26/9 MACD, 20/2 Bollinger configuration.
func DefaultSettings() Settings {
	return Settings{
		EMAFastPeriod:    20,
		EMASlowPeriod:    50,
		RSIPeriod:        14,
		MACDFastPeriod:   12,
		MACDSlowPeriod:   26,
		MACDSignalPeriod: 9,
		BollingerPeriod:  20,
		BollingerStdDev:  2,
	}
}

// NewRegistryFromSettings registers and configures every indicator of a frame.
func NewRegistryFromSettings(settings Settings) (IndicatorRegistry, error) {
	registry := NewIndicatorRegistry()

	fast := NewEMA(types.IndicatorEMAFast, settings.EMAFastPeriod)
	slow := NewEMA(types.IndicatorEMASlow, settings.EMASlowPeriod)
	rsi := NewRSI()
	macd := NewMACD()
	bands := NewBollingerBands()

	configs := []struct {
		indicator Indicator
		params    []any
	}{
		{fast, []any{settings.EMAFastPeriod}},
		{slow, []any{settings.EMASlowPeriod}},
		{rsi, []any{settings.RSIPeriod}},
		{macd, []any{settings.MACDFastPeriod, settings.MACDSlowPeriod, settings.MACDSignalPeriod}},
		{bands, []any{settings.BollingerPeriod, settings.BollingerStdDev}},
	}

	for _, c := range configs {
		if err := c.indicator.Config(c.params...); err != nil {
			return nil, fmt.Errorf("failed to configure %s: %w", c.indicator.Name(), err)
		}

		if err := registry.RegisterIndicator(c.indicator); err != nil {
			return nil, err
		}
	}

	return registry, nil
}

// Engine builds IndicatorFrames from price series using the indicators of a registry.
type Engine struct {
	registry IndicatorRegistry
}

// NewEngine creates an engine over registry.
func NewEngine(registry IndicatorRegistry) *Engine {
	return &Engine{registry: registry}
}

// Lookback returns the largest lookback of the registered indicators.
func (e *Engine) Lookback() int {
	lookback := 0

	for _, name := range e.registry.ListIndicators() {
		ind, err := e.registry.GetIndicator(name)
		if err != nil {
			continue
		}

		lookback = max(lookback, ind.Lookback())
	}

	return lookback
}

// Compute augments series with every registered indicator.
// The result has no side effects on series and is deterministic for a given input.
func (e *Engine) Compute(series types.PriceSeries) (types.IndicatorFrame, error) {
	if len(series) == 0 {
		return types.IndicatorFrame{}, errors.NewInsufficientDataError(1, 0, "", "cannot compute indicators on an empty series")
	}

	closes := series.Closes()
	frame := types.IndicatorFrame{
		Dates:   series.Dates(),
		Closes:  closes,
		Columns: make(map[types.IndicatorType][]float64),
	}

	for _, name := range e.registry.ListIndicators() {
		ind, err := e.registry.GetIndicator(name)
		if err != nil {
			return types.IndicatorFrame{}, err
		}

		out, err := ind.Calculate(closes)
		if err != nil {
			return types.IndicatorFrame{}, errors.Wrapf(errors.ErrCodeIndicatorCalculation, err, "failed to calculate %s", name)
		}

		for column, values := range out {
			if _, exists := frame.Columns[column]; exists {
				return types.IndicatorFrame{}, errors.Newf(errors.ErrCodeIndicatorAlreadyExists, "column %s produced by more than one indicator", column)
			}

			frame.Columns[column] = values
		}
	}

	return frame, nil
}
