package types

import (
	"math"
	"time"
)

// IndicatorType names an indicator or one of its output columns.
type IndicatorType string

const (
	IndicatorTypeRSI            IndicatorType = "rsi"
	IndicatorTypeMACD           IndicatorType = "macd"
	IndicatorTypeBollingerBands IndicatorType = "bollinger_bands"

	// Output columns of an IndicatorFrame.
	IndicatorEMAFast        IndicatorType = "ema_fast"
	IndicatorEMASlow        IndicatorType = "ema_slow"
	IndicatorMACDLine       IndicatorType = "macd_line"
	IndicatorMACDSignal     IndicatorType = "macd_signal"
	IndicatorBollingerUpper IndicatorType = "bollinger_upper"
	IndicatorBollingerLower IndicatorType = "bollinger_lower"
	IndicatorBollingerMid   IndicatorType = "bollinger_middle"
)

// FrameColumns are the columns every IndicatorFrame carries, in display order.
var FrameColumns = []IndicatorType{
	IndicatorEMAFast,
	IndicatorEMASlow,
	IndicatorTypeRSI,
	IndicatorMACDLine,
	IndicatorMACDSignal,
	IndicatorBollingerUpper,
	IndicatorBollingerLower,
}

// IndicatorFrame is a price series augmented with derived indicator series.
// Undefined values are NaN.
type IndicatorFrame struct {
	Dates   []time.Time
	Closes  []float64
	Columns map[IndicatorType][]float64
}

// Len returns the number of rows.
func (f IndicatorFrame) Len() int {
	return len(f.Closes)
}

// Value returns column[i], or NaN when the column or row is missing.
func (f IndicatorFrame) Value(column IndicatorType, i int) float64 {
	values, ok := f.Columns[column]
	if !ok || i < 0 || i >= len(values) {
		return math.NaN()
	}

	return values[i]
}

// Snapshot returns the indicator values at row i.
func (f IndicatorFrame) Snapshot(i int) IndicatorSnapshot {
	var date time.Time
	if i >= 0 && i < len(f.Dates) {
		date = f.Dates[i]
	}

	closePrice := math.NaN()
	if i >= 0 && i < len(f.Closes) {
		closePrice = f.Closes[i]
	}

	return IndicatorSnapshot{
		Date:           date,
		Close:          closePrice,
		EMAFast:        f.Value(IndicatorEMAFast, i),
		EMASlow:        f.Value(IndicatorEMASlow, i),
		RSI:            f.Value(IndicatorTypeRSI, i),
		MACDLine:       f.Value(IndicatorMACDLine, i),
		MACDSignal:     f.Value(IndicatorMACDSignal, i),
		BollingerUpper: f.Value(IndicatorBollingerUpper, i),
		BollingerLower: f.Value(IndicatorBollingerLower, i),
	}
}

// Latest returns the snapshot of the last row.
func (f IndicatorFrame) Latest() IndicatorSnapshot {
	return f.Snapshot(f.Len() - 1)
}

// IndicatorSnapshot is the set of indicator values for one date.
type IndicatorSnapshot struct {
	Date           time.Time
	Close          float64
	EMAFast        float64
	EMASlow        float64
	RSI            float64
	MACDLine       float64
	MACDSignal     float64
	BollingerUpper float64
	BollingerLower float64
}

// Complete reports whether every value used by the rules is defined.
// Bollinger values are only required when withBollinger is set.
func (s IndicatorSnapshot) Complete(withBollinger bool) bool {
	values := []float64{s.Close, s.EMAFast, s.EMASlow, s.RSI, s.MACDLine, s.MACDSignal}
	if withBollinger {
		values = append(values, s.BollingerUpper, s.BollingerLower)
	}

	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}

	return true
}
