package utils

import (
	"math"

	"github.com/shopspring/decimal"
)

// RoundToDecimalPrecision truncates value toward negative infinity at the given decimal precision.
func RoundToDecimalPrecision(value float64, decimalPrecision int) float64 {
	multiplier := math.Pow10(decimalPrecision)

	return math.Floor(value*multiplier) / multiplier
}

// RoundHalfAway rounds value to places decimals, halves away from zero.
// The rounding is done on the shortest decimal representation of value, so 2.675 rounds to 2.68.
func RoundHalfAway(value float64, places int32) float64 {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return value
	}

	return decimal.NewFromFloat(value).Round(places).InexactFloat64()
}

// RoundPtr rounds *value when it is set.
func RoundPtr(value *float64, places int32) *float64 {
	if value == nil {
		return nil
	}

	rounded := RoundHalfAway(*value, places)

	return &rounded
}
