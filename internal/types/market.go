package types

import (
	"fmt"
	"time"
)

// PriceBar is one daily bar of an asset's history.
type PriceBar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// PriceSeries is an ordered-by-date sequence of bars for one asset.
type PriceSeries []PriceBar

// Closes extracts the close prices in order.
func (s PriceSeries) Closes() []float64 {
	closes := make([]float64, len(s))
	for i, bar := range s {
		closes[i] = bar.Close
	}

	return closes
}

// Dates extracts the bar dates in order.
func (s PriceSeries) Dates() []time.Time {
	dates := make([]time.Time, len(s))
	for i, bar := range s {
		dates[i] = bar.Date
	}

	return dates
}

// Last returns the most recent bar.
func (s PriceSeries) Last() (PriceBar, bool) {
	if len(s) == 0 {
		return PriceBar{}, false
	}

	return s[len(s)-1], true
}

// Validate checks the series is strictly ordered by calendar day with positive closes.
func (s PriceSeries) Validate() error {
	for i, bar := range s {
		if !(bar.Close > 0) {
			return fmt.Errorf("bar %d (%s) has non-positive close %v", i, bar.Date.Format(time.DateOnly), bar.Close)
		}

		if i == 0 {
			continue
		}

		prev := TruncateDay(s[i-1].Date)
		cur := TruncateDay(bar.Date)

		if !cur.After(prev) {
			return fmt.Errorf("bar %d (%s) is not after previous bar (%s)", i, cur.Format(time.DateOnly), prev.Format(time.DateOnly))
		}
	}

	return nil
}

// TruncateDay drops the time of day, keeping the calendar date in UTC.
func TruncateDay(t time.Time) time.Time {
	y, m, d := t.Date()

	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
