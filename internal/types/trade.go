package types

import "time"

// TradeDateLayout is the layout of TradeRecord.Date.
const TradeDateLayout = "2006-01-02 15:04"

// TradeRecord is one row of the append-only trade log. One row per asset per run, HOLD included.
type TradeRecord struct {
	Date       string   `csv:"date" json:"date"`
	Asset      string   `csv:"asset" json:"asset"`
	AssetClass string   `csv:"asset_class" json:"asset_class"`
	Decision   Decision `csv:"decision" json:"decision"`
	Confidence int      `csv:"confidence" json:"confidence"`
	Price      float64  `csv:"price" json:"price"`
}

// Time parses Date. Rows written by older runs may carry only a date.
func (r TradeRecord) Time() (time.Time, error) {
	t, err := time.Parse(TradeDateLayout, r.Date)
	if err == nil {
		return t, nil
	}

	return time.Parse(time.DateOnly, r.Date)
}

// Day returns the calendar date part of Date.
func (r TradeRecord) Day() string {
	if len(r.Date) >= len(time.DateOnly) {
		return r.Date[:len(time.DateOnly)]
	}

	return r.Date
}
