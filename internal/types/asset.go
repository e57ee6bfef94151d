package types

import (
	"fmt"
	"sort"
)

// AssetClass is the instrument class of a tradable asset.
type AssetClass string

const (
	AssetClassStock AssetClass = "Stock"
	AssetClassETF   AssetClass = "ETF"
)

// Asset is a member of the tradable universe.
type Asset struct {
	Symbol string     `yaml:"symbol" json:"symbol"`
	Class  AssetClass `yaml:"class" json:"class"`
	// Fractional is true when the broker allows fractional quantities for this asset's class.
	Fractional bool `yaml:"fractional" json:"fractional"`
}

// FractionalPolicy states which asset classes the broker lets us buy in fractions.
type FractionalPolicy struct {
	Stocks bool `yaml:"fractional_stocks" json:"fractional_stocks"`
	ETFs   bool `yaml:"fractional_etfs" json:"fractional_etfs"`
}

// Allows reports whether the given class may be traded fractionally.
func (p FractionalPolicy) Allows(class AssetClass) bool {
	switch class {
	case AssetClassStock:
		return p.Stocks
	case AssetClassETF:
		return p.ETFs
	default:
		return false
	}
}

// Universe is the fixed, ordered set of assets processed in a run.
type Universe struct {
	assets []Asset
	index  map[string]int
}

// NewUniverse builds a universe with stocks first and ETFs after, in the given order.
// A symbol may appear only once across both lists.
func NewUniverse(stocks []string, etfs []string, policy FractionalPolicy) (Universe, error) {
	u := Universe{
		assets: make([]Asset, 0, len(stocks)+len(etfs)),
		index:  make(map[string]int, len(stocks)+len(etfs)),
	}

	add := func(symbol string, class AssetClass) error {
		if symbol == "" {
			return fmt.Errorf("empty symbol in %s list", class)
		}

		if _, exists := u.index[symbol]; exists {
			return fmt.Errorf("symbol %s listed more than once", symbol)
		}

		u.index[symbol] = len(u.assets)
		u.assets = append(u.assets, Asset{
			Symbol:     symbol,
			Class:      class,
			Fractional: policy.Allows(class),
		})

		return nil
	}

	for _, symbol := range stocks {
		if err := add(symbol, AssetClassStock); err != nil {
			return Universe{}, err
		}
	}

	for _, symbol := range etfs {
		if err := add(symbol, AssetClassETF); err != nil {
			return Universe{}, err
		}
	}

	return u, nil
}

// Assets returns a copy of the universe in processing order.
func (u Universe) Assets() []Asset {
	out := make([]Asset, len(u.assets))
	copy(out, u.assets)

	return out
}

// Symbols returns the universe symbols in processing order.
func (u Universe) Symbols() []string {
	out := make([]string, 0, len(u.assets))
	for _, a := range u.assets {
		out = append(out, a.Symbol)
	}

	return out
}

// Lookup finds an asset by symbol.
func (u Universe) Lookup(symbol string) (Asset, bool) {
	i, ok := u.index[symbol]
	if !ok {
		return Asset{}, false
	}

	return u.assets[i], true
}

// Contains reports whether symbol belongs to the universe.
func (u Universe) Contains(symbol string) bool {
	_, ok := u.index[symbol]

	return ok
}

// Len returns the number of assets.
func (u Universe) Len() int {
	return len(u.assets)
}

// SortedSymbols returns the symbols in lexical order.
func (u Universe) SortedSymbols() []string {
	out := u.Symbols()
	sort.Strings(out)

	return out
}

// DefaultStocks is the built-in stock list.
var DefaultStocks = []string{
	"AAPL", "MSFT", "NVDA", "AMZN", "GOOGL", "GOOG", "TSLA", "META", "ADBE", "AMD",
	"INTC", "CSCO", "QCOM", "CRM", "AVGO", "ORCL", "IBM", "TXN", "AMGN", "HON",
	"PEP", "KO", "MCD", "WMT", "CAT", "JNJ", "V", "HD", "BAC", "JPM",
	"UNH", "CVX", "XOM", "NFLX", "LMT", "BLK", "SPGI", "MS", "RTX",
}

// DefaultETFs is the built-in ETF list.
var DefaultETFs = []string{
	"SPY", "VOO", "IVV", "VTI", "QQQ", "VUG", "VEA", "VTV", "IEFA", "AGG",
	"IEMG", "IJH", "IJR", "VIG", "VYM", "SCHD", "XLK", "VT", "ACWI",
}
