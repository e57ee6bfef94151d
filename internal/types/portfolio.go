package types

// Position is the holding of a single asset.
type Position struct {
	Quantity     float64 `json:"quantity"`
	AveragePrice float64 `json:"average_price"`
}

// IsOpen reports whether the position holds any quantity.
func (p Position) IsOpen() bool {
	return p.Quantity > 0
}

// PortfolioState is cash plus one position per universe asset.
type PortfolioState struct {
	AvailableCash float64             `json:"available_cash"`
	Positions     map[string]Position `json:"portfolio"`
}

// NewPortfolioState returns a fresh state with every symbol at a zero position.
func NewPortfolioState(initialCapital float64, symbols []string) PortfolioState {
	positions := make(map[string]Position, len(symbols))
	for _, symbol := range symbols {
		positions[symbol] = Position{}
	}

	return PortfolioState{
		AvailableCash: initialCapital,
		Positions:     positions,
	}
}

// Clone returns a deep copy.
func (s PortfolioState) Clone() PortfolioState {
	positions := make(map[string]Position, len(s.Positions))
	for symbol, position := range s.Positions {
		positions[symbol] = position
	}

	return PortfolioState{
		AvailableCash: s.AvailableCash,
		Positions:     positions,
	}
}

// Position returns the position for symbol, zero if absent.
func (s PortfolioState) Position(symbol string) Position {
	return s.Positions[symbol]
}

// OpenSymbols returns the symbols with quantity > 0, in the given order.
func (s PortfolioState) OpenSymbols(order []string) []string {
	open := make([]string, 0)

	for _, symbol := range order {
		if s.Positions[symbol].IsOpen() {
			open = append(open, symbol)
		}
	}

	return open
}
