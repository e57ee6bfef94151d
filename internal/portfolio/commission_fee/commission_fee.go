package commission_fee

// CommissionFee calculates the broker fee of one trade.
type CommissionFee interface {
	// Calculate returns the fee in account currency for trading quantity units at price.
	Calculate(quantity float64, price float64) float64
}

type Broker string

const (
	// BrokerProportional charges a fixed share of the traded notional.
	BrokerProportional      Broker = "proportional"
	BrokerInteractiveBroker Broker = "interactive_broker"
	BrokerZero              Broker = "zero_commission"
)

var AllBrokers = []any{
	BrokerProportional,
	BrokerInteractiveBroker,
	BrokerZero,
}

// GetCommissionFeeHandler returns the fee policy of broker. rate is used by BrokerProportional only.
func GetCommissionFeeHandler(broker Broker, rate float64) CommissionFee {
	switch broker {
	case BrokerProportional:
		return NewProportionalCommissionFee(rate)
	case BrokerInteractiveBroker:
		return NewInteractiveBrokerCommissionFee()
	case BrokerZero:
		return NewZeroCommissionFee()
	default:
		return NewZeroCommissionFee()
	}
}
