// Package commission prices the fees charged on each simulated fill.
package commission

import (
	"math"

	"github.com/rxtech-lab/argo-ensemble/pkg/errors"
)

// Broker selects a fee schedule.
type Broker string

const (
	// BrokerProportional charges a flat fraction of the traded notional.
	BrokerProportional Broker = "proportional"
	// BrokerInteractiveBroker approximates the IBKR fixed US equity
	// schedule: per-share pricing with a minimum per order, capped at a
	// fraction of trade value.
	BrokerInteractiveBroker Broker = "interactive_broker"
	// BrokerZero charges nothing. Useful for isolating strategy pnl.
	BrokerZero Broker = "zero"
)

// Model prices the fee for one fill.
type Model interface {
	// Calculate returns the fee of filling quantity shares at price.
	// Quantity may be signed; fees depend only on its magnitude.
	Calculate(quantity, price float64) float64
	// Broker identifies the fee schedule.
	Broker() Broker
}

// Proportional charges Rate times the traded notional.
type Proportional struct {
	Rate float64
}

// DefaultProportionalRate is 10 basis points per fill.
const DefaultProportionalRate = 0.001

// NewProportional creates a proportional model. A non-positive rate falls
// back to the default.
func NewProportional(rate float64) *Proportional {
	if rate <= 0 {
		rate = DefaultProportionalRate
	}

	return &Proportional{Rate: rate}
}

func (p *Proportional) Calculate(quantity, price float64) float64 {
	return math.Abs(quantity) * price * p.Rate
}

func (p *Proportional) Broker() Broker {
	return BrokerProportional
}

// InteractiveBroker prices per share with a per-order minimum and a cap on
// small notionals.
type InteractiveBroker struct{}

const (
	ibPerShare    = 0.005
	ibMinimum     = 1.0
	ibMaxValuePct = 0.01
)

func (i *InteractiveBroker) Calculate(quantity, price float64) float64 {
	shares := math.Abs(quantity)
	if shares == 0 {
		return 0
	}

	fee := shares * ibPerShare
	if fee < ibMinimum {
		fee = ibMinimum
	}

	if maxFee := shares * price * ibMaxValuePct; fee > maxFee {
		fee = maxFee
	}

	return fee
}

func (i *InteractiveBroker) Broker() Broker {
	return BrokerInteractiveBroker
}

// Zero charges nothing.
type Zero struct{}

func (z *Zero) Calculate(float64, float64) float64 {
	return 0
}

func (z *Zero) Broker() Broker {
	return BrokerZero
}

// NewModel builds the fee model of the given broker. Rate only applies to
// the proportional broker.
func NewModel(broker Broker, rate float64) (Model, error) {
	switch broker {
	case BrokerProportional, "":
		return NewProportional(rate), nil
	case BrokerInteractiveBroker:
		return &InteractiveBroker{}, nil
	case BrokerZero:
		return &Zero{}, nil
	default:
		return nil, errors.Newf(errors.ErrCodeBacktestConfigError, "unknown commission broker %q", broker)
	}
}
