package indicator

import (
	"github.com/rxtech-lab/argo-ensemble/internal/types"
)

// Type identifies a technical indicator.
type Type string

const (
	TypeSMA  Type = "sma"
	TypeEMA  Type = "ema"
	TypeRSI  Type = "rsi"
	TypeMACD Type = "macd"
	TypeATR  Type = "atr"
)

// Indicator defines methods that any technical indicator must implement.
// Value computes the indicator at the last bar of the given series and
// returns an InsufficientDataError when the series is shorter than the
// configured period.
type Indicator interface {
	// Name returns the name of the indicator
	Name() Type
	// Value returns the indicator value at the last bar of the series
	Value(series *types.MarketSeries) (float64, error)
	// Config configures the indicator parameters
	Config(params ...any) error
}
