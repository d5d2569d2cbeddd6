package indicator

import (
	"github.com/rxtech-lab/argo-ensemble/internal/types"
	"github.com/rxtech-lab/argo-ensemble/pkg/errors"
)

// EMA represents the Exponential Moving Average indicator.
type EMA struct {
	period int
}

// NewEMA creates a new EMA indicator with default configuration.
func NewEMA() *EMA {
	return &EMA{
		period: 12, // Default period
	}
}

// Name returns the name of the indicator.
func (e *EMA) Name() Type {
	return TypeEMA
}

// Config configures the EMA indicator. Expected parameters: period (int).
func (e *EMA) Config(params ...any) error {
	if len(params) < 1 {
		return errors.New(errors.ErrCodeMissingParameter, "Config expects 1 parameter: period (int)")
	}

	period, ok := params[0].(int)
	if !ok {
		return errors.New(errors.ErrCodeInvalidType, "invalid type for period parameter, expected int")
	}

	if period <= 0 {
		return errors.Newf(errors.ErrCodeInvalidPeriod, "period must be a positive integer, got %d", period)
	}

	e.period = period

	return nil
}

// Value returns the exponential moving average at the last bar.
func (e *EMA) Value(series *types.MarketSeries) (float64, error) {
	if series.Len() < e.period {
		return 0, errors.NewInsufficientDataErrorf(e.period, series.Len(), series.Symbol(),
			"insufficient data for EMA(%d)", e.period)
	}

	values := emaSeries(series.Closes(), e.period)

	return values[len(values)-1], nil
}

// emaSeries computes the EMA over the whole input. The first period values
// are seeded with the SMA of the first period closes.
func emaSeries(closes []float64, period int) []float64 {
	multiplier := 2.0 / (float64(period) + 1.0)

	values := make([]float64, len(closes))
	values[0] = closes[0]

	seed := Mean(closes[:period])

	for i := 1; i < len(closes); i++ {
		if i < period {
			values[i] = Mean(closes[:i+1])

			continue
		}

		prev := values[i-1]
		if i == period {
			prev = seed
		}

		values[i] = (closes[i]-prev)*multiplier + prev
	}

	return values
}
