package indicator

import (
	"github.com/rxtech-lab/argo-ensemble/internal/types"
	"github.com/rxtech-lab/argo-ensemble/pkg/errors"
)

// RSI represents the Relative Strength Index indicator.
type RSI struct {
	period int
}

// NewRSI creates a new RSI indicator with default configuration.
func NewRSI() *RSI {
	return &RSI{
		period: 14, // Default period
	}
}

// Name returns the name of the indicator.
func (r *RSI) Name() Type {
	return TypeRSI
}

// Config configures the RSI indicator. Expected parameters: period (int).
func (r *RSI) Config(params ...any) error {
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

	r.period = period

	return nil
}

// Value returns the RSI at the last bar, in [0, 100]. A flat series with no
// losses yields 100.
func (r *RSI) Value(series *types.MarketSeries) (float64, error) {
	if series.Len() < r.period+1 {
		return 0, errors.NewInsufficientDataErrorf(r.period+1, series.Len(), series.Symbol(),
			"insufficient data for RSI(%d)", r.period)
	}

	closes := TailCloses(series, r.period+1)

	avgGain := 0.0
	avgLoss := 0.0

	for i := 1; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			avgGain += change
		} else {
			avgLoss += -change
		}
	}

	avgGain /= float64(r.period)
	avgLoss /= float64(r.period)

	if avgLoss == 0 {
		if avgGain == 0 {
			// No movement at all: neutral reading.
			return 50, nil
		}

		return 100, nil
	}

	rs := avgGain / avgLoss

	return 100 - 100/(1+rs), nil
}
