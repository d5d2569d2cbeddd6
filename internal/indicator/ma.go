package indicator

import (
	"github.com/rxtech-lab/argo-ensemble/internal/types"
	"github.com/rxtech-lab/argo-ensemble/pkg/errors"
)

// SMA represents the Simple Moving Average indicator.
type SMA struct {
	period int
}

// NewSMA creates a new SMA indicator with default configuration.
func NewSMA() *SMA {
	return &SMA{
		period: 20, // Default period
	}
}

// Name returns the name of the indicator.
func (s *SMA) Name() Type {
	return TypeSMA
}

// Config configures the SMA indicator. Expected parameters: period (int).
func (s *SMA) Config(params ...any) error {
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

	s.period = period

	return nil
}

// Value returns the simple moving average of the last period closes.
func (s *SMA) Value(series *types.MarketSeries) (float64, error) {
	if series.Len() < s.period {
		return 0, errors.NewInsufficientDataErrorf(s.period, series.Len(), series.Symbol(),
			"insufficient data for SMA(%d)", s.period)
	}

	return Mean(TailCloses(series, s.period)), nil
}
