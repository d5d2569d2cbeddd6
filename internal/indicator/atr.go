package indicator

import (
	"math"

	"github.com/rxtech-lab/argo-ensemble/internal/types"
	"github.com/rxtech-lab/argo-ensemble/pkg/errors"
)

// ATR represents the Average True Range indicator.
type ATR struct {
	period int
}

// NewATR creates a new ATR indicator with default configuration.
func NewATR() *ATR {
	return &ATR{
		period: 14, // Default period
	}
}

// Name returns the name of the indicator.
func (a *ATR) Name() Type {
	return TypeATR
}

// Config configures the ATR indicator. Expected parameters: period (int).
func (a *ATR) Config(params ...any) error {
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

	a.period = period

	return nil
}

// Value returns the average true range over the last period bars.
func (a *ATR) Value(series *types.MarketSeries) (float64, error) {
	if series.Len() < a.period+1 {
		return 0, errors.NewInsufficientDataErrorf(a.period+1, series.Len(), series.Symbol(),
			"insufficient data for ATR(%d)", a.period)
	}

	n := series.Len()

	sum := 0.0

	for i := n - a.period; i < n; i++ {
		bar := series.At(i)
		prevClose := series.At(i - 1).Close

		trueRange := math.Max(bar.High-bar.Low,
			math.Max(math.Abs(bar.High-prevClose), math.Abs(bar.Low-prevClose)))
		sum += trueRange
	}

	return sum / float64(a.period), nil
}
