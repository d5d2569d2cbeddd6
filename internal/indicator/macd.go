package indicator

import (
	"github.com/rxtech-lab/argo-ensemble/internal/types"
	"github.com/rxtech-lab/argo-ensemble/pkg/errors"
)

// MACD represents the Moving Average Convergence Divergence indicator.
type MACD struct {
	fastPeriod   int
	slowPeriod   int
	signalPeriod int
}

// NewMACD creates a new MACD indicator with default configuration.
func NewMACD() *MACD {
	return &MACD{
		fastPeriod:   12, // Default fast period
		slowPeriod:   26, // Default slow period
		signalPeriod: 9,  // Default signal period
	}
}

// Name returns the name of the indicator.
func (m *MACD) Name() Type {
	return TypeMACD
}

// Config configures the MACD indicator. Expected parameters: fastPeriod (int), slowPeriod (int), signalPeriod (int).
func (m *MACD) Config(params ...any) error {
	if len(params) != 3 {
		return errors.New(errors.ErrCodeMissingParameter, "Config expects 3 parameters: fastPeriod (int), slowPeriod (int), signalPeriod (int)")
	}

	fastPeriod, ok := params[0].(int)
	if !ok {
		return errors.New(errors.ErrCodeInvalidType, "invalid type for fastPeriod parameter, expected int")
	}

	if fastPeriod <= 0 {
		return errors.Newf(errors.ErrCodeInvalidPeriod, "fastPeriod must be a positive integer, got %d", fastPeriod)
	}

	slowPeriod, ok := params[1].(int)
	if !ok {
		return errors.New(errors.ErrCodeInvalidType, "invalid type for slowPeriod parameter, expected int")
	}

	if slowPeriod <= fastPeriod {
		return errors.Newf(errors.ErrCodeInvalidPeriod, "slowPeriod must be greater than fastPeriod, got %d", slowPeriod)
	}

	signalPeriod, ok := params[2].(int)
	if !ok {
		return errors.New(errors.ErrCodeInvalidType, "invalid type for signalPeriod parameter, expected int")
	}

	if signalPeriod <= 0 {
		return errors.Newf(errors.ErrCodeInvalidPeriod, "signalPeriod must be a positive integer, got %d", signalPeriod)
	}

	m.fastPeriod = fastPeriod
	m.slowPeriod = slowPeriod
	m.signalPeriod = signalPeriod

	return nil
}

// Lines returns the MACD line, signal line and histogram at the last bar.
func (m *MACD) Lines(series *types.MarketSeries) (macdLine, signalLine, histogram float64, err error) {
	required := m.slowPeriod + m.signalPeriod
	if series.Len() < required {
		return 0, 0, 0, errors.NewInsufficientDataErrorf(required, series.Len(), series.Symbol(),
			"insufficient data for MACD(%d,%d,%d)", m.fastPeriod, m.slowPeriod, m.signalPeriod)
	}

	closes := series.Closes()

	fast := emaSeries(closes, m.fastPeriod)
	slow := emaSeries(closes, m.slowPeriod)

	macdSeries := make([]float64, len(closes))
	for i := range closes {
		macdSeries[i] = fast[i] - slow[i]
	}

	// The signal line is an EMA over the MACD line, skipping the warm-up
	// region where the slow EMA is still seeding.
	signalSeries := emaSeries(macdSeries[m.slowPeriod-1:], m.signalPeriod)

	macdLine = macdSeries[len(macdSeries)-1]
	signalLine = signalSeries[len(signalSeries)-1]

	return macdLine, signalLine, macdLine - signalLine, nil
}

// Value returns the MACD histogram (MACD line minus signal line) at the last bar.
func (m *MACD) Value(series *types.MarketSeries) (float64, error) {
	_, _, histogram, err := m.Lines(series)
	if err != nil {
		return 0, err
	}

	return histogram, nil
}
