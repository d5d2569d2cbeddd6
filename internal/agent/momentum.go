package agent

import (
	"fmt"

	"github.com/rxtech-lab/argo-ensemble/internal/indicator"
	"github.com/rxtech-lab/argo-ensemble/internal/types"
	"github.com/rxtech-lab/argo-ensemble/pkg/errors"
)

// Momentum combines three trend sub-signals (EMA crossover, RSI and the
// MACD histogram) by majority vote. Confidence is the fraction of
// sub-signals agreeing with the winning direction.
//
// Config keys: short_window (12), long_window (26), rsi_period (14),
// rsi_overbought (70), rsi_oversold (30), macd_signal_period (9).
type Momentum struct {
	*baseAgent

	shortEMA *indicator.EMA
	longEMA  *indicator.EMA
	rsi      *indicator.RSI
	macd     *indicator.MACD

	rsiOverbought float64
	rsiOversold   float64
	required      int
}

// NewMomentum creates a momentum agent from the given config.
func NewMomentum(cfg Config) *Momentum {
	shortWindow := cfg.Int("short_window", 12)
	longWindow := cfg.Int("long_window", 26)
	rsiPeriod := cfg.Int("rsi_period", 14)
	signalPeriod := cfg.Int("macd_signal_period", 9)

	// The EMAs and the MACD share the window pair, so an invalid combination
	// resets every window to its default as a unit instead of leaving the
	// indicators configured against diverging windows.
	if shortWindow <= 0 || longWindow <= shortWindow || rsiPeriod <= 0 || signalPeriod <= 0 {
		shortWindow, longWindow, rsiPeriod, signalPeriod = 12, 26, 14, 9
	}

	shortEMA := indicator.NewEMA()
	longEMA := indicator.NewEMA()
	rsi := indicator.NewRSI()
	macd := indicator.NewMACD()

	for _, err := range []error{
		shortEMA.Config(shortWindow),
		longEMA.Config(longWindow),
		rsi.Config(rsiPeriod),
		macd.Config(shortWindow, longWindow, signalPeriod),
	} {
		if err != nil {
			panic(fmt.Sprintf("momentum indicator rejected validated windows: %v", err))
		}
	}

	required := longWindow + signalPeriod
	if rsiPeriod+1 > required {
		required = rsiPeriod + 1
	}

	return &Momentum{
		baseAgent:     newBaseAgent(cfg.String("id", string(TypeMomentum)), TypeMomentum),
		shortEMA:      shortEMA,
		longEMA:       longEMA,
		rsi:           rsi,
		macd:          macd,
		rsiOverbought: cfg.Float("rsi_overbought", 70),
		rsiOversold:   cfg.Float("rsi_oversold", 30),
		required:      required,
	}
}

// Train is a no-op: all momentum parameters are fixed windows.
func (m *Momentum) Train(series *types.MarketSeries) error {
	return m.runTrain(series, func(*types.MarketSeries) error { return nil })
}

// Analyze implements the Agent interface.
func (m *Momentum) Analyze(series *types.MarketSeries) (types.Signal, error) {
	return m.runAnalyze(series, m.compute)
}

func (m *Momentum) compute(series *types.MarketSeries) (types.Signal, error) {
	if insufficient(series, m.required) {
		return m.hold(series, types.ReasonInsufficientData), nil
	}

	shortValue, err := m.shortEMA.Value(series)
	if err != nil {
		return m.degradeOrFail(series, err)
	}

	longValue, err := m.longEMA.Value(series)
	if err != nil {
		return m.degradeOrFail(series, err)
	}

	rsiValue, err := m.rsi.Value(series)
	if err != nil {
		return m.degradeOrFail(series, err)
	}

	_, _, histogram, err := m.macd.Lines(series)
	if err != nil {
		return m.degradeOrFail(series, err)
	}

	// Three directional votes on the -1/0/+1 axis.
	votes := map[string]float64{
		"ema_crossover": vote(shortValue > longValue, shortValue < longValue),
		"rsi":           vote(rsiValue <= m.rsiOversold, rsiValue >= m.rsiOverbought),
		"macd":          vote(histogram > 0, histogram < 0),
	}

	bullish, bearish, neutral := 0, 0, 0

	for _, v := range votes {
		switch {
		case v > 0:
			bullish++
		case v < 0:
			bearish++
		default:
			neutral++
		}
	}

	signalType := types.SignalTypeHold
	agreeing := neutral

	switch {
	case bullish > bearish && bullish > neutral:
		signalType = types.SignalTypeBuy
		agreeing = bullish
	case bearish > bullish && bearish > neutral:
		signalType = types.SignalTypeSell
		agreeing = bearish
	}

	last := series.Last()

	return types.Signal{
		Symbol:     series.Symbol(),
		Timestamp:  last.Timestamp,
		Type:       signalType,
		Confidence: float64(agreeing) / 3.0,
		Price:      last.Close,
		Reasoning: fmt.Sprintf("ema %.2f/%.2f rsi %.1f macd_hist %.4f: %d/3 sub-signals agree",
			shortValue, longValue, rsiValue, histogram, agreeing),
		AgentID: m.id,
		Metadata: map[string]any{
			"short_ema":      shortValue,
			"long_ema":       longValue,
			"rsi":            rsiValue,
			"macd_histogram": histogram,
			"votes":          votes,
		},
	}, nil
}

// degradeOrFail converts insufficient-data errors into HOLD signals and
// propagates everything else as a hard failure.
func (m *Momentum) degradeOrFail(series *types.MarketSeries, err error) (types.Signal, error) {
	if errors.IsInsufficientDataError(err) {
		return m.hold(series, types.ReasonInsufficientData), nil
	}

	return types.Signal{}, err
}

func vote(bullish, bearish bool) float64 {
	switch {
	case bullish:
		return 1
	case bearish:
		return -1
	default:
		return 0
	}
}
