package agent

import (
	"fmt"
	"math"

	"github.com/rxtech-lab/argo-ensemble/internal/indicator"
	"github.com/rxtech-lab/argo-ensemble/internal/types"
)

// VolatilityAdjustedMomentum trades the return over a momentum lookback,
// scaled inversely by realized volatility toward an annualized volatility
// target. Quiet markets let the full momentum through; turbulent ones
// shrink it, so only strong trends in calm regimes clear the entry
// threshold.
//
// Config keys: momentum_lookback (20), volatility_lookback (20),
// vol_target (0.15), momentum_threshold (0.02), periods_per_year (252).
type VolatilityAdjustedMomentum struct {
	*baseAgent

	momentumLookback   int
	volatilityLookback int
	volTarget          float64
	momentumThreshold  float64
	periodsPerYear     float64
}

// NewVolatilityAdjustedMomentum creates a volatility adjusted momentum
// agent from the given config.
func NewVolatilityAdjustedMomentum(cfg Config) *VolatilityAdjustedMomentum {
	return &VolatilityAdjustedMomentum{
		baseAgent:          newBaseAgent(cfg.String("id", string(TypeVolatilityAdjMomentum)), TypeVolatilityAdjMomentum),
		momentumLookback:   cfg.Int("momentum_lookback", 20),
		volatilityLookback: cfg.Int("volatility_lookback", 20),
		volTarget:          cfg.Float("vol_target", 0.15),
		momentumThreshold:  cfg.Float("momentum_threshold", 0.02),
		periodsPerYear:     cfg.Float("periods_per_year", 252),
	}
}

// Train is a no-op: both lookbacks are fixed windows.
func (v *VolatilityAdjustedMomentum) Train(series *types.MarketSeries) error {
	return v.runTrain(series, func(*types.MarketSeries) error { return nil })
}

// Analyze implements the Agent interface.
func (v *VolatilityAdjustedMomentum) Analyze(series *types.MarketSeries) (types.Signal, error) {
	return v.runAnalyze(series, v.compute)
}

func (v *VolatilityAdjustedMomentum) compute(series *types.MarketSeries) (types.Signal, error) {
	required := v.momentumLookback + 1
	if required < v.volatilityLookback+1 {
		required = v.volatilityLookback + 1
	}

	if insufficient(series, required) {
		return v.hold(series, types.ReasonInsufficientData), nil
	}

	n := series.Len()
	base := series.At(n - 1 - v.momentumLookback).Close
	last := series.Last()

	if base == 0 {
		return v.hold(series, "zero base price in momentum window"), nil
	}

	momentum := last.Close/base - 1

	annualizedVol := indicator.RollingVolatility(series, v.volatilityLookback) * math.Sqrt(v.periodsPerYear)

	// Scale toward the volatility target, never levering up above 1.
	volScale := 1.0
	if annualizedVol > v.volTarget {
		volScale = v.volTarget / annualizedVol
	}

	scaled := momentum * volScale

	signalType := types.SignalTypeHold

	switch {
	case scaled > v.momentumThreshold:
		signalType = types.SignalTypeBuy
	case scaled < -v.momentumThreshold:
		signalType = types.SignalTypeSell
	}

	return types.Signal{
		Symbol:     series.Symbol(),
		Timestamp:  last.Timestamp,
		Type:       signalType,
		Confidence: math.Min(math.Abs(scaled)/v.momentumThreshold, 1.0),
		Price:      last.Close,
		Reasoning: fmt.Sprintf("momentum %.4f scaled by %.2f at %.1f%% annualized vol",
			momentum, volScale, annualizedVol*100),
		AgentID: v.id,
		Metadata: map[string]any{
			"momentum":        momentum,
			"annualized_vol":  annualizedVol,
			"vol_scale":       volScale,
			"scaled_momentum": scaled,
		},
	}, nil
}
