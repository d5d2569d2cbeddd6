package agent

import (
	"fmt"
	"math"

	"github.com/rxtech-lab/argo-ensemble/internal/indicator"
	"github.com/rxtech-lab/argo-ensemble/internal/types"
)

// MeanReversion trades deviations from a rolling mean. It computes the
// z-score of the latest close against the rolling mean and standard
// deviation of the lookback window: strongly negative z-scores are buy
// opportunities, strongly positive ones are sells, and the position is
// released once the z-score decays inside the exit band.
//
// Config keys: lookback_period (20), entry_threshold (2.0),
// exit_threshold (0.5).
type MeanReversion struct {
	*baseAgent

	lookback       int
	entryThreshold float64
	exitThreshold  float64

	// trained summary of the full training series, kept for signal metadata
	trainedMean float64
	trainedStd  float64
}

// NewMeanReversion creates a mean reversion agent from the given config.
func NewMeanReversion(cfg Config) *MeanReversion {
	return &MeanReversion{
		baseAgent:      newBaseAgent(cfg.String("id", string(TypeMeanReversion)), TypeMeanReversion),
		lookback:       cfg.Int("lookback_period", 20),
		entryThreshold: cfg.Float("entry_threshold", 2.0),
		exitThreshold:  cfg.Float("exit_threshold", 0.5),
	}
}

// Train stores the long-run mean and deviation of the series. Re-training
// replaces prior values.
func (m *MeanReversion) Train(series *types.MarketSeries) error {
	return m.runTrain(series, func(series *types.MarketSeries) error {
		closes := series.Closes()
		m.trainedMean = indicator.Mean(closes)
		m.trainedStd = indicator.StdDev(closes)

		return nil
	})
}

// Analyze implements the Agent interface.
func (m *MeanReversion) Analyze(series *types.MarketSeries) (types.Signal, error) {
	return m.runAnalyze(series, m.compute)
}

func (m *MeanReversion) compute(series *types.MarketSeries) (types.Signal, error) {
	if insufficient(series, m.lookback) {
		return m.hold(series, types.ReasonInsufficientData), nil
	}

	window := indicator.TailCloses(series, m.lookback)
	last := series.Last()

	mean := indicator.Mean(window)
	sigma := indicator.StdDev(window)

	if sigma == 0 {
		return m.hold(series, "zero volatility in lookback window"), nil
	}

	z := (last.Close - mean) / sigma
	confidence := math.Min(math.Abs(z)/m.entryThreshold, 1.0)

	signalType := types.SignalTypeHold
	reasoning := fmt.Sprintf("z-score %.2f inside entry band", z)

	switch {
	case z <= -m.entryThreshold:
		signalType = types.SignalTypeBuy
		reasoning = fmt.Sprintf("close %.2f is %.2f sigma below rolling mean %.2f", last.Close, -z, mean)
	case z >= m.entryThreshold:
		signalType = types.SignalTypeSell
		reasoning = fmt.Sprintf("close %.2f is %.2f sigma above rolling mean %.2f", last.Close, z, mean)
	case math.Abs(z) <= m.exitThreshold:
		reasoning = fmt.Sprintf("z-score %.2f inside exit band, revert complete", z)
	}

	return types.Signal{
		Symbol:     series.Symbol(),
		Timestamp:  last.Timestamp,
		Type:       signalType,
		Confidence: confidence,
		Price:      last.Close,
		Reasoning:  reasoning,
		AgentID:    m.id,
		Metadata: map[string]any{
			"z_score":      z,
			"rolling_mean": mean,
			"rolling_std":  sigma,
		},
	}, nil
}
