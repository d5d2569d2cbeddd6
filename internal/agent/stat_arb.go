package agent

import (
	"fmt"
	"math"

	"github.com/rxtech-lab/argo-ensemble/internal/indicator"
	"github.com/rxtech-lab/argo-ensemble/internal/types"
)

// StatisticalArbitrage decomposes the price into a systematic component
// (the series' own long-run linear trend, fit by OLS against time) and an
// idiosyncratic residual. Mean-reversion logic is applied to the residual
// and momentum logic to the trend slope; the two are combined with
// configurable weights into one confidence-weighted action.
//
// Config keys: lookback_period (60), entry_threshold (2.0),
// reversion_weight (0.5), momentum_weight (0.5), deadband (0.1).
type StatisticalArbitrage struct {
	*baseAgent

	lookback        int
	entryThreshold  float64
	reversionWeight float64
	momentumWeight  float64
	deadband        float64
}

// NewStatisticalArbitrage creates a statistical arbitrage agent from the
// given config.
func NewStatisticalArbitrage(cfg Config) *StatisticalArbitrage {
	return &StatisticalArbitrage{
		baseAgent:       newBaseAgent(cfg.String("id", string(TypeStatisticalArbitrage)), TypeStatisticalArbitrage),
		lookback:        cfg.Int("lookback_period", 60),
		entryThreshold:  cfg.Float("entry_threshold", 2.0),
		reversionWeight: cfg.Float("reversion_weight", 0.5),
		momentumWeight:  cfg.Float("momentum_weight", 0.5),
		deadband:        cfg.Float("deadband", 0.1),
	}
}

// Train is a no-op: the trend is refit on every analyze call.
func (s *StatisticalArbitrage) Train(series *types.MarketSeries) error {
	return s.runTrain(series, func(*types.MarketSeries) error { return nil })
}

// Analyze implements the Agent interface.
func (s *StatisticalArbitrage) Analyze(series *types.MarketSeries) (types.Signal, error) {
	return s.runAnalyze(series, s.compute)
}

func (s *StatisticalArbitrage) compute(series *types.MarketSeries) (types.Signal, error) {
	if insufficient(series, s.lookback) {
		return s.hold(series, types.ReasonInsufficientData), nil
	}

	closes := indicator.TailCloses(series, s.lookback)

	index := make([]float64, len(closes))
	for i := range index {
		index[i] = float64(i)
	}

	fit, err := indicator.OLS(index, closes)
	if err != nil {
		return s.hold(series, "degenerate trend regression"), nil
	}

	// Idiosyncratic residual: distance of each close from the fitted trend.
	residuals := make([]float64, len(closes))
	for i := range closes {
		residuals[i] = closes[i] - (fit.Alpha + fit.Beta*index[i])
	}

	sigma := indicator.StdDev(residuals)
	if sigma == 0 {
		return s.hold(series, "zero residual volatility"), nil
	}

	// Mean reversion on the residual: fade the current deviation.
	z := residuals[len(residuals)-1] / sigma
	reversionScore := -math.Max(-1, math.Min(1, z/s.entryThreshold))

	// Momentum on the systematic component: per-bar trend return.
	meanClose := indicator.Mean(closes)

	momentumScore := 0.0
	if meanClose != 0 {
		trendReturn := fit.Beta / meanClose
		// 0.2% per bar of trend saturates the momentum vote.
		momentumScore = math.Max(-1, math.Min(1, trendReturn/0.002))
	}

	score := s.reversionWeight*reversionScore + s.momentumWeight*momentumScore
	totalWeight := s.reversionWeight + s.momentumWeight

	confidence := 0.0
	if totalWeight > 0 {
		confidence = math.Min(math.Abs(score)/totalWeight, 1.0)
	}

	signalType := types.SignalTypeHold

	switch {
	case score > s.deadband:
		signalType = types.SignalTypeBuy
	case score < -s.deadband:
		signalType = types.SignalTypeSell
	}

	last := series.Last()

	return types.Signal{
		Symbol:     series.Symbol(),
		Timestamp:  last.Timestamp,
		Type:       signalType,
		Confidence: confidence,
		Price:      last.Close,
		Reasoning: fmt.Sprintf("residual z %.2f (reversion %.2f), trend slope %.4f (momentum %.2f), combined %.2f",
			z, reversionScore, fit.Beta, momentumScore, score),
		AgentID: s.id,
		Metadata: map[string]any{
			"residual_z":      z,
			"trend_slope":     fit.Beta,
			"reversion_score": reversionScore,
			"momentum_score":  momentumScore,
			"combined_score":  score,
		},
	}, nil
}
