package agent

import (
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/rxtech-lab/argo-ensemble/internal/indicator"
	"github.com/rxtech-lab/argo-ensemble/internal/types"
)

// PairsTrading trades the spread between a target series and a paired
// series. The hedge ratio is fit by OLS of target closes on pair closes;
// mean-reversion logic is applied to the z-score of the spread. Signals are
// only emitted when an ADF-style stationarity check classifies the spread
// as cointegrated; otherwise the agent always holds.
//
// The paired series is attached via SetPairSeries before the agent is
// used; analyzing without one degrades to HOLD.
//
// Config keys: lookback_period (60), entry_threshold (2.0),
// exit_threshold (0.5), adf_threshold (-2.86).
type PairsTrading struct {
	*baseAgent

	lookback       int
	entryThreshold float64
	exitThreshold  float64
	adfThreshold   float64

	pairMu sync.RWMutex
	pair   *types.MarketSeries
}

// NewPairsTrading creates a pairs trading agent from the given config.
func NewPairsTrading(cfg Config) *PairsTrading {
	return &PairsTrading{
		baseAgent:      newBaseAgent(cfg.String("id", string(TypePairsTrading)), TypePairsTrading),
		lookback:       cfg.Int("lookback_period", 60),
		entryThreshold: cfg.Float("entry_threshold", 2.0),
		exitThreshold:  cfg.Float("exit_threshold", 0.5),
		adfThreshold:   cfg.Float("adf_threshold", -2.86),
	}
}

// SetPairSeries attaches the paired series the spread is computed against.
func (p *PairsTrading) SetPairSeries(pair *types.MarketSeries) {
	p.pairMu.Lock()
	defer p.pairMu.Unlock()

	p.pair = pair
}

// Train is a no-op: the hedge ratio is refit on every analyze call over the
// current lookback window.
func (p *PairsTrading) Train(series *types.MarketSeries) error {
	return p.runTrain(series, func(*types.MarketSeries) error { return nil })
}

// Analyze implements the Agent interface.
func (p *PairsTrading) Analyze(series *types.MarketSeries) (types.Signal, error) {
	return p.runAnalyze(series, p.compute)
}

func (p *PairsTrading) compute(series *types.MarketSeries) (types.Signal, error) {
	p.pairMu.RLock()
	pair := p.pair
	p.pairMu.RUnlock()

	if pair == nil {
		return p.hold(series, "no pair series attached"), nil
	}

	if insufficient(series, p.lookback) {
		return p.hold(series, types.ReasonInsufficientData), nil
	}

	// The backtester analyzes historical prefixes of the target; the pair
	// must be trimmed to the same point in time or the spread would be fit
	// against pair bars the target has not reached yet.
	pair = alignPair(pair, series.Last().Timestamp)

	if insufficient(pair, p.lookback) {
		return p.hold(series, types.ReasonInsufficientData), nil
	}

	targetCloses := indicator.TailCloses(series, p.lookback)
	pairCloses := indicator.TailCloses(pair, p.lookback)

	fit, err := indicator.OLS(pairCloses, targetCloses)
	if err != nil {
		return p.hold(series, "degenerate hedge regression"), nil
	}

	spread := make([]float64, p.lookback)
	for i := range spread {
		spread[i] = targetCloses[i] - fit.Beta*pairCloses[i]
	}

	adfStat, err := indicator.ADFStatistic(spread)
	if err != nil || adfStat > p.adfThreshold {
		return p.hold(series, types.ReasonPairNotCointegrated), nil
	}

	sigma := indicator.StdDev(spread)
	if sigma == 0 {
		return p.hold(series, "zero spread volatility"), nil
	}

	z := (spread[len(spread)-1] - indicator.Mean(spread)) / sigma
	confidence := math.Min(math.Abs(z)/p.entryThreshold, 1.0)

	signalType := types.SignalTypeHold
	reasoning := fmt.Sprintf("spread z-score %.2f inside entry band", z)

	switch {
	case z <= -p.entryThreshold:
		signalType = types.SignalTypeBuy
		reasoning = fmt.Sprintf("spread %.2f sigma below mean with hedge ratio %.3f", -z, fit.Beta)
	case z >= p.entryThreshold:
		signalType = types.SignalTypeSell
		reasoning = fmt.Sprintf("spread %.2f sigma above mean with hedge ratio %.3f", z, fit.Beta)
	case math.Abs(z) <= p.exitThreshold:
		reasoning = fmt.Sprintf("spread z-score %.2f inside exit band, revert complete", z)
	}

	last := series.Last()

	return types.Signal{
		Symbol:     series.Symbol(),
		Timestamp:  last.Timestamp,
		Type:       signalType,
		Confidence: confidence,
		Price:      last.Close,
		Reasoning:  reasoning,
		AgentID:    p.id,
		Metadata: map[string]any{
			"hedge_ratio":   fit.Beta,
			"spread_z":      z,
			"adf_statistic": adfStat,
			"pair_symbol":   pair.Symbol(),
		},
	}, nil
}

// alignPair returns the prefix of pair whose bars are dated at or before
// cutoff, so both legs of the spread cover the same window.
func alignPair(pair *types.MarketSeries, cutoff time.Time) *types.MarketSeries {
	n := sort.Search(pair.Len(), func(i int) bool {
		return pair.At(i).Timestamp.After(cutoff)
	})

	return pair.Prefix(n)
}
