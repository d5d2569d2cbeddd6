// Package ensemble combines several strategy agents into one composite
// agent. Sub-agents are analyzed concurrently and their signals reduced to a
// single consensus signal by a configurable aggregation method.
package ensemble

import (
	"fmt"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/rxtech-lab/argo-ensemble/internal/agent"
	"github.com/rxtech-lab/argo-ensemble/internal/logger"
	"github.com/rxtech-lab/argo-ensemble/internal/performance"
	"github.com/rxtech-lab/argo-ensemble/internal/types"
	"github.com/rxtech-lab/argo-ensemble/pkg/errors"
)

// Method selects how sub-agent signals are reduced to one consensus signal.
type Method string

const (
	// MethodMajorityVote picks the direction with the most votes;
	// confidence is the winning vote share. Ties resolve to HOLD.
	MethodMajorityVote Method = "majority_vote"
	// MethodWeightedAverage combines directions with static per-agent
	// weights.
	MethodWeightedAverage Method = "weighted_average"
	// MethodConfidenceWeighted weights each direction by the sub-signal's
	// own confidence.
	MethodConfidenceWeighted Method = "confidence_weighted"
	// MethodPerformanceWeighted weights each agent by its trailing win
	// rate; agents with no resolved trades get a neutral weight.
	MethodPerformanceWeighted Method = "performance_weighted"
	// MethodAdaptive re-derives per-agent weights from exponentially
	// decayed outcome history on a fixed recompute cadence.
	MethodAdaptive Method = "adaptive"
)

// TypeEnsemble is the agent type reported by the composite.
const TypeEnsemble agent.Type = "ensemble"

const (
	defaultMinAgreement    = 0.5
	defaultDeadband        = 0.1
	defaultRecomputeTrades = 10
	defaultDecay           = 0.94
	neutralWinRate         = 0.5
)

// Config tunes the ensemble. Zero values fall back to defaults.
type Config struct {
	// ID identifies the ensemble in emitted signals. Defaults to "ensemble".
	ID string
	// Method is the aggregation method. Defaults to majority vote.
	Method Method
	// Weights are the static per-agent weights used by weighted_average,
	// keyed by agent ID. Missing agents default to weight 1.
	Weights map[string]float64
	// MinAgreement is the agreement floor in [0, 1]: when the fraction of
	// sub-signals agreeing with the consensus direction falls below it, the
	// ensemble emits HOLD with confidence zero.
	MinAgreement float64
	// Deadband is the neutral zone for weighted scores.
	Deadband float64
	// RecomputeTrades is the number of resolved trades between adaptive
	// weight recomputations.
	RecomputeTrades int
	// Decay is the exponential decay applied to outcome history when
	// adaptive weights are recomputed.
	Decay float64
	// Logger receives per-analysis diagnostics. Defaults to a nop logger.
	Logger *logger.Logger
}

// decayedScore is one agent's exponentially smoothed outcome score, the
// input to adaptive reweighting. Win/loss counts live on the tracker.
type decayedScore struct {
	value  float64
	scored bool
}

// Ensemble is a composite agent over a fixed set of sub-agents. It
// implements the same Agent contract as the strategies it wraps, so an
// ensemble can be backtested anywhere a single agent can.
type Ensemble struct {
	id     string
	method Method

	agents  []agent.Agent
	weights map[string]float64

	minAgreement float64
	deadband     float64

	recomputeEvery int
	decay          float64

	logger *logger.Logger

	mu           sync.RWMutex
	state        types.AgentState
	lastStrength float64

	tracker *performance.Tracker

	perfMu          sync.Mutex
	scores          map[string]*decayedScore
	resolvedPending int
	adaptiveWeights map[string]float64
}

// New creates an ensemble over the given sub-agents.
func New(cfg Config, agents ...agent.Agent) (*Ensemble, error) {
	if len(agents) == 0 {
		return nil, errors.New(errors.ErrCodeNoSubAgents, "ensemble requires at least one sub-agent")
	}

	method := cfg.Method
	if method == "" {
		method = MethodMajorityVote
	}

	switch method {
	case MethodMajorityVote, MethodWeightedAverage, MethodConfidenceWeighted,
		MethodPerformanceWeighted, MethodAdaptive:
	default:
		return nil, errors.Newf(errors.ErrCodeUnknownAggregationMethod, "unknown aggregation method %q", method)
	}

	id := cfg.ID
	if id == "" {
		id = "ensemble"
	}

	minAgreement := cfg.MinAgreement
	if minAgreement == 0 {
		minAgreement = defaultMinAgreement
	}

	deadband := cfg.Deadband
	if deadband == 0 {
		deadband = defaultDeadband
	}

	recompute := cfg.RecomputeTrades
	if recompute <= 0 {
		recompute = defaultRecomputeTrades
	}

	decay := cfg.Decay
	if decay <= 0 || decay >= 1 {
		decay = defaultDecay
	}

	log := cfg.Logger
	if log == nil {
		log = logger.NewNopLogger()
	}

	return &Ensemble{
		id:             id,
		method:         method,
		agents:         agents,
		weights:        cfg.Weights,
		minAgreement:   minAgreement,
		deadband:       deadband,
		recomputeEvery: recompute,
		decay:          decay,
		logger:         log,
		state:          types.AgentStateCreated,
		tracker:        performance.NewTracker(),
		scores:         make(map[string]*decayedScore),
	}, nil
}

// ID implements the Agent interface.
func (e *Ensemble) ID() string {
	return e.id
}

// Type implements the Agent interface.
func (e *Ensemble) Type() agent.Type {
	return TypeEnsemble
}

// State implements the Agent interface.
func (e *Ensemble) State() types.AgentState {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return e.state
}

// SignalStrength implements the Agent interface.
func (e *Ensemble) SignalStrength() float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return e.lastStrength
}

// SubAgents returns the wrapped agents in registration order.
func (e *Ensemble) SubAgents() []agent.Agent {
	return e.agents
}

// Start starts every sub-agent, then moves the ensemble to ACTIVE. The
// first sub-agent failure aborts the start.
func (e *Ensemble) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch e.state {
	case types.AgentStateCreated, types.AgentStateStopped:
	case types.AgentStateActive:
		return nil
	default:
		return errors.NewInvalidStateError(e.id, string(e.state), "start")
	}

	for _, sub := range e.agents {
		if err := sub.Start(); err != nil {
			return errors.Wrapf(errors.ErrCodeAgentFailed, err, "ensemble %s: starting sub-agent %s", e.id, sub.ID())
		}
	}

	e.state = types.AgentStateActive

	return nil
}

// Stop stops every sub-agent, then moves the ensemble to STOPPED.
func (e *Ensemble) Stop() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch e.state {
	case types.AgentStateActive:
	case types.AgentStateStopped:
		return nil
	default:
		return errors.NewInvalidStateError(e.id, string(e.state), "stop")
	}

	for _, sub := range e.agents {
		if err := sub.Stop(); err != nil {
			return errors.Wrapf(errors.ErrCodeAgentFailed, err, "ensemble %s: stopping sub-agent %s", e.id, sub.ID())
		}
	}

	e.state = types.AgentStateStopped

	return nil
}

// Train trains every sub-agent on the same series.
func (e *Ensemble) Train(series *types.MarketSeries) error {
	for _, sub := range e.agents {
		if err := sub.Train(series); err != nil {
			return errors.Wrapf(errors.ErrCodeAgentFailed, err, "ensemble %s: training sub-agent %s", e.id, sub.ID())
		}
	}

	return nil
}

// Analyze fans the series out to every sub-agent concurrently, waits for all
// of them, and reduces the collected signals with the configured method.
// A sub-agent error is degraded to a zero-confidence HOLD vote so one broken
// strategy cannot take down the ensemble.
func (e *Ensemble) Analyze(series *types.MarketSeries) (types.Signal, error) {
	e.mu.RLock()
	state := e.state
	e.mu.RUnlock()

	if state != types.AgentStateActive {
		return types.Signal{}, errors.NewInvalidStateError(e.id, string(state), "analyze")
	}

	signals := make([]types.Signal, len(e.agents))

	var wg sync.WaitGroup

	for i, sub := range e.agents {
		wg.Add(1)

		go func(i int, sub agent.Agent) {
			defer wg.Done()

			signal, err := sub.Analyze(series)
			if err != nil {
				e.logger.Warn("sub-agent analyze failed, degrading to HOLD",
					zap.String("ensemble", e.id),
					zap.String("agent", sub.ID()),
					zap.Error(err))

				signal = e.holdAt(series, fmt.Sprintf("sub-agent %s failed", sub.ID()))
				signal.AgentID = sub.ID()
			}

			signals[i] = signal
		}(i, sub)
	}

	wg.Wait()

	consensus := e.aggregate(series, signals)

	e.mu.Lock()
	e.lastStrength = consensus.Confidence
	e.mu.Unlock()

	return consensus, nil
}

// Tracker exposes the per-agent win/loss history accumulated from resolved
// trade outcomes.
func (e *Ensemble) Tracker() *performance.Tracker {
	return e.tracker
}

// RecordOutcome feeds one resolved trade outcome back into the trailing
// per-agent history used by performance-weighted and adaptive aggregation.
func (e *Ensemble) RecordOutcome(agentID string, profitable bool) {
	e.tracker.RecordOutcome(agentID, profitable)

	outcome := 0.0
	if profitable {
		outcome = 1.0
	}

	e.perfMu.Lock()
	defer e.perfMu.Unlock()

	score, ok := e.scores[agentID]
	if !ok {
		score = &decayedScore{}
		e.scores[agentID] = score
	}

	if score.scored {
		score.value = e.decay*score.value + (1-e.decay)*outcome
	} else {
		score.value = outcome
		score.scored = true
	}

	e.resolvedPending++
	if e.resolvedPending >= e.recomputeEvery {
		e.recomputeAdaptiveWeights()

		e.resolvedPending = 0
	}
}

// recomputeAdaptiveWeights snapshots the decayed scores into normalized
// weights. Callers hold perfMu.
func (e *Ensemble) recomputeAdaptiveWeights() {
	weights := make(map[string]float64, len(e.agents))

	total := 0.0

	for _, sub := range e.agents {
		score := neutralWinRate

		if record, ok := e.scores[sub.ID()]; ok && record.scored {
			score = record.value
		}

		// Floor keeps a cold-streak agent from being silenced forever.
		if score < 0.05 {
			score = 0.05
		}

		weights[sub.ID()] = score
		total += score
	}

	for id := range weights {
		weights[id] /= total
	}

	e.adaptiveWeights = weights

	e.logger.Debug("recomputed adaptive weights", zap.String("ensemble", e.id), zap.Any("weights", weights))
}

// aggregate reduces the sub-signals to one consensus signal and applies the
// agreement floor.
func (e *Ensemble) aggregate(series *types.MarketSeries, signals []types.Signal) types.Signal {
	var consensus types.Signal

	switch e.method {
	case MethodMajorityVote:
		consensus = e.majorityVote(series, signals)
	case MethodWeightedAverage:
		consensus = e.weighted(series, signals, e.staticWeight, "weighted average")
	case MethodConfidenceWeighted:
		consensus = e.confidenceWeighted(series, signals)
	case MethodPerformanceWeighted:
		consensus = e.weighted(series, signals, e.performanceWeight, "performance weighted")
	case MethodAdaptive:
		consensus = e.weighted(series, signals, e.adaptiveWeight, "adaptive")
	}

	if consensus.Type != types.SignalTypeHold {
		agreement := agreementShare(signals, consensus.Type)
		if agreement < e.minAgreement {
			floored := e.holdAt(series, types.ReasonNoConsensus)
			floored.Metadata = map[string]any{
				"sub_signals": signals,
				"agreement":   agreement,
				"method":      string(e.method),
			}

			return floored
		}
	}

	return consensus
}

// majorityVote counts one vote per sub-agent. The winning direction must
// strictly beat both alternatives; any tie resolves to HOLD.
func (e *Ensemble) majorityVote(series *types.MarketSeries, signals []types.Signal) types.Signal {
	buy, sell, hold := 0, 0, 0

	for _, signal := range signals {
		switch signal.Type {
		case types.SignalTypeBuy:
			buy++
		case types.SignalTypeSell:
			sell++
		default:
			hold++
		}
	}

	signalType := types.SignalTypeHold
	winner := hold

	switch {
	case buy > sell && buy > hold:
		signalType = types.SignalTypeBuy
		winner = buy
	case sell > buy && sell > hold:
		signalType = types.SignalTypeSell
		winner = sell
	}

	confidence := float64(winner) / float64(len(signals))
	if signalType == types.SignalTypeHold {
		confidence = 0
	}

	return e.consensusSignal(series, signals, signalType, confidence,
		fmt.Sprintf("majority vote %d buy / %d sell / %d hold across %d agents", buy, sell, hold, len(signals)))
}

// weighted combines the -1/0/+1 directions with per-agent weights from the
// given weight function and applies the deadband.
func (e *Ensemble) weighted(series *types.MarketSeries, signals []types.Signal, weightOf func(string) float64, label string) types.Signal {
	net := 0.0
	total := 0.0

	for _, signal := range signals {
		weight := weightOf(signal.AgentID)
		net += weight * signal.Type.DirectionalValue()
		total += weight
	}

	if total == 0 {
		return e.holdAt(series, label+" with zero total weight")
	}

	score := net / total

	signalType := types.SignalTypeHold

	switch {
	case score > e.deadband:
		signalType = types.SignalTypeBuy
	case score < -e.deadband:
		signalType = types.SignalTypeSell
	}

	confidence := math.Min(math.Abs(score), 1.0)
	if signalType == types.SignalTypeHold {
		confidence = 0
	}

	return e.consensusSignal(series, signals, signalType, confidence,
		fmt.Sprintf("%s score %.3f across %d agents", label, score, len(signals)))
}

// confidenceWeighted weights each direction by the emitting agent's own
// confidence, so hesitant agents contribute less than convinced ones.
func (e *Ensemble) confidenceWeighted(series *types.MarketSeries, signals []types.Signal) types.Signal {
	net := 0.0
	total := 0.0

	for _, signal := range signals {
		net += signal.Confidence * signal.Type.DirectionalValue()
		total += signal.Confidence
	}

	if total == 0 {
		return e.holdAt(series, "all sub-agents at zero confidence")
	}

	score := net / total

	signalType := types.SignalTypeHold

	switch {
	case score > e.deadband:
		signalType = types.SignalTypeBuy
	case score < -e.deadband:
		signalType = types.SignalTypeSell
	}

	confidence := math.Min(math.Abs(score), 1.0)
	if signalType == types.SignalTypeHold {
		confidence = 0
	}

	return e.consensusSignal(series, signals, signalType, confidence,
		fmt.Sprintf("confidence weighted score %.3f across %d agents", score, len(signals)))
}

func (e *Ensemble) staticWeight(agentID string) float64 {
	if weight, ok := e.weights[agentID]; ok {
		return weight
	}

	return 1
}

func (e *Ensemble) performanceWeight(agentID string) float64 {
	return e.tracker.WinRate(agentID)
}

func (e *Ensemble) adaptiveWeight(agentID string) float64 {
	e.perfMu.Lock()
	defer e.perfMu.Unlock()

	if weight, ok := e.adaptiveWeights[agentID]; ok {
		return weight
	}

	// Before the first recompute every agent pulls equal weight.
	return 1.0 / float64(len(e.agents))
}

func (e *Ensemble) consensusSignal(series *types.MarketSeries, signals []types.Signal, signalType types.SignalType, confidence float64, reasoning string) types.Signal {
	last := series.Last()

	return types.Signal{
		Symbol:     series.Symbol(),
		Timestamp:  last.Timestamp,
		Type:       signalType,
		Confidence: confidence,
		Price:      last.Close,
		Reasoning:  reasoning,
		AgentID:    e.id,
		Metadata: map[string]any{
			"sub_signals": signals,
			"method":      string(e.method),
		},
	}
}

func (e *Ensemble) holdAt(series *types.MarketSeries, reasoning string) types.Signal {
	if series.Len() == 0 {
		return types.HoldSignal(series.Symbol(), time.Time{}, 0, e.id, reasoning)
	}

	last := series.Last()

	return types.HoldSignal(series.Symbol(), last.Timestamp, last.Close, e.id, reasoning)
}

// agreementShare is the fraction of sub-signals whose direction matches the
// consensus direction.
func agreementShare(signals []types.Signal, consensus types.SignalType) float64 {
	if len(signals) == 0 {
		return 0
	}

	agreeing := 0

	for _, signal := range signals {
		if signal.Type == consensus {
			agreeing++
		}
	}

	return float64(agreeing) / float64(len(signals))
}
