// Package agent contains the strategy agents: independent signal generators
// over OHLCV series sharing a common lifecycle and analyze contract. Agents
// are stateless per call apart from trained parameters; one agent instance
// must not be shared between concurrent backtest runs; construct a fresh
// instance per run via the factory.
package agent

import (
	"sync"
	"time"

	"github.com/rxtech-lab/argo-ensemble/internal/types"
	"github.com/rxtech-lab/argo-ensemble/pkg/errors"
)

// Agent is the common contract of every strategy agent. Analyze may only be
// called while the agent is ACTIVE; Train is optional and idempotent.
type Agent interface {
	// ID identifies the agent in emitted signals
	ID() string
	// Type returns the strategy type
	Type() Type
	// State returns the current lifecycle state
	State() types.AgentState
	// Start moves the agent to ACTIVE. Allowed from CREATED and STOPPED.
	Start() error
	// Stop moves the agent to STOPPED. Allowed from ACTIVE; no-op when
	// already stopped.
	Stop() error
	// Train computes and stores internal parameters from the series.
	// Re-training replaces prior state. Agents without trainable state
	// treat this as a no-op.
	Train(series *types.MarketSeries) error
	// Analyze produces one signal from the series. Never mutates the
	// series. Returns a zero-confidence HOLD signal when the series is
	// shorter than the required lookback.
	Analyze(series *types.MarketSeries) (types.Signal, error)
	// SignalStrength returns the confidence of the last emitted signal.
	SignalStrength() float64
}

// OutcomeRecorder is implemented by agents that track realized trade
// outcomes, such as the ensemble's performance-weighted aggregation. The
// backtester reports each resolved trade back through this interface.
type OutcomeRecorder interface {
	RecordOutcome(agentID string, profitable bool)
}

// baseAgent carries the lifecycle state machine shared by all strategies.
// Concrete agents embed it and route Train/Analyze through runTrain and
// runAnalyze so that state guards and failure transitions live in one place.
type baseAgent struct {
	id  string
	typ Type

	mu           sync.RWMutex
	state        types.AgentState
	lastStrength float64
}

func newBaseAgent(id string, typ Type) *baseAgent {
	return &baseAgent{
		id:    id,
		typ:   typ,
		state: types.AgentStateCreated,
	}
}

func (b *baseAgent) ID() string {
	return b.id
}

func (b *baseAgent) Type() Type {
	return b.typ
}

func (b *baseAgent) State() types.AgentState {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return b.state
}

func (b *baseAgent) SignalStrength() float64 {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return b.lastStrength
}

// Start implements the CREATED/STOPPED -> ACTIVE transition. Starting a
// FAILED agent is rejected; the agent must be reconstructed.
func (b *baseAgent) Start() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case types.AgentStateCreated, types.AgentStateStopped:
		b.state = types.AgentStateActive

		return nil
	case types.AgentStateActive:
		return nil
	default:
		return errors.NewInvalidStateError(b.id, string(b.state), "start")
	}
}

// Stop implements the ACTIVE -> STOPPED transition.
func (b *baseAgent) Stop() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case types.AgentStateActive:
		b.state = types.AgentStateStopped

		return nil
	case types.AgentStateStopped:
		return nil
	default:
		return errors.NewInvalidStateError(b.id, string(b.state), "stop")
	}
}

// runTrain executes fit under the TRAINING state. A panic or error inside
// fit moves the agent to FAILED and is surfaced to the caller; on success
// the prior state is restored.
func (b *baseAgent) runTrain(series *types.MarketSeries, fit func(*types.MarketSeries) error) (err error) {
	b.mu.Lock()

	switch b.state {
	case types.AgentStateCreated, types.AgentStateActive, types.AgentStateStopped:
	default:
		b.mu.Unlock()

		return errors.NewInvalidStateError(b.id, string(b.state), "train")
	}

	prior := b.state
	b.state = types.AgentStateTraining
	b.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			b.fail()

			err = errors.Newf(errors.ErrCodeAgentFailed, "agent %s: panic during train: %v", b.id, r)
		}
	}()

	if err = fit(series); err != nil {
		b.fail()

		return err
	}

	b.mu.Lock()
	b.state = prior
	b.mu.Unlock()

	return nil
}

// runAnalyze executes compute from the ACTIVE state. A panic or error
// inside compute moves the agent to FAILED and is surfaced to the caller.
// Soft conditions never reach this layer: compute degrades them to HOLD
// signals itself.
func (b *baseAgent) runAnalyze(series *types.MarketSeries, compute func(*types.MarketSeries) (types.Signal, error)) (signal types.Signal, err error) {
	b.mu.RLock()
	state := b.state
	b.mu.RUnlock()

	if state != types.AgentStateActive {
		return types.Signal{}, errors.NewInvalidStateError(b.id, string(state), "analyze")
	}

	defer func() {
		if r := recover(); r != nil {
			b.fail()

			err = errors.Newf(errors.ErrCodeAgentFailed, "agent %s: panic during analyze: %v", b.id, r)
		}
	}()

	signal, err = compute(series)
	if err != nil {
		b.fail()

		return types.Signal{}, err
	}

	b.mu.Lock()
	b.lastStrength = signal.Confidence
	b.mu.Unlock()

	return signal, nil
}

func (b *baseAgent) fail() {
	b.mu.Lock()
	b.state = types.AgentStateFailed
	b.mu.Unlock()
}

// hold is a convenience for building the degraded HOLD signal of a series.
func (b *baseAgent) hold(series *types.MarketSeries, reasoning string) types.Signal {
	if series.Len() == 0 {
		return types.HoldSignal(series.Symbol(), time.Time{}, 0, b.id, reasoning)
	}

	last := series.Last()

	return types.HoldSignal(series.Symbol(), last.Timestamp, last.Close, b.id, reasoning)
}

// insufficient reports whether the series is shorter than required bars.
func insufficient(series *types.MarketSeries, required int) bool {
	return series.Len() < required
}
