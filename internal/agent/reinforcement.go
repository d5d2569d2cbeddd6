package agent

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/rxtech-lab/argo-ensemble/internal/indicator"
	"github.com/rxtech-lab/argo-ensemble/internal/types"
	"github.com/rxtech-lab/argo-ensemble/pkg/errors"
)

// Discrete actions of the RL policy. Indexes into the Q-value rows.
const (
	rlActionHold = 0
	rlActionBuy  = 1
	rlActionSell = 2
)

// rlExperience is one (state, action, reward, next state) tuple in the
// replay buffer.
type rlExperience struct {
	state     string
	action    int
	reward    float64
	nextState string
}

// ReinforcementLearning learns a tabular value function over a discretized
// state of {momentum, volatility, RSI, position flag, unrealized pnl sign}.
// Training replays the series with epsilon-greedy exploration and updates
// Q-values from an experience-replay buffer; inference is a greedy lookup
// with no exploration, so analyze stays deterministic.
//
// Config keys: lookback_period (14), epsilon (0.1), learning_rate (0.1),
// discount (0.95), replay_epochs (3), seed (42).
type ReinforcementLearning struct {
	*baseAgent

	lookback     int
	epsilon      float64
	learningRate float64
	discount     float64
	replayEpochs int
	seed         int64

	rsi *indicator.RSI

	qtable map[string][3]float64
}

// NewReinforcementLearning creates an RL agent from the given config.
func NewReinforcementLearning(cfg Config) *ReinforcementLearning {
	rsi := indicator.NewRSI()
	_ = rsi.Config(cfg.Int("lookback_period", 14))

	return &ReinforcementLearning{
		baseAgent:    newBaseAgent(cfg.String("id", string(TypeReinforcementLearning)), TypeReinforcementLearning),
		lookback:     cfg.Int("lookback_period", 14),
		epsilon:      cfg.Float("epsilon", 0.1),
		learningRate: cfg.Float("learning_rate", 0.1),
		discount:     cfg.Float("discount", 0.95),
		replayEpochs: cfg.Int("replay_epochs", 3),
		seed:         int64(cfg.Int("seed", 42)),
		rsi:          rsi,
		qtable:       make(map[string][3]float64),
	}
}

// Train replays the series collecting experiences with seeded
// epsilon-greedy exploration, then updates the value function from the
// replay buffer. Re-training rebuilds the table from scratch.
func (r *ReinforcementLearning) Train(series *types.MarketSeries) error {
	return r.runTrain(series, r.fit)
}

func (r *ReinforcementLearning) fit(series *types.MarketSeries) error {
	required := r.lookback + 3
	if series.Len() < required {
		return errors.NewInsufficientDataErrorf(required, series.Len(), series.Symbol(),
			"RL training requires at least %d bars, got %d", required, series.Len())
	}

	rng := rand.New(rand.NewSource(r.seed))
	r.qtable = make(map[string][3]float64)

	var buffer []rlExperience

	position := 0
	entryPrice := 0.0

	for t := r.lookback + 1; t < series.Len()-1; t++ {
		window := series.Prefix(t + 1)
		price := series.At(t).Close

		state := r.stateKey(window, position, unrealizedSign(position, entryPrice, price))

		action := r.greedyAction(state)
		if rng.Float64() < r.epsilon {
			action = rng.Intn(3)
		}

		// Apply the action to the simulated position.
		switch action {
		case rlActionBuy:
			if position <= 0 {
				position = 1
				entryPrice = price
			}
		case rlActionSell:
			if position >= 0 {
				position = -1
				entryPrice = price
			}
		}

		nextPrice := series.At(t + 1).Close

		nextReturn := 0.0
		if price != 0 {
			nextReturn = nextPrice/price - 1
		}

		reward := float64(position) * nextReturn

		nextWindow := series.Prefix(t + 2)
		nextState := r.stateKey(nextWindow, position, unrealizedSign(position, entryPrice, nextPrice))

		buffer = append(buffer, rlExperience{
			state:     state,
			action:    action,
			reward:    reward,
			nextState: nextState,
		})
	}

	// Replay the buffer in shuffled order a few times.
	for epoch := 0; epoch < r.replayEpochs; epoch++ {
		rng.Shuffle(len(buffer), func(i, j int) {
			buffer[i], buffer[j] = buffer[j], buffer[i]
		})

		for _, exp := range buffer {
			r.update(exp)
		}
	}

	return nil
}

// greedyAction is the argmax over the state's Q-value row. Unseen states
// read an all-zero row, so ties resolve to hold.
func (r *ReinforcementLearning) greedyAction(state string) int {
	values := r.qtable[state]

	best := rlActionHold
	for action := 1; action < 3; action++ {
		if values[action] > values[best] {
			best = action
		}
	}

	return best
}

func (r *ReinforcementLearning) update(exp rlExperience) {
	values := r.qtable[exp.state]
	nextValues := r.qtable[exp.nextState]

	bestNext := math.Max(nextValues[0], math.Max(nextValues[1], nextValues[2]))

	target := exp.reward + r.discount*bestNext
	values[exp.action] += r.learningRate * (target - values[exp.action])

	r.qtable[exp.state] = values
}

// Analyze implements the Agent interface. Inference is greedy: epsilon is
// zero, so repeated calls over the same series are identical.
func (r *ReinforcementLearning) Analyze(series *types.MarketSeries) (types.Signal, error) {
	return r.runAnalyze(series, r.compute)
}

func (r *ReinforcementLearning) compute(series *types.MarketSeries) (types.Signal, error) {
	if insufficient(series, r.lookback+2) {
		return r.hold(series, types.ReasonInsufficientData), nil
	}

	// The agent holds no live position at inference: the position flag and
	// unrealized pnl components are neutral.
	state := r.stateKey(series, 0, 0)
	values := r.qtable[state]

	best, second := rlActionHold, rlActionHold
	for action := 1; action < 3; action++ {
		if values[action] > values[best] {
			second = best
			best = action
		} else if best == second || values[action] > values[second] {
			second = action
		}
	}

	margin := values[best] - values[second]

	scale := math.Abs(values[best]) + math.Abs(values[second])

	confidence := 0.0
	if scale > 0 {
		confidence = math.Min(margin/scale, 1.0)
	}

	signalType := types.SignalTypeHold

	switch best {
	case rlActionBuy:
		signalType = types.SignalTypeBuy
	case rlActionSell:
		signalType = types.SignalTypeSell
	}

	last := series.Last()

	return types.Signal{
		Symbol:     series.Symbol(),
		Timestamp:  last.Timestamp,
		Type:       signalType,
		Confidence: confidence,
		Price:      last.Close,
		Reasoning:  fmt.Sprintf("greedy action in state %s with value margin %.4f", state, margin),
		AgentID:    r.id,
		Metadata: map[string]any{
			"state":    state,
			"q_values": []float64{values[0], values[1], values[2]},
		},
	}, nil
}

// stateKey discretizes the state vector into a small table key.
func (r *ReinforcementLearning) stateKey(series *types.MarketSeries, position, pnlSign int) string {
	n := series.Len()

	momentum := 0.0
	if base := series.At(n - 1 - r.lookback).Close; base != 0 {
		momentum = series.Last().Close/base - 1
	}

	volatility := indicator.RollingVolatility(series, r.lookback)

	rsiValue, err := r.rsi.Value(series)
	if err != nil {
		rsiValue = 50
	}

	return fmt.Sprintf("m%d|v%d|r%d|p%d|u%d",
		bucket(momentum, 0.01), bucket(volatility, 0.005), int(rsiValue)/20, position, pnlSign)
}

// bucket maps a continuous value into {-2..2} with the given step.
func bucket(value, step float64) int {
	b := int(value / step)
	if b > 2 {
		return 2
	}

	if b < -2 {
		return -2
	}

	return b
}

func unrealizedSign(position int, entryPrice, price float64) int {
	if position == 0 || entryPrice == 0 {
		return 0
	}

	pnl := float64(position) * (price - entryPrice)
	if pnl > 0 {
		return 1
	}

	if pnl < 0 {
		return -1
	}

	return 0
}
