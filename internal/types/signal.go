package types

import "time"

type SignalType string

const (
	// SignalTypeBuy recommends opening or holding a long position
	SignalTypeBuy SignalType = "BUY"
	// SignalTypeSell recommends opening or holding a short position
	SignalTypeSell SignalType = "SELL"
	// SignalTypeHold recommends taking no action
	SignalTypeHold SignalType = "HOLD"
)

// DirectionalValue maps a signal type onto the -1/0/+1 axis used by
// weighted aggregation.
func (s SignalType) DirectionalValue() float64 {
	switch s {
	case SignalTypeBuy:
		return 1
	case SignalTypeSell:
		return -1
	default:
		return 0
	}
}

// Reasons carried on soft-degraded signals.
const (
	ReasonInsufficientData    = "insufficient_data"
	ReasonPairNotCointegrated = "pair_not_cointegrated"
	ReasonNoConsensus         = "no_consensus"
)

// Signal is the common output of every strategy agent. Produced fresh on
// every analyze call and never mutated afterwards.
type Signal struct {
	// Symbol is the symbol the signal applies to
	Symbol string `yaml:"symbol"`
	// Timestamp is the market time of the bar that produced the signal
	Timestamp time.Time `yaml:"timestamp"`
	// Type is the recommended action
	Type SignalType `yaml:"type"`
	// Confidence is in [0, 1]
	Confidence float64 `yaml:"confidence"`
	// Price is the close price at signal time
	Price float64 `yaml:"price"`
	// Reasoning is a human-readable explanation of the signal
	Reasoning string `yaml:"reasoning"`
	// AgentID identifies the agent that produced the signal
	AgentID string `yaml:"agent_id"`
	// Metadata carries opaque per-agent values (z-scores, sub-signals, ...)
	Metadata map[string]any `yaml:"metadata,omitempty"`
}

// HoldSignal builds a zero-confidence HOLD signal with the given reasoning.
// Used by agents to degrade soft errors instead of raising them.
func HoldSignal(symbol string, timestamp time.Time, price float64, agentID, reasoning string) Signal {
	return Signal{
		Symbol:     symbol,
		Timestamp:  timestamp,
		Type:       SignalTypeHold,
		Confidence: 0.0,
		Price:      price,
		Reasoning:  reasoning,
		AgentID:    agentID,
		Metadata:   nil,
	}
}
