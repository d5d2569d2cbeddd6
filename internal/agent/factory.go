package agent

import (
	"sync"

	"github.com/rxtech-lab/argo-ensemble/pkg/errors"
)

// Type identifies a strategy agent implementation.
type Type string

const (
	TypeMeanReversion          Type = "mean_reversion"
	TypeMomentum               Type = "momentum"
	TypeStatisticalArbitrage   Type = "statistical_arbitrage"
	TypePricePrediction        Type = "price_prediction"
	TypeReinforcementLearning  Type = "reinforcement_learning"
	TypePairsTrading           Type = "pairs_trading"
	TypeVolatilityAdjMomentum  Type = "volatility_adjusted_momentum"
)

// Constructor builds a fresh agent instance from a configuration map.
type Constructor func(cfg Config) Agent

// Registry manages the available agent constructors. Each New call builds a
// fresh instance, so concurrent runs never share mutable agent state.
type Registry interface {
	Register(agentType Type, constructor Constructor) error
	New(agentType Type, cfg Config) (Agent, error)
	ListTypes() []Type
}

// RegistryV1 is the default registry implementation.
type RegistryV1 struct {
	constructors map[Type]Constructor
	mu           sync.RWMutex
}

// NewRegistry creates a registry pre-populated with all built-in strategies.
func NewRegistry() Registry {
	registry := &RegistryV1{
		constructors: make(map[Type]Constructor),
		mu:           sync.RWMutex{},
	}

	registry.constructors[TypeMeanReversion] = func(cfg Config) Agent { return NewMeanReversion(cfg) }
	registry.constructors[TypeMomentum] = func(cfg Config) Agent { return NewMomentum(cfg) }
	registry.constructors[TypeStatisticalArbitrage] = func(cfg Config) Agent { return NewStatisticalArbitrage(cfg) }
	registry.constructors[TypePricePrediction] = func(cfg Config) Agent { return NewPricePrediction(cfg) }
	registry.constructors[TypeReinforcementLearning] = func(cfg Config) Agent { return NewReinforcementLearning(cfg) }
	registry.constructors[TypePairsTrading] = func(cfg Config) Agent { return NewPairsTrading(cfg) }
	registry.constructors[TypeVolatilityAdjMomentum] = func(cfg Config) Agent { return NewVolatilityAdjustedMomentum(cfg) }

	return registry
}

// Register adds a constructor to the registry.
func (r *RegistryV1) Register(agentType Type, constructor Constructor) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.constructors[agentType]; exists {
		return errors.Newf(errors.ErrCodeInvalidParameter, "Register: agent type %s already registered", agentType)
	}

	r.constructors[agentType] = constructor

	return nil
}

// New builds a fresh agent of the given type.
func (r *RegistryV1) New(agentType Type, cfg Config) (Agent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	constructor, exists := r.constructors[agentType]
	if !exists {
		return nil, errors.Newf(errors.ErrCodeUnknownAgentType, "New: unknown agent type %s", agentType)
	}

	return constructor(cfg), nil
}

// ListTypes returns all registered agent types.
func (r *RegistryV1) ListTypes() []Type {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]Type, 0, len(r.constructors))
	for name := range r.constructors {
		names = append(names, name)
	}

	return names
}

// New builds an agent from the default registry. This is the factory
// exposed to the API layer: create_agent(type, config).
func New(agentType Type, cfg Config) (Agent, error) {
	return defaultRegistry.New(agentType, cfg)
}

var defaultRegistry = NewRegistry()
