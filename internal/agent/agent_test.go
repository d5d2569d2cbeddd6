package agent

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/rxtech-lab/argo-ensemble/internal/types"
	"github.com/rxtech-lab/argo-ensemble/pkg/errors"
)

// newSeries builds a flat-bar series from close prices, one bar per day.
func newSeries(t *testing.T, symbol string, closes ...float64) *types.MarketSeries {
	t.Helper()

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	bars := make([]types.Bar, len(closes))
	for i, c := range closes {
		bars[i] = types.Bar{
			Timestamp: start.Add(time.Duration(i) * 24 * time.Hour),
			Open:      c,
			High:      c,
			Low:       c,
			Close:     c,
			Volume:    1000,
		}
	}

	series, err := types.NewMarketSeries(symbol, bars)
	require.NoError(t, err)

	return series
}

func constantCloses(n int, value float64) []float64 {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = value
	}

	return closes
}

type LifecycleTestSuite struct {
	suite.Suite
}

func TestLifecycleSuite(t *testing.T) {
	suite.Run(t, new(LifecycleTestSuite))
}

func (suite *LifecycleTestSuite) TestAnalyzeRequiresActive() {
	agent := NewMeanReversion(nil)
	suite.Equal(types.AgentStateCreated, agent.State())

	series := newSeries(suite.T(), "AAPL", constantCloses(30, 100)...)

	_, err := agent.Analyze(series)
	suite.Error(err)
	suite.True(errors.IsInvalidStateError(err))
}

func (suite *LifecycleTestSuite) TestStartStopCycle() {
	agent := NewMeanReversion(nil)

	suite.NoError(agent.Start())
	suite.Equal(types.AgentStateActive, agent.State())

	suite.NoError(agent.Stop())
	suite.Equal(types.AgentStateStopped, agent.State())

	// Restart from STOPPED is allowed.
	suite.NoError(agent.Start())
	suite.Equal(types.AgentStateActive, agent.State())

	// Starting an already active agent is a no-op.
	suite.NoError(agent.Start())
}

func (suite *LifecycleTestSuite) TestTrainRestoresPriorState() {
	agent := NewMeanReversion(nil)

	series := newSeries(suite.T(), "AAPL", constantCloses(30, 100)...)

	suite.NoError(agent.Train(series))
	suite.Equal(types.AgentStateCreated, agent.State())

	suite.NoError(agent.Start())
	suite.NoError(agent.Train(series))
	suite.Equal(types.AgentStateActive, agent.State())
}

func (suite *LifecycleTestSuite) TestTrainFailureIsTerminal() {
	agent := NewPricePrediction(nil)

	// Far too short to fit the forecaster: training fails hard.
	series := newSeries(suite.T(), "AAPL", 100, 101)

	err := agent.Train(series)
	suite.Error(err)
	suite.Equal(types.AgentStateFailed, agent.State())

	// FAILED is terminal: neither start nor analyze are allowed.
	suite.Error(agent.Start())
	suite.Error(agent.Stop())

	_, err = agent.Analyze(series)
	suite.True(errors.IsInvalidStateError(err))
}

func (suite *LifecycleTestSuite) TestSignalStrengthTracksLastConfidence() {
	agent := NewMeanReversion(nil)
	suite.NoError(agent.Start())

	closes := constantCloses(30, 100)
	closes[25] = 80

	series := newSeries(suite.T(), "AAPL", closes...)

	signal, err := agent.Analyze(series.Prefix(26))
	suite.NoError(err)
	suite.Equal(signal.Confidence, agent.SignalStrength())
}

type FactoryTestSuite struct {
	suite.Suite
}

func TestFactorySuite(t *testing.T) {
	suite.Run(t, new(FactoryTestSuite))
}

func (suite *FactoryTestSuite) TestNewBuildsEveryType() {
	for _, agentType := range []Type{
		TypeMeanReversion,
		TypeMomentum,
		TypeStatisticalArbitrage,
		TypePricePrediction,
		TypeReinforcementLearning,
		TypePairsTrading,
		TypeVolatilityAdjMomentum,
	} {
		built, err := New(agentType, nil)
		suite.NoError(err)
		suite.Equal(agentType, built.Type())
		suite.Equal(string(agentType), built.ID())
		suite.Equal(types.AgentStateCreated, built.State())
	}
}

func (suite *FactoryTestSuite) TestNewUnknownType() {
	_, err := New("fibonacci", nil)
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeUnknownAgentType))
}

func (suite *FactoryTestSuite) TestNewReturnsFreshInstances() {
	first, err := New(TypeMeanReversion, nil)
	suite.NoError(err)

	second, err := New(TypeMeanReversion, nil)
	suite.NoError(err)

	suite.NoError(first.Start())
	suite.Equal(types.AgentStateCreated, second.State())
}

func (suite *FactoryTestSuite) TestRegistryRejectsDuplicates() {
	registry := NewRegistry()
	err := registry.Register(TypeMomentum, func(cfg Config) Agent { return NewMomentum(cfg) })
	suite.Error(err)
	suite.Len(registry.ListTypes(), 7)
}

func (suite *FactoryTestSuite) TestConfigAccessors() {
	cfg := Config{
		"lookback_period": 10,
		"entry_threshold": 1.5,
		"float_as_int":    3.0,
		"id":              "custom",
		"flag":            true,
	}

	suite.Equal(10, cfg.Int("lookback_period", 20))
	suite.Equal(1.5, cfg.Float("entry_threshold", 2.0))
	suite.Equal(3, cfg.Int("float_as_int", 0))
	suite.Equal(10.0, cfg.Float("lookback_period", 0))
	suite.Equal("custom", cfg.String("id", "default"))
	suite.True(cfg.Bool("flag", false))

	// Unknown keys are ignored; missing keys fall back to defaults.
	suite.Equal(20, cfg.Int("missing", 20))
	suite.Equal(2.0, Config(nil).Float("entry_threshold", 2.0))
}

type InsufficientDataTestSuite struct {
	suite.Suite
}

func TestInsufficientDataSuite(t *testing.T) {
	suite.Run(t, new(InsufficientDataTestSuite))
}

// Every agent fed a series shorter than its lookback returns HOLD with
// confidence zero and never errors.
func (suite *InsufficientDataTestSuite) TestAllAgentsDegradeToHold() {
	short := newSeries(suite.T(), "AAPL", 100, 101, 102)

	for _, agentType := range []Type{
		TypeMeanReversion,
		TypeMomentum,
		TypeStatisticalArbitrage,
		TypePricePrediction,
		TypeReinforcementLearning,
		TypePairsTrading,
		TypeVolatilityAdjMomentum,
	} {
		built, err := New(agentType, nil)
		suite.Require().NoError(err)
		suite.Require().NoError(built.Start())

		signal, err := built.Analyze(short)
		suite.NoError(err, "agent %s errored on short series", agentType)
		suite.Equal(types.SignalTypeHold, signal.Type, "agent %s", agentType)
		suite.Equal(0.0, signal.Confidence, "agent %s", agentType)
	}
}
