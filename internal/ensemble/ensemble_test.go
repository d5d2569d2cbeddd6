package ensemble

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/rxtech-lab/argo-ensemble/internal/agent"
	"github.com/rxtech-lab/argo-ensemble/internal/performance"
	"github.com/rxtech-lab/argo-ensemble/internal/types"
	"github.com/rxtech-lab/argo-ensemble/pkg/errors"
)

// stubAgent emits a canned signal, or a canned error, on every analyze.
type stubAgent struct {
	id         string
	signalType types.SignalType
	confidence float64
	err        error
	state      types.AgentState
}

func newStub(id string, signalType types.SignalType, confidence float64) *stubAgent {
	return &stubAgent{
		id:         id,
		signalType: signalType,
		confidence: confidence,
		state:      types.AgentStateCreated,
	}
}

func (s *stubAgent) ID() string              { return s.id }
func (s *stubAgent) Type() agent.Type        { return agent.Type("stub") }
func (s *stubAgent) State() types.AgentState { return s.state }
func (s *stubAgent) SignalStrength() float64 { return s.confidence }

func (s *stubAgent) Start() error {
	s.state = types.AgentStateActive

	return nil
}

func (s *stubAgent) Stop() error {
	s.state = types.AgentStateStopped

	return nil
}

func (s *stubAgent) Train(*types.MarketSeries) error { return nil }

func (s *stubAgent) Analyze(series *types.MarketSeries) (types.Signal, error) {
	if s.err != nil {
		return types.Signal{}, s.err
	}

	last := series.Last()

	return types.Signal{
		Symbol:     series.Symbol(),
		Timestamp:  last.Timestamp,
		Type:       s.signalType,
		Confidence: s.confidence,
		Price:      last.Close,
		AgentID:    s.id,
	}, nil
}

func testSeries(t *testing.T) *types.MarketSeries {
	t.Helper()

	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	bars := make([]types.Bar, 5)
	for i := range bars {
		price := 100.0 + float64(i)
		bars[i] = types.Bar{
			Timestamp: start.Add(time.Duration(i) * 24 * time.Hour),
			Open:      price,
			High:      price,
			Low:       price,
			Close:     price,
			Volume:    1000,
		}
	}

	series, err := types.NewMarketSeries("AAPL", bars)
	require.NoError(t, err)

	return series
}

func startedEnsemble(t *testing.T, cfg Config, agents ...agent.Agent) *Ensemble {
	t.Helper()

	composite, err := New(cfg, agents...)
	require.NoError(t, err)
	require.NoError(t, composite.Start())

	return composite
}

type EnsembleTestSuite struct {
	suite.Suite
}

func TestEnsembleSuite(t *testing.T) {
	suite.Run(t, new(EnsembleTestSuite))
}

func (suite *EnsembleTestSuite) TestRequiresSubAgents() {
	_, err := New(Config{})
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeNoSubAgents))
}

func (suite *EnsembleTestSuite) TestRejectsUnknownMethod() {
	_, err := New(Config{Method: "median"}, newStub("a", types.SignalTypeBuy, 1))
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeUnknownAggregationMethod))
}

func (suite *EnsembleTestSuite) TestStartAndStopPropagate() {
	first := newStub("a", types.SignalTypeBuy, 1)
	second := newStub("b", types.SignalTypeSell, 1)

	composite, err := New(Config{}, first, second)
	suite.Require().NoError(err)

	suite.NoError(composite.Start())
	suite.Equal(types.AgentStateActive, composite.State())
	suite.Equal(types.AgentStateActive, first.State())
	suite.Equal(types.AgentStateActive, second.State())

	suite.NoError(composite.Stop())
	suite.Equal(types.AgentStateStopped, composite.State())
	suite.Equal(types.AgentStateStopped, first.State())
}

func (suite *EnsembleTestSuite) TestAnalyzeRequiresActive() {
	composite, err := New(Config{}, newStub("a", types.SignalTypeBuy, 1))
	suite.Require().NoError(err)

	_, err = composite.Analyze(testSeries(suite.T()))
	suite.True(errors.IsInvalidStateError(err))
}

func (suite *EnsembleTestSuite) TestMajorityVote() {
	composite := startedEnsemble(suite.T(), Config{Method: MethodMajorityVote},
		newStub("a", types.SignalTypeBuy, 0.9),
		newStub("b", types.SignalTypeBuy, 0.4),
		newStub("c", types.SignalTypeHold, 0.0),
	)

	signal, err := composite.Analyze(testSeries(suite.T()))
	suite.Require().NoError(err)
	suite.Equal(types.SignalTypeBuy, signal.Type)
	suite.InDelta(2.0/3.0, signal.Confidence, 1e-9)
	suite.Equal("ensemble", signal.AgentID)

	subSignals, ok := signal.Metadata["sub_signals"].([]types.Signal)
	suite.True(ok)
	suite.Len(subSignals, 3)
}

func (suite *EnsembleTestSuite) TestMajorityVoteTieIsHold() {
	composite := startedEnsemble(suite.T(), Config{Method: MethodMajorityVote},
		newStub("a", types.SignalTypeBuy, 1),
		newStub("b", types.SignalTypeSell, 1),
	)

	signal, err := composite.Analyze(testSeries(suite.T()))
	suite.Require().NoError(err)
	suite.Equal(types.SignalTypeHold, signal.Type)
	suite.Equal(0.0, signal.Confidence)
}

func (suite *EnsembleTestSuite) TestAgreementFloor() {
	composite := startedEnsemble(suite.T(), Config{Method: MethodMajorityVote, MinAgreement: 0.75},
		newStub("a", types.SignalTypeBuy, 1),
		newStub("b", types.SignalTypeBuy, 1),
		newStub("c", types.SignalTypeHold, 0),
	)

	// 2/3 agreement is below the 0.75 floor: the buy majority is discarded.
	signal, err := composite.Analyze(testSeries(suite.T()))
	suite.Require().NoError(err)
	suite.Equal(types.SignalTypeHold, signal.Type)
	suite.Equal(0.0, signal.Confidence)
	suite.Equal(types.ReasonNoConsensus, signal.Reasoning)
}

func (suite *EnsembleTestSuite) TestWeightedAverage() {
	composite := startedEnsemble(suite.T(), Config{
		Method:  MethodWeightedAverage,
		Weights: map[string]float64{"heavy": 3, "light": 1},
	},
		newStub("heavy", types.SignalTypeBuy, 0.5),
		newStub("light", types.SignalTypeSell, 0.5),
	)

	signal, err := composite.Analyze(testSeries(suite.T()))
	suite.Require().NoError(err)
	suite.Equal(types.SignalTypeBuy, signal.Type)
	// (3*1 + 1*-1) / 4 = 0.5
	suite.InDelta(0.5, signal.Confidence, 1e-9)
}

func (suite *EnsembleTestSuite) TestWeightedAverageDeadband() {
	composite := startedEnsemble(suite.T(), Config{Method: MethodWeightedAverage},
		newStub("a", types.SignalTypeBuy, 1),
		newStub("b", types.SignalTypeSell, 1),
		newStub("c", types.SignalTypeHold, 0),
	)

	// Net score is zero: inside the deadband, HOLD with zero confidence.
	signal, err := composite.Analyze(testSeries(suite.T()))
	suite.Require().NoError(err)
	suite.Equal(types.SignalTypeHold, signal.Type)
	suite.Equal(0.0, signal.Confidence)
}

func (suite *EnsembleTestSuite) TestConfidenceWeighted() {
	composite := startedEnsemble(suite.T(), Config{Method: MethodConfidenceWeighted, MinAgreement: 0.3},
		newStub("timid-a", types.SignalTypeBuy, 0.1),
		newStub("timid-b", types.SignalTypeBuy, 0.1),
		newStub("certain", types.SignalTypeSell, 0.9),
	)

	// (0.1 + 0.1 - 0.9) / 1.1 < 0: the single convinced seller outweighs
	// two hesitant buyers.
	signal, err := composite.Analyze(testSeries(suite.T()))
	suite.Require().NoError(err)
	suite.Equal(types.SignalTypeSell, signal.Type)
}

func (suite *EnsembleTestSuite) TestConfidenceWeightedAllZeroHolds() {
	composite := startedEnsemble(suite.T(), Config{Method: MethodConfidenceWeighted},
		newStub("a", types.SignalTypeBuy, 0),
		newStub("b", types.SignalTypeSell, 0),
	)

	signal, err := composite.Analyze(testSeries(suite.T()))
	suite.Require().NoError(err)
	suite.Equal(types.SignalTypeHold, signal.Type)
	suite.Equal(0.0, signal.Confidence)
}

func (suite *EnsembleTestSuite) TestPerformanceWeighted() {
	composite := startedEnsemble(suite.T(), Config{Method: MethodPerformanceWeighted, MinAgreement: 0.3},
		newStub("winner", types.SignalTypeBuy, 0.5),
		newStub("loser", types.SignalTypeSell, 0.5),
	)

	// No history yet: both at the neutral weight, net zero, HOLD.
	signal, err := composite.Analyze(testSeries(suite.T()))
	suite.Require().NoError(err)
	suite.Equal(types.SignalTypeHold, signal.Type)

	for i := 0; i < 4; i++ {
		composite.RecordOutcome("winner", true)
		composite.RecordOutcome("loser", false)
	}

	// winner at win rate 1.0, loser at 0.0: the buy side carries the vote.
	signal, err = composite.Analyze(testSeries(suite.T()))
	suite.Require().NoError(err)
	suite.Equal(types.SignalTypeBuy, signal.Type)
	suite.InDelta(1.0, signal.Confidence, 1e-9)
}

func (suite *EnsembleTestSuite) TestOutcomesAccumulateOnTracker() {
	composite := startedEnsemble(suite.T(), Config{Method: MethodPerformanceWeighted},
		newStub("a", types.SignalTypeBuy, 0.5),
		newStub("b", types.SignalTypeSell, 0.5),
	)

	composite.RecordOutcome("a", true)
	composite.RecordOutcome("a", true)
	composite.RecordOutcome("a", false)
	composite.RecordOutcome("b", false)

	tracker := composite.Tracker()
	suite.Equal(performance.AgentRecord{Wins: 2, Losses: 1}, tracker.Record("a"))
	suite.InDelta(2.0/3.0, tracker.WinRate("a"), 1e-9)
	suite.Equal(0.0, tracker.WinRate("b"))
	suite.Equal(0.5, tracker.WinRate("unknown"))
}

func (suite *EnsembleTestSuite) TestAdaptiveRecomputesOnCadence() {
	composite := startedEnsemble(suite.T(), Config{
		Method:          MethodAdaptive,
		MinAgreement:    0.3,
		RecomputeTrades: 10,
	},
		newStub("winner", types.SignalTypeBuy, 0.5),
		newStub("loser", types.SignalTypeSell, 0.5),
	)

	// Nine resolved trades: still below the recompute cadence, weights stay
	// equal and the opposing votes cancel out.
	for i := 0; i < 5; i++ {
		composite.RecordOutcome("winner", true)
	}

	for i := 0; i < 4; i++ {
		composite.RecordOutcome("loser", false)
	}

	signal, err := composite.Analyze(testSeries(suite.T()))
	suite.Require().NoError(err)
	suite.Equal(types.SignalTypeHold, signal.Type)

	// The tenth outcome triggers the recompute; decayed scores now favor
	// the profitable agent.
	composite.RecordOutcome("loser", false)

	signal, err = composite.Analyze(testSeries(suite.T()))
	suite.Require().NoError(err)
	suite.Equal(types.SignalTypeBuy, signal.Type)
}

func (suite *EnsembleTestSuite) TestFailingSubAgentDegradesToHoldVote() {
	broken := newStub("broken", types.SignalTypeSell, 1)
	broken.err = errors.New(errors.ErrCodeAgentFailed, "boom")

	composite := startedEnsemble(suite.T(), Config{Method: MethodMajorityVote},
		newStub("a", types.SignalTypeBuy, 1),
		newStub("b", types.SignalTypeBuy, 1),
		broken,
	)

	signal, err := composite.Analyze(testSeries(suite.T()))
	suite.Require().NoError(err)
	suite.Equal(types.SignalTypeBuy, signal.Type)
	suite.InDelta(2.0/3.0, signal.Confidence, 1e-9)
}

func (suite *EnsembleTestSuite) TestAnalyzeIsDeterministic() {
	build := func() *Ensemble {
		return startedEnsemble(suite.T(), Config{Method: MethodMajorityVote},
			newStub("a", types.SignalTypeBuy, 0.9),
			newStub("b", types.SignalTypeSell, 0.2),
			newStub("c", types.SignalTypeBuy, 0.6),
		)
	}

	series := testSeries(suite.T())

	first, err := build().Analyze(series)
	suite.Require().NoError(err)

	second, err := build().Analyze(series)
	suite.Require().NoError(err)
	suite.Equal(first, second)
}
