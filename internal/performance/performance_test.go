package performance

import (
	"math"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/rxtech-lab/argo-ensemble/internal/types"
)

func tradeWithPnL(pnl, commission float64) types.Trade {
	return types.Trade{
		ID:         "t",
		Symbol:     "AAPL",
		PnL:        pnl,
		Commission: commission,
	}
}

type MetricsTestSuite struct {
	suite.Suite
}

func TestMetricsSuite(t *testing.T) {
	suite.Run(t, new(MetricsTestSuite))
}

func (suite *MetricsTestSuite) TestEmptyInputsAreAllZero() {
	metrics := Compute(nil, nil, 100000, DefaultPeriodsPerYear)

	suite.Equal(0, metrics.NumberOfTrades)
	suite.Equal(0.0, metrics.WinRate)
	suite.Equal(0.0, metrics.SharpeRatio)
	suite.Equal(0.0, metrics.SortinoRatio)
	suite.Equal(0.0, metrics.MaxDrawdown)
	suite.Equal(0.0, metrics.ProfitFactor)
	suite.Equal(0.0, metrics.CalmarRatio)
	suite.Equal(0.0, metrics.TotalReturn)
	suite.Equal(0.0, metrics.TotalFees)
}

func (suite *MetricsTestSuite) TestTradeCounts() {
	trades := []types.Trade{
		tradeWithPnL(100, 1),
		tradeWithPnL(-50, 1),
		tradeWithPnL(0, 1),
		tradeWithPnL(25, 1),
	}

	metrics := Compute(trades, nil, 100000, DefaultPeriodsPerYear)

	suite.Equal(4, metrics.NumberOfTrades)
	suite.Equal(2, metrics.NumberOfWinningTrades)
	suite.Equal(1, metrics.NumberOfLosingTrades)
	suite.Equal(0.5, metrics.WinRate)
	suite.Equal(4.0, metrics.TotalFees)
	suite.InDelta(2.5, metrics.ProfitFactor, 1e-9)
}

func (suite *MetricsTestSuite) TestProfitFactorEdges() {
	onlyWins := Compute([]types.Trade{tradeWithPnL(10, 0)}, nil, 100000, DefaultPeriodsPerYear)
	suite.True(math.IsInf(onlyWins.ProfitFactor, 1))

	onlyLosses := Compute([]types.Trade{tradeWithPnL(-10, 0)}, nil, 100000, DefaultPeriodsPerYear)
	suite.Equal(0.0, onlyLosses.ProfitFactor)
}

func (suite *MetricsTestSuite) TestMaxDrawdown() {
	curve := []float64{100, 120, 90, 110, 80, 130}

	// Deepest decline: 120 -> 80.
	suite.InDelta(1.0/3.0, MaxDrawdown(curve), 1e-9)

	suite.Equal(0.0, MaxDrawdown([]float64{100, 110, 120}))
	suite.Equal(0.0, MaxDrawdown(nil))
}

func (suite *MetricsTestSuite) TestTotalAndAnnualizedReturn() {
	// One year of daily bars doubling linearly.
	curve := make([]float64, DefaultPeriodsPerYear+1)
	for i := range curve {
		curve[i] = 100000 * (1 + float64(i)/DefaultPeriodsPerYear)
	}

	metrics := Compute(nil, curve, 100000, DefaultPeriodsPerYear)

	suite.InDelta(1.0, metrics.TotalReturn, 1e-9)
	suite.InDelta(1.0, metrics.AnnualizedReturn, 1e-9)
	suite.Greater(metrics.SharpeRatio, 0.0)
	// No losing bars: downside deviation is undefined, reported as zero.
	suite.Equal(0.0, metrics.SortinoRatio)
}

func (suite *MetricsTestSuite) TestSharpeOnFlatCurveIsZero() {
	metrics := Compute(nil, []float64{100, 100, 100, 100}, 100, DefaultPeriodsPerYear)

	suite.Equal(0.0, metrics.SharpeRatio)
	suite.Equal(0.0, metrics.SortinoRatio)
	suite.Equal(0.0, metrics.TotalReturn)
}

func (suite *MetricsTestSuite) TestSortinoIgnoresUpsideVolatility() {
	// Same mean return; second curve adds downside bars.
	smooth := []float64{100, 102, 104, 106, 108}
	choppy := []float64{100, 105, 101, 107, 108}

	smoothMetrics := Compute(nil, smooth, 100, DefaultPeriodsPerYear)
	choppyMetrics := Compute(nil, choppy, 100, DefaultPeriodsPerYear)

	suite.Equal(0.0, smoothMetrics.SortinoRatio)
	suite.Greater(choppyMetrics.SortinoRatio, 0.0)
}

func (suite *MetricsTestSuite) TestCalmarUsesAnnualizedReturn() {
	curve := []float64{100, 120, 90, 140}

	metrics := Compute(nil, curve, 100, DefaultPeriodsPerYear)

	suite.Greater(metrics.MaxDrawdown, 0.0)
	suite.InDelta(metrics.AnnualizedReturn/metrics.MaxDrawdown, metrics.CalmarRatio, 1e-9)
}

type TrackerTestSuite struct {
	suite.Suite
}

func TestTrackerSuite(t *testing.T) {
	suite.Run(t, new(TrackerTestSuite))
}

func (suite *TrackerTestSuite) TestNeutralWithoutHistory() {
	tracker := NewTracker()

	suite.Equal(0.5, tracker.WinRate("unknown"))
	suite.Equal(0, tracker.Record("unknown").Total())
}

func (suite *TrackerTestSuite) TestRecordAndQuery() {
	tracker := NewTracker()

	tracker.RecordOutcome("momentum", true)
	tracker.RecordOutcome("momentum", true)
	tracker.RecordOutcome("momentum", false)
	tracker.RecordOutcome("mean_reversion", false)

	suite.InDelta(2.0/3.0, tracker.WinRate("momentum"), 1e-9)
	suite.Equal(0.0, tracker.WinRate("mean_reversion"))

	snapshot := tracker.Snapshot()
	suite.Len(snapshot, 2)
	suite.Equal(AgentRecord{Wins: 2, Losses: 1}, snapshot["momentum"])
}

func (suite *TrackerTestSuite) TestConcurrentRecording() {
	tracker := NewTracker()

	done := make(chan struct{})

	for i := 0; i < 4; i++ {
		go func() {
			defer func() { done <- struct{}{} }()

			for j := 0; j < 100; j++ {
				tracker.RecordOutcome("agent", j%2 == 0)
			}
		}()
	}

	for i := 0; i < 4; i++ {
		<-done
	}

	suite.Equal(400, tracker.Record("agent").Total())
	suite.Equal(0.5, tracker.WinRate("agent"))
}
