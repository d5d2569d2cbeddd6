// Package performance derives risk and return metrics from closed trades and
// equity curves, and tracks per-agent trade outcomes for the aggregation
// methods that weight agents by their history.
package performance

import (
	"math"
	"sync"

	"github.com/rxtech-lab/argo-ensemble/internal/types"
)

// DefaultPeriodsPerYear is the annualization factor for daily bars.
const DefaultPeriodsPerYear = 252

// Compute derives the full metric set from a trade list and per-bar equity
// curve. An empty trade list yields all-zero trade statistics; an equity
// curve shorter than two points yields zero risk ratios. Ratios with a zero
// denominator are zero except ProfitFactor, which is +Inf when there are
// profits and no losses.
func Compute(trades []types.Trade, equityCurve []float64, initialCapital, periodsPerYear float64) types.PerformanceMetrics {
	if periodsPerYear <= 0 {
		periodsPerYear = DefaultPeriodsPerYear
	}

	metrics := types.PerformanceMetrics{}

	grossProfit := 0.0
	grossLoss := 0.0

	for _, trade := range trades {
		metrics.NumberOfTrades++
		metrics.TotalFees += trade.Commission

		switch {
		case trade.PnL > 0:
			metrics.NumberOfWinningTrades++

			grossProfit += trade.PnL
		case trade.PnL < 0:
			metrics.NumberOfLosingTrades++

			grossLoss += -trade.PnL
		}
	}

	if metrics.NumberOfTrades > 0 {
		metrics.WinRate = float64(metrics.NumberOfWinningTrades) / float64(metrics.NumberOfTrades)
	}

	switch {
	case grossLoss > 0:
		metrics.ProfitFactor = grossProfit / grossLoss
	case grossProfit > 0:
		metrics.ProfitFactor = math.Inf(1)
	}

	if initialCapital > 0 && len(equityCurve) > 0 {
		metrics.TotalReturn = equityCurve[len(equityCurve)-1]/initialCapital - 1
	}

	returns := equityReturns(equityCurve)

	metrics.SharpeRatio = sharpe(returns, periodsPerYear)
	metrics.SortinoRatio = sortino(returns, periodsPerYear)
	metrics.MaxDrawdown = MaxDrawdown(equityCurve)
	metrics.AnnualizedReturn = annualizedReturn(equityCurve, periodsPerYear)

	if metrics.MaxDrawdown > 0 {
		metrics.CalmarRatio = metrics.AnnualizedReturn / metrics.MaxDrawdown
	}

	return metrics
}

// equityReturns converts an equity curve into per-bar simple returns. Bars
// where equity was zero contribute nothing.
func equityReturns(equityCurve []float64) []float64 {
	if len(equityCurve) < 2 {
		return nil
	}

	returns := make([]float64, 0, len(equityCurve)-1)

	for i := 1; i < len(equityCurve); i++ {
		if equityCurve[i-1] == 0 {
			continue
		}

		returns = append(returns, equityCurve[i]/equityCurve[i-1]-1)
	}

	return returns
}

func sharpe(returns []float64, periodsPerYear float64) float64 {
	if len(returns) < 2 {
		return 0
	}

	mean := meanOf(returns)

	variance := 0.0
	for _, r := range returns {
		variance += (r - mean) * (r - mean)
	}

	variance /= float64(len(returns))

	sigma := math.Sqrt(variance)
	if sigma == 0 {
		return 0
	}

	return mean / sigma * math.Sqrt(periodsPerYear)
}

// sortino penalizes only downside deviation. A run with no losing bars has
// no downside to measure and reports zero rather than infinity.
func sortino(returns []float64, periodsPerYear float64) float64 {
	if len(returns) < 2 {
		return 0
	}

	mean := meanOf(returns)

	downside := 0.0
	for _, r := range returns {
		if r < 0 {
			downside += r * r
		}
	}

	downside = math.Sqrt(downside / float64(len(returns)))
	if downside == 0 {
		return 0
	}

	return mean / downside * math.Sqrt(periodsPerYear)
}

// MaxDrawdown returns the largest peak-to-trough decline as a fraction of
// the peak. Zero for empty or monotonically rising curves.
func MaxDrawdown(equityCurve []float64) float64 {
	maxDrawdown := 0.0
	peak := math.Inf(-1)

	for _, equity := range equityCurve {
		if equity > peak {
			peak = equity
		}

		if peak > 0 {
			drawdown := (peak - equity) / peak
			if drawdown > maxDrawdown {
				maxDrawdown = drawdown
			}
		}
	}

	return maxDrawdown
}

func annualizedReturn(equityCurve []float64, periodsPerYear float64) float64 {
	if len(equityCurve) < 2 || equityCurve[0] <= 0 {
		return 0
	}

	total := equityCurve[len(equityCurve)-1] / equityCurve[0]
	if total <= 0 {
		return -1
	}

	periods := float64(len(equityCurve) - 1)

	return math.Pow(total, periodsPerYear/periods) - 1
}

func meanOf(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}

	return sum / float64(len(values))
}

// AgentRecord is one agent's trailing outcome history.
type AgentRecord struct {
	Wins   int `yaml:"wins"`
	Losses int `yaml:"losses"`
}

// Total returns the number of resolved trades recorded.
func (r AgentRecord) Total() int {
	return r.Wins + r.Losses
}

// WinRate returns wins over total, or the neutral 0.5 with no history.
func (r AgentRecord) WinRate() float64 {
	if r.Total() == 0 {
		return 0.5
	}

	return float64(r.Wins) / float64(r.Total())
}

// Tracker accumulates per-agent trade outcomes. Safe for concurrent use;
// implements the backtester's outcome recording contract.
type Tracker struct {
	mu      sync.RWMutex
	records map[string]AgentRecord
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{
		records: make(map[string]AgentRecord),
	}
}

// RecordOutcome counts one resolved trade for the agent.
func (t *Tracker) RecordOutcome(agentID string, profitable bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	record := t.records[agentID]

	if profitable {
		record.Wins++
	} else {
		record.Losses++
	}

	t.records[agentID] = record
}

// Record returns the agent's history. Unknown agents get a zero record.
func (t *Tracker) Record(agentID string) AgentRecord {
	t.mu.RLock()
	defer t.mu.RUnlock()

	return t.records[agentID]
}

// WinRate returns the agent's trailing win rate, 0.5 with no history.
func (t *Tracker) WinRate(agentID string) float64 {
	return t.Record(agentID).WinRate()
}

// Snapshot copies the full per-agent history.
func (t *Tracker) Snapshot() map[string]AgentRecord {
	t.mu.RLock()
	defer t.mu.RUnlock()

	snapshot := make(map[string]AgentRecord, len(t.records))
	for id, record := range t.records {
		snapshot[id] = record
	}

	return snapshot
}
