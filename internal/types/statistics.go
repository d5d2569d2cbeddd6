package types

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// PerformanceMetrics is a read-only aggregate derived from a trade list and
// equity curve. It is always recomputed from its source, never stored
// independently.
type PerformanceMetrics struct {
	// Count of all trades.
	NumberOfTrades int `yaml:"number_of_trades"`
	// Count of winning trades that have positive pnl.
	NumberOfWinningTrades int `yaml:"number_of_winning_trades"`
	// Count of losing trades that have negative pnl.
	NumberOfLosingTrades int `yaml:"number_of_losing_trades"`
	// Win rate.
	WinRate float64 `yaml:"win_rate"`
	// Annualized Sharpe ratio over per-bar equity returns.
	SharpeRatio float64 `yaml:"sharpe_ratio"`
	// Sortino ratio: like Sharpe but only downside deviation in the denominator.
	SortinoRatio float64 `yaml:"sortino_ratio"`
	// Maximum peak-to-trough drawdown as a fraction of the peak.
	MaxDrawdown float64 `yaml:"max_drawdown"`
	// Gross profit divided by gross loss. +Inf when there are profits and no losses.
	ProfitFactor float64 `yaml:"profit_factor"`
	// Annualized return divided by max drawdown.
	CalmarRatio float64 `yaml:"calmar_ratio"`
	// Total return over the run as a fraction of initial capital.
	TotalReturn float64 `yaml:"total_return"`
	// Annualized return derived from the equity curve.
	AnnualizedReturn float64 `yaml:"annualized_return"`
	// Total fees paid across all trades.
	TotalFees float64 `yaml:"total_fees"`
}

// BacktestResult is the outcome of a single backtester run. Created once per
// run and returned to the caller; no further mutation.
type BacktestResult struct {
	// ID is the unique identifier for this backtest run.
	ID string `yaml:"id"`
	// Timestamp is when this backtest run was executed.
	Timestamp time.Time `yaml:"timestamp"`
	// Symbol of the series that was replayed.
	Symbol string `yaml:"symbol"`
	// AgentID of the agent that was replayed.
	AgentID string `yaml:"agent_id"`
	// Trades holds every closed trade in execution order.
	Trades []Trade `yaml:"trades"`
	// EquityCurve holds the portfolio value after every simulated bar.
	EquityCurve []float64 `yaml:"equity_curve,flow"`
	// InitialCapital the run started from.
	InitialCapital float64 `yaml:"initial_capital"`
	// FinalEquity is the last point of the equity curve.
	FinalEquity float64 `yaml:"final_equity"`
	// Metrics derived from the trades and equity curve.
	Metrics PerformanceMetrics `yaml:"metrics"`
}

// WriteResult writes a backtest result summary to a YAML file.
func WriteResult(path string, result BacktestResult) error {
	data, err := yaml.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal backtest result to YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write backtest result to file: %w", err)
	}

	return nil
}
