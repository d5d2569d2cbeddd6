package types

import (
	"math"
	"time"

	"github.com/moznion/go-optional"
	"github.com/shopspring/decimal"
)

// ExitReason records why a position was closed.
type ExitReason string

const (
	ExitReasonSignal        ExitReason = "signal"
	ExitReasonStopLoss      ExitReason = "stop_loss"
	ExitReasonTakeProfit    ExitReason = "take_profit"
	ExitReasonEndOfBacktest ExitReason = "end_of_backtest"
)

// Position represents the single open holding of a backtest run. Quantity is
// signed: positive for long, negative for short, zero for flat. Owned
// exclusively by the backtester; one position at a time, no pyramiding.
type Position struct {
	Symbol          string    `csv:"symbol" yaml:"symbol"`
	Quantity        float64   `csv:"quantity" yaml:"quantity"`
	EntryPrice      float64   `csv:"entry_price" yaml:"entry_price"`
	EntryTimestamp  time.Time `csv:"entry_timestamp" yaml:"entry_timestamp"`
	StopLossPrice   optional.Option[float64] `csv:"stop_loss_price" yaml:"stop_loss_price"`
	TakeProfitPrice optional.Option[float64] `csv:"take_profit_price" yaml:"take_profit_price"`
}

// IsFlat reports whether no position is held.
func (p Position) IsFlat() bool {
	return p.Quantity == 0
}

// IsLong reports whether the position is long.
func (p Position) IsLong() bool {
	return p.Quantity > 0
}

// UnrealizedPnL returns the mark-to-market profit at the given price.
func (p Position) UnrealizedPnL(price float64) float64 {
	if p.Quantity == 0 {
		return 0
	}

	entry := decimal.NewFromFloat(p.EntryPrice).Mul(decimal.NewFromFloat(p.Quantity))
	mark := decimal.NewFromFloat(price).Mul(decimal.NewFromFloat(p.Quantity))

	pnl, _ := mark.Sub(entry).Float64()

	return pnl
}

// Trade is the closed-position record appended to the backtest trade list.
// Immutable once appended.
type Trade struct {
	ID             string     `csv:"id" yaml:"id"`
	Symbol         string     `csv:"symbol" yaml:"symbol"`
	Quantity       float64    `csv:"quantity" yaml:"quantity"`
	EntryPrice     float64    `csv:"entry_price" yaml:"entry_price"`
	EntryTimestamp time.Time  `csv:"entry_timestamp" yaml:"entry_timestamp"`
	ExitPrice      float64    `csv:"exit_price" yaml:"exit_price"`
	ExitTimestamp  time.Time  `csv:"exit_timestamp" yaml:"exit_timestamp"`
	// Commission is the total fee paid on entry and exit
	Commission float64 `csv:"commission" yaml:"commission"`
	// PnL is net of commission, in the series' quote currency
	PnL float64 `csv:"pnl" yaml:"pnl"`
	// ReturnPct is PnL over the entry notional
	ReturnPct float64 `csv:"return_pct" yaml:"return_pct"`
	// HoldingPeriods is the number of bars the position was held
	HoldingPeriods int        `csv:"holding_periods" yaml:"holding_periods"`
	ExitReason     ExitReason `csv:"exit_reason" yaml:"exit_reason"`
	// AgentID is the agent whose signal opened the trade
	AgentID string `csv:"agent_id" yaml:"agent_id"`
}

// NewTrade closes the given position at exitPrice and returns the resulting
// trade record. PnL is computed with decimal arithmetic and is net of the
// given total commission.
func NewTrade(id string, pos Position, exitPrice float64, exitTimestamp time.Time, commission float64, holdingPeriods int, reason ExitReason, agentID string) Trade {
	entry := decimal.NewFromFloat(pos.EntryPrice).Mul(decimal.NewFromFloat(pos.Quantity))
	exit := decimal.NewFromFloat(exitPrice).Mul(decimal.NewFromFloat(pos.Quantity))

	pnl, _ := exit.Sub(entry).Sub(decimal.NewFromFloat(commission)).Float64()

	notional := pos.EntryPrice * math.Abs(pos.Quantity)

	returnPct := 0.0
	if notional != 0 {
		returnPct = pnl / notional
	}

	return Trade{
		ID:             id,
		Symbol:         pos.Symbol,
		Quantity:       pos.Quantity,
		EntryPrice:     pos.EntryPrice,
		EntryTimestamp: pos.EntryTimestamp,
		ExitPrice:      exitPrice,
		ExitTimestamp:  exitTimestamp,
		Commission:     commission,
		PnL:            pnl,
		ReturnPct:      returnPct,
		HoldingPeriods: holdingPeriods,
		ExitReason:     reason,
		AgentID:        agentID,
	}
}

// IsWin reports whether the trade closed with positive PnL.
func (t Trade) IsWin() bool {
	return t.PnL > 0
}
