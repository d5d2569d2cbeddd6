// Package backtest replays a market series through an agent bar by bar and
// produces the resulting trades, equity curve and performance metrics.
package backtest

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/moznion/go-optional"
	"go.uber.org/zap"

	"github.com/rxtech-lab/argo-ensemble/internal/agent"
	"github.com/rxtech-lab/argo-ensemble/internal/backtest/commission"
	"github.com/rxtech-lab/argo-ensemble/internal/logger"
	"github.com/rxtech-lab/argo-ensemble/internal/performance"
	"github.com/rxtech-lab/argo-ensemble/internal/types"
	"github.com/rxtech-lab/argo-ensemble/pkg/errors"
)

// ProgressCallback reports replay progress as bars processed out of total.
type ProgressCallback func(current, total int)

// Store receives every signal and closed trade of a run for later audit.
type Store interface {
	SaveSignal(runID string, signal types.Signal) error
	SaveTrade(runID string, trade types.Trade) error
}

// Backtester replays series through agents. One backtester can serve many
// runs; all per-run state lives on the stack of Run.
type Backtester struct {
	cfg    Config
	fees   commission.Model
	store  Store
	logger *logger.Logger
}

// New creates a backtester from a validated config.
func New(cfg Config, log *logger.Logger) (*Backtester, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	fees, err := commission.NewModel(cfg.CommissionBroker, cfg.CommissionRate)
	if err != nil {
		return nil, err
	}

	if log == nil {
		log = logger.NewNopLogger()
	}

	return &Backtester{
		cfg:    cfg,
		fees:   fees,
		logger: log,
	}, nil
}

// SetStore attaches an audit store. Signals and trades of subsequent runs
// are persisted through it.
func (b *Backtester) SetStore(store Store) {
	b.store = store
}

// run carries the mutable state of one replay.
type run struct {
	id       string
	cash     float64
	position types.Position
	// entrySignal is the signal that opened the current position, kept so
	// outcomes can be credited back to the agents that voted for it.
	entrySignal types.Signal
	entryBar    int
	tradeSeq    int
	trades      []types.Trade
	equityCurve []float64
}

// Run replays the series through the agent. The leading train split, either
// the absolute TrainBars count or the TrainRatio fraction, is passed to
// Train; the remainder is replayed bar by bar. At each bar the agent only
// ever sees the prefix up to and including that bar. The context is polled
// once per bar.
func (b *Backtester) Run(ctx context.Context, tradingAgent agent.Agent, series *types.MarketSeries, onProgress optional.Option[ProgressCallback]) (types.BacktestResult, error) {
	n := series.Len()
	if n == 0 {
		return types.BacktestResult{}, errors.Newf(errors.ErrCodeEmptySeries, "cannot backtest empty series %s", series.Symbol())
	}

	trainBars := int(b.cfg.TrainRatio * float64(n))
	if b.cfg.TrainBars > 0 {
		trainBars = b.cfg.TrainBars
	}

	if trainBars >= n {
		return types.BacktestResult{}, errors.Newf(errors.ErrCodeTrainPeriodTooLarge,
			"train period %d bars leaves no bars to replay out of %d", trainBars, n)
	}

	if trainBars > 0 {
		if err := tradingAgent.Train(series.Prefix(trainBars)); err != nil {
			return types.BacktestResult{}, errors.Wrapf(errors.ErrCodeAgentFailed, err,
				"training agent %s on %d bars", tradingAgent.ID(), trainBars)
		}
	}

	if tradingAgent.State() != types.AgentStateActive {
		if err := tradingAgent.Start(); err != nil {
			return types.BacktestResult{}, err
		}
	}

	state := &run{
		id:          uuid.NewString(),
		cash:        b.cfg.InitialCapital,
		equityCurve: make([]float64, 0, n-trainBars),
	}

	b.logger.Info("starting backtest",
		zap.String("run_id", state.id),
		zap.String("symbol", series.Symbol()),
		zap.String("agent", tradingAgent.ID()),
		zap.Int("bars", n-trainBars),
		zap.Int("train_bars", trainBars))

	recorder, _ := tradingAgent.(agent.OutcomeRecorder)

	total := n - trainBars

	for t := trainBars; t < n; t++ {
		if err := ctx.Err(); err != nil {
			return types.BacktestResult{}, errors.Wrap(errors.ErrCodeBacktestStateError, "backtest cancelled", err)
		}

		bar := series.At(t)

		// Protective exits are evaluated against the bar's range before
		// the agent sees the bar; the stop takes priority over everything
		// else that could happen within the bar.
		if !state.position.IsFlat() {
			b.applyProtectiveExits(state, bar, t, recorder)
		}

		signal, err := tradingAgent.Analyze(series.Prefix(t + 1))
		if err != nil {
			return types.BacktestResult{}, errors.Wrapf(errors.ErrCodeAgentFailed, err,
				"agent %s failed at bar %d", tradingAgent.ID(), t)
		}

		if err := b.saveSignal(state.id, signal); err != nil {
			return types.BacktestResult{}, err
		}

		if !state.position.IsFlat() && opposes(state.position, signal.Type) {
			exitFill := b.exitFill(state.position, bar.Close)
			b.closePosition(state, exitFill, bar.Timestamp, t, types.ExitReasonSignal, recorder)
		}

		if state.position.IsFlat() && signal.Type != types.SignalTypeHold {
			b.openPosition(state, signal, bar, t)
		}

		state.equityCurve = append(state.equityCurve, state.equity(bar.Close))

		if onProgress.IsSome() {
			onProgress.Unwrap()(t-trainBars+1, total)
		}
	}

	// Whatever is still open is liquidated at the final close so the run
	// ends flat and every entry has a matching exit.
	if !state.position.IsFlat() {
		lastBar := series.Last()
		b.closePosition(state, lastBar.Close, lastBar.Timestamp, n-1, types.ExitReasonEndOfBacktest, recorder)
		state.equityCurve[len(state.equityCurve)-1] = state.cash
	}

	for _, trade := range state.trades {
		if err := b.saveTrade(state.id, trade); err != nil {
			return types.BacktestResult{}, err
		}
	}

	finalEquity := b.cfg.InitialCapital
	if len(state.equityCurve) > 0 {
		finalEquity = state.equityCurve[len(state.equityCurve)-1]
	}

	result := types.BacktestResult{
		ID:             state.id,
		Timestamp:      time.Now(),
		Symbol:         series.Symbol(),
		AgentID:        tradingAgent.ID(),
		Trades:         state.trades,
		EquityCurve:    state.equityCurve,
		InitialCapital: b.cfg.InitialCapital,
		FinalEquity:    finalEquity,
		Metrics:        performance.Compute(state.trades, state.equityCurve, b.cfg.InitialCapital, b.cfg.PeriodsPerYear),
	}

	b.logger.Info("backtest finished",
		zap.String("run_id", state.id),
		zap.Int("trades", len(result.Trades)),
		zap.Float64("final_equity", result.FinalEquity),
		zap.Float64("total_return", result.Metrics.TotalReturn))

	return result, nil
}

func (r *run) equity(price float64) float64 {
	return r.cash + r.position.Quantity*price
}

// applyProtectiveExits closes the position when the bar's range crosses the
// stop or target. When a bar crosses both, the stop wins.
func (b *Backtester) applyProtectiveExits(state *run, bar types.Bar, t int, recorder agent.OutcomeRecorder) {
	long := state.position.IsLong()

	if state.position.StopLossPrice.IsSome() {
		stop := state.position.StopLossPrice.Unwrap()
		if (long && bar.Low <= stop) || (!long && bar.High >= stop) {
			b.closePosition(state, stop, bar.Timestamp, t, types.ExitReasonStopLoss, recorder)

			return
		}
	}

	if state.position.TakeProfitPrice.IsSome() {
		target := state.position.TakeProfitPrice.Unwrap()
		if (long && bar.High >= target) || (!long && bar.Low <= target) {
			b.closePosition(state, target, bar.Timestamp, t, types.ExitReasonTakeProfit, recorder)
		}
	}
}

// openPosition sizes and opens a position from the signal. Orders the run
// cannot pay for are rejected and logged, not partially filled.
func (b *Backtester) openPosition(state *run, signal types.Signal, bar types.Bar, t int) {
	direction := signal.Type.DirectionalValue()

	fill := bar.Close * (1 + b.cfg.SlippageRate*direction)
	if fill <= 0 {
		return
	}

	budget := state.cash * b.cfg.PositionSizePct

	quantity := budget / fill * direction
	fee := b.fees.Calculate(quantity, fill)

	// Leave room for the entry fee so cash never goes negative.
	if budget+fee > state.cash {
		available := state.cash - fee
		if available <= 0 {
			quantity = 0
		} else {
			quantity = available / fill * direction
		}
	}

	if math.Abs(quantity)*fill < 1 {
		b.logger.Warn("rejecting order below capital floor",
			zap.String("run_id", state.id),
			zap.Float64("cash", state.cash),
			zap.Float64("fee", fee),
			zap.String("signal", string(signal.Type)))

		return
	}

	fee = b.fees.Calculate(quantity, fill)

	state.cash -= quantity*fill + fee

	position := types.Position{
		Symbol:         signal.Symbol,
		Quantity:       quantity,
		EntryPrice:     fill,
		EntryTimestamp: bar.Timestamp,
	}

	if b.cfg.StopLossPct > 0 {
		position.StopLossPrice = optional.Some(fill * (1 - b.cfg.StopLossPct*direction))
	}

	if b.cfg.TakeProfitPct > 0 {
		position.TakeProfitPrice = optional.Some(fill * (1 + b.cfg.TakeProfitPct*direction))
	}

	state.position = position
	state.entrySignal = signal
	state.entryBar = t

	b.logger.Debug("opened position",
		zap.String("run_id", state.id),
		zap.Float64("quantity", quantity),
		zap.Float64("fill", fill),
		zap.Float64("fee", fee))
}

// closePosition realizes the open position at exitPrice and credits the
// outcome back to the agents that voted for the entry.
func (b *Backtester) closePosition(state *run, exitPrice float64, timestamp time.Time, t int, reason types.ExitReason, recorder agent.OutcomeRecorder) {
	entryFee := b.fees.Calculate(state.position.Quantity, state.position.EntryPrice)
	exitFee := b.fees.Calculate(state.position.Quantity, exitPrice)

	state.tradeSeq++

	trade := types.NewTrade(
		fmt.Sprintf("%s-%d", state.id, state.tradeSeq),
		state.position,
		exitPrice,
		timestamp,
		entryFee+exitFee,
		t-state.entryBar,
		reason,
		state.entrySignal.AgentID,
	)

	state.cash += state.position.Quantity*exitPrice - exitFee

	state.trades = append(state.trades, trade)
	state.position = types.Position{}

	b.logger.Debug("closed position",
		zap.String("run_id", state.id),
		zap.String("trade_id", trade.ID),
		zap.Float64("pnl", trade.PnL),
		zap.String("reason", string(reason)))

	if recorder != nil {
		creditOutcome(recorder, state.entrySignal, trade.IsWin())
	}
}

// exitFill worsens the close by slippage in the direction of the exit.
func (b *Backtester) exitFill(position types.Position, close float64) float64 {
	if position.IsLong() {
		return close * (1 - b.cfg.SlippageRate)
	}

	return close * (1 + b.cfg.SlippageRate)
}

// opposes reports whether the signal points against the open position.
func opposes(position types.Position, signalType types.SignalType) bool {
	switch signalType {
	case types.SignalTypeBuy:
		return position.Quantity < 0
	case types.SignalTypeSell:
		return position.Quantity > 0
	default:
		return false
	}
}

// creditOutcome records the trade outcome for the signing agent and, when
// the entry was an ensemble consensus, for every sub-agent that voted with
// the executed direction.
func creditOutcome(recorder agent.OutcomeRecorder, entrySignal types.Signal, profitable bool) {
	recorder.RecordOutcome(entrySignal.AgentID, profitable)

	subSignals, ok := entrySignal.Metadata["sub_signals"].([]types.Signal)
	if !ok {
		return
	}

	for _, sub := range subSignals {
		if sub.Type == entrySignal.Type {
			recorder.RecordOutcome(sub.AgentID, profitable)
		}
	}
}

func (b *Backtester) saveSignal(runID string, signal types.Signal) error {
	if b.store == nil {
		return nil
	}

	if err := b.store.SaveSignal(runID, signal); err != nil {
		return errors.Wrap(errors.ErrCodeStoreFailed, "persisting signal", err)
	}

	return nil
}

func (b *Backtester) saveTrade(runID string, trade types.Trade) error {
	if b.store == nil {
		return nil
	}

	if err := b.store.SaveTrade(runID, trade); err != nil {
		return errors.Wrap(errors.ErrCodeStoreFailed, "persisting trade", err)
	}

	return nil
}
