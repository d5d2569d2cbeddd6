// Package store persists the signals and trades of backtest runs in DuckDB
// for later inspection and export.
package store

import (
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"

	"github.com/rxtech-lab/argo-ensemble/internal/logger"
	"github.com/rxtech-lab/argo-ensemble/internal/types"
	"github.com/rxtech-lab/argo-ensemble/pkg/errors"
)

// DuckDBStore writes run artifacts to a DuckDB database. An empty path
// opens an in-memory database, useful for tests and one-off runs.
type DuckDBStore struct {
	db      *sql.DB
	builder sq.StatementBuilderType
	logger  *logger.Logger
}

const schema = `
CREATE TABLE IF NOT EXISTS signals (
	run_id     VARCHAR NOT NULL,
	symbol     VARCHAR NOT NULL,
	timestamp  TIMESTAMP NOT NULL,
	type       VARCHAR NOT NULL,
	confidence DOUBLE NOT NULL,
	price      DOUBLE NOT NULL,
	reasoning  VARCHAR,
	agent_id   VARCHAR NOT NULL
);

CREATE TABLE IF NOT EXISTS trades (
	run_id          VARCHAR NOT NULL,
	id              VARCHAR NOT NULL,
	symbol          VARCHAR NOT NULL,
	quantity        DOUBLE NOT NULL,
	entry_price     DOUBLE NOT NULL,
	entry_timestamp TIMESTAMP NOT NULL,
	exit_price      DOUBLE NOT NULL,
	exit_timestamp  TIMESTAMP NOT NULL,
	commission      DOUBLE NOT NULL,
	pnl             DOUBLE NOT NULL,
	return_pct      DOUBLE NOT NULL,
	holding_periods INTEGER NOT NULL,
	exit_reason     VARCHAR NOT NULL,
	agent_id        VARCHAR NOT NULL
);
`

// NewDuckDBStore opens (or creates) the database at path and ensures the
// schema exists.
func NewDuckDBStore(path string, log *logger.Logger) (*DuckDBStore, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeStoreFailed, err, "opening duckdb at %q", path)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()

		return nil, errors.Wrap(errors.ErrCodeStoreFailed, "creating store schema", err)
	}

	if log == nil {
		log = logger.NewNopLogger()
	}

	return &DuckDBStore{
		db:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Question),
		logger:  log,
	}, nil
}

// Close releases the underlying database.
func (s *DuckDBStore) Close() error {
	return s.db.Close()
}

// SaveSignal appends one signal to the run's audit trail.
func (s *DuckDBStore) SaveSignal(runID string, signal types.Signal) error {
	query, args, err := s.builder.
		Insert("signals").
		Columns("run_id", "symbol", "timestamp", "type", "confidence", "price", "reasoning", "agent_id").
		Values(runID, signal.Symbol, signal.Timestamp, string(signal.Type), signal.Confidence,
			signal.Price, signal.Reasoning, signal.AgentID).
		ToSql()
	if err != nil {
		return errors.Wrap(errors.ErrCodeStoreFailed, "building signal insert", err)
	}

	if _, err := s.db.Exec(query, args...); err != nil {
		return errors.Wrap(errors.ErrCodeStoreFailed, "inserting signal", err)
	}

	return nil
}

// SaveTrade appends one closed trade to the run's audit trail.
func (s *DuckDBStore) SaveTrade(runID string, trade types.Trade) error {
	query, args, err := s.builder.
		Insert("trades").
		Columns("run_id", "id", "symbol", "quantity", "entry_price", "entry_timestamp",
			"exit_price", "exit_timestamp", "commission", "pnl", "return_pct",
			"holding_periods", "exit_reason", "agent_id").
		Values(runID, trade.ID, trade.Symbol, trade.Quantity, trade.EntryPrice, trade.EntryTimestamp,
			trade.ExitPrice, trade.ExitTimestamp, trade.Commission, trade.PnL, trade.ReturnPct,
			trade.HoldingPeriods, string(trade.ExitReason), trade.AgentID).
		ToSql()
	if err != nil {
		return errors.Wrap(errors.ErrCodeStoreFailed, "building trade insert", err)
	}

	if _, err := s.db.Exec(query, args...); err != nil {
		return errors.Wrap(errors.ErrCodeStoreFailed, "inserting trade", err)
	}

	return nil
}

// Trades returns every trade of the run in execution order.
func (s *DuckDBStore) Trades(runID string) ([]types.Trade, error) {
	query, args, err := s.builder.
		Select("id", "symbol", "quantity", "entry_price", "entry_timestamp",
			"exit_price", "exit_timestamp", "commission", "pnl", "return_pct",
			"holding_periods", "exit_reason", "agent_id").
		From("trades").
		Where(sq.Eq{"run_id": runID}).
		OrderBy("exit_timestamp").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreFailed, "building trade query", err)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreFailed, "querying trades", err)
	}
	defer rows.Close()

	var trades []types.Trade

	for rows.Next() {
		var trade types.Trade

		var exitReason string

		var entryTs, exitTs time.Time

		if err := rows.Scan(&trade.ID, &trade.Symbol, &trade.Quantity, &trade.EntryPrice, &entryTs,
			&trade.ExitPrice, &exitTs, &trade.Commission, &trade.PnL, &trade.ReturnPct,
			&trade.HoldingPeriods, &exitReason, &trade.AgentID); err != nil {
			return nil, errors.Wrap(errors.ErrCodeStoreFailed, "scanning trade row", err)
		}

		trade.EntryTimestamp = entryTs
		trade.ExitTimestamp = exitTs
		trade.ExitReason = types.ExitReason(exitReason)

		trades = append(trades, trade)
	}

	return trades, rows.Err()
}

// Signals returns every signal of the run in bar order.
func (s *DuckDBStore) Signals(runID string) ([]types.Signal, error) {
	query, args, err := s.builder.
		Select("symbol", "timestamp", "type", "confidence", "price", "reasoning", "agent_id").
		From("signals").
		Where(sq.Eq{"run_id": runID}).
		OrderBy("timestamp").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreFailed, "building signal query", err)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStoreFailed, "querying signals", err)
	}
	defer rows.Close()

	var signals []types.Signal

	for rows.Next() {
		var signal types.Signal

		var signalType string

		if err := rows.Scan(&signal.Symbol, &signal.Timestamp, &signalType, &signal.Confidence,
			&signal.Price, &signal.Reasoning, &signal.AgentID); err != nil {
			return nil, errors.Wrap(errors.ErrCodeStoreFailed, "scanning signal row", err)
		}

		signal.Type = types.SignalType(signalType)

		signals = append(signals, signal)
	}

	return signals, rows.Err()
}

// ExportTradesParquet writes the run's trades to a Parquet file via DuckDB's
// native COPY.
func (s *DuckDBStore) ExportTradesParquet(runID, path string) error {
	statement := fmt.Sprintf(
		"COPY (SELECT * FROM trades WHERE run_id = ? ORDER BY exit_timestamp) TO '%s' (FORMAT PARQUET)", path)

	if _, err := s.db.Exec(statement, runID); err != nil {
		return errors.Wrapf(errors.ErrCodeStoreFailed, err, "exporting trades to %q", path)
	}

	s.logger.Info("exported trades to parquet")

	return nil
}
