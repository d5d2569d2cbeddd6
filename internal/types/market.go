package types

import (
	"time"

	"github.com/rxtech-lab/argo-ensemble/pkg/errors"
)

// Bar is a single OHLCV candle.
type Bar struct {
	Timestamp time.Time `csv:"timestamp" yaml:"timestamp"`
	Open      float64   `csv:"open" yaml:"open"`
	High      float64   `csv:"high" yaml:"high"`
	Low       float64   `csv:"low" yaml:"low"`
	Close     float64   `csv:"close" yaml:"close"`
	Volume    float64   `csv:"volume" yaml:"volume"`
}

// Validate checks the OHLCV invariants of a single bar.
func (b Bar) Validate() error {
	if b.High < b.Open || b.High < b.Close || b.High < b.Low {
		return errors.NewMalformedSeriesErrorf("", -1, b.Timestamp,
			"high %.6f below open/close/low (%.6f/%.6f/%.6f)", b.High, b.Open, b.Close, b.Low)
	}

	if b.Low > b.Open || b.Low > b.Close {
		return errors.NewMalformedSeriesErrorf("", -1, b.Timestamp,
			"low %.6f above open/close (%.6f/%.6f)", b.Low, b.Open, b.Close)
	}

	if b.Volume < 0 {
		return errors.NewMalformedSeriesErrorf("", -1, b.Timestamp, "negative volume %.2f", b.Volume)
	}

	return nil
}

// MarketSeries is an immutable, ordered series of bars for a single symbol.
// Timestamps are strictly increasing. Construct via NewMarketSeries; agents
// and the backtester only ever read from it.
type MarketSeries struct {
	symbol string
	bars   []Bar
}

// NewMarketSeries validates the given bars and returns an immutable series.
// The bars slice is copied; the caller keeps ownership of its slice.
// Returns a MalformedSeriesError if timestamps are non-monotonic or an OHLCV
// invariant is violated. Malformed input is never silently repaired.
func NewMarketSeries(symbol string, bars []Bar) (*MarketSeries, error) {
	if symbol == "" {
		return nil, errors.New(errors.ErrCodeEmptySeries, "market series requires a symbol")
	}

	copied := make([]Bar, len(bars))
	copy(copied, bars)

	for i, bar := range copied {
		if err := bar.Validate(); err != nil {
			var malformed *errors.MalformedSeriesError
			if errors.As(err, &malformed) {
				malformed.Symbol = symbol
				malformed.Index = i

				return nil, malformed
			}

			return nil, err
		}

		if i > 0 && !bar.Timestamp.After(copied[i-1].Timestamp) {
			return nil, errors.NewMalformedSeriesErrorf(symbol, i, bar.Timestamp,
				"timestamp not after previous bar (%s)", copied[i-1].Timestamp.Format(time.RFC3339))
		}
	}

	return &MarketSeries{
		symbol: symbol,
		bars:   copied,
	}, nil
}

// Symbol returns the symbol this series belongs to.
func (s *MarketSeries) Symbol() string {
	return s.symbol
}

// Len returns the number of bars in the series.
func (s *MarketSeries) Len() int {
	return len(s.bars)
}

// At returns the bar at index i. Panics on out-of-range access, matching
// slice semantics.
func (s *MarketSeries) At(i int) Bar {
	return s.bars[i]
}

// Last returns the most recent bar. The series must be non-empty.
func (s *MarketSeries) Last() Bar {
	return s.bars[len(s.bars)-1]
}

// Prefix returns a view of the first n bars. The underlying storage is
// shared; this is safe because the series is read-only. Used by the
// backtester to present a causal view of history to agents.
func (s *MarketSeries) Prefix(n int) *MarketSeries {
	if n > len(s.bars) {
		n = len(s.bars)
	}

	return &MarketSeries{
		symbol: s.symbol,
		bars:   s.bars[:n],
	}
}

// Closes returns a copy of all close prices.
func (s *MarketSeries) Closes() []float64 {
	closes := make([]float64, len(s.bars))
	for i, bar := range s.bars {
		closes[i] = bar.Close
	}

	return closes
}

// Bars returns a copy of all bars.
func (s *MarketSeries) Bars() []Bar {
	bars := make([]Bar, len(s.bars))
	copy(bars, s.bars)

	return bars
}
