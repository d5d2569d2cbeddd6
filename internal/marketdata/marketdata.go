// Package marketdata fetches OHLCV history from external providers and
// local CSV files, normalized into the validated series the agents consume.
package marketdata

import (
	"context"
	"time"

	"github.com/rxtech-lab/argo-ensemble/internal/types"
	"github.com/rxtech-lab/argo-ensemble/pkg/errors"
)

// Interval is the bar duration of fetched history.
type Interval string

const (
	IntervalMinute Interval = "minute"
	IntervalHour   Interval = "hour"
	IntervalDay    Interval = "day"
)

// ProviderType selects a market data source.
type ProviderType string

const (
	ProviderPolygon ProviderType = "polygon"
	ProviderBinance ProviderType = "binance"
)

// Provider fetches historical bars for one symbol. Implementations return a
// fully validated series; malformed upstream data surfaces as an error, not
// as a partially filled series.
type Provider interface {
	// Fetch downloads bars in [start, end] at the given interval. The
	// context cancels the download.
	Fetch(ctx context.Context, symbol string, start, end time.Time, interval Interval) (*types.MarketSeries, error)
}

// NewProvider creates a provider of the given type. Polygon requires an API
// key; Binance serves public kline data without one.
func NewProvider(providerType ProviderType, apiKey string) (Provider, error) {
	switch providerType {
	case ProviderPolygon:
		return NewPolygonProvider(apiKey)
	case ProviderBinance:
		return NewBinanceProvider(), nil
	default:
		return nil, errors.Newf(errors.ErrCodeInvalidProvider, "unsupported market data provider %q", providerType)
	}
}

// ValidateInterval rejects intervals no provider understands.
func ValidateInterval(interval Interval) error {
	switch interval {
	case IntervalMinute, IntervalHour, IntervalDay:
		return nil
	default:
		return errors.Newf(errors.ErrCodeInvalidInterval, "unsupported interval %q", interval)
	}
}
