package marketdata

import (
	"context"
	"strconv"
	"time"

	binance "github.com/adshao/go-binance/v2"

	"github.com/rxtech-lab/argo-ensemble/internal/types"
	"github.com/rxtech-lab/argo-ensemble/pkg/errors"
)

// binancePageSize is the kline page limit of the public API.
const binancePageSize = 500

// BinanceProvider fetches crypto klines from the public Binance API.
type BinanceProvider struct {
	client *binance.Client
}

// NewBinanceProvider creates a Binance-backed provider. Kline history is
// public, so no credentials are needed.
func NewBinanceProvider() *BinanceProvider {
	return &BinanceProvider{
		client: binance.NewClient("", ""),
	}
}

// Fetch implements the Provider interface. Pages through the kline API
// until the end of the range.
func (b *BinanceProvider) Fetch(ctx context.Context, symbol string, start, end time.Time, interval Interval) (*types.MarketSeries, error) {
	binanceInterval, err := binanceIntervalOf(interval)
	if err != nil {
		return nil, err
	}

	endMillis := end.UnixMilli()
	currentStart := start.UnixMilli()

	var bars []types.Bar

	for {
		klines, err := b.client.NewKlinesService().
			Symbol(symbol).
			Interval(binanceInterval).
			StartTime(currentStart).
			EndTime(endMillis).
			Limit(binancePageSize).
			Do(ctx)
		if err != nil {
			return nil, errors.Wrapf(errors.ErrCodeMarketDataFetchFailed, err,
				"fetching binance klines for %s", symbol)
		}

		for _, kline := range klines {
			bar, err := barFromKline(kline)
			if err != nil {
				return nil, err
			}

			bars = append(bars, bar)
		}

		if len(klines) < binancePageSize {
			break
		}

		// Resume one millisecond past the last close to avoid duplicates.
		currentStart = klines[len(klines)-1].CloseTime + 1
		if currentStart >= endMillis {
			break
		}
	}

	return types.NewMarketSeries(symbol, bars)
}

// barFromKline converts one kline, whose prices arrive as strings, into a
// bar.
func barFromKline(kline *binance.Kline) (types.Bar, error) {
	fields := map[string]string{
		"open":   kline.Open,
		"high":   kline.High,
		"low":    kline.Low,
		"close":  kline.Close,
		"volume": kline.Volume,
	}

	parsed := make(map[string]float64, len(fields))

	for name, raw := range fields {
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return types.Bar{}, errors.Wrapf(errors.ErrCodeMarketDataParseFailed, err,
				"parsing kline %s %q", name, raw)
		}

		parsed[name] = value
	}

	return types.Bar{
		Timestamp: time.UnixMilli(kline.OpenTime).UTC(),
		Open:      parsed["open"],
		High:      parsed["high"],
		Low:       parsed["low"],
		Close:     parsed["close"],
		Volume:    parsed["volume"],
	}, nil
}

func binanceIntervalOf(interval Interval) (string, error) {
	switch interval {
	case IntervalMinute:
		return "1m", nil
	case IntervalHour:
		return "1h", nil
	case IntervalDay:
		return "1d", nil
	default:
		return "", errors.Newf(errors.ErrCodeInvalidInterval, "binance does not support interval %q", interval)
	}
}
