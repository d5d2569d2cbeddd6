package marketdata

import (
	"context"
	"time"

	polygon "github.com/polygon-io/client-go/rest"
	"github.com/polygon-io/client-go/rest/models"

	"github.com/rxtech-lab/argo-ensemble/internal/types"
	"github.com/rxtech-lab/argo-ensemble/pkg/errors"
)

// PolygonProvider fetches equity aggregates from the Polygon REST API.
type PolygonProvider struct {
	client *polygon.Client
}

// NewPolygonProvider creates a Polygon-backed provider.
func NewPolygonProvider(apiKey string) (*PolygonProvider, error) {
	if apiKey == "" {
		return nil, errors.New(errors.ErrCodeInvalidProvider, "polygon provider requires an API key")
	}

	return &PolygonProvider{
		client: polygon.New(apiKey),
	}, nil
}

// Fetch implements the Provider interface.
func (p *PolygonProvider) Fetch(ctx context.Context, symbol string, start, end time.Time, interval Interval) (*types.MarketSeries, error) {
	timespan, err := polygonTimespan(interval)
	if err != nil {
		return nil, err
	}

	//nolint:exhaustruct // third-party struct with many optional fields
	params := models.ListAggsParams{
		Ticker:     symbol,
		Multiplier: 1,
		Timespan:   timespan,
		From:       models.Millis(start),
		To:         models.Millis(end),
	}.WithLimit(50000)

	iter := p.client.ListAggs(ctx, params)

	var bars []types.Bar

	for iter.Next() {
		agg := iter.Item()

		bars = append(bars, types.Bar{
			Timestamp: time.Time(agg.Timestamp),
			Open:      agg.Open,
			High:      agg.High,
			Low:       agg.Low,
			Close:     agg.Close,
			Volume:    agg.Volume,
		})
	}

	if iter.Err() != nil {
		return nil, errors.Wrapf(errors.ErrCodeMarketDataFetchFailed, iter.Err(),
			"fetching polygon aggregates for %s", symbol)
	}

	return types.NewMarketSeries(symbol, bars)
}

func polygonTimespan(interval Interval) (models.Timespan, error) {
	switch interval {
	case IntervalMinute:
		return models.Minute, nil
	case IntervalHour:
		return models.Hour, nil
	case IntervalDay:
		return models.Day, nil
	default:
		return "", errors.Newf(errors.ErrCodeInvalidInterval, "polygon does not support interval %q", interval)
	}
}
