package marketdata

import (
	"os"
	"sort"
	"time"

	"github.com/gocarina/gocsv"

	"github.com/rxtech-lab/argo-ensemble/internal/types"
	"github.com/rxtech-lab/argo-ensemble/pkg/errors"
)

// csvBar is the on-disk row layout of CSV market data files.
type csvBar struct {
	Timestamp time.Time `csv:"timestamp"`
	Open      float64   `csv:"open"`
	High      float64   `csv:"high"`
	Low       float64   `csv:"low"`
	Close     float64   `csv:"close"`
	Volume    float64   `csv:"volume"`
}

// LoadCSV reads a CSV file of bars into a validated series. Rows are sorted
// by timestamp before validation, so unordered exports still load.
func LoadCSV(path, symbol string) (*types.MarketSeries, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeMarketDataFetchFailed, err, "opening csv %q", path)
	}
	defer file.Close()

	var rows []csvBar

	if err := gocsv.UnmarshalFile(file, &rows); err != nil {
		return nil, errors.Wrapf(errors.ErrCodeMarketDataParseFailed, err, "parsing csv %q", path)
	}

	sort.Slice(rows, func(i, j int) bool {
		return rows[i].Timestamp.Before(rows[j].Timestamp)
	})

	bars := make([]types.Bar, len(rows))
	for i, row := range rows {
		bars[i] = types.Bar{
			Timestamp: row.Timestamp,
			Open:      row.Open,
			High:      row.High,
			Low:       row.Low,
			Close:     row.Close,
			Volume:    row.Volume,
		}
	}

	return types.NewMarketSeries(symbol, bars)
}

// WriteCSV writes the series to a CSV file in the layout LoadCSV reads.
func WriteCSV(path string, series *types.MarketSeries) error {
	rows := make([]csvBar, series.Len())
	for i := 0; i < series.Len(); i++ {
		bar := series.At(i)
		rows[i] = csvBar{
			Timestamp: bar.Timestamp,
			Open:      bar.Open,
			High:      bar.High,
			Low:       bar.Low,
			Close:     bar.Close,
			Volume:    bar.Volume,
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeMarketDataFetchFailed, err, "creating csv %q", path)
	}
	defer file.Close()

	if err := gocsv.MarshalFile(&rows, file); err != nil {
		return errors.Wrapf(errors.ErrCodeMarketDataParseFailed, err, "writing csv %q", path)
	}

	return nil
}
