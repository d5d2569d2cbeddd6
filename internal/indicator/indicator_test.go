package indicator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/rxtech-lab/argo-ensemble/internal/types"
	"github.com/rxtech-lab/argo-ensemble/pkg/errors"
)

type IndicatorTestSuite struct {
	suite.Suite
}

func TestIndicatorSuite(t *testing.T) {
	suite.Run(t, new(IndicatorTestSuite))
}

func seriesFromCloses(s *suite.Suite, closes ...float64) *types.MarketSeries {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	bars := make([]types.Bar, len(closes))
	for i, c := range closes {
		bars[i] = types.Bar{
			Timestamp: start.Add(time.Duration(i) * 24 * time.Hour),
			Open:      c,
			High:      c,
			Low:       c,
			Close:     c,
			Volume:    1000,
		}
	}

	series, err := types.NewMarketSeries("TEST", bars)
	s.Require().NoError(err)

	return series
}

func (suite *IndicatorTestSuite) TestSMAValue() {
	sma := NewSMA()
	suite.NoError(sma.Config(3))

	series := seriesFromCloses(&suite.Suite, 1, 2, 3, 4, 5)

	value, err := sma.Value(series)
	suite.NoError(err)
	suite.InDelta(4.0, value, 1e-9)
}

func (suite *IndicatorTestSuite) TestSMAInsufficientData() {
	sma := NewSMA()
	suite.NoError(sma.Config(10))

	series := seriesFromCloses(&suite.Suite, 1, 2, 3)

	_, err := sma.Value(series)
	suite.Error(err)
	suite.True(errors.IsInsufficientDataError(err))
}

func (suite *IndicatorTestSuite) TestSMAConfigRejectsBadPeriod() {
	sma := NewSMA()
	suite.Error(sma.Config(0))
	suite.Error(sma.Config("ten"))
	suite.Error(sma.Config())
}

func (suite *IndicatorTestSuite) TestEMAConvergesToConstant() {
	ema := NewEMA()
	suite.NoError(ema.Config(5))

	closes := make([]float64, 50)
	for i := range closes {
		closes[i] = 100
	}

	series := seriesFromCloses(&suite.Suite, closes...)

	value, err := ema.Value(series)
	suite.NoError(err)
	suite.InDelta(100.0, value, 1e-9)
}

func (suite *IndicatorTestSuite) TestEMAReactsFasterThanSMA() {
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 100
	}
	// Step up at the end.
	closes[28] = 110
	closes[29] = 110

	series := seriesFromCloses(&suite.Suite, closes...)

	ema := NewEMA()
	suite.NoError(ema.Config(10))

	sma := NewSMA()
	suite.NoError(sma.Config(10))

	emaValue, err := ema.Value(series)
	suite.NoError(err)

	smaValue, err := sma.Value(series)
	suite.NoError(err)

	suite.Greater(emaValue, smaValue)
}

func (suite *IndicatorTestSuite) TestRSIAllGains() {
	rsi := NewRSI()
	suite.NoError(rsi.Config(14))

	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}

	series := seriesFromCloses(&suite.Suite, closes...)

	value, err := rsi.Value(series)
	suite.NoError(err)
	suite.Equal(100.0, value)
}

func (suite *IndicatorTestSuite) TestRSIFlatSeriesIsNeutral() {
	rsi := NewRSI()

	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = 100
	}

	series := seriesFromCloses(&suite.Suite, closes...)

	value, err := rsi.Value(series)
	suite.NoError(err)
	suite.Equal(50.0, value)
}

func (suite *IndicatorTestSuite) TestRSIInsufficientData() {
	rsi := NewRSI()

	series := seriesFromCloses(&suite.Suite, 1, 2, 3)

	_, err := rsi.Value(series)
	suite.True(errors.IsInsufficientDataError(err))
}

func (suite *IndicatorTestSuite) TestMACDUptrendPositive() {
	macd := NewMACD()

	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 100 + float64(i)*2
	}

	series := seriesFromCloses(&suite.Suite, closes...)

	macdLine, _, _, err := macd.Lines(series)
	suite.NoError(err)
	suite.Greater(macdLine, 0.0)
}

func (suite *IndicatorTestSuite) TestMACDConfigValidation() {
	macd := NewMACD()
	suite.Error(macd.Config(12, 26))
	suite.Error(macd.Config(26, 12, 9))
	suite.Error(macd.Config(12, 26, 0))
	suite.NoError(macd.Config(5, 10, 3))
}

func (suite *IndicatorTestSuite) TestATRFlatSeriesIsZero() {
	atr := NewATR()

	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = 100
	}

	series := seriesFromCloses(&suite.Suite, closes...)

	value, err := atr.Value(series)
	suite.NoError(err)
	suite.Equal(0.0, value)
}

func (suite *IndicatorTestSuite) TestRollingStats() {
	suite.Equal(2.0, Mean([]float64{1, 2, 3}))
	suite.Equal(0.0, Mean(nil))
	suite.Equal(0.0, StdDev([]float64{5, 5, 5}))
	suite.InDelta(2.0, StdDev([]float64{2, 4, 6, 8}), 0.5)
	suite.Equal(0.0, ZScore(10, []float64{5, 5, 5}))
	suite.InDelta(1.0, ZScore(Mean([]float64{1, 3})+StdDev([]float64{1, 3}), []float64{1, 3}), 1e-9)
}

func (suite *IndicatorTestSuite) TestReturns() {
	series := seriesFromCloses(&suite.Suite, 100, 110, 99)

	returns := Returns(series)
	suite.Len(returns, 2)
	suite.InDelta(0.1, returns[0], 1e-9)
	suite.InDelta(-0.1, returns[1], 1e-9)
}
