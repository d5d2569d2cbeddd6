package mocks

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

type DataGeneratorTestSuite struct {
	suite.Suite
}

func TestDataGeneratorSuite(t *testing.T) {
	suite.Run(t, new(DataGeneratorTestSuite))
}

func (suite *DataGeneratorTestSuite) TestGenerateProducesValidSeries() {
	series, err := GenerateDaily("TEST", 500)
	suite.Require().NoError(err)
	suite.Equal(500, series.Len())
	suite.Equal("TEST", series.Symbol())

	// Construction validates OHLC invariants and monotonic timestamps, so
	// reaching here means every generated bar is well formed.
	for i := 0; i < series.Len(); i++ {
		bar := series.At(i)
		suite.Greater(bar.Close, 0.0)
		suite.GreaterOrEqual(bar.Volume, 0.0)
	}
}

func (suite *DataGeneratorTestSuite) TestSameSeedSameSeries() {
	config := DefaultGeneratorConfig()
	config.Count = 100

	first, err := NewDataGenerator(7).Generate(config)
	suite.Require().NoError(err)

	second, err := NewDataGenerator(7).Generate(config)
	suite.Require().NoError(err)

	suite.Equal(first.Bars(), second.Bars())
}

func (suite *DataGeneratorTestSuite) TestDifferentSeedsDiffer() {
	config := DefaultGeneratorConfig()
	config.Count = 100

	first, err := NewDataGenerator(1).Generate(config)
	suite.Require().NoError(err)

	second, err := NewDataGenerator(2).Generate(config)
	suite.Require().NoError(err)

	suite.NotEqual(first.Bars(), second.Bars())
}

func (suite *DataGeneratorTestSuite) TestTrendShiftsTerminalPrice() {
	config := DefaultGeneratorConfig()
	config.Count = 252
	config.Volatility = 0.001

	config.Trend = 0.5

	bullish, err := NewDataGenerator(3).Generate(config)
	suite.Require().NoError(err)

	config.Trend = -0.5

	bearish, err := NewDataGenerator(3).Generate(config)
	suite.Require().NoError(err)

	suite.Greater(bullish.Last().Close, bearish.Last().Close)
}

func (suite *DataGeneratorTestSuite) TestCointegratedPair() {
	config := DefaultGeneratorConfig()
	config.Count = 120

	driver, paired, err := NewDataGenerator(9).GenerateCointegratedPair(config, "PAIR", 1.5, 0.5)
	suite.Require().NoError(err)

	suite.Equal(config.Count, driver.Len())
	suite.Equal(config.Count, paired.Len())
	suite.Equal("PAIR", paired.Symbol())

	// The paired close stays near beta times the driver close.
	for i := 0; i < driver.Len(); i++ {
		suite.InDelta(1.5*driver.At(i).Close, paired.At(i).Close, 5.0)
	}
}
