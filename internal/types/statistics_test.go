package types

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"gopkg.in/yaml.v3"
)

type StatisticsTestSuite struct {
	suite.Suite
	tempDir string
}

func TestStatisticsSuite(t *testing.T) {
	suite.Run(t, new(StatisticsTestSuite))
}

func (suite *StatisticsTestSuite) SetupTest() {
	tempDir, err := os.MkdirTemp("", "statistics_test")
	suite.NoError(err)
	suite.tempDir = tempDir
}

func (suite *StatisticsTestSuite) TearDownTest() {
	os.RemoveAll(suite.tempDir)
}

func (suite *StatisticsTestSuite) TestWriteResult() {
	result := BacktestResult{
		ID:        "run-1",
		Timestamp: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
		Symbol:    "AAPL",
		AgentID:   "ensemble",
		EquityCurve: []float64{100000, 100500, 101000},
		InitialCapital: 100000,
		FinalEquity:    101000,
		Metrics: PerformanceMetrics{
			NumberOfTrades:        10,
			NumberOfWinningTrades: 6,
			NumberOfLosingTrades:  4,
			WinRate:               0.6,
			SharpeRatio:           1.2,
			SortinoRatio:          1.5,
			MaxDrawdown:           0.08,
			ProfitFactor:          1.9,
			CalmarRatio:           2.1,
			TotalReturn:           0.01,
			TotalFees:             42.0,
		},
	}

	filePath := filepath.Join(suite.tempDir, "result.yaml")
	err := WriteResult(filePath, result)
	suite.NoError(err)

	data, err := os.ReadFile(filePath)
	suite.NoError(err)

	var readBack BacktestResult
	err = yaml.Unmarshal(data, &readBack)
	suite.NoError(err)

	suite.Equal("run-1", readBack.ID)
	suite.Equal("AAPL", readBack.Symbol)
	suite.Equal("ensemble", readBack.AgentID)
	suite.Equal(10, readBack.Metrics.NumberOfTrades)
	suite.Equal(0.6, readBack.Metrics.WinRate)
	suite.Equal(0.08, readBack.Metrics.MaxDrawdown)
	suite.Equal(101000.0, readBack.FinalEquity)
	suite.Len(readBack.EquityCurve, 3)
}

func (suite *StatisticsTestSuite) TestSignalDirectionalValue() {
	suite.Equal(1.0, SignalTypeBuy.DirectionalValue())
	suite.Equal(-1.0, SignalTypeSell.DirectionalValue())
	suite.Equal(0.0, SignalTypeHold.DirectionalValue())
}
