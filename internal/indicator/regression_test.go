package indicator

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/rxtech-lab/argo-ensemble/pkg/errors"
)

type RegressionTestSuite struct {
	suite.Suite
}

func TestRegressionSuite(t *testing.T) {
	suite.Run(t, new(RegressionTestSuite))
}

func (suite *RegressionTestSuite) TestOLSExactFit() {
	x := []float64{1, 2, 3, 4, 5}
	y := []float64{3, 5, 7, 9, 11} // y = 1 + 2x

	fit, err := OLS(x, y)
	suite.NoError(err)
	suite.InDelta(2.0, fit.Beta, 1e-9)
	suite.InDelta(1.0, fit.Alpha, 1e-9)
}

func (suite *RegressionTestSuite) TestOLSLengthMismatch() {
	_, err := OLS([]float64{1, 2}, []float64{1})
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidParameter))
}

func (suite *RegressionTestSuite) TestOLSConstantRegressor() {
	_, err := OLS([]float64{2, 2, 2}, []float64{1, 2, 3})
	suite.Error(err)
}

func (suite *RegressionTestSuite) TestOLSTooFewObservations() {
	_, err := OLS([]float64{1}, []float64{1})
	suite.True(errors.IsInsufficientDataError(err))
}

func (suite *RegressionTestSuite) TestADFMeanRevertingSeries() {
	// A strongly mean-reverting AR(1) process should produce a very
	// negative test statistic.
	rng := rand.New(rand.NewSource(7))

	series := make([]float64, 200)
	for i := 1; i < len(series); i++ {
		series[i] = 0.2*series[i-1] + rng.NormFloat64()
	}

	stat, err := ADFStatistic(series)
	suite.NoError(err)
	suite.Less(stat, -2.86)
}

func (suite *RegressionTestSuite) TestADFRandomWalk() {
	rng := rand.New(rand.NewSource(7))

	series := make([]float64, 200)
	for i := 1; i < len(series); i++ {
		series[i] = series[i-1] + rng.NormFloat64()
	}

	stat, err := ADFStatistic(series)
	suite.NoError(err)
	suite.Greater(stat, -2.86)
}

func (suite *RegressionTestSuite) TestADFTooShort() {
	_, err := ADFStatistic([]float64{1, 2, 3})
	suite.True(errors.IsInsufficientDataError(err))
}
