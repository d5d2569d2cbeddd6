package indicator

import (
	"math"

	"github.com/rxtech-lab/argo-ensemble/pkg/errors"
)

// OLSResult holds the fit of a single-variable least-squares regression
// y = alpha + beta*x.
type OLSResult struct {
	Alpha float64
	Beta  float64
}

// OLS fits y = alpha + beta*x by ordinary least squares. x and y must have
// equal length of at least 2, and x must not be constant.
func OLS(x, y []float64) (OLSResult, error) {
	if len(x) != len(y) {
		return OLSResult{}, errors.Newf(errors.ErrCodeInvalidParameter,
			"OLS requires equal-length inputs, got %d and %d", len(x), len(y))
	}

	if len(x) < 2 {
		return OLSResult{}, errors.NewInsufficientDataErrorf(2, len(x), "",
			"OLS requires at least 2 observations, got %d", len(x))
	}

	meanX := Mean(x)
	meanY := Mean(y)

	var covXY, varX float64

	for i := range x {
		dx := x[i] - meanX
		covXY += dx * (y[i] - meanY)
		varX += dx * dx
	}

	if varX == 0 {
		return OLSResult{}, errors.New(errors.ErrCodeInvalidParameter, "OLS regressor is constant")
	}

	beta := covXY / varX

	return OLSResult{
		Alpha: meanY - beta*meanX,
		Beta:  beta,
	}, nil
}

// ADFStatistic computes a Dickey-Fuller test statistic for the given series:
// the t-statistic of beta in the regression
//
//	diff(y)_t = alpha + beta * y_{t-1} + e_t
//
// Strongly negative values reject the unit-root hypothesis, i.e. indicate a
// stationary (mean-reverting) series. No lag augmentation is applied; the
// caller compares the statistic against a configurable critical value.
func ADFStatistic(series []float64) (float64, error) {
	n := len(series)
	if n < 10 {
		return 0, errors.NewInsufficientDataErrorf(10, n, "",
			"ADF test requires at least 10 observations, got %d", n)
	}

	lagged := make([]float64, n-1)
	diffs := make([]float64, n-1)

	for i := 1; i < n; i++ {
		lagged[i-1] = series[i-1]
		diffs[i-1] = series[i] - series[i-1]
	}

	fit, err := OLS(lagged, diffs)
	if err != nil {
		return 0, err
	}

	// Residual variance and the standard error of beta.
	var rss, varX float64

	meanX := Mean(lagged)

	for i := range lagged {
		residual := diffs[i] - fit.Alpha - fit.Beta*lagged[i]
		rss += residual * residual

		dx := lagged[i] - meanX
		varX += dx * dx
	}

	dof := float64(len(lagged) - 2)
	if dof <= 0 || varX == 0 {
		return 0, errors.New(errors.ErrCodeInvalidParameter, "degenerate ADF regression")
	}

	stderr := math.Sqrt(rss / dof / varX)
	if stderr == 0 {
		return 0, errors.New(errors.ErrCodeInvalidParameter, "zero standard error in ADF regression")
	}

	return fit.Beta / stderr, nil
}
