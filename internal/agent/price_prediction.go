package agent

import (
	"fmt"
	"math"

	"github.com/rxtech-lab/argo-ensemble/internal/indicator"
	"github.com/rxtech-lab/argo-ensemble/internal/types"
	"github.com/rxtech-lab/argo-ensemble/pkg/errors"
)

// predictionFeatures is the fixed feature window fed to the forecaster:
// last return, short-horizon mean return, rolling volatility and volume
// z-score.
const predictionFeatures = 4

// PricePrediction forecasts the next-bar return with a small linear model
// over a fixed feature window. It is a deterministic stand-in for the
// heavier sequence models used in production; the model can be swapped
// without touching callers because only the analyze contract is public.
//
// Config keys: feature_window (10), threshold (0.01).
type PricePrediction struct {
	*baseAgent

	featureWindow int
	threshold     float64

	// weights holds the linear model: bias followed by one weight per
	// feature. Replaced atomically by Train.
	weights [predictionFeatures + 1]float64
	trained bool
}

// NewPricePrediction creates a price prediction agent from the given config.
func NewPricePrediction(cfg Config) *PricePrediction {
	p := &PricePrediction{
		baseAgent:     newBaseAgent(cfg.String("id", string(TypePricePrediction)), TypePricePrediction),
		featureWindow: cfg.Int("feature_window", 10),
		threshold:     cfg.Float("threshold", 0.01),
	}

	// Untrained default: mild momentum persistence on the last return.
	p.weights = [predictionFeatures + 1]float64{0, 0.3, 0.2, 0, 0}

	return p
}

// Train fits the linear model by least squares over every feature/next-bar
// return pair in the series. Re-training replaces the previous weights.
func (p *PricePrediction) Train(series *types.MarketSeries) error {
	return p.runTrain(series, p.fit)
}

func (p *PricePrediction) fit(series *types.MarketSeries) error {
	minBars := p.featureWindow + 3
	if series.Len() < minBars {
		return errors.NewInsufficientDataErrorf(minBars, series.Len(), series.Symbol(),
			"price prediction training requires at least %d bars, got %d", minBars, series.Len())
	}

	var rows [][predictionFeatures + 1]float64

	var targets []float64

	for t := p.featureWindow + 1; t < series.Len()-1; t++ {
		window := series.Prefix(t + 1)

		features, ok := p.featuresAt(window)
		if !ok {
			continue
		}

		next := series.At(t + 1).Close
		current := series.At(t).Close

		if current == 0 {
			continue
		}

		rows = append(rows, features)
		targets = append(targets, next/current-1)
	}

	if len(rows) < predictionFeatures+1 {
		return errors.NewInsufficientDataErrorf(predictionFeatures+1, len(rows), series.Symbol(),
			"not enough feature rows to fit forecaster")
	}

	weights, err := solveNormalEquations(rows, targets)
	if err != nil {
		return err
	}

	p.weights = weights
	p.trained = true

	return nil
}

// Analyze implements the Agent interface.
func (p *PricePrediction) Analyze(series *types.MarketSeries) (types.Signal, error) {
	return p.runAnalyze(series, p.compute)
}

func (p *PricePrediction) compute(series *types.MarketSeries) (types.Signal, error) {
	if insufficient(series, p.featureWindow+2) {
		return p.hold(series, types.ReasonInsufficientData), nil
	}

	features, ok := p.featuresAt(series)
	if !ok {
		return p.hold(series, types.ReasonInsufficientData), nil
	}

	predicted := p.weights[0]
	for i := 0; i < predictionFeatures; i++ {
		predicted += p.weights[i+1] * features[i]
	}

	signalType := types.SignalTypeHold

	switch {
	case predicted > p.threshold:
		signalType = types.SignalTypeBuy
	case predicted < -p.threshold:
		signalType = types.SignalTypeSell
	}

	last := series.Last()

	return types.Signal{
		Symbol:     series.Symbol(),
		Timestamp:  last.Timestamp,
		Type:       signalType,
		Confidence: math.Min(math.Abs(predicted)/p.threshold, 1.0),
		Price:      last.Close,
		Reasoning:  fmt.Sprintf("predicted next-bar return %.4f vs threshold %.4f", predicted, p.threshold),
		AgentID:    p.id,
		Metadata: map[string]any{
			"predicted_return": predicted,
			"trained":          p.trained,
		},
	}, nil
}

// featuresAt extracts the feature vector at the last bar of the series.
func (p *PricePrediction) featuresAt(series *types.MarketSeries) ([predictionFeatures + 1]float64, bool) {
	returns := indicator.Returns(series)
	if len(returns) < p.featureWindow {
		return [predictionFeatures + 1]float64{}, false
	}

	window := returns[len(returns)-p.featureWindow:]

	// Leading 1 is the bias column.
	return [predictionFeatures + 1]float64{
		1,
		returns[len(returns)-1],
		indicator.Mean(window),
		indicator.StdDev(window),
		indicator.VolumeZScore(series, p.featureWindow),
	}, true
}

// solveNormalEquations fits weights minimizing squared error via the normal
// equations, solved by Gaussian elimination with partial pivoting. A small
// ridge term keeps the system well conditioned on degenerate features.
func solveNormalEquations(rows [][predictionFeatures + 1]float64, targets []float64) ([predictionFeatures + 1]float64, error) {
	const dim = predictionFeatures + 1

	const ridge = 1e-8

	var xtx [dim][dim]float64

	var xty [dim]float64

	for r, row := range rows {
		for i := 0; i < dim; i++ {
			xty[i] += row[i] * targets[r]
			for j := 0; j < dim; j++ {
				xtx[i][j] += row[i] * row[j]
			}
		}
	}

	for i := 0; i < dim; i++ {
		xtx[i][i] += ridge
	}

	// Gaussian elimination with partial pivoting.
	for col := 0; col < dim; col++ {
		pivot := col
		for r := col + 1; r < dim; r++ {
			if math.Abs(xtx[r][col]) > math.Abs(xtx[pivot][col]) {
				pivot = r
			}
		}

		if math.Abs(xtx[pivot][col]) < 1e-12 {
			return [dim]float64{}, errors.New(errors.ErrCodeInvalidParameter, "singular normal equations in forecaster fit")
		}

		xtx[col], xtx[pivot] = xtx[pivot], xtx[col]
		xty[col], xty[pivot] = xty[pivot], xty[col]

		for r := col + 1; r < dim; r++ {
			factor := xtx[r][col] / xtx[col][col]
			for c := col; c < dim; c++ {
				xtx[r][c] -= factor * xtx[col][c]
			}

			xty[r] -= factor * xty[col]
		}
	}

	var weights [dim]float64

	for i := dim - 1; i >= 0; i-- {
		sum := xty[i]
		for j := i + 1; j < dim; j++ {
			sum -= xtx[i][j] * weights[j]
		}

		weights[i] = sum / xtx[i][i]
	}

	return weights, nil
}
