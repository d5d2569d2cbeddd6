// Package mocks generates synthetic market data for tests, benchmarks and
// demo runs.
package mocks

import (
	"math"
	"math/rand"
	"time"

	"github.com/rxtech-lab/argo-ensemble/internal/types"
)

// DataGenerator produces realistic OHLCV series for testing and
// benchmarking.
type DataGenerator struct {
	rng *rand.Rand
}

// NewDataGenerator creates a generator with the given seed. Use a fixed
// seed for reproducible results in tests.
func NewDataGenerator(seed int64) *DataGenerator {
	return &DataGenerator{
		rng: rand.New(rand.NewSource(seed)),
	}
}

// GeneratorConfig configures how market data is generated.
type GeneratorConfig struct {
	// Symbol is the trading symbol (e.g., "AAPL", "SPY")
	Symbol string
	// StartTime is the beginning of the data series
	StartTime time.Time
	// Interval is the duration between each bar
	Interval time.Duration
	// Count is the number of bars to generate
	Count int
	// InitialPrice is the starting price
	InitialPrice float64
	// Volatility controls price movement (0.01 = 1% typical per-bar volatility)
	Volatility float64
	// Trend is the total drift applied across the whole series
	Trend float64
	// VolumeBase is the average volume per bar
	VolumeBase float64
	// VolumeVariance is the variance in volume (0.0 to 1.0)
	VolumeVariance float64
}

// DefaultGeneratorConfig returns a sensible default configuration: one year
// of daily bars with mild volatility and no drift.
func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{
		Symbol:         "TEST",
		StartTime:      time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Interval:       24 * time.Hour,
		Count:          252,
		InitialPrice:   100.0,
		Volatility:     0.01,
		Trend:          0.0,
		VolumeBase:     10000,
		VolumeVariance: 0.3,
	}
}

// Generate creates a validated series following geometric Brownian motion.
func (g *DataGenerator) Generate(config GeneratorConfig) (*types.MarketSeries, error) {
	bars := make([]types.Bar, config.Count)
	currentPrice := config.InitialPrice
	currentTime := config.StartTime

	for i := 0; i < config.Count; i++ {
		open := currentPrice

		// Box-Muller transform for a normal draw.
		u1 := g.rng.Float64()
		u2 := g.rng.Float64()
		z := math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)

		priceChange := config.Volatility * z
		drift := config.Trend / float64(config.Count)

		closePrice := open * (1 + priceChange + drift)
		if closePrice <= 0 {
			closePrice = open * 0.99
		}

		highExtension := math.Abs(g.rng.Float64() * config.Volatility * open * 0.5)
		lowExtension := math.Abs(g.rng.Float64() * config.Volatility * open * 0.5)

		high := math.Max(open, closePrice) + highExtension

		low := math.Min(open, closePrice) - lowExtension
		if low <= 0 {
			low = math.Min(open, closePrice) * 0.99
		}

		volumeVariation := 1.0 + (g.rng.Float64()*2-1)*config.VolumeVariance

		volume := config.VolumeBase * volumeVariation
		if volume < 0 {
			volume = config.VolumeBase * 0.1
		}

		bars[i] = types.Bar{
			Timestamp: currentTime,
			Open:      roundToDecimals(open, 4),
			High:      roundToDecimals(high, 4),
			Low:       roundToDecimals(low, 4),
			Close:     roundToDecimals(closePrice, 4),
			Volume:    roundToDecimals(volume, 2),
		}

		currentPrice = closePrice
		currentTime = currentTime.Add(config.Interval)
	}

	return types.NewMarketSeries(config.Symbol, bars)
}

// GenerateCointegratedPair generates two series sharing one price driver:
// the second tracks beta times the first plus a mean-reverting spread.
// Useful for exercising pairs logic end to end.
func (g *DataGenerator) GenerateCointegratedPair(config GeneratorConfig, pairSymbol string, beta, spreadVol float64) (*types.MarketSeries, *types.MarketSeries, error) {
	driver, err := g.Generate(config)
	if err != nil {
		return nil, nil, err
	}

	bars := make([]types.Bar, driver.Len())
	spread := 0.0

	for i := 0; i < driver.Len(); i++ {
		base := driver.At(i)

		// AR(1) spread with strong pull back to zero.
		spread = 0.5*spread + g.rng.NormFloat64()*spreadVol

		scale := func(price float64) float64 {
			return roundToDecimals(beta*price+spread, 4)
		}

		closePrice := scale(base.Close)

		high := math.Max(scale(base.High), closePrice)
		low := math.Min(scale(base.Low), closePrice)

		bars[i] = types.Bar{
			Timestamp: base.Timestamp,
			Open:      scale(base.Open),
			High:      high,
			Low:       low,
			Close:     closePrice,
			Volume:    base.Volume,
		}
	}

	paired, err := types.NewMarketSeries(pairSymbol, bars)
	if err != nil {
		return nil, nil, err
	}

	return driver, paired, nil
}

// GenerateDaily is a convenience wrapper for a year of seeded daily bars.
func GenerateDaily(symbol string, count int) (*types.MarketSeries, error) {
	generator := NewDataGenerator(42)

	config := DefaultGeneratorConfig()
	config.Symbol = symbol
	config.Count = count

	return generator.Generate(config)
}

// roundToDecimals rounds a float64 to the specified number of decimal places.
func roundToDecimals(val float64, decimals int) float64 {
	factor := math.Pow(10, float64(decimals))

	return math.Round(val*factor) / factor
}
