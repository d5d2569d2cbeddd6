package backtest

import (
	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	"gopkg.in/yaml.v2"

	"github.com/rxtech-lab/argo-ensemble/internal/backtest/commission"
	"github.com/rxtech-lab/argo-ensemble/pkg/errors"
)

// Config tunes a backtester run. Parsed from YAML; zero values fall back to
// the defaults below.
type Config struct {
	// InitialCapital is the cash the run starts from.
	InitialCapital float64 `json:"initial_capital" jsonschema:"title=Initial capital,description=Cash the simulation starts from" yaml:"initial_capital" validate:"gt=0"`
	// TrainRatio is the leading fraction of the series handed to the
	// agent's Train before the replay starts. Zero skips training.
	TrainRatio float64 `json:"train_ratio" jsonschema:"title=Train ratio,description=Leading fraction of the series used for training" yaml:"train_ratio" validate:"gte=0,lt=1"`
	// TrainBars is the absolute number of leading bars handed to Train.
	// When set it takes precedence over TrainRatio. The run is rejected
	// when it leaves no bars to replay.
	TrainBars int `json:"train_bars" jsonschema:"title=Train bars,description=Absolute number of leading bars used for training; overrides train_ratio" yaml:"train_bars" validate:"gte=0"`
	// CommissionBroker selects the fee schedule.
	CommissionBroker commission.Broker `json:"commission_broker" jsonschema:"title=Commission broker,enum=proportional,enum=interactive_broker,enum=zero" yaml:"commission_broker"`
	// CommissionRate is the proportional fee rate per fill.
	CommissionRate float64 `json:"commission_rate" jsonschema:"title=Commission rate" yaml:"commission_rate" validate:"gte=0,lt=0.1"`
	// SlippageRate worsens every market fill by this fraction.
	SlippageRate float64 `json:"slippage_rate" jsonschema:"title=Slippage rate" yaml:"slippage_rate" validate:"gte=0,lt=0.1"`
	// StopLossPct closes a position after an adverse move of this
	// fraction from the entry fill. Zero disables the stop.
	StopLossPct float64 `json:"stop_loss_pct" jsonschema:"title=Stop loss percent" yaml:"stop_loss_pct" validate:"gte=0,lt=1"`
	// TakeProfitPct closes a position after a favorable move of this
	// fraction from the entry fill. Zero disables the target.
	TakeProfitPct float64 `json:"take_profit_pct" jsonschema:"title=Take profit percent" yaml:"take_profit_pct" validate:"gte=0"`
	// PositionSizePct is the fraction of current equity committed to each
	// new position.
	PositionSizePct float64 `json:"position_size_pct" jsonschema:"title=Position size percent" yaml:"position_size_pct" validate:"gte=0,lte=1"`
	// PeriodsPerYear annualizes the risk ratios. 252 for daily bars.
	PeriodsPerYear float64 `json:"periods_per_year" jsonschema:"title=Periods per year" yaml:"periods_per_year" validate:"gte=0"`
}

// DefaultConfig returns the config used when a field is left unset.
func DefaultConfig() Config {
	return Config{
		InitialCapital:   100000,
		TrainRatio:       0,
		CommissionBroker: commission.BrokerProportional,
		CommissionRate:   commission.DefaultProportionalRate,
		SlippageRate:     0,
		StopLossPct:      0,
		TakeProfitPct:    0,
		PositionSizePct:  1,
		PeriodsPerYear:   252,
	}
}

// ParseConfig unmarshals a YAML config, fills defaults and validates it.
func ParseConfig(data []byte) (Config, error) {
	cfg := Config{}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeBacktestConfigError, "parsing backtest config", err)
	}

	cfg.fillDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c *Config) fillDefaults() {
	defaults := DefaultConfig()

	if c.InitialCapital == 0 {
		c.InitialCapital = defaults.InitialCapital
	}

	if c.CommissionBroker == "" {
		c.CommissionBroker = defaults.CommissionBroker
	}

	if c.CommissionRate == 0 {
		c.CommissionRate = defaults.CommissionRate
	}

	if c.PositionSizePct == 0 {
		c.PositionSizePct = defaults.PositionSizePct
	}

	if c.PeriodsPerYear == 0 {
		c.PeriodsPerYear = defaults.PeriodsPerYear
	}
}

// Validate checks the config against its struct tags.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeBacktestConfigError, "invalid backtest config", err)
	}

	return nil
}

// GenerateSchemaJSON renders the JSON schema of the config, used by editors
// to validate config files.
func GenerateSchemaJSON() (string, error) {
	schema := jsonschema.Reflect(&Config{})

	data, err := schema.MarshalJSON()
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeBacktestConfigError, "marshaling config schema", err)
	}

	return string(data), nil
}
