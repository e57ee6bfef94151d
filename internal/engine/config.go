package engine

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	"github.com/moznion/go-optional"
	"github.com/robfig/cron/v3"
	"github.com/rxtech-lab/argo-signals/internal/indicator"
	"github.com/rxtech-lab/argo-signals/internal/portfolio"
	"github.com/rxtech-lab/argo-signals/internal/portfolio/commission_fee"
	"github.com/rxtech-lab/argo-signals/internal/portfolio/sizing"
	"github.com/rxtech-lab/argo-signals/internal/report"
	"github.com/rxtech-lab/argo-signals/internal/scoring"
	"github.com/rxtech-lab/argo-signals/internal/types"
	"github.com/rxtech-lab/argo-signals/pkg/errors"
	"github.com/rxtech-lab/argo-signals/pkg/marketdata/provider"
	"gopkg.in/yaml.v3"
)

// PolygonApiKeyEnv is the environment variable holding the Polygon API key.
const PolygonApiKeyEnv = "POLYGON_API_KEY"

// UniverseConfig lists the symbols processed in a run. Both lists empty selects the built-in universe.
type UniverseConfig struct {
	Stocks []string `yaml:"stocks" json:"stocks"`
	ETFs   []string `yaml:"etfs" json:"etfs"`
}

// PathsConfig locates the state snapshot and the run artifacts.
type PathsConfig struct {
	State        string `yaml:"state" json:"state" default:"state.json" validate:"required"`
	report.Paths `yaml:",inline"`
	// HistoryParquet also keeps the trade log as Parquet when set.
	HistoryParquet string `yaml:"history_parquet,omitempty" json:"history_parquet,omitempty"`
	// MarketDataParquet exports every fetched bar of a run when set.
	MarketDataParquet string `yaml:"market_data_parquet,omitempty" json:"market_data_parquet,omitempty"`
	// ReplayParquet is the market data export read by the parquet provider.
	ReplayParquet string `yaml:"replay_parquet,omitempty" json:"replay_parquet,omitempty"`
}

// HistoryParquetPath returns the Parquet trade history path, if configured.
func (p PathsConfig) HistoryParquetPath() optional.Option[string] {
	return optionalPath(p.HistoryParquet)
}

// MarketDataParquetPath returns the Parquet market data export path, if configured.
func (p PathsConfig) MarketDataParquetPath() optional.Option[string] {
	return optionalPath(p.MarketDataParquet)
}

func optionalPath(path string) optional.Option[string] {
	if path == "" {
		return optional.None[string]()
	}

	return optional.Some(path)
}

// Config is the run configuration of the signal engine.
type Config struct {
	InitialCapital      float64               `yaml:"initial_capital" json:"initial_capital" default:"10000" validate:"gt=0" jsonschema:"title=Initial capital,default=10000"`
	RiskFraction        float64               `yaml:"risk_fraction" json:"risk_fraction" default:"0.02" validate:"gt=0,lte=1" jsonschema:"title=Share of cash budgeted per BUY,default=0.02"`
	MinTradeConfidence  int                   `yaml:"min_trade_confidence" json:"min_trade_confidence" default:"30" validate:"gte=0,lte=100" jsonschema:"default=30"`
	LookaheadDays       int                   `yaml:"lookahead_days" json:"lookahead_days" default:"5" validate:"gt=0" jsonschema:"default=5"`
	MinHistoryBars      int                   `yaml:"min_history_bars" json:"min_history_bars" default:"60" validate:"gt=0" jsonschema:"default=60"`
	HistoryPeriodDays   int                   `yaml:"history_period_days" json:"history_period_days" default:"183" validate:"gt=0" jsonschema:"default=183"`
	Sizing              sizing.Policy         `yaml:"sizing" json:"sizing"`
	Broker              commission_fee.Broker `yaml:"broker" json:"broker" default:"proportional" validate:"oneof=proportional interactive_broker zero_commission" jsonschema:"enum=proportional,enum=interactive_broker,enum=zero_commission"`
	FeeRate             float64               `yaml:"fee_rate" json:"fee_rate" default:"0.001" validate:"gte=0,lt=1" jsonschema:"default=0.001"`
	ConfidenceWeighting scoring.Weighting     `yaml:"confidence_weighting" json:"confidence_weighting" default:"backtest_weighted" validate:"oneof=raw backtest_weighted" jsonschema:"enum=raw,enum=backtest_weighted"`
	Rules               scoring.Rules         `yaml:"rules" json:"rules"`
	Indicators          indicator.Settings    `yaml:"indicators" json:"indicators"`
	Provider            provider.ProviderType `yaml:"provider" json:"provider" default:"yahoo" validate:"oneof=yahoo polygon binance parquet" jsonschema:"enum=yahoo,enum=polygon,enum=binance,enum=parquet"`
	FetchConcurrency    int                   `yaml:"fetch_concurrency" json:"fetch_concurrency" default:"4" validate:"gte=1,lte=32" jsonschema:"default=4"`
	Schedule            string                `yaml:"schedule" json:"schedule" default:"0 22 * * MON-FRI" jsonschema:"title=Cron expression used by the schedule command"`
	Universe            UniverseConfig        `yaml:"universe" json:"universe"`
	Paths               PathsConfig           `yaml:"paths" json:"paths"`
}

// DefaultConfig returns the configuration with every default applied.
func DefaultConfig() Config {
	var config Config

	defaults.MustSet(&config)

	return config
}

// ParseConfig decodes YAML on top of the defaults and validates the result.
func ParseConfig(data []byte) (Config, error) {
	config := DefaultConfig()

	if err := yaml.Unmarshal(data, &config); err != nil {
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to parse config", err)
	}

	if err := config.Validate(); err != nil {
		return Config{}, err
	}

	return config, nil
}

// LoadConfig reads the YAML file at path. An empty path yields the defaults.
func LoadConfig(path string) (Config, error) {
	if path == "" {
		config := DefaultConfig()

		return config, config.Validate()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "failed to read config %s", path)
	}

	return ParseConfig(data)
}

// Validate checks the field constraints and that the universe can be built.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid config", err)
	}

	if _, err := c.BuildUniverse(); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid universe", err)
	}

	if c.Provider == provider.ProviderParquet {
		if c.Paths.ReplayParquet == "" {
			return errors.New(errors.ErrCodeInvalidConfiguration, "paths.replay_parquet is required by the parquet provider")
		}

		if c.Paths.ReplayParquet == c.Paths.MarketDataParquet {
			return errors.New(errors.ErrCodeInvalidConfiguration, "paths.replay_parquet must differ from paths.market_data_parquet")
		}
	}

	if _, err := cron.ParseStandard(c.Schedule); err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "invalid schedule %q", c.Schedule)
	}

	return nil
}

// BuildUniverse returns the configured universe, or the built-in one when none is configured.
func (c Config) BuildUniverse() (types.Universe, error) {
	stocks, etfs := c.Universe.Stocks, c.Universe.ETFs
	if len(stocks) == 0 && len(etfs) == 0 {
		stocks, etfs = types.DefaultStocks, types.DefaultETFs
	}

	return types.NewUniverse(stocks, etfs, c.Sizing.Fractions())
}

// SimulatorPolicy returns the portfolio simulator policy.
func (c Config) SimulatorPolicy() portfolio.Policy {
	return portfolio.Policy{
		RiskFraction:       c.RiskFraction,
		MinTradeConfidence: c.MinTradeConfidence,
		Sizing:             c.Sizing,
	}
}

// CommissionFee returns the fee policy of the configured broker.
func (c Config) CommissionFee() commission_fee.CommissionFee {
	return commission_fee.GetCommissionFeeHandler(c.Broker, c.FeeRate)
}

// ProviderConfig returns the market data provider configuration, reading API keys from the environment.
func (c Config) ProviderConfig() provider.Config {
	return provider.Config{
		Type:          c.Provider,
		PolygonApiKey: os.Getenv(PolygonApiKeyEnv),
		ParquetPath:   c.Paths.ReplayParquet,
	}
}

// GenerateSchema returns the JSON schema of the config file.
func (c *Config) GenerateSchema() (*jsonschema.Schema, error) {
	reflector := jsonschema.Reflector{
		FieldNameTag:   "yaml",
		DoNotReference: true,
	}

	schema := reflector.Reflect(c)
	schema.Title = "signal-engine-config"
	schema.Description = "Configuration schema for the daily signal engine"

	return schema, nil
}

// GenerateSchemaJSON returns the JSON schema as an indented string.
func (c *Config) GenerateSchemaJSON() (string, error) {
	schema, err := c.GenerateSchema()
	if err != nil {
		return "", err
	}

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal schema: %w", err)
	}

	return string(data), nil
}
