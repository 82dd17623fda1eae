package config

import (
	"fmt"
	"math"
	"os"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// ConfigError marks a configuration problem. It is the only error class that
// is allowed to abort a run, and it always surfaces before the loop starts.
type ConfigError struct {
	Reason string
	Err    error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("config: %s: %v", e.Reason, e.Err)
	}
	return "config: " + e.Reason
}

func (e *ConfigError) Unwrap() error { return e.Err }

// WeightKeys are the sub-signals the technical scorer recognizes.
var WeightKeys = []string{"trend", "rsi", "oversold", "sar", "volume", "volatility"}

// DefaultWeights is used when technical_score_weights is absent from the file.
func DefaultWeights() map[string]float64 {
	return map[string]float64{
		"trend":      0.25,
		"rsi":        0.20,
		"oversold":   0.15,
		"sar":        0.15,
		"volume":     0.15,
		"volatility": 0.10,
	}
}

type Config struct {
	Environment string `yaml:"environment" default:"dev" validate:"required"`

	Logging struct {
		Level  string `yaml:"level" default:"info"`
		Format string `yaml:"format" default:"console"`
		Output string `yaml:"output" default:"stdout"`
	} `yaml:"logging"`

	Server struct {
		Port            int           `yaml:"port" default:"8080" validate:"min=1,max=65535"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"10s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
	} `yaml:"server"`

	ClickHouse struct {
		Host             string        `yaml:"host" default:"localhost"`
		Port             int           `yaml:"port" default:"9000"`
		Database         string        `yaml:"database" default:"swinglab"`
		User             string        `yaml:"user" default:"default"`
		Password         string        `yaml:"password"`
		Table            string        `yaml:"table" default:"daily_bars"`
		DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
		ReadTimeout      time.Duration `yaml:"read_timeout" default:"30s"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"60s"`
	} `yaml:"clickhouse"`

	Sentiment struct {
		Enabled  bool          `yaml:"enabled"`
		BaseURL  string        `yaml:"base_url"`
		Timeout  time.Duration `yaml:"timeout" default:"3s"`
		CacheTTL time.Duration `yaml:"cache_ttl" default:"24h"`
		Redis    struct {
			Enabled  bool   `yaml:"enabled"`
			Addr     string `yaml:"addr" default:"localhost:6379"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
		} `yaml:"redis"`
	} `yaml:"sentiment"`

	Backtest struct {
		StartDate           string  `yaml:"start_date" validate:"required,datetime=2006-01-02"`
		EndDate             string  `yaml:"end_date" validate:"required,datetime=2006-01-02"`
		InitialCapital      float64 `yaml:"initial_capital" default:"10000000" validate:"gt=0"`
		TransactionCostRate float64 `yaml:"transaction_cost_rate" default:"0.003" validate:"gte=0,lt=0.1"`
		LookbackDays        int     `yaml:"lookback_days" default:"50" validate:"min=20"`
		Concurrency         int     `yaml:"concurrency" default:"4" validate:"min=1"`
		RunsDir             string  `yaml:"runs_dir" default:"runs"`
	} `yaml:"backtest"`

	Strategy StrategyConfig `yaml:"strategy"`
}

// StrategyConfig is the selection/exit parameter set. It is the single source
// of truth: components must not hardcode fallback thresholds that diverge
// from it. Immutable for the duration of one run.
type StrategyConfig struct {
	MaxSelections     int     `yaml:"max_selections" default:"5" validate:"min=1"`
	MinCloseDays      int     `yaml:"min_close_days" default:"5" validate:"min=2"`
	MAPeriod          int     `yaml:"ma_period" default:"20" validate:"min=2"`
	MinTradeValue     float64 `yaml:"min_trade_value" default:"1000000000" validate:"gte=0"`
	MinTechnicalScore float64 `yaml:"min_technical_score" default:"0.5" validate:"gte=0,lte=1"`
	ShortlistSize     int     `yaml:"shortlist_size" default:"15" validate:"min=1"`

	StopLossRate        float64 `yaml:"stop_loss_rate" default:"-0.05" validate:"lt=0"`
	MaxHoldingDays      int     `yaml:"max_holding_days" default:"5" validate:"min=1"`
	ExtensionTriggerDay int     `yaml:"extension_trigger_day" default:"3" validate:"min=1"`
	SellSignalThreshold float64 `yaml:"sell_signal_threshold" default:"0.25" validate:"gte=0,lte=1"`
	HoldSignalThreshold float64 `yaml:"hold_signal_threshold" default:"0.75" validate:"gte=0,lte=1"`

	Pyramiding struct {
		Enabled   bool    `yaml:"enabled"`
		MinScore  float64 `yaml:"min_score" default:"0.75" validate:"gte=0.75,lte=1"`
		MaxResets int     `yaml:"max_resets" default:"2" validate:"min=0,max=2"`
	} `yaml:"pyramiding"`

	SafetyCashReserve float64 `yaml:"safety_cash_reserve" default:"2000000" validate:"gte=0"`

	InvestmentAmounts struct {
		Highest float64 `yaml:"highest" default:"1200000" validate:"gt=0"`
		High    float64 `yaml:"high" default:"900000" validate:"gt=0"`
		Medium  float64 `yaml:"medium" default:"600000" validate:"gt=0"`
		Low     float64 `yaml:"low" default:"400000" validate:"gt=0"`
	} `yaml:"investment_amounts"`

	TechnicalScoreWeights map[string]float64 `yaml:"technical_score_weights"`
}

var validate = validator.New()

// Load reads a YAML file, applies defaults, and validates the result.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigError{Reason: "read " + path, Err: err}
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, &ConfigError{Reason: "parse yaml", Err: err}
	}

	if err := defaults.Set(&c); err != nil {
		return nil, &ConfigError{Reason: "apply defaults", Err: err}
	}

	if c.Strategy.TechnicalScoreWeights == nil {
		c.Strategy.TechnicalScoreWeights = DefaultWeights()
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides deploy-sensitive values
// from environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
	}
	if v := os.Getenv("CLICKHOUSE_PASSWORD"); v != "" {
		c.ClickHouse.Password = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Sentiment.Redis.Addr = v
	}
	if v := os.Getenv("SENTIMENT_BASE_URL"); v != "" {
		c.Sentiment.BaseURL = v
	}
	if v := os.Getenv("RUNS_DIR"); v != "" {
		c.Backtest.RunsDir = v
	}

	return c, nil
}

// Validate checks struct tags plus the cross-field rules the tags can't
// express.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return &ConfigError{Reason: "invalid field", Err: err}
	}

	if c.Backtest.StartDate > c.Backtest.EndDate {
		return &ConfigError{Reason: "backtest.start_date is after backtest.end_date"}
	}
	if c.Sentiment.Enabled && c.Sentiment.BaseURL == "" {
		return &ConfigError{Reason: "sentiment.base_url is required when sentiment.enabled"}
	}
	if c.Backtest.LookbackDays < c.Strategy.MAPeriod {
		return &ConfigError{Reason: "backtest.lookback_days must cover strategy.ma_period"}
	}
	if c.Strategy.ExtensionTriggerDay >= c.Strategy.MaxHoldingDays {
		return &ConfigError{Reason: "strategy.extension_trigger_day must precede max_holding_days"}
	}

	return ValidateWeights(c.Strategy.TechnicalScoreWeights)
}

// ValidateWeights checks the technical score weight map: recognized keys
// only, and a sum of exactly 1.0 within floating point tolerance.
func ValidateWeights(w map[string]float64) error {
	known := make(map[string]bool, len(WeightKeys))
	for _, k := range WeightKeys {
		known[k] = true
	}

	sum := 0.0
	for k, v := range w {
		if !known[k] {
			return &ConfigError{Reason: "unknown technical_score_weights key " + k}
		}
		if v < 0 {
			return &ConfigError{Reason: "negative weight for " + k}
		}
		sum += v
	}
	if math.Abs(sum-1.0) > 1e-6 {
		return &ConfigError{Reason: fmt.Sprintf("technical_score_weights must sum to 1.0, got %.6f", sum)}
	}
	return nil
}

// AmountFor maps a confidence tier label to its configured investment amount.
func (s *StrategyConfig) AmountFor(tier string) float64 {
	switch tier {
	case "highest":
		return s.InvestmentAmounts.Highest
	case "high":
		return s.InvestmentAmounts.High
	case "medium":
		return s.InvestmentAmounts.Medium
	default:
		return s.InvestmentAmounts.Low
	}
}
