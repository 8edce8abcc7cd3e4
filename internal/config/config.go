package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the complete RPI configuration loaded from one YAML file.
type Config struct {
	Data      DataConfig      `yaml:"data"`
	Features  FeaturesConfig  `yaml:"features"`
	Training  TrainingConfig  `yaml:"training"`
	Pricing   PricingConfig   `yaml:"pricing"`
	Validator ValidatorConfig `yaml:"validator"`
	Server    ServerConfig    `yaml:"server"`
}

// DataConfig points at the external collaborator outputs the core consumes.
type DataConfig struct {
	TransactionsCSV string `yaml:"transactions_csv"` // pre-exported contract snapshot
	PostgresDSN     string `yaml:"postgres_dsn"`     // alternative live source
	CalendarCSV     string `yaml:"calendar_csv"`     // holiday/event feature table
	CompetitorJSON  string `yaml:"competitor_json"`  // scraped competitor price index
	ArtifactDir     string `yaml:"artifact_dir"`     // trained model artifacts
	ReportDir       string `yaml:"report_dir"`       // validation reports, feature dumps
}

// FeaturesConfig controls the feature builder.
type FeaturesConfig struct {
	MaxDailyRate   float64 `yaml:"max_daily_rate"`   // outlier ceiling, default 10000
	MinHistoryDays int     `yaml:"min_history_days"` // rows with shorter series history are dropped, default 30
	DensifyGaps    bool    `yaml:"densify_gaps"`     // synthesize zero-booking days inside each series span
}

// StageParams are the tree-ensemble hyperparameters for one stage.
type StageParams struct {
	NumTrees            int     `yaml:"num_trees"`
	MaxDepth            int     `yaml:"max_depth"`
	LearningRate        float64 `yaml:"learning_rate"`
	MinChildWeight      float64 `yaml:"min_child_weight"`
	Subsample           float64 `yaml:"subsample"`
	ColSampleByTree     float64 `yaml:"colsample_bytree"`
	Alpha               float64 `yaml:"reg_alpha"`
	Lambda              float64 `yaml:"reg_lambda"`
	Seed                int64   `yaml:"seed"`
	EarlyStoppingRounds int     `yaml:"early_stopping_rounds"`
}

// TrainingConfig controls the two-stage training harness.
type TrainingConfig struct {
	TrainFraction float64     `yaml:"train_fraction"` // default 0.70
	ValFraction   float64     `yaml:"val_fraction"`   // default 0.15
	Baseline      StageParams `yaml:"baseline"`
	Elasticity    StageParams `yaml:"elasticity"`
}

// PricingConfig bounds the hybrid combiner.
type PricingConfig struct {
	ClampLow              float64 `yaml:"clamp_low"`               // elasticity factor floor, default 0.5
	ClampHigh             float64 `yaml:"clamp_high"`              // elasticity factor ceiling, default 2.0
	ConditionalClampLow   float64 `yaml:"conditional_clamp_low"`   // clamp under a CONDITIONAL validation verdict, default 0.7
	ConditionalClampHigh  float64 `yaml:"conditional_clamp_high"`  // default 1.3
	DefaultReferencePrice float64 `yaml:"default_reference_price"` // fallback when a series has no price history, default 300
	OptimizerSamples      int     `yaml:"optimizer_samples"`       // default grid resolution, default 10
}

// ValidatorConfig tunes the elasticity validation gate.
type ValidatorConfig struct {
	Alpha          float64 `yaml:"alpha"`            // significance level, default 0.05
	MinSampleRows  int     `yaml:"min_sample_rows"`  // minimum rows for the log-log regression, default 100
	SegmentMinDays int     `yaml:"segment_min_days"` // minimum rows for a per-branch regression, default 30
	TopBranches    int     `yaml:"top_branches"`     // segment report size, default 5
}

// ServerConfig holds the read-only HTTP API settings.
type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"`
}

// Default returns the configuration used when no file is supplied.
func Default() *Config {
	return &Config{
		Data: DataConfig{
			TransactionsCSV: "data/processed/transactions.csv",
			CalendarCSV:     "data/external/calendar_features.csv",
			CompetitorJSON:  "data/competitor_prices/daily_competitor_prices.json",
			ArtifactDir:     "models",
			ReportDir:       "out/reports",
		},
		Features: FeaturesConfig{
			MaxDailyRate:   10000,
			MinHistoryDays: 30,
			DensifyGaps:    true,
		},
		Training: TrainingConfig{
			TrainFraction: 0.70,
			ValFraction:   0.15,
			Baseline:      defaultStageParams(),
			Elasticity:    defaultStageParams(),
		},
		Pricing: PricingConfig{
			ClampLow:              0.5,
			ClampHigh:             2.0,
			ConditionalClampLow:   0.7,
			ConditionalClampHigh:  1.3,
			DefaultReferencePrice: 300,
			OptimizerSamples:      10,
		},
		Validator: ValidatorConfig{
			Alpha:          0.05,
			MinSampleRows:  100,
			SegmentMinDays: 30,
			TopBranches:    5,
		},
		Server: ServerConfig{
			Host:         "127.0.0.1",
			Port:         8080,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}
}

func defaultStageParams() StageParams {
	return StageParams{
		NumTrees:            300,
		MaxDepth:            5,
		LearningRate:        0.1,
		MinChildWeight:      3,
		Subsample:           0.9,
		ColSampleByTree:     0.8,
		Alpha:               0.1,
		Lambda:              1.5,
		Seed:                42,
		EarlyStoppingRounds: 20,
	}
}

// Load reads a YAML config file, applies it over the defaults, and validates.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Validate ensures the configuration is internally consistent.
func (c *Config) Validate() error {
	if c.Features.MaxDailyRate <= 0 {
		return fmt.Errorf("features max_daily_rate must be positive, got %f", c.Features.MaxDailyRate)
	}
	if c.Features.MinHistoryDays < 0 {
		return fmt.Errorf("features min_history_days must be non-negative, got %d", c.Features.MinHistoryDays)
	}

	tf, vf := c.Training.TrainFraction, c.Training.ValFraction
	if tf <= 0 || vf <= 0 || tf+vf >= 1 {
		return fmt.Errorf("training fractions must satisfy 0 < train, 0 < val, train+val < 1, got %f/%f", tf, vf)
	}
	for stage, p := range map[string]StageParams{"baseline": c.Training.Baseline, "elasticity": c.Training.Elasticity} {
		if p.NumTrees <= 0 {
			return fmt.Errorf("%s num_trees must be positive, got %d", stage, p.NumTrees)
		}
		if p.MaxDepth <= 0 {
			return fmt.Errorf("%s max_depth must be positive, got %d", stage, p.MaxDepth)
		}
		if p.LearningRate <= 0 || p.LearningRate > 1 {
			return fmt.Errorf("%s learning_rate must be in (0, 1], got %f", stage, p.LearningRate)
		}
		if p.Subsample <= 0 || p.Subsample > 1 {
			return fmt.Errorf("%s subsample must be in (0, 1], got %f", stage, p.Subsample)
		}
		if p.ColSampleByTree <= 0 || p.ColSampleByTree > 1 {
			return fmt.Errorf("%s colsample_bytree must be in (0, 1], got %f", stage, p.ColSampleByTree)
		}
	}

	if c.Pricing.ClampLow <= 0 || c.Pricing.ClampHigh < c.Pricing.ClampLow {
		return fmt.Errorf("pricing clamp must satisfy 0 < low <= high, got [%f, %f]", c.Pricing.ClampLow, c.Pricing.ClampHigh)
	}
	if c.Pricing.ConditionalClampLow <= 0 || c.Pricing.ConditionalClampHigh < c.Pricing.ConditionalClampLow {
		return fmt.Errorf("pricing conditional clamp must satisfy 0 < low <= high, got [%f, %f]",
			c.Pricing.ConditionalClampLow, c.Pricing.ConditionalClampHigh)
	}
	if c.Pricing.OptimizerSamples < 2 {
		return fmt.Errorf("pricing optimizer_samples must be at least 2, got %d", c.Pricing.OptimizerSamples)
	}

	if c.Validator.Alpha <= 0 || c.Validator.Alpha >= 1 {
		return fmt.Errorf("validator alpha must be in (0, 1), got %f", c.Validator.Alpha)
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server port must be in (0, 65535], got %d", c.Server.Port)
	}
	return nil
}
