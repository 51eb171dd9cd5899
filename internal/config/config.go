// Package config provides configuration management for the risk aggregator.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	apperrors "riskledger/internal/errors"
)

// Config holds all application configuration. It is loaded once at
// startup and passed explicitly to the components that need it.
type Config struct {
	Data      DataConfig      `mapstructure:"data"`
	Execution ExecutionConfig `mapstructure:"execution"`
	Strategy  StrategyConfig  `mapstructure:"strategy"`
	Risk      RiskConfig      `mapstructure:"risk"`
}

// DataConfig holds data acquisition and output paths.
type DataConfig struct {
	CacheDir       string `mapstructure:"cache_dir"`
	OutDir         string `mapstructure:"out_dir"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// ExecutionConfig holds simulated execution costs and funding.
type ExecutionConfig struct {
	InitialCash float64 `mapstructure:"initial_cash"`
	SlippageBps float64 `mapstructure:"slippage_bps"`
	Commission  float64 `mapstructure:"commission"`
}

// StrategyConfig holds the crossover strategy parameters.
type StrategyConfig struct {
	Fast      int `mapstructure:"fast"`
	Slow      int `mapstructure:"slow"`
	TradeSize int `mapstructure:"trade_size"`
}

// RiskConfig holds risk limits and VaR parameters.
type RiskConfig struct {
	MaxGrossExposure float64 `mapstructure:"max_gross_exposure"`
	MaxDrawdown      float64 `mapstructure:"max_drawdown"`
	MaxVaR           float64 `mapstructure:"max_var"`
	VaRWindow        int     `mapstructure:"var_window"`
	VaRAlpha         float64 `mapstructure:"var_alpha"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/riskledger"
	}
	return filepath.Join(home, ".config", "riskledger")
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Data: DataConfig{
			CacheDir:       "data",
			OutDir:         "outputs",
			TimeoutSeconds: 20,
		},
		Execution: ExecutionConfig{
			InitialCash: 100_000,
			SlippageBps: 2.0,
			Commission:  1.0,
		},
		Strategy: StrategyConfig{
			Fast:      20,
			Slow:      100,
			TradeSize: 25,
		},
		Risk: RiskConfig{
			MaxGrossExposure: 200_000,
			MaxDrawdown:      0.20,
			MaxVaR:           2_500,
			VaRWindow:        250,
			VaRAlpha:         0.99,
		},
	}
}

// Load loads configuration from config.toml in the specified directory,
// falling back to defaults for anything unset. If configDir is empty it
// uses the default config directory; a missing file is created from a
// template so the defaults are discoverable.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("loading config.toml: %w", err)
		}
		if err := writeTemplate(configDir); err != nil {
			return nil, fmt.Errorf("creating config template: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config.toml: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	def := Default()
	v.SetDefault("data.cache_dir", def.Data.CacheDir)
	v.SetDefault("data.out_dir", def.Data.OutDir)
	v.SetDefault("data.timeout_seconds", def.Data.TimeoutSeconds)
	v.SetDefault("execution.initial_cash", def.Execution.InitialCash)
	v.SetDefault("execution.slippage_bps", def.Execution.SlippageBps)
	v.SetDefault("execution.commission", def.Execution.Commission)
	v.SetDefault("strategy.fast", def.Strategy.Fast)
	v.SetDefault("strategy.slow", def.Strategy.Slow)
	v.SetDefault("strategy.trade_size", def.Strategy.TradeSize)
	v.SetDefault("risk.max_gross_exposure", def.Risk.MaxGrossExposure)
	v.SetDefault("risk.max_drawdown", def.Risk.MaxDrawdown)
	v.SetDefault("risk.max_var", def.Risk.MaxVaR)
	v.SetDefault("risk.var_window", def.Risk.VaRWindow)
	v.SetDefault("risk.var_alpha", def.Risk.VaRAlpha)
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("RISKLEDGER_CACHE_DIR"); v != "" {
		cfg.Data.CacheDir = v
	}
	if v := os.Getenv("RISKLEDGER_OUT_DIR"); v != "" {
		cfg.Data.OutDir = v
	}
}

// Validate checks the configuration for values no run could accept.
func (c *Config) Validate() error {
	if c.Execution.InitialCash <= 0 {
		return apperrors.NewConfigError("execution.initial_cash", "must be positive")
	}
	if c.Execution.SlippageBps < 0 {
		return apperrors.NewConfigError("execution.slippage_bps", "must not be negative")
	}
	if c.Execution.Commission < 0 {
		return apperrors.NewConfigError("execution.commission", "must not be negative")
	}
	if c.Strategy.Fast <= 0 || c.Strategy.Slow <= 0 {
		return apperrors.NewConfigError("strategy", "fast and slow windows must be positive")
	}
	if c.Strategy.Fast >= c.Strategy.Slow {
		return apperrors.NewConfigError("strategy", "fast window must be shorter than slow window")
	}
	if c.Strategy.TradeSize <= 0 {
		return apperrors.NewConfigError("strategy.trade_size", "must be positive")
	}
	if c.Risk.VaRWindow < 20 {
		return apperrors.NewConfigError("risk.var_window", "window too small; use >= 20")
	}
	if c.Risk.VaRAlpha <= 0 || c.Risk.VaRAlpha >= 1 {
		return apperrors.NewConfigError("risk.var_alpha", "alpha must be in (0, 1)")
	}
	if c.Risk.MaxDrawdown < 0 || c.Risk.MaxDrawdown >= 1 {
		return apperrors.NewConfigError("risk.max_drawdown", "must be a fraction in [0, 1)")
	}
	if c.Risk.MaxGrossExposure <= 0 {
		return apperrors.NewConfigError("risk.max_gross_exposure", "must be positive")
	}
	if c.Risk.MaxVaR <= 0 {
		return apperrors.NewConfigError("risk.max_var", "must be positive")
	}
	return nil
}
