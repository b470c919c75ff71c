// Package config loads and validates the pipeline configuration.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/meenmo/curvekit/curve"
	"github.com/meenmo/curvekit/nelson"
	"github.com/meenmo/curvekit/utils"
)

// Config holds the recognized pipeline options.
type Config struct {
	// CurveModel is "NS" or "NSS".
	CurveModel string `yaml:"curve_model"`
	// LambdaGrid holds candidate decay values for the outer fit search.
	// Empty means the built-in default grid.
	LambdaGrid []float64 `yaml:"lambda_grid"`
	// Interpolation is "log-linear-discount" (default) or "linear-zero-rate".
	Interpolation string `yaml:"interpolation"`
	// Compounding is "annual" (default), "semiannual" or "continuous".
	Compounding string `yaml:"compounding"`
	// DayCount is "ACT/ACT" (default), "30/360" or "ACT/360".
	DayCount string `yaml:"day_count"`
	// HoldingHorizonMonths is the carry/roll-down horizon, default 1.
	HoldingHorizonMonths int `yaml:"holding_horizon_months"`
	// Ridge, when positive, enables ridge regularization in the fit.
	Ridge float64 `yaml:"ridge"`
	// Workers caps concurrent per-date computations, default 4.
	Workers int `yaml:"workers"`

	Log LogConfig `yaml:"log"`
}

// LogConfig configures structured logging output.
type LogConfig struct {
	Level string `yaml:"level"`
	// File enables rotated file output when non-empty; default stderr.
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
}

// Default returns the documented default configuration.
func Default() *Config {
	return &Config{
		CurveModel:           string(nelson.NS),
		Interpolation:        string(curve.LogLinearDiscount),
		Compounding:          string(curve.Annual),
		DayCount:             utils.ActAct,
		HoldingHorizonMonths: 1,
		Workers:              4,
		Log:                  LogConfig{Level: "info"},
	}
}

// Load reads a YAML file over the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("cannot parse YAML: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks option values and fills derived defaults.
func (c *Config) Validate() error {
	switch nelson.Variant(c.CurveModel) {
	case nelson.NS, nelson.NSS:
	default:
		return fmt.Errorf("config: curve_model must be NS or NSS, got %q", c.CurveModel)
	}

	switch curve.Interpolation(c.Interpolation) {
	case curve.LogLinearDiscount, curve.LinearZeroRate:
	default:
		return fmt.Errorf("config: unknown interpolation %q", c.Interpolation)
	}

	switch curve.Compounding(c.Compounding) {
	case curve.Annual, curve.Semiannual, curve.Continuous:
	default:
		return fmt.Errorf("config: unknown compounding %q", c.Compounding)
	}

	switch c.DayCount {
	case utils.ActAct, utils.Thirty360, utils.Act360, utils.Act365F:
	default:
		return fmt.Errorf("config: unknown day_count %q", c.DayCount)
	}

	for _, l := range c.LambdaGrid {
		if l <= 0 {
			return fmt.Errorf("config: lambda_grid entries must be positive, got %v", l)
		}
	}
	if c.HoldingHorizonMonths <= 0 {
		return fmt.Errorf("config: holding_horizon_months must be positive, got %d", c.HoldingHorizonMonths)
	}
	if c.Ridge < 0 {
		return fmt.Errorf("config: ridge must not be negative, got %v", c.Ridge)
	}
	if c.Workers <= 0 {
		c.Workers = 4
	}
	return nil
}

// Variant returns the configured model variant.
func (c *Config) Variant() nelson.Variant {
	return nelson.Variant(c.CurveModel)
}

// CurveCompounding returns the configured compounding convention.
func (c *Config) CurveCompounding() curve.Compounding {
	return curve.Compounding(c.Compounding)
}

// CurveInterpolation returns the configured interpolation rule.
func (c *Config) CurveInterpolation() curve.Interpolation {
	return curve.Interpolation(c.Interpolation)
}
