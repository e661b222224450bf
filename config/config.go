// Package config loads the daemon's TOML configuration.
package config

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config captures the runtime settings for microlendd.
type Config struct {
	ListenAddress string `toml:"ListenAddress"`
	// DataDir is the LevelDB directory; empty selects the in-memory store.
	DataDir         string `toml:"DataDir"`
	Environment     string `toml:"Environment"`
	TreasuryAccount string `toml:"TreasuryAccount"`
	RateLimitPerMin int    `toml:"RateLimitPerMin"`

	Platform PlatformConfig `toml:"platform"`
}

// PlatformConfig seeds the platform account on first start. Amounts are
// decimal strings in the asset's smallest unit.
type PlatformConfig struct {
	FeeBps        uint64   `toml:"FeeBps"`
	MinLoanAmount *big.Int `toml:"MinLoanAmount"`
	MaxLoanAmount *big.Int `toml:"MaxLoanAmount"`
}

const (
	defaultListenAddress   = "0.0.0.0:8647"
	defaultRateLimitPerMin = 120
)

// Load reads and validates the TOML configuration at path. A missing path
// yields the defaults.
func Load(path string) (Config, error) {
	cfg := Config{
		ListenAddress:   defaultListenAddress,
		RateLimitPerMin: defaultRateLimitPerMin,
	}
	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: decode %s: %w", path, err)
		}
	}
	cfg.normalize()
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) normalize() {
	c.ListenAddress = strings.TrimSpace(c.ListenAddress)
	c.DataDir = strings.TrimSpace(c.DataDir)
	c.Environment = strings.TrimSpace(c.Environment)
	c.TreasuryAccount = strings.TrimSpace(c.TreasuryAccount)
	if c.ListenAddress == "" {
		c.ListenAddress = defaultListenAddress
	}
	if c.TreasuryAccount == "" {
		c.TreasuryAccount = "treasury"
	}
	if c.RateLimitPerMin <= 0 {
		c.RateLimitPerMin = defaultRateLimitPerMin
	}
}

func (c Config) validate() error {
	if c.Platform.FeeBps > 1_000 {
		return fmt.Errorf("config: platform FeeBps %d exceeds 1000", c.Platform.FeeBps)
	}
	min, max := c.Platform.MinLoanAmount, c.Platform.MaxLoanAmount
	if (min == nil) != (max == nil) {
		return fmt.Errorf("config: platform loan bounds must be set together")
	}
	if min != nil {
		if min.Sign() <= 0 {
			return fmt.Errorf("config: platform MinLoanAmount must be positive")
		}
		if max.Cmp(min) <= 0 {
			return fmt.Errorf("config: platform MaxLoanAmount must exceed MinLoanAmount")
		}
	}
	return nil
}

// SeedsPlatform reports whether the config carries platform bounds to seed on
// first start.
func (c Config) SeedsPlatform() bool {
	return c.Platform.MinLoanAmount != nil && c.Platform.MaxLoanAmount != nil
}
