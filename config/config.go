// Package config loads the service configuration from a YAML file and
// STAY_-prefixed environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"github.com/warp/stay-engine/factory"
)

// Config holds all configuration for the stay service
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Data     DataConfig     `mapstructure:"data"`
	Log      LogConfig      `mapstructure:"log"`
	Defaults DefaultsConfig `mapstructure:"defaults"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	CORSOrigins  []string      `mapstructure:"cors_origins"`
}

// Addr is the listen address.
func (s ServerConfig) Addr() string { return fmt.Sprintf(":%d", s.Port) }

// DatabaseConfig holds SQLite configuration
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// DataConfig points at a resort data document imported on startup.
type DataConfig struct {
	SeedPath string `mapstructure:"seed_path"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// DefaultsConfig are the owner and renter rates used when a quote request
// carries neither a configuration nor a saved profile.
type DefaultsConfig struct {
	MaintenanceRate float64 `mapstructure:"maintenance_rate"`
	PurchasePrice   float64 `mapstructure:"purchase_price"`
	CapitalCostPct  float64 `mapstructure:"capital_cost_pct"`
	SalvageValue    float64 `mapstructure:"salvage_value"`
	UsefulLife      int     `mapstructure:"useful_life"`
	DiscountTier    string  `mapstructure:"discount_tier"`
	RenterRate      float64 `mapstructure:"renter_rate"`
	RenterTier      string  `mapstructure:"renter_discount_tier"`
}

// Settings converts the defaults to a settings document.
func (d DefaultsConfig) Settings() factory.SettingsDoc {
	s := factory.DefaultSettings()
	s.MaintenanceRate = decimal.NewFromFloat(d.MaintenanceRate)
	s.PurchasePrice = decimal.NewFromFloat(d.PurchasePrice)
	s.CapitalCostPct = decimal.NewFromFloat(d.CapitalCostPct)
	s.SalvageValue = decimal.NewFromFloat(d.SalvageValue)
	s.UsefulLife = d.UsefulLife
	s.RenterRate = decimal.NewFromFloat(d.RenterRate)
	if d.DiscountTier != "" {
		s.DiscountTier = d.DiscountTier
	}
	if d.RenterTier != "" {
		s.RenterDiscountTier = d.RenterTier
	}
	return s
}

// Load loads configuration from file and environment variables.
// An empty path loads from the environment only.
func Load(configPath string) (*Config, error) {
	v := newViper()

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &config, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("STAY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

// setDefaults sets default configuration values. Every key needs a default
// so AutomaticEnv can override it during Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("server.cors_origins", []string{"http://localhost:3000", "http://localhost:5173"})
	v.SetDefault("database.path", "stay.db")
	v.SetDefault("data.seed_path", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("defaults.maintenance_rate", 0.55)
	v.SetDefault("defaults.purchase_price", 18.0)
	v.SetDefault("defaults.capital_cost_pct", 5.0)
	v.SetDefault("defaults.salvage_value", 3.0)
	v.SetDefault("defaults.useful_life", 10)
	v.SetDefault("defaults.discount_tier", "")
	v.SetDefault("defaults.renter_rate", 0.50)
	v.SetDefault("defaults.renter_discount_tier", "")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("log.format must be json or console, got %q", c.Log.Format)
	}
	if err := c.Defaults.Settings().Validate(); err != nil {
		return fmt.Errorf("defaults: %w", err)
	}
	return nil
}
