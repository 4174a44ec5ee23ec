package config

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/kapatiran/lending-engine/pkg/utils"
)

// Config holds all configuration for our application
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Business  BusinessConfig  `mapstructure:"business"`
}

type ServerConfig struct {
	Port string `mapstructure:"SERVER_PORT"`
	Host string `mapstructure:"SERVER_HOST"`
	Env  string `mapstructure:"ENV"`
}

type DatabaseConfig struct {
	URL string `mapstructure:"DATABASE_URL"`
}

type RedisConfig struct {
	Host     string `mapstructure:"REDIS_HOST"`
	Port     string `mapstructure:"REDIS_PORT"`
	Password string `mapstructure:"REDIS_PASSWORD"`
	DB       int    `mapstructure:"REDIS_DB"`
}

type SchedulerConfig struct {
	OverdueCron string `mapstructure:"SCHEDULER_OVERDUE_CRON"`
	Timezone    string `mapstructure:"SCHEDULER_TIMEZONE"`
}

type BusinessConfig struct {
	PenaltyRate       string `mapstructure:"PENALTY_RATE"`
	DefaultWeeklyRate string `mapstructure:"DEFAULT_WEEKLY_RATE"`
	ReconcileLockTTL  string `mapstructure:"RECONCILE_LOCK_TTL"`
}

// Load reads configuration from environment variables and files
func Load() (*Config, error) {
	// Set defaults
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("SERVER_HOST", "0.0.0.0")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("REDIS_HOST", "localhost")
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("SCHEDULER_OVERDUE_CRON", "0 0 0 * * *")
	viper.SetDefault("SCHEDULER_TIMEZONE", "Asia/Manila")
	viper.SetDefault("PENALTY_RATE", "0.05")
	viper.SetDefault("DEFAULT_WEEKLY_RATE", "0.005")
	viper.SetDefault("RECONCILE_LOCK_TTL", "2m")

	// Read from environment variables
	viper.AutomaticEnv()

	// Try to read from .env file (optional)
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./deployments")

	// Don't fail if .env file doesn't exist
	_ = viper.ReadInConfig()

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("SERVER_PORT is required")
	}

	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	rate, err := utils.DecimalFromString(c.Business.PenaltyRate)
	if err != nil {
		return fmt.Errorf("PENALTY_RATE must be a valid decimal: %w", err)
	}
	if rate.IsNegative() || rate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return fmt.Errorf("PENALTY_RATE must be in [0,1)")
	}

	if _, err := utils.DecimalFromString(c.Business.DefaultWeeklyRate); err != nil {
		return fmt.Errorf("DEFAULT_WEEKLY_RATE must be a valid decimal: %w", err)
	}

	if _, err := time.ParseDuration(c.Business.ReconcileLockTTL); err != nil {
		return fmt.Errorf("RECONCILE_LOCK_TTL must be a valid duration: %w", err)
	}

	return nil
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development" || c.Server.Env == "dev"
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production" || c.Server.Env == "prod"
}

// GetPenaltyRate returns the overdue penalty rate as decimal
func (c *Config) GetPenaltyRate() decimal.Decimal {
	rate, _ := utils.DecimalFromString(c.Business.PenaltyRate)
	return rate
}

// GetDefaultWeeklyRate returns the ad hoc weekly interest rate as decimal
func (c *Config) GetDefaultWeeklyRate() decimal.Decimal {
	rate, _ := utils.DecimalFromString(c.Business.DefaultWeeklyRate)
	return rate
}

// GetReconcileLockTTL returns the per-center collection lock TTL
func (c *Config) GetReconcileLockTTL() time.Duration {
	ttl, _ := time.ParseDuration(c.Business.ReconcileLockTTL)
	return ttl
}
