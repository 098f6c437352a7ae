package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/inzamam-virk/lottery-app/internal/clock"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	Store     StoreConfig
	MongoDB   MongoDBConfig
	Postgres  PostgresConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Trigger   TriggerConfig
	Lottery   LotteryConfig
	Jobs      JobsConfig
	LogLevel  string `validate:"oneof=debug info warn error"`
	LogFormat string `validate:"oneof=text json"`
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port            string `validate:"required,numeric"`
	AllowedHosts    []string
	ShutdownTimeout time.Duration `validate:"gt=0"`
}

// StoreConfig selects the record store backend
type StoreConfig struct {
	Driver string `validate:"oneof=mongodb postgres memory"`
}

// MongoDBConfig holds MongoDB-specific configuration
type MongoDBConfig struct {
	URI      string
	Database string
	Timeout  time.Duration `validate:"gt=0"`
}

// PostgresConfig holds PostgreSQL-specific configuration
type PostgresConfig struct {
	DSN          string
	MaxOpenConns int `validate:"gte=1"`
	MaxIdleConns int `validate:"gte=0"`
}

// RedisConfig holds Redis configuration. An empty Addr disables distributed locking.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int           `validate:"gte=0"`
	LockTTL  time.Duration `validate:"gt=0"`
}

// JWTConfig holds JWT-specific configuration
type JWTConfig struct {
	Secret string
}

// TriggerConfig holds the bcrypt hash of the key external schedulers present
type TriggerConfig struct {
	KeyHash string
}

// LotteryConfig holds the draw and payout rules
type LotteryConfig struct {
	Timezone      string `validate:"required"`
	CutoffMinutes int    `validate:"gte=0,lt=60"`
	WinMultiplier string `validate:"required,numeric"`
	RefundPercent string `validate:"required,numeric"`
	MaxStake      string `validate:"required,numeric"`
	RefundNote    string
}

// JobsConfig holds the built-in scheduler configuration
type JobsConfig struct {
	Interval time.Duration `validate:"gt=0"`
}

// LoadConfig loads configuration from a .env file, an optional config.yaml
// under path and environment variables, in increasing precedence.
func LoadConfig(path string) (*Config, error) {
	// A missing .env file is not an error.
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(path)
	v.AddConfigPath(path + "/config")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the loaded values and the cross-field requirements of the selected store.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	switch c.Store.Driver {
	case "mongodb":
		if c.MongoDB.URI == "" || c.MongoDB.Database == "" {
			return errors.New("invalid configuration: MongoDB.URI and MongoDB.Database are required for the mongodb store")
		}
	case "postgres":
		if c.Postgres.DSN == "" {
			return errors.New("invalid configuration: Postgres.DSN is required for the postgres store")
		}
	}
	if _, err := c.Policy(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// Policy builds the lottery policy from the Lottery section.
func (c *Config) Policy() (*clock.Policy, error) {
	multiplier, err := decimal.NewFromString(c.Lottery.WinMultiplier)
	if err != nil {
		return nil, fmt.Errorf("Lottery.WinMultiplier: %w", err)
	}
	refund, err := decimal.NewFromString(c.Lottery.RefundPercent)
	if err != nil {
		return nil, fmt.Errorf("Lottery.RefundPercent: %w", err)
	}
	if refund.IsNegative() || refund.GreaterThan(decimal.NewFromInt(100)) {
		return nil, fmt.Errorf("Lottery.RefundPercent must be between 0 and 100, got %s", refund)
	}
	maxStake, err := decimal.NewFromString(c.Lottery.MaxStake)
	if err != nil {
		return nil, fmt.Errorf("Lottery.MaxStake: %w", err)
	}
	if !maxStake.IsPositive() {
		return nil, fmt.Errorf("Lottery.MaxStake must be positive, got %s", maxStake)
	}
	return clock.NewPolicy(c.Lottery.Timezone, c.Lottery.CutoffMinutes, multiplier, refund, maxStake)
}

// setDefaults registers every key so that AutomaticEnv can override it.
func setDefaults(v *viper.Viper) {
	v.SetDefault("Server.Port", "4000")
	v.SetDefault("Server.AllowedHosts", []string{"localhost:3000"})
	v.SetDefault("Server.ShutdownTimeout", 10*time.Second)
	v.SetDefault("Store.Driver", "mongodb")
	v.SetDefault("MongoDB.URI", "mongodb://localhost:27017/?replicaSet=rs0")
	v.SetDefault("MongoDB.Database", "lottery")
	v.SetDefault("MongoDB.Timeout", 10*time.Second)
	v.SetDefault("Postgres.DSN", "")
	v.SetDefault("Postgres.MaxOpenConns", 10)
	v.SetDefault("Postgres.MaxIdleConns", 5)
	v.SetDefault("Redis.Addr", "")
	v.SetDefault("Redis.Password", "")
	v.SetDefault("Redis.DB", 0)
	v.SetDefault("Redis.LockTTL", 5*time.Minute)
	v.SetDefault("JWT.Secret", "")
	v.SetDefault("Trigger.KeyHash", "")
	v.SetDefault("Lottery.Timezone", "Asia/Karachi")
	v.SetDefault("Lottery.CutoffMinutes", 15)
	v.SetDefault("Lottery.WinMultiplier", "900")
	v.SetDefault("Lottery.RefundPercent", "20")
	v.SetDefault("Lottery.MaxStake", "100000")
	v.SetDefault("Lottery.RefundNote", "")
	v.SetDefault("Jobs.Interval", time.Minute)
	v.SetDefault("LogLevel", "info")
	v.SetDefault("LogFormat", "text")
}
