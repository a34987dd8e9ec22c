package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ConfigurationError is returned when loaded configuration is structurally
// valid YAML but violates a constraint. It never reaches the scheduler.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Registry RegistryConfig `mapstructure:"registry"`
	Sync     SyncConfig     `mapstructure:"sync"`
	Tracing  TracingConfig  `mapstructure:"tracing"`
}

type ServerConfig struct {
	Port    string   `mapstructure:"port"`
	Env     string   `mapstructure:"env"`
	APIKeys []string `mapstructure:"api_keys"`
}

type DatabaseConfig struct {
	DSN string `mapstructure:"dsn" validate:"required"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Enabled  bool   `mapstructure:"enabled"`
}

// RegistryConfig points at the downstream model registry. An empty BaseURL is
// a valid operating mode: providers are still fetched and stored, pushes are
// skipped entirely.
type RegistryConfig struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
}

type SyncConfig struct {
	// IntervalSeconds is the default interval for providers without their
	// own. 0 disables scheduling for providers that inherit it.
	IntervalSeconds int `mapstructure:"interval_seconds"`
	// MinIntervalSeconds is the floor: a non-zero interval below it is
	// rejected at load time, not clamped at runtime.
	MinIntervalSeconds  int     `mapstructure:"min_interval_seconds" validate:"gt=0"`
	Workers             int     `mapstructure:"workers" validate:"gt=0"`
	FetchTimeoutSeconds int     `mapstructure:"fetch_timeout_seconds" validate:"gt=0"`
	PushTimeoutSeconds  int     `mapstructure:"push_timeout_seconds" validate:"gt=0"`
	PushRPS             float64 `mapstructure:"push_rps" validate:"gt=0"`
	PushBurst           int     `mapstructure:"push_burst" validate:"gt=0"`
	// ContextKeys / EmbeddingKeys extend the payload locations searched by
	// the normalizers. Provider schemas keep inventing new key names; new
	// ones go here instead of a rebuild.
	ContextKeys   []string `mapstructure:"context_keys"`
	EmbeddingKeys []string `mapstructure:"embedding_keys"`
}

type TracingConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig() (*Config, error) {
	// Load .env file if present
	_ = godotenv.Load()

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetDefault("server.port", "8080")
	v.SetDefault("server.env", "development")
	v.SetDefault("database.dsn", "file:registry-sync.db?cache=shared&mode=rwc&_journal_mode=WAL&_busy_timeout=5000")
	v.SetDefault("redis.enabled", false)
	v.SetDefault("sync.interval_seconds", 300)
	v.SetDefault("sync.min_interval_seconds", 30)
	v.SetDefault("sync.workers", 4)
	v.SetDefault("sync.fetch_timeout_seconds", 30)
	v.SetDefault("sync.push_timeout_seconds", 30)
	v.SetDefault("sync.push_rps", 10.0)
	v.SetDefault("sync.push_burst", 20)
	v.SetDefault("tracing.enabled", false)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate enforces constraints that struct tags alone cannot express.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return &ConfigurationError{
				Field:  strings.ToLower(verrs[0].Namespace()),
				Reason: fmt.Sprintf("failed '%s' validation", verrs[0].Tag()),
			}
		}
		return err
	}

	if err := c.ValidateInterval(c.Sync.IntervalSeconds); err != nil {
		return err
	}

	return nil
}

// ValidateInterval checks a sync interval against the configured floor.
// 0 is always valid (scheduling disabled).
func (c *Config) ValidateInterval(seconds int) error {
	if seconds != 0 && seconds < c.Sync.MinIntervalSeconds {
		return &ConfigurationError{
			Field:  "sync.interval_seconds",
			Reason: fmt.Sprintf("%d is below the minimum of %d (use 0 to disable)", seconds, c.Sync.MinIntervalSeconds),
		}
	}
	return nil
}
