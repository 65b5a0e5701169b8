package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig
	Woot     WootConfig
	Keywords []string `mapstructure:"keywords"`
	Store    StoreConfig
	Mail     MailConfig
	Fetch    FetchConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// WootConfig holds Woot affiliate API configuration
type WootConfig struct {
	APIKey   string `mapstructure:"api_key"`
	BaseURL  string `mapstructure:"base_url"`
	Category string `mapstructure:"category"`
}

// StoreConfig holds seen-set persistence configuration
type StoreConfig struct {
	Type        string `mapstructure:"type"` // "file", "redis" or "postgres"
	Path        string `mapstructure:"path"`
	RedisURL    string `mapstructure:"redis_url"`
	RedisKey    string `mapstructure:"redis_key"`
	PostgresDSN string `mapstructure:"postgres_dsn"`
}

// MailConfig holds SMTP notification configuration
type MailConfig struct {
	Host      string `mapstructure:"host"`
	Port      int    `mapstructure:"port"`
	Username  string `mapstructure:"username"`
	Password  string `mapstructure:"password"`
	Recipient string `mapstructure:"recipient"`
	DryRun    bool   `mapstructure:"dry_run"`
}

// FetchConfig holds detail-fetch batching and retry configuration
type FetchConfig struct {
	BatchSize      int           `mapstructure:"batch_size"`
	MaxRetries     int           `mapstructure:"max_retries"`
	InitialBackoff time.Duration `mapstructure:"initial_backoff"`
	MaxBackoff     time.Duration `mapstructure:"max_backoff"`
	BatchDelay     time.Duration `mapstructure:"batch_delay"`
	RequestsPerSec float64       `mapstructure:"requests_per_sec"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/dealradar/")

	// Environment variable settings
	v.SetEnvPrefix("DEALRADAR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set default values
	setDefaults(v)

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; using environment variables and defaults
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Validate configuration
	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"*"})

	// Woot defaults. The empty api_key default registers the key so the
	// environment variable binds; validation rejects the empty value.
	v.SetDefault("woot.api_key", "")
	v.SetDefault("woot.base_url", "https://developer.woot.com/Affiliates")
	v.SetDefault("woot.category", "Electronics")

	// Keyword defaults match the alert this service was built for
	v.SetDefault("keywords", []string{
		"kindle", "ereader", "e-reader", "e-ink", "kobo", "nook", "eink",
	})

	// Store defaults
	v.SetDefault("store.type", "file")
	v.SetDefault("store.path", "seen_deals.json")
	v.SetDefault("store.redis_url", "")
	v.SetDefault("store.redis_key", "dealradar:seen")
	v.SetDefault("store.postgres_dsn", "")

	// Mail defaults
	v.SetDefault("mail.host", "smtp.gmail.com")
	v.SetDefault("mail.port", 465)
	v.SetDefault("mail.username", "")
	v.SetDefault("mail.password", "")
	v.SetDefault("mail.recipient", "")
	v.SetDefault("mail.dry_run", false)

	// Fetch defaults: the getoffers endpoint caps a request at 25 ids, and
	// its rate limiter is undocumented, so stay under both.
	v.SetDefault("fetch.batch_size", 20)
	v.SetDefault("fetch.max_retries", 5)
	v.SetDefault("fetch.initial_backoff", "1s")
	v.SetDefault("fetch.max_backoff", "30s")
	v.SetDefault("fetch.batch_delay", "2s")
	v.SetDefault("fetch.requests_per_sec", 1.0)
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Woot.APIKey == "" {
		return fmt.Errorf("Woot API key is required (set DEALRADAR_WOOT_API_KEY)")
	}

	if len(config.Keywords) == 0 {
		return fmt.Errorf("at least one keyword is required")
	}

	switch config.Store.Type {
	case "file":
		if config.Store.Path == "" {
			return fmt.Errorf("store path is required when store type is 'file'")
		}
	case "redis":
		if config.Store.RedisURL == "" {
			return fmt.Errorf("Redis URL is required when store type is 'redis'")
		}
	case "postgres":
		if config.Store.PostgresDSN == "" {
			return fmt.Errorf("Postgres DSN is required when store type is 'postgres'")
		}
	default:
		return fmt.Errorf("store type must be 'file', 'redis' or 'postgres', got: %s", config.Store.Type)
	}

	if !config.Mail.DryRun {
		if config.Mail.Username == "" || config.Mail.Password == "" {
			return fmt.Errorf("mail credentials are required (set DEALRADAR_MAIL_USERNAME and DEALRADAR_MAIL_PASSWORD)")
		}
		if config.Mail.Recipient == "" {
			return fmt.Errorf("mail recipient is required (set DEALRADAR_MAIL_RECIPIENT)")
		}
	}

	if config.Fetch.BatchSize < 1 || config.Fetch.BatchSize > 25 {
		return fmt.Errorf("fetch batch size must be between 1 and 25, got: %d", config.Fetch.BatchSize)
	}
	if config.Fetch.MaxRetries < 1 {
		return fmt.Errorf("fetch max retries must be at least 1, got: %d", config.Fetch.MaxRetries)
	}

	return nil
}
