package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/invora/invora/internal/types"
	"github.com/spf13/viper"
)

type Configuration struct {
	Deployment DeploymentConfig `validate:"required"`
	Server     ServerConfig     `validate:"required"`
	Logging    LoggingConfig    `validate:"required"`
	Postgres   PostgresConfig   `validate:"required"`
	Auth       AuthConfig       `validate:"required"`
	Stripe     StripeConfig
	Webhook    WebhookConfig
	Sync       SyncConfig
	PDF        PDFConfig
	Cache      CacheConfig
}

type DeploymentConfig struct {
	Mode types.RunMode `mapstructure:"mode" validate:"required"`
}

type ServerConfig struct {
	Address string `mapstructure:"address" validate:"required"`
}

type LoggingConfig struct {
	Level types.LogLevel `mapstructure:"level" validate:"required"`
}

type PostgresConfig struct {
	Host                   string `mapstructure:"host"`
	Port                   int    `mapstructure:"port"`
	User                   string `mapstructure:"user"`
	Password               string `mapstructure:"password"`
	DBName                 string `mapstructure:"dbname"`
	SSLMode                string `mapstructure:"sslmode"`
	MaxOpenConns           int    `mapstructure:"max_open_conns"`
	MaxIdleConns           int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `mapstructure:"conn_max_lifetime_minutes"`
}

type AuthConfig struct {
	// Secret signs and verifies API-issued JWTs
	Secret string       `mapstructure:"secret" validate:"required"`
	APIKey APIKeyConfig `mapstructure:"api_key"`
}

type APIKeyConfig struct {
	Header string                  `mapstructure:"header"`
	Keys   map[string]APIKeyDetail `mapstructure:"keys"`
}

// APIKeyDetail maps a hashed API key to its tenant and user
type APIKeyDetail struct {
	TenantID string `mapstructure:"tenant_id"`
	UserID   string `mapstructure:"user_id"`
	IsActive bool   `mapstructure:"is_active"`
}

type StripeConfig struct {
	SecretKey     string `mapstructure:"secret_key"`
	WebhookSecret string `mapstructure:"webhook_secret"`
}

// WebhookConfig configures outbound webhook delivery per tenant
type WebhookConfig struct {
	Enabled bool                           `mapstructure:"enabled"`
	Topic   string                         `mapstructure:"topic"`
	Tenants map[string]TenantWebhookConfig `mapstructure:"tenants"`

	MaxRetries      int           `mapstructure:"max_retries"`
	InitialInterval time.Duration `mapstructure:"initial_interval"`
	MaxInterval     time.Duration `mapstructure:"max_interval"`
	MaxElapsedTime  time.Duration `mapstructure:"max_elapsed_time"`
	Multiplier      float64       `mapstructure:"multiplier"`
}

// TenantWebhookConfig represents webhook configuration for a specific tenant
type TenantWebhookConfig struct {
	Endpoint       string            `mapstructure:"endpoint"`
	Headers        map[string]string `mapstructure:"headers"`
	Enabled        bool              `mapstructure:"enabled"`
	ExcludedEvents []string          `mapstructure:"excluded_events"`
}

// SyncConfig tunes the offline replay worker
type SyncConfig struct {
	// PollInterval is how often the worker scans for pending operations
	PollInterval time.Duration `mapstructure:"poll_interval"`
	// MaxAttempts before a transiently failing operation is marked failed
	MaxAttempts     int           `mapstructure:"max_attempts"`
	InitialInterval time.Duration `mapstructure:"initial_interval"`
	MaxInterval     time.Duration `mapstructure:"max_interval"`
	// BatchSize caps operations drained per device per cycle
	BatchSize int `mapstructure:"batch_size"`
}

type CacheConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

type PDFConfig struct {
	TypstBinary string `mapstructure:"typst_binary"`
	TemplateDir string `mapstructure:"template_dir"`
	FontDir     string `mapstructure:"font_dir"`
	OutputDir   string `mapstructure:"output_dir"`
}

func NewConfig() (*Configuration, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./internal/config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/invora")

	v.SetEnvPrefix("INVORA")
	v.SetEnvKeyReplacer(strings.NewReplacer(
		".", "_",
		"-", "_",
	))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("Error reading config file: %v\n", err)
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, err
		}
	}

	var config Configuration
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// setDefaults registers fallbacks for settings a config file will
// usually omit
func setDefaults(v *viper.Viper) {
	v.SetDefault("postgres.max_open_conns", 10)
	v.SetDefault("postgres.max_idle_conns", 5)
	v.SetDefault("postgres.conn_max_lifetime_minutes", 60)

	v.SetDefault("auth.api_key.header", "x-api-key")

	v.SetDefault("webhook.topic", "webhook_events")
	v.SetDefault("webhook.max_retries", 3)
	v.SetDefault("webhook.initial_interval", time.Second)
	v.SetDefault("webhook.max_interval", 10*time.Second)
	v.SetDefault("webhook.max_elapsed_time", 2*time.Minute)
	v.SetDefault("webhook.multiplier", 2.0)

	v.SetDefault("sync.poll_interval", 5*time.Second)
	v.SetDefault("sync.max_attempts", 5)
	v.SetDefault("sync.initial_interval", 500*time.Millisecond)
	v.SetDefault("sync.max_interval", 30*time.Second)
	v.SetDefault("sync.batch_size", 100)

	v.SetDefault("cache.enabled", true)

	v.SetDefault("pdf.typst_binary", "typst")
	v.SetDefault("pdf.template_dir", "assets/typst-templates")
	v.SetDefault("pdf.output_dir", "/tmp/invora-pdf")
}

func (c Configuration) Validate() error {
	validate := validator.New()
	return validate.Struct(c)
}

// GetDefaultConfig returns a default configuration for local development
// This is useful for running scripts or other non-web applications
func GetDefaultConfig() *Configuration {
	return &Configuration{
		Deployment: DeploymentConfig{Mode: types.ModeLocal},
		Logging:    LoggingConfig{Level: types.LogLevelDebug},
		Cache:      CacheConfig{Enabled: true},
		Sync: SyncConfig{
			PollInterval:    5 * time.Second,
			MaxAttempts:     5,
			InitialInterval: 500 * time.Millisecond,
			MaxInterval:     30 * time.Second,
			BatchSize:       100,
		},
	}
}

func (c PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"user=%s password=%s dbname=%s host=%s port=%d sslmode=%s",
		c.User,
		c.Password,
		c.DBName,
		c.Host,
		c.Port,
		c.SSLMode,
	)
}
