package config

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

type Config struct {
	App       AppConfig
	DB        DBConfig
	JWT       JWTConfig
	Sendgrid  SendgridConfig
	Slack     SlackConfig
	AI        AIConfig
	Billing   BillingConfig
	Reminders RemindersConfig
	Features  Features
}

// Features are the rollout switches for optional surfaces.
type Features struct {
	AuthEnabled      bool `envconfig:"DRAFTDESK_AUTH_ENABLED" default:"true"`
	BillingEnabled   bool `envconfig:"DRAFTDESK_BILLING_ENABLED" default:"false"`
	RemindersEnabled bool `envconfig:"DRAFTDESK_REMINDERS_ENABLED" default:"false"`
}

type AppConfig struct {
	Env       string `envconfig:"DRAFTDESK_APP_ENV" default:"development"`
	Port      string `envconfig:"DRAFTDESK_PORT" default:"8080"`
	LogLevel  string `envconfig:"DRAFTDESK_LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"DRAFTDESK_LOG_FORMAT" default:"json"`
	BaseURL   string `envconfig:"DRAFTDESK_BASE_URL" default:"http://localhost:8080"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev) || strings.EqualFold(a.Env, "dev")
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd) || strings.EqualFold(a.Env, "prod")
}

type DBConfig struct {
	URL             string        `envconfig:"DRAFTDESK_DATABASE_URL" required:"true"`
	MaxOpenConns    int           `envconfig:"DRAFTDESK_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"DRAFTDESK_DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"DRAFTDESK_DB_CONN_MAX_LIFETIME" default:"1h"`
}

type JWTConfig struct {
	Secret          string `envconfig:"DRAFTDESK_JWT_SECRET" required:"true"`
	ExpirationHours int    `envconfig:"DRAFTDESK_JWT_EXPIRATION_HOURS" default:"168"`
	CookieName      string `envconfig:"DRAFTDESK_JWT_COOKIE" default:"draftdesk_jwt"`
}

// TTL returns the token lifetime.
func (j JWTConfig) TTL() time.Duration {
	if j.ExpirationHours <= 0 {
		return 7 * 24 * time.Hour
	}
	return time.Duration(j.ExpirationHours) * time.Hour
}

type SendgridConfig struct {
	APIKey    string `envconfig:"DRAFTDESK_SENDGRID_API_KEY"`
	FromEmail string `envconfig:"DRAFTDESK_SENDGRID_FROM_EMAIL"`
	FromName  string `envconfig:"DRAFTDESK_SENDGRID_FROM_NAME" default:"draftdesk"`
}

// Enabled reports whether outbound email is configured.
func (s SendgridConfig) Enabled() bool {
	return s.APIKey != "" && s.FromEmail != ""
}

type SlackConfig struct {
	WebhookURL string `envconfig:"DRAFTDESK_SLACK_WEBHOOK_URL"`
}

type AIConfig struct {
	BackendURL   string        `envconfig:"DRAFTDESK_AI_BACKEND_URL"`
	APIKey       string        `envconfig:"DRAFTDESK_AI_API_KEY"`
	DefaultModel string        `envconfig:"DRAFTDESK_AI_DEFAULT_MODEL" default:"standard"`
	Timeout      time.Duration `envconfig:"DRAFTDESK_AI_TIMEOUT" default:"30s"`
}

type BillingConfig struct {
	WebhookSecret string `envconfig:"DRAFTDESK_BILLING_WEBHOOK_SECRET"`
}

type RemindersConfig struct {
	Interval   time.Duration `envconfig:"DRAFTDESK_REMINDERS_INTERVAL" default:"1h"`
	DaysBefore []int         `envconfig:"DRAFTDESK_REMINDERS_DAYS_BEFORE" default:"3,1"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.Reminders.Interval <= 0 {
		return nil, fmt.Errorf("reminder interval must be positive, got %s", cfg.Reminders.Interval)
	}
	return &cfg, nil
}

var current atomic.Pointer[Config]

// Set installs cfg as the process configuration.
func Set(cfg *Config) {
	current.Store(cfg)
}

// Current returns the configuration installed with Set, or a zero Config.
func Current() *Config {
	if cfg := current.Load(); cfg != nil {
		return cfg
	}
	return &Config{}
}
