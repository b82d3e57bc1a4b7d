package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config aggregates every setting of the outreach backend.
type Config struct {
	Server    ServerConfig
	Webhook   WebhookConfig
	Store     StoreConfig
	Survey    SurveyConfig
	Telemetry TelemetryConfig
	Feed      FeedConfig
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Port string `env:"PORT" envDefault:"8080"`
	Addr string `env:"-"`
}

// WebhookConfig holds the pre-shared secret of the mail service. An empty
// secret is allowed at startup; the receiver then rejects every delivery.
type WebhookConfig struct {
	Secret string `env:"EMAIL_WEBHOOK_SECRET"`
}

// StoreConfig points at the external contact store.
type StoreConfig struct {
	BaseURL     string        `env:"CONTACT_STORE_BASE_URL" envDefault:"https://api.notion.com/v1"`
	APIKey      string        `env:"CONTACT_STORE_API_KEY"`
	Version     string        `env:"CONTACT_STORE_VERSION" envDefault:"2022-06-28"`
	SubjectsDB  string        `env:"CONTACT_STORE_SUBJECTS_DB"`
	ResponsesDB string        `env:"CONTACT_STORE_RESPONSES_DB"`
	Timeout     time.Duration `env:"CONTACT_STORE_TIMEOUT" envDefault:"5s"`
}

// Enabled reports whether credentials and the subjects database are set.
func (c StoreConfig) Enabled() bool {
	return c.APIKey != "" && c.SubjectsDB != ""
}

// SurveyConfig controls the session exchange and the success redirect.
type SurveyConfig struct {
	ConsentVersion string        `env:"SURVEY_CONSENT_VERSION"`
	SuccessURL     string        `env:"SURVEY_SUCCESS_URL" envDefault:"http://localhost:3000/thank-you"`
	SessionTTL     time.Duration `env:"SURVEY_SESSION_TTL" envDefault:"24h"`
}

// FeedConfig guards the operator engagement feed. The feed stays off until
// a token is set.
type FeedConfig struct {
	Token          string   `env:"FEED_TOKEN"`
	AllowedOrigins []string `env:"FEED_ALLOWED_ORIGINS" envSeparator:","`
}

// TelemetryConfig toggles OTLP tracing.
type TelemetryConfig struct {
	Endpoint string `env:"OUTREACH_OTEL_ENDPOINT"`
	Enabled  bool   `env:"OUTREACH_OTEL_ENABLED" envDefault:"true"`
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	addr, err := listenAddr(cfg.Server.Port)
	if err != nil {
		return nil, err
	}
	cfg.Server.Addr = addr

	cfg.Webhook.Secret = strings.TrimSpace(cfg.Webhook.Secret)
	cfg.Store.APIKey = strings.TrimSpace(cfg.Store.APIKey)
	cfg.Feed.Token = strings.TrimSpace(cfg.Feed.Token)
	if cfg.Store.Timeout <= 0 {
		return nil, fmt.Errorf("invalid CONTACT_STORE_TIMEOUT value %q", cfg.Store.Timeout)
	}

	return &cfg, nil
}

// listenAddr turns PORT into a listen address.
func listenAddr(port string) (string, error) {
	port = strings.TrimSpace(port)
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// 允许用户直接传入 ":8080" 或 "127.0.0.1:8080"。
		return port, nil
	}

	if strings.Contains(port, " ") {
		return "", fmt.Errorf("invalid PORT value: %q", port)
	}

	return ":" + port, nil
}
