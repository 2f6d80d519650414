package config

import (
	"log/slog"
	"os"
	"strings"
)

// AppConfig is the main application configuration struct that composes
// domain-specific configuration from separate files.
//
// Configuration is loaded from environment variables using the
// github.com/caarlos0/env library. See individual domain config
// files for details on available environment variables:
//   - auth.go: inbound request authentication secrets
//   - database.go: Postgres and Redis configuration
//   - http.go: HTTP server configuration
//   - services.go: service modes, cron and autosend configuration
//   - slack.go: Slack Web API and dedup marker configuration
//   - observability.go: metrics and failure notifications
type AppConfig struct {
	// IsDev controls development mode behavior (text logs, debug level).
	// Set DEV=true or APP_ENV=development for development mode.
	IsDev bool `env:"DEV" envDefault:"false"`

	// TenantID scopes members, threads and outbound messages.
	TenantID string `env:"TENANT_ID" envDefault:"default"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Request authentication
	Auth AuthConfig

	// Database configuration
	Postgres DBConfig    `envPrefix:"DB_"`
	Redis    RedisConfig `envPrefix:"REDIS_"`

	// HTTP server configuration
	HTTP HTTPConfig

	// Service mode configuration
	Services string `env:"SERVICES" envDefault:"http"`

	// Slack Web API configuration
	Slack SlackConfig `envPrefix:"SLACK_"`

	// Cron tracking and local trigger configuration
	Cron CronConfig `envPrefix:"CRON_"`

	// Autosend job configuration
	Autosend AutosendConfig `envPrefix:"AUTOSEND_"`

	// Observability configuration
	Observability ObservabilityConfig
}

// Sanitize applies guardrails to configuration values loaded from env.
// This should be called after loading configuration from environment variables.
func (c *AppConfig) Sanitize() {
	c.HTTP.Sanitize()
	c.Slack.Sanitize()
	c.Cron.Sanitize()
	c.Autosend.Sanitize()
	c.Observability.Sanitize()
	c.Auth.Sanitize()

	if c.TenantID = strings.TrimSpace(c.TenantID); c.TenantID == "" {
		c.TenantID = "default"
	}

	c.detectDevMode()
}

// detectDevMode checks APP_ENV as a fallback for DEV.
func (c *AppConfig) detectDevMode() {
	if !c.IsDev {
		appEnv := strings.ToLower(os.Getenv("APP_ENV"))
		c.IsDev = appEnv == "development" || appEnv == "dev"
	}
}

// SlogLevel converts LogLevel to a slog.Level. Unknown values map to info,
// and dev mode never logs above debug.
func (c *AppConfig) SlogLevel() slog.Level {
	if c.IsDev {
		return slog.LevelDebug
	}
	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// GetEnabledServices returns the enabled services based on the Services field.
func (c *AppConfig) GetEnabledServices() (map[ServiceMode]bool, error) {
	return ParseServices(c.Services)
}

// IsHTTPServerEnabled returns true if the HTTP server service is enabled.
func (c *AppConfig) IsHTTPServerEnabled() bool {
	services, err := c.GetEnabledServices()
	if err != nil {
		return false
	}
	return services[ServiceModeHTTP]
}

// IsCronTriggerEnabled returns true if the in-process cron trigger is enabled.
func (c *AppConfig) IsCronTriggerEnabled() bool {
	services, err := c.GetEnabledServices()
	if err != nil {
		return false
	}
	return services[ServiceModeCronTrigger]
}
