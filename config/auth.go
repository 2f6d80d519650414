package config

import "strings"

// AuthConfig groups the shared secrets that authenticate inbound requests.
type AuthConfig struct {
	// SlackSigningSecret verifies X-Slack-Signature on Events API deliveries.
	// Required when the http service is enabled.
	SlackSigningSecret string `env:"SLACK_SIGNING_SECRET"`

	// CronSecret is the bearer token for /api/cron/* and the dashboard API.
	// Required when the http service is enabled.
	CronSecret string `env:"CRON_SECRET"`
}

// Sanitize trims whitespace that commonly sneaks in from secret managers.
func (a *AuthConfig) Sanitize() {
	a.SlackSigningSecret = strings.TrimSpace(a.SlackSigningSecret)
	a.CronSecret = strings.TrimSpace(a.CronSecret)
}
