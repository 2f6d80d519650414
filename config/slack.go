package config

import (
	"strings"
	"time"
)

const defaultSlackAPIBaseURL = "https://slack.com/api"

// SlackConfig controls the outbound Slack Web API client and the inbound
// redelivery marker cache.
type SlackConfig struct {
	// BotToken is the xoxb- token used for conversations.open and chat.postMessage.
	BotToken string `env:"BOT_TOKEN"`

	// APIBaseURL overrides the Web API root (tests and proxies).
	APIBaseURL string `env:"API_BASE_URL" envDefault:"https://slack.com/api"`

	// APITimeout bounds one Web API call.
	APITimeout time.Duration `env:"API_TIMEOUT" envDefault:"10s"`

	// APIRetryLimit is the number of retries after the first attempt.
	APIRetryLimit int `env:"API_RETRY_LIMIT" envDefault:"2"`

	// EventMarkerTTL is how long a Redis marker short-circuits a redelivered event.
	EventMarkerTTL time.Duration `env:"EVENT_MARKER_TTL" envDefault:"1h"`
}

// Sanitize applies guardrails to Slack configuration values.
func (s *SlackConfig) Sanitize() {
	s.BotToken = strings.TrimSpace(s.BotToken)
	if s.APIBaseURL = strings.TrimRight(strings.TrimSpace(s.APIBaseURL), "/"); s.APIBaseURL == "" {
		s.APIBaseURL = defaultSlackAPIBaseURL
	}
	if s.APITimeout <= 0 {
		s.APITimeout = 10 * time.Second
	}
	if s.APIRetryLimit < 0 {
		s.APIRetryLimit = 0
	}
	if s.APIRetryLimit > 5 {
		s.APIRetryLimit = 5
	}
	if s.EventMarkerTTL < time.Minute {
		s.EventMarkerTTL = time.Minute
	}
}

// MessagingEnabled reports whether outbound DMs can be sent.
func (s *SlackConfig) MessagingEnabled() bool {
	return s.BotToken != ""
}
