package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ServiceMode represents the available service modes.
type ServiceMode string

const (
	// ServiceModeHTTP runs the HTTP server.
	ServiceModeHTTP ServiceMode = "http"
	// ServiceModeCronTrigger fires registered cron jobs on local schedules.
	ServiceModeCronTrigger ServiceMode = "cron-trigger"
)

// ValidServiceModes returns all valid service mode names.
func ValidServiceModes() []ServiceMode {
	return []ServiceMode{
		ServiceModeHTTP,
		ServiceModeCronTrigger,
	}
}

// ParseServices parses a comma-delimited string of service names and returns the enabled services.
// It validates that all service names are valid and returns an error if any are invalid.
func ParseServices(servicesStr string) (map[ServiceMode]bool, error) {
	services := make(map[ServiceMode]bool)

	if servicesStr == "" {
		return services, errors.New("at least one service must be specified")
	}

	for part := range strings.SplitSeq(servicesStr, ",") {
		serviceName := strings.TrimSpace(part)
		if serviceName == "" {
			continue
		}

		mode := ServiceMode(serviceName)
		switch mode {
		case ServiceModeHTTP, ServiceModeCronTrigger:
			services[mode] = true
		default:
			return nil, fmt.Errorf(
				"invalid service name: %q (valid options: http, cron-trigger)",
				serviceName,
			)
		}
	}

	if len(services) == 0 {
		return nil, errors.New("at least one valid service must be specified")
	}

	return services, nil
}

// CronConfig contains cron run tracking and local trigger configuration.
type CronConfig struct {
	// StaleAfter is how long a "started" run may go without finishing before
	// the same run key may be reopened.
	StaleAfter time.Duration `env:"STALE_AFTER" envDefault:"15m"`

	// Schedules maps job names to cron specs for the cron-trigger service,
	// e.g. "autosend=0 * * * *;slack-events-rollup=5 0 * * *".
	Schedules string `env:"SCHEDULES" envDefault:"autosend=0 * * * *;slack-events-rollup=5 0 * * *"`

	// JobTimeout bounds one job execution. It is kept below StaleAfter so a
	// run still in flight is never treated as stale and reopened.
	JobTimeout time.Duration `env:"JOB_TIMEOUT" envDefault:"10m"`
}

// Sanitize applies guardrails to cron configuration values.
func (c *CronConfig) Sanitize() {
	if c.StaleAfter < time.Minute {
		c.StaleAfter = time.Minute
	}
	if c.JobTimeout < 10*time.Second {
		c.JobTimeout = 10 * time.Second
	}
	if c.JobTimeout >= c.StaleAfter {
		c.JobTimeout = c.StaleAfter * 9 / 10
	}
	c.Schedules = strings.TrimSpace(c.Schedules)
}

// AutosendConfig contains autosend job configuration.
type AutosendConfig struct {
	// Cooldown is the minimum gap between messages to the same member.
	Cooldown time.Duration `env:"COOLDOWN" envDefault:"24h"`

	// BatchSize is the maximum number of queued messages read per run.
	BatchSize int `env:"BATCH_SIZE" envDefault:"100"`

	// Concurrency bounds parallel Slack deliveries within one run.
	Concurrency int `env:"CONCURRENCY" envDefault:"4"`
}

// Sanitize applies guardrails to autosend configuration values.
func (a *AutosendConfig) Sanitize() {
	if a.Cooldown < time.Minute {
		a.Cooldown = time.Minute
	}
	if a.BatchSize < 1 {
		a.BatchSize = 1
	}
	if a.BatchSize > 1000 {
		a.BatchSize = 1000
	}
	if a.Concurrency < 1 {
		a.Concurrency = 1
	}
	if a.Concurrency > 32 {
		a.Concurrency = 32
	}
}
