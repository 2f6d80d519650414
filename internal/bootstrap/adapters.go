package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/itsAR-VR/Community-Intellect-sub001/config"
	"github.com/itsAR-VR/Community-Intellect-sub001/internal/adapters/crontrigger"
	"github.com/itsAR-VR/Community-Intellect-sub001/internal/adapters/slackapi"
	"github.com/itsAR-VR/Community-Intellect-sub001/internal/core"
	"github.com/itsAR-VR/Community-Intellect-sub001/internal/service/cronjobs"
)

// ErrMessagingDisabled is returned by the placeholder messenger used when no
// SLACK_BOT_TOKEN is configured.
var ErrMessagingDisabled = errors.New("slack messaging disabled: SLACK_BOT_TOKEN is not set")

// disabledMessenger fails every delivery so queued messages are marked failed
// instead of silently dropped.
type disabledMessenger struct{}

func (disabledMessenger) OpenDM(context.Context, string) (string, error) {
	return "", ErrMessagingDisabled
}

func (disabledMessenger) PostMessage(context.Context, string, string) (string, error) {
	return "", ErrMessagingDisabled
}

// buildMessenger returns the Slack Web API client, or a messenger that
// rejects every send when no bot token is configured.
//
//nolint:ireturn // the concrete type depends on configuration.
func buildMessenger(cfg config.SlackConfig, logger *slog.Logger) (core.SlackMessenger, error) {
	if !cfg.MessagingEnabled() {
		logger.Warn("SLACK_BOT_TOKEN not set; outbound messages will fail")
		return disabledMessenger{}, nil
	}
	client, err := slackapi.NewClient(slackapi.Config{
		Token:      cfg.BotToken,
		BaseURL:    cfg.APIBaseURL,
		Timeout:    cfg.APITimeout,
		RetryLimit: cfg.APIRetryLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("slack api client: %w", err)
	}
	return client, nil
}

// CronTriggerConfig contains configuration for the in-process cron trigger.
type CronTriggerConfig struct {
	Registry *cronjobs.Registry
	Cron     config.CronConfig
	Logger   *slog.Logger
}

// NewCronTrigger parses CRON_SCHEDULES and builds a runner restricted to the
// registered jobs.
func NewCronTrigger(cfg CronTriggerConfig) (*crontrigger.Runner, error) {
	if cfg.Registry == nil {
		return nil, errors.New("cron registry is required")
	}
	schedules, err := crontrigger.ParseSchedules(cfg.Cron.Schedules)
	if err != nil {
		return nil, err
	}
	return crontrigger.NewRunner(crontrigger.RunnerOptions{
		Jobs:      cfg.Registry,
		Schedules: schedules,
		Known:     cfg.Registry.Names(),
		Logger:    cfg.Logger,
		Timeout:   cfg.Cron.JobTimeout,
	})
}
