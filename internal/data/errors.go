package data

import "errors"

// Shared sentinel errors for data-layer repositories.
var (
	// Cron run repository sentinels.
	ErrCronRunExists       = errors.New("cron run already exists for key")
	ErrCronRunsUnavailable = errors.New("cron run tracking table unavailable")
	ErrCronRunNotFound     = errors.New("cron run not found")

	// Slack event repository sentinels.
	ErrSlackEventNotFound = errors.New("slack event not found")

	// Member repository sentinels.
	ErrMemberNotFound   = errors.New("member not found")
	ErrDMThreadNotFound = errors.New("dm thread not found")

	// Outbound message repository sentinels.
	ErrOutboundMessageNotFound = errors.New("outbound message not found")
)
