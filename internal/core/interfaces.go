// Package core holds the ports the services depend on and the small shared
// helpers built on them.
package core

import (
	"context"
	"encoding/json"
	"time"

	"github.com/itsAR-VR/Community-Intellect-sub001/internal/domain/model"
)

// This file contains repository interface definitions (ports in hexagonal architecture).
// These interfaces define the contracts between the service layer and data layer.
// Service implementations should depend on these interfaces, not concrete implementations.

// InsertCronRunParams groups parameters for CronRunRepository.Insert.
type InsertCronRunParams struct {
	JobName   string
	RunKey    string
	StartedAt time.Time
}

// ReopenCronRunParams resets an existing run to started. The update applies only
// while the row still has ExpectStatus and ExpectStartedAt.
type ReopenCronRunParams struct {
	ID              string
	ExpectStatus    model.CronRunStatus
	ExpectStartedAt time.Time
	StartedAt       time.Time
}

// FinishCronRunParams groups parameters for CronRunRepository.Finish.
type FinishCronRunParams struct {
	ID         string
	Status     model.CronRunStatus
	FinishedAt time.Time
	Details    json.RawMessage
}

// CronRunListOptions filters CronRunRepository.ListRecent.
type CronRunListOptions struct {
	JobName string
	Limit   int
}

// CronRunRepository persists cron run bookkeeping rows.
// Insert reports a duplicate (job_name, run_key) as data.ErrCronRunExists and a
// missing table as data.ErrCronRunsUnavailable.
type CronRunRepository interface {
	Insert(ctx context.Context, p InsertCronRunParams) (*model.CronRun, error)
	GetByKey(ctx context.Context, jobName, runKey string) (*model.CronRun, error)
	Reopen(ctx context.Context, p ReopenCronRunParams) (bool, error)
	Finish(ctx context.Context, p FinishCronRunParams) error
	ListRecent(ctx context.Context, opts CronRunListOptions) ([]*model.CronRun, error)
}

// SlackEventRepository persists inbound Slack events keyed by event id.
type SlackEventRepository interface {
	// InsertIfAbsent stores the event unless one with the same event id exists.
	// It returns the stored row and whether this call created it.
	InsertIfAbsent(ctx context.Context, req *model.CreateSlackEventRequest) (*model.SlackEvent, bool, error)
	GetByEventID(ctx context.Context, eventID string) (*model.SlackEvent, error)
	// CountByType aggregates events received in [from, to).
	CountByType(ctx context.Context, from, to time.Time) ([]model.SlackEventTypeCount, error)
}

// MemberRepository defines the interface for member data operations.
type MemberRepository interface {
	GetByID(ctx context.Context, tenantID, id string) (*model.Member, error)
	List(ctx context.Context, opts model.MemberListOptions) ([]*model.Member, error)
	UpdateContactState(ctx context.Context, tenantID, id string, state model.ContactState) (*model.Member, error)
	TouchLastContacted(ctx context.Context, id string, at time.Time) error
}

// DMThreadRepository defines the interface for member DM thread state.
type DMThreadRepository interface {
	GetByMemberID(ctx context.Context, tenantID, memberID string) (*model.DMThread, error)
	RecordOutbound(ctx context.Context, req model.UpsertDMThreadRequest) (*model.DMThread, error)
	// RecordReply marks that the member wrote in the DM channel. It returns false
	// when the channel is not mapped to any member.
	RecordReply(ctx context.Context, channelID string, at time.Time) (bool, error)
}

// OutboundMessageRepository defines the interface for outbound message data operations.
type OutboundMessageRepository interface {
	Create(ctx context.Context, req *model.CreateOutboundMessageRequest, status model.OutboundStatus) (*model.OutboundMessage, error)
	ListQueued(ctx context.Context, tenantID string, limit int) ([]*model.OutboundMessage, error)
	// Claim moves a queued message to sending. It returns false when another worker won.
	Claim(ctx context.Context, id string) (bool, error)
	Mark(ctx context.Context, p model.MarkOutboundParams) error
}

// SlackMessenger delivers direct messages through the Slack Web API.
type SlackMessenger interface {
	OpenDM(ctx context.Context, userID string) (string, error)
	PostMessage(ctx context.Context, channelID, text string) (string, error)
}
