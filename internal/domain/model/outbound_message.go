package model

import (
	"errors"
	"strings"
	"time"
)

// OutboundStatus is the delivery state of an outbound message.
type OutboundStatus string

const (
	// OutboundStatusQueued is waiting for the autosend job.
	OutboundStatusQueued OutboundStatus = "queued"
	// OutboundStatusSending has been claimed by one autosend worker.
	OutboundStatusSending OutboundStatus = "sending"
	// OutboundStatusSent was delivered to Slack.
	OutboundStatusSent OutboundStatus = "sent"
	// OutboundStatusFailed could not be delivered.
	OutboundStatusFailed OutboundStatus = "failed"
)

// MessageOrigin distinguishes human-initiated sends from automated ones.
type MessageOrigin string

const (
	// MessageOriginManual is sent on behalf of a person and bypasses the autosend gate.
	MessageOriginManual MessageOrigin = "manual"
	// MessageOriginAuto is sent by the autosend job after the gate permits it.
	MessageOriginAuto MessageOrigin = "auto"
)

// maxMessageLength mirrors Slack's practical chat.postMessage text limit.
const maxMessageLength = 4000

// OutboundMessage is a message addressed to a member's DM.
type OutboundMessage struct {
	ID        string         `json:"id"                   db:"id"`
	TenantID  string         `json:"tenant_id"            db:"tenant_id"`
	MemberID  string         `json:"member_id"            db:"member_id"`
	Body      string         `json:"body"                 db:"body"`
	Origin    MessageOrigin  `json:"origin"               db:"origin"`
	Status    OutboundStatus `json:"status"               db:"status"`
	LastError *string        `json:"last_error,omitempty" db:"last_error"`
	SlackTS   *string        `json:"slack_ts,omitempty"   db:"slack_ts"`
	CreatedAt time.Time      `json:"created_at"           db:"created_at"`
	SentAt    *time.Time     `json:"sent_at,omitempty"    db:"sent_at"`
}

// CreateOutboundMessageRequest queues or records a message to a member.
type CreateOutboundMessageRequest struct {
	TenantID string        `json:"-"`
	MemberID string        `json:"member_id"`
	Body     string        `json:"body"`
	Origin   MessageOrigin `json:"-"`
}

// Validate validates the CreateOutboundMessageRequest fields.
func (r *CreateOutboundMessageRequest) Validate() error {
	if strings.TrimSpace(r.MemberID) == "" {
		return errors.New("member_id is required")
	}
	body := strings.TrimSpace(r.Body)
	if body == "" {
		return errors.New("body is required")
	}
	if len(body) > maxMessageLength {
		return errors.New("body exceeds 4000 characters")
	}
	return nil
}

// MarkOutboundParams records the delivery result of a claimed message.
type MarkOutboundParams struct {
	ID      string
	Status  OutboundStatus
	SlackTS *string
	Error   *string
	At      time.Time
}
