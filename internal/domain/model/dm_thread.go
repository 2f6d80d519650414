package model

import "time"

// DMThread is the direct-message conversation mapped to a member (zero or one per member).
type DMThread struct {
	ID                   string     `json:"id"                               db:"id"`
	TenantID             string     `json:"tenant_id"                        db:"tenant_id"`
	MemberID             string     `json:"member_id"                        db:"member_id"`
	ChannelID            string     `json:"channel_id"                       db:"channel_id"`
	LastMessageAt        *time.Time `json:"last_message_at,omitempty"        db:"last_message_at"`
	MemberRepliedAt      *time.Time `json:"member_replied_at,omitempty"      db:"member_replied_at"`
	ConversationClosedAt *time.Time `json:"conversation_closed_at,omitempty" db:"conversation_closed_at"`
	UpdatedAt            time.Time  `json:"updated_at"                       db:"updated_at"`
}

// UpsertDMThreadRequest records an outbound message on a member's DM thread.
type UpsertDMThreadRequest struct {
	TenantID      string
	MemberID      string
	ChannelID     string
	LastMessageAt time.Time
}
