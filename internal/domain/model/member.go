package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ContactState is the conversation state recorded on a member.
//
//nolint:recvcheck // UnmarshalText needs pointer receiver, Valid needs value receiver
type ContactState string

const (
	// ContactStateOpen is an active conversation.
	ContactStateOpen ContactState = "open"
	// ContactStateClosed is a conversation explicitly closed by the team.
	ContactStateClosed ContactState = "closed"
	// ContactStateMuted is a member who should not be contacted.
	ContactStateMuted ContactState = "muted"
)

// Valid returns true if the ContactState is known.
func (s ContactState) Valid() bool {
	return s == ContactStateOpen || s == ContactStateClosed || s == ContactStateMuted
}

// UnmarshalText implements encoding.TextUnmarshaler for ContactState.
func (s *ContactState) UnmarshalText(text []byte) error {
	v := ContactState(strings.ToLower(strings.TrimSpace(string(text))))
	if !v.Valid() {
		return fmt.Errorf("invalid ContactState: %q", v)
	}
	*s = v
	return nil
}

// Member is a community member tracked by the CRM.
type Member struct {
	ID              string       `json:"id"                          db:"id"`
	TenantID        string       `json:"tenant_id"                   db:"tenant_id"`
	Name            string       `json:"name"                        db:"name"`
	Email           *string      `json:"email,omitempty"             db:"email"`
	SlackUserID     *string      `json:"slack_user_id,omitempty"     db:"slack_user_id"`
	ContactState    ContactState `json:"contact_state"               db:"contact_state"`
	LastContactedAt *time.Time   `json:"last_contacted_at,omitempty" db:"last_contacted_at"`
	CreatedAt       time.Time    `json:"created_at"                  db:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"                  db:"updated_at"`
}

// MemberListOptions filters member listings.
type MemberListOptions struct {
	TenantID     string
	ContactState *ContactState
	Query        string
	Limit        int
	Offset       int
}

// UpdateContactStateRequest changes a member's contact state.
type UpdateContactStateRequest struct {
	ContactState ContactState `json:"contact_state"`
}

// Validate validates the UpdateContactStateRequest.
func (r *UpdateContactStateRequest) Validate() error {
	if !r.ContactState.Valid() {
		return errors.New("contact_state must be one of open, closed, muted")
	}
	return nil
}
