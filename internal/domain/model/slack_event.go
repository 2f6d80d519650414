package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrUnsupportedPayload is returned for authenticated bodies that are neither
// a URL verification handshake nor an event callback with an event id.
var ErrUnsupportedPayload = errors.New("unsupported payload")

// SlackEnvelopeType is the top-level "type" of a Slack Events API body.
type SlackEnvelopeType string

const (
	// SlackEnvelopeURLVerification is the endpoint ownership handshake.
	SlackEnvelopeURLVerification SlackEnvelopeType = "url_verification"
	// SlackEnvelopeEventCallback wraps a delivered workspace event.
	SlackEnvelopeEventCallback SlackEnvelopeType = "event_callback"
)

// SlackEnvelope is the parsed form of an authenticated Slack Events API body.
type SlackEnvelope struct {
	Type      SlackEnvelopeType
	Challenge string
	EventID   string
	EventType string
	TeamID    string
	EventTime *time.Time
	Inner     SlackInnerEvent
	Raw       json.RawMessage
}

// SlackInnerEvent holds the inner event fields the service acts on.
type SlackInnerEvent struct {
	Type        string `json:"type"`
	Subtype     string `json:"subtype"`
	User        string `json:"user"`
	BotID       string `json:"bot_id"`
	Channel     string `json:"channel"`
	ChannelType string `json:"channel_type"`
	TS          string `json:"ts"`
}

// IsMemberDM reports whether the inner event is a human-authored direct message.
func (e SlackInnerEvent) IsMemberDM() bool {
	return e.Type == "message" && e.ChannelType == "im" && e.User != "" && e.BotID == "" && e.Subtype == ""
}

type slackEnvelopeWire struct {
	Type      string          `json:"type"`
	Challenge *string         `json:"challenge"`
	EventID   string          `json:"event_id"`
	TeamID    string          `json:"team_id"`
	EventTime int64           `json:"event_time"`
	Event     json.RawMessage `json:"event"`
}

// ParseSlackEnvelope classifies a request body. It must only be called on a
// body whose signature has already been verified.
func ParseSlackEnvelope(body []byte) (*SlackEnvelope, error) {
	var w slackEnvelopeWire
	if err := json.Unmarshal(body, &w); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnsupportedPayload, err)
	}

	switch SlackEnvelopeType(w.Type) {
	case SlackEnvelopeURLVerification:
		if w.Challenge == nil {
			return nil, fmt.Errorf("%w: url_verification without challenge", ErrUnsupportedPayload)
		}
		return &SlackEnvelope{Type: SlackEnvelopeURLVerification, Challenge: *w.Challenge}, nil
	case SlackEnvelopeEventCallback:
		if strings.TrimSpace(w.EventID) == "" {
			return nil, fmt.Errorf("%w: event_callback without event_id", ErrUnsupportedPayload)
		}
		env := &SlackEnvelope{
			Type:    SlackEnvelopeEventCallback,
			EventID: w.EventID,
			TeamID:  w.TeamID,
			Inner:   parseInnerEvent(w.Event),
			Raw:     json.RawMessage(body),
		}
		env.EventType = env.Inner.Type
		if w.EventTime > 0 {
			t := time.Unix(w.EventTime, 0).UTC()
			env.EventTime = &t
		}
		return env, nil
	default:
		return nil, fmt.Errorf("%w: type %q", ErrUnsupportedPayload, w.Type)
	}
}

// parseInnerEvent is lenient: an unreadable inner event still gets stored.
func parseInnerEvent(raw json.RawMessage) SlackInnerEvent {
	var inner SlackInnerEvent
	if len(raw) == 0 {
		return inner
	}
	if err := json.Unmarshal(raw, &inner); err != nil {
		return SlackInnerEvent{}
	}
	return inner
}

// SlackEvent is a persisted inbound event. EventID is unique.
type SlackEvent struct {
	ID         string          `json:"id"                   db:"id"`
	EventID    string          `json:"event_id"             db:"event_id"`
	EventType  string          `json:"event_type"           db:"event_type"`
	TeamID     *string         `json:"team_id,omitempty"    db:"team_id"`
	EventTime  *time.Time      `json:"event_time,omitempty" db:"event_time"`
	Payload    json.RawMessage `json:"payload"              db:"payload"`
	ReceivedAt time.Time       `json:"received_at"          db:"received_at"`
}

// CreateSlackEventRequest is the insert payload for a new inbound event.
type CreateSlackEventRequest struct {
	EventID   string
	EventType string
	TeamID    *string
	EventTime *time.Time
	Payload   json.RawMessage
}

// SlackEventTypeCount is one row of an event rollup.
type SlackEventTypeCount struct {
	EventType string `json:"event_type" db:"event_type"`
	Count     int64  `json:"count"      db:"count"`
}
