// Package autosend decides whether an automated DM to a member is currently allowed.
package autosend

import (
	"time"

	"github.com/itsAR-VR/Community-Intellect-sub001/internal/domain/model"
)

// DefaultCooldown is the minimum gap between an outbound message and the next automated one.
const DefaultCooldown = 24 * time.Hour

// Deny reasons. These strings are surfaced to operators verbatim.
const (
	ReasonMemberNotFound = "Member not found"
	ReasonNoLastMessage  = "No last message timestamp"
	ReasonAwaitingReply  = "Waiting for member reply or close"
	ReasonCooldown       = "24h cooldown not met"
	ReasonNoThread       = "No DM thread mapped"
	ReasonNoLastContact  = "No last contact timestamp"
)

// Decision is the gate outcome. Reason is empty when Allowed.
type Decision struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

// Permit is the allowing decision.
func Permit() Decision { return Decision{Allowed: true} }

// Deny returns a refusing decision.
func Deny(reason string) Decision { return Decision{Reason: reason} }

// Input is everything the gate looks at. Member nil means the member does not
// exist; Thread nil means no DM thread is mapped.
type Input struct {
	Member   *model.Member
	Thread   *model.DMThread
	Now      time.Time
	Cooldown time.Duration
}

// Evaluate runs the ordered decision chain. The first applicable rule wins.
// It reads no clock and has no side effects.
func Evaluate(in Input) Decision {
	if in.Member == nil {
		return Deny(ReasonMemberNotFound)
	}
	cooldown := in.Cooldown
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	closedState := in.Member.ContactState == model.ContactStateClosed

	if th := in.Thread; th != nil {
		if th.LastMessageAt == nil {
			return Deny(ReasonNoLastMessage)
		}
		hasReplied := th.MemberRepliedAt != nil
		isClosed := th.ConversationClosedAt != nil || closedState
		if !hasReplied && !isClosed {
			return Deny(ReasonAwaitingReply)
		}
		if in.Now.Sub(*th.LastMessageAt) < cooldown {
			return Deny(ReasonCooldown)
		}
		return Permit()
	}

	if !closedState {
		return Deny(ReasonNoThread)
	}
	if in.Member.LastContactedAt == nil {
		return Deny(ReasonNoLastContact)
	}
	if in.Now.Sub(*in.Member.LastContactedAt) < cooldown {
		return Deny(ReasonCooldown)
	}
	return Permit()
}
