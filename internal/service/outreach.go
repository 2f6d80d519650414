package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/itsAR-VR/Community-Intellect-sub001/internal/core"
	"github.com/itsAR-VR/Community-Intellect-sub001/internal/data"
	"github.com/itsAR-VR/Community-Intellect-sub001/internal/domain/model"
	apperrors "github.com/itsAR-VR/Community-Intellect-sub001/internal/errors"
	"github.com/itsAR-VR/Community-Intellect-sub001/internal/observability/metrics"
)

// ErrDeliveryFailed wraps Slack Web API failures so callers can tell them
// apart from validation and storage errors.
var ErrDeliveryFailed = errors.New("message delivery failed")

// OutreachRepos bundles the stores OutreachService writes to.
type OutreachRepos struct {
	Members  core.MemberRepository
	Threads  core.DMThreadRepository
	Outbound core.OutboundMessageRepository
}

// OutreachServiceOptions groups dependencies for OutreachService.
type OutreachServiceOptions struct {
	Repos     OutreachRepos
	Messenger core.SlackMessenger // Required: Slack Web API client
	Clock     func() time.Time    // Optional: defaults to time.Now
	Metrics   *metrics.Recorder   // Optional
	Logger    *slog.Logger        // Optional
}

// OutreachService sends direct messages to members and keeps DM thread state
// current. Manual sends go out immediately and never consult the autosend gate;
// automated sends are queued for the autosend job.
type OutreachService struct {
	members   core.MemberRepository
	threads   core.DMThreadRepository
	outbound  core.OutboundMessageRepository
	messenger core.SlackMessenger
	clock     func() time.Time
	metrics   *metrics.Recorder
	logger    *slog.Logger
}

// NewOutreachService constructs an OutreachService.
func NewOutreachService(opts OutreachServiceOptions) (*OutreachService, error) {
	switch {
	case opts.Repos.Members == nil:
		return nil, errors.New("MemberRepository is required")
	case opts.Repos.Threads == nil:
		return nil, errors.New("DMThreadRepository is required")
	case opts.Repos.Outbound == nil:
		return nil, errors.New("OutboundMessageRepository is required")
	case opts.Messenger == nil:
		return nil, errors.New("SlackMessenger is required")
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &OutreachService{
		members:   opts.Repos.Members,
		threads:   opts.Repos.Threads,
		outbound:  opts.Repos.Outbound,
		messenger: opts.Messenger,
		clock:     clock,
		metrics:   opts.Metrics,
		logger:    logger.With("component", "outreach"),
	}, nil
}

// SendManual records and immediately delivers a human-initiated message.
func (s *OutreachService) SendManual(ctx context.Context, req *model.CreateOutboundMessageRequest) (*model.OutboundMessage, error) {
	member, err := s.prepare(ctx, req, model.MessageOriginManual)
	if err != nil {
		return nil, err
	}
	msg, err := s.outbound.Create(ctx, req, model.OutboundStatusSending)
	if err != nil {
		return nil, fmt.Errorf("record manual message: %w", err)
	}
	return s.Deliver(ctx, msg, member)
}

// QueueAuto queues an automated message. The autosend job delivers it once the
// gate permits.
func (s *OutreachService) QueueAuto(ctx context.Context, req *model.CreateOutboundMessageRequest) (*model.OutboundMessage, error) {
	if _, err := s.prepare(ctx, req, model.MessageOriginAuto); err != nil {
		return nil, err
	}
	msg, err := s.outbound.Create(ctx, req, model.OutboundStatusQueued)
	if err != nil {
		return nil, fmt.Errorf("queue message: %w", err)
	}
	s.logger.InfoContext(ctx, "queued automated message", "message_id", msg.ID, "member_id", msg.MemberID)
	return msg, nil
}

func (s *OutreachService) prepare(
	ctx context.Context,
	req *model.CreateOutboundMessageRequest,
	origin model.MessageOrigin,
) (*model.Member, error) {
	if req == nil {
		return nil, apperrors.Validation("request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, apperrors.Validation(err.Error())
	}
	req.Origin = origin

	member, err := s.members.GetByID(ctx, req.TenantID, req.MemberID)
	if errors.Is(err, data.ErrMemberNotFound) {
		return nil, apperrors.NotFoundf("member %s not found", req.MemberID)
	}
	if err != nil {
		return nil, fmt.Errorf("load member: %w", err)
	}
	if member.SlackUserID == nil || *member.SlackUserID == "" {
		return nil, apperrors.ValidationField("member_id", "member has no linked Slack user")
	}
	return member, nil
}

// Deliver posts a claimed message to the member's DM and records the result.
// On success the member's last contact and DM thread are stamped, which resets
// the thread's reply and close markers.
func (s *OutreachService) Deliver(
	ctx context.Context,
	msg *model.OutboundMessage,
	member *model.Member,
) (*model.OutboundMessage, error) {
	origin := string(msg.Origin)
	ts, channel, sendErr := s.post(ctx, member, msg.Body)
	now := s.clock().UTC()
	// Delivery bookkeeping must land even if the caller's context is done.
	bookCtx := context.WithoutCancel(ctx)

	if sendErr != nil {
		errText := sendErr.Error()
		if err := s.outbound.Mark(bookCtx, model.MarkOutboundParams{
			ID: msg.ID, Status: model.OutboundStatusFailed, Error: &errText, At: now,
		}); err != nil {
			sendErr = errors.Join(sendErr, fmt.Errorf("mark message failed: %w", err))
		}
		s.metrics.ObserveOutbound(origin, metrics.ResultError)
		s.logger.ErrorContext(ctx, "message delivery failed",
			"message_id", msg.ID, "member_id", msg.MemberID, "error", sendErr)
		return nil, fmt.Errorf("deliver message %s: %w: %w", msg.ID, ErrDeliveryFailed, sendErr)
	}

	if err := s.outbound.Mark(bookCtx, model.MarkOutboundParams{
		ID: msg.ID, Status: model.OutboundStatusSent, SlackTS: &ts, At: now,
	}); err != nil {
		return nil, fmt.Errorf("mark message sent: %w", err)
	}
	if err := s.members.TouchLastContacted(bookCtx, member.ID, now); err != nil {
		return nil, fmt.Errorf("stamp member contact: %w", err)
	}
	if _, err := s.threads.RecordOutbound(bookCtx, model.UpsertDMThreadRequest{
		TenantID:      member.TenantID,
		MemberID:      member.ID,
		ChannelID:     channel,
		LastMessageAt: now,
	}); err != nil {
		return nil, fmt.Errorf("record dm thread: %w", err)
	}
	s.metrics.ObserveOutbound(origin, metrics.ResultSuccess)

	sent := *msg
	sent.Status = model.OutboundStatusSent
	sent.SlackTS = &ts
	sent.SentAt = &now
	sent.LastError = nil
	return &sent, nil
}

func (s *OutreachService) post(ctx context.Context, member *model.Member, body string) (ts, channel string, err error) {
	if member.SlackUserID == nil || *member.SlackUserID == "" {
		return "", "", errors.New("member has no linked Slack user")
	}
	channel, err = s.messenger.OpenDM(ctx, *member.SlackUserID)
	if err != nil {
		return "", "", fmt.Errorf("open dm: %w", err)
	}
	ts, err = s.messenger.PostMessage(ctx, channel, body)
	if err != nil {
		return "", "", fmt.Errorf("post message: %w", err)
	}
	return ts, channel, nil
}
