package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/itsAR-VR/Community-Intellect-sub001/internal/core"
	"github.com/itsAR-VR/Community-Intellect-sub001/internal/data"
	"github.com/itsAR-VR/Community-Intellect-sub001/internal/domain/model"
	"github.com/itsAR-VR/Community-Intellect-sub001/internal/domain/slackauth"
	"github.com/itsAR-VR/Community-Intellect-sub001/internal/observability/metrics"
)

// SlackEventServiceOptions groups dependencies for SlackEventService.
type SlackEventServiceOptions struct {
	Events        core.SlackEventRepository // Required: deduplicating event store
	Threads       core.DMThreadRepository   // Optional: member reply tracking
	Markers       *core.MarkerCache         // Optional: redelivery short-circuit
	SigningSecret string                    // Required: Slack app signing secret
	Metrics       *metrics.Recorder         // Optional
	Logger        *slog.Logger              // Optional
}

// SlackEventService authenticates and stores inbound Slack Events API deliveries.
//
// Signature verification always happens on the raw bytes before the body is
// parsed. The unique event_id constraint is the dedup authority; markers only
// save a write on hot redeliveries.
type SlackEventService struct {
	events  core.SlackEventRepository
	threads core.DMThreadRepository
	markers *core.MarkerCache
	secret  string
	metrics *metrics.Recorder
	logger  *slog.Logger
}

// NewSlackEventService constructs a SlackEventService.
//
// A missing signing secret is a configuration error and fails construction.
func NewSlackEventService(opts SlackEventServiceOptions) (*SlackEventService, error) {
	if opts.Events == nil {
		return nil, errors.New("SlackEventRepository is required")
	}
	if strings.TrimSpace(opts.SigningSecret) == "" {
		return nil, slackauth.ErrMissingSecret
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &SlackEventService{
		events:  opts.Events,
		threads: opts.Threads,
		markers: opts.Markers,
		secret:  opts.SigningSecret,
		metrics: opts.Metrics,
		logger:  logger.With("component", "slack_events"),
	}, nil
}

// InboundRequest is one raw webhook delivery.
type InboundRequest struct {
	Timestamp string
	Signature string
	Body      []byte
	Now       time.Time
}

// InboundKind classifies a successfully handled delivery.
type InboundKind string

const (
	// InboundChallenge is a url_verification handshake; echo Challenge.
	InboundChallenge InboundKind = "challenge"
	// InboundAccepted is a first delivery that was stored.
	InboundAccepted InboundKind = "accepted"
	// InboundDuplicate is a redelivery of an already stored event.
	InboundDuplicate InboundKind = "duplicate"
)

// InboundResult is the outcome of Handle.
type InboundResult struct {
	Kind      InboundKind
	Challenge string
	Event     *model.SlackEvent
}

// Authenticate verifies the request signature and then parses the body.
// Authentication failures are *slackauth.VerifyError; unknown shapes wrap
// model.ErrUnsupportedPayload.
func (s *SlackEventService) Authenticate(req InboundRequest) (*model.SlackEnvelope, error) {
	if err := slackauth.Verify(slackauth.VerifyParams{
		Secret:    s.secret,
		Timestamp: req.Timestamp,
		Signature: req.Signature,
		Body:      req.Body,
		Now:       req.Now,
	}); err != nil {
		return nil, err
	}
	return model.ParseSlackEnvelope(req.Body)
}

// Handle authenticates, parses and ingests a delivery.
func (s *SlackEventService) Handle(ctx context.Context, req InboundRequest) (InboundResult, error) {
	env, err := s.Authenticate(req)
	if err != nil {
		s.observeRejection(ctx, err)
		return InboundResult{}, err
	}
	if env.Type == model.SlackEnvelopeURLVerification {
		s.metrics.ObserveWebhook(metrics.ResultChallenge)
		return InboundResult{Kind: InboundChallenge, Challenge: env.Challenge}, nil
	}

	res, err := s.Ingest(ctx, IngestParams{Envelope: env, Now: req.Now})
	if err != nil {
		s.metrics.ObserveWebhook(metrics.ResultError)
		return InboundResult{}, err
	}
	if !res.Created {
		s.metrics.ObserveWebhook(metrics.ResultDuplicate)
		return InboundResult{Kind: InboundDuplicate, Event: res.Event}, nil
	}
	s.metrics.ObserveWebhook(metrics.ResultSuccess)
	return InboundResult{Kind: InboundAccepted, Event: res.Event}, nil
}

func (s *SlackEventService) observeRejection(ctx context.Context, err error) {
	if reason, ok := slackauth.IsVerifyError(err); ok {
		s.metrics.ObserveWebhook(metrics.ResultRejected)
		s.logger.WarnContext(ctx, "rejected slack delivery", "reason", reason)
		return
	}
	if errors.Is(err, model.ErrUnsupportedPayload) {
		s.metrics.ObserveWebhook(metrics.ResultInvalid)
		s.logger.InfoContext(ctx, "unsupported slack payload", "error", err)
		return
	}
	s.metrics.ObserveWebhook(metrics.ResultError)
}

// IngestParams groups parameters for Ingest.
type IngestParams struct {
	Envelope *model.SlackEnvelope
	Now      time.Time
}

// IngestResult reports the stored row and whether this call created it.
type IngestResult struct {
	Event   *model.SlackEvent
	Created bool
}

// Ingest stores an authenticated event_callback. A redelivery returns the
// originally stored row; its payload is never overwritten.
func (s *SlackEventService) Ingest(ctx context.Context, p IngestParams) (IngestResult, error) {
	env := p.Envelope
	if env == nil || env.Type != model.SlackEnvelopeEventCallback || env.EventID == "" {
		return IngestResult{}, fmt.Errorf("%w: not an event_callback", model.ErrUnsupportedPayload)
	}

	if res, ok := s.shortCircuit(ctx, env.EventID); ok {
		return res, s.recordReply(ctx, env, p.Now)
	}

	req := &model.CreateSlackEventRequest{
		EventID:   env.EventID,
		EventType: env.EventType,
		EventTime: env.EventTime,
		Payload:   env.Raw,
	}
	if env.TeamID != "" {
		team := env.TeamID
		req.TeamID = &team
	}

	ev, created, err := s.events.InsertIfAbsent(ctx, req)
	if err != nil {
		if relErr := s.markers.Release(context.WithoutCancel(ctx), env.EventID); relErr != nil {
			s.logger.WarnContext(ctx, "failed to release slack event marker", "event_id", env.EventID, "error", relErr)
		}
		return IngestResult{}, fmt.Errorf("store slack event: %w", err)
	}
	if !created {
		s.logger.DebugContext(ctx, "duplicate slack delivery", "event_id", env.EventID)
	}

	if err := s.recordReply(ctx, env, p.Now); err != nil {
		return IngestResult{}, err
	}
	return IngestResult{Event: ev, Created: created}, nil
}

// shortCircuit consults the marker cache. It only answers when the marker was
// already set and the row is readable; every other case falls through to the store.
func (s *SlackEventService) shortCircuit(ctx context.Context, eventID string) (IngestResult, bool) {
	if !s.markers.Enabled() {
		return IngestResult{}, false
	}
	fresh, err := s.markers.Claim(ctx, eventID)
	if err != nil {
		s.logger.WarnContext(ctx, "slack event marker unavailable", "event_id", eventID, "error", err)
		return IngestResult{}, false
	}
	if fresh {
		return IngestResult{}, false
	}
	ev, err := s.events.GetByEventID(ctx, eventID)
	if err != nil {
		if !errors.Is(err, data.ErrSlackEventNotFound) {
			s.logger.WarnContext(ctx, "slack event lookup failed", "event_id", eventID, "error", err)
		}
		return IngestResult{}, false
	}
	return IngestResult{Event: ev, Created: false}, true
}

// recordReply stamps the member's DM thread for human-authored DMs.
// Redeliveries call it again; the repository ignores a reply older than the
// thread's last outbound message, so a replay cannot restore a cleared marker.
func (s *SlackEventService) recordReply(ctx context.Context, env *model.SlackEnvelope, now time.Time) error {
	if s.threads == nil || !env.Inner.IsMemberDM() || env.Inner.Channel == "" {
		return nil
	}
	at := replyTime(env, now)
	mapped, err := s.threads.RecordReply(ctx, env.Inner.Channel, at)
	if err != nil {
		return fmt.Errorf("record member reply: %w", err)
	}
	if !mapped {
		s.logger.DebugContext(ctx, "dm reply not recorded", "channel", env.Inner.Channel, "reason", "unmapped channel or older than last outbound")
	}
	return nil
}

func replyTime(env *model.SlackEnvelope, now time.Time) time.Time {
	if t, ok := parseSlackTS(env.Inner.TS); ok {
		return t
	}
	if env.EventTime != nil {
		return *env.EventTime
	}
	return now.UTC()
}

// parseSlackTS converts a message ts ("1700000000.000100") to a time with
// microsecond precision.
func parseSlackTS(ts string) (time.Time, bool) {
	secPart, fracPart, _ := strings.Cut(ts, ".")
	sec, err := strconv.ParseInt(secPart, 10, 64)
	if err != nil || sec <= 0 {
		return time.Time{}, false
	}
	var micros int64
	if fracPart != "" {
		if len(fracPart) > 6 {
			fracPart = fracPart[:6]
		}
		fracPart += strings.Repeat("0", 6-len(fracPart))
		micros, err = strconv.ParseInt(fracPart, 10, 64)
		if err != nil || micros < 0 {
			return time.Time{}, false
		}
	}
	return time.Unix(sec, micros*int64(time.Microsecond)).UTC(), true
}
