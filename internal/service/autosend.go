package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/itsAR-VR/Community-Intellect-sub001/internal/core"
	"github.com/itsAR-VR/Community-Intellect-sub001/internal/data"
	"github.com/itsAR-VR/Community-Intellect-sub001/internal/domain/autosend"
	"github.com/itsAR-VR/Community-Intellect-sub001/internal/domain/model"
	"github.com/itsAR-VR/Community-Intellect-sub001/internal/observability/metrics"
)

// AutosendServiceOptions groups dependencies for AutosendService.
type AutosendServiceOptions struct {
	Members  core.MemberRepository   // Required: member lookup
	Threads  core.DMThreadRepository // Required: DM thread lookup
	Cooldown time.Duration           // Optional: defaults to autosend.DefaultCooldown
	Metrics  *metrics.Recorder       // Optional: decision counters
	Logger   *slog.Logger            // Optional: structured logger
}

// AutosendService loads gate inputs from the store and evaluates the autosend gate.
type AutosendService struct {
	members  core.MemberRepository
	threads  core.DMThreadRepository
	cooldown time.Duration
	metrics  *metrics.Recorder
	logger   *slog.Logger
}

// NewAutosendService constructs an AutosendService.
//
// Returns an error if Members or Threads is nil.
func NewAutosendService(opts AutosendServiceOptions) (*AutosendService, error) {
	if opts.Members == nil {
		return nil, errors.New("MemberRepository is required")
	}
	if opts.Threads == nil {
		return nil, errors.New("DMThreadRepository is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cooldown := opts.Cooldown
	if cooldown <= 0 {
		cooldown = autosend.DefaultCooldown
	}
	return &AutosendService{
		members:  opts.Members,
		threads:  opts.Threads,
		cooldown: cooldown,
		metrics:  opts.Metrics,
		logger:   logger.With("component", "autosend"),
	}, nil
}

// Cooldown returns the configured minimum gap between messages.
func (s *AutosendService) Cooldown() time.Duration { return s.cooldown }

// Evaluate decides whether the member may receive an automated message at now.
// A missing member or thread is an input to the gate, not an error.
func (s *AutosendService) Evaluate(ctx context.Context, tenantID, memberID string, now time.Time) (autosend.Decision, error) {
	member, err := s.members.GetByID(ctx, tenantID, memberID)
	switch {
	case errors.Is(err, data.ErrMemberNotFound):
		member = nil
	case err != nil:
		return autosend.Decision{}, fmt.Errorf("load member: %w", err)
	}

	var thread *model.DMThread
	if member != nil {
		thread, err = s.threads.GetByMemberID(ctx, tenantID, memberID)
		switch {
		case errors.Is(err, data.ErrDMThreadNotFound):
			thread = nil
		case err != nil:
			return autosend.Decision{}, fmt.Errorf("load dm thread: %w", err)
		}
	}

	return s.decide(ctx, member, thread, now), nil
}

// EvaluateMember is Evaluate for a member row the caller already holds.
func (s *AutosendService) EvaluateMember(ctx context.Context, member *model.Member, now time.Time) (autosend.Decision, error) {
	if member == nil {
		return s.decide(ctx, nil, nil, now), nil
	}
	thread, err := s.threads.GetByMemberID(ctx, member.TenantID, member.ID)
	switch {
	case errors.Is(err, data.ErrDMThreadNotFound):
		thread = nil
	case err != nil:
		return autosend.Decision{}, fmt.Errorf("load dm thread: %w", err)
	}
	return s.decide(ctx, member, thread, now), nil
}

func (s *AutosendService) decide(ctx context.Context, member *model.Member, thread *model.DMThread, now time.Time) autosend.Decision {
	d := autosend.Evaluate(autosend.Input{
		Member:   member,
		Thread:   thread,
		Now:      now,
		Cooldown: s.cooldown,
	})
	s.metrics.ObserveAutosend(d.Allowed, d.Reason)
	if member != nil {
		s.logger.DebugContext(ctx, "autosend decision",
			"member_id", member.ID, "allowed", d.Allowed, "reason", d.Reason)
	}
	return d
}
