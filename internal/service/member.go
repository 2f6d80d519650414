package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/itsAR-VR/Community-Intellect-sub001/internal/core"
	"github.com/itsAR-VR/Community-Intellect-sub001/internal/data"
	"github.com/itsAR-VR/Community-Intellect-sub001/internal/domain/model"
	apperrors "github.com/itsAR-VR/Community-Intellect-sub001/internal/errors"
)

// MemberServiceOptions groups dependencies for MemberService.
type MemberServiceOptions struct {
	Repo   core.MemberRepository // Required
	Logger *slog.Logger          // Optional
}

// MemberService exposes member lookups and contact-state changes.
type MemberService struct {
	repo   core.MemberRepository
	logger *slog.Logger
}

// NewMemberService constructs a MemberService.
func NewMemberService(opts MemberServiceOptions) (*MemberService, error) {
	if opts.Repo == nil {
		return nil, errors.New("MemberRepository is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &MemberService{repo: opts.Repo, logger: logger.With("component", "members")}, nil
}

// Get returns one member or a NotFound AppError.
func (s *MemberService) Get(ctx context.Context, tenantID, id string) (*model.Member, error) {
	m, err := s.repo.GetByID(ctx, tenantID, id)
	if errors.Is(err, data.ErrMemberNotFound) {
		return nil, apperrors.NotFoundf("member %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get member: %w", err)
	}
	return m, nil
}

// List returns members matching opts.
func (s *MemberService) List(ctx context.Context, opts model.MemberListOptions) ([]*model.Member, error) {
	if opts.ContactState != nil && !opts.ContactState.Valid() {
		return nil, apperrors.ValidationField("contact_state", "invalid contact state")
	}
	if opts.Offset < 0 {
		return nil, apperrors.ValidationField("offset", "offset must be non-negative")
	}
	members, err := s.repo.List(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	return members, nil
}

// UpdateContactState opens, closes or mutes contact with a member. Closing
// contact makes the member eligible for autosend without a DM thread once the
// cooldown has passed.
func (s *MemberService) UpdateContactState(
	ctx context.Context,
	tenantID, id string,
	req model.UpdateContactStateRequest,
) (*model.Member, error) {
	if err := req.Validate(); err != nil {
		return nil, apperrors.ValidationField("contact_state", err.Error())
	}
	m, err := s.repo.UpdateContactState(ctx, tenantID, id, req.ContactState)
	if errors.Is(err, data.ErrMemberNotFound) {
		return nil, apperrors.NotFoundf("member %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("update contact state: %w", err)
	}
	s.logger.InfoContext(ctx, "member contact state changed", "member_id", id, "contact_state", m.ContactState)
	return m, nil
}
