package cronjobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/itsAR-VR/Community-Intellect-sub001/internal/core"
	"github.com/itsAR-VR/Community-Intellect-sub001/internal/data"
	"github.com/itsAR-VR/Community-Intellect-sub001/internal/domain/cronrun"
	"github.com/itsAR-VR/Community-Intellect-sub001/internal/domain/model"
	"github.com/itsAR-VR/Community-Intellect-sub001/internal/service"
)

// AutosendJobName is the registry name of the autosend job.
const AutosendJobName = "autosend"

const (
	defaultAutosendBatch       = 100
	defaultAutosendConcurrency = 4
)

// AutosendJobOptions groups dependencies for the autosend job.
type AutosendJobOptions struct {
	TenantID    string
	Outbound    core.OutboundMessageRepository
	Members     core.MemberRepository
	Gate        *service.AutosendService
	Outreach    *service.OutreachService
	BatchSize   int
	Concurrency int
	Clock       func() time.Time
	Logger      *slog.Logger
}

// AutosendSummary is stored as the run's details.
type AutosendSummary struct {
	Queued     int            `json:"queued"`
	Evaluated  int            `json:"evaluated"`
	Sent       int            `json:"sent"`
	Failed     int            `json:"failed"`
	LostClaims int            `json:"lost_claims"`
	Deferred   int            `json:"deferred"`
	Denied     map[string]int `json:"denied"`
}

type autosendJob struct {
	tenantID    string
	outbound    core.OutboundMessageRepository
	members     core.MemberRepository
	gate        *service.AutosendService
	outreach    *service.OutreachService
	batch       int
	concurrency int
	clock       func() time.Time
	logger      *slog.Logger
}

// NewAutosendJob builds the hourly autosend job. Each run delivers queued
// automated messages whose member passes the autosend gate.
func NewAutosendJob(opts AutosendJobOptions) (Job, error) {
	switch {
	case opts.Outbound == nil:
		return Job{}, errors.New("OutboundMessageRepository is required")
	case opts.Members == nil:
		return Job{}, errors.New("MemberRepository is required")
	case opts.Gate == nil:
		return Job{}, errors.New("AutosendService is required")
	case opts.Outreach == nil:
		return Job{}, errors.New("OutreachService is required")
	}
	j := &autosendJob{
		tenantID:    opts.TenantID,
		outbound:    opts.Outbound,
		members:     opts.Members,
		gate:        opts.Gate,
		outreach:    opts.Outreach,
		batch:       opts.BatchSize,
		concurrency: opts.Concurrency,
		clock:       opts.Clock,
		logger:      opts.Logger,
	}
	if j.batch <= 0 {
		j.batch = defaultAutosendBatch
	}
	if j.concurrency <= 0 {
		j.concurrency = defaultAutosendConcurrency
	}
	if j.clock == nil {
		j.clock = time.Now
	}
	if j.logger == nil {
		j.logger = slog.Default()
	}
	j.logger = j.logger.With("component", "autosend_job")
	return Job{Name: AutosendJobName, Bucket: cronrun.BucketHourly, Run: j.run}, nil
}

// run fails only when every attempted delivery failed, which points at a
// systemic problem such as a revoked bot token. Individual failures are
// recorded on the message and counted in the summary.
func (j *autosendJob) run(ctx context.Context) (any, error) {
	queued, err := j.outbound.ListQueued(ctx, j.tenantID, j.batch)
	if err != nil {
		return nil, fmt.Errorf("list queued messages: %w", err)
	}

	summary := &AutosendSummary{Queued: len(queued), Denied: map[string]int{}}
	var mu sync.Mutex
	record := func(fn func(s *AutosendSummary)) {
		mu.Lock()
		defer mu.Unlock()
		fn(summary)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(j.concurrency)
	for _, msg := range oldestPerMember(queued, summary) {
		g.Go(func() error {
			return j.process(gctx, msg, record)
		})
	}
	if err := g.Wait(); err != nil {
		return summary, err
	}

	if summary.Failed > 0 && summary.Sent == 0 {
		return summary, fmt.Errorf("all %d autosend deliveries failed", summary.Failed)
	}
	return summary, nil
}

// oldestPerMember keeps one message per member so a batch can never send a
// member two messages before the gate sees the first.
func oldestPerMember(queued []*model.OutboundMessage, summary *AutosendSummary) []*model.OutboundMessage {
	seen := make(map[string]struct{}, len(queued))
	out := make([]*model.OutboundMessage, 0, len(queued))
	for _, msg := range queued {
		if _, dup := seen[msg.MemberID]; dup {
			summary.Deferred++
			continue
		}
		seen[msg.MemberID] = struct{}{}
		out = append(out, msg)
	}
	return out
}

func (j *autosendJob) process(ctx context.Context, msg *model.OutboundMessage, record func(func(*AutosendSummary))) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	member, err := j.members.GetByID(ctx, msg.TenantID, msg.MemberID)
	if errors.Is(err, data.ErrMemberNotFound) {
		member = nil
	} else if err != nil {
		return fmt.Errorf("load member %s: %w", msg.MemberID, err)
	}

	decision, err := j.gate.EvaluateMember(ctx, member, j.clock())
	if err != nil {
		return fmt.Errorf("evaluate member %s: %w", msg.MemberID, err)
	}
	record(func(s *AutosendSummary) { s.Evaluated++ })
	if !decision.Allowed {
		record(func(s *AutosendSummary) { s.Denied[decision.Reason]++ })
		return nil
	}

	won, err := j.outbound.Claim(ctx, msg.ID)
	if err != nil {
		return fmt.Errorf("claim message %s: %w", msg.ID, err)
	}
	if !won {
		record(func(s *AutosendSummary) { s.LostClaims++ })
		return nil
	}

	if _, err := j.outreach.Deliver(ctx, msg, member); err != nil {
		record(func(s *AutosendSummary) { s.Failed++ })
		return nil
	}
	record(func(s *AutosendSummary) { s.Sent++ })
	j.logger.DebugContext(ctx, "autosend delivered", "message_id", msg.ID, "member_id", msg.MemberID)
	return nil
}
