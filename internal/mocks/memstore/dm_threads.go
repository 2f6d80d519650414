package memstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/itsAR-VR/Community-Intellect-sub001/internal/core"
	"github.com/itsAR-VR/Community-Intellect-sub001/internal/data"
	"github.com/itsAR-VR/Community-Intellect-sub001/internal/domain/model"
)

var _ core.DMThreadRepository = (*DMThreads)(nil)

// DMThreads is an in-memory core.DMThreadRepository with one thread per member.
type DMThreads struct {
	mu       sync.Mutex
	byMember map[string]*model.DMThread
	seq      int
}

// NewDMThreads creates an empty DMThreads store.
func NewDMThreads() *DMThreads {
	return &DMThreads{byMember: make(map[string]*model.DMThread)}
}

// GetByMemberID returns a copy of the member's thread.
func (s *DMThreads) GetByMemberID(_ context.Context, tenantID, memberID string) (*model.DMThread, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	th, ok := s.byMember[memberID]
	if !ok || th.TenantID != tenantID {
		return nil, data.ErrDMThreadNotFound
	}
	return copyThread(th), nil
}

// RecordOutbound creates or advances the member's thread and clears the reply
// and close markers.
func (s *DMThreads) RecordOutbound(_ context.Context, req model.UpsertDMThreadRequest) (*model.DMThread, error) {
	if strings.TrimSpace(req.MemberID) == "" || strings.TrimSpace(req.ChannelID) == "" {
		return nil, errors.New("member_id and channel_id are required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	at := req.LastMessageAt.UTC()
	th, ok := s.byMember[req.MemberID]
	if !ok {
		s.seq++
		th = &model.DMThread{ID: fmt.Sprintf("thread-%d", s.seq), TenantID: req.TenantID, MemberID: req.MemberID}
		s.byMember[req.MemberID] = th
	}
	th.ChannelID = req.ChannelID
	if th.LastMessageAt == nil || th.LastMessageAt.Before(at) {
		th.LastMessageAt = &at
	}
	th.MemberRepliedAt = nil
	th.ConversationClosedAt = nil
	th.UpdatedAt = time.Now().UTC()
	return copyThread(th), nil
}

// RecordReply stamps the reply unless it predates the thread's last outbound.
func (s *DMThreads) RecordReply(_ context.Context, channelID string, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	at = at.UTC()
	matched := false
	for _, th := range s.byMember {
		if th.ChannelID != channelID {
			continue
		}
		if th.LastMessageAt != nil && !th.LastMessageAt.Before(at) {
			continue
		}
		if th.MemberRepliedAt == nil || th.MemberRepliedAt.Before(at) {
			th.MemberRepliedAt = &at
		}
		th.UpdatedAt = time.Now().UTC()
		matched = true
	}
	return matched, nil
}

func copyThread(th *model.DMThread) *model.DMThread {
	cp := *th
	cp.LastMessageAt = copyTime(th.LastMessageAt)
	cp.MemberRepliedAt = copyTime(th.MemberRepliedAt)
	cp.ConversationClosedAt = copyTime(th.ConversationClosedAt)
	return &cp
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
