package memstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/itsAR-VR/Community-Intellect-sub001/internal/core"
	"github.com/itsAR-VR/Community-Intellect-sub001/internal/data"
	"github.com/itsAR-VR/Community-Intellect-sub001/internal/domain/model"
)

var _ core.SlackEventRepository = (*SlackEvents)(nil)

// SlackEvents is an in-memory core.SlackEventRepository keyed by event id.
type SlackEvents struct {
	mu     sync.Mutex
	events map[string]*model.SlackEvent
	order  []string
	seq    int

	// Now stamps ReceivedAt. Defaults to time.Now.
	Now func() time.Time
}

// NewSlackEvents creates an empty SlackEvents store.
func NewSlackEvents() *SlackEvents {
	return &SlackEvents{events: make(map[string]*model.SlackEvent)}
}

// InsertIfAbsent stores the event unless its id was already seen. The first
// write wins and later payloads are ignored.
func (s *SlackEvents) InsertIfAbsent(
	_ context.Context,
	req *model.CreateSlackEventRequest,
) (*model.SlackEvent, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ev, ok := s.events[req.EventID]; ok {
		cp := *ev
		return &cp, false, nil
	}
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	s.seq++
	ev := &model.SlackEvent{
		ID:         fmt.Sprintf("evt-%d", s.seq),
		EventID:    req.EventID,
		EventType:  req.EventType,
		TeamID:     req.TeamID,
		EventTime:  req.EventTime,
		Payload:    append(json.RawMessage(nil), req.Payload...),
		ReceivedAt: now().UTC(),
	}
	s.events[req.EventID] = ev
	s.order = append(s.order, req.EventID)
	cp := *ev
	return &cp, true, nil
}

// GetByEventID returns the stored event.
func (s *SlackEvents) GetByEventID(_ context.Context, eventID string) (*model.SlackEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ev, ok := s.events[eventID]
	if !ok {
		return nil, data.ErrSlackEventNotFound
	}
	cp := *ev
	return &cp, nil
}

// CountByType aggregates events received in [from, to).
func (s *SlackEvents) CountByType(_ context.Context, from, to time.Time) ([]model.SlackEventTypeCount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	counts := make(map[string]int64)
	for _, id := range s.order {
		ev := s.events[id]
		if ev.ReceivedAt.Before(from) || !ev.ReceivedAt.Before(to) {
			continue
		}
		counts[ev.EventType]++
	}
	out := make([]model.SlackEventTypeCount, 0, len(counts))
	for typ, n := range counts {
		out = append(out, model.SlackEventTypeCount{EventType: typ, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EventType < out[j].EventType })
	return out, nil
}

// Len reports the number of stored events.
func (s *SlackEvents) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}
