package tasks

import (
	"context"
	"sync"
	"time"

	"practiceops/pkg/domain"
)

type InMemoryStore struct {
	mu     sync.RWMutex
	events []Event
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Append(_ context.Context, event *Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	event.Seq = uint64(len(s.events) + 1)
	s.events = append(s.events, *event)
	return nil
}

func (s *InMemoryStore) ListByStaffSince(_ context.Context, staff domain.StaffID, after uint64) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Event
	for _, e := range s.events {
		if e.Staff == staff && e.Seq > after {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *InMemoryStore) OverdueCount(_ context.Context, staff domain.StaffID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	latest := make(map[domain.TaskID]Outcome)
	for _, e := range s.events {
		if e.Staff == staff {
			latest[e.Task] = e.Outcome
		}
	}
	count := 0
	for _, outcome := range latest {
		if outcome == OutcomeOverdue {
			count++
		}
	}
	return count, nil
}

func (s *InMemoryStore) CompletedBetween(_ context.Context, staff domain.StaffID, from, to time.Time) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Event
	for _, e := range s.events {
		if e.Staff != staff || e.Outcome != OutcomeCompleted {
			continue
		}
		if e.RecordedAt.Before(from) || e.RecordedAt.After(to) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}
