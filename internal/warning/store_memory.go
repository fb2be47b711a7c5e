package warning

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"practiceops/pkg/domain"
	"practiceops/pkg/platform/sentinel"
)

type InMemoryStore struct {
	mu      sync.RWMutex
	records []Record
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Create(_ context.Context, record *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, *record)
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, id domain.WarningID) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.records {
		if r.ID == id {
			return r, nil
		}
	}
	return Record{}, fmt.Errorf("warning %s: %w", id, sentinel.ErrNotFound)
}

func (s *InMemoryStore) ListByStaff(_ context.Context, staff domain.StaffID) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Record
	for _, r := range s.records {
		if r.Staff == staff {
			out = append(out, r)
		}
	}
	sortRecords(out)
	return out, nil
}

func (s *InMemoryStore) ListByStaffBetween(_ context.Context, staff domain.StaffID, from, to time.Time) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Record
	for _, r := range s.records {
		if r.Staff != staff || r.IssuedAt.Before(from) || r.IssuedAt.After(to) {
			continue
		}
		out = append(out, r)
	}
	sortRecords(out)
	return out, nil
}

func sortRecords(records []Record) {
	sort.Slice(records, func(i, j int) bool {
		if !records[i].IssuedAt.Equal(records[j].IssuedAt) {
			return records[i].IssuedAt.Before(records[j].IssuedAt)
		}
		return records[i].ID.String() < records[j].ID.String()
	})
}
