package kpi

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
	mu           sync.RWMutex
	observations []Observation
	closed       map[string]ClosedPeriod
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{closed: make(map[string]ClosedPeriod)}
}

func (s *InMemoryStore) AddObservation(_ context.Context, obs *Observation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observations = append(s.observations, *obs)
	return nil
}

func (s *InMemoryStore) ObservationsByStaff(_ context.Context, staff domain.StaffID, periodKey string) ([]Observation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Observation
	for _, o := range s.observations {
		if o.Staff == staff && o.PeriodKey == periodKey {
			out = append(out, o)
		}
	}
	return out, nil
}

func (s *InMemoryStore) ObservationsByPeriod(_ context.Context, periodKey string) ([]Observation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Observation
	for _, o := range s.observations {
		if o.PeriodKey == periodKey {
			out = append(out, o)
		}
	}
	return out, nil
}

func (s *InMemoryStore) MarkClosed(_ context.Context, closed ClosedPeriod) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.closed[closed.PeriodKey]; ok {
		return fmt.Errorf("period %s: %w", closed.PeriodKey, sentinel.ErrConflict)
	}
	s.closed[closed.PeriodKey] = closed
	return nil
}

func (s *InMemoryStore) Closed(_ context.Context, periodKey string) (ClosedPeriod, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cp, ok := s.closed[periodKey]
	return cp, ok, nil
}

func (s *InMemoryStore) ClosedBetween(_ context.Context, from, to time.Time) ([]ClosedPeriod, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []ClosedPeriod
	for _, cp := range s.closed {
		if cp.ClosedAt.Before(from) || cp.ClosedAt.After(to) {
			continue
		}
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ClosedAt.Before(out[j].ClosedAt) })
	return out, nil
}
