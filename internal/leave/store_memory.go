package leave

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"practiceops/pkg/domain"
	"practiceops/pkg/platform/sentinel"
)

// InMemoryStore keeps intervals in a map under an RWMutex. It intentionally
// favors clarity over performance.
type InMemoryStore struct {
	mu        sync.RWMutex
	intervals map[domain.LeaveIntervalID]Interval
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{intervals: make(map[domain.LeaveIntervalID]Interval)}
}

func (s *InMemoryStore) Create(_ context.Context, interval *Interval) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.intervals[interval.ID] = *interval
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, id domain.LeaveIntervalID) (Interval, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if iv, ok := s.intervals[id]; ok {
		return iv, nil
	}
	return Interval{}, fmt.Errorf("leave interval %s: %w", id, sentinel.ErrNotFound)
}

func (s *InMemoryStore) MarkDecided(_ context.Context, decided Interval) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.intervals[decided.ID]
	if !ok {
		return fmt.Errorf("leave interval %s: %w", decided.ID, sentinel.ErrNotFound)
	}
	if current.Status != StatusPending {
		return fmt.Errorf("leave interval %s already %s: %w", decided.ID, current.Status, sentinel.ErrInvalidState)
	}
	s.intervals[decided.ID] = decided
	return nil
}

func (s *InMemoryStore) ApprovedCovering(_ context.Context, staff domain.StaffID, date time.Time) (Interval, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, iv := range s.intervals {
		if iv.Staff == staff && iv.Status == StatusApproved && iv.Covers(date) {
			return iv, true, nil
		}
	}
	return Interval{}, false, nil
}

func (s *InMemoryStore) ApprovedOverlapping(_ context.Context, staff domain.StaffID, start, end time.Time, exclude domain.LeaveIntervalID) ([]Interval, error) {
	window := Interval{Start: start, End: end}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Interval
	for _, iv := range s.intervals {
		if iv.ID == exclude || iv.Staff != staff || iv.Status != StatusApproved {
			continue
		}
		if iv.Overlaps(window) {
			out = append(out, iv)
		}
	}
	sortByStart(out)
	return out, nil
}

func (s *InMemoryStore) ListByStaff(_ context.Context, staff domain.StaffID) ([]Interval, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Interval
	for _, iv := range s.intervals {
		if iv.Staff == staff {
			out = append(out, iv)
		}
	}
	sortByStart(out)
	return out, nil
}

func (s *InMemoryStore) DecidedInRange(_ context.Context, staff domain.StaffID, from, to time.Time) ([]Interval, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Interval
	for _, iv := range s.intervals {
		if iv.Staff != staff || iv.DecidedAt == nil {
			continue
		}
		if iv.DecidedAt.Before(from) || iv.DecidedAt.After(to) {
			continue
		}
		out = append(out, iv)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DecidedAt.Before(*out[j].DecidedAt) })
	return out, nil
}

func sortByStart(intervals []Interval) {
	sort.Slice(intervals, func(i, j int) bool {
		if !intervals[i].Start.Equal(intervals[j].Start) {
			return intervals[i].Start.Before(intervals[j].Start)
		}
		return intervals[i].ID.String() < intervals[j].ID.String()
	})
}
