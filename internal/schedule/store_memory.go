package schedule

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
	mu          sync.RWMutex
	assignments map[domain.AssignmentID]Assignment
	// bySlot enforces one assignment per (staff, date).
	bySlot map[slotKey]domain.AssignmentID
}

type slotKey struct {
	staff domain.StaffID
	date  time.Time
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		assignments: make(map[domain.AssignmentID]Assignment),
		bySlot:      make(map[slotKey]domain.AssignmentID),
	}
}

func (s *InMemoryStore) Create(_ context.Context, assignment *Assignment) error {
	key := slotKey{staff: assignment.Staff, date: assignment.Date}
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.bySlot[key]; ok {
		return fmt.Errorf("assignment %s occupies %s/%s: %w",
			existing, assignment.Staff, assignment.Date.Format("2006-01-02"), sentinel.ErrConflict)
	}
	s.assignments[assignment.ID] = *assignment
	s.bySlot[key] = assignment.ID
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, id domain.AssignmentID) (Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if a, ok := s.assignments[id]; ok {
		return a, nil
	}
	return Assignment{}, fmt.Errorf("assignment %s: %w", id, sentinel.ErrNotFound)
}

func (s *InMemoryStore) Delete(_ context.Context, id domain.AssignmentID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.assignments[id]
	if !ok {
		return fmt.Errorf("assignment %s: %w", id, sentinel.ErrNotFound)
	}
	delete(s.assignments, id)
	delete(s.bySlot, slotKey{staff: a.Staff, date: a.Date})
	return nil
}

func (s *InMemoryStore) ByStaffDate(_ context.Context, staff domain.StaffID, date time.Time) (Assignment, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if id, ok := s.bySlot[slotKey{staff: staff, date: domain.DateOnly(date)}]; ok {
		return s.assignments[id], true, nil
	}
	return Assignment{}, false, nil
}

func (s *InMemoryStore) ListByDateRange(_ context.Context, from, to time.Time) ([]Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Assignment
	for _, a := range s.assignments {
		if a.Date.Before(from) || a.Date.After(to) {
			continue
		}
		out = append(out, a)
	}
	sortAssignments(out)
	return out, nil
}

func (s *InMemoryStore) ListByStaff(_ context.Context, staff domain.StaffID, from, to time.Time) ([]Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Assignment
	for _, a := range s.assignments {
		if a.Staff != staff || a.Date.Before(from) || a.Date.After(to) {
			continue
		}
		out = append(out, a)
	}
	sortAssignments(out)
	return out, nil
}

func sortAssignments(assignments []Assignment) {
	sort.Slice(assignments, func(i, j int) bool {
		if !assignments[i].Date.Equal(assignments[j].Date) {
			return assignments[i].Date.Before(assignments[j].Date)
		}
		return assignments[i].Staff.String() < assignments[j].Staff.String()
	})
}
