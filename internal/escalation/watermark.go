// Package escalation turns recorded events into system warnings. Each rule
// keeps a per-staff watermark of what it has already consumed, so replays,
// retries, and restarts never double-count toward a threshold.
package escalation

import (
	"context"
	"sync"

	"practiceops/pkg/domain"
)

// Watermark is one rule's consumption state for one staff member. LastSeq is
// the highest event sequence consumed, Count the events accumulated toward
// the next firing, LastPeriod the most recent KPI period the rule evaluated.
type Watermark struct {
	LastSeq    uint64 `json:"last_seq"`
	Count      int    `json:"count"`
	LastPeriod string `json:"last_period"`
}

// WatermarkStore persists rule state. Get returns a zero Watermark for
// unknown (staff, rule) pairs.
type WatermarkStore interface {
	Get(ctx context.Context, staff domain.StaffID, rule string) (Watermark, error)
	Put(ctx context.Context, staff domain.StaffID, rule string, w Watermark) error
}

type watermarkKey struct {
	staff domain.StaffID
	rule  string
}

type InMemoryWatermarks struct {
	mu    sync.RWMutex
	marks map[watermarkKey]Watermark
}

func NewInMemoryWatermarks() *InMemoryWatermarks {
	return &InMemoryWatermarks{marks: make(map[watermarkKey]Watermark)}
}

func (s *InMemoryWatermarks) Get(_ context.Context, staff domain.StaffID, rule string) (Watermark, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.marks[watermarkKey{staff: staff, rule: rule}], nil
}

func (s *InMemoryWatermarks) Put(_ context.Context, staff domain.StaffID, rule string, w Watermark) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.marks[watermarkKey{staff: staff, rule: rule}] = w
	return nil
}
