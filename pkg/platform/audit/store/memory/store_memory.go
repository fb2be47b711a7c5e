// Package memory holds the in-memory audit store used for tests and
// single-node deployments. It favors clarity over performance.
package memory

import (
	"context"
	"fmt"
	"sync"

	audit "practiceops/pkg/platform/audit"
)

// Store keeps entries in insertion order under a single mutex. Append computes
// the chain hash inside the critical section so concurrent writers still
// produce a linear, verifiable chain.
type Store struct {
	mu      sync.RWMutex
	entries []audit.Entry
}

func New() *Store {
	return &Store{}
}

func (s *Store) Append(_ context.Context, entry *audit.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := ""
	if n := len(s.entries); n > 0 {
		prev = s.entries[n-1].Hash
	}
	entry.Seq = uint64(len(s.entries) + 1)
	entry.PrevHash = prev

	hash, err := audit.ChainHash(*entry, prev)
	if err != nil {
		return fmt.Errorf("hash audit entry: %w", err)
	}
	entry.Hash = hash

	// Store a copy; callers keep no handle into the log.
	stored := *entry
	stored.Details = copyDetails(entry.Details)
	s.entries = append(s.entries, stored)
	return nil
}

// List returns matching entries newest-first.
func (s *Store) List(_ context.Context, filter audit.Filter) ([]audit.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []audit.Entry
	for i := len(s.entries) - 1; i >= 0; i-- {
		e := s.entries[i]
		if !filter.Matches(e) {
			continue
		}
		e.Details = copyDetails(e.Details)
		out = append(out, e)
		if filter.Limit > 0 && len(out) == filter.Limit {
			break
		}
	}
	return out, nil
}

// ListChain returns every entry oldest-first for chain verification.
func (s *Store) ListChain(_ context.Context) ([]audit.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]audit.Entry, len(s.entries))
	for i, e := range s.entries {
		e.Details = copyDetails(e.Details)
		out[i] = e
	}
	return out, nil
}

func copyDetails(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
