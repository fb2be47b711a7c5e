package staff

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"practiceops/pkg/domain"
	"practiceops/pkg/platform/sentinel"
)

// InMemoryDirectory is the development/test stand-in for the profile
// subsystem.
type InMemoryDirectory struct {
	mu      sync.RWMutex
	members map[domain.StaffID]Member
}

func NewInMemoryDirectory() *InMemoryDirectory {
	return &InMemoryDirectory{members: make(map[domain.StaffID]Member)}
}

// Put seeds or replaces a member record.
func (d *InMemoryDirectory) Put(member Member) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.members[member.ID] = member
}

func (d *InMemoryDirectory) Member(_ context.Context, id domain.StaffID) (Member, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if m, ok := d.members[id]; ok {
		return m, nil
	}
	return Member{}, fmt.Errorf("staff member %s: %w", id, sentinel.ErrNotFound)
}

func (d *InMemoryDirectory) ListActive(_ context.Context) ([]Member, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	var out []Member
	for _, m := range d.members {
		if m.Status == StatusActive {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out, nil
}
