// Package staff defines the read-only contract with the profile subsystem.
// The core never creates or edits staff records; it resolves identifiers to
// names, roles, and start dates for ranking and timeline rendering.
package staff

import (
	"context"
	"time"

	"practiceops/pkg/domain"
)

type Status string

const (
	StatusActive   Status = "Active"
	StatusInactive Status = "Inactive"
)

// Member is the slice of the profile record the core reads.
type Member struct {
	ID        domain.StaffID
	Name      string
	Role      domain.Role
	Status    Status
	StartDate time.Time
}

// Directory is implemented by the profile subsystem adapter. Member returns
// sentinel.ErrNotFound (wrapped) for unknown IDs.
type Directory interface {
	Member(ctx context.Context, id domain.StaffID) (Member, error)
	ListActive(ctx context.Context) ([]Member, error)
}
