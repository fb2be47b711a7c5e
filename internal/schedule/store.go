package schedule

import (
	"context"
	"time"

	"practiceops/pkg/domain"
)

// Store is the persistence contract for assignments.
//
// Create returns sentinel.ErrConflict (wrapped) when an assignment already
// exists for the same (staff, date); under SQL this is backed by a unique
// index so the constraint holds even if two requests race past the service
// check.
type Store interface {
	Create(ctx context.Context, assignment *Assignment) error
	Get(ctx context.Context, id domain.AssignmentID) (Assignment, error)
	Delete(ctx context.Context, id domain.AssignmentID) error
	// ByStaffDate returns the assignment for (staff, date), if any.
	ByStaffDate(ctx context.Context, staff domain.StaffID, date time.Time) (Assignment, bool, error)
	// ListByDateRange returns assignments with date in [from, to], ordered by
	// date then staff ID.
	ListByDateRange(ctx context.Context, from, to time.Time) ([]Assignment, error)
	ListByStaff(ctx context.Context, staff domain.StaffID, from, to time.Time) ([]Assignment, error)
}
