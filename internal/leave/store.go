package leave

import (
	"context"
	"time"

	"practiceops/pkg/domain"
)

// Store is the persistence contract for leave intervals.
//
// Error contract:
// - Get returns sentinel.ErrNotFound (wrapped) for unknown IDs
// - MarkDecided returns sentinel.ErrInvalidState when the interval is not
//   Pending, making the one-transition lifecycle structural
// - there is no general update or delete method
type Store interface {
	Create(ctx context.Context, interval *Interval) error
	Get(ctx context.Context, id domain.LeaveIntervalID) (Interval, error)
	// MarkDecided persists the Pending -> Approved/Rejected transition.
	MarkDecided(ctx context.Context, decided Interval) error
	// ApprovedCovering returns the approved interval covering the date, if any.
	ApprovedCovering(ctx context.Context, staff domain.StaffID, date time.Time) (Interval, bool, error)
	// ApprovedOverlapping returns approved intervals for the staff member that
	// share at least one day with [start, end], excluding the given ID.
	ApprovedOverlapping(ctx context.Context, staff domain.StaffID, start, end time.Time, exclude domain.LeaveIntervalID) ([]Interval, error)
	ListByStaff(ctx context.Context, staff domain.StaffID) ([]Interval, error)
	// DecidedInRange returns intervals whose decision timestamp falls within
	// [from, to]; the performance timeline reads leave history through this.
	DecidedInRange(ctx context.Context, staff domain.StaffID, from, to time.Time) ([]Interval, error)
}
