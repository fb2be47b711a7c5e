package warning

import (
	"context"
	"time"

	"practiceops/pkg/domain"
)

// Store is insert-only: Create and reads, nothing else.
type Store interface {
	Create(ctx context.Context, record *Record) error
	Get(ctx context.Context, id domain.WarningID) (Record, error)
	ListByStaff(ctx context.Context, staff domain.StaffID) ([]Record, error)
	ListByStaffBetween(ctx context.Context, staff domain.StaffID, from, to time.Time) ([]Record, error)
}
