package kpi

import (
	"context"
	"time"

	"practiceops/pkg/domain"
)

// Store is the persistence contract for observations and closed periods.
//
// MarkClosed returns sentinel.ErrConflict (wrapped) when the period is
// already closed; there is no reopen method.
type Store interface {
	AddObservation(ctx context.Context, obs *Observation) error
	ObservationsByStaff(ctx context.Context, staff domain.StaffID, periodKey string) ([]Observation, error)
	ObservationsByPeriod(ctx context.Context, periodKey string) ([]Observation, error)
	MarkClosed(ctx context.Context, closed ClosedPeriod) error
	Closed(ctx context.Context, periodKey string) (ClosedPeriod, bool, error)
	// ClosedBetween returns periods closed within [from, to], ordered by close
	// time.
	ClosedBetween(ctx context.Context, from, to time.Time) ([]ClosedPeriod, error)
}
