// Package leave implements the leave ledger: absence intervals that move from
// Pending to exactly one of Approved or Rejected and are immutable from then
// on. Corrections are new intervals, never edits, so the ledger stays a
// trustworthy history.
package leave

import (
	"fmt"
	"time"

	"practiceops/pkg/domain"
)

type Type string

const (
	TypeAnnual Type = "Annual"
	TypeSick   Type = "Sick"
	TypeUnpaid Type = "Unpaid"
	TypeOther  Type = "Other"
)

func (t Type) Valid() bool {
	switch t {
	case TypeAnnual, TypeSick, TypeUnpaid, TypeOther:
		return true
	}
	return false
}

type Status string

const (
	StatusPending  Status = "Pending"
	StatusApproved Status = "Approved"
	StatusRejected Status = "Rejected"
)

// Decision is the single allowed transition out of Pending.
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

// Interval is one absence request. Start and End are inclusive UTC dates.
// DecidedBy, DecidedAt, and DecisionNote are set exactly once, when the
// interval leaves Pending.
type Interval struct {
	ID           domain.LeaveIntervalID
	Staff        domain.StaffID
	Type         Type
	Start        time.Time
	End          time.Time
	Reason       string
	Status       Status
	DecidedBy    *domain.StaffID
	DecidedAt    *time.Time
	DecisionNote string
	CreatedAt    time.Time
}

// Covers reports whether the interval includes the given date.
func (i Interval) Covers(date time.Time) bool {
	d := domain.DateOnly(date)
	return !d.Before(i.Start) && !d.After(i.End)
}

// Overlaps reports whether two inclusive date intervals share any day.
func (i Interval) Overlaps(other Interval) bool {
	return !i.Start.After(other.End) && !other.Start.After(i.End)
}

// OverlapError carries the already-approved interval that blocks an approval,
// so the presentation layer can explain the conflict instead of just
// rejecting.
type OverlapError struct {
	Conflicting Interval
}

func (e *OverlapError) Error() string {
	return fmt.Sprintf("overlaps approved %s leave %s to %s",
		e.Conflicting.Type,
		e.Conflicting.Start.Format("2006-01-02"),
		e.Conflicting.End.Format("2006-01-02"),
	)
}

// ErrorDetails identifies the blocking interval for the error envelope.
func (e *OverlapError) ErrorDetails() map[string]any {
	return map[string]any{
		"interval_id": e.Conflicting.ID.String(),
		"type":        string(e.Conflicting.Type),
		"start":       e.Conflicting.Start.Format("2006-01-02"),
		"end":         e.Conflicting.End.Format("2006-01-02"),
	}
}
