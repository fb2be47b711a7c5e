// Package schedule implements the schedule validator: working-day assignments
// that are checked against the leave ledger before they exist. An assignment
// never coexists with a second one for the same staff member and date, and is
// refused outright when approved leave covers the date.
package schedule

import (
	"fmt"
	"time"

	"practiceops/internal/leave"
	"practiceops/pkg/domain"
)

type Shift string

const (
	ShiftMorning   Shift = "Morning"
	ShiftAfternoon Shift = "Afternoon"
	ShiftFullDay   Shift = "Full_Day"
)

func (s Shift) Valid() bool {
	switch s {
	case ShiftMorning, ShiftAfternoon, ShiftFullDay:
		return true
	}
	return false
}

// Assignment is one staff member working one date. Date is a UTC midnight
// date; at most one assignment exists per (staff, date). RoleOnDuty is the
// role the member covers that day, which can differ from their directory role
// when a manager fills in on reception.
type Assignment struct {
	ID         domain.AssignmentID
	Staff      domain.StaffID
	Date       time.Time
	Shift      Shift
	RoleOnDuty domain.Role
	Room       string
	AssignedBy domain.StaffID
	CreatedAt  time.Time
}

// Status is the resolved state of one staff member on one date. Approved
// leave wins over an assignment: leave that was approved while an assignment
// already existed is surfaced as a conflict, not silently resolved.
type Status string

const (
	StatusWorking Status = "Working"
	StatusOnLeave Status = "On_Leave"
	StatusOff     Status = "Off"
)

// DayStatus carries the resolved status plus whichever records produced it.
type DayStatus struct {
	Status     Status
	Assignment *Assignment
	Leave      *leave.Interval
}

// Conflict pairs an assignment with the approved leave interval covering its
// date. These exist only when leave was approved after the assignment was
// made; managers resolve them by unassigning.
type Conflict struct {
	Assignment Assignment
	Leave      leave.Interval
}

// DuplicateError carries the assignment already occupying the (staff, date)
// slot.
type DuplicateError struct {
	Existing Assignment
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("staff already assigned on %s", e.Existing.Date.Format("2006-01-02"))
}

// ErrorDetails identifies the occupying assignment for the error envelope.
func (e *DuplicateError) ErrorDetails() map[string]any {
	return map[string]any{
		"assignment_id": e.Existing.ID.String(),
		"date":          e.Existing.Date.Format("2006-01-02"),
		"shift":         string(e.Existing.Shift),
	}
}

// LeaveConflictError carries the approved leave interval blocking an
// assignment.
type LeaveConflictError struct {
	Leave leave.Interval
}

func (e *LeaveConflictError) Error() string {
	return fmt.Sprintf("staff on approved %s leave %s to %s",
		e.Leave.Type,
		e.Leave.Start.Format("2006-01-02"),
		e.Leave.End.Format("2006-01-02"),
	)
}

// ErrorDetails identifies the blocking leave interval for the error envelope.
func (e *LeaveConflictError) ErrorDetails() map[string]any {
	return map[string]any{
		"interval_id": e.Leave.ID.String(),
		"type":        string(e.Leave.Type),
		"start":       e.Leave.Start.Format("2006-01-02"),
		"end":         e.Leave.End.Format("2006-01-02"),
	}
}
