// Package audit is the append-only event sink every state-changing operation
// writes through. Entries are hash-chained so tampering with history is
// detectable, and no update or delete path exists at any layer: the Store
// interface exposes Append and List only, which makes immutability structural
// rather than a matter of permissions.
package audit

import (
	"time"

	"practiceops/pkg/domain"
)

// Category classifies audit entries by their primary purpose.
// This enables different retention policies and downstream routing.
type Category string

const (
	// CategoryCompliance covers entries with HR/legal significance: leave
	// decisions, warnings, KPI period closes.
	CategoryCompliance Category = "compliance"

	// CategoryOperations covers routine record-keeping: schedule changes,
	// KPI observations, lateness and task events.
	CategoryOperations Category = "operations"
)

// OriginSystem marks entries produced by the rules engine rather than a
// network request.
const OriginSystem = "system"

// Entry is a single audit record. Actor is nil for system-originated entries
// (escalation rule firings). Seq and the hash pair are assigned by the store
// on append; insertion order equals time order.
type Entry struct {
	ID         domain.AuditEntryID
	Seq        uint64
	Actor      *domain.StaffID
	Action     Action
	TargetType string
	TargetID   string
	Details    map[string]any
	Origin     string
	Timestamp  time.Time
	PrevHash   string
	Hash       string
}

// Action is the verb recorded for an audit entry.
type Action string

const (
	ActionLeaveSubmitted     Action = "leave_submitted"
	ActionLeaveApproved      Action = "leave_approved"
	ActionLeaveRejected      Action = "leave_rejected"
	ActionScheduleAssigned   Action = "schedule_assigned"
	ActionScheduleUnassigned Action = "schedule_unassigned"
	ActionKPIObserved        Action = "kpi_observation_recorded"
	ActionKPIPeriodClosed    Action = "kpi_period_closed"
	ActionWarningIssued      Action = "warning_issued"
	ActionWarningTriggered   Action = "warning_auto_triggered"
	ActionLatenessRecorded   Action = "lateness_recorded"
	ActionTaskOutcome        Action = "task_outcome_recorded"
	ActionRecognitionGiven   Action = "recognition_given"
)

// actionCategories maps each action to its retention category. Actions not
// listed default to operations.
var actionCategories = map[Action]Category{
	ActionLeaveApproved:    CategoryCompliance,
	ActionLeaveRejected:    CategoryCompliance,
	ActionWarningIssued:    CategoryCompliance,
	ActionWarningTriggered: CategoryCompliance,
	ActionKPIPeriodClosed:  CategoryCompliance,
}

// Category returns the retention category for the action.
func (a Action) Category() Category {
	if c, ok := actionCategories[a]; ok {
		return c
	}
	return CategoryOperations
}

// Filter narrows a Query. Zero values mean "any".
type Filter struct {
	Actor      *domain.StaffID
	Action     Action
	TargetType string
	TargetID   string
	From       time.Time
	To         time.Time
	Limit      int
}

// Matches reports whether the entry passes the filter. Shared by the memory
// store and tests; the postgres store translates the same semantics to SQL.
func (f Filter) Matches(e Entry) bool {
	if f.Actor != nil {
		if e.Actor == nil || *e.Actor != *f.Actor {
			return false
		}
	}
	if f.Action != "" && e.Action != f.Action {
		return false
	}
	if f.TargetType != "" && e.TargetType != f.TargetType {
		return false
	}
	if f.TargetID != "" && e.TargetID != f.TargetID {
		return false
	}
	if !f.From.IsZero() && e.Timestamp.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && e.Timestamp.After(f.To) {
		return false
	}
	return true
}
