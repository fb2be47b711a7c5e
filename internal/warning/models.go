// Package warning holds the insert-only warning record. Warnings come from
// two places: the escalation engine (system-triggered, stamped with the rule
// that fired) and managers (manual, stamped with the issuer). Neither kind is
// ever edited or removed.
package warning

import (
	"time"

	"practiceops/pkg/domain"
)

type Kind string

const (
	KindSystemTriggered Kind = "System_Triggered"
	KindManagerIssued   Kind = "Manager_Issued"
)

// Rule identifiers for system-triggered warnings. Manual warnings carry
// RuleManual.
const (
	RuleLateArrivals    = "late_arrivals"
	RulePerformanceFlag = "performance_flag"
	RuleTaskEscalation  = "task_escalation"
	RuleManual          = "manual"
)

// Record is one warning. IssuedBy is nil for system-triggered warnings.
type Record struct {
	ID       domain.WarningID
	Staff    domain.StaffID
	Kind     Kind
	Rule     string
	Reason   string
	IssuedBy *domain.StaffID
	IssuedAt time.Time
}
