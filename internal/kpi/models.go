// Package kpi implements the KPI aggregator: scored observations grouped
// into weekly or monthly periods, aggregate percentages, rankings, and the
// period close that freezes a window and feeds the escalation rules.
package kpi

import (
	"time"

	"practiceops/pkg/domain"
)

type Category string

const (
	CategoryPatientCare  Category = "Patient_Care"
	CategoryProductivity Category = "Productivity"
	CategoryTeamwork     Category = "Teamwork"
	CategoryCompliance   Category = "Compliance"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryPatientCare, CategoryProductivity, CategoryTeamwork, CategoryCompliance:
		return true
	}
	return false
}

// Observation is one boolean data point: the staff member either met the
// expectation or did not. Observations are never edited after recording.
type Observation struct {
	ID         domain.ObservationID
	Staff      domain.StaffID
	PeriodKey  string
	Category   Category
	Met        bool
	Note       string
	RecordedBy domain.StaffID
	RecordedAt time.Time
}

// Score is the aggregate for one staff member in one period. Percent is met
// over total across every observation, regardless of category.
type Score struct {
	Staff     domain.StaffID
	PeriodKey string
	Met       int
	Total     int
	Percent   float64
	Passing   bool
}

// ClosedPeriod marks a period whose observations are frozen.
type ClosedPeriod struct {
	PeriodKey string
	Kind      PeriodKind
	ClosedBy  domain.StaffID
	ClosedAt  time.Time
}
