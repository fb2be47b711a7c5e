package kpi

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	dErrors "practiceops/pkg/domain-errors"
)

type PeriodKind string

const (
	PeriodWeek  PeriodKind = "week"
	PeriodMonth PeriodKind = "month"
)

// Period is a scoring window, either an ISO week or a calendar month. Start
// is the UTC midnight of the period's first day; Key is stable and sortable
// within a kind.
type Period struct {
	Kind  PeriodKind
	Start time.Time
}

// MonthOf returns the calendar-month period containing t.
func MonthOf(t time.Time) Period {
	t = t.UTC()
	return Period{
		Kind:  PeriodMonth,
		Start: time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC),
	}
}

// WeekOf returns the ISO-week period containing t. Weeks start Monday.
func WeekOf(t time.Time) Period {
	t = t.UTC()
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	offset := (int(day.Weekday()) + 6) % 7
	return Period{
		Kind:  PeriodWeek,
		Start: day.AddDate(0, 0, -offset),
	}
}

// Key renders the period as "2026-03" for months and "2026-W11" for weeks.
func (p Period) Key() string {
	switch p.Kind {
	case PeriodMonth:
		return p.Start.Format("2006-01")
	case PeriodWeek:
		year, week := p.Start.ISOWeek()
		return fmt.Sprintf("%d-W%02d", year, week)
	}
	return ""
}

// Prev returns the immediately preceding period of the same kind.
func (p Period) Prev() Period {
	switch p.Kind {
	case PeriodMonth:
		return Period{Kind: PeriodMonth, Start: p.Start.AddDate(0, -1, 0)}
	case PeriodWeek:
		return Period{Kind: PeriodWeek, Start: p.Start.AddDate(0, 0, -7)}
	}
	return p
}

// End returns the exclusive end of the period.
func (p Period) End() time.Time {
	switch p.Kind {
	case PeriodMonth:
		return p.Start.AddDate(0, 1, 0)
	case PeriodWeek:
		return p.Start.AddDate(0, 0, 7)
	}
	return p.Start
}

// Contains reports whether t falls inside the period.
func (p Period) Contains(t time.Time) bool {
	t = t.UTC()
	return !t.Before(p.Start) && t.Before(p.End())
}

// ParsePeriod reads a Key back into a Period.
func ParsePeriod(key string) (Period, error) {
	if idx := strings.Index(key, "-W"); idx > 0 {
		year, err := strconv.Atoi(key[:idx])
		if err != nil {
			return Period{}, dErrors.New(dErrors.CodeInvalidInput, "malformed period key")
		}
		week, err := strconv.Atoi(key[idx+2:])
		if err != nil || week < 1 || week > 53 {
			return Period{}, dErrors.New(dErrors.CodeInvalidInput, "malformed period key")
		}
		// January 4th is always in ISO week 1.
		jan4 := time.Date(year, time.January, 4, 0, 0, 0, 0, time.UTC)
		week1 := WeekOf(jan4)
		return Period{Kind: PeriodWeek, Start: week1.Start.AddDate(0, 0, (week-1)*7)}, nil
	}
	start, err := time.Parse("2006-01", key)
	if err != nil {
		return Period{}, dErrors.New(dErrors.CodeInvalidInput, "malformed period key")
	}
	return Period{Kind: PeriodMonth, Start: start}, nil
}
