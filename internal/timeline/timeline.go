// Package timeline assembles one staff member's performance history from the
// underlying ledgers. The timeline is never stored; it is rebuilt from the
// sources on every read, so it cannot drift from the records it summarizes.
package timeline

import (
	"context"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"practiceops/internal/kpi"
	"practiceops/internal/leave"
	"practiceops/internal/recognition"
	"practiceops/internal/tasks"
	"practiceops/internal/warning"
	dErrors "practiceops/pkg/domain-errors"
	"practiceops/pkg/domain"
)

type EventType string

const (
	EventWarning      EventType = "Warning"
	EventRecognition  EventType = "Recognition"
	EventKPIScore     EventType = "KPI_Score"
	EventTaskComplete EventType = "Task_Complete"
	EventLeave        EventType = "Leave"
)

// KPIScoreEntry is the timeline's view of one closed period's score.
type KPIScoreEntry struct {
	Score    kpi.Score
	ClosedAt time.Time
}

// Event is one timeline entry. Exactly one payload pointer is set, matching
// Type.
type Event struct {
	Time        time.Time
	Type        EventType
	Warning     *warning.Record
	Recognition *recognition.Event
	KPIScore    *KPIScoreEntry
	Task        *tasks.Event
	Leave       *leave.Interval
}

type WarningSource interface {
	HistoryBetween(ctx context.Context, staff domain.StaffID, from, to time.Time) ([]warning.Record, error)
}

type RecognitionSource interface {
	HistoryBetween(ctx context.Context, staff domain.StaffID, from, to time.Time) ([]recognition.Event, error)
}

type TaskSource interface {
	CompletedBetween(ctx context.Context, staff domain.StaffID, from, to time.Time) ([]tasks.Event, error)
}

type LeaveSource interface {
	HistoryBetween(ctx context.Context, staff domain.StaffID, from, to time.Time) ([]leave.Interval, error)
}

type ScoreSource interface {
	ClosedBetween(ctx context.Context, from, to time.Time) ([]kpi.ClosedPeriod, error)
	ScoreFor(ctx context.Context, staff domain.StaffID, periodKey string) (kpi.Score, bool, error)
}

type Service struct {
	warnings     WarningSource
	recognitions RecognitionSource
	taskEvents   TaskSource
	leaves       LeaveSource
	scores       ScoreSource
}

func NewService(warnings WarningSource, recognitions RecognitionSource, taskEvents TaskSource, leaves LeaveSource, scores ScoreSource) *Service {
	return &Service{
		warnings:     warnings,
		recognitions: recognitions,
		taskEvents:   taskEvents,
		leaves:       leaves,
		scores:       scores,
	}
}

// Build assembles the timeline for [from, to], oldest-first. The five sources
// are read concurrently; one failing source fails the whole read rather than
// returning a silently incomplete history.
func (s *Service) Build(ctx context.Context, staff domain.StaffID, from, to time.Time) ([]Event, error) {
	if from.After(to) {
		return nil, dErrors.New(dErrors.CodeInvalidRange, "timeline start is after end")
	}

	var (
		warnings     []warning.Record
		recognitions []recognition.Event
		completed    []tasks.Event
		leaves       []leave.Interval
		scores       []KPIScoreEntry
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		warnings, err = s.warnings.HistoryBetween(gctx, staff, from, to)
		return err
	})
	g.Go(func() error {
		var err error
		recognitions, err = s.recognitions.HistoryBetween(gctx, staff, from, to)
		return err
	})
	g.Go(func() error {
		var err error
		completed, err = s.taskEvents.CompletedBetween(gctx, staff, from, to)
		return err
	})
	g.Go(func() error {
		var err error
		leaves, err = s.leaves.HistoryBetween(gctx, staff, from, to)
		return err
	})
	g.Go(func() error {
		closed, err := s.scores.ClosedBetween(gctx, from, to)
		if err != nil {
			return err
		}
		for _, cp := range closed {
			score, ok, err := s.scores.ScoreFor(gctx, staff, cp.PeriodKey)
			if err != nil {
				return err
			}
			if !ok {
				continue
			}
			scores = append(scores, KPIScoreEntry{Score: score, ClosedAt: cp.ClosedAt})
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "assemble timeline")
	}

	events := make([]Event, 0, len(warnings)+len(recognitions)+len(completed)+len(leaves)+len(scores))
	for i := range warnings {
		w := warnings[i]
		events = append(events, Event{Time: w.IssuedAt, Type: EventWarning, Warning: &w})
	}
	for i := range recognitions {
		r := recognitions[i]
		events = append(events, Event{Time: r.GivenAt, Type: EventRecognition, Recognition: &r})
	}
	for i := range completed {
		t := completed[i]
		events = append(events, Event{Time: t.RecordedAt, Type: EventTaskComplete, Task: &t})
	}
	for i := range leaves {
		iv := leaves[i]
		events = append(events, Event{Time: *iv.DecidedAt, Type: EventLeave, Leave: &iv})
	}
	for i := range scores {
		sc := scores[i]
		events = append(events, Event{Time: sc.ClosedAt, Type: EventKPIScore, KPIScore: &sc})
	}

	// Stable sort over a fixed append order keeps same-instant events in a
	// deterministic sequence, so rebuilding yields an identical timeline.
	sort.SliceStable(events, func(i, j int) bool { return events[i].Time.Before(events[j].Time) })
	return events, nil
}
