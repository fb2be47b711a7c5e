// Package tasks records task outcome events fed in from the practice
// management system. A task becomes overdue, and later either completed or
// written off; "currently overdue" is derived from the latest event per task.
package tasks

import (
	"context"
	"log/slog"
	"time"

	dErrors "practiceops/pkg/domain-errors"
	"practiceops/pkg/domain"
	"practiceops/pkg/platform/audit"
	"practiceops/pkg/platform/tx"
	"practiceops/pkg/requestcontext"
)

const targetTypeTask = "task"

type Outcome string

const (
	OutcomeCompleted  Outcome = "Completed"
	OutcomeOverdue    Outcome = "Overdue"
	OutcomeWrittenOff Outcome = "Written_Off"
)

func (o Outcome) Valid() bool {
	switch o {
	case OutcomeCompleted, OutcomeOverdue, OutcomeWrittenOff:
		return true
	}
	return false
}

// Event is one task outcome. Seq is store-assigned and monotonic; the
// escalation engine's task rule consumes overdue events by sequence.
type Event struct {
	Seq        uint64
	Task       domain.TaskID
	Staff      domain.StaffID
	Title      string
	Outcome    Outcome
	RecordedBy domain.StaffID
	RecordedAt time.Time
}

type Store interface {
	Append(ctx context.Context, event *Event) error
	ListByStaffSince(ctx context.Context, staff domain.StaffID, after uint64) ([]Event, error)
	// OverdueCount returns the number of tasks whose latest event is Overdue.
	OverdueCount(ctx context.Context, staff domain.StaffID) (int, error)
	// CompletedBetween returns Completed events recorded in [from, to].
	CompletedBetween(ctx context.Context, staff domain.StaffID, from, to time.Time) ([]Event, error)
}

// Listener is notified after a task event commits.
type Listener interface {
	TaskEventRecorded(ctx context.Context, event Event)
}

type Service struct {
	store     Store
	audits    *audit.Recorder
	runner    tx.Runner
	logger    *slog.Logger
	listeners []Listener
	now       func() time.Time
}

func NewService(store Store, audits *audit.Recorder, runner tx.Runner, logger *slog.Logger) *Service {
	return &Service{store: store, audits: audits, runner: runner, logger: logger, now: time.Now}
}

func (s *Service) AddListener(l Listener) {
	s.listeners = append(s.listeners, l)
}

type RecordRequest struct {
	Task    domain.TaskID
	Staff   domain.StaffID
	Title   string
	Outcome Outcome
}

// Record appends one task outcome event and pushes it through the escalation
// rules.
func (s *Service) Record(ctx context.Context, req RecordRequest) (Event, error) {
	if !req.Outcome.Valid() {
		return Event{}, dErrors.New(dErrors.CodeInvalidInput, "unknown task outcome")
	}
	if req.Task == (domain.TaskID{}) {
		return Event{}, dErrors.New(dErrors.CodeInvalidInput, "task id required")
	}

	actor := requestcontext.ActorID(ctx)
	event := Event{
		Task:       req.Task,
		Staff:      req.Staff,
		Title:      req.Title,
		Outcome:    req.Outcome,
		RecordedBy: actor,
		RecordedAt: s.now().UTC(),
	}

	err := s.runner.InTx(ctx, func(ctx context.Context) error {
		details := map[string]any{
			"staff_id": event.Staff.String(),
			"outcome":  string(event.Outcome),
		}
		if event.Title != "" {
			details["title"] = event.Title
		}
		if _, err := s.audits.Record(ctx, &actor, audit.ActionTaskOutcome, targetTypeTask, event.Task.String(), details, requestcontext.Origin(ctx)); err != nil {
			return err
		}
		return s.store.Append(ctx, &event)
	})
	if err != nil {
		return Event{}, err
	}

	s.logger.InfoContext(ctx, "task outcome recorded",
		slog.String("task_id", event.Task.String()),
		slog.String("staff_id", event.Staff.String()),
		slog.String("outcome", string(event.Outcome)),
	)
	for _, l := range s.listeners {
		l.TaskEventRecorded(ctx, event)
	}
	return event, nil
}

func (s *Service) OverdueCount(ctx context.Context, staff domain.StaffID) (int, error) {
	return s.store.OverdueCount(ctx, staff)
}

func (s *Service) Since(ctx context.Context, staff domain.StaffID, after uint64) ([]Event, error) {
	return s.store.ListByStaffSince(ctx, staff, after)
}

func (s *Service) CompletedBetween(ctx context.Context, staff domain.StaffID, from, to time.Time) ([]Event, error) {
	return s.store.CompletedBetween(ctx, staff, from, to)
}
