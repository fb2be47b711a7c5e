// Package attendance records lateness events fed in from the front desk.
// Events carry a store-assigned sequence number; the escalation engine's
// late-arrivals rule consumes them by sequence so replays and retries cannot
// double-count.
package attendance

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

const targetTypeLateness = "lateness_event"

// Event is one late arrival. Seq is assigned on append and is monotonic per
// store, not per staff member.
type Event struct {
	Seq         uint64
	Staff       domain.StaffID
	Date        time.Time
	MinutesLate int
	Note        string
	RecordedBy  domain.StaffID
	RecordedAt  time.Time
}

type Store interface {
	// Append assigns Seq and persists the event.
	Append(ctx context.Context, event *Event) error
	// ListByStaffSince returns events for the staff member with Seq greater
	// than after, oldest-first.
	ListByStaffSince(ctx context.Context, staff domain.StaffID, after uint64) ([]Event, error)
	ListByStaffBetween(ctx context.Context, staff domain.StaffID, from, to time.Time) ([]Event, error)
}

// Listener is notified after a lateness event commits. The escalation engine
// registers here.
type Listener interface {
	LatenessRecorded(ctx context.Context, event Event)
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
	Staff       domain.StaffID
	Date        time.Time
	MinutesLate int
	Note        string
}

// Record appends one lateness event and pushes it through the escalation
// rules.
func (s *Service) Record(ctx context.Context, req RecordRequest) (Event, error) {
	if req.MinutesLate <= 0 {
		return Event{}, dErrors.New(dErrors.CodeInvalidInput, "minutes late must be positive")
	}

	actor := requestcontext.ActorID(ctx)
	event := Event{
		Staff:       req.Staff,
		Date:        domain.DateOnly(req.Date),
		MinutesLate: req.MinutesLate,
		Note:        req.Note,
		RecordedBy:  actor,
		RecordedAt:  s.now().UTC(),
	}

	err := s.runner.InTx(ctx, func(ctx context.Context) error {
		details := map[string]any{
			"staff_id":     event.Staff.String(),
			"date":         event.Date.Format("2006-01-02"),
			"minutes_late": event.MinutesLate,
		}
		if _, err := s.audits.Record(ctx, &actor, audit.ActionLatenessRecorded, targetTypeLateness, event.Staff.String(), details, requestcontext.Origin(ctx)); err != nil {
			return err
		}
		return s.store.Append(ctx, &event)
	})
	if err != nil {
		return Event{}, err
	}

	s.logger.InfoContext(ctx, "lateness recorded",
		slog.String("staff_id", event.Staff.String()),
		slog.Uint64("seq", event.Seq),
	)
	for _, l := range s.listeners {
		l.LatenessRecorded(ctx, event)
	}
	return event, nil
}

// Since returns events past the given sequence number, oldest-first.
func (s *Service) Since(ctx context.Context, staff domain.StaffID, after uint64) ([]Event, error) {
	return s.store.ListByStaffSince(ctx, staff, after)
}

func (s *Service) HistoryBetween(ctx context.Context, staff domain.StaffID, from, to time.Time) ([]Event, error) {
	return s.store.ListByStaffBetween(ctx, staff, from, to)
}
