// Package recognition records positive events: praise from a manager or a
// best-of-period award. Insert-only, like warnings, so the performance
// timeline shows both sides of the record.
package recognition

import (
	"context"
	"log/slog"
	"strings"
	"time"

	dErrors "practiceops/pkg/domain-errors"
	"practiceops/pkg/domain"
	"practiceops/pkg/platform/audit"
	"practiceops/pkg/platform/tx"
	"practiceops/pkg/requestcontext"
)

const targetTypeRecognition = "recognition"

type Kind string

const (
	KindPraise       Kind = "Praise"
	KindBestOfPeriod Kind = "Best_Of_Period"
)

// Event is one recognition. GivenBy is nil for system-granted awards.
type Event struct {
	ID      domain.RecognitionID
	Staff   domain.StaffID
	Kind    Kind
	Message string
	GivenBy *domain.StaffID
	GivenAt time.Time
}

type Store interface {
	Create(ctx context.Context, event *Event) error
	ListByStaffBetween(ctx context.Context, staff domain.StaffID, from, to time.Time) ([]Event, error)
}

type Service struct {
	store  Store
	audits *audit.Recorder
	runner tx.Runner
	logger *slog.Logger
	now    func() time.Time
}

func NewService(store Store, audits *audit.Recorder, runner tx.Runner, logger *slog.Logger) *Service {
	return &Service{store: store, audits: audits, runner: runner, logger: logger, now: time.Now}
}

// Give records a manager's recognition of a staff member.
func (s *Service) Give(ctx context.Context, staffID domain.StaffID, message string) (Event, error) {
	if strings.TrimSpace(message) == "" {
		return Event{}, dErrors.New(dErrors.CodeInvalidInput, "recognition message must not be empty")
	}

	actor := requestcontext.ActorID(ctx)
	event := Event{
		ID:      domain.NewRecognitionID(),
		Staff:   staffID,
		Kind:    KindPraise,
		Message: message,
		GivenBy: &actor,
		GivenAt: s.now().UTC(),
	}

	err := s.runner.InTx(ctx, func(ctx context.Context) error {
		details := map[string]any{
			"staff_id": event.Staff.String(),
			"kind":     string(event.Kind),
		}
		if _, err := s.audits.Record(ctx, &actor, audit.ActionRecognitionGiven, targetTypeRecognition, event.ID.String(), details, requestcontext.Origin(ctx)); err != nil {
			return err
		}
		return s.store.Create(ctx, &event)
	})
	if err != nil {
		return Event{}, err
	}

	s.logger.InfoContext(ctx, "recognition given",
		slog.String("recognition_id", event.ID.String()),
		slog.String("staff_id", event.Staff.String()),
	)
	return event, nil
}

// Award records a system-granted best-of-period recognition.
func (s *Service) Award(ctx context.Context, staffID domain.StaffID, periodKey string) (Event, error) {
	event := Event{
		ID:      domain.NewRecognitionID(),
		Staff:   staffID,
		Kind:    KindBestOfPeriod,
		Message: "Best performer of " + periodKey,
		GivenAt: s.now().UTC(),
	}

	err := s.runner.InTx(ctx, func(ctx context.Context) error {
		details := map[string]any{
			"staff_id": event.Staff.String(),
			"kind":     string(event.Kind),
			"period":   periodKey,
		}
		if _, err := s.audits.Record(ctx, nil, audit.ActionRecognitionGiven, targetTypeRecognition, event.ID.String(), details, audit.OriginSystem); err != nil {
			return err
		}
		return s.store.Create(ctx, &event)
	})
	if err != nil {
		return Event{}, err
	}
	return event, nil
}

func (s *Service) HistoryBetween(ctx context.Context, staff domain.StaffID, from, to time.Time) ([]Event, error) {
	return s.store.ListByStaffBetween(ctx, staff, from, to)
}
