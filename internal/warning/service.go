package warning

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	dErrors "practiceops/pkg/domain-errors"
	"practiceops/pkg/domain"
	"practiceops/pkg/platform/audit"
	"practiceops/pkg/platform/metrics"
	"practiceops/pkg/platform/sentinel"
	"practiceops/pkg/platform/tx"
	"practiceops/pkg/requestcontext"
)

const targetTypeWarning = "warning"

type Service struct {
	store   Store
	audits  *audit.Recorder
	runner  tx.Runner
	metrics *metrics.Metrics
	logger  *slog.Logger
	now     func() time.Time
}

func NewService(store Store, audits *audit.Recorder, runner tx.Runner, m *metrics.Metrics, logger *slog.Logger) *Service {
	return &Service{
		store:   store,
		audits:  audits,
		runner:  runner,
		metrics: m,
		logger:  logger,
		now:     time.Now,
	}
}

// IssueManual records a manager-issued warning. A reason is mandatory; the
// record is the paper trail.
func (s *Service) IssueManual(ctx context.Context, staffID domain.StaffID, reason string) (Record, error) {
	if strings.TrimSpace(reason) == "" {
		return Record{}, dErrors.New(dErrors.CodeInvalidInput, "warning reason must not be empty")
	}

	actor := requestcontext.ActorID(ctx)
	record := Record{
		ID:       domain.NewWarningID(),
		Staff:    staffID,
		Kind:     KindManagerIssued,
		Rule:     RuleManual,
		Reason:   reason,
		IssuedBy: &actor,
		IssuedAt: s.now().UTC(),
	}

	err := s.runner.InTx(ctx, func(ctx context.Context) error {
		details := map[string]any{
			"staff_id": record.Staff.String(),
			"reason":   record.Reason,
		}
		if _, err := s.audits.Record(ctx, &actor, audit.ActionWarningIssued, targetTypeWarning, record.ID.String(), details, requestcontext.Origin(ctx)); err != nil {
			return err
		}
		return s.store.Create(ctx, &record)
	})
	if err != nil {
		return Record{}, err
	}

	s.metrics.IncWarningEmitted(RuleManual)
	s.logger.InfoContext(ctx, "manual warning issued",
		slog.String("warning_id", record.ID.String()),
		slog.String("staff_id", record.Staff.String()),
	)
	return record, nil
}

// IssueSystem records a rule-triggered warning. Only the escalation engine
// calls this; the audit entry carries a nil actor and the system origin.
func (s *Service) IssueSystem(ctx context.Context, staffID domain.StaffID, rule, reason string) (Record, error) {
	record := Record{
		ID:       domain.NewWarningID(),
		Staff:    staffID,
		Kind:     KindSystemTriggered,
		Rule:     rule,
		Reason:   reason,
		IssuedAt: s.now().UTC(),
	}

	err := s.runner.InTx(ctx, func(ctx context.Context) error {
		details := map[string]any{
			"staff_id": record.Staff.String(),
			"rule":     record.Rule,
			"reason":   record.Reason,
		}
		if _, err := s.audits.Record(ctx, nil, audit.ActionWarningTriggered, targetTypeWarning, record.ID.String(), details, audit.OriginSystem); err != nil {
			return err
		}
		return s.store.Create(ctx, &record)
	})
	if err != nil {
		return Record{}, err
	}

	s.metrics.IncWarningEmitted(rule)
	s.logger.InfoContext(ctx, "system warning triggered",
		slog.String("warning_id", record.ID.String()),
		slog.String("staff_id", record.Staff.String()),
		slog.String("rule", record.Rule),
	)
	return record, nil
}

func (s *Service) Get(ctx context.Context, id domain.WarningID) (Record, error) {
	r, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return Record{}, dErrors.Wrap(err, dErrors.CodeNotFound, "warning not found")
		}
		return Record{}, dErrors.Wrap(err, dErrors.CodeInternal, "load warning")
	}
	return r, nil
}

func (s *Service) ListByStaff(ctx context.Context, staff domain.StaffID) ([]Record, error) {
	return s.store.ListByStaff(ctx, staff)
}

// HistoryBetween returns warnings issued within [from, to], oldest-first.
func (s *Service) HistoryBetween(ctx context.Context, staff domain.StaffID, from, to time.Time) ([]Record, error) {
	return s.store.ListByStaffBetween(ctx, staff, from, to)
}
