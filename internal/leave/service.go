package leave

import (
	"context"
	"errors"
	"log/slog"
	"time"

	dErrors "practiceops/pkg/domain-errors"
	"practiceops/pkg/domain"
	"practiceops/pkg/platform/audit"
	"practiceops/pkg/platform/keylock"
	"practiceops/pkg/platform/metrics"
	"practiceops/pkg/platform/sentinel"
	"practiceops/pkg/platform/tx"
	"practiceops/pkg/requestcontext"
)

const targetTypeLeave = "leave_interval"

// Service owns the leave ledger. Decisions serialize per staff member on the
// lock shared with the schedule validator, so an approval and a schedule
// assignment for the same person cannot interleave.
type Service struct {
	store   Store
	audits  *audit.Recorder
	locks   *keylock.Sharded
	runner  tx.Runner
	metrics *metrics.Metrics
	logger  *slog.Logger
	now     func() time.Time
}

func NewService(store Store, audits *audit.Recorder, locks *keylock.Sharded, runner tx.Runner, m *metrics.Metrics, logger *slog.Logger) *Service {
	return &Service{
		store:   store,
		audits:  audits,
		locks:   locks,
		runner:  runner,
		metrics: m,
		logger:  logger,
		now:     time.Now,
	}
}

// WithClock injects the time source for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

type SubmitRequest struct {
	Staff  domain.StaffID
	Type   Type
	Start  time.Time
	End    time.Time
	Reason string
}

// Submit records a new Pending interval. Overlap with other intervals is not
// checked here; conflicts are resolved at decision time, when the approver can
// see the full picture.
func (s *Service) Submit(ctx context.Context, req SubmitRequest) (Interval, error) {
	if !req.Type.Valid() {
		return Interval{}, dErrors.New(dErrors.CodeInvalidInput, "unknown leave type")
	}
	start := domain.DateOnly(req.Start)
	end := domain.DateOnly(req.End)
	if start.After(end) {
		return Interval{}, dErrors.New(dErrors.CodeInvalidRange, "leave start date is after end date")
	}

	interval := Interval{
		ID:        domain.NewLeaveIntervalID(),
		Staff:     req.Staff,
		Type:      req.Type,
		Start:     start,
		End:       end,
		Reason:    req.Reason,
		Status:    StatusPending,
		CreatedAt: s.now().UTC(),
	}

	actor := requestcontext.ActorID(ctx)
	err := s.runner.InTx(ctx, func(ctx context.Context) error {
		details := map[string]any{
			"leave_type": string(interval.Type),
			"start":      interval.Start.Format("2006-01-02"),
			"end":        interval.End.Format("2006-01-02"),
		}
		if _, err := s.audits.Record(ctx, &actor, audit.ActionLeaveSubmitted, targetTypeLeave, interval.ID.String(), details, requestcontext.Origin(ctx)); err != nil {
			return err
		}
		return s.store.Create(ctx, &interval)
	})
	if err != nil {
		return Interval{}, err
	}

	s.logger.InfoContext(ctx, "leave interval submitted",
		slog.String("interval_id", interval.ID.String()),
		slog.String("staff_id", interval.Staff.String()),
		slog.String("leave_type", string(interval.Type)),
	)
	return interval, nil
}

// Decide moves a Pending interval to Approved or Rejected. The transition
// happens at most once; a second decision returns CodeAlreadyDecided no matter
// the outcome asked for. Approval of an interval overlapping another approved
// interval for the same staff member fails with CodeOverlapConflict. Nobody
// decides their own leave, whatever capabilities their role carries.
func (s *Service) Decide(ctx context.Context, id domain.LeaveIntervalID, decision Decision, note string) (Interval, error) {
	if decision != DecisionApprove && decision != DecisionReject {
		return Interval{}, dErrors.New(dErrors.CodeInvalidInput, "decision must be approve or reject")
	}

	interval, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return Interval{}, dErrors.Wrap(err, dErrors.CodeNotFound, "leave interval not found")
		}
		return Interval{}, dErrors.Wrap(err, dErrors.CodeInternal, "load leave interval")
	}

	actor := requestcontext.ActorID(ctx)
	if actor == interval.Staff {
		return Interval{}, dErrors.New(dErrors.CodeForbidden, "staff cannot decide their own leave")
	}

	var decided Interval
	err = s.locks.Do(ctx, interval.Staff.String(), func(ctx context.Context) error {
		// Re-read under the lock; the first read raced against other deciders.
		current, err := s.store.Get(ctx, id)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "load leave interval")
		}
		if current.Status != StatusPending {
			return dErrors.New(dErrors.CodeAlreadyDecided, "leave interval was already decided")
		}

		if decision == DecisionApprove {
			overlapping, err := s.store.ApprovedOverlapping(ctx, current.Staff, current.Start, current.End, current.ID)
			if err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "check approved leave overlap")
			}
			if len(overlapping) > 0 {
				return dErrors.Wrap(&OverlapError{Conflicting: overlapping[0]}, dErrors.CodeOverlapConflict, "interval overlaps approved leave")
			}
		}

		now := s.now().UTC()
		decided = current
		decided.DecidedBy = &actor
		decided.DecidedAt = &now
		decided.DecisionNote = note
		if decision == DecisionApprove {
			decided.Status = StatusApproved
		} else {
			decided.Status = StatusRejected
		}

		action := audit.ActionLeaveApproved
		if decision == DecisionReject {
			action = audit.ActionLeaveRejected
		}
		return s.runner.InTx(ctx, func(ctx context.Context) error {
			details := map[string]any{
				"staff_id": decided.Staff.String(),
				"start":    decided.Start.Format("2006-01-02"),
				"end":      decided.End.Format("2006-01-02"),
			}
			if note != "" {
				details["note"] = note
			}
			if _, err := s.audits.Record(ctx, &actor, action, targetTypeLeave, decided.ID.String(), details, requestcontext.Origin(ctx)); err != nil {
				return err
			}
			if err := s.store.MarkDecided(ctx, decided); err != nil {
				if errors.Is(err, sentinel.ErrInvalidState) {
					return dErrors.Wrap(err, dErrors.CodeAlreadyDecided, "leave interval was already decided")
				}
				return dErrors.Wrap(err, dErrors.CodeInternal, "persist leave decision")
			}
			return nil
		})
	})
	if err != nil {
		return Interval{}, err
	}

	s.metrics.IncLeaveDecision(string(decided.Status))
	s.logger.InfoContext(ctx, "leave interval decided",
		slog.String("interval_id", decided.ID.String()),
		slog.String("staff_id", decided.Staff.String()),
		slog.String("status", string(decided.Status)),
	)
	return decided, nil
}

// IsOnApprovedLeave reports whether the staff member has an approved interval
// covering the date. The schedule validator consults this before every
// assignment.
func (s *Service) IsOnApprovedLeave(ctx context.Context, staff domain.StaffID, date time.Time) (bool, error) {
	_, ok, err := s.store.ApprovedCovering(ctx, staff, date)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "check approved leave")
	}
	return ok, nil
}

// ApprovedCovering returns the approved interval covering the date, if one
// exists.
func (s *Service) ApprovedCovering(ctx context.Context, staff domain.StaffID, date time.Time) (Interval, bool, error) {
	return s.store.ApprovedCovering(ctx, staff, date)
}

func (s *Service) Get(ctx context.Context, id domain.LeaveIntervalID) (Interval, error) {
	iv, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return Interval{}, dErrors.Wrap(err, dErrors.CodeNotFound, "leave interval not found")
		}
		return Interval{}, dErrors.Wrap(err, dErrors.CodeInternal, "load leave interval")
	}
	return iv, nil
}

func (s *Service) ListByStaff(ctx context.Context, staff domain.StaffID) ([]Interval, error) {
	return s.store.ListByStaff(ctx, staff)
}

// HistoryBetween returns intervals decided within [from, to], oldest-first.
// The performance timeline renders these as leave events at their decision
// time.
func (s *Service) HistoryBetween(ctx context.Context, staff domain.StaffID, from, to time.Time) ([]Interval, error) {
	return s.store.DecidedInRange(ctx, staff, from, to)
}
