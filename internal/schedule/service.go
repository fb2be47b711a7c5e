package schedule

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"practiceops/internal/leave"
	dErrors "practiceops/pkg/domain-errors"
	"practiceops/pkg/domain"
	"practiceops/pkg/platform/audit"
	"practiceops/pkg/platform/keylock"
	"practiceops/pkg/platform/metrics"
	"practiceops/pkg/platform/sentinel"
	"practiceops/pkg/platform/tx"
	"practiceops/pkg/requestcontext"
)

const targetTypeAssignment = "schedule_assignment"

// LeaveReader is the slice of the leave ledger the validator needs. Satisfied
// by *leave.Service.
type LeaveReader interface {
	ApprovedCovering(ctx context.Context, staff domain.StaffID, date time.Time) (leave.Interval, bool, error)
}

// Service validates and records assignments. It shares the staff-keyed lock
// with the leave ledger, so the leave check inside Assign cannot race a
// concurrent approval for the same staff member.
type Service struct {
	store   Store
	leaves  LeaveReader
	audits  *audit.Recorder
	locks   *keylock.Sharded
	runner  tx.Runner
	metrics *metrics.Metrics
	logger  *slog.Logger
	now     func() time.Time
}

func NewService(store Store, leaves LeaveReader, audits *audit.Recorder, locks *keylock.Sharded, runner tx.Runner, m *metrics.Metrics, logger *slog.Logger) *Service {
	return &Service{
		store:   store,
		leaves:  leaves,
		audits:  audits,
		locks:   locks,
		runner:  runner,
		metrics: m,
		logger:  logger,
		now:     time.Now,
	}
}

type AssignRequest struct {
	Staff      domain.StaffID
	Date       time.Time
	Shift      Shift
	RoleOnDuty domain.Role
	Room       string
}

// Assign creates one assignment after both checks pass: no approved leave
// covers the date, and the (staff, date) slot is free.
func (s *Service) Assign(ctx context.Context, req AssignRequest) (Assignment, error) {
	if !req.Shift.Valid() {
		return Assignment{}, dErrors.New(dErrors.CodeInvalidInput, "unknown shift")
	}
	if !req.RoleOnDuty.Valid() {
		return Assignment{}, dErrors.New(dErrors.CodeInvalidInput, "unknown role")
	}
	date := domain.DateOnly(req.Date)
	actor := requestcontext.ActorID(ctx)

	var assignment Assignment
	err := s.locks.Do(ctx, req.Staff.String(), func(ctx context.Context) error {
		onLeave, ok, err := s.leaves.ApprovedCovering(ctx, req.Staff, date)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "check leave ledger")
		}
		if ok {
			s.metrics.IncScheduleRejected("leave_conflict")
			return dErrors.Wrap(&LeaveConflictError{Leave: onLeave}, dErrors.CodeLeaveConflict, "staff member is on approved leave")
		}

		if existing, taken, err := s.store.ByStaffDate(ctx, req.Staff, date); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "check schedule slot")
		} else if taken {
			s.metrics.IncScheduleRejected("duplicate")
			return dErrors.Wrap(&DuplicateError{Existing: existing}, dErrors.CodeDuplicateAssignment, "staff member already assigned that date")
		}

		assignment = Assignment{
			ID:         domain.NewAssignmentID(),
			Staff:      req.Staff,
			Date:       date,
			Shift:      req.Shift,
			RoleOnDuty: req.RoleOnDuty,
			Room:       req.Room,
			AssignedBy: actor,
			CreatedAt:  s.now().UTC(),
		}

		return s.runner.InTx(ctx, func(ctx context.Context) error {
			details := map[string]any{
				"staff_id": assignment.Staff.String(),
				"date":     assignment.Date.Format("2006-01-02"),
				"shift":    string(assignment.Shift),
				"role":     string(assignment.RoleOnDuty),
			}
			if assignment.Room != "" {
				details["room"] = assignment.Room
			}
			if _, err := s.audits.Record(ctx, &actor, audit.ActionScheduleAssigned, targetTypeAssignment, assignment.ID.String(), details, requestcontext.Origin(ctx)); err != nil {
				return err
			}
			if err := s.store.Create(ctx, &assignment); err != nil {
				if errors.Is(err, sentinel.ErrConflict) {
					s.metrics.IncScheduleRejected("duplicate")
					return dErrors.Wrap(err, dErrors.CodeDuplicateAssignment, "staff member already assigned that date")
				}
				return dErrors.Wrap(err, dErrors.CodeInternal, "persist assignment")
			}
			return nil
		})
	})
	if err != nil {
		return Assignment{}, err
	}

	s.logger.InfoContext(ctx, "schedule assignment created",
		slog.String("assignment_id", assignment.ID.String()),
		slog.String("staff_id", assignment.Staff.String()),
		slog.String("date", assignment.Date.Format("2006-01-02")),
	)
	return assignment, nil
}

// Unassign removes an assignment. This is the resolution path for conflicts
// surfaced by Conflicts; removal is audited like any other mutation.
func (s *Service) Unassign(ctx context.Context, id domain.AssignmentID) error {
	assignment, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.Wrap(err, dErrors.CodeNotFound, "assignment not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "load assignment")
	}

	actor := requestcontext.ActorID(ctx)
	err = s.locks.Do(ctx, assignment.Staff.String(), func(ctx context.Context) error {
		return s.runner.InTx(ctx, func(ctx context.Context) error {
			details := map[string]any{
				"staff_id": assignment.Staff.String(),
				"date":     assignment.Date.Format("2006-01-02"),
			}
			if _, err := s.audits.Record(ctx, &actor, audit.ActionScheduleUnassigned, targetTypeAssignment, assignment.ID.String(), details, requestcontext.Origin(ctx)); err != nil {
				return err
			}
			if err := s.store.Delete(ctx, assignment.ID); err != nil {
				if errors.Is(err, sentinel.ErrNotFound) {
					return dErrors.Wrap(err, dErrors.CodeNotFound, "assignment not found")
				}
				return dErrors.Wrap(err, dErrors.CodeInternal, "delete assignment")
			}
			return nil
		})
	})
	if err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "schedule assignment removed",
		slog.String("assignment_id", assignment.ID.String()),
		slog.String("staff_id", assignment.Staff.String()),
	)
	return nil
}

// StatusFor resolves one staff member's state on one date. Approved leave
// wins even when an assignment exists for the same date.
func (s *Service) StatusFor(ctx context.Context, staff domain.StaffID, date time.Time) (DayStatus, error) {
	date = domain.DateOnly(date)

	onLeave, ok, err := s.leaves.ApprovedCovering(ctx, staff, date)
	if err != nil {
		return DayStatus{}, dErrors.Wrap(err, dErrors.CodeInternal, "check leave ledger")
	}
	if ok {
		return DayStatus{Status: StatusOnLeave, Leave: &onLeave}, nil
	}

	assignment, assigned, err := s.store.ByStaffDate(ctx, staff, date)
	if err != nil {
		return DayStatus{}, dErrors.Wrap(err, dErrors.CodeInternal, "check schedule slot")
	}
	if assigned {
		return DayStatus{Status: StatusWorking, Assignment: &assignment}, nil
	}
	return DayStatus{Status: StatusOff}, nil
}

// Conflicts returns every assignment in [from, to] whose date is covered by
// approved leave. A leave approval never deletes assignments, so these pairs
// persist until a manager unassigns.
func (s *Service) Conflicts(ctx context.Context, from, to time.Time) ([]Conflict, error) {
	assignments, err := s.store.ListByDateRange(ctx, domain.DateOnly(from), domain.DateOnly(to))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list assignments")
	}

	var out []Conflict
	for _, a := range assignments {
		iv, ok, err := s.leaves.ApprovedCovering(ctx, a.Staff, a.Date)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "check leave ledger")
		}
		if ok {
			out = append(out, Conflict{Assignment: a, Leave: iv})
		}
	}
	return out, nil
}

// ScheduleFor lists all assignments on the date.
func (s *Service) ScheduleFor(ctx context.Context, date time.Time) ([]Assignment, error) {
	d := domain.DateOnly(date)
	return s.store.ListByDateRange(ctx, d, d)
}

func (s *Service) ListByStaff(ctx context.Context, staff domain.StaffID, from, to time.Time) ([]Assignment, error) {
	return s.store.ListByStaff(ctx, staff, domain.DateOnly(from), domain.DateOnly(to))
}
