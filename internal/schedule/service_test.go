package schedule

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"practiceops/internal/leave"
	dErrors "practiceops/pkg/domain-errors"
	"practiceops/pkg/domain"
	"practiceops/pkg/platform/audit"
	auditmem "practiceops/pkg/platform/audit/store/memory"
	"practiceops/pkg/platform/keylock"
	"practiceops/pkg/platform/tx"
	"practiceops/pkg/requestcontext"
)

type ScheduleServiceSuite struct {
	suite.Suite

	ctx      context.Context
	store    *InMemoryStore
	auditLog *auditmem.Store
	leaves   *leave.Service
	service  *Service

	staff   domain.StaffID
	manager domain.StaffID
}

func TestScheduleServiceSuite(t *testing.T) {
	suite.Run(t, new(ScheduleServiceSuite))
}

func (s *ScheduleServiceSuite) SetupTest() {
	s.store = NewInMemoryStore()
	s.auditLog = auditmem.New()
	recorder := audit.NewRecorder(s.auditLog)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	locks := keylock.New()

	s.leaves = leave.NewService(leave.NewInMemoryStore(), recorder, locks, tx.NopRunner{}, nil, logger)
	s.service = NewService(s.store, s.leaves, recorder, locks, tx.NopRunner{}, nil, logger)

	s.staff = domain.NewStaffID()
	s.manager = domain.NewStaffID()
	s.ctx = requestcontext.WithActorID(context.Background(), s.manager)
}

func (s *ScheduleServiceSuite) date(day int) time.Time {
	return time.Date(2026, time.April, day, 0, 0, 0, 0, time.UTC)
}

func (s *ScheduleServiceSuite) approveLeave(start, end int) leave.Interval {
	iv, err := s.leaves.Submit(s.ctx, leave.SubmitRequest{
		Staff: s.staff,
		Type:  leave.TypeAnnual,
		Start: s.date(start),
		End:   s.date(end),
	})
	s.Require().NoError(err)
	decided, err := s.leaves.Decide(s.ctx, iv.ID, leave.DecisionApprove, "")
	s.Require().NoError(err)
	return decided
}

func (s *ScheduleServiceSuite) TestAssignRecordsAssignment() {
	a, err := s.service.Assign(s.ctx, AssignRequest{
		Staff:      s.staff,
		Date:       s.date(10),
		Shift:      ShiftMorning,
		RoleOnDuty: domain.RoleDentalAssistant,
		Room:       "Surgery 2",
	})
	s.Require().NoError(err)
	s.Equal(s.manager, a.AssignedBy)
	s.Equal(s.date(10), a.Date)
	s.Equal(domain.RoleDentalAssistant, a.RoleOnDuty)

	stored, ok, err := s.store.ByStaffDate(s.ctx, s.staff, s.date(10))
	s.Require().NoError(err)
	s.Require().True(ok)
	s.Equal(domain.RoleDentalAssistant, stored.RoleOnDuty)

	entries, err := s.auditLog.List(s.ctx, audit.Filter{Action: audit.ActionScheduleAssigned})
	s.Require().NoError(err)
	s.Require().Len(entries, 1)
	s.Equal(a.ID.String(), entries[0].TargetID)
}

func (s *ScheduleServiceSuite) TestAssignRejectsUnknownShift() {
	_, err := s.service.Assign(s.ctx, AssignRequest{
		Staff:      s.staff,
		Date:       s.date(10),
		Shift:      Shift("Night"),
		RoleOnDuty: domain.RoleDentalAssistant,
	})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func (s *ScheduleServiceSuite) TestAssignRejectsUnknownRole() {
	_, err := s.service.Assign(s.ctx, AssignRequest{
		Staff:      s.staff,
		Date:       s.date(10),
		Shift:      ShiftMorning,
		RoleOnDuty: domain.Role("Janitor"),
	})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))

	_, err = s.service.Assign(s.ctx, AssignRequest{
		Staff: s.staff,
		Date:  s.date(10),
		Shift: ShiftMorning,
	})
	s.Require().Error(err, "the role on duty is required")
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func (s *ScheduleServiceSuite) TestAssignRejectsApprovedLeave() {
	s.approveLeave(10, 12)

	_, err := s.service.Assign(s.ctx, AssignRequest{
		Staff:      s.staff,
		Date:       s.date(11),
		Shift:      ShiftFullDay,
		RoleOnDuty: domain.RoleDentalAssistant,
	})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeLeaveConflict))

	var conflict *LeaveConflictError
	s.Require().True(errors.As(err, &conflict))
	s.Equal(leave.TypeAnnual, conflict.Leave.Type)

	// No assignment and no assignment audit entry were written.
	assignments, err := s.store.ListByDateRange(s.ctx, s.date(1), s.date(30))
	s.Require().NoError(err)
	s.Empty(assignments)
	entries, err := s.auditLog.List(s.ctx, audit.Filter{Action: audit.ActionScheduleAssigned})
	s.Require().NoError(err)
	s.Empty(entries)
}

func (s *ScheduleServiceSuite) TestAssignOutsideLeaveAllowed() {
	s.approveLeave(10, 12)

	_, err := s.service.Assign(s.ctx, AssignRequest{
		Staff:      s.staff,
		Date:       s.date(13),
		Shift:      ShiftMorning,
		RoleOnDuty: domain.RoleDentalAssistant,
	})
	s.NoError(err)
}

func (s *ScheduleServiceSuite) TestDuplicateSlotRejected() {
	_, err := s.service.Assign(s.ctx, AssignRequest{Staff: s.staff, Date: s.date(10), Shift: ShiftMorning, RoleOnDuty: domain.RoleDentalAssistant})
	s.Require().NoError(err)

	_, err = s.service.Assign(s.ctx, AssignRequest{Staff: s.staff, Date: s.date(10), Shift: ShiftAfternoon, RoleOnDuty: domain.RoleDentalAssistant})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeDuplicateAssignment))

	var dup *DuplicateError
	s.Require().True(errors.As(err, &dup))
	s.Equal(ShiftMorning, dup.Existing.Shift)

	// Other staff on the same date, and the same staff on another date, are fine.
	_, err = s.service.Assign(s.ctx, AssignRequest{Staff: domain.NewStaffID(), Date: s.date(10), Shift: ShiftMorning, RoleOnDuty: domain.RoleDentalAssistant})
	s.NoError(err)
	_, err = s.service.Assign(s.ctx, AssignRequest{Staff: s.staff, Date: s.date(11), Shift: ShiftMorning, RoleOnDuty: domain.RoleDentalAssistant})
	s.NoError(err)
}

func (s *ScheduleServiceSuite) TestConcurrentAssignSameSlot() {
	const attempts = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.service.Assign(s.ctx, AssignRequest{Staff: s.staff, Date: s.date(10), Shift: ShiftMorning, RoleOnDuty: domain.RoleDentalAssistant})
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	s.Equal(1, succeeded)
}

func (s *ScheduleServiceSuite) TestStatusForPrecedence() {
	st, err := s.service.StatusFor(s.ctx, s.staff, s.date(10))
	s.Require().NoError(err)
	s.Equal(StatusOff, st.Status)

	a, err := s.service.Assign(s.ctx, AssignRequest{Staff: s.staff, Date: s.date(10), Shift: ShiftMorning, RoleOnDuty: domain.RoleDentalAssistant})
	s.Require().NoError(err)

	st, err = s.service.StatusFor(s.ctx, s.staff, s.date(10))
	s.Require().NoError(err)
	s.Equal(StatusWorking, st.Status)
	s.Require().NotNil(st.Assignment)
	s.Equal(a.ID, st.Assignment.ID)

	// Leave approved after the assignment exists wins the status but does not
	// delete the assignment.
	s.approveLeave(10, 10)

	st, err = s.service.StatusFor(s.ctx, s.staff, s.date(10))
	s.Require().NoError(err)
	s.Equal(StatusOnLeave, st.Status)
	s.NotNil(st.Leave)

	_, still, err := s.store.ByStaffDate(s.ctx, s.staff, s.date(10))
	s.Require().NoError(err)
	s.True(still, "assignment survives the leave approval")
}

func (s *ScheduleServiceSuite) TestConflictsSurfacesLeaveOverAssignment() {
	a, err := s.service.Assign(s.ctx, AssignRequest{Staff: s.staff, Date: s.date(10), Shift: ShiftMorning, RoleOnDuty: domain.RoleDentalAssistant})
	s.Require().NoError(err)
	iv := s.approveLeave(9, 11)

	conflicts, err := s.service.Conflicts(s.ctx, s.date(1), s.date(30))
	s.Require().NoError(err)
	s.Require().Len(conflicts, 1)
	s.Equal(a.ID, conflicts[0].Assignment.ID)
	s.Equal(iv.ID, conflicts[0].Leave.ID)

	// Unassigning resolves the conflict.
	s.Require().NoError(s.service.Unassign(s.ctx, a.ID))
	conflicts, err = s.service.Conflicts(s.ctx, s.date(1), s.date(30))
	s.Require().NoError(err)
	s.Empty(conflicts)
}

func (s *ScheduleServiceSuite) TestUnassignAuditsAndDeletes() {
	a, err := s.service.Assign(s.ctx, AssignRequest{Staff: s.staff, Date: s.date(10), Shift: ShiftMorning, RoleOnDuty: domain.RoleDentalAssistant})
	s.Require().NoError(err)

	s.Require().NoError(s.service.Unassign(s.ctx, a.ID))

	entries, err := s.auditLog.List(s.ctx, audit.Filter{Action: audit.ActionScheduleUnassigned})
	s.Require().NoError(err)
	s.Len(entries, 1)

	err = s.service.Unassign(s.ctx, a.ID)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}
