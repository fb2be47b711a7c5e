//go:build integration

package schedule_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"practiceops/internal/schedule"
	"practiceops/pkg/domain"
	"practiceops/pkg/platform/sentinel"
	"practiceops/pkg/testutil/containers"
)

type SchedulePostgresSuite struct {
	suite.Suite

	pg    *containers.PostgresContainer
	store *schedule.PostgresStore
}

func TestSchedulePostgresSuite(t *testing.T) {
	suite.Run(t, new(SchedulePostgresSuite))
}

func (s *SchedulePostgresSuite) SetupSuite() {
	s.pg = containers.NewPostgresContainer(s.T())
	s.store = schedule.NewPostgresStore(s.pg.DB)
}

func (s *SchedulePostgresSuite) SetupTest() {
	s.Require().NoError(s.pg.Truncate(context.Background()))
}

func (s *SchedulePostgresSuite) assignment(staff domain.StaffID, date time.Time, shift schedule.Shift) schedule.Assignment {
	return schedule.Assignment{
		ID:         domain.NewAssignmentID(),
		Staff:      staff,
		Date:       date,
		Shift:      shift,
		RoleOnDuty: domain.RoleDentalAssistant,
		Room:       "Room 1",
		AssignedBy: domain.NewStaffID(),
		CreatedAt:  time.Now().UTC().Truncate(time.Microsecond),
	}
}

func (s *SchedulePostgresSuite) TestSlotUniqueConstraint() {
	ctx := context.Background()
	staffID := domain.NewStaffID()
	date := time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC)

	first := s.assignment(staffID, date, schedule.ShiftMorning)
	s.Require().NoError(s.store.Create(ctx, &first))

	second := s.assignment(staffID, date, schedule.ShiftAfternoon)
	err := s.store.Create(ctx, &second)
	s.ErrorIs(err, sentinel.ErrConflict, "the database enforces one assignment per slot")

	// A different date is a different slot.
	third := s.assignment(staffID, date.AddDate(0, 0, 1), schedule.ShiftMorning)
	s.NoError(s.store.Create(ctx, &third))
}

// TestConcurrentSlotWriters races real connections against the unique
// constraint. Exactly one insert wins regardless of interleaving.
func (s *SchedulePostgresSuite) TestConcurrentSlotWriters() {
	ctx := context.Background()
	staffID := domain.NewStaffID()
	date := time.Date(2026, 4, 20, 0, 0, 0, 0, time.UTC)

	const writers = 8
	var wg sync.WaitGroup
	errs := make([]error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			a := s.assignment(staffID, date, schedule.ShiftMorning)
			errs[i] = s.store.Create(ctx, &a)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			s.ErrorIs(err, sentinel.ErrConflict)
		}
	}
	s.Equal(1, succeeded)

	got, ok, err := s.store.ByStaffDate(ctx, staffID, date)
	s.Require().NoError(err)
	s.True(ok)
	s.Equal(schedule.ShiftMorning, got.Shift)
	s.Equal(domain.RoleDentalAssistant, got.RoleOnDuty)
}

func (s *SchedulePostgresSuite) TestDeleteAndRangeListing() {
	ctx := context.Background()
	staffID := domain.NewStaffID()
	a := s.assignment(staffID, time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC), schedule.ShiftFullDay)
	b := s.assignment(staffID, time.Date(2026, 4, 11, 0, 0, 0, 0, time.UTC), schedule.ShiftMorning)
	s.Require().NoError(s.store.Create(ctx, &a))
	s.Require().NoError(s.store.Create(ctx, &b))

	listed, err := s.store.ListByDateRange(ctx,
		time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 4, 11, 0, 0, 0, 0, time.UTC))
	s.Require().NoError(err)
	s.Len(listed, 2)

	s.Require().NoError(s.store.Delete(ctx, a.ID))
	s.ErrorIs(s.store.Delete(ctx, a.ID), sentinel.ErrNotFound)

	_, ok, err := s.store.ByStaffDate(ctx, staffID, a.Date)
	s.Require().NoError(err)
	s.False(ok)
}
