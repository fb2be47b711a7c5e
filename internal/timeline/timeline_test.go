package timeline

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"practiceops/internal/kpi"
	"practiceops/internal/leave"
	"practiceops/internal/recognition"
	"practiceops/internal/staff"
	"practiceops/internal/tasks"
	"practiceops/internal/warning"
	dErrors "practiceops/pkg/domain-errors"
	"practiceops/pkg/domain"
	"practiceops/pkg/platform/audit"
	auditmem "practiceops/pkg/platform/audit/store/memory"
	"practiceops/pkg/platform/keylock"
	"practiceops/pkg/platform/tx"
	"practiceops/pkg/requestcontext"
)

type TimelineSuite struct {
	suite.Suite

	ctx          context.Context
	warnings     *warning.Service
	recognitions *recognition.Service
	taskEvents   *tasks.Service
	leaves       *leave.Service
	kpis         *kpi.Service
	service      *Service

	staff   domain.StaffID
	manager domain.StaffID
}

func TestTimelineSuite(t *testing.T) {
	suite.Run(t, new(TimelineSuite))
}

func (s *TimelineSuite) SetupTest() {
	recorder := audit.NewRecorder(auditmem.New())
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	runner := tx.NopRunner{}

	s.staff = domain.NewStaffID()
	s.manager = domain.NewStaffID()
	s.ctx = requestcontext.WithActorID(context.Background(), s.manager)

	directory := staff.NewInMemoryDirectory()
	directory.Put(staff.Member{
		ID: s.staff, Name: "A. Assistant", Role: domain.RoleDentalAssistant,
		Status: staff.StatusActive, StartDate: time.Date(2023, time.May, 1, 0, 0, 0, 0, time.UTC),
	})

	s.warnings = warning.NewService(warning.NewInMemoryStore(), recorder, runner, nil, logger)
	s.recognitions = recognition.NewService(recognition.NewInMemoryStore(), recorder, runner, logger)
	s.taskEvents = tasks.NewService(tasks.NewInMemoryStore(), recorder, runner, logger)
	s.leaves = leave.NewService(leave.NewInMemoryStore(), recorder, keylock.New(), runner, nil, logger)
	s.kpis = kpi.NewService(kpi.NewInMemoryStore(), directory, recorder, runner, nil, logger, 70)

	s.service = NewService(s.warnings, s.recognitions, s.taskEvents, s.leaves, s.kpis)
}

func (s *TimelineSuite) TestBuildMergesAllSources() {
	_, err := s.warnings.IssueManual(s.ctx, s.staff, "late paperwork")
	s.Require().NoError(err)

	_, err = s.recognitions.Give(s.ctx, s.staff, "great patient feedback")
	s.Require().NoError(err)

	_, err = s.taskEvents.Record(s.ctx, tasks.RecordRequest{
		Task: domain.NewTaskID(), Staff: s.staff, Title: "autoclave log", Outcome: tasks.OutcomeCompleted,
	})
	s.Require().NoError(err)

	iv, err := s.leaves.Submit(s.ctx, leave.SubmitRequest{
		Staff: s.staff, Type: leave.TypeAnnual,
		Start: time.Date(2026, time.July, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2026, time.July, 3, 0, 0, 0, 0, time.UTC),
	})
	s.Require().NoError(err)
	_, err = s.leaves.Decide(s.ctx, iv.ID, leave.DecisionApprove, "")
	s.Require().NoError(err)

	period := kpi.MonthOf(time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC))
	_, err = s.kpis.RecordObservation(s.ctx, kpi.ObservationRequest{
		Staff: s.staff, Period: period, Category: kpi.CategoryProductivity, Met: true,
	})
	s.Require().NoError(err)
	_, err = s.kpis.ClosePeriod(s.ctx, period)
	s.Require().NoError(err)

	now := time.Now().UTC()
	events, err := s.service.Build(s.ctx, s.staff, now.Add(-time.Hour), now.Add(time.Hour))
	s.Require().NoError(err)
	s.Require().Len(events, 5)

	seen := make(map[EventType]bool)
	for i, e := range events {
		seen[e.Type] = true
		if i > 0 {
			s.False(e.Time.Before(events[i-1].Time), "events must be chronological")
		}
		// Exactly one payload is set.
		payloads := 0
		if e.Warning != nil {
			payloads++
		}
		if e.Recognition != nil {
			payloads++
		}
		if e.KPIScore != nil {
			payloads++
		}
		if e.Task != nil {
			payloads++
		}
		if e.Leave != nil {
			payloads++
		}
		s.Equal(1, payloads)
	}
	s.Len(seen, 5, "every source contributes")
}

func (s *TimelineSuite) TestRebuildIsIdentical() {
	_, err := s.warnings.IssueManual(s.ctx, s.staff, "first")
	s.Require().NoError(err)
	_, err = s.recognitions.Give(s.ctx, s.staff, "second")
	s.Require().NoError(err)

	now := time.Now().UTC()
	first, err := s.service.Build(s.ctx, s.staff, now.Add(-time.Hour), now.Add(time.Hour))
	s.Require().NoError(err)
	second, err := s.service.Build(s.ctx, s.staff, now.Add(-time.Hour), now.Add(time.Hour))
	s.Require().NoError(err)
	s.Equal(first, second)
}

func (s *TimelineSuite) TestWindowFiltersEvents() {
	_, err := s.warnings.IssueManual(s.ctx, s.staff, "inside window")
	s.Require().NoError(err)

	past := time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)
	events, err := s.service.Build(s.ctx, s.staff, past, past.AddDate(0, 0, 1))
	s.Require().NoError(err)
	s.Empty(events)
}

func (s *TimelineSuite) TestInvertedRangeRejected() {
	now := time.Now().UTC()
	_, err := s.service.Build(s.ctx, s.staff, now, now.Add(-time.Hour))
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidRange))
}

func (s *TimelineSuite) TestPendingLeaveExcluded() {
	_, err := s.leaves.Submit(s.ctx, leave.SubmitRequest{
		Staff: s.staff, Type: leave.TypeSick,
		Start: time.Date(2026, time.July, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2026, time.July, 1, 0, 0, 0, 0, time.UTC),
	})
	s.Require().NoError(err)

	now := time.Now().UTC()
	events, err := s.service.Build(s.ctx, s.staff, now.Add(-time.Hour), now.Add(time.Hour))
	s.Require().NoError(err)
	s.Empty(events, "undecided leave has no decision time and stays off the timeline")
}
