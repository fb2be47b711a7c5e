package kpi

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"practiceops/internal/staff"
	dErrors "practiceops/pkg/domain-errors"
	"practiceops/pkg/domain"
	"practiceops/pkg/platform/audit"
	auditmem "practiceops/pkg/platform/audit/store/memory"
	"practiceops/pkg/platform/tx"
	"practiceops/pkg/requestcontext"
)

type KPIServiceSuite struct {
	suite.Suite

	ctx       context.Context
	store     *InMemoryStore
	directory *staff.InMemoryDirectory
	auditLog  *auditmem.Store
	service   *Service

	manager domain.StaffID
	period  Period
}

func TestKPIServiceSuite(t *testing.T) {
	suite.Run(t, new(KPIServiceSuite))
}

func (s *KPIServiceSuite) SetupTest() {
	s.store = NewInMemoryStore()
	s.directory = staff.NewInMemoryDirectory()
	s.auditLog = auditmem.New()
	recorder := audit.NewRecorder(s.auditLog)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	s.service = NewService(s.store, s.directory, recorder, tx.NopRunner{}, nil, logger, 70)

	s.manager = domain.NewStaffID()
	s.ctx = requestcontext.WithActorID(context.Background(), s.manager)
	s.period = MonthOf(time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC))
}

func (s *KPIServiceSuite) seedMember(started time.Time) domain.StaffID {
	id := domain.NewStaffID()
	s.directory.Put(staff.Member{
		ID:        id,
		Name:      "member " + id.String()[:8],
		Role:      domain.RoleDentalAssistant,
		Status:    staff.StatusActive,
		StartDate: started,
	})
	return id
}

// observe records total observations for the staff member, the first met of
// which are marked as met.
func (s *KPIServiceSuite) observe(staffID domain.StaffID, met, total int) {
	for i := 0; i < total; i++ {
		_, err := s.service.RecordObservation(s.ctx, ObservationRequest{
			Staff:    staffID,
			Period:   s.period,
			Category: CategoryProductivity,
			Met:      i < met,
		})
		s.Require().NoError(err)
	}
}

func (s *KPIServiceSuite) TestRecordObservationValidation() {
	id := s.seedMember(time.Now())

	_, err := s.service.RecordObservation(s.ctx, ObservationRequest{
		Staff: id, Period: s.period, Category: Category("Vibes"), Met: true,
	})
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func (s *KPIServiceSuite) TestScoreAggregatesAcrossCategories() {
	id := s.seedMember(time.Now())
	s.observe(id, 4, 5)
	for _, met := range []bool{true, true, true, false, false} {
		_, err := s.service.RecordObservation(s.ctx, ObservationRequest{
			Staff: id, Period: s.period, Category: CategoryPatientCare, Met: met,
		})
		s.Require().NoError(err)
	}

	score, ok, err := s.service.ScoreFor(s.ctx, id, s.period.Key())
	s.Require().NoError(err)
	s.Require().True(ok)
	s.Equal(7, score.Met)
	s.Equal(10, score.Total)
	s.InDelta(70.0, score.Percent, 0.001)
	s.True(score.Passing, "exactly the threshold passes")
}

func (s *KPIServiceSuite) TestTwoOfThreeIsBelowThreshold() {
	id := s.seedMember(time.Now())
	s.observe(id, 2, 3)

	score, ok, err := s.service.ScoreFor(s.ctx, id, s.period.Key())
	s.Require().NoError(err)
	s.Require().True(ok)
	s.InDelta(66.667, score.Percent, 0.01)
	s.False(score.Passing)
}

func (s *KPIServiceSuite) TestNoObservationsMeansExcluded() {
	id := s.seedMember(time.Now())

	_, ok, err := s.service.ScoreFor(s.ctx, id, s.period.Key())
	s.Require().NoError(err)
	s.False(ok, "no data is exclusion, not a zero score")
}

func (s *KPIServiceSuite) TestRankOrderAndTieBreaks() {
	newer := s.seedMember(time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC))
	older := s.seedMember(time.Date(2020, time.June, 1, 0, 0, 0, 0, time.UTC))
	top := s.seedMember(time.Date(2023, time.June, 1, 0, 0, 0, 0, time.UTC))
	s.seedMember(time.Now()) // never observed, must not appear

	s.observe(top, 9, 10)
	s.observe(older, 8, 10)
	s.observe(newer, 8, 10)

	ranked, err := s.service.Rank(s.ctx, s.period.Key())
	s.Require().NoError(err)
	s.Require().Len(ranked, 3)
	s.Equal(top, ranked[0].Staff)
	s.Equal(older, ranked[1].Staff, "equal percentages rank the longer-tenured member first")
	s.Equal(newer, ranked[2].Staff)

	// Same data, same order.
	again, err := s.service.Rank(s.ctx, s.period.Key())
	s.Require().NoError(err)
	s.Equal(ranked, again)

	best, ok, err := s.service.BestOfPeriod(s.ctx, s.period.Key())
	s.Require().NoError(err)
	s.Require().True(ok)
	s.Equal(top, best.Staff)
}

func (s *KPIServiceSuite) TestBestOfEmptyPeriod() {
	s.seedMember(time.Now())
	_, ok, err := s.service.BestOfPeriod(s.ctx, s.period.Key())
	s.Require().NoError(err)
	s.False(ok)
}

func (s *KPIServiceSuite) TestClosePeriodFreezesWindow() {
	id := s.seedMember(time.Now())
	s.observe(id, 8, 10)

	closed, err := s.service.ClosePeriod(s.ctx, s.period)
	s.Require().NoError(err)
	s.Equal(s.period.Key(), closed.PeriodKey)
	s.Equal(s.manager, closed.ClosedBy)

	entries, err := s.auditLog.List(s.ctx, audit.Filter{Action: audit.ActionKPIPeriodClosed})
	s.Require().NoError(err)
	s.Len(entries, 1)

	_, err = s.service.ClosePeriod(s.ctx, s.period)
	s.True(dErrors.HasCode(err, dErrors.CodeAlreadyDecided))

	_, err = s.service.RecordObservation(s.ctx, ObservationRequest{
		Staff: id, Period: s.period, Category: CategoryTeamwork, Met: true,
	})
	s.True(dErrors.HasCode(err, dErrors.CodeAlreadyDecided))
}

type recordingListener struct {
	closed ClosedPeriod
	scores []Score
	calls  int
}

func (l *recordingListener) PeriodClosed(_ context.Context, closed ClosedPeriod, scores []Score) {
	l.closed = closed
	l.scores = scores
	l.calls++
}

func (s *KPIServiceSuite) TestCloseNotifiesListeners() {
	id := s.seedMember(time.Now())
	s.observe(id, 6, 10)

	listener := &recordingListener{}
	s.service.AddCloseListener(listener)

	_, err := s.service.ClosePeriod(s.ctx, s.period)
	s.Require().NoError(err)

	s.Equal(1, listener.calls)
	s.Equal(s.period.Key(), listener.closed.PeriodKey)
	s.Require().Len(listener.scores, 1)
	s.Equal(id, listener.scores[0].Staff)
	s.Equal(6, listener.scores[0].Met)
	s.Equal(10, listener.scores[0].Total)
	s.InDelta(60.0, listener.scores[0].Percent, 0.001)
}
