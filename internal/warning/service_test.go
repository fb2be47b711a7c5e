package warning

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	dErrors "practiceops/pkg/domain-errors"
	"practiceops/pkg/domain"
	"practiceops/pkg/platform/audit"
	auditmem "practiceops/pkg/platform/audit/store/memory"
	"practiceops/pkg/platform/tx"
	"practiceops/pkg/requestcontext"
)

type WarningServiceSuite struct {
	suite.Suite

	ctx      context.Context
	store    *InMemoryStore
	auditLog *auditmem.Store
	service  *Service

	staff   domain.StaffID
	manager domain.StaffID
}

func TestWarningServiceSuite(t *testing.T) {
	suite.Run(t, new(WarningServiceSuite))
}

func (s *WarningServiceSuite) SetupTest() {
	s.store = NewInMemoryStore()
	s.auditLog = auditmem.New()
	recorder := audit.NewRecorder(s.auditLog)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	s.service = NewService(s.store, recorder, tx.NopRunner{}, nil, logger)

	s.staff = domain.NewStaffID()
	s.manager = domain.NewStaffID()
	s.ctx = requestcontext.WithActorID(context.Background(), s.manager)
}

func (s *WarningServiceSuite) TestIssueManual() {
	r, err := s.service.IssueManual(s.ctx, s.staff, "unprofessional conduct with patient")
	s.Require().NoError(err)
	s.Equal(KindManagerIssued, r.Kind)
	s.Equal(RuleManual, r.Rule)
	s.Require().NotNil(r.IssuedBy)
	s.Equal(s.manager, *r.IssuedBy)

	entries, err := s.auditLog.List(s.ctx, audit.Filter{Action: audit.ActionWarningIssued})
	s.Require().NoError(err)
	s.Require().Len(entries, 1)
	s.Equal(&s.manager, entries[0].Actor)
}

func (s *WarningServiceSuite) TestIssueManualRequiresReason() {
	_, err := s.service.IssueManual(s.ctx, s.staff, "   ")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func (s *WarningServiceSuite) TestIssueSystemHasNoActor() {
	r, err := s.service.IssueSystem(s.ctx, s.staff, RuleLateArrivals, "3 late arrivals")
	s.Require().NoError(err)
	s.Equal(KindSystemTriggered, r.Kind)
	s.Equal(RuleLateArrivals, r.Rule)
	s.Nil(r.IssuedBy)

	entries, err := s.auditLog.List(s.ctx, audit.Filter{Action: audit.ActionWarningTriggered})
	s.Require().NoError(err)
	s.Require().Len(entries, 1)
	s.Nil(entries[0].Actor)
	s.Equal(audit.OriginSystem, entries[0].Origin)
}

func (s *WarningServiceSuite) TestHistoryBetween() {
	first, err := s.service.IssueManual(s.ctx, s.staff, "first")
	s.Require().NoError(err)
	_, err = s.service.IssueSystem(s.ctx, s.staff, RuleTaskEscalation, "second")
	s.Require().NoError(err)
	_, err = s.service.IssueManual(s.ctx, domain.NewStaffID(), "other staff")
	s.Require().NoError(err)

	now := time.Now().UTC()
	history, err := s.service.HistoryBetween(s.ctx, s.staff, now.Add(-time.Hour), now.Add(time.Hour))
	s.Require().NoError(err)
	s.Require().Len(history, 2)
	s.Equal(first.ID, history[0].ID, "oldest first")
}
