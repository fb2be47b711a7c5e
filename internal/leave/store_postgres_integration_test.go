//go:build integration

package leave_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"practiceops/internal/leave"
	"practiceops/pkg/domain"
	audit "practiceops/pkg/platform/audit"
	auditpg "practiceops/pkg/platform/audit/store/postgres"
	"practiceops/pkg/platform/sentinel"
	"practiceops/pkg/platform/tx"
	"practiceops/pkg/testutil/containers"
)

type LeavePostgresSuite struct {
	suite.Suite

	pg    *containers.PostgresContainer
	store *leave.PostgresStore
}

func TestLeavePostgresSuite(t *testing.T) {
	suite.Run(t, new(LeavePostgresSuite))
}

func (s *LeavePostgresSuite) SetupSuite() {
	s.pg = containers.NewPostgresContainer(s.T())
	s.store = leave.NewPostgresStore(s.pg.DB)
}

func (s *LeavePostgresSuite) SetupTest() {
	s.Require().NoError(s.pg.Truncate(context.Background()))
}

func (s *LeavePostgresSuite) interval(staff domain.StaffID, start, end time.Time) leave.Interval {
	return leave.Interval{
		ID:        domain.NewLeaveIntervalID(),
		Staff:     staff,
		Type:      leave.TypeAnnual,
		Start:     start,
		End:       end,
		Reason:    "integration",
		Status:    leave.StatusPending,
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
}

func (s *LeavePostgresSuite) TestCreateAndGetRoundTrip() {
	ctx := context.Background()
	iv := s.interval(domain.NewStaffID(),
		time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 7, 3, 0, 0, 0, 0, time.UTC))
	s.Require().NoError(s.store.Create(ctx, &iv))

	got, err := s.store.Get(ctx, iv.ID)
	s.Require().NoError(err)
	s.Equal(iv.ID, got.ID)
	s.Equal(iv.Staff, got.Staff)
	s.Equal(leave.StatusPending, got.Status)
	s.True(got.Start.Equal(iv.Start))
	s.True(got.End.Equal(iv.End))
}

func (s *LeavePostgresSuite) TestGetUnknownIsNotFound() {
	_, err := s.store.Get(context.Background(), domain.NewLeaveIntervalID())
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *LeavePostgresSuite) TestMarkDecidedIsFinal() {
	ctx := context.Background()
	staffID := domain.NewStaffID()
	iv := s.interval(staffID,
		time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 7, 3, 0, 0, 0, 0, time.UTC))
	s.Require().NoError(s.store.Create(ctx, &iv))

	decider := domain.NewStaffID()
	now := time.Now().UTC().Truncate(time.Microsecond)
	decided := iv
	decided.Status = leave.StatusApproved
	decided.DecidedBy = &decider
	decided.DecidedAt = &now
	s.Require().NoError(s.store.MarkDecided(ctx, decided))

	got, err := s.store.Get(ctx, iv.ID)
	s.Require().NoError(err)
	s.Equal(leave.StatusApproved, got.Status)
	s.Require().NotNil(got.DecidedBy)
	s.Equal(decider, *got.DecidedBy)

	rejected := decided
	rejected.Status = leave.StatusRejected
	err = s.store.MarkDecided(ctx, rejected)
	s.ErrorIs(err, sentinel.ErrInvalidState)
}

func (s *LeavePostgresSuite) TestApprovedCoveringAndOverlap() {
	ctx := context.Background()
	staffID := domain.NewStaffID()
	iv := s.interval(staffID,
		time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 7, 3, 0, 0, 0, 0, time.UTC))
	s.Require().NoError(s.store.Create(ctx, &iv))

	// Pending intervals never count as cover.
	_, ok, err := s.store.ApprovedCovering(ctx, staffID, time.Date(2026, 7, 2, 0, 0, 0, 0, time.UTC))
	s.Require().NoError(err)
	s.False(ok)

	decider := domain.NewStaffID()
	now := time.Now().UTC()
	iv.Status = leave.StatusApproved
	iv.DecidedBy = &decider
	iv.DecidedAt = &now
	s.Require().NoError(s.store.MarkDecided(ctx, iv))

	_, ok, err = s.store.ApprovedCovering(ctx, staffID, time.Date(2026, 7, 2, 0, 0, 0, 0, time.UTC))
	s.Require().NoError(err)
	s.True(ok)

	_, ok, err = s.store.ApprovedCovering(ctx, staffID, time.Date(2026, 7, 4, 0, 0, 0, 0, time.UTC))
	s.Require().NoError(err)
	s.False(ok)

	overlaps, err := s.store.ApprovedOverlapping(ctx, staffID,
		time.Date(2026, 7, 3, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 7, 10, 0, 0, 0, 0, time.UTC),
		domain.NewLeaveIntervalID())
	s.Require().NoError(err)
	s.Len(overlaps, 1)
}

// TestAuditAndMutationCommitTogether drives the fail-closed pairing through a
// real transaction: when the closure errors after the audit append, neither
// the audit entry nor the interval survives.
func (s *LeavePostgresSuite) TestAuditAndMutationCommitTogether() {
	ctx := context.Background()
	runner := tx.SQLRunner{DB: s.pg.DB}
	auditStore := auditpg.New(s.pg.DB)
	recorder := audit.NewRecorder(auditStore)

	staffID := domain.NewStaffID()
	iv := s.interval(staffID,
		time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 8, 2, 0, 0, 0, 0, time.UTC))

	boom := errors.New("boom")
	err := runner.InTx(ctx, func(ctx context.Context) error {
		if _, err := recorder.Record(ctx, &staffID, audit.ActionLeaveSubmitted,
			"leave_interval", iv.ID.String(), nil, "10.0.0.1"); err != nil {
			return err
		}
		if err := s.store.Create(ctx, &iv); err != nil {
			return err
		}
		return boom
	})
	s.ErrorIs(err, boom)

	_, err = s.store.Get(ctx, iv.ID)
	s.ErrorIs(err, sentinel.ErrNotFound, "rolled back with the audit entry")
	entries, err := auditStore.ListChain(ctx)
	s.Require().NoError(err)
	s.Empty(entries)

	// The same closure without the failure commits both.
	err = runner.InTx(ctx, func(ctx context.Context) error {
		if _, err := recorder.Record(ctx, &staffID, audit.ActionLeaveSubmitted,
			"leave_interval", iv.ID.String(), nil, "10.0.0.1"); err != nil {
			return err
		}
		return s.store.Create(ctx, &iv)
	})
	s.Require().NoError(err)

	_, err = s.store.Get(ctx, iv.ID)
	s.Require().NoError(err)
	entries, err = auditStore.ListChain(ctx)
	s.Require().NoError(err)
	s.Len(entries, 1)
	s.NoError(audit.VerifyChain(entries))
}
