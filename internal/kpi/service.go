package kpi

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"time"

	"practiceops/internal/staff"
	dErrors "practiceops/pkg/domain-errors"
	"practiceops/pkg/domain"
	"practiceops/pkg/platform/audit"
	"practiceops/pkg/platform/metrics"
	"practiceops/pkg/platform/sentinel"
	"practiceops/pkg/platform/tx"
	"practiceops/pkg/requestcontext"
)

const targetTypePeriod = "kpi_period"

// CloseListener is notified after a period close commits, with the frozen
// scores. The escalation engine registers here; listener failures are logged
// and never unwind the close.
type CloseListener interface {
	PeriodClosed(ctx context.Context, closed ClosedPeriod, scores []Score)
}

type Service struct {
	store     Store
	directory staff.Directory
	audits    *audit.Recorder
	runner    tx.Runner
	metrics   *metrics.Metrics
	logger    *slog.Logger
	threshold float64
	listeners []CloseListener
	now       func() time.Time
}

func NewService(store Store, directory staff.Directory, audits *audit.Recorder, runner tx.Runner, m *metrics.Metrics, logger *slog.Logger, passingThreshold float64) *Service {
	return &Service{
		store:     store,
		directory: directory,
		audits:    audits,
		runner:    runner,
		metrics:   m,
		logger:    logger,
		threshold: passingThreshold,
		now:       time.Now,
	}
}

// AddCloseListener registers a listener for period closes. Call during wiring,
// before the service handles requests.
func (s *Service) AddCloseListener(l CloseListener) {
	s.listeners = append(s.listeners, l)
}

type ObservationRequest struct {
	Staff    domain.StaffID
	Period   Period
	Category Category
	Met      bool
	Note     string
}

// RecordObservation adds one boolean data point to an open period.
func (s *Service) RecordObservation(ctx context.Context, req ObservationRequest) (Observation, error) {
	if !req.Category.Valid() {
		return Observation{}, dErrors.New(dErrors.CodeInvalidInput, "unknown KPI category")
	}

	key := req.Period.Key()
	if key == "" {
		return Observation{}, dErrors.New(dErrors.CodeInvalidInput, "unknown period kind")
	}
	if _, closed, err := s.store.Closed(ctx, key); err != nil {
		return Observation{}, dErrors.Wrap(err, dErrors.CodeInternal, "check period state")
	} else if closed {
		return Observation{}, dErrors.New(dErrors.CodeAlreadyDecided, "period is closed")
	}

	actor := requestcontext.ActorID(ctx)
	obs := Observation{
		ID:         domain.NewObservationID(),
		Staff:      req.Staff,
		PeriodKey:  key,
		Category:   req.Category,
		Met:        req.Met,
		Note:       req.Note,
		RecordedBy: actor,
		RecordedAt: s.now().UTC(),
	}

	err := s.runner.InTx(ctx, func(ctx context.Context) error {
		details := map[string]any{
			"staff_id": obs.Staff.String(),
			"period":   obs.PeriodKey,
			"category": string(obs.Category),
			"met":      obs.Met,
		}
		if _, err := s.audits.Record(ctx, &actor, audit.ActionKPIObserved, targetTypePeriod, obs.PeriodKey, details, requestcontext.Origin(ctx)); err != nil {
			return err
		}
		return s.store.AddObservation(ctx, &obs)
	})
	if err != nil {
		return Observation{}, err
	}

	s.metrics.IncKPIObservations()
	return obs, nil
}

// ScoreFor aggregates one staff member's observations in the period. The
// second return is false when no observations exist: a staff member with no
// data is excluded from rankings and rules rather than scored zero.
func (s *Service) ScoreFor(ctx context.Context, staffID domain.StaffID, periodKey string) (Score, bool, error) {
	observations, err := s.store.ObservationsByStaff(ctx, staffID, periodKey)
	if err != nil {
		return Score{}, false, dErrors.Wrap(err, dErrors.CodeInternal, "list observations")
	}
	if len(observations) == 0 {
		return Score{}, false, nil
	}
	return s.aggregate(staffID, periodKey, observations), true, nil
}

func (s *Service) aggregate(staffID domain.StaffID, periodKey string, observations []Observation) Score {
	score := Score{Staff: staffID, PeriodKey: periodKey}
	for _, o := range observations {
		score.Total++
		if o.Met {
			score.Met++
		}
	}
	score.Percent = float64(score.Met) / float64(score.Total) * 100
	score.Passing = score.Percent >= s.threshold
	return score
}

// Rank orders active staff by percentage, best first. Staff without
// observations are excluded. Ties break on earlier start date, then staff ID,
// so the ordering is total and two calls over the same data agree.
func (s *Service) Rank(ctx context.Context, periodKey string) ([]Score, error) {
	members, err := s.directory.ListActive(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list active staff")
	}

	startDates := make(map[domain.StaffID]time.Time, len(members))
	var scores []Score
	for _, m := range members {
		score, ok, err := s.ScoreFor(ctx, m.ID, periodKey)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		startDates[m.ID] = m.StartDate
		scores = append(scores, score)
	}

	sort.Slice(scores, func(i, j int) bool {
		a, b := scores[i], scores[j]
		if a.Percent != b.Percent {
			return a.Percent > b.Percent
		}
		sa, sb := startDates[a.Staff], startDates[b.Staff]
		if !sa.Equal(sb) {
			return sa.Before(sb)
		}
		return a.Staff.String() < b.Staff.String()
	})
	return scores, nil
}

// BestOfPeriod returns the top-ranked score, or false when nobody has
// observations.
func (s *Service) BestOfPeriod(ctx context.Context, periodKey string) (Score, bool, error) {
	scores, err := s.Rank(ctx, periodKey)
	if err != nil {
		return Score{}, false, err
	}
	if len(scores) == 0 {
		return Score{}, false, nil
	}
	return scores[0], true, nil
}

// ClosePeriod freezes the period and notifies listeners with the final
// scores. Closing twice fails; there is no reopen.
func (s *Service) ClosePeriod(ctx context.Context, period Period) (ClosedPeriod, error) {
	key := period.Key()
	if key == "" {
		return ClosedPeriod{}, dErrors.New(dErrors.CodeInvalidInput, "unknown period kind")
	}

	actor := requestcontext.ActorID(ctx)
	closed := ClosedPeriod{
		PeriodKey: key,
		Kind:      period.Kind,
		ClosedBy:  actor,
		ClosedAt:  s.now().UTC(),
	}

	err := s.runner.InTx(ctx, func(ctx context.Context) error {
		details := map[string]any{"period": key, "kind": string(period.Kind)}
		if _, err := s.audits.Record(ctx, &actor, audit.ActionKPIPeriodClosed, targetTypePeriod, key, details, requestcontext.Origin(ctx)); err != nil {
			return err
		}
		if err := s.store.MarkClosed(ctx, closed); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				return dErrors.Wrap(err, dErrors.CodeAlreadyDecided, "period is already closed")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "close period")
		}
		return nil
	})
	if err != nil {
		return ClosedPeriod{}, err
	}

	s.metrics.IncKPIPeriodsClosed()
	s.logger.InfoContext(ctx, "kpi period closed", slog.String("period", key))

	if len(s.listeners) > 0 {
		scores, err := s.scoresForClose(ctx, key)
		if err != nil {
			s.logger.ErrorContext(ctx, "kpi close listeners skipped", slog.String("period", key), slog.Any("error", err))
			return closed, nil
		}
		for _, l := range s.listeners {
			l.PeriodClosed(ctx, closed, scores)
		}
	}
	return closed, nil
}

// IsClosed reports whether the period key refers to a closed period.
func (s *Service) IsClosed(ctx context.Context, periodKey string) (bool, error) {
	_, ok, err := s.store.Closed(ctx, periodKey)
	return ok, err
}

// ClosedBetween lists periods closed in [from, to]. The performance timeline
// renders a KPI score event per closed period the staff member was scored in.
func (s *Service) ClosedBetween(ctx context.Context, from, to time.Time) ([]ClosedPeriod, error) {
	return s.store.ClosedBetween(ctx, from, to)
}

func (s *Service) scoresForClose(ctx context.Context, periodKey string) ([]Score, error) {
	observations, err := s.store.ObservationsByPeriod(ctx, periodKey)
	if err != nil {
		return nil, err
	}
	byStaff := make(map[domain.StaffID][]Observation)
	for _, o := range observations {
		byStaff[o.Staff] = append(byStaff[o.Staff], o)
	}
	scores := make([]Score, 0, len(byStaff))
	for id, obs := range byStaff {
		scores = append(scores, s.aggregate(id, periodKey, obs))
	}
	sort.Slice(scores, func(i, j int) bool { return scores[i].Staff.String() < scores[j].Staff.String() })
	return scores, nil
}
