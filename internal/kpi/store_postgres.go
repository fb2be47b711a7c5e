package kpi

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"practiceops/pkg/domain"
	"practiceops/pkg/platform/sentinel"
	"practiceops/pkg/platform/tx"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) conn(ctx context.Context) execer {
	if t, ok := tx.From(ctx); ok {
		return t
	}
	return s.db
}

func (s *PostgresStore) AddObservation(ctx context.Context, obs *Observation) error {
	_, err := s.conn(ctx).ExecContext(ctx, `
		INSERT INTO kpi_observations (id, staff_id, period_key, category, met, note, recorded_by, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		obs.ID.String(), obs.Staff.String(), obs.PeriodKey, string(obs.Category),
		obs.Met, obs.Note, obs.RecordedBy.String(), obs.RecordedAt,
	)
	if err != nil {
		return fmt.Errorf("insert kpi observation: %w", err)
	}
	return nil
}

const observationColumns = `id, staff_id, period_key, category, met, note, recorded_by, recorded_at`

func (s *PostgresStore) ObservationsByStaff(ctx context.Context, staff domain.StaffID, periodKey string) ([]Observation, error) {
	rows, err := s.conn(ctx).QueryContext(ctx, `
		SELECT `+observationColumns+`
		FROM kpi_observations
		WHERE staff_id = $1 AND period_key = $2
		ORDER BY recorded_at, id`,
		staff.String(), periodKey,
	)
	if err != nil {
		return nil, fmt.Errorf("list staff observations: %w", err)
	}
	return collectObservations(rows)
}

func (s *PostgresStore) ObservationsByPeriod(ctx context.Context, periodKey string) ([]Observation, error) {
	rows, err := s.conn(ctx).QueryContext(ctx, `
		SELECT `+observationColumns+`
		FROM kpi_observations
		WHERE period_key = $1
		ORDER BY recorded_at, id`,
		periodKey,
	)
	if err != nil {
		return nil, fmt.Errorf("list period observations: %w", err)
	}
	return collectObservations(rows)
}

func (s *PostgresStore) MarkClosed(ctx context.Context, closed ClosedPeriod) error {
	_, err := s.conn(ctx).ExecContext(ctx, `
		INSERT INTO kpi_closed_periods (period_key, kind, closed_by, closed_at)
		VALUES ($1, $2, $3, $4)`,
		closed.PeriodKey, string(closed.Kind), closed.ClosedBy.String(), closed.ClosedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return fmt.Errorf("period %s: %w", closed.PeriodKey, sentinel.ErrConflict)
		}
		return fmt.Errorf("close kpi period: %w", err)
	}
	return nil
}

func (s *PostgresStore) Closed(ctx context.Context, periodKey string) (ClosedPeriod, bool, error) {
	row := s.conn(ctx).QueryRowContext(ctx, `
		SELECT period_key, kind, closed_by, closed_at
		FROM kpi_closed_periods
		WHERE period_key = $1`,
		periodKey,
	)
	cp, err := scanClosed(row)
	if errors.Is(err, sql.ErrNoRows) {
		return ClosedPeriod{}, false, nil
	}
	if err != nil {
		return ClosedPeriod{}, false, fmt.Errorf("get closed period: %w", err)
	}
	return cp, true, nil
}

func (s *PostgresStore) ClosedBetween(ctx context.Context, from, to time.Time) ([]ClosedPeriod, error) {
	rows, err := s.conn(ctx).QueryContext(ctx, `
		SELECT period_key, kind, closed_by, closed_at
		FROM kpi_closed_periods
		WHERE closed_at BETWEEN $1 AND $2
		ORDER BY closed_at`,
		from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("list closed periods: %w", err)
	}
	defer rows.Close()

	var out []ClosedPeriod
	for rows.Next() {
		cp, err := scanClosed(rows)
		if err != nil {
			return nil, fmt.Errorf("scan closed period: %w", err)
		}
		out = append(out, cp)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanClosed(row rowScanner) (ClosedPeriod, error) {
	var (
		cp       ClosedPeriod
		kind     string
		closedBy string
	)
	if err := row.Scan(&cp.PeriodKey, &kind, &closedBy, &cp.ClosedAt); err != nil {
		return ClosedPeriod{}, err
	}
	cp.Kind = PeriodKind(kind)
	by, err := domain.ParseStaffID(closedBy)
	if err != nil {
		return ClosedPeriod{}, err
	}
	cp.ClosedBy = by
	return cp, nil
}

func collectObservations(rows *sql.Rows) ([]Observation, error) {
	defer rows.Close()
	var out []Observation
	for rows.Next() {
		var (
			o                       Observation
			id, staffID, recordedBy string
			category                string
		)
		if err := rows.Scan(&id, &staffID, &o.PeriodKey, &category, &o.Met, &o.Note, &recordedBy, &o.RecordedAt); err != nil {
			return nil, fmt.Errorf("scan kpi observation: %w", err)
		}
		var err error
		if o.ID, err = domain.ParseObservationID(id); err != nil {
			return nil, err
		}
		if o.Staff, err = domain.ParseStaffID(staffID); err != nil {
			return nil, err
		}
		if o.RecordedBy, err = domain.ParseStaffID(recordedBy); err != nil {
			return nil, err
		}
		o.Category = Category(category)
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate kpi observations: %w", err)
	}
	return out, nil
}
