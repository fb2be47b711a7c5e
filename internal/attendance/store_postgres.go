package attendance

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"practiceops/pkg/domain"
	"practiceops/pkg/platform/tx"
)

// PostgresStore writes to lateness_events. Seq is a BIGSERIAL, so ordering is
// assigned by the database.
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

func (s *PostgresStore) Append(ctx context.Context, event *Event) error {
	row := s.conn(ctx).QueryRowContext(ctx, `
		INSERT INTO lateness_events (staff_id, event_date, minutes_late, note, recorded_by, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING seq`,
		event.Staff.String(), event.Date, event.MinutesLate, event.Note,
		event.RecordedBy.String(), event.RecordedAt,
	)
	if err := row.Scan(&event.Seq); err != nil {
		return fmt.Errorf("insert lateness event: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByStaffSince(ctx context.Context, staff domain.StaffID, after uint64) ([]Event, error) {
	rows, err := s.conn(ctx).QueryContext(ctx, `
		SELECT seq, staff_id, event_date, minutes_late, note, recorded_by, recorded_at
		FROM lateness_events
		WHERE staff_id = $1 AND seq > $2
		ORDER BY seq`,
		staff.String(), after,
	)
	if err != nil {
		return nil, fmt.Errorf("list lateness events: %w", err)
	}
	return collectEvents(rows)
}

func (s *PostgresStore) ListByStaffBetween(ctx context.Context, staff domain.StaffID, from, to time.Time) ([]Event, error) {
	rows, err := s.conn(ctx).QueryContext(ctx, `
		SELECT seq, staff_id, event_date, minutes_late, note, recorded_by, recorded_at
		FROM lateness_events
		WHERE staff_id = $1 AND recorded_at BETWEEN $2 AND $3
		ORDER BY seq`,
		staff.String(), from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("list lateness events in range: %w", err)
	}
	return collectEvents(rows)
}

func collectEvents(rows *sql.Rows) ([]Event, error) {
	defer rows.Close()
	var out []Event
	for rows.Next() {
		var (
			e                   Event
			staffID, recordedBy string
		)
		if err := rows.Scan(&e.Seq, &staffID, &e.Date, &e.MinutesLate, &e.Note, &recordedBy, &e.RecordedAt); err != nil {
			return nil, fmt.Errorf("scan lateness event: %w", err)
		}
		var err error
		if e.Staff, err = domain.ParseStaffID(staffID); err != nil {
			return nil, err
		}
		if e.RecordedBy, err = domain.ParseStaffID(recordedBy); err != nil {
			return nil, err
		}
		e.Date = e.Date.UTC()
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate lateness events: %w", err)
	}
	return out, nil
}
