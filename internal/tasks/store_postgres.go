package tasks

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"practiceops/pkg/domain"
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

const eventColumns = `seq, task_id, staff_id, title, outcome, recorded_by, recorded_at`

func (s *PostgresStore) Append(ctx context.Context, event *Event) error {
	row := s.conn(ctx).QueryRowContext(ctx, `
		INSERT INTO task_events (task_id, staff_id, title, outcome, recorded_by, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING seq`,
		event.Task.String(), event.Staff.String(), event.Title,
		string(event.Outcome), event.RecordedBy.String(), event.RecordedAt,
	)
	if err := row.Scan(&event.Seq); err != nil {
		return fmt.Errorf("insert task event: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByStaffSince(ctx context.Context, staff domain.StaffID, after uint64) ([]Event, error) {
	rows, err := s.conn(ctx).QueryContext(ctx, `
		SELECT `+eventColumns+`
		FROM task_events
		WHERE staff_id = $1 AND seq > $2
		ORDER BY seq`,
		staff.String(), after,
	)
	if err != nil {
		return nil, fmt.Errorf("list task events: %w", err)
	}
	return collectEvents(rows)
}

func (s *PostgresStore) OverdueCount(ctx context.Context, staff domain.StaffID) (int, error) {
	row := s.conn(ctx).QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM (
			SELECT DISTINCT ON (task_id) outcome
			FROM task_events
			WHERE staff_id = $1
			ORDER BY task_id, seq DESC
		) latest
		WHERE latest.outcome = $2`,
		staff.String(), string(OutcomeOverdue),
	)
	var count int
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("count overdue tasks: %w", err)
	}
	return count, nil
}

func (s *PostgresStore) CompletedBetween(ctx context.Context, staff domain.StaffID, from, to time.Time) ([]Event, error) {
	rows, err := s.conn(ctx).QueryContext(ctx, `
		SELECT `+eventColumns+`
		FROM task_events
		WHERE staff_id = $1 AND outcome = $2 AND recorded_at BETWEEN $3 AND $4
		ORDER BY seq`,
		staff.String(), string(OutcomeCompleted), from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("list completed tasks: %w", err)
	}
	return collectEvents(rows)
}

func collectEvents(rows *sql.Rows) ([]Event, error) {
	defer rows.Close()
	var out []Event
	for rows.Next() {
		var (
			e                           Event
			taskID, staffID, recordedBy string
			outcome                     string
		)
		if err := rows.Scan(&e.Seq, &taskID, &staffID, &e.Title, &outcome, &recordedBy, &e.RecordedAt); err != nil {
			return nil, fmt.Errorf("scan task event: %w", err)
		}
		var err error
		if e.Task, err = domain.ParseTaskID(taskID); err != nil {
			return nil, err
		}
		if e.Staff, err = domain.ParseStaffID(staffID); err != nil {
			return nil, err
		}
		if e.RecordedBy, err = domain.ParseStaffID(recordedBy); err != nil {
			return nil, err
		}
		e.Outcome = Outcome(outcome)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate task events: %w", err)
	}
	return out, nil
}
