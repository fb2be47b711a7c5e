package leave

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"practiceops/pkg/domain"
	"practiceops/pkg/platform/sentinel"
	"practiceops/pkg/platform/tx"
)

// PostgresStore persists intervals in the leave_intervals table. When the
// context carries a transaction (tx.From) all statements run inside it, which
// is how the audit append and the leave mutation commit or roll back together.
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

const intervalColumns = `id, staff_id, leave_type, start_date, end_date, reason, status, decided_by, decided_at, decision_note, created_at`

func (s *PostgresStore) Create(ctx context.Context, interval *Interval) error {
	_, err := s.conn(ctx).ExecContext(ctx, `
		INSERT INTO leave_intervals (id, staff_id, leave_type, start_date, end_date, reason, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		interval.ID.String(), interval.Staff.String(), string(interval.Type),
		interval.Start, interval.End, interval.Reason, string(interval.Status), interval.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert leave interval: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id domain.LeaveIntervalID) (Interval, error) {
	row := s.conn(ctx).QueryRowContext(ctx, `
		SELECT `+intervalColumns+`
		FROM leave_intervals
		WHERE id = $1`,
		id.String(),
	)
	iv, err := scanInterval(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Interval{}, fmt.Errorf("leave interval %s: %w", id, sentinel.ErrNotFound)
	}
	if err != nil {
		return Interval{}, fmt.Errorf("get leave interval: %w", err)
	}
	return iv, nil
}

func (s *PostgresStore) MarkDecided(ctx context.Context, decided Interval) error {
	res, err := s.conn(ctx).ExecContext(ctx, `
		UPDATE leave_intervals
		SET status = $1, decided_by = $2, decided_at = $3, decision_note = $4
		WHERE id = $5 AND status = $6`,
		string(decided.Status), decided.DecidedBy.String(), decided.DecidedAt,
		decided.DecisionNote, decided.ID.String(), string(StatusPending),
	)
	if err != nil {
		return fmt.Errorf("decide leave interval: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("decide leave interval: %w", err)
	}
	if n == 0 {
		if _, getErr := s.Get(ctx, decided.ID); getErr != nil {
			return getErr
		}
		return fmt.Errorf("leave interval %s not pending: %w", decided.ID, sentinel.ErrInvalidState)
	}
	return nil
}

func (s *PostgresStore) ApprovedCovering(ctx context.Context, staff domain.StaffID, date time.Time) (Interval, bool, error) {
	row := s.conn(ctx).QueryRowContext(ctx, `
		SELECT `+intervalColumns+`
		FROM leave_intervals
		WHERE staff_id = $1 AND status = $2 AND start_date <= $3 AND end_date >= $3
		LIMIT 1`,
		staff.String(), string(StatusApproved), domain.DateOnly(date),
	)
	iv, err := scanInterval(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Interval{}, false, nil
	}
	if err != nil {
		return Interval{}, false, fmt.Errorf("approved leave covering: %w", err)
	}
	return iv, true, nil
}

func (s *PostgresStore) ApprovedOverlapping(ctx context.Context, staff domain.StaffID, start, end time.Time, exclude domain.LeaveIntervalID) ([]Interval, error) {
	rows, err := s.conn(ctx).QueryContext(ctx, `
		SELECT `+intervalColumns+`
		FROM leave_intervals
		WHERE staff_id = $1 AND status = $2 AND id <> $3
		  AND start_date <= $4 AND end_date >= $5
		ORDER BY start_date, id`,
		staff.String(), string(StatusApproved), exclude.String(), end, start,
	)
	if err != nil {
		return nil, fmt.Errorf("approved leave overlapping: %w", err)
	}
	return collectIntervals(rows)
}

func (s *PostgresStore) ListByStaff(ctx context.Context, staff domain.StaffID) ([]Interval, error) {
	rows, err := s.conn(ctx).QueryContext(ctx, `
		SELECT `+intervalColumns+`
		FROM leave_intervals
		WHERE staff_id = $1
		ORDER BY start_date, id`,
		staff.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("list leave by staff: %w", err)
	}
	return collectIntervals(rows)
}

func (s *PostgresStore) DecidedInRange(ctx context.Context, staff domain.StaffID, from, to time.Time) ([]Interval, error) {
	rows, err := s.conn(ctx).QueryContext(ctx, `
		SELECT `+intervalColumns+`
		FROM leave_intervals
		WHERE staff_id = $1 AND decided_at IS NOT NULL AND decided_at BETWEEN $2 AND $3
		ORDER BY decided_at, id`,
		staff.String(), from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("list decided leave: %w", err)
	}
	return collectIntervals(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInterval(row rowScanner) (Interval, error) {
	var (
		iv           Interval
		id, staffID  string
		leaveType    string
		status       string
		decidedBy    sql.NullString
		decidedAt    sql.NullTime
		decisionNote sql.NullString
	)
	err := row.Scan(&id, &staffID, &leaveType, &iv.Start, &iv.End, &iv.Reason,
		&status, &decidedBy, &decidedAt, &decisionNote, &iv.CreatedAt)
	if err != nil {
		return Interval{}, err
	}
	if iv.ID, err = domain.ParseLeaveIntervalID(id); err != nil {
		return Interval{}, err
	}
	if iv.Staff, err = domain.ParseStaffID(staffID); err != nil {
		return Interval{}, err
	}
	iv.Type = Type(leaveType)
	iv.Status = Status(status)
	if decidedBy.Valid {
		by, err := domain.ParseStaffID(decidedBy.String)
		if err != nil {
			return Interval{}, err
		}
		iv.DecidedBy = &by
	}
	if decidedAt.Valid {
		t := decidedAt.Time
		iv.DecidedAt = &t
	}
	iv.DecisionNote = decisionNote.String
	iv.Start = iv.Start.UTC()
	iv.End = iv.End.UTC()
	return iv, nil
}

func collectIntervals(rows *sql.Rows) ([]Interval, error) {
	defer rows.Close()
	var out []Interval
	for rows.Next() {
		iv, err := scanInterval(rows)
		if err != nil {
			return nil, fmt.Errorf("scan leave interval: %w", err)
		}
		out = append(out, iv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate leave intervals: %w", err)
	}
	return out, nil
}
