package warning

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

// PostgresStore writes to the warnings table. Like the audit table, the
// application role holds INSERT and SELECT only.
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

const warningColumns = `id, staff_id, kind, rule, reason, issued_by, issued_at`

func (s *PostgresStore) Create(ctx context.Context, record *Record) error {
	var issuedBy *string
	if record.IssuedBy != nil {
		v := record.IssuedBy.String()
		issuedBy = &v
	}
	_, err := s.conn(ctx).ExecContext(ctx, `
		INSERT INTO warnings (id, staff_id, kind, rule, reason, issued_by, issued_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		record.ID.String(), record.Staff.String(), string(record.Kind),
		record.Rule, record.Reason, issuedBy, record.IssuedAt,
	)
	if err != nil {
		return fmt.Errorf("insert warning: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id domain.WarningID) (Record, error) {
	row := s.conn(ctx).QueryRowContext(ctx, `
		SELECT `+warningColumns+`
		FROM warnings
		WHERE id = $1`,
		id.String(),
	)
	r, err := scanWarning(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, fmt.Errorf("warning %s: %w", id, sentinel.ErrNotFound)
	}
	if err != nil {
		return Record{}, fmt.Errorf("get warning: %w", err)
	}
	return r, nil
}

func (s *PostgresStore) ListByStaff(ctx context.Context, staff domain.StaffID) ([]Record, error) {
	rows, err := s.conn(ctx).QueryContext(ctx, `
		SELECT `+warningColumns+`
		FROM warnings
		WHERE staff_id = $1
		ORDER BY issued_at, id`,
		staff.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("list warnings: %w", err)
	}
	return collectWarnings(rows)
}

func (s *PostgresStore) ListByStaffBetween(ctx context.Context, staff domain.StaffID, from, to time.Time) ([]Record, error) {
	rows, err := s.conn(ctx).QueryContext(ctx, `
		SELECT `+warningColumns+`
		FROM warnings
		WHERE staff_id = $1 AND issued_at BETWEEN $2 AND $3
		ORDER BY issued_at, id`,
		staff.String(), from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("list warnings in range: %w", err)
	}
	return collectWarnings(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanWarning(row rowScanner) (Record, error) {
	var (
		r           Record
		id, staffID string
		kind        string
		issuedBy    sql.NullString
	)
	err := row.Scan(&id, &staffID, &kind, &r.Rule, &r.Reason, &issuedBy, &r.IssuedAt)
	if err != nil {
		return Record{}, err
	}
	if r.ID, err = domain.ParseWarningID(id); err != nil {
		return Record{}, err
	}
	if r.Staff, err = domain.ParseStaffID(staffID); err != nil {
		return Record{}, err
	}
	r.Kind = Kind(kind)
	if issuedBy.Valid {
		by, err := domain.ParseStaffID(issuedBy.String)
		if err != nil {
			return Record{}, err
		}
		r.IssuedBy = &by
	}
	return r, nil
}

func collectWarnings(rows *sql.Rows) ([]Record, error) {
	defer rows.Close()
	var out []Record
	for rows.Next() {
		r, err := scanWarning(rows)
		if err != nil {
			return nil, fmt.Errorf("scan warning: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate warnings: %w", err)
	}
	return out, nil
}
