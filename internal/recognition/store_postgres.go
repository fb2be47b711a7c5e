package recognition

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
}

func (s *PostgresStore) conn(ctx context.Context) execer {
	if t, ok := tx.From(ctx); ok {
		return t
	}
	return s.db
}

func (s *PostgresStore) Create(ctx context.Context, event *Event) error {
	var givenBy *string
	if event.GivenBy != nil {
		v := event.GivenBy.String()
		givenBy = &v
	}
	_, err := s.conn(ctx).ExecContext(ctx, `
		INSERT INTO recognitions (id, staff_id, kind, message, given_by, given_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		event.ID.String(), event.Staff.String(), string(event.Kind),
		event.Message, givenBy, event.GivenAt,
	)
	if err != nil {
		return fmt.Errorf("insert recognition: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByStaffBetween(ctx context.Context, staff domain.StaffID, from, to time.Time) ([]Event, error) {
	rows, err := s.conn(ctx).QueryContext(ctx, `
		SELECT id, staff_id, kind, message, given_by, given_at
		FROM recognitions
		WHERE staff_id = $1 AND given_at BETWEEN $2 AND $3
		ORDER BY given_at, id`,
		staff.String(), from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("list recognitions: %w", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var (
			e           Event
			id, staffID string
			kind        string
			givenBy     sql.NullString
		)
		if err := rows.Scan(&id, &staffID, &kind, &e.Message, &givenBy, &e.GivenAt); err != nil {
			return nil, fmt.Errorf("scan recognition: %w", err)
		}
		if e.ID, err = domain.ParseRecognitionID(id); err != nil {
			return nil, err
		}
		if e.Staff, err = domain.ParseStaffID(staffID); err != nil {
			return nil, err
		}
		e.Kind = Kind(kind)
		if givenBy.Valid {
			by, err := domain.ParseStaffID(givenBy.String)
			if err != nil {
				return nil, err
			}
			e.GivenBy = &by
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recognitions: %w", err)
	}
	return out, nil
}
