package schedule

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

// PostgresStore persists assignments in schedule_assignments. The table
// carries UNIQUE (staff_id, work_date), so the one-per-slot rule holds under
// concurrency regardless of what the service layer checked.
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

const assignmentColumns = `id, staff_id, work_date, shift, role_on_duty, room, assigned_by, created_at`

func (s *PostgresStore) Create(ctx context.Context, assignment *Assignment) error {
	_, err := s.conn(ctx).ExecContext(ctx, `
		INSERT INTO schedule_assignments (id, staff_id, work_date, shift, role_on_duty, room, assigned_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		assignment.ID.String(), assignment.Staff.String(), assignment.Date,
		string(assignment.Shift), string(assignment.RoleOnDuty), assignment.Room,
		assignment.AssignedBy.String(), assignment.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return fmt.Errorf("slot %s/%s taken: %w",
				assignment.Staff, assignment.Date.Format("2006-01-02"), sentinel.ErrConflict)
		}
		return fmt.Errorf("insert assignment: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id domain.AssignmentID) (Assignment, error) {
	row := s.conn(ctx).QueryRowContext(ctx, `
		SELECT `+assignmentColumns+`
		FROM schedule_assignments
		WHERE id = $1`,
		id.String(),
	)
	a, err := scanAssignment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Assignment{}, fmt.Errorf("assignment %s: %w", id, sentinel.ErrNotFound)
	}
	if err != nil {
		return Assignment{}, fmt.Errorf("get assignment: %w", err)
	}
	return a, nil
}

func (s *PostgresStore) Delete(ctx context.Context, id domain.AssignmentID) error {
	res, err := s.conn(ctx).ExecContext(ctx, `DELETE FROM schedule_assignments WHERE id = $1`, id.String())
	if err != nil {
		return fmt.Errorf("delete assignment: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete assignment: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("assignment %s: %w", id, sentinel.ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) ByStaffDate(ctx context.Context, staff domain.StaffID, date time.Time) (Assignment, bool, error) {
	row := s.conn(ctx).QueryRowContext(ctx, `
		SELECT `+assignmentColumns+`
		FROM schedule_assignments
		WHERE staff_id = $1 AND work_date = $2`,
		staff.String(), domain.DateOnly(date),
	)
	a, err := scanAssignment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Assignment{}, false, nil
	}
	if err != nil {
		return Assignment{}, false, fmt.Errorf("get assignment by slot: %w", err)
	}
	return a, true, nil
}

func (s *PostgresStore) ListByDateRange(ctx context.Context, from, to time.Time) ([]Assignment, error) {
	rows, err := s.conn(ctx).QueryContext(ctx, `
		SELECT `+assignmentColumns+`
		FROM schedule_assignments
		WHERE work_date BETWEEN $1 AND $2
		ORDER BY work_date, staff_id`,
		from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	return collectAssignments(rows)
}

func (s *PostgresStore) ListByStaff(ctx context.Context, staff domain.StaffID, from, to time.Time) ([]Assignment, error) {
	rows, err := s.conn(ctx).QueryContext(ctx, `
		SELECT `+assignmentColumns+`
		FROM schedule_assignments
		WHERE staff_id = $1 AND work_date BETWEEN $2 AND $3
		ORDER BY work_date`,
		staff.String(), from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("list staff assignments: %w", err)
	}
	return collectAssignments(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAssignment(row rowScanner) (Assignment, error) {
	var (
		a                       Assignment
		id, staffID, assignedBy string
		shift, role             string
	)
	err := row.Scan(&id, &staffID, &a.Date, &shift, &role, &a.Room, &assignedBy, &a.CreatedAt)
	if err != nil {
		return Assignment{}, err
	}
	if a.ID, err = domain.ParseAssignmentID(id); err != nil {
		return Assignment{}, err
	}
	if a.Staff, err = domain.ParseStaffID(staffID); err != nil {
		return Assignment{}, err
	}
	if a.AssignedBy, err = domain.ParseStaffID(assignedBy); err != nil {
		return Assignment{}, err
	}
	a.Shift = Shift(shift)
	a.RoleOnDuty = domain.Role(role)
	a.Date = a.Date.UTC()
	return a, nil
}

func collectAssignments(rows *sql.Rows) ([]Assignment, error) {
	defer rows.Close()
	var out []Assignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan assignment: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate assignments: %w", err)
	}
	return out, nil
}
