package staff

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"practiceops/pkg/domain"
	"practiceops/pkg/platform/sentinel"
)

// PostgresDirectory reads the staff_members table maintained by the profile
// subsystem. The core holds SELECT grants only.
type PostgresDirectory struct {
	db *sql.DB
}

func NewPostgresDirectory(db *sql.DB) *PostgresDirectory {
	return &PostgresDirectory{db: db}
}

const memberColumns = `id, name, role, status, start_date`

func (d *PostgresDirectory) Member(ctx context.Context, id domain.StaffID) (Member, error) {
	row := d.db.QueryRowContext(ctx,
		`SELECT `+memberColumns+` FROM staff_members WHERE id = $1`, id.String())
	member, err := scanMember(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Member{}, fmt.Errorf("staff member %s: %w", id, sentinel.ErrNotFound)
	}
	if err != nil {
		return Member{}, fmt.Errorf("query staff member: %w", err)
	}
	return member, nil
}

func (d *PostgresDirectory) ListActive(ctx context.Context) ([]Member, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT `+memberColumns+` FROM staff_members WHERE status = $1 ORDER BY id`,
		string(StatusActive))
	if err != nil {
		return nil, fmt.Errorf("list active staff: %w", err)
	}
	defer rows.Close()

	var out []Member
	for rows.Next() {
		member, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("scan staff member: %w", err)
		}
		out = append(out, member)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMember(row rowScanner) (Member, error) {
	var (
		member Member
		id     string
		role   string
		status string
	)
	if err := row.Scan(&id, &member.Name, &role, &status, &member.StartDate); err != nil {
		return Member{}, err
	}
	parsed, err := domain.ParseStaffID(id)
	if err != nil {
		return Member{}, err
	}
	member.ID = parsed
	member.Role = domain.Role(role)
	member.Status = Status(status)
	member.StartDate = member.StartDate.UTC()
	return member, nil
}
