// Package postgres implements the audit store over PostgreSQL. The table is
// insert-only: the application role is granted INSERT and SELECT but never
// UPDATE or DELETE, and no SQL in this package mutates existing rows.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"practiceops/pkg/domain"
	audit "practiceops/pkg/platform/audit"
	txcontext "practiceops/pkg/platform/tx"
)

// chainLockID serializes appends so the hash chain stays linear. Advisory
// locks are transaction-scoped; readers are never blocked.
const chainLockID = 7741

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Store) Append(ctx context.Context, entry *audit.Entry) error {
	tx, ok := txcontext.From(ctx)
	if !ok {
		return s.appendStandalone(ctx, entry)
	}
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, chainLockID); err != nil {
		return fmt.Errorf("acquire chain lock: %w", err)
	}
	return s.appendLocked(ctx, tx, entry)
}

// appendStandalone wraps the append in its own transaction when the caller
// did not supply one.
func (s *Store) appendStandalone(ctx context.Context, entry *audit.Entry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin audit tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, chainLockID); err != nil {
		return fmt.Errorf("acquire chain lock: %w", err)
	}
	if err := s.appendLocked(ctx, tx, entry); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) appendLocked(ctx context.Context, ex dbExecutor, entry *audit.Entry) error {
	var (
		lastSeq  sql.NullInt64
		lastHash sql.NullString
	)
	row := ex.QueryRowContext(ctx, `SELECT seq, hash FROM audit_entries ORDER BY seq DESC LIMIT 1`)
	if err := row.Scan(&lastSeq, &lastHash); err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("read chain head: %w", err)
	}

	entry.Seq = uint64(lastSeq.Int64) + 1
	entry.PrevHash = lastHash.String

	hash, err := audit.ChainHash(*entry, entry.PrevHash)
	if err != nil {
		return err
	}
	entry.Hash = hash

	details, err := json.Marshal(entry.Details)
	if err != nil {
		return fmt.Errorf("marshal audit details: %w", err)
	}

	var actor *uuid.UUID
	if entry.Actor != nil {
		a := uuid.UUID(*entry.Actor)
		actor = &a
	}

	_, err = ex.ExecContext(ctx, `
		INSERT INTO audit_entries (
			id, seq, actor_id, action, target_type, target_id,
			details, origin, timestamp, prev_hash, hash
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`,
		uuid.UUID(entry.ID),
		entry.Seq,
		actor,
		string(entry.Action),
		entry.TargetType,
		entry.TargetID,
		details,
		entry.Origin,
		entry.Timestamp,
		entry.PrevHash,
		entry.Hash,
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// List returns matching entries newest-first.
func (s *Store) List(ctx context.Context, filter audit.Filter) ([]audit.Entry, error) {
	query := `
		SELECT id, seq, actor_id, action, target_type, target_id,
		       details, origin, timestamp, prev_hash, hash
		FROM audit_entries
		WHERE ($1::uuid IS NULL OR actor_id = $1)
		  AND ($2 = '' OR action = $2)
		  AND ($3 = '' OR target_type = $3)
		  AND ($4 = '' OR target_id = $4)
		  AND ($5::timestamptz IS NULL OR timestamp >= $5)
		  AND ($6::timestamptz IS NULL OR timestamp <= $6)
		ORDER BY seq DESC
	`
	var actor *uuid.UUID
	if filter.Actor != nil {
		a := uuid.UUID(*filter.Actor)
		actor = &a
	}
	var from, to *string
	if !filter.From.IsZero() {
		f := filter.From.UTC().Format("2006-01-02T15:04:05.999999999Z07:00")
		from = &f
	}
	if !filter.To.IsZero() {
		t := filter.To.UTC().Format("2006-01-02T15:04:05.999999999Z07:00")
		to = &t
	}

	rows, err := s.db.QueryContext(ctx, query, actor, string(filter.Action), filter.TargetType, filter.TargetID, from, to)
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	var out []audit.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
		if filter.Limit > 0 && len(out) == filter.Limit {
			break
		}
	}
	return out, rows.Err()
}

// ListChain returns every entry oldest-first for chain verification.
func (s *Store) ListChain(ctx context.Context) ([]audit.Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, seq, actor_id, action, target_type, target_id,
		       details, origin, timestamp, prev_hash, hash
		FROM audit_entries
		ORDER BY seq ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query audit chain: %w", err)
	}
	defer rows.Close()

	var out []audit.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func scanEntry(rows *sql.Rows) (audit.Entry, error) {
	var (
		e       audit.Entry
		id      uuid.UUID
		actor   *uuid.UUID
		action  string
		details []byte
	)
	if err := rows.Scan(&id, &e.Seq, &actor, &action, &e.TargetType, &e.TargetID, &details, &e.Origin, &e.Timestamp, &e.PrevHash, &e.Hash); err != nil {
		return audit.Entry{}, fmt.Errorf("scan audit entry: %w", err)
	}
	e.ID = domain.AuditEntryID(id)
	e.Action = audit.Action(action)
	if actor != nil {
		a := domain.StaffID(*actor)
		e.Actor = &a
	}
	if len(details) > 0 {
		if err := json.Unmarshal(details, &e.Details); err != nil {
			return audit.Entry{}, fmt.Errorf("unmarshal audit details: %w", err)
		}
	}
	return e, nil
}
