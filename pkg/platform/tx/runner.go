package tx

import (
	"context"
	"database/sql"
	"fmt"
)

// Runner executes fn inside a unit of work. Services depend on this interface
// so the same code path works against SQL stores (one real transaction) and
// in-memory stores (no transaction needed).
type Runner interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// NopRunner runs fn directly. In-memory stores are only mutated after all
// validation and the audit append have succeeded, so no rollback is needed.
type NopRunner struct{}

func (NopRunner) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// SQLRunner begins a database transaction, stores it in the context, and
// commits only if fn returns nil.
type SQLRunner struct {
	DB *sql.DB
}

func (r SQLRunner) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	t, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer t.Rollback()

	if err := fn(WithTx(ctx, t)); err != nil {
		return err
	}
	if err := t.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
