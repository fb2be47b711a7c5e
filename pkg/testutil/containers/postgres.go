//go:build integration

package containers

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// PostgresContainer wraps a testcontainers PostgreSQL instance with the
// project schema already applied.
type PostgresContainer struct {
	Container testcontainers.Container
	DSN       string
	DB        *sql.DB
}

// NewPostgresContainer starts a PostgreSQL container and applies the schema.
func NewPostgresContainer(t *testing.T) *PostgresContainer {
	t.Helper()

	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("practiceops_test"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to get postgres connection string: %v", err)
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to open postgres connection: %v", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		_ = container.Terminate(ctx)
		t.Fatalf("failed to ping postgres: %v", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		_ = container.Terminate(ctx)
		t.Fatalf("failed to apply schema: %v", err)
	}

	pc := &PostgresContainer{Container: container, DSN: dsn, DB: db}
	t.Cleanup(func() {
		_ = pc.DB.Close()
		_ = pc.Container.Terminate(context.Background())
	})
	return pc
}

// Truncate clears every application table. Use between tests for isolation.
func (p *PostgresContainer) Truncate(ctx context.Context) error {
	_, err := p.DB.ExecContext(ctx, `
		TRUNCATE audit_entries, leave_intervals, schedule_assignments,
		         kpi_observations, kpi_closed_periods, warnings,
		         lateness_events, task_events, recognitions, staff_members
	`)
	return err
}

const schema = `
CREATE TABLE IF NOT EXISTS staff_members (
	id         UUID PRIMARY KEY,
	name       TEXT NOT NULL,
	role       TEXT NOT NULL,
	status     TEXT NOT NULL,
	start_date TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS audit_entries (
	id          UUID PRIMARY KEY,
	seq         BIGINT NOT NULL UNIQUE,
	actor_id    UUID,
	action      TEXT NOT NULL,
	target_type TEXT NOT NULL,
	target_id   TEXT NOT NULL,
	details     JSONB,
	origin      TEXT NOT NULL,
	timestamp   TIMESTAMPTZ NOT NULL,
	prev_hash   TEXT NOT NULL,
	hash        TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS leave_intervals (
	id            UUID PRIMARY KEY,
	staff_id      UUID NOT NULL,
	leave_type    TEXT NOT NULL,
	start_date    TIMESTAMPTZ NOT NULL,
	end_date      TIMESTAMPTZ NOT NULL,
	reason        TEXT NOT NULL DEFAULT '',
	status        TEXT NOT NULL,
	decided_by    UUID,
	decided_at    TIMESTAMPTZ,
	decision_note TEXT,
	created_at    TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS leave_intervals_staff_idx ON leave_intervals (staff_id, status);

CREATE TABLE IF NOT EXISTS schedule_assignments (
	id          UUID PRIMARY KEY,
	staff_id    UUID NOT NULL,
	work_date   TIMESTAMPTZ NOT NULL,
	shift       TEXT NOT NULL,
	role_on_duty TEXT NOT NULL,
	room        TEXT NOT NULL DEFAULT '',
	assigned_by UUID NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL,
	UNIQUE (staff_id, work_date)
);

CREATE TABLE IF NOT EXISTS kpi_observations (
	id          UUID PRIMARY KEY,
	staff_id    UUID NOT NULL,
	period_key  TEXT NOT NULL,
	category    TEXT NOT NULL,
	met         BOOLEAN NOT NULL,
	note        TEXT NOT NULL DEFAULT '',
	recorded_by UUID NOT NULL,
	recorded_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS kpi_observations_period_idx ON kpi_observations (period_key, staff_id);

CREATE TABLE IF NOT EXISTS kpi_closed_periods (
	period_key TEXT PRIMARY KEY,
	kind       TEXT NOT NULL,
	closed_by  UUID NOT NULL,
	closed_at  TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS warnings (
	id        UUID PRIMARY KEY,
	staff_id  UUID NOT NULL,
	kind      TEXT NOT NULL,
	rule      TEXT NOT NULL,
	reason    TEXT NOT NULL,
	issued_by UUID,
	issued_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS warnings_staff_idx ON warnings (staff_id, issued_at);

CREATE TABLE IF NOT EXISTS lateness_events (
	seq          BIGSERIAL PRIMARY KEY,
	staff_id     UUID NOT NULL,
	event_date   TIMESTAMPTZ NOT NULL,
	minutes_late INT NOT NULL,
	note         TEXT NOT NULL DEFAULT '',
	recorded_by  UUID NOT NULL,
	recorded_at  TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS lateness_events_staff_idx ON lateness_events (staff_id, seq);

CREATE TABLE IF NOT EXISTS task_events (
	seq         BIGSERIAL PRIMARY KEY,
	task_id     UUID NOT NULL,
	staff_id    UUID NOT NULL,
	title       TEXT NOT NULL DEFAULT '',
	outcome     TEXT NOT NULL,
	recorded_by UUID NOT NULL,
	recorded_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS task_events_staff_idx ON task_events (staff_id, seq);

CREATE TABLE IF NOT EXISTS recognitions (
	id       UUID PRIMARY KEY,
	staff_id UUID NOT NULL,
	kind     TEXT NOT NULL,
	message  TEXT NOT NULL,
	given_by UUID,
	given_at TIMESTAMPTZ NOT NULL
);
`
