package migration

import (
	"context"
	"database/sql"
	"strings"
	"time"
)

// Executor applies migrations to a SQLite database.
type Executor struct {
	db *sql.DB
}

// NewExecutor returns an Executor bound to the given database.
func NewExecutor(db *sql.DB) *Executor {
	return &Executor{db: db}
}

// EnsureVersionTable creates the schema_migrations table if missing.
func (e *Executor) EnsureVersionTable(ctx context.Context) error {
	const create = `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			applied_at TEXT NOT NULL,
			checksum TEXT,
			execution_time_ms INTEGER
		)
	`
	if _, err := e.db.ExecContext(ctx, create); err != nil {
		return newError("", "", "create schema_migrations", err)
	}
	return nil
}

// Apply runs one migration and records it in schema_migrations, all inside
// a single transaction, so a crash can never leave the schema changed but
// unrecorded or the other way round.
func (e *Executor) Apply(ctx context.Context, m Migration) error {
	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return newError(m.Version, m.Path, "begin transaction", err)
	}
	started := time.Now()
	for _, stmt := range statements(m.SQL) {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			_ = tx.Rollback()
			return newError(m.Version, m.Path, "execute statement", err)
		}
	}
	const record = `
		INSERT INTO schema_migrations (version, applied_at, checksum, execution_time_ms)
		VALUES (?, ?, ?, ?)
	`
	appliedAt := time.Now().UTC().Format(time.RFC3339)
	tookMs := time.Since(started).Milliseconds()
	if _, err := tx.ExecContext(ctx, record, m.Version, appliedAt, m.Checksum, tookMs); err != nil {
		_ = tx.Rollback()
		return newError(m.Version, m.Path, "record migration", err)
	}
	if err := tx.Commit(); err != nil {
		return newError(m.Version, m.Path, "commit transaction", err)
	}
	return nil
}

// Applied returns every recorded migration ordered by numeric version.
func (e *Executor) Applied(ctx context.Context) ([]Applied, error) {
	const query = `
		SELECT version, applied_at, COALESCE(checksum, ''), COALESCE(execution_time_ms, 0)
		FROM schema_migrations
		ORDER BY CAST(version AS INTEGER) ASC
	`
	rows, err := e.db.QueryContext(ctx, query)
	if err != nil {
		return nil, newError("", "", "query schema_migrations", err)
	}
	defer rows.Close()

	var applied []Applied
	for rows.Next() {
		var a Applied
		var appliedAt string
		var tookMs int64
		if err := rows.Scan(&a.Version, &appliedAt, &a.Checksum, &tookMs); err != nil {
			return nil, newError("", "", "scan schema_migrations", err)
		}
		if a.AppliedAt, err = time.Parse(time.RFC3339, appliedAt); err != nil {
			return nil, newError(a.Version, "", "parse applied_at", err)
		}
		a.ExecutionTime = time.Duration(tookMs) * time.Millisecond
		applied = append(applied, a)
	}
	if err := rows.Err(); err != nil {
		return nil, newError("", "", "iterate schema_migrations", err)
	}
	return applied, nil
}

// statements splits SQL content on semicolons and drops comment-only and
// empty fragments.
func statements(content string) []string {
	var out []string
	for _, raw := range strings.Split(content, ";") {
		var lines []string
		for _, line := range strings.Split(raw, "\n") {
			line = strings.TrimSpace(line)
			if line == "" || strings.HasPrefix(line, "--") {
				continue
			}
			lines = append(lines, line)
		}
		if len(lines) > 0 {
			out = append(out, strings.Join(lines, "\n"))
		}
	}
	return out
}
