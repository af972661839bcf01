package migration

import (
	"context"
	"database/sql"
	"testing"

	_ "modernc.org/sqlite"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func countRows(t *testing.T, db *sql.DB, table string) int {
	t.Helper()
	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n); err != nil {
		t.Fatalf("failed to count %s: %v", table, err)
	}
	return n
}

func TestExecutor_EnsureVersionTable(t *testing.T) {
	t.Run("creates the table and is idempotent", func(t *testing.T) {
		ctx := context.Background()
		executor := NewExecutor(openTestDB(t))

		if err := executor.EnsureVersionTable(ctx); err != nil {
			t.Fatalf("first call failed: %v", err)
		}
		if err := executor.EnsureVersionTable(ctx); err != nil {
			t.Fatalf("second call failed: %v", err)
		}
	})
}

func TestExecutor_Apply(t *testing.T) {
	t.Run("executes statements and records the version together", func(t *testing.T) {
		ctx := context.Background()
		db := openTestDB(t)
		executor := NewExecutor(db)
		if err := executor.EnsureVersionTable(ctx); err != nil {
			t.Fatalf("EnsureVersionTable failed: %v", err)
		}

		m := Migration{
			Version:  "001",
			SQL:      "CREATE TABLE rooms (id TEXT PRIMARY KEY);\nCREATE TABLE timeslots (id TEXT PRIMARY KEY);",
			Checksum: "abc123",
		}
		if err := executor.Apply(ctx, m); err != nil {
			t.Fatalf("Apply failed: %v", err)
		}

		if n := countRows(t, db, "rooms"); n != 0 {
			t.Fatalf("expected empty rooms table, got %d rows", n)
		}
		if n := countRows(t, db, "timeslots"); n != 0 {
			t.Fatalf("expected empty timeslots table, got %d rows", n)
		}

		applied, err := executor.Applied(ctx)
		if err != nil {
			t.Fatalf("Applied failed: %v", err)
		}
		if len(applied) != 1 || applied[0].Version != "001" {
			t.Fatalf("expected version 001 recorded, got %v", applied)
		}
		if applied[0].Checksum != "abc123" {
			t.Fatalf("expected the checksum recorded, got %q", applied[0].Checksum)
		}
		if applied[0].AppliedAt.IsZero() {
			t.Fatal("expected a parsed applied_at timestamp")
		}
	})

	t.Run("rolls back the whole file on a failing statement", func(t *testing.T) {
		ctx := context.Background()
		db := openTestDB(t)
		executor := NewExecutor(db)
		if err := executor.EnsureVersionTable(ctx); err != nil {
			t.Fatalf("EnsureVersionTable failed: %v", err)
		}

		m := Migration{
			Version: "001",
			SQL:     "CREATE TABLE rooms (id TEXT PRIMARY KEY);\nTHIS IS NOT SQL;",
		}
		if err := executor.Apply(ctx, m); err == nil {
			t.Fatal("expected Apply to fail")
		}

		var name string
		err := db.QueryRow("SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'rooms'").Scan(&name)
		if err != sql.ErrNoRows {
			t.Fatalf("expected the rooms table rolled back, got %q, err %v", name, err)
		}
		if n := countRows(t, db, "schema_migrations"); n != 0 {
			t.Fatalf("expected no recorded version, got %d rows", n)
		}
	})

	t.Run("skips comment-only fragments", func(t *testing.T) {
		ctx := context.Background()
		db := openTestDB(t)
		executor := NewExecutor(db)
		if err := executor.EnsureVersionTable(ctx); err != nil {
			t.Fatalf("EnsureVersionTable failed: %v", err)
		}

		m := Migration{
			Version: "001",
			SQL:     "-- rooms catalog\nCREATE TABLE rooms (id TEXT PRIMARY KEY);\n-- trailing note\n",
		}
		if err := executor.Apply(ctx, m); err != nil {
			t.Fatalf("Apply failed: %v", err)
		}
	})
}

func TestStatements(t *testing.T) {
	got := statements("-- header\nCREATE TABLE a (id TEXT);\n\nCREATE TABLE b (id TEXT);\n-- done\n")
	if len(got) != 2 {
		t.Fatalf("expected 2 statements, got %d: %v", len(got), got)
	}
	if got[0] != "CREATE TABLE a (id TEXT)" {
		t.Fatalf("unexpected first statement %q", got[0])
	}
}
