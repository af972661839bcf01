package testfixtures

import (
	"path/filepath"
	"testing"

	"github.com/example/unconference-planner/internal/persistence"
	"github.com/example/unconference-planner/internal/persistence/sqlite"
)

// plannerSchema mirrors the migrations in migrations/. The harness applies it
// directly so persistence tests in other packages need no migration files.
const plannerSchema = `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		display_name TEXT NOT NULL,
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT 'viewer' CHECK (role IN ('viewer', 'facilitator', 'admin')),
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS rooms (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		location TEXT,
		available_spots INTEGER NOT NULL DEFAULT 0 CHECK (available_spots >= 0),
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS timeslots (
		id TEXT PRIMARY KEY,
		start_time TEXT NOT NULL,
		end_time TEXT NOT NULL,
		blocked INTEGER NOT NULL DEFAULT 0 CHECK (blocked IN (0, 1)),
		blocked_reason TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		CHECK (blocked = 0 OR blocked_reason IS NOT NULL)
	);

	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		body TEXT NOT NULL DEFAULT '',
		tag TEXT,
		owner_id TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		FOREIGN KEY (owner_id) REFERENCES users(id)
	);

	CREATE TABLE IF NOT EXISTS user_votes (
		session_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		created_at TEXT NOT NULL,
		PRIMARY KEY (session_id, user_id),
		FOREIGN KEY (session_id) REFERENCES sessions(id),
		FOREIGN KEY (user_id) REFERENCES users(id)
	);

	CREATE TABLE IF NOT EXISTS assignments (
		room_id TEXT NOT NULL,
		timeslot_id TEXT NOT NULL,
		session_id TEXT NOT NULL UNIQUE,
		created_at TEXT NOT NULL,
		PRIMARY KEY (room_id, timeslot_id),
		FOREIGN KEY (room_id) REFERENCES rooms(id),
		FOREIGN KEY (timeslot_id) REFERENCES timeslots(id),
		FOREIGN KEY (session_id) REFERENCES sessions(id)
	);

	CREATE TABLE IF NOT EXISTS auth_sessions (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		token TEXT NOT NULL UNIQUE,
		expires_at TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		revoked_at TEXT,
		FOREIGN KEY (user_id) REFERENCES users(id)
	);
`

// SQLiteHarness provides repository access backed by a temporary SQLite
// database for integration-style persistence tests.
type SQLiteHarness struct {
	Pool         *sqlite.ConnectionPool
	Users        persistence.UserRepository
	Rooms        persistence.RoomRepository
	Timeslots    persistence.TimeslotRepository
	Sessions     persistence.SessionRepository
	Assignments  persistence.AssignmentRepository
	AuthSessions persistence.AuthSessionRepository

	cleanup func()
}

// Close releases resources associated with the harness.
func (h *SQLiteHarness) Close() {
	if h != nil && h.cleanup != nil {
		h.cleanup()
		h.cleanup = nil
	}
}

// NewSQLiteHarness constructs a SQLiteHarness over a temporary file with the
// full planner schema applied. Cleanup is registered with the provided
// testing.TB, though callers may also invoke Close directly.
func NewSQLiteHarness(tb testing.TB) *SQLiteHarness {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), "planner.db")

	pool, err := sqlite.NewConnectionPool(sqlite.TempFileTestConfig(path))
	if err != nil {
		tb.Fatalf("failed to open database: %v", err)
	}

	if _, err := pool.DB().Exec(plannerSchema); err != nil {
		_ = pool.Close()
		tb.Fatalf("failed to apply schema: %v", err)
	}

	harness := &SQLiteHarness{
		Pool:         pool,
		Users:        sqlite.NewUserRepository(pool),
		Rooms:        sqlite.NewRoomRepository(pool),
		Timeslots:    sqlite.NewTimeslotRepository(pool),
		Sessions:     sqlite.NewSessionRepository(pool),
		Assignments:  sqlite.NewAssignmentRepository(pool),
		AuthSessions: sqlite.NewAuthSessionRepository(pool),
		cleanup: func() {
			_ = pool.Close()
		},
	}

	tb.Cleanup(harness.Close)
	return harness
}
