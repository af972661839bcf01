package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/example/unconference-planner/internal/persistence"
)

// testSchema mirrors the migrations in migrations/. Repository tests create
// the full schema because the tables reference each other.
const testSchema = `
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

// setupTestDatabase opens an in-memory database with the full planner
// schema applied.
func setupTestDatabase(t *testing.T) *ConnectionPool {
	t.Helper()

	pool, err := NewConnectionPool(InMemoryTestConfig())
	if err != nil {
		t.Fatalf("failed to create connection pool: %v", err)
	}
	t.Cleanup(func() { pool.Close() })

	if _, err := pool.DB().Exec(testSchema); err != nil {
		t.Fatalf("failed to create test schema: %v", err)
	}

	return pool
}

func seedUser(t *testing.T, pool *ConnectionPool, id, email string) {
	t.Helper()

	repo := NewUserRepository(pool)
	err := repo.CreateUser(context.Background(), persistence.User{
		ID:           id,
		Email:        email,
		DisplayName:  "User " + id,
		PasswordHash: "$argon2id$v=19$m=65536,t=3,p=2$c2FsdA$aGFzaA",
		Role:         "viewer",
	})
	if err != nil {
		t.Fatalf("failed to seed user %s: %v", id, err)
	}
}

func seedRoom(t *testing.T, pool *ConnectionPool, id, name string) {
	t.Helper()

	repo := NewRoomRepository(pool)
	err := repo.CreateRoom(context.Background(), persistence.Room{
		ID:             id,
		Name:           name,
		AvailableSpots: 20,
	})
	if err != nil {
		t.Fatalf("failed to seed room %s: %v", id, err)
	}
}

func seedTimeslot(t *testing.T, pool *ConnectionPool, id string, start time.Time) {
	t.Helper()

	repo := NewTimeslotRepository(pool)
	err := repo.CreateTimeslot(context.Background(), persistence.Timeslot{
		ID:    id,
		Start: start,
		End:   start.Add(45 * time.Minute),
	})
	if err != nil {
		t.Fatalf("failed to seed timeslot %s: %v", id, err)
	}
}

func seedSession(t *testing.T, pool *ConnectionPool, id, ownerID string) {
	t.Helper()

	repo := NewSessionRepository(pool)
	err := repo.CreateSession(context.Background(), persistence.Session{
		ID:      id,
		Title:   "Session " + id,
		OwnerID: ownerID,
	})
	if err != nil {
		t.Fatalf("failed to seed session %s: %v", id, err)
	}
}

func countTableRows(t *testing.T, pool *ConnectionPool, table string) int {
	t.Helper()

	var n int
	if err := pool.DB().QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n); err != nil {
		t.Fatalf("failed to count rows in %s: %v", table, err)
	}
	return n
}
