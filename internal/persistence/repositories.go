package persistence

import "context"
import "time"

// UserRepository exposes CRUD operations for users.
type UserRepository interface {
	CreateUser(ctx context.Context, user User) error
	UpdateUser(ctx context.Context, user User) error
	GetUser(ctx context.Context, id string) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
	DeleteUser(ctx context.Context, id string) error
}

// SessionRepository stores talk proposals and the per-user votes backing
// their vote counts. Deleting a session cascades to its votes and to any
// board entry referencing it.
type SessionRepository interface {
	CreateSession(ctx context.Context, session Session) error
	UpdateSession(ctx context.Context, session Session) error
	GetSession(ctx context.Context, id string) (Session, error)
	ListSessions(ctx context.Context) ([]Session, error)
	DeleteSession(ctx context.Context, id string) error
	AddVote(ctx context.Context, sessionID, userID string) error
	RemoveVote(ctx context.Context, sessionID, userID string) error
	ListVotesByUser(ctx context.Context, userID string) ([]string, error)
}

// RoomRepository exposes CRUD operations for rooms. Deleting a room
// cascades to any board entry referencing it.
type RoomRepository interface {
	CreateRoom(ctx context.Context, room Room) error
	UpdateRoom(ctx context.Context, room Room) error
	GetRoom(ctx context.Context, id string) (Room, error)
	ListRooms(ctx context.Context) ([]Room, error)
	DeleteRoom(ctx context.Context, id string) error
}

// TimeslotRepository exposes CRUD operations for timeslots. Deleting a
// timeslot, or blocking one, cascades to any board entry referencing it.
type TimeslotRepository interface {
	CreateTimeslot(ctx context.Context, timeslot Timeslot) error
	UpdateTimeslot(ctx context.Context, timeslot Timeslot) error
	GetTimeslot(ctx context.Context, id string) (Timeslot, error)
	ListTimeslots(ctx context.Context) ([]Timeslot, error)
	DeleteTimeslot(ctx context.Context, id string) error
}

// AssignmentRepository stores the schedule board entries.
type AssignmentRepository interface {
	// ListEntries returns every board entry.
	ListEntries(ctx context.Context) ([]AssignmentEntry, error)
	// ReplaceEntries swaps the whole board for the given entries in one
	// transaction. An empty slice clears the board.
	ReplaceEntries(ctx context.Context, entries []AssignmentEntry) error
	// ApplyEntryChanges removes and inserts entries in one transaction,
	// removals first, so a swap never trips the uniqueness constraints.
	ApplyEntryChanges(ctx context.Context, remove []AssignmentSlot, add []AssignmentEntry) error
}

// AuthSessionRepository stores login session state.
type AuthSessionRepository interface {
	CreateAuthSession(ctx context.Context, session AuthSession) (AuthSession, error)
	GetAuthSession(ctx context.Context, token string) (AuthSession, error)
	UpdateAuthSession(ctx context.Context, session AuthSession) (AuthSession, error)
	RevokeAuthSession(ctx context.Context, token string, revokedAt time.Time) (AuthSession, error)
	DeleteExpiredAuthSessions(ctx context.Context, reference time.Time) error
}
