package persistence

import "time"

// User represents an attendee account in the planner domain.
type User struct {
	ID           string
	Email        string
	DisplayName  string
	PasswordHash string
	Role         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Session represents a talk proposal submitted by an attendee. Votes is a
// read projection derived from the user_votes table; write operations
// ignore it.
type Session struct {
	ID        string
	Title     string
	Body      string
	Tag       *string
	OwnerID   string
	Votes     int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Room represents a room catalog entry.
type Room struct {
	ID             string
	Name           string
	Location       string
	AvailableSpots int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Timeslot represents a timeslot catalog entry. Blocked timeslots carry a
// human-readable reason and never receive assignments.
type Timeslot struct {
	ID            string
	Start         time.Time
	End           time.Time
	Blocked       bool
	BlockedReason *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// AssignmentSlot identifies one (room, timeslot) cell of the board.
type AssignmentSlot struct {
	RoomID     string
	TimeslotID string
}

// AssignmentEntry persists one board entry: the session scheduled into a
// slot. Entries are inserted and deleted, never updated in place.
type AssignmentEntry struct {
	RoomID     string
	TimeslotID string
	SessionID  string
	CreatedAt  time.Time
}

// AuthSession represents a login session persisted for a user.
type AuthSession struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
	RevokedAt *time.Time
}
