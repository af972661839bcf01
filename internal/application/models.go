package application

import (
	"time"

	"github.com/example/unconference-planner/internal/assign"
)

// Role classifies what a user may do. Viewers browse and vote, facilitators
// additionally edit the schedule board, admins additionally manage the
// catalogs and the user list.
type Role string

const (
	RoleViewer      Role = "viewer"
	RoleFacilitator Role = "facilitator"
	RoleAdmin       Role = "admin"
)

// Valid reports whether the role is one of the known values.
func (r Role) Valid() bool {
	switch r {
	case RoleViewer, RoleFacilitator, RoleAdmin:
		return true
	}
	return false
}

// CanFacilitate reports whether the role may mutate the schedule board.
func (r Role) CanFacilitate() bool {
	return r == RoleFacilitator || r == RoleAdmin
}

// IsAdmin reports whether the role may manage catalogs and users.
func (r Role) IsAdmin() bool {
	return r == RoleAdmin
}

// Principal represents the authenticated user invoking a service method.
// The zero value is an anonymous caller with no permissions.
type Principal struct {
	UserID string
	Role   Role
}

// User represents a registered attendee account.
type User struct {
	ID           string
	Email        string
	DisplayName  string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// RegisterUserInput captures the fields of an open registration request.
type RegisterUserInput struct {
	Email       string
	DisplayName string
	Password    string
}

// UserInput captures caller provided user fields for admin managed updates.
type UserInput struct {
	Email       string
	DisplayName string
	Role        Role
}

// UpdateUserParams wraps the data required to update a user.
type UpdateUserParams struct {
	Principal Principal
	UserID    string
	Input     UserInput
}

// Session represents a talk proposal. Votes is a read-only count derived
// from recorded votes; the scheduling core never mutates it.
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

// SessionInput captures caller provided proposal fields.
type SessionInput struct {
	Title string
	Body  string
	Tag   *string
}

// CreateSessionParams wraps the data required to create a proposal.
type CreateSessionParams struct {
	Principal Principal
	Input     SessionInput
}

// UpdateSessionParams wraps the data required to update a proposal.
type UpdateSessionParams struct {
	Principal Principal
	SessionID string
	Input     SessionInput
}

// Room represents a room catalog entry. AvailableSpots is informational
// and does not constrain scheduling.
type Room struct {
	ID             string
	Name           string
	Location       string
	AvailableSpots int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// RoomInput captures caller provided room fields.
type RoomInput struct {
	Name           string
	Location       string
	AvailableSpots int
}

// CreateRoomParams wraps the data required to create a room.
type CreateRoomParams struct {
	Principal Principal
	Input     RoomInput
}

// UpdateRoomParams wraps the data required to update a room.
type UpdateRoomParams struct {
	Principal Principal
	RoomID    string
	Input     RoomInput
}

// Timeslot represents a timeslot catalog entry. A blocked timeslot carries
// a reason and never receives assignments.
type Timeslot struct {
	ID            string
	Start         time.Time
	End           time.Time
	Blocked       bool
	BlockedReason *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Duration returns the length of the timeslot.
func (t Timeslot) Duration() time.Duration {
	return t.End.Sub(t.Start)
}

// TimeslotInput captures caller provided timeslot fields. Blocked timeslots
// require a reason.
type TimeslotInput struct {
	Start         time.Time
	End           time.Time
	Blocked       bool
	BlockedReason *string
}

// CreateTimeslotParams wraps the data required to create a timeslot.
type CreateTimeslotParams struct {
	Principal Principal
	Input     TimeslotInput
}

// UpdateTimeslotParams wraps the data required to update a timeslot.
type UpdateTimeslotParams struct {
	Principal  Principal
	TimeslotID string
	Input      TimeslotInput
}

// Board is a consistent snapshot of the schedule board. Entries are in
// canonical slot order; Version increases with every committed mutation.
type Board struct {
	Entries []assign.Entry
	Version uint64
}

// SlotState reports the occupant of one slot after a mutation. An empty
// SessionID means the slot is free.
type SlotState struct {
	Slot      assign.Slot
	SessionID string
}

// MoveResult reports the two slots touched by a move or swap and the board
// version the mutation committed.
type MoveResult struct {
	Slots   []SlotState
	Version uint64
}

// MoveParams wraps the data required to move or swap a scheduled session.
// ExpectedVersion, when non-zero, rejects the mutation with ErrConflict if
// the board has moved on since the caller last read it.
type MoveParams struct {
	Principal       Principal
	From            assign.Slot
	To              assign.Slot
	ExpectedVersion uint64
}

// SwapParams wraps the data required to exchange two scheduled sessions.
type SwapParams struct {
	Principal       Principal
	SlotA           assign.Slot
	SlotB           assign.Slot
	ExpectedVersion uint64
}
