package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/unconference-planner/internal/application"
	"github.com/example/unconference-planner/internal/persistence"
)

var (
	userCounter     uint64
	roomCounter     uint64
	timeslotCounter uint64
	sessionCounter  uint64
)

var referenceTime = time.Date(2024, time.January, 2, 15, 4, 5, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// ----------------------------- User fixtures -----------------------------

// UserFixture represents a deterministic user record that can be materialised
// for application or persistence tests.
type UserFixture struct {
	ID           string
	Email        string
	DisplayName  string
	PasswordHash string
	Role         application.Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserOption configures the generated user fixture.
type UserOption func(*UserFixture)

// NewUserFixture returns a deterministic user fixture with optional overrides.
func NewUserFixture(opts ...UserOption) UserFixture {
	idx := atomic.AddUint64(&userCounter, 1)
	id := fmt.Sprintf("user-%03d", idx)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	fixture := UserFixture{
		ID:           id,
		Email:        fmt.Sprintf("%s@example.com", id),
		DisplayName:  fmt.Sprintf("User %03d", idx),
		PasswordHash: fmt.Sprintf("hash-%03d", idx),
		Role:         application.RoleViewer,
		CreatedAt:    created,
		UpdatedAt:    created,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithUserID overrides the generated user ID.
func WithUserID(id string) UserOption {
	return func(f *UserFixture) {
		f.ID = id
	}
}

// WithUserEmail overrides the generated email address.
func WithUserEmail(email string) UserOption {
	return func(f *UserFixture) {
		f.Email = email
	}
}

// WithUserDisplayName overrides the generated display name.
func WithUserDisplayName(name string) UserOption {
	return func(f *UserFixture) {
		f.DisplayName = name
	}
}

// WithUserPasswordHash overrides the generated password hash.
func WithUserPasswordHash(hash string) UserOption {
	return func(f *UserFixture) {
		f.PasswordHash = hash
	}
}

// WithUserRole sets the role on the generated fixture.
func WithUserRole(role application.Role) UserOption {
	return func(f *UserFixture) {
		f.Role = role
	}
}

// WithUserTimestamps sets both created and updated timestamps on the fixture.
func WithUserTimestamps(created, updated time.Time) UserOption {
	return func(f *UserFixture) {
		f.CreatedAt = created
		f.UpdatedAt = updated
	}
}

// Application converts the fixture into the application layer representation.
func (f UserFixture) Application() application.User {
	return application.User{
		ID:           f.ID,
		Email:        f.Email,
		DisplayName:  f.DisplayName,
		PasswordHash: f.PasswordHash,
		Role:         f.Role,
		CreatedAt:    f.CreatedAt,
		UpdatedAt:    f.UpdatedAt,
	}
}

// Principal returns the principal the fixture user authenticates as.
func (f UserFixture) Principal() application.Principal {
	return application.Principal{UserID: f.ID, Role: f.Role}
}

// Persistence converts the fixture into the persistence layer representation.
func (f UserFixture) Persistence() persistence.User {
	return persistence.User{
		ID:           f.ID,
		Email:        f.Email,
		DisplayName:  f.DisplayName,
		PasswordHash: f.PasswordHash,
		Role:         string(f.Role),
		CreatedAt:    f.CreatedAt,
		UpdatedAt:    f.UpdatedAt,
	}
}

// Input converts the fixture into a caller supplied user input.
func (f UserFixture) Input() application.UserInput {
	return application.UserInput{
		Email:       f.Email,
		DisplayName: f.DisplayName,
		Role:        f.Role,
	}
}

// ----------------------------- Room fixtures -----------------------------

// RoomFixture represents a deterministic room catalog entry.
type RoomFixture struct {
	ID             string
	Name           string
	Location       string
	AvailableSpots int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// RoomOption configures the generated room fixture.
type RoomOption func(*RoomFixture)

// NewRoomFixture returns a deterministic room fixture with optional overrides.
func NewRoomFixture(opts ...RoomOption) RoomFixture {
	idx := atomic.AddUint64(&roomCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	fixture := RoomFixture{
		ID:             fmt.Sprintf("room-%03d", idx),
		Name:           fmt.Sprintf("Room %03d", idx),
		Location:       fmt.Sprintf("Floor %d", idx),
		AvailableSpots: 20,
		CreatedAt:      created,
		UpdatedAt:      created,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithRoomID overrides the generated room ID.
func WithRoomID(id string) RoomOption {
	return func(f *RoomFixture) {
		f.ID = id
	}
}

// WithRoomName overrides the generated room name.
func WithRoomName(name string) RoomOption {
	return func(f *RoomFixture) {
		f.Name = name
	}
}

// WithRoomLocation overrides the generated room location.
func WithRoomLocation(location string) RoomOption {
	return func(f *RoomFixture) {
		f.Location = location
	}
}

// WithRoomSpots sets the informational seat count.
func WithRoomSpots(spots int) RoomOption {
	return func(f *RoomFixture) {
		f.AvailableSpots = spots
	}
}

// Application converts the fixture into the application layer representation.
func (f RoomFixture) Application() application.Room {
	return application.Room{
		ID:             f.ID,
		Name:           f.Name,
		Location:       f.Location,
		AvailableSpots: f.AvailableSpots,
		CreatedAt:      f.CreatedAt,
		UpdatedAt:      f.UpdatedAt,
	}
}

// Persistence converts the fixture into the persistence layer representation.
func (f RoomFixture) Persistence() persistence.Room {
	return persistence.Room{
		ID:             f.ID,
		Name:           f.Name,
		Location:       f.Location,
		AvailableSpots: f.AvailableSpots,
		CreatedAt:      f.CreatedAt,
		UpdatedAt:      f.UpdatedAt,
	}
}

// Input converts the fixture into a caller supplied room input.
func (f RoomFixture) Input() application.RoomInput {
	return application.RoomInput{
		Name:           f.Name,
		Location:       f.Location,
		AvailableSpots: f.AvailableSpots,
	}
}

// --------------------------- Timeslot fixtures ---------------------------

// TimeslotFixture represents a deterministic timeslot catalog entry.
// Consecutive fixtures occupy consecutive hour-long windows.
type TimeslotFixture struct {
	ID            string
	Start         time.Time
	End           time.Time
	Blocked       bool
	BlockedReason *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// TimeslotOption configures the generated timeslot fixture.
type TimeslotOption func(*TimeslotFixture)

// NewTimeslotFixture returns a deterministic timeslot fixture with optional overrides.
func NewTimeslotFixture(opts ...TimeslotOption) TimeslotFixture {
	idx := atomic.AddUint64(&timeslotCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	start := referenceTime.Add(time.Duration(idx) * time.Hour)
	fixture := TimeslotFixture{
		ID:        fmt.Sprintf("timeslot-%03d", idx),
		Start:     start,
		End:       start.Add(time.Hour),
		CreatedAt: created,
		UpdatedAt: created,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithTimeslotID overrides the generated timeslot ID.
func WithTimeslotID(id string) TimeslotOption {
	return func(f *TimeslotFixture) {
		f.ID = id
	}
}

// WithTimeslotWindow sets the start and end instants.
func WithTimeslotWindow(start, end time.Time) TimeslotOption {
	return func(f *TimeslotFixture) {
		f.Start = start
		f.End = end
	}
}

// WithTimeslotBlocked marks the timeslot blocked with the given reason.
func WithTimeslotBlocked(reason string) TimeslotOption {
	return func(f *TimeslotFixture) {
		f.Blocked = true
		f.BlockedReason = &reason
	}
}

// Application converts the fixture into the application layer representation.
func (f TimeslotFixture) Application() application.Timeslot {
	return application.Timeslot{
		ID:            f.ID,
		Start:         f.Start,
		End:           f.End,
		Blocked:       f.Blocked,
		BlockedReason: f.BlockedReason,
		CreatedAt:     f.CreatedAt,
		UpdatedAt:     f.UpdatedAt,
	}
}

// Persistence converts the fixture into the persistence layer representation.
func (f TimeslotFixture) Persistence() persistence.Timeslot {
	return persistence.Timeslot{
		ID:            f.ID,
		Start:         f.Start,
		End:           f.End,
		Blocked:       f.Blocked,
		BlockedReason: f.BlockedReason,
		CreatedAt:     f.CreatedAt,
		UpdatedAt:     f.UpdatedAt,
	}
}

// Input converts the fixture into a caller supplied timeslot input.
func (f TimeslotFixture) Input() application.TimeslotInput {
	return application.TimeslotInput{
		Start:         f.Start,
		End:           f.End,
		Blocked:       f.Blocked,
		BlockedReason: f.BlockedReason,
	}
}

// --------------------------- Session fixtures ----------------------------

// SessionFixture represents a deterministic talk proposal.
type SessionFixture struct {
	ID        string
	Title     string
	Body      string
	Tag       *string
	OwnerID   string
	Votes     int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SessionOption configures the generated session fixture.
type SessionOption func(*SessionFixture)

// NewSessionFixture returns a deterministic session fixture with optional overrides.
func NewSessionFixture(opts ...SessionOption) SessionFixture {
	idx := atomic.AddUint64(&sessionCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	fixture := SessionFixture{
		ID:        fmt.Sprintf("session-%03d", idx),
		Title:     fmt.Sprintf("Session %03d", idx),
		Body:      fmt.Sprintf("Abstract for session %03d", idx),
		OwnerID:   fmt.Sprintf("user-%03d", idx),
		CreatedAt: created,
		UpdatedAt: created,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithSessionID overrides the generated session ID.
func WithSessionID(id string) SessionOption {
	return func(f *SessionFixture) {
		f.ID = id
	}
}

// WithSessionTitle overrides the generated title.
func WithSessionTitle(title string) SessionOption {
	return func(f *SessionFixture) {
		f.Title = title
	}
}

// WithSessionOwner sets the owner of the proposal.
func WithSessionOwner(ownerID string) SessionOption {
	return func(f *SessionFixture) {
		f.OwnerID = ownerID
	}
}

// WithSessionTag sets the optional topic tag.
func WithSessionTag(tag string) SessionOption {
	return func(f *SessionFixture) {
		f.Tag = &tag
	}
}

// WithSessionVotes sets the derived vote count on read-side fixtures.
func WithSessionVotes(votes int) SessionOption {
	return func(f *SessionFixture) {
		f.Votes = votes
	}
}

// Application converts the fixture into the application layer representation.
func (f SessionFixture) Application() application.Session {
	return application.Session{
		ID:        f.ID,
		Title:     f.Title,
		Body:      f.Body,
		Tag:       f.Tag,
		OwnerID:   f.OwnerID,
		Votes:     f.Votes,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
	}
}

// Persistence converts the fixture into the persistence layer representation.
func (f SessionFixture) Persistence() persistence.Session {
	return persistence.Session{
		ID:        f.ID,
		Title:     f.Title,
		Body:      f.Body,
		Tag:       f.Tag,
		OwnerID:   f.OwnerID,
		Votes:     f.Votes,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
	}
}

// Input converts the fixture into a caller supplied proposal input.
func (f SessionFixture) Input() application.SessionInput {
	return application.SessionInput{
		Title: f.Title,
		Body:  f.Body,
		Tag:   f.Tag,
	}
}
