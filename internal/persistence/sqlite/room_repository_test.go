package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/unconference-planner/internal/persistence"
)

func TestRoomRepository_CreateRoom(t *testing.T) {
	pool := setupTestDatabase(t)
	repo := NewRoomRepository(pool)
	ctx := context.Background()

	room := persistence.Room{
		ID:             "room1",
		Name:           "Main Hall",
		Location:       "Building 1, Floor 2",
		AvailableSpots: 40,
	}

	if err := repo.CreateRoom(ctx, room); err != nil {
		t.Fatalf("CreateRoom failed: %v", err)
	}

	retrieved, err := repo.GetRoom(ctx, "room1")
	if err != nil {
		t.Fatalf("GetRoom failed: %v", err)
	}

	if retrieved.Name != "Main Hall" {
		t.Errorf("expected name Main Hall, got %q", retrieved.Name)
	}
	if retrieved.Location != "Building 1, Floor 2" {
		t.Errorf("expected location roundtrip, got %q", retrieved.Location)
	}
	if retrieved.AvailableSpots != 40 {
		t.Errorf("expected 40 spots, got %d", retrieved.AvailableSpots)
	}
}

func TestRoomRepository_CreateRoom_Constraints(t *testing.T) {
	pool := setupTestDatabase(t)
	repo := NewRoomRepository(pool)
	ctx := context.Background()

	tests := []struct {
		name string
		room persistence.Room
	}{
		{"empty id", persistence.Room{Name: "Hall"}},
		{"blank name", persistence.Room{ID: "room1", Name: "  "}},
		{"negative spots", persistence.Room{ID: "room1", Name: "Hall", AvailableSpots: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := repo.CreateRoom(ctx, tt.room); !errors.Is(err, persistence.ErrConstraintViolation) {
				t.Fatalf("expected %v, got %v", persistence.ErrConstraintViolation, err)
			}
		})
	}
}

func TestRoomRepository_UpdateRoom(t *testing.T) {
	pool := setupTestDatabase(t)
	repo := NewRoomRepository(pool)
	ctx := context.Background()

	seedRoom(t, pool, "room1", "Main Hall")

	if err := repo.UpdateRoom(ctx, persistence.Room{
		ID:             "room1",
		Name:           "Workshop Room",
		Location:       "Annex",
		AvailableSpots: 12,
	}); err != nil {
		t.Fatalf("UpdateRoom failed: %v", err)
	}

	retrieved, err := repo.GetRoom(ctx, "room1")
	if err != nil {
		t.Fatalf("GetRoom failed: %v", err)
	}
	if retrieved.Name != "Workshop Room" || retrieved.Location != "Annex" || retrieved.AvailableSpots != 12 {
		t.Errorf("update not applied: %+v", retrieved)
	}

	if err := repo.UpdateRoom(ctx, persistence.Room{ID: "ghost", Name: "X"}); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected %v, got %v", persistence.ErrNotFound, err)
	}
}

func TestRoomRepository_ListRooms(t *testing.T) {
	pool := setupTestDatabase(t)
	repo := NewRoomRepository(pool)
	ctx := context.Background()

	seedRoom(t, pool, "room2", "Workshop Room")
	seedRoom(t, pool, "room1", "Main Hall")

	rooms, err := repo.ListRooms(ctx)
	if err != nil {
		t.Fatalf("ListRooms failed: %v", err)
	}

	if len(rooms) != 2 {
		t.Fatalf("expected 2 rooms, got %d", len(rooms))
	}
	if rooms[0].Name != "Main Hall" || rooms[1].Name != "Workshop Room" {
		t.Errorf("expected name ordering, got [%s %s]", rooms[0].Name, rooms[1].Name)
	}
}

func TestRoomRepository_DeleteRoom_Cascades(t *testing.T) {
	pool := setupTestDatabase(t)
	repo := NewRoomRepository(pool)
	assignments := NewAssignmentRepository(pool)
	ctx := context.Background()

	seedUser(t, pool, "alice", "alice@example.com")
	seedRoom(t, pool, "room1", "Main Hall")
	seedTimeslot(t, pool, "slot1", time.Date(2026, 6, 12, 10, 0, 0, 0, time.UTC))
	seedSession(t, pool, "s1", "alice")

	if err := assignments.ReplaceEntries(ctx, []persistence.AssignmentEntry{
		{RoomID: "room1", TimeslotID: "slot1", SessionID: "s1"},
	}); err != nil {
		t.Fatalf("ReplaceEntries failed: %v", err)
	}

	if err := repo.DeleteRoom(ctx, "room1"); err != nil {
		t.Fatalf("DeleteRoom failed: %v", err)
	}

	if _, err := repo.GetRoom(ctx, "room1"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected room gone, got %v", err)
	}
	if n := countTableRows(t, pool, "assignments"); n != 0 {
		t.Errorf("expected board entries in the room gone, got %d rows", n)
	}

	if err := repo.DeleteRoom(ctx, "ghost"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected %v, got %v", persistence.ErrNotFound, err)
	}
}
