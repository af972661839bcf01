package application

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/example/unconference-planner/internal/assign"
)

type boardRepoStub struct {
	mu         sync.Mutex
	entries    map[assign.Slot]string
	listErr    error
	replaceErr error
	applyErr   error
}

func newBoardRepoStub() *boardRepoStub {
	return &boardRepoStub{entries: make(map[assign.Slot]string)}
}

func (s *boardRepoStub) ListEntries(ctx context.Context) ([]assign.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	out := make([]assign.Entry, 0, len(s.entries))
	for slot, sessionID := range s.entries {
		out = append(out, assign.Entry{Slot: slot, SessionID: sessionID})
	}
	return out, nil
}

func (s *boardRepoStub) ReplaceEntries(ctx context.Context, entries []assign.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.replaceErr != nil {
		return s.replaceErr
	}
	s.entries = make(map[assign.Slot]string, len(entries))
	for _, entry := range entries {
		s.entries[entry.Slot] = entry.SessionID
	}
	return nil
}

func (s *boardRepoStub) ApplyEntryChanges(ctx context.Context, remove []assign.Slot, add []assign.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.applyErr != nil {
		return s.applyErr
	}
	for _, slot := range remove {
		delete(s.entries, slot)
	}
	for _, entry := range add {
		s.entries[entry.Slot] = entry.SessionID
	}
	return nil
}

type catalogStub struct {
	rooms          []Room
	timeslots      []Timeslot
	sessions       []Session
	onListSessions func()
}

func (s *catalogStub) ListRooms(ctx context.Context) ([]Room, error) {
	return s.rooms, nil
}

func (s *catalogStub) ListTimeslots(ctx context.Context) ([]Timeslot, error) {
	return s.timeslots, nil
}

func (s *catalogStub) ListSessions(ctx context.Context) ([]Session, error) {
	if s.onListSessions != nil {
		s.onListSessions()
	}
	return s.sessions, nil
}

var facilitator = Principal{UserID: "fac-1", Role: RoleFacilitator}

// threeByTwoCatalog is the working example throughout: three rooms, two open
// timeslots, four proposals. Six slots, four of them end up occupied.
func threeByTwoCatalog() *catalogStub {
	start := time.Date(2024, time.June, 1, 9, 0, 0, 0, time.UTC)
	return &catalogStub{
		rooms: []Room{
			{ID: "room-a", Name: "A"},
			{ID: "room-b", Name: "B"},
			{ID: "room-c", Name: "C"},
		},
		timeslots: []Timeslot{
			{ID: "ts-1", Start: start, End: start.Add(time.Hour)},
			{ID: "ts-2", Start: start.Add(time.Hour), End: start.Add(2 * time.Hour)},
		},
		sessions: []Session{
			{ID: "sess-1", Title: "S1", Votes: 10},
			{ID: "sess-2", Title: "S2", Votes: 7},
			{ID: "sess-3", Title: "S3", Votes: 7},
			{ID: "sess-4", Title: "S4", Votes: 1},
		},
	}
}

func newBoardFixture(catalog *catalogStub) (*AssignmentService, *AssignmentStore, *boardRepoStub) {
	store := NewAssignmentStore()
	repo := newBoardRepoStub()
	return NewAssignmentService(store, repo, catalog), store, repo
}

func TestAssignmentService_Generate(t *testing.T) {
	t.Parallel()

	t.Run("rejects viewers", func(t *testing.T) {
		t.Parallel()

		svc, _, _ := newBoardFixture(threeByTwoCatalog())
		_, err := svc.Generate(context.Background(), Principal{UserID: "user-1", Role: RoleViewer})
		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("places every session when slots suffice", func(t *testing.T) {
		t.Parallel()

		svc, store, repo := newBoardFixture(threeByTwoCatalog())
		board, err := svc.Generate(context.Background(), facilitator)
		if err != nil {
			t.Fatalf("Generate returned error: %v", err)
		}
		if len(board.Entries) != 4 {
			t.Fatalf("expected 4 entries, got %d", len(board.Entries))
		}
		if board.Version != 1 {
			t.Fatalf("expected board version 1, got %d", board.Version)
		}

		placed := make(map[string]bool)
		for _, entry := range board.Entries {
			if placed[entry.SessionID] {
				t.Fatalf("session %s placed twice", entry.SessionID)
			}
			placed[entry.SessionID] = true
		}
		for _, id := range []string{"sess-1", "sess-2", "sess-3", "sess-4"} {
			if !placed[id] {
				t.Fatalf("session %s not placed", id)
			}
		}
		if store.Version() != 1 {
			t.Fatalf("expected store version 1, got %d", store.Version())
		}
		persisted, _ := repo.ListEntries(context.Background())
		if len(persisted) != 4 {
			t.Fatalf("expected 4 persisted entries, got %d", len(persisted))
		}
	})

	t.Run("is deterministic for identical catalogs", func(t *testing.T) {
		t.Parallel()

		svcA, _, _ := newBoardFixture(threeByTwoCatalog())
		svcB, _, _ := newBoardFixture(threeByTwoCatalog())

		boardA, err := svcA.Generate(context.Background(), facilitator)
		if err != nil {
			t.Fatalf("Generate returned error: %v", err)
		}
		boardB, err := svcB.Generate(context.Background(), facilitator)
		if err != nil {
			t.Fatalf("Generate returned error: %v", err)
		}
		if len(boardA.Entries) != len(boardB.Entries) {
			t.Fatalf("entry counts differ: %d vs %d", len(boardA.Entries), len(boardB.Entries))
		}
		for i := range boardA.Entries {
			if boardA.Entries[i] != boardB.Entries[i] {
				t.Fatalf("entry %d differs: %+v vs %+v", i, boardA.Entries[i], boardB.Entries[i])
			}
		}
	})

	t.Run("rejects a commit after the catalog changed", func(t *testing.T) {
		t.Parallel()

		catalog := threeByTwoCatalog()
		svc, store, _ := newBoardFixture(catalog)

		// The catalog moves while the snapshot is being taken; commit must
		// then see a newer catalog version and refuse.
		catalog.onListSessions = func() { store.BumpCatalog() }

		_, err := svc.Generate(context.Background(), facilitator)
		if !errors.Is(err, ErrConflict) {
			t.Fatalf("expected ErrConflict, got %v", err)
		}
		if store.Version() != 0 {
			t.Fatalf("expected board untouched, got version %d", store.Version())
		}
	})

	t.Run("a newer generate supersedes the one in flight", func(t *testing.T) {
		t.Parallel()

		catalog := threeByTwoCatalog()
		svc, _, _ := newBoardFixture(catalog)

		firstStarted := make(chan struct{})
		releaseFirst := make(chan struct{})
		var listCalls atomic.Int32
		catalog.onListSessions = func() {
			if listCalls.Add(1) == 1 {
				close(firstStarted)
				<-releaseFirst
			}
		}

		firstErr := make(chan error, 1)
		go func() {
			_, err := svc.Generate(context.Background(), facilitator)
			firstErr <- err
		}()

		<-firstStarted
		if _, err := svc.Generate(context.Background(), facilitator); err != nil {
			t.Fatalf("second Generate returned error: %v", err)
		}
		close(releaseFirst)

		if err := <-firstErr; !errors.Is(err, ErrSuperseded) {
			t.Fatalf("expected ErrSuperseded, got %v", err)
		}
	})
}

func TestAssignmentService_Clear(t *testing.T) {
	t.Parallel()

	svc, store, repo := newBoardFixture(threeByTwoCatalog())
	if _, err := svc.Generate(context.Background(), facilitator); err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}

	board, err := svc.Clear(context.Background(), facilitator)
	if err != nil {
		t.Fatalf("Clear returned error: %v", err)
	}
	if len(board.Entries) != 0 {
		t.Fatalf("expected empty board, got %d entries", len(board.Entries))
	}
	if board.Version != 2 {
		t.Fatalf("expected board version 2, got %d", board.Version)
	}
	if entries, _ := store.Snapshot(); len(entries) != 0 {
		t.Fatalf("expected empty store, got %v", entries)
	}
	if persisted, _ := repo.ListEntries(context.Background()); len(persisted) != 0 {
		t.Fatalf("expected empty persisted board, got %v", persisted)
	}

	if _, err := svc.Clear(context.Background(), Principal{UserID: "user-1", Role: RoleViewer}); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestAssignmentService_Move(t *testing.T) {
	t.Parallel()

	start := time.Date(2024, time.June, 1, 9, 0, 0, 0, time.UTC)
	catalog := func() *catalogStub {
		return &catalogStub{
			rooms: []Room{{ID: "room-a"}, {ID: "room-b"}},
			timeslots: []Timeslot{
				{ID: "ts-1", Start: start, End: start.Add(time.Hour)},
				{ID: "ts-blocked", Start: start.Add(time.Hour), End: start.Add(2 * time.Hour), Blocked: true},
			},
			sessions: []Session{
				{ID: "sess-1", Title: "S1", Votes: 5},
				{ID: "sess-2", Title: "S2", Votes: 3},
			},
		}
	}

	t.Run("moves into an empty slot", func(t *testing.T) {
		t.Parallel()

		svc, store, _ := newBoardFixture(catalog())
		store.Load([]assign.Entry{{Slot: slotOf("room-a", "ts-1"), SessionID: "sess-1"}})

		result, err := svc.Move(context.Background(), MoveParams{
			Principal: facilitator,
			From:      slotOf("room-a", "ts-1"),
			To:        slotOf("room-b", "ts-1"),
		})
		if err != nil {
			t.Fatalf("Move returned error: %v", err)
		}
		if result.Version != 1 {
			t.Fatalf("expected version 1, got %d", result.Version)
		}
		if len(result.Slots) != 2 {
			t.Fatalf("expected 2 slot states, got %d", len(result.Slots))
		}
		if result.Slots[0].SessionID != "" || result.Slots[1].SessionID != "sess-1" {
			t.Fatalf("unexpected slot states %+v", result.Slots)
		}
		if occupant, _ := store.Occupant(slotOf("room-b", "ts-1")); occupant != "sess-1" {
			t.Fatalf("expected sess-1 at destination, got %q", occupant)
		}
	})

	t.Run("move onto an occupied slot swaps the two sessions", func(t *testing.T) {
		t.Parallel()

		svc, store, _ := newBoardFixture(catalog())
		store.Load([]assign.Entry{
			{Slot: slotOf("room-a", "ts-1"), SessionID: "sess-1"},
			{Slot: slotOf("room-b", "ts-1"), SessionID: "sess-2"},
		})

		result, err := svc.Move(context.Background(), MoveParams{
			Principal: facilitator,
			From:      slotOf("room-a", "ts-1"),
			To:        slotOf("room-b", "ts-1"),
		})
		if err != nil {
			t.Fatalf("Move returned error: %v", err)
		}
		if result.Slots[0].SessionID != "sess-2" || result.Slots[1].SessionID != "sess-1" {
			t.Fatalf("expected a swap, got %+v", result.Slots)
		}
		if occupant, _ := store.Occupant(slotOf("room-a", "ts-1")); occupant != "sess-2" {
			t.Fatalf("expected sess-2 back at source, got %q", occupant)
		}
	})

	t.Run("opposing concurrent moves never drop a session", func(t *testing.T) {
		t.Parallel()

		svc, store, _ := newBoardFixture(catalog())
		slotA := slotOf("room-a", "ts-1")
		slotB := slotOf("room-b", "ts-1")
		store.Load([]assign.Entry{
			{Slot: slotA, SessionID: "sess-1"},
			{Slot: slotB, SessionID: "sess-2"},
		})

		for i := 0; i < 25; i++ {
			var wg sync.WaitGroup
			wg.Add(2)
			go func() {
				defer wg.Done()
				if _, err := svc.Move(context.Background(), MoveParams{
					Principal: facilitator,
					From:      slotA,
					To:        slotB,
				}); err != nil {
					t.Errorf("Move A->B returned error: %v", err)
				}
			}()
			go func() {
				defer wg.Done()
				if _, err := svc.Move(context.Background(), MoveParams{
					Principal: facilitator,
					From:      slotB,
					To:        slotA,
				}); err != nil {
					t.Errorf("Move B->A returned error: %v", err)
				}
			}()
			wg.Wait()

			for _, sessionID := range []string{"sess-1", "sess-2"} {
				if _, ok := store.SessionSlot(sessionID); !ok {
					t.Fatalf("%s fell off the board after round %d", sessionID, i)
				}
			}
			for _, slot := range []assign.Slot{slotA, slotB} {
				if occupant, ok := store.Occupant(slot); !ok || occupant == "" {
					t.Fatalf("slot %v left empty after round %d", slot, i)
				}
			}
		}
	})

	t.Run("moving from an empty slot is ErrNotFound", func(t *testing.T) {
		t.Parallel()

		svc, _, _ := newBoardFixture(catalog())
		_, err := svc.Move(context.Background(), MoveParams{
			Principal: facilitator,
			From:      slotOf("room-a", "ts-1"),
			To:        slotOf("room-b", "ts-1"),
		})
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("moving into a blocked timeslot is ErrSlotBlocked", func(t *testing.T) {
		t.Parallel()

		svc, store, _ := newBoardFixture(catalog())
		store.Load([]assign.Entry{{Slot: slotOf("room-a", "ts-1"), SessionID: "sess-1"}})

		_, err := svc.Move(context.Background(), MoveParams{
			Principal: facilitator,
			From:      slotOf("room-a", "ts-1"),
			To:        slotOf("room-a", "ts-blocked"),
		})
		if !errors.Is(err, ErrSlotBlocked) {
			t.Fatalf("expected ErrSlotBlocked, got %v", err)
		}
		if occupant, _ := store.Occupant(slotOf("room-a", "ts-1")); occupant != "sess-1" {
			t.Fatalf("expected the move to be rolled back, occupant %q", occupant)
		}
	})

	t.Run("a stale expected version is ErrConflict", func(t *testing.T) {
		t.Parallel()

		svc, store, _ := newBoardFixture(catalog())
		store.Load([]assign.Entry{{Slot: slotOf("room-a", "ts-1"), SessionID: "sess-1"}})

		_, err := svc.Move(context.Background(), MoveParams{
			Principal:       facilitator,
			From:            slotOf("room-a", "ts-1"),
			To:              slotOf("room-b", "ts-1"),
			ExpectedVersion: 7,
		})
		if !errors.Is(err, ErrConflict) {
			t.Fatalf("expected ErrConflict, got %v", err)
		}
	})

	t.Run("moving a slot onto itself leaves the version alone", func(t *testing.T) {
		t.Parallel()

		svc, store, _ := newBoardFixture(catalog())
		store.Load([]assign.Entry{{Slot: slotOf("room-a", "ts-1"), SessionID: "sess-1"}})

		result, err := svc.Move(context.Background(), MoveParams{
			Principal: facilitator,
			From:      slotOf("room-a", "ts-1"),
			To:        slotOf("room-a", "ts-1"),
		})
		if err != nil {
			t.Fatalf("Move returned error: %v", err)
		}
		if result.Version != 0 {
			t.Fatalf("expected version 0, got %d", result.Version)
		}
	})

	t.Run("rejects viewers", func(t *testing.T) {
		t.Parallel()

		svc, _, _ := newBoardFixture(catalog())
		_, err := svc.Move(context.Background(), MoveParams{
			Principal: Principal{UserID: "user-1", Role: RoleViewer},
			From:      slotOf("room-a", "ts-1"),
			To:        slotOf("room-b", "ts-1"),
		})
		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})
}

func TestAssignmentService_Swap(t *testing.T) {
	t.Parallel()

	start := time.Date(2024, time.June, 1, 9, 0, 0, 0, time.UTC)
	catalog := func() *catalogStub {
		return &catalogStub{
			rooms:     []Room{{ID: "room-a"}, {ID: "room-b"}},
			timeslots: []Timeslot{{ID: "ts-1", Start: start, End: start.Add(time.Hour)}},
			sessions: []Session{
				{ID: "sess-1", Title: "S1"},
				{ID: "sess-2", Title: "S2"},
			},
		}
	}

	t.Run("exchanges two occupied slots", func(t *testing.T) {
		t.Parallel()

		svc, store, _ := newBoardFixture(catalog())
		store.Load([]assign.Entry{
			{Slot: slotOf("room-a", "ts-1"), SessionID: "sess-1"},
			{Slot: slotOf("room-b", "ts-1"), SessionID: "sess-2"},
		})

		result, err := svc.Swap(context.Background(), SwapParams{
			Principal: facilitator,
			SlotA:     slotOf("room-a", "ts-1"),
			SlotB:     slotOf("room-b", "ts-1"),
		})
		if err != nil {
			t.Fatalf("Swap returned error: %v", err)
		}
		if result.Slots[0].SessionID != "sess-2" || result.Slots[1].SessionID != "sess-1" {
			t.Fatalf("unexpected slot states %+v", result.Slots)
		}
		if result.Version != 1 {
			t.Fatalf("expected version 1, got %d", result.Version)
		}
	})

	t.Run("an empty side is ErrNotFound", func(t *testing.T) {
		t.Parallel()

		svc, store, _ := newBoardFixture(catalog())
		store.Load([]assign.Entry{{Slot: slotOf("room-a", "ts-1"), SessionID: "sess-1"}})

		_, err := svc.Swap(context.Background(), SwapParams{
			Principal: facilitator,
			SlotA:     slotOf("room-a", "ts-1"),
			SlotB:     slotOf("room-b", "ts-1"),
		})
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestAssignmentService_PlaceSession(t *testing.T) {
	t.Parallel()

	t.Run("fills the first free slot in canonical order", func(t *testing.T) {
		t.Parallel()

		svc, store, _ := newBoardFixture(threeByTwoCatalog())
		store.Load([]assign.Entry{{Slot: slotOf("room-a", "ts-1"), SessionID: "sess-1"}})

		result, err := svc.PlaceSession(context.Background(), facilitator, "sess-2")
		if err != nil {
			t.Fatalf("PlaceSession returned error: %v", err)
		}
		if len(result.Slots) != 1 {
			t.Fatalf("expected one slot state, got %d", len(result.Slots))
		}
		// room-a/ts-1 is taken; room-b/ts-1 is the next canonical slot.
		if result.Slots[0].Slot != slotOf("room-b", "ts-1") || result.Slots[0].SessionID != "sess-2" {
			t.Fatalf("unexpected placement %+v", result.Slots[0])
		}
	})

	t.Run("a session already on the board is ErrAlreadyScheduled", func(t *testing.T) {
		t.Parallel()

		svc, store, _ := newBoardFixture(threeByTwoCatalog())
		store.Load([]assign.Entry{{Slot: slotOf("room-a", "ts-1"), SessionID: "sess-1"}})

		_, err := svc.PlaceSession(context.Background(), facilitator, "sess-1")
		if !errors.Is(err, ErrAlreadyScheduled) {
			t.Fatalf("expected ErrAlreadyScheduled, got %v", err)
		}
	})

	t.Run("an unknown session is ErrNotFound", func(t *testing.T) {
		t.Parallel()

		svc, _, _ := newBoardFixture(threeByTwoCatalog())
		_, err := svc.PlaceSession(context.Background(), facilitator, "missing")
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("a full board is ErrScheduleFull", func(t *testing.T) {
		t.Parallel()

		start := time.Date(2024, time.June, 1, 9, 0, 0, 0, time.UTC)
		catalog := &catalogStub{
			rooms:     []Room{{ID: "room-a"}},
			timeslots: []Timeslot{{ID: "ts-1", Start: start, End: start.Add(time.Hour)}},
			sessions: []Session{
				{ID: "sess-1", Title: "S1"},
				{ID: "sess-2", Title: "S2"},
			},
		}
		svc, store, _ := newBoardFixture(catalog)
		store.Load([]assign.Entry{{Slot: slotOf("room-a", "ts-1"), SessionID: "sess-1"}})

		_, err := svc.PlaceSession(context.Background(), facilitator, "sess-2")
		if !errors.Is(err, ErrScheduleFull) {
			t.Fatalf("expected ErrScheduleFull, got %v", err)
		}
	})
}

func TestAssignmentService_UnplaceSession(t *testing.T) {
	t.Parallel()

	t.Run("frees the session's slot", func(t *testing.T) {
		t.Parallel()

		svc, store, _ := newBoardFixture(threeByTwoCatalog())
		store.Load([]assign.Entry{{Slot: slotOf("room-a", "ts-1"), SessionID: "sess-1"}})

		result, err := svc.UnplaceSession(context.Background(), facilitator, "sess-1")
		if err != nil {
			t.Fatalf("UnplaceSession returned error: %v", err)
		}
		if result.Slots[0].Slot != slotOf("room-a", "ts-1") || result.Slots[0].SessionID != "" {
			t.Fatalf("unexpected slot state %+v", result.Slots[0])
		}
		if _, ok := store.SessionSlot("sess-1"); ok {
			t.Fatal("expected session off the board")
		}
	})

	t.Run("an unscheduled session is ErrNotFound", func(t *testing.T) {
		t.Parallel()

		svc, _, _ := newBoardFixture(threeByTwoCatalog())
		_, err := svc.UnplaceSession(context.Background(), facilitator, "sess-1")
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestAssignmentService_CatalogChanged(t *testing.T) {
	t.Parallel()

	t.Run("reloads cascaded entries after the mutation", func(t *testing.T) {
		t.Parallel()

		svc, store, repo := newBoardFixture(threeByTwoCatalog())
		seed := []assign.Entry{
			{Slot: slotOf("room-a", "ts-1"), SessionID: "sess-1"},
			{Slot: slotOf("room-b", "ts-1"), SessionID: "sess-2"},
		}
		if err := repo.ReplaceEntries(context.Background(), seed); err != nil {
			t.Fatalf("seed failed: %v", err)
		}
		store.Load(seed)

		// The mutation cascades one entry out of the persisted board.
		err := svc.CatalogChanged(context.Background(), func(ctx context.Context) error {
			return repo.ApplyEntryChanges(ctx, []assign.Slot{slotOf("room-b", "ts-1")}, nil)
		})
		if err != nil {
			t.Fatalf("CatalogChanged returned error: %v", err)
		}
		if _, ok := store.Occupant(slotOf("room-b", "ts-1")); ok {
			t.Fatal("expected cascaded entry to leave the in-memory board")
		}
		if store.CatalogVersion() != 1 {
			t.Fatalf("expected catalog version 1, got %d", store.CatalogVersion())
		}
		if store.Version() != 1 {
			t.Fatalf("expected board version 1, got %d", store.Version())
		}
	})

	t.Run("a failed mutation reloads nothing", func(t *testing.T) {
		t.Parallel()

		svc, store, _ := newBoardFixture(threeByTwoCatalog())
		boom := errors.New("boom")
		err := svc.CatalogChanged(context.Background(), func(ctx context.Context) error { return boom })
		if !errors.Is(err, boom) {
			t.Fatalf("expected the mutation error, got %v", err)
		}
		if store.CatalogVersion() != 0 {
			t.Fatalf("expected catalog version 0, got %d", store.CatalogVersion())
		}
	})

	t.Run("a failed reload still moves the catalog version", func(t *testing.T) {
		t.Parallel()

		svc, store, repo := newBoardFixture(threeByTwoCatalog())
		repo.listErr = errors.New("db down")

		err := svc.CatalogChanged(context.Background(), func(ctx context.Context) error { return nil })
		if err == nil {
			t.Fatal("expected an error")
		}
		if store.CatalogVersion() != 1 {
			t.Fatalf("expected catalog version 1, got %d", store.CatalogVersion())
		}
	})
}

func TestAssignmentService_Board(t *testing.T) {
	t.Parallel()

	svc, store, _ := newBoardFixture(threeByTwoCatalog())
	store.Load([]assign.Entry{
		{Slot: slotOf("room-b", "ts-2"), SessionID: "sess-2"},
		{Slot: slotOf("room-a", "ts-1"), SessionID: "sess-1"},
	})

	board, err := svc.Board(context.Background())
	if err != nil {
		t.Fatalf("Board returned error: %v", err)
	}
	if board.Version != 0 {
		t.Fatalf("expected version 0, got %d", board.Version)
	}
	if len(board.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(board.Entries))
	}
	// Canonical order: earlier timeslot first.
	if board.Entries[0].SessionID != "sess-1" || board.Entries[1].SessionID != "sess-2" {
		t.Fatalf("unexpected order %+v", board.Entries)
	}
}
