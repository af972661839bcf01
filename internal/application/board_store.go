package application

import (
	"sync"

	"github.com/example/unconference-planner/internal/assign"
)

// AssignmentStore holds the authoritative in-memory schedule board: a map
// from slot to the session occupying it, plus two monotonically increasing
// counters. Version moves with every committed board mutation and backs
// optimistic concurrency for editors; CatalogVersion moves with every
// room, timeslot or session catalog change and lets a long-running
// generate detect that its input snapshot went stale before commit.
//
// The store only guards the instant of read or apply. Serializing the
// validate-persist-apply sequence of a mutation is the caller's job; the
// AssignmentService owns that writer discipline.
type AssignmentStore struct {
	mu             sync.RWMutex
	entries        map[assign.Slot]string
	version        uint64
	catalogVersion uint64
}

// NewAssignmentStore returns an empty board at version zero.
func NewAssignmentStore() *AssignmentStore {
	return &AssignmentStore{entries: make(map[assign.Slot]string)}
}

// Load replaces the board contents without bumping the version. It is meant
// for boot, when the persisted entries are read back in.
func (s *AssignmentStore) Load(entries []assign.Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = make(map[assign.Slot]string, len(entries))
	for _, entry := range entries {
		s.entries[entry.Slot] = entry.SessionID
	}
}

// Snapshot returns a copy of the current entries and the board version.
// Entry order is unspecified; callers needing canonical order sort against
// the catalogs.
func (s *AssignmentStore) Snapshot() ([]assign.Entry, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]assign.Entry, 0, len(s.entries))
	for slot, sessionID := range s.entries {
		entries = append(entries, assign.Entry{Slot: slot, SessionID: sessionID})
	}
	return entries, s.version
}

// Version returns the current board version.
func (s *AssignmentStore) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// CatalogVersion returns the current catalog version.
func (s *AssignmentStore) CatalogVersion() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.catalogVersion
}

// Occupant returns the session occupying the slot, if any.
func (s *AssignmentStore) Occupant(slot assign.Slot) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessionID, ok := s.entries[slot]
	return sessionID, ok
}

// SessionSlot returns the slot holding the session, if it is on the board.
func (s *AssignmentStore) SessionSlot(sessionID string) (assign.Slot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for slot, occupant := range s.entries {
		if occupant == sessionID {
			return slot, true
		}
	}
	return assign.Slot{}, false
}

// Apply removes and then adds the given entries in one step and bumps the
// version. Removals run first so a swap transiently frees both slots. The
// caller has already validated and persisted the change.
func (s *AssignmentStore) Apply(remove []assign.Slot, add []assign.Entry) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, slot := range remove {
		delete(s.entries, slot)
	}
	for _, entry := range add {
		s.entries[entry.Slot] = entry.SessionID
	}
	s.version++
	return s.version
}

// ReplaceAll swaps the whole board for the given entries and bumps the
// version. A nil slice clears the board.
func (s *AssignmentStore) ReplaceAll(entries []assign.Entry) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = make(map[assign.Slot]string, len(entries))
	for _, entry := range entries {
		s.entries[entry.Slot] = entry.SessionID
	}
	s.version++
	return s.version
}

// BumpCatalog records a catalog change without touching the board.
func (s *AssignmentStore) BumpCatalog() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.catalogVersion++
}

// Reconcile records a catalog change and, when the persisted entries differ
// from the in-memory board (a cascade removed some), swaps them in with a
// version bump. Pure catalog additions leave the board version untouched so
// editors holding an expected version are not invalidated for nothing.
func (s *AssignmentStore) Reconcile(entries []assign.Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.catalogVersion++

	if len(entries) == len(s.entries) {
		same := true
		for _, entry := range entries {
			if s.entries[entry.Slot] != entry.SessionID {
				same = false
				break
			}
		}
		if same {
			return
		}
	}

	s.entries = make(map[assign.Slot]string, len(entries))
	for _, entry := range entries {
		s.entries[entry.Slot] = entry.SessionID
	}
	s.version++
}
