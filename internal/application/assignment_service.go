package application

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/example/unconference-planner/internal/assign"
)

// BoardRepository captures the persistence operations for board entries.
type BoardRepository interface {
	ListEntries(ctx context.Context) ([]assign.Entry, error)
	ReplaceEntries(ctx context.Context, entries []assign.Entry) error
	ApplyEntryChanges(ctx context.Context, remove []assign.Slot, add []assign.Entry) error
}

// CatalogReader supplies the room, timeslot and session snapshots the
// scheduling operations validate and optimize against.
type CatalogReader interface {
	ListRooms(ctx context.Context) ([]Room, error)
	ListTimeslots(ctx context.Context) ([]Timeslot, error)
	ListSessions(ctx context.Context) ([]Session, error)
}

// AssignmentService owns every mutation of the schedule board. All writers
// funnel through writeMu, so each mutation validates against the state it
// will commit over; readers only touch the store's own lock and never wait
// behind a computation.
type AssignmentService struct {
	board   *AssignmentStore
	entries BoardRepository
	catalog CatalogReader
	logger  *slog.Logger

	// writeMu serializes validate-persist-apply across all mutators.
	writeMu sync.Mutex

	// genMu guards genCancel and genSeq so a newer generate can cancel
	// the computation of the one still in flight.
	genMu     sync.Mutex
	genCancel context.CancelFunc
	genSeq    uint64
}

// NewAssignmentService wires dependencies for the assignment service.
func NewAssignmentService(board *AssignmentStore, entries BoardRepository, catalog CatalogReader) *AssignmentService {
	return NewAssignmentServiceWithLogger(board, entries, catalog, nil)
}

// NewAssignmentServiceWithLogger constructs an assignment service with a specified logger.
func NewAssignmentServiceWithLogger(board *AssignmentStore, entries BoardRepository, catalog CatalogReader, logger *slog.Logger) *AssignmentService {
	if board == nil {
		board = NewAssignmentStore()
	}
	return &AssignmentService{
		board:   board,
		entries: entries,
		catalog: catalog,
		logger:  defaultLogger(logger),
	}
}

func (s *AssignmentService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "AssignmentService", operation, attrs...)
}

// Board returns a consistent snapshot of the schedule board in canonical
// slot order. Any caller, authenticated or not, may read it.
func (s *AssignmentService) Board(ctx context.Context) (Board, error) {
	if s == nil {
		return Board{}, fmt.Errorf("AssignmentService is nil")
	}

	entries, version := s.board.Snapshot()

	rooms, timeslots, _, err := s.snapshotCatalogs(ctx)
	if err != nil {
		return Board{}, err
	}

	return Board{
		Entries: assign.SortEntries(entries, assignRooms(rooms), assignTimeslots(timeslots)),
		Version: version,
	}, nil
}

// Generate recomputes the whole board from the current catalogs and
// replaces it. The optimizer runs outside the writer lock; the commit
// re-checks that the catalogs did not change underneath it and rejects
// with ErrConflict if they did. A generate issued while another is still
// computing cancels the older one, which fails with ErrSuperseded.
func (s *AssignmentService) Generate(ctx context.Context, principal Principal) (board Board, err error) {
	if s == nil {
		err = fmt.Errorf("AssignmentService is nil")
		return
	}

	logger := s.loggerWith(ctx, "Generate", "principal_id", principal.UserID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to generate board", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("entry_count", len(board.Entries), "board_version", board.Version).InfoContext(ctx, "board generated")
	}()

	if !principal.Role.CanFacilitate() {
		err = ErrUnauthorized
		return
	}

	genCtx, release := s.beginGenerate(ctx)
	defer release()

	catalogVersion := s.board.CatalogVersion()

	rooms, timeslots, sessions, err := s.snapshotCatalogs(genCtx)
	if err != nil {
		return
	}

	var computed []assign.Entry
	done := make(chan []assign.Entry, 1)
	go func() {
		done <- assign.Generate(assignRooms(rooms), assignTimeslots(timeslots), assignSessions(sessions), assign.Options{})
	}()

	select {
	case <-genCtx.Done():
		err = fmt.Errorf("generation cancelled: %w", ErrSuperseded)
		return
	case computed = <-done:
	}

	if violations := assign.Validate(computed, assignRooms(rooms), assignTimeslots(timeslots), assignSessions(sessions)); len(violations) > 0 {
		err = fmt.Errorf("optimizer produced %q: %w", violations[0], ErrInvariantViolation)
		return
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if genCtx.Err() != nil {
		err = fmt.Errorf("generation cancelled: %w", ErrSuperseded)
		return
	}
	if s.board.CatalogVersion() != catalogVersion {
		err = fmt.Errorf("catalog changed during generation: %w", ErrConflict)
		return
	}

	if err = s.entries.ReplaceEntries(ctx, computed); err != nil {
		err = fmt.Errorf("failed to persist generated board: %w", err)
		return
	}

	version := s.board.ReplaceAll(computed)
	board = Board{
		Entries: assign.SortEntries(computed, assignRooms(rooms), assignTimeslots(timeslots)),
		Version: version,
	}
	return
}

// Clear empties the board. The catalogs are untouched.
func (s *AssignmentService) Clear(ctx context.Context, principal Principal) (board Board, err error) {
	if s == nil {
		err = fmt.Errorf("AssignmentService is nil")
		return
	}

	logger := s.loggerWith(ctx, "Clear", "principal_id", principal.UserID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to clear board", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("board_version", board.Version).InfoContext(ctx, "board cleared")
	}()

	if !principal.Role.CanFacilitate() {
		err = ErrUnauthorized
		return
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err = s.entries.ReplaceEntries(ctx, nil); err != nil {
		err = fmt.Errorf("failed to clear persisted board: %w", err)
		return
	}

	board = Board{Version: s.board.ReplaceAll(nil)}
	return
}

// Move reassigns the session at params.From to params.To. A move onto an
// occupied slot is a swap: both sessions exchange slots in one committed
// step, with no intermediate state visible to readers.
func (s *AssignmentService) Move(ctx context.Context, params MoveParams) (result MoveResult, err error) {
	if s == nil {
		err = fmt.Errorf("AssignmentService is nil")
		return
	}

	logger := s.loggerWith(ctx, "Move",
		"principal_id", params.Principal.UserID,
		"from_room_id", params.From.RoomID,
		"from_timeslot_id", params.From.TimeslotID,
		"to_room_id", params.To.RoomID,
		"to_timeslot_id", params.To.TimeslotID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to move session", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("board_version", result.Version).InfoContext(ctx, "session moved")
	}()

	if !params.Principal.Role.CanFacilitate() {
		err = ErrUnauthorized
		return
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err = s.checkVersion(params.ExpectedVersion); err != nil {
		return
	}

	moving, ok := s.board.Occupant(params.From)
	if !ok {
		err = fmt.Errorf("no session at source slot: %w", ErrNotFound)
		return
	}

	if params.From == params.To {
		result = MoveResult{
			Slots:   []SlotState{{Slot: params.From, SessionID: moving}},
			Version: s.board.Version(),
		}
		return
	}

	remove := []assign.Slot{params.From}
	add := []assign.Entry{{Slot: params.To, SessionID: moving}}
	if displaced, occupied := s.board.Occupant(params.To); occupied {
		remove = append(remove, params.To)
		add = append(add, assign.Entry{Slot: params.From, SessionID: displaced})
	}

	result, err = s.commitChange(ctx, remove, add, []assign.Slot{params.From, params.To})
	return
}

// Swap exchanges the sessions at the two given slots. Both slots must be
// occupied; use Move to relocate into an empty slot.
func (s *AssignmentService) Swap(ctx context.Context, params SwapParams) (result MoveResult, err error) {
	if s == nil {
		err = fmt.Errorf("AssignmentService is nil")
		return
	}

	logger := s.loggerWith(ctx, "Swap",
		"principal_id", params.Principal.UserID,
		"slot_a_room_id", params.SlotA.RoomID,
		"slot_a_timeslot_id", params.SlotA.TimeslotID,
		"slot_b_room_id", params.SlotB.RoomID,
		"slot_b_timeslot_id", params.SlotB.TimeslotID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to swap sessions", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("board_version", result.Version).InfoContext(ctx, "sessions swapped")
	}()

	if !params.Principal.Role.CanFacilitate() {
		err = ErrUnauthorized
		return
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err = s.checkVersion(params.ExpectedVersion); err != nil {
		return
	}

	sessionA, okA := s.board.Occupant(params.SlotA)
	sessionB, okB := s.board.Occupant(params.SlotB)
	if !okA || !okB {
		err = fmt.Errorf("both slots must be occupied to swap: %w", ErrNotFound)
		return
	}

	if params.SlotA == params.SlotB {
		result = MoveResult{
			Slots:   []SlotState{{Slot: params.SlotA, SessionID: sessionA}},
			Version: s.board.Version(),
		}
		return
	}

	remove := []assign.Slot{params.SlotA, params.SlotB}
	add := []assign.Entry{
		{Slot: params.SlotA, SessionID: sessionB},
		{Slot: params.SlotB, SessionID: sessionA},
	}

	result, err = s.commitChange(ctx, remove, add, remove)
	return
}

// PlaceSession puts one unscheduled session into the first free eligible
// slot, in the same slot order generation uses.
func (s *AssignmentService) PlaceSession(ctx context.Context, principal Principal, sessionID string) (result MoveResult, err error) {
	if s == nil {
		err = fmt.Errorf("AssignmentService is nil")
		return
	}

	logger := s.loggerWith(ctx, "PlaceSession",
		"principal_id", principal.UserID,
		"session_id", sessionID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to place session", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("board_version", result.Version).InfoContext(ctx, "session placed")
	}()

	if !principal.Role.CanFacilitate() {
		err = ErrUnauthorized
		return
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if _, scheduled := s.board.SessionSlot(sessionID); scheduled {
		err = fmt.Errorf("session %s is on the board: %w", sessionID, ErrAlreadyScheduled)
		return
	}

	rooms, timeslots, sessions, err := s.snapshotCatalogs(ctx)
	if err != nil {
		return
	}
	if !sessionExists(sessions, sessionID) {
		err = fmt.Errorf("session %s: %w", sessionID, ErrNotFound)
		return
	}

	var target assign.Slot
	found := false
	for _, slot := range assign.EligibleSlots(assignRooms(rooms), assignTimeslots(timeslots)) {
		if _, occupied := s.board.Occupant(slot); !occupied {
			target = slot
			found = true
			break
		}
	}
	if !found {
		err = ErrScheduleFull
		return
	}

	result, err = s.commitChange(ctx, nil, []assign.Entry{{Slot: target, SessionID: sessionID}}, []assign.Slot{target})
	return
}

// UnplaceSession removes one session's entry from the board.
func (s *AssignmentService) UnplaceSession(ctx context.Context, principal Principal, sessionID string) (result MoveResult, err error) {
	if s == nil {
		err = fmt.Errorf("AssignmentService is nil")
		return
	}

	logger := s.loggerWith(ctx, "UnplaceSession",
		"principal_id", principal.UserID,
		"session_id", sessionID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to unplace session", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("board_version", result.Version).InfoContext(ctx, "session unplaced")
	}()

	if !principal.Role.CanFacilitate() {
		err = ErrUnauthorized
		return
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	slot, scheduled := s.board.SessionSlot(sessionID)
	if !scheduled {
		err = fmt.Errorf("session %s is not on the board: %w", sessionID, ErrNotFound)
		return
	}

	result, err = s.commitChange(ctx, []assign.Slot{slot}, nil, []assign.Slot{slot})
	return
}

// CatalogChanged runs a catalog mutation and brings the board back in step
// with whatever the mutation cascaded in the database. Catalog services
// route every room, timeslot and session write through here so generate
// staleness detection and in-memory cascades share one code path.
func (s *AssignmentService) CatalogChanged(ctx context.Context, mutate func(ctx context.Context) error) error {
	if s == nil {
		return fmt.Errorf("AssignmentService is nil")
	}
	if mutate == nil {
		return fmt.Errorf("catalog mutation is nil")
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := mutate(ctx); err != nil {
		return err
	}

	if s.entries == nil {
		s.board.Reconcile(nil)
		return nil
	}

	entries, err := s.entries.ListEntries(ctx)
	if err != nil {
		// The catalog write committed; reloading the cascaded board
		// failed. Keep the catalog version moving so a pending generate
		// cannot commit against the stale snapshot.
		s.board.BumpCatalog()
		return fmt.Errorf("failed to reload board after catalog change: %w", err)
	}

	s.board.Reconcile(entries)
	return nil
}

// commitChange validates the staged change against the current catalogs and
// board, persists it, and applies it in memory. Callers hold writeMu.
func (s *AssignmentService) commitChange(ctx context.Context, remove []assign.Slot, add []assign.Entry, touched []assign.Slot) (MoveResult, error) {
	rooms, timeslots, sessions, err := s.snapshotCatalogs(ctx)
	if err != nil {
		return MoveResult{}, err
	}

	candidate := s.candidateEntries(remove, add)
	if violations := assign.Validate(candidate, assignRooms(rooms), assignTimeslots(timeslots), assignSessions(sessions)); len(violations) > 0 {
		return MoveResult{}, violationError(violations)
	}

	if err := s.entries.ApplyEntryChanges(ctx, remove, add); err != nil {
		return MoveResult{}, fmt.Errorf("failed to persist board change: %w", err)
	}

	version := s.board.Apply(remove, add)

	states := make([]SlotState, 0, len(touched))
	for _, slot := range touched {
		occupant, _ := s.board.Occupant(slot)
		states = append(states, SlotState{Slot: slot, SessionID: occupant})
	}
	return MoveResult{Slots: states, Version: version}, nil
}

// candidateEntries returns the board entries as they would look after the
// staged change.
func (s *AssignmentService) candidateEntries(remove []assign.Slot, add []assign.Entry) []assign.Entry {
	current, _ := s.board.Snapshot()

	removed := make(map[assign.Slot]struct{}, len(remove))
	for _, slot := range remove {
		removed[slot] = struct{}{}
	}

	candidate := make([]assign.Entry, 0, len(current)+len(add))
	for _, entry := range current {
		if _, gone := removed[entry.Slot]; gone {
			continue
		}
		candidate = append(candidate, entry)
	}
	return append(candidate, add...)
}

func (s *AssignmentService) checkVersion(expected uint64) error {
	if expected == 0 {
		return nil
	}
	if current := s.board.Version(); current != expected {
		return fmt.Errorf("board is at version %d, not %d: %w", current, expected, ErrConflict)
	}
	return nil
}

func (s *AssignmentService) snapshotCatalogs(ctx context.Context) ([]Room, []Timeslot, []Session, error) {
	if s.catalog == nil {
		return nil, nil, nil, fmt.Errorf("catalog reader not configured")
	}

	rooms, err := s.catalog.ListRooms(ctx)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to list rooms: %w", err)
	}
	timeslots, err := s.catalog.ListTimeslots(ctx)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to list timeslots: %w", err)
	}
	sessions, err := s.catalog.ListSessions(ctx)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return rooms, timeslots, sessions, nil
}

// beginGenerate cancels any generate still computing and registers the new
// one as the in-flight computation. The returned release func cleans up the
// registration unless a still newer generate has taken it over.
func (s *AssignmentService) beginGenerate(ctx context.Context) (context.Context, func()) {
	s.genMu.Lock()
	defer s.genMu.Unlock()

	if s.genCancel != nil {
		s.genCancel()
	}
	genCtx, cancel := context.WithCancel(ctx)
	s.genCancel = cancel
	s.genSeq++
	seq := s.genSeq

	release := func() {
		s.genMu.Lock()
		defer s.genMu.Unlock()

		cancel()
		if s.genSeq == seq {
			s.genCancel = nil
		}
	}
	return genCtx, release
}

// violationError maps validator findings onto the error taxonomy. A blocked
// or dangling target is the caller's problem; anything else means the
// mutation API let an invalid transition through.
func violationError(violations []assign.Violation) error {
	for _, v := range violations {
		if v.Kind == assign.ViolationBlockedSlot {
			return fmt.Errorf("timeslot %s is blocked: %w", v.Slot.TimeslotID, ErrSlotBlocked)
		}
	}
	for _, v := range violations {
		if v.Kind == assign.ViolationDanglingReference {
			return fmt.Errorf("%s: %w", v, ErrNotFound)
		}
	}
	return fmt.Errorf("%s: %w", violations[0], ErrInvariantViolation)
}

func sessionExists(sessions []Session, id string) bool {
	for _, session := range sessions {
		if session.ID == id {
			return true
		}
	}
	return false
}

func assignRooms(rooms []Room) []assign.Room {
	out := make([]assign.Room, 0, len(rooms))
	for _, room := range rooms {
		out = append(out, assign.Room{ID: room.ID})
	}
	return out
}

func assignTimeslots(timeslots []Timeslot) []assign.Timeslot {
	out := make([]assign.Timeslot, 0, len(timeslots))
	for _, ts := range timeslots {
		out = append(out, assign.Timeslot{ID: ts.ID, Start: ts.Start, Blocked: ts.Blocked})
	}
	return out
}

func assignSessions(sessions []Session) []assign.Session {
	out := make([]assign.Session, 0, len(sessions))
	for _, session := range sessions {
		out = append(out, assign.Session{ID: session.ID, Votes: session.Votes})
	}
	return out
}
