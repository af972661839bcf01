package assign

import "fmt"

// ViolationKind classifies a broken board invariant.
type ViolationKind string

const (
	// ViolationDuplicateSlot reports two entries occupying the same slot.
	ViolationDuplicateSlot ViolationKind = "duplicate_slot"
	// ViolationDuplicateSession reports one session occupying two slots.
	ViolationDuplicateSession ViolationKind = "duplicate_session"
	// ViolationBlockedSlot reports an entry whose timeslot is blocked.
	ViolationBlockedSlot ViolationKind = "blocked_slot"
	// ViolationDanglingReference reports an entry naming a room, timeslot
	// or session that is not in the catalog.
	ViolationDanglingReference ViolationKind = "dangling_reference"
)

// Violation describes one invariant breach found by Validate.
type Violation struct {
	Kind      ViolationKind
	Slot      Slot
	SessionID string
}

func (v Violation) String() string {
	return fmt.Sprintf("%s: room=%s timeslot=%s session=%s",
		v.Kind, v.Slot.RoomID, v.Slot.TimeslotID, v.SessionID)
}

// Validate checks the entries against the full invariant set of the board:
// at most one session per slot, at most one slot per session, no entry on a
// blocked timeslot, and every referenced room, timeslot and session present
// in the catalogs. It returns all violations found, in entry order with a
// fixed per-entry check order (dangling references, blocked slot, duplicate
// slot, duplicate session), so identical input yields identical output. An
// empty result means the board is consistent.
func Validate(entries []Entry, rooms []Room, timeslots []Timeslot, sessions []Session) []Violation {
	roomIDs := make(map[string]struct{}, len(rooms))
	for _, r := range rooms {
		roomIDs[r.ID] = struct{}{}
	}
	blocked := make(map[string]bool, len(timeslots))
	for _, ts := range timeslots {
		blocked[ts.ID] = ts.Blocked
	}
	sessionIDs := make(map[string]struct{}, len(sessions))
	for _, s := range sessions {
		sessionIDs[s.ID] = struct{}{}
	}

	var violations []Violation
	seenSlots := make(map[Slot]struct{}, len(entries))
	seenSessions := make(map[string]struct{}, len(entries))
	for _, entry := range entries {
		if _, ok := roomIDs[entry.Slot.RoomID]; !ok {
			violations = append(violations, Violation{
				Kind:      ViolationDanglingReference,
				Slot:      entry.Slot,
				SessionID: entry.SessionID,
			})
		}
		isBlocked, timeslotKnown := blocked[entry.Slot.TimeslotID]
		if !timeslotKnown {
			violations = append(violations, Violation{
				Kind:      ViolationDanglingReference,
				Slot:      entry.Slot,
				SessionID: entry.SessionID,
			})
		}
		if _, ok := sessionIDs[entry.SessionID]; !ok {
			violations = append(violations, Violation{
				Kind:      ViolationDanglingReference,
				Slot:      entry.Slot,
				SessionID: entry.SessionID,
			})
		}
		if timeslotKnown && isBlocked {
			violations = append(violations, Violation{
				Kind:      ViolationBlockedSlot,
				Slot:      entry.Slot,
				SessionID: entry.SessionID,
			})
		}
		if _, ok := seenSlots[entry.Slot]; ok {
			violations = append(violations, Violation{
				Kind:      ViolationDuplicateSlot,
				Slot:      entry.Slot,
				SessionID: entry.SessionID,
			})
		}
		seenSlots[entry.Slot] = struct{}{}
		if _, ok := seenSessions[entry.SessionID]; ok {
			violations = append(violations, Violation{
				Kind:      ViolationDuplicateSession,
				Slot:      entry.Slot,
				SessionID: entry.SessionID,
			})
		}
		seenSessions[entry.SessionID] = struct{}{}
	}
	return violations
}
