// Package assign implements the schedule board core for an unconference:
// the slot model, the invariant validator, and the deterministic optimizer
// that places voted talk sessions into (room, timeslot) slots.
package assign

import (
	"sort"
	"time"
)

// Session is the scheduling view of a talk proposal. Votes are a read-only
// snapshot supplied by the caller; the package never mutates them.
type Session struct {
	ID    string
	Votes int
}

// Room is the scheduling view of a room. Rooms carry no differentiating
// property beyond identity, so ordering is by ID.
type Room struct {
	ID string
}

// Timeslot is the scheduling view of a timeslot. Blocked timeslots are
// excluded from the eligible slot set.
type Timeslot struct {
	ID      string
	Start   time.Time
	Blocked bool
}

// Slot identifies the atomic schedulable unit: one room during one timeslot.
type Slot struct {
	RoomID     string
	TimeslotID string
}

// Entry records one assignment: the session occupying a slot.
type Entry struct {
	Slot      Slot
	SessionID string
}

// EligibleSlots returns the cartesian product of rooms and non-blocked
// timeslots in the canonical order: timeslot start ascending (ties by
// timeslot ID), then room ID ascending. Every deterministic decision in
// this package iterates slots in this order.
func EligibleSlots(rooms []Room, timeslots []Timeslot) []Slot {
	orderedRooms := make([]Room, len(rooms))
	copy(orderedRooms, rooms)
	sort.Slice(orderedRooms, func(i, j int) bool {
		return orderedRooms[i].ID < orderedRooms[j].ID
	})

	orderedSlots := make([]Timeslot, 0, len(timeslots))
	for _, ts := range timeslots {
		if ts.Blocked {
			continue
		}
		orderedSlots = append(orderedSlots, ts)
	}
	sort.Slice(orderedSlots, func(i, j int) bool {
		if !orderedSlots[i].Start.Equal(orderedSlots[j].Start) {
			return orderedSlots[i].Start.Before(orderedSlots[j].Start)
		}
		return orderedSlots[i].ID < orderedSlots[j].ID
	})

	slots := make([]Slot, 0, len(orderedRooms)*len(orderedSlots))
	for _, ts := range orderedSlots {
		for _, room := range orderedRooms {
			slots = append(slots, Slot{RoomID: room.ID, TimeslotID: ts.ID})
		}
	}
	return slots
}

// SortEntries orders entries by the canonical slot order of the given
// catalogs. Entries referencing unknown slots keep their relative order at
// the end; callers that validate first never hit that case.
func SortEntries(entries []Entry, rooms []Room, timeslots []Timeslot) []Entry {
	rank := make(map[Slot]int)
	for i, slot := range EligibleSlots(rooms, timeslots) {
		rank[slot] = i
	}
	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		ri, iKnown := rank[sorted[i].Slot]
		rj, jKnown := rank[sorted[j].Slot]
		if iKnown != jKnown {
			return iKnown
		}
		return ri < rj
	})
	return sorted
}

// orderedSessions returns the sessions deduplicated by ID and sorted by
// vote count descending with ties broken by ID ascending.
func orderedSessions(sessions []Session) []Session {
	seen := make(map[string]struct{}, len(sessions))
	out := make([]Session, 0, len(sessions))
	for _, s := range sessions {
		if _, ok := seen[s.ID]; ok {
			continue
		}
		seen[s.ID] = struct{}{}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Votes != out[j].Votes {
			return out[i].Votes > out[j].Votes
		}
		return out[i].ID < out[j].ID
	})
	return out
}
