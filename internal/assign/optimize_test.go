package assign

import (
	"reflect"
	"testing"
)

func TestGenerate(t *testing.T) {
	rooms := []Room{{ID: "r1"}, {ID: "r2"}, {ID: "r3"}}
	timeslots := []Timeslot{
		scoreTimeslot("t1", 9),
		scoreTimeslot("t2", 10),
	}
	sessions := []Session{
		{ID: "s1", Votes: 10},
		{ID: "s2", Votes: 7},
		{ID: "s3", Votes: 7},
		{ID: "s4", Votes: 1},
	}

	t.Run("fills the board from votes and refines the layout", func(t *testing.T) {
		got := Generate(rooms, timeslots, sessions, Options{})

		// Construction seats s1, s2, s3, s4 across the first four slots
		// with the 7/7 tie broken by ID. Refinement then parks the
		// crowd-puller alone in the second row, where it collides with
		// nothing, and pulls the single vote forward.
		want := []Entry{
			{Slot: Slot{RoomID: "r1", TimeslotID: "t1"}, SessionID: "s4"},
			{Slot: Slot{RoomID: "r2", TimeslotID: "t1"}, SessionID: "s2"},
			{Slot: Slot{RoomID: "r3", TimeslotID: "t1"}, SessionID: "s3"},
			{Slot: Slot{RoomID: "r1", TimeslotID: "t2"}, SessionID: "s1"},
		}
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("expected %v, got %v", want, got)
		}
	})

	t.Run("assigns every session when slots suffice", func(t *testing.T) {
		got := Generate(rooms, timeslots, sessions, Options{})

		if len(got) != len(sessions) {
			t.Fatalf("expected %d entries, got %d", len(sessions), len(got))
		}
		if violations := Validate(got, rooms, timeslots, sessions); len(violations) != 0 {
			t.Fatalf("expected a consistent board, got %v", violations)
		}
	})

	t.Run("is deterministic across runs and input orderings", func(t *testing.T) {
		first := Generate(rooms, timeslots, sessions, Options{})
		second := Generate(rooms, timeslots, sessions, Options{})
		if !reflect.DeepEqual(first, second) {
			t.Fatalf("expected identical runs, got %v then %v", first, second)
		}

		reversedRooms := []Room{{ID: "r3"}, {ID: "r2"}, {ID: "r1"}}
		reversedTimeslots := []Timeslot{
			scoreTimeslot("t2", 10),
			scoreTimeslot("t1", 9),
		}
		reversedSessions := []Session{
			{ID: "s4", Votes: 1},
			{ID: "s3", Votes: 7},
			{ID: "s2", Votes: 7},
			{ID: "s1", Votes: 10},
		}
		shuffled := Generate(reversedRooms, reversedTimeslots, reversedSessions, Options{})
		if !reflect.DeepEqual(first, shuffled) {
			t.Fatalf("expected input order not to matter, got %v vs %v", first, shuffled)
		}
	})

	t.Run("round budget stops refinement at the constructed board", func(t *testing.T) {
		got := Generate(rooms, timeslots, sessions, Options{MaxRounds: 1})

		want := []Entry{
			{Slot: Slot{RoomID: "r1", TimeslotID: "t1"}, SessionID: "s1"},
			{Slot: Slot{RoomID: "r2", TimeslotID: "t1"}, SessionID: "s2"},
			{Slot: Slot{RoomID: "r3", TimeslotID: "t1"}, SessionID: "s3"},
			{Slot: Slot{RoomID: "r1", TimeslotID: "t2"}, SessionID: "s4"},
		}
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("expected %v, got %v", want, got)
		}
	})

	t.Run("leaves the lowest voted sessions off a full board", func(t *testing.T) {
		oneRoom := []Room{{ID: "r1"}}
		got := Generate(oneRoom, timeslots, []Session{
			{ID: "a", Votes: 5},
			{ID: "b", Votes: 3},
			{ID: "c", Votes: 2},
		}, Options{})

		want := []Entry{
			{Slot: Slot{RoomID: "r1", TimeslotID: "t1"}, SessionID: "a"},
			{Slot: Slot{RoomID: "r1", TimeslotID: "t2"}, SessionID: "b"},
		}
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("expected %v, got %v", want, got)
		}
	})

	t.Run("spreads popular sessions away from each other", func(t *testing.T) {
		twoRooms := []Room{{ID: "r1"}, {ID: "r2"}}
		got := Generate(twoRooms, timeslots, []Session{
			{ID: "a", Votes: 9},
			{ID: "b", Votes: 6},
			{ID: "c", Votes: 2},
		}, Options{})

		want := []Entry{
			{Slot: Slot{RoomID: "r1", TimeslotID: "t1"}, SessionID: "c"},
			{Slot: Slot{RoomID: "r2", TimeslotID: "t1"}, SessionID: "b"},
			{Slot: Slot{RoomID: "r1", TimeslotID: "t2"}, SessionID: "a"},
		}
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("expected %v, got %v", want, got)
		}
	})

	t.Run("returns an empty board without rooms", func(t *testing.T) {
		if got := Generate(nil, timeslots, sessions, Options{}); len(got) != 0 {
			t.Fatalf("expected no entries, got %v", got)
		}
	})

	t.Run("returns an empty board without timeslots", func(t *testing.T) {
		if got := Generate(rooms, nil, sessions, Options{}); len(got) != 0 {
			t.Fatalf("expected no entries, got %v", got)
		}
	})

	t.Run("returns an empty board when every timeslot is blocked", func(t *testing.T) {
		blocked := []Timeslot{
			{ID: "t1", Start: timeslots[0].Start, Blocked: true},
			{ID: "t2", Start: timeslots[1].Start, Blocked: true},
		}
		if got := Generate(rooms, blocked, sessions, Options{}); len(got) != 0 {
			t.Fatalf("expected no entries, got %v", got)
		}
	})

	t.Run("never schedules into a blocked timeslot", func(t *testing.T) {
		mixed := []Timeslot{
			scoreTimeslot("t1", 9),
			{ID: "t2", Start: scoreTimeslot("t2", 10).Start, Blocked: true},
		}
		got := Generate(rooms, mixed, sessions, Options{})

		if len(got) != 3 {
			t.Fatalf("expected 3 entries on the open row, got %d", len(got))
		}
		for _, entry := range got {
			if entry.Slot.TimeslotID == "t2" {
				t.Fatalf("expected no entry on the blocked timeslot, got %v", entry)
			}
		}
	})

	t.Run("treats duplicate session ids as one session", func(t *testing.T) {
		oneRoom := []Room{{ID: "r1"}}
		got := Generate(oneRoom, timeslots, []Session{
			{ID: "a", Votes: 5},
			{ID: "a", Votes: 5},
		}, Options{})

		if len(got) != 1 {
			t.Fatalf("expected a single entry, got %v", got)
		}
	})
}
