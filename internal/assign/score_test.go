package assign

import (
	"testing"
	"time"
)

func scoreTimeslot(id string, hour int) Timeslot {
	return Timeslot{
		ID:    id,
		Start: time.Date(2026, time.June, 12, hour, 0, 0, 0, time.UTC),
	}
}

func TestAdjacentPairSum(t *testing.T) {
	t.Run("sums products of adjacent pairs in descending order", func(t *testing.T) {
		if got := adjacentPairSum([]int{10, 8, 5}); got != 120 {
			t.Fatalf("expected 120, got %d", got)
		}
	})

	t.Run("sorts before pairing", func(t *testing.T) {
		if got := adjacentPairSum([]int{3, 7, 5}); got != 50 {
			t.Fatalf("expected 50, got %d", got)
		}
	})

	t.Run("drops zero and negative votes", func(t *testing.T) {
		if got := adjacentPairSum([]int{4, 0, 7}); got != 28 {
			t.Fatalf("expected 28, got %d", got)
		}
	})

	t.Run("single vote scores zero", func(t *testing.T) {
		if got := adjacentPairSum([]int{9}); got != 0 {
			t.Fatalf("expected 0, got %d", got)
		}
	})

	t.Run("empty row scores zero", func(t *testing.T) {
		if got := adjacentPairSum(nil); got != 0 {
			t.Fatalf("expected 0, got %d", got)
		}
	})
}

func TestPenalties(t *testing.T) {
	rows := [][]int{{10, 8, 5}, {3, 7, 5}, {4, 0, 7}}

	t.Run("conflicting sums every row", func(t *testing.T) {
		if got := conflictingPenalty(rows); got != 198 {
			t.Fatalf("expected 198, got %d", got)
		}
	})

	t.Run("late weighs rows by position", func(t *testing.T) {
		if got := latePenalty(rows); got != 106 {
			t.Fatalf("expected 106, got %d", got)
		}
	})

	t.Run("missing scores the unassigned votes", func(t *testing.T) {
		if got := missingPenalty([]int{10, 8, 12, 7}); got != 256 {
			t.Fatalf("expected 256, got %d", got)
		}
	})

	t.Run("scaled score combines weighted penalties", func(t *testing.T) {
		if got := scaledScore(rows, []int{10, 8, 12, 7}); got != 2086 {
			t.Fatalf("expected 2086, got %d", got)
		}
	})
}

func TestScore(t *testing.T) {
	t.Run("combines penalties from a full board", func(t *testing.T) {
		rooms := []Room{{ID: "r1"}, {ID: "r2"}, {ID: "r3"}}
		timeslots := []Timeslot{
			scoreTimeslot("t1", 9),
			scoreTimeslot("t2", 10),
			scoreTimeslot("t3", 11),
		}
		rowVotes := [][]int{{10, 8, 5}, {3, 7, 5}, {4, 0, 7}}
		var sessions []Session
		var entries []Entry
		id := 'a'
		for row, votes := range rowVotes {
			for col, v := range votes {
				s := Session{ID: string(id), Votes: v}
				id++
				sessions = append(sessions, s)
				entries = append(entries, Entry{
					Slot:      Slot{RoomID: rooms[col].ID, TimeslotID: timeslots[row].ID},
					SessionID: s.ID,
				})
			}
		}
		for _, v := range []int{10, 8, 12, 7} {
			sessions = append(sessions, Session{ID: string(id), Votes: v})
			id++
		}

		if got := Score(entries, timeslots, sessions); got != 208.6 {
			t.Fatalf("expected 208.6, got %v", got)
		}
	})

	t.Run("empty board scores only the missing penalty", func(t *testing.T) {
		timeslots := []Timeslot{scoreTimeslot("t1", 9)}
		sessions := []Session{
			{ID: "a", Votes: 4},
			{ID: "b", Votes: 5},
		}
		if got := Score(nil, timeslots, sessions); got != 10.0 {
			t.Fatalf("expected 10.0, got %v", got)
		}
	})

	t.Run("timeslot row order follows start time", func(t *testing.T) {
		timeslots := []Timeslot{
			scoreTimeslot("late", 15),
			scoreTimeslot("early", 9),
		}
		sessions := []Session{
			{ID: "a", Votes: 6},
			{ID: "b", Votes: 4},
		}
		entries := []Entry{
			{Slot: Slot{RoomID: "r1", TimeslotID: "late"}, SessionID: "a"},
			{Slot: Slot{RoomID: "r2", TimeslotID: "late"}, SessionID: "b"},
		}

		// Both sessions share the second row: conflicting 24, late 24.
		if got := Score(entries, timeslots, sessions); got != 12.0 {
			t.Fatalf("expected 12.0, got %v", got)
		}
	})
}
