package assign

import (
	"reflect"
	"testing"
	"time"
)

func TestEligibleSlots(t *testing.T) {
	t.Run("orders by timeslot start then room id", func(t *testing.T) {
		rooms := []Room{{ID: "r2"}, {ID: "r1"}}
		timeslots := []Timeslot{
			scoreTimeslot("afternoon", 14),
			scoreTimeslot("morning", 9),
		}

		want := []Slot{
			{RoomID: "r1", TimeslotID: "morning"},
			{RoomID: "r2", TimeslotID: "morning"},
			{RoomID: "r1", TimeslotID: "afternoon"},
			{RoomID: "r2", TimeslotID: "afternoon"},
		}
		if got := EligibleSlots(rooms, timeslots); !reflect.DeepEqual(got, want) {
			t.Fatalf("expected %v, got %v", want, got)
		}
	})

	t.Run("breaks equal start times by timeslot id", func(t *testing.T) {
		rooms := []Room{{ID: "r1"}}
		start := time.Date(2026, time.June, 12, 9, 0, 0, 0, time.UTC)
		timeslots := []Timeslot{
			{ID: "track-b", Start: start},
			{ID: "track-a", Start: start},
		}

		want := []Slot{
			{RoomID: "r1", TimeslotID: "track-a"},
			{RoomID: "r1", TimeslotID: "track-b"},
		}
		if got := EligibleSlots(rooms, timeslots); !reflect.DeepEqual(got, want) {
			t.Fatalf("expected %v, got %v", want, got)
		}
	})

	t.Run("excludes blocked timeslots", func(t *testing.T) {
		rooms := []Room{{ID: "r1"}}
		timeslots := []Timeslot{
			scoreTimeslot("open", 9),
			{ID: "lunch", Start: scoreTimeslot("lunch", 12).Start, Blocked: true},
		}

		want := []Slot{{RoomID: "r1", TimeslotID: "open"}}
		if got := EligibleSlots(rooms, timeslots); !reflect.DeepEqual(got, want) {
			t.Fatalf("expected %v, got %v", want, got)
		}
	})

	t.Run("returns nothing without rooms", func(t *testing.T) {
		if got := EligibleSlots(nil, []Timeslot{scoreTimeslot("t1", 9)}); len(got) != 0 {
			t.Fatalf("expected no slots, got %v", got)
		}
	})
}

func TestSortEntries(t *testing.T) {
	rooms := []Room{{ID: "r1"}, {ID: "r2"}}
	timeslots := []Timeslot{
		scoreTimeslot("t1", 9),
		scoreTimeslot("t2", 10),
	}

	t.Run("orders entries by canonical slot order", func(t *testing.T) {
		entries := []Entry{
			{Slot: Slot{RoomID: "r2", TimeslotID: "t2"}, SessionID: "s3"},
			{Slot: Slot{RoomID: "r1", TimeslotID: "t1"}, SessionID: "s1"},
			{Slot: Slot{RoomID: "r2", TimeslotID: "t1"}, SessionID: "s2"},
		}

		want := []Entry{
			{Slot: Slot{RoomID: "r1", TimeslotID: "t1"}, SessionID: "s1"},
			{Slot: Slot{RoomID: "r2", TimeslotID: "t1"}, SessionID: "s2"},
			{Slot: Slot{RoomID: "r2", TimeslotID: "t2"}, SessionID: "s3"},
		}
		if got := SortEntries(entries, rooms, timeslots); !reflect.DeepEqual(got, want) {
			t.Fatalf("expected %v, got %v", want, got)
		}
	})

	t.Run("does not mutate its input", func(t *testing.T) {
		entries := []Entry{
			{Slot: Slot{RoomID: "r2", TimeslotID: "t2"}, SessionID: "s3"},
			{Slot: Slot{RoomID: "r1", TimeslotID: "t1"}, SessionID: "s1"},
		}
		SortEntries(entries, rooms, timeslots)

		if entries[0].SessionID != "s3" {
			t.Fatalf("expected input untouched, got %v", entries)
		}
	})

	t.Run("keeps unknown slots at the end", func(t *testing.T) {
		entries := []Entry{
			{Slot: Slot{RoomID: "ghost", TimeslotID: "t1"}, SessionID: "s9"},
			{Slot: Slot{RoomID: "r1", TimeslotID: "t1"}, SessionID: "s1"},
		}

		got := SortEntries(entries, rooms, timeslots)
		if got[len(got)-1].SessionID != "s9" {
			t.Fatalf("expected the unknown slot last, got %v", got)
		}
	})
}
