package assign

import "sort"

// Penalty weights in tenths, so scores compare as exact integers. Leaving
// voted sessions off the board costs most (0.5), popular sessions sharing
// a timeslot row next (0.3), and popular rows late in the day least (0.2).
const (
	conflictingWeight = 3
	missingWeight     = 5
	lateWeight        = 2
)

// Score rates a board layout; lower is better. Three penalties are
// combined with weights 0.3, 0.5 and 0.2:
//
//   - conflicting: for each timeslot row, the adjacent-pair product sum of
//     the assigned vote counts. Two heavily voted sessions in the same row
//     force attendees to choose between them.
//   - missing: the adjacent-pair product sum of the vote counts of sessions
//     left off the board.
//   - late: each row's pair product sum weighted by the row's position, so
//     popular rows gravitate toward the start of the day.
//
// Rows follow the canonical timeslot order (start ascending, ties by ID);
// blocked timeslots still occupy a row position. Sessions without votes
// never contribute. The result is deterministic for identical input.
func Score(entries []Entry, timeslots []Timeslot, sessions []Session) float64 {
	rowIndex := timeslotRows(timeslots)

	votes := make(map[string]int, len(sessions))
	for _, s := range sessions {
		votes[s.ID] = s.Votes
	}

	rows := make([][]int, len(rowIndex))
	assigned := make(map[string]struct{}, len(entries))
	for _, entry := range entries {
		assigned[entry.SessionID] = struct{}{}
		row, ok := rowIndex[entry.Slot.TimeslotID]
		if !ok {
			continue
		}
		rows[row] = append(rows[row], votes[entry.SessionID])
	}

	var unassigned []int
	for _, s := range sessions {
		if _, ok := assigned[s.ID]; !ok {
			unassigned = append(unassigned, s.Votes)
		}
	}

	return float64(scaledScore(rows, unassigned)) / 10
}

// timeslotRows maps each timeslot ID to its row position in the canonical
// order: start ascending, ties broken by ID.
func timeslotRows(timeslots []Timeslot) map[string]int {
	ordered := make([]Timeslot, len(timeslots))
	copy(ordered, timeslots)
	sort.Slice(ordered, func(i, j int) bool {
		if !ordered[i].Start.Equal(ordered[j].Start) {
			return ordered[i].Start.Before(ordered[j].Start)
		}
		return ordered[i].ID < ordered[j].ID
	})
	rowIndex := make(map[string]int, len(ordered))
	for i, ts := range ordered {
		rowIndex[ts.ID] = i
	}
	return rowIndex
}

// scaledScore is Score times ten: an exact integer, so the optimizer can
// compare layouts without floating point.
func scaledScore(rows [][]int, unassigned []int) int {
	total := conflictingWeight * conflictingPenalty(rows)
	total += missingWeight * missingPenalty(unassigned)
	total += lateWeight * latePenalty(rows)
	return total
}

func conflictingPenalty(rows [][]int) int {
	total := 0
	for _, row := range rows {
		total += adjacentPairSum(row)
	}
	return total
}

func missingPenalty(unassigned []int) int {
	return adjacentPairSum(unassigned)
}

func latePenalty(rows [][]int) int {
	total := 0
	for i, row := range rows {
		total += i * adjacentPairSum(row)
	}
	return total
}

// adjacentPairSum drops non-positive vote counts, sorts the rest in
// descending order and sums the products of adjacent pairs. A single vote
// count, like an empty row, scores zero.
func adjacentPairSum(votes []int) int {
	positive := make([]int, 0, len(votes))
	for _, v := range votes {
		if v > 0 {
			positive = append(positive, v)
		}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(positive)))
	total := 0
	for i := 0; i+1 < len(positive); i++ {
		total += positive[i] * positive[i+1]
	}
	return total
}
