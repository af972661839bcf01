package assign

// Options tunes Generate. The zero value selects the defaults.
type Options struct {
	// MaxRounds caps the improvement rounds shared by the vote-weight
	// search and the placement refinement. Zero or negative selects the
	// default budget of 3 * slots^2.
	MaxRounds int
}

// Generate computes a full assignment for the given catalogs. The result
// is deterministic: identical catalogs produce identical entries, in
// canonical slot order, regardless of input ordering.
//
// Construction seeds the board by walking sessions in vote order (ties by
// ID) and slots in canonical order until either runs out. A local search
// then applies strictly improving moves for the captured vote weight until
// a full pass finds none. Finally the placement refinement rearranges the
// assigned sessions, without changing which sessions are assigned, toward
// a lower Score, so popular sessions avoid sharing a timeslot row and
// gravitate toward early rows.
//
// Zero rooms or zero schedulable timeslots yield an empty assignment.
// Fewer sessions than slots leave slots empty; more sessions than slots
// leave the lowest voted sessions unassigned. Neither is an error.
func Generate(rooms []Room, timeslots []Timeslot, sessions []Session, opts Options) []Entry {
	slots := EligibleSlots(rooms, timeslots)
	if len(slots) == 0 {
		return nil
	}

	b := newBoard(slots, timeslots, orderedSessions(sessions))
	b.construct()

	budget := opts.MaxRounds
	if budget <= 0 {
		budget = 3 * len(slots) * len(slots)
	}
	b.improveWeight(&budget)
	b.refinePlacement(&budget)

	return b.entries()
}

// board is the mutable working state of one Generate run. Slots are held
// in canonical order; occupants index into that order with "" for empty.
type board struct {
	slots      []Slot
	rowOf      []int // slot index -> timeslot row
	rowCount   int
	occupant   []string
	votes      map[string]int
	unassigned []Session // vote order, sessions not on the board
}

func newBoard(slots []Slot, timeslots []Timeslot, sessions []Session) *board {
	rowIndex := timeslotRows(timeslots)
	rowOf := make([]int, len(slots))
	for i, slot := range slots {
		rowOf[i] = rowIndex[slot.TimeslotID]
	}
	votes := make(map[string]int, len(sessions))
	for _, s := range sessions {
		votes[s.ID] = s.Votes
	}
	return &board{
		slots:      slots,
		rowOf:      rowOf,
		rowCount:   len(rowIndex),
		occupant:   make([]string, len(slots)),
		votes:      votes,
		unassigned: sessions,
	}
}

// construct fills slots in canonical order with sessions in vote order
// until sessions or slots run out.
func (b *board) construct() {
	for i := range b.slots {
		if len(b.unassigned) == 0 {
			return
		}
		b.occupant[i] = b.unassigned[0].ID
		b.unassigned = b.unassigned[1:]
	}
}

// improveWeight applies strictly improving moves for the total captured
// vote weight until a full pass finds none. Swapping two assigned sessions
// never changes the total, so placing an unassigned session into an empty
// slot is the only improving move in this neighborhood.
func (b *board) improveWeight(budget *int) {
	for *budget > 0 {
		*budget--
		si, ui := b.findPlacement()
		if si < 0 {
			return
		}
		b.occupant[si] = b.unassigned[ui].ID
		b.unassigned = append(b.unassigned[:ui], b.unassigned[ui+1:]...)
	}
}

// findPlacement returns the first (empty slot, unassigned session) pair
// whose placement raises the captured vote weight, or (-1, -1). The
// unassigned list keeps its vote order, so only its head can qualify.
func (b *board) findPlacement() (slotIdx, sessionIdx int) {
	if len(b.unassigned) == 0 || b.unassigned[0].Votes <= 0 {
		return -1, -1
	}
	for si, occ := range b.occupant {
		if occ == "" {
			return si, 0
		}
	}
	return -1, -1
}

// refinePlacement runs a best-improvement descent on the placement score.
// Each round evaluates every swap of two assigned slots and every move of
// an assigned slot to an empty one, then applies the single best strictly
// improving candidate. The assigned session set never changes, so the
// vote-weight optimum reached before refinement is preserved. Rounds stop
// at a local minimum or when the budget runs out.
func (b *board) refinePlacement(budget *int) {
	current := b.scaled()
	for *budget > 0 {
		*budget--
		bi, bj, best := -1, -1, current
		for i := range b.slots {
			if b.occupant[i] == "" {
				continue
			}
			for j := i + 1; j < len(b.slots); j++ {
				if b.occupant[j] == "" {
					continue
				}
				b.occupant[i], b.occupant[j] = b.occupant[j], b.occupant[i]
				if s := b.scaled(); s < best {
					bi, bj, best = i, j, s
				}
				b.occupant[i], b.occupant[j] = b.occupant[j], b.occupant[i]
			}
			for j := range b.slots {
				if b.occupant[j] != "" {
					continue
				}
				b.occupant[i], b.occupant[j] = b.occupant[j], b.occupant[i]
				if s := b.scaled(); s < best {
					bi, bj, best = i, j, s
				}
				b.occupant[i], b.occupant[j] = b.occupant[j], b.occupant[i]
			}
		}
		if bi < 0 {
			return
		}
		b.occupant[bi], b.occupant[bj] = b.occupant[bj], b.occupant[bi]
		current = best
	}
}

func (b *board) scaled() int {
	rows := make([][]int, b.rowCount)
	for i, occ := range b.occupant {
		if occ == "" {
			continue
		}
		rows[b.rowOf[i]] = append(rows[b.rowOf[i]], b.votes[occ])
	}
	unassigned := make([]int, 0, len(b.unassigned))
	for _, s := range b.unassigned {
		unassigned = append(unassigned, s.Votes)
	}
	return scaledScore(rows, unassigned)
}

func (b *board) entries() []Entry {
	entries := make([]Entry, 0, len(b.slots))
	for i, occ := range b.occupant {
		if occ == "" {
			continue
		}
		entries = append(entries, Entry{Slot: b.slots[i], SessionID: occ})
	}
	return entries
}
