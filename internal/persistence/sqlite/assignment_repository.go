package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/unconference-planner/internal/persistence"
)

// AssignmentRepository implements persistence.AssignmentRepository using
// SQLite. Board writes go through the retry helper because concurrent
// mutations contend on the whole assignments table.
type AssignmentRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
	retry  *RetryHelper
}

// NewAssignmentRepository creates a new SQLite assignment repository.
func NewAssignmentRepository(pool *ConnectionPool) *AssignmentRepository {
	return &AssignmentRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
		retry:  NewRetryHelper(DefaultRetryConfig()),
	}
}

// ListEntries returns every board entry.
func (r *AssignmentRepository) ListEntries(ctx context.Context) ([]persistence.AssignmentEntry, error) {
	query := `
		SELECT room_id, timeslot_id, session_id, created_at
		FROM assignments
		ORDER BY timeslot_id ASC, room_id ASC
	`

	rows, err := r.helper.Query(ctx, query)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var entries []persistence.AssignmentEntry

	for rows.Next() {
		var entry persistence.AssignmentEntry
		var createdAtStr string

		if err := rows.Scan(&entry.RoomID, &entry.TimeslotID, &entry.SessionID, &createdAtStr); err != nil {
			return nil, r.mapper.MapError(err)
		}

		if entry.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr); err != nil {
			return nil, fmt.Errorf("failed to parse created_at: %w", err)
		}

		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}

	return entries, nil
}

// ReplaceEntries swaps the whole board for the given entries in one
// transaction. An empty slice clears the board.
func (r *AssignmentRepository) ReplaceEntries(ctx context.Context, entries []persistence.AssignmentEntry) error {
	return r.retry.WithRetry(ctx, func() error {
		return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
			if _, err := r.helper.ExecTx(tx, "DELETE FROM assignments"); err != nil {
				return r.mapper.MapError(err)
			}

			now := time.Now().UTC().Format(time.RFC3339)
			for _, entry := range entries {
				if err := r.insertEntry(tx, entry, now); err != nil {
					return err
				}
			}

			return nil
		})
	})
}

// ApplyEntryChanges removes and inserts entries in one transaction.
// Removals run first so a swap never trips the uniqueness constraints.
func (r *AssignmentRepository) ApplyEntryChanges(ctx context.Context, remove []persistence.AssignmentSlot, add []persistence.AssignmentEntry) error {
	return r.retry.WithRetry(ctx, func() error {
		return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
			for _, slot := range remove {
				if _, err := r.helper.ExecTx(tx,
					"DELETE FROM assignments WHERE room_id = ? AND timeslot_id = ?",
					slot.RoomID, slot.TimeslotID); err != nil {
					return r.mapper.MapError(err)
				}
			}

			now := time.Now().UTC().Format(time.RFC3339)
			for _, entry := range add {
				if err := r.insertEntry(tx, entry, now); err != nil {
					return err
				}
			}

			return nil
		})
	})
}

func (r *AssignmentRepository) insertEntry(tx *sql.Tx, entry persistence.AssignmentEntry, createdAt string) error {
	if entry.RoomID == "" || entry.TimeslotID == "" || entry.SessionID == "" {
		return persistence.ErrConstraintViolation
	}

	_, err := r.helper.ExecTx(tx, `
		INSERT INTO assignments (room_id, timeslot_id, session_id, created_at)
		VALUES (?, ?, ?, ?)
	`, entry.RoomID, entry.TimeslotID, entry.SessionID, createdAt)

	if err != nil {
		return r.mapper.MapError(err)
	}

	return nil
}
