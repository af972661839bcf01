package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/example/unconference-planner/internal/persistence"
)

// TimeslotRepository implements persistence.TimeslotRepository using SQLite.
type TimeslotRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewTimeslotRepository creates a new SQLite timeslot repository.
func NewTimeslotRepository(pool *ConnectionPool) *TimeslotRepository {
	return &TimeslotRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

// CreateTimeslot inserts a new timeslot into the database.
func (r *TimeslotRepository) CreateTimeslot(ctx context.Context, timeslot persistence.Timeslot) error {
	normalized, err := normalizeTimeslot(timeslot)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	normalized.CreatedAt = now
	normalized.UpdatedAt = now

	query := `
		INSERT INTO timeslots (id, start_time, end_time, blocked, blocked_reason, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.helper.Exec(ctx, query,
		normalized.ID,
		normalized.Start.Format(time.RFC3339),
		normalized.End.Format(time.RFC3339),
		normalized.Blocked,
		normalized.BlockedReason,
		normalized.CreatedAt.Format(time.RFC3339),
		normalized.UpdatedAt.Format(time.RFC3339),
	)

	if err != nil {
		return r.mapper.MapError(err)
	}

	return nil
}

// UpdateTimeslot updates an existing timeslot. Marking a timeslot blocked
// removes every board entry in it within the same transaction, so the
// board never references a blocked slot.
func (r *TimeslotRepository) UpdateTimeslot(ctx context.Context, timeslot persistence.Timeslot) error {
	normalized, err := normalizeTimeslot(timeslot)
	if err != nil {
		return err
	}

	normalized.UpdatedAt = time.Now().UTC()

	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		query := `
			UPDATE timeslots
			SET start_time = ?, end_time = ?, blocked = ?, blocked_reason = ?, updated_at = ?
			WHERE id = ?
		`

		result, err := r.helper.ExecTx(tx, query,
			normalized.Start.Format(time.RFC3339),
			normalized.End.Format(time.RFC3339),
			normalized.Blocked,
			normalized.BlockedReason,
			normalized.UpdatedAt.Format(time.RFC3339),
			normalized.ID,
		)

		if err != nil {
			return r.mapper.MapError(err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}

		if rowsAffected == 0 {
			return persistence.ErrNotFound
		}

		if normalized.Blocked {
			if _, err := r.helper.ExecTx(tx,
				"DELETE FROM assignments WHERE timeslot_id = ?", normalized.ID); err != nil {
				return r.mapper.MapError(err)
			}
		}

		return nil
	})
}

// GetTimeslot retrieves a timeslot by ID from the database.
func (r *TimeslotRepository) GetTimeslot(ctx context.Context, id string) (persistence.Timeslot, error) {
	if id == "" {
		return persistence.Timeslot{}, persistence.ErrNotFound
	}

	query := `
		SELECT id, start_time, end_time, blocked, blocked_reason, created_at, updated_at
		FROM timeslots
		WHERE id = ?
	`

	return r.scanTimeslot(r.helper.QueryRow(ctx, query, id))
}

// ListTimeslots returns all timeslots ordered by start time then ID.
func (r *TimeslotRepository) ListTimeslots(ctx context.Context) ([]persistence.Timeslot, error) {
	query := `
		SELECT id, start_time, end_time, blocked, blocked_reason, created_at, updated_at
		FROM timeslots
		ORDER BY start_time ASC, id ASC
	`

	rows, err := r.helper.Query(ctx, query)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var timeslots []persistence.Timeslot

	for rows.Next() {
		timeslot, err := r.scanTimeslot(rows)
		if err != nil {
			return nil, err
		}
		timeslots = append(timeslots, timeslot)
	}

	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}

	return timeslots, nil
}

// DeleteTimeslot removes a timeslot and every board entry in it, in one
// transaction.
func (r *TimeslotRepository) DeleteTimeslot(ctx context.Context, id string) error {
	if id == "" {
		return persistence.ErrNotFound
	}

	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		if _, err := r.helper.ExecTx(tx, "DELETE FROM assignments WHERE timeslot_id = ?", id); err != nil {
			return r.mapper.MapError(err)
		}

		result, err := r.helper.ExecTx(tx, "DELETE FROM timeslots WHERE id = ?", id)
		if err != nil {
			return r.mapper.MapError(err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}

		if rowsAffected == 0 {
			return persistence.ErrNotFound
		}

		return nil
	})
}

func (r *TimeslotRepository) scanTimeslot(row rowScanner) (persistence.Timeslot, error) {
	var timeslot persistence.Timeslot
	var blockedReason sql.NullString
	var startStr, endStr, createdAtStr, updatedAtStr string

	err := row.Scan(
		&timeslot.ID,
		&startStr,
		&endStr,
		&timeslot.Blocked,
		&blockedReason,
		&createdAtStr,
		&updatedAtStr,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Timeslot{}, persistence.ErrNotFound
		}
		return persistence.Timeslot{}, r.mapper.MapError(err)
	}

	if blockedReason.Valid {
		timeslot.BlockedReason = &blockedReason.String
	}

	if timeslot.Start, err = time.Parse(time.RFC3339, startStr); err != nil {
		return persistence.Timeslot{}, fmt.Errorf("failed to parse start_time: %w", err)
	}
	if timeslot.End, err = time.Parse(time.RFC3339, endStr); err != nil {
		return persistence.Timeslot{}, fmt.Errorf("failed to parse end_time: %w", err)
	}
	if timeslot.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr); err != nil {
		return persistence.Timeslot{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if timeslot.UpdatedAt, err = time.Parse(time.RFC3339, updatedAtStr); err != nil {
		return persistence.Timeslot{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}

	return timeslot, nil
}

// normalizeTimeslot enforces the blocked invariant on the way in: a blocked
// timeslot needs a non-empty reason, an open one carries none. All times
// are stored in UTC.
func normalizeTimeslot(timeslot persistence.Timeslot) (persistence.Timeslot, error) {
	if timeslot.ID == "" {
		return persistence.Timeslot{}, persistence.ErrConstraintViolation
	}
	if !timeslot.End.After(timeslot.Start) {
		return persistence.Timeslot{}, persistence.ErrConstraintViolation
	}

	if timeslot.Blocked {
		if timeslot.BlockedReason == nil || strings.TrimSpace(*timeslot.BlockedReason) == "" {
			return persistence.Timeslot{}, persistence.ErrConstraintViolation
		}
		reason := strings.TrimSpace(*timeslot.BlockedReason)
		timeslot.BlockedReason = &reason
	} else {
		timeslot.BlockedReason = nil
	}

	timeslot.Start = timeslot.Start.UTC()
	timeslot.End = timeslot.End.UTC()

	return timeslot, nil
}
