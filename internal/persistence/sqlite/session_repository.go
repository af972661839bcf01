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

// SessionRepository implements persistence.SessionRepository using SQLite.
// Vote counts are derived from the user_votes table on every read.
type SessionRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewSessionRepository creates a new SQLite session repository.
func NewSessionRepository(pool *ConnectionPool) *SessionRepository {
	return &SessionRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

const sessionSelect = `
	SELECT s.id, s.title, s.body, s.tag, s.owner_id,
		(SELECT COUNT(*) FROM user_votes v WHERE v.session_id = s.id) AS votes,
		s.created_at, s.updated_at
	FROM sessions s
`

// CreateSession inserts a new talk proposal into the database.
func (r *SessionRepository) CreateSession(ctx context.Context, session persistence.Session) error {
	if session.ID == "" {
		return persistence.ErrConstraintViolation
	}
	if strings.TrimSpace(session.Title) == "" {
		return persistence.ErrConstraintViolation
	}
	if session.OwnerID == "" {
		return persistence.ErrConstraintViolation
	}

	now := time.Now().UTC()
	session.CreatedAt = now
	session.UpdatedAt = now

	query := `
		INSERT INTO sessions (id, title, body, tag, owner_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.helper.Exec(ctx, query,
		session.ID,
		session.Title,
		session.Body,
		session.Tag,
		session.OwnerID,
		session.CreatedAt.Format(time.RFC3339),
		session.UpdatedAt.Format(time.RFC3339),
	)

	if err != nil {
		return r.mapper.MapError(err)
	}

	return nil
}

// UpdateSession updates the mutable fields of an existing proposal. The
// owner never changes after creation.
func (r *SessionRepository) UpdateSession(ctx context.Context, session persistence.Session) error {
	if session.ID == "" {
		return persistence.ErrConstraintViolation
	}
	if strings.TrimSpace(session.Title) == "" {
		return persistence.ErrConstraintViolation
	}

	session.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE sessions
		SET title = ?, body = ?, tag = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.helper.Exec(ctx, query,
		session.Title,
		session.Body,
		session.Tag,
		session.UpdatedAt.Format(time.RFC3339),
		session.ID,
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

	return nil
}

// GetSession retrieves a proposal by ID, including its current vote count.
func (r *SessionRepository) GetSession(ctx context.Context, id string) (persistence.Session, error) {
	if id == "" {
		return persistence.Session{}, persistence.ErrNotFound
	}

	return r.scanSession(r.helper.QueryRow(ctx, sessionSelect+" WHERE s.id = ?", id))
}

// ListSessions returns all proposals with vote counts, ordered by creation
// timestamp then ID.
func (r *SessionRepository) ListSessions(ctx context.Context) ([]persistence.Session, error) {
	rows, err := r.helper.Query(ctx, sessionSelect+" ORDER BY s.created_at ASC, s.id ASC")
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var sessions []persistence.Session

	for rows.Next() {
		session, err := r.scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}

	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}

	return sessions, nil
}

// DeleteSession removes a proposal along with its votes and any board entry
// referencing it, in one transaction.
func (r *SessionRepository) DeleteSession(ctx context.Context, id string) error {
	if id == "" {
		return persistence.ErrNotFound
	}

	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		if _, err := r.helper.ExecTx(tx, "DELETE FROM assignments WHERE session_id = ?", id); err != nil {
			return r.mapper.MapError(err)
		}

		if _, err := r.helper.ExecTx(tx, "DELETE FROM user_votes WHERE session_id = ?", id); err != nil {
			return r.mapper.MapError(err)
		}

		result, err := r.helper.ExecTx(tx, "DELETE FROM sessions WHERE id = ?", id)
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

// AddVote records one vote by a user on a session. A second vote by the
// same user yields ErrDuplicate; a missing session or user yields
// ErrNotFound.
func (r *SessionRepository) AddVote(ctx context.Context, sessionID, userID string) error {
	if sessionID == "" || userID == "" {
		return persistence.ErrNotFound
	}

	query := `
		INSERT INTO user_votes (session_id, user_id, created_at)
		VALUES (?, ?, ?)
	`

	_, err := r.helper.Exec(ctx, query, sessionID, userID, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return r.mapVoteError(err)
	}

	return nil
}

// RemoveVote withdraws a user's vote on a session. A vote that was never
// cast yields ErrNotFound.
func (r *SessionRepository) RemoveVote(ctx context.Context, sessionID, userID string) error {
	if sessionID == "" || userID == "" {
		return persistence.ErrNotFound
	}

	result, err := r.helper.Exec(ctx,
		"DELETE FROM user_votes WHERE session_id = ? AND user_id = ?", sessionID, userID)
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
}

// ListVotesByUser returns the IDs of the sessions the user has voted for,
// ordered by session ID.
func (r *SessionRepository) ListVotesByUser(ctx context.Context, userID string) ([]string, error) {
	if userID == "" {
		return nil, nil
	}

	rows, err := r.helper.Query(ctx,
		"SELECT session_id FROM user_votes WHERE user_id = ? ORDER BY session_id ASC", userID)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var sessionIDs []string

	for rows.Next() {
		var sessionID string
		if err := rows.Scan(&sessionID); err != nil {
			return nil, r.mapper.MapError(err)
		}
		sessionIDs = append(sessionIDs, sessionID)
	}

	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}

	return sessionIDs, nil
}

func (r *SessionRepository) scanSession(row rowScanner) (persistence.Session, error) {
	var session persistence.Session
	var tag sql.NullString
	var createdAtStr, updatedAtStr string

	err := row.Scan(
		&session.ID,
		&session.Title,
		&session.Body,
		&tag,
		&session.OwnerID,
		&session.Votes,
		&createdAtStr,
		&updatedAtStr,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Session{}, persistence.ErrNotFound
		}
		return persistence.Session{}, r.mapper.MapError(err)
	}

	if tag.Valid {
		session.Tag = &tag.String
	}

	if session.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr); err != nil {
		return persistence.Session{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if session.UpdatedAt, err = time.Parse(time.RFC3339, updatedAtStr); err != nil {
		return persistence.Session{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}

	return session, nil
}

// mapVoteError translates constraint failures on the user_votes table. The
// composite primary key means a duplicate is a repeated vote, and a foreign
// key failure means the session or user does not exist.
func (r *SessionRepository) mapVoteError(err error) error {
	if err == nil {
		return nil
	}

	errStr := err.Error()

	if containsAny(errStr, []string{"UNIQUE constraint failed", "PRIMARY KEY constraint failed"}) {
		return persistence.ErrDuplicate
	}

	if containsAny(errStr, []string{"FOREIGN KEY constraint failed"}) {
		return persistence.ErrNotFound
	}

	return r.mapper.MapError(err)
}
