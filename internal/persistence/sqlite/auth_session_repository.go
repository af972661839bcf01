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

// AuthSessionRepository implements persistence.AuthSessionRepository using
// SQLite.
type AuthSessionRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewAuthSessionRepository creates a new SQLite auth session repository.
func NewAuthSessionRepository(pool *ConnectionPool) *AuthSessionRepository {
	return &AuthSessionRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

// CreateAuthSession stores a new login session and returns the stored
// record.
func (r *AuthSessionRepository) CreateAuthSession(ctx context.Context, session persistence.AuthSession) (persistence.AuthSession, error) {
	if session.ID == "" || session.UserID == "" {
		return persistence.AuthSession{}, persistence.ErrConstraintViolation
	}
	session.Token = strings.TrimSpace(session.Token)
	if session.Token == "" {
		return persistence.AuthSession{}, persistence.ErrConstraintViolation
	}

	now := time.Now().UTC()
	session.CreatedAt = now
	session.UpdatedAt = now
	session.ExpiresAt = session.ExpiresAt.UTC()

	query := `
		INSERT INTO auth_sessions (id, user_id, token, expires_at, created_at, updated_at, revoked_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.helper.Exec(ctx, query,
		session.ID,
		session.UserID,
		session.Token,
		session.ExpiresAt.Format(time.RFC3339),
		session.CreatedAt.Format(time.RFC3339),
		session.UpdatedAt.Format(time.RFC3339),
		formatTimePtr(session.RevokedAt),
	)

	if err != nil {
		return persistence.AuthSession{}, r.mapper.MapError(err)
	}

	return session, nil
}

// GetAuthSession retrieves a login session by its token value.
func (r *AuthSessionRepository) GetAuthSession(ctx context.Context, token string) (persistence.AuthSession, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return persistence.AuthSession{}, persistence.ErrNotFound
	}

	query := `
		SELECT id, user_id, token, expires_at, created_at, updated_at, revoked_at
		FROM auth_sessions
		WHERE token = ?
	`

	return r.scanAuthSession(r.helper.QueryRow(ctx, query, token))
}

// UpdateAuthSession rewrites the mutable fields of a login session, keyed
// by ID. Token rotation on refresh goes through here.
func (r *AuthSessionRepository) UpdateAuthSession(ctx context.Context, session persistence.AuthSession) (persistence.AuthSession, error) {
	if session.ID == "" {
		return persistence.AuthSession{}, persistence.ErrConstraintViolation
	}
	session.Token = strings.TrimSpace(session.Token)
	if session.Token == "" {
		return persistence.AuthSession{}, persistence.ErrConstraintViolation
	}

	session.UpdatedAt = time.Now().UTC()
	session.ExpiresAt = session.ExpiresAt.UTC()

	query := `
		UPDATE auth_sessions
		SET token = ?, expires_at = ?, revoked_at = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.helper.Exec(ctx, query,
		session.Token,
		session.ExpiresAt.Format(time.RFC3339),
		formatTimePtr(session.RevokedAt),
		session.UpdatedAt.Format(time.RFC3339),
		session.ID,
	)

	if err != nil {
		return persistence.AuthSession{}, r.mapper.MapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return persistence.AuthSession{}, fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return persistence.AuthSession{}, persistence.ErrNotFound
	}

	return r.getAuthSessionByID(ctx, session.ID)
}

// RevokeAuthSession marks the session holding the given token as revoked
// and returns the updated record.
func (r *AuthSessionRepository) RevokeAuthSession(ctx context.Context, token string, revokedAt time.Time) (persistence.AuthSession, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return persistence.AuthSession{}, persistence.ErrNotFound
	}

	revokedAtUTC := revokedAt.UTC()

	result, err := r.helper.Exec(ctx, `
		UPDATE auth_sessions
		SET revoked_at = ?, updated_at = ?
		WHERE token = ?
	`,
		revokedAtUTC.Format(time.RFC3339),
		revokedAtUTC.Format(time.RFC3339),
		token,
	)

	if err != nil {
		return persistence.AuthSession{}, r.mapper.MapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return persistence.AuthSession{}, fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return persistence.AuthSession{}, persistence.ErrNotFound
	}

	return r.GetAuthSession(ctx, token)
}

// DeleteExpiredAuthSessions prunes sessions whose expiry lies at or before
// the reference time.
func (r *AuthSessionRepository) DeleteExpiredAuthSessions(ctx context.Context, reference time.Time) error {
	_, err := r.helper.Exec(ctx,
		"DELETE FROM auth_sessions WHERE expires_at <= ?",
		reference.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return r.mapper.MapError(err)
	}

	return nil
}

func (r *AuthSessionRepository) getAuthSessionByID(ctx context.Context, id string) (persistence.AuthSession, error) {
	query := `
		SELECT id, user_id, token, expires_at, created_at, updated_at, revoked_at
		FROM auth_sessions
		WHERE id = ?
	`

	return r.scanAuthSession(r.helper.QueryRow(ctx, query, id))
}

func (r *AuthSessionRepository) scanAuthSession(row rowScanner) (persistence.AuthSession, error) {
	var session persistence.AuthSession
	var expiresAtStr, createdAtStr, updatedAtStr string
	var revokedAt sql.NullString

	err := row.Scan(
		&session.ID,
		&session.UserID,
		&session.Token,
		&expiresAtStr,
		&createdAtStr,
		&updatedAtStr,
		&revokedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.AuthSession{}, persistence.ErrNotFound
		}
		return persistence.AuthSession{}, r.mapper.MapError(err)
	}

	if revokedAt.Valid {
		if session.RevokedAt, err = parseTimePtr(revokedAt.String); err != nil {
			return persistence.AuthSession{}, fmt.Errorf("failed to parse revoked_at: %w", err)
		}
	}

	if session.ExpiresAt, err = time.Parse(time.RFC3339, expiresAtStr); err != nil {
		return persistence.AuthSession{}, fmt.Errorf("failed to parse expires_at: %w", err)
	}
	if session.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr); err != nil {
		return persistence.AuthSession{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if session.UpdatedAt, err = time.Parse(time.RFC3339, updatedAtStr); err != nil {
		return persistence.AuthSession{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}

	return session, nil
}

// formatTimePtr renders an optional timestamp as a nullable column value.
func formatTimePtr(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(time.RFC3339), Valid: true}
}

// parseTimePtr parses an RFC3339 timestamp into a pointer.
func parseTimePtr(value string) (*time.Time, error) {
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}
