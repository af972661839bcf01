package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/example/unconference-planner/internal/persistence"
)

// SessionRepository captures the persistence operations for talk proposals
// and the per-user votes behind their vote counts.
type SessionRepository interface {
	CreateSession(ctx context.Context, session Session) (Session, error)
	GetSession(ctx context.Context, id string) (Session, error)
	UpdateSession(ctx context.Context, session Session) (Session, error)
	DeleteSession(ctx context.Context, id string) error
	ListSessions(ctx context.Context) ([]Session, error)
	AddVote(ctx context.Context, sessionID, userID string) error
	RemoveVote(ctx context.Context, sessionID, userID string) error
	ListVotesByUser(ctx context.Context, userID string) ([]string, error)
}

// SessionService orchestrates validation, authorization, and persistence
// for talk proposals and voting. Vote counts are derived from recorded
// votes and handed to the scheduler as read-only input.
type SessionService struct {
	sessions    SessionRepository
	board       CatalogNotifier
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewSessionService constructs a session service with the provided dependencies.
func NewSessionService(sessions SessionRepository, board CatalogNotifier, idGenerator func() string, now func() time.Time) *SessionService {
	return NewSessionServiceWithLogger(sessions, board, idGenerator, now, nil)
}

// NewSessionServiceWithLogger constructs a session service with a specified logger.
func NewSessionServiceWithLogger(sessions SessionRepository, board CatalogNotifier, idGenerator func() string, now func() time.Time, logger *slog.Logger) *SessionService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &SessionService{sessions: sessions, board: board, idGenerator: idGenerator, now: now, logger: defaultLogger(logger)}
}

func (s *SessionService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "SessionService", operation, attrs...)
}

// CreateSession validates input and persists a new proposal owned by the
// caller. Any authenticated user may propose a talk.
func (s *SessionService) CreateSession(ctx context.Context, params CreateSessionParams) (session Session, err error) {
	if s == nil {
		err = fmt.Errorf("SessionService is nil")
		return
	}

	logger := s.loggerWith(ctx, "CreateSession",
		"principal_id", params.Principal.UserID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create session", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("session_id", session.ID).InfoContext(ctx, "session created")
	}()

	if strings.TrimSpace(params.Principal.UserID) == "" {
		err = ErrUnauthorized
		return
	}

	vErr := validateSessionInput(params.Input)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	session = Session{
		ID:        s.idGenerator(),
		Title:     strings.TrimSpace(params.Input.Title),
		Body:      strings.TrimSpace(params.Input.Body),
		Tag:       normalizeOptionalString(params.Input.Tag),
		OwnerID:   params.Principal.UserID,
		CreatedAt: s.now(),
	}
	session.UpdatedAt = session.CreatedAt

	if s.sessions == nil {
		err = fmt.Errorf("session repository not configured")
		return
	}

	create := func(ctx context.Context) error {
		persisted, createErr := s.sessions.CreateSession(ctx, session)
		if createErr != nil {
			return mapSessionRepoError(createErr)
		}
		session = persisted
		return nil
	}
	err = s.syncBoard(ctx, create)
	return
}

// UpdateSession validates input and updates a proposal. Owners may edit
// their own; facilitators and admins may edit any.
func (s *SessionService) UpdateSession(ctx context.Context, params UpdateSessionParams) (session Session, err error) {
	if s == nil {
		err = fmt.Errorf("SessionService is nil")
		return
	}
	if s.sessions == nil {
		err = fmt.Errorf("session repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "UpdateSession",
		"principal_id", params.Principal.UserID,
		"session_id", params.SessionID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update session", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("session_id", session.ID).InfoContext(ctx, "session updated")
	}()

	var existing Session
	existing, err = s.sessions.GetSession(ctx, params.SessionID)
	if err != nil {
		err = mapSessionRepoError(err)
		return
	}

	if !canManageSession(params.Principal, existing) {
		err = ErrUnauthorized
		return
	}

	vErr := validateSessionInput(params.Input)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	updated := existing
	updated.Title = strings.TrimSpace(params.Input.Title)
	updated.Body = strings.TrimSpace(params.Input.Body)
	updated.Tag = normalizeOptionalString(params.Input.Tag)
	updated.UpdatedAt = s.now()

	session, err = s.sessions.UpdateSession(ctx, updated)
	if err != nil {
		err = mapSessionRepoError(err)
		return
	}

	return
}

// DeleteSession removes a proposal along with its votes and any board
// entry. Owners may delete their own; facilitators and admins may delete
// any.
func (s *SessionService) DeleteSession(ctx context.Context, principal Principal, sessionID string) error {
	if s == nil {
		return fmt.Errorf("SessionService is nil")
	}
	if s.sessions == nil {
		return fmt.Errorf("session repository not configured")
	}

	logger := s.loggerWith(ctx, "DeleteSession",
		"principal_id", principal.UserID,
		"session_id", sessionID,
	)

	existing, err := s.sessions.GetSession(ctx, sessionID)
	if err != nil {
		err = mapSessionRepoError(err)
		logger.ErrorContext(ctx, "failed to delete session", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	if !canManageSession(principal, existing) {
		logger.ErrorContext(ctx, "failed to delete session", "error", ErrUnauthorized, "error_kind", ErrorKind(ErrUnauthorized))
		return ErrUnauthorized
	}

	err = s.syncBoard(ctx, func(ctx context.Context) error {
		if deleteErr := s.sessions.DeleteSession(ctx, sessionID); deleteErr != nil {
			return mapSessionRepoError(deleteErr)
		}
		return nil
	})
	if err != nil {
		logger.ErrorContext(ctx, "failed to delete session", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	logger.InfoContext(ctx, "session deleted")
	return nil
}

// GetSession returns one proposal with its vote count. Anyone may read it.
func (s *SessionService) GetSession(ctx context.Context, sessionID string) (Session, error) {
	if s == nil {
		return Session{}, fmt.Errorf("SessionService is nil")
	}
	if s.sessions == nil {
		return Session{}, fmt.Errorf("session repository not configured")
	}

	session, err := s.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return Session{}, mapSessionRepoError(err)
	}
	return session, nil
}

// ListSessions returns every proposal ordered by vote count descending
// (ties by ID), plus the IDs the caller has voted for when authenticated.
func (s *SessionService) ListSessions(ctx context.Context, principal Principal) (sessions []Session, votedIDs []string, err error) {
	if s == nil {
		err = fmt.Errorf("SessionService is nil")
		return
	}
	if s.sessions == nil {
		return nil, nil, nil
	}

	logger := s.loggerWith(ctx, "ListSessions", "principal_id", principal.UserID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to list sessions", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("result_count", len(sessions)).InfoContext(ctx, "sessions listed")
	}()

	var raw []Session
	raw, err = s.sessions.ListSessions(ctx)
	if err != nil {
		err = mapSessionRepoError(err)
		return
	}

	sessions = make([]Session, len(raw))
	copy(sessions, raw)
	sort.Slice(sessions, func(i, j int) bool {
		if sessions[i].Votes != sessions[j].Votes {
			return sessions[i].Votes > sessions[j].Votes
		}
		return sessions[i].ID < sessions[j].ID
	})

	if strings.TrimSpace(principal.UserID) != "" {
		votedIDs, err = s.sessions.ListVotesByUser(ctx, principal.UserID)
		if err != nil {
			err = mapSessionRepoError(err)
			return
		}
	}

	return
}

// AddVote records the caller's vote on a session. One vote per user per
// session.
func (s *SessionService) AddVote(ctx context.Context, principal Principal, sessionID string) error {
	if s == nil {
		return fmt.Errorf("SessionService is nil")
	}
	if strings.TrimSpace(principal.UserID) == "" {
		return ErrUnauthorized
	}
	if s.sessions == nil {
		return fmt.Errorf("session repository not configured")
	}

	logger := s.loggerWith(ctx, "AddVote",
		"principal_id", principal.UserID,
		"session_id", sessionID,
	)

	if err := s.sessions.AddVote(ctx, sessionID, principal.UserID); err != nil {
		err = mapVoteRepoError(err, true)
		logger.ErrorContext(ctx, "failed to add vote", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	logger.InfoContext(ctx, "vote added")
	return nil
}

// RemoveVote withdraws the caller's vote on a session.
func (s *SessionService) RemoveVote(ctx context.Context, principal Principal, sessionID string) error {
	if s == nil {
		return fmt.Errorf("SessionService is nil")
	}
	if strings.TrimSpace(principal.UserID) == "" {
		return ErrUnauthorized
	}
	if s.sessions == nil {
		return fmt.Errorf("session repository not configured")
	}

	logger := s.loggerWith(ctx, "RemoveVote",
		"principal_id", principal.UserID,
		"session_id", sessionID,
	)

	if err := s.sessions.RemoveVote(ctx, sessionID, principal.UserID); err != nil {
		err = mapVoteRepoError(err, false)
		logger.ErrorContext(ctx, "failed to remove vote", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	logger.InfoContext(ctx, "vote removed")
	return nil
}

func (s *SessionService) syncBoard(ctx context.Context, mutate func(ctx context.Context) error) error {
	if s.board == nil {
		return mutate(ctx)
	}
	return s.board.CatalogChanged(ctx, mutate)
}

// canManageSession reports whether the principal may edit or delete the
// proposal: its owner, or any facilitator or admin.
func canManageSession(principal Principal, session Session) bool {
	if principal.Role.CanFacilitate() {
		return true
	}
	return principal.UserID != "" && principal.UserID == session.OwnerID
}

func validateSessionInput(input SessionInput) *ValidationError {
	vErr := &ValidationError{}

	if strings.TrimSpace(input.Title) == "" {
		vErr.Add("title", "title is required")
	}

	return vErr
}

func mapSessionRepoError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, persistence.ErrNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, persistence.ErrDuplicate) {
		return ErrAlreadyExists
	}
	if errors.Is(err, persistence.ErrForeignKeyViolation) {
		return ErrNotFound
	}
	return err
}

// mapVoteRepoError translates vote writes: a duplicate insert is a second
// vote, a missing row on delete is a vote never cast.
func mapVoteRepoError(err error, adding bool) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, persistence.ErrDuplicate) {
		return ErrAlreadyVoted
	}
	if errors.Is(err, persistence.ErrNotFound) {
		if adding {
			return ErrNotFound
		}
		return ErrVoteMissing
	}
	if errors.Is(err, persistence.ErrForeignKeyViolation) {
		return ErrNotFound
	}
	return err
}
