package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/unconference-planner/internal/persistence"
)

type sessionRepoStub struct {
	sessions    map[string]Session
	votesByUser map[string][]string
	addVoteErr  error
	delVoteErr  error
	createErr   error
	listErr     error
}

func newSessionRepoStub(sessions ...Session) *sessionRepoStub {
	stub := &sessionRepoStub{
		sessions:    make(map[string]Session),
		votesByUser: make(map[string][]string),
	}
	for _, session := range sessions {
		stub.sessions[session.ID] = session
	}
	return stub
}

func (s *sessionRepoStub) CreateSession(ctx context.Context, session Session) (Session, error) {
	if s.createErr != nil {
		return Session{}, s.createErr
	}
	s.sessions[session.ID] = session
	return session, nil
}

func (s *sessionRepoStub) GetSession(ctx context.Context, id string) (Session, error) {
	session, ok := s.sessions[id]
	if !ok {
		return Session{}, persistence.ErrNotFound
	}
	return session, nil
}

func (s *sessionRepoStub) UpdateSession(ctx context.Context, session Session) (Session, error) {
	if _, ok := s.sessions[session.ID]; !ok {
		return Session{}, persistence.ErrNotFound
	}
	s.sessions[session.ID] = session
	return session, nil
}

func (s *sessionRepoStub) DeleteSession(ctx context.Context, id string) error {
	if _, ok := s.sessions[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(s.sessions, id)
	return nil
}

func (s *sessionRepoStub) ListSessions(ctx context.Context) ([]Session, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	out := make([]Session, 0, len(s.sessions))
	for _, session := range s.sessions {
		out = append(out, session)
	}
	return out, nil
}

func (s *sessionRepoStub) AddVote(ctx context.Context, sessionID, userID string) error {
	if s.addVoteErr != nil {
		return s.addVoteErr
	}
	if _, ok := s.sessions[sessionID]; !ok {
		return persistence.ErrForeignKeyViolation
	}
	for _, voted := range s.votesByUser[userID] {
		if voted == sessionID {
			return persistence.ErrDuplicate
		}
	}
	s.votesByUser[userID] = append(s.votesByUser[userID], sessionID)
	return nil
}

func (s *sessionRepoStub) RemoveVote(ctx context.Context, sessionID, userID string) error {
	if s.delVoteErr != nil {
		return s.delVoteErr
	}
	votes := s.votesByUser[userID]
	for i, voted := range votes {
		if voted == sessionID {
			s.votesByUser[userID] = append(votes[:i], votes[i+1:]...)
			return nil
		}
	}
	return persistence.ErrNotFound
}

func (s *sessionRepoStub) ListVotesByUser(ctx context.Context, userID string) ([]string, error) {
	return s.votesByUser[userID], nil
}

func TestSessionService_CreateSession(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, time.March, 5, 9, 0, 0, 0, time.UTC)

	t.Run("rejects anonymous callers", func(t *testing.T) {
		t.Parallel()

		svc := NewSessionService(newSessionRepoStub(), nil, nil, nil)
		_, err := svc.CreateSession(context.Background(), CreateSessionParams{
			Principal: Principal{},
			Input:     SessionInput{Title: "Intro to Go"},
		})
		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("requires a title", func(t *testing.T) {
		t.Parallel()

		svc := NewSessionService(newSessionRepoStub(), nil, nil, nil)
		_, err := svc.CreateSession(context.Background(), CreateSessionParams{
			Principal: Principal{UserID: "user-1", Role: RoleViewer},
			Input:     SessionInput{Title: "   "},
		})

		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected validation error, got %v", err)
		}
		if vErr.FieldErrors["title"] != "title is required" {
			t.Fatalf("unexpected title error %q", vErr.FieldErrors["title"])
		}
	})

	t.Run("persists an owned proposal and notifies the board", func(t *testing.T) {
		t.Parallel()

		repo := newSessionRepoStub()
		notifier := &notifierStub{}
		svc := NewSessionService(repo, notifier, func() string { return "sess-1" }, fixedClock(now))

		session, err := svc.CreateSession(context.Background(), CreateSessionParams{
			Principal: Principal{UserID: "user-1", Role: RoleViewer},
			Input:     SessionInput{Title: " Intro to Go ", Body: " Basics. ", Tag: strPtr(" golang ")},
		})
		if err != nil {
			t.Fatalf("CreateSession returned error: %v", err)
		}
		if session.ID != "sess-1" || session.Title != "Intro to Go" || session.Body != "Basics." {
			t.Fatalf("unexpected session %+v", session)
		}
		if session.OwnerID != "user-1" {
			t.Fatalf("expected owner user-1, got %q", session.OwnerID)
		}
		if session.Tag == nil || *session.Tag != "golang" {
			t.Fatalf("expected trimmed tag, got %v", session.Tag)
		}
		if notifier.calls != 1 {
			t.Fatalf("expected one board notification, got %d", notifier.calls)
		}
	})
}

func TestSessionService_UpdateSession(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, time.March, 5, 10, 0, 0, 0, time.UTC)
	existing := Session{ID: "sess-1", Title: "Old", OwnerID: "user-1"}

	t.Run("owners may edit their own proposal", func(t *testing.T) {
		t.Parallel()

		repo := newSessionRepoStub(existing)
		notifier := &notifierStub{}
		svc := NewSessionService(repo, notifier, nil, fixedClock(now))

		session, err := svc.UpdateSession(context.Background(), UpdateSessionParams{
			Principal: Principal{UserID: "user-1", Role: RoleViewer},
			SessionID: "sess-1",
			Input:     SessionInput{Title: "New"},
		})
		if err != nil {
			t.Fatalf("UpdateSession returned error: %v", err)
		}
		if session.Title != "New" {
			t.Fatalf("unexpected session %+v", session)
		}
		if notifier.calls != 0 {
			t.Fatalf("session edits are informational; expected no board notification, got %d", notifier.calls)
		}
	})

	t.Run("facilitators may edit any proposal", func(t *testing.T) {
		t.Parallel()

		repo := newSessionRepoStub(existing)
		svc := NewSessionService(repo, nil, nil, fixedClock(now))

		_, err := svc.UpdateSession(context.Background(), UpdateSessionParams{
			Principal: Principal{UserID: "user-2", Role: RoleFacilitator},
			SessionID: "sess-1",
			Input:     SessionInput{Title: "Moderated"},
		})
		if err != nil {
			t.Fatalf("UpdateSession returned error: %v", err)
		}
	})

	t.Run("other viewers may not edit", func(t *testing.T) {
		t.Parallel()

		repo := newSessionRepoStub(existing)
		svc := NewSessionService(repo, nil, nil, nil)

		_, err := svc.UpdateSession(context.Background(), UpdateSessionParams{
			Principal: Principal{UserID: "user-2", Role: RoleViewer},
			SessionID: "sess-1",
			Input:     SessionInput{Title: "Hijacked"},
		})
		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})
}

func TestSessionService_DeleteSession(t *testing.T) {
	t.Parallel()

	existing := Session{ID: "sess-1", Title: "Intro", OwnerID: "user-1"}

	t.Run("owners delete through the board notifier", func(t *testing.T) {
		t.Parallel()

		repo := newSessionRepoStub(existing)
		notifier := &notifierStub{}
		svc := NewSessionService(repo, notifier, nil, nil)

		if err := svc.DeleteSession(context.Background(), Principal{UserID: "user-1", Role: RoleViewer}, "sess-1"); err != nil {
			t.Fatalf("DeleteSession returned error: %v", err)
		}
		if notifier.calls != 1 {
			t.Fatalf("expected one board notification, got %d", notifier.calls)
		}
	})

	t.Run("other viewers may not delete", func(t *testing.T) {
		t.Parallel()

		repo := newSessionRepoStub(existing)
		svc := NewSessionService(repo, nil, nil, nil)

		err := svc.DeleteSession(context.Background(), Principal{UserID: "user-2", Role: RoleViewer}, "sess-1")
		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("returns ErrNotFound for unknown proposals", func(t *testing.T) {
		t.Parallel()

		svc := NewSessionService(newSessionRepoStub(), nil, nil, nil)
		err := svc.DeleteSession(context.Background(), Principal{UserID: "admin-1", Role: RoleAdmin}, "missing")
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestSessionService_ListSessions(t *testing.T) {
	t.Parallel()

	repo := newSessionRepoStub(
		Session{ID: "sess-b", Title: "B", Votes: 3},
		Session{ID: "sess-a", Title: "A", Votes: 3},
		Session{ID: "sess-c", Title: "C", Votes: 7},
	)
	repo.votesByUser["user-1"] = []string{"sess-c"}
	svc := NewSessionService(repo, nil, nil, nil)

	t.Run("orders by votes descending with ID tiebreak", func(t *testing.T) {
		t.Parallel()

		sessions, _, err := svc.ListSessions(context.Background(), Principal{})
		if err != nil {
			t.Fatalf("ListSessions returned error: %v", err)
		}
		if len(sessions) != 3 {
			t.Fatalf("expected 3 sessions, got %d", len(sessions))
		}
		if sessions[0].ID != "sess-c" || sessions[1].ID != "sess-a" || sessions[2].ID != "sess-b" {
			t.Fatalf("unexpected order: %v, %v, %v", sessions[0].ID, sessions[1].ID, sessions[2].ID)
		}
	})

	t.Run("includes the caller's voted IDs when authenticated", func(t *testing.T) {
		t.Parallel()

		_, votedIDs, err := svc.ListSessions(context.Background(), Principal{UserID: "user-1", Role: RoleViewer})
		if err != nil {
			t.Fatalf("ListSessions returned error: %v", err)
		}
		if len(votedIDs) != 1 || votedIDs[0] != "sess-c" {
			t.Fatalf("unexpected voted IDs %v", votedIDs)
		}
	})

	t.Run("omits voted IDs for anonymous callers", func(t *testing.T) {
		t.Parallel()

		_, votedIDs, err := svc.ListSessions(context.Background(), Principal{})
		if err != nil {
			t.Fatalf("ListSessions returned error: %v", err)
		}
		if votedIDs != nil {
			t.Fatalf("expected no voted IDs, got %v", votedIDs)
		}
	})
}

func TestSessionService_Votes(t *testing.T) {
	t.Parallel()

	voter := Principal{UserID: "user-1", Role: RoleViewer}

	t.Run("records a vote once", func(t *testing.T) {
		t.Parallel()

		repo := newSessionRepoStub(Session{ID: "sess-1", Title: "Intro"})
		svc := NewSessionService(repo, nil, nil, nil)

		if err := svc.AddVote(context.Background(), voter, "sess-1"); err != nil {
			t.Fatalf("AddVote returned error: %v", err)
		}
		if err := svc.AddVote(context.Background(), voter, "sess-1"); !errors.Is(err, ErrAlreadyVoted) {
			t.Fatalf("expected ErrAlreadyVoted, got %v", err)
		}
	})

	t.Run("voting on a missing session is ErrNotFound", func(t *testing.T) {
		t.Parallel()

		svc := NewSessionService(newSessionRepoStub(), nil, nil, nil)
		if err := svc.AddVote(context.Background(), voter, "missing"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("withdrawing an uncast vote is ErrVoteMissing", func(t *testing.T) {
		t.Parallel()

		repo := newSessionRepoStub(Session{ID: "sess-1", Title: "Intro"})
		svc := NewSessionService(repo, nil, nil, nil)

		if err := svc.RemoveVote(context.Background(), voter, "sess-1"); !errors.Is(err, ErrVoteMissing) {
			t.Fatalf("expected ErrVoteMissing, got %v", err)
		}
	})

	t.Run("withdrawing a cast vote succeeds", func(t *testing.T) {
		t.Parallel()

		repo := newSessionRepoStub(Session{ID: "sess-1", Title: "Intro"})
		svc := NewSessionService(repo, nil, nil, nil)

		if err := svc.AddVote(context.Background(), voter, "sess-1"); err != nil {
			t.Fatalf("AddVote returned error: %v", err)
		}
		if err := svc.RemoveVote(context.Background(), voter, "sess-1"); err != nil {
			t.Fatalf("RemoveVote returned error: %v", err)
		}
	})

	t.Run("rejects anonymous voters", func(t *testing.T) {
		t.Parallel()

		svc := NewSessionService(newSessionRepoStub(), nil, nil, nil)
		if err := svc.AddVote(context.Background(), Principal{}, "sess-1"); !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})
}
