package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/example/unconference-planner/internal/application"
	"github.com/example/unconference-planner/internal/assign"
	"github.com/example/unconference-planner/internal/config"
	httptransport "github.com/example/unconference-planner/internal/http"
	"github.com/example/unconference-planner/internal/persistence"
	"github.com/example/unconference-planner/internal/persistence/sqlite"
	"github.com/example/unconference-planner/internal/persistence/sqlite/migration"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel(cfg.Server.LogLevel)}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := sqlite.NewConnectionPool(sqlite.DefaultConfig(cfg.Database.DSN))
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := pool.Close(); cerr != nil {
			logger.Error("failed to close database", "error", cerr)
		}
	}()

	if err := migration.NewManager(pool.DB(), cfg.Database.MigrationsDir, logger).Run(ctx); err != nil {
		logger.Error("failed to apply migrations", "error", err)
		os.Exit(1)
	}

	idGenerator := uuid.NewString
	tokenGenerator := uuid.NewString
	now := time.Now

	users := &userRepositoryAdapter{repo: sqlite.NewUserRepository(pool)}
	rooms := &roomRepositoryAdapter{repo: sqlite.NewRoomRepository(pool)}
	timeslots := &timeslotRepositoryAdapter{repo: sqlite.NewTimeslotRepository(pool)}
	sessions := &sessionRepositoryAdapter{repo: sqlite.NewSessionRepository(pool)}
	authSessions := &authSessionRepositoryAdapter{repo: sqlite.NewAuthSessionRepository(pool)}
	boardRepo := &boardRepositoryAdapter{repo: sqlite.NewAssignmentRepository(pool), now: now}
	catalog := &catalogReaderAdapter{rooms: rooms, timeslots: timeslots, sessions: sessions}

	store := application.NewAssignmentStore()
	entries, err := boardRepo.ListEntries(ctx)
	if err != nil {
		logger.Error("failed to load board entries", "error", err)
		os.Exit(1)
	}
	store.Load(entries)

	assignmentService := application.NewAssignmentServiceWithLogger(store, boardRepo, catalog, logger)
	roomService := application.NewRoomServiceWithLogger(rooms, assignmentService, idGenerator, now, logger)
	timeslotService := application.NewTimeslotServiceWithLogger(timeslots, assignmentService, idGenerator, now, logger)
	sessionService := application.NewSessionServiceWithLogger(sessions, assignmentService, idGenerator, now, logger)
	userService := application.NewUserService(users, assignmentService, nil, idGenerator, now)
	authService := application.NewAuthServiceWithLogger(users, authSessions, nil, tokenGenerator, now, cfg.Auth.SessionTTL, logger)

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Auth:      httptransport.NewAuthHandler(authService, userService, logger),
		Users:     httptransport.NewUserHandler(userService, logger),
		Rooms:     httptransport.NewRoomHandler(roomService, logger),
		Timeslots: httptransport.NewTimeslotHandler(timeslotService, logger),
		Sessions:  httptransport.NewSessionHandler(sessionService, logger),
		Schedule:  httptransport.NewScheduleHandler(assignmentService, logger),
		Validator: authService,
		Logger:    logger,
		Middleware: []func(http.Handler) http.Handler{
			httptransport.RequestLogger(logger),
		},
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("planner API listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server encountered error", "error", err)
		os.Exit(1)
	}
}

func logLevel(name string) slog.Level {
	switch name {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ----------------------------- user adapter ------------------------------

type userRepositoryAdapter struct {
	repo persistence.UserRepository
}

func (a *userRepositoryAdapter) CreateUser(ctx context.Context, user application.User) (application.User, error) {
	if err := a.repo.CreateUser(ctx, toPersistenceUser(user)); err != nil {
		return application.User{}, err
	}
	stored, err := a.repo.GetUser(ctx, user.ID)
	if err != nil {
		return application.User{}, err
	}
	return toApplicationUser(stored), nil
}

func (a *userRepositoryAdapter) GetUser(ctx context.Context, id string) (application.User, error) {
	stored, err := a.repo.GetUser(ctx, id)
	if err != nil {
		return application.User{}, err
	}
	return toApplicationUser(stored), nil
}

func (a *userRepositoryAdapter) GetUserByEmail(ctx context.Context, email string) (application.User, error) {
	stored, err := a.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return application.User{}, err
	}
	return toApplicationUser(stored), nil
}

func (a *userRepositoryAdapter) UpdateUser(ctx context.Context, user application.User) (application.User, error) {
	current, err := a.repo.GetUser(ctx, user.ID)
	if err != nil {
		return application.User{}, err
	}
	record := toPersistenceUser(user)
	if record.PasswordHash == "" {
		record.PasswordHash = current.PasswordHash
	}
	if err := a.repo.UpdateUser(ctx, record); err != nil {
		return application.User{}, err
	}
	stored, err := a.repo.GetUser(ctx, user.ID)
	if err != nil {
		return application.User{}, err
	}
	return toApplicationUser(stored), nil
}

func (a *userRepositoryAdapter) DeleteUser(ctx context.Context, id string) error {
	return a.repo.DeleteUser(ctx, id)
}

func (a *userRepositoryAdapter) ListUsers(ctx context.Context) ([]application.User, error) {
	stored, err := a.repo.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]application.User, 0, len(stored))
	for _, user := range stored {
		out = append(out, toApplicationUser(user))
	}
	return out, nil
}

func toPersistenceUser(user application.User) persistence.User {
	return persistence.User{
		ID:           user.ID,
		Email:        user.Email,
		DisplayName:  user.DisplayName,
		PasswordHash: user.PasswordHash,
		Role:         string(user.Role),
		CreatedAt:    user.CreatedAt,
		UpdatedAt:    user.UpdatedAt,
	}
}

func toApplicationUser(user persistence.User) application.User {
	return application.User{
		ID:           user.ID,
		Email:        user.Email,
		DisplayName:  user.DisplayName,
		PasswordHash: user.PasswordHash,
		Role:         application.Role(user.Role),
		CreatedAt:    user.CreatedAt,
		UpdatedAt:    user.UpdatedAt,
	}
}

// ----------------------------- room adapter ------------------------------

type roomRepositoryAdapter struct {
	repo persistence.RoomRepository
}

func (a *roomRepositoryAdapter) CreateRoom(ctx context.Context, room application.Room) (application.Room, error) {
	if err := a.repo.CreateRoom(ctx, toPersistenceRoom(room)); err != nil {
		return application.Room{}, err
	}
	stored, err := a.repo.GetRoom(ctx, room.ID)
	if err != nil {
		return application.Room{}, err
	}
	return toApplicationRoom(stored), nil
}

func (a *roomRepositoryAdapter) GetRoom(ctx context.Context, id string) (application.Room, error) {
	stored, err := a.repo.GetRoom(ctx, id)
	if err != nil {
		return application.Room{}, err
	}
	return toApplicationRoom(stored), nil
}

func (a *roomRepositoryAdapter) UpdateRoom(ctx context.Context, room application.Room) (application.Room, error) {
	if err := a.repo.UpdateRoom(ctx, toPersistenceRoom(room)); err != nil {
		return application.Room{}, err
	}
	stored, err := a.repo.GetRoom(ctx, room.ID)
	if err != nil {
		return application.Room{}, err
	}
	return toApplicationRoom(stored), nil
}

func (a *roomRepositoryAdapter) DeleteRoom(ctx context.Context, id string) error {
	return a.repo.DeleteRoom(ctx, id)
}

func (a *roomRepositoryAdapter) ListRooms(ctx context.Context) ([]application.Room, error) {
	stored, err := a.repo.ListRooms(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]application.Room, 0, len(stored))
	for _, room := range stored {
		out = append(out, toApplicationRoom(room))
	}
	return out, nil
}

func toPersistenceRoom(room application.Room) persistence.Room {
	return persistence.Room{
		ID:             room.ID,
		Name:           room.Name,
		Location:       room.Location,
		AvailableSpots: room.AvailableSpots,
		CreatedAt:      room.CreatedAt,
		UpdatedAt:      room.UpdatedAt,
	}
}

func toApplicationRoom(room persistence.Room) application.Room {
	return application.Room{
		ID:             room.ID,
		Name:           room.Name,
		Location:       room.Location,
		AvailableSpots: room.AvailableSpots,
		CreatedAt:      room.CreatedAt,
		UpdatedAt:      room.UpdatedAt,
	}
}

// --------------------------- timeslot adapter ----------------------------

type timeslotRepositoryAdapter struct {
	repo persistence.TimeslotRepository
}

func (a *timeslotRepositoryAdapter) CreateTimeslot(ctx context.Context, timeslot application.Timeslot) (application.Timeslot, error) {
	if err := a.repo.CreateTimeslot(ctx, toPersistenceTimeslot(timeslot)); err != nil {
		return application.Timeslot{}, err
	}
	stored, err := a.repo.GetTimeslot(ctx, timeslot.ID)
	if err != nil {
		return application.Timeslot{}, err
	}
	return toApplicationTimeslot(stored), nil
}

func (a *timeslotRepositoryAdapter) GetTimeslot(ctx context.Context, id string) (application.Timeslot, error) {
	stored, err := a.repo.GetTimeslot(ctx, id)
	if err != nil {
		return application.Timeslot{}, err
	}
	return toApplicationTimeslot(stored), nil
}

func (a *timeslotRepositoryAdapter) UpdateTimeslot(ctx context.Context, timeslot application.Timeslot) (application.Timeslot, error) {
	if err := a.repo.UpdateTimeslot(ctx, toPersistenceTimeslot(timeslot)); err != nil {
		return application.Timeslot{}, err
	}
	stored, err := a.repo.GetTimeslot(ctx, timeslot.ID)
	if err != nil {
		return application.Timeslot{}, err
	}
	return toApplicationTimeslot(stored), nil
}

func (a *timeslotRepositoryAdapter) DeleteTimeslot(ctx context.Context, id string) error {
	return a.repo.DeleteTimeslot(ctx, id)
}

func (a *timeslotRepositoryAdapter) ListTimeslots(ctx context.Context) ([]application.Timeslot, error) {
	stored, err := a.repo.ListTimeslots(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]application.Timeslot, 0, len(stored))
	for _, timeslot := range stored {
		out = append(out, toApplicationTimeslot(timeslot))
	}
	return out, nil
}

func toPersistenceTimeslot(timeslot application.Timeslot) persistence.Timeslot {
	return persistence.Timeslot{
		ID:            timeslot.ID,
		Start:         timeslot.Start,
		End:           timeslot.End,
		Blocked:       timeslot.Blocked,
		BlockedReason: timeslot.BlockedReason,
		CreatedAt:     timeslot.CreatedAt,
		UpdatedAt:     timeslot.UpdatedAt,
	}
}

func toApplicationTimeslot(timeslot persistence.Timeslot) application.Timeslot {
	return application.Timeslot{
		ID:            timeslot.ID,
		Start:         timeslot.Start,
		End:           timeslot.End,
		Blocked:       timeslot.Blocked,
		BlockedReason: timeslot.BlockedReason,
		CreatedAt:     timeslot.CreatedAt,
		UpdatedAt:     timeslot.UpdatedAt,
	}
}

// ---------------------------- session adapter ----------------------------

type sessionRepositoryAdapter struct {
	repo persistence.SessionRepository
}

func (a *sessionRepositoryAdapter) CreateSession(ctx context.Context, session application.Session) (application.Session, error) {
	if err := a.repo.CreateSession(ctx, toPersistenceSession(session)); err != nil {
		return application.Session{}, err
	}
	stored, err := a.repo.GetSession(ctx, session.ID)
	if err != nil {
		return application.Session{}, err
	}
	return toApplicationSession(stored), nil
}

func (a *sessionRepositoryAdapter) GetSession(ctx context.Context, id string) (application.Session, error) {
	stored, err := a.repo.GetSession(ctx, id)
	if err != nil {
		return application.Session{}, err
	}
	return toApplicationSession(stored), nil
}

func (a *sessionRepositoryAdapter) UpdateSession(ctx context.Context, session application.Session) (application.Session, error) {
	if err := a.repo.UpdateSession(ctx, toPersistenceSession(session)); err != nil {
		return application.Session{}, err
	}
	stored, err := a.repo.GetSession(ctx, session.ID)
	if err != nil {
		return application.Session{}, err
	}
	return toApplicationSession(stored), nil
}

func (a *sessionRepositoryAdapter) DeleteSession(ctx context.Context, id string) error {
	return a.repo.DeleteSession(ctx, id)
}

func (a *sessionRepositoryAdapter) ListSessions(ctx context.Context) ([]application.Session, error) {
	stored, err := a.repo.ListSessions(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]application.Session, 0, len(stored))
	for _, session := range stored {
		out = append(out, toApplicationSession(session))
	}
	return out, nil
}

func (a *sessionRepositoryAdapter) AddVote(ctx context.Context, sessionID, userID string) error {
	return a.repo.AddVote(ctx, sessionID, userID)
}

func (a *sessionRepositoryAdapter) RemoveVote(ctx context.Context, sessionID, userID string) error {
	return a.repo.RemoveVote(ctx, sessionID, userID)
}

func (a *sessionRepositoryAdapter) ListVotesByUser(ctx context.Context, userID string) ([]string, error) {
	return a.repo.ListVotesByUser(ctx, userID)
}

func toPersistenceSession(session application.Session) persistence.Session {
	return persistence.Session{
		ID:        session.ID,
		Title:     session.Title,
		Body:      session.Body,
		Tag:       session.Tag,
		OwnerID:   session.OwnerID,
		CreatedAt: session.CreatedAt,
		UpdatedAt: session.UpdatedAt,
	}
}

func toApplicationSession(session persistence.Session) application.Session {
	return application.Session{
		ID:        session.ID,
		Title:     session.Title,
		Body:      session.Body,
		Tag:       session.Tag,
		OwnerID:   session.OwnerID,
		Votes:     session.Votes,
		CreatedAt: session.CreatedAt,
		UpdatedAt: session.UpdatedAt,
	}
}

// -------------------------- auth session adapter -------------------------

type authSessionRepositoryAdapter struct {
	repo persistence.AuthSessionRepository
}

func (a *authSessionRepositoryAdapter) CreateAuthSession(ctx context.Context, session application.AuthSession) (application.AuthSession, error) {
	stored, err := a.repo.CreateAuthSession(ctx, toPersistenceAuthSession(session))
	if err != nil {
		return application.AuthSession{}, err
	}
	return toApplicationAuthSession(stored), nil
}

func (a *authSessionRepositoryAdapter) GetAuthSession(ctx context.Context, token string) (application.AuthSession, error) {
	stored, err := a.repo.GetAuthSession(ctx, token)
	if err != nil {
		return application.AuthSession{}, err
	}
	return toApplicationAuthSession(stored), nil
}

func (a *authSessionRepositoryAdapter) UpdateAuthSession(ctx context.Context, session application.AuthSession) (application.AuthSession, error) {
	stored, err := a.repo.UpdateAuthSession(ctx, toPersistenceAuthSession(session))
	if err != nil {
		return application.AuthSession{}, err
	}
	return toApplicationAuthSession(stored), nil
}

func (a *authSessionRepositoryAdapter) RevokeAuthSession(ctx context.Context, token string, revokedAt time.Time) (application.AuthSession, error) {
	stored, err := a.repo.RevokeAuthSession(ctx, token, revokedAt)
	if err != nil {
		return application.AuthSession{}, err
	}
	return toApplicationAuthSession(stored), nil
}

func (a *authSessionRepositoryAdapter) DeleteExpiredAuthSessions(ctx context.Context, reference time.Time) error {
	return a.repo.DeleteExpiredAuthSessions(ctx, reference)
}

func toPersistenceAuthSession(session application.AuthSession) persistence.AuthSession {
	return persistence.AuthSession{
		ID:        session.ID,
		UserID:    session.UserID,
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
		CreatedAt: session.CreatedAt,
		UpdatedAt: session.UpdatedAt,
		RevokedAt: session.RevokedAt,
	}
}

func toApplicationAuthSession(session persistence.AuthSession) application.AuthSession {
	return application.AuthSession{
		ID:        session.ID,
		UserID:    session.UserID,
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
		CreatedAt: session.CreatedAt,
		UpdatedAt: session.UpdatedAt,
		RevokedAt: session.RevokedAt,
	}
}

// ----------------------------- board adapter -----------------------------

type boardRepositoryAdapter struct {
	repo persistence.AssignmentRepository
	now  func() time.Time
}

func (a *boardRepositoryAdapter) ListEntries(ctx context.Context) ([]assign.Entry, error) {
	stored, err := a.repo.ListEntries(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]assign.Entry, 0, len(stored))
	for _, entry := range stored {
		out = append(out, assign.Entry{
			Slot:      assign.Slot{RoomID: entry.RoomID, TimeslotID: entry.TimeslotID},
			SessionID: entry.SessionID,
		})
	}
	return out, nil
}

func (a *boardRepositoryAdapter) ReplaceEntries(ctx context.Context, entries []assign.Entry) error {
	return a.repo.ReplaceEntries(ctx, a.toPersistenceEntries(entries))
}

func (a *boardRepositoryAdapter) ApplyEntryChanges(ctx context.Context, remove []assign.Slot, add []assign.Entry) error {
	slots := make([]persistence.AssignmentSlot, 0, len(remove))
	for _, slot := range remove {
		slots = append(slots, persistence.AssignmentSlot{RoomID: slot.RoomID, TimeslotID: slot.TimeslotID})
	}
	return a.repo.ApplyEntryChanges(ctx, slots, a.toPersistenceEntries(add))
}

func (a *boardRepositoryAdapter) toPersistenceEntries(entries []assign.Entry) []persistence.AssignmentEntry {
	createdAt := a.now()
	out := make([]persistence.AssignmentEntry, 0, len(entries))
	for _, entry := range entries {
		out = append(out, persistence.AssignmentEntry{
			RoomID:     entry.Slot.RoomID,
			TimeslotID: entry.Slot.TimeslotID,
			SessionID:  entry.SessionID,
			CreatedAt:  createdAt,
		})
	}
	return out
}

// ---------------------------- catalog adapter ----------------------------

type catalogReaderAdapter struct {
	rooms     *roomRepositoryAdapter
	timeslots *timeslotRepositoryAdapter
	sessions  *sessionRepositoryAdapter
}

func (a *catalogReaderAdapter) ListRooms(ctx context.Context) ([]application.Room, error) {
	return a.rooms.ListRooms(ctx)
}

func (a *catalogReaderAdapter) ListTimeslots(ctx context.Context) ([]application.Timeslot, error) {
	return a.timeslots.ListTimeslots(ctx)
}

func (a *catalogReaderAdapter) ListSessions(ctx context.Context) ([]application.Session, error) {
	return a.sessions.ListSessions(ctx)
}
