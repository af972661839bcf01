package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/example/unconference-planner/internal/persistence"
)

// TimeslotRepository captures the persistence operations needed by the service.
type TimeslotRepository interface {
	CreateTimeslot(ctx context.Context, timeslot Timeslot) (Timeslot, error)
	GetTimeslot(ctx context.Context, id string) (Timeslot, error)
	UpdateTimeslot(ctx context.Context, timeslot Timeslot) (Timeslot, error)
	DeleteTimeslot(ctx context.Context, id string) error
	ListTimeslots(ctx context.Context) ([]Timeslot, error)
}

// TimeslotService orchestrates validation, authorization, and persistence
// for timeslots. Blocking or deleting a timeslot cascades the board entries
// scheduled in it.
type TimeslotService struct {
	timeslots   TimeslotRepository
	board       CatalogNotifier
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewTimeslotService constructs a timeslot service with the provided dependencies.
func NewTimeslotService(timeslots TimeslotRepository, board CatalogNotifier, idGenerator func() string, now func() time.Time) *TimeslotService {
	return NewTimeslotServiceWithLogger(timeslots, board, idGenerator, now, nil)
}

// NewTimeslotServiceWithLogger constructs a timeslot service with a specified logger.
func NewTimeslotServiceWithLogger(timeslots TimeslotRepository, board CatalogNotifier, idGenerator func() string, now func() time.Time, logger *slog.Logger) *TimeslotService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &TimeslotService{timeslots: timeslots, board: board, idGenerator: idGenerator, now: now, logger: defaultLogger(logger)}
}

func (s *TimeslotService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "TimeslotService", operation, attrs...)
}

// CreateTimeslot validates input and persists a new timeslot for administrators.
func (s *TimeslotService) CreateTimeslot(ctx context.Context, params CreateTimeslotParams) (timeslot Timeslot, err error) {
	if s == nil {
		err = fmt.Errorf("TimeslotService is nil")
		return
	}

	logger := s.loggerWith(ctx, "CreateTimeslot",
		"principal_id", params.Principal.UserID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create timeslot", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("timeslot_id", timeslot.ID, "blocked", timeslot.Blocked).InfoContext(ctx, "timeslot created")
	}()

	if !params.Principal.Role.IsAdmin() {
		err = ErrUnauthorized
		return
	}

	vErr := validateTimeslotInput(params.Input)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	timeslot = Timeslot{
		ID:        s.idGenerator(),
		Start:     params.Input.Start,
		End:       params.Input.End,
		Blocked:   params.Input.Blocked,
		CreatedAt: s.now(),
	}
	timeslot.UpdatedAt = timeslot.CreatedAt
	if params.Input.Blocked {
		timeslot.BlockedReason = normalizeOptionalString(params.Input.BlockedReason)
	}

	if s.timeslots == nil {
		err = fmt.Errorf("timeslot repository not configured")
		return
	}

	create := func(ctx context.Context) error {
		persisted, createErr := s.timeslots.CreateTimeslot(ctx, timeslot)
		if createErr != nil {
			return mapTimeslotRepoError(createErr)
		}
		timeslot = persisted
		return nil
	}
	err = s.syncBoard(ctx, create)
	return
}

// UpdateTimeslot validates input and updates an existing timeslot for
// administrators. Marking a timeslot blocked removes every board entry in
// it as part of the same step, so the board never references a blocked
// slot. Unblocking clears the reason.
func (s *TimeslotService) UpdateTimeslot(ctx context.Context, params UpdateTimeslotParams) (timeslot Timeslot, err error) {
	if s == nil {
		err = fmt.Errorf("TimeslotService is nil")
		return
	}
	if !params.Principal.Role.IsAdmin() {
		err = ErrUnauthorized
		return
	}
	if s.timeslots == nil {
		err = fmt.Errorf("timeslot repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "UpdateTimeslot",
		"principal_id", params.Principal.UserID,
		"timeslot_id", params.TimeslotID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update timeslot", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("timeslot_id", timeslot.ID, "blocked", timeslot.Blocked).InfoContext(ctx, "timeslot updated")
	}()

	var existing Timeslot
	existing, err = s.timeslots.GetTimeslot(ctx, params.TimeslotID)
	if err != nil {
		err = mapTimeslotRepoError(err)
		return
	}

	vErr := validateTimeslotInput(params.Input)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	updated := existing
	updated.Start = params.Input.Start
	updated.End = params.Input.End
	updated.Blocked = params.Input.Blocked
	updated.BlockedReason = nil
	if params.Input.Blocked {
		updated.BlockedReason = normalizeOptionalString(params.Input.BlockedReason)
	}
	updated.UpdatedAt = s.now()

	update := func(ctx context.Context) error {
		persisted, updateErr := s.timeslots.UpdateTimeslot(ctx, updated)
		if updateErr != nil {
			return mapTimeslotRepoError(updateErr)
		}
		timeslot = persisted
		return nil
	}
	err = s.syncBoard(ctx, update)
	return
}

// DeleteTimeslot removes an existing timeslot when requested by an
// administrator. Board entries in that timeslot are cascaded away in the
// same step.
func (s *TimeslotService) DeleteTimeslot(ctx context.Context, principal Principal, timeslotID string) error {
	if s == nil {
		return fmt.Errorf("TimeslotService is nil")
	}
	if !principal.Role.IsAdmin() {
		return ErrUnauthorized
	}
	if s.timeslots == nil {
		return fmt.Errorf("timeslot repository not configured")
	}

	logger := s.loggerWith(ctx, "DeleteTimeslot",
		"principal_id", principal.UserID,
		"timeslot_id", timeslotID,
	)

	err := s.syncBoard(ctx, func(ctx context.Context) error {
		if deleteErr := s.timeslots.DeleteTimeslot(ctx, timeslotID); deleteErr != nil {
			return mapTimeslotRepoError(deleteErr)
		}
		return nil
	})
	if err != nil {
		logger.ErrorContext(ctx, "failed to delete timeslot", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	logger.InfoContext(ctx, "timeslot deleted")
	return nil
}

// ListTimeslots returns the timeslot catalog ordered by start time. Anyone
// may read it.
func (s *TimeslotService) ListTimeslots(ctx context.Context) (timeslots []Timeslot, err error) {
	if s == nil {
		err = fmt.Errorf("TimeslotService is nil")
		return
	}
	if s.timeslots == nil {
		return nil, nil
	}

	logger := s.loggerWith(ctx, "ListTimeslots")
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to list timeslots", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("result_count", len(timeslots)).InfoContext(ctx, "timeslots listed")
	}()

	var raw []Timeslot
	raw, err = s.timeslots.ListTimeslots(ctx)
	if err != nil {
		return
	}

	timeslots = make([]Timeslot, len(raw))
	copy(timeslots, raw)

	sort.Slice(timeslots, func(i, j int) bool {
		if !timeslots[i].Start.Equal(timeslots[j].Start) {
			return timeslots[i].Start.Before(timeslots[j].Start)
		}
		return timeslots[i].ID < timeslots[j].ID
	})

	return
}

func (s *TimeslotService) syncBoard(ctx context.Context, mutate func(ctx context.Context) error) error {
	if s.board == nil {
		return mutate(ctx)
	}
	return s.board.CatalogChanged(ctx, mutate)
}

func validateTimeslotInput(input TimeslotInput) *ValidationError {
	vErr := &ValidationError{}

	if input.Start.IsZero() {
		vErr.Add("start", "start is required")
	}
	if input.End.IsZero() {
		vErr.Add("end", "end is required")
	}
	if !input.Start.IsZero() && !input.End.IsZero() && !input.Start.Before(input.End) {
		vErr.Add("end", "start must be before end")
	}
	if input.Blocked && normalizeOptionalString(input.BlockedReason) == nil {
		vErr.Add("blocked_reason", "blocked timeslots require a reason")
	}

	return vErr
}

func mapTimeslotRepoError(err error) error {
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
	if errors.Is(err, persistence.ErrConstraintViolation) {
		vErr := &ValidationError{}
		vErr.Add("blocked_reason", "blocked timeslots require a reason")
		return vErr
	}
	return err
}
