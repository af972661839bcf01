package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/unconference-planner/internal/application"
	"github.com/example/unconference-planner/internal/assign"
)

type scheduleService interface {
	Board(ctx context.Context) (application.Board, error)
	Generate(ctx context.Context, principal application.Principal) (application.Board, error)
	Clear(ctx context.Context, principal application.Principal) (application.Board, error)
	Move(ctx context.Context, params application.MoveParams) (application.MoveResult, error)
	Swap(ctx context.Context, params application.SwapParams) (application.MoveResult, error)
	PlaceSession(ctx context.Context, principal application.Principal, sessionID string) (application.MoveResult, error)
	UnplaceSession(ctx context.Context, principal application.Principal, sessionID string) (application.MoveResult, error)
}

type ScheduleHandler struct {
	service   scheduleService
	responder responder
	logger    *slog.Logger
}

func NewScheduleHandler(service scheduleService, logger *slog.Logger) *ScheduleHandler {
	base := defaultLogger(logger)
	return &ScheduleHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *ScheduleHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "ScheduleHandler", operation, attrs...)
}

// Board returns the current schedule board snapshot. Anyone may read it.
func (h *ScheduleHandler) Board(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	logger := h.log(r.Context(), "Board")

	board, err := h.service.Board(r.Context())
	if err != nil {
		logger.ErrorContext(r.Context(), "board read failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toBoardDTO(board))
}

// Generate recomputes the whole board from the current catalogs.
func (h *ScheduleHandler) Generate(w http.ResponseWriter, r *http.Request) {
	h.regenerate(w, r, "Generate")
}

// Clear empties the board.
func (h *ScheduleHandler) Clear(w http.ResponseWriter, r *http.Request) {
	h.regenerate(w, r, "Clear")
}

func (h *ScheduleHandler) regenerate(w http.ResponseWriter, r *http.Request, operation string) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), operation, "principal_id", principal.UserID)

	var (
		board application.Board
		err   error
	)
	if operation == "Clear" {
		board, err = h.service.Clear(r.Context(), principal)
	} else {
		board, err = h.service.Generate(r.Context(), principal)
	}
	if err != nil {
		logger.ErrorContext(r.Context(), "board rebuild failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("entry_count", len(board.Entries), "version", board.Version).InfoContext(r.Context(), "board rebuilt")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toBoardDTO(board))
}

// Move relocates the session occupying one slot into another. A move onto an
// occupied slot becomes a swap.
func (h *ScheduleHandler) Move(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req moveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Move", "principal_id", principal.UserID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode move request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Move",
		"principal_id", principal.UserID,
		"from_room", req.From.RoomID,
		"from_timeslot", req.From.TimeslotID,
		"to_room", req.To.RoomID,
		"to_timeslot", req.To.TimeslotID,
	)

	result, err := h.service.Move(r.Context(), application.MoveParams{
		Principal:       principal,
		From:            req.From.toSlot(),
		To:              req.To.toSlot(),
		ExpectedVersion: req.ExpectedVersion,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "move failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("version", result.Version).InfoContext(r.Context(), "session moved")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toMoveResultDTO(result))
}

// Swap exchanges the sessions occupying two slots.
func (h *ScheduleHandler) Swap(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req swapRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Swap", "principal_id", principal.UserID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode swap request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Swap",
		"principal_id", principal.UserID,
		"slot_a_room", req.SlotA.RoomID,
		"slot_a_timeslot", req.SlotA.TimeslotID,
		"slot_b_room", req.SlotB.RoomID,
		"slot_b_timeslot", req.SlotB.TimeslotID,
	)

	result, err := h.service.Swap(r.Context(), application.SwapParams{
		Principal:       principal,
		SlotA:           req.SlotA.toSlot(),
		SlotB:           req.SlotB.toSlot(),
		ExpectedVersion: req.ExpectedVersion,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "swap failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("version", result.Version).InfoContext(r.Context(), "sessions swapped")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toMoveResultDTO(result))
}

// PlaceSession drops a session onto the first free eligible slot.
func (h *ScheduleHandler) PlaceSession(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req placeSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "PlaceSession", "principal_id", principal.UserID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode placement request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	sessionID := strings.TrimSpace(req.SessionID)
	if sessionID == "" {
		h.log(r.Context(), "PlaceSession", "principal_id", principal.UserID, "error_kind", "bad_request").ErrorContext(r.Context(), "missing session id for placement")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidSessionID)
		return
	}

	logger := h.log(r.Context(), "PlaceSession", "principal_id", principal.UserID, "session_id", sessionID)

	result, err := h.service.PlaceSession(r.Context(), principal, sessionID)
	if err != nil {
		logger.ErrorContext(r.Context(), "session placement failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("version", result.Version).InfoContext(r.Context(), "session placed")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toMoveResultDTO(result))
}

// UnplaceSession removes a session from the board without deleting the proposal.
func (h *ScheduleHandler) UnplaceSession(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	sessionID, ok := SessionIDFromContext(r.Context())
	if !ok || strings.TrimSpace(sessionID) == "" {
		h.log(r.Context(), "UnplaceSession", "error_kind", "bad_request").ErrorContext(r.Context(), "missing session id for removal")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidSessionID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "UnplaceSession", "principal_id", principal.UserID, "session_id", sessionID)

	result, err := h.service.UnplaceSession(r.Context(), principal, sessionID)
	if err != nil {
		logger.ErrorContext(r.Context(), "session removal failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("version", result.Version).InfoContext(r.Context(), "session removed from board")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toMoveResultDTO(result))
}

type slotDTO struct {
	RoomID     string `json:"roomId"`
	TimeslotID string `json:"timeslotId"`
}

func (s slotDTO) toSlot() assign.Slot {
	return assign.Slot{
		RoomID:     strings.TrimSpace(s.RoomID),
		TimeslotID: strings.TrimSpace(s.TimeslotID),
	}
}

type moveRequest struct {
	From            slotDTO `json:"from"`
	To              slotDTO `json:"to"`
	ExpectedVersion uint64  `json:"expectedVersion"`
}

type swapRequest struct {
	SlotA           slotDTO `json:"slotA"`
	SlotB           slotDTO `json:"slotB"`
	ExpectedVersion uint64  `json:"expectedVersion"`
}

type placeSessionRequest struct {
	SessionID string `json:"sessionId"`
}

type boardEntryDTO struct {
	Slot      slotDTO `json:"slot"`
	SessionID string  `json:"sessionId"`
}

type boardDTO struct {
	Entries []boardEntryDTO `json:"entries"`
	Version uint64          `json:"version"`
}

func toBoardDTO(board application.Board) boardDTO {
	entries := make([]boardEntryDTO, 0, len(board.Entries))
	for _, entry := range board.Entries {
		entries = append(entries, boardEntryDTO{
			Slot:      slotDTO{RoomID: entry.Slot.RoomID, TimeslotID: entry.Slot.TimeslotID},
			SessionID: entry.SessionID,
		})
	}
	return boardDTO{Entries: entries, Version: board.Version}
}

type slotStateDTO struct {
	Slot      slotDTO `json:"slot"`
	SessionID string  `json:"sessionId,omitempty"`
}

type moveResultDTO struct {
	Slots   []slotStateDTO `json:"slots"`
	Version uint64         `json:"version"`
}

func toMoveResultDTO(result application.MoveResult) moveResultDTO {
	slots := make([]slotStateDTO, 0, len(result.Slots))
	for _, state := range result.Slots {
		slots = append(slots, slotStateDTO{
			Slot:      slotDTO{RoomID: state.Slot.RoomID, TimeslotID: state.Slot.TimeslotID},
			SessionID: state.SessionID,
		})
	}
	return moveResultDTO{Slots: slots, Version: result.Version}
}
