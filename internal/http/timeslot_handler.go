package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/unconference-planner/internal/application"
)

type timeslotService interface {
	CreateTimeslot(ctx context.Context, params application.CreateTimeslotParams) (application.Timeslot, error)
	UpdateTimeslot(ctx context.Context, params application.UpdateTimeslotParams) (application.Timeslot, error)
	DeleteTimeslot(ctx context.Context, principal application.Principal, timeslotID string) error
	ListTimeslots(ctx context.Context) ([]application.Timeslot, error)
}

type TimeslotHandler struct {
	service   timeslotService
	responder responder
	logger    *slog.Logger
}

func NewTimeslotHandler(service timeslotService, logger *slog.Logger) *TimeslotHandler {
	base := defaultLogger(logger)
	return &TimeslotHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *TimeslotHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "TimeslotHandler", operation, attrs...)
}

func (h *TimeslotHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req timeslotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "principal_id", principal.UserID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode timeslot request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	input, err := req.toInput()
	if err != nil {
		h.log(r.Context(), "Create", "principal_id", principal.UserID, "error_kind", "bad_request").ErrorContext(r.Context(), "invalid timeslot payload", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}

	logger := h.log(r.Context(), "Create", "principal_id", principal.UserID)

	timeslot, err := h.service.CreateTimeslot(r.Context(), application.CreateTimeslotParams{
		Principal: principal,
		Input:     input,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "timeslot creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("timeslot_id", timeslot.ID).InfoContext(r.Context(), "timeslot created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, timeslotResponse{Timeslot: toTimeslotDTO(timeslot)})
}

func (h *TimeslotHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	timeslotID, ok := TimeslotIDFromContext(r.Context())
	if !ok || strings.TrimSpace(timeslotID) == "" {
		h.log(r.Context(), "Update", "error_kind", "bad_request").ErrorContext(r.Context(), "missing timeslot id for update")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidTimeslotID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req timeslotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Update", "principal_id", principal.UserID, "timeslot_id", timeslotID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode timeslot update", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	input, err := req.toInput()
	if err != nil {
		h.log(r.Context(), "Update", "principal_id", principal.UserID, "timeslot_id", timeslotID, "error_kind", "bad_request").ErrorContext(r.Context(), "invalid timeslot payload", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, err)
		return
	}

	logger := h.log(r.Context(), "Update", "principal_id", principal.UserID, "timeslot_id", timeslotID)

	timeslot, err := h.service.UpdateTimeslot(r.Context(), application.UpdateTimeslotParams{
		Principal:  principal,
		TimeslotID: timeslotID,
		Input:      input,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "timeslot update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "timeslot updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, timeslotResponse{Timeslot: toTimeslotDTO(timeslot)})
}

func (h *TimeslotHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	timeslotID, ok := TimeslotIDFromContext(r.Context())
	if !ok || strings.TrimSpace(timeslotID) == "" {
		h.log(r.Context(), "Delete", "error_kind", "bad_request").ErrorContext(r.Context(), "missing timeslot id for delete")
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidTimeslotID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Delete", "principal_id", principal.UserID, "timeslot_id", timeslotID)
	if err := h.service.DeleteTimeslot(r.Context(), principal, timeslotID); err != nil {
		logger.ErrorContext(r.Context(), "timeslot delete failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "timeslot deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *TimeslotHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	logger := h.log(r.Context(), "List")
	timeslots, err := h.service.ListTimeslots(r.Context())
	if err != nil {
		logger.ErrorContext(r.Context(), "timeslot list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("result_count", len(timeslots)).InfoContext(r.Context(), "timeslots listed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listTimeslotsResponse{Timeslots: toTimeslotDTOs(timeslots)})
}

type timeslotRequest struct {
	Start         string  `json:"start"`
	End           string  `json:"end"`
	Blocked       bool    `json:"blocked"`
	BlockedReason *string `json:"blocked_reason"`
}

func (r timeslotRequest) toInput() (application.TimeslotInput, error) {
	start, err := parseTimestamp(r.Start)
	if err != nil {
		return application.TimeslotInput{}, errors.New("start must be an RFC 3339 timestamp")
	}
	end, err := parseTimestamp(r.End)
	if err != nil {
		return application.TimeslotInput{}, errors.New("end must be an RFC 3339 timestamp")
	}
	return application.TimeslotInput{
		Start:         start,
		End:           end,
		Blocked:       r.Blocked,
		BlockedReason: r.BlockedReason,
	}, nil
}

func parseTimestamp(value string) (time.Time, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, trimmed)
}

type timeslotResponse struct {
	Timeslot timeslotDTO `json:"timeslot"`
}

type listTimeslotsResponse struct {
	Timeslots []timeslotDTO `json:"timeslots"`
}

type timeslotDTO struct {
	ID            string  `json:"id"`
	Start         string  `json:"start"`
	End           string  `json:"end"`
	Blocked       bool    `json:"blocked"`
	BlockedReason *string `json:"blocked_reason,omitempty"`
	CreatedAt     string  `json:"created_at"`
	UpdatedAt     string  `json:"updated_at"`
}

func toTimeslotDTO(timeslot application.Timeslot) timeslotDTO {
	return timeslotDTO{
		ID:            timeslot.ID,
		Start:         timeslot.Start.UTC().Format(time.RFC3339Nano),
		End:           timeslot.End.UTC().Format(time.RFC3339Nano),
		Blocked:       timeslot.Blocked,
		BlockedReason: timeslot.BlockedReason,
		CreatedAt:     timeslot.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:     timeslot.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func toTimeslotDTOs(timeslots []application.Timeslot) []timeslotDTO {
	if len(timeslots) == 0 {
		return nil
	}
	out := make([]timeslotDTO, 0, len(timeslots))
	for _, timeslot := range timeslots {
		out = append(out, toTimeslotDTO(timeslot))
	}
	return out
}
