// Package timers exposes the administrative timer API. Every operation is
// scoped to the shop named in the caller's token.
package timers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/good-yellow-bee/countdown/internal/api/middleware"
	"github.com/good-yellow-bee/countdown/internal/models"
	timersvc "github.com/good-yellow-bee/countdown/internal/timers"
)

// Response helpers (same envelope as the rest of the API)
type errorResponse struct {
	Error errorBody `json:"error"`
}
type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
type dataResponse struct {
	Data any `json:"data"`
}

const (
	errCodeBadRequest       = "BAD_REQUEST"
	errCodeValidationFailed = "VALIDATION_FAILED"
	errCodeNotFound         = "NOT_FOUND"
	errCodeUnauthorized     = "UNAUTHORIZED"
	errCodeInternalError    = "INTERNAL_ERROR"
)

const maxBodyBytes = 64 << 10

func jsonError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorResponse{Error: errorBody{Code: code, Message: message}})
}

func jsonOK(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(dataResponse{Data: data})
}

func jsonCreated(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(dataResponse{Data: data})
}

func jsonNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// TimerResponse is the administrative view of a timer, including its derived
// lifecycle status.
type TimerResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	StartDate   string `json:"startDate"`
	StartTime   string `json:"startTime"`
	EndDate     string `json:"endDate"`
	EndTime     string `json:"endTime"`
	Size        string `json:"size"`
	Position    string `json:"position"`
	Urgency     string `json:"urgency"`
	Color       string `json:"color"`
	IsActive    bool   `json:"isActive"`
	Status      string `json:"status"`
	CreatedAt   string `json:"createdAt"`
	UpdatedAt   string `json:"updatedAt"`
}

// SetActiveRequest toggles the kill switch.
type SetActiveRequest struct {
	Active *bool `json:"active"`
}

type Handler struct {
	service *timersvc.Service
	logger  *slog.Logger
}

func NewHandler(service *timersvc.Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{service: service, logger: logger}
}

func (h *Handler) toResponse(t *models.Timer, now time.Time) *TimerResponse {
	return &TimerResponse{
		ID:          t.ID,
		Name:        t.Name,
		Description: t.Description,
		StartDate:   t.StartDate,
		StartTime:   t.StartTime,
		EndDate:     t.EndDate,
		EndTime:     t.EndTime,
		Size:        string(t.Size),
		Position:    string(t.Position),
		Urgency:     string(t.Urgency),
		Color:       t.Color,
		IsActive:    t.IsActive,
		Status:      string(t.Status(now, h.service.Location())),
		CreatedAt:   t.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   t.UpdatedAt.Format(time.RFC3339),
	}
}

func (h *Handler) toResponses(list []*models.Timer) []*TimerResponse {
	now := h.service.Now()
	resp := make([]*TimerResponse, len(list))
	for i, t := range list {
		resp[i] = h.toResponse(t, now)
	}
	return resp
}

// writeServiceError maps service error kinds onto status codes. Storage
// causes are logged and replaced by a generic message.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	var ve *timersvc.ValidationError
	switch {
	case errors.As(err, &ve):
		jsonError(w, http.StatusBadRequest, errCodeValidationFailed, ve.Error())
	case timersvc.IsNotFound(err):
		jsonError(w, http.StatusNotFound, errCodeNotFound, "timer not found")
	default:
		h.logger.Error(op,
			"shop", middleware.GetShop(r.Context()),
			"request_id", middleware.GetRequestID(r.Context()),
			"error", err,
		)
		jsonError(w, http.StatusInternalServerError, errCodeInternalError, "internal server error")
	}
}

// shop returns the authenticated shop or writes 401.
func shop(w http.ResponseWriter, r *http.Request) (string, bool) {
	s := middleware.GetShop(r.Context())
	if s == "" {
		jsonError(w, http.StatusUnauthorized, errCodeUnauthorized, "missing shop claim")
		return "", false
	}
	return s, true
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		jsonError(w, http.StatusBadRequest, errCodeBadRequest, "invalid request body")
		return false
	}
	return true
}

// List returns the shop's timers, newest first. ?active=true limits the list
// to enabled timers regardless of their window.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	s, ok := shop(w, r)
	if !ok {
		return
	}

	var (
		list []*models.Timer
		err  error
	)
	if strings.EqualFold(r.URL.Query().Get("active"), "true") {
		list, err = h.service.ListActiveByShop(r.Context(), s)
	} else {
		list, err = h.service.ListByShop(r.Context(), s)
	}
	if err != nil {
		h.writeServiceError(w, r, "list timers", err)
		return
	}
	jsonOK(w, h.toResponses(list))
}

// Current previews what the storefront would show right now.
func (h *Handler) Current(w http.ResponseWriter, r *http.Request) {
	s, ok := shop(w, r)
	if !ok {
		return
	}

	list, err := h.service.CurrentTimers(r.Context(), s)
	if err != nil {
		h.writeServiceError(w, r, "current timers", err)
		return
	}
	jsonOK(w, h.toResponses(list))
}

// Create creates a timer.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	s, ok := shop(w, r)
	if !ok {
		return
	}

	var req timersvc.TimerInput
	if !decode(w, r, &req) {
		return
	}

	timer, err := h.service.Create(r.Context(), s, req)
	if err != nil {
		h.writeServiceError(w, r, "create timer", err)
		return
	}

	h.logger.Info("timer created", "shop", s, "id", timer.ID, "name", timer.Name)
	jsonCreated(w, h.toResponse(timer, h.service.Now()))
}

// GetByID returns one timer.
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	s, ok := shop(w, r)
	if !ok {
		return
	}

	timer, err := h.service.Get(r.Context(), s, chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, "get timer", err)
		return
	}
	jsonOK(w, h.toResponse(timer, h.service.Now()))
}

// Update replaces a timer.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	s, ok := shop(w, r)
	if !ok {
		return
	}

	var req timersvc.TimerInput
	if !decode(w, r, &req) {
		return
	}

	timer, err := h.service.Update(r.Context(), s, chi.URLParam(r, "id"), req)
	if err != nil {
		h.writeServiceError(w, r, "update timer", err)
		return
	}

	h.logger.Info("timer updated", "shop", s, "id", timer.ID)
	jsonOK(w, h.toResponse(timer, h.service.Now()))
}

// SetActive enables or disables a timer.
func (h *Handler) SetActive(w http.ResponseWriter, r *http.Request) {
	s, ok := shop(w, r)
	if !ok {
		return
	}

	var req SetActiveRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Active == nil {
		jsonError(w, http.StatusBadRequest, errCodeValidationFailed, "active: is required")
		return
	}

	timer, err := h.service.SetActive(r.Context(), s, chi.URLParam(r, "id"), *req.Active)
	if err != nil {
		h.writeServiceError(w, r, "set timer active", err)
		return
	}

	h.logger.Info("timer toggled", "shop", s, "id", timer.ID, "active", timer.IsActive)
	jsonOK(w, h.toResponse(timer, h.service.Now()))
}

// Delete removes a timer. Deleting a missing timer also answers 204.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	s, ok := shop(w, r)
	if !ok {
		return
	}

	id := chi.URLParam(r, "id")
	deleted, err := h.service.Delete(r.Context(), s, id)
	if err != nil {
		h.writeServiceError(w, r, "delete timer", err)
		return
	}
	if deleted {
		h.logger.Info("timer deleted", "shop", s, "id", id)
	}
	jsonNoContent(w)
}
