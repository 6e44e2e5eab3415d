// Package storefront serves the public timer feed read by storefront widgets.
package storefront

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/good-yellow-bee/countdown/internal/models"
	"github.com/good-yellow-bee/countdown/internal/timers"
)

// Resolver returns the timers of a shop that are current right now.
type Resolver interface {
	CurrentTimers(ctx context.Context, shop string) ([]*models.Timer, error)
}

// Response is the public feed body.
type Response struct {
	Timers []models.PublicTimer `json:"timers"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Handler serves GET /api/timers?shop=<owner>.
type Handler struct {
	resolver     Resolver
	cacheControl string
	logger       *slog.Logger
}

// NewHandler creates a storefront handler. Successful responses may be cached
// by browsers and shared caches for maxAge.
func NewHandler(resolver Resolver, maxAge time.Duration, logger *slog.Logger) *Handler {
	if maxAge <= 0 {
		maxAge = 60 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		resolver:     resolver,
		cacheControl: fmt.Sprintf("public, max-age=%d", int(maxAge.Seconds())),
		logger:       logger,
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// Current returns the shop's current timers.
func (h *Handler) Current(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", http.MethodGet)
		w.WriteHeader(http.StatusNoContent)
		return
	}

	shop := strings.TrimSpace(r.URL.Query().Get("shop"))
	if shop == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Shop parameter is required"})
		return
	}

	current, err := h.resolver.CurrentTimers(r.Context(), shop)
	if err != nil {
		if timers.IsValidation(err) {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Shop parameter is required"})
			return
		}
		h.logger.Error("fetch current timers", "shop", shop, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Failed to fetch timers"})
		return
	}

	resp := Response{Timers: make([]models.PublicTimer, 0, len(current))}
	for _, t := range current {
		resp.Timers = append(resp.Timers, t.Public())
	}

	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", http.MethodGet)
	w.Header().Set("Cache-Control", h.cacheControl)
	writeJSON(w, http.StatusOK, resp)
}
