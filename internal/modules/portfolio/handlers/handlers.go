// Package handlers provides HTTP handlers for portfolio management.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/dkaratzas/portfoliodb/internal/domain"
	"github.com/dkaratzas/portfoliodb/internal/modules/portfolio"
)

// Handler handles portfolio HTTP requests
type Handler struct {
	portfolios *portfolio.Repository
	log        zerolog.Logger
}

// NewHandler creates a new portfolio handler
func NewHandler(portfolios *portfolio.Repository, log zerolog.Logger) *Handler {
	return &Handler{
		portfolios: portfolios,
		log:        log.With().Str("handler", "portfolio").Logger(),
	}
}

// CreateRequest represents a request to create a portfolio
type CreateRequest struct {
	Name string `json:"name"`
}

// HandleList handles GET /api/portfolios
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	portfolios, err := h.portfolios.List()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list portfolios")
		http.Error(w, "Failed to list portfolios", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"portfolios": portfolios,
		"count":      len(portfolios),
	})
}

// HandleCreate handles POST /api/portfolios
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Name == "" {
		http.Error(w, "name is required", http.StatusBadRequest)
		return
	}

	p, err := h.portfolios.Create(req.Name)
	if err != nil {
		if errors.Is(err, domain.ErrIntegrityViolation) {
			http.Error(w, "portfolio name already exists", http.StatusConflict)
			return
		}
		h.log.Error().Err(err).Str("name", req.Name).Msg("Failed to create portfolio")
		http.Error(w, "Failed to create portfolio", http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusCreated, p)
}

// HandleGet handles GET /api/portfolios/{name}
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	p, err := h.portfolios.GetByName(name)
	if err != nil {
		h.log.Error().Err(err).Str("name", name).Msg("Failed to get portfolio")
		http.Error(w, "Failed to get portfolio", http.StatusInternalServerError)
		return
	}
	if p == nil {
		http.Error(w, "portfolio not found", http.StatusNotFound)
		return
	}

	h.writeJSON(w, http.StatusOK, p)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
