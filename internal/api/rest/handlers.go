package rest

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/clintrovert/linsync/internal/syncer"
)

// Engine is the subset of the sync engine the REST surface exposes.
type Engine interface {
	SyncIssues(ctx context.Context, tokens []string, stateName string) (*syncer.Summary, error)
	Verify(ctx context.Context, tokens []string, expected string) (*syncer.VerificationReport, error)
}

// Handler handles REST API requests
type Handler struct {
	engine Engine
	logger *zap.Logger
}

// NewHandler creates a new REST handler
func NewHandler(engine Engine, logger *zap.Logger) *Handler {
	return &Handler{
		engine: engine,
		logger: logger,
	}
}

// SyncRequest represents a request to run a sync batch
type SyncRequest struct {
	Issues []string `json:"issues"`
	State  string   `json:"state"`
}

// VerifyRequest represents a request to run a verification pass
type VerifyRequest struct {
	Issues        []string `json:"issues"`
	ExpectedState string   `json:"expected_state"`
}

// Sync handles POST /sync
func (h *Handler) Sync(w http.ResponseWriter, r *http.Request) {
	var req SyncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if len(req.Issues) == 0 || req.State == "" {
		http.Error(w, "issues and state are required", http.StatusBadRequest)
		return
	}

	summary, err := h.engine.SyncIssues(r.Context(), req.Issues, req.State)
	if err != nil {
		h.logger.Error("sync request failed", zap.Error(err))
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	writeJSON(w, summary)
}

// Verify handles POST /verify
func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	var req VerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if len(req.Issues) == 0 || req.ExpectedState == "" {
		http.Error(w, "issues and expected_state are required", http.StatusBadRequest)
		return
	}

	report, err := h.engine.Verify(r.Context(), req.Issues, req.ExpectedState)
	if err != nil {
		h.logger.Error("verify request failed", zap.Error(err))
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	writeJSON(w, report)
}

// RegisterRoutes registers REST API routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/sync", h.Sync)
	r.Post("/verify", h.Verify)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
