package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/trogers1052/trading-journal/internal/intake"
	"github.com/trogers1052/trading-journal/internal/journal"
	"github.com/trogers1052/trading-journal/internal/logging"
	"github.com/trogers1052/trading-journal/internal/models"
	"github.com/trogers1052/trading-journal/internal/trade"
)

// Handler holds dependencies for HTTP handlers
type Handler struct {
	journal *journal.Service
	logger  zerolog.Logger
}

// NewHandler creates a new Handler
func NewHandler(svc *journal.Service, logger zerolog.Logger) *Handler {
	return &Handler{
		journal: svc,
		logger:  logger,
	}
}

// GetAccounts handles GET /accounts
func (h *Handler) GetAccounts(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.journal.Valuations())
}

// GetPositions handles GET /accounts/{account}/positions
func (h *Handler) GetPositions(w http.ResponseWriter, r *http.Request) {
	positions, err := h.journal.OpenPositions(mux.Vars(r)["account"])
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, positions)
}

// GetTrades handles GET /trades?status=active|closed
func (h *Handler) GetTrades(w http.ResponseWriter, r *http.Request) {
	trades, err := h.journal.Trades(r.URL.Query().Get("status"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, trades)
}

// GetTrade handles GET /trades/{id}
func (h *Handler) GetTrade(w http.ResponseWriter, r *http.Request) {
	t, err := h.journal.Trade(mux.Vars(r)["id"])
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, t)
}

// CreateTrade handles POST /trades
func (h *Handler) CreateTrade(w http.ResponseWriter, r *http.Request) {
	var in models.TradeInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	t, flags, err := h.journal.CreateTrade(r.Context(), in)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]interface{}{
		"trade": t,
		"flags": flags,
	})
}

// CloseTrade handles POST /trades/{id}/close
func (h *Handler) CloseTrade(w http.ResponseWriter, r *http.Request) {
	var exit models.ExitInput
	if err := json.NewDecoder(r.Body).Decode(&exit); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	t, err := h.journal.CloseTrade(r.Context(), mux.Vars(r)["id"], exit)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, t)
}

// UpdateMark handles PUT /trades/{id}/mark
func (h *Handler) UpdateMark(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Price models.LooseDecimal `json:"price"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if !req.Price.Valid {
		h.respondError(w, r, trade.NewValidationError("price", nil, "is required and must be numeric"))
		return
	}

	t, err := h.journal.UpdateMark(r.Context(), mux.Vars(r)["id"], req.Price.Value)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, t)
}

// Intake handles POST /intake
func (h *Handler) Intake(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID string `json:"sessionId"`
		Text      string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.SessionID == "" {
		req.SessionID = r.Header.Get("X-Intake-Session")
	}

	draft, err := h.journal.Propose(r.Context(), req.SessionID, req.Text)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, draft)
}

// AccountAnalytics handles GET /analytics/accounts
func (h *Handler) AccountAnalytics(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.journal.AnalyticsByAccount())
}

// SourceAnalytics handles GET /analytics/sources
func (h *Handler) SourceAnalytics(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.journal.AnalyticsBySource())
}

// SummaryAnalytics handles GET /analytics/summary
func (h *Handler) SummaryAnalytics(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.journal.Summary())
}

// GetSettings handles GET /settings
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.journal.Settings())
}

// GetWatchlist handles GET /watchlist
func (h *Handler) GetWatchlist(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.journal.Watchlist())
}

// GetCircuitBreaker handles GET /circuit-breaker
func (h *Handler) GetCircuitBreaker(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.journal.CircuitBreaker())
}

// HealthCheck handles GET /health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// statusClientClosedRequest is the nginx convention for a request the caller abandoned
const statusClientClosedRequest = 499

// respondError maps domain errors onto status codes
func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	body := map[string]interface{}{"error": err.Error()}

	var perr *journal.PolicyError
	var ve *trade.ValidationError
	switch {
	case errors.As(err, &ve):
		status = http.StatusBadRequest
		body["field"] = ve.Field
	case errors.Is(err, trade.ErrTradeNotFound), errors.Is(err, journal.ErrUnknownAccount):
		status = http.StatusNotFound
	case errors.As(err, &perr):
		status = http.StatusConflict
		body["violations"] = perr.Violations
	case errors.Is(err, trade.ErrAlreadyClosed), errors.Is(err, intake.ErrIntakeInFlight):
		status = http.StatusConflict
	case errors.Is(err, intake.ErrIntakeFailure):
		status = http.StatusBadGateway
		body["kind"] = intake.KindOf(err)
	case errors.Is(err, context.Canceled):
		status = statusClientClosedRequest
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	}

	log := logging.FromContext(r.Context())
	switch status {
	case http.StatusInternalServerError:
		log.Error().Err(err).Msg("Request failed")
	case statusClientClosedRequest:
		log.Debug().Err(err).Msg("Request abandoned by client")
	}
	respondJSON(w, status, body)
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
