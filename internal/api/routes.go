package api

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/trogers1052/trading-journal/internal/logging"
)

// SetupRoutes configures all API routes
func SetupRoutes(handler *Handler) *mux.Router {
	r := mux.NewRouter()
	r.Use(requestLogger(handler.logger))

	// Health check
	r.HandleFunc("/health", handler.HealthCheck).Methods("GET")

	api := r.PathPrefix("/api/v1").Subrouter()

	// Accounts
	api.HandleFunc("/accounts", handler.GetAccounts).Methods("GET")
	api.HandleFunc("/accounts/{account}/positions", handler.GetPositions).Methods("GET")

	// Trades
	api.HandleFunc("/trades", handler.GetTrades).Methods("GET")
	api.HandleFunc("/trades", handler.CreateTrade).Methods("POST")
	api.HandleFunc("/trades/{id}", handler.GetTrade).Methods("GET")
	api.HandleFunc("/trades/{id}/close", handler.CloseTrade).Methods("POST")
	api.HandleFunc("/trades/{id}/mark", handler.UpdateMark).Methods("PUT")

	// AI intake
	api.HandleFunc("/intake", handler.Intake).Methods("POST")

	// Analytics
	api.HandleFunc("/analytics/accounts", handler.AccountAnalytics).Methods("GET")
	api.HandleFunc("/analytics/sources", handler.SourceAnalytics).Methods("GET")
	api.HandleFunc("/analytics/summary", handler.SummaryAnalytics).Methods("GET")

	// Read-only documents
	api.HandleFunc("/settings", handler.GetSettings).Methods("GET")
	api.HandleFunc("/watchlist", handler.GetWatchlist).Methods("GET")
	api.HandleFunc("/circuit-breaker", handler.GetCircuitBreaker).Methods("GET")

	return r
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func requestLogger(logger zerolog.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			reqLog := logger.With().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Logger()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r.WithContext(logging.WithLogger(r.Context(), reqLog)))
			reqLog.Debug().
				Int("status", rec.status).
				Dur("duration", time.Since(start)).
				Msg("HTTP request")
		})
	}
}
