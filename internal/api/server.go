// Package api exposes the booking flow and the operator view over a small
// JSON HTTP API. Both view modes are served without access control; the
// deployment is a single-operator local tool.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/LikkleOra/TrimTime/internal/config"
	"github.com/LikkleOra/TrimTime/internal/flow"
	"github.com/LikkleOra/TrimTime/internal/operator"
	"github.com/LikkleOra/TrimTime/internal/store"
)

// HTTPServer handles the booking API.
type HTTPServer struct {
	sessions *flow.Sessions
	view     *operator.View
	store    *store.Store
	catalog  *config.ServicesConfig
	logger   *zerolog.Logger
	mux      *http.ServeMux
}

// NewHTTPServer wires the routes.
func NewHTTPServer(sessions *flow.Sessions, view *operator.View, st *store.Store, catalog *config.ServicesConfig, logger *zerolog.Logger) *HTTPServer {
	s := &HTTPServer{
		sessions: sessions,
		view:     view,
		store:    st,
		catalog:  catalog,
		logger:   logger,
		mux:      http.NewServeMux(),
	}

	s.mux.HandleFunc("POST /api/v1/flow", s.handleStartFlow)
	s.mux.HandleFunc("GET /api/v1/flow/{sid}", s.handleFlowState)
	s.mux.HandleFunc("POST /api/v1/flow/{sid}/service", s.handleSelectService)
	s.mux.HandleFunc("POST /api/v1/flow/{sid}/date", s.handleShiftDate)
	s.mux.HandleFunc("POST /api/v1/flow/{sid}/time", s.handleSelectTime)
	s.mux.HandleFunc("POST /api/v1/flow/{sid}/details", s.handleDetails)
	s.mux.HandleFunc("POST /api/v1/flow/{sid}/confirm", s.handleConfirm)
	s.mux.HandleFunc("POST /api/v1/flow/{sid}/back", s.handleBack)

	s.mux.HandleFunc("GET /api/v1/operator/today", s.handleOperatorToday)
	s.mux.HandleFunc("DELETE /api/v1/operator/bookings/{id}", s.handleOperatorDelete)
	s.mux.HandleFunc("GET /api/v1/operator/export", s.handleOperatorExport)

	return s
}

// Handler returns the root handler.
func (s *HTTPServer) Handler() http.Handler {
	return s.mux
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}
