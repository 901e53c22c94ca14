package api

import (
	"errors"
	"net/http"

	"github.com/LikkleOra/TrimTime/internal/flow"
	"github.com/LikkleOra/TrimTime/internal/metrics"
	"github.com/LikkleOra/TrimTime/internal/store"
)

// flowStateResponse is the render model returned by every flow mutation,
// so clients can redraw after each step without a second request.
type flowStateResponse struct {
	SessionID string        `json:"session_id"`
	flow.Snapshot
	Slots []slotResponse `json:"slots,omitempty"`
}

type slotResponse struct {
	Time     string `json:"time"`
	Occupied bool   `json:"occupied"`
}

func (s *HTTPServer) flowState(r *http.Request, session *flow.Session) flowStateResponse {
	resp := flowStateResponse{
		SessionID: session.ID,
		Snapshot:  session.Flow.Snapshot(),
	}
	// The slot grid only matters while a time is being picked.
	if resp.State == flow.StateSelectingTime {
		for _, slot := range session.Flow.Slots(r.Context()) {
			resp.Slots = append(resp.Slots, slotResponse{Time: slot.Time, Occupied: slot.Occupied})
		}
	}
	return resp
}

func (s *HTTPServer) session(w http.ResponseWriter, r *http.Request) *flow.Session {
	session := s.sessions.Get(r.PathValue("sid"))
	if session == nil {
		writeError(w, http.StatusNotFound, "session not found or expired")
		return nil
	}
	return session
}

func (s *HTTPServer) handleStartFlow(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("flow_start")

	session := s.sessions.Create()
	s.logger.Info().Str("session", session.ID).Msg("booking dialog started")

	writeJSON(w, http.StatusCreated, map[string]any{
		"session_id": session.ID,
		"state":      session.Flow.State(),
		"date":       session.Flow.Date(),
		"services":   s.catalog.Services,
	})
}

func (s *HTTPServer) handleFlowState(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("flow_state")

	session := s.session(w, r)
	if session == nil {
		return
	}
	writeJSON(w, http.StatusOK, s.flowState(r, session))
}

func (s *HTTPServer) handleSelectService(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("flow_service")

	session := s.session(w, r)
	if session == nil {
		return
	}

	var req struct {
		ServiceID string `json:"service_id"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	if err := session.Flow.SelectService(req.ServiceID); err != nil {
		s.writeFlowError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.flowState(r, session))
}

func (s *HTTPServer) handleShiftDate(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("flow_date")

	session := s.session(w, r)
	if session == nil {
		return
	}

	var req struct {
		Shift int `json:"shift"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	if err := session.Flow.ShiftDate(req.Shift); err != nil {
		s.writeFlowError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.flowState(r, session))
}

func (s *HTTPServer) handleSelectTime(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("flow_time")

	session := s.session(w, r)
	if session == nil {
		return
	}

	var req struct {
		Time string `json:"time"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	if err := session.Flow.SelectTime(r.Context(), req.Time); err != nil {
		s.writeFlowError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.flowState(r, session))
}

func (s *HTTPServer) handleDetails(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("flow_details")

	session := s.session(w, r)
	if session == nil {
		return
	}

	var req struct {
		Name  string `json:"name"`
		Phone string `json:"phone"`
		Notes string `json:"notes"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	if err := session.Flow.SetDetails(req.Name, req.Phone, req.Notes); err != nil {
		s.writeFlowError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.flowState(r, session))
}

func (s *HTTPServer) handleConfirm(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("flow_confirm")

	session := s.session(w, r)
	if session == nil {
		return
	}

	booking, link, err := session.Flow.Confirm(r.Context())
	if err != nil {
		s.writeFlowError(w, err)
		return
	}

	s.logger.Info().
		Str("session", session.ID).
		Str("booking", booking.ID).
		Str("date", booking.Date).
		Str("time", booking.Time).
		Msg("booking confirmed")

	writeJSON(w, http.StatusCreated, map[string]any{
		"booking":      booking,
		"handoff_link": link,
	})
}

func (s *HTTPServer) handleBack(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("flow_back")

	session := s.session(w, r)
	if session == nil {
		return
	}

	if err := session.Flow.Back(); err != nil {
		s.writeFlowError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.flowState(r, session))
}

// writeFlowError maps dialog errors to HTTP statuses.
func (s *HTTPServer) writeFlowError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, flow.ErrInvalidTransition):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, flow.ErrUnknownService), errors.Is(err, flow.ErrUnknownSlot):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, flow.ErrIncompleteDetails):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, flow.ErrSlotOccupied), errors.Is(err, store.ErrSlotTaken):
		writeError(w, http.StatusConflict, err.Error())
	default:
		s.logger.Error().Err(err).Msg("flow operation failed")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
