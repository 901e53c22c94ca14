package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/LikkleOra/TrimTime/internal/export"
	"github.com/LikkleOra/TrimTime/internal/metrics"
	"github.com/LikkleOra/TrimTime/internal/models"
)

func (s *HTTPServer) handleOperatorToday(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("operator_today")

	writeJSON(w, http.StatusOK, s.view.Project(r.Context()))
}

func (s *HTTPServer) handleOperatorDelete(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("operator_delete")

	id := r.PathValue("id")
	if err := s.view.Delete(r.Context(), id); err != nil {
		s.logger.Error().Err(err).Str("booking", id).Msg("delete failed")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	s.logger.Info().Str("booking", id).Msg("booking deleted")
	w.WriteHeader(http.StatusNoContent)
}

func (s *HTTPServer) handleOperatorExport(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("operator_export")

	date := r.URL.Query().Get("date")
	if date == "" {
		date = time.Now().Format(models.DateLayout)
	}
	if _, err := time.Parse(models.DateLayout, date); err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="schedule-%s.xlsx"`, date))

	bookings := s.store.GetBookings(r.Context())
	if err := export.DaySchedule(w, bookings, s.catalog, date); err != nil {
		s.logger.Error().Err(err).Str("date", date).Msg("export failed")
	}
}
