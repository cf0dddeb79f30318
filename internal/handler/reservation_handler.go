package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/reservasegura/monitor/internal/database"
	"github.com/reservasegura/monitor/internal/service"
)

// ReservationHandler handles reservation monitoring endpoints
type ReservationHandler struct {
	service *service.MonitoringService
}

// NewReservationHandler creates a new reservation handler
func NewReservationHandler(svc *service.MonitoringService) *ReservationHandler {
	return &ReservationHandler{service: svc}
}

// Register handles POST /api/v1/reservations
func (h *ReservationHandler) Register(w http.ResponseWriter, r *http.Request) {
	var input service.RegisterInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	view, err := h.service.Register(r.Context(), input)
	if err != nil {
		slog.Error("Failed to register reservation",
			"booking_code", input.BookingCode,
			"error", err,
		)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, view)
}

// List handles GET /api/v1/reservations
func (h *ReservationHandler) List(w http.ResponseWriter, r *http.Request) {
	filters := service.ListFilters{
		Airline: r.URL.Query().Get("airline"),
		Status:  r.URL.Query().Get("status"),
	}
	if active := parseQueryBool(r, "active"); active != nil {
		filters.ActiveOnly = *active
	}

	views, err := h.service.List(r.Context(), filters)
	if err != nil {
		slog.Error("Failed to list reservations", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to list reservations")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"reservations": views,
		"count":        len(views),
	})
}

// Delete handles DELETE /api/v1/reservations/{id}
func (h *ReservationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := extractID(r.URL.Path)
	if id == "" {
		writeError(w, http.StatusBadRequest, "Reservation ID is required")
		return
	}

	if err := h.service.Remove(r.Context(), id); err != nil {
		if errors.Is(err, database.ErrReservationNotFound) {
			writeError(w, http.StatusNotFound, "Reservation not found")
			return
		}
		slog.Error("Failed to remove reservation", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to remove reservation")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Check handles POST /api/v1/reservations/{id}/check
func (h *ReservationHandler) Check(w http.ResponseWriter, r *http.Request) {
	id := extractID(r.URL.Path)
	if id == "" {
		writeError(w, http.StatusBadRequest, "Reservation ID is required")
		return
	}

	result, err := h.service.CheckNow(r.Context(), id)
	if err != nil {
		if errors.Is(err, database.ErrReservationNotFound) {
			writeError(w, http.StatusNotFound, "Reservation not found")
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// Pause handles POST /api/v1/reservations/{id}/pause
func (h *ReservationHandler) Pause(w http.ResponseWriter, r *http.Request) {
	h.toggleMonitoring(w, r, h.service.Pause, "paused")
}

// Resume handles POST /api/v1/reservations/{id}/resume
func (h *ReservationHandler) Resume(w http.ResponseWriter, r *http.Request) {
	h.toggleMonitoring(w, r, h.service.Resume, "resumed")
}

// History handles GET /api/v1/reservations/history?booking_code=
func (h *ReservationHandler) History(w http.ResponseWriter, r *http.Request) {
	bookingCode := r.URL.Query().Get("booking_code")
	if bookingCode == "" {
		writeError(w, http.StatusBadRequest, "booking_code query parameter is required")
		return
	}

	events, err := h.service.ChangeHistory(r.Context(), bookingCode)
	if err != nil {
		slog.Error("Failed to fetch change history",
			"booking_code", bookingCode,
			"error", err,
		)
		writeError(w, http.StatusInternalServerError, "Failed to fetch change history")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"changes": events,
		"count":   len(events),
	})
}

// Stats handles GET /api/v1/monitoring/stats
func (h *ReservationHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		slog.Error("Failed to compute monitoring stats", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to compute stats")
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

func (h *ReservationHandler) toggleMonitoring(
	w http.ResponseWriter,
	r *http.Request,
	fn func(ctx context.Context, id string) error,
	action string,
) {
	id := extractID(r.URL.Path)
	if id == "" {
		writeError(w, http.StatusBadRequest, "Reservation ID is required")
		return
	}

	if err := fn(r.Context(), id); err != nil {
		if errors.Is(err, database.ErrReservationNotFound) {
			writeError(w, http.StatusNotFound, "Reservation not found")
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": action})
}

// extractID pulls the object ID segment out of /api/v1/reservations/{id}[/action]
func extractID(path string) string {
	path = strings.TrimPrefix(path, "/api/v1/reservations/")
	if idx := strings.Index(path, "/"); idx != -1 {
		path = path[:idx]
	}
	return path
}
