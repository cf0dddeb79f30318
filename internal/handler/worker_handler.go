package handler

import (
	"context"
	"net/http"

	"github.com/reservasegura/monitor/internal/worker"
)

// WorkerHandler exposes monitoring worker control endpoints
type WorkerHandler struct {
	monitor *worker.Monitor
}

// NewWorkerHandler creates a new worker handler
func NewWorkerHandler(monitor *worker.Monitor) *WorkerHandler {
	return &WorkerHandler{monitor: monitor}
}

// Status handles GET /api/v1/monitoring/worker
func (h *WorkerHandler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.monitor.Status())
}

// Start handles POST /api/v1/monitoring/worker/start. The run loop must
// outlive the request, so it is not tied to the request context.
func (h *WorkerHandler) Start(w http.ResponseWriter, r *http.Request) {
	h.monitor.Start(context.Background())
	writeJSON(w, http.StatusOK, h.monitor.Status())
}

// Stop handles POST /api/v1/monitoring/worker/stop
func (h *WorkerHandler) Stop(w http.ResponseWriter, r *http.Request) {
	h.monitor.Stop(r.Context())
	writeJSON(w, http.StatusOK, h.monitor.Status())
}

// Trigger handles POST /api/v1/monitoring/worker/trigger. The cycle runs
// synchronously; the response carries the full report.
func (h *WorkerHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	report := h.monitor.TriggerManually(r.Context())
	writeJSON(w, http.StatusOK, report)
}
