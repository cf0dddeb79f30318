package handler

import (
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/reservasegura/monitor/pkg/middleware"
)

// Router handles HTTP routing
type Router struct {
	reservationHandler *ReservationHandler
	workerHandler      *WorkerHandler
	accountHandler     *AccountHandler
	healthHandler      *HealthHandler
	corsConfig         middleware.CORSConfig
}

// NewRouter creates a new router
func NewRouter(
	reservationHandler *ReservationHandler,
	workerHandler *WorkerHandler,
	accountHandler *AccountHandler,
	healthHandler *HealthHandler,
	corsConfig middleware.CORSConfig,
) *Router {
	return &Router{
		reservationHandler: reservationHandler,
		workerHandler:      workerHandler,
		accountHandler:     accountHandler,
		healthHandler:      healthHandler,
		corsConfig:         corsConfig,
	}
}

// Handler returns the configured HTTP handler with middleware
func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()

	// Health and metrics endpoints (no middleware)
	mux.HandleFunc("/health", rt.healthHandler.Health)
	mux.HandleFunc("/ready", rt.healthHandler.Ready)
	mux.Handle("/metrics", promhttp.Handler())

	// API endpoints
	mux.HandleFunc("/api/v1/reservations", rt.handleReservations)
	mux.HandleFunc("/api/v1/reservations/history", rt.requireMethod(http.MethodGet, rt.reservationHandler.History))
	mux.HandleFunc("/api/v1/reservations/", rt.handleReservationsWithID)
	mux.HandleFunc("/api/v1/accounts", rt.requireMethod(http.MethodPost, rt.accountHandler.Link))
	mux.HandleFunc("/api/v1/monitoring/stats", rt.requireMethod(http.MethodGet, rt.reservationHandler.Stats))
	mux.HandleFunc("/api/v1/monitoring/worker", rt.requireMethod(http.MethodGet, rt.workerHandler.Status))
	mux.HandleFunc("/api/v1/monitoring/worker/start", rt.requireMethod(http.MethodPost, rt.workerHandler.Start))
	mux.HandleFunc("/api/v1/monitoring/worker/stop", rt.requireMethod(http.MethodPost, rt.workerHandler.Stop))
	mux.HandleFunc("/api/v1/monitoring/worker/trigger", rt.requireMethod(http.MethodPost, rt.workerHandler.Trigger))

	// Apply middleware (CORS first to handle preflight requests)
	handler := middleware.CORS(rt.corsConfig)(mux)
	handler = middleware.Recovery(handler)
	handler = middleware.Logging(handler)
	handler = middleware.CorrelationID(handler)

	return handler
}

// handleReservations routes reservation collection endpoints
func (rt *Router) handleReservations(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		rt.reservationHandler.List(w, r)
	case http.MethodPost:
		rt.reservationHandler.Register(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// handleReservationsWithID routes reservation individual endpoints
func (rt *Router) handleReservationsWithID(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/v1/reservations/")

	switch {
	case strings.HasSuffix(path, "/check"):
		rt.requireMethod(http.MethodPost, rt.reservationHandler.Check)(w, r)
	case strings.HasSuffix(path, "/pause"):
		rt.requireMethod(http.MethodPost, rt.reservationHandler.Pause)(w, r)
	case strings.HasSuffix(path, "/resume"):
		rt.requireMethod(http.MethodPost, rt.reservationHandler.Resume)(w, r)
	case r.Method == http.MethodDelete:
		rt.reservationHandler.Delete(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// requireMethod rejects requests with any method other than the one given
func (rt *Router) requireMethod(method string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != method && r.Method != http.MethodOptions {
			writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		next(w, r)
	}
}
