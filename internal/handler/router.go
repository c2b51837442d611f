package handler

import (
	"net/http"
	"strings"

	"github.com/asoares/lull/pkg/middleware"
)

// Router handles HTTP routing
type Router struct {
	checkableHandler *CheckableHandler
	scheduleHandler  *ScheduleHandler
	downtimeHandler  *DowntimeHandler
	healthHandler    *HealthHandler
	corsConfig       middleware.CORSConfig
}

// NewRouter creates a new router
func NewRouter(
	checkableHandler *CheckableHandler,
	scheduleHandler *ScheduleHandler,
	downtimeHandler *DowntimeHandler,
	healthHandler *HealthHandler,
	corsConfig middleware.CORSConfig,
) *Router {
	return &Router{
		checkableHandler: checkableHandler,
		scheduleHandler:  scheduleHandler,
		downtimeHandler:  downtimeHandler,
		healthHandler:    healthHandler,
		corsConfig:       corsConfig,
	}
}

// Handler returns the configured HTTP handler with middleware
func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()

	// Health endpoints (no middleware)
	mux.HandleFunc("/health", rt.healthHandler.Health)
	mux.HandleFunc("/ready", rt.healthHandler.Ready)

	// API endpoints
	mux.HandleFunc("/api/v1/checkables", rt.handleCheckables)
	mux.HandleFunc("/api/v1/schedules", rt.handleSchedules)
	mux.HandleFunc("/api/v1/schedules/", rt.handleSchedulesWithID)
	mux.HandleFunc("/api/v1/downtimes", rt.handleDowntimes)
	mux.HandleFunc("/api/v1/jobs/", rt.scheduleHandler.GetJob)

	// Apply middleware (CORS first to handle preflight requests)
	handler := middleware.CORS(rt.corsConfig)(mux)
	handler = middleware.Recovery(handler)
	handler = middleware.Logging(handler)
	handler = middleware.CorrelationID(handler)

	return handler
}

// handleCheckables routes checkable collection endpoints
func (rt *Router) handleCheckables(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		rt.checkableHandler.List(w, r)
	case http.MethodPost:
		rt.checkableHandler.Create(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// handleSchedules routes schedule collection endpoints
func (rt *Router) handleSchedules(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		rt.scheduleHandler.List(w, r)
	case http.MethodPost:
		rt.scheduleHandler.Create(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// handleSchedulesWithID routes schedule individual endpoints
func (rt *Router) handleSchedulesWithID(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/v1/schedules/")

	// Check if this is a reconcile endpoint
	if strings.HasSuffix(path, "/reconcile") {
		if r.Method != http.MethodPost && r.Method != http.MethodOptions {
			writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		rt.scheduleHandler.Reconcile(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet:
		rt.scheduleHandler.Get(w, r)
	case http.MethodDelete:
		rt.scheduleHandler.Delete(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// handleDowntimes routes downtime collection endpoints
func (rt *Router) handleDowntimes(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		rt.downtimeHandler.List(w, r)
	case http.MethodPost:
		rt.downtimeHandler.Create(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}
