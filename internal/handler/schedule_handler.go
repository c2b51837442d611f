package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/asoares/lull/internal/model"
	"github.com/asoares/lull/internal/service"
	"github.com/asoares/lull/pkg/middleware"
	"github.com/google/uuid"
)

// ScheduleHandler handles downtime schedule CRUD and reconcile operations
type ScheduleHandler struct {
	service         *service.ScheduleService
	reconciler      *service.Reconciler
	asyncReconciler *service.AsyncReconciler
}

// NewScheduleHandler creates a new schedule handler
func NewScheduleHandler(
	service *service.ScheduleService,
	reconciler *service.Reconciler,
	asyncReconciler *service.AsyncReconciler,
) *ScheduleHandler {
	return &ScheduleHandler{
		service:         service,
		reconciler:      reconciler,
		asyncReconciler: asyncReconciler,
	}
}

// ScheduleListResponse represents the schedule list response
type ScheduleListResponse struct {
	Total   int64                    `json:"total"`
	Page    int                      `json:"page"`
	Limit   int                      `json:"limit"`
	Results []model.DowntimeSchedule `json:"results"`
}

// AsyncResponse represents an async reconcile response
type AsyncResponse struct {
	JobID   string `json:"job_id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// ReconcileResponse represents a sync reconcile response
type ReconcileResponse struct {
	ScheduleID    string `json:"schedule_id"`
	CorrelationID string `json:"correlation_id"`
	Message       string `json:"message"`
}

// DeleteResponse represents the delete response
type DeleteResponse struct {
	Message string `json:"message"`
}

// Create handles POST /api/v1/schedules
func (h *ScheduleHandler) Create(w http.ResponseWriter, r *http.Request) {
	var schedule model.DowntimeSchedule
	if err := json.NewDecoder(r.Body).Decode(&schedule); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if err := h.service.Create(r.Context(), &schedule); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, schedule)
}

// Get handles GET /api/v1/schedules/{id}
func (h *ScheduleHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/v1/schedules/")
	id = strings.Split(id, "/")[0]

	schedule, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, schedule)
}

// List handles GET /api/v1/schedules
func (h *ScheduleHandler) List(w http.ResponseWriter, r *http.Request) {
	hostName := r.URL.Query().Get("host_name")
	page := parseQueryInt(r, "page", 1)
	limit := parseQueryInt(r, "limit", 20)

	// Enforce max limit
	if limit > 100 {
		limit = 100
	}

	schedules, total, err := h.service.List(r.Context(), hostName, page, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	response := ScheduleListResponse{
		Total:   total,
		Page:    page,
		Limit:   limit,
		Results: schedules,
	}

	writeJSON(w, http.StatusOK, response)
}

// Delete handles DELETE /api/v1/schedules/{id}
func (h *ScheduleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/v1/schedules/")

	if err := h.service.Delete(r.Context(), id); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}

	response := DeleteResponse{
		Message: "Downtime schedule deleted successfully",
	}

	writeJSON(w, http.StatusOK, response)
}

// Reconcile handles POST /api/v1/schedules/{id}/reconcile
func (h *ScheduleHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(r.URL.Path, "/")
	if len(parts) < 5 {
		writeError(w, http.StatusBadRequest, "Invalid path")
		return
	}
	scheduleID := parts[4]

	async := r.URL.Query().Get("async") == "true"

	correlationID := middleware.GetCorrelationID(r.Context())
	if correlationID == "" {
		correlationID = uuid.New().String()
	}

	if async {
		jobID, err := h.asyncReconciler.SubmitJob(r.Context(), scheduleID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}

		response := AsyncResponse{
			JobID:   jobID,
			Status:  "queued",
			Message: "Schedule reconcile queued successfully",
		}

		writeJSON(w, http.StatusAccepted, response)
		return
	}

	if err := h.reconciler.Reconcile(r.Context(), scheduleID, correlationID); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	response := ReconcileResponse{
		ScheduleID:    scheduleID,
		CorrelationID: correlationID,
		Message:       "Schedule reconciled successfully",
	}

	writeJSON(w, http.StatusOK, response)
}

// GetJob handles GET /api/v1/jobs/{id}
func (h *ScheduleHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	jobID := strings.TrimPrefix(r.URL.Path, "/api/v1/jobs/")

	status, exists := h.asyncReconciler.GetJobStatus(jobID)
	if !exists {
		writeError(w, http.StatusNotFound, "Job not found")
		return
	}

	writeJSON(w, http.StatusOK, status)
}
