package handler

import (
	"encoding/json"
	"net/http"

	"github.com/asoares/lull/internal/model"
	"github.com/asoares/lull/internal/service"
)

// DowntimeHandler handles downtime record operations
type DowntimeHandler struct {
	service *service.DowntimeService
}

// NewDowntimeHandler creates a new downtime handler
func NewDowntimeHandler(service *service.DowntimeService) *DowntimeHandler {
	return &DowntimeHandler{
		service: service,
	}
}

// DowntimeListResponse represents the downtime list response
type DowntimeListResponse struct {
	Total   int64            `json:"total"`
	Page    int              `json:"page"`
	Limit   int              `json:"limit"`
	Results []model.Downtime `json:"results"`
}

// List handles GET /api/v1/downtimes
func (h *DowntimeHandler) List(w http.ResponseWriter, r *http.Request) {
	checkableID := r.URL.Query().Get("checkable_id")
	scheduledBy := r.URL.Query().Get("scheduled_by")
	page := parseQueryInt(r, "page", 1)
	limit := parseQueryInt(r, "limit", 20)

	// Enforce max limit
	if limit > 100 {
		limit = 100
	}

	downtimes, total, err := h.service.List(r.Context(), checkableID, scheduledBy, page, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	response := DowntimeListResponse{
		Total:   total,
		Page:    page,
		Limit:   limit,
		Results: downtimes,
	}

	writeJSON(w, http.StatusOK, response)
}

// Create handles POST /api/v1/downtimes
func (h *DowntimeHandler) Create(w http.ResponseWriter, r *http.Request) {
	var downtime model.Downtime
	if err := json.NewDecoder(r.Body).Decode(&downtime); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if err := h.service.Create(r.Context(), &downtime); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, downtime)
}
