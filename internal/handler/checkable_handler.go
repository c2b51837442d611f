package handler

import (
	"encoding/json"
	"net/http"

	"github.com/asoares/lull/internal/model"
	"github.com/asoares/lull/internal/service"
)

// CheckableHandler handles checkable registration operations
type CheckableHandler struct {
	service *service.CheckableService
}

// NewCheckableHandler creates a new checkable handler
func NewCheckableHandler(service *service.CheckableService) *CheckableHandler {
	return &CheckableHandler{
		service: service,
	}
}

// CheckableListResponse represents the checkable list response
type CheckableListResponse struct {
	Total   int               `json:"total"`
	Results []model.Checkable `json:"results"`
}

// Create handles POST /api/v1/checkables
func (h *CheckableHandler) Create(w http.ResponseWriter, r *http.Request) {
	var checkable model.Checkable
	if err := json.NewDecoder(r.Body).Decode(&checkable); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if err := h.service.Create(r.Context(), &checkable); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, checkable)
}

// List handles GET /api/v1/checkables
func (h *CheckableHandler) List(w http.ResponseWriter, r *http.Request) {
	checkables, err := h.service.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	response := CheckableListResponse{
		Total:   len(checkables),
		Results: checkables,
	}

	writeJSON(w, http.StatusOK, response)
}
