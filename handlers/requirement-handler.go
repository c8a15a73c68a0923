package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/SmartSpecsAI/smartspecs-backend/models"
	"github.com/SmartSpecsAI/smartspecs-backend/services"

	"github.com/gorilla/mux"
)

type RequirementHandler struct {
	service *services.RequirementService
}

func NewRequirementHandler(service *services.RequirementService) *RequirementHandler {
	return &RequirementHandler{service: service}
}

// createRequirementRequest carries enumeration values as raw strings so
// legacy spellings can be normalized at the boundary.
type createRequirementRequest struct {
	ProjectID   string `json:"projectId"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
	Status      string `json:"status"`
	Responsible string `json:"responsible"`
	Reason      string `json:"reason"`
	Origin      string `json:"origin"`
}

type editRequirementRequest struct {
	Title         *string `json:"title"`
	Description   *string `json:"description"`
	Priority      *string `json:"priority"`
	Status        *string `json:"status"`
	Responsible   *string `json:"responsible"`
	Reason        *string `json:"reason"`
	HistoryReason string  `json:"historyReason"`
	MeetingID     string  `json:"meetingId"`
}

func (h *RequirementHandler) CreateRequirement(w http.ResponseWriter, r *http.Request) {
	if err := checkRole(r, []string{"manager", "member"}); err != nil {
		http.Error(w, "Access forbidden: insufficient permissions", http.StatusForbidden)
		return
	}

	var body createRequirementRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	req := &models.Requirement{
		ProjectID:   body.ProjectID,
		Title:       body.Title,
		Description: body.Description,
		Responsible: body.Responsible,
		Reason:      body.Reason,
		Origin:      body.Origin,
	}
	if req.Origin == "" {
		req.Origin = models.OriginManual
	}
	if body.Priority != "" {
		priority, ok := models.NormalizePriority(body.Priority)
		if !ok {
			http.Error(w, "unrecognized priority value", http.StatusBadRequest)
			return
		}
		req.Priority = priority
	}
	if body.Status != "" {
		status, ok := models.NormalizeStatus(body.Status)
		if !ok {
			http.Error(w, "unrecognized status value", http.StatusBadRequest)
			return
		}
		req.Status = status
	}

	created, err := h.service.CreateRequirement(r.Context(), req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(created)
}

func (h *RequirementHandler) ListRequirements(w http.ResponseWriter, r *http.Request) {
	if err := checkRole(r, []string{"manager", "member"}); err != nil {
		http.Error(w, "Access forbidden: insufficient permissions", http.StatusForbidden)
		return
	}

	projectID := r.URL.Query().Get("projectId")
	if projectID == "" {
		http.Error(w, "projectId query parameter is required", http.StatusBadRequest)
		return
	}

	requirements, err := h.service.GetRequirementsByProject(r.Context(), projectID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(requirements)
}

func (h *RequirementHandler) GetRequirementByID(w http.ResponseWriter, r *http.Request) {
	if err := checkRole(r, []string{"manager", "member"}); err != nil {
		http.Error(w, "Access forbidden: insufficient permissions", http.StatusForbidden)
		return
	}

	req, err := h.service.GetRequirementByID(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(req)
}

// EditRequirement runs the editor path: partial update plus one history
// entry recording the tracked-field diff.
func (h *RequirementHandler) EditRequirement(w http.ResponseWriter, r *http.Request) {
	if err := checkRole(r, []string{"manager", "member"}); err != nil {
		http.Error(w, "Access forbidden: insufficient permissions", http.StatusForbidden)
		return
	}

	var body editRequirementRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	patch := models.RequirementPatch{
		Title:       body.Title,
		Description: body.Description,
		Responsible: body.Responsible,
		Reason:      body.Reason,
	}
	if body.Priority != nil {
		priority, ok := models.NormalizePriority(*body.Priority)
		if !ok {
			http.Error(w, "unrecognized priority value", http.StatusBadRequest)
			return
		}
		patch.Priority = &priority
	}
	if body.Status != nil {
		status, ok := models.NormalizeStatus(*body.Status)
		if !ok {
			http.Error(w, "unrecognized status value", http.StatusBadRequest)
			return
		}
		patch.Status = &status
	}

	updated, err := h.service.EditRequirement(r.Context(), mux.Vars(r)["id"], patch, actorName(r), body.HistoryReason, models.OriginManual, body.MeetingID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(updated)
}

func (h *RequirementHandler) DeleteRequirement(w http.ResponseWriter, r *http.Request) {
	if err := checkRole(r, []string{"manager"}); err != nil {
		http.Error(w, "Access forbidden: insufficient permissions", http.StatusForbidden)
		return
	}

	if err := h.service.DeleteRequirement(r.Context(), mux.Vars(r)["id"]); err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *RequirementHandler) GetRequirementHistory(w http.ResponseWriter, r *http.Request) {
	if err := checkRole(r, []string{"manager", "member"}); err != nil {
		http.Error(w, "Access forbidden: insufficient permissions", http.StatusForbidden)
		return
	}

	entries, err := h.service.GetHistory(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(entries)
}
