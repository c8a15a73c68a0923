package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/SmartSpecsAI/smartspecs-backend/models"
	"github.com/SmartSpecsAI/smartspecs-backend/services"

	"github.com/gorilla/mux"
)

type PendingMeetingHandler struct {
	service *services.PendingMeetingService
}

func NewPendingMeetingHandler(service *services.PendingMeetingService) *PendingMeetingHandler {
	return &PendingMeetingHandler{service: service}
}

func (h *PendingMeetingHandler) ListPendingMeetings(w http.ResponseWriter, r *http.Request) {
	if err := checkRole(r, []string{"manager", "member"}); err != nil {
		http.Error(w, "Access forbidden: insufficient permissions", http.StatusForbidden)
		return
	}

	pending, err := h.service.ListPendingMeetings(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(pending)
}

type acceptPendingMeetingRequest struct {
	ProjectID string `json:"projectId"`
}

type acceptPendingMeetingResponse struct {
	Meeting *models.Meeting      `json:"meeting"`
	Report  *services.SyncReport `json:"report"`
}

func (h *PendingMeetingHandler) AcceptPendingMeeting(w http.ResponseWriter, r *http.Request) {
	if err := checkRole(r, []string{"manager", "member"}); err != nil {
		http.Error(w, "Access forbidden: insufficient permissions", http.StatusForbidden)
		return
	}

	var body acceptPendingMeetingRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	meeting, report, err := h.service.AcceptPendingMeeting(r.Context(), mux.Vars(r)["id"], body.ProjectID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(acceptPendingMeetingResponse{Meeting: meeting, Report: report})
}

func (h *PendingMeetingHandler) DeletePendingMeeting(w http.ResponseWriter, r *http.Request) {
	if err := checkRole(r, []string{"manager", "member"}); err != nil {
		http.Error(w, "Access forbidden: insufficient permissions", http.StatusForbidden)
		return
	}

	if err := h.service.DeletePendingMeeting(r.Context(), mux.Vars(r)["id"]); err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
