package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/SmartSpecsAI/smartspecs-backend/services"

	"github.com/gorilla/mux"
)

// SyncHandler triggers the workflow synchronizer for one project/meeting pair
// and returns the per-item report.
type SyncHandler struct {
	projects     *services.ProjectService
	meetings     *services.MeetingService
	requirements *services.RequirementService
	sync         *services.SyncService
}

func NewSyncHandler(projects *services.ProjectService, meetings *services.MeetingService, requirements *services.RequirementService, sync *services.SyncService) *SyncHandler {
	return &SyncHandler{
		projects:     projects,
		meetings:     meetings,
		requirements: requirements,
		sync:         sync,
	}
}

type syncRequest struct {
	MeetingID string `json:"meetingId"`
}

func (h *SyncHandler) SyncProject(w http.ResponseWriter, r *http.Request) {
	if err := checkRole(r, []string{"manager", "member"}); err != nil {
		http.Error(w, "Access forbidden: insufficient permissions", http.StatusForbidden)
		return
	}

	var body syncRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if body.MeetingID == "" {
		http.Error(w, "meetingId is required", http.StatusBadRequest)
		return
	}

	projectID := mux.Vars(r)["id"]
	project, err := h.projects.GetProjectByID(r.Context(), projectID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	meeting, err := h.meetings.GetMeetingByID(r.Context(), body.MeetingID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	if meeting.ProjectID != projectID {
		http.Error(w, "meeting does not belong to this project", http.StatusBadRequest)
		return
	}

	existing, err := h.requirements.GetRequirementsByProject(r.Context(), projectID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	report, err := h.sync.SyncFromMeeting(r.Context(), project, meeting, existing)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(report)
}
