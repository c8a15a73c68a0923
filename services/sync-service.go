package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/SmartSpecsAI/smartspecs-backend/logging"
	"github.com/SmartSpecsAI/smartspecs-backend/models"
)

// WorkflowRunner is the slice of DifyClient the synchronizer needs.
type WorkflowRunner interface {
	RunWorkflow(ctx context.Context, inputs map[string]interface{}, user string) (map[string]interface{}, error)
}

// RequirementReconciler is the slice of RequirementService the synchronizer
// writes through.
type RequirementReconciler interface {
	EditRequirement(ctx context.Context, requirementID string, patch models.RequirementPatch, actor, reason, origin, meetingID string) (*models.Requirement, error)
	CreateRequirement(ctx context.Context, req *models.Requirement) (*models.Requirement, error)
}

// SyncService reconciles the output of the external workflow against the
// requirement store. Items are applied strictly in list order, one write at a
// time, with no rollback: a failure partway through leaves earlier items
// applied. The report makes that partial outcome visible to the caller.
type SyncService struct {
	Workflow     WorkflowRunner
	Requirements RequirementReconciler
}

func NewSyncService(workflow WorkflowRunner, requirements RequirementReconciler) *SyncService {
	return &SyncService{Workflow: workflow, Requirements: requirements}
}

const (
	SyncActionUpdated = "updated"
	SyncActionCreated = "created"
	SyncActionSkipped = "skipped"
	SyncActionFailed  = "failed"
)

type SyncItemResult struct {
	Action        string `json:"action"`
	RequirementID string `json:"requirementId,omitempty"`
	Title         string `json:"title,omitempty"`
	Detail        string `json:"detail,omitempty"`
}

type SyncReport struct {
	Updated int              `json:"updated"`
	Created int              `json:"created"`
	Skipped int              `json:"skipped"`
	Failed  int              `json:"failed"`
	Items   []SyncItemResult `json:"items"`
}

func (r *SyncReport) add(item SyncItemResult) {
	switch item.Action {
	case SyncActionUpdated:
		r.Updated++
	case SyncActionCreated:
		r.Created++
	case SyncActionSkipped:
		r.Skipped++
	case SyncActionFailed:
		r.Failed++
	}
	r.Items = append(r.Items, item)
}

// syncItem is one requirement object as the workflow emits it. Enumeration
// values arrive in whatever spelling the model produced and are normalized
// before writing.
type syncItem struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
	Status      string `json:"status"`
	Responsible string `json:"responsible"`
	Reason      string `json:"reason"`
	Origin      string `json:"origin"`
}

// SyncFromMeeting sends the meeting transcript and the current requirement
// list to the workflow, then applies the returned updated/new requirement
// lists back onto the store. Updates are applied before creates, each list in
// its own order.
func (s *SyncService) SyncFromMeeting(ctx context.Context, project *models.Project, meeting *models.Meeting, existing []models.Requirement) (*SyncReport, error) {
	requirementsJSON := "[]"
	if len(existing) > 0 {
		encoded, err := json.Marshal(existing)
		if err != nil {
			return nil, fmt.Errorf("failed to encode existing requirements: %v", err)
		}
		requirementsJSON = string(encoded)
	}

	inputs := map[string]interface{}{
		"project_id":            project.ID.Hex(),
		"project_title":         project.Title,
		"project_description":   project.Description,
		"meeting_id":            meeting.ID.Hex(),
		"meeting_title":         meeting.Title,
		"meeting_transcription": meeting.Transcription,
		"requirements_list":     requirementsJSON,
	}

	outputs, err := s.Workflow.RunWorkflow(ctx, inputs, project.UserID)
	if err != nil {
		return nil, fmt.Errorf("workflow call failed: %v", err)
	}

	updatedItems := parseRequirementItems(outputs["updated_requirements_list"])
	newItems := parseRequirementItems(outputs["new_requirements_list"])

	report := &SyncReport{Items: []SyncItemResult{}}

	for _, item := range updatedItems {
		report.add(s.applyUpdate(ctx, item, meeting))
	}
	for _, item := range newItems {
		report.add(s.applyCreate(ctx, item, project))
	}

	logging.Logger.Infof("Event ID: SYNC_COMPLETED, Description: Sync for meeting %s finished: %d updated, %d created, %d skipped, %d failed",
		meeting.ID.Hex(), report.Updated, report.Created, report.Skipped, report.Failed)
	return report, nil
}

func (s *SyncService) applyUpdate(ctx context.Context, item syncItem, meeting *models.Meeting) SyncItemResult {
	if item.ID == "" {
		logging.Logger.Warnf("Event ID: SYNC_ITEM_SKIPPED, Description: Updated item %q has no id, skipping", item.Title)
		return SyncItemResult{Action: SyncActionSkipped, Title: item.Title, Detail: "missing id"}
	}

	patch := patchFromItem(item)
	origin := item.Origin
	if origin == "" {
		origin = models.OriginDify
	}

	if _, err := s.Requirements.EditRequirement(ctx, item.ID, patch, models.OriginDify, item.Reason, origin, meeting.ID.Hex()); err != nil {
		logging.Logger.Warnf("Event ID: SYNC_ITEM_FAILED, Description: Update of requirement %s failed: %v", item.ID, err)
		return SyncItemResult{Action: SyncActionFailed, RequirementID: item.ID, Title: item.Title, Detail: err.Error()}
	}
	return SyncItemResult{Action: SyncActionUpdated, RequirementID: item.ID, Title: item.Title}
}

func (s *SyncService) applyCreate(ctx context.Context, item syncItem, project *models.Project) SyncItemResult {
	if item.Title == "" || item.Description == "" {
		logging.Logger.Warnf("Event ID: SYNC_ITEM_SKIPPED, Description: New item %q missing title or description, skipping", item.Title)
		return SyncItemResult{Action: SyncActionSkipped, Title: item.Title, Detail: "missing title or description"}
	}

	req := &models.Requirement{
		ProjectID:   project.ID.Hex(),
		Title:       item.Title,
		Description: item.Description,
		Responsible: item.Responsible,
		Reason:      item.Reason,
		Origin:      item.Origin,
	}
	if priority, ok := models.NormalizePriority(item.Priority); ok {
		req.Priority = priority
	}
	if status, ok := models.NormalizeStatus(item.Status); ok {
		req.Status = status
	}

	created, err := s.Requirements.CreateRequirement(ctx, req)
	if err != nil {
		logging.Logger.Warnf("Event ID: SYNC_ITEM_FAILED, Description: Create of requirement %q failed: %v", item.Title, err)
		return SyncItemResult{Action: SyncActionFailed, Title: item.Title, Detail: err.Error()}
	}
	return SyncItemResult{Action: SyncActionCreated, RequirementID: created.ID.Hex(), Title: created.Title}
}

func patchFromItem(item syncItem) models.RequirementPatch {
	patch := models.RequirementPatch{}
	if item.Title != "" {
		patch.Title = &item.Title
	}
	if item.Description != "" {
		patch.Description = &item.Description
	}
	if priority, ok := models.NormalizePriority(item.Priority); ok {
		patch.Priority = &priority
	}
	if status, ok := models.NormalizeStatus(item.Status); ok {
		patch.Status = &status
	}
	if item.Responsible != "" {
		patch.Responsible = &item.Responsible
	}
	if item.Reason != "" {
		patch.Reason = &item.Reason
	}
	return patch
}

// parseRequirementItems decodes one workflow output field. The value is a
// JSON-encoded array string, possibly wrapped in a Markdown code fence.
// Anything unparseable degrades to an empty list; the sync carries on with
// whatever the other field produced.
func parseRequirementItems(raw interface{}) []syncItem {
	text, ok := raw.(string)
	if !ok || strings.TrimSpace(text) == "" {
		return []syncItem{}
	}

	var items []syncItem
	if err := json.Unmarshal([]byte(stripMarkdownFence(text)), &items); err != nil {
		logging.Logger.Warnf("Event ID: SYNC_PARSE_FAILED, Description: Could not parse workflow output as requirement list: %v", err)
		return []syncItem{}
	}
	return items
}

// stripMarkdownFence removes a surrounding ``` or ```json fence, if present.
func stripMarkdownFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}

	s = strings.TrimPrefix(s, "```")
	if idx := strings.Index(s, "\n"); idx >= 0 {
		// Drop the language tag line ("json", "JSON", or empty).
		s = s[idx+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
