package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// HistoryKind discriminates the shape of a history entry. Earlier versions of
// the system stored either a per-field diff map or full before/after
// snapshots depending on the call site; both paths now write the field-diff
// shape, and the discriminator stays on the document so readers never have to
// guess.
type HistoryKind string

const HistoryKindFieldDiff HistoryKind = "field_diff"

// TrackedFields is the fixed set of requirement fields recorded in history
// diffs. Changes to fields outside this list (responsible, reason, origin)
// are applied to the document but never appear in the audit trail.
var TrackedFields = []string{
	"title", "description", "priority", "status",
	"projectId", "createdAt", "updatedAt",
}

// FieldChange holds stringified before/after values; nil means the value was
// absent on that side of the edit.
type FieldChange struct {
	OldValue *string `json:"oldValue" bson:"oldValue"`
	NewValue *string `json:"newValue" bson:"newValue"`
}

// RequirementHistoryEntry is append-only; entries are never updated or
// deleted in normal operation.
type RequirementHistoryEntry struct {
	ID            primitive.ObjectID     `json:"id,omitempty" bson:"_id,omitempty"`
	RequirementID string                 `json:"requirementId" bson:"requirementId"`
	ChangedAt     time.Time              `json:"changedAt" bson:"changedAt"`
	ChangedBy     string                 `json:"changedBy" bson:"changedBy"`
	Origin        string                 `json:"origin" bson:"origin"`
	Reason        string                 `json:"reason" bson:"reason"`
	MeetingID     string                 `json:"meetingId" bson:"meetingId"`
	Kind          HistoryKind            `json:"kind" bson:"kind"`
	Fields        map[string]FieldChange `json:"fields" bson:"fields"`
}

// TrackedSnapshot captures the tracked-field values of a stored requirement,
// stringified, as the "before" side of a diff.
func (r *Requirement) TrackedSnapshot() map[string]*string {
	return map[string]*string{
		"title":       strPtr(r.Title),
		"description": strPtr(r.Description),
		"priority":    strPtr(string(r.Priority)),
		"status":      strPtr(string(r.Status)),
		"projectId":   strPtr(r.ProjectID),
		"createdAt":   strPtr(r.CreatedAt.UTC().Format(time.RFC3339)),
		"updatedAt":   strPtr(r.UpdatedAt.UTC().Format(time.RFC3339)),
	}
}

// TrackedSnapshot builds the "after" side of a diff from a patch. Only the
// fields actually present on the patch get values; updatedAt is always set
// because every edit stamps it.
func (p RequirementPatch) TrackedSnapshot(updatedAt time.Time) map[string]*string {
	snap := map[string]*string{
		"updatedAt": strPtr(updatedAt.UTC().Format(time.RFC3339)),
	}
	if p.Title != nil {
		snap["title"] = strPtr(*p.Title)
	}
	if p.Description != nil {
		snap["description"] = strPtr(*p.Description)
	}
	if p.Priority != nil {
		snap["priority"] = strPtr(string(*p.Priority))
	}
	if p.Status != nil {
		snap["status"] = strPtr(string(*p.Status))
	}
	if p.ProjectID != nil {
		snap["projectId"] = strPtr(*p.ProjectID)
	}
	return snap
}

// DiffTrackedFields produces the history diff map over the fixed tracked-field
// set. Keys missing from either snapshot come through as nil, so an edit that
// only touched untracked fields yields an entry whose values are all
// nil-to-nil.
func DiffTrackedFields(previous, next map[string]*string) map[string]FieldChange {
	diff := make(map[string]FieldChange, len(TrackedFields))
	for _, field := range TrackedFields {
		diff[field] = FieldChange{
			OldValue: previous[field],
			NewValue: next[field],
		}
	}
	return diff
}

func strPtr(s string) *string {
	return &s
}
