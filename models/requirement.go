package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type RequirementPriority string

const (
	PriorityLow    RequirementPriority = "low"
	PriorityMedium RequirementPriority = "medium"
	PriorityHigh   RequirementPriority = "high"
)

type RequirementStatus string

const (
	StatusPending    RequirementStatus = "pending"
	StatusInProgress RequirementStatus = "in_progress"
	StatusCompleted  RequirementStatus = "completed"
)

// OriginDify marks requirements produced by the workflow synchronizer.
const (
	OriginManual = "Manual"
	OriginDify   = "Dify"
)

// legacyStatuses maps the status spellings that older documents and workflow
// responses still use onto the canonical enumeration.
var legacyStatuses = map[string]RequirementStatus{
	"pending":     StatusPending,
	"in_progress": StatusInProgress,
	"in progress": StatusInProgress,
	"in-progress": StatusInProgress,
	"completed":   StatusCompleted,
	"done":        StatusCompleted,
}

var legacyPriorities = map[string]RequirementPriority{
	"low":    PriorityLow,
	"medium": PriorityMedium,
	"high":   PriorityHigh,
}

// NormalizeStatus resolves a raw status string to the canonical enumeration.
// The second return value is false when the value is not recognized.
func NormalizeStatus(raw string) (RequirementStatus, bool) {
	status, ok := legacyStatuses[strings.ToLower(strings.TrimSpace(raw))]
	return status, ok
}

func NormalizePriority(raw string) (RequirementPriority, bool) {
	priority, ok := legacyPriorities[strings.ToLower(strings.TrimSpace(raw))]
	return priority, ok
}

type Requirement struct {
	ID          primitive.ObjectID  `json:"id,omitempty" bson:"_id,omitempty"`
	ProjectID   string              `json:"projectId" bson:"projectId"`
	Title       string              `json:"title" bson:"title"`
	Description string              `json:"description" bson:"description"`
	Priority    RequirementPriority `json:"priority" bson:"priority"`
	Status      RequirementStatus   `json:"status" bson:"status"`
	Responsible string              `json:"responsible,omitempty" bson:"responsible,omitempty"`
	Reason      string              `json:"reason,omitempty" bson:"reason,omitempty"`
	Origin      string              `json:"origin" bson:"origin"`
	CreatedAt   time.Time           `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time           `json:"updatedAt" bson:"updatedAt"`
}

// RequirementPatch is a partial update; nil fields are left untouched on the
// stored document.
type RequirementPatch struct {
	ProjectID   *string              `json:"projectId,omitempty"`
	Title       *string              `json:"title,omitempty"`
	Description *string              `json:"description,omitempty"`
	Priority    *RequirementPriority `json:"priority,omitempty"`
	Status      *RequirementStatus   `json:"status,omitempty"`
	Responsible *string              `json:"responsible,omitempty"`
	Reason      *string              `json:"reason,omitempty"`
	Origin      *string              `json:"origin,omitempty"`
}

// IsEmpty reports whether the patch carries no fields at all.
func (p RequirementPatch) IsEmpty() bool {
	return p.ProjectID == nil && p.Title == nil && p.Description == nil &&
		p.Priority == nil && p.Status == nil && p.Responsible == nil &&
		p.Reason == nil && p.Origin == nil
}

// ApplyTo overlays the patch fields onto a requirement in memory. The stored
// document is updated separately; this keeps the returned value in sync
// without a second read.
func (p RequirementPatch) ApplyTo(r *Requirement) {
	if p.ProjectID != nil {
		r.ProjectID = *p.ProjectID
	}
	if p.Title != nil {
		r.Title = *p.Title
	}
	if p.Description != nil {
		r.Description = *p.Description
	}
	if p.Priority != nil {
		r.Priority = *p.Priority
	}
	if p.Status != nil {
		r.Status = *p.Status
	}
	if p.Responsible != nil {
		r.Responsible = *p.Responsible
	}
	if p.Reason != nil {
		r.Reason = *p.Reason
	}
	if p.Origin != nil {
		r.Origin = *p.Origin
	}
}
