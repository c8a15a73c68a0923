package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeStatus(t *testing.T) {
	tests := []struct {
		raw    string
		want   RequirementStatus
		wantOK bool
	}{
		{"pending", StatusPending, true},
		{"in_progress", StatusInProgress, true},
		{"in progress", StatusInProgress, true},
		{"in-progress", StatusInProgress, true},
		{"In Progress", StatusInProgress, true},
		{"completed", StatusCompleted, true},
		{"done", StatusCompleted, true},
		{"DONE", StatusCompleted, true},
		{"  pending  ", StatusPending, true},
		{"archived", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, ok := NormalizeStatus(tt.raw)
		assert.Equal(t, tt.wantOK, ok, "raw=%q", tt.raw)
		assert.Equal(t, tt.want, got, "raw=%q", tt.raw)
	}
}

func TestNormalizePriority(t *testing.T) {
	tests := []struct {
		raw    string
		want   RequirementPriority
		wantOK bool
	}{
		{"low", PriorityLow, true},
		{"Medium", PriorityMedium, true},
		{"HIGH", PriorityHigh, true},
		{"urgent", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, ok := NormalizePriority(tt.raw)
		assert.Equal(t, tt.wantOK, ok, "raw=%q", tt.raw)
		assert.Equal(t, tt.want, got, "raw=%q", tt.raw)
	}
}

func TestRequirementPatchApplyTo(t *testing.T) {
	req := Requirement{
		ProjectID:   "p1",
		Title:       "Login bug",
		Description: "Cannot log in",
		Priority:    PriorityHigh,
		Status:      StatusPending,
		Responsible: "ana",
	}

	newTitle := "Login fixed"
	newStatus := StatusInProgress
	patch := RequirementPatch{Title: &newTitle, Status: &newStatus}
	patch.ApplyTo(&req)

	// Patched fields change, everything else stays: union semantics.
	assert.Equal(t, "Login fixed", req.Title)
	assert.Equal(t, StatusInProgress, req.Status)
	assert.Equal(t, "Cannot log in", req.Description)
	assert.Equal(t, PriorityHigh, req.Priority)
	assert.Equal(t, "ana", req.Responsible)
	assert.Equal(t, "p1", req.ProjectID)
}

func TestRequirementPatchIsEmpty(t *testing.T) {
	assert.True(t, RequirementPatch{}.IsEmpty())

	title := "x"
	assert.False(t, RequirementPatch{Title: &title}.IsEmpty())
}
