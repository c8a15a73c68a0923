package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// These cover the boundary checks that run before any storage access; the
// handler is constructed with no service because these paths never reach it.

func TestCreateRequirementRejectsMissingRole(t *testing.T) {
	h := NewRequirementHandler(nil)

	req := httptest.NewRequest(http.MethodPost, "/api/requirements", strings.NewReader(`{}`))
	rr := httptest.NewRecorder()
	h.CreateRequirement(rr, req)

	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestCreateRequirementRejectsUnknownStatus(t *testing.T) {
	h := NewRequirementHandler(nil)

	body := `{"projectId":"p1","title":"X","description":"Y","status":"archived"}`
	req := httptest.NewRequest(http.MethodPost, "/api/requirements", strings.NewReader(body))
	req.Header.Set("Role", "manager")
	rr := httptest.NewRecorder()
	h.CreateRequirement(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "status")
}

func TestEditRequirementRejectsUnknownPriority(t *testing.T) {
	h := NewRequirementHandler(nil)

	body := `{"priority":"urgent"}`
	req := httptest.NewRequest(http.MethodPut, "/api/requirements/abc", strings.NewReader(body))
	req.Header.Set("Role", "member")
	rr := httptest.NewRecorder()
	h.EditRequirement(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "priority")
}

func TestActorNameDefaultsToUnknown(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Equal(t, "Unknown", actorName(req))

	req.Header.Set("X-User-Name", "Ana")
	assert.Equal(t, "Ana", actorName(req))
}
