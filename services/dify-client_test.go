package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDifyClientRunWorkflow(t *testing.T) {
	var gotAuth string
	var gotBody difyWorkflowRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"data":{"outputs":{"updated_requirements_list":"[]","new_requirements_list":"[]"}}}`)
	}))
	defer srv.Close()

	client := NewDifyClient(srv.URL, "test-key", "wf-1")
	outputs, err := client.RunWorkflow(context.Background(), map[string]interface{}{
		"requirements_list": "[]",
	}, "u1")
	require.NoError(t, err)

	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, "blocking", gotBody.ResponseMode)
	assert.Equal(t, "wf-1", gotBody.WorkflowID)
	assert.Equal(t, "u1", gotBody.User)
	assert.Equal(t, "[]", gotBody.Inputs["requirements_list"])

	assert.Equal(t, "[]", outputs["updated_requirements_list"])
	assert.Equal(t, "[]", outputs["new_requirements_list"])
}

func TestDifyClientUpstreamErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"workflow not found"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewDifyClient(srv.URL, "test-key", "wf-1")
	_, err := client.RunWorkflow(context.Background(), map[string]interface{}{}, "u1")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestDifyClientMissingOutputs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":{}}`)
	}))
	defer srv.Close()

	client := NewDifyClient(srv.URL, "test-key", "")
	outputs, err := client.RunWorkflow(context.Background(), map[string]interface{}{}, "u1")

	require.NoError(t, err)
	assert.NotNil(t, outputs)
	assert.Empty(t, outputs)
}

func TestDifyClientBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewDifyClient(srv.URL, "test-key", "")

	// gobreaker's default ReadyToTrip opens after 5 consecutive failures.
	var lastErr error
	for i := 0; i < 7; i++ {
		_, lastErr = client.RunWorkflow(context.Background(), map[string]interface{}{}, "u1")
		require.Error(t, lastErr)
	}
	assert.Contains(t, lastErr.Error(), "circuit breaker is open")
}
