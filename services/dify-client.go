package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
)

// DifyClient runs the "extract requirements from transcript" workflow on the
// external Dify API. Calls go through a circuit breaker so a misbehaving
// upstream stops burning request timeouts once it has failed repeatedly.
type DifyClient struct {
	apiURL     string
	apiKey     string
	workflowID string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
}

func NewDifyClient(apiURL, apiKey, workflowID string) *DifyClient {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "dify-workflow",
		Timeout: 30 * time.Second,
	})
	return &DifyClient{
		apiURL:     apiURL,
		apiKey:     apiKey,
		workflowID: workflowID,
		httpClient: &http.Client{Timeout: 120 * time.Second},
		breaker:    breaker,
	}
}

type difyWorkflowRequest struct {
	Inputs       map[string]interface{} `json:"inputs"`
	ResponseMode string                 `json:"response_mode"`
	User         string                 `json:"user"`
	WorkflowID   string                 `json:"workflow_id,omitempty"`
}

type difyWorkflowResponse struct {
	Data struct {
		Outputs map[string]interface{} `json:"outputs"`
	} `json:"data"`
}

// RunWorkflow posts the workflow inputs and returns the raw outputs map.
func (c *DifyClient) RunWorkflow(ctx context.Context, inputs map[string]interface{}, user string) (map[string]interface{}, error) {
	payload := difyWorkflowRequest{
		Inputs:       inputs,
		ResponseMode: "blocking",
		User:         user,
		WorkflowID:   c.workflowID,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode workflow request: %v", err)
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.apiKey)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("workflow request failed: %v", err)
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read workflow response: %v", err)
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, fmt.Errorf("workflow endpoint returned %d: %s", resp.StatusCode, truncate(string(respBody), 200))
		}

		var parsed difyWorkflowResponse
		if err := json.Unmarshal(respBody, &parsed); err != nil {
			return nil, fmt.Errorf("failed to decode workflow response: %v", err)
		}
		return parsed.Data.Outputs, nil
	})
	if err != nil {
		return nil, err
	}

	outputs, _ := result.(map[string]interface{})
	if outputs == nil {
		outputs = map[string]interface{}{}
	}
	return outputs, nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
