package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// FirefliesClient fetches full transcripts from the Fireflies GraphQL API
// once the inbound webhook announces one is ready.
type FirefliesClient struct {
	apiURL     string
	apiKey     string
	httpClient *http.Client
}

func NewFirefliesClient(apiURL, apiKey string) *FirefliesClient {
	return &FirefliesClient{
		apiURL:     apiURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

type FirefliesSentence struct {
	Speaker string `json:"speaker_name"`
	Text    string `json:"text"`
}

type FirefliesTranscript struct {
	ID            string              `json:"id"`
	Title         string              `json:"title"`
	HostEmail     string              `json:"host_email"`
	Participants  []string            `json:"participants"`
	Duration      float64             `json:"duration"`
	TranscriptURL string              `json:"transcript_url"`
	Sentences     []FirefliesSentence `json:"sentences"`
}

// PlainText flattens the sentence list into "Speaker: text" lines.
func (t *FirefliesTranscript) PlainText() string {
	var b strings.Builder
	for _, sentence := range t.Sentences {
		if sentence.Speaker != "" {
			b.WriteString(sentence.Speaker)
			b.WriteString(": ")
		}
		b.WriteString(sentence.Text)
		b.WriteString("\n")
	}
	return b.String()
}

const transcriptQuery = `query Transcript($transcriptId: String!) {
  transcript(id: $transcriptId) {
    id
    title
    host_email
    participants
    duration
    transcript_url
    sentences {
      speaker_name
      text
    }
  }
}`

type firefliesGraphQLRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables"`
}

type firefliesGraphQLResponse struct {
	Data struct {
		Transcript *FirefliesTranscript `json:"transcript"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

func (c *FirefliesClient) GetTranscript(ctx context.Context, transcriptID string) (*FirefliesTranscript, error) {
	payload := firefliesGraphQLRequest{
		Query:     transcriptQuery,
		Variables: map[string]interface{}{"transcriptId": transcriptID},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode transcript query: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("transcript request failed: %v", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read transcript response: %v", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("transcript endpoint returned %d: %s", resp.StatusCode, truncate(string(respBody), 200))
	}

	var parsed firefliesGraphQLResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode transcript response: %v", err)
	}
	if len(parsed.Errors) > 0 {
		return nil, fmt.Errorf("transcript query failed: %s", parsed.Errors[0].Message)
	}
	if parsed.Data.Transcript == nil {
		return nil, fmt.Errorf("transcript %s not found", transcriptID)
	}

	return parsed.Data.Transcript, nil
}
