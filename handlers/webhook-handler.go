package handlers

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/SmartSpecsAI/smartspecs-backend/logging"
	"github.com/SmartSpecsAI/smartspecs-backend/models"
	"github.com/SmartSpecsAI/smartspecs-backend/services"
)

const maxWebhookBodySize = 1 << 20 // 1MB

// eventTranscriptionCompleted is the only Fireflies event this service acts
// on; everything else is acknowledged and dropped.
const eventTranscriptionCompleted = "Transcription completed"

// TranscriptFetcher is the slice of FirefliesClient the webhook needs.
type TranscriptFetcher interface {
	GetTranscript(ctx context.Context, transcriptID string) (*services.FirefliesTranscript, error)
}

// PendingMeetingCreator is the slice of PendingMeetingService the webhook
// writes through.
type PendingMeetingCreator interface {
	CreateFromTranscript(ctx context.Context, transcript *services.FirefliesTranscript, clientReferenceID string) (*models.PendingMeeting, error)
}

// WebhookHandler receives transcription-completed notifications. The route is
// not behind the JWT middleware; authenticity comes from the HMAC signature
// instead, and verification is skipped (not rejected) when no secret is
// configured.
type WebhookHandler struct {
	fireflies TranscriptFetcher
	pending   PendingMeetingCreator
	secret    string
}

func NewWebhookHandler(fireflies TranscriptFetcher, pending PendingMeetingCreator, secret string) *WebhookHandler {
	return &WebhookHandler{fireflies: fireflies, pending: pending, secret: secret}
}

type firefliesWebhookEvent struct {
	MeetingID         string `json:"meetingId"`
	EventType         string `json:"eventType"`
	ClientReferenceID string `json:"clientReferenceId"`
}

func (h *WebhookHandler) HandleFirefliesWebhook(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxWebhookBodySize)
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r.Body); err != nil {
		http.Error(w, "failed to read request body", http.StatusBadRequest)
		return
	}
	body := buf.Bytes()

	if h.secret != "" {
		if !verifySignature(body, r.Header.Get("x-hub-signature"), h.secret) {
			logging.Logger.Warnf("Event ID: WEBHOOK_BAD_SIGNATURE, Description: Rejected webhook with missing or invalid signature")
			http.Error(w, "invalid signature", http.StatusUnauthorized)
			return
		}
	}

	var event firefliesWebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		http.Error(w, "invalid webhook payload", http.StatusBadRequest)
		return
	}
	if event.MeetingID == "" {
		http.Error(w, "meetingId is required", http.StatusBadRequest)
		return
	}

	if event.EventType != eventTranscriptionCompleted {
		logging.Logger.Infof("Event ID: WEBHOOK_EVENT_IGNORED, Description: Ignoring webhook event type %q for meeting %s", event.EventType, event.MeetingID)
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "ignored"})
		return
	}

	transcript, err := h.fireflies.GetTranscript(r.Context(), event.MeetingID)
	if err != nil {
		logging.Logger.Warnf("Event ID: WEBHOOK_TRANSCRIPT_FETCH_FAILED, Description: Could not fetch transcript %s: %v", event.MeetingID, err)
		http.Error(w, "failed to fetch transcript", http.StatusBadGateway)
		return
	}

	pending, err := h.pending.CreateFromTranscript(r.Context(), transcript, event.ClientReferenceID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status":           "ok",
		"pendingMeetingId": pending.ID.Hex(),
	})
}

// verifySignature checks the HMAC-SHA256 hex digest of the body against the
// x-hub-signature header, with or without the "sha256=" prefix, in constant
// time.
func verifySignature(body []byte, signature, secret string) bool {
	if signature == "" {
		return false
	}
	signature = strings.TrimPrefix(signature, "sha256=")

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(signature))
}
