package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PendingMeetingMetadata carries what the transcription provider knew about
// the call; transcriptId is the provider-side identifier the webhook supplied.
type PendingMeetingMetadata struct {
	TranscriptID string   `json:"transcriptId" bson:"transcriptId"`
	Host         string   `json:"host" bson:"host"`
	Participants []string `json:"participants" bson:"participants"`
	Duration     float64  `json:"duration" bson:"duration"`
	SourceURL    string   `json:"sourceUrl" bson:"sourceUrl"`
}

// PendingMeeting is created by the inbound transcription webhook and lives
// until a user accepts it (copied into a Meeting, synchronizer triggered,
// then deleted) or rejects it (deleted directly).
type PendingMeeting struct {
	ID            primitive.ObjectID     `json:"id,omitempty" bson:"_id,omitempty"`
	ProjectID     string                 `json:"projectId" bson:"projectId"`
	Title         string                 `json:"title" bson:"title"`
	Description   string                 `json:"description" bson:"description"`
	Transcription string                 `json:"transcription" bson:"transcription"`
	Metadata      PendingMeetingMetadata `json:"metadata" bson:"metadata"`
	CreatedAt     time.Time              `json:"createdAt" bson:"createdAt"`
}
