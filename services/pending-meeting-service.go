package services

import (
	"context"
	"fmt"
	"time"

	"github.com/SmartSpecsAI/smartspecs-backend/logging"
	"github.com/SmartSpecsAI/smartspecs-backend/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// PendingMeetingService manages meetings waiting for a user decision.
// Accepting one is a linear one-shot pipeline: copy into a meeting, run the
// synchronizer, delete the pending document. There is no resumability; if the
// process dies mid-pipeline the remaining steps simply never run.
type PendingMeetingService struct {
	PendingCollection *mongo.Collection
	Projects          *ProjectService
	Meetings          *MeetingService
	Requirements      *RequirementService
	Sync              *SyncService
}

func NewPendingMeetingService(pending *mongo.Collection, projects *ProjectService, meetings *MeetingService, requirements *RequirementService, sync *SyncService) *PendingMeetingService {
	return &PendingMeetingService{
		PendingCollection: pending,
		Projects:          projects,
		Meetings:          meetings,
		Requirements:      requirements,
		Sync:              sync,
	}
}

// CreateFromTranscript stores one pending meeting for a transcript the
// webhook announced. clientReferenceID, when the provider passed one through,
// is the project the meeting belongs to.
func (s *PendingMeetingService) CreateFromTranscript(ctx context.Context, transcript *FirefliesTranscript, clientReferenceID string) (*models.PendingMeeting, error) {
	if transcript == nil {
		return nil, fmt.Errorf("transcript is required")
	}

	title := transcript.Title
	if title == "" {
		title = "Untitled meeting"
	}

	pending := &models.PendingMeeting{
		ID:            primitive.NewObjectID(),
		ProjectID:     clientReferenceID,
		Title:         title,
		Description:   fmt.Sprintf("Imported from Fireflies transcript %s", transcript.ID),
		Transcription: transcript.PlainText(),
		Metadata: models.PendingMeetingMetadata{
			TranscriptID: transcript.ID,
			Host:         transcript.HostEmail,
			Participants: transcript.Participants,
			Duration:     transcript.Duration,
			SourceURL:    transcript.TranscriptURL,
		},
		CreatedAt: time.Now().UTC(),
	}

	result, err := s.PendingCollection.InsertOne(ctx, pending)
	if err != nil {
		return nil, fmt.Errorf("failed to create pending meeting: %v", err)
	}
	pending.ID = result.InsertedID.(primitive.ObjectID)

	logging.Logger.Infof("Event ID: PENDING_MEETING_CREATED, Description: Pending meeting %s created for transcript %s", pending.ID.Hex(), transcript.ID)
	return pending, nil
}

func (s *PendingMeetingService) ListPendingMeetings(ctx context.Context) ([]models.PendingMeeting, error) {
	cursor, err := s.PendingCollection.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve pending meetings: %v", err)
	}
	defer cursor.Close(ctx)

	pending := []models.PendingMeeting{}
	if err := cursor.All(ctx, &pending); err != nil {
		return nil, fmt.Errorf("failed to decode pending meetings: %v", err)
	}
	return pending, nil
}

func (s *PendingMeetingService) GetPendingMeetingByID(ctx context.Context, pendingID string) (*models.PendingMeeting, error) {
	objectID, err := primitive.ObjectIDFromHex(pendingID)
	if err != nil {
		return nil, fmt.Errorf("invalid pending meeting ID format")
	}

	var pending models.PendingMeeting
	if err := s.PendingCollection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&pending); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("pending meeting does not exist")
		}
		return nil, fmt.Errorf("failed to fetch pending meeting: %v", err)
	}
	return &pending, nil
}

// AcceptPendingMeeting turns a pending meeting into a real one and runs the
// synchronizer over the project's current requirements. projectID overrides
// the one captured from the webhook when supplied.
func (s *PendingMeetingService) AcceptPendingMeeting(ctx context.Context, pendingID, projectID string) (*models.Meeting, *SyncReport, error) {
	pending, err := s.GetPendingMeetingByID(ctx, pendingID)
	if err != nil {
		return nil, nil, err
	}

	if projectID == "" {
		projectID = pending.ProjectID
	}
	if projectID == "" {
		return nil, nil, fmt.Errorf("pending meeting has no project and none was supplied")
	}

	project, err := s.Projects.GetProjectByID(ctx, projectID)
	if err != nil {
		return nil, nil, err
	}

	meeting, err := s.Meetings.CreateMeeting(ctx, projectID, pending.Title, pending.Description, pending.Transcription)
	if err != nil {
		return nil, nil, err
	}

	existing, err := s.Requirements.GetRequirementsByProject(ctx, projectID)
	if err != nil {
		return nil, nil, err
	}

	report, err := s.Sync.SyncFromMeeting(ctx, project, meeting, existing)
	if err != nil {
		// The meeting already exists; only the requirement sync failed.
		return meeting, nil, fmt.Errorf("meeting created but sync failed: %v", err)
	}

	if err := s.DeletePendingMeeting(ctx, pendingID); err != nil {
		logging.Logger.Warnf("Event ID: PENDING_MEETING_CLEANUP_FAILED, Description: Accepted pending meeting %s could not be deleted: %v", pendingID, err)
	}

	return meeting, report, nil
}

func (s *PendingMeetingService) DeletePendingMeeting(ctx context.Context, pendingID string) error {
	objectID, err := primitive.ObjectIDFromHex(pendingID)
	if err != nil {
		return fmt.Errorf("invalid pending meeting ID format")
	}

	result, err := s.PendingCollection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return fmt.Errorf("failed to delete pending meeting: %v", err)
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("pending meeting does not exist")
	}
	return nil
}
