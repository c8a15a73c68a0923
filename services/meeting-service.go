package services

import (
	"context"
	"fmt"
	"time"

	"github.com/SmartSpecsAI/smartspecs-backend/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type MeetingService struct {
	MeetingsCollection *mongo.Collection
}

func NewMeetingService(meetings *mongo.Collection) *MeetingService {
	return &MeetingService{MeetingsCollection: meetings}
}

func (s *MeetingService) CreateMeeting(ctx context.Context, projectID, title, description, transcription string) (*models.Meeting, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectId is required")
	}
	if title == "" {
		return nil, fmt.Errorf("meeting title is required")
	}

	now := time.Now().UTC()
	meeting := &models.Meeting{
		ID:            primitive.NewObjectID(),
		ProjectID:     projectID,
		Title:         title,
		Description:   description,
		Transcription: transcription,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	result, err := s.MeetingsCollection.InsertOne(ctx, meeting)
	if err != nil {
		return nil, fmt.Errorf("failed to create meeting: %v", err)
	}
	meeting.ID = result.InsertedID.(primitive.ObjectID)

	return meeting, nil
}

func (s *MeetingService) GetMeetingByID(ctx context.Context, meetingID string) (*models.Meeting, error) {
	objectID, err := primitive.ObjectIDFromHex(meetingID)
	if err != nil {
		return nil, fmt.Errorf("invalid meeting ID format")
	}

	var meeting models.Meeting
	if err := s.MeetingsCollection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&meeting); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("meeting does not exist")
		}
		return nil, fmt.Errorf("failed to fetch meeting: %v", err)
	}
	return &meeting, nil
}

func (s *MeetingService) GetMeetingsByProject(ctx context.Context, projectID string) ([]models.Meeting, error) {
	cursor, err := s.MeetingsCollection.Find(ctx, bson.M{"projectId": projectID})
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve meetings: %v", err)
	}
	defer cursor.Close(ctx)

	meetings := []models.Meeting{}
	if err := cursor.All(ctx, &meetings); err != nil {
		return nil, fmt.Errorf("failed to decode meetings: %v", err)
	}
	return meetings, nil
}

// UpdateMeeting touches title and description only; the transcription is
// immutable once the meeting exists.
func (s *MeetingService) UpdateMeeting(ctx context.Context, meetingID, title, description string) (*models.Meeting, error) {
	objectID, err := primitive.ObjectIDFromHex(meetingID)
	if err != nil {
		return nil, fmt.Errorf("invalid meeting ID format")
	}

	set := bson.M{"updatedAt": time.Now().UTC()}
	if title != "" {
		set["title"] = title
	}
	if description != "" {
		set["description"] = description
	}

	result, err := s.MeetingsCollection.UpdateOne(ctx, bson.M{"_id": objectID}, bson.M{"$set": set})
	if err != nil {
		return nil, fmt.Errorf("failed to update meeting: %v", err)
	}
	if result.MatchedCount == 0 {
		return nil, fmt.Errorf("meeting does not exist")
	}

	return s.GetMeetingByID(ctx, meetingID)
}

func (s *MeetingService) DeleteMeeting(ctx context.Context, meetingID string) error {
	objectID, err := primitive.ObjectIDFromHex(meetingID)
	if err != nil {
		return fmt.Errorf("invalid meeting ID format")
	}

	result, err := s.MeetingsCollection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return fmt.Errorf("failed to delete meeting: %v", err)
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("meeting does not exist")
	}
	return nil
}
