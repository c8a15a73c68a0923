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
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection is the subset of *mongo.Collection the requirement store uses.
// Tests substitute in-memory fakes built on the driver's
// NewSingleResultFromDocument/NewCursorFromDocuments helpers.
type Collection interface {
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) *mongo.SingleResult
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) (*mongo.Cursor, error)
	InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (*mongo.InsertOneResult, error)
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
	DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (*mongo.DeleteResult, error)
}

// RequirementService owns the requirements collection and its append-only
// history collection. The document update and the history append are two
// independent writes, not a transaction: a crash between them leaves the
// requirement updated with no matching history entry. Best-effort by design
// of the original flow; callers should not assume the pair is atomic.
type RequirementService struct {
	RequirementsCollection Collection
	HistoryCollection      Collection
}

func NewRequirementService(requirements, history Collection) *RequirementService {
	return &RequirementService{
		RequirementsCollection: requirements,
		HistoryCollection:      history,
	}
}

// CreateRequirement inserts a new requirement, filling in defaults for
// priority, status and origin and stamping both timestamps with the same
// instant.
func (s *RequirementService) CreateRequirement(ctx context.Context, req *models.Requirement) (*models.Requirement, error) {
	if req.Title == "" || req.Description == "" {
		return nil, fmt.Errorf("title and description are required")
	}
	if req.ProjectID == "" {
		return nil, fmt.Errorf("projectId is required")
	}

	if req.Priority == "" {
		req.Priority = models.PriorityMedium
	}
	if req.Status == "" {
		req.Status = models.StatusPending
	}
	if req.Origin == "" {
		req.Origin = models.OriginDify
	}

	now := time.Now().UTC()
	req.ID = primitive.NewObjectID()
	req.CreatedAt = now
	req.UpdatedAt = now

	result, err := s.RequirementsCollection.InsertOne(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to create requirement: %v", err)
	}
	req.ID = result.InsertedID.(primitive.ObjectID)

	return req, nil
}

func (s *RequirementService) GetRequirementByID(ctx context.Context, requirementID string) (*models.Requirement, error) {
	objectID, err := primitive.ObjectIDFromHex(requirementID)
	if err != nil {
		return nil, fmt.Errorf("invalid requirement ID format")
	}

	var req models.Requirement
	if err := s.RequirementsCollection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&req); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("requirement does not exist")
		}
		return nil, fmt.Errorf("failed to fetch requirement: %v", err)
	}
	return &req, nil
}

func (s *RequirementService) GetRequirementsByProject(ctx context.Context, projectID string) ([]models.Requirement, error) {
	cursor, err := s.RequirementsCollection.Find(ctx, bson.M{"projectId": projectID})
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve requirements: %v", err)
	}
	defer cursor.Close(ctx)

	requirements := []models.Requirement{}
	if err := cursor.All(ctx, &requirements); err != nil {
		return nil, fmt.Errorf("failed to decode requirements: %v", err)
	}
	return requirements, nil
}

func (s *RequirementService) DeleteRequirement(ctx context.Context, requirementID string) error {
	objectID, err := primitive.ObjectIDFromHex(requirementID)
	if err != nil {
		return fmt.Errorf("invalid requirement ID format")
	}

	result, err := s.RequirementsCollection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return fmt.Errorf("failed to delete requirement: %v", err)
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("requirement does not exist")
	}

	logging.Logger.Infof("Event ID: REQUIREMENT_DELETED, Description: Requirement %s deleted", requirementID)
	return nil
}

// EditRequirement applies a partial update to a requirement and appends one
// history entry recording the diff over the tracked-field set. If the
// document does not exist the patch falls through to createViaEdit, which
// writes a fresh document with no history entry.
//
// The diff is computed over the fixed tracked-field list, not the keys the
// patch actually carries: a patch that only changes responsible still
// produces an entry, with nil old/new values on every tracked field. That is
// the historical behavior of the audit trail and is pinned by tests.
func (s *RequirementService) EditRequirement(ctx context.Context, requirementID string, patch models.RequirementPatch, actor, reason, origin, meetingID string) (*models.Requirement, error) {
	objectID, err := primitive.ObjectIDFromHex(requirementID)
	if err != nil {
		return nil, fmt.Errorf("invalid requirement ID format")
	}

	var current models.Requirement
	err = s.RequirementsCollection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&current)
	if err == mongo.ErrNoDocuments {
		return s.createViaEdit(ctx, objectID, patch, origin)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch requirement: %v", err)
	}

	previousState := current.TrackedSnapshot()
	now := time.Now().UTC()

	set := bson.M{"updatedAt": now}
	if patch.ProjectID != nil {
		set["projectId"] = *patch.ProjectID
	}
	if patch.Title != nil {
		set["title"] = *patch.Title
	}
	if patch.Description != nil {
		set["description"] = *patch.Description
	}
	if patch.Priority != nil {
		set["priority"] = *patch.Priority
	}
	if patch.Status != nil {
		set["status"] = *patch.Status
	}
	if patch.Responsible != nil {
		set["responsible"] = *patch.Responsible
	}
	if patch.Reason != nil {
		set["reason"] = *patch.Reason
	}
	if patch.Origin != nil {
		set["origin"] = *patch.Origin
	}

	if _, err := s.RequirementsCollection.UpdateOne(ctx, bson.M{"_id": objectID}, bson.M{"$set": set}); err != nil {
		return nil, fmt.Errorf("failed to update requirement: %v", err)
	}

	if actor == "" {
		actor = "Unknown"
	}
	entry := models.RequirementHistoryEntry{
		ID:            primitive.NewObjectID(),
		RequirementID: requirementID,
		ChangedAt:     now,
		ChangedBy:     actor,
		Origin:        origin,
		Reason:        reason,
		MeetingID:     meetingID,
		Kind:          models.HistoryKindFieldDiff,
		Fields:        models.DiffTrackedFields(previousState, patch.TrackedSnapshot(now)),
	}
	if _, err := s.HistoryCollection.InsertOne(ctx, entry); err != nil {
		// Document update already landed; the edit stands undocumented.
		return nil, fmt.Errorf("requirement updated but history append failed: %v", err)
	}

	patch.ApplyTo(&current)
	current.UpdatedAt = now
	return &current, nil
}

// createViaEdit is the named upsert path: an edit addressed to a missing
// document creates it instead, and no history entry is written.
func (s *RequirementService) createViaEdit(ctx context.Context, objectID primitive.ObjectID, patch models.RequirementPatch, origin string) (*models.Requirement, error) {
	logging.Logger.Warnf("Event ID: REQUIREMENT_UPSERT, Description: Edit targeted missing requirement %s, creating it without history", objectID.Hex())

	now := time.Now().UTC()
	req := models.Requirement{
		ID:        objectID,
		Priority:  models.PriorityMedium,
		Status:    models.StatusPending,
		Origin:    origin,
		CreatedAt: now,
		UpdatedAt: now,
	}
	patch.ApplyTo(&req)
	if req.Origin == "" {
		req.Origin = models.OriginDify
	}

	if _, err := s.RequirementsCollection.InsertOne(ctx, &req); err != nil {
		return nil, fmt.Errorf("failed to create requirement via edit: %v", err)
	}
	return &req, nil
}

// GetHistory returns a requirement's history entries, newest first.
func (s *RequirementService) GetHistory(ctx context.Context, requirementID string) ([]models.RequirementHistoryEntry, error) {
	opts := options.Find().SetSort(bson.M{"changedAt": -1})
	cursor, err := s.HistoryCollection.Find(ctx, bson.M{"requirementId": requirementID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve history: %v", err)
	}
	defer cursor.Close(ctx)

	entries := []models.RequirementHistoryEntry{}
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode history entries: %v", err)
	}
	return entries, nil
}
