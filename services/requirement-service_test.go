package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/SmartSpecsAI/smartspecs-backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// fakeCollection implements Collection over a single stored document, using
// the driver's own helpers so Decode goes through real bson marshaling.
type fakeCollection struct {
	doc       *models.Requirement
	inserted  []interface{}
	updates   []bson.M
	insertErr error
}

func (f *fakeCollection) FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) *mongo.SingleResult {
	if f.doc == nil {
		return mongo.NewSingleResultFromDocument(bson.D{}, mongo.ErrNoDocuments, nil)
	}
	return mongo.NewSingleResultFromDocument(f.doc, nil, nil)
}

func (f *fakeCollection) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) (*mongo.Cursor, error) {
	return mongo.NewCursorFromDocuments(f.inserted, nil, nil)
}

func (f *fakeCollection) InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (*mongo.InsertOneResult, error) {
	if f.insertErr != nil {
		return nil, f.insertErr
	}
	f.inserted = append(f.inserted, document)
	switch doc := document.(type) {
	case *models.Requirement:
		return &mongo.InsertOneResult{InsertedID: doc.ID}, nil
	case models.RequirementHistoryEntry:
		return &mongo.InsertOneResult{InsertedID: doc.ID}, nil
	}
	return &mongo.InsertOneResult{InsertedID: primitive.NewObjectID()}, nil
}

func (f *fakeCollection) UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error) {
	if u, ok := update.(bson.M); ok {
		f.updates = append(f.updates, u)
	}
	return &mongo.UpdateResult{MatchedCount: 1, ModifiedCount: 1}, nil
}

func (f *fakeCollection) DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (*mongo.DeleteResult, error) {
	if f.doc == nil {
		return &mongo.DeleteResult{DeletedCount: 0}, nil
	}
	f.doc = nil
	return &mongo.DeleteResult{DeletedCount: 1}, nil
}

func storedRequirement() *models.Requirement {
	return &models.Requirement{
		ID:          primitive.NewObjectID(),
		ProjectID:   "p1",
		Title:       "Login bug",
		Description: "Cannot log in",
		Priority:    models.PriorityHigh,
		Status:      models.StatusPending,
		Origin:      models.OriginManual,
		CreatedAt:   time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
		UpdatedAt:   time.Date(2025, 3, 2, 10, 0, 0, 0, time.UTC),
	}
}

func TestEditRequirementAppendsExactlyOneHistoryEntry(t *testing.T) {
	stored := storedRequirement()
	requirements := &fakeCollection{doc: stored}
	history := &fakeCollection{}
	s := NewRequirementService(requirements, history)

	newStatus := models.StatusInProgress
	patch := models.RequirementPatch{Status: &newStatus}
	updated, err := s.EditRequirement(context.Background(), stored.ID.Hex(), patch, "Ana", "status change", models.OriginManual, "")
	require.NoError(t, err)

	require.Len(t, history.inserted, 1, "exactly one history entry per edit")
	entry, ok := history.inserted[0].(models.RequirementHistoryEntry)
	require.True(t, ok)

	assert.Equal(t, stored.ID.Hex(), entry.RequirementID)
	assert.Equal(t, "Ana", entry.ChangedBy)
	assert.Equal(t, "status change", entry.Reason)
	assert.Equal(t, models.OriginManual, entry.Origin)
	assert.Equal(t, "", entry.MeetingID)
	assert.Equal(t, models.HistoryKindFieldDiff, entry.Kind)
	assert.False(t, entry.ChangedAt.Before(stored.UpdatedAt), "changedAt must not precede the previous updatedAt")

	status := entry.Fields["status"]
	require.NotNil(t, status.OldValue)
	require.NotNil(t, status.NewValue)
	assert.Equal(t, "pending", *status.OldValue)
	assert.Equal(t, "in_progress", *status.NewValue)

	// Union semantics on the returned document, with a strictly newer stamp.
	assert.Equal(t, models.StatusInProgress, updated.Status)
	assert.Equal(t, "Login bug", updated.Title)
	assert.True(t, updated.UpdatedAt.After(stored.UpdatedAt))

	// The store saw one partial update touching only status and updatedAt.
	require.Len(t, requirements.updates, 1)
	set, ok := requirements.updates[0]["$set"].(bson.M)
	require.True(t, ok)
	assert.Contains(t, set, "status")
	assert.Contains(t, set, "updatedAt")
	assert.NotContains(t, set, "title")
	assert.NotContains(t, set, "description")
}

func TestEditRequirementActorDefaultsToUnknown(t *testing.T) {
	stored := storedRequirement()
	history := &fakeCollection{}
	s := NewRequirementService(&fakeCollection{doc: stored}, history)

	title := "Renamed"
	_, err := s.EditRequirement(context.Background(), stored.ID.Hex(), models.RequirementPatch{Title: &title}, "", "", models.OriginManual, "")
	require.NoError(t, err)

	require.Len(t, history.inserted, 1)
	entry := history.inserted[0].(models.RequirementHistoryEntry)
	assert.Equal(t, "Unknown", entry.ChangedBy)
}

// An edit addressed to a missing document takes the createViaEdit path: the
// document is created fresh and no history entry is written.
func TestEditRequirementMissingDocumentCreatesWithoutHistory(t *testing.T) {
	requirements := &fakeCollection{}
	history := &fakeCollection{}
	s := NewRequirementService(requirements, history)

	id := primitive.NewObjectID()
	title := "New requirement"
	description := "Arrived via edit"
	patch := models.RequirementPatch{Title: &title, Description: &description}

	created, err := s.EditRequirement(context.Background(), id.Hex(), patch, "Ana", "", models.OriginManual, "")
	require.NoError(t, err)

	assert.Empty(t, history.inserted, "upsert path must not write history")
	require.Len(t, requirements.inserted, 1)

	doc := requirements.inserted[0].(*models.Requirement)
	assert.Equal(t, id, doc.ID)
	assert.Equal(t, "New requirement", doc.Title)
	assert.Equal(t, models.PriorityMedium, doc.Priority)
	assert.Equal(t, models.StatusPending, doc.Status)
	assert.Equal(t, models.OriginManual, doc.Origin)
	assert.True(t, created.CreatedAt.Equal(created.UpdatedAt))
}

func TestEditRequirementHistoryAppendFailure(t *testing.T) {
	stored := storedRequirement()
	requirements := &fakeCollection{doc: stored}
	history := &fakeCollection{insertErr: fmt.Errorf("disk full")}
	s := NewRequirementService(requirements, history)

	title := "Renamed"
	_, err := s.EditRequirement(context.Background(), stored.ID.Hex(), models.RequirementPatch{Title: &title}, "Ana", "", models.OriginManual, "")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "requirement updated but history append failed")
	// The document write already landed before the append failed.
	require.Len(t, requirements.updates, 1)
}

func TestCreateRequirementDefaults(t *testing.T) {
	requirements := &fakeCollection{}
	s := NewRequirementService(requirements, &fakeCollection{})

	created, err := s.CreateRequirement(context.Background(), &models.Requirement{
		ProjectID:   "p1",
		Title:       "Login bug",
		Description: "Cannot log in",
		Priority:    models.PriorityHigh,
	})
	require.NoError(t, err)

	assert.False(t, created.ID.IsZero())
	assert.Equal(t, models.PriorityHigh, created.Priority)
	assert.Equal(t, models.StatusPending, created.Status)
	assert.Equal(t, models.OriginDify, created.Origin, "origin defaults to Dify when unset")
	assert.True(t, created.CreatedAt.Equal(created.UpdatedAt))
}

func TestCreateRequirementRequiresFields(t *testing.T) {
	s := NewRequirementService(&fakeCollection{}, &fakeCollection{})

	_, err := s.CreateRequirement(context.Background(), &models.Requirement{Title: "no description"})
	require.Error(t, err)

	_, err = s.CreateRequirement(context.Background(), &models.Requirement{Title: "x", Description: "y"})
	require.Error(t, err, "projectId is required")
}
