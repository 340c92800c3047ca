package mongo

import (
	"context"
	"fmt"

	"github.com/Alejob60/meta-agent/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const feedbackCollection = "feedback"

// FeedbackRepository implements domain.FeedbackRepository on mongo
type FeedbackRepository struct {
	collection *mongo.Collection
}

// NewFeedbackRepository creates a new feedback repository
func NewFeedbackRepository(client *mongo.Client, database string) *FeedbackRepository {
	return &FeedbackRepository{
		collection: client.Database(database).Collection(feedbackCollection),
	}
}

func (r *FeedbackRepository) Create(ctx context.Context, feedback *domain.Feedback) error {
	if _, err := r.collection.InsertOne(ctx, feedback); err != nil {
		return fmt.Errorf("failed to insert feedback: %w", err)
	}
	return nil
}

func (r *FeedbackRepository) ListBySession(ctx context.Context, tenantID, sessionID string, limit int) ([]domain.Feedback, error) {
	filter := bson.M{"tenant_id": tenantID, "session_id": sessionID}
	opts := options.Find().SetSort(bson.M{"created_at": 1}).SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list feedback: %w", err)
	}
	defer cursor.Close(ctx)

	var results []domain.Feedback
	if err := cursor.All(ctx, &results); err != nil {
		return nil, fmt.Errorf("failed to decode feedback: %w", err)
	}

	return results, nil
}
