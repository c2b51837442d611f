package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/asoares/lull/internal/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DowntimeRepository owns persisted downtime records
type DowntimeRepository struct {
	collection *mongo.Collection
}

// NewDowntimeRepository creates a new downtime repository
func NewDowntimeRepository(db *MongoDB) *DowntimeRepository {
	return &DowntimeRepository{
		collection: db.GetCollection(CollectionDowntimes),
	}
}

// Create inserts a new downtime record and returns its generated identifier
func (r *DowntimeRepository) Create(ctx context.Context, downtime *model.Downtime) (primitive.ObjectID, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if downtime.ID.IsZero() {
		downtime.ID = primitive.NewObjectID()
	}

	_, err := r.collection.InsertOne(ctxTimeout, downtime)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("failed to create downtime: %w", err)
	}

	return downtime.ID, nil
}

// ListForCheckable retrieves all downtime records on a checkable
func (r *DowntimeRepository) ListForCheckable(ctx context.Context, checkableID primitive.ObjectID) ([]model.Downtime, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "start_time", Value: 1}})

	cursor, err := r.collection.Find(ctxTimeout, bson.M{"checkable_id": checkableID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list downtimes: %w", err)
	}
	defer cursor.Close(ctxTimeout)

	var downtimes []model.Downtime
	if err := cursor.All(ctxTimeout, &downtimes); err != nil {
		return nil, fmt.Errorf("failed to decode downtimes: %w", err)
	}

	return downtimes, nil
}

// List retrieves downtime records with filtering and pagination
func (r *DowntimeRepository) List(ctx context.Context, filter bson.M, page, limit int) ([]model.Downtime, int64, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	total, err := r.collection.CountDocuments(ctxTimeout, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count downtimes: %w", err)
	}

	skip := (page - 1) * limit
	opts := options.Find().
		SetSkip(int64(skip)).
		SetLimit(int64(limit)).
		SetSort(bson.D{{Key: "start_time", Value: -1}})

	cursor, err := r.collection.Find(ctxTimeout, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list downtimes: %w", err)
	}
	defer cursor.Close(ctxTimeout)

	var downtimes []model.Downtime
	if err := cursor.All(ctxTimeout, &downtimes); err != nil {
		return nil, 0, fmt.Errorf("failed to decode downtimes: %w", err)
	}

	return downtimes, total, nil
}

// SetScheduledBy tags a downtime record with the name of the schedule that
// owns it
func (r *DowntimeRepository) SetScheduledBy(ctx context.Context, id primitive.ObjectID, scheduleName string) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	update := bson.M{
		"$set": bson.M{
			"scheduled_by": scheduleName,
		},
	}

	result, err := r.collection.UpdateOne(ctxTimeout, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to tag downtime: %w", err)
	}

	if result.MatchedCount == 0 {
		return fmt.Errorf("downtime: %w", ErrNotFound)
	}

	return nil
}

// DeleteEndedBefore removes downtime records whose end time is before the
// cutoff. The janitor uses this to enforce the retention policy.
func (r *DowntimeRepository) DeleteEndedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	filter := bson.M{
		"end_time": bson.M{"$lt": cutoff},
	}

	result, err := r.collection.DeleteMany(ctxTimeout, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to delete ended downtimes: %w", err)
	}

	if result.DeletedCount > 0 {
		slog.Info("Purged ended downtimes",
			"count", result.DeletedCount,
			"cutoff", cutoff.Format(time.RFC3339),
		)
	}

	return result.DeletedCount, nil
}
