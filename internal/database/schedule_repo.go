package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/asoares/lull/internal/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ScheduleRepository handles downtime schedule operations
type ScheduleRepository struct {
	collection *mongo.Collection
}

// NewScheduleRepository creates a new schedule repository
func NewScheduleRepository(db *MongoDB) *ScheduleRepository {
	return &ScheduleRepository{
		collection: db.GetCollection(CollectionDowntimeSchedules),
	}
}

// Create inserts a new downtime schedule
func (r *ScheduleRepository) Create(ctx context.Context, schedule *model.DowntimeSchedule) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if schedule.ID.IsZero() {
		schedule.ID = primitive.NewObjectID()
	}

	_, err := r.collection.InsertOne(ctxTimeout, schedule)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("schedule with name '%s' already exists", schedule.Name)
		}
		return fmt.Errorf("failed to create schedule: %w", err)
	}

	return nil
}

// GetByID retrieves a downtime schedule by ID
func (r *ScheduleRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*model.DowntimeSchedule, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var schedule model.DowntimeSchedule
	err := r.collection.FindOne(ctxTimeout, bson.M{"_id": id}).Decode(&schedule)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("schedule: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get schedule: %w", err)
	}

	return &schedule, nil
}

// GetByName retrieves a downtime schedule by its composed name
func (r *ScheduleRepository) GetByName(ctx context.Context, name string) (*model.DowntimeSchedule, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var schedule model.DowntimeSchedule
	err := r.collection.FindOne(ctxTimeout, bson.M{"name": name}).Decode(&schedule)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("schedule: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get schedule: %w", err)
	}

	return &schedule, nil
}

// List retrieves downtime schedules with pagination
func (r *ScheduleRepository) List(ctx context.Context, filter bson.M, page, limit int) ([]model.DowntimeSchedule, int64, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	total, err := r.collection.CountDocuments(ctxTimeout, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count schedules: %w", err)
	}

	skip := (page - 1) * limit
	opts := options.Find().
		SetSkip(int64(skip)).
		SetLimit(int64(limit)).
		SetSort(bson.D{{Key: "name", Value: 1}})

	cursor, err := r.collection.Find(ctxTimeout, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list schedules: %w", err)
	}
	defer cursor.Close(ctxTimeout)

	var schedules []model.DowntimeSchedule
	if err := cursor.All(ctxTimeout, &schedules); err != nil {
		return nil, 0, fmt.Errorf("failed to decode schedules: %w", err)
	}

	return schedules, total, nil
}

// FindActive retrieves all enabled schedules. The dispatcher re-evaluates
// every one of them on each tick.
func (r *ScheduleRepository) FindActive(ctx context.Context) ([]model.DowntimeSchedule, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	cursor, err := r.collection.Find(ctxTimeout, bson.M{"enabled": true})
	if err != nil {
		return nil, fmt.Errorf("failed to find active schedules: %w", err)
	}
	defer cursor.Close(ctxTimeout)

	var schedules []model.DowntimeSchedule
	if err := cursor.All(ctxTimeout, &schedules); err != nil {
		return nil, fmt.Errorf("failed to decode active schedules: %w", err)
	}

	return schedules, nil
}

// Delete deletes a downtime schedule. Downtime records it already created
// are left in place.
func (r *ScheduleRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	result, err := r.collection.DeleteOne(ctxTimeout, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete schedule: %w", err)
	}

	if result.DeletedCount == 0 {
		return fmt.Errorf("schedule: %w", ErrNotFound)
	}

	return nil
}
