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

// CheckableRepository is the directory of monitored entities. Downtime
// schedules reference checkables by host/service name and never own them.
type CheckableRepository struct {
	collection *mongo.Collection
}

// NewCheckableRepository creates a new checkable repository
func NewCheckableRepository(db *MongoDB) *CheckableRepository {
	return &CheckableRepository{
		collection: db.GetCollection(CollectionCheckables),
	}
}

// Create inserts a new checkable
func (r *CheckableRepository) Create(ctx context.Context, checkable *model.Checkable) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if checkable.ID.IsZero() {
		checkable.ID = primitive.NewObjectID()
	}

	_, err := r.collection.InsertOne(ctxTimeout, checkable)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("checkable '%s' already exists", checkable.Key())
		}
		return fmt.Errorf("failed to create checkable: %w", err)
	}

	return nil
}

// GetByID retrieves a checkable by ID
func (r *CheckableRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*model.Checkable, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var checkable model.Checkable
	err := r.collection.FindOne(ctxTimeout, bson.M{"_id": id}).Decode(&checkable)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("checkable: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get checkable: %w", err)
	}

	return &checkable, nil
}

// GetByNames retrieves a checkable by its host name, or host/service pair.
// An empty service name selects the host itself.
func (r *CheckableRepository) GetByNames(ctx context.Context, hostName, serviceName string) (*model.Checkable, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"host_name": hostName}
	if serviceName == "" {
		filter["service_name"] = bson.M{"$in": bson.A{nil, ""}}
	} else {
		filter["service_name"] = serviceName
	}

	var checkable model.Checkable
	err := r.collection.FindOne(ctxTimeout, filter).Decode(&checkable)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("checkable '%s': %w", model.CheckableKey(hostName, serviceName), ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get checkable: %w", err)
	}

	return &checkable, nil
}

// List retrieves checkables sorted by host and service name
func (r *CheckableRepository) List(ctx context.Context) ([]model.Checkable, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{
		{Key: "host_name", Value: 1},
		{Key: "service_name", Value: 1},
	})

	cursor, err := r.collection.Find(ctxTimeout, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list checkables: %w", err)
	}
	defer cursor.Close(ctxTimeout)

	var checkables []model.Checkable
	if err := cursor.All(ctxTimeout, &checkables); err != nil {
		return nil, fmt.Errorf("failed to decode checkables: %w", err)
	}

	return checkables, nil
}

// Delete deletes a checkable
func (r *CheckableRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	result, err := r.collection.DeleteOne(ctxTimeout, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete checkable: %w", err)
	}

	if result.DeletedCount == 0 {
		return fmt.Errorf("checkable: %w", ErrNotFound)
	}

	return nil
}
