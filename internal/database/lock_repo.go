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

// LockRepository serializes reconciliations per schedule. Two reconciles of
// the same schedule must never run concurrently, whether racing ticks of
// this instance, another instance, or an API-triggered reconcile.
type LockRepository struct {
	collection *mongo.Collection
}

// NewLockRepository creates a new lock repository
func NewLockRepository(db *MongoDB) *LockRepository {
	return &LockRepository{
		collection: db.GetCollection(CollectionScheduleLocks),
	}
}

// AcquireLock attempts to acquire the lock for a schedule. Returns true if
// the lock was acquired, false if another holder owns it. Uses
// FindOneAndUpdate with upsert for atomic acquisition.
func (r *LockRepository) AcquireLock(ctx context.Context, scheduleID primitive.ObjectID, owner string, ttl time.Duration) (bool, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	now := time.Now().UTC()
	expiresAt := now.Add(ttl)

	// Either no lock exists for this schedule, or the existing lock expired
	filter := bson.M{
		"schedule_id": scheduleID,
		"$or": []bson.M{
			{"expires_at": bson.M{"$lt": now}},
			{"expires_at": bson.M{"$exists": false}},
		},
	}

	update := bson.M{
		"$set": bson.M{
			"schedule_id": scheduleID,
			"locked_by":   owner,
			"locked_at":   now,
			"expires_at":  expiresAt,
		},
	}

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var result model.ScheduleLock
	err := r.collection.FindOneAndUpdate(ctxTimeout, filter, update, opts).Decode(&result)

	if err != nil {
		if err == mongo.ErrNoDocuments || mongo.IsDuplicateKeyError(err) {
			// Lock is held by another owner and has not expired
			return false, nil
		}
		return false, fmt.Errorf("failed to acquire lock: %w", err)
	}

	if result.LockedBy != owner {
		return false, nil
	}

	slog.Debug("Acquired schedule lock",
		"schedule_id", scheduleID.Hex(),
		"owner", owner,
		"expires_at", expiresAt,
	)

	return true, nil
}

// ReleaseLock releases a schedule lock, but only if it is owned by the
// specified owner.
func (r *LockRepository) ReleaseLock(ctx context.Context, scheduleID primitive.ObjectID, owner string) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{
		"schedule_id": scheduleID,
		"locked_by":   owner,
	}

	result, err := r.collection.DeleteOne(ctxTimeout, filter)
	if err != nil {
		return fmt.Errorf("failed to release lock: %w", err)
	}

	if result.DeletedCount > 0 {
		slog.Debug("Released schedule lock",
			"schedule_id", scheduleID.Hex(),
			"owner", owner,
		)
	}

	return nil
}

// ReleaseAllLocks releases all locks owned by the specified owner. Called
// during graceful shutdown.
func (r *LockRepository) ReleaseAllLocks(ctx context.Context, owner string) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	filter := bson.M{
		"locked_by": owner,
	}

	result, err := r.collection.DeleteMany(ctxTimeout, filter)
	if err != nil {
		return fmt.Errorf("failed to release all locks: %w", err)
	}

	if result.DeletedCount > 0 {
		slog.Info("Released all schedule locks during shutdown",
			"owner", owner,
			"count", result.DeletedCount,
		)
	}

	return nil
}

// CleanExpiredLocks removes locks that have expired, covering instances that
// crashed without releasing them.
func (r *LockRepository) CleanExpiredLocks(ctx context.Context) (int64, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	now := time.Now().UTC()
	filter := bson.M{
		"expires_at": bson.M{"$lt": now},
	}

	result, err := r.collection.DeleteMany(ctxTimeout, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to clean expired locks: %w", err)
	}

	if result.DeletedCount > 0 {
		slog.Info("Cleaned expired schedule locks",
			"count", result.DeletedCount,
		)
	}

	return result.DeletedCount, nil
}
