package database

import (
	"context"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CreateIndexes creates all necessary indexes for the collections
func CreateIndexes(ctx context.Context, db *MongoDB) error {
	slog.Info("Creating MongoDB indexes")

	if err := createCheckableIndexes(ctx, db); err != nil {
		return err
	}

	if err := createScheduleIndexes(ctx, db); err != nil {
		return err
	}

	if err := createDowntimeIndexes(ctx, db); err != nil {
		return err
	}

	if err := createScheduleLockIndexes(ctx, db); err != nil {
		return err
	}

	slog.Info("Successfully created all MongoDB indexes")
	return nil
}

func createCheckableIndexes(ctx context.Context, db *MongoDB) error {
	collection := db.GetCollection(CollectionCheckables)

	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "host_name", Value: 1},
				{Key: "service_name", Value: 1},
			},
			Options: options.Index().SetUnique(true).SetName("idx_host_service_unique"),
		},
	}

	ctxTimeout, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := collection.Indexes().CreateMany(ctxTimeout, indexes)
	if err != nil {
		return err
	}

	slog.Info("Created checkables indexes")
	return nil
}

func createScheduleIndexes(ctx context.Context, db *MongoDB) error {
	collection := db.GetCollection(CollectionDowntimeSchedules)

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "name", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("idx_name_unique"),
		},
		{
			Keys:    bson.D{{Key: "enabled", Value: 1}},
			Options: options.Index().SetName("idx_enabled"),
		},
		{
			Keys: bson.D{
				{Key: "host_name", Value: 1},
				{Key: "service_name", Value: 1},
			},
			Options: options.Index().SetName("idx_host_service"),
		},
	}

	ctxTimeout, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := collection.Indexes().CreateMany(ctxTimeout, indexes)
	if err != nil {
		return err
	}

	slog.Info("Created downtime_schedules indexes")
	return nil
}

func createDowntimeIndexes(ctx context.Context, db *MongoDB) error {
	collection := db.GetCollection(CollectionDowntimes)

	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "checkable_id", Value: 1},
				{Key: "scheduled_by", Value: 1},
				{Key: "start_time", Value: 1},
			},
			Options: options.Index().SetName("idx_checkable_scheduled_by_start"),
		},
		{
			Keys:    bson.D{{Key: "scheduled_by", Value: 1}},
			Options: options.Index().SetName("idx_scheduled_by"),
		},
		{
			Keys:    bson.D{{Key: "end_time", Value: 1}},
			Options: options.Index().SetName("idx_end_time"),
		},
	}

	ctxTimeout, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := collection.Indexes().CreateMany(ctxTimeout, indexes)
	if err != nil {
		return err
	}

	slog.Info("Created downtimes indexes")
	return nil
}

func createScheduleLockIndexes(ctx context.Context, db *MongoDB) error {
	collection := db.GetCollection(CollectionScheduleLocks)

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "schedule_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("idx_schedule_id_unique"),
		},
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0).SetName("idx_expires_at_ttl"),
		},
		{
			Keys:    bson.D{{Key: "locked_by", Value: 1}},
			Options: options.Index().SetName("idx_locked_by"),
		},
	}

	ctxTimeout, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := collection.Indexes().CreateMany(ctxTimeout, indexes)
	if err != nil {
		return err
	}

	slog.Info("Created schedule_locks indexes")
	return nil
}
