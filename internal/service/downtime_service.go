package service

import (
	"context"
	"fmt"

	"github.com/asoares/lull/internal/database"
	"github.com/asoares/lull/internal/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DowntimeService handles downtime record queries and manual creation.
type DowntimeService struct {
	downtimes  *database.DowntimeRepository
	checkables *database.CheckableRepository
}

// NewDowntimeService creates a new downtime service
func NewDowntimeService(
	downtimes *database.DowntimeRepository,
	checkables *database.CheckableRepository,
) *DowntimeService {
	return &DowntimeService{
		downtimes:  downtimes,
		checkables: checkables,
	}
}

// List retrieves downtime records, optionally filtered by checkable and
// owning schedule name.
func (s *DowntimeService) List(ctx context.Context, checkableID, scheduledBy string, page, limit int) ([]model.Downtime, int64, error) {
	filter := bson.M{}
	if checkableID != "" {
		objID, err := primitive.ObjectIDFromHex(checkableID)
		if err != nil {
			return nil, 0, fmt.Errorf("invalid checkable ID format: %w", err)
		}
		filter["checkable_id"] = objID
	}
	if scheduledBy != "" {
		filter["scheduled_by"] = scheduledBy
	}

	return s.downtimes.List(ctx, filter, page, limit)
}

// Create inserts a manual downtime record. Manual records carry no
// scheduled_by tag and are never considered by schedule reconciliation.
func (s *DowntimeService) Create(ctx context.Context, downtime *model.Downtime) error {
	downtime.ScheduledBy = ""

	if err := downtime.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	if _, err := s.checkables.GetByID(ctx, downtime.CheckableID); err != nil {
		return fmt.Errorf("failed to resolve checkable: %w", err)
	}

	_, err := s.downtimes.Create(ctx, downtime)
	return err
}
