package service

import (
	"context"
	"fmt"

	"github.com/asoares/lull/internal/database"
	"github.com/asoares/lull/internal/model"
)

// CheckableService handles monitored entity registration and listing.
type CheckableService struct {
	checkables *database.CheckableRepository
}

// NewCheckableService creates a new checkable service
func NewCheckableService(checkables *database.CheckableRepository) *CheckableService {
	return &CheckableService{
		checkables: checkables,
	}
}

// Create registers a new checkable. A service checkable requires its host
// to be registered first.
func (s *CheckableService) Create(ctx context.Context, checkable *model.Checkable) error {
	if err := checkable.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	if checkable.ServiceName != "" {
		if _, err := s.checkables.GetByNames(ctx, checkable.HostName, ""); err != nil {
			return fmt.Errorf("host '%s' is not registered: %w", checkable.HostName, err)
		}
	}

	return s.checkables.Create(ctx, checkable)
}

// List retrieves all registered checkables
func (s *CheckableService) List(ctx context.Context) ([]model.Checkable, error) {
	return s.checkables.List(ctx)
}
