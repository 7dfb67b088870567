package propertystore

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/vbonduro/propdraft/internal/domain"
)

// Service is the property-service surface the reconciler and web layer
// consume. Writes are last-write-wins at row granularity; there is no
// sub-record locking.
type Service struct {
	properties *PropertyStore
	areas      *AreaStore
	assets     *AssetStore
	logger     *slog.Logger
}

func NewService(db *sql.DB, logger *slog.Logger) *Service {
	return &Service{
		properties: NewPropertyStore(db),
		areas:      NewAreaStore(db),
		assets:     NewAssetStore(db),
		logger:     logger,
	}
}

// CreateProperty publishes the top-level property record and returns its
// canonical id.
func (s *Service) CreateProperty(ctx context.Context, ownerID string, data domain.PropertyData) (string, error) {
	property, err := s.properties.Create(ctx, ownerID, data)
	if err != nil {
		return "", err
	}
	s.logger.Info("property created", "property_id", property.ID, "owner_id", ownerID)
	return property.ID, nil
}

// GetProperty returns the published property record, or domain.ErrNotFound.
func (s *Service) GetProperty(ctx context.Context, propertyID string) (*Property, error) {
	property, err := s.properties.GetByID(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	if property == nil {
		return nil, fmt.Errorf("property %s: %w", propertyID, domain.ErrNotFound)
	}
	return property, nil
}

// AreasWithAssets returns the property's areas with their assets attached.
func (s *Service) AreasWithAssets(ctx context.Context, propertyID string) ([]domain.PropertyArea, error) {
	areas, err := s.areas.ListByPropertyID(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	for i := range areas {
		assets, err := s.assets.ListByAreaID(ctx, areas[i].ID)
		if err != nil {
			return nil, fmt.Errorf("failed to list assets for area %s: %w", areas[i].ID, err)
		}
		areas[i].Assets = assets
	}
	return areas, nil
}

// UpdateAreaPhotoPaths overwrites an area's durable photo path list.
func (s *Service) UpdateAreaPhotoPaths(ctx context.Context, areaID string, photoPaths []string) error {
	return s.areas.UpdatePhotoPaths(ctx, areaID, photoPaths)
}

// AddAsset stores one asset under an existing area.
func (s *Service) AddAsset(ctx context.Context, asset domain.InventoryItem) (*domain.InventoryItem, error) {
	area, err := s.areas.GetByID(ctx, asset.AreaID)
	if err != nil {
		return nil, err
	}
	if area == nil {
		return nil, fmt.Errorf("area %s: %w", asset.AreaID, domain.ErrNotFound)
	}
	return s.assets.Create(ctx, asset)
}

// DeleteAsset removes one asset.
func (s *Service) DeleteAsset(ctx context.Context, assetID string) error {
	return s.assets.Delete(ctx, assetID)
}

// BulkSaveAreas replaces the property's areas and assets with the given
// list, as happens when a draft is published. Area ids are reassigned to
// canonical server ids; callers must re-key on name, never on the draft-local
// id.
func (s *Service) BulkSaveAreas(ctx context.Context, propertyID string, areas []domain.PropertyArea) ([]domain.PropertyArea, error) {
	property, err := s.properties.GetByID(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	if property == nil {
		return nil, fmt.Errorf("property %s: %w", propertyID, domain.ErrNotFound)
	}

	if err := s.areas.DeleteByPropertyID(ctx, propertyID); err != nil {
		return nil, err
	}

	saved := make([]domain.PropertyArea, 0, len(areas))
	for i, area := range areas {
		area.ID = uuid.New().String()
		created, err := s.areas.Create(ctx, propertyID, area, i)
		if err != nil {
			return nil, fmt.Errorf("failed to save area %q: %w", area.Name, err)
		}
		for _, asset := range area.Assets {
			asset.AreaID = created.ID
			stored, err := s.assets.Create(ctx, asset)
			if err != nil {
				return nil, fmt.Errorf("failed to save asset %q: %w", asset.Name, err)
			}
			created.Assets = append(created.Assets, *stored)
		}
		saved = append(saved, *created)
	}

	s.logger.Info("areas bulk-saved", "property_id", propertyID, "areas", len(saved))
	return saved, nil
}
