package propertystore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/vbonduro/propdraft/internal/domain"
)

type AssetStore struct {
	db *sql.DB
}

func NewAssetStore(db *sql.DB) *AssetStore {
	return &AssetStore{db: db}
}

func (s *AssetStore) Create(ctx context.Context, asset domain.InventoryItem) (*domain.InventoryItem, error) {
	if asset.ID == "" {
		asset.ID = uuid.New().String()
	}
	photos, err := marshalStrings(asset.Photos)
	if err != nil {
		return nil, fmt.Errorf("failed to encode photos: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO assets (id, area_id, name, brand, model, serial_number, year, condition, warranty, price, photos, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, asset.ID, asset.AreaID, asset.Name, asset.Brand, asset.Model, asset.SerialNumber,
		asset.Year, asset.Condition, asset.Warranty, asset.Price, photos, asset.Notes)
	if err != nil {
		return nil, fmt.Errorf("failed to create asset: %w", err)
	}

	return s.GetByID(ctx, asset.ID)
}

func (s *AssetStore) GetByID(ctx context.Context, id string) (*domain.InventoryItem, error) {
	asset := &domain.InventoryItem{}
	var photos string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, area_id, name, brand, model, serial_number, year, condition, warranty, price, photos, notes
		FROM assets WHERE id = ?
	`, id).Scan(&asset.ID, &asset.AreaID, &asset.Name, &asset.Brand, &asset.Model, &asset.SerialNumber,
		&asset.Year, &asset.Condition, &asset.Warranty, &asset.Price, &photos, &asset.Notes)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get asset: %w", err)
	}

	if asset.Photos, err = unmarshalStrings(photos); err != nil {
		return nil, fmt.Errorf("failed to decode photos: %w", err)
	}
	return asset, nil
}

func (s *AssetStore) ListByAreaID(ctx context.Context, areaID string) ([]domain.InventoryItem, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, area_id, name, brand, model, serial_number, year, condition, warranty, price, photos, notes
		FROM assets WHERE area_id = ? ORDER BY created_at ASC
	`, areaID)
	if err != nil {
		return nil, fmt.Errorf("failed to list assets: %w", err)
	}
	defer rows.Close()

	var assets []domain.InventoryItem
	for rows.Next() {
		asset := domain.InventoryItem{}
		var photos string
		if err := rows.Scan(&asset.ID, &asset.AreaID, &asset.Name, &asset.Brand, &asset.Model, &asset.SerialNumber,
			&asset.Year, &asset.Condition, &asset.Warranty, &asset.Price, &photos, &asset.Notes); err != nil {
			return nil, fmt.Errorf("failed to scan asset: %w", err)
		}
		if asset.Photos, err = unmarshalStrings(photos); err != nil {
			return nil, fmt.Errorf("failed to decode photos: %w", err)
		}
		assets = append(assets, asset)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating assets: %w", err)
	}
	return assets, nil
}

func (s *AssetStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM assets WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete asset: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
