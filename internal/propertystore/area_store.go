package propertystore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/vbonduro/propdraft/internal/domain"
)

type AreaStore struct {
	db *sql.DB
}

func NewAreaStore(db *sql.DB) *AreaStore {
	return &AreaStore{db: db}
}

func (s *AreaStore) Create(ctx context.Context, propertyID string, area domain.PropertyArea, position int) (*domain.PropertyArea, error) {
	photoPaths, err := marshalStrings(area.PhotoPaths)
	if err != nil {
		return nil, fmt.Errorf("failed to encode photo paths: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO areas (id, property_id, name, is_default, photo_paths, position)
		VALUES (?, ?, ?, ?, ?, ?)
	`, area.ID, propertyID, area.Name, area.IsDefault, photoPaths, position)
	if err != nil {
		return nil, fmt.Errorf("failed to create area: %w", err)
	}

	return s.GetByID(ctx, area.ID)
}

func (s *AreaStore) GetByID(ctx context.Context, id string) (*domain.PropertyArea, error) {
	area := &domain.PropertyArea{Selected: true}
	var photoPaths string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, is_default, photo_paths FROM areas WHERE id = ?
	`, id).Scan(&area.ID, &area.Name, &area.IsDefault, &photoPaths)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get area: %w", err)
	}

	if area.PhotoPaths, err = unmarshalStrings(photoPaths); err != nil {
		return nil, fmt.Errorf("failed to decode photo paths: %w", err)
	}
	return area, nil
}

// ListByPropertyID returns the property's areas in display order, without
// assets. Published areas are always selected.
func (s *AreaStore) ListByPropertyID(ctx context.Context, propertyID string) ([]domain.PropertyArea, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, is_default, photo_paths FROM areas
		WHERE property_id = ? ORDER BY position ASC
	`, propertyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list areas: %w", err)
	}
	defer rows.Close()

	var areas []domain.PropertyArea
	for rows.Next() {
		area := domain.PropertyArea{Selected: true}
		var photoPaths string
		if err := rows.Scan(&area.ID, &area.Name, &area.IsDefault, &photoPaths); err != nil {
			return nil, fmt.Errorf("failed to scan area: %w", err)
		}
		if area.PhotoPaths, err = unmarshalStrings(photoPaths); err != nil {
			return nil, fmt.Errorf("failed to decode photo paths: %w", err)
		}
		areas = append(areas, area)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating areas: %w", err)
	}
	return areas, nil
}

// UpdatePhotoPaths overwrites the durable photo path list for an area.
func (s *AreaStore) UpdatePhotoPaths(ctx context.Context, areaID string, photoPaths []string) error {
	encoded, err := marshalStrings(photoPaths)
	if err != nil {
		return fmt.Errorf("failed to encode photo paths: %w", err)
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE areas SET photo_paths = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?
	`, encoded, areaID)
	if err != nil {
		return fmt.Errorf("failed to update photo paths: %w", err)
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

func (s *AreaStore) DeleteByPropertyID(ctx context.Context, propertyID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM areas WHERE property_id = ?`, propertyID)
	if err != nil {
		return fmt.Errorf("failed to delete areas: %w", err)
	}
	return nil
}
