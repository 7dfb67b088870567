// Package propertystore is the authoritative persistence layer for published
// properties. Drafts never touch it; once a property is published its rows
// here supersede any draft snapshot.
package propertystore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/vbonduro/propdraft/internal/domain"
)

// Property is a published property row.
type Property struct {
	ID        string
	OwnerID   string
	Data      domain.PropertyData
	CreatedAt time.Time
	UpdatedAt time.Time
}

type PropertyStore struct {
	db *sql.DB
}

func NewPropertyStore(db *sql.DB) *PropertyStore {
	return &PropertyStore{db: db}
}

func (s *PropertyStore) Create(ctx context.Context, ownerID string, data domain.PropertyData) (*Property, error) {
	id := uuid.New().String()
	photos, err := marshalStrings(data.Photos)
	if err != nil {
		return nil, fmt.Errorf("failed to encode photos: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO properties (id, owner_id, name, address, property_type, bedrooms, bathrooms, photos)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, id, ownerID, data.Name, data.Address, data.PropertyType, data.Bedrooms, data.Bathrooms, photos)
	if err != nil {
		return nil, fmt.Errorf("failed to create property: %w", err)
	}

	return s.GetByID(ctx, id)
}

func (s *PropertyStore) GetByID(ctx context.Context, id string) (*Property, error) {
	p := &Property{}
	var photos string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, owner_id, name, address, property_type, bedrooms, bathrooms, photos, created_at, updated_at
		FROM properties WHERE id = ?
	`, id).Scan(&p.ID, &p.OwnerID, &p.Data.Name, &p.Data.Address, &p.Data.PropertyType,
		&p.Data.Bedrooms, &p.Data.Bathrooms, &photos, &p.CreatedAt, &p.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get property: %w", err)
	}

	if p.Data.Photos, err = unmarshalStrings(photos); err != nil {
		return nil, fmt.Errorf("failed to decode photos: %w", err)
	}
	return p, nil
}

func (s *PropertyStore) ListByOwnerID(ctx context.Context, ownerID string) ([]*Property, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, owner_id, name, address, property_type, bedrooms, bathrooms, photos, created_at, updated_at
		FROM properties WHERE owner_id = ? ORDER BY created_at ASC
	`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list properties: %w", err)
	}
	defer rows.Close()

	var properties []*Property
	for rows.Next() {
		p := &Property{}
		var photos string
		if err := rows.Scan(&p.ID, &p.OwnerID, &p.Data.Name, &p.Data.Address, &p.Data.PropertyType,
			&p.Data.Bedrooms, &p.Data.Bathrooms, &photos, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan property: %w", err)
		}
		if p.Data.Photos, err = unmarshalStrings(photos); err != nil {
			return nil, fmt.Errorf("failed to decode photos: %w", err)
		}
		properties = append(properties, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating properties: %w", err)
	}
	return properties, nil
}

func (s *PropertyStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM properties WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete property: %w", err)
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

// marshalStrings encodes a string slice as a JSON column value. nil encodes
// as an empty list so column defaults stay consistent.
func marshalStrings(values []string) (string, error) {
	if values == nil {
		values = []string{}
	}
	data, err := json.Marshal(values)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func unmarshalStrings(data string) ([]string, error) {
	if data == "" {
		return nil, nil
	}
	var values []string
	if err := json.Unmarshal([]byte(data), &values); err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return nil, nil
	}
	return values, nil
}
