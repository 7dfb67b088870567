package domain

import "time"

// Property types recognized by default-area generation.
const (
	PropertyTypeHouse     = "house"
	PropertyTypeApartment = "apartment"
	PropertyTypeCondo     = "condo"
)

// PropertyDraft is a property under construction: created when onboarding
// starts, mutated through the wizard steps, and superseded by published rows
// once the property is created remotely.
type PropertyDraft struct {
	ID           string         `json:"id"`
	OwnerID      string         `json:"ownerId"`
	CurrentStep  int            `json:"currentStep"`
	PropertyData PropertyData   `json:"propertyData"`
	Areas        []PropertyArea `json:"areas"`
	UpdatedAt    time.Time      `json:"updatedAt"`
}

// Resumable reports whether the draft can be picked up at its recorded step.
// A draft past step 1 with no areas is treated as abandoned; the session
// restarts such drafts at step 1.
func (d *PropertyDraft) Resumable() bool {
	return d.CurrentStep < 2 || len(d.Areas) > 0
}

// PropertyData is the partial top-level property record collected in step 1.
type PropertyData struct {
	Name         string   `json:"name"`
	Address      string   `json:"address"`
	PropertyType string   `json:"propertyType"`
	Bedrooms     int      `json:"bedrooms"`
	Bathrooms    float64  `json:"bathrooms"`
	Photos       []string `json:"photos,omitempty"`
}

// PropertyArea is one room or zone of a property.
//
// Photos holds display references only (local URIs, blob handles, or signed
// URLs) and is a derived cache. PhotoPaths holds durable object-storage paths
// and is the source of truth; whenever it is non-empty the photo resolver is
// the only legitimate writer of Photos.
type PropertyArea struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	IsDefault  bool            `json:"isDefault"`
	Selected   bool            `json:"selected"`
	Photos     []string        `json:"photos,omitempty"`
	PhotoPaths []string        `json:"photoPaths,omitempty"`
	Assets     []InventoryItem `json:"assets,omitempty"`
}

// InventoryItem is a documented physical asset within an area. Identity is by
// ID: two items with the same ID under the same area are the same item.
type InventoryItem struct {
	ID           string   `json:"id"`
	AreaID       string   `json:"areaId"`
	Name         string   `json:"name"`
	Brand        string   `json:"brand,omitempty"`
	Model        string   `json:"model,omitempty"`
	SerialNumber string   `json:"serialNumber,omitempty"`
	Year         int      `json:"year,omitempty"`
	Condition    string   `json:"condition,omitempty"`
	Warranty     string   `json:"warranty,omitempty"`
	Price        float64  `json:"price,omitempty"`
	Photos       []string `json:"photos,omitempty"`
	Notes        string   `json:"notes,omitempty"`
}

// PendingAssetEnvelope is the one-shot handoff record written by the
// add-asset screen and collected by its parent.
type PendingAssetEnvelope struct {
	AreaID string        `json:"areaId"`
	Asset  InventoryItem `json:"asset"`
}

// DraftPointer records which draft an owner should resume and at what step.
type DraftPointer struct {
	DraftID string `json:"draftId"`
	Step    int    `json:"step"`
}
