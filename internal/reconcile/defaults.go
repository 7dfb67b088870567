package reconcile

import (
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/vbonduro/propdraft/internal/domain"
)

// optionalCatalog lists the selectable extra areas per property type.
var optionalCatalog = map[string][]string{
	domain.PropertyTypeHouse:     {"Garage", "Yard", "Basement", "Laundry Room"},
	domain.PropertyTypeApartment: {"Balcony", "Storage", "Laundry Room"},
	domain.PropertyTypeCondo:     {"Balcony", "Storage", "Laundry Room"},
}

// GenerateDefaultAreas synthesizes the starting area list for a brand-new
// property: Kitchen and Living Room, one area per bedroom and bathroom
// (a fractional .5 adds a half bathroom), plus the optional catalog for the
// property type. Count-implied areas are marked IsDefault — they can only be
// removed by changing the counts upstream, never deleted directly.
func GenerateDefaultAreas(propertyType string, bedrooms int, bathrooms float64) []domain.PropertyArea {
	var areas []domain.PropertyArea

	add := func(name string, isDefault bool) {
		areas = append(areas, domain.PropertyArea{
			ID:        uuid.New().String(),
			Name:      name,
			IsDefault: isDefault,
			Selected:  isDefault,
		})
	}

	add("Kitchen", true)
	add("Living Room", true)

	if bedrooms >= 1 {
		add("Master Bedroom", true)
	}
	for i := 2; i <= bedrooms; i++ {
		add(fmt.Sprintf("Bedroom %d", i), true)
	}

	fullBaths := int(math.Floor(bathrooms))
	if fullBaths >= 1 {
		add("Master Bathroom", true)
	}
	for i := 2; i <= fullBaths; i++ {
		add(fmt.Sprintf("Bathroom %d", i), true)
	}
	if bathrooms-float64(fullBaths) >= 0.5 {
		add("Half Bathroom", true)
	}

	for _, name := range optionalCatalog[propertyType] {
		add(name, false)
	}

	return areas
}
