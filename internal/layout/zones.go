package layout

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"smartpark/internal/entities"
	"smartpark/internal/utils"
)

// DefaultZones is the built-in floor plan: top row, two vertical sides,
// an angled back-to-back center island and a bottom row.
func DefaultZones() []entities.ZoneConfig {
	return []entities.ZoneConfig{
		{ID: "Z1", X: 5, Y: 5, Rows: 1, Cols: 14, SpotType: entities.SpotStandard, StartNumber: 1, Gap: 2},
		{ID: "Z2", X: 5, Y: 20, Rows: 8, Cols: 1, SpotType: entities.SpotStandard, StartNumber: 15, Gap: 2},
		{ID: "Z3", X: 25, Y: 35, Rows: 1, Cols: 10, SpotType: entities.SpotDisabled, StartNumber: 23, Gap: 2, SkewX: -20},
		{ID: "Z4", X: 25, Y: 55, Rows: 1, Cols: 10, SpotType: entities.SpotPriority, StartNumber: 33, Gap: 2, SkewX: 20},
		{ID: "Z5", X: 90, Y: 20, Rows: 8, Cols: 1, SpotType: entities.SpotStandard, StartNumber: 43, Gap: 2},
		{ID: "Z6", X: 15, Y: 80, Rows: 1, Cols: 12, SpotType: entities.SpotStandard, StartNumber: 51, Gap: 2},
	}
}

type zonesFile struct {
	Zones []entities.ZoneConfig `yaml:"zones"`
}

// LoadZones reads a YAML floor plan of the form
//
//	zones:
//	  - id: Z1
//	    x: 5
//	    ...
//
// Spot types are matched case-insensitively.
func LoadZones(path string) ([]entities.ZoneConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read zones file: %w", err)
	}
	return ParseZones(data)
}

func ParseZones(data []byte) ([]entities.ZoneConfig, error) {
	var f zonesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse zones file: %w", err)
	}
	for i := range f.Zones {
		t, err := utils.ParseSpotType(string(f.Zones[i].SpotType))
		if err != nil {
			return nil, fmt.Errorf("zone %q: %w", f.Zones[i].ID, err)
		}
		f.Zones[i].SpotType = t
	}
	if err := ValidateZones(f.Zones); err != nil {
		return nil, err
	}
	return f.Zones, nil
}

// ValidateZones checks the static configuration invariants: unique ids,
// non-negative grid shape and numbering, and a known default spot type.
func ValidateZones(zones []entities.ZoneConfig) error {
	if len(zones) == 0 {
		return fmt.Errorf("at least one zone is required")
	}
	seen := make(map[string]bool, len(zones))
	for _, z := range zones {
		if z.ID == "" {
			return fmt.Errorf("zone id is required")
		}
		if seen[z.ID] {
			return fmt.Errorf("duplicate zone id %q", z.ID)
		}
		seen[z.ID] = true

		if z.Rows < 0 || z.Cols < 0 {
			return fmt.Errorf("zone %q: rows and cols must not be negative", z.ID)
		}
		if z.StartNumber < 0 {
			return fmt.Errorf("zone %q: startNumber must not be negative", z.ID)
		}
		if z.Gap < 0 {
			return fmt.Errorf("zone %q: gap must not be negative", z.ID)
		}
		if !z.SpotType.Valid() {
			return fmt.Errorf("zone %q: unknown spot type %q", z.ID, z.SpotType)
		}
	}
	return nil
}
