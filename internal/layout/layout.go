// Package layout turns zone descriptors into the flat list of parking spots.
package layout

import (
	"fmt"
	"math/rand/v2"

	"smartpark/internal/entities"
)

// initialOccupancy is the chance a freshly generated spot starts occupied.
const initialOccupancy = 0.3

// Generate builds every spot of every zone, in zone order and row-major
// index order, with randomized initial occupancy.
func Generate(zones []entities.ZoneConfig, rng *rand.Rand) []entities.ParkingSpot {
	spots := generate(zones)
	for i := range spots {
		spots[i].IsOccupied = rng.Float64() < initialOccupancy
	}
	return spots
}

// GenerateReset is Generate with every spot free. It uses no randomness.
func GenerateReset(zones []entities.ZoneConfig) []entities.ParkingSpot {
	return generate(zones)
}

func generate(zones []entities.ZoneConfig) []entities.ParkingSpot {
	total := 0
	for _, z := range zones {
		total += z.SpotCount()
	}

	spots := make([]entities.ParkingSpot, 0, total)
	for _, z := range zones {
		for i := 0; i < z.SpotCount(); i++ {
			spots = append(spots, entities.ParkingSpot{
				ID:     fmt.Sprintf("%s-%d", z.ID, i),
				ZoneID: z.ID,
				Type:   z.SpotType,
				Label:  ZeroPad(z.StartNumber+i, 3),
			})
		}
	}
	return spots
}

// ZeroPad left-pads n with zeros to at least width digits.
func ZeroPad(n, width int) string {
	return fmt.Sprintf("%0*d", width, n)
}
