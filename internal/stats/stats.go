// Package stats derives occupancy counts from the current spot list.
package stats

import "smartpark/internal/entities"

// Aggregate computes totals and the per-type breakdown in a single pass.
// A spot whose type is outside the known set is counted as STANDARD.
func Aggregate(spots []entities.ParkingSpot) entities.ParkingStats {
	breakdown := make(map[entities.SpotType]entities.TypeAvailability, len(entities.SpotTypes))
	for _, t := range entities.SpotTypes {
		breakdown[t] = entities.TypeAvailability{}
	}

	occupied := 0
	for _, s := range spots {
		t := s.Type
		if !t.Valid() {
			t = entities.SpotStandard
		}
		b := breakdown[t]
		b.Total++
		if s.IsOccupied {
			occupied++
		} else {
			b.Available++
		}
		breakdown[t] = b
	}

	return entities.ParkingStats{
		Total:     len(spots),
		Occupied:  occupied,
		Available: len(spots) - occupied,
		Breakdown: breakdown,
	}
}

// OccupancyRate returns the occupied share in percent, 0 for an empty lot.
func OccupancyRate(s entities.ParkingStats) float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Occupied) / float64(s.Total) * 100
}

type AvailabilityClass string

const (
	AvailabilityLow    AvailabilityClass = "low"
	AvailabilityMedium AvailabilityClass = "medium"
	AvailabilityHigh   AvailabilityClass = "high"
)

// Availability buckets the free share: under 20% is low, under 50% medium.
func Availability(s entities.ParkingStats) AvailabilityClass {
	free := 100 - OccupancyRate(s)
	switch {
	case free < 20:
		return AvailabilityLow
	case free < 50:
		return AvailabilityMedium
	default:
		return AvailabilityHigh
	}
}
