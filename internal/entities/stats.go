package entities

import "time"

type TypeAvailability struct {
	Total     int `json:"total"`
	Available int `json:"available"`
}

// ParkingStats is derived from the spot list and never stored on its own.
type ParkingStats struct {
	Total     int                           `json:"total"`
	Occupied  int                           `json:"occupied"`
	Available int                           `json:"available"`
	Breakdown map[SpotType]TypeAvailability `json:"breakdown"`
}

// Snapshot is the read-only view of the lot published after every state change.
type Snapshot struct {
	Version    uint64        `json:"version"`
	Spots      []ParkingSpot `json:"spots"`
	SelectedID string        `json:"selectedSpotId,omitempty"`
	Simulating bool          `json:"isSimulating"`
	Stats      ParkingStats  `json:"stats"`
	UpdatedAt  time.Time     `json:"updatedAt"`
}

// SelectedSpot resolves the selection against the snapshot's spots.
func (s *Snapshot) SelectedSpot() *ParkingSpot {
	if s.SelectedID == "" {
		return nil
	}
	for i := range s.Spots {
		if s.Spots[i].ID == s.SelectedID {
			spot := s.Spots[i]
			return &spot
		}
	}
	return nil
}
