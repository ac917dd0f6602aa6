package entities

// SpotUpdate is a partial edit of one spot. Nil fields are left untouched.
// An empty color string clears the override.
type SpotUpdate struct {
	IsOccupied          *bool     `json:"isOccupied,omitempty"`
	Type                *SpotType `json:"type,omitempty"`
	CustomColorFree     *string   `json:"customColorFree,omitempty"`
	CustomColorOccupied *string   `json:"customColorOccupied,omitempty"`
}

func (u SpotUpdate) Empty() bool {
	return u.IsOccupied == nil && u.Type == nil && u.CustomColorFree == nil && u.CustomColorOccupied == nil
}

// Apply merges the update into a copy of spot.
func (u SpotUpdate) Apply(spot ParkingSpot) ParkingSpot {
	if u.IsOccupied != nil {
		spot.IsOccupied = *u.IsOccupied
	}
	if u.Type != nil {
		spot.Type = *u.Type
	}
	if u.CustomColorFree != nil {
		spot.CustomColorFree = *u.CustomColorFree
	}
	if u.CustomColorOccupied != nil {
		spot.CustomColorOccupied = *u.CustomColorOccupied
	}
	return spot
}
