package entities

type SpotType string

const (
	SpotStandard SpotType = "STANDARD"
	SpotDisabled SpotType = "DISABLED"
	SpotPriority SpotType = "PRIORITY" // family / pink spots
	SpotEV       SpotType = "EV"
)

// SpotTypes lists the closed set of spot types in display order.
var SpotTypes = []SpotType{SpotStandard, SpotDisabled, SpotPriority, SpotEV}

// Valid reports whether t is one of the known spot types.
func (t SpotType) Valid() bool {
	switch t {
	case SpotStandard, SpotDisabled, SpotPriority, SpotEV:
		return true
	}
	return false
}

type ParkingSpot struct {
	ID                  string   `json:"id"`
	ZoneID              string   `json:"zoneId"`
	Type                SpotType `json:"type"`
	IsOccupied          bool     `json:"isOccupied"`
	Label               string   `json:"label"`
	CustomColorFree     string   `json:"customColorFree,omitempty"`
	CustomColorOccupied string   `json:"customColorOccupied,omitempty"`
}

// ZoneConfig places a rows x cols grid of spots on the floor plan.
// X and Y are percentages of the map container.
type ZoneConfig struct {
	ID          string   `json:"id" yaml:"id"`
	X           float64  `json:"x" yaml:"x"`
	Y           float64  `json:"y" yaml:"y"`
	Angle       float64  `json:"angle" yaml:"angle"`
	Rows        int      `json:"rows" yaml:"rows"`
	Cols        int      `json:"cols" yaml:"cols"`
	SkewX       float64  `json:"skewX,omitempty" yaml:"skewX,omitempty"`
	Gap         float64  `json:"gap,omitempty" yaml:"gap,omitempty"`
	SpotType    SpotType `json:"spotType" yaml:"spotType"`
	StartNumber int      `json:"startNumber" yaml:"startNumber"`
}

const DefaultZoneGap = 4

// SpotCount is the number of spots the zone generates.
func (z ZoneConfig) SpotCount() int {
	if z.Rows <= 0 || z.Cols <= 0 {
		return 0
	}
	return z.Rows * z.Cols
}

// GapOrDefault returns the grid spacing, falling back to DefaultZoneGap when unset.
func (z ZoneConfig) GapOrDefault() float64 {
	if z.Gap == 0 {
		return DefaultZoneGap
	}
	return z.Gap
}
