package render

import (
	"fmt"

	"smartpark/internal/entities"
	"smartpark/internal/stats"
)

type TypeOption struct {
	Value entities.SpotType `json:"value"`
	Label string            `json:"label"`
}

// TypeOptions are the choices offered by the spot editor.
var TypeOptions = []TypeOption{
	{Value: entities.SpotStandard, Label: "一般車位"},
	{Value: entities.SpotDisabled, Label: "身心障礙專用"},
	{Value: entities.SpotPriority, Label: "婦幼優先"},
	{Value: entities.SpotEV, Label: "電動車充電"},
}

type SpotEditor struct {
	ID            string            `json:"id"`
	Label         string            `json:"label"`
	Type          entities.SpotType `json:"type"`
	IsOccupied    bool              `json:"isOccupied"`
	ColorFree     string            `json:"colorFree"`
	ColorOccupied string            `json:"colorOccupied"`
}

type PanelView struct {
	Total             int                     `json:"total"`
	Occupied          int                     `json:"occupied"`
	Available         int                     `json:"available"`
	AvailableLabel    string                  `json:"availableLabel"`
	StandardAvailable int                     `json:"standardAvailable"`
	DisabledAvailable int                     `json:"disabledAvailable"`
	PriorityAvailable int                     `json:"priorityAvailable"`
	EVAvailable       int                     `json:"evAvailable"`
	OccupancyPercent  string                  `json:"occupancyPercent"`
	Availability      stats.AvailabilityClass `json:"availability"`
	Simulating        bool                    `json:"isSimulating"`
	Selected          *SpotEditor             `json:"selected,omitempty"`
	TypeOptions       []TypeOption            `json:"typeOptions"`
	Analysis          entities.AnalysisState  `json:"analysis"`
}

// DashboardView is everything the browser needs to draw one frame.
type DashboardView struct {
	Version uint64    `json:"version"`
	Map     MapView   `json:"map"`
	Panel   PanelView `json:"panel"`
}

// BuildPanel derives the control panel from a snapshot. The editor shows the
// stock colors when a spot has no override so the color pickers start there.
func BuildPanel(snap *entities.Snapshot, analysis entities.AnalysisState) PanelView {
	st := snap.Stats
	p := PanelView{
		Total:             st.Total,
		Occupied:          st.Occupied,
		Available:         st.Available,
		AvailableLabel:    fmt.Sprintf("%03d", st.Available),
		StandardAvailable: st.Breakdown[entities.SpotStandard].Available,
		DisabledAvailable: st.Breakdown[entities.SpotDisabled].Available,
		PriorityAvailable: st.Breakdown[entities.SpotPriority].Available,
		EVAvailable:       st.Breakdown[entities.SpotEV].Available,
		OccupancyPercent:  fmt.Sprintf("%.0f", stats.OccupancyRate(st)),
		Availability:      stats.Availability(st),
		Simulating:        snap.Simulating,
		TypeOptions:       TypeOptions,
		Analysis:          analysis,
	}

	if spot := snap.SelectedSpot(); spot != nil {
		editor := &SpotEditor{
			ID:            spot.ID,
			Label:         spot.Label,
			Type:          spot.Type,
			IsOccupied:    spot.IsOccupied,
			ColorFree:     spot.CustomColorFree,
			ColorOccupied: spot.CustomColorOccupied,
		}
		if editor.ColorFree == "" {
			editor.ColorFree = ColorStandard
		}
		if editor.ColorOccupied == "" {
			editor.ColorOccupied = ColorOccupied
		}
		p.Selected = editor
	}
	return p
}

func BuildDashboard(zones []entities.ZoneConfig, snap *entities.Snapshot, analysis entities.AnalysisState) DashboardView {
	selected := ""
	if spot := snap.SelectedSpot(); spot != nil {
		selected = spot.ID
	}
	return DashboardView{
		Version: snap.Version,
		Map:     BuildMap(zones, snap.Spots, selected),
		Panel:   BuildPanel(snap, analysis),
	}
}
