// Package render maps spots and zones onto floor-plan geometry and colors
// for the dashboard.
package render

import (
	"fmt"
	"strconv"

	"smartpark/internal/entities"
)

const (
	ColorOccupied = "#ef4444"
	ColorDisabled = "#3b82f6"
	ColorPriority = "#d946ef"
	ColorEV       = "#22c55e"
	ColorStandard = "#84cc16"
)

type Icon string

const (
	IconNone          Icon = ""
	IconCar           Icon = "car"
	IconAccessibility Icon = "accessibility"
	IconBaby          Icon = "baby"
	IconCharging      Icon = "zap"
)

type SpotCell struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	Color    string `json:"color"`
	Icon     Icon   `json:"icon,omitempty"`
	Occupied bool   `json:"occupied"`
	Selected bool   `json:"selected"`
	Row      int    `json:"row"`
	Col      int    `json:"col"`
	Origin   Point  `json:"origin"`
}

type ZoneView struct {
	ID    string     `json:"id"`
	Style string     `json:"style"`
	Cols  int        `json:"cols"`
	Gap   float64    `json:"gap"`
	Spots []SpotCell `json:"spots"`
}

type LegendEntry struct {
	Label string `json:"label"`
	Color string `json:"color"`
}

type MapView struct {
	Zones      []ZoneView    `json:"zones"`
	Legend     []LegendEntry `json:"legend"`
	SelectedID string        `json:"selectedSpotId,omitempty"`
}

// Legend is fixed; custom per-spot colors are not listed.
var Legend = []LegendEntry{
	{Label: "一般車位", Color: ColorStandard},
	{Label: "身心障礙", Color: ColorDisabled},
	{Label: "婦幼優先", Color: ColorPriority},
	{Label: "已佔用", Color: ColorOccupied},
}

// SpotColor resolves the fill color: occupied spots use their custom
// occupied color or red; free spots their custom free color or the type color.
func SpotColor(s entities.ParkingSpot) string {
	if s.IsOccupied {
		if s.CustomColorOccupied != "" {
			return s.CustomColorOccupied
		}
		return ColorOccupied
	}
	if s.CustomColorFree != "" {
		return s.CustomColorFree
	}
	return TypeColor(s.Type)
}

func TypeColor(t entities.SpotType) string {
	switch t {
	case entities.SpotDisabled:
		return ColorDisabled
	case entities.SpotPriority:
		return ColorPriority
	case entities.SpotEV:
		return ColorEV
	default:
		return ColorStandard
	}
}

// SpotIcon shows the car glyph on occupied spots and the type glyph on free
// non-standard ones.
func SpotIcon(s entities.ParkingSpot) Icon {
	if s.IsOccupied {
		return IconCar
	}
	switch s.Type {
	case entities.SpotDisabled:
		return IconAccessibility
	case entities.SpotPriority:
		return IconBaby
	case entities.SpotEV:
		return IconCharging
	default:
		return IconNone
	}
}

// ZoneStyle is the CSS placing the zone's grid container on the map.
func ZoneStyle(z entities.ZoneConfig) string {
	cols := z.Cols
	if cols < 1 {
		cols = 1
	}
	return fmt.Sprintf("left: %s%%; top: %s%%; transform: rotate(%sdeg) skewX(%sdeg); grid-template-columns: repeat(%d, 1fr); gap: %spx;",
		num(z.X), num(z.Y), num(z.Angle), num(z.SkewX), cols, num(z.GapOrDefault()))
}

func num(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// BuildMap groups spots under their zones, keeping list order within each
// zone. Spots whose zone is not configured are not drawn.
func BuildMap(zones []entities.ZoneConfig, spots []entities.ParkingSpot, selectedID string) MapView {
	byZone := make(map[string][]entities.ParkingSpot, len(zones))
	for _, s := range spots {
		byZone[s.ZoneID] = append(byZone[s.ZoneID], s)
	}

	view := MapView{
		Zones:      make([]ZoneView, 0, len(zones)),
		Legend:     Legend,
		SelectedID: selectedID,
	}
	for _, z := range zones {
		zs := byZone[z.ID]
		zv := ZoneView{
			ID:    z.ID,
			Style: ZoneStyle(z),
			Cols:  z.Cols,
			Gap:   z.GapOrDefault(),
			Spots: make([]SpotCell, 0, len(zs)),
		}
		for i, s := range zs {
			row, col := 0, i
			if z.Cols > 0 {
				row, col = i/z.Cols, i%z.Cols
			}
			zv.Spots = append(zv.Spots, SpotCell{
				ID:       s.ID,
				Label:    s.Label,
				Color:    SpotColor(s),
				Icon:     SpotIcon(s),
				Occupied: s.IsOccupied,
				Selected: selectedID != "" && s.ID == selectedID,
				Row:      row,
				Col:      col,
				Origin:   CellOrigin(z, row, col),
			})
		}
		view.Zones = append(view.Zones, zv)
	}
	return view
}
