package render

import (
	"math"

	"smartpark/internal/entities"
)

// Spot cells are drawn at a fixed size; zones add padding around the grid.
const (
	CellWidth   = 40.0
	CellHeight  = 64.0
	ZonePadding = 8.0
)

// Point is a position in zone-local pixels, Y pointing down.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (p Point) Add(q Point) Point { return Point{p.X + q.X, p.Y + q.Y} }
func (p Point) Sub(q Point) Point { return Point{p.X - q.X, p.Y - q.Y} }

// Rotate turns p clockwise on screen by deg degrees around the origin.
func (p Point) Rotate(deg float64) Point {
	rad := deg * math.Pi / 180
	sin, cos := math.Sincos(rad)
	return Point{p.X*cos - p.Y*sin, p.X*sin + p.Y*cos}
}

// SkewX shears p horizontally by deg degrees.
func (p Point) SkewX(deg float64) Point {
	return Point{p.X + math.Tan(deg*math.Pi/180)*p.Y, p.Y}
}

// ZoneSize is the untransformed size of the zone's grid box, padding included.
func ZoneSize(z entities.ZoneConfig) (w, h float64) {
	gap := z.GapOrDefault()
	w = 2 * ZonePadding
	h = 2 * ZonePadding
	if z.Cols > 0 {
		w += float64(z.Cols)*CellWidth + float64(z.Cols-1)*gap
	}
	if z.Rows > 0 {
		h += float64(z.Rows)*CellHeight + float64(z.Rows-1)*gap
	}
	return w, h
}

// CellOrigin returns the top-left corner of cell (row, col) after the zone's
// skew and rotation, both applied around the box center like a CSS transform.
func CellOrigin(z entities.ZoneConfig, row, col int) Point {
	gap := z.GapOrDefault()
	w, h := ZoneSize(z)
	center := Point{w / 2, h / 2}

	p := Point{
		X: ZonePadding + float64(col)*(CellWidth+gap),
		Y: ZonePadding + float64(row)*(CellHeight+gap),
	}
	v := p.Sub(center).SkewX(z.SkewX).Rotate(z.Angle)
	return center.Add(v)
}
