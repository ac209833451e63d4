package spatial

import (
	"math"

	"github.com/jengzang/profileviewer-go/internal/models"
)

// Web-mercator tile constants
const (
	TileSize   = 256
	MaxMapZoom = 21
)

// Initial view before any marker is fitted
var (
	DefaultCenter = Point{Lat: 41.0, Lon: -100.0}
	DefaultZoom   = 3
)

// ViewportState is a serializable copy of a viewport
type ViewportState struct {
	Center  Point           `json:"center"`
	Zoom    int             `json:"zoom"`
	Markers []models.Marker `json:"markers"`
}

// Viewport is a headless map overlay. It keeps the rendered markers and
// computes the center and zoom a map of Width x Height pixels would use to
// show all of them.
type Viewport struct {
	Width  int
	Height int

	markers []models.Marker
	center  Point
	zoom    int
}

// NewViewport creates a viewport of the given pixel size
func NewViewport(width, height int) *Viewport {
	return &Viewport{
		Width:  width,
		Height: height,
		center: DefaultCenter,
		zoom:   DefaultZoom,
	}
}

// Render replaces the markers on the viewport
func (v *Viewport) Render(markers []models.Marker) {
	v.markers = append(v.markers[:0:0], markers...)
}

// FitToMarkers centers the viewport on the markers and picks the largest
// zoom at which all of them are visible. Without markers it does nothing.
func (v *Viewport) FitToMarkers() {
	if len(v.markers) == 0 {
		return
	}
	points := make([]Point, len(v.markers))
	for i, m := range v.markers {
		points[i] = Point{Lat: m.Lat, Lon: m.Lng}
	}
	rect := Bounds(points)
	c := rect.Center()
	v.center = Point{Lat: c.Lat.Degrees(), Lon: c.Lng.Degrees()}

	lngSpan := rect.Size().Lng.Degrees()
	latFraction := (mercatorY(rect.Hi().Lat.Degrees()) - mercatorY(rect.Lo().Lat.Degrees())) / (2 * math.Pi)

	zoom := float64(MaxMapZoom)
	if lngSpan > 0 {
		zoom = math.Min(zoom, math.Log2(float64(v.Width)*360/(TileSize*lngSpan)))
	}
	if latFraction > 0 {
		zoom = math.Min(zoom, math.Log2(float64(v.Height)/(TileSize*latFraction)))
	}
	v.zoom = clampZoom(int(math.Floor(zoom)))
}

// Zoom returns the current zoom level
func (v *Viewport) Zoom() int { return v.zoom }

// SetZoom sets the zoom level, clamped to the valid range
func (v *Viewport) SetZoom(z int) { v.zoom = clampZoom(z) }

// State returns a copy of the viewport
func (v *Viewport) State() ViewportState {
	return ViewportState{
		Center:  v.center,
		Zoom:    v.zoom,
		Markers: append([]models.Marker{}, v.markers...),
	}
}

func mercatorY(latDeg float64) float64 {
	lat := latDeg * math.Pi / 180
	return math.Log(math.Tan(math.Pi/4 + lat/2))
}

func clampZoom(z int) int {
	if z < 0 {
		return 0
	}
	if z > MaxMapZoom {
		return MaxMapZoom
	}
	return z
}
