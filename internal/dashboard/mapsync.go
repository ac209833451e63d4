package dashboard

import (
	"fmt"
	"html"
	"strings"

	"github.com/jengzang/profileviewer-go/internal/crossfilter"
	"github.com/jengzang/profileviewer-go/internal/models"
)

// Map overlay defaults
const (
	DefaultTopK     = 30
	DefaultMaxZoom  = 17
	DefaultIconBase = "/static/profileviewer/images/map_icons"
)

// MapOverlay renders markers on a map. Implementations live outside the
// core; spatial.Viewport is a headless one.
type MapOverlay interface {
	Render(markers []models.Marker)
	FitToMarkers()
	Zoom() int
	SetZoom(z int)
}

// MapSync keeps a map overlay showing the busiest places of the POI view
type MapSync struct {
	overlay  MapOverlay
	places   map[string]models.Place
	topK     int
	maxZoom  int
	iconBase string
}

// Update renders the top places of a POI snapshot. When the POI view is
// filtered only its selected places are shown. Zero-count places are
// never rendered, and the zoom is capped after fitting.
func (m *MapSync) Update(poi Snapshot) {
	rows := poi.Rows
	if !poi.Filter.IsAll() {
		selected := make([]crossfilter.Row, 0, len(rows))
		for _, r := range rows {
			if poi.Filter.Match(r.Key) {
				selected = append(selected, r)
			}
		}
		rows = selected
	}

	top := crossfilter.Top(rows, m.topK)
	markers := make([]models.Marker, 0, len(top))
	for _, r := range top {
		p, ok := m.places[r.Key.Str()]
		if !ok {
			continue
		}
		markers = append(markers, m.marker(p, r.Count))
	}

	m.overlay.Render(markers)
	m.overlay.FitToMarkers()
	if m.overlay.Zoom() > m.maxZoom {
		m.overlay.SetZoom(m.maxZoom)
	}
}

func (m *MapSync) marker(p models.Place, count int) models.Marker {
	label := fmt.Sprintf("%s (%d check-ins)", p.Name, count)
	cats := p.Category.Name + ", " + p.Category.Parent
	return models.Marker{
		PlaceID:     p.ID,
		Lat:         p.Lat,
		Lng:         p.Lng,
		Title:       label + "\n" + cats,
		Description: fmt.Sprintf("<b>%s</b> (%d check-ins)<br>%s", html.EscapeString(p.Name), count, html.EscapeString(cats)),
		IconRef:     strings.TrimRight(m.iconBase, "/") + "/" + p.Category.ID + "_black.png",
		Count:       count,
	}
}
