package spatial

import (
	"github.com/golang/geo/s2"
)

// OtherRegion is the region of places outside every named region
const OtherRegion = "Other"

// Region is a named latitude/longitude rectangle
type Region struct {
	Name string
	Rect s2.Rect
}

// NewRegion builds a region from degree bounds
func NewRegion(name string, minLat, maxLat, minLng, maxLng float64) Region {
	rect := s2.RectFromLatLng(s2.LatLngFromDegrees(minLat, minLng)).
		AddPoint(s2.LatLngFromDegrees(maxLat, maxLng))
	return Region{Name: name, Rect: rect}
}

// DefaultRegions are the metropolitan areas check-ins are bucketed into
var DefaultRegions = []Region{
	NewRegion("Chicago", 41.4986, 42.0232, -88.1586, -87.3573),
	NewRegion("New York", 40.4110, 40.9429, -74.2918, -73.7097),
	NewRegion("Los Angeles", 33.7463, 34.2302, -118.6368, -117.9053),
	NewRegion("San Francisco", 37.7025, 37.8045, -122.5349, -122.3546),
}

// Locate returns the name of the first region containing the point, or
// OtherRegion. A point on a region border is outside it.
func Locate(regions []Region, lat, lng float64) string {
	ll := s2.LatLngFromDegrees(lat, lng)
	for _, r := range regions {
		if r.Rect.InteriorContainsLatLng(ll) {
			return r.Name
		}
	}
	return OtherRegion
}
