package spatial

import (
	"math"

	"github.com/golang/geo/s2"
)

// Point is a latitude/longitude pair in degrees
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lng"`
}

// WeightedCentroid returns the weighted mean position of points.
// Missing weights count as 1.
func WeightedCentroid(points []Point, weights []float64) Point {
	if len(points) == 0 {
		return Point{}
	}

	var sumLat, sumLon, sumWeights float64
	for i, p := range points {
		w := weightAt(weights, i)
		sumLat += p.Lat * w
		sumLon += p.Lon * w
		sumWeights += w
	}
	if sumWeights == 0 {
		return Point{}
	}

	return Point{Lat: sumLat / sumWeights, Lon: sumLon / sumWeights}
}

// RadiusOfGyration measures the spread of weighted points around their
// centroid, in meters. A single place, however often visited, has radius 0.
func RadiusOfGyration(points []Point, weights []float64) float64 {
	if len(points) == 0 {
		return 0
	}

	center := WeightedCentroid(points, weights)

	var sumSq, sumWeights float64
	for i, p := range points {
		w := weightAt(weights, i)
		d := HaversineDistance(center.Lat, center.Lon, p.Lat, p.Lon)
		sumSq += w * d * d
		sumWeights += w
	}
	if sumWeights == 0 {
		return 0
	}

	return math.Sqrt(sumSq / sumWeights)
}

// Bounds returns the smallest latitude/longitude rectangle containing points
func Bounds(points []Point) s2.Rect {
	rect := s2.EmptyRect()
	for _, p := range points {
		rect = rect.AddPoint(s2.LatLngFromDegrees(p.Lat, p.Lon))
	}
	return rect
}

func weightAt(weights []float64, i int) float64 {
	if i < len(weights) {
		return weights[i]
	}
	return 1
}
