/*
Package geo provides the itinerary geometry helpers: great-circle
distances, total route length, and a nearest-neighbour stop ordering for
suggesting a visiting sequence.

Distances are in kilometres on a spherical Earth. The ordering heuristic
is intentionally greedy; itineraries rarely exceed a handful of stops.
*/
package geo

import "math"

// earthRadiusKm is the mean Earth radius.
const earthRadiusKm = 6371.0

// Point is a WGS84 coordinate.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Haversine returns the great-circle distance between two points in km.
func Haversine(a, b Point) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(h))
}

// RouteLength sums the leg distances of an ordered route.
func RouteLength(route []Point) float64 {
	var total float64
	for i := 1; i < len(route); i++ {
		total += Haversine(route[i-1], route[i])
	}
	return total
}

// OrderNearest returns the indices of stops in greedy nearest-neighbour
// order starting from the given origin. The input slice is not modified.
func OrderNearest(origin Point, stops []Point) []int {
	if len(stops) == 0 {
		return nil
	}
	order := make([]int, 0, len(stops))
	visited := make([]bool, len(stops))
	current := origin
	for range stops {
		best := -1
		bestDist := math.MaxFloat64
		for i, s := range stops {
			if visited[i] {
				continue
			}
			if d := Haversine(current, s); d < bestDist {
				best, bestDist = i, d
			}
		}
		visited[best] = true
		order = append(order, best)
		current = stops[best]
	}
	return order
}
