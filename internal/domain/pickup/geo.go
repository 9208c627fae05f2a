package pickup

import "math"

// coordEpsilon is the tolerance used when comparing coordinates for equality.
const coordEpsilon = 1e-6

// GeoPoint is an immutable latitude/longitude pair in decimal degrees.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid reports whether the point lies within the valid coordinate ranges.
func (p GeoPoint) Valid() bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

// AlmostEqual compares two points coordinate-wise within a small epsilon.
func (p GeoPoint) AlmostEqual(other GeoPoint) bool {
	return math.Abs(p.Lat-other.Lat) < coordEpsilon && math.Abs(p.Lng-other.Lng) < coordEpsilon
}

// Midpoint returns the coordinate-wise average of two points.
func Midpoint(a, b GeoPoint) GeoPoint {
	return GeoPoint{
		Lat: (a.Lat + b.Lat) / 2,
		Lng: (a.Lng + b.Lng) / 2,
	}
}

// HaversineKm calculates the great-circle distance between two points in kilometers.
func HaversineKm(a, b GeoPoint) float64 {
	const earthRadiusKm = 6371.0

	dLat := degreesToRadians(b.Lat - a.Lat)
	dLng := degreesToRadians(b.Lng - a.Lng)

	latARad := degreesToRadians(a.Lat)
	latBRad := degreesToRadians(b.Lat)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Sin(dLng/2)*math.Sin(dLng/2)*math.Cos(latARad)*math.Cos(latBRad)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusKm * c
}

func degreesToRadians(deg float64) float64 {
	return deg * math.Pi / 180.0
}
