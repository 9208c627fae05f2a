package pickup

// TravelMode selects the routing profile for a directions request.
type TravelMode string

const (
	// ModeDriving routes by car.
	ModeDriving TravelMode = "driving"
	// ModeWalking routes on foot.
	ModeWalking TravelMode = "walking"
)

// RouteText holds the human-readable labels a directions backend returns
// alongside the numeric values.
type RouteText struct {
	Duration string `json:"duration"`
	Distance string `json:"distance"`
}

// Route is a successfully resolved route between two points.
//
// DurationMin is rounded to one decimal minute and DistanceKm to two decimal
// kilometers by the producing provider. Geometry is the decoded path; when the
// backend returns no encoded path it degrades to the two-point straight line
// {origin, destination}.
type Route struct {
	DurationMin float64    `json:"duration_min"`
	DistanceKm  float64    `json:"distance_km"`
	Geometry    []GeoPoint `json:"geometry"`
	Text        RouteText  `json:"text"`
}
