package pickup

// SourceKind identifies the strategy that produced a candidate.
type SourceKind string

const (
	// SourcePoi marks candidates from the midpoint/POI search strategy.
	SourcePoi SourceKind = "poi"
	// SourceModel marks candidates suggested by a language model.
	SourceModel SourceKind = "model"
	// SourceOcr marks candidates extracted from a rendered map image.
	SourceOcr SourceKind = "ocr"
)

// ParseSourceKind validates a strategy name supplied by a caller.
func ParseSourceKind(s string) (SourceKind, bool) {
	switch SourceKind(s) {
	case SourcePoi, SourceModel, SourceOcr:
		return SourceKind(s), true
	}
	return "", false
}

// Candidate is a geographic point proposed as a possible pickup location,
// tagged with its generating strategy. RawTrace carries the model reply or
// recognized text the point was extracted from, for diagnostics.
type Candidate struct {
	Location GeoPoint   `json:"location"`
	Source   SourceKind `json:"source"`
	Name     string     `json:"name,omitempty"`
	RawTrace string     `json:"raw_trace,omitempty"`
}

// ScoredCandidate is a candidate with both route legs resolved and the
// combined score. It is only constructed from two successful routes.
type ScoredCandidate struct {
	Candidate      Candidate `json:"candidate"`
	DriverRoute    Route     `json:"driver_route"`
	PassengerRoute Route     `json:"passenger_route"`
	Score          float64   `json:"score"`
}

// NewScoredCandidate combines the two resolved legs into a scored candidate.
// The score is the bottleneck travel time: whichever party waits longer
// determines desirability, and lower is better for both parties jointly.
func NewScoredCandidate(cand Candidate, driverRoute, passengerRoute Route) ScoredCandidate {
	score := driverRoute.DurationMin
	if passengerRoute.DurationMin > score {
		score = passengerRoute.DurationMin
	}
	return ScoredCandidate{
		Candidate:      cand,
		DriverRoute:    driverRoute,
		PassengerRoute: passengerRoute,
		Score:          score,
	}
}
