package pickup

import (
	"context"

	"go.uber.org/zap"
)

// PoiSource proposes candidates by searching for points of interest around the
// geometric midpoint of driver and passenger.
type PoiSource struct {
	places       PlacesProvider
	radiusMeters int
	category     string
	maxResults   int
	logger       *zap.Logger
}

// NewPoiSource creates a midpoint/POI search strategy.
func NewPoiSource(places PlacesProvider, radiusMeters int, category string, maxResults int, logger *zap.Logger) *PoiSource {
	return &PoiSource{
		places:       places,
		radiusMeters: radiusMeters,
		category:     category,
		maxResults:   maxResults,
		logger:       logger,
	}
}

// Kind identifies the strategy.
func (s *PoiSource) Kind() SourceKind { return SourcePoi }

// SupportsFeedback reports that this strategy ignores feedback.
func (s *PoiSource) SupportsFeedback() bool { return false }

// Generate searches for POIs around the midpoint. The feedback parameter is
// not consulted. A search failure yields zero candidates.
func (s *PoiSource) Generate(ctx context.Context, driver, passenger GeoPoint, _ string) ([]Candidate, error) {
	mid := Midpoint(driver, passenger)

	places, err := s.places.NearbySearch(ctx, mid, s.radiusMeters, s.category, s.maxResults)
	if err != nil {
		s.logger.Warn("poi search failed",
			zap.Float64("midpoint_lat", mid.Lat),
			zap.Float64("midpoint_lng", mid.Lng),
			zap.Error(err),
		)
		return nil, nil
	}

	candidates := make([]Candidate, 0, len(places))
	for _, p := range places {
		candidates = append(candidates, Candidate{
			Location: p.Location,
			Source:   SourcePoi,
			Name:     p.Name,
		})
	}
	return candidates, nil
}
