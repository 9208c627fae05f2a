package pickup

import "context"

// Place is a located result from a places search.
type Place struct {
	Name     string
	Location GeoPoint
}

// Marker is a labeled point on a rendered static map.
type Marker struct {
	Label    string
	Location GeoPoint
}

// DirectionsProvider resolves a route between two points for a travel mode.
// Implementations perform a single outbound call with no internal retries;
// retry policy, if desired, belongs to the caller.
type DirectionsProvider interface {
	Route(ctx context.Context, origin, destination GeoPoint, mode TravelMode) (*Route, error)
}

// PlacesProvider searches for points of interest around a center point.
type PlacesProvider interface {
	NearbySearch(ctx context.Context, center GeoPoint, radiusMeters int, category string, maxResults int) ([]Place, error)
}

// GeocodeProvider resolves a free-text address to a point. It returns
// ErrAddressNotFound when the address resolves to nothing.
type GeocodeProvider interface {
	Geocode(ctx context.Context, address string) (GeoPoint, error)
}

// CompletionProvider sends a prompt to a text model and returns the raw reply.
type CompletionProvider interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// ImageTextProvider runs optical text recognition over an image.
type ImageTextProvider interface {
	RecognizeText(ctx context.Context, image []byte) (string, error)
}

// StaticMapProvider renders a static map image with the given markers.
type StaticMapProvider interface {
	RenderMap(ctx context.Context, markers []Marker) ([]byte, error)
}
