package googlemaps

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/meetpoint/service-pickup/internal/domain/pickup"
	"github.com/twpayne/go-polyline"
)

const (
	defaultBaseURL = "https://maps.googleapis.com"

	directionsPath   = "/maps/api/directions/json"
	nearbySearchPath = "/maps/api/place/nearbysearch/json"
	geocodePath      = "/maps/api/geocode/json"
	staticMapPath    = "/maps/api/staticmap"

	statusOK          = "OK"
	statusZeroResults = "ZERO_RESULTS"
)

// Config holds the Google Maps Platform settings. Built once at process
// start and read-only thereafter.
type Config struct {
	Key     string
	BaseURL string
	Timeout time.Duration
}

// Client calls the Google Maps Platform web services: Directions, Places
// nearby search, Geocoding and Static Maps. One client instance serves all
// four; it performs no retries.
type Client struct {
	key        string
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a Google Maps client.
func NewClient(cfg Config) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		key:     cfg.Key,
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func formatPoint(p pickup.GeoPoint) string {
	return fmt.Sprintf("%f,%f", p.Lat, p.Lng)
}

// ==================== API response structures ====================

type valueText struct {
	Value float64 `json:"value"`
	Text  string  `json:"text"`
}

type directionsResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Routes       []struct {
		OverviewPolyline struct {
			Points string `json:"points"`
		} `json:"overview_polyline"`
		Legs []struct {
			Duration valueText `json:"duration"`
			Distance valueText `json:"distance"`
		} `json:"legs"`
	} `json:"routes"`
}

type nearbySearchResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Results      []struct {
		Name     string `json:"name"`
		Geometry struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

type geocodeResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Results      []struct {
		Geometry struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

// ==================== Directions ====================

// Route resolves a route between two points. Duration is rounded to one
// decimal minute and distance to two decimal kilometers. When the response
// carries no overview polyline the geometry degrades to the two-point
// straight line {origin, destination}.
func (c *Client) Route(ctx context.Context, origin, destination pickup.GeoPoint, mode pickup.TravelMode) (*pickup.Route, error) {
	params := url.Values{}
	params.Set("origin", formatPoint(origin))
	params.Set("destination", formatPoint(destination))
	params.Set("mode", string(mode))
	params.Set("key", c.key)

	body, err := c.doRequest(ctx, directionsPath, params)
	if err != nil {
		return nil, err
	}

	var resp directionsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("unmarshal directions response: %w", err)
	}
	if resp.Status != statusOK {
		return nil, fmt.Errorf("directions API error: %s %s", resp.Status, resp.ErrorMessage)
	}
	if len(resp.Routes) == 0 || len(resp.Routes[0].Legs) == 0 {
		return nil, fmt.Errorf("no route found")
	}

	leg := resp.Routes[0].Legs[0]
	geometry := decodeGeometry(resp.Routes[0].OverviewPolyline.Points, origin, destination)

	return &pickup.Route{
		DurationMin: math.Round(leg.Duration.Value/60*10) / 10,
		DistanceKm:  math.Round(leg.Distance.Value/1000*100) / 100,
		Geometry:    geometry,
		Text: pickup.RouteText{
			Duration: leg.Duration.Text,
			Distance: leg.Distance.Text,
		},
	}, nil
}

// decodeGeometry decodes an encoded polyline into an ordered point sequence,
// degrading to the two-point straight line when the encoding is absent or
// malformed.
func decodeGeometry(encoded string, origin, destination pickup.GeoPoint) []pickup.GeoPoint {
	if encoded == "" {
		return []pickup.GeoPoint{origin, destination}
	}
	coords, _, err := polyline.DecodeCoords([]byte(encoded))
	if err != nil || len(coords) == 0 {
		return []pickup.GeoPoint{origin, destination}
	}
	points := make([]pickup.GeoPoint, len(coords))
	for i, c := range coords {
		points[i] = pickup.GeoPoint{Lat: c[0], Lng: c[1]}
	}
	return points
}

// ==================== Places ====================

// NearbySearch finds POIs of the given category around a center point,
// capped at maxResults.
func (c *Client) NearbySearch(ctx context.Context, center pickup.GeoPoint, radiusMeters int, category string, maxResults int) ([]pickup.Place, error) {
	params := url.Values{}
	params.Set("location", formatPoint(center))
	params.Set("radius", strconv.Itoa(radiusMeters))
	params.Set("type", category)
	params.Set("key", c.key)

	body, err := c.doRequest(ctx, nearbySearchPath, params)
	if err != nil {
		return nil, err
	}

	var resp nearbySearchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("unmarshal nearby search response: %w", err)
	}
	if resp.Status != statusOK && resp.Status != statusZeroResults {
		return nil, fmt.Errorf("places API error: %s %s", resp.Status, resp.ErrorMessage)
	}

	results := resp.Results
	if len(results) > maxResults {
		results = results[:maxResults]
	}

	places := make([]pickup.Place, 0, len(results))
	for _, r := range results {
		places = append(places, pickup.Place{
			Name: r.Name,
			Location: pickup.GeoPoint{
				Lat: r.Geometry.Location.Lat,
				Lng: r.Geometry.Location.Lng,
			},
		})
	}
	return places, nil
}

// ==================== Geocoding ====================

// Geocode resolves a free-text address. It returns pickup.ErrAddressNotFound
// when the address resolves to nothing.
func (c *Client) Geocode(ctx context.Context, address string) (pickup.GeoPoint, error) {
	params := url.Values{}
	params.Set("address", address)
	params.Set("key", c.key)

	body, err := c.doRequest(ctx, geocodePath, params)
	if err != nil {
		return pickup.GeoPoint{}, err
	}

	var resp geocodeResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return pickup.GeoPoint{}, fmt.Errorf("unmarshal geocode response: %w", err)
	}
	if resp.Status == statusZeroResults || len(resp.Results) == 0 {
		return pickup.GeoPoint{}, pickup.ErrAddressNotFound
	}
	if resp.Status != statusOK {
		return pickup.GeoPoint{}, fmt.Errorf("geocoding API error: %s %s", resp.Status, resp.ErrorMessage)
	}

	loc := resp.Results[0].Geometry.Location
	return pickup.GeoPoint{Lat: loc.Lat, Lng: loc.Lng}, nil
}

// ==================== Static Maps ====================

// RenderMap renders a static map image with the given labeled markers and
// returns the raw image bytes.
func (c *Client) RenderMap(ctx context.Context, markers []pickup.Marker) ([]byte, error) {
	params := url.Values{}
	params.Set("size", "640x640")
	for _, m := range markers {
		params.Add("markers", fmt.Sprintf("label:%s|%s", m.Label, formatPoint(m.Location)))
	}
	params.Set("key", c.key)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+staticMapPath+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("static map API returned status %d: %s", resp.StatusCode, string(body))
	}
	return body, nil
}

// ==================== HTTP plumbing ====================

func (c *Client) doRequest(ctx context.Context, path string, params url.Values) ([]byte, error) {
	reqURL := c.baseURL + path + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("maps API returned status %d: %s", resp.StatusCode, string(body))
	}
	return body, nil
}

// Interface guards.
var (
	_ pickup.DirectionsProvider = (*Client)(nil)
	_ pickup.PlacesProvider     = (*Client)(nil)
	_ pickup.GeocodeProvider    = (*Client)(nil)
	_ pickup.StaticMapProvider  = (*Client)(nil)
)
