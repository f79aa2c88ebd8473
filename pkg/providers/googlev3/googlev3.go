// Package googlev3 adapts the Google Maps Geocoding API (v3).
package googlev3

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/Proton-105/geogate/pkg/geocode"
)

const providerName = "googlev3"

// Config holds the adapter settings. APIKey is mandatory.
type Config struct {
	APIKey  string
	Domain  string
	Timeout time.Duration

	// Region biases results toward a ccTLD region ("uy", "fr", ...).
	Region string

	HTTPClient *http.Client
}

// Geocoder calls the Google Maps Geocoding API.
type Geocoder struct {
	apiKey     string
	region     string
	apiURL     string
	httpClient *http.Client
}

var _ geocode.Geocoder = (*Geocoder)(nil)

// New validates cfg and builds the adapter.
func New(cfg Config) (*Geocoder, error) {
	if cfg.APIKey == "" {
		return nil, geocode.NewConfigurationError("google geocoding requires an API key")
	}

	domain := cfg.Domain
	if domain == "" {
		domain = "maps.googleapis.com"
	}

	client := cfg.HTTPClient
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}

	return &Geocoder{
		apiKey:     cfg.APIKey,
		region:     cfg.Region,
		apiURL:     fmt.Sprintf("https://%s/maps/api/geocode/json", domain),
		httpClient: client,
	}, nil
}

type response struct {
	Results []struct {
		Geometry struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
		FormattedAddress string `json:"formatted_address"`
	} `json:"results"`
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
}

// Geocode resolves a free-form address.
func (g *Geocoder) Geocode(ctx context.Context, query string) (*geocode.Location, error) {
	if query == "" {
		return nil, geocode.NewQueryError("empty query")
	}

	params := url.Values{}
	params.Set("address", query)

	return g.request(ctx, params, query)
}

// Reverse resolves a coordinate pair.
func (g *Geocoder) Reverse(ctx context.Context, lat, lon float64) (*geocode.Location, error) {
	params := url.Values{}
	params.Set("latlng", fmt.Sprintf("%f,%f", lat, lon))

	return g.request(ctx, params, fmt.Sprintf("%f,%f", lat, lon))
}

func (g *Geocoder) request(ctx context.Context, params url.Values, query string) (*geocode.Location, error) {
	params.Set("key", g.apiKey)
	if g.region != "" {
		params.Set("region", g.region)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.apiURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, geocode.NewQueryError(err.Error())
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, geocode.FromTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, geocode.FromHTTPStatus(resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, geocode.FromTransportError(err)
	}

	var decoded response
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, geocode.NewParseError(err)
	}

	if err := statusError(decoded, query); err != nil {
		return nil, err
	}

	result := decoded.Results[0]

	return &geocode.Location{
		Latitude:  result.Geometry.Location.Lat,
		Longitude: result.Geometry.Location.Lng,
		Address:   result.FormattedAddress,
		Provider:  providerName,
		Raw:       body,
	}, nil
}

// statusError maps the API's in-body status onto the error taxonomy.
func statusError(decoded response, query string) error {
	switch decoded.Status {
	case "OK":
		if len(decoded.Results) == 0 {
			return geocode.NewNotFound(query)
		}
		return nil
	case "ZERO_RESULTS":
		return geocode.NewNotFound(query)
	case "OVER_QUERY_LIMIT":
		// Google uses the same status for throttling and exhausted
		// daily quota; short-term throttling is the common case.
		return geocode.NewRateLimited(message(decoded, "query limit reached"))
	case "OVER_DAILY_LIMIT":
		return geocode.NewQuotaExceeded(message(decoded, "daily quota exhausted"))
	case "REQUEST_DENIED":
		return geocode.NewAuthenticationFailure(message(decoded, "request denied"))
	case "INVALID_REQUEST":
		return geocode.NewQueryError(message(decoded, "invalid request"))
	case "UNKNOWN_ERROR":
		return geocode.NewUnavailable(message(decoded, "server error, may succeed on retry"), nil)
	default:
		return &geocode.Error{Kind: geocode.KindUnknown, Message: fmt.Sprintf("unexpected status %q", decoded.Status)}
	}
}

func message(decoded response, fallback string) string {
	if decoded.ErrorMessage != "" {
		return decoded.ErrorMessage
	}

	return fallback
}
