// Package geoapify adapts the Geoapify geocoding API.
package geoapify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/Proton-105/geogate/pkg/geocode"
)

const providerName = "geoapify"

// DefaultMinDelay matches the free plan's documented ceiling of 45 requests
// per second.
const DefaultMinDelay = time.Second / 45

// Config holds the adapter settings. APIKey is mandatory.
type Config struct {
	APIKey  string
	Domain  string
	Timeout time.Duration

	HTTPClient *http.Client
}

// Geocoder calls the Geoapify geocoding API.
type Geocoder struct {
	apiKey     string
	geocodeURL string
	reverseURL string
	httpClient *http.Client
}

var _ geocode.Geocoder = (*Geocoder)(nil)

// New validates cfg and builds the adapter.
func New(cfg Config) (*Geocoder, error) {
	if cfg.APIKey == "" {
		return nil, geocode.NewConfigurationError("geoapify requires an API key")
	}

	domain := cfg.Domain
	if domain == "" {
		domain = "api.geoapify.com"
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
		geocodeURL: fmt.Sprintf("https://%s/v1/geocode/search", domain),
		reverseURL: fmt.Sprintf("https://%s/v1/geocode/reverse", domain),
		httpClient: client,
	}, nil
}

type response struct {
	Results []struct {
		Lat       float64 `json:"lat"`
		Lon       float64 `json:"lon"`
		Formatted string  `json:"formatted"`
	} `json:"results"`
}

// Geocode resolves a free-form query.
func (g *Geocoder) Geocode(ctx context.Context, query string) (*geocode.Location, error) {
	if query == "" {
		return nil, geocode.NewQueryError("empty query")
	}

	params := url.Values{}
	params.Set("text", query)
	params.Set("format", "json")
	params.Set("limit", "1")

	return g.request(ctx, g.geocodeURL, params, query)
}

// Reverse resolves a coordinate pair.
func (g *Geocoder) Reverse(ctx context.Context, lat, lon float64) (*geocode.Location, error) {
	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	params.Set("format", "json")
	params.Set("limit", "1")

	return g.request(ctx, g.reverseURL, params, fmt.Sprintf("%f,%f", lat, lon))
}

func (g *Geocoder) request(ctx context.Context, apiURL string, params url.Values, query string) (*geocode.Location, error) {
	params.Set("apiKey", g.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL+"?"+params.Encode(), nil)
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

	if len(decoded.Results) == 0 {
		return nil, geocode.NewNotFound(query)
	}

	result := decoded.Results[0]

	return &geocode.Location{
		Latitude:  result.Lat,
		Longitude: result.Lon,
		Address:   result.Formatted,
		Provider:  providerName,
		Raw:       body,
	}, nil
}
