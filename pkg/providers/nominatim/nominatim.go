// Package nominatim adapts the OSM Nominatim geocoding API.
package nominatim

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

const providerName = "nominatim"

// DefaultMinDelay is the spacing the public Nominatim usage policy requires:
// at most one request per second.
const DefaultMinDelay = time.Second

// Config holds the adapter settings. UserAgent is mandatory; the public
// Nominatim instance rejects anonymous clients.
type Config struct {
	UserAgent string
	Domain    string
	Timeout   time.Duration

	// HTTPClient overrides the default client, mostly for tests.
	HTTPClient *http.Client
}

// Geocoder calls a Nominatim instance.
type Geocoder struct {
	userAgent  string
	geocodeURL string
	reverseURL string
	httpClient *http.Client
}

var _ geocode.Geocoder = (*Geocoder)(nil)

// New validates cfg and builds the adapter.
func New(cfg Config) (*Geocoder, error) {
	if cfg.UserAgent == "" {
		return nil, geocode.NewConfigurationError("nominatim requires a user agent identifying your application")
	}

	domain := cfg.Domain
	if domain == "" {
		domain = "nominatim.openstreetmap.org"
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
		userAgent:  cfg.UserAgent,
		geocodeURL: fmt.Sprintf("https://%s/search", domain),
		reverseURL: fmt.Sprintf("https://%s/reverse", domain),
		httpClient: client,
	}, nil
}

type place struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// Geocode resolves a free-form query.
func (g *Geocoder) Geocode(ctx context.Context, query string) (*geocode.Location, error) {
	if query == "" {
		return nil, geocode.NewQueryError("empty query")
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "jsonv2")
	params.Set("limit", "1")

	body, err := g.get(ctx, g.geocodeURL+"?"+params.Encode())
	if err != nil {
		return nil, err
	}

	var places []place
	if err := json.Unmarshal(body, &places); err != nil {
		return nil, geocode.NewParseError(err)
	}

	if len(places) == 0 {
		return nil, geocode.NewNotFound(query)
	}

	return toLocation(places[0], body)
}

// Reverse resolves a coordinate pair.
func (g *Geocoder) Reverse(ctx context.Context, lat, lon float64) (*geocode.Location, error) {
	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	params.Set("format", "jsonv2")

	body, err := g.get(ctx, g.reverseURL+"?"+params.Encode())
	if err != nil {
		return nil, err
	}

	// Reverse returns a single object, with an "error" member when the
	// point matches nothing.
	var p struct {
		place
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, geocode.NewParseError(err)
	}

	if p.Error != "" {
		return nil, geocode.NewNotFound(fmt.Sprintf("%f,%f", lat, lon))
	}

	return toLocation(p.place, body)
}

func (g *Geocoder) get(ctx context.Context, reqURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, geocode.NewQueryError(err.Error())
	}
	req.Header.Set("User-Agent", g.userAgent)

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

	return body, nil
}

func toLocation(p place, raw []byte) (*geocode.Location, error) {
	lat, err := strconv.ParseFloat(p.Lat, 64)
	if err != nil {
		return nil, geocode.NewParseError(fmt.Errorf("latitude %q: %w", p.Lat, err))
	}

	lon, err := strconv.ParseFloat(p.Lon, 64)
	if err != nil {
		return nil, geocode.NewParseError(fmt.Errorf("longitude %q: %w", p.Lon, err))
	}

	return &geocode.Location{
		Latitude:  lat,
		Longitude: lon,
		Address:   p.DisplayName,
		Provider:  providerName,
		Raw:       raw,
	}, nil
}
