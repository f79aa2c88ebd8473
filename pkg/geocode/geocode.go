// Package geocode defines the provider-independent geocoding types shared by
// every adapter and by the scheduling layer.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
)

// Location is a single geocoding result from any provider.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Address   string  `json:"address"`
	Provider  string  `json:"provider"`

	// Raw keeps the untouched provider payload for callers that need
	// fields the common shape does not carry.
	Raw json.RawMessage `json:"raw,omitempty"`
}

func (l *Location) String() string {
	if l == nil {
		return "<no location>"
	}

	return fmt.Sprintf("%s (%.6f, %.6f)", l.Address, l.Latitude, l.Longitude)
}

// Geocoder is the single capability every provider adapter exposes. Each
// implementation owns its own configuration and HTTP client; none of them
// share state.
type Geocoder interface {
	// Geocode resolves a free-form query into a location.
	Geocode(ctx context.Context, query string) (*Location, error)

	// Reverse resolves a coordinate pair into the nearest known address.
	Reverse(ctx context.Context, lat, lon float64) (*Location, error)
}
