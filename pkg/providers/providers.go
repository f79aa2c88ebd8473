// Package providers builds geocoding adapters by service name.
package providers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/Proton-105/geogate/pkg/geocode"
	"github.com/Proton-105/geogate/pkg/providers/geoapify"
	"github.com/Proton-105/geogate/pkg/providers/googlev3"
	"github.com/Proton-105/geogate/pkg/providers/nominatim"
)

// Supported service names.
const (
	Nominatim = "nominatim"
	GoogleV3  = "googlev3"
	Geoapify  = "geoapify"
)

// Options carries the union of per-provider settings; each adapter validates
// the fields it needs.
type Options struct {
	UserAgent string
	APIKey    string
	Domain    string
	Region    string
	Timeout   time.Duration

	HTTPClient *http.Client
}

// New builds the adapter for the named service.
func New(name string, opts Options) (geocode.Geocoder, error) {
	switch name {
	case Nominatim:
		return nominatim.New(nominatim.Config{
			UserAgent:  opts.UserAgent,
			Domain:     opts.Domain,
			Timeout:    opts.Timeout,
			HTTPClient: opts.HTTPClient,
		})
	case GoogleV3:
		return googlev3.New(googlev3.Config{
			APIKey:     opts.APIKey,
			Domain:     opts.Domain,
			Region:     opts.Region,
			Timeout:    opts.Timeout,
			HTTPClient: opts.HTTPClient,
		})
	case Geoapify:
		return geoapify.New(geoapify.Config{
			APIKey:     opts.APIKey,
			Domain:     opts.Domain,
			Timeout:    opts.Timeout,
			HTTPClient: opts.HTTPClient,
		})
	default:
		return nil, geocode.NewConfigurationError(fmt.Sprintf("unknown geocoding provider %q", name))
	}
}

// DefaultMinDelay reports the pacing a provider's usage policy asks for, or
// zero when the service publishes no one-client ceiling.
func DefaultMinDelay(name string) time.Duration {
	switch name {
	case Nominatim:
		return nominatim.DefaultMinDelay
	case Geoapify:
		return geoapify.DefaultMinDelay
	default:
		return 0
	}
}
