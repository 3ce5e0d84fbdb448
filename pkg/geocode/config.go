package geocode

import "time"

// Config represents the configuration for the geocoding client
type Config struct {
	// MapboxToken enables the Mapbox geocoding API when set
	MapboxToken string

	// NominatimEmail is sent to Nominatim as a courtesy contact address
	NominatimEmail string

	// Timeout bounds each upstream HTTP call
	Timeout time.Duration

	// CacheTTL controls how long cached results are kept in Redis
	CacheTTL time.Duration
}

func (c Config) withDefaults() Config {
	if c.Timeout <= 0 {
		c.Timeout = 8 * time.Second
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = 24 * time.Hour
	}
	return c
}
