package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/bizcribe/bizcribe-backend/pkg/logger"
	"github.com/redis/go-redis/v9"
)

// Client resolves US postal addresses to WGS84 coordinates.
// It tries Mapbox first (when a token is configured) and falls back to
// Nominatim. Lookups are best-effort: any upstream failure yields no
// coordinates, never an error.
type Client struct {
	config     Config
	httpClient *http.Client
	cache      *redis.Client
}

// NewClient creates a geocoding client. cache may be nil, in which case
// results are not cached.
func NewClient(config Config, cache *redis.Client) *Client {
	config = config.withDefaults()
	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		cache: cache,
	}
}

// Lookup resolves the given address parts to (latitude, longitude).
// Returns (nil, nil) when the address is blank or no provider finds a match.
func (c *Client) Lookup(ctx context.Context, address1, city, state, zip string) (*float64, *float64) {
	query := buildQuery(address1, city, state, zip)
	if query == "" {
		return nil, nil
	}

	if lat, lng, ok := c.cachedResult(ctx, query); ok {
		return lat, lng
	}

	if c.config.MapboxToken != "" {
		if lat, lng := c.lookupMapbox(ctx, query); lat != nil && lng != nil {
			c.storeResult(ctx, query, *lat, *lng)
			return lat, lng
		}
	}

	if lat, lng := c.lookupNominatim(ctx, query); lat != nil && lng != nil {
		c.storeResult(ctx, query, *lat, *lng)
		return lat, lng
	}

	return nil, nil
}

// buildQuery joins the populated address parts into a single query string
func buildQuery(address1, city, state, zip string) string {
	parts := []string{address1, city, state, zip}
	populated := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			populated = append(populated, p)
		}
	}
	return strings.Join(populated, ", ")
}

type mapboxResponse struct {
	Features []struct {
		Center []float64 `json:"center"` // [lng, lat]
	} `json:"features"`
}

func (c *Client) lookupMapbox(ctx context.Context, query string) (*float64, *float64) {
	params := url.Values{}
	params.Set("access_token", c.config.MapboxToken)
	params.Set("limit", "1")
	params.Set("country", "US")

	requestURL := fmt.Sprintf(
		"https://api.mapbox.com/geocoding/v5/mapbox.places/%s.json?%s",
		url.PathEscape(query),
		params.Encode(),
	)

	var result mapboxResponse
	if err := c.getJSON(ctx, requestURL, nil, &result); err != nil {
		logger.Warn("Mapbox geocoding failed", map[string]interface{}{
			"query": query,
			"error": err.Error(),
		})
		return nil, nil
	}

	if len(result.Features) == 0 || len(result.Features[0].Center) != 2 {
		return nil, nil
	}

	lng := result.Features[0].Center[0]
	lat := result.Features[0].Center[1]
	return &lat, &lng
}

type nominatimResult struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

func (c *Client) lookupNominatim(ctx context.Context, query string) (*float64, *float64) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("limit", "1")
	params.Set("addressdetails", "0")
	params.Set("countrycodes", "us")
	if c.config.NominatimEmail != "" {
		params.Set("email", c.config.NominatimEmail)
	}

	requestURL := "https://nominatim.openstreetmap.org/search?" + params.Encode()

	var results []nominatimResult
	headers := map[string]string{"User-Agent": "bizcribe-import/1.0"}
	if err := c.getJSON(ctx, requestURL, headers, &results); err != nil {
		logger.Warn("Nominatim geocoding failed", map[string]interface{}{
			"query": query,
			"error": err.Error(),
		})
		return nil, nil
	}

	if len(results) == 0 {
		return nil, nil
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return nil, nil
	}
	lng, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return nil, nil
	}
	return &lat, &lng
}

func (c *Client) getJSON(ctx context.Context, requestURL string, headers map[string]string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (c *Client) cachedResult(ctx context.Context, query string) (*float64, *float64, bool) {
	if c.cache == nil {
		return nil, nil, false
	}

	raw, err := c.cache.Get(ctx, cacheKey(query)).Result()
	if err != nil {
		return nil, nil, false
	}

	var cached [2]float64
	if err := json.Unmarshal([]byte(raw), &cached); err != nil {
		return nil, nil, false
	}
	return &cached[0], &cached[1], true
}

func (c *Client) storeResult(ctx context.Context, query string, lat, lng float64) {
	if c.cache == nil {
		return
	}

	raw, err := json.Marshal([2]float64{lat, lng})
	if err != nil {
		return
	}
	if err := c.cache.Set(ctx, cacheKey(query), raw, c.config.CacheTTL).Err(); err != nil {
		logger.Debug("Failed to cache geocode result", map[string]interface{}{
			"query": query,
			"error": err.Error(),
		})
	}
}

func cacheKey(query string) string {
	return "geocode:" + strings.ToLower(query)
}
