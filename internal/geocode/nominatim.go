package geocode

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/example/sitter-hub/internal/models"
	"github.com/example/sitter-hub/internal/observability"
)

// Geocoder resolves a free-text postal address to a coordinate. A miss is a
// value, not an error: provider outages and unknown addresses both come back
// as ok=false and the caller treats them as "could not verify address".
type Geocoder interface {
	Geocode(ctx context.Context, address string) (models.Coordinate, bool)
}

// NominatimClient queries a Nominatim-compatible search endpoint. Queries are
// qualified with a fixed country to disambiguate within the target market.
type NominatimClient struct {
	Endpoint string
	Country  string
	Client   *http.Client
	Cache    Cache
	Logger   *slog.Logger
}

func NewNominatimClient(endpoint, country string, timeout time.Duration, cache Cache, logger *slog.Logger) *NominatimClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &NominatimClient{
		Endpoint: strings.TrimRight(endpoint, "/"),
		Country:  country,
		Client:   &http.Client{Timeout: timeout},
		Cache:    cache,
		Logger:   logger,
	}
}

// Geocode resolves the address. If the qualified full address misses and the
// address has more than two comma segments, it retries with only the first
// and last segments (typically street + city), which recovers from
// over-specific input like an unrecognized neighborhood token.
func (c *NominatimClient) Geocode(ctx context.Context, address string) (models.Coordinate, bool) {
	address = strings.TrimSpace(address)
	if address == "" {
		return models.Coordinate{}, false
	}
	observability.GeocodeLookupsTotal.Inc()

	if c.Cache != nil {
		if coord, ok := c.Cache.Get(ctx, address); ok {
			return coord, true
		}
	}

	if coord, ok := c.lookup(ctx, address+", "+c.Country); ok {
		c.cache(ctx, address, coord)
		return coord, true
	}

	segments := strings.Split(address, ",")
	if len(segments) > 2 {
		short := strings.TrimSpace(segments[0]) + ", " + strings.TrimSpace(segments[len(segments)-1])
		if coord, ok := c.lookup(ctx, short+", "+c.Country); ok {
			c.cache(ctx, address, coord)
			return coord, true
		}
	}

	observability.GeocodeMissesTotal.Inc()
	return models.Coordinate{}, false
}

func (c *NominatimClient) cache(ctx context.Context, address string, coord models.Coordinate) {
	if c.Cache != nil {
		c.Cache.Set(ctx, address, coord)
	}
}

// lookup performs one search call. Nominatim returns lat/lon as JSON strings.
func (c *NominatimClient) lookup(ctx context.Context, query string) (models.Coordinate, bool) {
	u := c.Endpoint + "/search?format=json&limit=1&q=" + url.QueryEscape(query)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return models.Coordinate{}, false
	}
	req.Header.Set("User-Agent", "sitter-hub/1.0")
	resp, err := c.Client.Do(req)
	if err != nil {
		c.Logger.Warn("geocode request failed", "query", query, "error", err)
		return models.Coordinate{}, false
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		c.Logger.Warn("geocode non-200", "query", query, "status", resp.StatusCode)
		return models.Coordinate{}, false
	}
	var out []struct {
		Lat string `json:"lat"`
		Lon string `json:"lon"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		c.Logger.Warn("geocode decode failed", "query", query, "error", err)
		return models.Coordinate{}, false
	}
	if len(out) == 0 {
		return models.Coordinate{}, false
	}
	lat, err1 := strconv.ParseFloat(out[0].Lat, 64)
	lng, err2 := strconv.ParseFloat(out[0].Lon, 64)
	if err1 != nil || err2 != nil {
		return models.Coordinate{}, false
	}
	return models.NewCoordinate(lat, lng), true
}
