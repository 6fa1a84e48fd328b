package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/clearway/sentinel/internal/guard"
)

const geoBreakerKey = "geoip"

// Geolocation is the resolved location for an IP. The zero value means the
// lookup failed or returned nothing; callers treat that as "unknown", never
// as an error.
type Geolocation struct {
	Country  string `json:"country"` // ISO 3166-1 alpha-2
	City     string `json:"city"`
	Region   string `json:"region"`
	Timezone string `json:"timezone"`
	ISP      string `json:"isp"`
	Proxy    bool   `json:"proxy"`
	Hosting  bool   `json:"hosting"`
}

// GeoIPClient resolves IP geolocation via an ip-api style HTTP endpoint,
// with an optional Redis read-through cache.
type GeoIPClient struct {
	baseURL  string
	client   *http.Client
	cache    *redis.Client
	cacheTTL time.Duration
	breaker  *guard.CircuitBreaker
	logger   *slog.Logger
}

// NewGeoIPClient creates a geolocation client. cache may be nil to disable
// caching.
func NewGeoIPClient(baseURL string, cache *redis.Client, cacheTTL time.Duration, logger *slog.Logger) *GeoIPClient {
	return &GeoIPClient{
		baseURL:  baseURL,
		client:   &http.Client{Timeout: 5 * time.Second},
		cache:    cache,
		cacheTTL: cacheTTL,
		breaker:  guard.NewCircuitBreaker(5, 30*time.Second),
		logger:   logger,
	}
}

// Lookup resolves the IP's geolocation. Failure degrades to an empty
// Geolocation with a logged warning; enrichment must not abort on lookup
// trouble.
func (c *GeoIPClient) Lookup(ctx context.Context, ip string) Geolocation {
	if ip == "" {
		return Geolocation{}
	}

	if loc, ok := c.cached(ctx, ip); ok {
		return loc
	}

	if res := c.breaker.Check(ctx, geoBreakerKey); !res.Allowed {
		c.logger.Warn("geoip lookup skipped", "ip", ip, "reason", res.Reason)
		return Geolocation{}
	}

	loc, err := c.fetch(ctx, ip)
	if err != nil {
		c.breaker.RecordFailure(geoBreakerKey)
		c.logger.Warn("geoip lookup failed, continuing without geolocation", "ip", ip, "error", err)
		return Geolocation{}
	}
	c.breaker.RecordSuccess(geoBreakerKey)

	c.store(ctx, ip, loc)
	return loc
}

func (c *GeoIPClient) fetch(ctx context.Context, ip string) (Geolocation, error) {
	url := fmt.Sprintf("%s/json/%s?fields=status,message,countryCode,city,regionName,timezone,isp,proxy,hosting", c.baseURL, ip)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Geolocation{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return Geolocation{}, fmt.Errorf("api call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Geolocation{}, fmt.Errorf("api returned %d", resp.StatusCode)
	}

	var body struct {
		Status      string `json:"status"`
		Message     string `json:"message"`
		CountryCode string `json:"countryCode"`
		City        string `json:"city"`
		RegionName  string `json:"regionName"`
		Timezone    string `json:"timezone"`
		ISP         string `json:"isp"`
		Proxy       bool   `json:"proxy"`
		Hosting     bool   `json:"hosting"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Geolocation{}, fmt.Errorf("decode response: %w", err)
	}
	if body.Status != "success" {
		return Geolocation{}, fmt.Errorf("lookup failed: %s", body.Message)
	}

	return Geolocation{
		Country:  body.CountryCode,
		City:     body.City,
		Region:   body.RegionName,
		Timezone: body.Timezone,
		ISP:      body.ISP,
		Proxy:    body.Proxy,
		Hosting:  body.Hosting,
	}, nil
}

func (c *GeoIPClient) cached(ctx context.Context, ip string) (Geolocation, bool) {
	if c.cache == nil {
		return Geolocation{}, false
	}
	raw, err := c.cache.Get(ctx, geoCacheKey(ip)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Debug("geoip cache read failed", "ip", ip, "error", err)
		}
		return Geolocation{}, false
	}
	var loc Geolocation
	if err := json.Unmarshal(raw, &loc); err != nil {
		return Geolocation{}, false
	}
	return loc, true
}

func (c *GeoIPClient) store(ctx context.Context, ip string, loc Geolocation) {
	if c.cache == nil {
		return
	}
	raw, _ := json.Marshal(loc)
	if err := c.cache.Set(ctx, geoCacheKey(ip), raw, c.cacheTTL).Err(); err != nil {
		c.logger.Debug("geoip cache write failed", "ip", ip, "error", err)
	}
}

func geoCacheKey(ip string) string { return "geoip:" + ip }
