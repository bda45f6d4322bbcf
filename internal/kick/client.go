package kick

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/PabloB07/kick-wp/internal/cache"
	"github.com/PabloB07/kick-wp/internal/credentials"
	"github.com/PabloB07/kick-wp/internal/metrics"
	"github.com/PabloB07/kick-wp/internal/platform/retry"
)

// CachePrefix scopes every response-cache key owned by the client, so a
// prefix delete is a complete invalidation.
const CachePrefix = "kickwp:api:"

const (
	defaultBaseURL      = "https://kick.com/api/v2"
	defaultAttemptDelay = 500 * time.Millisecond
	defaultCacheTTL     = 300 * time.Second
	defaultCategoryTTL  = time.Hour

	defaultLimit = 12
	maxLimit     = 50

	// minCacheTTL floors operator-supplied cache durations so a busy page
	// cannot hammer the upstream on every render.
	minCacheTTL = 60 * time.Second
)

// ErrTokenRequired reports that an authenticated endpoint was called without
// a configured access token. This is an expected, recoverable condition.
var ErrTokenRequired = errors.New("access token required")

// TokenSource supplies a valid bearer token, refreshing it first when it is
// expired or about to expire.
type TokenSource interface {
	EnsureFreshToken(ctx context.Context) (string, error)
}

// ClientConfig carries the per-installation client settings. Zero values
// select sensible defaults.
type ClientConfig struct {
	BaseURL            string
	CacheTTL           time.Duration
	CategoriesCacheTTL time.Duration
	AttemptDelay       time.Duration
	StreamsPerPage     int
	DefaultCategory    string
}

func (c *ClientConfig) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = defaultBaseURL
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if c.CacheTTL <= 0 {
		c.CacheTTL = defaultCacheTTL
	}
	if c.CategoriesCacheTTL <= 0 {
		c.CategoriesCacheTTL = defaultCategoryTTL
	}
	if c.AttemptDelay <= 0 {
		c.AttemptDelay = defaultAttemptDelay
	}
	if c.StreamsPerPage <= 0 {
		c.StreamsPerPage = defaultLimit
	}
	if c.StreamsPerPage > maxLimit {
		c.StreamsPerPage = maxLimit
	}
}

// Client translates high-level intents into cached, normalized results,
// hiding upstream instability. It is cheap to construct and intended to live
// for a single request scope; the constructor performs no network I/O.
type Client struct {
	transport Transport
	cache     cache.Cache
	creds     credentials.Store
	tokens    TokenSource
	clock     clockwork.Clock
	cfg       ClientConfig

	authToken string
}

// NewClient wires a Client. tokens may be nil when no OAuth manager exists;
// authenticated endpoints then fall back to the persisted access token.
func NewClient(transport Transport, store cache.Cache, creds credentials.Store, tokens TokenSource, clock clockwork.Clock, cfg ClientConfig) *Client {
	cfg.applyDefaults()
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Client{
		transport: transport,
		cache:     store,
		creds:     creds,
		tokens:    tokens,
		clock:     clock,
		cfg:       cfg,
	}
}

// SetAuthToken updates the in-memory bearer token and persists it. Nothing
// else is invalidated.
func (c *Client) SetAuthToken(ctx context.Context, token string) error {
	c.authToken = token
	if err := c.creds.Set(ctx, credentials.KeyAccessToken, token); err != nil {
		return fmt.Errorf("failed to persist access token: %w", err)
	}
	return nil
}

// ClearCache invalidates every entry owned by this client. Idempotent.
func (c *Client) ClearCache(ctx context.Context) bool {
	if err := c.cache.DeleteByPrefix(ctx, CachePrefix); err != nil {
		slog.Warn("Failed to clear response cache", "error", err)
		return false
	}
	metrics.CacheFlushesTotal.Inc()
	return true
}

// FeaturedStreams returns up to limit live featured streams, optionally
// filtered by category slug. The category is passed through unvalidated:
// unknown categories yield whatever the upstream returns, not a client error.
func (c *Client) FeaturedStreams(ctx context.Context, limit int, category string) StreamsResult {
	limit = c.clampLimit(ctx, limit)
	if category == "" {
		category = c.defaultCategory(ctx)
	}

	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))
	if category != "" {
		query.Set("category", category)
	}

	const endpoint = "featured"
	key := c.cacheKey(endpoint, "/channels/featured", query)

	if streams, ok := c.cachedStreams(ctx, endpoint, key); ok {
		return StreamsResult{Data: streams}
	}

	payload, err := c.fetchPayload(ctx, endpoint, "/channels/featured", query, "")
	if err != nil {
		metrics.FallbacksServedTotal.WithLabelValues(endpoint).Inc()
		slog.Warn("Serving fallback featured streams", "error", err)
		return StreamsResult{Error: "Kick.com is unreachable", Data: FallbackFeaturedStreams()}
	}

	streams := normalizeStreams(payload, limit)
	c.storeStreams(ctx, endpoint, key, streams, c.streamTTL(ctx))
	return StreamsResult{Data: streams}
}

// Categories returns the category list. Categories change rarely, so they
// are cached for a long TTL.
func (c *Client) Categories(ctx context.Context) CategoriesResult {
	const endpoint = "categories"
	key := c.cacheKey(endpoint, "/categories", nil)

	if data, ok, err := c.cache.Get(ctx, key); err == nil && ok {
		var categories []Category
		if err := json.Unmarshal(data, &categories); err == nil {
			metrics.CacheHitsTotal.WithLabelValues(endpoint).Inc()
			return CategoriesResult{Data: categories}
		}
	}
	metrics.CacheMissesTotal.WithLabelValues(endpoint).Inc()

	payload, err := c.fetchPayload(ctx, endpoint, "/categories", nil, "")
	if err != nil {
		metrics.FallbacksServedTotal.WithLabelValues(endpoint).Inc()
		slog.Warn("Serving fallback categories", "error", err)
		return CategoriesResult{Error: "Kick.com is unreachable", Data: FallbackCategories()}
	}

	items := payloadItems(payload)
	categories := make([]Category, 0, len(items))
	for _, item := range items {
		categories = append(categories, FormatCategory(item))
	}

	if encoded, err := json.Marshal(categories); err == nil {
		if err := c.cache.Set(ctx, key, encoded, c.cfg.CategoriesCacheTTL); err != nil {
			slog.Warn("Failed to cache categories", "error", err)
		}
	}
	return CategoriesResult{Data: categories}
}

// Streamer looks up a single channel by username. An empty username is a
// domain validation error answered without any network call; an upstream
// failure degrades to a deterministic placeholder stream.
func (c *Client) Streamer(ctx context.Context, username string) StreamsResult {
	username = strings.TrimSpace(username)
	if username == "" {
		return StreamsResult{Error: "username required", Data: []Stream{}}
	}

	const endpoint = "streamer"
	path := "/channels/" + url.PathEscape(username)
	key := c.cacheKey(endpoint, path, nil)

	if streams, ok := c.cachedStreams(ctx, endpoint, key); ok {
		return StreamsResult{Data: streams}
	}

	payload, err := c.fetchPayload(ctx, endpoint, path, nil, "")
	if err != nil {
		metrics.FallbacksServedTotal.WithLabelValues(endpoint).Inc()
		slog.Warn("Serving placeholder streamer", "streamer", username, "error", err)
		return StreamsResult{Error: "streamer lookup failed", Data: []Stream{PlaceholderStream(username)}}
	}

	streams := normalizeStreams(payload, 1)
	if len(streams) == 0 {
		streams = []Stream{PlaceholderStream(username)}
	}
	c.storeStreams(ctx, endpoint, key, streams, c.streamTTL(ctx))
	return StreamsResult{Data: streams}
}

// FollowedStreams returns the authenticated user's followed live channels.
// Without a token this reports "token required" with fallback data, which is
// an expected condition, not a fault.
func (c *Client) FollowedStreams(ctx context.Context) StreamsResult {
	token, err := c.bearerToken(ctx)
	if err != nil || token == "" {
		return StreamsResult{Error: "token required", Data: FallbackFollowedStreams()}
	}

	const endpoint = "followed"
	key := c.cacheKey(endpoint, "/channels/followed", nil)

	if streams, ok := c.cachedStreams(ctx, endpoint, key); ok {
		return StreamsResult{Data: streams}
	}

	payload, err := c.fetchPayload(ctx, endpoint, "/channels/followed", nil, token)
	if err != nil {
		metrics.FallbacksServedTotal.WithLabelValues(endpoint).Inc()
		slog.Warn("Serving fallback followed streams", "error", err)
		return StreamsResult{Error: "Kick.com is unreachable", Data: FallbackFollowedStreams()}
	}

	streams := normalizeStreams(payload, maxLimit)
	c.storeStreams(ctx, endpoint, key, streams, c.streamTTL(ctx))
	return StreamsResult{Data: streams}
}

// TestConnection performs a single lightweight reachability probe, bypassing
// the cache and the multi-configuration fallback. Health-check UI only.
func (c *Client) TestConnection(ctx context.Context) ConnectionTest {
	probe := c.cfg.BaseURL + "/categories?limit=1"
	resp, err := c.transport.Do(ctx, http.MethodGet, probe, minimalHeaders(""), nil)
	if err != nil {
		return ConnectionTest{
			Success: false,
			Message: "Kick API unreachable",
			Details: err.Error(),
		}
	}
	if resp.StatusCode != http.StatusOK {
		return ConnectionTest{
			Success: false,
			Message: fmt.Sprintf("Kick API answered with status %d", resp.StatusCode),
			Details: truncate(string(resp.Body), 200),
		}
	}
	return ConnectionTest{
		Success:    true,
		Message:    "Kick API reachable",
		APIWorking: json.Valid(resp.Body),
	}
}

// --- request machinery ---

// attemptConfig is one header/endpoint configuration tried during delivery.
type attemptConfig struct {
	name    string
	headers map[string]string
}

// attemptConfigs returns the ordered delivery configurations: public
// browser-like headers first, authenticated headers when a token exists,
// minimal headers last.
func (c *Client) attemptConfigs(token string) []attemptConfig {
	configs := []attemptConfig{
		{name: "public", headers: publicHeaders()},
	}
	if token != "" {
		configs = append(configs, attemptConfig{name: "authenticated", headers: authenticatedHeaders(token)})
	}
	configs = append(configs, attemptConfig{name: "minimal", headers: minimalHeaders(token)})
	return configs
}

// fetchPayload runs the bounded attempt loop for one logical endpoint: each
// attempt is a full HTTP call under the next configuration, a fixed delay
// separates attempts, and the first HTTP 200 with parseable JSON wins.
func (c *Client) fetchPayload(ctx context.Context, endpoint, path string, query url.Values, token string) (any, error) {
	rawURL := c.cfg.BaseURL + path
	if len(query) > 0 {
		rawURL += "?" + query.Encode()
	}

	if token == "" {
		if persisted, err := c.bearerToken(ctx); err == nil {
			token = persisted
		}
	}
	configs := c.attemptConfigs(token)

	policy := retry.Policy{
		MaxAttempts: len(configs),
		Delay:       c.cfg.AttemptDelay,
		Clock:       c.clock,
		OnRetry: func(attempt int, err error) {
			slog.Debug("Upstream attempt failed, trying next configuration",
				"endpoint", endpoint,
				"config", configs[attempt-1].name,
				"error", err,
			)
		},
	}

	payload, err := retry.Do(ctx, policy, func(error) retry.Action { return retry.Retry },
		func(attempt int) (any, error) {
			cfg := configs[attempt-1]

			start := c.clock.Now()
			resp, err := c.transport.Do(ctx, http.MethodGet, rawURL, cfg.headers, nil)
			metrics.UpstreamRequestDuration.WithLabelValues(cfg.name).Observe(c.clock.Since(start).Seconds())

			if err != nil {
				metrics.UpstreamAttemptsTotal.WithLabelValues(cfg.name, "transport_error").Inc()
				return nil, fmt.Errorf("config %s: %w", cfg.name, err)
			}
			if resp.StatusCode != http.StatusOK {
				metrics.UpstreamAttemptsTotal.WithLabelValues(cfg.name, strconv.Itoa(resp.StatusCode)).Inc()
				return nil, fmt.Errorf("config %s: unexpected status %d", cfg.name, resp.StatusCode)
			}

			var parsed any
			if err := json.Unmarshal(resp.Body, &parsed); err != nil {
				metrics.UpstreamAttemptsTotal.WithLabelValues(cfg.name, "parse_error").Inc()
				return nil, fmt.Errorf("config %s: malformed response: %w", cfg.name, err)
			}

			metrics.UpstreamAttemptsTotal.WithLabelValues(cfg.name, "200").Inc()
			return parsed, nil
		})
	if err != nil {
		metrics.UpstreamRequestsTotal.WithLabelValues(endpoint, "fallback").Inc()
		return nil, fmt.Errorf("all delivery attempts failed for %s: %w", endpoint, err)
	}

	metrics.UpstreamRequestsTotal.WithLabelValues(endpoint, "success").Inc()
	return payload, nil
}

func (c *Client) bearerToken(ctx context.Context) (string, error) {
	if c.authToken != "" {
		return c.authToken, nil
	}
	if c.tokens != nil {
		token, err := c.tokens.EnsureFreshToken(ctx)
		if err != nil {
			return "", err
		}
		return token, nil
	}
	token, err := c.creds.Get(ctx, credentials.KeyAccessToken)
	if err != nil {
		return "", fmt.Errorf("failed to read access token: %w", err)
	}
	if token == "" {
		return "", ErrTokenRequired
	}
	return token, nil
}

func (c *Client) clampLimit(ctx context.Context, limit int) int {
	if limit <= 0 {
		return c.defaultLimit(ctx)
	}
	if limit > maxLimit {
		return maxLimit
	}
	return limit
}

// The operator-tunable defaults (page size, cache duration, default category)
// are persisted through the settings surface, so they are resolved from the
// credential store on every request. The startup configuration only applies
// when nothing has been persisted.

func (c *Client) defaultLimit(ctx context.Context) int {
	if raw, err := c.creds.Get(ctx, credentials.KeyStreamsPerPage); err == nil && raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			if n > maxLimit {
				return maxLimit
			}
			return n
		}
	}
	return c.cfg.StreamsPerPage
}

func (c *Client) streamTTL(ctx context.Context) time.Duration {
	if raw, err := c.creds.Get(ctx, credentials.KeyCacheDuration); err == nil && raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			ttl := time.Duration(n) * time.Second
			if ttl < minCacheTTL {
				return minCacheTTL
			}
			return ttl
		}
	}
	return c.cfg.CacheTTL
}

func (c *Client) defaultCategory(ctx context.Context) string {
	if raw, err := c.creds.Get(ctx, credentials.KeyDefaultCategory); err == nil && raw != "" {
		return raw
	}
	return c.cfg.DefaultCategory
}

// cacheKey derives a deterministic key from the endpoint URL and its query
// parameters. The cache stores the normalized form, so normalization changes
// require no explicit invalidation beyond the prefix flush.
func (c *Client) cacheKey(endpoint, path string, query url.Values) string {
	rawURL := c.cfg.BaseURL + path
	if len(query) > 0 {
		rawURL += "?" + query.Encode()
	}
	sum := sha256.Sum256([]byte(rawURL))
	return fmt.Sprintf("%s%s:%x", CachePrefix, endpoint, sum[:16])
}

func (c *Client) cachedStreams(ctx context.Context, endpoint, key string) ([]Stream, bool) {
	data, ok, err := c.cache.Get(ctx, key)
	if err != nil {
		slog.Warn("Response cache read failed, falling through to upstream", "endpoint", endpoint, "error", err)
		metrics.CacheMissesTotal.WithLabelValues(endpoint).Inc()
		return nil, false
	}
	if !ok {
		metrics.CacheMissesTotal.WithLabelValues(endpoint).Inc()
		return nil, false
	}

	var streams []Stream
	if err := json.Unmarshal(data, &streams); err != nil {
		slog.Warn("Corrupt cache entry, falling through to upstream", "endpoint", endpoint, "error", err)
		metrics.CacheMissesTotal.WithLabelValues(endpoint).Inc()
		return nil, false
	}

	metrics.CacheHitsTotal.WithLabelValues(endpoint).Inc()
	return streams, true
}

func (c *Client) storeStreams(ctx context.Context, endpoint, key string, streams []Stream, ttl time.Duration) {
	encoded, err := json.Marshal(streams)
	if err != nil {
		return
	}
	if err := c.cache.Set(ctx, key, encoded, ttl); err != nil {
		slog.Warn("Failed to cache streams", "endpoint", endpoint, "error", err)
	}
}

func normalizeStreams(payload any, limit int) []Stream {
	items := payloadItems(payload)
	streams := make([]Stream, 0, len(items))
	for _, item := range items {
		streams = append(streams, FormatStream(item))
		if len(streams) == limit {
			break
		}
	}
	return streams
}

// --- header configurations ---

func publicHeaders() map[string]string {
	return map[string]string{
		"Accept":          "application/json",
		"Accept-Language": "en-US,en;q=0.9",
		"User-Agent":      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	}
}

func authenticatedHeaders(token string) map[string]string {
	return map[string]string{
		"Accept":        "application/json",
		"Authorization": "Bearer " + token,
		"User-Agent":    "kick-wp/1.0",
	}
}

func minimalHeaders(token string) map[string]string {
	headers := map[string]string{
		"Accept": "application/json",
	}
	if token != "" {
		headers["Authorization"] = "Bearer " + token
	}
	return headers
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
