package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	// minCacheTTL is the floor for the response cache TTL. Anything lower
	// would let a busy page hammer the Kick API on every render.
	minCacheTTL = 60 * time.Second

	defaultCacheTTL           = 300 * time.Second
	defaultCategoriesCacheTTL = time.Hour
	defaultStreamsPerPage     = 12
	maxStreamsPerPage         = 50
)

type Config struct {
	AppEnv    string
	Port      string
	LogLevel  string
	LogFormat string

	DatabaseURL string
	RedisURL    string

	KickClientID     string
	KickClientSecret string
	KickRedirectURI  string

	// Upstream endpoints are configuration, not contract: the Kick API has
	// shipped under kick.com/api/v1, kick.com/api/v2 and api.kick.com/public/v1
	// at various times.
	KickAPIBaseURL string
	KickAuthURL    string
	KickTokenURL   string

	TokenEncryptionKey string

	CacheTTL           time.Duration
	CategoriesCacheTTL time.Duration
	StreamsPerPage     int
	DefaultCategory    string
}

func Load() (*Config, error) {
	cfg := &Config{
		AppEnv:             getEnv("APP_ENV", "development"),
		Port:               getEnv("PORT", "8080"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		LogFormat:          getEnv("LOG_FORMAT", "text"),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		RedisURL:           getEnv("REDIS_URL", ""),
		KickClientID:       getEnv("KICK_CLIENT_ID", ""),
		KickClientSecret:   getEnv("KICK_CLIENT_SECRET", ""),
		KickRedirectURI:    getEnv("KICK_REDIRECT_URI", ""),
		KickAPIBaseURL:     getEnv("KICK_API_BASE_URL", "https://kick.com/api/v2"),
		KickAuthURL:        getEnv("KICK_AUTH_URL", "https://id.kick.com/oauth/authorize"),
		KickTokenURL:       getEnv("KICK_TOKEN_URL", "https://id.kick.com/oauth/token"),
		TokenEncryptionKey: getEnv("TOKEN_ENCRYPTION_KEY", ""),
		CacheTTL:           getDurationSeconds("CACHE_TTL_SECONDS", defaultCacheTTL),
		CategoriesCacheTTL: getDurationSeconds("CATEGORIES_CACHE_TTL_SECONDS", defaultCategoriesCacheTTL),
		StreamsPerPage:     getInt("STREAMS_PER_PAGE", defaultStreamsPerPage),
		DefaultCategory:    getEnv("DEFAULT_CATEGORY", ""),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.RedisURL == "" {
		return nil, fmt.Errorf("REDIS_URL is required")
	}

	// Client credentials are intentionally optional: an installation without
	// them runs in the "needs configuration" state and still serves public
	// endpoints. The redirect URI only matters once credentials exist.
	if cfg.KickClientID != "" && cfg.KickRedirectURI == "" {
		return nil, fmt.Errorf("KICK_REDIRECT_URI is required when KICK_CLIENT_ID is set")
	}

	if cfg.TokenEncryptionKey != "" {
		keyBytes, err := hex.DecodeString(cfg.TokenEncryptionKey)
		if err != nil {
			return nil, fmt.Errorf("TOKEN_ENCRYPTION_KEY must be valid hex: %w", err)
		}
		if len(keyBytes) != 32 {
			return nil, fmt.Errorf("TOKEN_ENCRYPTION_KEY must be exactly 64 hex characters (32 bytes), got %d bytes", len(keyBytes))
		}
	}

	cfg.clamp()

	return cfg, nil
}

// clamp enforces the operator-setting ranges at the configuration boundary,
// so the cache and client never see out-of-range values.
func (c *Config) clamp() {
	if c.CacheTTL < minCacheTTL {
		c.CacheTTL = minCacheTTL
	}
	if c.CategoriesCacheTTL < minCacheTTL {
		c.CategoriesCacheTTL = minCacheTTL
	}
	if c.StreamsPerPage < 1 {
		c.StreamsPerPage = 1
	}
	if c.StreamsPerPage > maxStreamsPerPage {
		c.StreamsPerPage = maxStreamsPerPage
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

func getDurationSeconds(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return time.Duration(n) * time.Second
}
