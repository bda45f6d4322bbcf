package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://localhost/test")
	t.Setenv("REDIS_URL", "redis://localhost:6379")
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.AppEnv)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "https://kick.com/api/v2", cfg.KickAPIBaseURL)
	assert.Equal(t, "https://id.kick.com/oauth/authorize", cfg.KickAuthURL)
	assert.Equal(t, "https://id.kick.com/oauth/token", cfg.KickTokenURL)
	assert.Equal(t, 300*time.Second, cfg.CacheTTL)
	assert.Equal(t, time.Hour, cfg.CategoriesCacheTTL)
	assert.Equal(t, 12, cfg.StreamsPerPage)
}

func TestLoadRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("REDIS_URL", "redis://localhost:6379")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}

func TestLoadRequiresRedisURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/test")
	t.Setenv("REDIS_URL", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "REDIS_URL")
}

func TestLoadRedirectURIRequiredWithClientID(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("KICK_CLIENT_ID", "client123")
	t.Setenv("KICK_REDIRECT_URI", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "KICK_REDIRECT_URI")
}

func TestLoadClientCredentialsOptional(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Empty(t, cfg.KickClientID)
}

func TestLoadClampsCacheTTL(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("CACHE_TTL_SECONDS", "5")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 60*time.Second, cfg.CacheTTL, "TTL below the floor must clamp up")
}

func TestLoadClampsStreamsPerPage(t *testing.T) {
	setRequiredEnv(t)

	t.Setenv("STREAMS_PER_PAGE", "500")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 50, cfg.StreamsPerPage)

	t.Setenv("STREAMS_PER_PAGE", "0")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.StreamsPerPage, "non-positive values clamp to the floor")
}

func TestLoadValidatesEncryptionKey(t *testing.T) {
	setRequiredEnv(t)

	t.Setenv("TOKEN_ENCRYPTION_KEY", "not hex")
	_, err := Load()
	require.Error(t, err)

	t.Setenv("TOKEN_ENCRYPTION_KEY", "abcd")
	_, err = Load()
	require.Error(t, err, "key must be exactly 32 bytes")

	t.Setenv("TOKEN_ENCRYPTION_KEY", "000102030405060708090a0b0c0d0e0f000102030405060708090a0b0c0d0e0f")
	_, err = Load()
	require.NoError(t, err)
}

func TestLoadMalformedNumbersFallBack(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("CACHE_TTL_SECONDS", "banana")
	t.Setenv("STREAMS_PER_PAGE", "many")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 300*time.Second, cfg.CacheTTL)
	assert.Equal(t, 12, cfg.StreamsPerPage)
}
