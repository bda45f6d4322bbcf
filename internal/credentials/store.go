// Package credentials defines the persistent key-value store holding the
// installation's OAuth material and operator settings. A single global
// credential set exists per installation.
package credentials

import "context"

// Well-known credential and setting names. Token-valued entries are treated
// as secrets by stores that support encryption at rest.
const (
	KeyAccessToken  = "kick_access_token"
	KeyRefreshToken = "kick_refresh_token"
	KeyTokenExpires = "kick_token_expires"

	KeyCacheDuration   = "kick_cache_duration"
	KeyStreamsPerPage  = "kick_streams_per_page"
	KeyDefaultCategory = "kick_default_category"
)

// SecretKeys lists entries that must never be stored in plaintext when an
// encryption key is configured.
var SecretKeys = map[string]bool{
	KeyAccessToken:  true,
	KeyRefreshToken: true,
}

// Store is a persistent key-value configuration mechanism. Get returns the
// empty string for absent keys; single-key reads and writes are atomic but
// there are no multi-key transactions.
type Store interface {
	Get(ctx context.Context, name string) (string, error)
	Set(ctx context.Context, name, value string) error
	Delete(ctx context.Context, name string) error
}
