// Package kick is the access layer for the Kick.com API: a client that copes
// with an unstable, inconsistently versioned upstream by attempting requests
// under several header/endpoint configurations, normalizing the heterogeneous
// response shapes into one stream representation, caching normalized results,
// and degrading to deterministic fallback data instead of surfacing transport
// faults. It also owns the OAuth2 authorization-code and refresh-token
// lifecycle for the installation's single credential set.
package kick
