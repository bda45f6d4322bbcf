package kick

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/PabloB07/kick-wp/internal/credentials"
	"github.com/PabloB07/kick-wp/internal/metrics"
)

const (
	defaultScopes        = "channel:read user:read"
	defaultRefreshMargin = 5 * time.Minute
)

// ErrNotConfigured reports that the installation has no OAuth client
// credentials, so no authorization flow can start.
var ErrNotConfigured = errors.New("oauth client not configured")

// ErrNoToken reports that no access token has ever been obtained (or it has
// been revoked). The operator must re-authorize.
var ErrNoToken = errors.New("no access token available")

// ProtocolError is a violation of the authorization-code callback contract:
// the provider denied authorization, the state failed verification, or the
// code parameter is missing.
type ProtocolError struct {
	Reason      string
	Description string
}

func (e *ProtocolError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("oauth callback rejected: %s: %s", e.Reason, e.Description)
	}
	return fmt.Sprintf("oauth callback rejected: %s", e.Reason)
}

// TokenEndpointError is a non-success answer from the token endpoint. When
// the body was not parseable JSON, Malformed is set and OAuthCode is empty.
type TokenEndpointError struct {
	StatusCode  int
	OAuthCode   string
	Description string
	Malformed   bool
}

func (e *TokenEndpointError) Error() string {
	if e.Malformed {
		return fmt.Sprintf("token endpoint returned status %d with a malformed body", e.StatusCode)
	}
	if e.OAuthCode != "" {
		return fmt.Sprintf("token endpoint refused: %s (%s)", e.OAuthCode, e.Description)
	}
	return fmt.Sprintf("token endpoint returned unexpected status %d", e.StatusCode)
}

// RefreshError wraps a failed token refresh. Revoked indicates the stored
// credentials were invalidated because the provider rejected the refresh
// token itself.
type RefreshError struct {
	Revoked bool
	Err     error
}

func (e *RefreshError) Error() string {
	if e.Revoked {
		return fmt.Sprintf("token refresh rejected, credentials revoked: %v", e.Err)
	}
	return fmt.Sprintf("token refresh failed: %v", e.Err)
}

func (e *RefreshError) Unwrap() error { return e.Err }

// StateStore issues and consumes single-use CSRF state tokens for the
// authorization-code flow.
type StateStore interface {
	Issue(ctx context.Context) (string, error)
	Consume(ctx context.Context, state string) (bool, error)
}

// OAuthConfig holds the provider endpoints and client credentials. ClientID
// being empty means the installation is unconfigured; that is a supported
// state, not an error.
type OAuthConfig struct {
	ClientID      string
	ClientSecret  string
	RedirectURI   string
	AuthURL       string
	TokenURL      string
	Scopes        string
	RefreshMargin time.Duration
}

func (c *OAuthConfig) applyDefaults() {
	if c.AuthURL == "" {
		c.AuthURL = "https://id.kick.com/oauth/authorize"
	}
	if c.TokenURL == "" {
		c.TokenURL = "https://id.kick.com/oauth/token"
	}
	if c.Scopes == "" {
		c.Scopes = defaultScopes
	}
	if c.RefreshMargin <= 0 {
		c.RefreshMargin = defaultRefreshMargin
	}
}

// OAuthManager drives the authorization-code flow and the token lifecycle:
// issuing authorization URLs, handling callbacks, refreshing access tokens
// before expiry and revoking credentials when the provider rejects them.
type OAuthManager struct {
	cfg       OAuthConfig
	creds     credentials.Store
	states    StateStore
	transport Transport
	clock     clockwork.Clock

	// onRevoke runs after credentials have been cleared, typically to flush
	// cached authenticated responses.
	onRevoke func(ctx context.Context)
}

// NewOAuthManager wires an OAuthManager. onRevoke may be nil.
func NewOAuthManager(cfg OAuthConfig, creds credentials.Store, states StateStore, transport Transport, clock clockwork.Clock, onRevoke func(ctx context.Context)) *OAuthManager {
	cfg.applyDefaults()
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &OAuthManager{
		cfg:       cfg,
		creds:     creds,
		states:    states,
		transport: transport,
		clock:     clock,
		onRevoke:  onRevoke,
	}
}

// Configured reports whether client credentials exist.
func (m *OAuthManager) Configured() bool {
	return m.cfg.ClientID != "" && m.cfg.ClientSecret != "" && m.cfg.RedirectURI != ""
}

// AuthorizeURL issues a fresh CSRF state and builds the provider
// authorization URL the operator's browser must be sent to.
func (m *OAuthManager) AuthorizeURL(ctx context.Context) (string, error) {
	if !m.Configured() {
		return "", ErrNotConfigured
	}

	state, err := m.states.Issue(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to issue oauth state: %w", err)
	}

	query := url.Values{}
	query.Set("client_id", m.cfg.ClientID)
	query.Set("redirect_uri", m.cfg.RedirectURI)
	query.Set("response_type", "code")
	query.Set("scope", m.cfg.Scopes)
	query.Set("state", state)

	return m.cfg.AuthURL + "?" + query.Encode(), nil
}

// HandleCallback processes the provider redirect. The provider's own error
// parameter short-circuits before any state or code handling; the state is
// consumed (single use) before the code is exchanged, so a replayed callback
// can never reach the token endpoint.
func (m *OAuthManager) HandleCallback(ctx context.Context, code, state, errParam, errDescription string) error {
	if errParam != "" {
		metrics.OAuthCallbacksTotal.WithLabelValues("denied").Inc()
		return &ProtocolError{Reason: errParam, Description: errDescription}
	}

	ok, err := m.states.Consume(ctx, state)
	if err != nil {
		metrics.OAuthCallbacksTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("failed to verify oauth state: %w", err)
	}
	if !ok {
		metrics.OAuthCallbacksTotal.WithLabelValues("bad_state").Inc()
		return &ProtocolError{Reason: "invalid_state", Description: "state is unknown, expired or already used"}
	}

	if code == "" {
		metrics.OAuthCallbacksTotal.WithLabelValues("missing_code").Inc()
		return &ProtocolError{Reason: "missing_code", Description: "callback carried no authorization code"}
	}

	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("redirect_uri", m.cfg.RedirectURI)

	token, err := m.postToken(ctx, form)
	if err != nil {
		metrics.OAuthCallbacksTotal.WithLabelValues("exchange_failed").Inc()
		return fmt.Errorf("authorization code exchange failed: %w", err)
	}

	if err := m.storeToken(ctx, token); err != nil {
		metrics.OAuthCallbacksTotal.WithLabelValues("error").Inc()
		return err
	}

	metrics.OAuthCallbacksTotal.WithLabelValues("success").Inc()
	slog.Info("OAuth authorization completed")
	return nil
}

// EnsureFreshToken returns a usable access token, refreshing first when the
// stored one is inside the expiry margin. It never returns a stale token.
func (m *OAuthManager) EnsureFreshToken(ctx context.Context) (string, error) {
	access, err := m.creds.Get(ctx, credentials.KeyAccessToken)
	if err != nil {
		return "", fmt.Errorf("failed to read access token: %w", err)
	}
	if access == "" {
		return "", ErrNoToken
	}

	if !m.expiringSoon(ctx) {
		return access, nil
	}

	if err := m.Refresh(ctx); err != nil {
		return "", err
	}
	access, err = m.creds.Get(ctx, credentials.KeyAccessToken)
	if err != nil {
		return "", fmt.Errorf("failed to read refreshed access token: %w", err)
	}
	return access, nil
}

// MaybeRefresh refreshes only when a token exists and sits inside the expiry
// margin. A no-op for unauthenticated installations, so it is safe to call
// opportunistically.
func (m *OAuthManager) MaybeRefresh(ctx context.Context) error {
	access, err := m.creds.Get(ctx, credentials.KeyAccessToken)
	if err != nil {
		return fmt.Errorf("failed to read access token: %w", err)
	}
	if access == "" || !m.expiringSoon(ctx) {
		return nil
	}
	return m.Refresh(ctx)
}

// Refresh exchanges the stored refresh token for a new token pair. A 400 or
// 401 from the token endpoint means the refresh token itself is dead: all
// stored credentials are cleared and the error reports Revoked.
func (m *OAuthManager) Refresh(ctx context.Context) error {
	if !m.Configured() {
		return ErrNotConfigured
	}

	refresh, err := m.creds.Get(ctx, credentials.KeyRefreshToken)
	if err != nil {
		return fmt.Errorf("failed to read refresh token: %w", err)
	}
	if refresh == "" {
		return ErrNoToken
	}

	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refresh)

	token, err := m.postToken(ctx, form)
	if err != nil {
		var te *TokenEndpointError
		if errors.As(err, &te) && (te.StatusCode == http.StatusBadRequest || te.StatusCode == http.StatusUnauthorized) {
			slog.Warn("Refresh token rejected by provider, revoking stored credentials",
				"status", te.StatusCode, "oauth_code", te.OAuthCode)
			if revokeErr := m.Revoke(ctx); revokeErr != nil {
				slog.Error("Failed to clear credentials after rejected refresh", "error", revokeErr)
			}
			metrics.TokenRefreshTotal.WithLabelValues("revoked").Inc()
			return &RefreshError{Revoked: true, Err: err}
		}
		metrics.TokenRefreshTotal.WithLabelValues("failure").Inc()
		return &RefreshError{Err: err}
	}

	if err := m.storeToken(ctx, token); err != nil {
		metrics.TokenRefreshTotal.WithLabelValues("failure").Inc()
		return err
	}

	metrics.TokenRefreshTotal.WithLabelValues("success").Inc()
	slog.Info("Access token refreshed")
	return nil
}

// Revoke deletes every stored credential. Idempotent; missing keys are not
// an error.
func (m *OAuthManager) Revoke(ctx context.Context) error {
	for _, key := range []string{
		credentials.KeyAccessToken,
		credentials.KeyRefreshToken,
		credentials.KeyTokenExpires,
	} {
		if err := m.creds.Delete(ctx, key); err != nil {
			return fmt.Errorf("failed to delete %s: %w", key, err)
		}
	}
	if m.onRevoke != nil {
		m.onRevoke(ctx)
	}
	return nil
}

// Status describes the current authorization lifecycle state for the
// operator UI.
func (m *OAuthManager) Status(ctx context.Context) string {
	if !m.Configured() {
		return "unconfigured"
	}
	access, err := m.creds.Get(ctx, credentials.KeyAccessToken)
	if err != nil || access == "" {
		return "unauthenticated"
	}
	expires := m.expiresAt(ctx)
	switch {
	case expires.IsZero():
		return "valid"
	case m.clock.Now().After(expires):
		return "expired"
	case m.clock.Now().After(expires.Add(-m.cfg.RefreshMargin)):
		return "expiring"
	default:
		return "valid"
	}
}

func (m *OAuthManager) expiringSoon(ctx context.Context) bool {
	expires := m.expiresAt(ctx)
	if expires.IsZero() {
		return false
	}
	return m.clock.Now().After(expires.Add(-m.cfg.RefreshMargin))
}

func (m *OAuthManager) expiresAt(ctx context.Context) time.Time {
	raw, err := m.creds.Get(ctx, credentials.KeyTokenExpires)
	if err != nil || raw == "" {
		return time.Time{}
	}
	unix, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.Unix(unix, 0)
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// postToken posts a form to the token endpoint and classifies the answer:
// success, a structured OAuth error, or a malformed body.
func (m *OAuthManager) postToken(ctx context.Context, form url.Values) (*tokenResponse, error) {
	form.Set("client_id", m.cfg.ClientID)
	form.Set("client_secret", m.cfg.ClientSecret)

	headers := map[string]string{
		"Accept":       "application/json",
		"Content-Type": "application/x-www-form-urlencoded",
	}

	resp, err := m.transport.Do(ctx, http.MethodPost, m.cfg.TokenURL, headers, []byte(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("token endpoint unreachable: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var body struct {
			Error            string `json:"error"`
			ErrorDescription string `json:"error_description"`
		}
		if err := json.Unmarshal(resp.Body, &body); err != nil || body.Error == "" {
			return nil, &TokenEndpointError{StatusCode: resp.StatusCode, Malformed: err != nil}
		}
		return nil, &TokenEndpointError{
			StatusCode:  resp.StatusCode,
			OAuthCode:   body.Error,
			Description: body.ErrorDescription,
		}
	}

	var token tokenResponse
	if err := json.Unmarshal(resp.Body, &token); err != nil {
		return nil, &TokenEndpointError{StatusCode: resp.StatusCode, Malformed: true}
	}
	if token.AccessToken == "" {
		return nil, &TokenEndpointError{StatusCode: resp.StatusCode, Malformed: true}
	}
	return &token, nil
}

// storeToken persists a token pair. The absolute expiry instant is computed
// at store time from expires_in.
func (m *OAuthManager) storeToken(ctx context.Context, token *tokenResponse) error {
	if err := m.creds.Set(ctx, credentials.KeyAccessToken, token.AccessToken); err != nil {
		return fmt.Errorf("failed to persist access token: %w", err)
	}
	if token.RefreshToken != "" {
		if err := m.creds.Set(ctx, credentials.KeyRefreshToken, token.RefreshToken); err != nil {
			return fmt.Errorf("failed to persist refresh token: %w", err)
		}
	}
	if token.ExpiresIn > 0 {
		expires := m.clock.Now().Add(time.Duration(token.ExpiresIn) * time.Second).Unix()
		if err := m.creds.Set(ctx, credentials.KeyTokenExpires, strconv.FormatInt(expires, 10)); err != nil {
			return fmt.Errorf("failed to persist token expiry: %w", err)
		}
	}
	return nil
}
