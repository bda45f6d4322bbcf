package server

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	apperrors "github.com/PabloB07/kick-wp/internal/errors"
	"github.com/PabloB07/kick-wp/internal/kick"
)

func (s *Server) getAuthLogin(c echo.Context) error {
	url, err := s.auth.AuthorizeURL(c.Request().Context())
	if err != nil {
		if errors.Is(err, kick.ErrNotConfigured) {
			appErr := apperrors.NotConfiguredError("Kick client credentials are not configured")
			return c.JSON(appErr.HTTPStatus(), appErr.ToResponse())
		}
		slog.ErrorContext(c.Request().Context(), "Failed to build authorization URL", "error", err)
		appErr := apperrors.InternalError("failed to start authorization", err)
		return c.JSON(appErr.HTTPStatus(), appErr.ToResponse())
	}
	return c.Redirect(http.StatusFound, url)
}

func (s *Server) getAuthCallback(c echo.Context) error {
	ctx := c.Request().Context()

	err := s.auth.HandleCallback(ctx,
		c.QueryParam("code"),
		c.QueryParam("state"),
		c.QueryParam("error"),
		c.QueryParam("error_description"),
	)
	if err != nil {
		var protoErr *kick.ProtocolError
		if errors.As(err, &protoErr) {
			appErr := apperrors.OAuthError(protoErr.Error(), err)
			return c.JSON(appErr.HTTPStatus(), appErr.ToResponse())
		}
		var tokenErr *kick.TokenEndpointError
		if errors.As(err, &tokenErr) {
			slog.WarnContext(ctx, "Token exchange failed", "error", err)
			appErr := apperrors.UpstreamError("token exchange failed", err)
			return c.JSON(appErr.HTTPStatus(), appErr.ToResponse())
		}
		slog.ErrorContext(ctx, "OAuth callback failed", "error", err)
		appErr := apperrors.InternalError("oauth callback failed", err)
		return c.JSON(appErr.HTTPStatus(), appErr.ToResponse())
	}

	return c.JSON(http.StatusOK, map[string]string{"status": "authorized"})
}

func (s *Server) getAuthStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"configured": s.auth.Configured(),
		"status":     s.auth.Status(c.Request().Context()),
	})
}

func (s *Server) postAuthRefresh(c echo.Context) error {
	ctx := c.Request().Context()

	if err := s.auth.Refresh(ctx); err != nil {
		if errors.Is(err, kick.ErrNotConfigured) {
			appErr := apperrors.NotConfiguredError("Kick client credentials are not configured")
			return c.JSON(appErr.HTTPStatus(), appErr.ToResponse())
		}
		if errors.Is(err, kick.ErrNoToken) {
			appErr := apperrors.OAuthError("no refresh token, re-authorization required", err)
			return c.JSON(appErr.HTTPStatus(), appErr.ToResponse())
		}
		var refreshErr *kick.RefreshError
		if errors.As(err, &refreshErr) && refreshErr.Revoked {
			appErr := apperrors.OAuthError("refresh token rejected, credentials revoked", err)
			return c.JSON(appErr.HTTPStatus(), appErr.ToResponse())
		}
		slog.ErrorContext(ctx, "Token refresh failed", "error", err)
		appErr := apperrors.UpstreamError("token refresh failed", err)
		return c.JSON(appErr.HTTPStatus(), appErr.ToResponse())
	}

	return c.JSON(http.StatusOK, map[string]string{"status": "refreshed"})
}

func (s *Server) postAuthRevoke(c echo.Context) error {
	ctx := c.Request().Context()
	if err := s.auth.Revoke(ctx); err != nil {
		slog.ErrorContext(ctx, "Failed to revoke credentials", "error", err)
		appErr := apperrors.InternalError("failed to revoke credentials", err)
		return c.JSON(appErr.HTTPStatus(), appErr.ToResponse())
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "revoked"})
}
