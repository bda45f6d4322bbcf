package server

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/PabloB07/kick-wp/internal/credentials"
	apperrors "github.com/PabloB07/kick-wp/internal/errors"
)

const (
	minCacheDurationSeconds = 60
	minStreamsPerPage       = 1
	maxStreamsPerPage       = 50
)

// settingsPayload is the operator-tunable subset of configuration. Values
// persisted here override the environment defaults on the next request.
type settingsPayload struct {
	CacheDurationSeconds int    `json:"cache_duration_seconds"`
	StreamsPerPage       int    `json:"streams_per_page"`
	DefaultCategory      string `json:"default_category"`
}

func (s *Server) getSettings(c echo.Context) error {
	ctx := c.Request().Context()

	payload := settingsPayload{
		CacheDurationSeconds: int(s.cfg.CacheTTL / time.Second),
		StreamsPerPage:       s.cfg.StreamsPerPage,
		DefaultCategory:      s.cfg.DefaultCategory,
	}

	if raw, err := s.settings.Get(ctx, credentials.KeyCacheDuration); err == nil && raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			payload.CacheDurationSeconds = n
		}
	}
	if raw, err := s.settings.Get(ctx, credentials.KeyStreamsPerPage); err == nil && raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			payload.StreamsPerPage = n
		}
	}
	if raw, err := s.settings.Get(ctx, credentials.KeyDefaultCategory); err == nil && raw != "" {
		payload.DefaultCategory = raw
	}

	return c.JSON(http.StatusOK, payload)
}

func (s *Server) putSettings(c echo.Context) error {
	ctx := c.Request().Context()

	var payload settingsPayload
	if err := c.Bind(&payload); err != nil {
		appErr := apperrors.ValidationError("request body must be valid JSON")
		return c.JSON(appErr.HTTPStatus(), appErr.ToResponse())
	}

	if payload.CacheDurationSeconds < minCacheDurationSeconds {
		appErr := apperrors.ValidationError(
			fmt.Sprintf("cache_duration_seconds must be at least %d", minCacheDurationSeconds))
		return c.JSON(appErr.HTTPStatus(), appErr.ToResponse())
	}
	if payload.StreamsPerPage < minStreamsPerPage || payload.StreamsPerPage > maxStreamsPerPage {
		appErr := apperrors.ValidationError(
			fmt.Sprintf("streams_per_page must be between %d and %d", minStreamsPerPage, maxStreamsPerPage))
		return c.JSON(appErr.HTTPStatus(), appErr.ToResponse())
	}

	updates := map[string]string{
		credentials.KeyCacheDuration:   strconv.Itoa(payload.CacheDurationSeconds),
		credentials.KeyStreamsPerPage:  strconv.Itoa(payload.StreamsPerPage),
		credentials.KeyDefaultCategory: payload.DefaultCategory,
	}
	for key, value := range updates {
		if err := s.settings.Set(ctx, key, value); err != nil {
			slog.ErrorContext(ctx, "Failed to persist setting", "key", key, "error", err)
			appErr := apperrors.InternalError("failed to persist settings", err)
			return c.JSON(appErr.HTTPStatus(), appErr.ToResponse())
		}
	}

	// Cached responses built under the old settings are stale now.
	s.streams.ClearCache(ctx)

	return c.JSON(http.StatusOK, payload)
}
