package server

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	apperrors "github.com/PabloB07/kick-wp/internal/errors"
)

// Stream endpoints never fail with a 5xx for upstream trouble: the service
// layer degrades to fallback data and reports the condition in the body, so
// consumers always get something renderable.

func (s *Server) getFeaturedStreams(c echo.Context) error {
	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			appErr := apperrors.ValidationError("limit must be an integer")
			return c.JSON(appErr.HTTPStatus(), appErr.ToResponse())
		}
		limit = n
	}
	category := c.QueryParam("category")

	result := s.streams.FeaturedStreams(c.Request().Context(), limit, category)
	return c.JSON(http.StatusOK, result)
}

func (s *Server) getFollowedStreams(c echo.Context) error {
	result := s.streams.FollowedStreams(c.Request().Context())
	return c.JSON(http.StatusOK, result)
}

func (s *Server) getStreamer(c echo.Context) error {
	username := c.Param("username")
	if username == "" {
		appErr := apperrors.ValidationError("username is required")
		return c.JSON(appErr.HTTPStatus(), appErr.ToResponse())
	}

	result := s.streams.Streamer(c.Request().Context(), username)
	return c.JSON(http.StatusOK, result)
}

func (s *Server) getCategories(c echo.Context) error {
	result := s.streams.Categories(c.Request().Context())
	return c.JSON(http.StatusOK, result)
}

func (s *Server) getConnectionTest(c echo.Context) error {
	result := s.streams.TestConnection(c.Request().Context())
	status := http.StatusOK
	if !result.Success {
		status = http.StatusBadGateway
	}
	return c.JSON(status, result)
}

func (s *Server) deleteCache(c echo.Context) error {
	if ok := s.streams.ClearCache(c.Request().Context()); !ok {
		appErr := apperrors.InternalError("failed to clear cache", nil)
		return c.JSON(appErr.HTTPStatus(), appErr.ToResponse())
	}
	return c.JSON(http.StatusOK, map[string]bool{"cleared": true})
}
