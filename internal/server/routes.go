package server

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/PabloB07/kick-wp/internal/version"
)

func (s *Server) registerRoutes() {
	s.echo.GET("/health/live", s.healthLive)
	s.echo.GET("/health/ready", s.healthReady)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	s.echo.GET("/version", func(c echo.Context) error {
		return c.JSON(200, version.Get())
	})

	api := s.echo.Group("/api/v1")
	api.GET("/streams/featured", s.getFeaturedStreams)
	api.GET("/streams/followed", s.getFollowedStreams)
	api.GET("/streamers/:username", s.getStreamer)
	api.GET("/categories", s.getCategories)
	api.GET("/connection/test", s.getConnectionTest)
	api.DELETE("/cache", s.deleteCache)

	api.GET("/settings", s.getSettings)
	api.PUT("/settings", s.putSettings)

	auth := s.echo.Group("/auth")
	auth.GET("/login", s.getAuthLogin)
	auth.GET("/callback", s.getAuthCallback)
	auth.GET("/status", s.getAuthStatus)
	auth.POST("/refresh", s.postAuthRefresh)
	auth.POST("/revoke", s.postAuthRevoke)
}
