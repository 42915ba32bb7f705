package server

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) registerRoutes() {
	// Observability endpoints
	s.echo.GET("/health/live", s.handleLiveness)
	s.echo.GET("/health/ready", s.handleReadiness)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Root - service banner for client smoke checks
	s.echo.GET("/", s.handleRoot)

	// API routes
	s.echo.POST("/api/fetch", s.handleFetch)
	s.echo.GET("/api/posts", s.handleGetPosts)
	s.echo.POST("/api/enrich", s.handleEnrich)
}
