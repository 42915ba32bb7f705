package server

import (
	"context"
	"time"

	"github.com/labstack/echo/v4"
)

func (s *Server) handleLiveness(c echo.Context) error {
	return c.JSON(200, map[string]string{"status": "ok"})
}

func (s *Server) handleReadiness(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	checks := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"postgres", s.checkPostgres},
		{"redis", s.checkRedis},
	}

	for _, check := range checks {
		if err := check.fn(ctx); err != nil {
			return c.JSON(503, map[string]any{
				"status":       "unhealthy",
				"failed_check": check.name,
				"error":        err.Error(),
			})
		}
	}

	return c.JSON(200, map[string]string{"status": "ready"})
}

func (s *Server) checkPostgres(ctx context.Context) error {
	checker := s.getPostgresHealthChecker()
	return checker.Ping(ctx)
}

func (s *Server) checkRedis(ctx context.Context) error {
	client := s.getRedisHealthChecker()
	return client.Ping(ctx).Err()
}

func (s *Server) getPostgresHealthChecker() postgresHealthChecker {
	if s.postgresHealthCheck != nil {
		return s.postgresHealthCheck
	}
	return s.db
}

func (s *Server) getRedisHealthChecker() redisHealthChecker {
	if s.redisHealthCheck != nil {
		return s.redisHealthCheck
	}
	return s.redisClient
}
