package server

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pscheid92/postpulse/internal/domain"
	apperrors "github.com/pscheid92/postpulse/internal/errors"
)

const defaultReadLimit = 50

type fetchRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit"`
}

func (s *Server) handleRoot(c echo.Context) error {
	return c.JSON(200, map[string]string{
		"message": "postpulse API is running",
		"status":  "ok",
	})
}

// handleFetch always calls upstream and caches what comes back. A failed
// fetch is an error response with zero inserts, never a silently empty one.
func (s *Server) handleFetch(c echo.Context) error {
	var req fetchRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}
	if req.Query == "" {
		return apperrors.ValidationError("query is required")
	}

	limit := req.Limit
	if limit <= 0 || limit > s.config.FetchMaxPosts {
		limit = s.config.FetchMaxPosts
	}

	count, err := s.app.Fetch(c.Request().Context(), req.Query, limit)
	if err != nil {
		if errors.Is(err, domain.ErrUpstreamRateLimited) {
			return apperrors.UpstreamError("upstream source rate limited", err).WithField("query", req.Query)
		}
		if errors.Is(err, domain.ErrUpstreamUnavailable) {
			return apperrors.UpstreamError("upstream fetch failed", err).WithField("query", req.Query)
		}
		return apperrors.StoreError("failed to store fetched posts", err).WithField("query", req.Query)
	}

	if err := c.JSON(200, map[string]any{
		"status":  "success",
		"count":   count,
		"message": fmt.Sprintf("Fetched %d posts", count),
	}); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

// handleGetPosts serves the cached result set; a cold cache is a success
// with count 0, distinguishable from a failed fetch by status code.
func (s *Server) handleGetPosts(c echo.Context) error {
	query := c.QueryParam("query")
	if query == "" {
		return apperrors.ValidationError("query is required")
	}

	limit := defaultReadLimit
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return apperrors.ValidationError("limit must be a positive integer").WithField("limit", raw)
		}
		limit = n
	}

	posts, err := s.app.Read(c.Request().Context(), query, limit)
	if err != nil {
		return apperrors.StoreError("failed to read cached posts", err).WithField("query", query)
	}

	if err := c.JSON(200, map[string]any{
		"posts": posts,
		"count": len(posts),
	}); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

// handleEnrich acknowledges the trigger before the run executes.
func (s *Server) handleEnrich(c echo.Context) error {
	ack, err := s.app.RequestEnrichment(c.Request().Context())
	if err != nil {
		return apperrors.InternalError("failed to schedule enrichment", err)
	}

	if err := c.JSON(202, map[string]any{
		"status": "accepted",
		"run_id": ack.RunID.String(),
		"queued": ack.Queued,
	}); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}
