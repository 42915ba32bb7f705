// Package upstream implements the HTTP client for the post search API. The
// core treats it as an opaque producer of raw posts: it may return fewer
// results than asked for, and it rate-limits aggressively.
package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/pscheid92/postpulse/internal/domain"
	"github.com/pscheid92/postpulse/internal/metrics"
	"github.com/pscheid92/postpulse/internal/platform/retry"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

const (
	// searchRatePerSecond matches the upstream's per-app request budget.
	searchRatePerSecond = 1.0
	searchRateBurst     = 3

	retryMaxAttempts      = 3
	retryInitialBackoff   = 500 * time.Millisecond
	retryRateLimitBackoff = 5 * time.Second
)

// Client searches the upstream post API with bearer auth, an in-process rate
// limiter, and a circuit breaker so a dead upstream fails fast instead of
// hanging every fetch request.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker
}

// NewClient creates an upstream search client. timeout bounds each HTTP call.
func NewClient(baseURL, bearerToken string, timeout time.Duration) *Client {
	settings := gobreaker.Settings{
		Name:        "upstream",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.Requests >= 5 && counts.TotalFailures*2 > counts.Requests
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("Upstream circuit breaker state changed", "from", from.String(), "to", to.String())
			metrics.UpstreamBreakerState.Set(breakerStateValue(to))
		},
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		token:      bearerToken,
		limiter:    rate.NewLimiter(rate.Limit(searchRatePerSecond), searchRateBurst),
		breaker:    gobreaker.NewCircuitBreaker(settings),
	}
}

func breakerStateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	default:
		return 2
	}
}

// searchResponse mirrors the upstream wire format.
type searchResponse struct {
	Data []struct {
		ID        string    `json:"id"`
		Text      string    `json:"text"`
		Author    string    `json:"author"`
		CreatedAt time.Time `json:"created_at"`
	} `json:"data"`
	Meta struct {
		ResultCount int `json:"result_count"`
	} `json:"meta"`
}

// Search returns up to limit raw posts matching the query. Zero results is
// success. Rate-limit responses back off longer than transport failures;
// client-side errors and an open breaker abort immediately.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]domain.RawPost, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait: %w", err)
	}

	policy := retry.Policy{
		MaxAttempts:      retryMaxAttempts,
		InitialBackoff:   retryInitialBackoff,
		RateLimitBackoff: retryRateLimitBackoff,
		OnRetry: func(attempt int, err error, backoff time.Duration) {
			slog.Warn("Retrying upstream search", "attempt", attempt, "backoff", backoff, "error", err)
		},
	}

	resp, err := retry.Do(ctx, policy, classifySearchError, func() (*searchResponse, error) {
		result, err := c.breaker.Execute(func() (any, error) {
			return c.doSearch(ctx, query, limit)
		})
		if err != nil {
			return nil, err
		}
		return result.(*searchResponse), nil
	})
	if err != nil {
		return nil, mapSearchError(err)
	}

	posts := make([]domain.RawPost, 0, len(resp.Data))
	for _, d := range resp.Data {
		posts = append(posts, domain.RawPost{
			ID:        d.ID,
			Query:     query,
			Author:    d.Author,
			CreatedAt: d.CreatedAt,
			Text:      d.Text,
		})
	}
	return posts, nil
}

func classifySearchError(err error) retry.Action {
	switch {
	case errors.Is(err, domain.ErrUpstreamRateLimited):
		return retry.After
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return retry.Stop
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return retry.Stop
	case errors.Is(err, errClientRequest):
		return retry.Stop
	default:
		return retry.Retry
	}
}

func mapSearchError(err error) error {
	switch {
	case errors.Is(err, domain.ErrUpstreamRateLimited):
		metrics.UpstreamErrorsTotal.WithLabelValues("rate_limited").Inc()
		return err
	case errors.Is(err, errClientRequest):
		metrics.UpstreamErrorsTotal.WithLabelValues("bad_request").Inc()
		return err
	default:
		metrics.UpstreamErrorsTotal.WithLabelValues("unavailable").Inc()
		return fmt.Errorf("%w: %w", domain.ErrUpstreamUnavailable, err)
	}
}

// errClientRequest marks 4xx responses other than 429; retrying cannot help.
var errClientRequest = errors.New("upstream rejected request")

func (c *Client) doSearch(ctx context.Context, query string, limit int) (*searchResponse, error) {
	start := time.Now()
	defer func() {
		metrics.UpstreamRequestDuration.Observe(time.Since(start).Seconds())
	}()

	u, err := url.Parse(c.baseURL + "/2/search/recent")
	if err != nil {
		return nil, fmt.Errorf("invalid upstream URL: %w", err)
	}
	q := u.Query()
	q.Set("query", query)
	q.Set("max_results", strconv.Itoa(limit))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build search request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		// fallthrough to decode
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, domain.ErrUpstreamRateLimited
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: status %d: %s", errClientRequest, resp.StatusCode, body)
	default:
		return nil, fmt.Errorf("search returned status %d", resp.StatusCode)
	}

	var sr searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}
	return &sr, nil
}
