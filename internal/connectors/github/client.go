package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	gh "github.com/google/go-github/v80/github"
	"golang.org/x/oauth2"

	"github.com/repotrawl/repotrawl/internal/core/ports/driven"
)

const (
	// MaxRetries is the maximum number of retries for transient errors.
	MaxRetries = 3

	// RetryDelay is the initial delay between retries.
	RetryDelay = time.Second
)

// Ensure Client implements the interface.
var _ driven.SearchClient = (*Client)(nil)

// Client answers count and page queries over the GitHub Search API.
type Client struct {
	gh          *gh.Client
	rateLimiter *RateLimiter
	counts      *countCache
	retryDelay  time.Duration
}

// NewClient creates a search client from the given configuration.
func NewClient(cfg Config) (*Client, error) {
	cfg = cfg.withDefaults()

	httpClient := &http.Client{}
	if cfg.Token != "" {
		ts := oauth2.StaticTokenSource(
			&oauth2.Token{AccessToken: cfg.Token},
		)
		httpClient = oauth2.NewClient(context.Background(), ts)
	}
	httpClient.Timeout = cfg.Timeout

	ghc := gh.NewClient(httpClient)
	if cfg.BaseURL != "" {
		var err error
		ghc, err = ghc.WithEnterpriseURLs(cfg.BaseURL, cfg.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("set base URL: %w", err)
		}
	}
	if cfg.UserAgent != "" {
		ghc.UserAgent = cfg.UserAgent
	}

	counts, err := newCountCache(cfg.CountCacheSize)
	if err != nil {
		return nil, fmt.Errorf("create count cache: %w", err)
	}

	return &Client{
		gh:          ghc,
		rateLimiter: NewRateLimiter(),
		counts:      counts,
		retryDelay:  RetryDelay,
	}, nil
}

// RateLimiter returns the rate limiter for external access.
func (c *Client) RateLimiter() *RateLimiter {
	return c.rateLimiter
}

// ValidateCredentials checks whether the configured token is accepted
// by making the cheapest possible authenticated call.
func (c *Client) ValidateCredentials(ctx context.Context) error {
	_, _, err := c.gh.Users.Get(ctx, "")
	if err != nil {
		return c.wrapError(err, "validate credentials")
	}
	return nil
}

// updateRateLimitFromResponse updates the rate limiter from GitHub response headers.
func (c *Client) updateRateLimitFromResponse(resp *gh.Response) {
	if resp == nil || resp.Response == nil {
		return
	}
	c.rateLimiter.UpdateFromResponse(resp.Response)
}

// wrapError converts go-github errors to our error types.
func (c *Client) wrapError(err error, operation string) error {
	if err == nil {
		return nil
	}

	// Primary quota exhausted.
	var rateLimitErr *gh.RateLimitError
	if errors.As(err, &rateLimitErr) {
		return &RateLimitError{
			ResetAt:   rateLimitErr.Rate.Reset.Time,
			Remaining: rateLimitErr.Rate.Remaining,
			Limit:     rateLimitErr.Rate.Limit,
		}
	}

	// Secondary limit (abuse detection) carries a Retry-After instead.
	var abuseErr *gh.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		return &RateLimitError{
			ResetAt:   time.Now().Add(abuseErr.GetRetryAfter()),
			Remaining: c.rateLimiter.Remaining(),
			Limit:     c.rateLimiter.Limit(),
		}
	}

	// Check for GitHub error response
	var ghErr *gh.ErrorResponse
	if errors.As(err, &ghErr) {
		return &APIError{
			StatusCode: ghErr.Response.StatusCode,
			Message:    ghErr.Message,
			URL:        ghErr.Response.Request.URL.String(),
		}
	}

	return fmt.Errorf("%s: %w", operation, err)
}
