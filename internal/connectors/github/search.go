package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	gh "github.com/google/go-github/v80/github"

	"github.com/repotrawl/repotrawl/internal/core/domain"
	"github.com/repotrawl/repotrawl/internal/logger"
)

// MaxPageSize is the largest page the search API serves.
const MaxPageSize = 100

// Count returns how many repositories match the query. A probe asks for
// a single-item page and reads the total from the response envelope.
// Counts are cached per query string: counting, planning and streaming
// the same filter probe overlapping windows, and repeats are served
// from memory, which also keeps their answers consistent within a run.
func (c *Client) Count(ctx context.Context, query string) (int, error) {
	if total, ok := c.counts.get(query); ok {
		return total, nil
	}

	result, err := c.searchRepositories(ctx, query, 1)
	if err != nil {
		return 0, err
	}

	total := result.GetTotal()
	c.counts.add(query, total)
	return total, nil
}

// FetchPage returns the first page of repositories matching the query,
// at most pageSize of them. pageSize must be between 1 and MaxPageSize;
// callers are expected to pass the window's known count.
func (c *Client) FetchPage(ctx context.Context, query string, pageSize int) ([]domain.Repository, error) {
	if pageSize < 1 || pageSize > MaxPageSize {
		return nil, fmt.Errorf("%w: %d", ErrPageSize, pageSize)
	}

	result, err := c.searchRepositories(ctx, query, pageSize)
	if err != nil {
		return nil, err
	}

	repos := make([]domain.Repository, 0, len(result.Repositories))
	for _, r := range result.Repositories {
		repos = append(repos, mapRepository(r))
	}
	return repos, nil
}

// searchRepositories performs one search call with retries. An
// exhausted quota waits for its reset, server errors back off with
// doubling delays, and anything else returns immediately.
func (c *Client) searchRepositories(ctx context.Context, query string, perPage int) (*gh.RepositoriesSearchResult, error) {
	delay := c.retryDelay
	for attempt := 0; ; attempt++ {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}

		opts := &gh.SearchOptions{
			ListOptions: gh.ListOptions{PerPage: perPage, Page: 1},
		}
		result, resp, err := c.gh.Search.Repositories(ctx, query, opts)
		c.updateRateLimitFromResponse(resp)
		if err == nil {
			if result.GetIncompleteResults() {
				logger.Warn("GitHub flagged results for %q as incomplete", query)
			}
			return result, nil
		}

		wrapped := c.wrapError(err, "search repositories")
		if attempt >= MaxRetries {
			return nil, wrapped
		}

		switch {
		case IsRateLimited(wrapped):
			logger.Warn("Search quota exhausted, waiting until %s",
				c.rateLimiter.ResetTime().Format(time.RFC3339))
			if err := c.rateLimiter.WaitForReset(ctx); err != nil {
				return nil, err
			}
		case isServerError(wrapped):
			logger.Debug("Search attempt %d failed (%v), retrying in %s", attempt+1, wrapped, delay)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		default:
			return nil, wrapped
		}
	}
}

// isServerError reports whether the error is a 5xx API response.
func isServerError(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode >= http.StatusInternalServerError
	}
	return false
}

// mapRepository converts the API shape into the domain shape.
func mapRepository(r *gh.Repository) domain.Repository {
	return domain.Repository{
		ID:            r.GetID(),
		Owner:         r.GetOwner().GetLogin(),
		Name:          r.GetName(),
		FullName:      r.GetFullName(),
		Description:   r.GetDescription(),
		Language:      r.GetLanguage(),
		DefaultBranch: r.GetDefaultBranch(),
		CloneURL:      r.GetCloneURL(),
		HTMLURL:       r.GetHTMLURL(),
		Stars:         r.GetStargazersCount(),
		Forks:         r.GetForksCount(),
		Fork:          r.GetFork(),
		Archived:      r.GetArchived(),
		CreatedAt:     r.GetCreatedAt().Time,
	}
}
