package driven

import (
	"context"

	"github.com/repotrawl/repotrawl/internal/core/domain"
)

// SearchClient is the remote repository-search collaborator: a count
// oracle plus a single-page fetcher. Implementations own all transport
// concerns (authentication, rate limits, retries); errors cross this
// boundary wrapped for context but otherwise intact.
type SearchClient interface {
	// Count returns the total number of repositories matching the query
	// without retrieving any of them.
	Count(ctx context.Context, query string) (int, error)

	// FetchPage retrieves the first page of results for the query,
	// at most pageSize items. pageSize must be between 1 and 100,
	// the platform's page-size ceiling.
	FetchPage(ctx context.Context, query string, pageSize int) ([]domain.Repository, error)
}
