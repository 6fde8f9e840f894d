package driven

import (
	"context"

	"github.com/repotrawl/repotrawl/internal/core/domain"
)

// Cloner materialises repositories on the local filesystem.
type Cloner interface {
	// Clone checks the repository out under the cloner's root and
	// returns the checkout path. Cloning an already-present repository
	// is not an error; the existing path is returned.
	Clone(ctx context.Context, repo domain.Repository) (string, error)
}
