package gitclone

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/repotrawl/repotrawl/internal/core/domain"
	"github.com/repotrawl/repotrawl/internal/core/ports/driven"
	"github.com/repotrawl/repotrawl/internal/logger"
)

// DefaultDepth is the clone depth used when the caller does not choose.
// Corpus building rarely needs history, so shallow is the default.
const DefaultDepth = 1

// ErrNoRoot indicates a cloner was created without a destination root.
var ErrNoRoot = errors.New("gitclone: destination root is required")

// runGit is injectable in tests.
var runGit = func(ctx context.Context, args ...string) error {
	cmd := exec.CommandContext(ctx, "git", args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("git %s: %w: %s", strings.Join(args, " "), err, strings.TrimSpace(string(out)))
	}
	return nil
}

// Options configure a Cloner.
type Options struct {
	// Depth is the --depth passed to git. Zero selects DefaultDepth;
	// negative means full history.
	Depth int

	// Prune strips VCS metadata after cloning, and with Keep set, every
	// file whose extension is not listed.
	Prune bool

	// Keep lists the file extensions (".go", "md", ...) spared by
	// pruning. Empty keeps all regular files.
	Keep []string
}

// Ensure Cloner implements the interface.
var _ driven.Cloner = (*Cloner)(nil)

// Cloner checks out repositories under a destination root using the
// system git binary at root/owner/name.
type Cloner struct {
	root  string
	depth int
	prune bool
	keep  map[string]struct{}
}

// New creates a cloner writing below root.
func New(root string, opts Options) (*Cloner, error) {
	if root == "" {
		return nil, ErrNoRoot
	}
	depth := opts.Depth
	if depth == 0 {
		depth = DefaultDepth
	}
	return &Cloner{
		root:  root,
		depth: depth,
		prune: opts.Prune,
		keep:  normaliseExtensions(opts.Keep),
	}, nil
}

// Clone checks out the repository and returns the working-tree path.
// A repository already present under the root is returned as-is.
func (c *Cloner) Clone(ctx context.Context, repo domain.Repository) (string, error) {
	if err := validatePathComponent(repo.Owner); err != nil {
		return "", fmt.Errorf("owner %q: %w", repo.Owner, err)
	}
	if err := validatePathComponent(repo.Name); err != nil {
		return "", fmt.Errorf("name %q: %w", repo.Name, err)
	}

	dest := filepath.Join(c.root, repo.Owner, repo.Name)
	if _, err := os.Stat(dest); err == nil {
		logger.Debug("Skipping %s: already present at %s", repo.FullName, dest)
		return dest, nil
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return "", fmt.Errorf("creating owner directory: %w", err)
	}

	args := []string{"clone", "--quiet"}
	if c.depth > 0 {
		args = append(args, "--depth", strconv.Itoa(c.depth))
	}
	args = append(args, cloneURL(repo), dest)

	if err := runGit(ctx, args...); err != nil {
		// A failed clone may leave a partial tree behind.
		_ = os.RemoveAll(dest)
		return "", fmt.Errorf("clone %s: %w", repo.FullName, err)
	}

	if c.prune {
		removed, err := pruneTree(dest, c.keep)
		if err != nil {
			return "", fmt.Errorf("prune %s: %w", repo.FullName, err)
		}
		logger.Debug("Pruned %d files from %s", removed, repo.FullName)
	}

	return dest, nil
}

// cloneURL prefers the URL the platform reported and falls back to the
// canonical HTTPS form.
func cloneURL(repo domain.Repository) string {
	if repo.CloneURL != "" {
		return repo.CloneURL
	}
	return "https://github.com/" + repo.FullName + ".git"
}

// validatePathComponent rejects names that would escape the root.
func validatePathComponent(name string) error {
	if name == "" || name == "." || name == ".." {
		return domain.ErrInvalidInput
	}
	if strings.ContainsAny(name, `/\`) {
		return domain.ErrInvalidInput
	}
	return nil
}

// normaliseExtensions lowercases extensions and ensures a leading dot.
func normaliseExtensions(exts []string) map[string]struct{} {
	if len(exts) == 0 {
		return nil
	}
	keep := make(map[string]struct{}, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		keep[ext] = struct{}{}
	}
	return keep
}
