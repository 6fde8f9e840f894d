// Package cli implements the repotrawl command-line interface.
//
// Commands are package-level cobra commands registered in init(). The
// search service is normally built from configuration in the root
// command's PersistentPreRunE; tests inject fakes through Initialize.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/repotrawl/repotrawl/internal/config"
	"github.com/repotrawl/repotrawl/internal/connectors/github"
	"github.com/repotrawl/repotrawl/internal/core/ports/driving"
	"github.com/repotrawl/repotrawl/internal/core/services"
	"github.com/repotrawl/repotrawl/internal/logger"
)

// Version information, set at build time via ldflags:
//
//	-X github.com/repotrawl/repotrawl/internal/adapters/driving/cli.version=v1.2.3
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	verbose    bool
	configPath string
	tokenFlag  string
	capFlag    int
)

// searchService is the search port commands run against. Built during
// PersistentPreRunE unless already injected.
var searchService driving.RepoSearch

// cfg holds the loaded configuration for commands that need more than
// the search service.
var cfg config.Config

var rootCmd = &cobra.Command{
	Use:   "repotrawl",
	Short: "Exhaustive repository search and harvesting",
	Long: `Repotrawl retrieves the complete set of repositories matching a filter
from platforms that cap search queries at 1000 results.

It splits the filter's creation-date window into partitions small enough
to fit in a single results page, then fetches them one by one. Matching
repositories can be counted, planned, streamed, or harvested into a
local corpus with metadata catalogued in SQLite.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

// Execute runs the root command. Cancelling ctx stops in-flight
// fetches; commands observe it through cmd.Context.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// Initialize injects the search service, bypassing construction from
// configuration. Used by tests and callers that wire their own stack.
func Initialize(search driving.RepoSearch) {
	searchService = search
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.repotrawl/config.toml)")
	rootCmd.PersistentFlags().StringVar(&tokenFlag, "token", "", "API token (overrides GITHUB_TOKEN)")
	rootCmd.PersistentFlags().IntVar(&capFlag, "cap", 0, "per-partition result cap (default from config)")
}

// setup prepares logging and builds the search service from
// configuration. It runs before every command.
func setup(_ *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)

	loaded, err := config.Load(configPath)
	if err != nil {
		return err
	}
	cfg = loaded

	if tokenFlag != "" {
		cfg.Token = tokenFlag
	}
	if capFlag > 0 {
		cfg.Search.Cap = capFlag
	}

	// Already injected - tests and embedding callers.
	if searchService != nil {
		return nil
	}

	client, err := github.NewClient(github.Config{
		Token:          cfg.Token,
		BaseURL:        cfg.Search.BaseURL,
		CountCacheSize: cfg.Search.CountCacheSize,
	})
	if err != nil {
		return fmt.Errorf("creating search client: %w", err)
	}

	searcher, err := services.NewSearcher(client, cfg.Search.Cap)
	if err != nil {
		return err
	}

	searchService = searcher
	return nil
}
