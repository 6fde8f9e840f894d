package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/repotrawl/repotrawl/internal/core/domain"
)

var (
	searchFilter filterFlags
	searchLimit  int
	searchJSON   bool
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Stream every repository matching the filter",
	Long: `Retrieves the complete result set for the filter, not just the first
1000 the platform would return. The creation window is partitioned until
every partition fits in one results page, then partitions are fetched
one at a time and printed as they arrive.

Both --created-from and --created-to are required: exhaustive retrieval
needs a bounded window to bisect.`,
	Args: cobra.NoArgs,
	RunE: runSearch,
}

func init() {
	searchFilter.register(searchCmd.Flags())
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 0, "stop after this many repositories (0 = all)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output one JSON object per repository")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, _ []string) error {
	if searchService == nil {
		return errors.New("search service not configured")
	}

	filter, err := searchFilter.build(cmd.Flags())
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	stream, err := searchService.Open(ctx, filter)
	if err != nil {
		return fmt.Errorf("opening result stream: %w", err)
	}

	printed := 0
	batches := 0
	for stream.Next(ctx) {
		batch := stream.Batch()
		batches++

		for i := range batch.Items {
			if searchLimit > 0 && printed >= searchLimit {
				break
			}
			printed++
			if searchJSON {
				if err := outputRepoJSON(cmd, batch.Items[i]); err != nil {
					return err
				}
			} else {
				outputRepoLine(cmd, printed, batch.Items[i])
			}
		}

		// Abandoning the stream here means the remaining partitions are
		// never fetched.
		if searchLimit > 0 && printed >= searchLimit {
			break
		}
	}
	if err := stream.Err(); err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if !searchJSON {
		if printed == 0 {
			cmd.Println("No repositories found.")
			return nil
		}
		cmd.Printf("\nFetched %d of %d repositories in %d batches.\n",
			printed, stream.TotalCount(), batches)
	}
	return nil
}

func outputRepoJSON(cmd *cobra.Command, repo domain.Repository) error {
	data, err := json.Marshal(repo)
	if err != nil {
		return fmt.Errorf("failed to marshal repository: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputRepoLine(cmd *cobra.Command, n int, repo domain.Repository) {
	lang := repo.Language
	if lang == "" {
		lang = "-"
	}
	cmd.Printf("  [%d] %s (%s, %d stars)\n", n, repo.FullName, lang, repo.Stars)
	if repo.Description != "" {
		cmd.Printf("      %s\n", repo.Description)
	}
}
