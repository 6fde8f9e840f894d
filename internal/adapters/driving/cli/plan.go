package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/repotrawl/repotrawl/internal/core/domain"
)

var planFilter filterFlags

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Show how the filter would be partitioned, without fetching",
	Long: `Runs the partitioning pass only: probes result counts and bisects the
creation window until every partition fits in one results page, then
prints the partition table. Useful for judging what a search or harvest
will cost before running it.`,
	Args: cobra.NoArgs,
	RunE: runPlan,
}

func init() {
	planFilter.register(planCmd.Flags())
	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, _ []string) error {
	if searchService == nil {
		return errors.New("search service not configured")
	}

	filter, err := planFilter.build(cmd.Flags())
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	parts, err := searchService.Plan(ctx, filter)
	if err != nil {
		return fmt.Errorf("planning failed: %w", err)
	}

	total := 0
	nonEmpty := 0
	for _, p := range parts {
		total += p.Count
		if p.Count > 0 {
			nonEmpty++
		}
	}

	start, end, err := filter.CreatedWindow()
	if err != nil {
		// Plan succeeded, so the window must have been valid.
		return err
	}

	cmd.Printf("Window: [%s, %s)\n",
		start.UTC().Format(domain.WireTimeLayout), end.UTC().Format(domain.WireTimeLayout))
	cmd.Printf("Total:  %d repositories (cap %d per partition)\n\n",
		total, searchService.Cap())

	for i, p := range parts {
		cmd.Printf("  %3d  %s\n", i+1, p)
	}

	cmd.Printf("\n%d partitions, %d non-empty: full retrieval costs %d page fetches.\n",
		len(parts), nonEmpty, nonEmpty)
	return nil
}
