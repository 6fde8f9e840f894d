package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/repotrawl/repotrawl/internal/adapters/driven/catalog/sqlite"
	"github.com/repotrawl/repotrawl/internal/adapters/driven/gitclone"
	"github.com/repotrawl/repotrawl/internal/adapters/driving/tui"
	"github.com/repotrawl/repotrawl/internal/core/domain"
	"github.com/repotrawl/repotrawl/internal/core/ports/driven"
	"github.com/repotrawl/repotrawl/internal/core/ports/driving"
	"github.com/repotrawl/repotrawl/internal/core/services"
	"github.com/repotrawl/repotrawl/internal/logger"
)

var (
	harvestFilter  filterFlags
	harvestDest    string
	harvestClone   bool
	harvestWorkers int
	harvestDepth   int
	harvestPrune   bool
	harvestKeep    []string
	harvestCatalog string
	harvestNoTUI   bool
)

var harvestCmd = &cobra.Command{
	Use:   "harvest",
	Short: "Retrieve every matching repository into the local catalog",
	Long: `Runs a complete retrieval: partitions the filter's creation window,
fetches every partition, records all metadata in the SQLite catalog and,
with --clone, clones each repository under the destination root.

Page fetches are sequential to respect the platform's search quota;
only clone work runs in parallel. On a terminal the run shows a live
progress display unless --no-tui is given.`,
	Args: cobra.NoArgs,
	RunE: runHarvest,
}

func init() {
	harvestFilter.register(harvestCmd.Flags())
	harvestCmd.Flags().StringVarP(&harvestDest, "dest", "d", "", "corpus root for clones (default from config)")
	harvestCmd.Flags().BoolVar(&harvestClone, "clone", false, "clone each repository after cataloguing")
	harvestCmd.Flags().IntVar(&harvestWorkers, "workers", 0, "concurrent clone processes (default from config)")
	harvestCmd.Flags().IntVar(&harvestDepth, "depth", 0, "clone depth, negative for full history (default from config)")
	harvestCmd.Flags().BoolVar(&harvestPrune, "prune", false, "strip VCS metadata and unkept files after cloning")
	harvestCmd.Flags().StringSliceVar(&harvestKeep, "keep", nil, "file extensions spared by pruning (repeatable)")
	harvestCmd.Flags().StringVar(&harvestCatalog, "catalog", "", "catalog database path (default from config)")
	harvestCmd.Flags().BoolVar(&harvestNoTUI, "no-tui", false, "plain output even on a terminal")
	rootCmd.AddCommand(harvestCmd)
}

// newHarvester builds the harvest service. Swappable so tests can run
// the command against a fake.
var newHarvester = func(search driving.RepoSearch, catalog driven.Catalog, cloner driven.Cloner, workers int) driving.Harvester {
	return services.NewHarvester(search, catalog, cloner, workers)
}

func runHarvest(cmd *cobra.Command, _ []string) error {
	if searchService == nil {
		return errors.New("search service not configured")
	}

	filter, err := harvestFilter.build(cmd.Flags())
	if err != nil {
		return err
	}

	catalogPath := harvestCatalog
	if catalogPath == "" {
		catalogPath = cfg.Harvest.Catalog
	}
	store, err := sqlite.NewStore(catalogPath)
	if err != nil {
		return fmt.Errorf("opening catalog: %w", err)
	}
	defer store.Close()

	var cloner driven.Cloner
	if harvestClone {
		cloner, err = buildCloner(cmd)
		if err != nil {
			return err
		}
	}

	workers := harvestWorkers
	if workers <= 0 {
		workers = cfg.Harvest.Workers
	}

	harvester := newHarvester(searchService, store, cloner, workers)

	if !harvestNoTUI && term.IsTerminal(int(os.Stdout.Fd())) {
		return runHarvestTUI(cmd, harvester, filter)
	}

	summary, err := harvester.Run(cmd.Context(), filter, &printObserver{cmd: cmd})
	if err != nil {
		return fmt.Errorf("harvest failed: %w", err)
	}
	printHarvestSummary(cmd, summary)
	return nil
}

// buildCloner resolves clone settings, letting flags override the
// configuration file.
func buildCloner(cmd *cobra.Command) (driven.Cloner, error) {
	dest := harvestDest
	if dest == "" {
		dest = cfg.Harvest.Dest
	}
	if dest == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dest = filepath.Join(home, ".repotrawl", "corpus")
	}

	opts := gitclone.Options{
		Depth: cfg.Harvest.Depth,
		Prune: cfg.Harvest.Prune,
		Keep:  cfg.Harvest.Keep,
	}
	if cmd.Flags().Changed("depth") {
		opts.Depth = harvestDepth
	}
	if cmd.Flags().Changed("prune") {
		opts.Prune = harvestPrune
	}
	if cmd.Flags().Changed("keep") {
		opts.Keep = harvestKeep
	}

	return gitclone.New(dest, opts)
}

// runHarvestTUI runs the harvest under the progress display. The
// harvester runs in a goroutine and feeds the program through an
// observer; quitting the display cancels the run's context.
func runHarvestTUI(cmd *cobra.Command, harvester driving.Harvester, filter domain.Filter) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	p := tea.NewProgram(tui.NewHarvestModel(cancel), tea.WithOutput(cmd.OutOrStdout()))

	var runErr error
	done := make(chan struct{})
	go func() {
		defer close(done)
		summary, err := harvester.Run(ctx, filter, tui.NewObserver(p))
		if err != nil {
			runErr = err
			p.Send(tui.ErrMsg{Err: err})
			return
		}
		p.Send(tui.DoneMsg{Summary: summary})
	}()

	if _, err := p.Run(); err != nil {
		cancel()
		<-done
		return fmt.Errorf("progress display failed: %w", err)
	}
	<-done

	if runErr != nil {
		return fmt.Errorf("harvest failed: %w", runErr)
	}
	return nil
}

// Ensure printObserver implements the interface.
var _ driving.HarvestObserver = (*printObserver)(nil)

// printObserver writes plain progress lines to the command's output.
// OnClone fires from worker goroutines, so writes are serialised.
type printObserver struct {
	mu  sync.Mutex
	cmd *cobra.Command
}

func (o *printObserver) OnPlan(totalCount int, partitions []domain.Partition) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.cmd.Printf("Planned %d partitions covering %d repositories.\n", len(partitions), totalCount)
}

func (o *printObserver) OnBatch(batch domain.ResultBatch) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.cmd.Printf("  [%s, %s)  %d repositories  (%d/%d)\n",
		batch.Start.UTC().Format(domain.WireTimeLayout),
		batch.End.UTC().Format(domain.WireTimeLayout),
		batch.CountInBatch, batch.CountProgress, batch.TotalCount)
}

func (o *printObserver) OnClone(repo domain.Repository, path string, err error) {
	if err != nil {
		o.mu.Lock()
		defer o.mu.Unlock()
		o.cmd.Printf("  clone failed: %s: %v\n", repo.FullName, err)
		return
	}
	logger.Debug("cloned %s to %s", repo.FullName, path)
}

func printHarvestSummary(cmd *cobra.Command, summary *domain.HarvestSummary) {
	cmd.Printf("\nRun %s finished in %s.\n", summary.RunID, summary.Duration.Round(time.Millisecond))
	cmd.Printf("  Fetched %d of %d repositories in %d batches.\n",
		summary.Fetched, summary.TotalCount, summary.Batches)
	if summary.Cloned > 0 || summary.CloneErrors > 0 {
		cmd.Printf("  Cloned %d repositories, %d failures.\n", summary.Cloned, summary.CloneErrors)
	}
}
