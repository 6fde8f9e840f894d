package domain

import (
	"fmt"
	"time"
)

// Repository is the metadata record a repository search returns.
type Repository struct {
	// ID is the platform's numeric repository identifier.
	ID int64

	// Owner is the login of the owning user or organisation.
	Owner string

	// Name is the repository name without the owner prefix.
	Name string

	// FullName is "owner/name".
	FullName string

	// Description is the repository's short description, possibly empty.
	Description string

	// Language is the primary language as classified by the platform.
	Language string

	// DefaultBranch is the branch a plain clone checks out.
	DefaultBranch string

	// CloneURL is the HTTPS clone endpoint.
	CloneURL string

	// HTMLURL is the repository's web page.
	HTMLURL string

	// Stars is the stargazer count at fetch time.
	Stars int

	// Forks is the fork count at fetch time.
	Forks int

	// Fork reports whether the repository is itself a fork.
	Fork bool

	// Archived reports whether the repository is archived.
	Archived bool

	// CreatedAt is the repository creation time.
	CreatedAt time.Time
}

// Partition is a creation-date window whose measured result count fits
// within a single result page. Start is inclusive, End exclusive.
type Partition struct {
	// Count is the number of repositories the window held when measured.
	Count int

	// Start is the inclusive lower bound of the window.
	Start time.Time

	// End is the exclusive upper bound of the window.
	End time.Time
}

// String renders the window in wire-format timestamps, for logs and
// plan output.
func (p Partition) String() string {
	return fmt.Sprintf("[%s, %s) count=%d",
		p.Start.UTC().Format(WireTimeLayout), p.End.UTC().Format(WireTimeLayout), p.Count)
}

// ResultBatch is one partition's worth of search results, together with
// enough bookkeeping for a consumer to display progress without any
// other state.
type ResultBatch struct {
	// TotalCount is the number of repositories matching the whole filter.
	TotalCount int

	// CountInBatch is len(Items).
	CountInBatch int

	// CountProgress is the running total of items delivered so far,
	// this batch included.
	CountProgress int

	// Progress is CountProgress over TotalCount. It reaches exactly 1.0
	// on the final batch.
	Progress float64

	// Start and End are the half-open creation window this batch covers.
	Start time.Time
	End   time.Time

	// Items holds the repositories in the order the platform returned
	// them. May be empty for windows that matched nothing.
	Items []Repository
}

// HarvestRun identifies one execution of the harvester.
type HarvestRun struct {
	// ID is a generated unique identifier for the run.
	ID string

	// Query is the serialized filter the run retrieved.
	Query string

	// Cap is the per-partition result cap the run was planned with.
	Cap int

	// TotalCount is the root count measured at planning time.
	TotalCount int

	// StartedAt is when the run began.
	StartedAt time.Time

	// CompletedAt is when the run was closed out, nil while it is
	// still going.
	CompletedAt *time.Time

	// Fetched is the number of repositories actually retrieved.
	Fetched int

	// CloneErrors is the number of repositories whose clone failed.
	CloneErrors int
}

// HarvestSummary reports what a finished harvest run did.
type HarvestSummary struct {
	RunID       string
	TotalCount  int
	Fetched     int
	Batches     int
	Cloned      int
	CloneErrors int
	Duration    time.Duration
}
