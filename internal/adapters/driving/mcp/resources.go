package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/repotrawl/repotrawl/internal/core/domain"
)

// uriScheme is the custom URI scheme for repotrawl resources.
const uriScheme = "repotrawl://"

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	// Static resource for listing harvest runs.
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "runs",
		Name:        "harvest-runs",
		Description: "Harvest runs recorded in the local catalog",
		MIMEType:    "application/json",
	}, s.handleRunsResource)

	// Template for a single run with its repositories.
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "runs/{runId}",
		Name:        "harvest-run",
		Description: "One harvest run and the repositories it fetched",
		MIMEType:    "application/json",
	}, s.handleRunResource)
}

// runInfo is the wire shape of a harvest run.
type runInfo struct {
	ID          string  `json:"id"`
	Query       string  `json:"query"`
	Cap         int     `json:"cap"`
	TotalCount  int     `json:"total_count"`
	StartedAt   string  `json:"started_at"`
	CompletedAt *string `json:"completed_at,omitempty"`
	Fetched     int     `json:"fetched"`
	CloneErrors int     `json:"clone_errors"`
}

func toRunInfo(run domain.HarvestRun) runInfo {
	info := runInfo{
		ID:          run.ID,
		Query:       run.Query,
		Cap:         run.Cap,
		TotalCount:  run.TotalCount,
		StartedAt:   run.StartedAt.UTC().Format(time.RFC3339),
		Fetched:     run.Fetched,
		CloneErrors: run.CloneErrors,
	}
	if run.CompletedAt != nil {
		completed := run.CompletedAt.UTC().Format(time.RFC3339)
		info.CompletedAt = &completed
	}
	return info
}

// handleRunsResource returns a list of all recorded harvest runs.
func (s *Server) handleRunsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Catalog == nil {
		return &mcp.ReadResourceResult{
			Contents: []*mcp.ResourceContents{{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     "[]",
			}},
		}, nil
	}

	runs, err := s.ports.Catalog.ListRuns(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}

	infos := make([]runInfo, len(runs))
	for i, run := range runs {
		infos[i] = toRunInfo(run)
	}

	data, err := json.MarshalIndent(infos, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling runs: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// handleRunResource returns one run with the repositories it fetched.
func (s *Server) handleRunResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Catalog == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	// Extract runId from URI: repotrawl://runs/{runId}
	runID := extractRunID(req.Params.URI)
	if runID == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	run, err := s.ports.Catalog.GetRun(ctx, runID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, mcp.ResourceNotFoundError(req.Params.URI)
		}
		return nil, fmt.Errorf("getting run: %w", err)
	}

	repos, err := s.ports.Catalog.ListRepositories(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("listing repositories: %w", err)
	}

	detail := struct {
		Run          runInfo            `json:"run"`
		Repositories []RepositoryOutput `json:"repositories"`
	}{
		Run:          toRunInfo(*run),
		Repositories: make([]RepositoryOutput, len(repos)),
	}
	for i := range repos {
		detail.Repositories[i] = mapRepository(repos[i])
	}

	data, err := json.MarshalIndent(detail, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling run: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractRunID extracts the run ID from a URI like repotrawl://runs/{runId}.
func extractRunID(uri string) string {
	const prefix = uriScheme + "runs/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	return strings.TrimPrefix(uri, prefix)
}
