package mcp

import (
	"context"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/repotrawl/repotrawl/internal/core/domain"
)

const (
	// defaultSearchLimit applies when the search tool gets no limit.
	defaultSearchLimit = 100

	// maxSearchLimit bounds how many repositories one tool call returns.
	maxSearchLimit = 1000
)

// FilterInput is the repository filter shared by all tools.
type FilterInput struct {
	Languages   []string `json:"languages,omitempty" jsonschema:"primary languages to match, any of"`
	MinStars    *int     `json:"min_stars,omitempty" jsonschema:"minimum stargazer count"`
	MaxStars    *int     `json:"max_stars,omitempty" jsonschema:"maximum stargazer count"`
	MinForks    *int     `json:"min_forks,omitempty" jsonschema:"minimum fork count"`
	MaxForks    *int     `json:"max_forks,omitempty" jsonschema:"maximum fork count"`
	CreatedFrom string   `json:"created_from,omitempty" jsonschema:"creation window start, inclusive (RFC3339 or YYYY-MM-DD)"`
	CreatedTo   string   `json:"created_to,omitempty" jsonschema:"creation window end, exclusive (RFC3339 or YYYY-MM-DD)"`
}

// toFilter lowers the wire input into a domain filter.
func (in FilterInput) toFilter() (domain.Filter, error) {
	f := domain.Filter{
		Languages: in.Languages,
		Stars:     domain.IntRange{Min: in.MinStars, Max: in.MaxStars},
		Forks:     domain.IntRange{Min: in.MinForks, Max: in.MaxForks},
	}

	if in.CreatedFrom != "" {
		t, err := parseTime(in.CreatedFrom)
		if err != nil {
			return domain.Filter{}, fmt.Errorf("created_from: %w", err)
		}
		f.Created.Min = &t
	}
	if in.CreatedTo != "" {
		t, err := parseTime(in.CreatedTo)
		if err != nil {
			return domain.Filter{}, fmt.Errorf("created_to: %w", err)
		}
		f.Created.Max = &t
	}

	return f, nil
}

func parseTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q: want RFC3339 or YYYY-MM-DD", s)
	}
	return t.UTC(), nil
}

// CountOutput is the output schema for the count tool.
type CountOutput struct {
	Total int    `json:"total"`
	Query string `json:"query"`
}

// PartitionOutput is one planned window.
type PartitionOutput struct {
	Start string `json:"start"`
	End   string `json:"end"`
	Count int    `json:"count"`
}

// PlanOutput is the output schema for the plan tool.
type PlanOutput struct {
	Total      int               `json:"total"`
	Cap        int               `json:"cap"`
	Partitions []PartitionOutput `json:"partitions"`
}

// SearchInput is the input schema for the search tool.
type SearchInput struct {
	FilterInput
	Limit int `json:"limit,omitempty" jsonschema:"maximum repositories to return (default 100, max 1000)"`
}

// RepositoryOutput represents a single repository.
type RepositoryOutput struct {
	ID          int64  `json:"id"`
	FullName    string `json:"full_name"`
	Description string `json:"description,omitempty"`
	Language    string `json:"language,omitempty"`
	Stars       int    `json:"stars"`
	Forks       int    `json:"forks"`
	HTMLURL     string `json:"html_url"`
	CloneURL    string `json:"clone_url"`
	CreatedAt   string `json:"created_at"`
}

// SearchOutput is the output schema for the search tool.
type SearchOutput struct {
	Repositories []RepositoryOutput `json:"repositories"`
	Count        int                `json:"count"`
	TotalCount   int                `json:"total_count"`
	Complete     bool               `json:"complete"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "count_repositories",
		Description: "Count repositories matching a filter with a single probe",
	}, s.handleCount)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "plan_partitions",
		Description: "Show how a filter's creation window would be split for exhaustive retrieval",
	}, s.handlePlan)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search_repositories",
		Description: "Exhaustively search repositories, beyond the platform's 1000-result window",
	}, s.handleSearch)
}

// handleCount handles the count tool invocation.
func (s *Server) handleCount(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input FilterInput,
) (*mcp.CallToolResult, CountOutput, error) {
	filter, err := input.toFilter()
	if err != nil {
		return nil, CountOutput{}, err
	}

	total, err := s.ports.Search.Count(ctx, filter)
	if err != nil {
		return nil, CountOutput{}, err
	}

	return nil, CountOutput{Total: total, Query: filter.Query()}, nil
}

// handlePlan handles the plan tool invocation.
func (s *Server) handlePlan(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input FilterInput,
) (*mcp.CallToolResult, PlanOutput, error) {
	filter, err := input.toFilter()
	if err != nil {
		return nil, PlanOutput{}, err
	}

	parts, err := s.ports.Search.Plan(ctx, filter)
	if err != nil {
		return nil, PlanOutput{}, err
	}

	output := PlanOutput{
		Cap:        s.ports.Search.Cap(),
		Partitions: make([]PartitionOutput, len(parts)),
	}
	for i, p := range parts {
		output.Total += p.Count
		output.Partitions[i] = PartitionOutput{
			Start: p.Start.UTC().Format(domain.WireTimeLayout),
			End:   p.End.UTC().Format(domain.WireTimeLayout),
			Count: p.Count,
		}
	}

	return nil, output, nil
}

// handleSearch handles the search tool invocation. The stream is
// abandoned as soon as the limit is reached, so unneeded partitions are
// never fetched.
func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	filter, err := input.toFilter()
	if err != nil {
		return nil, SearchOutput{}, err
	}

	limit := input.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}

	stream, err := s.ports.Search.Open(ctx, filter)
	if err != nil {
		return nil, SearchOutput{}, err
	}

	output := SearchOutput{Repositories: []RepositoryOutput{}}
	for len(output.Repositories) < limit && stream.Next(ctx) {
		batch := stream.Batch()
		for i := range batch.Items {
			if len(output.Repositories) >= limit {
				break
			}
			output.Repositories = append(output.Repositories, mapRepository(batch.Items[i]))
		}
	}
	if err := stream.Err(); err != nil {
		return nil, SearchOutput{}, err
	}

	output.Count = len(output.Repositories)
	output.TotalCount = stream.TotalCount()
	output.Complete = output.Count == output.TotalCount

	return nil, output, nil
}

func mapRepository(r domain.Repository) RepositoryOutput {
	return RepositoryOutput{
		ID:          r.ID,
		FullName:    r.FullName,
		Description: r.Description,
		Language:    r.Language,
		Stars:       r.Stars,
		Forks:       r.Forks,
		HTMLURL:     r.HTMLURL,
		CloneURL:    r.CloneURL,
		CreatedAt:   r.CreatedAt.UTC().Format(time.RFC3339),
	}
}
