// Package mcp provides an MCP (Model Context Protocol) server adapter
// for repotrawl. It lets AI assistants count, plan and exhaustively
// search repositories, and browse past harvest runs as resources.
package mcp

import "errors"

// ErrMissingSearch is returned when the search service is not provided.
var ErrMissingSearch = errors.New("mcp: search service is required")
