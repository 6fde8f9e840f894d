// Package connectors provides implementations of the SearchClient
// interface for repository platforms. Each connector knows how to count
// and fetch repositories from a specific platform's search API.
package connectors
