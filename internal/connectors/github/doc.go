// Package github implements the repository search client for the
// GitHub REST API.
//
// The client serves the [driven.SearchClient] port: counting how many
// repositories match a serialised query, and fetching the first result
// page for a query. Both operations sit on the Search API, which runs
// on its own quota, far smaller than the core API quota, so the rate
// limiting here is tuned for search.
//
// # Authentication
//
// A personal access token (classic or fine-grained, created at
// github.com/settings/tokens) raises the search quota to 30 requests
// per minute. An empty token is accepted: GitHub serves unauthenticated
// search at 10 requests per minute, which is workable for small plans.
//
// # Rate Limiting
//
// The client implements a dual-strategy rate limiting approach:
//
//  1. Proactive throttling: a token bucket limits requests to one every
//     two seconds, which spreads the 30/minute quota evenly instead of
//     bursting into it.
//
//  2. Reactive handling: the client monitors X-RateLimit-Remaining and
//     X-RateLimit-Reset headers. When the quota is exhausted, it waits
//     until the reset time before continuing.
//
// Secondary rate limits (abuse detection) carry a Retry-After header,
// which is folded into the same reset tracking.
//
// # Counting
//
// A count probe asks for a single-item page and reads total_count from
// the response, so measuring a window costs one request regardless of
// how many repositories it holds. Counts are cached per query string in
// a bounded LRU: planning, counting and streaming the same filter probe
// overlapping windows, and repeats are served from memory.
//
// # Error Handling
//
// The client distinguishes between recoverable and fatal errors:
//
//   - Rate limit errors: retried after waiting for the quota reset
//   - Server errors (5xx): retried with exponential backoff
//   - Client errors (4xx): returned as [*APIError] for the caller
//
// All failures keep their typed cause in the chain, so callers can use
// [IsRateLimited], [IsUnauthorized] and friends at any depth.
package github
