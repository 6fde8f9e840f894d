package github

import "time"

const (
	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultCountCacheSize is the default number of query counts kept
	// in memory.
	DefaultCountCacheSize = 512
)

// Config holds the settings for a GitHub search client.
// All fields are optional; the zero value gives an unauthenticated
// client against api.github.com.
type Config struct {
	// Token is a personal access token. Empty means unauthenticated,
	// which GitHub serves at a much smaller search quota.
	Token string

	// BaseURL overrides the API endpoint, for GitHub Enterprise
	// installations or tests. Empty means api.github.com.
	BaseURL string

	// UserAgent overrides the User-Agent header. Empty keeps the
	// go-github default.
	UserAgent string

	// Timeout bounds each HTTP request. Zero means DefaultTimeout.
	Timeout time.Duration

	// CountCacheSize bounds the count cache. Zero means
	// DefaultCountCacheSize.
	CountCacheSize int
}

// withDefaults returns a copy with unset fields filled in.
func (c Config) withDefaults() Config {
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.CountCacheSize <= 0 {
		c.CountCacheSize = DefaultCountCacheSize
	}
	return c
}
