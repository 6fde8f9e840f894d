// Package config loads the tool's settings: built-in defaults, overlaid
// by an optional TOML file, with the API token taken from the
// environment. The token deliberately never lives in the TOML file.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

const (
	// EnvToken is the application-specific token variable. It wins over
	// EnvGitHubToken when both are set.
	EnvToken = "REPOTRAWL_TOKEN"

	// EnvGitHubToken is the conventional GitHub token variable.
	EnvGitHubToken = "GITHUB_TOKEN"
)

// SearchConfig tunes the search client and the partition planner.
type SearchConfig struct {
	// Cap is the per-window result cap plans are built against.
	Cap int `toml:"cap"`

	// BaseURL points the client at a GitHub Enterprise API root.
	BaseURL string `toml:"base_url"`

	// CountCacheSize bounds the in-memory count cache.
	CountCacheSize int `toml:"count_cache_size"`
}

// HarvestConfig tunes the harvester and the cloner.
type HarvestConfig struct {
	// Dest is the corpus root clones land under.
	Dest string `toml:"dest"`

	// Workers bounds concurrent clone processes.
	Workers int `toml:"workers"`

	// Depth is the git clone depth. Negative means full history.
	Depth int `toml:"depth"`

	// Prune strips VCS metadata and unkept files after cloning.
	Prune bool `toml:"prune"`

	// Keep lists file extensions spared by pruning.
	Keep []string `toml:"keep"`

	// Catalog is the SQLite catalog path. Empty selects the default
	// next to the config file.
	Catalog string `toml:"catalog"`
}

// Config carries everything the commands need beyond their flags.
type Config struct {
	// Token authenticates against the platform. Sourced from the
	// environment only, never from the TOML file.
	Token string `toml:"-"`

	Search  SearchConfig  `toml:"search"`
	Harvest HarvestConfig `toml:"harvest"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Search: SearchConfig{
			Cap: 100,
		},
		Harvest: HarvestConfig{
			Workers: 4,
			Depth:   1,
		},
	}
}

// DefaultPath returns ~/.repotrawl/config.toml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".repotrawl", "config.toml"), nil
}

// Load builds the effective configuration. path selects the TOML file;
// empty means DefaultPath. A missing file is not an error, the defaults
// simply stand.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		var err error
		path, err = DefaultPath()
		if err != nil {
			return cfg, err
		}
	}

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// No config file yet - that's fine, defaults stand.
	case err != nil:
		return cfg, fmt.Errorf("reading config: %w", err)
	default:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing %s: %w", path, err)
		}
	}

	// A .env in the working directory is honoured but never required,
	// and never overrides variables already set.
	_ = godotenv.Load()

	cfg.Token = os.Getenv(EnvToken)
	if cfg.Token == "" {
		cfg.Token = os.Getenv(EnvGitHubToken)
	}

	return cfg, nil
}
