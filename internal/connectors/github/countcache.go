package github

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/repotrawl/repotrawl/internal/logger"
)

// countCache keeps recent query counts in a bounded LRU keyed by the
// serialised query string. Eviction only costs a repeat probe.
type countCache struct {
	lru *lru.Cache[string, int]
}

func newCountCache(size int) (*countCache, error) {
	cache, err := lru.New[string, int](size)
	if err != nil {
		return nil, err
	}
	return &countCache{lru: cache}, nil
}

func (c *countCache) get(query string) (int, bool) {
	total, ok := c.lru.Get(query)
	if ok {
		logger.Debug("Count cache hit for %q: %d", query, total)
	}
	return total, ok
}

func (c *countCache) add(query string, total int) {
	c.lru.Add(query, total)
}
