package cache

import (
	"fmt"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/Helioviewer-Project/helioviewer.org-sub000/internal/common"
)

// TileCache provides LRU caching for loaded tiles. Only successful results
// are stored, so a failed tile that is requested again goes upstream.
type TileCache struct {
	entries *lru.Cache[common.TileKey, common.TileLoadResult]
	hits    atomic.Int64
	misses  atomic.Int64
}

// NewTileCache creates a tile cache holding at most maxEntries results
func NewTileCache(maxEntries int) (*TileCache, error) {
	entries, err := lru.New[common.TileKey, common.TileLoadResult](maxEntries)
	if err != nil {
		return nil, fmt.Errorf("failed to create tile cache: %w", err)
	}
	return &TileCache{entries: entries}, nil
}

// Get retrieves a tile from cache
func (c *TileCache) Get(key common.TileKey) (common.TileLoadResult, bool) {
	result, ok := c.entries.Get(key)
	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return result, ok
}

// Set stores a tile in cache. Failed results are ignored.
func (c *TileCache) Set(result common.TileLoadResult) {
	if !result.OK() {
		return
	}
	c.entries.Add(result.Key, result)
}

// Stats returns cache statistics
func (c *TileCache) Stats() (entries int, hits, misses int64) {
	return c.entries.Len(), c.hits.Load(), c.misses.Load()
}

// Clear removes all cached tiles
func (c *TileCache) Clear() {
	c.entries.Purge()
}
