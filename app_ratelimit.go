package main

import (
	"github.com/Helioviewer-Project/helioviewer.org-sub000/internal/ratelimit"
	"github.com/Helioviewer-Project/helioviewer.org-sub000/internal/tiles"
)

// Rate Limit Management Functions (Wails-exported)

// GetRateLimitStatus returns the current rate limit state of the tile API
func (a *App) GetRateLimitStatus() *ratelimit.RateLimitEvent {
	if a.rateLimitHandler != nil {
		return a.rateLimitHandler.GetCurrentState(tiles.ProviderTileAPI)
	}
	return nil
}

// IsRateLimited checks if the tile API is currently rate limited
func (a *App) IsRateLimited() bool {
	if a.rateLimitHandler != nil {
		return a.rateLimitHandler.IsRateLimited(tiles.ProviderTileAPI)
	}
	return false
}

// ResetRateLimit ends the cooldown early and reloads the visible tiles,
// including those that failed while it was active
func (a *App) ResetRateLimit() {
	if a.rateLimitHandler != nil {
		a.rateLimitHandler.Reset(tiles.ProviderTileAPI)
	}
	a.layers.RetryFailed()
	a.viewport.LayersChanged()
}

// Cache Management Functions (Wails-exported)

// CacheStats represents cache statistics for frontend
type CacheStats struct {
	Entries int     `json:"entries"`
	Hits    int64   `json:"hits"`
	Misses  int64   `json:"misses"`
	HitRate float64 `json:"hitRate"`
}

// GetCacheStats returns current cache statistics
func (a *App) GetCacheStats() CacheStats {
	if a.tileCache == nil {
		return CacheStats{}
	}

	entries, hits, misses := a.tileCache.Stats()

	stats := CacheStats{
		Entries: entries,
		Hits:    hits,
		Misses:  misses,
	}
	if total := hits + misses; total > 0 {
		stats.HitRate = float64(hits) / float64(total)
	}
	return stats
}

// ClearCache removes all cached tiles
func (a *App) ClearCache() {
	if a.tileCache != nil {
		a.tileCache.Clear()
	}
}
