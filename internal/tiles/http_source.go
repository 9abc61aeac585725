package tiles

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/Helioviewer-Project/helioviewer.org-sub000/internal/cache"
	"github.com/Helioviewer-Project/helioviewer.org-sub000/internal/common"
	"github.com/Helioviewer-Project/helioviewer.org-sub000/internal/ratelimit"
)

// UserAgent identifies tile requests
const UserAgent = "helioviewer-desktop"

// ProviderTileAPI is the rate limit key for the tile API
const ProviderTileAPI = "tile_api"

// HTTPTileSource fetches tiles from a getTile endpoint
type HTTPTileSource struct {
	baseURL    string
	httpClient *http.Client
	cache      *cache.TileCache
	limiter    *ratelimit.Handler
	devMode    bool
}

// NewHTTPTileSource creates a tile source for baseURL. tileCache and
// limiter may be nil.
func NewHTTPTileSource(baseURL string, tileCache *cache.TileCache, limiter *ratelimit.Handler, devMode bool) *HTTPTileSource {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
	}

	return &HTTPTileSource{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
		cache:   tileCache,
		limiter: limiter,
		devMode: devMode,
	}
}

// TileURL builds the request URL for a tile
func (s *HTTPTileSource) TileURL(key common.TileKey) string {
	q := url.Values{}
	q.Set("id", key.LayerID)
	q.Set("imageScale", strconv.FormatFloat(key.ImageScale, 'f', -1, 64))
	q.Set("x", strconv.Itoa(key.X))
	q.Set("y", strconv.Itoa(key.Y))
	return s.baseURL + "?" + q.Encode()
}

// RequestTile fetches a tile in the background
func (s *HTTPTileSource) RequestTile(ctx context.Context, key common.TileKey, onComplete func(common.TileLoadResult)) {
	go func() {
		onComplete(s.Fetch(ctx, key))
	}()
}

// Fetch loads one tile synchronously, from the cache when possible
func (s *HTTPTileSource) Fetch(ctx context.Context, key common.TileKey) common.TileLoadResult {
	if s.cache != nil {
		if result, ok := s.cache.Get(key); ok {
			return result
		}
	}

	if s.limiter != nil && s.limiter.IsRateLimited(ProviderTileAPI) {
		return common.Failed(key, fmt.Errorf("tile API is rate limited"))
	}

	tileURL := s.TileURL(key)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, tileURL, nil)
	if err != nil {
		return common.Failed(key, fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("User-Agent", UserAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return common.Failed(key, fmt.Errorf("failed to fetch tile: %w", err))
	}
	defer resp.Body.Close()

	if s.limiter != nil && s.limiter.CheckResponse(ProviderTileAPI, resp) {
		return common.Failed(key, fmt.Errorf("tile request rate limited (status %d)", resp.StatusCode))
	}
	if resp.StatusCode != http.StatusOK {
		return common.Failed(key, fmt.Errorf("tile request failed with status: %d", resp.StatusCode))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return common.Failed(key, fmt.Errorf("failed to read tile: %w", err))
	}

	result := common.Ready(key, tileURL, data)
	if s.cache != nil {
		s.cache.Set(result)
	}
	if s.devMode {
		log.Printf("[TileSource] fetched %s (%d bytes)", tileURL, len(data))
	}
	return result
}
