package tiles

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Helioviewer-Project/helioviewer.org-sub000/internal/cache"
	"github.com/Helioviewer-Project/helioviewer.org-sub000/internal/common"
	"github.com/Helioviewer-Project/helioviewer.org-sub000/internal/ratelimit"
)

func TestHTTPTileSource_TileURL(t *testing.T) {
	s := NewHTTPTileSource("https://api.example.org/v2/getTile/", nil, nil, false)

	u := s.TileURL(common.TileKey{LayerID: "42", ImageScale: 2.42044, X: -1, Y: 0})
	assert.Equal(t, "https://api.example.org/v2/getTile/?id=42&imageScale=2.42044&x=-1&y=0", u)
}

func TestHTTPTileSource_FetchCachesSuccess(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, UserAgent, r.Header.Get("User-Agent"))
		assert.Equal(t, "3", r.URL.Query().Get("x"))
		w.Write([]byte("jpeg"))
	}))
	defer server.Close()

	tileCache, err := cache.NewTileCache(16)
	require.NoError(t, err)
	s := NewHTTPTileSource(server.URL, tileCache, nil, false)
	key := common.TileKey{LayerID: "aia", ImageScale: 2.4, X: 3, Y: -2}

	result := s.Fetch(context.Background(), key)
	require.True(t, result.OK())
	assert.Equal(t, []byte("jpeg"), result.Data)

	again := s.Fetch(context.Background(), key)
	assert.True(t, again.OK())
	assert.Equal(t, int32(1), hits.Load())
}

func TestHTTPTileSource_FailuresAndRateLimit(t *testing.T) {
	var status atomic.Int32
	status.Store(http.StatusNotFound)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(int(status.Load()))
	}))
	defer server.Close()

	limiter := ratelimit.NewHandler(0)
	s := NewHTTPTileSource(server.URL, nil, limiter, false)
	key := common.TileKey{LayerID: "aia", ImageScale: 2.4}

	result := s.Fetch(context.Background(), key)
	assert.False(t, result.OK())
	assert.Error(t, result.Error)
	assert.False(t, limiter.IsRateLimited(ProviderTileAPI))

	status.Store(http.StatusTooManyRequests)
	result = s.Fetch(context.Background(), key)
	assert.False(t, result.OK())
	assert.True(t, limiter.IsRateLimited(ProviderTileAPI))

	// Fails fast while cooling down
	status.Store(http.StatusOK)
	result = s.Fetch(context.Background(), key)
	assert.False(t, result.OK())
	assert.Contains(t, result.Error.Error(), "rate limited")
}

func TestHTTPTileSource_RequestTileCompletesOnce(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("png"))
	}))
	defer server.Close()

	s := NewHTTPTileSource(server.URL, nil, nil, false)
	done := make(chan common.TileLoadResult, 2)
	s.RequestTile(context.Background(), common.TileKey{LayerID: "aia"}, func(r common.TileLoadResult) {
		done <- r
	})

	result := <-done
	assert.True(t, result.OK())
	assert.Len(t, done, 0)
}
