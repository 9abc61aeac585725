package tileserver

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Helioviewer-Project/helioviewer.org-sub000/internal/cache"
	"github.com/Helioviewer-Project/helioviewer.org-sub000/internal/common"
)

type stubFetcher struct {
	mu    sync.Mutex
	calls []common.TileKey
	ctxs  []context.Context
	fail  bool
}

func (f *stubFetcher) Fetch(ctx context.Context, key common.TileKey) common.TileLoadResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, key)
	f.ctxs = append(f.ctxs, ctx)
	if f.fail {
		return common.Failed(key, errors.New("upstream down"))
	}
	return common.Ready(key, "upstream", []byte("\xff\xd8\xff fetched"))
}

func TestParseTilePath(t *testing.T) {
	key, err := parseTilePath("/tiles/aia-171/2.4204408/-2/1")
	require.NoError(t, err)
	assert.Equal(t, common.TileKey{LayerID: "aia-171", ImageScale: 2.4204408, X: -2, Y: 1}, key)

	for _, bad := range []string{
		"/tiles/aia/2.4/1",
		"/tiles//2.4/1/1",
		"/tiles/aia/zero/1/1",
		"/tiles/aia/-1/1/1",
		"/tiles/aia/2.4/a/1",
		"/tiles/aia/2.4/1/b",
	} {
		_, err := parseTilePath(bad)
		assert.Error(t, err, bad)
	}
}

func TestServer_ServesFromCacheThenFetcher(t *testing.T) {
	tileCache, err := cache.NewTileCache(8)
	require.NoError(t, err)
	cached := common.TileKey{LayerID: "aia", ImageScale: 2.4, X: 0, Y: 0}
	tileCache.Set(common.Ready(cached, "upstream", []byte("cached")))

	fetcher := &stubFetcher{}
	server := httptest.NewServer(NewServer(context.Background(), fetcher, tileCache, false).Handler())
	defer server.Close()

	resp, err := http.Get(server.URL + "/tiles/aia/2.4/0/0")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, "cached", string(body))
	assert.Equal(t, "HIT", resp.Header.Get("X-Cache-Status"))
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	fetcher.mu.Lock()
	assert.Empty(t, fetcher.calls)
	fetcher.mu.Unlock()

	resp, err = http.Get(server.URL + "/tiles/aia/2.4/1/0")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "MISS", resp.Header.Get("X-Cache-Status"))
	assert.Equal(t, "image/jpeg", resp.Header.Get("Content-Type"))
	fetcher.mu.Lock()
	defer fetcher.mu.Unlock()
	require.Len(t, fetcher.calls, 1)
	assert.Equal(t, 1, fetcher.calls[0].X)
}

func TestServer_FailuresServeTransparentTile(t *testing.T) {
	server := httptest.NewServer(NewServer(context.Background(), &stubFetcher{fail: true}, nil, false).Handler())
	defer server.Close()

	resp, err := http.Get(server.URL + "/tiles/aia/2.4/0/0")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))

	resp, err = http.Get(server.URL + "/tiles/aia")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestServer_StartStop(t *testing.T) {
	s := NewServer(context.Background(), &stubFetcher{}, nil, false)
	key := common.TileKey{LayerID: "aia", ImageScale: 1.2, X: -1, Y: 3}
	assert.Empty(t, s.TileURL(key))

	require.NoError(t, s.Start())
	defer s.Stop(context.Background())

	assert.Regexp(t, `^http://127\.0\.0\.1:\d+/tiles/aia/1\.2/-1/3$`, s.TileURL(key))

	resp, err := http.Get(s.URL() + "/placeholder")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))

	require.NoError(t, s.Stop(context.Background()))
	assert.Empty(t, s.URL())
}

type sessionKey struct{}

func TestServer_RequestsDeriveFromServerContext(t *testing.T) {
	ctx := context.WithValue(context.Background(), sessionKey{}, "viewer")
	fetcher := &stubFetcher{}
	s := NewServer(ctx, fetcher, nil, false)
	require.NoError(t, s.Start())
	defer s.Stop(context.Background())

	resp, err := http.Get(s.TileURL(common.TileKey{LayerID: "aia", ImageScale: 2.4}))
	require.NoError(t, err)
	resp.Body.Close()

	fetcher.mu.Lock()
	defer fetcher.mu.Unlock()
	require.Len(t, fetcher.ctxs, 1)
	assert.Equal(t, "viewer", fetcher.ctxs[0].Value(sessionKey{}))
}
