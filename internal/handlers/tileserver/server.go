package tileserver

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/Helioviewer-Project/helioviewer.org-sub000/internal/cache"
	"github.com/Helioviewer-Project/helioviewer.org-sub000/internal/common"
)

// Fetcher loads a single tile synchronously
type Fetcher interface {
	Fetch(ctx context.Context, key common.TileKey) common.TileLoadResult
}

// Server serves loaded tiles to the webview from a local HTTP endpoint so
// tile bytes never travel through the event bridge.
// URL format: /tiles/{layerID}/{imageScale}/{x}/{y}
type Server struct {
	ctx       context.Context
	fetcher   Fetcher
	tileCache *cache.TileCache
	devMode   bool

	mu        sync.RWMutex
	serverURL string
	server    *http.Server
}

// NewServer creates a new tile server instance. Requests served after
// Start derive their context from ctx. tileCache may be nil.
func NewServer(ctx context.Context, fetcher Fetcher, tileCache *cache.TileCache, devMode bool) *Server {
	if ctx == nil {
		ctx = context.Background()
	}
	return &Server{
		ctx:       ctx,
		fetcher:   fetcher,
		tileCache: tileCache,
		devMode:   devMode,
	}
}

// URL returns the server base URL, empty until Start succeeds
func (s *Server) URL() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.serverURL
}

// TileURL returns the local URL for a tile, or "" if the server is not running
func (s *Server) TileURL(key common.TileKey) string {
	base := s.URL()
	if base == "" {
		return ""
	}
	return fmt.Sprintf("%s/tiles/%s/%s/%d/%d", base, key.LayerID,
		strconv.FormatFloat(key.ImageScale, 'f', -1, 64), key.X, key.Y)
}

// corsMiddleware adds CORS headers to allow requests from Wails frontend
// On macOS/Linux, Wails uses wails://wails origin which requires CORS headers
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Allow all origins (needed for wails://wails on macOS/Linux)
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept")

		// Handle preflight OPTIONS request
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// Handler returns the tile routes wrapped with CORS headers
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/tiles/", s.handleTile)
	mux.HandleFunc("/placeholder", func(w http.ResponseWriter, r *http.Request) {
		serveTransparentTile(w)
	})
	return corsMiddleware(mux)
}

// Start starts the local HTTP server on a random port
func (s *Server) Start() error {
	// Listen on a random available port
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return fmt.Errorf("failed to start tile server: %w", err)
	}

	port := listener.Addr().(*net.TCPAddr).Port
	server := &http.Server{
		Handler:     s.Handler(),
		BaseContext: func(net.Listener) context.Context { return s.ctx },
	}

	s.mu.Lock()
	s.serverURL = fmt.Sprintf("http://127.0.0.1:%d", port)
	s.server = server
	s.mu.Unlock()
	log.Printf("Tile server started on %s", s.URL())

	go func() {
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Printf("Tile server stopped: %v", err)
		}
	}()

	return nil
}

// Stop shuts the server down
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	server := s.server
	s.server = nil
	s.serverURL = ""
	s.mu.Unlock()

	if server == nil {
		return nil
	}
	return server.Shutdown(ctx)
}

// parseTilePath parses {layerID}/{imageScale}/{x}/{y}
func parseTilePath(path string) (common.TileKey, error) {
	parts := strings.Split(strings.TrimPrefix(path, "/tiles/"), "/")
	if len(parts) != 4 || parts[0] == "" {
		return common.TileKey{}, fmt.Errorf("expected /tiles/{layerID}/{imageScale}/{x}/{y}")
	}

	imageScale, err := strconv.ParseFloat(parts[1], 64)
	if err != nil || imageScale <= 0 {
		return common.TileKey{}, fmt.Errorf("invalid image scale %q", parts[1])
	}
	x, err := strconv.Atoi(parts[2])
	if err != nil {
		return common.TileKey{}, fmt.Errorf("invalid X coordinate %q", parts[2])
	}
	y, err := strconv.Atoi(parts[3])
	if err != nil {
		return common.TileKey{}, fmt.Errorf("invalid Y coordinate %q", parts[3])
	}

	return common.TileKey{LayerID: parts[0], ImageScale: imageScale, X: x, Y: y}, nil
}

func (s *Server) handleTile(w http.ResponseWriter, r *http.Request) {
	key, err := parseTilePath(r.URL.Path)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	// Check cache first
	if s.tileCache != nil {
		if result, found := s.tileCache.Get(key); found {
			if s.devMode {
				log.Printf("[TileServer] Cache hit: %s", r.URL.Path)
			}
			writeTile(w, result.Data, "HIT")
			return
		}
	}

	if s.fetcher == nil {
		serveTransparentTile(w)
		return
	}

	result := s.fetcher.Fetch(r.Context(), key)
	if !result.OK() {
		log.Printf("[TileServer] Failed to fetch tile %s: %v", r.URL.Path, result.Error)
		// Serve transparent tile on error
		serveTransparentTile(w)
		return
	}
	writeTile(w, result.Data, "MISS")
}

func writeTile(w http.ResponseWriter, data []byte, cacheStatus string) {
	w.Header().Set("Content-Type", http.DetectContentType(data))
	w.Header().Set("Cache-Control", "max-age=86400") // Cache for 24 hours
	w.Header().Set("X-Cache-Status", cacheStatus)
	w.Write(data)
}

// serveTransparentTile serves a transparent PNG for missing data
func serveTransparentTile(w http.ResponseWriter) {
	// Minimal 256x256 transparent PNG, stretched by the renderer to the tile size
	transparentPNG := []byte{
		0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d,
		0x49, 0x48, 0x44, 0x52, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01, 0x00,
		0x01, 0x03, 0x00, 0x00, 0x00, 0x66, 0xbc, 0x3a, 0x25, 0x00, 0x00, 0x00,
		0x03, 0x50, 0x4c, 0x54, 0x45, 0x00, 0x00, 0x00, 0xa7, 0x7a, 0x3d, 0xda,
		0x00, 0x00, 0x00, 0x01, 0x74, 0x52, 0x4e, 0x53, 0x00, 0x40, 0xe6, 0xd8,
		0x66, 0x00, 0x00, 0x00, 0x1f, 0x49, 0x44, 0x41, 0x54, 0x68, 0xde, 0xed,
		0xc1, 0x01, 0x0d, 0x00, 0x00, 0x00, 0xc2, 0xa0, 0xf7, 0x4f, 0x6d, 0x0e,
		0x37, 0xa0, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0xbe, 0x0d,
		0x21, 0x00, 0x00, 0x01, 0x9a, 0x60, 0xe1, 0xd5, 0x00, 0x00, 0x00, 0x00,
		0x49, 0x45, 0x4e, 0x44, 0xae, 0x42, 0x60, 0x82,
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "max-age=3600") // Cache for 1 hour
	w.Write(transparentPNG)
}
