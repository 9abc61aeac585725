package tiles

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/samber/lo"

	"github.com/Helioviewer-Project/helioviewer.org-sub000/internal/common"
)

// TileLayerManager owns the layer stack (bottom to top) and keeps every
// layer's tiles in step with the viewport
type TileLayerManager struct {
	mu       sync.RWMutex
	ctx      context.Context
	layers   []*TileLayer
	source   TileSource
	renderer TileRenderer
	tileSize int

	imageScale float64
	coords     common.ViewportCoords
	hasCoords  bool

	// scaleChanged makes the next reload drop stale-resolution tiles first
	scaleChanged bool
	devMode      bool
}

// NewTileLayerManager creates an empty layer stack
func NewTileLayerManager(ctx context.Context, source TileSource, renderer TileRenderer, tileSize int, devMode bool) *TileLayerManager {
	return &TileLayerManager{
		ctx:      ctx,
		source:   source,
		renderer: renderer,
		tileSize: tileSize,
		devMode:  devMode,
	}
}

// TileSize returns the tile edge length in pixels
func (m *TileLayerManager) TileSize() int {
	return m.tileSize
}

// AddLayer puts a new layer on top of the stack
func (m *TileLayerManager) AddLayer(id, name string, geometry common.LayerGeometry) (*TileLayer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.find(id); exists {
		return nil, fmt.Errorf("layer with id '%s' already exists", id)
	}

	loader := NewTileLoader(id, m.tileSize, m.source, m.renderer)
	loader.devMode = m.devMode
	layer := NewTileLayer(id, name, geometry, loader)
	m.layers = append(m.layers, layer)
	m.resize(layer)

	if m.hasCoords {
		m.reload(layer, true)
	}

	log.Printf("[Layers] Added layer %s (%s)", id, name)
	return layer, nil
}

// RemoveLayer removes a layer and its tiles
func (m *TileLayerManager) RemoveLayer(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	layer, exists := m.find(id)
	if !exists {
		return fmt.Errorf("layer '%s' not found", id)
	}
	layer.loader.Clear()
	m.layers = lo.Filter(m.layers, func(l *TileLayer, _ int) bool { return l.ID != id })

	log.Printf("[Layers] Removed layer %s", id)
	return nil
}

// SetLayerGeometry applies refreshed metadata to a layer and reloads it
func (m *TileLayerManager) SetLayerGeometry(id string, geometry common.LayerGeometry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	layer, exists := m.find(id)
	if !exists {
		return fmt.Errorf("layer '%s' not found", id)
	}
	layer.SetGeometry(geometry)
	m.resize(layer)
	if m.hasCoords {
		m.reload(layer, true)
	}
	return nil
}

// SetLayerVisible shows or hides a layer
func (m *TileLayerManager) SetLayerVisible(id string, visible bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	layer, exists := m.find(id)
	if !exists {
		return fmt.Errorf("layer '%s' not found", id)
	}
	layer.SetVisible(visible)
	if !visible {
		layer.loader.Clear()
	} else if m.hasCoords {
		m.reload(layer, false)
	}
	return nil
}

// Layers returns the stack, bottom to top
func (m *TileLayerManager) Layers() []*TileLayer {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*TileLayer, len(m.layers))
	copy(out, m.layers)
	return out
}

// Layer returns the layer with the given id
func (m *TileLayerManager) Layer(id string) (*TileLayer, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.find(id)
}

// MaxDimensions returns the largest layer footprint at imageScale
func (m *TileLayerManager) MaxDimensions(imageScale float64) (width, height float64) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, layer := range m.layers {
		w, h := layer.Extent(imageScale)
		width = max(width, w)
		height = max(height, h)
	}
	return width, height
}

// SetImageScale resizes every layer for a new discrete image scale. The
// next visibility update replaces tiles, removing old ones first.
func (m *TileLayerManager) SetImageScale(imageScale float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if imageScale == m.imageScale {
		return
	}
	m.imageScale = imageScale
	m.scaleChanged = true
	for _, layer := range m.layers {
		m.resize(layer)
	}
}

// UpdateTileVisibility reloads the tiles overlapping coords on every
// visible layer
func (m *TileLayerManager) UpdateTileVisibility(coords common.ViewportCoords) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.coords = coords
	m.hasCoords = true
	removeOldFirst := m.scaleChanged
	m.scaleChanged = false

	for _, layer := range m.layers {
		m.reload(layer, removeOldFirst)
	}
}

// RetryFailed marks failed tiles on every layer for the next visibility
// update, e.g. after a rate limit cooldown ends early
func (m *TileLayerManager) RetryFailed() {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := 0
	for _, layer := range m.layers {
		n += layer.loader.RetryFailed()
	}
	if n > 0 {
		log.Printf("[Layers] Retrying %d failed tiles", n)
	}
}

// TopLayerAt returns the geometry of the top-most visible layer covering
// the point (x, y) in arcseconds, y increasing downward
func (m *TileLayerManager) TopLayerAt(x, y float64) (common.LayerGeometry, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for i := len(m.layers) - 1; i >= 0; i-- {
		layer := m.layers[i]
		if layer.Visible() && layer.Contains(x, y) {
			return layer.Geometry(), true
		}
	}
	return common.IdentityGeometry(), false
}

func (m *TileLayerManager) find(id string) (*TileLayer, bool) {
	return lo.Find(m.layers, func(l *TileLayer) bool { return l.ID == id })
}

// resize pushes the layer's size at the current image scale to its loader
func (m *TileLayerManager) resize(layer *TileLayer) {
	w, h := layer.ProjectedSize(m.imageScale)
	layer.loader.SetDimensions(w, h, m.imageScale)
}

func (m *TileLayerManager) reload(layer *TileLayer, removeOldFirst bool) {
	if !layer.Visible() {
		return
	}
	layer.loader.SetVisibilityRange(VisibilityRange(m.coords, m.tileSize))
	layer.loader.ReloadTiles(m.ctx, removeOldFirst)
}
