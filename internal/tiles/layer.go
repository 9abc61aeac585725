package tiles

import (
	"math"
	"sync"

	"github.com/Helioviewer-Project/helioviewer.org-sub000/internal/common"
)

// TileLayer is one image layer: upstream geometry plus the loader that
// keeps its tiles on screen
type TileLayer struct {
	ID   string
	Name string

	mu       sync.RWMutex
	geometry common.LayerGeometry
	visible  bool
	loader   *TileLoader
}

// NewTileLayer creates a visible layer
func NewTileLayer(id, name string, geometry common.LayerGeometry, loader *TileLoader) *TileLayer {
	return &TileLayer{
		ID:       id,
		Name:     name,
		geometry: geometry,
		visible:  true,
		loader:   loader,
	}
}

// Geometry returns the layer's current metadata
func (l *TileLayer) Geometry() common.LayerGeometry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.geometry
}

// SetGeometry replaces the layer's metadata, typically after a data
// source or time change
func (l *TileLayer) SetGeometry(g common.LayerGeometry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.geometry = g
}

// Visible reports whether the layer is shown
func (l *TileLayer) Visible() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.visible
}

// SetVisible shows or hides the layer
func (l *TileLayer) SetVisible(visible bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.visible = visible
}

// Loader returns the layer's tile loader
func (l *TileLayer) Loader() *TileLoader {
	return l.loader
}

// ProjectedSize returns the image size in pixels at imageScale
func (l *TileLayer) ProjectedSize(imageScale float64) (width, height float64) {
	g := l.Geometry()
	if !g.Loaded() || imageScale <= 0 {
		return 0, 0
	}
	ratio := g.Scale / imageScale
	return g.Width * ratio, g.Height * ratio
}

// Extent returns the footprint in pixels at imageScale of a box centered
// on the solar center that contains the whole image
func (l *TileLayer) Extent(imageScale float64) (width, height float64) {
	g := l.Geometry()
	if !g.Loaded() || imageScale <= 0 {
		return 0, 0
	}
	ratio := g.Scale / imageScale
	width = 2 * (math.Abs(g.OffsetX) + g.Width/2) * ratio
	height = 2 * (math.Abs(g.OffsetY) + g.Height/2) * ratio
	return width, height
}

// Contains reports whether the image covers the point (x, y), given in
// arcseconds from the solar center with y increasing downward. OffsetX and
// OffsetY locate the solar center relative to the image center.
func (l *TileLayer) Contains(x, y float64) bool {
	g := l.Geometry()
	if !g.Loaded() {
		return false
	}
	cx := -g.OffsetX * g.Scale
	cy := -g.OffsetY * g.Scale
	halfW := g.Width * g.Scale / 2
	halfH := g.Height * g.Scale / 2
	return math.Abs(x-cx) <= halfW && math.Abs(y-cy) <= halfH
}
