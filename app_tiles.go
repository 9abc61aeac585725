package main

import (
	"context"
	"fmt"
	"time"

	"github.com/Helioviewer-Project/helioviewer.org-sub000/internal/common"
	"github.com/Helioviewer-Project/helioviewer.org-sub000/internal/tiles"
)

// ===================
// Layers
// ===================

// LayerInfo describes a layer for the frontend layer list
type LayerInfo struct {
	ID       string               `json:"id"`
	Name     string               `json:"name"`
	Visible  bool                 `json:"visible"`
	Geometry common.LayerGeometry `json:"geometry"`
}

// AddLayer puts an image layer on top of the stack. geometry may be zero
// until the image metadata arrives; the layer then shows placeholders.
func (a *App) AddLayer(id, name string, geometry common.LayerGeometry) error {
	if _, err := a.layers.AddLayer(id, name, geometry); err != nil {
		return err
	}
	a.viewport.LayersChanged()
	a.TrackEvent("layer_added", map[string]interface{}{"layer": name})
	return nil
}

// RemoveLayer removes a layer and its tiles
func (a *App) RemoveLayer(id string) error {
	if err := a.layers.RemoveLayer(id); err != nil {
		return err
	}
	a.viewport.LayersChanged()
	return nil
}

// SetLayerGeometry applies new image metadata to a layer
func (a *App) SetLayerGeometry(id string, geometry common.LayerGeometry) error {
	if err := a.layers.SetLayerGeometry(id, geometry); err != nil {
		return err
	}
	a.viewport.LayersChanged()
	return nil
}

// SetLayerVisible shows or hides a layer
func (a *App) SetLayerVisible(id string, visible bool) error {
	return a.layers.SetLayerVisible(id, visible)
}

// GetLayers returns the layer stack, bottom to top
func (a *App) GetLayers() []LayerInfo {
	layers := a.layers.Layers()
	out := make([]LayerInfo, 0, len(layers))
	for _, l := range layers {
		out = append(out, LayerInfo{
			ID:       l.ID,
			Name:     l.Name,
			Visible:  l.Visible(),
			Geometry: l.Geometry(),
		})
	}
	return out
}

// GetLoadedTileRange returns the bounds of a layer's loaded tiles, for the
// debug overlay
func (a *App) GetLoadedTileRange(id string) (common.TileRange, error) {
	layer, ok := a.layers.Layer(id)
	if !ok {
		return common.TileRange{}, fmt.Errorf("layer '%s' not found", id)
	}
	return layer.Loader().LoadedRange()
}

// GetTileServerURL returns the local tile server base URL
func (a *App) GetTileServerURL() string {
	if a.tileServer == nil {
		return ""
	}
	return a.tileServer.URL()
}

// ===================
// Tile rendering
// ===================

// AddTile implements tiles.TileRenderer
func (a *App) AddTile(tile tiles.Tile) {
	a.emit("tile-added", a.localTile(tile))
}

// localTile points a tile at the local tile server, which answers loaded
// tiles from the cache and placeholders with a transparent image. Without
// a running server the tile keeps its own URL.
func (a *App) localTile(tile tiles.Tile) tiles.Tile {
	if a.tileServer == nil {
		return tile
	}
	if tile.Placeholder {
		if base := a.tileServer.URL(); base != "" {
			tile.URL = base + "/placeholder"
		}
		return tile
	}
	if local := a.tileServer.TileURL(tile.Key); local != "" {
		tile.URL = local
	}
	return tile
}

// RemoveTile implements tiles.TileRenderer
func (a *App) RemoveTile(key common.TileKey) {
	a.emit("tile-removed", key)
}

func (a *App) stopTileServer() {
	if a.tileServer == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = a.tileServer.Stop(ctx)
}
