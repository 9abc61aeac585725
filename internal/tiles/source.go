// Package tiles computes which tiles of each image layer are needed for
// the visible region and drives their loading and removal.
package tiles

import (
	"context"
	"math"

	"github.com/Helioviewer-Project/helioviewer.org-sub000/internal/common"
)

// PlaceholderTileURL is rendered in place of a tile that failed to load:
// a 1x1 transparent GIF, stretched to the tile size
const PlaceholderTileURL = "data:image/gif;base64,R0lGODlhAQABAIAAAAAAAP///yH5BAEAAAAALAAAAAABAAEAAAIBRAA7"

// TileSource fetches tiles. RequestTile must call onComplete exactly once,
// possibly from another goroutine.
type TileSource interface {
	RequestTile(ctx context.Context, key common.TileKey, onComplete func(common.TileLoadResult))
}

// Tile is a tile ready to be shown
type Tile struct {
	Key         common.TileKey `json:"key"`
	URL         string         `json:"url"`
	Size        int            `json:"size"`
	Placeholder bool           `json:"placeholder"`
	Data        []byte         `json:"-"`
}

// TileRenderer is the presentation side of a layer
type TileRenderer interface {
	AddTile(tile Tile)
	RemoveTile(key common.TileKey)
}

// VisibilityRange returns the tile indices overlapping the viewport. Each
// axis is widened at its end to an even count of at least two tiles.
func VisibilityRange(coords common.ViewportCoords, tileSize int) common.TileRange {
	ts := float64(max(1, tileSize))
	r := common.TileRange{
		XStart: int(math.Floor(coords.Left / ts)),
		XEnd:   int(math.Floor(coords.Right / ts)),
		YStart: int(math.Floor(coords.Top / ts)),
		YEnd:   int(math.Floor(coords.Bottom / ts)),
	}
	r.XEnd = r.XStart + evenSpan(r.Cols()) - 1
	r.YEnd = r.YStart + evenSpan(r.Rows()) - 1
	return r
}

func evenSpan(n int) int {
	n = max(2, n)
	if n%2 != 0 {
		n++
	}
	return n
}
