package tiles

import (
	"context"
	"log"
	"math"
	"sync"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/Helioviewer-Project/helioviewer.org-sub000/internal/common"
)

// Batch is a counted-completion future over one reload's tile requests.
// Failed tiles count as complete, so a batch always finishes.
type Batch struct {
	ID    string
	Total int

	mu      sync.Mutex
	loaded  int
	results []common.TileLoadResult
	done    chan struct{}
	onDone  func()
}

func newBatch(total int, onDone func()) *Batch {
	b := &Batch{
		ID:     uuid.NewString(),
		Total:  total,
		done:   make(chan struct{}),
		onDone: onDone,
	}
	if total == 0 {
		b.finish()
	}
	return b
}

// complete records one finished tile
func (b *Batch) complete(result common.TileLoadResult) {
	b.mu.Lock()
	b.loaded++
	b.results = append(b.results, result)
	last := b.loaded == b.Total
	b.mu.Unlock()

	if last {
		b.finish()
	}
}

func (b *Batch) finish() {
	if b.onDone != nil {
		b.onDone()
	}
	close(b.done)
}

// Done is closed once every tile in the batch has completed
func (b *Batch) Done() <-chan struct{} {
	return b.done
}

// Wait blocks until the batch completes or ctx is done
func (b *Batch) Wait(ctx context.Context) error {
	select {
	case <-b.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Loaded returns how many tiles have completed
func (b *Batch) Loaded() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.loaded
}

// Results returns the completed results so far
func (b *Batch) Results() []common.TileLoadResult {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]common.TileLoadResult, len(b.results))
	copy(out, b.results)
	return out
}

// tileState tracks a tile from request to render
type tileState int

const (
	tileRequested tileState = iota
	tileReady
	// tileWaiting is a placeholder shown before the layer had dimensions
	tileWaiting
	tileFailed
)

// TileLoader maintains the rendered tile set of one layer
type TileLoader struct {
	mu       sync.Mutex
	layerID  string
	tileSize int
	source   TileSource
	renderer TileRenderer

	// width and height of the layer at the current image scale
	width, height float64
	imageScale    float64
	ready         bool

	visibility    common.TileRange
	hasVisibility bool

	// loaded holds every tile requested or rendered; wanted is the set
	// computed by the latest reload
	loaded map[common.TileKey]tileState
	wanted map[common.TileKey]bool

	devMode bool
}

// NewTileLoader creates a loader for one layer
func NewTileLoader(layerID string, tileSize int, source TileSource, renderer TileRenderer) *TileLoader {
	return &TileLoader{
		layerID:  layerID,
		tileSize: max(1, tileSize),
		source:   source,
		renderer: renderer,
		loaded:   make(map[common.TileKey]tileState),
		wanted:   make(map[common.TileKey]bool),
	}
}

// SetDimensions sets the layer size in pixels at imageScale. A zero size
// marks the layer as not yet loaded.
func (l *TileLoader) SetDimensions(width, height, imageScale float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.width = max(0, width)
	l.height = max(0, height)
	l.imageScale = imageScale
	l.ready = l.width > 0 && l.height > 0
}

// SetVisibilityRange sets the tile range overlapping the viewport
func (l *TileLoader) SetVisibilityRange(r common.TileRange) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.visibility = r
	l.hasVisibility = true
}

// GetValidTileRange returns the range of tiles covering the layer. Each
// axis has an even tile count of at least two, split symmetrically about
// zero so that tile (0,0) starts on the solar center.
func (l *TileLoader) GetValidTileRange() common.TileRange {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.validTileRange()
}

func (l *TileLoader) validTileRange() common.TileRange {
	nx := evenTileCount(l.width, l.tileSize)
	ny := evenTileCount(l.height, l.tileSize)
	return common.TileRange{
		XStart: -nx / 2,
		XEnd:   nx/2 - 1,
		YStart: -ny / 2,
		YEnd:   ny/2 - 1,
	}
}

func evenTileCount(size float64, tileSize int) int {
	return evenSpan(int(math.Ceil(size / float64(tileSize))))
}

// ComputeValidTiles returns the valid tiles as a sparse index keyed by x
// then y. Rows are allocated only for columns that contain tiles.
func (l *TileLoader) ComputeValidTiles() map[int]map[int]bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.computeValidTiles()
}

func (l *TileLoader) computeValidTiles() map[int]map[int]bool {
	r := l.validTileRange()
	if l.hasVisibility {
		r = r.Intersect(l.visibility)
	}

	valid := make(map[int]map[int]bool)
	for x := r.XStart; x <= r.XEnd; x++ {
		for y := r.YStart; y <= r.YEnd; y++ {
			if valid[x] == nil {
				valid[x] = make(map[int]bool)
			}
			valid[x][y] = true
		}
	}
	return valid
}

// ReloadTiles requests the tiles that became visible and drops those that
// no longer are. With removeOldTilesFirst (used on zoom) stale tiles are
// removed before the new ones are requested; otherwise they stay until
// every new tile of the batch has completed, so panning never flickers.
// Placeholders shown while the layer had no dimensions are requested once
// it has them.
func (l *TileLoader) ReloadTiles(ctx context.Context, removeOldTilesFirst bool) *Batch {
	l.mu.Lock()

	wanted := make(map[common.TileKey]bool)
	for x, col := range l.computeValidTiles() {
		for y := range col {
			wanted[common.TileKey{LayerID: l.layerID, ImageScale: l.imageScale, X: x, Y: y}] = true
		}
	}

	ready := l.ready
	stale := lo.Filter(lo.Keys(l.loaded), func(k common.TileKey, _ int) bool { return !wanted[k] })
	added := lo.Filter(lo.Keys(wanted), func(k common.TileKey, _ int) bool {
		state, ok := l.loaded[k]
		return !ok || (ready && state == tileWaiting)
	})

	l.wanted = wanted
	if removeOldTilesFirst {
		l.removeTiles(stale)
	}
	for _, k := range added {
		l.loaded[k] = tileRequested
	}
	l.mu.Unlock()

	var onDone func()
	if !removeOldTilesFirst && len(stale) > 0 {
		onDone = func() {
			l.mu.Lock()
			defer l.mu.Unlock()
			// A later reload may want some of these back
			l.removeTiles(lo.Filter(stale, func(k common.TileKey, _ int) bool { return !l.wanted[k] }))
		}
	}
	batch := newBatch(len(added), onDone)

	if l.devMode {
		log.Printf("[TileLoader] %s: +%d -%d tiles (batch %s)", l.layerID, len(added), len(stale), batch.ID)
	}

	for _, k := range added {
		if !ready {
			// Layer has no dimensions yet; show placeholders only
			l.tileLoaded(batch, common.Failed(k, nil), tileWaiting)
			continue
		}
		l.source.RequestTile(ctx, k, func(result common.TileLoadResult) {
			state := tileReady
			if !result.OK() {
				state = tileFailed
			}
			l.tileLoaded(batch, result, state)
		})
	}

	return batch
}

// tileLoaded renders a completed tile, or a placeholder for a failed one,
// and advances the batch
func (l *TileLoader) tileLoaded(batch *Batch, result common.TileLoadResult, state tileState) {
	l.mu.Lock()
	_, current := l.loaded[result.Key]
	if current {
		l.loaded[result.Key] = state
	}
	l.mu.Unlock()

	if current && l.renderer != nil {
		tile := Tile{Key: result.Key, Size: l.tileSize}
		if result.OK() {
			tile.URL = result.URL
			tile.Data = result.Data
		} else {
			tile.URL = PlaceholderTileURL
			tile.Placeholder = true
		}
		l.renderer.AddTile(tile)
	}

	batch.complete(result)
}

// removeTiles drops tiles from the loaded set and the renderer; l.mu is held
func (l *TileLoader) removeTiles(keys []common.TileKey) {
	for _, k := range keys {
		if _, ok := l.loaded[k]; !ok {
			continue
		}
		delete(l.loaded, k)
		if l.renderer != nil {
			l.renderer.RemoveTile(k)
		}
	}
}

// RetryFailed marks tiles that failed to load so the next reload requests
// them again. Their placeholders stay on screen until then. It returns the
// number of tiles marked.
func (l *TileLoader) RetryFailed() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	n := 0
	for k, state := range l.loaded {
		if state == tileFailed {
			l.loaded[k] = tileWaiting
			n++
		}
	}
	return n
}

// Clear removes every tile
func (l *TileLoader) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.removeTiles(lo.Keys(l.loaded))
}

// LoadedTiles returns the keys of all requested or rendered tiles
func (l *TileLoader) LoadedTiles() []common.TileKey {
	l.mu.Lock()
	defer l.mu.Unlock()
	return lo.Keys(l.loaded)
}

// LoadedRange returns the bounding range of the loaded tiles
func (l *TileLoader) LoadedRange() (common.TileRange, error) {
	keys := l.LoadedTiles()
	tiles := make([]common.Tile, len(keys))
	for i, k := range keys {
		tiles[i] = k
	}
	return common.CalculateTileRange(tiles)
}
