package common

// TileStatus tells whether a tile request produced image data
type TileStatus int

const (
	TileReady TileStatus = iota
	TileFailed
)

func (s TileStatus) String() string {
	if s == TileReady {
		return "ready"
	}
	return "failed"
}

// TileKey identifies one tile of one layer at one image scale
type TileKey struct {
	LayerID    string  `json:"layerId"`
	ImageScale float64 `json:"imageScale"`
	X          int     `json:"x"`
	Y          int     `json:"y"`
}

func (k TileKey) GetX() int { return k.X }
func (k TileKey) GetY() int { return k.Y }

// TileLoadResult is the outcome of a single tile request: Ready with the
// tile's URL/data, or Failed. Failures are never fatal to the caller; a
// placeholder is rendered instead.
type TileLoadResult struct {
	Key    TileKey
	Status TileStatus

	// URL the tile was fetched from
	URL string

	// Data contains the raw image bytes (not decoded here)
	Data []byte

	// Error holds the failure cause when Status == TileFailed
	Error error
}

// Ready builds a successful result
func Ready(key TileKey, url string, data []byte) TileLoadResult {
	return TileLoadResult{Key: key, Status: TileReady, URL: url, Data: data}
}

// Failed builds a failed result
func Failed(key TileKey, err error) TileLoadResult {
	return TileLoadResult{Key: key, Status: TileFailed, Error: err}
}

// OK reports whether the tile loaded
func (r TileLoadResult) OK() bool {
	return r.Status == TileReady
}
