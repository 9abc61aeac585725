package common

import "fmt"

// TileRange represents the inclusive x/y tile index bounds of a tile set.
// Tile (0,0) has its top-left corner on the solar center, so ranges are
// usually symmetric about zero.
type TileRange struct {
	XStart int `json:"xStart"`
	XEnd   int `json:"xEnd"`
	YStart int `json:"yStart"`
	YEnd   int `json:"yEnd"`
}

// Cols returns the number of columns in the range
func (r TileRange) Cols() int {
	if r.XEnd < r.XStart {
		return 0
	}
	return r.XEnd - r.XStart + 1
}

// Rows returns the number of rows in the range
func (r TileRange) Rows() int {
	if r.YEnd < r.YStart {
		return 0
	}
	return r.YEnd - r.YStart + 1
}

// Contains reports whether tile (x, y) lies inside the range
func (r TileRange) Contains(x, y int) bool {
	return x >= r.XStart && x <= r.XEnd && y >= r.YStart && y <= r.YEnd
}

// Intersect returns the overlap of two ranges. The result may be empty
// (Cols or Rows == 0).
func (r TileRange) Intersect(o TileRange) TileRange {
	return TileRange{
		XStart: max(r.XStart, o.XStart),
		XEnd:   min(r.XEnd, o.XEnd),
		YStart: max(r.YStart, o.YStart),
		YEnd:   min(r.YEnd, o.YEnd),
	}
}

func (r TileRange) String() string {
	return fmt.Sprintf("x[%d..%d] y[%d..%d]", r.XStart, r.XEnd, r.YStart, r.YEnd)
}

// Tile represents the minimal interface needed for bounds calculation
type Tile interface {
	GetX() int
	GetY() int
}

// CalculateTileRange calculates the bounding range of a set of tiles
func CalculateTileRange(tiles []Tile) (TileRange, error) {
	if len(tiles) == 0 {
		return TileRange{}, fmt.Errorf("no tiles provided")
	}

	r := TileRange{
		XStart: tiles[0].GetX(),
		XEnd:   tiles[0].GetX(),
		YStart: tiles[0].GetY(),
		YEnd:   tiles[0].GetY(),
	}

	for _, tile := range tiles[1:] {
		r.XStart = min(r.XStart, tile.GetX())
		r.XEnd = max(r.XEnd, tile.GetX())
		r.YStart = min(r.YStart, tile.GetY())
		r.YEnd = max(r.YEnd, tile.GetY())
	}

	return r, nil
}

// ViewportCoords are the viewport edges in pixels relative to the solar
// center, at the current image scale
type ViewportCoords struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
}

// Width returns the horizontal extent
func (c ViewportCoords) Width() float64 { return c.Right - c.Left }

// Height returns the vertical extent
func (c ViewportCoords) Height() float64 { return c.Bottom - c.Top }

// RegionOfInterest is a viewport rectangle in arcseconds relative to the
// solar center
type RegionOfInterest struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
}

// ToArcseconds converts pixel coordinates using imageScale (arcsec/px)
func (c ViewportCoords) ToArcseconds(imageScale float64) RegionOfInterest {
	return RegionOfInterest{
		Left:   c.Left * imageScale,
		Top:    c.Top * imageScale,
		Right:  c.Right * imageScale,
		Bottom: c.Bottom * imageScale,
	}
}

// LayerGeometry is the per-layer metadata supplied by upstream image
// headers. Width, Height and Offset are in native image pixels, Scale in
// arcsec/px. ScaleCorrection and RotationDegrees correct mouse
// coordinates for the observer distance and image roll.
type LayerGeometry struct {
	Width           float64 `json:"width"`
	Height          float64 `json:"height"`
	Scale           float64 `json:"scale"`
	OffsetX         float64 `json:"offsetX"`
	OffsetY         float64 `json:"offsetY"`
	ScaleCorrection float64 `json:"scaleCorrection"`
	RotationDegrees float64 `json:"rotationDegrees"`
}

// IdentityGeometry is used when no layer is under the cursor
func IdentityGeometry() LayerGeometry {
	return LayerGeometry{ScaleCorrection: 1}
}

// Loaded reports whether the layer has received usable dimensions
func (g LayerGeometry) Loaded() bool {
	return g.Width > 0 && g.Height > 0 && g.Scale > 0
}
