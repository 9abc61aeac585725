package viewport

import (
	"fmt"
	"math"
	"sort"

	"github.com/samber/lo"
)

// ZoomLevelTable is the ordered set of discrete image scales (arcsec/px).
// Levels are stored coarse to fine, so increasing the index zooms in.
// The table is immutable after construction.
type ZoomLevelTable struct {
	scales []float64
}

// NewZoomLevelTable builds a table from scales given in any order.
// Duplicates are dropped.
func NewZoomLevelTable(scales []float64) (*ZoomLevelTable, error) {
	if len(scales) == 0 {
		return nil, fmt.Errorf("zoom level table is empty")
	}
	for _, s := range scales {
		if s <= 0 || math.IsNaN(s) || math.IsInf(s, 0) {
			return nil, fmt.Errorf("invalid image scale %v in zoom level table", s)
		}
	}

	sorted := lo.Uniq(scales)
	sort.Sort(sort.Reverse(sort.Float64Slice(sorted)))

	return &ZoomLevelTable{scales: sorted}, nil
}

// Len returns the number of levels
func (t *ZoomLevelTable) Len() int {
	return len(t.scales)
}

// At returns the image scale at index i, clamped to the table bounds
func (t *ZoomLevelTable) At(i int) float64 {
	return t.scales[lo.Clamp(i, 0, len(t.scales)-1)]
}

// Min returns the finest image scale
func (t *ZoomLevelTable) Min() float64 {
	return t.scales[len(t.scales)-1]
}

// Max returns the coarsest image scale
func (t *ZoomLevelTable) Max() float64 {
	return t.scales[0]
}

// IndexOf returns the index of the level nearest to scale. Distance is
// measured in log space so that snapping is symmetric between levels a
// factor of two apart.
func (t *ZoomLevelTable) IndexOf(scale float64) int {
	if scale <= 0 {
		return 0
	}
	best, bestDist := 0, math.Inf(1)
	for i, s := range t.scales {
		d := math.Abs(math.Log(s) - math.Log(scale))
		if d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

// Snap returns the member of the table nearest to scale
func (t *ZoomLevelTable) Snap(scale float64) float64 {
	return t.scales[t.IndexOf(scale)]
}

// Factor returns how much larger the image renders at level to than at
// level from (2 for one step in on a power-of-two table).
func (t *ZoomLevelTable) Factor(from, to int) float64 {
	return t.At(from) / t.At(to)
}

// Scales returns a copy of the levels, coarse to fine
func (t *ZoomLevelTable) Scales() []float64 {
	out := make([]float64, len(t.scales))
	copy(out, t.scales)
	return out
}
