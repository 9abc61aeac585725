package coords

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Helioviewer-Project/helioviewer.org-sub000/internal/common"
	"github.com/Helioviewer-Project/helioviewer.org-sub000/internal/config"
)

type fixedScale struct {
	imageScale, continuous float64
	originX, originY       float64
}

func (f fixedScale) ImageScale() float64              { return f.imageScale }
func (f fixedScale) ContinuousScale() float64         { return f.continuous }
func (f fixedScale) ScreenOrigin() (float64, float64) { return f.originX, f.originY }

type singleLayer struct {
	geometry common.LayerGeometry
	lastX    float64
	lastY    float64
}

func (l *singleLayer) TopLayerAt(x, y float64) (common.LayerGeometry, bool) {
	l.lastX, l.lastY = x, y
	return l.geometry, true
}

func TestCorrectRotation_ZeroIsIdentity(t *testing.T) {
	g := common.IdentityGeometry()
	for _, p := range [][2]float64{{0, 0}, {12.5, -3}, {-900, 400}} {
		x, y := CorrectRotation(g, p[0], p[1])
		assert.Equal(t, p[0], x)
		assert.Equal(t, p[1], y)
	}
}

func TestCorrectRotation_QuarterTurn(t *testing.T) {
	g := common.LayerGeometry{RotationDegrees: 90}

	// Screen (10, 0) is image (10, 0); rotated 90° it becomes image (0, 10),
	// which is screen (0, -10)
	x, y := CorrectRotation(g, 10, 0)
	assert.InDelta(t, 0, x, 1e-9)
	assert.InDelta(t, -10, y, 1e-9)

	// Rotation preserves length
	x, y = CorrectRotation(common.LayerGeometry{RotationDegrees: 33}, 30, 40)
	assert.InDelta(t, 50, math.Hypot(x, y), 1e-9)
}

func TestCorrectScale(t *testing.T) {
	x, y := CorrectScale(common.LayerGeometry{ScaleCorrection: 1.02}, 100, -50)
	assert.InDelta(t, 102, x, 1e-9)
	assert.InDelta(t, -51, y, 1e-9)

	// An unset correction is identity
	x, y = CorrectScale(common.LayerGeometry{}, 100, -50)
	assert.Equal(t, 100.0, x)
	assert.Equal(t, -50.0, y)
}

func TestPolarRoundTrip(t *testing.T) {
	points := []Cartesian{
		{100, 0}, {0, 100}, {-100, 0}, {0, -100},
		{300, 400}, {-300, 400}, {-300, -400}, {300, -400},
		{959.705, 0.001},
	}

	for _, c := range points {
		p := CartesianToPolar(c, SolarRadiusArcsec)
		assert.GreaterOrEqual(t, p.Theta, 0.0)
		assert.Less(t, p.Theta, 360.0)

		back := PolarToCartesian(p, SolarRadiusArcsec)
		assert.InDelta(t, c.X, back.X, 1e-9)
		assert.InDelta(t, c.Y, back.Y, 1e-9)
	}
}

func TestCartesianToPolar_Quadrants(t *testing.T) {
	tests := []struct {
		c     Cartesian
		theta float64
	}{
		{Cartesian{1, 0}, 0},
		{Cartesian{1, 1}, 45},
		{Cartesian{0, 1}, 90},
		{Cartesian{-1, 1}, 135},
		{Cartesian{-1, 0}, 180},
		{Cartesian{-1, -1}, 225},
		{Cartesian{0, -1}, 270},
		{Cartesian{1, -1}, 315},
		{Cartesian{0, 0}, 0},
	}

	for _, tt := range tests {
		p := CartesianToPolar(tt.c, 1)
		assert.InDelta(t, tt.theta, p.Theta, 1e-9, "theta for %+v", tt.c)
	}

	assert.InDelta(t, 1.0, CartesianToPolar(Cartesian{SolarRadiusArcsec, 0}, SolarRadiusArcsec).R, 1e-12)
}

func TestMouseCoordinates_ComputeMouseCoords(t *testing.T) {
	scale := fixedScale{imageScale: 2.4, continuous: 1.2, originX: 400, originY: 300}
	layer := &singleLayer{geometry: common.LayerGeometry{ScaleCorrection: 1}}
	m := NewMouseCoordinates(scale, layer, config.CoordinateModeCartesian)

	c := m.ComputeMouseCoords(460, 240)

	// 60 px right and 60 px up at 2 arcsec per screen pixel
	assert.InDelta(t, 120, c.X, 1e-9)
	assert.InDelta(t, 120, c.Y, 1e-9)
	assert.InDelta(t, 120, layer.lastX, 1e-9)
	assert.InDelta(t, -120, layer.lastY, 1e-9)
}

func TestMouseCoordinates_NoLayerUsesIdentity(t *testing.T) {
	scale := fixedScale{imageScale: 1, continuous: 1}
	m := NewMouseCoordinates(scale, nil, "")

	assert.Equal(t, config.CoordinateModeCartesian, m.Mode())
	assert.Equal(t, Cartesian{X: 10, Y: -20}, m.ComputeMouseCoords(10, 20))
}

func TestMouseCoordinates_Modes(t *testing.T) {
	scale := fixedScale{imageScale: 1, continuous: 1}
	m := NewMouseCoordinates(scale, nil, config.CoordinateModeCartesian)

	assert.Equal(t, "x: 959.7″  y: 10.0″", m.Readout(959.705, -10))

	require.NoError(t, m.SetMode(config.CoordinateModePolar))
	assert.Equal(t, config.CoordinateModePolar, m.Mode())
	assert.Equal(t, "r: 1.000 R☉  θ: 90.0°", m.Readout(0, -959.705))

	p := m.ComputePolarCoords(0, -959.705)
	assert.InDelta(t, 1, p.R, 1e-9)
	assert.InDelta(t, 90, p.Theta, 1e-9)

	assert.Error(t, m.SetMode("spherical"))
	assert.Equal(t, config.CoordinateModePolar, m.Mode())
}
