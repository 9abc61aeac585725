// Package coords converts screen pixels into physical solar coordinates.
package coords

import (
	"fmt"
	"math"
	"sync"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/Helioviewer-Project/helioviewer.org-sub000/internal/common"
	"github.com/Helioviewer-Project/helioviewer.org-sub000/internal/config"
)

// SolarRadiusArcsec is the nominal solar radius seen from 1 AU
const SolarRadiusArcsec = 959.705

// ScaleSource reports the current zoom and where the solar center is on screen
type ScaleSource interface {
	ImageScale() float64
	ContinuousScale() float64
	ScreenOrigin() (x, y float64)
}

// LayerLocator finds the top-most layer under a point given in arcseconds
// from the solar center, y increasing downward
type LayerLocator interface {
	TopLayerAt(x, y float64) (common.LayerGeometry, bool)
}

// Cartesian is a helioprojective position in arcseconds, y toward solar north
type Cartesian struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Polar is a position as distance in solar radii and angle in degrees
// [0, 360) measured counter-clockwise from the +x axis
type Polar struct {
	R     float64 `json:"r"`
	Theta float64 `json:"theta"`
}

// MouseCoordinates converts screen positions to physical coordinates
type MouseCoordinates struct {
	scale  ScaleSource
	layers LayerLocator
	rsun   float64

	mu   sync.RWMutex
	mode string
}

// NewMouseCoordinates creates a converter. layers may be nil.
func NewMouseCoordinates(scale ScaleSource, layers LayerLocator, mode string) *MouseCoordinates {
	if mode != config.CoordinateModePolar {
		mode = config.CoordinateModeCartesian
	}
	return &MouseCoordinates{
		scale:  scale,
		layers: layers,
		mode:   mode,
		rsun:   SolarRadiusArcsec,
	}
}

// SetMode switches between cartesian and polar readouts
func (m *MouseCoordinates) SetMode(mode string) error {
	switch mode {
	case config.CoordinateModeCartesian, config.CoordinateModePolar:
		m.mu.Lock()
		m.mode = mode
		m.mu.Unlock()
		return nil
	default:
		return fmt.Errorf("invalid coordinate mode: %s", mode)
	}
}

// Mode returns the current display mode
func (m *MouseCoordinates) Mode() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.mode
}

// ComputeMouseCoords converts a screen point into arcseconds, corrected for
// the scale and rotation of the layer under the cursor
func (m *MouseCoordinates) ComputeMouseCoords(clientX, clientY float64) Cartesian {
	ox, oy := m.scale.ScreenOrigin()
	k := m.scale.ImageScale() / m.scale.ContinuousScale()
	x := (clientX - ox) * k
	y := (clientY - oy) * k

	geometry := common.IdentityGeometry()
	if m.layers != nil {
		if g, ok := m.layers.TopLayerAt(x, y); ok {
			geometry = g
		}
	}

	x, y = CorrectScale(geometry, x, y)
	x, y = CorrectRotation(geometry, x, y)
	// 0 - y keeps a cursor on the equator from reading as -0
	return Cartesian{X: x, Y: 0 - y}
}

// ComputePolarCoords is ComputeMouseCoords followed by a polar transform
func (m *MouseCoordinates) ComputePolarCoords(clientX, clientY float64) Polar {
	return CartesianToPolar(m.ComputeMouseCoords(clientX, clientY), m.rsun)
}

// Readout formats the coordinates of a screen point for the current mode
func (m *MouseCoordinates) Readout(clientX, clientY float64) string {
	return Format(m.Mode(), m.ComputeMouseCoords(clientX, clientY), m.rsun)
}

// Format renders c for display in the given mode
func Format(mode string, c Cartesian, rsun float64) string {
	if mode == config.CoordinateModePolar {
		p := CartesianToPolar(c, rsun)
		return fmt.Sprintf("r: %.3f R☉  θ: %.1f°", p.R, p.Theta)
	}
	return fmt.Sprintf("x: %.1f″  y: %.1f″", c.X, c.Y)
}

// CorrectScale compensates for the fixed sun-observer distance assumed by
// the image scale. A zero correction is treated as identity.
func CorrectScale(g common.LayerGeometry, x, y float64) (float64, float64) {
	if g.ScaleCorrection == 0 {
		return x, y
	}
	return x * g.ScaleCorrection, y * g.ScaleCorrection
}

// CorrectRotation undoes the layer's roll. Input and output use screen
// orientation (y down); the rotation is applied to (x, -y) because the
// image frame has y increasing upward.
func CorrectRotation(g common.LayerGeometry, x, y float64) (float64, float64) {
	if g.RotationDegrees == 0 {
		return x, y
	}
	v := r2.Rotate(r2.Vec{X: x, Y: -y}, g.RotationDegrees*math.Pi/180, r2.Vec{})
	return v.X, -v.Y
}

// CartesianToPolar converts arcseconds to solar radii and degrees
func CartesianToPolar(c Cartesian, rsun float64) Polar {
	r := r2.Norm(r2.Vec{X: c.X, Y: c.Y}) / rsun

	var theta float64
	switch {
	case c.X == 0 && c.Y == 0:
		theta = 0
	case c.X == 0:
		theta = 90
		if c.Y < 0 {
			theta = 270
		}
	default:
		theta = math.Atan(c.Y/c.X) * 180 / math.Pi
		if c.X < 0 {
			theta += 180
		} else if c.Y < 0 {
			theta += 360
		}
	}
	if theta >= 360 || theta == 0 {
		theta = 0
	}
	return Polar{R: r, Theta: theta}
}

// PolarToCartesian converts solar radii and degrees back to arcseconds
func PolarToCartesian(p Polar, rsun float64) Cartesian {
	rad := p.Theta * math.Pi / 180
	return Cartesian{
		X: p.R * rsun * math.Cos(rad),
		Y: p.R * rsun * math.Sin(rad),
	}
}
