package viewport

import (
	"math"

	"github.com/samber/lo"
	"gonum.org/v1/gonum/spatial/r2"
)

// Point is a {left, top} pair in pixels
type Point struct {
	Left float64 `json:"left"`
	Top  float64 `json:"top"`
}

func (p Point) Add(o Point) Point { return Point{p.Left + o.Left, p.Top + o.Top} }
func (p Point) Sub(o Point) Point { return Point{p.Left - o.Left, p.Top - o.Top} }
func (p Point) Scale(f float64) Point {
	return Point{p.Left * f, p.Top * f}
}

func (p Point) vec() r2.Vec { return r2.Vec{X: p.Left, Y: p.Top} }

func pointFromVec(v r2.Vec) Point { return Point{Left: v.X, Top: v.Y} }

// Size is a {width, height} pair in pixels
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Sub returns s - o with each dimension floored at zero
func (s Size) Sub(o Size) Size {
	return Size{math.Max(0, s.Width-o.Width), math.Max(0, s.Height-o.Height)}
}

func (s Size) Scale(f float64) Size {
	return Size{s.Width * f, s.Height * f}
}

// Sandbox is the rectangle, in viewport coordinates, within which the
// moving container may be translated.
type Sandbox struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Offset returns the sandbox's top-left corner
func (s Sandbox) Offset() Point {
	return Point{s.Left, s.Top}
}

// Center returns the sandbox's geometric center relative to its own origin
func (s Sandbox) Center() Point {
	return Point{s.Width / 2, s.Height / 2}
}

// HasArea reports whether the container can move at all
func (s Sandbox) HasArea() bool {
	return s.Width > 0 || s.Height > 0
}

// Clamp limits p to [0, width] x [0, height]
func (s Sandbox) Clamp(p Point) Point {
	return Point{
		Left: lo.Clamp(p.Left, 0, s.Width),
		Top:  lo.Clamp(p.Top, 0, s.Height),
	}
}

// evenCeil rounds v up to the next even integer
func evenCeil(v float64) float64 {
	n := math.Ceil(v)
	if math.Mod(n, 2) != 0 {
		n++
	}
	return n
}
