package graphics

import (
	"image/color"
	"math"
	"sort"
)

// Colour is a non-premultiplied 8-bit RGBA colour.
type Colour struct {
	R, G, B, A uint8
}

// Common colours.
var (
	Black       = Colour{A: 255}
	White       = Colour{R: 255, G: 255, B: 255, A: 255}
	Transparent = Colour{}
)

// RGBA creates a colour from components in the range [0, 1].
func RGBA(r, g, b, a float64) Colour {
	return Colour{R: clampToByte(r), G: clampToByte(g), B: clampToByte(b), A: clampToByte(a)}
}

// FromColor converts any color.Color to a Colour.
func FromColor(c color.Color) Colour {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return Colour{R: n.R, G: n.G, B: n.B, A: n.A}
}

// RGBA implements color.Color with premultiplied 16-bit components.
func (c Colour) RGBA() (r, g, b, a uint32) {
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: c.A}.RGBA()
}

// Floats returns the non-premultiplied components scaled to [0, 1].
func (c Colour) Floats() (r, g, b, a float32) {
	return float32(c.R) / 255, float32(c.G) / 255, float32(c.B) / 255, float32(c.A) / 255
}

// WithMultipliedAlpha returns c with its alpha scaled by f.
func (c Colour) WithMultipliedAlpha(f float64) Colour {
	c.A = clampToByte(float64(c.A) / 255 * f)
	return c
}

// IsTransparent reports whether the colour has zero alpha.
func (c Colour) IsTransparent() bool { return c.A == 0 }

// IsOpaque reports whether the colour has full alpha.
func (c Colour) IsOpaque() bool { return c.A == 255 }

func clampToByte(v float64) uint8 {
	if math.IsNaN(v) || v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(math.Round(v * 255))
}

func lerpByte(a, b uint8, t float64) uint8 {
	return uint8(math.Round(float64(a) + t*(float64(b)-float64(a))))
}

// ColourStop is a colour at a normalised offset along a gradient.
type ColourStop struct {
	Offset float64
	Colour Colour
}

// Gradient is a linear or radial colour gradient. For a linear gradient the
// colour runs from Point1 to Point2. For a radial gradient Point1 is the
// centre and the distance to Point2 is the radius.
type Gradient struct {
	Point1, Point2 Point
	Radial         bool
	stops          []ColourStop
}

// NewLinearGradient creates a linear gradient between two colours.
func NewLinearGradient(c1 Colour, p1 Point, c2 Colour, p2 Point) *Gradient {
	g := &Gradient{Point1: p1, Point2: p2}
	g.AddStop(0, c1)
	g.AddStop(1, c2)
	return g
}

// NewRadialGradient creates a radial gradient from centre outwards.
func NewRadialGradient(c1 Colour, centre Point, c2 Colour, edge Point) *Gradient {
	g := NewLinearGradient(c1, centre, c2, edge)
	g.Radial = true
	return g
}

// AddStop inserts a colour stop, keeping stops sorted by offset.
// The offset is clamped to [0, 1].
func (g *Gradient) AddStop(offset float64, c Colour) {
	offset = math.Max(0, math.Min(1, offset))
	i := sort.Search(len(g.stops), func(i int) bool { return g.stops[i].Offset > offset })
	g.stops = append(g.stops, ColourStop{})
	copy(g.stops[i+1:], g.stops[i:])
	g.stops[i] = ColourStop{Offset: offset, Colour: c}
}

// Stops returns a copy of the colour stops.
func (g *Gradient) Stops() []ColourStop {
	return append([]ColourStop(nil), g.stops...)
}

// Clone returns an independent copy of the gradient.
func (g *Gradient) Clone() *Gradient {
	if g == nil {
		return nil
	}
	c := *g
	c.stops = g.Stops()
	return &c
}

// Radius returns the distance between the two gradient points.
func (g *Gradient) Radius() float64 {
	return math.Hypot(g.Point2.X-g.Point1.X, g.Point2.Y-g.Point1.Y)
}

// IsOpaque reports whether every stop is fully opaque.
func (g *Gradient) IsOpaque() bool {
	for _, s := range g.stops {
		if !s.Colour.IsOpaque() {
			return false
		}
	}
	return true
}

// ColourAt returns the interpolated colour at position t in [0, 1].
func (g *Gradient) ColourAt(t float64) Colour {
	switch len(g.stops) {
	case 0:
		return Black
	case 1:
		return g.stops[0].Colour
	}
	if t <= g.stops[0].Offset {
		return g.stops[0].Colour
	}
	last := g.stops[len(g.stops)-1]
	if t >= last.Offset {
		return last.Colour
	}
	for i := 0; i < len(g.stops)-1; i++ {
		before, after := g.stops[i], g.stops[i+1]
		if t < before.Offset || t > after.Offset {
			continue
		}
		if after.Offset == before.Offset {
			return before.Colour
		}
		ratio := (t - before.Offset) / (after.Offset - before.Offset)
		return Colour{
			R: lerpByte(before.Colour.R, after.Colour.R, ratio),
			G: lerpByte(before.Colour.G, after.Colour.G, ratio),
			B: lerpByte(before.Colour.B, after.Colour.B, ratio),
			A: lerpByte(before.Colour.A, after.Colour.A, ratio),
		}
	}
	return last.Colour
}

// ColourAtPoint returns the gradient colour at (x, y) in the gradient's own
// coordinate space.
func (g *Gradient) ColourAtPoint(x, y float64) Colour {
	if g.Radial {
		r := g.Radius()
		if r == 0 {
			return g.ColourAt(1)
		}
		return g.ColourAt(math.Hypot(x-g.Point1.X, y-g.Point1.Y) / r)
	}
	dx := g.Point2.X - g.Point1.X
	dy := g.Point2.Y - g.Point1.Y
	lengthSq := dx*dx + dy*dy
	if lengthSq == 0 {
		return g.ColourAt(0)
	}
	return g.ColourAt(((x-g.Point1.X)*dx + (y-g.Point1.Y)*dy) / lengthSq)
}

// Transformed returns a copy of the gradient with its points mapped by a.
func (g *Gradient) Transformed(a Affine) *Gradient {
	c := g.Clone()
	c.Point1 = a.Apply(g.Point1)
	c.Point2 = a.Apply(g.Point2)
	return c
}
