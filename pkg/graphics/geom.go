// Package graphics provides the host-side value types consumed by the vg
// drawing context: rectangles, rectangle lists, affine transforms, paths,
// colours, gradients, fills, fonts, images and attributed text.
//
// All types are plain values or small structs with no rendering backend
// dependency, so they can be built and inspected without a GPU.
package graphics

import "math"

// Point is a position in user or device space.
type Point struct {
	X, Y float64
}

// Add returns p translated by q.
func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

// Line is a straight segment between two points.
type Line struct {
	Start, End Point
}

// Length returns the euclidean length of the line.
func (l Line) Length() float64 {
	return math.Hypot(l.End.X-l.Start.X, l.End.Y-l.Start.Y)
}

// Rect is an axis-aligned rectangle with its origin at the top-left corner.
// A rectangle with a non-positive width or height is empty.
type Rect struct {
	X, Y, W, H float64
}

// NewRect creates a rectangle from its position and size.
func NewRect(x, y, w, h float64) Rect {
	return Rect{X: x, Y: y, W: w, H: h}
}

// RectFromPoints returns the smallest rectangle containing both corners.
func RectFromPoints(a, b Point) Rect {
	x1, x2 := math.Min(a.X, b.X), math.Max(a.X, b.X)
	y1, y2 := math.Min(a.Y, b.Y), math.Max(a.Y, b.Y)
	return Rect{X: x1, Y: y1, W: x2 - x1, H: y2 - y1}
}

// Right returns the x coordinate of the right edge.
func (r Rect) Right() float64 { return r.X + r.W }

// Bottom returns the y coordinate of the bottom edge.
func (r Rect) Bottom() float64 { return r.Y + r.H }

// Centre returns the centre point of the rectangle.
func (r Rect) Centre() Point {
	return Point{X: r.X + r.W/2, Y: r.Y + r.H/2}
}

// Area returns W*H, or 0 for empty rectangles.
func (r Rect) Area() float64 {
	if r.IsEmpty() {
		return 0
	}
	return r.W * r.H
}

// IsEmpty reports whether the rectangle covers no area.
// Rectangles with NaN components are considered empty.
func (r Rect) IsEmpty() bool {
	return !(r.W > 0 && r.H > 0)
}

// IsFinite reports whether every component is a finite number.
func (r Rect) IsFinite() bool {
	for _, v := range [...]float64{r.X, r.Y, r.W, r.H} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Intersection returns the overlapping area of r and o.
// The result is the zero Rect when they do not overlap.
func (r Rect) Intersection(o Rect) Rect {
	x1 := math.Max(r.X, o.X)
	y1 := math.Max(r.Y, o.Y)
	x2 := math.Min(r.Right(), o.Right())
	y2 := math.Min(r.Bottom(), o.Bottom())
	if x2 <= x1 || y2 <= y1 {
		return Rect{}
	}
	return Rect{X: x1, Y: y1, W: x2 - x1, H: y2 - y1}
}

// Intersects reports whether r and o share any area.
func (r Rect) Intersects(o Rect) bool {
	return !r.Intersection(o).IsEmpty()
}

// Contains reports whether p lies inside r. The right and bottom edges are
// exclusive.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.Y >= r.Y && p.X < r.Right() && p.Y < r.Bottom()
}

// ContainsRect reports whether o lies entirely inside r.
func (r Rect) ContainsRect(o Rect) bool {
	return o.X >= r.X && o.Y >= r.Y && o.Right() <= r.Right() && o.Bottom() <= r.Bottom()
}

// Union returns the smallest rectangle containing both r and o.
// Empty rectangles are ignored.
func (r Rect) Union(o Rect) Rect {
	if r.IsEmpty() {
		return o
	}
	if o.IsEmpty() {
		return r
	}
	x1 := math.Min(r.X, o.X)
	y1 := math.Min(r.Y, o.Y)
	x2 := math.Max(r.Right(), o.Right())
	y2 := math.Max(r.Bottom(), o.Bottom())
	return Rect{X: x1, Y: y1, W: x2 - x1, H: y2 - y1}
}

// Translated returns r moved by (dx, dy).
func (r Rect) Translated(dx, dy float64) Rect {
	return Rect{X: r.X + dx, Y: r.Y + dy, W: r.W, H: r.H}
}

// Expanded returns r grown by d on every side.
func (r Rect) Expanded(d float64) Rect {
	return Rect{X: r.X - d, Y: r.Y - d, W: r.W + 2*d, H: r.H + 2*d}
}

// Snapped returns the smallest rectangle with integer edges containing r.
func (r Rect) Snapped() Rect {
	x1, y1 := math.Floor(r.X), math.Floor(r.Y)
	x2, y2 := math.Ceil(r.Right()), math.Ceil(r.Bottom())
	return Rect{X: x1, Y: y1, W: x2 - x1, H: y2 - y1}
}

// Corners returns the four corners in clockwise order starting top-left.
func (r Rect) Corners() [4]Point {
	return [4]Point{
		{X: r.X, Y: r.Y},
		{X: r.Right(), Y: r.Y},
		{X: r.Right(), Y: r.Bottom()},
		{X: r.X, Y: r.Bottom()},
	}
}

// IntRect is an integer rectangle, used for pixel-aligned fills.
type IntRect struct {
	X, Y, W, H int
}

// ToRect converts an integer rectangle to floating point.
func (r IntRect) ToRect() Rect {
	return Rect{X: float64(r.X), Y: float64(r.Y), W: float64(r.W), H: float64(r.H)}
}
