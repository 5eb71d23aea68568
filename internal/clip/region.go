// Package clip implements the clip-region algebra used by the drawing
// context. A Region is always expressed in device space.
//
// Rectangle and rectangle-list regions use exact rectangle arithmetic.
// Once a path is intersected into a region it becomes a path region for the
// rest of its life: the region keeps the rectangular area it had plus the
// list of clipping paths, and every query or scissor computation uses the
// bounding boxes of those paths. A point inside a path's bounding box but
// outside the path itself is therefore reported as visible. This loss of
// precision is accepted; callers that need exact path clipping must use the
// paths returned by Paths.
package clip

import (
	"errors"

	"github.com/opd-ai/go-vgbridge/pkg/graphics"
)

// ErrDegenerate reports clip geometry that has no area or is not finite.
// The region becomes empty; the condition is never fatal.
var ErrDegenerate = errors.New("clip: degenerate clip geometry")

// Kind is the variant held by a Region.
type Kind int

const (
	// KindEmpty clips everything.
	KindEmpty Kind = iota
	// KindInfinite clips nothing.
	KindInfinite
	// KindRect is a single axis-aligned rectangle.
	KindRect
	// KindRectList is a union of disjoint rectangles.
	KindRectList
	// KindPath is a rectangular area narrowed by one or more paths.
	KindPath
)

// String returns the variant name.
func (k Kind) String() string {
	switch k {
	case KindEmpty:
		return "empty"
	case KindInfinite:
		return "infinite"
	case KindRect:
		return "rect"
	case KindRectList:
		return "rect-list"
	case KindPath:
		return "path"
	default:
		return "unknown"
	}
}

// unbounded stands in for the infinite region when it has to be expressed
// as rectangles, e.g. after an exclusion.
var unbounded = graphics.Rect{X: -(1 << 30), Y: -(1 << 30), W: 1 << 31, H: 1 << 31}

// Region is a clip region. The zero value is empty.
type Region struct {
	kind  Kind
	area  graphics.RectList
	paths []graphics.Path
}

// Empty returns a region that clips everything.
func Empty() Region {
	return Region{kind: KindEmpty}
}

// Infinite returns a region that clips nothing.
func Infinite() Region {
	return Region{kind: KindInfinite}
}

// FromRect returns a region covering r. Degenerate rectangles give an
// empty region.
func FromRect(r graphics.Rect) Region {
	if r.IsEmpty() || !r.IsFinite() {
		return Empty()
	}
	return Region{kind: KindRect, area: graphics.NewRectList(r)}
}

// Kind returns the current variant.
func (c Region) Kind() Kind { return c.kind }

// IsEmpty reports whether nothing can be drawn through the region.
func (c Region) IsEmpty() bool { return c.kind == KindEmpty }

// IsRectangular reports whether the region is a single rectangle or
// infinite, so that rectangle fills can be clipped exactly.
func (c Region) IsRectangular() bool {
	return c.kind == KindRect || c.kind == KindInfinite
}

// Clone returns a deep copy that can be mutated independently.
func (c Region) Clone() Region {
	out := Region{kind: c.kind, area: c.area.Clone()}
	if len(c.paths) > 0 {
		out.paths = append([]graphics.Path(nil), c.paths...)
	}
	return out
}

// ClipToRect intersects the region with r.
func (c *Region) ClipToRect(r graphics.Rect) error {
	if r.IsEmpty() || !r.IsFinite() {
		c.setEmpty()
		return ErrDegenerate
	}
	switch c.kind {
	case KindEmpty:
		return nil
	case KindInfinite:
		c.area = graphics.NewRectList(r)
		c.kind = KindRect
		return nil
	}
	c.area.ClipTo(r)
	c.normalize()
	return nil
}

// ClipToRectList intersects the region with the union of list.
func (c *Region) ClipToRectList(list graphics.RectList) error {
	if list.IsEmpty() {
		c.setEmpty()
		return nil
	}
	switch c.kind {
	case KindEmpty:
		return nil
	case KindInfinite:
		c.area = list.Clone()
		c.kind = KindRectList
	default:
		c.area.ClipToList(list)
	}
	c.normalize()
	return nil
}

// Exclude subtracts r from the region. Rectangles in the region that r
// partially covers are split.
func (c *Region) Exclude(r graphics.Rect) error {
	if !r.IsFinite() {
		return ErrDegenerate
	}
	if r.IsEmpty() {
		return nil
	}
	switch c.kind {
	case KindEmpty:
		return nil
	case KindInfinite:
		c.area = graphics.NewRectList(unbounded)
		c.kind = KindRectList
	}
	c.area.Subtract(r)
	c.normalize()
	return nil
}

// ClipToPath intersects the region with the filled area of p, which must
// already be in device space. The region becomes a path region.
func (c *Region) ClipToPath(p graphics.Path) error {
	bounds := p.Bounds()
	if p.IsEmpty() || bounds.IsEmpty() || !bounds.IsFinite() {
		c.setEmpty()
		return ErrDegenerate
	}
	switch c.kind {
	case KindEmpty:
		return nil
	case KindInfinite:
		c.area = graphics.NewRectList(bounds)
	default:
		c.area.ClipTo(bounds)
	}
	c.paths = append(c.paths, p.Clone())
	c.kind = KindPath
	c.normalize()
	return nil
}

// Intersects reports whether r overlaps the visible area.
// For path regions the test uses the clipping paths' bounding boxes.
func (c Region) Intersects(r graphics.Rect) bool {
	if r.IsEmpty() {
		return false
	}
	switch c.kind {
	case KindEmpty:
		return false
	case KindInfinite:
		return true
	case KindPath:
		for _, p := range c.paths {
			if !p.Bounds().Intersects(r) {
				return false
			}
		}
	}
	return c.area.Intersects(r)
}

// Bounds returns the bounding box of the visible area.
func (c Region) Bounds() graphics.Rect {
	switch c.kind {
	case KindEmpty:
		return graphics.Rect{}
	case KindInfinite:
		return unbounded
	}
	b := c.area.Bounds()
	for _, p := range c.paths {
		b = b.Intersection(p.Bounds())
	}
	return b
}

// ScissorRects returns disjoint rectangles that together bound the visible
// area. Drawing clipped to each of them in turn reproduces the region
// exactly for rectangle variants and approximately for path regions.
func (c Region) ScissorRects() []graphics.Rect {
	switch c.kind {
	case KindEmpty:
		return nil
	case KindInfinite:
		return []graphics.Rect{unbounded}
	case KindPath:
		l := c.area.Clone()
		for _, p := range c.paths {
			l.ClipTo(p.Bounds())
		}
		return l.Rects()
	}
	return c.area.Rects()
}

// Paths returns the device-space clipping paths of a path region.
func (c Region) Paths() []graphics.Path {
	return append([]graphics.Path(nil), c.paths...)
}

func (c *Region) setEmpty() {
	*c = Empty()
}

// normalize collapses the variant after an area change.
func (c *Region) normalize() {
	if c.area.IsEmpty() {
		c.setEmpty()
		return
	}
	if c.kind == KindPath {
		for _, p := range c.paths {
			if !c.area.Intersects(p.Bounds()) {
				c.setEmpty()
				return
			}
		}
		return
	}
	if c.area.Len() == 1 {
		c.kind = KindRect
	} else {
		c.kind = KindRectList
	}
}
