package graphics

// RectList is a set of non-overlapping rectangles describing a region.
// The zero value is an empty region.
type RectList struct {
	rects []Rect
}

// NewRectList builds a region from the union of rects.
func NewRectList(rects ...Rect) RectList {
	var l RectList
	for _, r := range rects {
		l.Add(r)
	}
	return l
}

// Add unions r into the region. Only the parts of r not already covered are
// stored, which keeps the list disjoint.
func (l *RectList) Add(r Rect) {
	if r.IsEmpty() || !r.IsFinite() {
		return
	}
	pieces := []Rect{r}
	for _, existing := range l.rects {
		next := pieces[:0:0]
		for _, p := range pieces {
			next = append(next, subtractRect(p, existing)...)
		}
		pieces = next
		if len(pieces) == 0 {
			return
		}
	}
	l.rects = append(l.rects, pieces...)
}

// Subtract removes r from the region. Rectangles partially covered by r are
// split into up to four pieces.
func (l *RectList) Subtract(r Rect) {
	if r.IsEmpty() {
		return
	}
	out := make([]Rect, 0, len(l.rects))
	for _, existing := range l.rects {
		out = append(out, subtractRect(existing, r)...)
	}
	l.rects = out
}

// ClipTo intersects every rectangle in the region with r.
func (l *RectList) ClipTo(r Rect) {
	out := make([]Rect, 0, len(l.rects))
	for _, existing := range l.rects {
		if c := existing.Intersection(r); !c.IsEmpty() {
			out = append(out, c)
		}
	}
	l.rects = out
}

// ClipToList intersects the region with another region.
func (l *RectList) ClipToList(other RectList) {
	out := make([]Rect, 0, len(l.rects))
	for _, a := range l.rects {
		for _, b := range other.rects {
			if c := a.Intersection(b); !c.IsEmpty() {
				out = append(out, c)
			}
		}
	}
	l.rects = out
}

// Intersects reports whether any rectangle in the region overlaps r.
func (l RectList) Intersects(r Rect) bool {
	for _, existing := range l.rects {
		if existing.Intersects(r) {
			return true
		}
	}
	return false
}

// ContainsPoint reports whether p lies inside the region.
func (l RectList) ContainsPoint(p Point) bool {
	for _, existing := range l.rects {
		if existing.Contains(p) {
			return true
		}
	}
	return false
}

// Bounds returns the bounding box of the region.
func (l RectList) Bounds() Rect {
	var b Rect
	for _, r := range l.rects {
		b = b.Union(r)
	}
	return b
}

// Area returns the total covered area.
func (l RectList) Area() float64 {
	var a float64
	for _, r := range l.rects {
		a += r.Area()
	}
	return a
}

// IsEmpty reports whether the region covers no area.
func (l RectList) IsEmpty() bool { return len(l.rects) == 0 }

// Len returns the number of rectangles in the region.
func (l RectList) Len() int { return len(l.rects) }

// Rects returns a copy of the rectangles in the region.
func (l RectList) Rects() []Rect {
	return append([]Rect(nil), l.rects...)
}

// Clone returns an independent copy of the region.
func (l RectList) Clone() RectList {
	return RectList{rects: l.Rects()}
}

// Translated returns the region moved by (dx, dy).
func (l RectList) Translated(dx, dy float64) RectList {
	out := make([]Rect, len(l.rects))
	for i, r := range l.rects {
		out[i] = r.Translated(dx, dy)
	}
	return RectList{rects: out}
}

// subtractRect returns the parts of a not covered by b.
func subtractRect(a, b Rect) []Rect {
	i := a.Intersection(b)
	if i.IsEmpty() {
		return []Rect{a}
	}
	out := make([]Rect, 0, 4)
	if i.Y > a.Y {
		out = append(out, Rect{X: a.X, Y: a.Y, W: a.W, H: i.Y - a.Y})
	}
	if i.Bottom() < a.Bottom() {
		out = append(out, Rect{X: a.X, Y: i.Bottom(), W: a.W, H: a.Bottom() - i.Bottom()})
	}
	if i.X > a.X {
		out = append(out, Rect{X: a.X, Y: i.Y, W: i.X - a.X, H: i.H})
	}
	if i.Right() < a.Right() {
		out = append(out, Rect{X: i.Right(), Y: i.Y, W: a.Right() - i.Right(), H: i.H})
	}
	return out
}
