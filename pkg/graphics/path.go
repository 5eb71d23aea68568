package graphics

import "math"

// SegmentType identifies the kind of a path segment.
type SegmentType int

const (
	// MoveTo starts a new sub-path at (X, Y).
	MoveTo SegmentType = iota
	// LineTo draws a straight line to (X, Y).
	LineTo
	// QuadTo draws a quadratic curve through (X1, Y1) to (X, Y).
	QuadTo
	// CubicTo draws a cubic curve through (X1, Y1) and (X2, Y2) to (X, Y).
	CubicTo
	// Close closes the current sub-path.
	Close
)

// String returns the segment type name.
func (t SegmentType) String() string {
	switch t {
	case MoveTo:
		return "move"
	case LineTo:
		return "line"
	case QuadTo:
		return "quad"
	case CubicTo:
		return "cubic"
	case Close:
		return "close"
	default:
		return "unknown"
	}
}

// Segment is one element of a Path. The end point is always (X, Y);
// control points are only meaningful for curves.
type Segment struct {
	Type   SegmentType
	X, Y   float64
	X1, Y1 float64
	X2, Y2 float64
}

// Path is a sequence of move, line, curve and close segments.
// The zero value is an empty path filled with the non-zero winding rule.
type Path struct {
	segments []Segment
	// EvenOdd selects the even-odd fill rule instead of non-zero winding.
	EvenOdd bool
	open    bool
	startX  float64
	startY  float64
}

// MoveTo starts a new sub-path.
func (p *Path) MoveTo(x, y float64) {
	p.segments = append(p.segments, Segment{Type: MoveTo, X: x, Y: y})
	p.open = true
	p.startX, p.startY = x, y
}

// LineTo adds a line from the current point. Without a current point it
// behaves like MoveTo.
func (p *Path) LineTo(x, y float64) {
	if !p.open {
		p.MoveTo(x, y)
		return
	}
	p.segments = append(p.segments, Segment{Type: LineTo, X: x, Y: y})
}

// QuadTo adds a quadratic Bézier curve.
func (p *Path) QuadTo(cx, cy, x, y float64) {
	if !p.open {
		p.MoveTo(cx, cy)
	}
	p.segments = append(p.segments, Segment{Type: QuadTo, X1: cx, Y1: cy, X: x, Y: y})
}

// CubicTo adds a cubic Bézier curve.
func (p *Path) CubicTo(c1x, c1y, c2x, c2y, x, y float64) {
	if !p.open {
		p.MoveTo(c1x, c1y)
	}
	p.segments = append(p.segments, Segment{Type: CubicTo, X1: c1x, Y1: c1y, X2: c2x, Y2: c2y, X: x, Y: y})
}

// Close closes the current sub-path back to its starting point.
func (p *Path) Close() {
	if !p.open {
		return
	}
	p.segments = append(p.segments, Segment{Type: Close, X: p.startX, Y: p.startY})
	p.open = false
}

// AddRectangle appends r as a closed sub-path.
func (p *Path) AddRectangle(r Rect) {
	p.MoveTo(r.X, r.Y)
	p.LineTo(r.Right(), r.Y)
	p.LineTo(r.Right(), r.Bottom())
	p.LineTo(r.X, r.Bottom())
	p.Close()
}

// kappa is the cubic control distance for a quarter circle of radius 1.
const kappa = 0.5522847498307936

// AddEllipse appends an ellipse inscribed in r as a closed sub-path.
func (p *Path) AddEllipse(r Rect) {
	rx, ry := r.W/2, r.H/2
	cx, cy := r.X+rx, r.Y+ry
	kx, ky := rx*kappa, ry*kappa
	p.MoveTo(cx+rx, cy)
	p.CubicTo(cx+rx, cy+ky, cx+kx, cy+ry, cx, cy+ry)
	p.CubicTo(cx-kx, cy+ry, cx-rx, cy+ky, cx-rx, cy)
	p.CubicTo(cx-rx, cy-ky, cx-kx, cy-ry, cx, cy-ry)
	p.CubicTo(cx+kx, cy-ry, cx+rx, cy-ky, cx+rx, cy)
	p.Close()
}

// AddArc appends a circular arc centred on (cx, cy) from angle a1 to a2
// (radians, clockwise in screen space). The arc is connected to the current
// point with a line, or starts a new sub-path.
func (p *Path) AddArc(cx, cy, radius, a1, a2 float64) {
	sx, sy := cx+radius*math.Cos(a1), cy+radius*math.Sin(a1)
	if p.open {
		p.LineTo(sx, sy)
	} else {
		p.MoveTo(sx, sy)
	}
	sweep := a2 - a1
	n := int(math.Ceil(math.Abs(sweep) / (math.Pi / 2)))
	if n == 0 {
		return
	}
	step := sweep / float64(n)
	k := 4.0 / 3.0 * math.Tan(step/4)
	for i := 0; i < n; i++ {
		t0 := a1 + float64(i)*step
		t1 := t0 + step
		s0, c0 := math.Sincos(t0)
		s1, c1 := math.Sincos(t1)
		p.CubicTo(
			cx+radius*(c0-k*s0), cy+radius*(s0+k*c0),
			cx+radius*(c1+k*s1), cy+radius*(s1-k*c1),
			cx+radius*c1, cy+radius*s1,
		)
	}
}

// Segments returns a copy of the path segments.
func (p *Path) Segments() []Segment {
	return append([]Segment(nil), p.segments...)
}

// Len returns the number of segments.
func (p *Path) Len() int { return len(p.segments) }

// IsEmpty reports whether the path has no drawable segments.
func (p *Path) IsEmpty() bool {
	for _, s := range p.segments {
		if s.Type != MoveTo {
			return false
		}
	}
	return true
}

// Clone returns an independent copy of the path.
func (p *Path) Clone() Path {
	c := *p
	c.segments = p.Segments()
	return c
}

// Bounds returns the bounding box of all end and control points. For
// curves this is conservative rather than tight.
func (p *Path) Bounds() Rect {
	if len(p.segments) == 0 {
		return Rect{}
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	add := func(x, y float64) {
		minX, maxX = math.Min(minX, x), math.Max(maxX, x)
		minY, maxY = math.Min(minY, y), math.Max(maxY, y)
	}
	for _, s := range p.segments {
		add(s.X, s.Y)
		switch s.Type {
		case QuadTo:
			add(s.X1, s.Y1)
		case CubicTo:
			add(s.X1, s.Y1)
			add(s.X2, s.Y2)
		}
	}
	return Rect{X: minX, Y: minY, W: maxX - minX, H: maxY - minY}
}

// Transformed returns a copy of the path with every point mapped through a.
func (p *Path) Transformed(a Affine) Path {
	out := p.Clone()
	for i := range out.segments {
		s := &out.segments[i]
		s.X, s.Y = a.TransformPoint(s.X, s.Y)
		s.X1, s.Y1 = a.TransformPoint(s.X1, s.Y1)
		s.X2, s.Y2 = a.TransformPoint(s.X2, s.Y2)
	}
	out.startX, out.startY = a.TransformPoint(p.startX, p.startY)
	return out
}

// Flatten converts the path into closed polygons, approximating curves with
// line segments no further than roughly tolerance from the true curve.
func (p *Path) Flatten(tolerance float64) [][]Point {
	if tolerance <= 0 {
		tolerance = 0.25
	}
	var polys [][]Point
	var cur []Point
	flush := func() {
		if len(cur) > 1 {
			polys = append(polys, cur)
		}
		cur = nil
	}
	var px, py float64
	for _, s := range p.segments {
		switch s.Type {
		case MoveTo:
			flush()
			cur = append(cur, Point{X: s.X, Y: s.Y})
		case LineTo:
			cur = append(cur, Point{X: s.X, Y: s.Y})
		case QuadTo:
			n := curveSteps(tolerance, px, py, s.X1, s.Y1, s.X, s.Y)
			for i := 1; i <= n; i++ {
				t := float64(i) / float64(n)
				u := 1 - t
				cur = append(cur, Point{
					X: u*u*px + 2*u*t*s.X1 + t*t*s.X,
					Y: u*u*py + 2*u*t*s.Y1 + t*t*s.Y,
				})
			}
		case CubicTo:
			n := curveSteps(tolerance, px, py, s.X1, s.Y1, s.X2, s.Y2, s.X, s.Y)
			for i := 1; i <= n; i++ {
				t := float64(i) / float64(n)
				u := 1 - t
				cur = append(cur, Point{
					X: u*u*u*px + 3*u*u*t*s.X1 + 3*u*t*t*s.X2 + t*t*t*s.X,
					Y: u*u*u*py + 3*u*u*t*s.Y1 + 3*u*t*t*s.Y2 + t*t*t*s.Y,
				})
			}
		case Close:
			flush()
		}
		px, py = s.X, s.Y
	}
	flush()
	return polys
}

// curveSteps picks a subdivision count from the control polygon length.
func curveSteps(tolerance float64, coords ...float64) int {
	var length float64
	for i := 2; i+1 < len(coords); i += 2 {
		length += math.Hypot(coords[i]-coords[i-2], coords[i+1]-coords[i-1])
	}
	n := int(math.Ceil(math.Sqrt(length / tolerance)))
	if n < 1 {
		return 1
	}
	if n > 128 {
		return 128
	}
	return n
}

// Contains reports whether (x, y) is inside the filled path using the
// path's fill rule.
func (p *Path) Contains(x, y float64) bool {
	winding := 0
	for _, poly := range p.Flatten(0.25) {
		for i := range poly {
			a := poly[i]
			b := poly[(i+1)%len(poly)]
			if a.Y <= y {
				if b.Y > y && cross(a, b, x, y) > 0 {
					winding++
				}
			} else if b.Y <= y && cross(a, b, x, y) < 0 {
				winding--
			}
		}
	}
	if p.EvenOdd {
		return winding%2 != 0
	}
	return winding != 0
}

func cross(a, b Point, x, y float64) float64 {
	return (b.X-a.X)*(y-a.Y) - (x-a.X)*(b.Y-a.Y)
}

// RectPath returns a closed path covering r.
func RectPath(r Rect) Path {
	var p Path
	p.AddRectangle(r)
	return p
}
