package graphics

import "math"

// Affine is a 2D affine transformation matrix:
//
//	| XX  XY |   | x |   | X0 |
//	| YX  YY | * | y | + | Y0 |
//
// The zero value is not the identity; use Identity.
type Affine struct {
	XX, XY float64
	YX, YY float64
	X0, Y0 float64
}

// Identity returns the identity transform.
func Identity() Affine {
	return Affine{XX: 1, YY: 1}
}

// Translation returns a transform that moves points by (tx, ty).
func Translation(tx, ty float64) Affine {
	return Affine{XX: 1, YY: 1, X0: tx, Y0: ty}
}

// Scaling returns a transform that scales by (sx, sy) about the origin.
func Scaling(sx, sy float64) Affine {
	return Affine{XX: sx, YY: sy}
}

// Rotation returns a transform that rotates by angle radians about the origin.
func Rotation(angle float64) Affine {
	s, c := math.Sincos(angle)
	return Affine{XX: c, XY: -s, YX: s, YY: c}
}

// RotationAbout returns a rotation by angle radians about (cx, cy).
func RotationAbout(angle, cx, cy float64) Affine {
	return Translation(-cx, -cy).Multiply(Rotation(angle)).Multiply(Translation(cx, cy))
}

// Multiply returns the transform that applies a first and then other:
//
//	a.Multiply(other).TransformPoint(p) == other.TransformPoint(a.TransformPoint(p))
func (a Affine) Multiply(other Affine) Affine {
	return Affine{
		XX: other.XX*a.XX + other.XY*a.YX,
		XY: other.XX*a.XY + other.XY*a.YY,
		YX: other.YX*a.XX + other.YY*a.YX,
		YY: other.YX*a.XY + other.YY*a.YY,
		X0: other.XX*a.X0 + other.XY*a.Y0 + other.X0,
		Y0: other.YX*a.X0 + other.YY*a.Y0 + other.Y0,
	}
}

// Translated returns a followed by a translation of (tx, ty).
func (a Affine) Translated(tx, ty float64) Affine {
	a.X0 += tx
	a.Y0 += ty
	return a
}

// TransformPoint maps (x, y) through the transform.
func (a Affine) TransformPoint(x, y float64) (tx, ty float64) {
	return a.XX*x + a.XY*y + a.X0, a.YX*x + a.YY*y + a.Y0
}

// Apply maps p through the transform.
func (a Affine) Apply(p Point) Point {
	x, y := a.TransformPoint(p.X, p.Y)
	return Point{X: x, Y: y}
}

// TransformDistance maps a vector, ignoring translation.
func (a Affine) TransformDistance(dx, dy float64) (tdx, tdy float64) {
	return a.XX*dx + a.XY*dy, a.YX*dx + a.YY*dy
}

// Determinant returns XX*YY - XY*YX.
func (a Affine) Determinant() float64 {
	return a.XX*a.YY - a.XY*a.YX
}

// IsSingular reports whether the transform collapses area to zero or
// contains non-finite values.
func (a Affine) IsSingular() bool {
	det := a.Determinant()
	return det == 0 || math.IsNaN(det) || math.IsInf(det, 0)
}

// Invert returns the inverse transform. ok is false when a is singular.
func (a Affine) Invert() (inv Affine, ok bool) {
	if a.IsSingular() {
		return Affine{}, false
	}
	d := 1 / a.Determinant()
	return Affine{
		XX: a.YY * d,
		XY: -a.XY * d,
		YX: -a.YX * d,
		YY: a.XX * d,
		X0: (a.XY*a.Y0 - a.YY*a.X0) * d,
		Y0: (a.YX*a.X0 - a.XX*a.Y0) * d,
	}, true
}

// IsIdentity reports whether a is exactly the identity.
func (a Affine) IsIdentity() bool {
	return a == Identity()
}

// IsOnlyTranslation reports whether a has no scale, rotation or shear.
func (a Affine) IsOnlyTranslation() bool {
	return a.XX == 1 && a.YY == 1 && a.XY == 0 && a.YX == 0
}

// IsAxisAligned reports whether a maps axis-aligned rectangles onto
// axis-aligned rectangles without rotation or shear.
func (a Affine) IsAxisAligned() bool {
	return a.XY == 0 && a.YX == 0 && a.XX != 0 && a.YY != 0
}

// TransformRect returns the bounding box of r after transformation.
// For axis-aligned transforms this is exact.
func (a Affine) TransformRect(r Rect) Rect {
	corners := r.Corners()
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, c := range corners {
		x, y := a.TransformPoint(c.X, c.Y)
		minX, maxX = math.Min(minX, x), math.Max(maxX, x)
		minY, maxY = math.Min(minY, y), math.Max(maxY, y)
	}
	return Rect{X: minX, Y: minY, W: maxX - minX, H: maxY - minY}
}

// ScaleFactor returns the geometric mean of the axis scales, used for
// stroke widths and font sizes under a transform.
func (a Affine) ScaleFactor() float64 {
	return math.Sqrt(math.Abs(a.Determinant()))
}
