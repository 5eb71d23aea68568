package graphics

// FillKind selects how a FillType paints.
type FillKind int

const (
	// FillSolid paints a single colour.
	FillSolid FillKind = iota
	// FillGradient paints a linear or radial gradient.
	FillGradient
	// FillImage tiles an image through a transform.
	FillImage
)

// String returns the fill kind name.
func (k FillKind) String() string {
	switch k {
	case FillSolid:
		return "solid"
	case FillGradient:
		return "gradient"
	case FillImage:
		return "image"
	default:
		return "unknown"
	}
}

// FillType describes the paint used by fill operations.
type FillType struct {
	Kind     FillKind
	Colour   Colour
	Gradient *Gradient
	Image    Image
	// Transform maps gradient or image space into user space.
	Transform Affine
	// Opacity multiplies the fill's alpha, in [0, 1].
	Opacity float64
}

// SolidFill returns a fill painting c.
func SolidFill(c Colour) FillType {
	return FillType{Kind: FillSolid, Colour: c, Transform: Identity(), Opacity: 1}
}

// GradientFill returns a fill painting g.
func GradientFill(g *Gradient) FillType {
	return FillType{Kind: FillGradient, Gradient: g, Transform: Identity(), Opacity: 1}
}

// ImageFill returns a fill painting img through t.
func ImageFill(img Image, t Affine) FillType {
	return FillType{Kind: FillImage, Image: img, Transform: t, Opacity: 1}
}

// IsInvisible reports whether the fill cannot produce any visible pixel.
func (f FillType) IsInvisible() bool {
	if f.Opacity <= 0 {
		return true
	}
	switch f.Kind {
	case FillSolid:
		return f.Colour.IsTransparent()
	case FillGradient:
		return f.Gradient == nil
	case FillImage:
		return f.Image == nil
	}
	return true
}

// Clone returns a copy that shares no mutable gradient data with f.
func (f FillType) Clone() FillType {
	f.Gradient = f.Gradient.Clone()
	return f
}
