// Package backend defines the command surface of the immediate-mode vector
// renderer that the drawing context targets, and the process-wide guard
// that allows only one live binding to it.
//
// Every command is expressed in device pixels. Geometry has already been
// transformed and clipped to a scissor rectangle by the caller.
package backend

import (
	"image"

	"github.com/opd-ai/go-vgbridge/pkg/graphics"
)

// TextureID is an opaque backend texture handle. Zero is never a valid
// handle.
type TextureID int

// FrameInfo describes the surface for a frame.
type FrameInfo struct {
	Width, Height int
	ScaleFactor   float64
	Background    graphics.Colour
}

// FillRule selects how overlapping sub-paths are filled.
type FillRule int

const (
	// NonZero fills points with a non-zero winding number.
	NonZero FillRule = iota
	// EvenOdd fills points crossed an odd number of times.
	EvenOdd
)

// Blend selects how source pixels combine with the destination.
type Blend int

const (
	// BlendSourceOver composites the source over the destination.
	BlendSourceOver Blend = iota
	// BlendCopy replaces the destination with the source.
	BlendCopy
)

// Filter selects image sampling.
type Filter int

const (
	// FilterNearest samples the nearest texel.
	FilterNearest Filter = iota
	// FilterLinear interpolates between texels.
	FilterLinear
)

// FilterFor maps a resampling quality to a sampling filter.
func FilterFor(q graphics.ResamplingQuality) Filter {
	if q == graphics.ResampleLow {
		return FilterNearest
	}
	return FilterLinear
}

// PaintKind selects how a Paint colours pixels.
type PaintKind int

const (
	PaintSolid PaintKind = iota
	PaintLinearGradient
	PaintRadialGradient
	PaintImage
)

// Paint is a resolved, device-space fill style.
type Paint struct {
	Kind   PaintKind
	Colour graphics.Colour
	// Gradient has its points in device space.
	Gradient *graphics.Gradient
	Texture  TextureID
	// ImageTransform maps texture pixels to device space.
	ImageTransform graphics.Affine
	// Alpha multiplies the paint's own alpha.
	Alpha  float64
	Filter Filter
}

// FillCommand fills a device-space path.
type FillCommand struct {
	Path      graphics.Path
	Paint     Paint
	Scissor   graphics.Rect
	Rule      FillRule
	Blend     Blend
	AntiAlias bool
}

// StrokeCommand strokes a device-space path.
type StrokeCommand struct {
	Path      graphics.Path
	Paint     Paint
	Width     float64
	Scissor   graphics.Rect
	AntiAlias bool
}

// ImageCommand draws a whole texture.
type ImageCommand struct {
	Texture TextureID
	// Transform maps texture pixels to device space.
	Transform graphics.Affine
	Alpha     float64
	Scissor   graphics.Rect
	Filter    Filter
}

// TextCommand draws a run of text in one font and colour. Transform maps
// text space, whose origin is the left end of the baseline, to device
// space. Font.Size is in text-space units.
type TextCommand struct {
	Text      string
	Font      graphics.Font
	Transform graphics.Affine
	Colour    graphics.Colour
	Scissor   graphics.Rect
}

// Backend is the immediate-mode renderer. Commands issued between
// BeginFrame and EndFrame are queued for the frame; CancelFrame discards
// them. Implementations are not safe for concurrent use.
type Backend interface {
	BeginFrame(info FrameInfo)
	EndFrame() error
	CancelFrame()
	// Invalidate drops size-dependent state such as the projection. A
	// frame in progress is abandoned as if by CancelFrame.
	Invalidate(width, height int)

	CreateTexture(img image.Image) (TextureID, error)
	DeleteTexture(id TextureID)

	Fill(cmd FillCommand)
	Stroke(cmd StrokeCommand)
	DrawImage(cmd ImageCommand)
	DrawText(cmd TextCommand)

	// PushLayer redirects drawing to a new offscreen layer.
	PushLayer()
	// PopLayer composites the top layer onto the one beneath at alpha.
	PopLayer(alpha float64)
}
