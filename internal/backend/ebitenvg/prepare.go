package ebitenvg

import (
	"errors"
	"image"

	"github.com/disintegration/imaging"

	"github.com/opd-ai/go-vgbridge/pkg/graphics"
)

// DefaultMaxTextureSize is the largest texture edge uploaded without
// downscaling.
const DefaultMaxTextureSize = 4096

// ErrEmptyImage is returned when an image has no pixels.
var ErrEmptyImage = errors.New("ebitenvg: image has no pixels")

// ResampleFilter returns the imaging filter used when downscaling at q.
func ResampleFilter(q graphics.ResamplingQuality) imaging.ResampleFilter {
	switch q {
	case graphics.ResampleLow:
		return imaging.NearestNeighbor
	case graphics.ResampleHigh:
		return imaging.Lanczos
	default:
		return imaging.Linear
	}
}

// Prepare converts img to non-premultiplied RGBA with its origin at (0, 0).
// Images with an edge longer than maxSize are shrunk to fit, keeping their
// aspect ratio. The returned scale factors map prepared pixels back to
// source pixels.
func Prepare(img image.Image, maxSize int, q graphics.ResamplingQuality) (out *image.NRGBA, sx, sy float64, err error) {
	if img == nil {
		return nil, 0, 0, ErrEmptyImage
	}
	b := img.Bounds()
	if b.Empty() {
		return nil, 0, 0, ErrEmptyImage
	}
	out = imaging.Clone(img)
	if maxSize > 0 && (b.Dx() > maxSize || b.Dy() > maxSize) {
		out = imaging.Fit(out, maxSize, maxSize, ResampleFilter(q))
	}
	ob := out.Bounds()
	return out, float64(b.Dx()) / float64(ob.Dx()), float64(b.Dy()) / float64(ob.Dy()), nil
}
