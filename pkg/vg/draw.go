package vg

import (
	"github.com/opd-ai/go-vgbridge/internal/backend"
	"github.com/opd-ai/go-vgbridge/internal/clip"
	"github.com/opd-ai/go-vgbridge/internal/state"
	"github.com/opd-ai/go-vgbridge/pkg/graphics"
)

// scissors returns the clip's scissor rectangles that overlap bounds. It
// returns nil when the draw is fully clipped, counting it as culled.
func (c *Context) scissors(cur *state.DrawingState, bounds graphics.Rect) []graphics.Rect {
	if c.closed || cur.Clip.IsEmpty() || !cur.Clip.Intersects(bounds) {
		c.metrics.culled.Add(1)
		return nil
	}
	var out []graphics.Rect
	for _, s := range cur.Clip.ScissorRects() {
		if s.Intersects(bounds) {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		c.metrics.culled.Add(1)
	}
	return out
}

// paint resolves the current fill to device space. ok is false when
// nothing should be drawn.
func (c *Context) paint(op string, cur *state.DrawingState, dt graphics.Affine) (p backend.Paint, ok bool) {
	f := cur.Fill
	if f.IsInvisible() || cur.Opacity <= 0 {
		c.metrics.culled.Add(1)
		return p, false
	}
	p.Alpha = cur.Opacity * f.Opacity
	switch f.Kind {
	case graphics.FillSolid:
		p.Kind = backend.PaintSolid
		p.Colour = f.Colour
	case graphics.FillGradient:
		p.Kind = backend.PaintLinearGradient
		if f.Gradient.Radial {
			p.Kind = backend.PaintRadialGradient
		}
		p.Gradient = f.Gradient.Transformed(f.Transform.Multiply(dt))
	case graphics.FillImage:
		id, err := c.texture(op, f.Image)
		if err != nil {
			return p, false
		}
		p.Kind = backend.PaintImage
		p.Texture = id
		p.ImageTransform = f.Transform.Multiply(dt)
		p.Filter = backend.FilterFor(cur.Interpolation)
	default:
		return p, false
	}
	return p, true
}

// texture returns the backend texture for img. Upload failures are
// reported and the caller skips its draw.
func (c *Context) texture(op string, img graphics.Image) (backend.TextureID, error) {
	id, err := c.cache.GetOrCreate(img)
	c.metrics.recordCache(c.cache.Stats(), c.cache.Len())
	if err != nil {
		c.report(KindImageUploadFailure, op, err)
		return 0, err
	}
	return id, nil
}

// textColour returns the colour text is drawn in when no attribute
// overrides it.
func textColour(cur *state.DrawingState) graphics.Colour {
	f := cur.Fill
	var col graphics.Colour
	switch f.Kind {
	case graphics.FillSolid:
		col = f.Colour
	case graphics.FillGradient:
		if stops := f.Gradient.Stops(); len(stops) > 0 {
			col = stops[0].Colour
		}
	default:
		col = graphics.Black
	}
	return col.WithMultipliedAlpha(cur.Opacity * f.Opacity)
}

func (c *Context) fillDevicePath(op string, p graphics.Path, blend backend.Blend) {
	cur := c.stack.Current()
	sc := c.scissors(cur, p.Bounds())
	if len(sc) == 0 {
		return
	}
	pt, ok := c.paint(op, cur, c.deviceTransform())
	if !ok {
		return
	}
	rule := backend.NonZero
	if p.EvenOdd {
		rule = backend.EvenOdd
	}
	for _, s := range sc {
		c.b.Fill(backend.FillCommand{Path: p, Paint: pt, Scissor: s, Rule: rule, Blend: blend, AntiAlias: c.antiAlias})
		c.metrics.fills.Add(1)
	}
}

// fillRect fills r exactly when the transform keeps it axis-aligned and
// the clip is rectangular, and as a transformed path otherwise.
func (c *Context) fillRect(op string, r graphics.Rect, blend backend.Blend) {
	if !r.IsFinite() || r.IsEmpty() {
		return
	}
	cur := c.stack.Current()
	dt := c.deviceTransform()
	if !dt.IsAxisAligned() || cur.Clip.Kind() == clip.KindPath {
		p := graphics.RectPath(r)
		c.fillDevicePath(op, p.Transformed(dt), blend)
		return
	}
	dr := dt.TransformRect(r)
	sc := c.scissors(cur, dr)
	if len(sc) == 0 {
		return
	}
	pt, ok := c.paint(op, cur, dt)
	if !ok {
		return
	}
	for _, s := range sc {
		piece := dr.Intersection(s)
		if piece.IsEmpty() {
			continue
		}
		c.b.Fill(backend.FillCommand{Path: graphics.RectPath(piece), Paint: pt, Scissor: s, Blend: blend, AntiAlias: c.antiAlias})
		c.metrics.fills.Add(1)
	}
}

// FillRect fills r with the current paint.
func (c *Context) FillRect(r graphics.Rect) {
	c.fillRect("FillRect", r, backend.BlendSourceOver)
}

// FillRectInt fills an integer rectangle. With replaceExisting the
// destination pixels are overwritten instead of blended.
func (c *Context) FillRectInt(r graphics.IntRect, replaceExisting bool) {
	blend := backend.BlendSourceOver
	if replaceExisting {
		blend = backend.BlendCopy
	}
	c.fillRect("FillRectInt", r.ToRect(), blend)
}

// FillRectList fills every rectangle of list.
func (c *Context) FillRectList(list graphics.RectList) {
	for _, r := range list.Rects() {
		c.fillRect("FillRectList", r, backend.BlendSourceOver)
	}
}

// FillPath fills p drawn through t.
func (c *Context) FillPath(p graphics.Path, t graphics.Affine) {
	if p.IsEmpty() {
		return
	}
	c.fillDevicePath("FillPath", p.Transformed(t.Multiply(c.deviceTransform())), backend.BlendSourceOver)
}

// StrokePath strokes p drawn through t with a line width in user units.
func (c *Context) StrokePath(p graphics.Path, width float64, t graphics.Affine) {
	if p.IsEmpty() || !(width > 0) {
		return
	}
	full := t.Multiply(c.deviceTransform())
	c.strokeDevicePath("StrokePath", p.Transformed(full), width*full.ScaleFactor())
}

// DrawLine strokes line one user unit wide.
func (c *Context) DrawLine(line graphics.Line) {
	var p graphics.Path
	p.MoveTo(line.Start.X, line.Start.Y)
	p.LineTo(line.End.X, line.End.Y)
	dt := c.deviceTransform()
	c.strokeDevicePath("DrawLine", p.Transformed(dt), dt.ScaleFactor())
}

func (c *Context) strokeDevicePath(op string, p graphics.Path, width float64) {
	cur := c.stack.Current()
	sc := c.scissors(cur, p.Bounds().Expanded(width/2))
	if len(sc) == 0 {
		return
	}
	pt, ok := c.paint(op, cur, c.deviceTransform())
	if !ok {
		return
	}
	for _, s := range sc {
		c.b.Stroke(backend.StrokeCommand{Path: p, Paint: pt, Width: width, Scissor: s, AntiAlias: c.antiAlias})
		c.metrics.strokes.Add(1)
	}
}

// DrawImage draws img through t at the current opacity.
func (c *Context) DrawImage(img graphics.Image, t graphics.Affine) {
	if img == nil || img.Image() == nil {
		return
	}
	cur := c.stack.Current()
	if cur.Opacity <= 0 {
		c.metrics.culled.Add(1)
		return
	}
	b := img.Image().Bounds()
	full := t.Multiply(c.deviceTransform())
	sc := c.scissors(cur, full.TransformRect(graphics.NewRect(0, 0, float64(b.Dx()), float64(b.Dy()))))
	if len(sc) == 0 {
		return
	}
	id, err := c.texture("DrawImage", img)
	if err != nil {
		return
	}
	for _, s := range sc {
		c.b.DrawImage(backend.ImageCommand{
			Texture:   id,
			Transform: full,
			Alpha:     cur.Opacity,
			Scissor:   s,
			Filter:    backend.FilterFor(cur.Interpolation),
		})
		c.metrics.images.Add(1)
	}
}
