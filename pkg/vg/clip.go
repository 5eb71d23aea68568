package vg

import (
	"errors"

	"github.com/opd-ai/go-vgbridge/internal/clip"
	"github.com/opd-ai/go-vgbridge/pkg/graphics"
)

// clipErr reports degenerate clip geometry. The region is already empty.
func (c *Context) clipErr(op string, err error) {
	if errors.Is(err, clip.ErrDegenerate) {
		c.report(KindClipDegenerate, op, err)
	}
}

// ClipToRectangle intersects the clip with r, given in user space. It
// reports whether any area remains.
func (c *Context) ClipToRectangle(r graphics.Rect) bool {
	cur := c.stack.Current()
	dt := c.deviceTransform()
	var err error
	if dt.IsAxisAligned() {
		err = cur.Clip.ClipToRect(dt.TransformRect(r))
	} else {
		if !r.IsFinite() || r.IsEmpty() {
			err = cur.Clip.ClipToRect(graphics.Rect{})
		} else {
			p := graphics.RectPath(r)
			err = cur.Clip.ClipToPath(p.Transformed(dt))
		}
	}
	c.clipErr("ClipToRectangle", err)
	return !cur.Clip.IsEmpty()
}

// ClipToRectangleList intersects the clip with the union of list.
func (c *Context) ClipToRectangleList(list graphics.RectList) bool {
	cur := c.stack.Current()
	dt := c.deviceTransform()
	var err error
	if dt.IsAxisAligned() {
		var dev graphics.RectList
		for _, r := range list.Rects() {
			dev.Add(dt.TransformRect(r))
		}
		err = cur.Clip.ClipToRectList(dev)
	} else {
		var p graphics.Path
		for _, r := range list.Rects() {
			p.AddRectangle(r)
		}
		err = cur.Clip.ClipToPath(p.Transformed(dt))
	}
	c.clipErr("ClipToRectangleList", err)
	return !cur.Clip.IsEmpty()
}

// ExcludeClipRectangle removes r from the clip. Under a rotating or
// shearing transform the device-space bounding box of r is removed, which
// may exclude slightly more than r.
func (c *Context) ExcludeClipRectangle(r graphics.Rect) {
	cur := c.stack.Current()
	if r.IsFinite() && r.IsEmpty() {
		return
	}
	c.clipErr("ExcludeClipRectangle", cur.Clip.Exclude(c.deviceTransform().TransformRect(r)))
}

// ClipToPath intersects the clip with p drawn through t.
func (c *Context) ClipToPath(p graphics.Path, t graphics.Affine) {
	cur := c.stack.Current()
	dev := p.Transformed(t.Multiply(c.deviceTransform()))
	c.clipErr("ClipToPath", cur.Clip.ClipToPath(dev))
}

// ClipToImageAlpha intersects the clip with the non-transparent pixels of
// img drawn through t. The mask is approximated by the bounds of those
// pixels.
func (c *Context) ClipToImageAlpha(img graphics.Image, t graphics.Affine) {
	cur := c.stack.Current()
	var bounds graphics.Rect
	if img != nil && img.Image() != nil {
		bounds = graphics.OpaqueBounds(img.Image())
	}
	if bounds.IsEmpty() {
		// A fully transparent mask hides everything.
		_ = cur.Clip.ClipToRect(graphics.Rect{})
		return
	}
	p := graphics.RectPath(bounds)
	c.clipErr("ClipToImageAlpha", cur.Clip.ClipToPath(p.Transformed(t.Multiply(c.deviceTransform()))))
}

// ClipRegionIntersects reports whether r, in user space, overlaps the
// clip.
func (c *Context) ClipRegionIntersects(r graphics.Rect) bool {
	return c.stack.Current().Clip.Intersects(c.deviceTransform().TransformRect(r))
}

// ClipBounds returns the bounds of the clip in user space.
func (c *Context) ClipBounds() graphics.Rect {
	cur := c.stack.Current()
	if cur.Clip.IsEmpty() {
		return graphics.Rect{}
	}
	inv, ok := c.deviceTransform().Invert()
	if !ok {
		return graphics.Rect{}
	}
	return inv.TransformRect(cur.Clip.Bounds())
}

// IsClipEmpty reports whether the clip hides everything.
func (c *Context) IsClipEmpty() bool {
	return c.stack.Current().Clip.IsEmpty()
}
