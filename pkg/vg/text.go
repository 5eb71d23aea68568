package vg

import (
	"github.com/opd-ai/go-vgbridge/internal/backend"
	"github.com/opd-ai/go-vgbridge/internal/state"
	"github.com/opd-ai/go-vgbridge/pkg/graphics"
)

// textBounds returns a device-space box around text of the given advance
// drawn with its baseline origin at t.
func (c *Context) textBounds(f graphics.Font, advance float64, t graphics.Affine) graphics.Rect {
	size := f.EffectiveSize()
	box := graphics.NewRect(0, -size, advance, size*1.5)
	if face, err := c.registry.Face(f); err == nil {
		m := face.Metrics(size)
		box = graphics.NewRect(0, -m.Ascent, advance, m.Ascent+m.Descent)
	}
	return t.TransformRect(box)
}

func (c *Context) drawTextRun(cur *state.DrawingState, text string, f graphics.Font, colour graphics.Colour, t graphics.Affine, advance float64) {
	if colour.IsTransparent() {
		c.metrics.culled.Add(1)
		return
	}
	for _, s := range c.scissors(cur, c.textBounds(f, advance, t)) {
		c.b.DrawText(backend.TextCommand{Text: text, Font: f, Transform: t, Colour: colour, Scissor: s})
		c.metrics.textRuns.Add(1)
	}
}

// DrawGlyph draws glyph g of the current font with its baseline origin at
// t. A glyph with no known character is drawn as a placeholder.
func (c *Context) DrawGlyph(g graphics.GlyphID, t graphics.Affine) {
	cur := c.stack.Current()
	f := cur.Font
	r, err := c.translator.GlyphToRune(f, g)
	if err != nil {
		c.report(KindGlyphNotFound, "DrawGlyph", err, "glyph", int(g), "font", f.String())
		r = c.translator.Placeholder(f)
	}
	var advance float64
	if face, ferr := c.registry.Face(f); ferr == nil {
		advance = face.Advance(r, f.EffectiveSize())
	}
	c.drawTextRun(cur, string(r), f, textColour(cur), t.Multiply(c.deviceTransform()), advance)
}

// DrawTextLayout lays out s inside area and draws one text run per laid
// out run. Runs without a colour attribute use the current fill. It
// reports whether layout succeeded.
func (c *Context) DrawTextLayout(s *graphics.AttributedString, area graphics.Rect) bool {
	if s == nil || s.Text == "" {
		return true
	}
	cur := c.stack.Current()
	l, err := c.layout.Layout(s, cur.Font, area)
	if err != nil {
		c.logger.Warn("text layout failed", "error", err, "font", cur.Font.String())
		return false
	}
	dt := c.deviceTransform()
	base := textColour(cur)
	for _, run := range l.Runs() {
		col := base
		if run.Colour != nil {
			col = run.Colour.WithMultipliedAlpha(cur.Opacity)
		}
		t := graphics.Translation(run.X, run.Baseline).Multiply(dt)
		c.drawTextRun(cur, run.Text, run.Font, col, t, run.Width)
	}
	return true
}
