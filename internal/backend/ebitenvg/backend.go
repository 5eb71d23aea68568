// Package ebitenvg implements the vector backend on top of Ebiten's
// triangle rasteriser. Paths are tessellated with the vector package,
// gradients are evaluated per vertex and text is drawn through text/v2.
//
// Each frame renders into an offscreen image which is copied to the target
// on EndFrame, so a cancelled frame leaves the target untouched. Without a
// target set by SetTarget the backend keeps its own, returned by Output.
package ebitenvg

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/opd-ai/go-vgbridge/internal/backend"
	"github.com/opd-ai/go-vgbridge/internal/glyphs"
	"github.com/opd-ai/go-vgbridge/pkg/graphics"
)

var (
	// ErrNotInFrame is returned by EndFrame without a matching BeginFrame.
	ErrNotInFrame = errors.New("ebitenvg: no frame in progress")
	// ErrOpenLayers is returned by EndFrame while layers are still pushed.
	ErrOpenLayers = errors.New("ebitenvg: frame ended with open layers")
)

// whitePixel is the source image for untextured triangles.
var whitePixel = func() *ebiten.Image {
	img := ebiten.NewImage(1, 1)
	img.Fill(graphics.White)
	return img
}()

type texture struct {
	img *ebiten.Image
	// sx and sy map texture pixels back to source image pixels when the
	// upload was downscaled.
	sx, sy float64
}

// Stats counts work done in the most recent frame.
type Stats struct {
	DrawCalls int
	Textures  int
	Layers    int
}

// Option configures a Backend.
type Option func(*Backend)

// WithMaxTextureSize sets the largest texture edge before uploads are
// downscaled.
func WithMaxTextureSize(n int) Option {
	return func(b *Backend) {
		if n > 0 {
			b.maxTexture = n
		}
	}
}

// WithUploadQuality sets the filter used when downscaling uploads.
func WithUploadQuality(q graphics.ResamplingQuality) Option {
	return func(b *Backend) {
		b.uploadQuality = q
	}
}

// Backend renders commands with Ebiten. It is not safe for concurrent use.
type Backend struct {
	registry      *glyphs.Registry
	maxTexture    int
	uploadQuality graphics.ResamplingQuality

	target    *ebiten.Image
	ownTarget bool
	frame     *ebiten.Image
	layers  []*ebiten.Image
	inFrame bool
	width   int
	height  int

	textures map[backend.TextureID]*texture
	nextID   backend.TextureID
	sources  map[string]*text.GoTextFaceSource

	stats Stats
}

var _ backend.Backend = (*Backend)(nil)

// New creates a backend that resolves fonts through reg.
func New(reg *glyphs.Registry, opts ...Option) *Backend {
	b := &Backend{
		registry:      reg,
		maxTexture:    DefaultMaxTextureSize,
		uploadQuality: graphics.ResampleMedium,
		textures:      make(map[backend.TextureID]*texture),
		sources:       make(map[string]*text.GoTextFaceSource),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// SetTarget sets the image that finished frames are copied to. nil makes
// the backend allocate its own target at the next EndFrame.
func (b *Backend) SetTarget(img *ebiten.Image) {
	b.releaseTarget()
	b.target = img
}

// Frame returns the offscreen image of the current frame. It is cleared by
// CancelFrame.
func (b *Backend) Frame() *ebiten.Image {
	return b.frame
}

// Output returns the target holding the last completed frame, or nil
// before the first EndFrame. Cancelled frames do not touch it.
func (b *Backend) Output() *ebiten.Image {
	return b.target
}

func (b *Backend) releaseTarget() {
	if b.ownTarget && b.target != nil {
		b.target.Deallocate()
	}
	b.target = nil
	b.ownTarget = false
}

// Stats returns the counters of the last frame.
func (b *Backend) Stats() Stats {
	s := b.stats
	s.Textures = len(b.textures)
	return s
}

// InFrame reports whether a frame is in progress.
func (b *Backend) InFrame() bool { return b.inFrame }

// LayerDepth returns the number of pushed layers.
func (b *Backend) LayerDepth() int {
	if len(b.layers) == 0 {
		return 0
	}
	return len(b.layers) - 1
}

// BeginFrame implements backend.Backend.
func (b *Backend) BeginFrame(info backend.FrameInfo) {
	w, h := max(info.Width, 1), max(info.Height, 1)
	if b.frame == nil || b.width != w || b.height != h {
		if b.frame != nil {
			b.frame.Deallocate()
		}
		b.frame = ebiten.NewImage(w, h)
		b.width, b.height = w, h
	}
	b.frame.Clear()
	if !info.Background.IsTransparent() {
		b.frame.Fill(info.Background)
	}
	b.releaseLayers()
	b.layers = []*ebiten.Image{b.frame}
	b.inFrame = true
	b.stats = Stats{}
}

// EndFrame implements backend.Backend.
func (b *Backend) EndFrame() error {
	if !b.inFrame {
		return ErrNotInFrame
	}
	if len(b.layers) > 1 {
		return fmt.Errorf("%w: %d", ErrOpenLayers, len(b.layers)-1)
	}
	b.inFrame = false
	b.layers = nil
	if b.target == nil || (b.ownTarget && b.target.Bounds() != b.frame.Bounds()) {
		b.releaseTarget()
		b.target = ebiten.NewImage(b.frame.Bounds().Dx(), b.frame.Bounds().Dy())
		b.ownTarget = true
	}
	op := &ebiten.DrawImageOptions{Blend: ebiten.BlendCopy}
	b.target.DrawImage(b.frame, op)
	return nil
}

// CancelFrame implements backend.Backend.
func (b *Backend) CancelFrame() {
	b.releaseLayers()
	b.layers = nil
	b.inFrame = false
	if b.frame != nil {
		b.frame.Clear()
	}
}

// Invalidate implements backend.Backend. The frame image is reallocated at
// the next BeginFrame; the target keeps the last completed frame until
// then.
func (b *Backend) Invalidate(width, height int) {
	b.CancelFrame()
	if b.frame != nil {
		b.frame.Deallocate()
		b.frame = nil
	}
	b.width, b.height = width, height
}

func (b *Backend) releaseLayers() {
	for i := 1; i < len(b.layers); i++ {
		b.layers[i].Deallocate()
	}
}

// CreateTexture implements backend.Backend.
func (b *Backend) CreateTexture(img image.Image) (id backend.TextureID, err error) {
	prepared, sx, sy, err := Prepare(img, b.maxTexture, b.uploadQuality)
	if err != nil {
		return 0, err
	}
	defer func() {
		// Ebiten panics on allocation failure.
		if r := recover(); r != nil {
			id, err = 0, fmt.Errorf("ebitenvg: texture allocation failed: %v", r)
		}
	}()
	tex := ebiten.NewImageFromImage(prepared)
	b.nextID++
	b.textures[b.nextID] = &texture{img: tex, sx: sx, sy: sy}
	return b.nextID, nil
}

// DeleteTexture implements backend.Backend.
func (b *Backend) DeleteTexture(id backend.TextureID) {
	tex, ok := b.textures[id]
	if !ok {
		return
	}
	tex.img.Deallocate()
	delete(b.textures, id)
}

// current returns the image drawing goes to, limited to scissor.
func (b *Backend) current(scissor graphics.Rect) (*ebiten.Image, bool) {
	if !b.inFrame || len(b.layers) == 0 {
		return nil, false
	}
	top := b.layers[len(b.layers)-1]
	r := snapScissor(scissor).Intersect(top.Bounds())
	if r.Empty() {
		return nil, false
	}
	if r == top.Bounds() {
		return top, true
	}
	// Sub-images share the coordinate space of their parent.
	return top.SubImage(r).(*ebiten.Image), true
}

// snapScissor rounds every edge of r to the nearest device pixel. Clip
// pieces that share an edge snap to the same pixel boundary, so they
// neither overlap nor leave a gap.
func snapScissor(r graphics.Rect) image.Rectangle {
	return image.Rect(
		int(math.Round(r.X)),
		int(math.Round(r.Y)),
		int(math.Round(r.Right())),
		int(math.Round(r.Bottom())),
	)
}

// toVectorPath converts a device-space path.
func toVectorPath(p *graphics.Path) *vector.Path {
	var vp vector.Path
	for _, s := range p.Segments() {
		switch s.Type {
		case graphics.MoveTo:
			vp.MoveTo(float32(s.X), float32(s.Y))
		case graphics.LineTo:
			vp.LineTo(float32(s.X), float32(s.Y))
		case graphics.QuadTo:
			vp.QuadTo(float32(s.X1), float32(s.Y1), float32(s.X), float32(s.Y))
		case graphics.CubicTo:
			vp.CubicTo(float32(s.X1), float32(s.Y1), float32(s.X2), float32(s.Y2), float32(s.X), float32(s.Y))
		case graphics.Close:
			vp.Close()
		}
	}
	return &vp
}

func ebitenFilter(f backend.Filter) ebiten.Filter {
	if f == backend.FilterNearest {
		return ebiten.FilterNearest
	}
	return ebiten.FilterLinear
}

func ebitenBlend(bl backend.Blend) ebiten.Blend {
	if bl == backend.BlendCopy {
		return ebiten.BlendCopy
	}
	return ebiten.BlendSourceOver
}

// applyPaint colours the vertices and returns the source image for the
// draw. ok is false when the paint cannot be drawn.
func (b *Backend) applyPaint(vs []ebiten.Vertex, p backend.Paint) (src *ebiten.Image, ok bool) {
	alpha := float32(p.Alpha)
	switch p.Kind {
	case backend.PaintSolid:
		r, g, bl, a := p.Colour.Floats()
		for i := range vs {
			vs[i].ColorR, vs[i].ColorG, vs[i].ColorB, vs[i].ColorA = r, g, bl, a*alpha
		}
		return whitePixel, true
	case backend.PaintLinearGradient, backend.PaintRadialGradient:
		if p.Gradient == nil {
			return nil, false
		}
		for i := range vs {
			c := p.Gradient.ColourAtPoint(float64(vs[i].DstX), float64(vs[i].DstY))
			r, g, bl, a := c.Floats()
			vs[i].ColorR, vs[i].ColorG, vs[i].ColorB, vs[i].ColorA = r, g, bl, a*alpha
		}
		return whitePixel, true
	case backend.PaintImage:
		tex, found := b.textures[p.Texture]
		if !found {
			return nil, false
		}
		inv, invertible := p.ImageTransform.Invert()
		if !invertible {
			return nil, false
		}
		for i := range vs {
			sx, sy := inv.TransformPoint(float64(vs[i].DstX), float64(vs[i].DstY))
			vs[i].SrcX, vs[i].SrcY = float32(sx/tex.sx), float32(sy/tex.sy)
			vs[i].ColorR, vs[i].ColorG, vs[i].ColorB, vs[i].ColorA = 1, 1, 1, alpha
		}
		return tex.img, true
	}
	return nil, false
}

func (b *Backend) drawTriangles(dst *ebiten.Image, vs []ebiten.Vertex, is []uint16, p backend.Paint, opts *ebiten.DrawTrianglesOptions) {
	if len(is) == 0 {
		return
	}
	src, ok := b.applyPaint(vs, p)
	if !ok {
		return
	}
	if p.Kind == backend.PaintImage {
		opts.Address = ebiten.AddressRepeat
		opts.Filter = ebitenFilter(p.Filter)
	}
	dst.DrawTriangles(vs, is, src, opts)
	b.stats.DrawCalls++
}

// Fill implements backend.Backend.
func (b *Backend) Fill(cmd backend.FillCommand) {
	dst, ok := b.current(cmd.Scissor)
	if !ok {
		return
	}
	vs, is := toVectorPath(&cmd.Path).AppendVerticesAndIndicesForFilling(nil, nil)
	rule := ebiten.FillRuleNonZero
	if cmd.Rule == backend.EvenOdd {
		rule = ebiten.FillRuleEvenOdd
	}
	b.drawTriangles(dst, vs, is, cmd.Paint, &ebiten.DrawTrianglesOptions{
		AntiAlias: cmd.AntiAlias,
		FillRule:  rule,
		Blend:     ebitenBlend(cmd.Blend),
	})
}

// Stroke implements backend.Backend.
func (b *Backend) Stroke(cmd backend.StrokeCommand) {
	dst, ok := b.current(cmd.Scissor)
	if !ok || cmd.Width <= 0 {
		return
	}
	vs, is := toVectorPath(&cmd.Path).AppendVerticesAndIndicesForStroke(nil, nil, &vector.StrokeOptions{
		Width:      float32(cmd.Width),
		LineCap:    vector.LineCapButt,
		LineJoin:   vector.LineJoinMiter,
		MiterLimit: 10,
	})
	b.drawTriangles(dst, vs, is, cmd.Paint, &ebiten.DrawTrianglesOptions{
		AntiAlias: cmd.AntiAlias,
	})
}

// geoM converts an affine transform.
func geoM(a graphics.Affine) ebiten.GeoM {
	var g ebiten.GeoM
	g.SetElement(0, 0, a.XX)
	g.SetElement(0, 1, a.XY)
	g.SetElement(0, 2, a.X0)
	g.SetElement(1, 0, a.YX)
	g.SetElement(1, 1, a.YY)
	g.SetElement(1, 2, a.Y0)
	return g
}

// DrawImage implements backend.Backend.
func (b *Backend) DrawImage(cmd backend.ImageCommand) {
	dst, ok := b.current(cmd.Scissor)
	if !ok {
		return
	}
	tex, found := b.textures[cmd.Texture]
	if !found {
		return
	}
	op := &ebiten.DrawImageOptions{Filter: ebitenFilter(cmd.Filter)}
	op.GeoM.Scale(tex.sx, tex.sy)
	op.GeoM.Concat(geoM(cmd.Transform))
	op.ColorScale.ScaleAlpha(float32(cmd.Alpha))
	dst.DrawImage(tex.img, op)
	b.stats.DrawCalls++
}

// faceSource returns the text/v2 source for a registry face, parsing it on
// first use.
func (b *Backend) faceSource(face *glyphs.Face) (*text.GoTextFaceSource, error) {
	if src, ok := b.sources[face.Key()]; ok {
		return src, nil
	}
	src, err := text.NewGoTextFaceSource(bytes.NewReader(face.Data()))
	if err != nil {
		return nil, fmt.Errorf("failed to load face %s: %w", face.Key(), err)
	}
	b.sources[face.Key()] = src
	return src, nil
}

// DrawText implements backend.Backend.
func (b *Backend) DrawText(cmd backend.TextCommand) {
	dst, ok := b.current(cmd.Scissor)
	if !ok || cmd.Text == "" {
		return
	}
	face, err := b.registry.Face(cmd.Font)
	if err != nil {
		return
	}
	src, err := b.faceSource(face)
	if err != nil {
		return
	}
	tf := &text.GoTextFace{Source: src, Size: cmd.Font.EffectiveSize()}

	op := &text.DrawOptions{}
	// text/v2 positions the top of the line box at the origin.
	op.GeoM.Translate(0, -tf.Metrics().HAscent)
	op.GeoM.Concat(geoM(cmd.Transform))
	op.ColorScale.ScaleWithColor(cmd.Colour)
	if !cmd.Transform.IsOnlyTranslation() {
		op.Filter = ebiten.FilterLinear
	}
	text.Draw(dst, cmd.Text, tf, op)
	b.stats.DrawCalls++
}

// PushLayer implements backend.Backend.
func (b *Backend) PushLayer() {
	if !b.inFrame {
		return
	}
	b.layers = append(b.layers, ebiten.NewImage(b.width, b.height))
	if d := len(b.layers) - 1; d > b.stats.Layers {
		b.stats.Layers = d
	}
}

// PopLayer implements backend.Backend.
func (b *Backend) PopLayer(alpha float64) {
	if !b.inFrame || len(b.layers) < 2 {
		return
	}
	top := b.layers[len(b.layers)-1]
	b.layers = b.layers[:len(b.layers)-1]
	op := &ebiten.DrawImageOptions{}
	op.ColorScale.ScaleAlpha(float32(alpha))
	b.layers[len(b.layers)-1].DrawImage(top, op)
	top.Deallocate()
	b.stats.DrawCalls++
}
