package vg

import (
	"fmt"
	"math"
	"time"

	"github.com/opd-ai/go-vgbridge/internal/backend"
	"github.com/opd-ai/go-vgbridge/internal/clip"
	"github.com/opd-ai/go-vgbridge/internal/glyphs"
	"github.com/opd-ai/go-vgbridge/internal/state"
	"github.com/opd-ai/go-vgbridge/internal/texcache"
	"github.com/opd-ai/go-vgbridge/internal/textlayout"
	"github.com/opd-ai/go-vgbridge/pkg/graphics"
)

type layer struct {
	opacity float64
	// depth is the state stack depth after the layer's implicit save.
	depth int
}

// Context is a retained-mode drawing surface that issues immediate-mode
// backend commands. It must be used from a single goroutine, the one that
// owns the backend.
type Context struct {
	binding *backend.Binding
	b       backend.Backend

	width, height int
	scale         float64
	background    graphics.Colour
	antiAlias     bool

	stack      *state.Stack
	cache      *texcache.Cache
	registry   *glyphs.Registry
	translator *glyphs.Translator
	layout     *textlayout.Engine
	baseFont   graphics.Font

	layers     []layer
	inFrame    bool
	frameStart time.Time
	closed     bool

	logger  Logger
	onError ErrorHandler
	metrics *Metrics
}

// New binds b and creates a context for a surface of width by height
// logical pixels. Only one context may be bound per process; a second New
// before Close fails with ErrBackendInUse.
func New(b backend.Backend, width, height int, opts ...Option) (*Context, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	binding, err := backend.Acquire(b)
	if err != nil {
		return nil, fmt.Errorf("failed to bind backend: %w", err)
	}
	if o.registry == nil {
		o.registry = glyphs.NewRegistry()
	}
	if o.metrics == nil {
		o.metrics = NewMetrics()
	}

	c := &Context{
		binding:    binding,
		b:          b,
		width:      width,
		height:     height,
		scale:      o.scale,
		background: o.background,
		antiAlias:  o.antiAlias,
		registry:   o.registry,
		translator: glyphs.NewTranslator(o.registry),
		layout:     textlayout.New(o.registry),
		baseFont:   graphics.NewFont(o.defaultTypeface, o.defaultFontSize, graphics.StylePlain),
		logger:     o.logger,
		onError:    o.onError,
		metrics:    o.metrics,
	}
	c.cache = texcache.New(b, o.cacheSize, texcache.WithEvictHook(func(key uint64, id backend.TextureID) {
		c.logger.Debug("texture evicted", "key", key, "texture", id)
	}))
	c.stack = state.NewStack(state.Default(c.surface(), c.baseFont))
	c.logger.Debug("context created", "width", width, "height", height, "scale", c.scale, "cache", o.cacheSize)
	return c, nil
}

// Close releases every cached texture and the backend binding. It is safe
// to call more than once.
func (c *Context) Close() error {
	if c.closed {
		return nil
	}
	if c.inFrame {
		c.b.CancelFrame()
		c.inFrame = false
	}
	c.cache.Clear()
	c.metrics.recordCache(c.cache.Stats(), 0)
	c.stack.Reset(state.Default(c.surface(), c.baseFont))
	c.layers = nil
	c.binding.Release()
	c.closed = true
	c.logger.Debug("context closed")
	return nil
}

// surface returns the device-space surface rectangle.
func (c *Context) surface() graphics.Rect {
	w, h := c.deviceSize()
	return graphics.NewRect(0, 0, float64(w), float64(h))
}

func (c *Context) deviceSize() (int, int) {
	return int(math.Ceil(float64(c.width) * c.scale)), int(math.Ceil(float64(c.height) * c.scale))
}

// deviceTransform maps user space to device pixels.
func (c *Context) deviceTransform() graphics.Affine {
	return c.stack.Current().Transform.Multiply(graphics.Scaling(c.scale, c.scale))
}

// report classifies err, logs it and forwards it to the error handler.
func (c *Context) report(kind ErrorKind, op string, err error, args ...any) *Error {
	e := newError(kind, op, err)
	c.metrics.recordError(kind)
	logArgs := append([]any{"op", op, "kind", kind.String(), "error", err}, args...)
	if kind.Fatal() {
		c.logger.Error("drawing error", logArgs...)
	} else {
		c.logger.Warn("drawing error", logArgs...)
	}
	if c.onError != nil {
		c.onError(e)
	}
	return e
}

// IsVectorDevice reports whether output is resolution independent. The
// backend rasterises, so it is always false.
func (c *Context) IsVectorDevice() bool { return false }

// PhysicalPixelScaleFactor returns device pixels per logical pixel under
// the current transform.
func (c *Context) PhysicalPixelScaleFactor() float64 {
	return c.deviceTransform().ScaleFactor()
}

// Size returns the logical surface size.
func (c *Context) Size() (width, height int) { return c.width, c.height }

// Metrics returns the context's metrics collector.
func (c *Context) Metrics() *Metrics { return c.metrics }

// Registry returns the typeface registry.
func (c *Context) Registry() *glyphs.Registry { return c.registry }

// DefaultTypefaceName returns the typeface used when a font names none.
func (c *Context) DefaultTypefaceName() string { return c.registry.Default() }

// Depth returns the number of entries on the state stack.
func (c *Context) Depth() int { return c.stack.Depth() }

// LayerDepth returns the number of open transparency layers.
func (c *Context) LayerDepth() int { return len(c.layers) }

// InFrame reports whether BeginFrame has been called without a matching
// EndFrame.
func (c *Context) InFrame() bool { return c.inFrame }

// CacheStats returns the image cache counters.
func (c *Context) CacheStats() texcache.Stats { return c.cache.Stats() }

// CachedImages returns the number of live textures.
func (c *Context) CachedImages() int { return c.cache.Len() }

// --- Frames ---

// BeginFrame starts a frame. Saved states left over from an earlier frame
// are discarded.
func (c *Context) BeginFrame() error {
	if c.closed {
		return ErrClosed
	}
	if c.inFrame {
		return ErrFrameInProgress
	}
	for c.stack.Depth() > 1 {
		_ = c.stack.Restore()
	}
	c.layers = nil
	w, h := c.deviceSize()
	c.b.BeginFrame(backend.FrameInfo{Width: w, Height: h, ScaleFactor: c.scale, Background: c.background})
	c.inFrame = true
	c.frameStart = time.Now()
	return nil
}

// EndFrame finishes the frame. Open transparency layers abort the frame
// with ErrTransparencyLayerMismatch.
func (c *Context) EndFrame() error {
	if c.closed {
		return ErrClosed
	}
	if !c.inFrame {
		return ErrNoFrame
	}
	if n := len(c.layers); n > 0 {
		return c.abortFrame("EndFrame", fmt.Errorf("%w: %d layers still open", ErrTransparencyLayerMismatch, n))
	}
	c.inFrame = false
	if err := c.b.EndFrame(); err != nil {
		c.metrics.cancelledFrames.Add(1)
		return fmt.Errorf("failed to end frame: %w", err)
	}
	c.metrics.frames.Add(1)
	c.metrics.RecordFrameLatency(time.Since(c.frameStart))
	return nil
}

// abortFrame cancels the backend frame after a usage error and returns the
// classified error.
func (c *Context) abortFrame(op string, err error) error {
	e := c.report(KindTransparencyLayerMismatch, op, err, "layers", len(c.layers))
	c.CancelFrame()
	return e
}

// CancelFrame abandons the current frame. Nothing drawn since BeginFrame
// reaches the target, and open layers and saved states are discarded. It
// does nothing outside a frame.
func (c *Context) CancelFrame() {
	if !c.inFrame {
		return
	}
	c.b.CancelFrame()
	c.inFrame = false
	c.layers = nil
	for c.stack.Depth() > 1 {
		_ = c.stack.Restore()
	}
	c.metrics.cancelledFrames.Add(1)
}

// Resized updates the surface size. A frame in progress is cancelled and
// size-dependent backend state is invalidated; cached textures are kept.
// The base clip follows the new surface even while states are saved.
func (c *Context) Resized(width, height int) {
	c.CancelFrame()
	c.width, c.height = width, height
	w, h := c.deviceSize()
	c.b.Invalidate(w, h)
	c.stack.Base().Clip = clip.FromRect(c.surface())
	c.logger.Debug("surface resized", "width", width, "height", height)
}

// RemoveCachedImages releases every cached texture. Call it before the
// backend is torn down.
func (c *Context) RemoveCachedImages() {
	c.cache.Clear()
	c.metrics.recordCache(c.cache.Stats(), 0)
}

// --- State ---

// SaveState pushes a copy of the current state.
func (c *Context) SaveState() {
	c.stack.Save()
}

// RestoreState pops the last saved state. Without one the base state is
// kept and a StateUnderflow warning is reported.
func (c *Context) RestoreState() {
	if len(c.layers) > 0 && c.stack.Depth() <= c.layers[len(c.layers)-1].depth {
		// The layer's own save is popped by EndTransparencyLayer.
		c.report(KindStateUnderflow, "RestoreState", ErrStateUnderflow, "layers", len(c.layers))
		return
	}
	if err := c.stack.Restore(); err != nil {
		c.report(KindStateUnderflow, "RestoreState", err)
	}
}

// SetOrigin moves the origin of user space by (x, y).
func (c *Context) SetOrigin(x, y float64) {
	c.stack.SetOrigin(x, y)
}

// AddTransform prepends t to the current transform, so t is applied to
// user coordinates before any existing transform.
func (c *Context) AddTransform(t graphics.Affine) {
	c.stack.AddTransform(t)
}

// Transform returns the current user-to-logical transform.
func (c *Context) Transform() graphics.Affine {
	return c.stack.Current().Transform
}

// SetFill sets the paint for fills and text.
func (c *Context) SetFill(f graphics.FillType) {
	c.stack.SetFill(f)
}

// Fill returns the current paint.
func (c *Context) Fill() graphics.FillType {
	return c.stack.Current().Fill
}

// SetOpacity sets the opacity multiplied into every draw, clamped to [0, 1].
func (c *Context) SetOpacity(a float64) {
	c.stack.SetOpacity(a)
}

// Opacity returns the current opacity.
func (c *Context) Opacity() float64 {
	return c.stack.Current().Opacity
}

// SetInterpolationQuality sets the filter used when images are scaled.
func (c *Context) SetInterpolationQuality(q graphics.ResamplingQuality) {
	c.stack.SetInterpolation(q)
}

// SetFont sets the font for text drawing.
func (c *Context) SetFont(f graphics.Font) {
	c.stack.SetFont(f)
}

// Font returns the current font.
func (c *Context) Font() graphics.Font {
	return c.stack.Current().Font
}

// --- Transparency layers ---

// BeginTransparencyLayer saves the state and redirects drawing to an
// offscreen layer that EndTransparencyLayer composites at opacity. Outside
// a frame it reports a layer mismatch and does nothing.
func (c *Context) BeginTransparencyLayer(opacity float64) {
	if !c.inFrame {
		c.report(KindTransparencyLayerMismatch, "BeginTransparencyLayer", ErrNoFrame)
		return
	}
	if math.IsNaN(opacity) {
		opacity = 0
	}
	opacity = math.Max(0, math.Min(1, opacity))
	c.stack.Save()
	c.layers = append(c.layers, layer{opacity: opacity, depth: c.stack.Depth()})
	c.b.PushLayer()
}

// EndTransparencyLayer composites the innermost layer and restores the
// state saved by its BeginTransparencyLayer. Without an open layer the
// frame is cancelled and ErrTransparencyLayerMismatch is returned.
func (c *Context) EndTransparencyLayer() error {
	n := len(c.layers)
	if n == 0 {
		if !c.inFrame {
			return c.report(KindTransparencyLayerMismatch, "EndTransparencyLayer", ErrTransparencyLayerMismatch)
		}
		return c.abortFrame("EndTransparencyLayer", ErrTransparencyLayerMismatch)
	}
	l := c.layers[n-1]
	c.layers = c.layers[:n-1]
	for c.stack.Depth() >= l.depth && c.stack.Depth() > 1 {
		_ = c.stack.Restore()
	}
	c.b.PopLayer(l.opacity)
	return nil
}
