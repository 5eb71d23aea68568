package vg

import (
	"github.com/opd-ai/go-vgbridge/internal/glyphs"
	"github.com/opd-ai/go-vgbridge/internal/texcache"
	"github.com/opd-ai/go-vgbridge/pkg/graphics"
)

// DefaultImageCacheSize is the number of textures kept alive by default.
const DefaultImageCacheSize = texcache.DefaultCapacity

// DefaultTypefaceName is the typeface used when a font names none.
const DefaultTypefaceName = glyphs.TypefaceSans

type options struct {
	logger          Logger
	onError         ErrorHandler
	metrics         *Metrics
	cacheSize       int
	scale           float64
	registry        *glyphs.Registry
	defaultTypeface string
	defaultFontSize float64
	background      graphics.Colour
	antiAlias       bool
}

func defaultOptions() options {
	return options{
		logger:          NopLogger(),
		cacheSize:       DefaultImageCacheSize,
		scale:           1,
		defaultTypeface: DefaultTypefaceName,
		defaultFontSize: graphics.DefaultFontSize,
		antiAlias:       true,
	}
}

// Option configures a Context.
type Option func(*options)

// WithLogger sets the logger for recoverable errors and lifecycle events.
// Without it nothing is logged.
func WithLogger(l Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithErrorHandler registers fn to receive every reported error.
func WithErrorHandler(fn ErrorHandler) Option {
	return func(o *options) {
		o.onError = fn
	}
}

// WithMetrics sets the metrics collector. Without it a private collector
// is used, reachable through Context.Metrics.
func WithMetrics(m *Metrics) Option {
	return func(o *options) {
		if m != nil {
			o.metrics = m
		}
	}
}

// ImageCacheSize sets the maximum number of live textures.
func ImageCacheSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.cacheSize = n
		}
	}
}

// WithScaleFactor sets the ratio of device pixels to logical pixels.
func WithScaleFactor(s float64) Option {
	return func(o *options) {
		if s > 0 {
			o.scale = s
		}
	}
}

// WithRegistry shares a typeface registry, for example one with extra
// fonts loaded from disk.
func WithRegistry(r *glyphs.Registry) Option {
	return func(o *options) {
		o.registry = r
	}
}

// WithDefaultFont sets the font of the initial drawing state.
func WithDefaultFont(typeface string, size float64) Option {
	return func(o *options) {
		if typeface != "" {
			o.defaultTypeface = typeface
		}
		if size > 0 {
			o.defaultFontSize = size
		}
	}
}

// WithBackground sets the colour each frame is cleared to.
func WithBackground(c graphics.Colour) Option {
	return func(o *options) {
		o.background = c
	}
}

// WithAntiAlias toggles anti-aliasing of path fills and strokes.
func WithAntiAlias(on bool) Option {
	return func(o *options) {
		o.antiAlias = on
	}
}
