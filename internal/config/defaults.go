package config

import (
	"github.com/opd-ai/go-vgbridge/internal/glyphs"
	"github.com/opd-ai/go-vgbridge/internal/texcache"
	"github.com/opd-ai/go-vgbridge/pkg/graphics"
)

// Default values for configuration options.
const (
	// DefaultWidth is the default window width in logical pixels.
	DefaultWidth = 400
	// DefaultHeight is the default window height in logical pixels.
	DefaultHeight = 300
	// DefaultTitle is the default window title.
	DefaultTitle = "vgbridge"
	// DefaultBackground is the colour frames are cleared to.
	DefaultBackground = "black"
	// DefaultScale is the default number of physical pixels per logical pixel.
	DefaultScale = 1.0
	// DefaultTPS is the default number of paint calls per second.
	DefaultTPS = 60
	// MaxTPS is the highest accepted TPS.
	MaxTPS = 240
	// DefaultLogLevel is the default log level.
	DefaultLogLevel = "info"
)

// DefaultConfig returns a Config with default values. Fonts fall back to
// the embedded Go typeface.
func DefaultConfig() Config {
	return Config{
		Window: WindowConfig{
			Width:      DefaultWidth,
			Height:     DefaultHeight,
			Title:      DefaultTitle,
			Resizable:  true,
			Background: DefaultBackground,
		},
		Render: RenderConfig{
			Scale:          DefaultScale,
			ImageCacheSize: texcache.DefaultCapacity,
			TPS:            DefaultTPS,
		},
		Font: FontConfig{
			Typeface: glyphs.TypefaceSans,
			Size:     graphics.DefaultFontSize,
		},
		Script: ScriptConfig{
			Watch: true,
		},
		Log: LogConfig{
			Level: DefaultLogLevel,
		},
	}
}
