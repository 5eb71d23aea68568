package graphics

import (
	"fmt"
	"strings"
)

// FontStyle is a bit set of style flags.
type FontStyle int

const (
	// StylePlain is the regular face.
	StylePlain FontStyle = 0
	// StyleBold selects the bold face.
	StyleBold FontStyle = 1 << iota
	// StyleItalic selects the italic face.
	StyleItalic
	// StyleUnderlined draws a line under text.
	StyleUnderlined
)

// String returns a readable style name.
func (s FontStyle) String() string {
	switch s &^ StyleUnderlined {
	case StyleBold:
		return "bold"
	case StyleItalic:
		return "italic"
	case StyleBold | StyleItalic:
		return "bold-italic"
	default:
		return "regular"
	}
}

// ParseFontStyle parses names such as "bold", "bold-italic" or
// "italic underlined". An empty string is StylePlain.
func ParseFontStyle(s string) (FontStyle, error) {
	var style FontStyle
	for _, part := range strings.FieldsFunc(strings.ToLower(s), func(r rune) bool { return r == '-' || r == ' ' || r == ',' }) {
		switch part {
		case "regular", "plain", "normal":
		case "bold":
			style |= StyleBold
		case "italic", "oblique":
			style |= StyleItalic
		case "underlined", "underline":
			style |= StyleUnderlined
		default:
			return 0, fmt.Errorf("unknown font style %q", part)
		}
	}
	return style, nil
}

// Font identifies a typeface at a size and style. Fonts compare by value.
type Font struct {
	Typeface string
	Size     float64
	Style    FontStyle
}

// DefaultFontSize is the size used when a Font has none.
const DefaultFontSize = 14

// NewFont creates a font description.
func NewFont(typeface string, size float64, style FontStyle) Font {
	return Font{Typeface: typeface, Size: size, Style: style}
}

// WithSize returns f at another size.
func (f Font) WithSize(size float64) Font {
	f.Size = size
	return f
}

// EffectiveSize returns Size, or DefaultFontSize when Size is not positive.
func (f Font) EffectiveSize() float64 {
	if f.Size <= 0 {
		return DefaultFontSize
	}
	return f.Size
}

// String returns a description such as "Go Mono 12 bold".
func (f Font) String() string {
	return fmt.Sprintf("%s %g %s", f.Typeface, f.EffectiveSize(), f.Style)
}

// GlyphID is a font-engine glyph index. Indices are only meaningful for the
// typeface that produced them.
type GlyphID int

// ResamplingQuality selects the filter used when images are scaled.
type ResamplingQuality int

const (
	// ResampleLow uses nearest-neighbour sampling.
	ResampleLow ResamplingQuality = iota
	// ResampleMedium uses bilinear filtering.
	ResampleMedium
	// ResampleHigh uses the best filter available.
	ResampleHigh
)
