// Package glyphs manages typefaces and translates font-engine glyph indices
// back to the characters they draw.
package glyphs

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/gomonobolditalic"
	"golang.org/x/image/font/gofont/gomonoitalic"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"

	"github.com/opd-ai/go-vgbridge/pkg/graphics"
)

// Names of the embedded typefaces.
const (
	TypefaceSans = "Go"
	TypefaceMono = "Go Mono"
)

// ErrNoTypeface is returned when neither the requested nor the default
// typeface is registered.
var ErrNoTypeface = errors.New("glyphs: no typeface available")

// Metrics are vertical font metrics in pixels at a given size.
type Metrics struct {
	Ascent  float64
	Descent float64
	Height  float64
}

// Face is one style of a typeface.
type Face struct {
	family string
	style  graphics.FontStyle
	data   []byte
	font   *sfnt.Font

	mu  sync.Mutex
	buf sfnt.Buffer
}

func newFace(family string, style graphics.FontStyle, data []byte) (*Face, error) {
	f, err := sfnt.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font data: %w", err)
	}
	return &Face{family: family, style: style, data: data, font: f}, nil
}

// Key identifies the face uniquely within a registry.
func (f *Face) Key() string {
	return normalize(f.family) + "/" + f.style.String()
}

// Family returns the typeface name the face was registered under.
func (f *Face) Family() string { return f.family }

// Style returns the face style.
func (f *Face) Style() graphics.FontStyle { return f.style }

// Data returns the raw font file bytes.
func (f *Face) Data() []byte { return f.data }

// NumGlyphs returns the number of glyphs in the font.
func (f *Face) NumGlyphs() int { return f.font.NumGlyphs() }

// GlyphIndex returns the glyph for r. ok is false when the font has no
// glyph for r.
func (f *Face) GlyphIndex(r rune) (graphics.GlyphID, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.glyphIndexLocked(r)
}

func (f *Face) glyphIndexLocked(r rune) (graphics.GlyphID, bool) {
	idx, err := f.font.GlyphIndex(&f.buf, r)
	if err != nil || idx == 0 {
		return 0, false
	}
	return graphics.GlyphID(idx), true
}

// HasRune reports whether the font can draw r.
func (f *Face) HasRune(r rune) bool {
	_, ok := f.GlyphIndex(r)
	return ok
}

// Advance returns the horizontal advance of r in pixels at size. Runes the
// font lacks use the advance of the notdef glyph.
func (f *Face) Advance(r rune, size float64) float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	idx, _ := f.glyphIndexLocked(r)
	adv, err := f.font.GlyphAdvance(&f.buf, sfnt.GlyphIndex(idx), toFixed(size), font.HintingNone)
	if err != nil {
		return 0
	}
	return fromFixed(adv)
}

// MeasureString returns the advance width of s in pixels at size.
func (f *Face) MeasureString(s string, size float64) float64 {
	var w float64
	for _, r := range s {
		w += f.Advance(r, size)
	}
	return w
}

// Metrics returns the vertical metrics at size.
func (f *Face) Metrics(size float64) Metrics {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, err := f.font.Metrics(&f.buf, toFixed(size), font.HintingNone)
	if err != nil {
		return Metrics{Ascent: size * 0.8, Descent: size * 0.2, Height: size * 1.2}
	}
	return Metrics{
		Ascent:  fromFixed(m.Ascent),
		Descent: fromFixed(m.Descent),
		Height:  fromFixed(m.Height),
	}
}

func toFixed(v float64) fixed.Int26_6 {
	return fixed.Int26_6(v * 64)
}

func fromFixed(v fixed.Int26_6) float64 {
	return float64(v) / 64
}

type family struct {
	name  string
	faces map[graphics.FontStyle]*Face
}

// face returns the requested style or the closest available one.
func (fam *family) face(style graphics.FontStyle) *Face {
	style &^= graphics.StyleUnderlined
	if f, ok := fam.faces[style]; ok {
		return f
	}
	if style == graphics.StyleBold|graphics.StyleItalic {
		for _, s := range []graphics.FontStyle{graphics.StyleBold, graphics.StyleItalic} {
			if f, ok := fam.faces[s]; ok {
				return f
			}
		}
	}
	for _, s := range []graphics.FontStyle{graphics.StylePlain, graphics.StyleBold, graphics.StyleItalic, graphics.StyleBold | graphics.StyleItalic} {
		if f, ok := fam.faces[s]; ok {
			return f
		}
	}
	return nil
}

// Registry maps typeface names to parsed fonts. Names are matched without
// regard to case, spaces, hyphens or underscores, so "Go Mono", "GoMono"
// and "go-mono" are the same typeface.
type Registry struct {
	families      map[string]*family
	defaultFamily string
	mu            sync.RWMutex
}

// NewRegistry creates a registry holding the embedded Go fonts, with "Go"
// as the default typeface.
func NewRegistry() *Registry {
	r := &Registry{
		families:      make(map[string]*family),
		defaultFamily: TypefaceSans,
	}
	embedded := []struct {
		name  string
		style graphics.FontStyle
		data  []byte
	}{
		{TypefaceSans, graphics.StylePlain, goregular.TTF},
		{TypefaceSans, graphics.StyleBold, gobold.TTF},
		{TypefaceSans, graphics.StyleItalic, goitalic.TTF},
		{TypefaceSans, graphics.StyleBold | graphics.StyleItalic, gobolditalic.TTF},
		{TypefaceMono, graphics.StylePlain, gomono.TTF},
		{TypefaceMono, graphics.StyleBold, gomonobold.TTF},
		{TypefaceMono, graphics.StyleItalic, gomonoitalic.TTF},
		{TypefaceMono, graphics.StyleBold | graphics.StyleItalic, gomonobolditalic.TTF},
	}
	for _, e := range embedded {
		// Embedded fonts are known-good; a parse failure only drops that style.
		_ = r.LoadData(e.name, e.style, e.data)
	}
	r.families[normalize("Go Sans")] = r.families[normalize(TypefaceSans)]
	r.families[normalize("Sans-Serif")] = r.families[normalize(TypefaceSans)]
	r.families[normalize("Monospace")] = r.families[normalize(TypefaceMono)]
	return r
}

func normalize(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '_':
			return -1
		}
		return r
	}, strings.ToLower(name))
}

// LoadFile registers a TTF or OTF file under typeface and style.
func (r *Registry) LoadFile(typeface string, style graphics.FontStyle, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read font file %s: %w", path, err)
	}
	return r.LoadData(typeface, style, data)
}

// LoadData registers font bytes under typeface and style.
func (r *Registry) LoadData(typeface string, style graphics.FontStyle, data []byte) error {
	face, err := newFace(typeface, style, data)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	key := normalize(typeface)
	fam, ok := r.families[key]
	if !ok {
		fam = &family{name: typeface, faces: make(map[graphics.FontStyle]*Face)}
		r.families[key] = fam
	}
	fam.faces[style&^graphics.StyleUnderlined] = face
	return nil
}

// Has reports whether typeface is registered.
func (r *Registry) Has(typeface string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.families[normalize(typeface)]
	return ok
}

// Face resolves a font to a face, falling back to the default typeface
// when the requested one is unknown or empty.
func (r *Registry) Face(f graphics.Font) (*Face, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if fam, ok := r.families[normalize(f.Typeface)]; ok {
		if face := fam.face(f.Style); face != nil {
			return face, nil
		}
	}
	if fam, ok := r.families[normalize(r.defaultFamily)]; ok {
		if face := fam.face(f.Style); face != nil {
			return face, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrNoTypeface, f.Typeface)
}

// SetDefault changes the fallback typeface.
func (r *Registry) SetDefault(typeface string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.families[normalize(typeface)]; !ok {
		return fmt.Errorf("%w: %q", ErrNoTypeface, typeface)
	}
	r.defaultFamily = typeface
	return nil
}

// Default returns the fallback typeface name.
func (r *Registry) Default() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.defaultFamily
}

// Families returns the registered typeface names, without aliases, sorted.
func (r *Registry) Families() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	seen := make(map[string]bool)
	var names []string
	for _, fam := range r.families {
		if !seen[fam.name] {
			seen[fam.name] = true
			names = append(names, fam.name)
		}
	}
	sort.Strings(names)
	return names
}
