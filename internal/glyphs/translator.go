package glyphs

import (
	"errors"
	"fmt"

	"github.com/opd-ai/go-vgbridge/pkg/graphics"
)

// ErrGlyphNotFound is returned when a glyph index maps to no character.
var ErrGlyphNotFound = errors.New("glyphs: no character for glyph")

// Placeholder runes drawn for unknown glyphs, in order of preference.
const (
	ReplacementRune rune = '\uFFFD'
	FallbackRune    rune = '?'
)

// Translator maps glyph indices back to runes. A map is built per face the
// first time the face is queried and kept for the translator's lifetime.
// It is not safe for concurrent use.
type Translator struct {
	registry *Registry
	maps     map[string]map[graphics.GlyphID]rune
}

// NewTranslator creates a translator over reg.
func NewTranslator(reg *Registry) *Translator {
	return &Translator{registry: reg, maps: make(map[string]map[graphics.GlyphID]rune)}
}

// GlyphToRune returns the character drawn by glyph g in font f.
func (t *Translator) GlyphToRune(f graphics.Font, g graphics.GlyphID) (rune, error) {
	face, err := t.registry.Face(f)
	if err != nil {
		return 0, err
	}
	m := t.glyphMap(face)
	r, ok := m[g]
	if !ok {
		return 0, fmt.Errorf("%w: %d in %s", ErrGlyphNotFound, g, face.Key())
	}
	return r, nil
}

// Placeholder returns the rune to draw in place of an unknown glyph.
func (t *Translator) Placeholder(f graphics.Font) rune {
	face, err := t.registry.Face(f)
	if err == nil && face.HasRune(ReplacementRune) {
		return ReplacementRune
	}
	return FallbackRune
}

// MapSize returns the number of glyphs mapped for f, building the map if
// needed.
func (t *Translator) MapSize(f graphics.Font) int {
	face, err := t.registry.Face(f)
	if err != nil {
		return 0
	}
	return len(t.glyphMap(face))
}

// Built returns the number of faces whose maps have been built.
func (t *Translator) Built() int { return len(t.maps) }

func (t *Translator) glyphMap(face *Face) map[graphics.GlyphID]rune {
	key := face.Key()
	if m, ok := t.maps[key]; ok {
		return m
	}
	m := buildGlyphMap(face)
	t.maps[key] = m
	return m
}

// buildGlyphMap enumerates the Basic Multilingual Plane from U+0020.
// Runes are visited in ascending order, so a glyph shared by several runes
// maps to the lowest one.
func buildGlyphMap(face *Face) map[graphics.GlyphID]rune {
	m := make(map[graphics.GlyphID]rune, face.NumGlyphs())
	face.mu.Lock()
	defer face.mu.Unlock()
	for r := rune(0x20); r <= 0xFFFF; r++ {
		if r >= 0xD800 && r <= 0xDFFF {
			continue
		}
		idx, ok := face.glyphIndexLocked(r)
		if !ok {
			continue
		}
		if _, seen := m[idx]; !seen {
			m[idx] = r
		}
	}
	return m
}
