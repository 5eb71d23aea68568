// Package textlayout breaks attributed strings into positioned text runs.
//
// Layout is greedy: words are placed left to right and a line is broken
// before the first word that would overflow the area width. A word wider
// than the area is kept whole on its own line.
package textlayout

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/opd-ai/go-vgbridge/internal/glyphs"
	"github.com/opd-ai/go-vgbridge/pkg/graphics"
)

// Run is text in a single font and colour at a baseline position.
// Colour is nil when the text carries no colour attribute.
type Run struct {
	Text     string
	Font     graphics.Font
	Colour   *graphics.Colour
	X        float64
	Baseline float64
	Width    float64
}

// Line is one laid-out line.
type Line struct {
	Runs    []Run
	Top     float64
	Width   float64
	Ascent  float64
	Descent float64
	Height  float64
}

// Layout is the result of laying out a string in an area.
type Layout struct {
	Lines []Line
	// Bounds encloses every line.
	Bounds graphics.Rect
}

// Runs returns every run in line order.
func (l *Layout) Runs() []Run {
	var out []Run
	for _, line := range l.Lines {
		out = append(out, line.Runs...)
	}
	return out
}

type tokenKind int

const (
	tokenWord tokenKind = iota
	tokenSpace
	tokenNewline
)

type token struct {
	kind   tokenKind
	text   string
	font   graphics.Font
	colour *graphics.Colour
	face   *glyphs.Face
	width  float64
}

// Engine lays out text using the faces of a registry.
type Engine struct {
	registry *glyphs.Registry
}

// New creates a layout engine.
func New(reg *glyphs.Registry) *Engine {
	return &Engine{registry: reg}
}

// Layout arranges s inside area. Text without a font attribute uses
// defaultFont.
func (e *Engine) Layout(s *graphics.AttributedString, defaultFont graphics.Font, area graphics.Rect) (*Layout, error) {
	tokens, err := e.tokenize(s, defaultFont)
	if err != nil {
		return nil, err
	}
	defaultFace, err := e.registry.Face(defaultFont)
	if err != nil {
		return nil, err
	}

	var lines [][]token
	var cur []token
	var x float64
	wrapped := false
	for i, tok := range tokens {
		switch tok.kind {
		case tokenNewline:
			lines = append(lines, cur)
			cur, x, wrapped = nil, 0, false
			continue
		case tokenSpace:
			if len(cur) == 0 && wrapped {
				// Leading spaces after a wrap are dropped.
				continue
			}
		case tokenWord:
			if i > 0 && tokens[i-1].kind == tokenWord {
				// A style change inside a word; the word was placed whole.
				break
			}
			if s.WordWrap && area.W > 0 && x > 0 && x+wordWidth(tokens[i:]) > area.W {
				lines = append(lines, trimTrailingSpaces(cur))
				cur, x, wrapped = nil, 0, true
			}
		}
		cur = append(cur, tok)
		x += tok.width
	}
	lines = append(lines, cur)

	out := &Layout{}
	justified := s.Justification&graphics.JustifyHorizontallyJustified != 0
	var top float64
	for i, toks := range lines {
		line := buildLine(toks, defaultFace, defaultFont, s.LineSpacing, area, s.Justification, justified && i < len(lines)-1)
		line.Top = top
		top += line.Height
		out.Lines = append(out.Lines, line)
	}

	// Vertical placement.
	var dy float64
	switch {
	case s.Justification&graphics.JustifyBottom != 0:
		dy = area.H - top
	case s.Justification&graphics.JustifyVerticallyCentred != 0:
		dy = (area.H - top) / 2
	}
	for i := range out.Lines {
		line := &out.Lines[i]
		line.Top += area.Y + dy
		for j := range line.Runs {
			line.Runs[j].Baseline += line.Top
		}
		lineRect := graphics.Rect{X: lineStart(line), Y: line.Top, W: line.Width, H: line.Height}
		if i == 0 {
			out.Bounds = lineRect
		} else {
			out.Bounds = out.Bounds.Union(lineRect)
		}
	}
	return out, nil
}

func lineStart(l *Line) float64 {
	if len(l.Runs) == 0 {
		return 0
	}
	return l.Runs[0].X
}

// wordWidth returns the width of the word starting at toks[0], which spans
// every adjacent word token.
func wordWidth(toks []token) float64 {
	var w float64
	for _, tok := range toks {
		if tok.kind != tokenWord {
			break
		}
		w += tok.width
	}
	return w
}

func trimTrailingSpaces(toks []token) []token {
	for len(toks) > 0 && toks[len(toks)-1].kind == tokenSpace {
		toks = toks[:len(toks)-1]
	}
	return toks
}

func buildLine(toks []token, defaultFace *glyphs.Face, defaultFont graphics.Font, spacing float64, area graphics.Rect, just graphics.Justification, justify bool) Line {
	var line Line
	m := defaultFace.Metrics(defaultFont.EffectiveSize())
	if len(toks) == 0 {
		line.Ascent, line.Descent, line.Height = m.Ascent, m.Descent, m.Height+spacing
		return line
	}

	var content float64
	spaces := 0
	for i, tok := range toks {
		tm := tok.face.Metrics(tok.font.EffectiveSize())
		if i == 0 || tm.Ascent > line.Ascent {
			line.Ascent = tm.Ascent
		}
		if tm.Descent > line.Descent {
			line.Descent = tm.Descent
		}
		if tm.Height > line.Height {
			line.Height = tm.Height
		}
		content += tok.width
		if tok.kind == tokenSpace {
			spaces++
		}
	}
	trailing, trailingCount := 0.0, 0
	for i := len(toks) - 1; i >= 0 && toks[i].kind == tokenSpace; i-- {
		trailing += toks[i].width
		trailingCount++
		spaces--
	}
	visible := content - trailing
	line.Height += spacing

	var extra float64
	if justify && spaces > 0 && area.W > visible {
		extra = (area.W - visible) / float64(spaces)
	}
	var dx float64
	switch {
	case extra > 0:
	case just&graphics.JustifyRight != 0:
		dx = area.W - visible
	case just&graphics.JustifyHorizontallyCentred != 0:
		dx = (area.W - visible) / 2
	}

	x := area.X + dx
	for _, tok := range toks[:len(toks)-trailingCount] {
		if tok.kind == tokenSpace && extra > 0 {
			x += tok.width + extra
			continue
		}
		n := len(line.Runs)
		if extra == 0 && n > 0 && sameStyle(line.Runs[n-1], tok) {
			line.Runs[n-1].Text += tok.text
			line.Runs[n-1].Width += tok.width
		} else {
			line.Runs = append(line.Runs, Run{Text: tok.text, Font: tok.font, Colour: tok.colour, X: x, Baseline: line.Ascent, Width: tok.width})
		}
		x += tok.width
	}
	if extra > 0 {
		line.Width = area.W
	} else {
		line.Width = visible
	}
	return line
}

func sameStyle(r Run, tok token) bool {
	if r.Font != tok.font {
		return false
	}
	switch {
	case r.Colour == nil && tok.colour == nil:
		return true
	case r.Colour == nil || tok.colour == nil:
		return false
	}
	return *r.Colour == *tok.colour
}

// tokenize splits s into words, spaces and newlines, each in one style.
func (e *Engine) tokenize(s *graphics.AttributedString, defaultFont graphics.Font) ([]token, error) {
	var tokens []token
	var b strings.Builder
	var curKind tokenKind
	var curFont graphics.Font
	var curColour *graphics.Colour
	flush := func() error {
		if b.Len() == 0 {
			return nil
		}
		face, err := e.registry.Face(curFont)
		if err != nil {
			return err
		}
		text := b.String()
		tokens = append(tokens, token{
			kind:   curKind,
			text:   text,
			font:   curFont,
			colour: curColour,
			face:   face,
			width:  face.MeasureString(text, curFont.EffectiveSize()),
		})
		b.Reset()
		return nil
	}

	for i, r := range s.Text {
		if r == utf8.RuneError {
			r = glyphs.FallbackRune
		}
		font, colour := s.AttributesAt(i)
		f := defaultFont
		if font != nil {
			f = *font
		}
		if r == '\n' {
			if err := flush(); err != nil {
				return nil, err
			}
			tokens = append(tokens, token{kind: tokenNewline})
			continue
		}
		kind := tokenWord
		if unicode.IsSpace(r) {
			kind = tokenSpace
		}
		if b.Len() > 0 && (kind != curKind || f != curFont || colour != curColour) {
			if err := flush(); err != nil {
				return nil, err
			}
		}
		curKind, curFont, curColour = kind, f, colour
		b.WriteRune(r)
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return tokens, nil
}
