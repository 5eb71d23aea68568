package glyphs

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/font/gofont/goregular"

	"github.com/opd-ai/go-vgbridge/pkg/graphics"
)

func TestRegistry_EmbeddedFaces(t *testing.T) {
	reg := NewRegistry()
	tests := []struct {
		name     string
		font     graphics.Font
		wantKey  string
		wantName string
	}{
		{"sans", graphics.NewFont("Go", 12, graphics.StylePlain), "go/regular", TypefaceSans},
		{"mono alias", graphics.NewFont("GoMono", 12, graphics.StylePlain), "gomono/regular", TypefaceMono},
		{"mono spaced", graphics.NewFont("go mono", 12, graphics.StyleBold), "gomono/bold", TypefaceMono},
		{"underline ignored", graphics.NewFont("Go", 12, graphics.StyleItalic|graphics.StyleUnderlined), "go/italic", TypefaceSans},
		{"unknown falls back", graphics.NewFont("Comic Sans", 12, graphics.StylePlain), "go/regular", TypefaceSans},
		{"empty falls back", graphics.Font{}, "go/regular", TypefaceSans},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			face, err := reg.Face(tt.font)
			if err != nil {
				t.Fatalf("Face() error = %v", err)
			}
			if face.Key() != tt.wantKey {
				t.Errorf("Key() = %q, want %q", face.Key(), tt.wantKey)
			}
			if face.Family() != tt.wantName {
				t.Errorf("Family() = %q, want %q", face.Family(), tt.wantName)
			}
		})
	}
}

func TestRegistry_Families(t *testing.T) {
	reg := NewRegistry()
	got := reg.Families()
	if len(got) != 2 || got[0] != TypefaceSans || got[1] != TypefaceMono {
		t.Errorf("Families() = %v", got)
	}
	if err := reg.SetDefault("nope"); !errors.Is(err, ErrNoTypeface) {
		t.Errorf("SetDefault(unknown) error = %v", err)
	}
	if err := reg.SetDefault("monospace"); err != nil {
		t.Errorf("SetDefault(alias) error = %v", err)
	}
	face, _ := reg.Face(graphics.NewFont("missing", 10, graphics.StylePlain))
	if face.Family() != TypefaceMono {
		t.Errorf("fallback family = %q after SetDefault", face.Family())
	}
}

func TestRegistry_LoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.ttf")
	if err := os.WriteFile(path, goregular.TTF, 0o644); err != nil {
		t.Fatal(err)
	}
	reg := NewRegistry()
	if err := reg.LoadFile("Custom", graphics.StylePlain, path); err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if !reg.Has("custom") {
		t.Error("custom typeface not registered")
	}

	bad := filepath.Join(dir, "bad.ttf")
	os.WriteFile(bad, []byte("not a font"), 0o644)
	if err := reg.LoadFile("Bad", graphics.StylePlain, bad); err == nil {
		t.Error("LoadFile() should reject invalid data")
	}
	if err := reg.LoadFile("Missing", graphics.StylePlain, filepath.Join(dir, "none.ttf")); err == nil {
		t.Error("LoadFile() should fail for a missing file")
	}
}

func TestFace_Measure(t *testing.T) {
	reg := NewRegistry()
	mono, _ := reg.Face(graphics.NewFont(TypefaceMono, 20, graphics.StylePlain))
	a := mono.Advance('i', 20)
	b := mono.Advance('W', 20)
	if a <= 0 || a != b {
		t.Errorf("monospace advances differ: i=%v W=%v", a, b)
	}
	if got := mono.MeasureString("abc", 20); got != 3*a {
		t.Errorf("MeasureString() = %v, want %v", got, 3*a)
	}
	m := mono.Metrics(20)
	if m.Ascent <= 0 || m.Height < m.Ascent {
		t.Errorf("Metrics() = %+v", m)
	}
}

func TestTranslator_RoundTrip(t *testing.T) {
	reg := NewRegistry()
	tr := NewTranslator(reg)
	font := graphics.NewFont(TypefaceSans, 12, graphics.StylePlain)
	face, _ := reg.Face(font)

	for _, r := range "AZaz09&é" {
		idx, ok := face.GlyphIndex(r)
		if !ok {
			t.Fatalf("no glyph for %q", r)
		}
		got, err := tr.GlyphToRune(font, idx)
		if err != nil {
			t.Fatalf("GlyphToRune(%d) error = %v", idx, err)
		}
		if got != r {
			t.Errorf("GlyphToRune(%d) = %q, want %q", idx, got, r)
		}
	}
}

func TestTranslator_StableAndLazy(t *testing.T) {
	reg := NewRegistry()
	tr := NewTranslator(reg)
	font := graphics.NewFont(TypefaceMono, 12, graphics.StylePlain)
	if tr.Built() != 0 {
		t.Fatal("maps should be built lazily")
	}
	face, _ := reg.Face(font)
	idx, _ := face.GlyphIndex('Q')
	first, _ := tr.GlyphToRune(font, idx)
	for i := 0; i < 5; i++ {
		again, _ := tr.GlyphToRune(font, idx)
		if again != first {
			t.Fatalf("query %d returned %q, want %q", i, again, first)
		}
	}
	// A different size of the same face shares the map.
	tr.GlyphToRune(font.WithSize(40), idx)
	if tr.Built() != 1 {
		t.Errorf("Built() = %d, want 1", tr.Built())
	}
	if tr.MapSize(font) == 0 {
		t.Error("map should not be empty")
	}
}

func TestTranslator_NotFound(t *testing.T) {
	reg := NewRegistry()
	tr := NewTranslator(reg)
	font := graphics.NewFont(TypefaceSans, 12, graphics.StylePlain)
	_, err := tr.GlyphToRune(font, graphics.GlyphID(1<<20))
	if !errors.Is(err, ErrGlyphNotFound) {
		t.Errorf("error = %v, want ErrGlyphNotFound", err)
	}
	if _, err := tr.GlyphToRune(font, 0); !errors.Is(err, ErrGlyphNotFound) {
		t.Errorf("notdef glyph error = %v, want ErrGlyphNotFound", err)
	}
	if p := tr.Placeholder(font); p != ReplacementRune && p != FallbackRune {
		t.Errorf("Placeholder() = %q", p)
	}
}

func TestTranslator_PerInstance(t *testing.T) {
	reg := NewRegistry()
	a := NewTranslator(reg)
	b := NewTranslator(reg)
	font := graphics.NewFont(TypefaceSans, 12, graphics.StylePlain)
	a.MapSize(font)
	if b.Built() != 0 {
		t.Error("translators must not share maps")
	}
}
