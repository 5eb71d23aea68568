package config

import (
	"bytes"
	"reflect"
	"strings"
	"testing"
)

func newTestLuaParser(t *testing.T) *LuaConfigParser {
	t.Helper()
	p, err := NewLuaConfigParser()
	if err != nil {
		t.Fatalf("NewLuaConfigParser() error = %v", err)
	}
	t.Cleanup(func() { _ = p.Close() })
	return p
}

func TestLuaConfigParser_Parse(t *testing.T) {
	p := newTestLuaParser(t)

	content := `
local base = 320
vgbridge.config = {
    width = base * 2,
    height = 480,
    title = 'clock',
    resizable = 'no',
    background = '#202020',
    scale = 2,
    image_cache_size = 16,
    tps = 30,
    font = 'Go Mono',
    font_size = 12.5,
    fonts = {
        { typeface = 'Inter', style = 'bold', path = 'fonts/Inter-Bold.ttf' },
        { typeface = 'Inter', path = 'fonts/Inter.ttf' },
    },
    script = 'paint.lua',
    watch = false,
    log_level = 'debug',
    log_json = true,
}
`
	cfg, err := p.Parse([]byte(content))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	want := DefaultConfig()
	want.Window = WindowConfig{Width: 640, Height: 480, Title: "clock", Resizable: false, Background: "#202020"}
	want.Render = RenderConfig{Scale: 2, ImageCacheSize: 16, TPS: 30}
	want.Font = FontConfig{
		Typeface: "Go Mono",
		Size:     12.5,
		Files: []FontFile{
			{Typeface: "Inter", Style: "bold", Path: "fonts/Inter-Bold.ttf"},
			{Typeface: "Inter", Path: "fonts/Inter.ttf"},
		},
	}
	want.Script = ScriptConfig{Path: "paint.lua", Watch: false}
	want.Log = LogConfig{Level: "debug", JSON: true}

	if !reflect.DeepEqual(*cfg, want) {
		t.Errorf("Parse() =\n%+v\nwant\n%+v", *cfg, want)
	}
}

func TestLuaConfigParser_Defaults(t *testing.T) {
	p := newTestLuaParser(t)

	tests := []struct {
		name    string
		content string
	}{
		{"empty", ""},
		{"empty table", "vgbridge.config = {}"},
		{"config removed", "vgbridge.config = nil"},
		{"wrong types ignored", "vgbridge.config = { width = 'wide', title = 42 }"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := p.Parse([]byte(tt.content))
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if !reflect.DeepEqual(*cfg, DefaultConfig()) {
				t.Errorf("Parse() = %+v, want defaults", *cfg)
			}
		})
	}
}

func TestLuaConfigParser_Errors(t *testing.T) {
	p := newTestLuaParser(t)

	tests := []struct {
		name    string
		content string
		wantMsg string
	}{
		{"syntax error", "vgbridge.config = {", "failed to execute"},
		{"runtime error", "error('boom')", "boom"},
		{"global replaced", "vgbridge = 5", "vgbridge is not a table"},
		{"config not a table", "vgbridge.config = 'x'", "vgbridge.config is not a table"},
		{"fonts not a table", "vgbridge.config = { fonts = 1 }", "invalid fonts"},
		{"font entry not a table", "vgbridge.config = { fonts = { 'a.ttf' } }", "invalid fonts[1]"},
		{"runaway loop", "while true do end", "failed to execute"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.Parse([]byte(tt.content))
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error = %v, want it to contain %q", err, tt.wantMsg)
			}
		})
	}
}

func TestLuaConfigParser_NoStateBetweenParses(t *testing.T) {
	p := newTestLuaParser(t)

	if _, err := p.Parse([]byte("vgbridge.config = { width = 10 }")); err != nil {
		t.Fatal(err)
	}
	cfg, err := p.Parse([]byte("vgbridge.config.height = 20"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Window.Width != DefaultWidth || cfg.Window.Height != 20 {
		t.Errorf("size = %dx%d, want %dx20", cfg.Window.Width, cfg.Window.Height, DefaultWidth)
	}
}

func TestLuaConfigParser_Output(t *testing.T) {
	var out bytes.Buffer
	p, err := NewLuaConfigParserWithOutput(&out)
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close()

	if _, err := p.Parse([]byte("print('loading')")); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "loading") {
		t.Errorf("output = %q", out.String())
	}
}

func TestParseBool(t *testing.T) {
	for _, s := range []string{"yes", "TRUE", " on ", "1"} {
		if !parseBool(s) {
			t.Errorf("parseBool(%q) = false", s)
		}
	}
	for _, s := range []string{"no", "false", "", "maybe"} {
		if parseBool(s) {
			t.Errorf("parseBool(%q) = true", s)
		}
	}
}
