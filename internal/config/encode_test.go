package config

import (
	"reflect"
	"strings"
	"testing"
)

func sampleConfig() Config {
	cfg := DefaultConfig()
	cfg.Window.Width = 800
	cfg.Window.Title = "it's a \\ test"
	cfg.Render.Scale = 1.5
	cfg.Font.Files = []FontFile{{Typeface: "Inter", Style: "bold", Path: "/fonts/Inter-Bold.ttf"}}
	cfg.Script.Path = "/scripts/paint.lua"
	cfg.Log.JSON = true
	return cfg
}

func TestEncoder_LuaRoundTrip(t *testing.T) {
	cfg := sampleConfig()
	p := newTestParser(t)

	for _, opts := range [][]EncoderOption{
		nil,
		{WithComments(false)},
		{WithDefaults(true)},
	} {
		out, err := NewEncoder(opts...).EncodeLua(&cfg)
		if err != nil {
			t.Fatalf("EncodeLua() error = %v", err)
		}
		if detectFormat(out) != FormatLua {
			t.Fatalf("encoded Lua not detected as Lua:\n%s", out)
		}
		got, err := p.ParseFormat(out, FormatLua)
		if err != nil {
			t.Fatalf("parsing encoded Lua: %v\n%s", err, out)
		}
		if !reflect.DeepEqual(*got, cfg) {
			t.Errorf("round trip =\n%+v\nwant\n%+v\nLua:\n%s", *got, cfg, out)
		}
	}
}

func TestEncoder_LuaOmitsDefaults(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Render.TPS = 30

	out, err := NewEncoder(WithComments(false)).EncodeLua(&cfg)
	if err != nil {
		t.Fatal(err)
	}
	want := "vgbridge.config = {\n    tps = 30,\n}\n"
	if string(out) != want {
		t.Errorf("EncodeLua() =\n%s\nwant\n%s", out, want)
	}

	full, err := NewEncoder().EncodeLua(&cfg)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(full), "-- vgbridge configuration") || !strings.Contains(string(full), "-- Rendering") {
		t.Errorf("missing comments:\n%s", full)
	}
}

func TestEncoder_YAMLRoundTrip(t *testing.T) {
	cfg := sampleConfig()

	out, err := NewEncoder().Encode(&cfg, FormatYAML)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	got, err := ParseYAML(out)
	if err != nil {
		t.Fatalf("parsing encoded YAML: %v\n%s", err, out)
	}
	if !reflect.DeepEqual(*got, cfg) {
		t.Errorf("round trip =\n%+v\nwant\n%+v", *got, cfg)
	}
	if !strings.Contains(string(out), "image_cache_size:") {
		t.Errorf("YAML should use snake_case keys:\n%s", out)
	}
}

func TestEncoder_Nil(t *testing.T) {
	e := NewEncoder()
	if _, err := e.EncodeLua(nil); err == nil {
		t.Error("EncodeLua(nil) should fail")
	}
	if _, err := e.Encode(nil, FormatAuto); err == nil {
		t.Error("Encode(nil) should fail")
	}
}

func TestLuaQuote(t *testing.T) {
	tests := []struct{ in, want string }{
		{"plain", "'plain'"},
		{"it's", `'it\'s'`},
		{`a\b`, `'a\\b'`},
		{"two\nlines", `'two\nlines'`},
	}
	for _, tt := range tests {
		if got := luaQuote(tt.in); got != tt.want {
			t.Errorf("luaQuote(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}
