package config

import (
	"bytes"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Encoder writes a Config back out as Lua or YAML. It is used to dump the
// effective configuration and to convert between the two formats.
type Encoder struct {
	// includeComments adds a header and section comments to Lua output.
	includeComments bool
	// preserveDefaults writes settings even when they match the defaults.
	preserveDefaults bool
}

// EncoderOption configures an Encoder.
type EncoderOption func(*Encoder)

// WithComments enables comments in Lua output.
func WithComments(include bool) EncoderOption {
	return func(e *Encoder) {
		e.includeComments = include
	}
}

// WithDefaults writes settings that match the defaults.
func WithDefaults(preserve bool) EncoderOption {
	return func(e *Encoder) {
		e.preserveDefaults = preserve
	}
}

// NewEncoder creates an Encoder. Comments are on and defaults are omitted
// unless options say otherwise.
func NewEncoder(opts ...EncoderOption) *Encoder {
	e := &Encoder{includeComments: true}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Encode writes cfg in the given format. FormatAuto means YAML.
func (e *Encoder) Encode(cfg *Config, format Format) ([]byte, error) {
	if format == FormatLua {
		return e.EncodeLua(cfg)
	}
	return e.EncodeYAML(cfg)
}

// EncodeYAML writes cfg as YAML. Every field is written.
func (e *Encoder) EncodeYAML(cfg *Config) ([]byte, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return nil, fmt.Errorf("failed to encode YAML: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode YAML: %w", err)
	}
	return buf.Bytes(), nil
}

// EncodeLua writes cfg as a Lua file assigning vgbridge.config.
func (e *Encoder) EncodeLua(cfg *Config) ([]byte, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	var buf bytes.Buffer
	if e.includeComments {
		buf.WriteString("-- vgbridge configuration\n\n")
	}
	buf.WriteString("vgbridge.config = {\n")
	e.writeConfigTable(&buf, cfg)
	buf.WriteString("}\n")
	return buf.Bytes(), nil
}

func (e *Encoder) writeConfigTable(buf *bytes.Buffer, cfg *Config) {
	def := DefaultConfig()

	e.section(buf, "Window")
	if e.preserveDefaults || cfg.Window.Width != def.Window.Width {
		writeInt(buf, "width", cfg.Window.Width)
	}
	if e.preserveDefaults || cfg.Window.Height != def.Window.Height {
		writeInt(buf, "height", cfg.Window.Height)
	}
	if e.preserveDefaults || cfg.Window.Title != def.Window.Title {
		writeString(buf, "title", cfg.Window.Title)
	}
	if e.preserveDefaults || cfg.Window.Resizable != def.Window.Resizable {
		writeBool(buf, "resizable", cfg.Window.Resizable)
	}
	if e.preserveDefaults || cfg.Window.Background != def.Window.Background {
		writeString(buf, "background", cfg.Window.Background)
	}

	e.section(buf, "Rendering")
	if e.preserveDefaults || cfg.Render.Scale != def.Render.Scale {
		writeFloat(buf, "scale", cfg.Render.Scale)
	}
	if e.preserveDefaults || cfg.Render.ImageCacheSize != def.Render.ImageCacheSize {
		writeInt(buf, "image_cache_size", cfg.Render.ImageCacheSize)
	}
	if e.preserveDefaults || cfg.Render.TPS != def.Render.TPS {
		writeInt(buf, "tps", cfg.Render.TPS)
	}

	e.section(buf, "Fonts")
	if e.preserveDefaults || cfg.Font.Typeface != def.Font.Typeface {
		writeString(buf, "font", cfg.Font.Typeface)
	}
	if e.preserveDefaults || cfg.Font.Size != def.Font.Size {
		writeFloat(buf, "font_size", cfg.Font.Size)
	}
	if len(cfg.Font.Files) > 0 {
		buf.WriteString("    fonts = {\n")
		for _, f := range cfg.Font.Files {
			fmt.Fprintf(buf, "        { typeface = %s, style = %s, path = %s },\n",
				luaQuote(f.Typeface), luaQuote(f.Style), luaQuote(f.Path))
		}
		buf.WriteString("    },\n")
	}

	e.section(buf, "Script")
	if e.preserveDefaults || cfg.Script.Path != def.Script.Path {
		writeString(buf, "script", cfg.Script.Path)
	}
	if e.preserveDefaults || cfg.Script.Watch != def.Script.Watch {
		writeBool(buf, "watch", cfg.Script.Watch)
	}

	e.section(buf, "Logging")
	if e.preserveDefaults || cfg.Log.Level != def.Log.Level {
		writeString(buf, "log_level", cfg.Log.Level)
	}
	if e.preserveDefaults || cfg.Log.JSON != def.Log.JSON {
		writeBool(buf, "log_json", cfg.Log.JSON)
	}
}

func (e *Encoder) section(buf *bytes.Buffer, name string) {
	if e.includeComments {
		fmt.Fprintf(buf, "    -- %s\n", name)
	}
}

func writeBool(buf *bytes.Buffer, name string, value bool) {
	fmt.Fprintf(buf, "    %s = %t,\n", name, value)
}

func writeString(buf *bytes.Buffer, name, value string) {
	fmt.Fprintf(buf, "    %s = %s,\n", name, luaQuote(value))
}

func writeInt(buf *bytes.Buffer, name string, value int) {
	fmt.Fprintf(buf, "    %s = %d,\n", name, value)
}

func writeFloat(buf *bytes.Buffer, name string, value float64) {
	if value == float64(int(value)) {
		fmt.Fprintf(buf, "    %s = %.1f,\n", name, value)
	} else {
		fmt.Fprintf(buf, "    %s = %g,\n", name, value)
	}
}

var luaEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`, "\n", `\n`, "\r", `\r`)

// luaQuote returns s as a single-quoted Lua string literal.
func luaQuote(s string) string {
	return "'" + luaEscaper.Replace(s) + "'"
}
