package config

import (
	"fmt"
	"io"
	"strings"
	"sync"

	rt "github.com/arnodel/golua/runtime"

	"github.com/opd-ai/go-vgbridge/internal/lua"
)

// LuaConfigParser parses Lua configuration files. The file runs with
// resource limits and must assign its settings to vgbridge.config:
//
//	vgbridge.config = {
//	    width = 640,
//	    height = 480,
//	    script = "paint.lua",
//	    fonts = { { typeface = "Inter", style = "bold", path = "Inter-Bold.ttf" } },
//	}
type LuaConfigParser struct {
	runtime *lua.Runtime
	mu      sync.Mutex
}

// NewLuaConfigParser creates a LuaConfigParser whose print output is
// discarded.
func NewLuaConfigParser() (*LuaConfigParser, error) {
	return NewLuaConfigParserWithOutput(io.Discard)
}

// NewLuaConfigParserWithOutput creates a LuaConfigParser that writes
// print output to stdout.
func NewLuaConfigParserWithOutput(stdout io.Writer) (*LuaConfigParser, error) {
	rc := lua.DefaultConfig()
	rc.Stdout = stdout
	r, err := lua.New(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to create Lua runtime: %w", err)
	}
	return &LuaConfigParser{runtime: r}, nil
}

// Parse runs content and extracts the vgbridge.config table. Settings
// that are not assigned keep their defaults.
func (p *LuaConfigParser) Parse(content []byte) (*Config, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.initGlobal()
	if _, err := p.runtime.ExecuteString("config", string(content)); err != nil {
		return nil, fmt.Errorf("failed to execute Lua configuration: %w", err)
	}
	return p.extractConfig()
}

// initGlobal resets the vgbridge global so that a previous parse leaves
// nothing behind.
func (p *LuaConfigParser) initGlobal() {
	global := rt.NewTable()
	global.Set(rt.StringValue("config"), rt.TableValue(rt.NewTable()))
	p.runtime.SetGlobal("vgbridge", rt.TableValue(global))
}

func (p *LuaConfigParser) extractConfig() (*Config, error) {
	cfg := DefaultConfig()

	globalVal := p.runtime.GetGlobal("vgbridge")
	if globalVal == rt.NilValue {
		return &cfg, nil
	}
	global, ok := globalVal.TryTable()
	if !ok {
		return nil, fmt.Errorf("vgbridge is not a table")
	}

	configVal := global.Get(rt.StringValue("config"))
	if configVal == rt.NilValue {
		return &cfg, nil
	}
	table, ok := configVal.TryTable()
	if !ok {
		return nil, fmt.Errorf("vgbridge.config is not a table")
	}
	if err := extractConfigTable(&cfg, table); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func extractConfigTable(cfg *Config, table *rt.Table) error {
	if val := getTableInt(table, "width"); val != nil {
		cfg.Window.Width = *val
	}
	if val := getTableInt(table, "height"); val != nil {
		cfg.Window.Height = *val
	}
	if val := getTableString(table, "title"); val != nil {
		cfg.Window.Title = *val
	}
	if val := getTableBool(table, "resizable"); val != nil {
		cfg.Window.Resizable = *val
	}
	if val := getTableString(table, "background"); val != nil {
		cfg.Window.Background = *val
	}

	if val := getTableFloat(table, "scale"); val != nil {
		cfg.Render.Scale = *val
	}
	if val := getTableInt(table, "image_cache_size"); val != nil {
		cfg.Render.ImageCacheSize = *val
	}
	if val := getTableInt(table, "tps"); val != nil {
		cfg.Render.TPS = *val
	}

	if val := getTableString(table, "font"); val != nil {
		cfg.Font.Typeface = *val
	}
	if val := getTableFloat(table, "font_size"); val != nil {
		cfg.Font.Size = *val
	}
	if err := extractFonts(cfg, table); err != nil {
		return err
	}

	if val := getTableString(table, "script"); val != nil {
		cfg.Script.Path = *val
	}
	if val := getTableBool(table, "watch"); val != nil {
		cfg.Script.Watch = *val
	}

	if val := getTableString(table, "log_level"); val != nil {
		cfg.Log.Level = *val
	}
	if val := getTableBool(table, "log_json"); val != nil {
		cfg.Log.JSON = *val
	}
	return nil
}

// extractFonts reads the fonts array. Each entry is a table with
// typeface, style and path keys.
func extractFonts(cfg *Config, table *rt.Table) error {
	val := table.Get(rt.StringValue("fonts"))
	if val == rt.NilValue {
		return nil
	}
	fonts, ok := val.TryTable()
	if !ok {
		return fmt.Errorf("invalid fonts: expected a table")
	}

	var files []FontFile
	for i := 1; ; i++ {
		v := fonts.Get(rt.IntValue(int64(i)))
		if v == rt.NilValue {
			break
		}
		entry, ok := v.TryTable()
		if !ok {
			return fmt.Errorf("invalid fonts[%d]: expected a table", i)
		}
		var f FontFile
		if v := getTableString(entry, "typeface"); v != nil {
			f.Typeface = *v
		}
		if v := getTableString(entry, "style"); v != nil {
			f.Style = *v
		}
		if v := getTableString(entry, "path"); v != nil {
			f.Path = *v
		}
		files = append(files, f)
	}
	cfg.Font.Files = files
	return nil
}

// Close releases the Lua runtime.
func (p *LuaConfigParser) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.runtime.Close()
}

// getTableBool returns a boolean value from a Lua table, accepting the
// strings "yes"/"no" and "true"/"false" as well. Returns nil if the key is
// missing or of another type.
func getTableBool(table *rt.Table, key string) *bool {
	val := table.Get(rt.StringValue(key))
	if b, ok := val.TryBool(); ok {
		return &b
	}
	if s, ok := val.TryString(); ok {
		b := parseBool(s)
		return &b
	}
	return nil
}

func getTableString(table *rt.Table, key string) *string {
	if s, ok := table.Get(rt.StringValue(key)).TryString(); ok {
		return &s
	}
	return nil
}

func getTableFloat(table *rt.Table, key string) *float64 {
	val := table.Get(rt.StringValue(key))
	if n, ok := val.TryFloat(); ok {
		return &n
	}
	if n, ok := val.TryInt(); ok {
		f := float64(n)
		return &f
	}
	return nil
}

// getTableInt returns an integer value from a Lua table. Floats are
// truncated.
func getTableInt(table *rt.Table, key string) *int {
	val := table.Get(rt.StringValue(key))
	if n, ok := val.TryInt(); ok {
		i := int(n)
		return &i
	}
	if f, ok := val.TryFloat(); ok {
		i := int(f)
		return &i
	}
	return nil
}

func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "true", "1", "on":
		return true
	default:
		return false
	}
}
