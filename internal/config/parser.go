package config

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Format identifies a configuration file format.
type Format int

const (
	// FormatAuto detects the format from the file name and content.
	FormatAuto Format = iota
	// FormatLua is a Lua file assigning vgbridge.config.
	FormatLua
	// FormatYAML is a YAML document.
	FormatYAML
)

// String returns the format name.
func (f Format) String() string {
	switch f {
	case FormatLua:
		return "lua"
	case FormatYAML:
		return "yaml"
	default:
		return "auto"
	}
}

// ParseFormat parses a format name.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return FormatAuto, nil
	case "lua":
		return FormatLua, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return FormatAuto, fmt.Errorf("unknown format: %s (expected 'lua' or 'yaml')", s)
	}
}

// Parser reads configuration files in either format.
type Parser struct {
	luaParser *LuaConfigParser
}

// NewParser creates a Parser.
func NewParser() (*Parser, error) {
	luaParser, err := NewLuaConfigParser()
	if err != nil {
		return nil, fmt.Errorf("failed to create Lua parser: %w", err)
	}
	return &Parser{luaParser: luaParser}, nil
}

// ParseFile reads and parses the configuration at path. The format comes
// from the extension, falling back to the content. Environment variables
// are expanded and relative paths are resolved against the file's
// directory.
func (p *Parser) ParseFile(path string) (*Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	cfg, err := p.ParseFormat(content, formatFromPath(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	ExpandEnvConfig(cfg)
	ResolvePaths(cfg, filepath.Dir(path))
	return cfg, nil
}

// Parse parses content, detecting the format from the content alone.
func (p *Parser) Parse(content []byte) (*Config, error) {
	return p.ParseFormat(content, FormatAuto)
}

// ParseFormat parses content in the given format.
func (p *Parser) ParseFormat(content []byte, format Format) (*Config, error) {
	if format == FormatAuto {
		format = detectFormat(content)
	}
	if format == FormatLua {
		return p.luaParser.Parse(content)
	}
	return ParseYAML(content)
}

// ParseFromFS reads and parses a configuration file from fsys. Paths
// inside it are left as written.
func (p *Parser) ParseFromFS(fsys fs.FS, path string) (*Config, error) {
	content, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config from FS %s: %w", path, err)
	}
	cfg, err := p.ParseFormat(content, formatFromPath(path))
	if err != nil {
		return nil, err
	}
	ExpandEnvConfig(cfg)
	return cfg, nil
}

// ParseReader parses configuration from r. The format must be "lua",
// "yaml" or "auto".
func (p *Parser) ParseReader(r io.Reader, format string) (*Config, error) {
	f, err := ParseFormat(format)
	if err != nil {
		return nil, err
	}
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return p.ParseFormat(content, f)
}

// Close releases the Lua runtime.
func (p *Parser) Close() error {
	if p.luaParser != nil {
		return p.luaParser.Close()
	}
	return nil
}

// luaConfigPattern matches an assignment to vgbridge.config at the start of
// a line, so a YAML comment mentioning it does not count.
var luaConfigPattern = regexp.MustCompile(`(?m)^\s*vgbridge\.config\s*=`)

func detectFormat(content []byte) Format {
	if luaConfigPattern.Match(content) {
		return FormatLua
	}
	return FormatYAML
}

func formatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".lua":
		return FormatLua
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatAuto
	}
}
