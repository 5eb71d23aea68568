// Package config loads the host configuration for vgbridge. Two formats
// are accepted: a Lua file that assigns a vgbridge.config table, and YAML.
package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/opd-ai/go-vgbridge/pkg/graphics"
)

// Config is the complete host configuration.
type Config struct {
	// Window configures the host window.
	Window WindowConfig `yaml:"window"`
	// Render configures the graphics context.
	Render RenderConfig `yaml:"render"`
	// Font configures the default typeface and extra font files.
	Font FontConfig `yaml:"font"`
	// Script configures the paint script.
	Script ScriptConfig `yaml:"script"`
	// Log configures logging.
	Log LogConfig `yaml:"log"`
}

// WindowConfig holds window settings.
type WindowConfig struct {
	Width     int    `yaml:"width"`
	Height    int    `yaml:"height"`
	Title     string `yaml:"title"`
	Resizable bool   `yaml:"resizable"`
	// Background is a colour name, #RRGGBB or #RRGGBBAA.
	Background string `yaml:"background"`
}

// RenderConfig holds graphics context settings.
type RenderConfig struct {
	// Scale is the physical pixels per logical unit.
	Scale float64 `yaml:"scale"`
	// ImageCacheSize is the number of uploaded images kept per context.
	ImageCacheSize int `yaml:"image_cache_size"`
	// TPS is the number of paint calls per second.
	TPS int `yaml:"tps"`
}

// FontConfig holds font settings.
type FontConfig struct {
	Typeface string     `yaml:"typeface"`
	Size     float64    `yaml:"size"`
	Files    []FontFile `yaml:"files"`
}

// FontFile registers a font file under a typeface name and style.
type FontFile struct {
	Typeface string `yaml:"typeface"`
	Style    string `yaml:"style"`
	Path     string `yaml:"path"`
}

// ParsedStyle returns the file's style as a graphics.FontStyle.
func (f FontFile) ParsedStyle() (graphics.FontStyle, error) {
	return graphics.ParseFontStyle(f.Style)
}

// ScriptConfig holds paint script settings.
type ScriptConfig struct {
	Path string `yaml:"path"`
	// Watch reloads the script and the configuration when they change.
	Watch bool `yaml:"watch"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	// Level is one of debug, info, warn or error.
	Level string `yaml:"level"`
	// JSON selects JSON output instead of text.
	JSON bool `yaml:"json"`
}

// Validate checks the configuration for errors. Warnings are ignored.
func (c *Config) Validate() error {
	return NewValidator().Validate(c).Error()
}

// BackgroundColour parses Window.Background.
func (c *Config) BackgroundColour() (graphics.Colour, error) {
	return ParseColour(c.Window.Background)
}

// LogLevel parses Log.Level.
func (c *Config) LogLevel() (slog.Level, error) {
	return ParseLogLevel(c.Log.Level)
}

// ParseLogLevel parses a log level name. An empty string is info.
func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level: %s", s)
	}
}

// colourNames maps common colour names to colours.
var colourNames = map[string]graphics.Colour{
	"white":       {R: 255, G: 255, B: 255, A: 255},
	"black":       {A: 255},
	"red":         {R: 255, A: 255},
	"green":       {G: 255, A: 255},
	"blue":        {B: 255, A: 255},
	"yellow":      {R: 255, G: 255, A: 255},
	"cyan":        {G: 255, B: 255, A: 255},
	"magenta":     {R: 255, B: 255, A: 255},
	"grey":        {R: 128, G: 128, B: 128, A: 255},
	"gray":        {R: 128, G: 128, B: 128, A: 255},
	"orange":      {R: 255, G: 165, A: 255},
	"transparent": {},
}

// ParseColour parses a colour name or a hex value in the form RRGGBB or
// RRGGBBAA, with or without a leading '#'.
func ParseColour(s string) (graphics.Colour, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if c, ok := colourNames[s]; ok {
		return c, nil
	}

	hex := strings.TrimPrefix(s, "#")
	if len(hex) != 6 && len(hex) != 8 {
		return graphics.Colour{}, fmt.Errorf("invalid colour format: %s", s)
	}
	var v [4]uint8
	v[3] = 255
	for i := 0; i < len(hex)/2; i++ {
		var b uint8
		if _, err := fmt.Sscanf(hex[2*i:2*i+2], "%02x", &b); err != nil {
			return graphics.Colour{}, fmt.Errorf("invalid colour component in %s: %w", s, err)
		}
		v[i] = b
	}
	return graphics.Colour{R: v[0], G: v[1], B: v[2], A: v[3]}, nil
}
