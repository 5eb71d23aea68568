package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestValidationErrorError(t *testing.T) {
	ve := ValidationError{Field: "window.width", Message: "must be positive"}
	if got := ve.Error(); got != "window.width: must be positive" {
		t.Errorf("Error() = %q", got)
	}
}

func TestValidationResult(t *testing.T) {
	r := &ValidationResult{}
	if !r.IsValid() || r.Error() != nil {
		t.Fatal("empty result should be valid")
	}

	r.AddWarning("a", "odd")
	if !r.IsValid() {
		t.Error("warnings should not invalidate a result")
	}

	other := &ValidationResult{}
	other.AddError("b", "bad")
	other.AddError("c", "worse")
	r.Merge(other)
	r.Merge(nil)

	if r.IsValid() {
		t.Error("result with errors reported valid")
	}
	if len(r.Errors) != 2 || len(r.Warnings) != 1 {
		t.Errorf("got %d errors and %d warnings", len(r.Errors), len(r.Warnings))
	}
	if got := r.Error().Error(); got != "validation failed: b: bad; c: worse" {
		t.Errorf("Error() = %q", got)
	}
}

func TestValidator_Validate(t *testing.T) {
	tests := []struct {
		name       string
		modify     func(*Config)
		wantErrors []string
		wantWarns  []string
	}{
		{
			name:      "defaults",
			modify:    func(*Config) {},
			wantWarns: []string{"script.path"},
		},
		{
			name: "bad window",
			modify: func(c *Config) {
				c.Window.Width = 0
				c.Window.Height = -5
				c.Window.Background = "plaid"
			},
			wantErrors: []string{"window.width", "window.height", "window.background"},
			wantWarns:  []string{"script.path"},
		},
		{
			name: "huge and translucent",
			modify: func(c *Config) {
				c.Window.Width = 20000
				c.Window.Background = "#00000080"
				c.Script.Path = "paint.lua"
			},
			wantWarns: []string{"window.width", "window.background"},
		},
		{
			name: "bad render",
			modify: func(c *Config) {
				c.Render.Scale = 0
				c.Render.ImageCacheSize = 0
				c.Render.TPS = MaxTPS + 1
				c.Script.Path = "paint.lua"
			},
			wantErrors: []string{"render.scale", "render.image_cache_size", "render.tps"},
		},
		{
			name: "bad fonts",
			modify: func(c *Config) {
				c.Font.Typeface = " "
				c.Font.Size = 500
				c.Font.Files = []FontFile{{Style: "wide"}}
				c.Script.Path = "paint.lua"
			},
			wantErrors: []string{"font.typeface", "font.files[0].typeface", "font.files[0].style", "font.files[0].path"},
			wantWarns:  []string{"font.size"},
		},
		{
			name: "script extension and log level",
			modify: func(c *Config) {
				c.Script.Path = "paint.txt"
				c.Log.Level = "loud"
			},
			wantErrors: []string{"log.level"},
			wantWarns:  []string{"script.path"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)
			result := NewValidator().Validate(&cfg)

			if got := fields(result.Errors); !equalStrings(got, tt.wantErrors) {
				t.Errorf("errors = %v, want %v", got, tt.wantErrors)
			}
			if got := fields(result.Warnings); !equalStrings(got, tt.wantWarns) {
				t.Errorf("warnings = %v, want %v", got, tt.wantWarns)
			}
		})
	}
}

func TestValidator_StrictMode(t *testing.T) {
	cfg := DefaultConfig()
	result := NewValidator().WithStrictMode(true).Validate(&cfg)
	if result.IsValid() {
		t.Error("missing script should be an error in strict mode")
	}
	if len(result.Warnings) != 0 {
		t.Errorf("strict mode left warnings: %v", result.Warnings)
	}
}

func TestValidator_FileChecks(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "paint.lua")
	if err := os.WriteFile(script, []byte("function paint() end"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := DefaultConfig()
	cfg.Script.Path = script
	cfg.Font.Files = []FontFile{
		{Typeface: "Missing", Path: filepath.Join(dir, "missing.ttf")},
		{Typeface: "Dir", Path: dir},
	}

	if err := NewValidator().Validate(&cfg).Error(); err != nil {
		t.Errorf("without file checks: %v", err)
	}
	result := NewValidator().WithFileChecks(true).Validate(&cfg)
	if got := fields(result.Errors); !equalStrings(got, []string{"font.files[0].path", "font.files[1].path"}) {
		t.Errorf("errors = %v", got)
	}
	if !strings.Contains(result.Errors[1].Message, "is a directory") {
		t.Errorf("directory message = %q", result.Errors[1].Message)
	}
}

func TestValidateConfig(t *testing.T) {
	if err := ValidateConfig(nil); err == nil {
		t.Error("ValidateConfig(nil) should fail")
	}
	cfg := DefaultConfig()
	if err := ValidateConfig(&cfg); err != nil {
		t.Errorf("ValidateConfig(defaults) = %v", err)
	}
	if err := ValidateConfigStrict(&cfg); err == nil {
		t.Error("ValidateConfigStrict(defaults) should fail without a script")
	}
}

func fields(errs []ValidationError) []string {
	var out []string
	for _, e := range errs {
		out = append(out, e.Field)
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
