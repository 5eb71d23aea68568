package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ValidationError describes one problem with a configuration field.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (ve ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", ve.Field, ve.Message)
}

// ValidationResult holds the results of a configuration validation.
type ValidationResult struct {
	// Errors make the configuration unusable.
	Errors []ValidationError
	// Warnings are suspicious but usable settings.
	Warnings []ValidationError
}

// IsValid returns true if there are no validation errors.
func (vr *ValidationResult) IsValid() bool {
	return len(vr.Errors) == 0
}

// Error returns a combined error if there are errors, nil otherwise.
func (vr *ValidationResult) Error() error {
	if len(vr.Errors) == 0 {
		return nil
	}
	messages := make([]string, 0, len(vr.Errors))
	for _, e := range vr.Errors {
		messages = append(messages, e.Error())
	}
	return fmt.Errorf("validation failed: %s", strings.Join(messages, "; "))
}

// AddError adds a validation error.
func (vr *ValidationResult) AddError(field, message string) {
	vr.Errors = append(vr.Errors, ValidationError{Field: field, Message: message})
}

// AddWarning adds a validation warning.
func (vr *ValidationResult) AddWarning(field, message string) {
	vr.Warnings = append(vr.Warnings, ValidationError{Field: field, Message: message})
}

// Merge combines another ValidationResult into this one.
func (vr *ValidationResult) Merge(other *ValidationResult) {
	if other == nil {
		return
	}
	vr.Errors = append(vr.Errors, other.Errors...)
	vr.Warnings = append(vr.Warnings, other.Warnings...)
}

// Validator checks a Config.
type Validator struct {
	// strictMode turns warnings into errors.
	strictMode bool
	// checkFiles stats the script and font paths.
	checkFiles bool
}

// NewValidator creates a Validator that does not touch the filesystem.
func NewValidator() *Validator {
	return &Validator{}
}

// WithStrictMode reports warnings as errors.
func (v *Validator) WithStrictMode(strict bool) *Validator {
	v.strictMode = strict
	return v
}

// WithFileChecks makes missing script and font files errors.
func (v *Validator) WithFileChecks(check bool) *Validator {
	v.checkFiles = check
	return v
}

// Validate checks cfg and returns every problem found.
func (v *Validator) Validate(cfg *Config) *ValidationResult {
	result := &ValidationResult{}
	if cfg == nil {
		result.AddError("config", "is nil")
		return result
	}

	v.validateWindow(&cfg.Window, result)
	v.validateRender(&cfg.Render, result)
	v.validateFont(&cfg.Font, result)
	v.validateScript(&cfg.Script, result)
	v.validateLog(&cfg.Log, result)

	if v.strictMode {
		result.Errors = append(result.Errors, result.Warnings...)
		result.Warnings = nil
	}
	return result
}

// maxDimension is the largest window side accepted without a warning.
const maxDimension = 16384

func (v *Validator) validateWindow(wc *WindowConfig, result *ValidationResult) {
	if wc.Width <= 0 {
		result.AddError("window.width", fmt.Sprintf("must be positive, got %d", wc.Width))
	}
	if wc.Height <= 0 {
		result.AddError("window.height", fmt.Sprintf("must be positive, got %d", wc.Height))
	}
	if wc.Width > maxDimension {
		result.AddWarning("window.width", fmt.Sprintf("unusually large value %d", wc.Width))
	}
	if wc.Height > maxDimension {
		result.AddWarning("window.height", fmt.Sprintf("unusually large value %d", wc.Height))
	}

	if c, err := ParseColour(wc.Background); err != nil {
		result.AddError("window.background", err.Error())
	} else if !c.IsOpaque() && !c.IsTransparent() {
		result.AddWarning("window.background", "translucent background is blended with the previous frame")
	}
}

func (v *Validator) validateRender(rc *RenderConfig, result *ValidationResult) {
	if rc.Scale <= 0 {
		result.AddError("render.scale", fmt.Sprintf("must be positive, got %g", rc.Scale))
	} else if rc.Scale > 8 {
		result.AddWarning("render.scale", fmt.Sprintf("unusually large scale factor %g", rc.Scale))
	}
	if rc.ImageCacheSize <= 0 {
		result.AddError("render.image_cache_size", fmt.Sprintf("must be positive, got %d", rc.ImageCacheSize))
	}
	if rc.TPS <= 0 || rc.TPS > MaxTPS {
		result.AddError("render.tps", fmt.Sprintf("must be between 1 and %d, got %d", MaxTPS, rc.TPS))
	}
}

func (v *Validator) validateFont(fc *FontConfig, result *ValidationResult) {
	if strings.TrimSpace(fc.Typeface) == "" {
		result.AddError("font.typeface", "must not be empty")
	}
	if fc.Size <= 0 {
		result.AddError("font.size", fmt.Sprintf("must be positive, got %g", fc.Size))
	} else if fc.Size > 200 {
		result.AddWarning("font.size", fmt.Sprintf("unusually large font size %g", fc.Size))
	}

	for i, f := range fc.Files {
		field := fmt.Sprintf("font.files[%d]", i)
		if strings.TrimSpace(f.Typeface) == "" {
			result.AddError(field+".typeface", "must not be empty")
		}
		if _, err := f.ParsedStyle(); err != nil {
			result.AddError(field+".style", err.Error())
		}
		v.validatePath(field+".path", f.Path, result)
	}
}

func (v *Validator) validateScript(sc *ScriptConfig, result *ValidationResult) {
	if sc.Path == "" {
		result.AddWarning("script.path", "no paint script; frames will only be cleared")
		return
	}
	if !strings.EqualFold(filepath.Ext(sc.Path), ".lua") {
		result.AddWarning("script.path", "does not have a .lua extension")
	}
	v.validatePath("script.path", sc.Path, result)
}

func (v *Validator) validateLog(lc *LogConfig, result *ValidationResult) {
	if _, err := ParseLogLevel(lc.Level); err != nil {
		result.AddError("log.level", err.Error())
	}
}

func (v *Validator) validatePath(field, path string, result *ValidationResult) {
	if path == "" {
		result.AddError(field, "must not be empty")
		return
	}
	if !v.checkFiles {
		return
	}
	info, err := os.Stat(path)
	switch {
	case err != nil:
		result.AddError(field, err.Error())
	case info.IsDir():
		result.AddError(field, fmt.Sprintf("%s is a directory", path))
	}
}

// ValidateConfig validates cfg and returns an error if it has errors.
func ValidateConfig(cfg *Config) error {
	return NewValidator().Validate(cfg).Error()
}

// ValidateConfigStrict validates cfg with warnings treated as errors and
// file paths checked.
func ValidateConfigStrict(cfg *Config) error {
	return NewValidator().WithStrictMode(true).WithFileChecks(true).Validate(cfg).Error()
}
