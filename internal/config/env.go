package config

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// envVarPattern matches ${VAR}, ${VAR:-default} and $VAR.
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}|\$([a-zA-Z_][a-zA-Z0-9_]*)`)

// ExpandEnv expands environment variable references in s. ${VAR:-default}
// yields default when VAR is unset or empty. Unset variables without a
// default expand to the empty string.
func ExpandEnv(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		if !strings.HasPrefix(match, "${") {
			return os.Getenv(match[1:])
		}
		inner := match[2 : len(match)-1]
		name, def, hasDefault := strings.Cut(inner, ":-")
		if val := os.Getenv(name); val != "" || !hasDefault {
			return val
		}
		return def
	})
}

// ExpandPath expands environment variables and a leading "~/" in path.
func ExpandPath(path string) string {
	path = ExpandEnv(path)
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[1:])
		}
	}
	return path
}

// ExpandEnvConfig expands environment variables in the window title, the
// script path and the font file paths. It modifies cfg in place.
func ExpandEnvConfig(cfg *Config) {
	if cfg == nil {
		return
	}
	cfg.Window.Title = ExpandEnv(cfg.Window.Title)
	cfg.Script.Path = ExpandPath(cfg.Script.Path)
	for i := range cfg.Font.Files {
		cfg.Font.Files[i].Path = ExpandPath(cfg.Font.Files[i].Path)
	}
}

// ResolvePaths makes relative script and font paths relative to dir,
// normally the directory holding the configuration file.
func ResolvePaths(cfg *Config, dir string) {
	if cfg == nil || dir == "" {
		return
	}
	resolve := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(dir, p)
	}
	cfg.Script.Path = resolve(cfg.Script.Path)
	for i := range cfg.Font.Files {
		cfg.Font.Files[i].Path = resolve(cfg.Font.Files[i].Path)
	}
}
