// Package host runs a Lua paint script against a vg.Context and keeps it
// up to date when the script or the configuration changes on disk.
package host

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"sync"
	"time"

	"github.com/opd-ai/go-vgbridge/internal/backend"
	"github.com/opd-ai/go-vgbridge/internal/backend/ebitenvg"
	"github.com/opd-ai/go-vgbridge/internal/config"
	"github.com/opd-ai/go-vgbridge/internal/glyphs"
	"github.com/opd-ai/go-vgbridge/internal/lua"
	"github.com/opd-ai/go-vgbridge/pkg/vg"
)

// ErrClosed is returned by Frame after Close.
var ErrClosed = errors.New("host closed")

// BackendFactory creates the backend a context draws into. It receives
// the registry holding the configured fonts.
type BackendFactory func(reg *glyphs.Registry) backend.Backend

// EbitenBackend is the default BackendFactory.
func EbitenBackend(reg *glyphs.Registry) backend.Backend {
	return ebitenvg.New(reg)
}

// ConfigHook is called after a configuration reload has been applied.
type ConfigHook func(old, updated config.Config)

// Option configures a Host.
type Option func(*Host)

// WithLogger sets the logger. Without it nothing is logged.
func WithLogger(l vg.Logger) Option {
	return func(h *Host) {
		if l != nil {
			h.logger = l
		}
	}
}

// WithMetrics shares a metrics collector across context rebuilds.
func WithMetrics(m *vg.Metrics) Option {
	return func(h *Host) {
		if m != nil {
			h.metrics = m
		}
	}
}

// WithBackend replaces the ebiten backend, for example with a recorder
// for headless runs.
func WithBackend(f BackendFactory) Option {
	return func(h *Host) {
		if f != nil {
			h.newBackend = f
		}
	}
}

// WithConfigPath names the file cfg was loaded from so it can be watched
// and reloaded.
func WithConfigPath(path string) Option {
	return func(h *Host) {
		h.configPath = path
	}
}

// WithScriptPath overrides the configured script, also across reloads.
func WithScriptPath(path string) Option {
	return func(h *Host) {
		h.scriptOverride = path
	}
}

// WithScriptOutput sets where script print output goes. The default is
// stdout.
func WithScriptOutput(w io.Writer) Option {
	return func(h *Host) {
		h.scriptOut = w
	}
}

// WithPaintBreaker sets how many consecutive paint failures suspend the
// script and for how long. Zero values keep the defaults.
func WithPaintBreaker(threshold int, cooldown time.Duration) Option {
	return func(h *Host) {
		h.breaker = newBreaker(threshold, cooldown)
	}
}

// script is one loaded paint script with its own Lua state.
type script struct {
	path     string
	runtime  *lua.Runtime
	hooks    *lua.Hooks
	bindings *lua.Bindings
}

func (s *script) close(logger vg.Logger) {
	if err := s.hooks.Call(lua.HookShutdown); err != nil {
		logger.Warn("script shutdown failed", "path", s.path, "error", err)
	}
	s.bindings.SetContext(nil)
	_ = s.runtime.Close()
}

// Host owns a graphics context, the paint script drawing into it and an
// optional file watcher. Frame, Resize, Reload and Close must be called
// from the goroutine that owns the backend. RequestReload may be called
// from any goroutine.
type Host struct {
	cfg            config.Config
	configPath     string
	scriptOverride string
	scriptOut      io.Writer

	logger     vg.Logger
	metrics    *vg.Metrics
	newBackend BackendFactory
	onConfig   ConfigHook
	breaker    *breaker

	registry *glyphs.Registry
	be       backend.Backend
	ctx      *vg.Context
	script   *script
	watcher  *Watcher
	closed   bool

	mu        sync.Mutex
	pending   map[string]bool
	reloadAll bool
}

// New builds the context described by cfg and loads its paint script.
func New(cfg config.Config, opts ...Option) (*Host, error) {
	h := &Host{
		logger:     vg.NopLogger(),
		metrics:    vg.NewMetrics(),
		newBackend: EbitenBackend,
		scriptOut:  os.Stdout,
		pending:    make(map[string]bool),
		breaker:    newBreaker(0, 0),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.breaker.onChange = func(from, to BreakerState) {
		h.logger.Warn("paint breaker state changed", "from", from.String(), "to", to.String())
	}
	if h.scriptOverride != "" {
		cfg.Script.Path = h.scriptOverride
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if err := h.buildContext(cfg); err != nil {
		return nil, err
	}
	h.cfg = cfg

	s, err := h.loadScript(cfg.Script.Path)
	if err != nil {
		_ = h.ctx.Close()
		return nil, err
	}
	h.script = s
	return h, nil
}

func newRegistry(fc config.FontConfig) (*glyphs.Registry, error) {
	reg := glyphs.NewRegistry()
	for _, f := range fc.Files {
		style, err := f.ParsedStyle()
		if err != nil {
			return nil, fmt.Errorf("font %s: %w", f.Path, err)
		}
		if err := reg.LoadFile(f.Typeface, style, f.Path); err != nil {
			return nil, err
		}
	}
	if fc.Typeface != "" {
		if err := reg.SetDefault(fc.Typeface); err != nil {
			return nil, fmt.Errorf("default typeface: %w", err)
		}
	}
	return reg, nil
}

// buildContext replaces the registry, backend and context with ones built
// from cfg. The old context is closed only once the new fonts load.
func (h *Host) buildContext(cfg config.Config) error {
	reg, err := newRegistry(cfg.Font)
	if err != nil {
		return err
	}
	bg, err := cfg.BackgroundColour()
	if err != nil {
		return err
	}

	if h.ctx != nil {
		_ = h.ctx.Close()
	}
	be := h.newBackend(reg)
	ctx, err := vg.New(be, cfg.Window.Width, cfg.Window.Height,
		vg.WithLogger(h.logger),
		vg.WithMetrics(h.metrics),
		vg.WithRegistry(reg),
		vg.WithScaleFactor(cfg.Render.Scale),
		vg.ImageCacheSize(cfg.Render.ImageCacheSize),
		vg.WithDefaultFont(cfg.Font.Typeface, cfg.Font.Size),
		vg.WithBackground(bg),
	)
	if err != nil {
		return err
	}
	h.registry, h.be, h.ctx = reg, be, ctx
	return nil
}

// loadScript runs the script at path in a fresh Lua state bound to the
// current context, then calls its startup hook. An empty path gives a
// script with no hooks.
func (h *Host) loadScript(path string) (*script, error) {
	rc := lua.DefaultConfig()
	rc.Stdout = h.scriptOut
	r, err := lua.New(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to create Lua runtime: %w", err)
	}
	b, err := lua.NewBindings(r, filepath.Dir(path))
	if err != nil {
		_ = r.Close()
		return nil, err
	}
	hooks, err := lua.NewHooks(r)
	if err != nil {
		_ = r.Close()
		return nil, err
	}
	b.SetContext(h.ctx)
	s := &script{path: path, runtime: r, hooks: hooks, bindings: b}

	if path != "" {
		if _, err := r.ExecuteFile(path); err != nil {
			_ = r.Close()
			return nil, fmt.Errorf("failed to load script %s: %w", path, err)
		}
	}
	if err := hooks.Call(lua.HookStartup); err != nil {
		_ = r.Close()
		return nil, err
	}
	h.logger.Info("script loaded", "path", path, "hooks", fmt.Sprint(hooks.Defined()))
	return s, nil
}

// Config returns the active configuration.
func (h *Host) Config() config.Config { return h.cfg }

// Context returns the graphics context. It changes when a configuration
// reload rebuilds it.
func (h *Host) Context() *vg.Context { return h.ctx }

// Backend returns the backend of the current context.
func (h *Host) Backend() backend.Backend { return h.be }

// Metrics returns the metrics collector shared by every context.
func (h *Host) Metrics() *vg.Metrics { return h.metrics }

// ScriptPath returns the path of the loaded script.
func (h *Host) ScriptPath() string { return h.script.path }

// SetConfigHook registers fn to run after each configuration reload.
func (h *Host) SetConfigHook(fn ConfigHook) { h.onConfig = fn }

// ScreenSize returns the surface size in device pixels.
func (h *Host) ScreenSize() (int, int) {
	w, hh := h.ctx.Size()
	s := h.cfg.Render.Scale
	return int(math.Ceil(float64(w) * s)), int(math.Ceil(float64(hh) * s))
}

// Frame applies pending reloads and paints one frame. When the paint hook
// fails the frame is cancelled and the error returned; the next frame
// tries again. After repeated failures frames are drawn without the
// script and return ErrPaintSuspended until the breaker's cooldown ends.
func (h *Host) Frame() error {
	if h.closed {
		return ErrClosed
	}
	h.applyPendingReload()

	if err := h.ctx.BeginFrame(); err != nil {
		return err
	}
	if !h.breaker.allow() {
		if err := h.ctx.EndFrame(); err != nil {
			return err
		}
		return ErrPaintSuspended
	}
	w, hh := h.ctx.Size()
	err := h.script.hooks.Paint(w, hh)
	h.breaker.record(err)
	if err != nil {
		h.ctx.CancelFrame()
		return err
	}
	return h.ctx.EndFrame()
}

// PaintStats returns the paint breaker counters.
func (h *Host) PaintStats() BreakerStats { return h.breaker.stats() }

// RunFrames paints n frames, stopping early when ctx is done or a frame
// fails.
func (h *Host) RunFrames(ctx context.Context, n int) error {
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := h.Frame(); err != nil {
			return fmt.Errorf("frame %d: %w", i, err)
		}
	}
	return nil
}

// Resize changes the logical surface size and calls the resized hook.
func (h *Host) Resize(width, height int) {
	if h.closed || width <= 0 || height <= 0 {
		return
	}
	if w, hh := h.ctx.Size(); w == width && hh == height {
		return
	}
	h.ctx.Resized(width, height)
	if err := h.script.hooks.Resized(width, height); err != nil {
		h.logger.Warn("resized hook failed", "error", err)
	}
}

// RequestReload schedules a reload for the next frame. With no paths
// everything is reloaded.
func (h *Host) RequestReload(paths ...string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(paths) == 0 {
		h.reloadAll = true
	}
	for _, p := range paths {
		h.pending[p] = true
	}
}

func (h *Host) takePending() (paths []string, all bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for p := range h.pending {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	all = h.reloadAll
	h.pending = make(map[string]bool)
	h.reloadAll = false
	return paths, all
}

func (h *Host) applyPendingReload() {
	paths, all := h.takePending()
	if len(paths) == 0 && !all {
		return
	}
	if all {
		paths = nil
	}
	if err := h.Reload(paths...); err != nil {
		h.logger.Error("reload failed", "files", paths, "error", err)
	}
}

func samePath(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	aa, err1 := filepath.Abs(a)
	bb, err2 := filepath.Abs(b)
	return err1 == nil && err2 == nil && aa == bb
}

// Reload re-reads the configuration file if it is among changed, then
// reloads the paint script. With no paths both are reloaded. On error the
// running script and context are kept.
func (h *Host) Reload(changed ...string) error {
	configChanged := h.configPath != "" && len(changed) == 0
	for _, p := range changed {
		if samePath(p, h.configPath) {
			configChanged = true
		}
	}

	old := h.cfg
	if configChanged {
		cfg, err := h.readConfig()
		if err != nil {
			return err
		}
		if !reflect.DeepEqual(cfg, old) {
			return h.applyConfig(cfg)
		}
	}
	return h.reloadScript(h.cfg.Script.Path)
}

func (h *Host) readConfig() (config.Config, error) {
	p, err := config.NewParser()
	if err != nil {
		return config.Config{}, err
	}
	defer p.Close()

	cfg, err := p.ParseFile(h.configPath)
	if err != nil {
		return config.Config{}, err
	}
	if h.scriptOverride != "" {
		cfg.Script.Path = h.scriptOverride
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return *cfg, nil
}

// applyConfig rebuilds the context when rendering settings changed and
// reloads the script.
func (h *Host) applyConfig(cfg config.Config) error {
	old := h.cfg
	oldW, oldH := h.ctx.Size()
	rebuilt := contextSettingsChanged(old, cfg)
	if rebuilt {
		h.script.bindings.SetContext(nil)
		if err := h.buildContext(cfg); err != nil {
			h.script.bindings.SetContext(h.ctx)
			return fmt.Errorf("failed to apply configuration: %w", err)
		}
		h.script.bindings.SetContext(h.ctx)
	}
	if err := h.reloadScript(cfg.Script.Path); err != nil {
		if rebuilt {
			h.restoreContext(old, oldW, oldH)
		}
		return err
	}
	h.cfg = cfg
	if h.watcher != nil && (old.Script.Path != cfg.Script.Path || old.Script.Watch != cfg.Script.Watch) {
		h.watcher.Stop()
		h.watcher = nil
		if err := h.Watch(); err != nil {
			h.logger.Warn("failed to restart watcher", "error", err)
		}
	}
	if h.onConfig != nil {
		h.onConfig(old, cfg)
	}
	h.logger.Info("configuration reloaded", "path", h.configPath)
	return nil
}

// restoreContext rebuilds the context from cfg at the given surface size
// after a new configuration was rolled back, and rebinds the running
// script to it.
func (h *Host) restoreContext(cfg config.Config, width, height int) {
	h.script.bindings.SetContext(nil)
	if err := h.buildContext(cfg); err != nil {
		h.logger.Error("failed to restore context", "error", err)
	} else if w, hh := h.ctx.Size(); w != width || hh != height {
		h.ctx.Resized(width, height)
	}
	h.script.bindings.SetContext(h.ctx)
	h.logger.Warn("configuration rolled back")
}

func contextSettingsChanged(a, b config.Config) bool {
	return a.Window.Width != b.Window.Width ||
		a.Window.Height != b.Window.Height ||
		a.Window.Background != b.Window.Background ||
		!reflect.DeepEqual(a.Render, b.Render) ||
		!reflect.DeepEqual(a.Font, b.Font)
}

func (h *Host) reloadScript(path string) error {
	s, err := h.loadScript(path)
	if err != nil {
		return err
	}
	h.script.close(h.logger)
	h.script = s
	h.breaker.reset()
	return nil
}

// Watch starts watching the configuration file and the script if the
// configuration enables it. Changes are applied at the next frame.
func (h *Host) Watch() error {
	if !h.cfg.Script.Watch || h.watcher != nil {
		return nil
	}
	paths := []string{h.configPath, h.cfg.Script.Path}
	w, err := NewWatcher(paths, DefaultWatchDebounce,
		func(changed []string) error {
			h.logger.Debug("files changed", "files", changed)
			h.RequestReload(changed...)
			return nil
		},
		func(err error) {
			h.logger.Warn("watch error", "error", err)
		},
	)
	if err != nil {
		return err
	}
	w.Start()
	h.watcher = w
	h.logger.Debug("watching", "files", w.Files())
	return nil
}

// Close stops the watcher, runs the script's shutdown hook and releases
// the context. It is safe to call more than once.
func (h *Host) Close() error {
	if h.closed {
		return nil
	}
	h.closed = true
	if h.watcher != nil {
		h.watcher.Stop()
		h.watcher = nil
	}
	h.script.close(h.logger)
	return h.ctx.Close()
}
