// Package main runs a Lua paint script in a window drawn through vgbridge,
// or headless against a command recorder.
package main

import (
	"context"
	"errors"
	"expvar"
	"flag"
	"fmt"
	"io"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/opd-ai/go-vgbridge/internal/backend"
	"github.com/opd-ai/go-vgbridge/internal/backend/recorder"
	"github.com/opd-ai/go-vgbridge/internal/config"
	"github.com/opd-ai/go-vgbridge/internal/glyphs"
	"github.com/opd-ai/go-vgbridge/internal/host"
	"github.com/opd-ai/go-vgbridge/internal/profiling"
	"github.com/opd-ai/go-vgbridge/pkg/vg"
)

// Version is the current version of vgbridge.
// This default value can be overridden at build time using:
//
//	go build -ldflags "-X main.Version=x.y.z"
var Version = "0.1.0-dev"

// active is the running host, reported by the debug server.
var active atomic.Pointer[host.Host]

var publishOnce sync.Once

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

type options struct {
	configPath string
	scriptPath string
	version    bool
	headless   int
	dumpConfig string
	cpuProfile string
	memProfile string
	leakCheck  time.Duration
	debugAddr  string
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	var o options
	fs := flag.NewFlagSet("vgbridge", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.configPath, "c", "", "Path to configuration file (Lua or YAML)")
	fs.StringVar(&o.scriptPath, "s", "", "Paint script, overriding the configured one")
	fs.BoolVar(&o.version, "v", false, "Print version and exit")
	fs.IntVar(&o.headless, "headless", 0, "Paint `n` frames into a command recorder and print a summary")
	fs.StringVar(&o.dumpConfig, "dump-config", "", "Print the effective configuration as `lua` or `yaml` and exit")
	fs.StringVar(&o.cpuProfile, "cpuprofile", "", "Write CPU profile to file")
	fs.StringVar(&o.memProfile, "memprofile", "", "Write memory profile to file")
	fs.DurationVar(&o.leakCheck, "leak-check", 0, "Sample memory and the image cache at this interval and warn on growth")
	fs.StringVar(&o.debugAddr, "debug-addr", "", "Serve expvar metrics and pprof on this address")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if o.headless < 0 {
		return nil, fmt.Errorf("-headless must not be negative")
	}
	return &o, nil
}

// loadConfig reads the configuration file, or returns the defaults when
// none is given. The script override is applied to the result.
func loadConfig(o *options) (config.Config, error) {
	cfg := config.DefaultConfig()
	if o.configPath != "" {
		p, err := config.NewParser()
		if err != nil {
			return cfg, err
		}
		defer p.Close()
		parsed, err := p.ParseFile(o.configPath)
		if err != nil {
			return cfg, err
		}
		cfg = *parsed
	}
	if o.scriptPath != "" {
		cfg.Script.Path = o.scriptPath
	}
	return cfg, nil
}

func newLogger(cfg config.Config, w io.Writer) (vg.Logger, error) {
	level, err := cfg.LogLevel()
	if err != nil {
		return nil, err
	}
	if cfg.Log.JSON {
		return vg.JSONLogger(w, level), nil
	}
	return vg.LevelLogger(w, level), nil
}

func run(args []string, stdout, stderr io.Writer) int {
	o, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if o.version {
		fmt.Fprintf(stdout, "vgbridge version %s\n", Version)
		return 0
	}

	cfg, err := loadConfig(o)
	if err != nil {
		fmt.Fprintf(stderr, "Error loading configuration: %v\n", err)
		return 1
	}

	if o.dumpConfig != "" {
		return dumpConfig(&cfg, o.dumpConfig, stdout, stderr)
	}

	if o.configPath == "" && o.scriptPath == "" {
		fmt.Fprintln(stderr, "No configuration or script specified.")
		fmt.Fprintln(stderr, "Usage: vgbridge -c <config-file> | -s <paint.lua> [-headless n]")
		return 1
	}

	logger, err := newLogger(cfg, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "Error in configuration: %v\n", err)
		return 1
	}
	result := config.NewValidator().Validate(&cfg)
	for _, w := range result.Warnings {
		logger.Warn("configuration warning", "field", w.Field, "message", w.Message)
	}
	if !result.IsValid() {
		fmt.Fprintf(stderr, "Invalid configuration: %v\n", result.Error())
		return 1
	}

	metrics := vg.NewMetrics()
	if o.debugAddr != "" {
		stop := serveDebug(o.debugAddr, metrics, logger)
		defer stop()
	}
	if o.leakCheck > 0 {
		s := profiling.NewSampler(metrics, profiling.SamplerConfig{
			Interval:      o.leakCheck,
			ImageCapacity: cfg.Render.ImageCacheSize,
		})
		s.OnSuspect(func(g profiling.Growth) {
			logger.Warn("resource growth", "analysis", g.String())
		})
		if err := s.Start(); err == nil {
			defer s.Stop()
		}
	}

	hostOpts := []host.Option{
		host.WithLogger(logger),
		host.WithMetrics(metrics),
		host.WithScriptPath(o.scriptPath),
		host.WithScriptOutput(stdout),
	}
	if o.configPath != "" {
		hostOpts = append(hostOpts, host.WithConfigPath(o.configPath))
	}

	profiler := profiling.New(profiling.Config{
		CPUProfilePath: o.cpuProfile,
		MemProfilePath: o.memProfile,
	})
	err = profiler.Run(func() error {
		if o.headless > 0 {
			return runHeadless(cfg, hostOpts, o.headless, stdout)
		}
		return runWindow(cfg, hostOpts, logger)
	})
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func dumpConfig(cfg *config.Config, format string, stdout, stderr io.Writer) int {
	f, err := config.ParseFormat(format)
	if err != nil || f == config.FormatAuto {
		fmt.Fprintf(stderr, "Unknown -dump-config format %q (want lua or yaml)\n", format)
		return 1
	}
	out, err := config.NewEncoder().Encode(cfg, f)
	if err != nil {
		fmt.Fprintf(stderr, "Error encoding configuration: %v\n", err)
		return 1
	}
	_, _ = stdout.Write(out)
	return 0
}

// runHeadless paints frames into a recorder and prints what was drawn.
func runHeadless(cfg config.Config, opts []host.Option, frames int, stdout io.Writer) error {
	var rec *recorder.Recorder
	opts = append(opts, host.WithBackend(func(*glyphs.Registry) backend.Backend {
		rec = recorder.New()
		return rec
	}))
	h, err := host.New(cfg, opts...)
	if err != nil {
		return err
	}
	defer h.Close()
	active.Store(h)
	defer active.Store(nil)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := h.RunFrames(ctx, frames); err != nil {
		return err
	}

	fmt.Fprintf(stdout, "script: %s\n", displayPath(h.ScriptPath()))
	for _, line := range rec.Summary() {
		fmt.Fprintln(stdout, line)
	}
	s := h.Metrics().Snapshot()
	fmt.Fprintf(stdout, "frames=%d cancelled=%d fills=%d strokes=%d images=%d text_runs=%d culled=%d cache_entries=%d\n",
		s.Frames, s.CancelledFrames, s.Fills, s.Strokes, s.Images, s.TextRuns, s.Culled, s.CacheEntries)
	return nil
}

func displayPath(p string) string {
	if p == "" {
		return "(none)"
	}
	return filepath.Base(p)
}

// runWindow opens the ebiten window and runs until it is closed or a
// termination signal arrives. SIGHUP reloads the configuration and script.
func runWindow(cfg config.Config, opts []host.Option, logger vg.Logger) error {
	h, err := host.New(cfg, opts...)
	if err != nil {
		return err
	}
	defer h.Close()
	active.Store(h)
	defer active.Store(nil)

	if err := h.Watch(); err != nil {
		logger.Warn("file watching disabled", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-hup:
				logger.Info("received SIGHUP, reloading")
				h.RequestReload()
			}
		}
	}()

	game := host.NewGame(h)
	game.SetContext(ctx)
	game.SetErrorHandler(func(err error) {
		logger.Error("paint failed", "error", err)
	})
	logger.Info("vgbridge starting", "version", Version, "script", h.ScriptPath())
	return game.Run()
}

// serveDebug publishes metrics and host health through expvar and serves
// them, together with pprof, on addr. The returned function shuts the server down.
func serveDebug(addr string, metrics *vg.Metrics, logger vg.Logger) func() {
	metrics.RegisterExpvar()
	publishOnce.Do(func() {
		expvar.NewString("vgbridge_version").Set(Version)
		expvar.Publish("vgbridge_health", expvar.Func(func() any {
			if h := active.Load(); h != nil {
				return h.Health()
			}
			return nil
		}))
	})

	srv := &http.Server{Addr: addr, Handler: http.DefaultServeMux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("debug server stopped", "addr", addr, "error", err)
		}
	}()
	logger.Info("debug server listening", "addr", addr)
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}
