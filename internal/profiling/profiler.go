// Package profiling writes pprof profiles for a vgbridge run and samples a
// running host for steady resource growth.
package profiling

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"
	"sync"
)

// Config names the profile outputs. An empty path disables that profile.
type Config struct {
	CPUProfilePath string
	MemProfilePath string
}

// Enabled reports whether any profile is requested.
func (c Config) Enabled() bool {
	return c.CPUProfilePath != "" || c.MemProfilePath != ""
}

// Profiler records a CPU profile between Start and Stop and writes a heap
// profile on Stop.
type Profiler struct {
	cfg     Config
	cpuFile *os.File
	running bool
	mu      sync.Mutex
}

// New creates a stopped Profiler.
func New(cfg Config) *Profiler {
	return &Profiler{cfg: cfg}
}

// Start begins CPU profiling if a CPU profile path is set.
func (p *Profiler) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return errors.New("profiler is already running")
	}
	if p.cfg.CPUProfilePath != "" {
		f, err := os.Create(p.cfg.CPUProfilePath)
		if err != nil {
			return fmt.Errorf("failed to create CPU profile: %w", err)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			_ = f.Close()
			return fmt.Errorf("failed to start CPU profile: %w", err)
		}
		p.cpuFile = f
	}
	p.running = true
	return nil
}

// Stop ends CPU profiling and writes the heap profile. Both are attempted
// even if one fails.
func (p *Profiler) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.running {
		return errors.New("profiler is not running")
	}
	p.running = false

	var errs []error
	if p.cpuFile != nil {
		pprof.StopCPUProfile()
		if err := p.cpuFile.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close CPU profile: %w", err))
		}
		p.cpuFile = nil
	}
	if p.cfg.MemProfilePath != "" {
		if err := WriteHeapProfile(p.cfg.MemProfilePath); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Run profiles fn. The error from fn comes first when both fail.
func (p *Profiler) Run(fn func() error) error {
	if err := p.Start(); err != nil {
		return err
	}
	runErr := fn()
	return errors.Join(runErr, p.Stop())
}

// IsRunning reports whether Start has been called without Stop.
func (p *Profiler) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// WriteHeapProfile collects garbage and writes a heap profile to path.
func WriteHeapProfile(path string) error {
	runtime.GC()
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create memory profile: %w", err)
	}
	defer f.Close()
	if err := pprof.WriteHeapProfile(f); err != nil {
		return fmt.Errorf("failed to write memory profile: %w", err)
	}
	return nil
}
