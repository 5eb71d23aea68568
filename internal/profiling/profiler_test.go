package profiling

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func fileNotEmpty(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("profile %s: %v", filepath.Base(path), err)
	}
	if info.Size() == 0 {
		t.Errorf("profile %s is empty", filepath.Base(path))
	}
}

func TestProfiler_StartStop(t *testing.T) {
	dir := t.TempDir()
	cfg := Config{
		CPUProfilePath: filepath.Join(dir, "cpu.prof"),
		MemProfilePath: filepath.Join(dir, "mem.prof"),
	}
	p := New(cfg)

	if err := p.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if !p.IsRunning() {
		t.Error("IsRunning() = false after Start")
	}
	if err := p.Start(); err == nil {
		t.Error("second Start() should fail")
	}
	if err := p.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if p.IsRunning() {
		t.Error("IsRunning() = true after Stop")
	}
	if err := p.Stop(); err == nil {
		t.Error("second Stop() should fail")
	}

	if _, err := os.Stat(cfg.CPUProfilePath); err != nil {
		t.Errorf("CPU profile: %v", err)
	}
	fileNotEmpty(t, cfg.MemProfilePath)
}

func TestProfiler_Paths(t *testing.T) {
	tests := []struct {
		name     string
		cfg      Config
		startErr bool
		stopErr  bool
	}{
		{"nothing", Config{}, false, false},
		{"bad cpu path", Config{CPUProfilePath: "/nonexistent/dir/cpu.prof"}, true, false},
		{"bad mem path", Config{MemProfilePath: "/nonexistent/dir/mem.prof"}, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(tt.cfg)
			err := p.Start()
			if (err != nil) != tt.startErr {
				t.Fatalf("Start() error = %v, wantErr %v", err, tt.startErr)
			}
			if err != nil {
				if p.IsRunning() {
					t.Error("a failed Start left the profiler running")
				}
				return
			}
			if err := p.Stop(); (err != nil) != tt.stopErr {
				t.Errorf("Stop() error = %v, wantErr %v", err, tt.stopErr)
			}
		})
	}
}

func TestProfiler_Run(t *testing.T) {
	dir := t.TempDir()
	mem := filepath.Join(dir, "mem.prof")
	p := New(Config{MemProfilePath: mem})

	called := false
	if err := p.Run(func() error { called = true; return nil }); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !called {
		t.Error("Run() did not call fn")
	}
	fileNotEmpty(t, mem)

	boom := errors.New("boom")
	if err := p.Run(func() error { return boom }); !errors.Is(err, boom) {
		t.Errorf("Run() error = %v, want boom", err)
	}
	if p.IsRunning() {
		t.Error("Run() left the profiler running")
	}
}

func TestWriteHeapProfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "heap.prof")
	if err := WriteHeapProfile(path); err != nil {
		t.Fatalf("WriteHeapProfile() error = %v", err)
	}
	fileNotEmpty(t, path)

	if err := WriteHeapProfile(filepath.Join(t.TempDir(), "missing", "heap.prof")); err == nil {
		t.Error("writing into a missing directory should fail")
	}
}

func TestConfig_Enabled(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want bool
	}{
		{"none", Config{}, false},
		{"cpu", Config{CPUProfilePath: "cpu.prof"}, true},
		{"mem", Config{MemProfilePath: "mem.prof"}, true},
		{"both", Config{CPUProfilePath: "cpu.prof", MemProfilePath: "mem.prof"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.Enabled(); got != tt.want {
				t.Errorf("Enabled() = %v, want %v", got, tt.want)
			}
		})
	}
}
