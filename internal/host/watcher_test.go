package host

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// waitFor polls cond until it holds or the timeout passes.
func waitFor(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return cond()
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

func TestWatcher_DetectsFileChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "paint.lua")
	writeFile(t, path, "initial")

	var count atomic.Int32
	var lastErr atomic.Value
	w, err := NewWatcher([]string{path}, 50*time.Millisecond,
		func([]string) error { count.Add(1); return nil },
		func(err error) { lastErr.Store(err) },
	)
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	w.Start()
	defer w.Stop()
	time.Sleep(50 * time.Millisecond)

	writeFile(t, path, "modified")

	if !waitFor(t, 2*time.Second, func() bool { return count.Load() == 1 }) {
		t.Errorf("expected 1 reload, got %d", count.Load())
	}
	if err := lastErr.Load(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestWatcher_DebounceMultipleFiles(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "paint.lua")
	cfg := filepath.Join(dir, "host.yaml")
	writeFile(t, script, "a")
	writeFile(t, cfg, "a")

	var mu sync.Mutex
	var calls [][]string
	w, err := NewWatcher([]string{script, cfg, ""}, 150*time.Millisecond,
		func(changed []string) error {
			mu.Lock()
			defer mu.Unlock()
			calls = append(calls, changed)
			return nil
		}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got := w.Files(); len(got) != 2 {
		t.Fatalf("Files() = %v, want 2 entries", got)
	}
	w.Start()
	defer w.Stop()
	time.Sleep(50 * time.Millisecond)

	for i := 0; i < 3; i++ {
		writeFile(t, script, "b")
		writeFile(t, cfg, "b")
		time.Sleep(20 * time.Millisecond)
	}

	ok := waitFor(t, 2*time.Second, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(calls) > 0
	})
	if !ok {
		t.Fatal("no change reported")
	}
	time.Sleep(300 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if len(calls) != 1 {
		t.Fatalf("got %d callbacks, want 1 debounced callback", len(calls))
	}
	abs := func(p string) string { a, _ := filepath.Abs(p); return a }
	want := []string{abs(cfg), abs(script)}
	if !reflect.DeepEqual(calls[0], want) {
		t.Errorf("changed = %v, want %v", calls[0], want)
	}
}

func TestWatcher_StopPreventsReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "paint.lua")
	writeFile(t, path, "initial")

	var count atomic.Int32
	w, err := NewWatcher([]string{path}, 50*time.Millisecond,
		func([]string) error { count.Add(1); return nil }, nil)
	if err != nil {
		t.Fatal(err)
	}
	w.Start()
	time.Sleep(50 * time.Millisecond)
	w.Stop()
	w.Stop()

	writeFile(t, path, "modified")
	time.Sleep(200 * time.Millisecond)

	if n := count.Load(); n != 0 {
		t.Errorf("expected 0 reloads after stop, got %d", n)
	}
}

func TestWatcher_StopWithoutStart(t *testing.T) {
	w, err := NewWatcher([]string{filepath.Join(t.TempDir(), "x.lua")}, 0, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if w.debounce != DefaultWatchDebounce {
		t.Errorf("debounce = %v, want %v", w.debounce, DefaultWatchDebounce)
	}
	w.Stop()
}

func TestWatcher_AtomicSave(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "paint.lua")
	writeFile(t, path, "initial")

	var count atomic.Int32
	w, err := NewWatcher([]string{path}, 50*time.Millisecond,
		func([]string) error { count.Add(1); return nil }, nil)
	if err != nil {
		t.Fatal(err)
	}
	w.Start()
	defer w.Stop()
	time.Sleep(50 * time.Millisecond)

	tmp := path + ".tmp"
	writeFile(t, tmp, "atomic")
	if err := os.Rename(tmp, path); err != nil {
		t.Fatal(err)
	}

	if !waitFor(t, 2*time.Second, func() bool { return count.Load() >= 1 }) {
		t.Error("atomic save not detected")
	}
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "paint.lua")
	writeFile(t, path, "initial")

	var count atomic.Int32
	w, err := NewWatcher([]string{path}, 50*time.Millisecond,
		func([]string) error { count.Add(1); return nil }, nil)
	if err != nil {
		t.Fatal(err)
	}
	w.Start()
	defer w.Stop()
	time.Sleep(50 * time.Millisecond)

	writeFile(t, filepath.Join(dir, "other.txt"), "other")
	time.Sleep(200 * time.Millisecond)

	if n := count.Load(); n != 0 {
		t.Errorf("expected 0 reloads for another file, got %d", n)
	}
}

func TestWatcher_CallbackError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "paint.lua")
	writeFile(t, path, "initial")

	boom := errors.New("reload failed")
	var got atomic.Value
	w, err := NewWatcher([]string{path}, 50*time.Millisecond,
		func([]string) error { return boom },
		func(err error) { got.Store(err) },
	)
	if err != nil {
		t.Fatal(err)
	}
	w.Start()
	defer w.Stop()
	time.Sleep(50 * time.Millisecond)

	writeFile(t, path, "modified")

	if !waitFor(t, 2*time.Second, func() bool { return got.Load() != nil }) {
		t.Fatal("error callback not called")
	}
	if err, _ := got.Load().(error); !errors.Is(err, boom) {
		t.Errorf("error = %v, want %v", err, boom)
	}
}

func TestNewWatcher_MissingDirectory(t *testing.T) {
	_, err := NewWatcher([]string{filepath.Join(t.TempDir(), "nope", "paint.lua")}, 0, nil, nil)
	if err == nil {
		t.Error("expected an error for a missing directory")
	}
}
