package host

import (
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultWatchDebounce is the quiet period after the last change before a
// reload is triggered.
const DefaultWatchDebounce = 300 * time.Millisecond

// Watcher reports changes to a set of files. Bursts of events are
// debounced into one callback carrying every file that changed.
type Watcher struct {
	watcher   *fsnotify.Watcher
	files     map[string]bool
	debounce  time.Duration
	onChange  func(changed []string) error
	onError   func(error)
	stopCh    chan struct{}
	stoppedCh chan struct{}
	mu        sync.Mutex
	running   bool
}

// NewWatcher watches paths. Empty paths are skipped. The directories
// holding the files are watched rather than the files, so editors that
// save by renaming are seen.
func NewWatcher(paths []string, debounce time.Duration, onChange func(changed []string) error, onError func(error)) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if debounce <= 0 {
		debounce = DefaultWatchDebounce
	}

	w := &Watcher{
		watcher:   fw,
		files:     make(map[string]bool),
		debounce:  debounce,
		onChange:  onChange,
		onError:   onError,
		stopCh:    make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
	dirs := make(map[string]bool)
	for _, p := range paths {
		if p == "" {
			continue
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			fw.Close()
			return nil, fmt.Errorf("failed to resolve %s: %w", p, err)
		}
		w.files[abs] = true
		dir := filepath.Dir(abs)
		if dirs[dir] {
			continue
		}
		if err := fw.Add(dir); err != nil {
			fw.Close()
			return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
		}
		dirs[dir] = true
	}
	return w, nil
}

// Files returns the absolute paths being watched, sorted.
func (w *Watcher) Files() []string {
	out := make([]string, 0, len(w.files))
	for f := range w.files {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// Start begins watching in a goroutine.
func (w *Watcher) Start() {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return
	}
	w.running = true
	w.mu.Unlock()

	go w.watchLoop()
}

// Stop stops watching and waits for the loop to exit. A watcher that was
// never started is closed.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		_ = w.watcher.Close()
		return
	}
	w.mu.Unlock()

	close(w.stopCh)
	<-w.stoppedCh
}

func (w *Watcher) watchLoop() {
	defer close(w.stoppedCh)
	defer w.watcher.Close()

	pending := make(map[string]bool)
	var debounceTimer *time.Timer
	var debounceCh <-chan time.Time

	for {
		select {
		case <-w.stopCh:
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			w.mu.Lock()
			w.running = false
			w.mu.Unlock()
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			abs, err := filepath.Abs(event.Name)
			if err != nil || !w.files[abs] {
				continue
			}
			// Write, create and rename cover in-place and atomic saves.
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			pending[abs] = true
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.NewTimer(w.debounce)
			debounceCh = debounceTimer.C

		case <-debounceCh:
			changed := make([]string, 0, len(pending))
			for f := range pending {
				changed = append(changed, f)
			}
			sort.Strings(changed)
			pending = make(map[string]bool)
			debounceTimer = nil
			debounceCh = nil

			if w.onChange != nil {
				if err := w.onChange(changed); err != nil && w.onError != nil {
					w.onError(err)
				}
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			if w.onError != nil {
				w.onError(err)
			}
		}
	}
}
