package profiling

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/opd-ai/go-vgbridge/pkg/vg"
)

// Byte sizes used by FormatBytes.
const (
	KB = 1024
	MB = KB * 1024
	GB = MB * 1024
)

// Sample is one reading of process and drawing counters.
type Sample struct {
	Time        time.Time
	Frames      int64
	HeapAlloc   uint64
	HeapObjects uint64
	Goroutines  int
	// CachedImages is the image cache population after the last lookup.
	CachedImages int64
}

// SamplerConfig configures a Sampler. Zero fields take their defaults.
type SamplerConfig struct {
	Interval time.Duration
	// Window is the number of samples kept; analysis spans the window.
	Window int
	// HeapBytesPerSec is the sustained heap growth treated as a leak.
	HeapBytesPerSec int64
	// GoroutineGrowth is the goroutine increase treated as a leak.
	GoroutineGrowth int
	// ImageCapacity is the configured image cache size. A cache holding
	// more entries than this is leaking textures. Zero disables the check.
	ImageCapacity int
}

// DefaultSamplerConfig returns the defaults used for zero fields.
func DefaultSamplerConfig() SamplerConfig {
	return SamplerConfig{
		Interval:        10 * time.Second,
		Window:          60,
		HeapBytesPerSec: MB,
		GoroutineGrowth: 10,
	}
}

// Growth compares the oldest and newest samples in the window.
type Growth struct {
	Duration       time.Duration
	Frames         int64
	FPS            float64
	HeapDelta      int64
	HeapPerSec     float64
	ObjectsDelta   int64
	GoroutineDelta int
	CachedImages   int64
	// Reasons is empty unless the growth looks like a leak.
	Reasons []string
}

// Suspect reports whether any leak condition was met.
func (g Growth) Suspect() bool { return len(g.Reasons) > 0 }

func (g Growth) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d frames in %s (%.1f fps), heap %+d B (%.2f KB/s), objects %+d, goroutines %+d, cached images %d",
		g.Frames, g.Duration.Round(time.Millisecond), g.FPS, g.HeapDelta, g.HeapPerSec/KB,
		g.ObjectsDelta, g.GoroutineDelta, g.CachedImages)
	if g.Suspect() {
		b.WriteString(": ")
		b.WriteString(strings.Join(g.Reasons, "; "))
	}
	return b.String()
}

// Sampler periodically reads runtime memory stats together with a host's
// drawing metrics. It only touches the metrics' atomic counters, so it can
// run beside the drawing goroutine.
type Sampler struct {
	cfg     SamplerConfig
	metrics *vg.Metrics
	now     func() time.Time

	mu       sync.Mutex
	samples  []Sample
	onGrowth func(Growth)
	running  bool
	stop     chan struct{}
	done     chan struct{}
}

// NewSampler creates a Sampler reading m, which may be nil.
func NewSampler(m *vg.Metrics, cfg SamplerConfig) *Sampler {
	def := DefaultSamplerConfig()
	if cfg.Interval <= 0 {
		cfg.Interval = def.Interval
	}
	if cfg.Window < 2 {
		cfg.Window = def.Window
	}
	if cfg.HeapBytesPerSec <= 0 {
		cfg.HeapBytesPerSec = def.HeapBytesPerSec
	}
	if cfg.GoroutineGrowth <= 0 {
		cfg.GoroutineGrowth = def.GoroutineGrowth
	}
	return &Sampler{cfg: cfg, metrics: m, now: time.Now}
}

// OnSuspect registers fn to be called with each suspect analysis made by
// the background loop.
func (s *Sampler) OnSuspect(fn func(Growth)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onGrowth = fn
}

// Sample takes a reading and adds it to the window.
func (s *Sampler) Sample() Sample {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	smp := Sample{
		Time:        s.now(),
		HeapAlloc:   ms.HeapAlloc,
		HeapObjects: ms.HeapObjects,
		Goroutines:  runtime.NumGoroutine(),
	}
	if s.metrics != nil {
		snap := s.metrics.Snapshot()
		smp.Frames = snap.Frames
		smp.CachedImages = snap.CacheEntries
	}
	s.add(smp)
	return smp
}

func (s *Sampler) add(smp Sample) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.samples = append(s.samples, smp)
	if over := len(s.samples) - s.cfg.Window; over > 0 {
		s.samples = append(s.samples[:0], s.samples[over:]...)
	}
}

// Samples returns a copy of the window, oldest first.
func (s *Sampler) Samples() []Sample {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Sample(nil), s.samples...)
}

// Analyze compares the oldest and newest samples. It returns nil until two
// samples with distinct times exist.
func (s *Sampler) Analyze() *Growth {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.samples) < 2 {
		return nil
	}
	return s.compare(s.samples[0], s.samples[len(s.samples)-1])
}

func (s *Sampler) compare(first, last Sample) *Growth {
	d := last.Time.Sub(first.Time)
	if d <= 0 {
		return nil
	}
	g := &Growth{
		Duration:       d,
		Frames:         last.Frames - first.Frames,
		HeapDelta:      int64(last.HeapAlloc) - int64(first.HeapAlloc),
		ObjectsDelta:   int64(last.HeapObjects) - int64(first.HeapObjects),
		GoroutineDelta: last.Goroutines - first.Goroutines,
		CachedImages:   last.CachedImages,
	}
	g.FPS = float64(g.Frames) / d.Seconds()
	g.HeapPerSec = float64(g.HeapDelta) / d.Seconds()

	if g.HeapPerSec > float64(s.cfg.HeapBytesPerSec) {
		g.Reasons = append(g.Reasons, fmt.Sprintf("heap growing at %s/s", FormatBytes(uint64(g.HeapPerSec))))
	}
	if g.GoroutineDelta > s.cfg.GoroutineGrowth {
		g.Reasons = append(g.Reasons, fmt.Sprintf("%d new goroutines", g.GoroutineDelta))
	}
	if s.cfg.ImageCapacity > 0 && g.CachedImages > int64(s.cfg.ImageCapacity) {
		g.Reasons = append(g.Reasons, fmt.Sprintf("image cache holds %d entries, capacity %d",
			g.CachedImages, s.cfg.ImageCapacity))
	}
	return g
}

// Start samples every Interval in the background until Stop.
func (s *Sampler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return errors.New("sampler is already running")
	}
	s.running = true
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	go s.loop(s.stop, s.done)
	return nil
}

// Stop ends background sampling and waits for the loop to exit.
func (s *Sampler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return errors.New("sampler is not running")
	}
	s.running = false
	close(s.stop)
	done := s.done
	s.mu.Unlock()
	<-done
	return nil
}

// IsRunning reports whether the background loop is active.
func (s *Sampler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Sampler) loop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	s.Sample()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.Sample()
			g := s.Analyze()
			if g == nil || !g.Suspect() {
				continue
			}
			s.mu.Lock()
			fn := s.onGrowth
			s.mu.Unlock()
			if fn != nil {
				fn(*g)
			}
		}
	}
}

// FormatBytes formats n with a binary unit.
func FormatBytes(n uint64) string {
	switch {
	case n >= GB:
		return fmt.Sprintf("%.2f GB", float64(n)/GB)
	case n >= MB:
		return fmt.Sprintf("%.2f MB", float64(n)/MB)
	case n >= KB:
		return fmt.Sprintf("%.2f KB", float64(n)/KB)
	default:
		return fmt.Sprintf("%d B", n)
	}
}
