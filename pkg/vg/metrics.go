package vg

import (
	"expvar"
	"sync/atomic"
	"time"

	"github.com/opd-ai/go-vgbridge/internal/texcache"
)

// Metrics collects drawing counters and exposes them through expvar.
// It is safe for concurrent use, so a host can read it while the drawing
// goroutine updates it.
//
// Example:
//
//	m := vg.NewMetrics()
//	m.RegisterExpvar() // served at /debug/vars with import _ "expvar"
//	ctx, err := vg.New(b, 800, 600, vg.WithMetrics(m))
type Metrics struct {
	// Counters
	frames          atomic.Int64
	cancelledFrames atomic.Int64
	fills           atomic.Int64
	strokes         atomic.Int64
	images          atomic.Int64
	textRuns        atomic.Int64
	culled          atomic.Int64
	uploadFailures  atomic.Int64
	glyphMisses     atomic.Int64
	underflows      atomic.Int64
	degenerateClips atomic.Int64
	layerMismatches atomic.Int64

	// Image cache gauges, copied from the cache after each lookup.
	cacheHits      atomic.Int64
	cacheMisses    atomic.Int64
	cacheEvictions atomic.Int64
	cacheEntries   atomic.Int64

	// Frame latency (nanoseconds)
	frameLatencyNs    atomic.Int64
	frameLatencyCount atomic.Int64

	registered atomic.Bool
}

// NewMetrics creates a Metrics instance.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// RegisterExpvar publishes the metrics under the "vgbridge_" prefix.
// Safe to call multiple times; subsequent calls are no-ops. Only one
// Metrics instance per process may be registered.
func (m *Metrics) RegisterExpvar() {
	if m.registered.Swap(true) {
		return
	}
	counters := map[string]*atomic.Int64{
		"vgbridge_frames_total":           &m.frames,
		"vgbridge_cancelled_frames_total": &m.cancelledFrames,
		"vgbridge_fills_total":            &m.fills,
		"vgbridge_strokes_total":          &m.strokes,
		"vgbridge_images_total":           &m.images,
		"vgbridge_text_runs_total":        &m.textRuns,
		"vgbridge_culled_total":           &m.culled,
		"vgbridge_upload_failures_total":  &m.uploadFailures,
		"vgbridge_glyph_misses_total":     &m.glyphMisses,
		"vgbridge_state_underflows_total": &m.underflows,
		"vgbridge_degenerate_clips_total": &m.degenerateClips,
		"vgbridge_layer_mismatches_total": &m.layerMismatches,
		"vgbridge_cache_hits_total":       &m.cacheHits,
		"vgbridge_cache_misses_total":     &m.cacheMisses,
		"vgbridge_cache_evictions_total":  &m.cacheEvictions,
		"vgbridge_cache_entries":          &m.cacheEntries,
	}
	for name, v := range counters {
		v := v // per-iteration copy; go.mod targets go1.21 loop semantics
		expvar.Publish(name, expvar.Func(func() any { return v.Load() }))
	}
	expvar.Publish("vgbridge_frame_latency_avg_ms", expvar.Func(func() any {
		count := m.frameLatencyCount.Load()
		if count == 0 {
			return float64(0)
		}
		return float64(m.frameLatencyNs.Load()) / float64(count) / 1e6
	}))
}

// MetricsSnapshot is a point-in-time copy of all metrics.
type MetricsSnapshot struct {
	Frames          int64
	CancelledFrames int64
	Fills           int64
	Strokes         int64
	Images          int64
	TextRuns        int64
	Culled          int64
	UploadFailures  int64
	GlyphMisses     int64
	Underflows      int64
	DegenerateClips int64
	LayerMismatches int64

	CacheHits      int64
	CacheMisses    int64
	CacheEvictions int64
	CacheEntries   int64

	FrameLatencyAvg time.Duration
}

// Snapshot returns a point-in-time copy of all metrics.
func (m *Metrics) Snapshot() MetricsSnapshot {
	s := MetricsSnapshot{
		Frames:          m.frames.Load(),
		CancelledFrames: m.cancelledFrames.Load(),
		Fills:           m.fills.Load(),
		Strokes:         m.strokes.Load(),
		Images:          m.images.Load(),
		TextRuns:        m.textRuns.Load(),
		Culled:          m.culled.Load(),
		UploadFailures:  m.uploadFailures.Load(),
		GlyphMisses:     m.glyphMisses.Load(),
		Underflows:      m.underflows.Load(),
		DegenerateClips: m.degenerateClips.Load(),
		LayerMismatches: m.layerMismatches.Load(),
		CacheHits:       m.cacheHits.Load(),
		CacheMisses:     m.cacheMisses.Load(),
		CacheEvictions:  m.cacheEvictions.Load(),
		CacheEntries:    m.cacheEntries.Load(),
	}
	if n := m.frameLatencyCount.Load(); n > 0 {
		s.FrameLatencyAvg = time.Duration(m.frameLatencyNs.Load() / n)
	}
	return s
}

// RecordFrameLatency records the time between BeginFrame and EndFrame.
func (m *Metrics) RecordFrameLatency(d time.Duration) {
	m.frameLatencyNs.Add(d.Nanoseconds())
	m.frameLatencyCount.Add(1)
}

func (m *Metrics) recordCache(s texcache.Stats, entries int) {
	m.cacheHits.Store(int64(s.Hits))
	m.cacheMisses.Store(int64(s.Misses))
	m.cacheEvictions.Store(int64(s.Evictions))
	m.cacheEntries.Store(int64(entries))
}

func (m *Metrics) recordError(kind ErrorKind) {
	switch kind {
	case KindStateUnderflow:
		m.underflows.Add(1)
	case KindClipDegenerate:
		m.degenerateClips.Add(1)
	case KindImageUploadFailure:
		m.uploadFailures.Add(1)
	case KindGlyphNotFound:
		m.glyphMisses.Add(1)
	case KindTransparencyLayerMismatch:
		m.layerMismatches.Add(1)
	}
}

// Reset clears all metrics. Useful for testing.
func (m *Metrics) Reset() {
	for _, v := range []*atomic.Int64{
		&m.frames, &m.cancelledFrames, &m.fills, &m.strokes, &m.images,
		&m.textRuns, &m.culled, &m.uploadFailures, &m.glyphMisses,
		&m.underflows, &m.degenerateClips, &m.layerMismatches,
		&m.cacheHits, &m.cacheMisses, &m.cacheEvictions, &m.cacheEntries,
		&m.frameLatencyNs, &m.frameLatencyCount,
	} {
		v.Store(0)
	}
}
