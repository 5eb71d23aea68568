// Package texcache maps image content identities to backend textures with a
// bounded number of live entries.
//
// Each entry carries a usage counter that starts at zero when the texture
// is uploaded and grows by one on every later hit. When the cache is full
// the entry with the lowest counter is evicted, and among equal counters
// the one inserted first. Counters are never reset, so the ranking is by
// access frequency rather than recency.
package texcache

import (
	"errors"
	"fmt"
	"image"

	"github.com/opd-ai/go-vgbridge/internal/backend"
	"github.com/opd-ai/go-vgbridge/pkg/graphics"
)

// DefaultCapacity is the entry limit used when none is configured.
const DefaultCapacity = 64

// ErrUploadFailed wraps backend texture creation failures.
var ErrUploadFailed = errors.New("texcache: texture upload failed")

// ErrNilImage is returned for a nil image.
var ErrNilImage = errors.New("texcache: nil image")

// Uploader creates and releases backend textures.
type Uploader interface {
	CreateTexture(img image.Image) (backend.TextureID, error)
	DeleteTexture(id backend.TextureID)
}

// Stats holds cache counters.
type Stats struct {
	Hits           uint64
	Misses         uint64
	Evictions      uint64
	UploadFailures uint64
}

// EvictFunc is called after an entry's texture has been released.
type EvictFunc func(key uint64, id backend.TextureID)

// Option configures a Cache.
type Option func(*Cache)

// WithEvictHook registers fn to observe evictions.
func WithEvictHook(fn EvictFunc) Option {
	return func(c *Cache) {
		c.onEvict = fn
	}
}

type entry struct {
	handle backend.TextureID
	usage  uint64
	seq    uint64
}

// Cache owns the textures it creates. It is not safe for concurrent use.
type Cache struct {
	uploader Uploader
	capacity int
	entries  map[uint64]*entry
	seq      uint64
	stats    Stats
	onEvict  EvictFunc
}

// New creates a cache over uploader. A capacity below 1 selects
// DefaultCapacity.
func New(uploader Uploader, capacity int, opts ...Option) *Cache {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	c := &Cache{
		uploader: uploader,
		capacity: capacity,
		entries:  make(map[uint64]*entry, capacity),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetOrCreate returns the texture for img's current content, uploading it
// on first use. A hit bumps the entry's usage counter.
func (c *Cache) GetOrCreate(img graphics.Image) (backend.TextureID, error) {
	if img == nil {
		return 0, ErrNilImage
	}
	key := img.ContentKey()
	if e, ok := c.entries[key]; ok {
		e.usage++
		c.stats.Hits++
		return e.handle, nil
	}
	pixels := img.Image()
	if pixels == nil {
		return 0, ErrNilImage
	}
	c.stats.Misses++

	if len(c.entries) >= c.capacity {
		c.evictOne()
	}
	id, err := c.uploader.CreateTexture(pixels)
	if err != nil {
		c.stats.UploadFailures++
		return 0, fmt.Errorf("%w: %w", ErrUploadFailed, err)
	}
	c.seq++
	c.entries[key] = &entry{handle: id, seq: c.seq}
	return id, nil
}

// evictOne releases the lowest-usage entry, oldest first on ties.
func (c *Cache) evictOne() {
	var (
		victimKey uint64
		victim    *entry
	)
	for k, e := range c.entries {
		if victim == nil || e.usage < victim.usage || (e.usage == victim.usage && e.seq < victim.seq) {
			victimKey, victim = k, e
		}
	}
	if victim == nil {
		return
	}
	c.release(victimKey, victim)
	c.stats.Evictions++
}

func (c *Cache) release(key uint64, e *entry) {
	delete(c.entries, key)
	c.uploader.DeleteTexture(e.handle)
	if c.onEvict != nil {
		c.onEvict(key, e.handle)
	}
}

// Remove releases the entry for key, if any.
func (c *Cache) Remove(key uint64) bool {
	e, ok := c.entries[key]
	if !ok {
		return false
	}
	c.release(key, e)
	return true
}

// Clear releases every texture. It must run before the backend is torn
// down.
func (c *Cache) Clear() {
	for k, e := range c.entries {
		c.release(k, e)
	}
}

// Usage returns the usage counter for key.
func (c *Cache) Usage(key uint64) (uint64, bool) {
	e, ok := c.entries[key]
	if !ok {
		return 0, false
	}
	return e.usage, true
}

// Contains reports whether key has a live texture.
func (c *Cache) Contains(key uint64) bool {
	_, ok := c.entries[key]
	return ok
}

// Len returns the number of live entries.
func (c *Cache) Len() int { return len(c.entries) }

// Capacity returns the entry limit.
func (c *Cache) Capacity() int { return c.capacity }

// Stats returns a copy of the counters.
func (c *Cache) Stats() Stats { return c.stats }
