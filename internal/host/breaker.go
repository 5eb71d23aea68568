package host

import (
	"errors"
	"sync"
	"time"
)

// BreakerState is the state of a paint breaker.
type BreakerState int

const (
	// BreakerClosed calls paint every frame.
	BreakerClosed BreakerState = iota
	// BreakerOpen skips paint until the cooldown has passed.
	BreakerOpen
	// BreakerHalfOpen lets one frame try paint again.
	BreakerHalfOpen
)

func (s BreakerState) String() string {
	switch s {
	case BreakerClosed:
		return "closed"
	case BreakerOpen:
		return "open"
	case BreakerHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// ErrPaintSuspended is returned by Frame for frames painted without the
// script because it kept failing.
var ErrPaintSuspended = errors.New("paint suspended after repeated failures")

// Default breaker settings.
const (
	DefaultFailureThreshold = 5
	DefaultCooldown         = 2 * time.Second
)

// BreakerStats is a copy of a breaker's counters.
type BreakerStats struct {
	State       BreakerState
	Consecutive int
	Failures    int64
	Skipped     int64
	LastFailure time.Time
	LastError   string
}

// breaker stops calling a failing paint hook for a cooldown so a broken
// script costs one error per cooldown instead of one per frame. A reload
// resets it.
type breaker struct {
	threshold int
	cooldown  time.Duration
	now       func() time.Time
	onChange  func(from, to BreakerState)

	mu          sync.Mutex
	state       BreakerState
	consecutive int
	failures    int64
	skipped     int64
	openedAt    time.Time
	lastFailure time.Time
	lastErr     string
}

func newBreaker(threshold int, cooldown time.Duration) *breaker {
	if threshold <= 0 {
		threshold = DefaultFailureThreshold
	}
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	return &breaker{threshold: threshold, cooldown: cooldown, now: time.Now}
}

// allow reports whether this frame should call paint. An open breaker
// moves to half-open once the cooldown has passed.
func (b *breaker) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch b.state {
	case BreakerOpen:
		if b.now().Sub(b.openedAt) < b.cooldown {
			b.skipped++
			return false
		}
		b.transition(BreakerHalfOpen)
	}
	return true
}

func (b *breaker) record(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err == nil {
		b.consecutive = 0
		b.transition(BreakerClosed)
		return
	}
	b.failures++
	b.consecutive++
	b.lastFailure = b.now()
	b.lastErr = err.Error()
	if b.state == BreakerHalfOpen || b.consecutive >= b.threshold {
		b.openedAt = b.lastFailure
		b.transition(BreakerOpen)
	}
}

func (b *breaker) reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.consecutive = 0
	b.transition(BreakerClosed)
}

// transition must be called with mu held. The callback runs synchronously
// on the frame goroutine.
func (b *breaker) transition(to BreakerState) {
	if b.state == to {
		return
	}
	from := b.state
	b.state = to
	if b.onChange != nil {
		b.onChange(from, to)
	}
}

func (b *breaker) stats() BreakerStats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return BreakerStats{
		State:       b.state,
		Consecutive: b.consecutive,
		Failures:    b.failures,
		Skipped:     b.skipped,
		LastFailure: b.lastFailure,
		LastError:   b.lastErr,
	}
}
